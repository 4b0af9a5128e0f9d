package ports

import "context"

// ModuleHandle is a loaded extension symbol.
type ModuleHandle interface {
	// SymbolID returns the id of the symbol this handle was loaded for.
	SymbolID() string

	// Close releases the underlying module.
	Close(ctx context.Context) error
}

// ModuleLoader loads one symbol from an extension library. The load
// sequencer bounds each call with a per-symbol timeout via ctx; loaders must
// honor cancellation.
type ModuleLoader interface {
	// Load instantiates the named symbol. config is the symbol's opaque
	// pass-through configuration from the manifest.
	Load(ctx context.Context, path, symbolID string, config map[string]any) (ModuleHandle, error)
}
