// Package wazero implements the module loader port over the wazero WASM
// runtime: extension libraries are WASM binaries, one instantiation per
// symbol.
package wazero

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"

	"github.com/riverrun-dev/riverrun/domain/entities"
	"github.com/riverrun-dev/riverrun/domain/ports"
)

// loaderConfig holds configuration for the Loader.
type loaderConfig struct {
	compileCache bool
}

func defaultLoaderConfig() loaderConfig {
	return loaderConfig{
		compileCache: true,
	}
}

// LoaderOption configures the Loader.
type LoaderOption func(*loaderConfig)

// WithCompileCache enables/disables wazero's in-memory compilation cache.
// Symbols of the same library share compiled code when enabled.
func WithCompileCache(enabled bool) LoaderOption {
	return func(c *loaderConfig) {
		c.compileCache = enabled
	}
}

// Loader loads extension symbols as WASM module instances.
type Loader struct {
	runtime wazero.Runtime
	config  loaderConfig
}

// NewLoader creates a Loader with its own wazero runtime.
func NewLoader(ctx context.Context, opts ...LoaderOption) (*Loader, error) {
	cfg := defaultLoaderConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	rtConfig := wazero.NewRuntimeConfig()
	if cfg.compileCache {
		rtConfig = rtConfig.WithCompilationCache(wazero.NewCompilationCache())
	}
	rt := wazero.NewRuntimeWithConfig(ctx, rtConfig)
	wasi_snapshot_preview1.MustInstantiate(ctx, rt)

	return &Loader{runtime: rt, config: cfg}, nil
}

// Load instantiates the symbol's library and hands it the symbol id plus its
// opaque config. The sequencer bounds the call via ctx; wazero aborts
// execution when the context expires.
func (l *Loader) Load(ctx context.Context, path, symbolID string, config map[string]any) (ports.ModuleHandle, error) {
	wasmBytes, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read extension library: %w", err)
	}

	mod, err := l.runtime.InstantiateWithConfig(ctx, wasmBytes,
		wazero.NewModuleConfig().WithName(symbolID))
	if err != nil {
		return nil, fmt.Errorf("failed to instantiate module: %w", err)
	}

	handle := &moduleHandle{module: mod, symbolID: symbolID}
	if err := handle.configure(ctx, config); err != nil {
		_ = mod.Close(ctx)
		return nil, err
	}
	return handle, nil
}

// Close releases the runtime and every module instantiated through it.
func (l *Loader) Close(ctx context.Context) error {
	return l.runtime.Close(ctx)
}

// moduleHandle is a loaded WASM symbol.
type moduleHandle struct {
	module   api.Module
	symbolID string
}

// SymbolID implements ports.ModuleHandle.
func (h *moduleHandle) SymbolID() string {
	return h.symbolID
}

// Close implements ports.ModuleHandle.
func (h *moduleHandle) Close(ctx context.Context) error {
	return h.module.Close(ctx)
}

// configure hands the symbol its pass-through config through the optional
// "configure" export, using the packed ptr+len ABI: config JSON is written
// into guest memory obtained from the "allocate" export.
func (h *moduleHandle) configure(ctx context.Context, config map[string]any) error {
	configureFn := h.module.ExportedFunction("configure")
	if configureFn == nil || len(config) == 0 {
		return nil
	}

	packed, err := h.writeGuest(ctx, config)
	if err != nil {
		return err
	}
	if _, err := configureFn.Call(ctx, packed); err != nil {
		return fmt.Errorf("configure call failed: %w", err)
	}
	return nil
}

// Challenge implements ports.ChallengeModule through the "challenge" export.
// The guest receives the challenge capability and step configuration as JSON
// and returns nonzero when the user passed.
func (h *moduleHandle) Challenge(ctx context.Context, capability entities.Capability, config map[string]any) (bool, error) {
	challengeFn := h.module.ExportedFunction("challenge")
	if challengeFn == nil {
		return false, fmt.Errorf("symbol %s does not export challenge", h.symbolID)
	}

	packed, err := h.writeGuest(ctx, challengeRequest{Capability: capability, Config: config})
	if err != nil {
		return false, err
	}
	results, err := challengeFn.Call(ctx, packed)
	if err != nil {
		return false, fmt.Errorf("challenge call failed: %w", err)
	}
	return len(results) > 0 && results[0] != 0, nil
}

type challengeRequest struct {
	Capability entities.Capability `json:"capability"`
	Config     map[string]any      `json:"config,omitempty"`
}

// writeGuest marshals v into guest memory obtained from the "allocate" export
// and returns the packed ptr<<32|len handle the exports take.
func (h *moduleHandle) writeGuest(ctx context.Context, v any) (uint64, error) {
	alloc := h.module.ExportedFunction("allocate")
	if alloc == nil {
		return 0, fmt.Errorf("symbol %s does not export allocate", h.symbolID)
	}

	payload, err := json.Marshal(v)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal guest payload: %w", err)
	}

	results, err := alloc.Call(ctx, uint64(len(payload)))
	if err != nil {
		return 0, fmt.Errorf("guest allocation failed: %w", err)
	}
	ptr := uint32(results[0])
	if !h.module.Memory().Write(ptr, payload) {
		return 0, fmt.Errorf("failed to write payload into guest memory")
	}
	return uint64(ptr)<<32 | uint64(uint32(len(payload))), nil
}
