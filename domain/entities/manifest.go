package entities

import (
	"strings"
	"time"
)

// DefaultLoadTimeout is the per-symbol load budget applied when a manifest
// declares no timeout. A declared timeout of 0 is treated as absent: a zero
// budget would fail every load, which no manifest author can intend.
const DefaultLoadTimeout = 4000 * time.Millisecond

// Manifest is the extension manifest document loaded once at startup.
// It is immutable after parsing; reloading requires an engine restart.
type Manifest struct {
	// DefaultPath is the directory extensions are loaded from when a
	// descriptor path is relative.
	DefaultPath string `json:"default_path" yaml:"default_path"`

	// DefaultExtension is appended to descriptor paths lacking one.
	DefaultExtension string `json:"default_extension" yaml:"default_extension"`

	// TimeoutMs bounds each symbol load, in milliseconds. Absent or zero
	// means DefaultLoadTimeout.
	TimeoutMs uint64 `json:"timeout,omitempty" yaml:"timeout,omitempty"`

	// Extensions lists the extension descriptors in declaration order.
	Extensions []ExtensionDescriptor `json:"extns" yaml:"extns" validate:"dive"`

	// RequiredContracts must each resolve to exactly one fulfilling symbol.
	RequiredContracts []string `json:"required_contracts" yaml:"required_contracts"`

	// RPCAliases maps a contract name to alternative names tried in order
	// when the literal name has no fulfiller.
	RPCAliases map[string][]string `json:"rpc_aliases,omitempty" yaml:"rpc_aliases,omitempty"`

	// RulesPath references an external exclusion rule file.
	RulesPath string `json:"rules_path,omitempty" yaml:"rules_path,omitempty"`
}

// LoadTimeout returns the manifest-wide per-symbol load budget.
func (m *Manifest) LoadTimeout() time.Duration {
	if m.TimeoutMs == 0 {
		return DefaultLoadTimeout
	}
	return time.Duration(m.TimeoutMs) * time.Millisecond
}

// Aliases returns the declared aliases for a contract, in declaration order.
func (m *Manifest) Aliases(contract string) []string {
	if m.RPCAliases == nil {
		return nil
	}
	return m.RPCAliases[contract]
}

// ExtensionDescriptor names a loadable library and the symbols it exports.
type ExtensionDescriptor struct {
	Path    string   `json:"path" yaml:"path" validate:"required"`
	Symbols []Symbol `json:"symbols" yaml:"symbols" validate:"dive"`
}

// LibraryPath resolves the descriptor path against the manifest defaults.
func (d ExtensionDescriptor) LibraryPath(defaultPath, defaultExtension string) string {
	p := d.Path
	if !strings.HasPrefix(p, "/") && defaultPath != "" {
		p = strings.TrimSuffix(defaultPath, "/") + "/" + p
	}
	if defaultExtension != "" && !strings.Contains(lastSegment(p), ".") {
		p += defaultExtension
	}
	return p
}

func lastSegment(p string) string {
	if i := strings.LastIndex(p, "/"); i >= 0 {
		return p[i+1:]
	}
	return p
}

// Symbol is a loadable unit inside an extension.
type Symbol struct {
	// ID uniquely identifies the symbol across the whole manifest.
	ID string `json:"id" yaml:"id" validate:"required"`

	// Uses names the contracts this symbol depends on.
	Uses []string `json:"uses,omitempty" yaml:"uses,omitempty"`

	// Fulfills names the contracts this symbol provides.
	Fulfills []string `json:"fulfills,omitempty" yaml:"fulfills,omitempty"`

	// Config is an opaque bag handed verbatim to the module loader.
	// The engines never interpret it.
	Config map[string]any `json:"config,omitempty" yaml:"config,omitempty"`

	// TimeoutMs overrides the manifest load budget for this symbol.
	TimeoutMs uint64 `json:"timeout,omitempty" yaml:"timeout,omitempty"`
}

// LoadTimeout returns the symbol's load budget, falling back to the given
// manifest-wide value when no override is declared.
func (s Symbol) LoadTimeout(fallback time.Duration) time.Duration {
	if s.TimeoutMs == 0 {
		return fallback
	}
	return time.Duration(s.TimeoutMs) * time.Millisecond
}
