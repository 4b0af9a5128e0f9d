// Package challenge dispatches grant challenges to the extension symbols
// fulfilling the challenge capabilities.
package challenge

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/riverrun-dev/riverrun/domain/entities"
	"github.com/riverrun-dev/riverrun/domain/errors"
	"github.com/riverrun-dev/riverrun/domain/ports"
)

// DefaultChallengeTimeout bounds one user-facing challenge. Pin entry and
// acknowledgment dialogs wait on a person, so the budget is generous.
const DefaultChallengeTimeout = 60 * time.Second

// SymbolResolver resolves a contract to its loaded fulfilling symbol and
// returns the module handle for it. The extension engine satisfies it.
type SymbolResolver interface {
	Resolve(contract string) (entities.Symbol, error)
	Handle(symbolID string) (ports.ModuleHandle, bool)
}

// invokerConfig holds configuration for the ExtensionInvoker.
type invokerConfig struct {
	timeout time.Duration
	logger  *slog.Logger
}

func defaultInvokerConfig() invokerConfig {
	return invokerConfig{
		timeout: DefaultChallengeTimeout,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

// InvokerOption configures the ExtensionInvoker.
type InvokerOption func(*invokerConfig)

// WithChallengeTimeout bounds each challenge invocation. Zero disables the
// bound; the caller's ctx still applies.
func WithChallengeTimeout(d time.Duration) InvokerOption {
	return func(c *invokerConfig) {
		c.timeout = d
	}
}

// WithInvokerLogger sets the invoker logger.
func WithInvokerLogger(logger *slog.Logger) InvokerOption {
	return func(c *invokerConfig) {
		c.logger = logger
	}
}

// ExtensionInvoker implements the challenge port by resolving the challenge
// capability to a loaded extension symbol and driving its challenge entry
// point.
type ExtensionInvoker struct {
	resolver SymbolResolver
	config   invokerConfig
}

// NewExtensionInvoker creates an invoker over the given resolver.
func NewExtensionInvoker(resolver SymbolResolver, opts ...InvokerOption) *ExtensionInvoker {
	cfg := defaultInvokerConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &ExtensionInvoker{resolver: resolver, config: cfg}
}

// Invoke implements ports.ChallengeInvoker. The challenge capability string
// doubles as the contract name its provider fulfills.
func (i *ExtensionInvoker) Invoke(ctx context.Context, capability entities.Capability, config map[string]any) (bool, error) {
	sym, err := i.resolver.Resolve(string(capability))
	if err != nil {
		return false, &errors.ChallengeError{Capability: capability, Err: err}
	}

	handle, ok := i.resolver.Handle(sym.ID)
	if !ok {
		return false, &errors.ChallengeError{Capability: capability, Err: errors.ErrNotFound}
	}
	provider, ok := handle.(ports.ChallengeModule)
	if !ok {
		i.config.logger.Warn("challenge provider lacks challenge entry point", "symbol", sym.ID)
		return false, &errors.ChallengeError{Capability: capability, Err: errors.ErrNotFound}
	}

	if i.config.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, i.config.timeout)
		defer cancel()
	}

	passed, err := provider.Challenge(ctx, capability, config)
	if err != nil {
		return false, &errors.ChallengeError{Capability: capability, Err: err}
	}
	return passed, nil
}
