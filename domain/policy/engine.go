// Package policy evaluates grant policy trees at capability-request time:
// ordered alternative options, multi-step challenge sequencing, privacy
// setting interaction, and grant construction. It also hosts the exclusion
// filter for RPC method suppression.
package policy

import (
	"context"
	stdErrors "errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/riverrun-dev/riverrun/domain/entities"
	"github.com/riverrun-dev/riverrun/domain/ports"
)

// engineConfig holds configuration for the Engine.
type engineConfig struct {
	privacy    ports.PrivacyController
	exclusions *Exclusions
	denial     ports.DenialHandler
	methodOf   func(entities.Capability, entities.Role) string
	clock      func() time.Time
	logger     *slog.Logger
}

func defaultEngineConfig() engineConfig {
	return engineConfig{
		denial: &SlogDenialHandler{},
		methodOf: func(capability entities.Capability, _ entities.Role) string {
			return string(capability)
		},
		clock:  time.Now,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

// EngineOption configures the Engine.
type EngineOption func(*engineConfig)

// WithPrivacyController sets the collaborator that mutates privacy
// properties for policies carrying a privacySetting.
func WithPrivacyController(p ports.PrivacyController) EngineOption {
	return func(c *engineConfig) {
		c.privacy = p
	}
}

// WithExclusions sets the exclusion filter consulted for the resolve-only
// short circuit.
func WithExclusions(x *Exclusions) EngineOption {
	return func(c *engineConfig) {
		c.exclusions = x
	}
}

// WithDenialHandler sets the handler invoked on Denied decisions.
func WithDenialHandler(h ports.DenialHandler) EngineOption {
	return func(c *engineConfig) {
		c.denial = h
	}
}

// WithMethodResolver sets the mapping from (capability, role) to the RPC
// method name used for exclusion checks. The default uses the capability
// string itself.
func WithMethodResolver(f func(entities.Capability, entities.Role) string) EngineOption {
	return func(c *engineConfig) {
		c.methodOf = f
	}
}

// WithClock overrides the time source. For tests.
func WithClock(clock func() time.Time) EngineOption {
	return func(c *engineConfig) {
		c.clock = clock
	}
}

// WithEngineLogger sets the logger for evaluation progress.
func WithEngineLogger(logger *slog.Logger) EngineOption {
	return func(c *engineConfig) {
		c.logger = logger
	}
}

// Engine is the grant policy engine. It is safe for concurrent use;
// evaluations for the same (app, capability, role) key coalesce onto the
// first in-flight result so a user never faces duplicate challenges.
type Engine struct {
	registry ports.CapabilityRegistry
	invoker  ports.ChallengeInvoker
	store    ports.GrantStore
	config   engineConfig
	flight   singleflight.Group
	applied  sync.Map // privacy properties applied once (updateProperty=false)
}

// NewEngine creates the policy engine over an immutable capability registry,
// a challenge collaborator, and a grant store.
func NewEngine(registry ports.CapabilityRegistry, invoker ports.ChallengeInvoker, store ports.GrantStore, opts ...EngineOption) *Engine {
	cfg := defaultEngineConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Engine{registry: registry, invoker: invoker, store: store, config: cfg}
}

// Evaluate decides whether appID may exercise the capability under the role.
// Grant outcomes are always recoverable: challenge failures surface as a
// Denied decision, never an error. The only error returns are context
// cancellation (app terminated mid-challenge), which discards any partial
// result without touching the grant store.
func (e *Engine) Evaluate(ctx context.Context, appID string, capability entities.Capability, role entities.Role) (entities.GrantDecision, error) {
	key := entities.GrantKey{AppID: appID, Capability: capability, Role: role}
	v, err, _ := e.flight.Do(key.String(), func() (any, error) {
		return e.evaluate(ctx, key)
	})
	if err != nil {
		return entities.GrantDecision{}, err
	}
	return v.(entities.GrantDecision), nil
}

func (e *Engine) evaluate(ctx context.Context, key entities.GrantKey) (entities.GrantDecision, error) {
	// Resolve-only methods answer without challenge evaluation, so
	// compliance probes can see them, independent of other exclusion
	// handling.
	if e.config.exclusions != nil {
		if method := e.config.methodOf(key.Capability, key.Role); e.config.exclusions.ResolveOnly(method) {
			return entities.GrantDecision{Decision: entities.DecisionGranted, Reason: "resolve-only"}, nil
		}
	}

	// Only granted outcomes are ever cached; a denial always re-evaluates.
	if cached, lookup := e.store.Get(key); lookup == ports.GrantHit {
		return entities.GrantDecision{Decision: entities.DecisionGranted, Reason: "cached", Grant: &cached}, nil
	}

	grantPolicy, ok := e.registry.Policy(key.Capability, key.Role)
	if !ok {
		// Missing policy means implicit always-granted.
		return entities.GrantDecision{Decision: entities.DecisionGranted, Reason: "default-permit"}, nil
	}

	reason := "challenge-failed"
	for _, option := range grantPolicy.Options {
		passed, optReason, err := e.runOption(ctx, key, option)
		if err != nil {
			return entities.GrantDecision{}, err
		}
		if !passed {
			reason = optReason
			continue
		}
		return e.issue(ctx, key, grantPolicy)
	}

	e.config.denial.OnDenial(key, reason)
	e.config.logger.Info("grant denied", "app", key.AppID, "capability", key.Capability, "role", key.Role, "reason", reason)
	return entities.GrantDecision{Decision: entities.DecisionDenied, Reason: reason}, nil
}

// runOption executes an option's steps in order. The first failed or
// declined step aborts the option; later steps are never invoked.
func (e *Engine) runOption(ctx context.Context, key entities.GrantKey, option entities.GrantOption) (passed bool, reason string, err error) {
	for _, step := range option.Steps {
		granted, err := e.invoker.Invoke(ctx, step.Capability, step.Configuration)
		if err != nil {
			if ctx.Err() != nil {
				// Cancellation aborts the whole evaluation with no
				// store write.
				return false, "", ctx.Err()
			}
			if stdErrors.Is(err, context.DeadlineExceeded) {
				e.config.logger.Warn("challenge timed out", "challenge", step.Capability)
				return false, "challenge-timeout", nil
			}
			e.config.logger.Warn("challenge errored", "challenge", step.Capability, "err", err)
			return false, "challenge-failed", nil
		}
		if !granted {
			return false, "challenge-failed", nil
		}
	}
	return true, "", nil
}

func (e *Engine) issue(ctx context.Context, key entities.GrantKey, grantPolicy entities.GrantPolicy) (entities.GrantDecision, error) {
	// A cancellation that raced the last challenge answer must still not
	// materialize a grant.
	if ctx.Err() != nil {
		return entities.GrantDecision{}, ctx.Err()
	}

	e.applyPrivacy(ctx, grantPolicy.Privacy)

	now := e.config.clock()
	grant := entities.Grant{
		ID:          uuid.NewString(),
		AppID:       key.AppID,
		Capability:  key.Capability,
		Role:        key.Role,
		Status:      entities.GrantGranted,
		IssuedAt:    now,
		Scope:       grantPolicy.Scope,
		Lifespan:    grantPolicy.Lifespan,
		Persistence: grantPolicy.Persistence,
		Overridable: grantPolicy.Overridable,
	}
	if grantPolicy.Lifespan == entities.LifespanSeconds {
		grant.ExpiresAt = now.Add(time.Duration(grantPolicy.LifespanTTL) * time.Second)
	}

	// "once" grants authorize exactly this invocation and are never cached.
	if grantPolicy.Lifespan != entities.LifespanOnce {
		if err := e.store.Put(grant); err != nil {
			e.config.logger.Error("grant store write failed", "app", key.AppID, "capability", key.Capability, "err", err)
		}
	}

	e.config.logger.Info("grant issued", "app", key.AppID, "capability", key.Capability, "role", key.Role, "lifespan", grant.Lifespan)
	return entities.GrantDecision{Decision: entities.DecisionGranted, Reason: "challenge", Grant: &grant}, nil
}

// applyPrivacy mutates the referenced privacy property after a successful
// option. updateProperty=true re-applies on every grant; false applies only
// the first time this engine sees the property.
func (e *Engine) applyPrivacy(ctx context.Context, setting *entities.PrivacySetting) {
	if setting == nil || e.config.privacy == nil {
		return
	}
	if setting.AutoApplyPolicy == entities.AutoApplyNever || setting.AutoApplyPolicy == "" {
		return
	}
	if !setting.UpdateProperty {
		if _, seen := e.applied.LoadOrStore(setting.Property, struct{}{}); seen {
			return
		}
	}
	value := setting.AutoApplyPolicy != entities.AutoApplyDisallowed
	if current, err := e.config.privacy.GetProperty(ctx, setting.Property); err == nil && current == value {
		return
	}
	if err := e.config.privacy.SetProperty(ctx, setting.Property, value); err != nil {
		e.config.logger.Warn("privacy property update failed", "property", setting.Property, "err", err)
	}
}
