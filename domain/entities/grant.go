package entities

import "time"

// GrantScope is the boundary over which a grant is valid.
type GrantScope string

const (
	ScopeApp    GrantScope = "app"
	ScopeDevice GrantScope = "device"
)

// GrantLifespan is the expiry model governing grant validity.
type GrantLifespan string

const (
	LifespanOnce        GrantLifespan = "once"
	LifespanSeconds     GrantLifespan = "seconds"
	LifespanForever     GrantLifespan = "forever"
	LifespanPowerActive GrantLifespan = "powerActive"
)

// GrantPersistence classifies how long a cached grant survives.
type GrantPersistence string

const (
	PersistenceAppActive   GrantPersistence = "appActive"
	PersistencePowerActive GrantPersistence = "powerActive"
	PersistenceDevice      GrantPersistence = "device"
)

// AutoApplyPolicy controls whether a privacy setting is mutated when the
// owning grant succeeds.
type AutoApplyPolicy string

const (
	AutoApplyAlways     AutoApplyPolicy = "always"
	AutoApplyAllowed    AutoApplyPolicy = "allowed"
	AutoApplyDisallowed AutoApplyPolicy = "disallowed"
	AutoApplyNever      AutoApplyPolicy = "never"
)

// PrivacySetting couples a grant policy to a device privacy property.
type PrivacySetting struct {
	Property        string          `json:"property" yaml:"property" validate:"required"`
	AutoApplyPolicy AutoApplyPolicy `json:"autoApplyPolicy" yaml:"autoApplyPolicy"`
	UpdateProperty  bool            `json:"updateProperty" yaml:"updateProperty"`
}

// GrantStep is one challenge in a grant option: the challenge capability to
// invoke plus its opaque step configuration (e.g. a pinSpace for
// pinchallenge).
type GrantStep struct {
	Capability    Capability     `json:"capability" yaml:"capability" validate:"required"`
	Configuration map[string]any `json:"configuration,omitempty" yaml:"configuration,omitempty"`
}

// GrantOption is one alternative way to obtain a grant: every step must
// succeed, in order.
type GrantOption struct {
	Steps []GrantStep `json:"steps" yaml:"steps" validate:"dive"`
}

// GrantPolicy is the declarative rule tree for one (capability, role) pair.
// Options are tried in declared order; the first fully satisfied option wins.
type GrantPolicy struct {
	Options     []GrantOption    `json:"options" yaml:"options"`
	Scope       GrantScope       `json:"scope" yaml:"scope"`
	Lifespan    GrantLifespan    `json:"lifespan" yaml:"lifespan"`
	LifespanTTL uint64           `json:"lifespanTtl,omitempty" yaml:"lifespanTtl,omitempty"`
	Overridable bool             `json:"overridable" yaml:"overridable"`
	Persistence GrantPersistence `json:"persistence" yaml:"persistence"`
	Privacy     *PrivacySetting  `json:"privacySetting,omitempty" yaml:"privacySetting,omitempty"`
}

// GrantStatus is the outcome a grant materializes.
type GrantStatus string

const (
	GrantGranted GrantStatus = "granted"
	GrantDenied  GrantStatus = "denied"
)

// Grant is a materialized, time- and scope-bounded grant decision.
type Grant struct {
	ID          string           `json:"id" yaml:"id"`
	AppID       string           `json:"appId" yaml:"appId"`
	Capability  Capability       `json:"capability" yaml:"capability"`
	Role        Role             `json:"role" yaml:"role"`
	Status      GrantStatus      `json:"status" yaml:"status"`
	IssuedAt    time.Time        `json:"issuedAt" yaml:"issuedAt"`
	ExpiresAt   time.Time        `json:"expiresAt,omitempty" yaml:"expiresAt,omitempty"` // zero = never
	Scope       GrantScope       `json:"scope" yaml:"scope"`
	Lifespan    GrantLifespan    `json:"lifespan" yaml:"lifespan"`
	Persistence GrantPersistence `json:"persistence" yaml:"persistence"`
	Overridable bool             `json:"overridable" yaml:"overridable"`
}

// Key returns the lookup key for this grant.
func (g Grant) Key() GrantKey {
	return GrantKey{AppID: g.AppID, Capability: g.Capability, Role: g.Role}
}

// Expired reports whether the grant has lapsed at the given instant.
// Only "seconds" grants expire by clock; the other lifespans expire on
// externally signaled lifecycle events.
func (g Grant) Expired(now time.Time) bool {
	if g.Lifespan != LifespanSeconds || g.ExpiresAt.IsZero() {
		return false
	}
	return now.After(g.ExpiresAt)
}

// Decision is the outcome of a grant policy evaluation.
type Decision string

const (
	DecisionGranted Decision = "granted"
	DecisionDenied  Decision = "denied"
)

// GrantDecision is what Evaluate hands back to the RPC layer.
type GrantDecision struct {
	Decision Decision
	// Reason is a short machine-readable explanation: "default-permit",
	// "resolve-only", "cached", "challenge", "challenge-failed",
	// "challenge-timeout".
	Reason string
	// Grant is the cached or freshly issued grant, when one exists.
	Grant *Grant
}

// Granted reports whether the decision permits the capability use.
func (d GrantDecision) Granted() bool {
	return d.Decision == DecisionGranted
}
