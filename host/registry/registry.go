// Package registry holds the immutable capability snapshot: the supported
// universe, the grant policies arbitrating it, and the JSON Schemas for
// challenge step configurations.
package registry

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
	"sync"

	"github.com/invopop/jsonschema"

	"github.com/riverrun-dev/riverrun/domain/entities"
	"github.com/riverrun-dev/riverrun/domain/errors"
)

// registryConfig holds configuration for the Registry.
type registryConfig struct {
	strictMode bool // fail on duplicate challenge registrations
}

func defaultRegistryConfig() registryConfig {
	return registryConfig{
		strictMode: true,
	}
}

// RegistryOption configures a Registry instance.
type RegistryOption func(*registryConfig)

// WithStrictMode enables/disables strict mode for duplicate challenge
// registrations. Default is true. Disable only for testing.
func WithStrictMode(enabled bool) RegistryOption {
	return func(c *registryConfig) {
		c.strictMode = enabled
	}
}

// Registry is built once from the device manifest and shared read-only with
// every capability request afterwards. Immutability comes from construction,
// not runtime guards.
type Registry struct {
	config    registryConfig
	supported map[entities.Capability]struct{}
	policies  map[entities.Capability]map[entities.Role]entities.GrantPolicy
	schemas   sync.Map // challenge kind -> json schema string
	models    sync.Map // challenge kind -> reflect.Type of the config model
}

// New builds a Registry from the device manifest's capability configuration.
// Every capability referenced by a grant policy (the policy's own key and
// each challenge step) must be a member of the supported set; a violation
// is a load-time configuration error, never a request-time one.
func New(device *entities.DeviceManifest, opts ...RegistryOption) (*Registry, error) {
	cfg := defaultRegistryConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	r := &Registry{
		config:    cfg,
		supported: make(map[entities.Capability]struct{}, len(device.Capabilities.Supported)),
		policies:  map[entities.Capability]map[entities.Role]entities.GrantPolicy{},
	}
	for _, capability := range device.Capabilities.Supported {
		r.supported[capability] = struct{}{}
	}

	for capability, byRole := range device.Capabilities.GrantPolicies {
		if _, ok := r.supported[capability]; !ok {
			return nil, &errors.UnknownCapabilityError{Capability: capability, Where: "grantPolicies"}
		}
		for role, policy := range byRole {
			if !role.Valid() {
				return nil, fmt.Errorf("grant policy for %s: unknown role %q", capability, role)
			}
			if err := r.checkPolicy(capability, role, policy); err != nil {
				return nil, err
			}
			if r.policies[capability] == nil {
				r.policies[capability] = map[entities.Role]entities.GrantPolicy{}
			}
			r.policies[capability][role] = policy
		}
	}
	return r, nil
}

func (r *Registry) checkPolicy(capability entities.Capability, role entities.Role, policy entities.GrantPolicy) error {
	if policy.Lifespan == entities.LifespanSeconds && policy.LifespanTTL == 0 {
		return fmt.Errorf("grant policy for %s/%s: lifespan \"seconds\" requires a positive lifespanTtl", capability, role)
	}
	for i, option := range policy.Options {
		for j, step := range option.Steps {
			if _, ok := r.supported[step.Capability]; !ok {
				return &errors.UnknownCapabilityError{
					Capability: step.Capability,
					Where:      fmt.Sprintf("%s/%s option %d step %d", capability, role, i, j),
				}
			}
		}
	}
	return nil
}

// RegisterChallenge adds a JSON Schema generated from a Go config model for
// a challenge kind (e.g. "pinchallenge" with a pinSpace field).
func (r *Registry) RegisterChallenge(kind string, model any) error {
	if r.config.strictMode {
		if _, exists := r.schemas.Load(kind); exists {
			return fmt.Errorf("challenge %q already registered", kind)
		}
	}

	s := jsonschema.Reflect(model)
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to marshal schema for %s: %w", kind, err)
	}
	r.schemas.Store(kind, string(data))
	r.models.Store(kind, reflect.TypeOf(model))
	return nil
}

// ValidatePolicies checks every grant step's configuration against the
// registered config model for its challenge kind. Call it once all challenge
// kinds are registered, before serving; steps whose kind has no registered
// model are skipped.
func (r *Registry) ValidatePolicies() error {
	for capability, byRole := range r.policies {
		for role, policy := range byRole {
			for i, option := range policy.Options {
				for j, step := range option.Steps {
					if err := r.checkStepConfig(step); err != nil {
						return fmt.Errorf("grant policy for %s/%s option %d step %d: %w", capability, role, i, j, err)
					}
				}
			}
		}
	}
	return nil
}

// checkStepConfig round-trips the step configuration through the registered
// model with unknown fields disallowed, so shape mismatches (wrong types,
// misspelled keys) fail at startup instead of at challenge time. The
// challenge kind is the final segment of the step capability.
func (r *Registry) checkStepConfig(step entities.GrantStep) error {
	kind := step.Capability.Short()
	v, ok := r.models.Load(kind)
	if !ok || len(step.Configuration) == 0 {
		return nil
	}
	t := v.(reflect.Type)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	payload, err := json.Marshal(step.Configuration)
	if err != nil {
		return fmt.Errorf("failed to marshal step configuration: %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(payload))
	dec.DisallowUnknownFields()
	if err := dec.Decode(reflect.New(t).Interface()); err != nil {
		return fmt.Errorf("configuration does not match the %s model: %w", kind, err)
	}
	return nil
}

// Supported reports membership in the closed capability universe.
func (r *Registry) Supported(capability entities.Capability) bool {
	_, ok := r.supported[capability]
	return ok
}

// Policy returns the declared grant policy for a (capability, role) pair.
func (r *Registry) Policy(capability entities.Capability, role entities.Role) (entities.GrantPolicy, bool) {
	byRole, ok := r.policies[capability]
	if !ok {
		return entities.GrantPolicy{}, false
	}
	policy, ok := byRole[role]
	return policy, ok
}

// ChallengeSchema retrieves the JSON Schema for a challenge kind.
func (r *Registry) ChallengeSchema(kind string) (string, bool) {
	v, ok := r.schemas.Load(kind)
	if !ok {
		return "", false
	}
	return v.(string), true
}

// List returns all supported capabilities.
func (r *Registry) List() []entities.Capability {
	out := make([]entities.Capability, 0, len(r.supported))
	for capability := range r.supported {
		out = append(out, capability)
	}
	return out
}
