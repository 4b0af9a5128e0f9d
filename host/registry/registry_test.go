package registry_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/riverrun-dev/riverrun/domain/entities"
	rrerrors "github.com/riverrun-dev/riverrun/domain/errors"
	"github.com/riverrun-dev/riverrun/host/registry"
)

const (
	capLocation = entities.Capability("xrn:gateway:capability:localization:location")
	capPin      = entities.Capability("xrn:gateway:capability:usergrant:pinchallenge")
	capAck      = entities.Capability("xrn:gateway:capability:usergrant:acknowledgechallenge")
)

func deviceWith(policies map[entities.Capability]map[entities.Role]entities.GrantPolicy) *entities.DeviceManifest {
	return &entities.DeviceManifest{
		Capabilities: entities.CapabilityConfiguration{
			Supported:     []entities.Capability{capLocation, capPin, capAck},
			GrantPolicies: policies,
		},
	}
}

func TestSupportedUniverse(t *testing.T) {
	r, err := registry.New(deviceWith(nil))
	require.NoError(t, err)

	assert.True(t, r.Supported(capLocation))
	assert.False(t, r.Supported("xrn:gateway:capability:nosuch"))
	assert.ElementsMatch(t, []entities.Capability{capLocation, capPin, capAck}, r.List())
}

func TestPolicyLookup(t *testing.T) {
	policy := entities.GrantPolicy{
		Options:  []entities.GrantOption{{Steps: []entities.GrantStep{{Capability: capAck}}}},
		Scope:    entities.ScopeApp,
		Lifespan: entities.LifespanForever,
	}
	r, err := registry.New(deviceWith(map[entities.Capability]map[entities.Role]entities.GrantPolicy{
		capLocation: {entities.RoleUse: policy},
	}))
	require.NoError(t, err)

	got, ok := r.Policy(capLocation, entities.RoleUse)
	require.True(t, ok)
	assert.Equal(t, entities.ScopeApp, got.Scope)

	_, ok = r.Policy(capLocation, entities.RoleManage)
	assert.False(t, ok)
}

func TestUnknownPolicyCapabilityIsLoadTimeError(t *testing.T) {
	_, err := registry.New(deviceWith(map[entities.Capability]map[entities.Role]entities.GrantPolicy{
		"xrn:gateway:capability:unsupported": {entities.RoleUse: {}},
	}))

	var unknownErr *rrerrors.UnknownCapabilityError
	require.ErrorAs(t, err, &unknownErr)
	assert.Equal(t, entities.Capability("xrn:gateway:capability:unsupported"), unknownErr.Capability)
}

func TestUnknownStepCapabilityIsLoadTimeError(t *testing.T) {
	_, err := registry.New(deviceWith(map[entities.Capability]map[entities.Role]entities.GrantPolicy{
		capLocation: {entities.RoleUse: {
			Options: []entities.GrantOption{{Steps: []entities.GrantStep{
				{Capability: "xrn:gateway:capability:usergrant:nosuchchallenge"},
			}}},
		}},
	}))

	var unknownErr *rrerrors.UnknownCapabilityError
	require.ErrorAs(t, err, &unknownErr)
}

func TestSecondsLifespanRequiresTTL(t *testing.T) {
	_, err := registry.New(deviceWith(map[entities.Capability]map[entities.Role]entities.GrantPolicy{
		capLocation: {entities.RoleUse: {Lifespan: entities.LifespanSeconds}},
	}))
	assert.Error(t, err)
}

func TestUnknownRoleRejected(t *testing.T) {
	_, err := registry.New(deviceWith(map[entities.Capability]map[entities.Role]entities.GrantPolicy{
		capLocation: {"borrow": {}},
	}))
	assert.Error(t, err)
}

func TestRegisterChallenge(t *testing.T) {
	type pinChallengeConfig struct {
		PinSpace string `json:"pinSpace" jsonschema:"enum=purchase,enum=content"`
	}

	r, err := registry.New(deviceWith(nil))
	require.NoError(t, err)

	require.NoError(t, r.RegisterChallenge("pinchallenge", &pinChallengeConfig{}))

	schema, ok := r.ChallengeSchema("pinchallenge")
	require.True(t, ok)
	assert.Contains(t, schema, "pinSpace")

	t.Run("duplicate registration fails in strict mode", func(t *testing.T) {
		assert.Error(t, r.RegisterChallenge("pinchallenge", &pinChallengeConfig{}))
	})

	t.Run("duplicate allowed when strict mode disabled", func(t *testing.T) {
		lax, err := registry.New(deviceWith(nil), registry.WithStrictMode(false))
		require.NoError(t, err)
		require.NoError(t, lax.RegisterChallenge("pinchallenge", &pinChallengeConfig{}))
		assert.NoError(t, lax.RegisterChallenge("pinchallenge", &pinChallengeConfig{}))
	})
}

func TestValidatePoliciesChecksStepConfigShape(t *testing.T) {
	type pinChallengeConfig struct {
		PinSpace string `json:"pinSpace"`
	}

	validateWith := func(t *testing.T, step entities.GrantStep) error {
		t.Helper()
		r, err := registry.New(deviceWith(map[entities.Capability]map[entities.Role]entities.GrantPolicy{
			capLocation: {entities.RoleUse: {
				Options:  []entities.GrantOption{{Steps: []entities.GrantStep{step}}},
				Scope:    entities.ScopeApp,
				Lifespan: entities.LifespanForever,
			}},
		}))
		require.NoError(t, err)
		require.NoError(t, r.RegisterChallenge("pinchallenge", &pinChallengeConfig{}))
		return r.ValidatePolicies()
	}

	t.Run("well-formed configuration passes", func(t *testing.T) {
		assert.NoError(t, validateWith(t, entities.GrantStep{
			Capability:    capPin,
			Configuration: map[string]any{"pinSpace": "purchase"},
		}))
	})

	t.Run("wrong field type fails at startup", func(t *testing.T) {
		err := validateWith(t, entities.GrantStep{
			Capability:    capPin,
			Configuration: map[string]any{"pinSpace": 42},
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "pinchallenge")
	})

	t.Run("misspelled key fails at startup", func(t *testing.T) {
		assert.Error(t, validateWith(t, entities.GrantStep{
			Capability:    capPin,
			Configuration: map[string]any{"pinspace": "purchase"},
		}))
	})

	t.Run("kinds without a registered model are skipped", func(t *testing.T) {
		assert.NoError(t, validateWith(t, entities.GrantStep{
			Capability:    capAck,
			Configuration: map[string]any{"anything": "goes"},
		}))
	})
}
