package policy_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/riverrun-dev/riverrun/domain/entities"
	"github.com/riverrun-dev/riverrun/domain/policy"
)

func TestResolveOnlyOverridesIgnoreRules(t *testing.T) {
	// A method listed in both blocks must still resolve: probes rely on it.
	x := policy.NewExclusions(&entities.ExclusoryConfig{
		ResolveOnly:       []string{"device.model"},
		MethodIgnoreRules: []string{"device.model"},
	})

	assert.False(t, x.IsExcluded("app1", "device.model"))
	assert.True(t, x.ResolveOnly("device.model"))
}

func TestGlobalMethodIgnore(t *testing.T) {
	x := policy.NewExclusions(&entities.ExclusoryConfig{
		MethodIgnoreRules: []string{"secure.*"},
	})

	assert.True(t, x.IsExcluded("app1", "secure.provision"))
	assert.False(t, x.IsExcluded("app1", "device.model"))
}

func TestAppIgnoreRules(t *testing.T) {
	x := policy.NewExclusions(&entities.ExclusoryConfig{
		AppAuthorizationRules: entities.AppAuthorizationRules{
			AppIgnoreRules: map[string][]string{
				"kiosk":   {"*"},
				"partner": {"account.*"},
			},
		},
	})

	t.Run("wildcard suppresses everything for the app", func(t *testing.T) {
		assert.True(t, x.IsExcluded("kiosk", "device.model"))
		assert.True(t, x.IsExcluded("kiosk", "account.session"))
	})

	t.Run("pattern rules apply only to the named app", func(t *testing.T) {
		assert.True(t, x.IsExcluded("partner", "account.session"))
		assert.False(t, x.IsExcluded("partner", "device.model"))
		assert.False(t, x.IsExcluded("other", "account.session"))
	})
}

func TestNilConfigExcludesNothing(t *testing.T) {
	x := policy.NewExclusions(nil)

	assert.False(t, x.IsExcluded("app1", "device.model"))
	assert.False(t, x.ResolveOnly("device.model"))
}
