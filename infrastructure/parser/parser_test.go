package parser_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/riverrun-dev/riverrun/domain/entities"
	"github.com/riverrun-dev/riverrun/infrastructure/parser"
)

const manifestYAML = `
default_path: /usr/lib/extns
default_extension: .wasm
timeout: 2000
extns:
  - path: wifi
    symbols:
      - id: wifi_provider
        uses: [device.info]
        fulfills: [wifi]
        config:
          region: emea
required_contracts: [wifi]
rpc_aliases:
  device.model: [custom.model]
`

const manifestJSON = `{
  "default_path": "/usr/lib/extns",
  "default_extension": ".wasm",
  "extns": [
    {"path": "wifi", "symbols": [{"id": "wifi_provider", "fulfills": ["wifi"]}]}
  ],
  "required_contracts": ["wifi"]
}`

func TestYAMLParseManifest(t *testing.T) {
	m, err := parser.NewYAMLParser().ParseManifest([]byte(manifestYAML))
	require.NoError(t, err)

	assert.Equal(t, "/usr/lib/extns", m.DefaultPath)
	assert.Equal(t, uint64(2000), m.TimeoutMs)
	require.Len(t, m.Extensions, 1)

	sym := m.Extensions[0].Symbols[0]
	assert.Equal(t, "wifi_provider", sym.ID)
	assert.Equal(t, []string{"device.info"}, sym.Uses)
	assert.Equal(t, map[string]any{"region": "emea"}, sym.Config)
	assert.Equal(t, []string{"custom.model"}, m.Aliases("device.model"))
}

func TestYAMLParseManifestRejectsMalformedDocument(t *testing.T) {
	_, err := parser.NewYAMLParser().ParseManifest([]byte("extns: {not: [valid"))
	assert.Error(t, err)
}

func TestYAMLParseManifestRejectsSymbolWithoutID(t *testing.T) {
	doc := `
extns:
  - path: wifi
    symbols:
      - fulfills: [wifi]
`
	_, err := parser.NewYAMLParser().ParseManifest([]byte(doc))
	assert.Error(t, err, "every symbol must declare an id")
}

func TestYAMLParseDevice(t *testing.T) {
	doc := `
configuration:
  ws_configuration:
    enabled: true
    port: 3473
  exclusory:
    resolve_only: [device.model]
    method_ignore_rules: [secure.*]
    app_authorization_rules:
      app_ignore_rules:
        kiosk: ["*"]
capabilities:
  supported:
    - xrn:gateway:capability:localization:location
  grantPolicies:
    xrn:gateway:capability:localization:location:
      use:
        options:
          - steps:
              - capability: xrn:gateway:capability:usergrant:acknowledgechallenge
        scope: app
        lifespan: seconds
        lifespanTtl: 120
        overridable: true
        persistence: appActive
`
	device, err := parser.NewYAMLParser().ParseDevice([]byte(doc))
	require.NoError(t, err)

	assert.True(t, device.Configuration.WSConfiguration.Enabled)
	require.NotNil(t, device.Configuration.Exclusory)
	assert.Equal(t, []string{"device.model"}, device.Configuration.Exclusory.ResolveOnly)
	assert.Equal(t, []string{"*"}, device.Configuration.Exclusory.AppAuthorizationRules.AppIgnoreRules["kiosk"])

	policy := device.Capabilities.GrantPolicies["xrn:gateway:capability:localization:location"][entities.RoleUse]
	assert.Equal(t, entities.LifespanSeconds, policy.Lifespan)
	assert.Equal(t, uint64(120), policy.LifespanTTL)
	require.Len(t, policy.Options, 1)
	require.Len(t, policy.Options[0].Steps, 1)
}

func TestJSONParseManifest(t *testing.T) {
	m, err := parser.NewJSONParser().ParseManifest([]byte(manifestJSON))
	require.NoError(t, err)

	assert.Equal(t, []string{"wifi"}, m.RequiredContracts)
	assert.Equal(t, "wifi_provider", m.Extensions[0].Symbols[0].ID)
}

func TestJSONParserRejectsYAML(t *testing.T) {
	_, err := parser.NewJSONParser().ParseManifest([]byte(manifestYAML))
	assert.Error(t, err, "the JSON parser must not silently accept YAML")
}
