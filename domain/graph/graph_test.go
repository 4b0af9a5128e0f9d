package graph_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/riverrun-dev/riverrun/domain/entities"
	"github.com/riverrun-dev/riverrun/domain/errors"
	"github.com/riverrun-dev/riverrun/domain/graph"
)

func manifestWith(aliases map[string][]string, descriptors ...entities.ExtensionDescriptor) *entities.Manifest {
	return &entities.Manifest{
		DefaultPath:      "/usr/lib/extns",
		DefaultExtension: ".wasm",
		Extensions:       descriptors,
		RPCAliases:       aliases,
	}
}

func TestResolve(t *testing.T) {
	m := manifestWith(nil, entities.ExtensionDescriptor{
		Path: "wifi",
		Symbols: []entities.Symbol{
			{ID: "wifi_provider", Fulfills: []string{"wifi"}},
		},
	})
	g := graph.Build(m)

	t.Run("literal hit", func(t *testing.T) {
		sym, err := g.Resolve("wifi")
		require.NoError(t, err)
		assert.Equal(t, "wifi_provider", sym.ID)
	})

	t.Run("not found", func(t *testing.T) {
		_, err := g.Resolve("bluetooth")
		assert.ErrorIs(t, err, errors.ErrNotFound)
	})
}

func TestAliasResolution(t *testing.T) {
	// "device.model" has no literal fulfiller; the alias "custom.model"
	// does, so alias expansion must find it.
	m := manifestWith(
		map[string][]string{"device.model": {"custom.model"}},
		entities.ExtensionDescriptor{
			Path: "custom_device",
			Symbols: []entities.Symbol{
				{ID: "custom_device_info", Fulfills: []string{"custom.model"}},
			},
		},
	)
	g := graph.Build(m)

	sym, err := g.Resolve("device.model")
	require.NoError(t, err)
	assert.Equal(t, "custom_device_info", sym.ID)
}

func TestAliasOrderFirstHitWins(t *testing.T) {
	m := manifestWith(
		map[string][]string{"storage": {"storage.a", "storage.b"}},
		entities.ExtensionDescriptor{
			Path: "store",
			Symbols: []entities.Symbol{
				{ID: "store_a", Fulfills: []string{"storage.a"}},
				{ID: "store_b", Fulfills: []string{"storage.b"}},
			},
		},
	)
	g := graph.Build(m)

	sym, err := g.Resolve("storage")
	require.NoError(t, err)
	assert.Equal(t, "store_a", sym.ID)
}

func TestLiteralBeatsAlias(t *testing.T) {
	m := manifestWith(
		map[string][]string{"thermo": {"thermo.alt"}},
		entities.ExtensionDescriptor{
			Path: "thermo",
			Symbols: []entities.Symbol{
				{ID: "thermo_literal", Fulfills: []string{"thermo"}},
				{ID: "thermo_alias", Fulfills: []string{"thermo.alt"}},
			},
		},
	)
	g := graph.Build(m)

	sym, err := g.Resolve("thermo")
	require.NoError(t, err)
	assert.Equal(t, "thermo_literal", sym.ID)
}

func TestDependencies(t *testing.T) {
	m := manifestWith(nil,
		entities.ExtensionDescriptor{
			Path: "base",
			Symbols: []entities.Symbol{
				{ID: "device_info", Fulfills: []string{"device.info"}},
			},
		},
		entities.ExtensionDescriptor{
			Path: "dependent",
			Symbols: []entities.Symbol{
				{ID: "window_manager", Uses: []string{"device.info"}, Fulfills: []string{"window"}},
			},
		},
	)
	g := graph.Build(m)

	idx, ok := g.ResolveIndex("window")
	require.True(t, ok)
	deps, missing := g.Dependencies(idx)
	assert.Empty(t, missing)
	require.Len(t, deps, 1)
	assert.Equal(t, "device_info", g.Symbol(deps[0]).ID)
}

func TestHostNativeUsesAreNotEdges(t *testing.T) {
	m := manifestWith(nil, entities.ExtensionDescriptor{
		Path: "ext",
		Symbols: []entities.Symbol{
			{ID: "browser", Uses: []string{"rpc.router"}, Fulfills: []string{"browser"}},
		},
	})
	g := graph.Build(m, graph.WithHostContracts("rpc.router"))

	idx, ok := g.ResolveIndex("browser")
	require.True(t, ok)
	deps, missing := g.Dependencies(idx)
	assert.Empty(t, deps)
	assert.Empty(t, missing)
	assert.True(t, g.HostNative("rpc.router"))
}

func TestMissingUsesReported(t *testing.T) {
	m := manifestWith(nil, entities.ExtensionDescriptor{
		Path: "ext",
		Symbols: []entities.Symbol{
			{ID: "lonely", Uses: []string{"nowhere"}, Fulfills: []string{"something"}},
		},
	})
	g := graph.Build(m)

	idx, ok := g.ResolveIndex("something")
	require.True(t, ok)
	_, missing := g.Dependencies(idx)
	assert.Equal(t, []string{"nowhere"}, missing)
}

func TestFulfillersOfIsExact(t *testing.T) {
	m := manifestWith(
		map[string][]string{"dup": {"dup.alias"}},
		entities.ExtensionDescriptor{
			Path: "ext",
			Symbols: []entities.Symbol{
				{ID: "a", Fulfills: []string{"dup"}},
				{ID: "b", Fulfills: []string{"dup"}},
				{ID: "c", Fulfills: []string{"dup.alias"}},
			},
		},
	)
	g := graph.Build(m)

	assert.Len(t, g.FulfillersOf("dup"), 2)
	assert.Len(t, g.FulfillersOf("dup.alias"), 1)
	// alias expansion stops at the literal name because it has fulfillers
	assert.Len(t, g.ResolveFulfillers("dup"), 2)
}

func TestLibraryPathResolution(t *testing.T) {
	m := manifestWith(nil, entities.ExtensionDescriptor{
		Path:    "wifi",
		Symbols: []entities.Symbol{{ID: "wifi_provider", Fulfills: []string{"wifi"}}},
	})
	g := graph.Build(m)

	idx, ok := g.ResolveIndex("wifi")
	require.True(t, ok)
	assert.Equal(t, "/usr/lib/extns/wifi.wasm", g.Library(idx))
}
