// Package graph builds the bipartite contract graph implied by the
// manifest's uses/fulfills declarations. Nodes are owned by the graph and
// addressed by stable indices, so cycle detection and topological ordering
// work over ints instead of repeated string lookups.
package graph

import (
	"github.com/riverrun-dev/riverrun/domain/entities"
	"github.com/riverrun-dev/riverrun/domain/errors"
)

// graphConfig holds configuration for Build.
type graphConfig struct {
	hostContracts map[string]struct{}
}

func defaultGraphConfig() graphConfig {
	return graphConfig{hostContracts: map[string]struct{}{}}
}

// Option configures graph construction.
type Option func(*graphConfig)

// WithHostContracts declares contracts fulfilled by the host itself. Uses of
// these are pre-satisfied and never become dependency edges.
func WithHostContracts(contracts ...string) Option {
	return func(c *graphConfig) {
		for _, contract := range contracts {
			c.hostContracts[contract] = struct{}{}
		}
	}
}

// node is one symbol plus its precomputed dependency edges.
type node struct {
	symbol  entities.Symbol
	library string
	deps    []int    // indices of symbols fulfilling this symbol's uses
	missing []string // used contracts with no fulfiller and no host provider
}

// Graph is the immutable contract graph for one manifest.
type Graph struct {
	nodes      []node
	byID       map[string][]int
	fulfillers map[string][]int
	aliases    map[string][]string
	host       map[string]struct{}
}

// Build constructs the graph. Construction always succeeds; defects such as
// duplicate ids or conflicting fulfillers are the validator's concern.
func Build(m *entities.Manifest, opts ...Option) *Graph {
	cfg := defaultGraphConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	g := &Graph{
		byID:       map[string][]int{},
		fulfillers: map[string][]int{},
		aliases:    m.RPCAliases,
		host:       cfg.hostContracts,
	}

	for _, ext := range m.Extensions {
		library := ext.LibraryPath(m.DefaultPath, m.DefaultExtension)
		for _, sym := range ext.Symbols {
			idx := len(g.nodes)
			g.nodes = append(g.nodes, node{symbol: sym, library: library})
			g.byID[sym.ID] = append(g.byID[sym.ID], idx)
			for _, contract := range sym.Fulfills {
				g.fulfillers[contract] = append(g.fulfillers[contract], idx)
			}
		}
	}

	// Dependency edges are resolved once, after every fulfiller is known.
	for i := range g.nodes {
		g.resolveDeps(i)
	}
	return g
}

func (g *Graph) resolveDeps(i int) {
	n := &g.nodes[i]
	seen := map[int]struct{}{}
	for _, contract := range n.symbol.Uses {
		if g.HostNative(contract) {
			continue
		}
		idxs := g.resolveFulfillers(contract)
		if len(idxs) == 0 {
			n.missing = append(n.missing, contract)
			continue
		}
		for _, dep := range idxs {
			if dep == i {
				continue // self-fulfilled use is vacuously satisfied
			}
			if _, dup := seen[dep]; dup {
				continue
			}
			seen[dep] = struct{}{}
			n.deps = append(n.deps, dep)
		}
	}
}

// resolveFulfillers walks the literal contract name first, then each declared
// alias in order; the first name with any fulfiller wins.
func (g *Graph) resolveFulfillers(contract string) []int {
	if idxs := g.fulfillers[contract]; len(idxs) > 0 {
		return idxs
	}
	for _, alias := range g.aliases[contract] {
		if idxs := g.fulfillers[alias]; len(idxs) > 0 {
			return idxs
		}
	}
	return nil
}

// Len returns the number of symbols.
func (g *Graph) Len() int {
	return len(g.nodes)
}

// Symbol returns the symbol at index i.
func (g *Graph) Symbol(i int) entities.Symbol {
	return g.nodes[i].symbol
}

// Library returns the resolved library path for the symbol at index i.
func (g *Graph) Library(i int) string {
	return g.nodes[i].library
}

// IndexesOf returns every index declaring the given symbol id. More than one
// entry means a duplicate-id manifest defect.
func (g *Graph) IndexesOf(symbolID string) []int {
	return g.byID[symbolID]
}

// HostNative reports whether the contract is fulfilled by the host itself.
func (g *Graph) HostNative(contract string) bool {
	_, ok := g.host[contract]
	return ok
}

// FulfillersOf returns the indices of symbols fulfilling the exact contract
// name, with no alias expansion. Used for conflict detection.
func (g *Graph) FulfillersOf(contract string) []int {
	return g.fulfillers[contract]
}

// ResolveFulfillers returns the fulfiller indices after alias expansion:
// the literal name first, then each declared alias in order, first hit wins.
func (g *Graph) ResolveFulfillers(contract string) []int {
	return g.resolveFulfillers(contract)
}

// ResolveIndex resolves a contract to its sole fulfiller index.
func (g *Graph) ResolveIndex(contract string) (int, bool) {
	idxs := g.resolveFulfillers(contract)
	if len(idxs) == 0 {
		return 0, false
	}
	return idxs[0], true
}

// Resolve resolves a contract to its fulfilling symbol, trying the literal
// name and then each alias. Returns errors.ErrNotFound when nothing fulfills
// the contract.
func (g *Graph) Resolve(contract string) (entities.Symbol, error) {
	idx, ok := g.ResolveIndex(contract)
	if !ok {
		return entities.Symbol{}, errors.ErrNotFound
	}
	return g.nodes[idx].symbol, nil
}

// Dependencies returns the dependency edges for the symbol at index i:
// the indices of symbols fulfilling its uses, plus any used contracts that
// resolved to nothing (a hard per-symbol load error for the sequencer).
func (g *Graph) Dependencies(i int) (deps []int, missing []string) {
	return g.nodes[i].deps, g.nodes[i].missing
}

// Dependents returns, for every node, the indices of nodes that depend on
// it. The sequencer uses this to cascade skips.
func (g *Graph) Dependents() [][]int {
	out := make([][]int, len(g.nodes))
	for i := range g.nodes {
		for _, dep := range g.nodes[i].deps {
			out[dep] = append(out[dep], i)
		}
	}
	return out
}
