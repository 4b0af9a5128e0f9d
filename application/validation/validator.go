// Package validation checks a parsed manifest against its contract graph
// before any symbol is loaded.
package validation

import (
	"fmt"

	"github.com/riverrun-dev/riverrun/domain/entities"
	"github.com/riverrun-dev/riverrun/domain/graph"
)

// ManifestValidator verifies that required contracts are fulfilled and that
// symbol declarations are coherent. It never interprets symbol config
// payloads; those belong to the module loader alone.
type ManifestValidator struct{}

// NewManifestValidator creates a ManifestValidator.
func NewManifestValidator() *ManifestValidator {
	return &ManifestValidator{}
}

// Validate produces an exhaustive report: every unresolved required contract,
// every multiply-fulfilled required contract, and every duplicate symbol id,
// in one pass. It never fails fast: operators fix one manifest round-trip,
// not one error per round-trip.
func (v *ManifestValidator) Validate(g *graph.Graph, m *entities.Manifest) *entities.ValidationReport {
	report := &entities.ValidationReport{}

	v.checkDuplicateIDs(g, report)
	v.checkRequiredContracts(g, m, report)

	report.Valid = len(report.Issues) == 0
	return report
}

func (v *ManifestValidator) checkDuplicateIDs(g *graph.Graph, report *entities.ValidationReport) {
	flagged := map[string]struct{}{}
	for i := 0; i < g.Len(); i++ {
		id := g.Symbol(i).ID
		if _, done := flagged[id]; done {
			continue
		}
		if idxs := g.IndexesOf(id); len(idxs) > 1 {
			flagged[id] = struct{}{}
			report.Issues = append(report.Issues, entities.ValidationIssue{
				Kind:     entities.IssueDuplicateSymbolID,
				SymbolID: id,
				Message:  fmt.Sprintf("symbol id %q declared %d times", id, len(idxs)),
			})
		}
	}
}

func (v *ManifestValidator) checkRequiredContracts(g *graph.Graph, m *entities.Manifest, report *entities.ValidationReport) {
	for _, contract := range m.RequiredContracts {
		if g.HostNative(contract) {
			continue
		}
		idxs := g.ResolveFulfillers(contract)
		switch {
		case len(idxs) == 0:
			report.Issues = append(report.Issues, entities.ValidationIssue{
				Kind:     entities.IssueUnresolvedContract,
				Contract: contract,
				Message:  fmt.Sprintf("required contract %q has no fulfiller (aliases tried: %d)", contract, len(m.Aliases(contract))),
			})
		case len(idxs) > 1:
			ids := make([]string, 0, len(idxs))
			for _, idx := range idxs {
				ids = append(ids, g.Symbol(idx).ID)
			}
			report.Issues = append(report.Issues, entities.ValidationIssue{
				Kind:     entities.IssueConflictingFulfiller,
				Contract: contract,
				Message:  fmt.Sprintf("required contract %q fulfilled by %d symbols: %v", contract, len(idxs), ids),
			})
		}
	}
}
