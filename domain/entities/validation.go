package entities

// IssueKind classifies a manifest validation failure.
type IssueKind string

const (
	IssueUnresolvedContract   IssueKind = "unresolved_contract"
	IssueConflictingFulfiller IssueKind = "conflicting_fulfiller"
	IssueDuplicateSymbolID    IssueKind = "duplicate_symbol_id"
)

// ValidationIssue is one manifest defect.
type ValidationIssue struct {
	Kind     IssueKind
	Contract string // set for contract-level issues
	SymbolID string // set for symbol-level issues
	Message  string
}

// ValidationReport is the exhaustive outcome of manifest validation.
// Any issue blocks progression to the load sequencer.
type ValidationReport struct {
	Valid  bool
	Issues []ValidationIssue
}

// ByKind returns the issues of the given kind, in report order.
func (r *ValidationReport) ByKind(kind IssueKind) []ValidationIssue {
	var out []ValidationIssue
	for _, issue := range r.Issues {
		if issue.Kind == kind {
			out = append(out, issue)
		}
	}
	return out
}
