// Package errors provides the engine's error taxonomy. All types support
// unwrapping via errors.As() and errors.Is().
package errors

import (
	stdErrors "errors"
	"fmt"
	"strings"
	"time"

	"github.com/riverrun-dev/riverrun/domain/entities"
)

// ErrorDetail is an alias to entities.ErrorDetail for convenience.
type ErrorDetail = entities.ErrorDetail

// DetailedError is implemented by error types that can convert themselves to
// a structured ErrorDetail.
type DetailedError interface {
	error
	ToErrorDetail() *entities.ErrorDetail
}

// ToErrorDetail converts a Go error to the structured ErrorDetail shape,
// recognizing the taxonomy types below.
func ToErrorDetail(err error) *entities.ErrorDetail {
	if err == nil {
		return nil
	}

	var e *entities.ErrorDetail
	if stdErrors.As(err, &e) {
		return e
	}

	var de DetailedError
	if stdErrors.As(err, &de) {
		return de.ToErrorDetail()
	}

	return &entities.ErrorDetail{Message: err.Error(), Type: "internal"}
}

// ErrNotFound is returned when a contract has no loaded fulfiller.
var ErrNotFound = stdErrors.New("contract not found")

// ErrNotOverridable is returned when early revocation of a still-valid,
// overridable=false grant is refused.
var ErrNotOverridable = stdErrors.New("grant is not overridable")

// ParseError represents a malformed manifest or device document.
type ParseError struct {
	Err      error
	Document string // "manifest" or "device"
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse %s document: %v", e.Document, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// ToErrorDetail implements DetailedError.
func (e *ParseError) ToErrorDetail() *entities.ErrorDetail {
	return &entities.ErrorDetail{Message: e.Error(), Type: "parse", Code: e.Document}
}

// ValidationError wraps an exhaustive validation report. It blocks startup.
type ValidationError struct {
	Report *entities.ValidationReport
}

func (e *ValidationError) Error() string {
	var b strings.Builder
	b.WriteString("manifest validation failed:")
	for _, issue := range e.Report.Issues {
		fmt.Fprintf(&b, "\n- %s: %s", issue.Kind, issue.Message)
	}
	return b.String()
}

// ToErrorDetail implements DetailedError.
func (e *ValidationError) ToErrorDetail() *entities.ErrorDetail {
	return &entities.ErrorDetail{Message: e.Error(), Type: "validation"}
}

// CycleError represents a dependency cycle among extension-provided
// contracts. It is fatal: the engine aborts rather than guessing an order.
type CycleError struct {
	// SymbolIDs are the symbols participating in (or downstream of) the cycle.
	SymbolIDs []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("cyclic dependency among symbols: %s", strings.Join(e.SymbolIDs, ", "))
}

// ToErrorDetail implements DetailedError.
func (e *CycleError) ToErrorDetail() *entities.ErrorDetail {
	return &entities.ErrorDetail{Message: e.Error(), Type: "load", Code: "cyclic_dependency"}
}

// LoadTimeoutError marks a symbol whose load exceeded its budget. The symbol
// becomes Unavailable; startup continues.
type LoadTimeoutError struct {
	SymbolID string
	Budget   time.Duration
}

func (e *LoadTimeoutError) Error() string {
	return fmt.Sprintf("symbol %s did not load within %v", e.SymbolID, e.Budget)
}

func (e *LoadTimeoutError) Timeout() bool {
	return true
}

// ToErrorDetail implements DetailedError.
func (e *LoadTimeoutError) ToErrorDetail() *entities.ErrorDetail {
	return &entities.ErrorDetail{Message: e.Error(), Type: "load", Code: "load_timeout", IsTimeout: true}
}

// DependencyError marks a symbol skipped because a prerequisite did not load,
// or failed upfront because a used contract has no fulfiller at all.
type DependencyError struct {
	SymbolID string
	// Dependency is the unresolved contract, or the id of the prerequisite
	// symbol that failed to load.
	Dependency string
	Err        error // underlying prerequisite failure, if any
}

func (e *DependencyError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("symbol %s skipped: dependency %q unavailable: %v", e.SymbolID, e.Dependency, e.Err)
	}
	return fmt.Sprintf("symbol %s: used contract %q has no fulfiller", e.SymbolID, e.Dependency)
}

func (e *DependencyError) Unwrap() error {
	return e.Err
}

// ToErrorDetail implements DetailedError.
func (e *DependencyError) ToErrorDetail() *entities.ErrorDetail {
	return &entities.ErrorDetail{Message: e.Error(), Type: "load", Code: "dependency_unavailable"}
}

// LoadError represents a module loader failure for one symbol.
type LoadError struct {
	Err      error
	SymbolID string
	Path     string
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("failed to load symbol %s from %s: %v", e.SymbolID, e.Path, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// ToErrorDetail implements DetailedError.
func (e *LoadError) ToErrorDetail() *entities.ErrorDetail {
	return &entities.ErrorDetail{Message: e.Error(), Type: "load", Code: "load_failed"}
}

// UnknownCapabilityError marks a grant policy referencing a capability
// outside the supported universe. It is fatal at configuration load time,
// never at request time.
type UnknownCapabilityError struct {
	Capability entities.Capability
	Where      string // which policy/step referenced it
}

func (e *UnknownCapabilityError) Error() string {
	return fmt.Sprintf("capability %q referenced by %s is not in the supported set", e.Capability, e.Where)
}

// ToErrorDetail implements DetailedError.
func (e *UnknownCapabilityError) ToErrorDetail() *entities.ErrorDetail {
	return &entities.ErrorDetail{Message: e.Error(), Type: "grant", Code: "unknown_capability"}
}

// ChallengeError represents a challenge collaborator failure. It never
// escapes as a process fault; the policy engine folds it into a Denied
// decision.
type ChallengeError struct {
	Err        error
	Capability entities.Capability
}

func (e *ChallengeError) Error() string {
	return fmt.Sprintf("challenge %s failed: %v", e.Capability, e.Err)
}

func (e *ChallengeError) Unwrap() error {
	return e.Err
}

func (e *ChallengeError) Timeout() bool {
	if t, ok := e.Err.(interface{ Timeout() bool }); ok {
		return t.Timeout()
	}
	return false
}

// ToErrorDetail implements DetailedError.
func (e *ChallengeError) ToErrorDetail() *entities.ErrorDetail {
	detail := &entities.ErrorDetail{Message: e.Error(), Type: "grant", Code: "challenge_failed"}
	if e.Timeout() {
		detail.Code = "challenge_timeout"
		detail.IsTimeout = true
	}
	return detail
}
