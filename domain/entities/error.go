package entities

import "fmt"

// ErrorDetail is the structured error shape surfaced to RPC callers.
type ErrorDetail struct {
	Message   string `json:"message"`
	Type      string `json:"type"` // "parse", "validation", "load", "grant", "internal"
	Code      string `json:"code,omitempty"`
	IsTimeout bool   `json:"is_timeout,omitempty"`
}

// Error implements the error interface so an ErrorDetail can travel as one.
func (e *ErrorDetail) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s (%s): %s", e.Type, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}
