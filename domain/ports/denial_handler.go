package ports

import "github.com/riverrun-dev/riverrun/domain/entities"

// DenialHandler is called when a grant evaluation ends Denied.
// Implementations can log, collect metrics, or take other actions; denial is
// never a process fault.
type DenialHandler interface {
	// OnDenial is called with the denied key and a short reason
	// ("challenge-failed", "challenge-timeout").
	OnDenial(key entities.GrantKey, reason string)
}
