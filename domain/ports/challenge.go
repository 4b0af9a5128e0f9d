package ports

import (
	"context"

	"github.com/riverrun-dev/riverrun/domain/entities"
)

// ChallengeInvoker drives one user-facing challenge (pin entry,
// acknowledgment) through the provider that fulfills the challenge
// capability. The call blocks until the user answers; the only timeout is
// whatever the invoker itself imposes through ctx.
type ChallengeInvoker interface {
	// Invoke runs the challenge and reports whether the user passed it.
	Invoke(ctx context.Context, capability entities.Capability, config map[string]any) (bool, error)
}

// ChallengeModule is implemented by module handles whose symbol can answer
// grant challenges itself. Handles that do not implement it cannot serve as
// challenge providers.
type ChallengeModule interface {
	// Challenge presents the challenge to the user and reports the outcome.
	Challenge(ctx context.Context, capability entities.Capability, config map[string]any) (bool, error)
}
