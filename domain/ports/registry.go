package ports

import "github.com/riverrun-dev/riverrun/domain/entities"

// CapabilityRegistry is the immutable snapshot of the supported capability
// universe and its grant policies, shared with all readers after startup.
type CapabilityRegistry interface {
	// Supported reports whether the capability is in the closed universe.
	Supported(capability entities.Capability) bool

	// Policy returns the grant policy for a (capability, role) pair.
	// The second return is false when no policy is declared, which the
	// policy engine treats as default-permit.
	Policy(capability entities.Capability, role entities.Role) (entities.GrantPolicy, bool)

	// ChallengeSchema returns the JSON Schema for a challenge kind's step
	// configuration (e.g. "pinchallenge").
	ChallengeSchema(kind string) (string, bool)

	// List returns all supported capabilities.
	List() []entities.Capability
}
