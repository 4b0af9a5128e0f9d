package ports

import "github.com/riverrun-dev/riverrun/domain/entities"

// GrantLookup classifies the outcome of a grant store read.
type GrantLookup int

const (
	// GrantMissing means no grant is cached for the key.
	GrantMissing GrantLookup = iota
	// GrantHit means a still-valid grant was found.
	GrantHit
	// GrantExpired means a grant was found but its lifespan has lapsed;
	// the store drops it on the way out.
	GrantExpired
)

// GrantStore caches issued grants. Expiry is lazy: "seconds" grants are
// checked against the clock on read, the other lifespans are dropped only on
// externally signaled lifecycle events.
type GrantStore interface {
	// Put caches a grant, replacing any previous grant for the same key.
	Put(grant entities.Grant) error

	// Get returns the cached grant for the key, if any.
	Get(key entities.GrantKey) (entities.Grant, GrantLookup)

	// Revoke removes a cached grant early. It refuses (ErrNotOverridable)
	// when the grant is still valid and marked overridable=false.
	Revoke(key entities.GrantKey) error

	// InvalidateScope drops every scope="app" grant for the app, returning
	// how many were dropped.
	InvalidateScope(appID string) int
}

// GrantPersister persists device-lifetime grants across engine restarts.
type GrantPersister interface {
	// Load retrieves all persisted grants. A missing backing store yields
	// an empty slice, not an error.
	Load() ([]entities.Grant, error)

	// Save replaces the persisted grant set.
	Save(grants []entities.Grant) error

	// Path returns the backing store location, for operator messaging.
	Path() string
}
