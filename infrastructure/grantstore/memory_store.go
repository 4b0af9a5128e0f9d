// Package grantstore caches issued grants and persists device-lifetime
// grants across restarts.
package grantstore

import (
	"hash/fnv"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/riverrun-dev/riverrun/domain/entities"
	"github.com/riverrun-dev/riverrun/domain/errors"
	"github.com/riverrun-dev/riverrun/domain/ports"
)

// shardCount trades lock granularity for footprint. Grants for distinct
// apps/capabilities are independent, so a single global lock would serialize
// unrelated requests.
const shardCount = 16

type shard struct {
	mu     sync.Mutex
	grants map[entities.GrantKey]entities.Grant
}

// storeConfig holds configuration for the MemoryStore.
type storeConfig struct {
	clock     func() time.Time
	persister ports.GrantPersister
	logger    *slog.Logger
}

func defaultStoreConfig() storeConfig {
	return storeConfig{
		clock:  time.Now,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

// StoreOption configures the MemoryStore.
type StoreOption func(*storeConfig)

// WithClock overrides the time source used for lazy expiry. For tests.
func WithClock(clock func() time.Time) StoreOption {
	return func(c *storeConfig) {
		c.clock = clock
	}
}

// WithPersister attaches a persister for persistence="device" grants. They
// are reloaded on construction and rewritten on every mutation that touches
// one.
func WithPersister(p ports.GrantPersister) StoreOption {
	return func(c *storeConfig) {
		c.persister = p
	}
}

// WithStoreLogger sets the store logger.
func WithStoreLogger(logger *slog.Logger) StoreOption {
	return func(c *storeConfig) {
		c.logger = logger
	}
}

// MemoryStore is the grant cache. Writes take a per-shard lock, not a global
// one. Expiry of "seconds" grants is evaluated lazily on read; the other
// lifespans are dropped only on lifecycle events delivered via
// HandleLifecycle.
type MemoryStore struct {
	config storeConfig
	shards [shardCount]shard
}

// NewMemoryStore creates the store, reloading device-persisted grants when a
// persister is configured.
func NewMemoryStore(opts ...StoreOption) (*MemoryStore, error) {
	cfg := defaultStoreConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	s := &MemoryStore{config: cfg}
	for i := range s.shards {
		s.shards[i].grants = map[entities.GrantKey]entities.Grant{}
	}

	if cfg.persister != nil {
		persisted, err := cfg.persister.Load()
		if err != nil {
			return nil, err
		}
		now := cfg.clock()
		for _, grant := range persisted {
			if grant.Persistence != entities.PersistenceDevice || grant.Expired(now) {
				continue
			}
			sh := s.shardFor(grant.Key())
			sh.grants[grant.Key()] = grant
		}
	}
	return s, nil
}

func (s *MemoryStore) shardFor(key entities.GrantKey) *shard {
	h := fnv.New32a()
	h.Write([]byte(key.String()))
	return &s.shards[h.Sum32()%shardCount]
}

// Put caches a grant. "once" grants authorize a single invocation and are
// never cached.
func (s *MemoryStore) Put(grant entities.Grant) error {
	if grant.Lifespan == entities.LifespanOnce {
		return nil
	}

	sh := s.shardFor(grant.Key())
	sh.mu.Lock()
	sh.grants[grant.Key()] = grant
	sh.mu.Unlock()

	if grant.Persistence == entities.PersistenceDevice {
		return s.persistDeviceGrants()
	}
	return nil
}

// Get returns the cached grant for the key. "seconds" grants past their
// expiry are dropped on the way out and reported as GrantExpired.
func (s *MemoryStore) Get(key entities.GrantKey) (entities.Grant, ports.GrantLookup) {
	sh := s.shardFor(key)
	sh.mu.Lock()
	grant, ok := sh.grants[key]
	if !ok {
		sh.mu.Unlock()
		return entities.Grant{}, ports.GrantMissing
	}
	if grant.Expired(s.config.clock()) {
		delete(sh.grants, key)
		sh.mu.Unlock()
		if grant.Persistence == entities.PersistenceDevice {
			if err := s.persistDeviceGrants(); err != nil {
				s.config.logger.Warn("grant persistence rewrite failed", "err", err)
			}
		}
		return grant, ports.GrantExpired
	}
	sh.mu.Unlock()
	return grant, ports.GrantHit
}

// Revoke removes a cached grant early. A still-valid grant marked
// overridable=false refuses revocation.
func (s *MemoryStore) Revoke(key entities.GrantKey) error {
	sh := s.shardFor(key)
	sh.mu.Lock()
	grant, ok := sh.grants[key]
	if !ok {
		sh.mu.Unlock()
		return nil
	}
	if !grant.Overridable && !grant.Expired(s.config.clock()) {
		sh.mu.Unlock()
		return errors.ErrNotOverridable
	}
	delete(sh.grants, key)
	sh.mu.Unlock()

	if grant.Persistence == entities.PersistenceDevice {
		return s.persistDeviceGrants()
	}
	return nil
}

// InvalidateScope drops every scope="app" grant for the app. Called on app
// termination.
func (s *MemoryStore) InvalidateScope(appID string) int {
	return s.dropWhere(func(g entities.Grant) bool {
		return g.AppID == appID && g.Scope == entities.ScopeApp
	})
}

// HandleLifecycle reacts to externally signaled lifecycle events: app
// termination invalidates that app's scope and appActive grants, a power
// cycle invalidates every powerActive grant.
func (s *MemoryStore) HandleLifecycle(ev ports.LifecycleEvent) {
	switch ev.Kind {
	case ports.EventAppTerminated:
		dropped := s.dropWhere(func(g entities.Grant) bool {
			if g.AppID != ev.AppID {
				return false
			}
			return g.Scope == entities.ScopeApp || g.Persistence == entities.PersistenceAppActive
		})
		s.config.logger.Debug("app grants invalidated", "app", ev.AppID, "dropped", dropped)
	case ports.EventPowerCycled:
		dropped := s.dropWhere(func(g entities.Grant) bool {
			return g.Lifespan == entities.LifespanPowerActive || g.Persistence == entities.PersistencePowerActive
		})
		s.config.logger.Debug("power-active grants invalidated", "dropped", dropped)
	}
}

// Attach subscribes the store to a lifecycle bus; the returned function
// detaches it.
func (s *MemoryStore) Attach(bus ports.LifecycleBus) func() {
	return bus.Subscribe(s.HandleLifecycle)
}

func (s *MemoryStore) dropWhere(match func(entities.Grant) bool) int {
	dropped := 0
	touchedDevice := false
	for i := range s.shards {
		sh := &s.shards[i]
		sh.mu.Lock()
		for key, grant := range sh.grants {
			if match(grant) {
				delete(sh.grants, key)
				dropped++
				if grant.Persistence == entities.PersistenceDevice {
					touchedDevice = true
				}
			}
		}
		sh.mu.Unlock()
	}
	if touchedDevice {
		if err := s.persistDeviceGrants(); err != nil {
			s.config.logger.Warn("grant persistence rewrite failed", "err", err)
		}
	}
	return dropped
}

// persistDeviceGrants rewrites the persisted set from the current
// device-persisted grants.
func (s *MemoryStore) persistDeviceGrants() error {
	if s.config.persister == nil {
		return nil
	}
	var device []entities.Grant
	for i := range s.shards {
		sh := &s.shards[i]
		sh.mu.Lock()
		for _, grant := range sh.grants {
			if grant.Persistence == entities.PersistenceDevice {
				device = append(device, grant)
			}
		}
		sh.mu.Unlock()
	}
	return s.config.persister.Save(device)
}
