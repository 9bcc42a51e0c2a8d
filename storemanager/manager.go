// Package storemanager implements the store manager / factory (C5): the
// single process-wide collaborator (spec §9 "Global state") that caches one
// Store per (scope, storage) pair, materializes backends lazily, and
// implements scope reset and version-triggered scenario eviction.
package storemanager

import (
	"context"
	"fmt"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/MrtnvM/render-engine/internal/logging"
	"github.com/MrtnvM/render-engine/kvstore"
	"github.com/MrtnvM/render-engine/storage"
	"github.com/MrtnvM/render-engine/storage/memory"
	"github.com/MrtnvM/render-engine/storage/session"
	"github.com/MrtnvM/render-engine/value"
	"github.com/MrtnvM/render-engine/version"
)

// BackendFactory materializes the storage.Backend for a (scope, storage)
// pair. Injected so the manager never hardcodes a specific userPrefs
// provider, file directory layout or remote configuration (spec §9: all
// other singletons must be parameters or injected collaborators).
type BackendFactory func(scope value.Scope, ref value.StorageRef) (storage.Backend, error)

// DefaultBackendFactory wires the memory and session storage kinds, which
// need no external configuration, and delegates everything else to next
// (typically a factory closing over a userprefs.Provider, a file directory
// and a remote.Config, supplied by the host application).
func DefaultBackendFactory(next BackendFactory) BackendFactory {
	return func(scope value.Scope, ref value.StorageRef) (storage.Backend, error) {
		switch ref.Kind {
		case value.StorageMemory:
			return memory.New(), nil
		case value.StorageSession:
			return session.New(), nil
		default:
			if next == nil {
				return nil, fmt.Errorf("storemanager: no backend factory configured for storage kind %s", ref.Kind)
			}
			return next(scope, ref)
		}
	}
}

type entry struct {
	store   *kvstore.Store
	backend storage.Backend
	scope   value.Scope
	ref     value.StorageRef
}

// Manager is the store manager / factory. It is safe for concurrent use.
type Manager struct {
	mu      sync.Mutex
	factory BackendFactory
	log     logging.Logger
	cache   *lru.Cache[string, *entry]
}

// New returns a Manager caching up to capacity store instances (eviction of
// the cache itself does not clear persisted state; it only forces the next
// GetStore to reload from the backend).
func New(factory BackendFactory, capacity int, log logging.Logger) (*Manager, error) {
	if log == nil {
		log = logging.NewNoOpLogger()
	}
	if capacity <= 0 {
		capacity = 256
	}
	cache, err := lru.New[string, *entry](capacity)
	if err != nil {
		return nil, err
	}
	return &Manager{factory: factory, log: log, cache: cache}, nil
}

func cacheKey(scope value.Scope, ref value.StorageRef) string {
	return scope.String() + "|" + ref.String()
}

// GetStore returns the cached Store for (scope, storage), creating and
// loading it from its backend on first access (spec §3 Invariant 4:
// getStore returns the same instance until reset).
func (m *Manager) GetStore(ctx context.Context, scope value.Scope, ref value.StorageRef) (*kvstore.Store, error) {
	key := cacheKey(scope, ref)

	m.mu.Lock()
	if e, ok := m.cache.Get(key); ok {
		m.mu.Unlock()
		return e.store, nil
	}
	m.mu.Unlock()

	backend, err := m.factory(scope, ref)
	if err != nil {
		return nil, err
	}
	st, err := kvstore.New(ctx, scope, ref, backend, m.log.WithFields(logging.Fields{"scope": scope.String(), "storage": ref.String()}))
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.cache.Get(key); ok {
		// lost the race to a concurrent GetStore; keep the one already cached.
		return e.store, nil
	}
	m.cache.Add(key, &entry{store: st, backend: backend, scope: scope, ref: ref})
	return st, nil
}

// ResetStores drops every cached store for scope and clears its backends'
// persisted state (spec §4.5).
func (m *Manager) ResetStores(ctx context.Context, scope value.Scope) error {
	m.mu.Lock()
	var toClear []*entry
	for _, key := range m.cache.Keys() {
		e, ok := m.cache.Peek(key)
		if !ok || e.scope.String() != scope.String() {
			continue
		}
		toClear = append(toClear, e)
		m.cache.Remove(key)
	}
	m.mu.Unlock()

	var firstErr error
	for _, e := range toClear {
		if err := e.backend.Clear(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// ConfigureScenarioStores pre-creates the default memory and session stores
// for a scenario (spec §4.5).
func (m *Manager) ConfigureScenarioStores(ctx context.Context, scenarioID string) error {
	scope := value.ScenarioScope(scenarioID)
	if _, err := m.GetStore(ctx, scope, value.StorageRef{Kind: value.StorageMemory}); err != nil {
		return err
	}
	if _, err := m.GetStore(ctx, scope, value.StorageRef{Kind: value.StorageSession}); err != nil {
		return err
	}
	return nil
}

// CleanupScenarioStores drops the scenario's cached stores without clearing
// any persistent backend that happens to share the scope (the default
// stores configured by ConfigureScenarioStores are memory/session, which
// have no persisted state to clear).
func (m *Manager) CleanupScenarioStores(scenarioID string) {
	scope := value.ScenarioScope(scenarioID)
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, key := range m.cache.Keys() {
		if e, ok := m.cache.Peek(key); ok && e.scope.String() == scope.String() {
			m.cache.Remove(key)
		}
	}
}

// HandleVersionChange drops every cached scenario-scoped store when old and
// new_ differ in major version (spec §4.5, §6).
func (m *Manager) HandleVersionChange(old, new_ version.SemanticVersion) {
	if !version.MajorChanged(old, new_) {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, key := range m.cache.Keys() {
		if e, ok := m.cache.Peek(key); ok && e.scope.Kind == value.ScopeScenario {
			m.cache.Remove(key)
		}
	}
}
