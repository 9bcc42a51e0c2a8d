// Package memory implements the in-process-only Backend used for the
// memory and session storage kinds.
package memory

import (
	"context"
	"sync"

	"github.com/MrtnvM/render-engine/value"
)

// Backend is a process-local map, never persisted.
type Backend struct {
	mu   sync.Mutex
	data map[string]value.Value
}

// New returns an empty memory backend.
func New() *Backend {
	return &Backend{data: map[string]value.Value{}}
}

func (b *Backend) Load(context.Context) (map[string]value.Value, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return cloneMap(b.data), nil
}

func (b *Backend) Save(_ context.Context, data map[string]value.Value) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.data = cloneMap(data)
	return nil
}

func (b *Backend) Clear(context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.data = map[string]value.Value{}
	return nil
}

func (b *Backend) SupportsConcurrentAccess() bool { return false }

func cloneMap(m map[string]value.Value) map[string]value.Value {
	out := make(map[string]value.Value, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
