// Package userprefs implements the userPrefs storage kind: a single
// serialized blob keyed "{appID}.{scopeId}" in an underlying preferences
// provider. Writes are not concurrent-safe across processes; the owning
// Store serializes them.
package userprefs

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/MrtnvM/render-engine/value"
)

// Provider abstracts the host preferences API (NSUserDefaults,
// SharedPreferences, a registry hive, ...). InMemoryProvider is the
// reference implementation used outside of a real host integration.
type Provider interface {
	Get(key string) ([]byte, bool)
	Set(key string, data []byte) error
	Delete(key string) error
}

// InMemoryProvider is a process-local Provider, the default outside of a
// real host preferences integration.
type InMemoryProvider struct {
	store map[string][]byte
}

// NewInMemoryProvider returns an empty InMemoryProvider.
func NewInMemoryProvider() *InMemoryProvider {
	return &InMemoryProvider{store: map[string][]byte{}}
}

func (p *InMemoryProvider) Get(key string) ([]byte, bool) {
	b, ok := p.store[key]
	return b, ok
}

func (p *InMemoryProvider) Set(key string, data []byte) error {
	p.store[key] = data
	return nil
}

func (p *InMemoryProvider) Delete(key string) error {
	delete(p.store, key)
	return nil
}

// Backend is the userPrefs storage backend for a single (appID, scopeID,
// suite) triple.
type Backend struct {
	provider Provider
	key      string
}

// New returns a userPrefs backend keyed "{appID}.{scopeID}", optionally
// namespaced further by suite.
func New(provider Provider, appID, scopeID, suite string) *Backend {
	key := fmt.Sprintf("%s.%s", appID, scopeID)
	if suite != "" {
		key = fmt.Sprintf("%s.%s", suite, key)
	}
	return &Backend{provider: provider, key: key}
}

func (b *Backend) Load(context.Context) (map[string]value.Value, error) {
	raw, ok := b.provider.Get(b.key)
	if !ok || len(raw) == 0 {
		return map[string]value.Value{}, nil
	}
	return decodeBlob(raw)
}

func (b *Backend) Save(_ context.Context, data map[string]value.Value) error {
	raw, err := encodeBlob(data)
	if err != nil {
		return err
	}
	return b.provider.Set(b.key, raw)
}

func (b *Backend) Clear(context.Context) error {
	return b.provider.Delete(b.key)
}

func (b *Backend) SupportsConcurrentAccess() bool { return false }

func encodeBlob(data map[string]value.Value) ([]byte, error) {
	raw := make(map[string]json.RawMessage, len(data))
	for k, v := range data {
		b, err := value.EncodeBare(v)
		if err != nil {
			return nil, err
		}
		raw[k] = b
	}
	return json.Marshal(raw)
}

func decodeBlob(blob []byte) (map[string]value.Value, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(blob, &raw); err != nil {
		return map[string]value.Value{}, nil
	}
	out := make(map[string]value.Value, len(raw))
	for k, v := range raw {
		dv, err := value.DecodeBare(v)
		if err != nil {
			continue
		}
		out[k] = dv
	}
	return out, nil
}
