package userprefs

import (
	"context"
	"testing"

	"github.com/MrtnvM/render-engine/value"
)

func TestLoadEmptyWhenUnset(t *testing.T) {
	b := New(NewInMemoryProvider(), "app", "app", "")
	loaded, err := b.Load(context.Background())
	if err != nil || len(loaded) != 0 {
		t.Fatalf("expected empty result for an unset key, got %v, %v", loaded, err)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	b := New(NewInMemoryProvider(), "app", "scenario:checkout", "")
	ctx := context.Background()
	data := map[string]value.Value{"theme": value.String("dark"), "count": value.Integer(3)}
	if err := b.Save(ctx, data); err != nil {
		t.Fatalf("Save: %v", err)
	}
	loaded, err := b.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded["theme"] != value.String("dark") || loaded["count"] != value.Integer(3) {
		t.Fatalf("expected round-tripped values, got %v", loaded)
	}
}

func TestKeyIsNamespacedByAppScopeAndSuite(t *testing.T) {
	provider := NewInMemoryProvider()
	withSuite := New(provider, "app", "scope", "group.suite")
	withoutSuite := New(provider, "app", "scope", "")
	if err := withSuite.Save(context.Background(), map[string]value.Value{"a": value.Integer(1)}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	loaded, err := withoutSuite.Load(context.Background())
	if err != nil || len(loaded) != 0 {
		t.Fatalf("expected a suite-scoped key to not be visible to a backend with no suite, got %v, %v", loaded, err)
	}
}

func TestClearDeletesKey(t *testing.T) {
	provider := NewInMemoryProvider()
	b := New(provider, "app", "scope", "")
	ctx := context.Background()
	if err := b.Save(ctx, map[string]value.Value{"a": value.Integer(1)}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := b.Clear(ctx); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if _, ok := provider.Get("app.scope"); ok {
		t.Fatalf("expected Clear to delete the underlying provider key")
	}
}

func TestMalformedBlobLoadsEmptyInsteadOfFailing(t *testing.T) {
	provider := NewInMemoryProvider()
	if err := provider.Set("app.scope", []byte("not json")); err != nil {
		t.Fatalf("Set: %v", err)
	}
	b := New(provider, "app", "scope", "")
	loaded, err := b.Load(context.Background())
	if err != nil || len(loaded) != 0 {
		t.Fatalf("expected a malformed blob to load as empty, got %v, %v", loaded, err)
	}
}

func TestBareFormInfersColorAndURLShapes(t *testing.T) {
	b := New(NewInMemoryProvider(), "app", "scope", "")
	ctx := context.Background()
	data := map[string]value.Value{
		"accent": value.Color("#FF0000"),
		"home":   value.URL("https://example.com"),
	}
	if err := b.Save(ctx, data); err != nil {
		t.Fatalf("Save: %v", err)
	}
	loaded, err := b.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded["accent"] != value.Color("#FF0000") {
		t.Fatalf("expected accent to round trip as Color, got %v", loaded["accent"])
	}
	if loaded["home"] != value.URL("https://example.com") {
		t.Fatalf("expected home to round trip as URL, got %v", loaded["home"])
	}
}

func TestSupportsConcurrentAccessIsFalse(t *testing.T) {
	if New(NewInMemoryProvider(), "app", "scope", "").SupportsConcurrentAccess() {
		t.Fatalf("expected the userPrefs backend to not support concurrent access")
	}
}
