package memory

import (
	"context"
	"testing"

	"github.com/MrtnvM/render-engine/value"
)

func TestLoadSaveRoundTrip(t *testing.T) {
	ctx := context.Background()
	b := New()

	loaded, err := b.Load(ctx)
	if err != nil || len(loaded) != 0 {
		t.Fatalf("expected empty backend, got %v, %v", loaded, err)
	}

	if err := b.Save(ctx, map[string]value.Value{"a": value.Integer(1)}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	loaded, err = b.Load(ctx)
	if err != nil || loaded["a"] != value.Integer(1) {
		t.Fatalf("expected Load to return the saved data, got %v, %v", loaded, err)
	}
}

func TestLoadReturnsACopyNotTheLiveMap(t *testing.T) {
	ctx := context.Background()
	b := New()
	if err := b.Save(ctx, map[string]value.Value{"a": value.Integer(1)}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	loaded, _ := b.Load(ctx)
	loaded["a"] = value.Integer(999)

	reloaded, _ := b.Load(ctx)
	if reloaded["a"] != value.Integer(1) {
		t.Fatalf("expected Load's returned map to be a defensive copy, got %v", reloaded["a"])
	}
}

func TestClear(t *testing.T) {
	ctx := context.Background()
	b := New()
	if err := b.Save(ctx, map[string]value.Value{"a": value.Integer(1)}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := b.Clear(ctx); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	loaded, _ := b.Load(ctx)
	if len(loaded) != 0 {
		t.Fatalf("expected Clear to empty the backend, got %v", loaded)
	}
}

func TestSupportsConcurrentAccessIsFalse(t *testing.T) {
	if New().SupportsConcurrentAccess() {
		t.Fatalf("expected the in-process memory backend to not support concurrent access")
	}
}
