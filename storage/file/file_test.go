package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/MrtnvM/render-engine/value"
)

func TestLoadMissingFileIsEmpty(t *testing.T) {
	b := New(filepath.Join(t.TempDir(), "missing.json"), nil)
	loaded, err := b.Load(context.Background())
	if err != nil || len(loaded) != 0 {
		t.Fatalf("expected empty result for a missing file, got %v, %v", loaded, err)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.json")
	b := New(path, nil)
	ctx := context.Background()

	data := map[string]value.Value{
		"cart": value.Object{"total": value.Number(9.5)},
		"name": value.String("alice"),
	}
	if err := b.Save(ctx, data); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := b.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	cart, ok := loaded["cart"].(value.Object)
	if !ok || cart["total"] != value.Number(9.5) {
		t.Fatalf("expected cart.total round trip, got %v", loaded["cart"])
	}
	if loaded["name"] != value.String("alice") {
		t.Fatalf("expected name round trip, got %v", loaded["name"])
	}
}

func TestSaveWritesKeySortedPrettyJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.json")
	b := New(path, nil)
	if err := b.Save(context.Background(), map[string]value.Value{
		"zebra": value.Integer(1),
		"alpha": value.Integer(2),
	}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	s := string(raw)
	if i, j := indexOf(s, "alpha"), indexOf(s, "zebra"); i < 0 || j < 0 || i > j {
		t.Fatalf("expected alpha to sort before zebra in the written file, got:\n%s", s)
	}
}

func indexOf(s, substr string) int {
	for i := 0; i+len(substr) <= len(s); i++ {
		if s[i:i+len(substr)] == substr {
			return i
		}
	}
	return -1
}

func TestClearRemovesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.json")
	b := New(path, nil)
	ctx := context.Background()
	if err := b.Save(ctx, map[string]value.Value{"a": value.Integer(1)}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := b.Clear(ctx); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("expected Clear to remove the backing file, stat err = %v", err)
	}
	// Clearing an already-absent file is not an error.
	if err := b.Clear(ctx); err != nil {
		t.Fatalf("Clear on absent file: %v", err)
	}
}

func TestMalformedFileLoadsEmptyAndLogsWarning(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.json")
	if err := os.WriteFile(path, []byte("not json"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	b := New(path, nil)
	loaded, err := b.Load(context.Background())
	if err != nil || len(loaded) != 0 {
		t.Fatalf("expected malformed json to load as empty, got %v, %v", loaded, err)
	}
}

func TestSupportsConcurrentAccessIsFalse(t *testing.T) {
	if New(filepath.Join(t.TempDir(), "s.json"), nil).SupportsConcurrentAccess() {
		t.Fatalf("expected the file backend to not support concurrent access")
	}
}
