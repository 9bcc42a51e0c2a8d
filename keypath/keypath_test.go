package keypath

import (
	"testing"

	"github.com/MrtnvM/render-engine/value"
)

func TestParseDottedAndIndexed(t *testing.T) {
	segs := Parse("cart.items[0].price")
	if len(segs) != 3 {
		t.Fatalf("expected 3 segments, got %d", len(segs))
	}
	if segs[1].Field != "items" || len(segs[1].Indices) != 1 || segs[1].Indices[0] != 0 {
		t.Fatalf("unexpected items segment: %+v", segs[1])
	}
}

func TestParseWildcard(t *testing.T) {
	segs := Parse("items[*].price")
	if !segs[0].Wildcard || segs[0].Indices[0] != -1 {
		t.Fatalf("expected wildcard segment, got %+v", segs[0])
	}
}

func TestParseRootAndEmpty(t *testing.T) {
	if segs := Parse("$"); segs != nil {
		t.Fatalf("expected root '$' to parse to zero segments, got %v", segs)
	}
	if segs := Parse(""); segs != nil {
		t.Fatalf("expected empty path to parse to zero segments, got %v", segs)
	}
}

func TestJoinRoundTrips(t *testing.T) {
	path := "cart.items[0][1].price"
	segs := Parse(path)
	if got := Join(segs); got != path {
		t.Fatalf("Join(Parse(%q)) = %q, want %q", path, got, path)
	}
}

func TestGetSetRemoveRoundTrip(t *testing.T) {
	root := Set(nil, "cart.items[0].price", value.Number(9.5))
	v, ok := Get(root, "cart.items[0].price")
	if !ok || v != value.Number(9.5) {
		t.Fatalf("expected Get to find the value just Set, got %v, %v", v, ok)
	}
	if !Exists(root, "cart.items[0].price") {
		t.Fatalf("expected Exists true after Set")
	}

	newRoot, old := Remove(root, "cart.items[0].price")
	if old != value.Number(9.5) {
		t.Fatalf("expected Remove to return the removed value, got %v", old)
	}
	if Exists(newRoot, "cart.items[0].price") {
		t.Fatalf("expected path removed")
	}
}

func TestSetDoesNotMutateOriginal(t *testing.T) {
	root := Set(nil, "a.b", value.Integer(1))
	_ = Set(root, "a.c", value.Integer(2))
	if Exists(root, "a.c") {
		t.Fatalf("expected Set to be copy-on-write and not mutate the original root")
	}
}

func TestRemoveMissingPathIsNoOp(t *testing.T) {
	root := Set(nil, "a.b", value.Integer(1))
	newRoot, old := Remove(root, "x.y")
	if _, isNull := old.(value.Null); !isNull {
		t.Fatalf("expected removing an absent path to report Null, got %v", old)
	}
	if !Exists(newRoot, "a.b") {
		t.Fatalf("expected unrelated data untouched by a no-op remove")
	}
}

func TestCompileDependencyMatchesWildcardAndExact(t *testing.T) {
	wild := CompileDependency("items[*].price")
	if !wild.IsWildcard() {
		t.Fatalf("expected items[*].price to compile as a wildcard dependency")
	}
	if !wild.Matches("items[2].price") {
		t.Fatalf("expected items[2].price to match the compiled wildcard dependency")
	}
	if wild.Matches("cart.items[2].price") {
		t.Fatalf("expected a differing prefix to not match")
	}

	exact := CompileDependency("cart.total")
	if exact.IsWildcard() {
		t.Fatalf("expected a plain path to compile as non-wildcard")
	}
	if !exact.Matches("cart.total") || exact.Matches("cart.subtotal") {
		t.Fatalf("expected exact dependency to match only its own path")
	}
}

func TestMatchesWildcard(t *testing.T) {
	if !MatchesWildcard("items[*].price", "items[2].price") {
		t.Fatalf("expected items[2].price to match items[*].price")
	}
	if MatchesWildcard("items[*].price", "cart.items[2].price") {
		t.Fatalf("expected prefix mismatch to not match")
	}
	if MatchesWildcard("items.price", "items[2].price") {
		t.Fatalf("expected a dependency with no wildcard segment to never match")
	}
}
