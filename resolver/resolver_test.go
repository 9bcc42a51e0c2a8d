package resolver

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/MrtnvM/render-engine/internal/logging"
	"github.com/MrtnvM/render-engine/kvstore"
	"github.com/MrtnvM/render-engine/storage/memory"
	"github.com/MrtnvM/render-engine/value"
)

func newTestStore(t *testing.T) *kvstore.Store {
	t.Helper()
	st, err := kvstore.New(context.Background(), value.AppScope(), value.StorageRef{Kind: value.StorageMemory}, memory.New(), logging.NewNoOpLogger())
	if err != nil {
		t.Fatalf("kvstore.New: %v", err)
	}
	return st
}

func literal(typ string, v interface{}) ValueDescriptor {
	return ValueDescriptor{Kind: Literal, LiteralType: typ, LiteralValue: v}
}

func TestResolveLiteral(t *testing.T) {
	r := New(func(string) (*kvstore.Store, bool) { return nil, false })
	v, err := r.ResolveValue(context.Background(), literal("integer", 42), Context{})
	if err != nil {
		t.Fatalf("ResolveValue: %v", err)
	}
	if v != value.Integer(42) {
		t.Fatalf("expected Integer(42), got %#v", v)
	}
}

func TestResolveStoreValueWithDefault(t *testing.T) {
	st := newTestStore(t)
	r := New(func(ref string) (*kvstore.Store, bool) {
		if ref == "app" {
			return st, true
		}
		return nil, false
	})

	desc := ValueDescriptor{
		Kind: StoreValue, StoreRef: "app", KeyPath: "missing.path",
		DefaultValue: &ValueDescriptor{Kind: Literal, LiteralType: "string", LiteralValue: "fallback"},
	}
	v, err := r.ResolveValue(context.Background(), desc, Context{})
	if err != nil {
		t.Fatalf("ResolveValue: %v", err)
	}
	if v != value.String("fallback") {
		t.Fatalf("expected default value, got %#v", v)
	}

	if err := st.Set(context.Background(), "missing.path", value.Integer(7)); err != nil {
		t.Fatalf("Set: %v", err)
	}
	v, err = r.ResolveValue(context.Background(), desc, Context{})
	if err != nil {
		t.Fatalf("ResolveValue: %v", err)
	}
	if v != value.Integer(7) {
		t.Fatalf("expected stored value once present, got %#v", v)
	}
}

func TestResolveComputedArithmeticPreservesInteger(t *testing.T) {
	r := New(func(string) (*kvstore.Store, bool) { return nil, false })
	desc := ValueDescriptor{
		Kind: Computed, Op: OpAdd,
		Operands: []ValueDescriptor{literal("integer", 2), literal("integer", 3)},
	}
	v, err := r.ResolveValue(context.Background(), desc, Context{})
	if err != nil {
		t.Fatalf("ResolveValue: %v", err)
	}
	if v != value.Integer(5) {
		t.Fatalf("expected Integer(5), got %#v", v)
	}
}

func TestResolveComputedDivideByZeroYieldsNull(t *testing.T) {
	r := New(func(string) (*kvstore.Store, bool) { return nil, false })
	desc := ValueDescriptor{
		Kind: Computed, Op: OpDivide,
		Operands: []ValueDescriptor{literal("integer", 10), literal("integer", 0)},
	}
	v, err := r.ResolveValue(context.Background(), desc, Context{})
	if err != nil {
		t.Fatalf("ResolveValue: %v", err)
	}
	if _, isNull := v.(value.Null); !isNull {
		t.Fatalf("expected Null on divide by zero, got %#v", v)
	}
}

func TestResolveComputedDivideAlwaysPromotesToNumber(t *testing.T) {
	r := New(func(string) (*kvstore.Store, bool) { return nil, false })
	desc := ValueDescriptor{
		Kind: Computed, Op: OpDivide,
		Operands: []ValueDescriptor{literal("integer", 9), literal("integer", 2)},
	}
	v, err := r.ResolveValue(context.Background(), desc, Context{})
	if err != nil {
		t.Fatalf("ResolveValue: %v", err)
	}
	if v != value.Number(4.5) {
		t.Fatalf("expected Number(4.5), got %#v", v)
	}
}

func TestResolveComputedTemplate(t *testing.T) {
	r := New(func(string) (*kvstore.Store, bool) { return nil, false })
	desc := ValueDescriptor{
		Kind:     Computed,
		Op:       OpTemplate,
		Template: "hello {0}, you have {1} items",
		Operands: []ValueDescriptor{literal("string", "ana"), literal("integer", 3)},
	}
	v, err := r.ResolveValue(context.Background(), desc, Context{})
	require.NoError(t, err)
	require.Equal(t, value.String("hello ana, you have 3 items"), v)
}

func TestEvaluateConditionComparisons(t *testing.T) {
	r := New(func(string) (*kvstore.Store, bool) { return nil, false })
	ctx := context.Background()

	eq := ConditionDescriptor{Kind: CondEquals, Left: ptr(literal("integer", 5)), Right: ptr(literal("integer", 5))}
	ok, err := r.EvaluateCondition(ctx, eq, Context{})
	if err != nil || !ok {
		t.Fatalf("expected equals true, got %v, %v", ok, err)
	}

	gt := ConditionDescriptor{Kind: CondGreaterThan, Left: ptr(literal("integer", 5)), Right: ptr(literal("integer", 3))}
	ok, err = r.EvaluateCondition(ctx, gt, Context{})
	if err != nil || !ok {
		t.Fatalf("expected greaterThan true, got %v, %v", ok, err)
	}

	and := ConditionDescriptor{Kind: CondAnd, Conditions: []ConditionDescriptor{eq, gt}}
	ok, err = r.EvaluateCondition(ctx, and, Context{})
	if err != nil || !ok {
		t.Fatalf("expected and true, got %v, %v", ok, err)
	}

	not := ConditionDescriptor{Kind: CondNot, Conditions: []ConditionDescriptor{gt}}
	ok, err = r.EvaluateCondition(ctx, not, Context{})
	if err != nil || ok {
		t.Fatalf("expected not(true) = false, got %v, %v", ok, err)
	}
}

func TestEvaluateConditionEqualsIsTagSensitive(t *testing.T) {
	r := New(func(string) (*kvstore.Store, bool) { return nil, false })
	cond := ConditionDescriptor{Kind: CondEquals, Left: ptr(literal("integer", 1)), Right: ptr(literal("number", 1))}
	ok, err := r.EvaluateCondition(context.Background(), cond, Context{})
	require.NoError(t, err)
	require.False(t, ok, "expected integer(1) != number(1) under tag-sensitive equality")
}

func ptr(v ValueDescriptor) *ValueDescriptor { return &v }
