// Package resolver implements the value/condition resolver (C8): resolving
// a ValueDescriptor against a store/event context, and evaluating a
// ConditionDescriptor's boolean result (spec §4.9).
package resolver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/MrtnvM/render-engine/keypath"
	"github.com/MrtnvM/render-engine/kvstore"
	"github.com/MrtnvM/render-engine/value"
)

// DescriptorKind discriminates the ValueDescriptor variants.
type DescriptorKind int

const (
	Literal DescriptorKind = iota
	StoreValue
	Computed
	EventData
)

// ComputedOp enumerates the arithmetic operators a Computed descriptor may
// apply to its resolved operands.
type ComputedOp int

const (
	OpAdd ComputedOp = iota
	OpSubtract
	OpMultiply
	OpDivide
	OpModulo
	OpTemplate
)

// ValueDescriptor is the tagged description of a value to resolve against a
// Context: literal, a store read, a computed expression, or event data.
type ValueDescriptor struct {
	Kind DescriptorKind

	// Literal
	LiteralType  string
	LiteralValue interface{}

	// StoreValue
	StoreRef     string
	KeyPath      string
	DefaultValue *ValueDescriptor

	// Computed
	Op       ComputedOp
	Operands []ValueDescriptor
	Template string

	// EventData
	Path string
}

// StoreResolver looks a named storeRef up to its live *kvstore.Store. The
// action executor and resolver share this indirection so a descriptor can
// reference any configured store by name without resolver depending on the
// store manager's concrete type.
type StoreResolver func(storeRef string) (*kvstore.Store, bool)

// Context is the ambient state a descriptor/condition resolves against.
type Context struct {
	ScenarioID string
	EventData  value.Value
}

// Resolver resolves ValueDescriptors and ConditionDescriptors.
type Resolver struct {
	stores StoreResolver
}

// New returns a Resolver that looks stores up via stores.
func New(stores StoreResolver) *Resolver {
	return &Resolver{stores: stores}
}

// ResolveValue implements spec §4.9's resolveValue.
func (r *Resolver) ResolveValue(ctx context.Context, desc ValueDescriptor, rctx Context) (value.Value, error) {
	switch desc.Kind {
	case Literal:
		return decodeLiteral(desc.LiteralType, desc.LiteralValue)
	case StoreValue:
		st, ok := r.stores(desc.StoreRef)
		if !ok {
			return nil, fmt.Errorf("resolver: unknown storeRef %q", desc.StoreRef)
		}
		v, ok := st.Get(desc.KeyPath)
		if ok {
			return v, nil
		}
		if desc.DefaultValue != nil {
			return r.ResolveValue(ctx, *desc.DefaultValue, rctx)
		}
		return value.Null{}, nil
	case Computed:
		return r.resolveComputed(ctx, desc, rctx)
	case EventData:
		if rctx.EventData == nil {
			return value.Null{}, nil
		}
		if v, ok := keypath.Get(asObject(rctx.EventData), desc.Path); ok {
			return v, nil
		}
		return value.Null{}, nil
	default:
		return nil, fmt.Errorf("resolver: unknown descriptor kind %d", desc.Kind)
	}
}

func asObject(v value.Value) value.Object {
	if o, ok := v.(value.Object); ok {
		return o
	}
	return value.Object{}
}

func decodeLiteral(typ string, raw interface{}) (value.Value, error) {
	b, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("resolver: literal: %w", err)
	}
	return value.DecodeTagged(json.RawMessage(fmt.Sprintf(`{"type":%q,"value":%s}`, typ, b)))
}

func (r *Resolver) resolveComputed(ctx context.Context, desc ValueDescriptor, rctx Context) (value.Value, error) {
	if desc.Op == OpTemplate {
		operands := make([]string, len(desc.Operands))
		for i, od := range desc.Operands {
			v, err := r.ResolveValue(ctx, od, rctx)
			if err != nil {
				return nil, err
			}
			operands[i] = value.Stringify(v)
		}
		out := desc.Template
		for i, s := range operands {
			out = strings.ReplaceAll(out, fmt.Sprintf("{%d}", i), s)
		}
		return value.String(out), nil
	}

	if len(desc.Operands) < 2 {
		return nil, fmt.Errorf("resolver: computed op requires at least 2 operands, got %d", len(desc.Operands))
	}
	left, err := r.ResolveValue(ctx, desc.Operands[0], rctx)
	if err != nil {
		return nil, err
	}
	right, err := r.ResolveValue(ctx, desc.Operands[1], rctx)
	if err != nil {
		return nil, err
	}
	return arith(desc.Op, left, right)
}

func numericOf(v value.Value) (float64, bool, bool) {
	switch n := v.(type) {
	case value.Integer:
		return float64(n), true, true
	case value.Number:
		return float64(n), false, true
	default:
		return 0, false, false
	}
}

// arith implements the integer-preserving arithmetic rules from spec §4.9:
// add/subtract/multiply/modulo stay integer when both operands are integer;
// divide always promotes to number; divide-by-zero yields null.
func arith(op ComputedOp, l, r value.Value) (value.Value, error) {
	lf, lInt, lOk := numericOf(l)
	rf, rInt, rOk := numericOf(r)
	if !lOk || !rOk {
		return nil, fmt.Errorf("resolver: computed arithmetic requires numeric operands")
	}
	bothInt := lInt && rInt

	switch op {
	case OpAdd:
		if bothInt {
			return value.Integer(int64(lf) + int64(rf)), nil
		}
		return value.Number(lf + rf), nil
	case OpSubtract:
		if bothInt {
			return value.Integer(int64(lf) - int64(rf)), nil
		}
		return value.Number(lf - rf), nil
	case OpMultiply:
		if bothInt {
			return value.Integer(int64(lf) * int64(rf)), nil
		}
		return value.Number(lf * rf), nil
	case OpDivide:
		if rf == 0 {
			return value.Null{}, nil
		}
		return value.Number(lf / rf), nil
	case OpModulo:
		if rf == 0 {
			return value.Null{}, nil
		}
		if bothInt {
			return value.Integer(int64(lf) % int64(rf)), nil
		}
		return value.Number(modFloat(lf, rf)), nil
	default:
		return nil, fmt.Errorf("resolver: unknown computed op %d", op)
	}
}

func modFloat(a, b float64) float64 {
	for a >= b {
		a -= b
	}
	return a
}

// ConditionKind discriminates the ConditionDescriptor variants.
type ConditionKind int

const (
	CondEquals ConditionKind = iota
	CondNotEquals
	CondGreaterThan
	CondGreaterThanOrEqual
	CondLessThan
	CondLessThanOrEqual
	CondAnd
	CondOr
	CondNot
)

// ConditionDescriptor is the tagged boolean-valued expression over
// ValueDescriptors (spec §3/§4.9).
type ConditionDescriptor struct {
	Kind       ConditionKind
	Left       *ValueDescriptor
	Right      *ValueDescriptor
	Conditions []ConditionDescriptor
}

// EvaluateCondition implements spec §4.9's evaluateCondition.
func (r *Resolver) EvaluateCondition(ctx context.Context, cond ConditionDescriptor, rctx Context) (bool, error) {
	switch cond.Kind {
	case CondAnd:
		for _, c := range cond.Conditions {
			ok, err := r.EvaluateCondition(ctx, c, rctx)
			if err != nil {
				return false, err
			}
			if !ok {
				return false, nil
			}
		}
		return true, nil
	case CondOr:
		for _, c := range cond.Conditions {
			ok, err := r.EvaluateCondition(ctx, c, rctx)
			if err != nil {
				return false, err
			}
			if ok {
				return true, nil
			}
		}
		return false, nil
	case CondNot:
		if len(cond.Conditions) == 0 {
			return false, fmt.Errorf("resolver: not requires one nested condition")
		}
		ok, err := r.EvaluateCondition(ctx, cond.Conditions[0], rctx)
		if err != nil {
			return false, err
		}
		return !ok, nil
	default:
		return r.evaluateComparison(ctx, cond, rctx)
	}
}

func (r *Resolver) evaluateComparison(ctx context.Context, cond ConditionDescriptor, rctx Context) (bool, error) {
	if cond.Left == nil || cond.Right == nil {
		return false, fmt.Errorf("resolver: comparison requires left and right")
	}
	l, err := r.ResolveValue(ctx, *cond.Left, rctx)
	if err != nil {
		return false, err
	}
	rv, err := r.ResolveValue(ctx, *cond.Right, rctx)
	if err != nil {
		return false, err
	}
	switch cond.Kind {
	case CondEquals:
		return value.DeepEqual(l, rv), nil
	case CondNotEquals:
		return !value.DeepEqual(l, rv), nil
	case CondGreaterThan, CondGreaterThanOrEqual, CondLessThan, CondLessThanOrEqual:
		lf, lOk, rf, rOk := numericPair(l, rv)
		if !lOk || !rOk {
			return false, nil
		}
		switch cond.Kind {
		case CondGreaterThan:
			return lf > rf, nil
		case CondGreaterThanOrEqual:
			return lf >= rf, nil
		case CondLessThan:
			return lf < rf, nil
		default:
			return lf <= rf, nil
		}
	default:
		return false, fmt.Errorf("resolver: unknown condition kind %d", cond.Kind)
	}
}

func numericPair(l, r value.Value) (float64, bool, float64, bool) {
	lf, _, lOk := numericOf(l)
	rf, _, rOk := numericOf(r)
	return lf, lOk, rf, rOk
}
