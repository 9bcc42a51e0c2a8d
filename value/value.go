// Package value implements the tagged-variant StoreValue used throughout the
// render engine: every value ever read from or written to a Store is one of
// the kinds enumerated here, never a raw host type.
package value

import (
	"fmt"
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// Kind discriminates the tagged variants of a StoreValue.
type Kind int

const (
	KindNull Kind = iota
	KindString
	KindNumber
	KindInteger
	KindBool
	KindColor
	KindURL
	KindArray
	KindObject
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindInteger:
		return "integer"
	case KindBool:
		return "bool"
	case KindColor:
		return "color"
	case KindURL:
		return "url"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	default:
		return "unknown"
	}
}

// Value is the common interface implemented by every StoreValue variant.
// Pattern matching on Kind (via a type switch on the concrete type, or the
// Kind() accessor) is the only dispatch mechanism; there is no class
// hierarchy.
type Value interface {
	Kind() Kind
	isValue()
}

// Null is the StoreValue null variant.
type Null struct{}

func (Null) Kind() Kind { return KindNull }
func (Null) isValue()   {}

// String is the StoreValue string variant.
type String string

func (String) Kind() Kind { return KindString }
func (String) isValue()   {}

// Number is the StoreValue double-precision number variant.
type Number float64

func (Number) Kind() Kind { return KindNumber }
func (Number) isValue()   {}

// Integer is the StoreValue integer variant, kept distinct from Number so
// that deepEqual remains tag-sensitive (integer(1) != number(1.0)).
type Integer int64

func (Integer) Kind() Kind { return KindInteger }
func (Integer) isValue()   {}

// Bool is the StoreValue boolean variant.
type Bool bool

func (Bool) Kind() Kind { return KindBool }
func (Bool) isValue()   {}

// Color is a hex color string, either "#RRGGBB" or "#RRGGBBAA".
type Color string

func (Color) Kind() Kind { return KindColor }
func (Color) isValue()   {}

// URL is an RFC 3986 URL string.
type URL string

func (URL) Kind() Kind { return KindURL }
func (URL) isValue()   {}

// Array is an ordered list of StoreValues.
type Array []Value

func (Array) Kind() Kind { return KindArray }
func (Array) isValue()   {}

// Object is a string-keyed map of StoreValues. Insertion order is not
// semantically significant; callers must not rely on range order.
type Object map[string]Value

func (Object) Kind() Kind { return KindObject }
func (Object) isValue()   {}

var colorPattern = regexp.MustCompile(`^#([0-9a-fA-F]{6}|[0-9a-fA-F]{8})$`)

// IsColorShape reports whether s has the #RRGGBB or #RRGGBBAA shape.
func IsColorShape(s string) bool {
	return colorPattern.MatchString(s)
}

// IsURLShape reports whether s parses as an absolute or relative URL with a
// recognizable scheme-or-path structure.
func IsURLShape(s string) bool {
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return u.Scheme != "" || strings.HasPrefix(s, "/")
}

// IsOfKind reports whether v carries the given kind.
func IsOfKind(v Value, k Kind) bool {
	return v != nil && v.Kind() == k
}

// Coerce attempts to convert v to the target kind, returning (converted,
// true) on success. Coercion never loses the tag asymmetrically: coercion to
// Color/URL only ever succeeds from strings already matching the respective
// shape.
func Coerce(v Value, target Kind) (Value, bool) {
	if v == nil {
		return nil, false
	}
	if v.Kind() == target {
		return v, true
	}
	switch target {
	case KindString:
		switch t := v.(type) {
		case Integer:
			return String(strconv.FormatInt(int64(t), 10)), true
		case Number:
			return String(formatNumber(float64(t))), true
		case Bool:
			if t {
				return String("true"), true
			}
			return String("false"), true
		case Color:
			return String(string(t)), true
		case URL:
			return String(string(t)), true
		}
	case KindNumber:
		switch t := v.(type) {
		case String:
			if f, err := strconv.ParseFloat(string(t), 64); err == nil {
				return Number(f), true
			}
		case Integer:
			return Number(float64(t)), true
		}
	case KindInteger:
		switch t := v.(type) {
		case String:
			if i, err := strconv.ParseInt(strings.TrimSpace(string(t)), 10, 64); err == nil {
				return Integer(i), true
			}
			if f, err := strconv.ParseFloat(string(t), 64); err == nil {
				return Integer(int64(f)), true
			}
		case Number:
			return Integer(int64(t)), true
		}
	case KindBool:
		if s, ok := v.(String); ok {
			switch strings.ToLower(strings.TrimSpace(string(s))) {
			case "true", "1", "yes":
				return Bool(true), true
			case "false", "0", "no":
				return Bool(false), true
			}
		}
	case KindColor:
		if s, ok := v.(String); ok && IsColorShape(string(s)) {
			return Color(s), true
		}
	case KindURL:
		if s, ok := v.(String); ok && IsURLShape(string(s)) {
			return URL(s), true
		}
	}
	return nil, false
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// DeepEqual reports structural equality. It is tag-sensitive: Integer(1) is
// never equal to Number(1.0).
func DeepEqual(a, b Value) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if a.Kind() != b.Kind() {
		return false
	}
	switch av := a.(type) {
	case Null:
		return true
	case String:
		bv := b.(String)
		return av == bv
	case Number:
		bv := b.(Number)
		return av == bv
	case Integer:
		bv := b.(Integer)
		return av == bv
	case Bool:
		bv := b.(Bool)
		return av == bv
	case Color:
		bv := b.(Color)
		return av == bv
	case URL:
		bv := b.(URL)
		return av == bv
	case Array:
		bv := b.(Array)
		if len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !DeepEqual(av[i], bv[i]) {
				return false
			}
		}
		return true
	case Object:
		bv := b.(Object)
		if len(av) != len(bv) {
			return false
		}
		for k, v := range av {
			bvv, ok := bv[k]
			if !ok || !DeepEqual(v, bvv) {
				return false
			}
		}
		return true
	}
	return false
}

// Stringify renders v the way `computed.template` substitutes operands:
// numbers in natural decimal form, booleans as true/false, null as "" and
// arrays/objects as compact JSON.
func Stringify(v Value) string {
	if v == nil {
		return ""
	}
	switch t := v.(type) {
	case Null:
		return ""
	case String:
		return string(t)
	case Number:
		return formatNumber(float64(t))
	case Integer:
		return strconv.FormatInt(int64(t), 10)
	case Bool:
		if t {
			return "true"
		}
		return "false"
	case Color:
		return string(t)
	case URL:
		return string(t)
	case Array, Object:
		b, err := EncodeBare(v)
		if err != nil {
			return ""
		}
		return string(b)
	}
	return ""
}

// SortedKeys returns the keys of an Object in sorted order, used everywhere
// a deterministic traversal or encoding is required.
func SortedKeys(o Object) []string {
	keys := make([]string, 0, len(o))
	for k := range o {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func errUnsupportedKind(k Kind) error {
	return fmt.Errorf("value: unsupported kind %s", k)
}
