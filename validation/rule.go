package validation

import (
	"encoding/json"

	"github.com/MrtnvM/render-engine/value"
)

// RuleKind enumerates the StoreValue kinds a ValidationRule may constrain.
type RuleKind int

const (
	RuleString RuleKind = iota
	RuleNumber
	RuleInteger
	RuleBool
	RuleColor
	RuleURL
	RuleArray
	RuleObject
)

func (k RuleKind) ValueKind() value.Kind {
	switch k {
	case RuleString:
		return value.KindString
	case RuleNumber:
		return value.KindNumber
	case RuleInteger:
		return value.KindInteger
	case RuleBool:
		return value.KindBool
	case RuleColor:
		return value.KindColor
	case RuleURL:
		return value.KindURL
	case RuleArray:
		return value.KindArray
	case RuleObject:
		return value.KindObject
	default:
		return value.KindString
	}
}

// Rule is the per-keyPath validation rule the store's configureValidation
// accepts (spec §3, ValidationRule).
type Rule struct {
	Kind         RuleKind
	Required     bool
	DefaultValue value.Value
	Min          *float64
	Max          *float64
	Pattern      string
}

// Mode selects strict or lenient write-time enforcement.
type Mode int

const (
	ModeStrict Mode = iota
	ModeLenient
)

// RuleOptions is the store-facing validation configuration: a mode plus a
// per-keyPath schema of Rules.
type RuleOptions struct {
	Mode   Mode
	Schema map[string]Rule
}

// ToSchema translates a Rule into an ad-hoc Schema so it can be delegated to
// the general validation engine.
func (r Rule) ToSchema() *Schema {
	s := &Schema{Type: ruleKindJSONType(r.Kind)}
	if r.Min != nil {
		switch r.Kind {
		case RuleString:
			n := int(*r.Min)
			s.MinLength = &n
		case RuleArray:
			n := int(*r.Min)
			s.MinItems = &n
		default:
			s.Minimum = r.Min
		}
	}
	if r.Max != nil {
		switch r.Kind {
		case RuleString:
			n := int(*r.Max)
			s.MaxLength = &n
		case RuleArray:
			n := int(*r.Max)
			s.MaxItems = &n
		default:
			s.Maximum = r.Max
		}
	}
	if r.Pattern != "" {
		s.Pattern = r.Pattern
	}
	if r.Kind == RuleColor {
		s.Format = "color"
	}
	return s
}

func ruleKindJSONType(k RuleKind) string {
	switch k {
	case RuleString, RuleColor, RuleURL:
		return "string"
	case RuleNumber:
		return "number"
	case RuleInteger:
		return "integer"
	case RuleBool:
		return "boolean"
	case RuleArray:
		return "array"
	case RuleObject:
		return "object"
	default:
		return ""
	}
}

// ValidateStoreValue validates v against rule using the engine, after
// round-tripping v to plain JSON (the engine's instance representation).
// Color/URL rules are checked directly against the tag, since plain JSON
// drops the tag and the engine has no "color" or "url" format check.
func ValidateStoreValue(rule Rule, v value.Value) *ValidationResult {
	if rule.Kind == RuleColor {
		if c, ok := v.(value.Color); ok && value.IsColorShape(string(c)) {
			return NewResult()
		}
		return Failure(ValidationError{Code: "invalid_color", Message: "value is not a valid color", Severity: SeverityError})
	}
	if rule.Kind == RuleURL {
		if _, ok := v.(value.URL); ok {
			return NewResult()
		}
		return Failure(ValidationError{Code: "invalid_url", Message: "value is not a valid url", Severity: SeverityError})
	}
	if v.Kind() != rule.Kind.ValueKind() {
		return Failure(ValidationError{
			Code:     "invalid_type",
			Message:  "value kind does not match rule kind",
			Severity: SeverityError,
		})
	}
	bare, err := value.EncodeBare(v)
	if err != nil {
		return Failure(ValidationError{Code: "encode_error", Message: err.Error(), Severity: SeverityError})
	}
	var instance interface{}
	if err := json.Unmarshal(bare, &instance); err != nil {
		return Failure(ValidationError{Code: "decode_error", Message: err.Error(), Severity: SeverityError})
	}
	return Validate(rule.ToSchema(), instance)
}
