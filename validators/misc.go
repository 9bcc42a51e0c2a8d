package validators

import (
	"github.com/MrtnvM/render-engine/validation"
	"github.com/MrtnvM/render-engine/value"
)

// ColorValidator requires a "#" + 6 or 8 hex digit color string.
type ColorValidator struct{}

func NewColorValidator() *ColorValidator { return &ColorValidator{} }

func (*ColorValidator) Name() string { return "color" }

func (*ColorValidator) Validate(input interface{}) *validation.ValidationResult {
	s, ok := input.(string)
	if !ok || !value.IsColorShape(s) {
		return validation.Failure(validation.ValidationError{
			Code: "INVALID_COLOR", Message: "value is not a #RRGGBB or #RRGGBBAA color", Severity: validation.SeverityError,
		})
	}
	return validation.NewResult()
}

// ComponentTypeValidator allow-lists component type strings.
type ComponentTypeValidator struct {
	allowed map[string]bool
}

func NewComponentTypeValidator(allowed []string) *ComponentTypeValidator {
	m := make(map[string]bool, len(allowed))
	for _, a := range allowed {
		m[a] = true
	}
	return &ComponentTypeValidator{allowed: m}
}

func (*ComponentTypeValidator) Name() string { return "component-type" }

func (v *ComponentTypeValidator) Validate(input interface{}) *validation.ValidationResult {
	s, ok := input.(string)
	if !ok || !v.allowed[s] {
		return validation.Failure(validation.ValidationError{
			Code: "UNKNOWN_COMPONENT_TYPE", Message: "component type is not registered", Severity: validation.SeverityError,
		})
	}
	return validation.NewResult()
}

// BusinessRule is one composable check in a BusinessRuleValidator.
type BusinessRule struct {
	Name     string
	Check    func(input interface{}) bool
	Message  string
	Severity validation.Severity
}

// BusinessRuleValidator runs an ordered array of BusinessRules against the
// same input, each contributing at its own severity.
type BusinessRuleValidator struct {
	name  string
	rules []BusinessRule
}

// NewBusinessRuleValidator returns a validator registered under name that
// runs every rule in order.
func NewBusinessRuleValidator(name string, rules []BusinessRule) *BusinessRuleValidator {
	return &BusinessRuleValidator{name: name, rules: rules}
}

func (v *BusinessRuleValidator) Name() string { return v.name }

func (v *BusinessRuleValidator) Validate(input interface{}) *validation.ValidationResult {
	result := validation.NewResult()
	for _, rule := range v.rules {
		if !rule.Check(input) {
			result.Add(validation.ValidationError{
				Code:     "BUSINESS_RULE_" + rule.Name,
				Message:  rule.Message,
				Severity: rule.Severity,
			})
		}
	}
	return result
}
