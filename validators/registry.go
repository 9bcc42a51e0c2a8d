// Package validators implements the pluggable custom-validator registry
// (component-type, URL, color, security, business rules) that sits
// alongside the schema engine in package validation.
package validators

import (
	"fmt"

	"github.com/MrtnvM/render-engine/validation"
)

// Validator is the interface every registered custom validator implements.
type Validator interface {
	Name() string
	Validate(input interface{}) *validation.ValidationResult
}

// Registry maps a validator name to its implementation.
type Registry struct {
	byName map[string]Validator
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{byName: map[string]Validator{}}
}

// NewDefaultRegistry returns a registry pre-populated with the built-in
// validators (security, url, color, component-type).
func NewDefaultRegistry(allowedComponentTypes []string) *Registry {
	r := NewRegistry()
	r.Register(NewSecurityValidator(DefaultSecurityConfig()))
	r.Register(NewURLValidator(DefaultURLConfig()))
	r.Register(NewColorValidator())
	r.Register(NewComponentTypeValidator(allowedComponentTypes))
	return r
}

// Register installs v under its own Name(), overwriting any prior
// registration with the same name.
func (r *Registry) Register(v Validator) {
	r.byName[v.Name()] = v
}

// Validate looks up name and runs it against input.
func (r *Registry) Validate(name string, input interface{}) (*validation.ValidationResult, error) {
	v, ok := r.byName[name]
	if !ok {
		return nil, fmt.Errorf("validators: no validator registered as %q", name)
	}
	return v.Validate(input), nil
}

// Get returns the validator registered under name, if any.
func (r *Registry) Get(name string) (Validator, bool) {
	v, ok := r.byName[name]
	return v, ok
}
