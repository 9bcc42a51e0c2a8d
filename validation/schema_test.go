package validation

import "testing"

func intPtr(i int) *int { return &i }
func f64Ptr(f float64) *float64 { return &f }

func TestValidateTypeMismatch(t *testing.T) {
	res := Validate(&Schema{Type: "integer"}, "not an integer")
	if res.IsValid() {
		t.Fatalf("expected type mismatch to be invalid")
	}
	if res.Errors()[0].Code != "invalid_type" {
		t.Fatalf("expected invalid_type code, got %q", res.Errors()[0].Code)
	}
}

func TestValidateRequiredProperties(t *testing.T) {
	schema := &Schema{
		Type:     "object",
		Required: []string{"name", "age"},
		Properties: map[string]*Schema{
			"name": {Type: "string"},
			"age":  {Type: "integer"},
		},
	}
	res := Validate(schema, map[string]interface{}{"name": "ana"})
	if res.IsValid() {
		t.Fatalf("expected missing required property to be invalid")
	}
	found := false
	for _, e := range res.Errors() {
		if e.Code == "required" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a required-property error, got %+v", res.Errors())
	}
}

func TestValidateNestedObjectPath(t *testing.T) {
	schema := &Schema{
		Type: "object",
		Properties: map[string]*Schema{
			"user": {
				Type:       "object",
				Properties: map[string]*Schema{"email": {Type: "string", Format: "email"}},
			},
		},
	}
	res := Validate(schema, map[string]interface{}{"user": map[string]interface{}{"email": "not-an-email"}})
	if res.IsValid() {
		t.Fatalf("expected nested format violation to be invalid")
	}
	if res.Errors()[0].Path != "$.user.email" {
		t.Fatalf("expected nested path $.user.email, got %q", res.Errors()[0].Path)
	}
}

func TestValidateStringConstraints(t *testing.T) {
	schema := &Schema{Type: "string", MinLength: intPtr(3), MaxLength: intPtr(5)}
	if res := Validate(schema, "ab"); res.IsValid() {
		t.Fatalf("expected below-minimum string to be invalid")
	}
	if res := Validate(schema, "abcdef"); res.IsValid() {
		t.Fatalf("expected above-maximum string to be invalid")
	}
	if res := Validate(schema, "abcd"); !res.IsValid() {
		t.Fatalf("expected in-range string to be valid")
	}
}

func TestValidateNumberRange(t *testing.T) {
	schema := &Schema{Type: "number", Minimum: f64Ptr(0), Maximum: f64Ptr(10)}
	if res := Validate(schema, float64(-1)); res.IsValid() {
		t.Fatalf("expected below-minimum number to be invalid")
	}
	if res := Validate(schema, float64(11)); res.IsValid() {
		t.Fatalf("expected above-maximum number to be invalid")
	}
}

func TestValidateArrayItems(t *testing.T) {
	schema := &Schema{Type: "array", Items: &Schema{Type: "integer"}}
	res := Validate(schema, []interface{}{float64(1), "not an integer", float64(3)})
	if res.IsValid() {
		t.Fatalf("expected one bad element to invalidate the array")
	}
	if res.Errors()[0].Path != "$[1]" {
		t.Fatalf("expected error path $[1], got %q", res.Errors()[0].Path)
	}
}

func TestValidateEnumAndConst(t *testing.T) {
	enumSchema := &Schema{Enum: []interface{}{"a", "b", "c"}}
	if res := Validate(enumSchema, "z"); res.IsValid() {
		t.Fatalf("expected value outside enum to be invalid")
	}
	constSchema := &Schema{Const: "fixed", HasConst: true}
	if res := Validate(constSchema, "other"); res.IsValid() {
		t.Fatalf("expected value differing from const to be invalid")
	}
}

func TestValidateOneOfExactlyOneMatch(t *testing.T) {
	schema := &Schema{OneOf: []*Schema{{Type: "string"}, {Type: "integer"}}}
	if res := Validate(schema, "text"); !res.IsValid() {
		t.Fatalf("expected exactly one matching branch to be valid")
	}
	ambiguous := &Schema{OneOf: []*Schema{{}, {Type: "string"}}}
	if res := Validate(ambiguous, "text"); res.IsValid() {
		t.Fatalf("expected matching both branches of oneOf to be invalid")
	}
}

func TestValidateAdditionalPropertiesFalse(t *testing.T) {
	schema := &Schema{
		Type:                      "object",
		Properties:                map[string]*Schema{"a": {Type: "string"}},
		AdditionalPropertiesFalse: true,
	}
	res := Validate(schema, map[string]interface{}{"a": "x", "extra": "y"})
	if res.IsValid() {
		t.Fatalf("expected undeclared property to be invalid")
	}
}

func TestValidateRefResolution(t *testing.T) {
	schema := &Schema{
		Ref: "#/definitions/Name",
		Definitions: map[string]*Schema{
			"Name": {Type: "string", MinLength: intPtr(1)},
		},
	}
	if res := Validate(schema, ""); res.IsValid() {
		t.Fatalf("expected resolved ref's constraint (MinLength) to apply")
	}
	if res := Validate(schema, "ok"); !res.IsValid() {
		t.Fatalf("expected resolved ref to validate a conforming instance")
	}
}

func TestValidateUnresolvedRef(t *testing.T) {
	schema := &Schema{Ref: "#/definitions/Missing"}
	res := Validate(schema, "anything")
	if res.IsValid() {
		t.Fatalf("expected an unresolved $ref to be reported invalid")
	}
	if res.Errors()[0].Code != "UNRESOLVED_REF" {
		t.Fatalf("expected UNRESOLVED_REF code, got %q", res.Errors()[0].Code)
	}
}

func TestMergeIsValidOnlyIfAllValid(t *testing.T) {
	ok := Validate(&Schema{Type: "string"}, "fine")
	bad := Validate(&Schema{Type: "string"}, float64(1))
	merged := Merge(ok, bad)
	if merged.IsValid() {
		t.Fatalf("expected Merge to be invalid when any input was invalid")
	}
	if len(merged.All()) != len(ok.All())+len(bad.All()) {
		t.Fatalf("expected Merge to concatenate all findings")
	}
}
