package validation

import (
	"fmt"
	"net"
	"net/mail"
	"net/url"
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/xeipuuv/gojsonpointer"
	"github.com/xeipuuv/gojsonreference"
)

// Schema is a JSON-schema-like constraint tree. Only the subset named in
// spec §4.6 is supported.
type Schema struct {
	Type       string // null,bool,number,integer,string,array,object ("" = any)
	Enum       []interface{}
	Const      interface{}
	HasConst   bool
	AllOf      []*Schema
	AnyOf      []*Schema
	OneOf      []*Schema
	Not        *Schema
	MinLength  *int
	MaxLength  *int
	Pattern    string
	Format     string // date-time, email, hostname, ipv4, ipv6, uri, uuid
	Minimum    *float64
	Maximum    *float64
	MinItems   *int
	MaxItems   *int
	Items      *Schema
	Required   []string
	Properties map[string]*Schema
	// AdditionalProperties: nil = allowed (default); false via AdditionalPropertiesFalse.
	AdditionalPropertiesFalse bool
	Ref                       string // "#/definitions/Name"

	Definitions map[string]*Schema
}

// Options configures a validation pass.
type Options struct {
	MaxDepth    int // default 10
	MaxErrors   int // default 100
	definitions map[string]*Schema
}

func defaultOptions(root *Schema) *Options {
	return &Options{
		MaxDepth:    10,
		MaxErrors:   100,
		definitions: root.Definitions,
	}
}

// Validate runs schema against instance (decoded JSON: map[string]interface{},
// []interface{}, string, float64/json.Number, bool, nil) and returns the
// aggregated result. A branch deeper than MaxDepth is cut off with a
// MAX_DEPTH_EXCEEDED error (one per cut branch); when a constraint error
// brings the count to MaxErrors, a MAX_ERRORS_EXCEEDED error is added and no
// further constraint errors are collected.
func Validate(schema *Schema, instance interface{}) *ValidationResult {
	opts := defaultOptions(schema)
	result := NewResult()
	validateNode(schema, instance, "$", opts, 0, result)
	return result
}

func terminal(result *ValidationResult, path, code, msg string) {
	result.Add(ValidationError{Code: code, Message: msg, Path: path, Severity: SeverityError, Timestamp: nowUnix()})
}

func nowUnix() int64 {
	// Validation results are not required to be deterministic in time; real
	// wall-clock is acceptable here as it is metadata, not business state.
	return timeNowUnix()
}

var timeNowUnix = func() int64 { return time.Now().Unix() }

func validateNode(schema *Schema, instance interface{}, path string, opts *Options, depth int, result *ValidationResult) bool {
	if depth > opts.MaxDepth {
		terminal(result, path, "MAX_DEPTH_EXCEEDED", fmt.Sprintf("schema traversal exceeded max depth %d", opts.MaxDepth))
		return false
	}
	if len(result.findings) >= opts.MaxErrors {
		return false
	}
	if schema == nil {
		return true
	}
	if schema.Ref != "" {
		resolved := resolveRef(schema.Ref, opts.definitions)
		if resolved == nil {
			terminal(result, path, "UNRESOLVED_REF", fmt.Sprintf("cannot resolve %s", schema.Ref))
			return false
		}
		return validateNode(resolved, instance, path, opts, depth+1, result)
	}

	ok := true
	if schema.Type != "" {
		if !checkType(schema.Type, instance) {
			addErr(result, opts, path, "invalid_type", fmt.Sprintf("expected type %s", schema.Type))
			ok = false
		}
	}
	if schema.HasConst {
		if !deepEqualJSON(schema.Const, instance) {
			addErr(result, opts, path, "const_mismatch", "value does not match const")
			ok = false
		}
	}
	if len(schema.Enum) > 0 {
		found := false
		for _, e := range schema.Enum {
			if deepEqualJSON(e, instance) {
				found = true
				break
			}
		}
		if !found {
			addErr(result, opts, path, "enum_mismatch", "value not in enum")
			ok = false
		}
	}
	if schema.Format != "" {
		if s, isStr := instance.(string); isStr && !checkFormat(schema.Format, s) {
			addErr(result, opts, path, "invalid_format", fmt.Sprintf("value does not match format %s", schema.Format))
			ok = false
		}
	}

	switch v := instance.(type) {
	case string:
		if schema.Pattern != "" {
			re, err := regexp.Compile(schema.Pattern)
			if err == nil && !re.MatchString(v) {
				addErr(result, opts, path, "pattern_mismatch", fmt.Sprintf("value does not match pattern %s", schema.Pattern))
				ok = false
			}
		}
		if schema.MinLength != nil && len(v) < *schema.MinLength {
			addErr(result, opts, path, "min_length", fmt.Sprintf("length below minimum %d", *schema.MinLength))
			ok = false
		}
		if schema.MaxLength != nil && len(v) > *schema.MaxLength {
			addErr(result, opts, path, "max_length", fmt.Sprintf("length above maximum %d", *schema.MaxLength))
			ok = false
		}
	case float64:
		if schema.Minimum != nil && v < *schema.Minimum {
			addErr(result, opts, path, "minimum", fmt.Sprintf("value below minimum %v", *schema.Minimum))
			ok = false
		}
		if schema.Maximum != nil && v > *schema.Maximum {
			addErr(result, opts, path, "maximum", fmt.Sprintf("value above maximum %v", *schema.Maximum))
			ok = false
		}
	case []interface{}:
		if schema.MinItems != nil && len(v) < *schema.MinItems {
			addErr(result, opts, path, "min_items", fmt.Sprintf("array has fewer than %d items", *schema.MinItems))
			ok = false
		}
		if schema.MaxItems != nil && len(v) > *schema.MaxItems {
			addErr(result, opts, path, "max_items", fmt.Sprintf("array has more than %d items", *schema.MaxItems))
			ok = false
		}
		if schema.Items != nil {
			for i, el := range v {
				if len(result.findings) >= opts.MaxErrors {
					break
				}
				if !validateNode(schema.Items, el, fmt.Sprintf("%s[%d]", path, i), opts, depth+1, result) {
					ok = false
				}
			}
		}
	case map[string]interface{}:
		for _, req := range schema.Required {
			if _, present := v[req]; !present {
				addErr(result, opts, path, "required", fmt.Sprintf("missing required property %q", req))
				ok = false
			}
		}
		for key, propSchema := range schema.Properties {
			if val, present := v[key]; present {
				if !validateNode(propSchema, val, path+"."+key, opts, depth+1, result) {
					ok = false
				}
			}
		}
		if schema.AdditionalPropertiesFalse {
			for key := range v {
				if _, declared := schema.Properties[key]; !declared {
					addErr(result, opts, path+"."+key, "additional_property", "additional property not allowed")
					ok = false
				}
			}
		}
	}

	for _, sub := range schema.AllOf {
		if !validateNode(sub, instance, path, opts, depth+1, result) {
			ok = false
		}
	}
	if len(schema.AnyOf) > 0 {
		anyOK := false
		for _, sub := range schema.AnyOf {
			scratch := NewResult()
			if validateNode(sub, instance, path, opts, depth+1, scratch) {
				anyOK = true
				break
			}
		}
		if !anyOK {
			addErr(result, opts, path, "any_of", "value did not match any of the anyOf schemas")
			ok = false
		}
	}
	if len(schema.OneOf) > 0 {
		matches := 0
		for _, sub := range schema.OneOf {
			scratch := NewResult()
			if validateNode(sub, instance, path, opts, depth+1, scratch) {
				matches++
			}
		}
		if matches != 1 {
			addErr(result, opts, path, "one_of", fmt.Sprintf("value matched %d of the oneOf schemas, expected exactly 1", matches))
			ok = false
		}
	}
	if schema.Not != nil {
		scratch := NewResult()
		if validateNode(schema.Not, instance, path, opts, depth+1, scratch) {
			addErr(result, opts, path, "not", "value matched the not schema")
			ok = false
		}
	}
	return ok
}

func addErr(result *ValidationResult, opts *Options, path, code, msg string) {
	if len(result.findings) >= opts.MaxErrors {
		return
	}
	result.Add(ValidationError{Code: code, Message: msg, Path: path, Severity: SeverityError, Timestamp: nowUnix()})
	if len(result.findings) >= opts.MaxErrors {
		result.Add(ValidationError{Code: "MAX_ERRORS_EXCEEDED", Message: fmt.Sprintf("stopped after %d errors", opts.MaxErrors), Path: path, Severity: SeverityError, Timestamp: nowUnix()})
	}
}

func checkType(typ string, instance interface{}) bool {
	switch typ {
	case "null":
		return instance == nil
	case "bool", "boolean":
		_, ok := instance.(bool)
		return ok
	case "number":
		_, ok := instance.(float64)
		return ok
	case "integer":
		f, ok := instance.(float64)
		return ok && f == float64(int64(f))
	case "string":
		_, ok := instance.(string)
		return ok
	case "array":
		_, ok := instance.([]interface{})
		return ok
	case "object":
		_, ok := instance.(map[string]interface{})
		return ok
	default:
		return true
	}
}

func checkFormat(format, s string) bool {
	switch format {
	case "date-time":
		_, err := time.Parse(time.RFC3339, s)
		return err == nil
	case "email":
		_, err := mail.ParseAddress(s)
		return err == nil
	case "hostname":
		return len(s) > 0 && len(s) <= 253 && hostnamePattern.MatchString(s)
	case "ipv4":
		ip := net.ParseIP(s)
		return ip != nil && ip.To4() != nil
	case "ipv6":
		ip := net.ParseIP(s)
		return ip != nil && ip.To4() == nil
	case "uri":
		u, err := url.Parse(s)
		return err == nil && u.Scheme != ""
	case "uuid":
		_, err := uuid.Parse(s)
		return err == nil
	default:
		return true
	}
}

var hostnamePattern = regexp.MustCompile(`^[a-zA-Z0-9]([a-zA-Z0-9\-]{0,61}[a-zA-Z0-9])?(\.[a-zA-Z0-9]([a-zA-Z0-9\-]{0,61}[a-zA-Z0-9])?)*$`)

func resolveRef(ref string, definitions map[string]*Schema) *Schema {
	if definitions == nil {
		return nil
	}
	const prefix = "#/definitions/"
	if strings.HasPrefix(ref, prefix) {
		return definitions[strings.TrimPrefix(ref, prefix)]
	}
	// fall back to a generic JSON-pointer walk for non-definitions refs,
	// matching against a synthetic document of the definitions map. The ref
	// is parsed as a JSON reference first so a non-fragment (external
	// document) ref is rejected outright rather than mis-resolved locally.
	jsonRef, err := gojsonreference.NewJsonReference(ref)
	if err != nil || !jsonRef.HasFragmentOnly {
		return nil
	}
	doc := map[string]interface{}{"definitions": definitions}
	ptr, err := gojsonpointer.NewJsonPointer(strings.TrimPrefix(ref, "#"))
	if err != nil {
		return nil
	}
	node, _, err := ptr.Get(doc)
	if err != nil {
		return nil
	}
	s, _ := node.(*Schema)
	return s
}

func deepEqualJSON(a, b interface{}) bool {
	return reflect.DeepEqual(a, b)
}
