package validators

import (
	"testing"

	"github.com/MrtnvM/render-engine/validation"
)

func TestSecurityValidatorBlocksXSS(t *testing.T) {
	v := NewSecurityValidator(DefaultSecurityConfig())
	res := v.Validate(map[string]interface{}{"bio": "<script>alert(1)</script>"})
	if res.IsValid() {
		t.Fatalf("expected script tag to be flagged as a security threat")
	}
}

func TestSecurityValidatorFlagsSQLiAsWarningOnly(t *testing.T) {
	v := NewSecurityValidator(DefaultSecurityConfig())
	res := v.Validate("' or '1'='1")
	if !res.IsValid() {
		t.Fatalf("expected SQLi pattern to be a warning, not an error that fails IsValid")
	}
	if len(res.Warnings()) == 0 {
		t.Fatalf("expected at least one warning-severity finding for a SQLi-shaped string")
	}
}

func TestSecurityValidatorPathTraversal(t *testing.T) {
	v := NewSecurityValidator(DefaultSecurityConfig())
	res := v.Validate("../../etc/passwd")
	if res.IsValid() {
		t.Fatalf("expected path traversal sequence to be invalid")
	}
}

func TestSecurityValidatorRecursesIntoNestedPaths(t *testing.T) {
	v := NewSecurityValidator(DefaultSecurityConfig())
	res := v.Validate(map[string]interface{}{
		"items": []interface{}{
			map[string]interface{}{"label": "<iframe src=x>"},
		},
	})
	if res.IsValid() {
		t.Fatalf("expected nested array/object walk to find the xss pattern")
	}
	if res.Errors()[0].Path != "$.items[0].label" {
		t.Fatalf("expected path $.items[0].label, got %q", res.Errors()[0].Path)
	}
}

func TestSanitizeStripsScriptsAndHandlers(t *testing.T) {
	out := Sanitize(`<script>bad()</script><div onclick="x()">hi</div>`)
	if out != "hi" {
		t.Fatalf("expected Sanitize to strip tags/handlers, got %q", out)
	}
}

func TestURLValidatorProtocolAndHTTPS(t *testing.T) {
	v := NewURLValidator(URLConfig{AllowedProtocols: []string{"https"}, RequireHTTPS: true})
	if res := v.Validate("http://example.test"); res.IsValid() {
		t.Fatalf("expected http scheme rejected when only https is allowed")
	}
	if res := v.Validate("https://example.test"); !res.IsValid() {
		t.Fatalf("expected https url to validate")
	}
}

func TestURLValidatorBlockedDomain(t *testing.T) {
	v := NewURLValidator(URLConfig{AllowedProtocols: []string{"https"}, BlockedDomains: []string{"evil.test"}})
	if res := v.Validate("https://sub.evil.test/path"); res.IsValid() {
		t.Fatalf("expected a subdomain of a blocked domain to be rejected")
	}
}

func TestURLValidatorImageExtensionAndDomain(t *testing.T) {
	v := NewURLValidator(URLConfig{
		AllowedProtocols: []string{"https"},
		ImageExtensions:  []string{".png"},
		ImageDomains:     []string{"cdn.test"},
	})
	if res := v.ValidateImageURL("https://cdn.test/a.png"); !res.IsValid() {
		t.Fatalf("expected allow-listed extension+domain to validate: %+v", res.Errors())
	}
	if res := v.ValidateImageURL("https://other.test/a.png"); res.IsValid() {
		t.Fatalf("expected a non-allow-listed image domain to be rejected")
	}
	if res := v.ValidateImageURL("https://cdn.test/a.txt"); res.IsValid() {
		t.Fatalf("expected a disallowed extension to be rejected")
	}
}

func TestColorValidator(t *testing.T) {
	v := NewColorValidator()
	if res := v.Validate("#aabbcc"); !res.IsValid() {
		t.Fatalf("expected shaped color to validate")
	}
	if res := v.Validate("not-a-color"); res.IsValid() {
		t.Fatalf("expected unshaped string to fail")
	}
}

func TestComponentTypeValidator(t *testing.T) {
	v := NewComponentTypeValidator([]string{"button", "text"})
	if res := v.Validate("button"); !res.IsValid() {
		t.Fatalf("expected allow-listed type to validate")
	}
	if res := v.Validate("unknown-widget"); res.IsValid() {
		t.Fatalf("expected unregistered type to fail")
	}
}

func TestBusinessRuleValidatorRunsAllRules(t *testing.T) {
	rules := []BusinessRule{
		{Name: "NONEMPTY", Check: func(in interface{}) bool { return in.(string) != "" }, Message: "must not be empty", Severity: validation.SeverityError},
		{Name: "SHORT", Check: func(in interface{}) bool { return len(in.(string)) <= 3 }, Message: "must be short", Severity: validation.SeverityWarning},
	}
	v := NewBusinessRuleValidator("length-rules", rules)
	res := v.Validate("abcdef")
	if res.IsValid() != true {
		t.Fatalf("expected only a warning-severity violation, which keeps IsValid true")
	}
	if len(res.Warnings()) != 1 {
		t.Fatalf("expected exactly one warning, got %+v", res.Warnings())
	}
}

func TestRegistryRegisterAndValidate(t *testing.T) {
	r := NewDefaultRegistry([]string{"button"})
	res, err := r.Validate("component-type", "button")
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if !res.IsValid() {
		t.Fatalf("expected allow-listed component type to validate")
	}
	if _, err := r.Validate("does-not-exist", "x"); err == nil {
		t.Fatalf("expected an error for an unregistered validator name")
	}
}
