package validators

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/MrtnvM/render-engine/validation"
)

// SecurityConfig bounds the security validator's checks.
type SecurityConfig struct {
	MaxStringLength int
	MaxArrayLength  int
	MaxObjectDepth  int
}

// DefaultSecurityConfig returns conservative defaults.
func DefaultSecurityConfig() SecurityConfig {
	return SecurityConfig{MaxStringLength: 10000, MaxArrayLength: 1000, MaxObjectDepth: 20}
}

var (
	xssPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)<script[\s>]`),
		regexp.MustCompile(`(?i)<iframe[\s>]`),
		regexp.MustCompile(`(?i)javascript:`),
		regexp.MustCompile(`(?i)\bon[a-z]+\s*=`),
	}
	sqliPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\bunion\s+select\b`),
		regexp.MustCompile(`(?i)\bor\s+1\s*=\s*1\b`),
		regexp.MustCompile(`(?i)--\s*$`),
		regexp.MustCompile(`(?i);\s*drop\s+table\b`),
		regexp.MustCompile(`'\s*or\s*'`),
	}
	pathTraversalPatterns = []*regexp.Regexp{
		regexp.MustCompile(`\.\.(/|\\)`),
		regexp.MustCompile(`(?i)%2e%2e`),
	}
)

// SecurityValidator blocks XSS/path-traversal and flags SQL-injection
// substrings as warnings (spec §4.7, preserved per the source's
// error-vs-warning split for SQLi).
type SecurityValidator struct {
	cfg SecurityConfig
}

// NewSecurityValidator returns a SecurityValidator configured with cfg.
func NewSecurityValidator(cfg SecurityConfig) *SecurityValidator {
	return &SecurityValidator{cfg: cfg}
}

func (*SecurityValidator) Name() string { return "security" }

// Validate accepts a map[string]interface{} (a decoded component/props
// tree) and walks it depth-first, checking every string leaf.
func (v *SecurityValidator) Validate(input interface{}) *validation.ValidationResult {
	result := validation.NewResult()
	v.walk(input, "$", 0, result)
	return result
}

func (v *SecurityValidator) walk(node interface{}, path string, depth int, result *validation.ValidationResult) {
	if depth > v.cfg.MaxObjectDepth {
		result.Add(validation.ValidationError{
			Code: "SECURITY_VIOLATION", Message: "object depth exceeds limit", Path: path, Severity: validation.SeverityError,
		})
		return
	}
	switch t := node.(type) {
	case string:
		v.checkString(t, path, result)
	case []interface{}:
		if len(t) > v.cfg.MaxArrayLength {
			result.Add(validation.ValidationError{
				Code: "SECURITY_VIOLATION", Message: "array length exceeds limit", Path: path, Severity: validation.SeverityError,
			})
		}
		for i, el := range t {
			v.walk(el, fmt.Sprintf("%s[%d]", path, i), depth+1, result)
		}
	case map[string]interface{}:
		for k, val := range t {
			v.walk(val, path+"."+k, depth+1, result)
		}
	}
}

func (v *SecurityValidator) checkString(s, path string, result *validation.ValidationResult) {
	if len(s) > v.cfg.MaxStringLength {
		result.Add(validation.ValidationError{
			Code: "SECURITY_VIOLATION", Message: "string length exceeds limit", Path: path, Severity: validation.SeverityError,
		})
	}
	for _, re := range xssPatterns {
		if re.MatchString(s) {
			result.Add(validation.ValidationError{
				Code:     "SECURITY_THREAT",
				Message:  "value contains a disallowed script/handler pattern",
				Path:     path,
				Severity: validation.SeverityError,
				Details:  map[string]interface{}{"pattern": re.String()},
			})
		}
	}
	for _, re := range pathTraversalPatterns {
		if re.MatchString(s) {
			result.Add(validation.ValidationError{
				Code:     "SECURITY_VIOLATION",
				Message:  "value contains a path traversal sequence",
				Path:     path,
				Severity: validation.SeverityError,
			})
		}
	}
	for _, re := range sqliPatterns {
		if re.MatchString(s) {
			result.Add(validation.ValidationError{
				Code:     "SECURITY_THREAT",
				Message:  "value resembles a SQL injection payload",
				Path:     path,
				Severity: validation.SeverityWarning,
			})
		}
	}
}

// Sanitize strips HTML tags, "javascript:" schemes and "on*=" attributes
// from s. It is applied only when the caller configures input sanitization;
// the validator above never mutates, only reports.
func Sanitize(s string) string {
	out := s
	out = regexp.MustCompile(`(?i)<script[^>]*>.*?</script>`).ReplaceAllString(out, "")
	out = regexp.MustCompile(`(?i)<[^>]+>`).ReplaceAllString(out, "")
	out = regexp.MustCompile(`(?i)javascript:`).ReplaceAllString(out, "")
	out = regexp.MustCompile(`(?i)\bon[a-z]+\s*=\s*("[^"]*"|'[^']*'|[^\s>]*)`).ReplaceAllString(out, "")
	return strings.TrimSpace(out)
}
