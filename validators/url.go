package validators

import (
	"net/url"
	"strings"

	"golang.org/x/net/publicsuffix"

	"github.com/MrtnvM/render-engine/validation"
)

// URLConfig restricts acceptable protocols/domains for the URL validator.
type URLConfig struct {
	AllowedProtocols []string
	RequireHTTPS     bool
	BlockedDomains   []string
	ImageExtensions  []string
	ImageDomains     []string // allow-list; empty means any domain is acceptable for images
}

// DefaultURLConfig restricts to http/https.
func DefaultURLConfig() URLConfig {
	return URLConfig{
		AllowedProtocols: []string{"http", "https"},
		ImageExtensions:  []string{".png", ".jpg", ".jpeg", ".gif", ".webp", ".svg"},
	}
}

// URLValidator validates a URL string against protocol/HTTPS/domain rules.
type URLValidator struct {
	cfg URLConfig
}

func NewURLValidator(cfg URLConfig) *URLValidator { return &URLValidator{cfg: cfg} }

func (*URLValidator) Name() string { return "url" }

func (v *URLValidator) Validate(input interface{}) *validation.ValidationResult {
	s, ok := input.(string)
	if !ok {
		return validation.Failure(validation.ValidationError{
			Code: "INVALID_TYPE", Message: "url validator requires a string", Severity: validation.SeverityError,
		})
	}
	result := validation.NewResult()
	u, err := url.Parse(s)
	if err != nil {
		result.Add(validation.ValidationError{Code: "INVALID_URL", Message: "value does not parse as a url", Severity: validation.SeverityError})
		return result
	}
	if !contains(v.cfg.AllowedProtocols, u.Scheme) {
		result.Add(validation.ValidationError{Code: "PROTOCOL_NOT_ALLOWED", Message: "scheme " + u.Scheme + " is not allowed", Severity: validation.SeverityError})
	}
	if v.cfg.RequireHTTPS && u.Scheme != "https" {
		result.Add(validation.ValidationError{Code: "HTTPS_REQUIRED", Message: "url must use https", Severity: validation.SeverityError})
	}
	host := u.Hostname()
	for _, blocked := range v.cfg.BlockedDomains {
		if domainBlocked(host, blocked) {
			result.Add(validation.ValidationError{Code: "DOMAIN_BLOCKED", Message: "domain " + host + " is blocked", Severity: validation.SeverityError})
		}
	}
	return result
}

// domainBlocked reports whether host falls under blocked, comparing
// registrable domains (effective TLD + 1) via publicsuffix so that
// "evil.test" blocks every subdomain of evil.test regardless of how many
// labels sit below the registrable boundary. Any host not matched that way
// (including hosts publicsuffix cannot parse, such as IP literals) is still
// blocked when it ends in "." + blocked.
func domainBlocked(host, blocked string) bool {
	if host == blocked {
		return true
	}
	if etld1, err := publicsuffix.EffectiveTLDPlusOne(host); err == nil && etld1 == blocked {
		return true
	}
	return strings.HasSuffix(host, "."+blocked)
}

// ValidateImageURL additionally requires an allow-listed image extension
// and, if configured, an allow-listed domain.
func (v *URLValidator) ValidateImageURL(input interface{}) *validation.ValidationResult {
	result := v.Validate(input)
	s := input.(string)
	lower := strings.ToLower(s)
	hasExt := false
	for _, ext := range v.cfg.ImageExtensions {
		if strings.HasSuffix(lower, ext) {
			hasExt = true
			break
		}
	}
	if !hasExt {
		result.Add(validation.ValidationError{Code: "IMAGE_EXTENSION_NOT_ALLOWED", Message: "url does not have an allowed image extension", Severity: validation.SeverityError})
	}
	if len(v.cfg.ImageDomains) > 0 {
		u, err := url.Parse(s)
		if err != nil || !contains(v.cfg.ImageDomains, u.Hostname()) {
			result.Add(validation.ValidationError{Code: "IMAGE_DOMAIN_NOT_ALLOWED", Message: "image domain is not allow-listed", Severity: validation.SeverityError})
		}
	}
	return result
}

func contains(haystack []string, needle string) bool {
	for _, s := range haystack {
		if s == needle {
			return true
		}
	}
	return false
}
