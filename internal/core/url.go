package core

import (
	"regexp"
	"strings"
)

var schemePrefix = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9+.\-]*://`)

// NormalizeURL maps a catalog URL to the form submitted to the backend.
// Surrounding whitespace is stripped first, and blank values are absent (nil).
// Values without a scheme are coerced to https; values that already carry a
// scheme are otherwise returned unchanged.
func NormalizeURL(raw string) *string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil
	}
	if HasScheme(trimmed) {
		return &trimmed
	}
	var normalized string
	if strings.HasPrefix(trimmed, "//") {
		normalized = "https:" + trimmed
	} else {
		normalized = "https://" + trimmed
	}
	return &normalized
}

func HasScheme(value string) bool {
	if schemePrefix.MatchString(value) {
		return true
	}
	return strings.HasPrefix(strings.ToLower(value), "mailto:")
}
