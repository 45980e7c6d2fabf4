// Package shared provides helpers used by several adapters.
package shared

import (
	"fmt"
	"strings"
)

// HTTPStatusError creates a formatted error for non-2xx HTTP responses.
func HTTPStatusError(status int, url string) error {
	return fmt.Errorf("status=%d url=%s", status, url)
}

// HTTPStatusErrorWithBody creates a formatted error that includes the
// response body for non-2xx HTTP responses.
func HTTPStatusErrorWithBody(status int, url string, body string) error {
	return fmt.Errorf("status=%d url=%s response=%s", status, url, body)
}

// TruncateBody shortens a response body for inclusion in error messages.
func TruncateBody(body []byte, limit int) string {
	message := strings.TrimSpace(string(body))
	if limit <= 0 || len(message) <= limit {
		return message
	}
	return message[:limit] + "..."
}

// IsSuccessStatus reports whether status is 2xx.
func IsSuccessStatus(status int) bool {
	return status >= 200 && status < 300
}
