package logging

import "regexp"

// RedactedText is the replacement text for sensitive data
const RedactedText = "[REDACTED]"

// Pattern to match connection string credentials (user:pass@host format)
var connStringPattern = regexp.MustCompile(`://[^:/]+:[^@]+@`)

// SanitizeConnectionString removes credentials from a connection string.
// Use this before logging any connection string.
func SanitizeConnectionString(connStr string) string {
	if connStr == "" {
		return ""
	}
	return connStringPattern.ReplaceAllString(connStr, "://"+RedactedText+"@")
}
