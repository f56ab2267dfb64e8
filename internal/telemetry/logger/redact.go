package logger

import (
	"regexp"
	"strings"
)

// Sensitive key patterns that should be redacted.
var sensitiveKeyPatterns = []string{
	"password",
	"secret",
	"token",
	"credential",
	"auth",
	"bearer",
}

// redactedValue is the placeholder for redacted sensitive data.
const redactedValue = "***REDACTED***"

var (
	// botTokenPattern matches a Telegram bot credential ("<id>:<secret>").
	botTokenPattern = regexp.MustCompile(`(\d{5,}):([A-Za-z0-9_-]{30,})`)

	// uriPasswordPattern matches the password part of a connection URI.
	uriPasswordPattern = regexp.MustCompile(`(://[^:/@\s]+:)([^@\s]+)(@)`)

	// hexTokenPattern matches a verification token value.
	hexTokenPattern = regexp.MustCompile(`^[0-9a-f]{32}$`)
)

// redact masks value when either the key or the value looks sensitive.
func redact(key, value string) string {
	if value == "" {
		return value
	}
	if IsSensitiveKey(key) {
		if hexTokenPattern.MatchString(value) {
			return maskValue(value)
		}
		return redactedValue
	}
	return RedactString(value)
}

// maskValue keeps the first and last 3 characters of value.
func maskValue(value string) string {
	if len(value) <= 8 {
		return "***"
	}
	return value[:3] + "..." + value[len(value)-3:]
}

// RedactString masks bot credentials and URI passwords embedded in value.
// Use this when you need to redact a value before logging.
func RedactString(value string) string {
	value = botTokenPattern.ReplaceAllString(value, "$1:"+redactedValue)
	value = uriPasswordPattern.ReplaceAllString(value, "${1}"+redactedValue+"${3}")
	return value
}

// IsSensitiveKey checks if a key name suggests sensitive content.
func IsSensitiveKey(key string) bool {
	keyLower := strings.ToLower(key)
	for _, pattern := range sensitiveKeyPatterns {
		if strings.Contains(keyLower, pattern) {
			return true
		}
	}
	return false
}

// IsSensitiveValue checks if a value embeds a credential.
func IsSensitiveValue(value string) bool {
	return botTokenPattern.MatchString(value) || uriPasswordPattern.MatchString(value)
}
