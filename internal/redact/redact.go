// Package redact removes sensitive information from strings and request data
// before they reach logs or error responses: credentials, connection strings,
// tokens, and emails, plus well-known sensitive body/query keys.
package redact

import (
	"regexp"
	"strings"
)

// Placeholder values substituted for redacted content.
const (
	Placeholder           = "[REDACTED]"
	CredentialPlaceholder = "[REDACTED_CREDENTIAL]"
	KeyPlaceholder        = "[REDACTED_KEY]"
	EmailPlaceholder      = "[REDACTED_EMAIL]"
	JWTPlaceholder        = "[REDACTED_JWT]"
)

// Precompiled patterns for sensitive content embedded in free text.
var (
	dbConnRegex   = regexp.MustCompile(`(?i)(postgres|postgresql|mysql|redis)://[^@\s]+@`)
	passwordRegex = regexp.MustCompile(`(?i)(password|passwd|pwd)([=:\s]['"]?)[^'"&\s]{3,}`)
	apiKeyRegex   = regexp.MustCompile(`(?i)(api[_-]?key|token|secret|auth)(['"\s:=]+)[A-Za-z0-9_\-.~+/]{8,}`)
	jwtRegex      = regexp.MustCompile(`eyJ[a-zA-Z0-9_-]+\.eyJ[a-zA-Z0-9_-]+\.[a-zA-Z0-9_-]+`)
	emailRegex    = regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)
)

var patternPlaceholders = []struct {
	pattern     *regexp.Regexp
	placeholder string
}{
	{dbConnRegex, CredentialPlaceholder},
	{passwordRegex, CredentialPlaceholder},
	{apiKeyRegex, KeyPlaceholder},
	{jwtRegex, JWTPlaceholder},
	{emailRegex, EmailPlaceholder},
}

// sensitiveKeys are request body/query keys whose values are always redacted
// when sanitizing request data for error context.
var sensitiveKeys = map[string]struct{}{
	"password":         {},
	"currentpassword":  {},
	"newpassword":      {},
	"password_confirm": {},
	"token":            {},
	"refresh_token":    {},
	"refreshtoken":     {},
	"secret":           {},
	"api_key":          {},
	"apikey":           {},
	"authorization":    {},
}

// String redacts sensitive fragments from free text.
func String(input string) string {
	if input == "" {
		return input
	}
	result := input
	for _, pp := range patternPlaceholders {
		result = pp.pattern.ReplaceAllString(result, pp.placeholder)
	}
	return result
}

// Error redacts sensitive fragments from an error's Error() output.
func Error(err error) string {
	if err == nil {
		return ""
	}
	return String(err.Error())
}

// Map returns a sanitized copy of request data for inclusion in error
// context: sensitive keys are replaced wholesale, string values are run
// through String, and nested maps are sanitized recursively.
func Map(data map[string]any) map[string]any {
	if data == nil {
		return nil
	}
	out := make(map[string]any, len(data))
	for key, value := range data {
		if _, sensitive := sensitiveKeys[strings.ToLower(key)]; sensitive {
			out[key] = Placeholder
			continue
		}
		switch v := value.(type) {
		case string:
			out[key] = String(v)
		case map[string]any:
			out[key] = Map(v)
		default:
			out[key] = v
		}
	}
	return out
}
