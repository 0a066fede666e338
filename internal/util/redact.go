package util

import (
	"regexp"
	"strings"
)

var (
	// Matches "Bearer <token>" (JWTs and opaque tokens).
	bearerTokenRe = regexp.MustCompile(`(?i)\bBearer\s+[^\s"']+`)

	// Common key=value formats that sometimes leak in error strings.
	apiKeyKVRe = regexp.MustCompile(`(?i)\b(api[_-]?key|gemini[_-]?api[_-]?key|x-goog-api-key)\b\s*[:=]\s*[^\s"'&]+`)

	// Query-string keys, as they appear in request URLs quoted by HTTP errors.
	urlKeyParamRe = regexp.MustCompile(`([?&])key=[^\s"'&]+`)

	// Google API keys have a fixed "AIza" prefix and 35 trailing characters.
	googleAPIKeyRe = regexp.MustCompile(`AIza[0-9A-Za-z_\-]{35}`)

	// Redis URLs carry the password in the userinfo section.
	urlPasswordRe = regexp.MustCompile(`(redis[s]?://[^:/\s]*:)[^@\s]+@`)
)

// RedactSecrets removes obvious secret-bearing substrings from error/log strings.
//
// It is safe to call on any message, including upstream error strings that echo
// the request URL.
func RedactSecrets(s string) string {
	if s == "" {
		return ""
	}
	out := s
	out = bearerTokenRe.ReplaceAllString(out, "Bearer <redacted>")
	out = apiKeyKVRe.ReplaceAllString(out, "<redacted_kv>")
	out = urlKeyParamRe.ReplaceAllString(out, "${1}key=<redacted>")
	out = googleAPIKeyRe.ReplaceAllString(out, "<redacted_key>")
	out = urlPasswordRe.ReplaceAllString(out, "${1}<redacted>@")
	return strings.TrimSpace(out)
}
