// Package sanitize redacts credential material from strings before they
// are logged. Every error message built from a caught remote failure must
// pass through Message (or Error) before being written anywhere.
package sanitize

import (
	"fmt"
	"regexp"
)

// Redacted replaces the value portion of a matched credential pattern.
const Redacted = "***REDACTED***"

// sensitivePatterns pair a compiled pattern with its replacement. The first
// capture group preserves the key so logs stay diagnosable; only the value
// is redacted.
var sensitivePatterns = []struct {
	re   *regexp.Regexp
	repl string
}{
	{regexp.MustCompile(`(?i)(password["']?\s*[:=]\s*["']?)([^"'\s]+)`), "$1" + Redacted},
	{regexp.MustCompile(`(?i)(client_secret["']?\s*[:=]\s*["']?)([^"'\s]+)`), "$1" + Redacted},
	{regexp.MustCompile(`(?i)(api_key["']?\s*[:=]\s*["']?)([^"'\s]+)`), "$1" + Redacted},
	{regexp.MustCompile(`(?i)(token["']?\s*[:=]\s*["']?)([^"'\s]+)`), "$1" + Redacted},
	{regexp.MustCompile(`(?i)(secret["']?\s*[:=]\s*["']?)([^"'\s]+)`), "$1" + Redacted},
	{regexp.MustCompile(`(?i)(pat["']?\s*[:=]\s*["']?)([^"'\s]+)`), "$1" + Redacted},
	{regexp.MustCompile(`(?i)(bearer\s+)([a-zA-Z0-9\-._~+/]+=*)`), "$1" + Redacted},
	{regexp.MustCompile(`(?i)(authorization["']?\s*[:=]\s*["']?)([^"'\s]+)`), "$1" + Redacted},
}

// Message redacts credential-looking substrings from a log message.
func Message(message string) string {
	if message == "" {
		return message
	}
	out := message
	for _, p := range sensitivePatterns {
		out = p.re.ReplaceAllString(out, p.repl)
	}
	return out
}

// Error returns the sanitized text of err. A nil error yields "".
func Error(err error) string {
	if err == nil {
		return ""
	}
	return Message(err.Error())
}

// SafeError builds a loggable message from err with optional context,
// e.g. "refreshing token: *url.Error: ...".
func SafeError(err error, context string) string {
	if err == nil {
		return context
	}
	msg := fmt.Sprintf("%T: %s", err, Error(err))
	if context == "" {
		return msg
	}
	return context + ": " + msg
}
