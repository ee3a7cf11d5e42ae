package logger

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	// MaxPathLength caps URL paths in log fields.
	MaxPathLength = 500
	// MaxErrorMessageLength caps error strings in log fields.
	MaxErrorMessageLength = 1000
	// MaxPreviewLength caps transcript and completion previews emitted in
	// debug mode.
	MaxPreviewLength = 10000
)

// SanitizePath strips control characters from a URL path and truncates it,
// so request paths cannot inject log lines.
func SanitizePath(path string) string {
	return truncate(filterRunes(path), MaxPathLength)
}

// SanitizeError renders an error safely for logging.
func SanitizeError(err error) string {
	if err == nil {
		return ""
	}
	return truncate(filterRunes(err.Error()), MaxErrorMessageLength)
}

// SanitizePreview prepares LLM prompt/response content for debug logging.
func SanitizePreview(content string) string {
	return truncate(filterRunes(content), MaxPreviewLength)
}

func filterRunes(s string) string {
	if s == "" {
		return s
	}
	if !utf8.ValidString(s) {
		s = strings.ToValidUTF8(s, "")
	}
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsPrint(r) || r == ' ' || r == '\t' || r == '\n' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func truncate(s string, max int) string {
	if len(s) > max {
		return s[:max] + "..."
	}
	return s
}
