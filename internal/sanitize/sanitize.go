// Package sanitize makes arbitrary free text safe for database storage.
//
// Text fetched from external services (PDF extraction in particular) can
// contain NUL bytes and broken encodings that PostgreSQL rejects. Every
// free-text field the pipeline persists is passed through Text first.
package sanitize

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Text returns a copy of s that is safe to persist: NUL bytes are removed
// and invalid UTF-8 sequences (including lone surrogate encodings) are
// dropped. If the result is somehow still not valid UTF-8, only printable
// characters are kept.
//
// Text is total (never fails for any input) and idempotent:
// Text(Text(s)) == Text(s).
func Text(s string) string {
	if s == "" {
		return s
	}

	s = strings.ReplaceAll(s, "\x00", "")

	if !utf8.ValidString(s) {
		s = strings.ToValidUTF8(s, "")
	}

	if utf8.ValidString(s) {
		return s
	}

	// Last-resort fallback: keep only printable characters.
	var sb strings.Builder
	sb.Grow(len(s))
	for _, r := range s {
		if r != utf8.RuneError && unicode.IsPrint(r) {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

// TextPtr sanitizes through a nullable pointer, preserving nil.
func TextPtr(s *string) *string {
	if s == nil {
		return nil
	}
	clean := Text(*s)
	return &clean
}
