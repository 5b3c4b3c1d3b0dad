package domain

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Field limits shared with the OpenAPI document.
const (
	MaxNameLength        = 200
	MaxEmailLength       = 320
	MaxPhoneLength       = 50
	MaxMessageLength     = 5000
	MaxTitleLength       = 200
	MaxDescriptionLength = 5000
)

// Sanitize trims s, rejects it when it is longer than limit bytes or not valid UTF-8,
// and strips control characters other than newline, tab and carriage return.
func Sanitize(field, s string, limit int) (string, error) {
	s = strings.TrimSpace(s)
	if limit > 0 && len(s) > limit {
		return "", fmt.Errorf("%w: %s exceeds %d bytes", ErrInvalidInput, field, limit)
	}
	if !utf8.ValidString(s) {
		return "", fmt.Errorf("%w: %s is not valid UTF-8", ErrInvalidInput, field)
	}

	if strings.IndexFunc(s, isUnsafeControl) < 0 {
		return s, nil
	}
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if !isUnsafeControl(r) {
			b.WriteRune(r)
		}
	}
	return b.String(), nil
}

func isUnsafeControl(r rune) bool {
	return unicode.IsControl(r) && r != '\n' && r != '\t' && r != '\r'
}
