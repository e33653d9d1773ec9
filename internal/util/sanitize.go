package util

import (
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"unicode"

	"go-admin-console/pkg/apierror"
)

var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9._-]{3,64}$`)

// SanitizeText trims value, drops control and invisible characters and
// enforces maxLen in runes. A maxLen of zero means unlimited.
func SanitizeText(field string, value string, maxLen int) (string, error) {
	if strings.Contains(value, "\x00") {
		return "", apierror.New("INVALID_FIELD", fmt.Sprintf("%s contains null bytes", field), field, http.StatusBadRequest)
	}

	builder := strings.Builder{}
	builder.Grow(len(value))

	for _, char := range value {
		if (unicode.IsControl(char) && char != '\n' && char != '\t') || isInvisibleUnicode(char) {
			continue
		}

		builder.WriteRune(char)
	}

	cleaned := strings.TrimSpace(builder.String())

	// Count runes (not bytes) so multi-byte characters are not penalized.
	if maxLen > 0 && len([]rune(cleaned)) > maxLen {
		return "", apierror.New("INVALID_FIELD", fmt.Sprintf("%s must be at most %d characters", field, maxLen), field, http.StatusBadRequest)
	}

	return cleaned, nil
}

// ValidUsername reports whether name is an acceptable login name.
func ValidUsername(name string) bool {
	return usernamePattern.MatchString(name)
}

// isInvisibleUnicode returns true for zero-width, formatting, and other
// invisible Unicode characters that should be stripped from stored text.
func isInvisibleUnicode(r rune) bool {
	switch r {
	case
		'​', // Zero-Width Space
		'‌', // Zero-Width Non-Joiner
		'‍', // Zero-Width Joiner
		'‎', // Left-to-Right Mark
		'‏', // Right-to-Left Mark
		'⁠', // Word Joiner
		'﻿', // Zero-Width No-Break Space / BOM
		'￹', // Interlinear Annotation Anchor
		'￺', // Interlinear Annotation Separator
		'￻': // Interlinear Annotation Terminator
		return true
	}

	return unicode.Is(unicode.Cf, r)
}
