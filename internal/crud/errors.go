package crud

import (
	"errors"
	"strings"
)

// MessageFor extracts a human-readable message from errors that carry one
// (the backend client's errors do), falling back to the given text.
func MessageFor(err error, fallback string) string {
	var carrier interface{ UserMessage() string }
	if errors.As(err, &carrier) {
		if msg := strings.TrimSpace(carrier.UserMessage()); msg != "" {
			return msg
		}
	}
	return fallback
}

// IsUnauthorized reports whether err means the ambient session is no longer
// accepted by the backend.
func IsUnauthorized(err error) bool {
	var carrier interface{ Unauthorized() bool }
	return errors.As(err, &carrier) && carrier.Unauthorized()
}

func lower(s string) string {
	return strings.ToLower(s)
}
