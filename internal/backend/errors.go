package backend

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind int

const (
	KindNetwork Kind = iota
	KindValidation
	KindUnauthorized
	KindNotFound
	KindConflict
	KindServer
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindUnauthorized:
		return "unauthorized"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindServer:
		return "server"
	default:
		return "network"
	}
}

// Sentinels for errors.Is against an *Error's kind.
var (
	ErrNetwork      = errors.New("backend unreachable")
	ErrValidation   = errors.New("request rejected")
	ErrUnauthorized = errors.New("not authenticated")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrServer       = errors.New("backend error")
)

// Error is returned for every failed backend call.
type Error struct {
	Kind    Kind
	Status  int
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}

	if e.Status > 0 {
		return fmt.Sprintf("backend %s (%d): %s", e.Kind, e.Status, e.Message)
	}
	if e.Err != nil {
		return fmt.Sprintf("backend %s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("backend %s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	switch target {
	case ErrNetwork:
		return e.Kind == KindNetwork
	case ErrValidation:
		return e.Kind == KindValidation
	case ErrUnauthorized:
		return e.Kind == KindUnauthorized
	case ErrNotFound:
		return e.Kind == KindNotFound
	case ErrConflict:
		return e.Kind == KindConflict
	case ErrServer:
		return e.Kind == KindServer
	}
	return false
}

// UserMessage is the text safe to show in a notification. Network failures
// carry none so callers fall back to a generic message.
func (e *Error) UserMessage() string {
	if e.Kind == KindNetwork {
		return ""
	}
	return e.Message
}

func (e *Error) Unauthorized() bool { return e.Kind == KindUnauthorized }

func kindForStatus(status int) Kind {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return KindUnauthorized
	case status == http.StatusNotFound:
		return KindNotFound
	case status == http.StatusConflict || status == http.StatusGone:
		return KindConflict
	case status >= 500:
		return KindServer
	default:
		return KindValidation
	}
}
