// Package session owns the authenticated identity and the authorization
// menu derived from it. One Store exists per browser workspace; consumers
// read it through Snapshot and never mutate it directly.
package session

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
)

// Backend is the part of the REST API the store drives.
type Backend interface {
	CurrentUser(ctx context.Context) (Identity, error)
	AuthorizationEntries(ctx context.Context, userID int64) ([]MenuNode, error)
	Login(ctx context.Context, username string, password string) error
	Logout(ctx context.Context) error
	ConfirmPasswordReset(ctx context.Context, username string, newPassword string) error
	ClearCredentials()
}

const (
	genericLoginFailure = "Unable to reach the server. Please try again."
	genericResetFailure = "Unable to reset the password. Please try again."
)

type Store struct {
	backend Backend

	mu        sync.RWMutex
	identity  *Identity
	entries   []MenuNode
	state     LoadingState
	transient map[string]any
}

func NewStore(backend Backend) *Store {
	return &Store{
		backend:   backend,
		entries:   []MenuNode{},
		state:     Initializing,
		transient: map[string]any{},
	}
}

func (s *Store) Snapshot() Session {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var identity *Identity
	if s.identity != nil {
		copied := *s.identity
		identity = &copied
	}

	return Session{Identity: identity, Entries: s.entries, State: s.state}
}

// Bootstrap resolves the current user from the ambient credential and then
// that user's menu. A menu failure keeps the identity with an empty menu; an
// identity failure clears both. The store always ends ready.
func (s *Store) Bootstrap(ctx context.Context) {
	s.mu.Lock()
	s.state = Initializing
	s.clearLocked()
	s.mu.Unlock()

	identity, entries := s.resolve(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	if identity != nil {
		s.identity = identity
		s.entries = entries
	}
	s.state = Ready
}

// Revalidate re-resolves the identity behind a rejected request without
// passing through the initializing state. When the same user is still signed
// in, identity and menu are refreshed and transient storage is kept;
// otherwise the session is cleared (and replaced if another user now holds
// the credential). It reports whether the session is still authenticated.
func (s *Store) Revalidate(ctx context.Context) bool {
	identity, entries := s.resolve(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	sameUser := identity != nil && s.identity != nil && identity.ID == s.identity.ID
	if !sameUser {
		s.clearLocked()
	}
	if identity != nil {
		s.identity = identity
		s.entries = entries
	}
	s.state = Ready
	return identity != nil
}

func (s *Store) resolve(ctx context.Context) (*Identity, []MenuNode) {
	identity, err := s.backend.CurrentUser(ctx)
	if err != nil {
		slog.Debug("session bootstrap found no identity", "error", err)
		return nil, nil
	}

	entries := []MenuNode{}
	if identity.HasUserID() {
		fetched, err := s.backend.AuthorizationEntries(ctx, identity.ID)
		if err != nil {
			slog.Warn("authorization menu unavailable", "user_id", identity.ID, "error", err)
		} else if fetched != nil {
			entries = fetched
		}
	}

	return &identity, entries
}

// Login posts credentials. A rejected login leaves the session as it was.
func (s *Store) Login(ctx context.Context, username string, password string) Result {
	err := s.backend.Login(ctx, strings.TrimSpace(username), password)
	if err != nil {
		s.mu.Lock()
		s.state = Ready
		s.mu.Unlock()

		slog.Info("login rejected", "username", username, "error", err)
		return Result{Success: false, Message: failureMessage(err, genericLoginFailure)}
	}

	s.Bootstrap(ctx)
	slog.Info("login succeeded", "username", username)
	return Result{Success: true}
}

// Logout tells the backend best-effort, then clears everything locally.
func (s *Store) Logout(ctx context.Context) {
	if err := s.backend.Logout(ctx); err != nil {
		slog.Warn("logout request failed", "error", err)
	}
	s.backend.ClearCredentials()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.clearLocked()
	s.state = Ready
}

// ConfirmPasswordReset sets a new password for username. It does not touch
// the session.
func (s *Store) ConfirmPasswordReset(ctx context.Context, username string, newPassword string) Result {
	if err := s.backend.ConfirmPasswordReset(ctx, strings.TrimSpace(username), newPassword); err != nil {
		slog.Info("password reset rejected", "username", username, "error", err)
		return Result{Success: false, Message: failureMessage(err, genericResetFailure)}
	}
	return Result{Success: true}
}

// Put stores a value in transient storage, which lives until the session is
// cleared.
func (s *Store) Put(key string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transient[key] = value
}

func (s *Store) Value(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.transient[key]
	return v, ok
}

// LoadOrStore returns the transient value for key, creating it with build
// when absent.
func (s *Store) LoadOrStore(key string, build func() any) any {
	s.mu.Lock()
	defer s.mu.Unlock()

	if v, ok := s.transient[key]; ok {
		return v
	}
	v := build()
	s.transient[key] = v
	return v
}

// clearLocked drops identity, menu and transient storage together. Values
// that can be closed are closed so late results are discarded.
func (s *Store) clearLocked() {
	s.identity = nil
	s.entries = []MenuNode{}
	for key, v := range s.transient {
		if closer, ok := v.(interface{ Close() }); ok {
			closer.Close()
		}
		delete(s.transient, key)
	}
}

func failureMessage(err error, fallback string) string {
	var carrier interface{ UserMessage() string }
	if errors.As(err, &carrier) {
		if msg := strings.TrimSpace(carrier.UserMessage()); msg != "" {
			return msg
		}
	}
	return fallback
}
