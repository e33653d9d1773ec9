// Package guard protects console views behind the session state machine:
// Loading renders a placeholder, Unauthenticated redirects to the login
// view, Authenticated passes through.
package guard

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"go-admin-console/internal/session"
)

type State int

const (
	Loading State = iota
	Authenticated
	Unauthenticated
)

func (s State) String() string {
	switch s {
	case Authenticated:
		return "authenticated"
	case Unauthenticated:
		return "unauthenticated"
	default:
		return "loading"
	}
}

func Evaluate(s session.Session) State {
	switch {
	case s.State == session.Initializing:
		return Loading
	case s.Identity != nil:
		return Authenticated
	default:
		return Unauthenticated
	}
}

// Resolver returns the session for the browser issuing r.
type Resolver func(r *http.Request) (session.Session, bool)

type contextKey string

const sessionContextKey contextKey = "guard_session"

type Guard struct {
	resolve   Resolver
	loginPath string
	loading   http.Handler
}

type Option func(*Guard)

// WithLoadingHandler replaces the built-in placeholder page.
func WithLoadingHandler(h http.Handler) Option {
	return func(g *Guard) { g.loading = h }
}

func New(resolve Resolver, loginPath string, opts ...Option) *Guard {
	g := &Guard{
		resolve:   resolve,
		loginPath: loginPath,
		loading:   http.HandlerFunc(defaultLoading),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *Guard) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		snap, ok := g.resolve(r)
		if !ok {
			g.redirect(w, r)
			return
		}

		switch Evaluate(snap) {
		case Loading:
			w.Header().Set("Cache-Control", "no-store")
			g.loading.ServeHTTP(w, r)
		case Unauthenticated:
			g.redirect(w, r)
		default:
			ctx := context.WithValue(r.Context(), sessionContextKey, snap)
			next.ServeHTTP(w, r.WithContext(ctx))
		}
	})
}

// redirect answers with 303 so the guarded view is replaced, not stacked,
// and remembers where the user was heading.
func (g *Guard) redirect(w http.ResponseWriter, r *http.Request) {
	target := g.loginPath
	if r.Method == http.MethodGet && r.URL.Path != g.loginPath {
		target += "?" + url.Values{"next": {r.URL.RequestURI()}}.Encode()
	}

	w.Header().Set("Cache-Control", "no-store")
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// SessionFromContext returns the snapshot the guard admitted the request
// with.
func SessionFromContext(ctx context.Context) (session.Session, bool) {
	snap, ok := ctx.Value(sessionContextKey).(session.Session)
	return snap, ok
}

// SafeNext validates a post-login destination, allowing only local paths.
func SafeNext(next string, fallback string) string {
	next = strings.TrimSpace(next)
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.Contains(next, "\\") {
		return fallback
	}
	return next
}

func defaultLoading(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`<!doctype html><html><head><meta charset="utf-8"><meta http-equiv="refresh" content="1"><title>Loading</title></head><body><p>Loading&hellip;</p></body></html>`))
}
