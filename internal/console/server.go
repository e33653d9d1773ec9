// Package console is the server-rendered administrative web console. Each
// browser gets a workspace holding its session store, its backend
// credential and the state of the pages it has open.
package console

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"go-admin-console/internal/guard"
	"go-admin-console/internal/middleware"
	"go-admin-console/internal/session"
)

const loginPath = "/login"

type Options struct {
	CookieName   string
	CookieSecure bool
}

type Server struct {
	registry *Registry
	opts     Options
	views    *renderer
	guard    *guard.Guard
}

func NewServer(registry *Registry, opts Options) (*Server, error) {
	if opts.CookieName == "" {
		opts.CookieName = "console"
	}

	views, err := newRenderer()
	if err != nil {
		return nil, err
	}

	s := &Server{registry: registry, opts: opts, views: views}
	s.guard = guard.New(s.resolveSession, loginPath, guard.WithLoadingHandler(http.HandlerFunc(s.loading)))
	return s, nil
}

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recovery)
	r.Use(middleware.Logging)
	r.Use(middleware.SecurityHeaders)

	r.Get("/health", s.health)

	r.Group(func(r chi.Router) {
		r.Use(s.workspaces)

		r.Get("/login", s.loginForm)
		r.Post("/login", s.login)
		r.Post("/logout", s.logout)
		r.Get("/password-reset", s.resetForm)
		r.Post("/password-reset", s.reset)

		r.Group(func(r chi.Router) {
			r.Use(s.guard.Middleware)

			r.Get("/", s.dashboard)
			r.Get("/manage/{entity}", s.listPage)
			r.Post("/manage/{entity}/{action}", s.listAction)
			r.Post("/menu/toggle/{optionID}", s.toggleMenu)
			r.Post("/menu/panel", s.togglePanel)
			r.Get("/menu/go", s.navigate)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		s.views.render(w, http.StatusNotFound, "notfound", pageData{Title: "Not found"})
	})

	return r
}

type contextKey string

const workspaceContextKey contextKey = "console_workspace"

// workspaces attaches the browser's workspace to the request, opening a new
// one when the cookie is missing or refers to a workspace that has expired.
func (s *Server) workspaces(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var ws *Workspace
		if cookie, err := r.Cookie(s.opts.CookieName); err == nil {
			ws, _ = s.registry.Get(cookie.Value)
		}

		if ws == nil {
			created, err := s.registry.Create()
			if err != nil {
				s.views.render(w, http.StatusInternalServerError, "notfound", pageData{Title: "Unavailable", Data: "The console could not start a session."})
				return
			}
			ws = created
			http.SetCookie(w, &http.Cookie{
				Name:     s.opts.CookieName,
				Value:    ws.ID,
				Path:     "/",
				HttpOnly: true,
				Secure:   s.opts.CookieSecure,
				SameSite: http.SameSiteLaxMode,
			})
		}

		ctx := context.WithValue(r.Context(), workspaceContextKey, ws)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func workspaceFrom(ctx context.Context) (*Workspace, bool) {
	ws, ok := ctx.Value(workspaceContextKey).(*Workspace)
	return ws, ok
}

func (s *Server) resolveSession(r *http.Request) (session.Session, bool) {
	ws, ok := workspaceFrom(r.Context())
	if !ok {
		return session.Session{}, false
	}
	return ws.Store.Snapshot(), true
}

func (s *Server) loading(w http.ResponseWriter, r *http.Request) {
	s.views.render(w, http.StatusOK, "loading", pageData{Title: "Loading", Location: r.URL.RequestURI()})
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status":     "ok",
		"workspaces": s.registry.Len(),
		"time":       time.Now().UTC().Format(time.RFC3339),
	})
}

// seeOther redirects with 303 so a form post is never replayed.
func seeOther(w http.ResponseWriter, r *http.Request, target string) {
	w.Header().Set("Cache-Control", "no-store")
	http.Redirect(w, r, target, http.StatusSeeOther)
}
