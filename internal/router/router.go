package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"go-admin-console/internal/config"
	"go-admin-console/internal/handler"
	"go-admin-console/internal/middleware"
	"go-admin-console/internal/model"
)

type Handlers struct {
	Auth   *handler.AuthHandler
	Menu   *handler.MenuHandler
	Access *handler.AccessHandler
	Entity *handler.EntityHandler
	Docs   *handler.DocsHandler
	Health *handler.HealthHandler
}

func New(cfg *config.Config, authMiddleware *middleware.AuthMiddleware, h Handlers) http.Handler {
	r := chi.NewRouter()
	rateLimitMiddleware := middleware.NewRateLimitMiddleware(cfg.RateLimitRPM, cfg.AuthRateLimitRPM)

	r.Use(middleware.Recovery)
	r.Use(middleware.Logging)
	r.Use(middleware.CORS(cfg.CORSOrigins))
	r.Use(middleware.SecurityHeaders)
	r.Use(rateLimitMiddleware.Handler)

	r.Get("/health", h.Health.Check)
	r.Get("/openapi.yaml", h.Docs.OpenAPI)
	r.Get("/swagger", h.Docs.SwaggerUI)

	writers := authMiddleware.RequireRoles(model.RoleAdmin, model.RoleOperator)

	r.Route("/api", func(api chi.Router) {
		api.Use(middleware.Timeout(cfg.RequestTimeout))

		api.Route("/users", func(users chi.Router) {
			users.Post("/login", h.Auth.Login)
			users.Post("/logout", h.Auth.Logout)
			users.Post("/password-reset/confirm", h.Auth.ConfirmPasswordReset)
			users.With(authMiddleware.RequireAuth).Get("/me", h.Auth.Me)
		})

		api.With(authMiddleware.RequireAuth).Get("/acceso/{userId}", h.Menu.Entries)
		api.With(authMiddleware.RequireAuth).Post("/log-acceso", h.Access.Log)
		api.With(authMiddleware.RequireAuth, authMiddleware.RequireRoles(model.RoleAdmin)).Get("/log-acceso", h.Access.List)

		api.Group(func(records chi.Router) {
			records.Use(authMiddleware.RequireAuth)

			records.Get("/{entity}", h.Entity.List)
			records.Get("/{entity}/{id}", h.Entity.Get)
			records.With(writers).Post("/{entity}", h.Entity.Create)
			records.With(writers).Put("/{entity}/{id}", h.Entity.Update)
			records.With(writers).Delete("/{entity}/{id}", h.Entity.Delete)
		})
	})

	return r
}
