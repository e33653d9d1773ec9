//go:build integration

package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"go-admin-console/internal/config"
	"go-admin-console/internal/database"
	"go-admin-console/internal/handler"
	"go-admin-console/internal/middleware"
	"go-admin-console/internal/model"
	"go-admin-console/internal/repository"
	"go-admin-console/internal/router"
	"go-admin-console/internal/service"
)

const adminPassword = "admin-password"

type stack struct {
	server  *httptest.Server
	users   *repository.UserRepository
	menus   *repository.MenuRepository
	adminID int64
}

// newStack runs the backend against a throwaway schema of DATABASE_URL.
func newStack(t *testing.T) *stack {
	t.Helper()

	base := os.Getenv("DATABASE_URL")
	if base == "" {
		t.Skip("DATABASE_URL not set")
	}

	ctx := context.Background()
	admin, err := pgxpool.New(ctx, base)
	require.NoError(t, err)
	t.Cleanup(admin.Close)

	schema := "it_" + strings.ReplaceAll(uuid.NewString(), "-", "")
	_, err = admin.Exec(ctx, "CREATE SCHEMA "+pgx.Identifier{schema}.Sanitize())
	require.NoError(t, err)
	t.Cleanup(func() {
		_, _ = admin.Exec(context.Background(), "DROP SCHEMA "+pgx.Identifier{schema}.Sanitize()+" CASCADE")
	})

	parsed, err := url.Parse(base)
	require.NoError(t, err)
	query := parsed.Query()
	query.Set("search_path", schema)
	parsed.RawQuery = query.Encode()

	db, err := database.New(ctx, parsed.String(), 4, 1)
	require.NoError(t, err)
	t.Cleanup(db.Close)
	require.NoError(t, db.EnsureSchema(ctx))

	cfg := &config.Config{
		JWTSecret:         "integration-secret-value",
		SessionTTL:        time.Hour,
		SessionCookieName: "session",
		RequestTimeout:    10 * time.Second,
		AuthRateLimitRPM:  1000,
		LockoutThreshold:  3,
		LockoutDuration:   time.Minute,
		DocsPath:          "../../docs/openapi.yaml",
	}

	users := repository.NewUserRepository(db.Pool)
	menus := repository.NewMenuRepository(db.Pool)
	authService := service.NewAuthService(users, repository.NewSessionRepository(db.Pool), service.AuthOptions{
		JWTSecret:        cfg.JWTSecret,
		SessionTTL:       cfg.SessionTTL,
		LockoutThreshold: cfg.LockoutThreshold,
		LockoutDuration:  cfg.LockoutDuration,
	})
	created, err := authService.EnsureAdmin(ctx, "admin", adminPassword)
	require.NoError(t, err)
	require.True(t, created)

	adminUser, err := users.FindByUsername(ctx, "admin")
	require.NoError(t, err)

	server := httptest.NewServer(router.New(cfg, middleware.NewAuthMiddleware(authService, cfg.SessionCookieName), router.Handlers{
		Auth:   handler.NewAuthHandler(authService, handler.CookieOptions{Name: cfg.SessionCookieName}),
		Menu:   handler.NewMenuHandler(service.NewMenuService(menus)),
		Access: handler.NewAccessHandler(service.NewAccessService(repository.NewAccessRepository(db.Pool))),
		Entity: handler.NewEntityHandler(service.NewEntityService(repository.NewEntityRepository(db.Pool))),
		Docs:   handler.NewDocsHandler(cfg.DocsPath),
		Health: handler.NewHealthHandler(db),
	}))
	t.Cleanup(server.Close)

	return &stack{server: server, users: users, menus: menus, adminID: adminUser.ID}
}

// createUser inserts an account with password "user-password".
func (s *stack) createUser(t *testing.T, username string, role string, forceChange bool) model.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("user-password"), bcrypt.MinCost)
	require.NoError(t, err)

	user, err := s.users.Create(context.Background(), model.User{
		Username:            username,
		Name:                strings.ToUpper(username[:1]) + username[1:],
		PasswordHash:        string(hash),
		Role:                role,
		ForcePasswordChange: forceChange,
	})
	require.NoError(t, err)
	return user
}

type client struct {
	t    *testing.T
	base string
	http *http.Client
}

func (s *stack) client(t *testing.T) *client {
	t.Helper()

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &client{t: t, base: s.server.URL, http: &http.Client{Jar: jar}}
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Msg     string          `json:"msg"`
	Error   *model.APIError `json:"error"`
	Meta    *model.Meta     `json:"meta"`
}

func (c *client) call(method string, path string, body any) (int, envelope) {
	c.t.Helper()

	var payload []byte
	if body != nil {
		encoded, err := json.Marshal(body)
		require.NoError(c.t, err)
		payload = encoded
	}

	req, err := http.NewRequest(method, c.base+path, bytes.NewReader(payload))
	require.NoError(c.t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	require.NoError(c.t, err)
	defer resp.Body.Close()

	var env envelope
	_ = json.NewDecoder(resp.Body).Decode(&env)
	return resp.StatusCode, env
}

func (c *client) login(username string, password string) (int, envelope) {
	c.t.Helper()
	return c.call(http.MethodPost, "/api/users/login", map[string]string{"username": username, "password": password})
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()

	var out T
	require.NoError(t, json.Unmarshal(raw, &out))
	return out
}
