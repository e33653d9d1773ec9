package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go-admin-console/internal/config"
	"go-admin-console/internal/database"
	"go-admin-console/internal/handler"
	"go-admin-console/internal/logger"
	"go-admin-console/internal/middleware"
	"go-admin-console/internal/repository"
	"go-admin-console/internal/router"
	"go-admin-console/internal/service"
)

const (
	seedAdminUsername      = "admin"
	sessionCleanupInterval = time.Hour
)

type App struct {
	server       *http.Server
	cleanupFuncs []func()
}

// New wires the REST backend: database, repositories, services and the
// router.
func New() (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logCloser, err := setupLogging(cfg.Log)
	if err != nil {
		return nil, err
	}

	slog.Info("connecting to PostgreSQL")
	db, err := database.New(context.Background(), cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.EnsureSchema(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ensure database schema: %w", err)
	}

	pool := db.Pool
	userRepo := repository.NewUserRepository(pool)
	sessionRepo := repository.NewSessionRepository(pool)
	menuRepo := repository.NewMenuRepository(pool)
	accessRepo := repository.NewAccessRepository(pool)
	entityRepo := repository.NewEntityRepository(pool)
	slog.Info("database ready")

	authService := service.NewAuthService(userRepo, sessionRepo, service.AuthOptions{
		JWTSecret:        cfg.JWTSecret,
		SessionTTL:       cfg.SessionTTL,
		LockoutThreshold: cfg.LockoutThreshold,
		LockoutDuration:  cfg.LockoutDuration,
	})

	if cfg.SeedAdminPassword != "" {
		created, err := authService.EnsureAdmin(context.Background(), seedAdminUsername, cfg.SeedAdminPassword)
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to seed administrator: %w", err)
		}
		if created {
			slog.Info("administrator account created", "username", seedAdminUsername)
		}
	}

	authMiddleware := middleware.NewAuthMiddleware(authService, cfg.SessionCookieName)

	appRouter := router.New(cfg, authMiddleware, router.Handlers{
		Auth:   handler.NewAuthHandler(authService, handler.CookieOptions{Name: cfg.SessionCookieName, Secure: cfg.SessionCookieSecure}),
		Menu:   handler.NewMenuHandler(service.NewMenuService(menuRepo)),
		Access: handler.NewAccessHandler(service.NewAccessService(accessRepo)),
		Entity: handler.NewEntityHandler(service.NewEntityService(entityRepo)),
		Docs:   handler.NewDocsHandler(cfg.DocsPath),
		Health: handler.NewHealthHandler(db),
	})

	cleanupCtx, cleanupCancel := context.WithCancel(context.Background())
	go startSessionCleanup(cleanupCtx, authService, sessionCleanupInterval)

	server := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           appRouter,
		ReadHeaderTimeout: cfg.ServerReadHeaderTimeout,
		WriteTimeout:      cfg.ServerWriteTimeout,
		IdleTimeout:       cfg.ServerIdleTimeout,
	}

	return &App{
		server: server,
		cleanupFuncs: []func(){
			cleanupCancel,
			db.Close,
			func() { _ = logCloser.Close() },
		},
	}, nil
}

func startSessionCleanup(ctx context.Context, auth *service.AuthService, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := auth.CleanExpiredSessions(ctx)
			if err != nil {
				slog.Warn("expired session cleanup failed", "error", err)
				continue
			}
			if removed > 0 {
				slog.Info("expired sessions removed", "count", removed)
			}
		}
	}
}

func setupLogging(cfg config.LogConfig) (io.Closer, error) {
	closer, err := logger.Setup(logger.Options{Level: cfg.Level, File: cfg.File})
	if err != nil {
		return nil, fmt.Errorf("failed to set up logging: %w", err)
	}
	return closer, nil
}

func (a *App) Run() error {
	go func() {
		slog.Info("server starting", "addr", a.server.Addr)
		if serveErr := a.server.ListenAndServe(); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			slog.Error("server failed", "error", serveErr)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	shutdownErr := a.server.Shutdown(ctx)

	for _, cleanup := range a.cleanupFuncs {
		cleanup()
	}

	if shutdownErr != nil {
		return fmt.Errorf("graceful shutdown failed: %w", shutdownErr)
	}

	slog.Info("server stopped")
	return nil
}
