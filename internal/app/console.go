package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go-admin-console/internal/config"
	"go-admin-console/internal/console"
)

const workspaceSweepInterval = time.Minute

// NewConsole wires the web console. It shares Run with the backend so both
// binaries shut down the same way.
func NewConsole() (*App, error) {
	cfg, err := config.LoadConsole()
	if err != nil {
		return nil, fmt.Errorf("failed to load console config: %w", err)
	}

	logCloser, err := setupLogging(cfg.Log)
	if err != nil {
		return nil, err
	}

	registry := console.NewRegistry(console.RegistryOptions{
		BackendURL:     cfg.BackendURL,
		BackendTimeout: cfg.BackendTimeout,
		IdleTTL:        cfg.WorkspaceIdleTTL,
		LoginRPM:       cfg.LoginAttemptsRPM,
	})

	srv, err := console.NewServer(registry, console.Options{
		CookieName:   cfg.CookieName,
		CookieSecure: cfg.CookieSecure,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize console: %w", err)
	}

	sweepCtx, sweepCancel := context.WithCancel(context.Background())
	go registry.StartSweeper(sweepCtx, workspaceSweepInterval)

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           srv.Routes(),
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
	}

	return &App{
		server: server,
		cleanupFuncs: []func(){
			sweepCancel,
			registry.Wait,
			func() { _ = logCloser.Close() },
		},
	}, nil
}
