// Command server runs the admin REST backend: sessions, menu grants, the
// access log and catalog records on Postgres.
package main

import (
	"log/slog"
	"os"

	"go-admin-console/internal/app"
	"go-admin-console/internal/logger"
)

func main() {
	// Until config is loaded, log in color at LOG_LEVEL.
	slog.SetDefault(slog.New(logger.NewPrettyHandler(os.Stdout, &slog.HandlerOptions{
		Level: logger.ParseLevel(os.Getenv("LOG_LEVEL")),
	})))

	if err := run(); err != nil {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run() error {
	backend, err := app.New()
	if err != nil {
		return err
	}
	return backend.Run()
}
