// Command console serves the server-rendered admin console in front of the
// REST backend.
package main

import (
	"log/slog"
	"os"

	"go-admin-console/internal/app"
	"go-admin-console/internal/logger"
)

func main() {
	slog.SetDefault(slog.New(logger.NewPrettyHandler(os.Stdout, &slog.HandlerOptions{
		Level: logger.ParseLevel(os.Getenv("LOG_LEVEL")),
	})))

	if err := run(); err != nil {
		slog.Error("console stopped", "error", err)
		os.Exit(1)
	}
}

func run() error {
	console, err := app.NewConsole()
	if err != nil {
		return err
	}
	return console.Run()
}
