// Package main is the entry point for the jokes server.
//
// main's job is deliberately small: load configuration, build the logger,
// hand both to the server package, and exit non-zero on a fatal error. All
// actual logic lives in internal/.
package main

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/TomatoBigBig/remix-jokes/internal/config"
	"github.com/TomatoBigBig/remix-jokes/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		// covers the unrecoverable case of a missing SESSION_SECRETS —
		// a server that cannot sign sessions must not start
		slog.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel(cfg.LogLevel),
	}))

	// the data directory may not exist on first run
	if dir := filepath.Dir(cfg.DBPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			logger.Error("failed to create database directory",
				slog.String("dir", dir),
				slog.String("error", err.Error()),
			)
			os.Exit(1)
		}
	}

	srv, err := server.New(cfg, logger)
	if err != nil {
		logger.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Start blocks until the server is shut down via SIGINT/SIGTERM
	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func logLevel(name string) slog.Level {
	switch name {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
