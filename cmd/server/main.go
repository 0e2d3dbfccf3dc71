// Package main is the entry point for the session-auth server.
//
// main only reads configuration, builds the logger and hands both to
// internal/server. Everything else lives in internal packages.
package main

import (
	"context"
	"log/slog"
	"os"
	"strings"

	"github.com/sakif/session-auth/internal/config"
	"github.com/sakif/session-auth/internal/server"
)

func main() {
	// === 1. READ CONFIGURATION ===
	// Environment variables, optionally seeded from a .env file.
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// === 2. SET UP LOGGING ===
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLevel(cfg.App.LogLevel),
	}))
	slog.SetDefault(logger)

	// === 3. CREATE AND START THE SERVER ===
	// New validates the configuration and opens the user store.
	srv, err := server.New(context.Background(), cfg, logger)
	if err != nil {
		logger.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Start blocks until SIGINT or SIGTERM.
	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func parseLevel(s string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo
	}
	return level
}
