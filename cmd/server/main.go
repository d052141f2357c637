// Package main is the entry point for the devfolio server.
//
// main stays minimal:
//  1. Read configuration
//  2. Create the logger, database and token service
//  3. Hand them to internal/server and block
package main

import (
	"log/slog"
	"os"

	"github.com/sakif/devfolio/internal/auth"
	"github.com/sakif/devfolio/internal/config"
	"github.com/sakif/devfolio/internal/logger"
	"github.com/sakif/devfolio/internal/repository/sqlite"
	"github.com/sakif/devfolio/internal/server"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server exited", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run() error {
	// === 1. CONFIGURATION ===
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	// === 2. LOGGING ===
	log, closer, err := logger.New(cfg.Log)
	if err != nil {
		return err
	}
	defer closer.Close()

	// === 3. DATABASE ===
	// Migrations run inside sqlite.New.
	db, err := sqlite.New(sqlite.Options{
		Path:        cfg.Database.Path,
		BusyTimeout: cfg.Database.BusyTimeout,
		Retry: sqlite.RetryConfig{
			MaxAttempts:  cfg.Database.RetryMax,
			InitialDelay: cfg.Database.RetryInitial,
			MaxDelay:     sqlite.DefaultRetryConfig.MaxDelay,
			Multiplier:   sqlite.DefaultRetryConfig.Multiplier,
		},
		Logger: log,
	})
	if err != nil {
		return err
	}

	// === 4. AUTH ===
	tokens, err := auth.NewTokenService(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	if err != nil {
		db.Close()
		return err
	}

	// === 5. SERVE ===
	// Start blocks until SIGINT/SIGTERM and closes db on the way out.
	return server.New(cfg, db, tokens, log).Start()
}
