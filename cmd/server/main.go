// Package main is the entry point for the motqot HTTP server.
// It owns the daily scheduler and the local API a front-end or widget uses.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/fleveque/motqot/internal/config"
	"github.com/fleveque/motqot/internal/llm"
	"github.com/fleveque/motqot/internal/notify"
	"github.com/fleveque/motqot/internal/scheduler"
	"github.com/fleveque/motqot/internal/server"
	"github.com/fleveque/motqot/internal/service"
	"github.com/fleveque/motqot/internal/storage"
)

func main() {
	// run() is separate so deferred cleanup executes before os.Exit.
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// A missing .env is normal.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("loading .env: %w", err)
	}

	cfg, err := config.Load(os.Getenv("MOTQOT_CONFIG_PATH"))
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	var logger *zap.Logger
	if cfg.Log.Level == "debug" {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}
	// Sync commonly fails on stdout/stderr; that is not a real problem.
	defer func() { _ = logger.Sync() }()

	if err := os.MkdirAll(filepath.Dir(cfg.Storage.DatabasePath), 0755); err != nil {
		return fmt.Errorf("creating database directory: %w", err)
	}

	db, err := storage.NewDatabase(cfg.Storage.DatabasePath)
	if err != nil {
		return err
	}
	defer db.Close()

	prefs := storage.NewPreferences(storage.NewSQLiteKVStore(db))
	generations := storage.NewGenerationRepository(db)

	completer, err := llm.NewCompleter(cfg.LLM.Transport, cfg.LLM.Timeout, logger)
	if err != nil {
		return err
	}

	guard, err := service.NewGuard(cfg.Storage.LockPath)
	if err != nil {
		return err
	}

	svc := service.NewQuoteService(prefs, completer, generations, logger)
	state := service.NewState(svc, guard, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load the cached quote and refresh it in the background if it is due,
	// so a slow provider doesn't delay startup.
	go func() {
		if err := state.Open(ctx); err != nil {
			logger.Warn("initial quote refresh failed", zap.String("reason", service.Describe(err)))
		}
	}()

	deps := server.Deps{
		State:       state,
		Preferences: prefs,
		Generations: generations,
	}

	if cfg.Scheduler.Enabled {
		daily := scheduler.NewDaily(state, notify.NewLogNotifier(logger), scheduler.Options{
			RetryInitial: cfg.Scheduler.RetryInitial,
			RetryMax:     cfg.Scheduler.RetryMax,
			MaxAttempts:  cfg.Scheduler.MaxAttempts,
			Title:        cfg.Notify.Title,
		}, logger)
		go daily.Start(ctx)

		deps.Rescheduler = daily
	}

	srv := server.New(cfg, deps, logger)

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Start()
	}()

	// Block until we receive a signal or the server errors out.
	select {
	case <-ctx.Done():
		logger.Info("received shutdown signal")
	case err := <-errChan:
		if err != nil {
			return err
		}
	}

	// Give in-flight requests 10 seconds to complete
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return srv.Shutdown(shutdownCtx)
}
