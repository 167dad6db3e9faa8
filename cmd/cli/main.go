// Package main provides the motqot command-line tool.
// It shares the database and the generation lock with the server, so both
// see the same settings and "quote of the day".
//
// Run with: go run ./cmd/cli quote --lang de
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fleveque/motqot/internal/config"
	"github.com/fleveque/motqot/internal/llm"
	"github.com/fleveque/motqot/internal/service"
	"github.com/fleveque/motqot/internal/storage"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// app holds what every subcommand needs. It is built lazily so `--help`
// never touches the database.
type app struct {
	cfg         *config.Config
	logger      *zap.Logger
	db          *sqlx.DB
	prefs       *storage.Preferences
	generations storage.GenerationRepository
	svc         *service.QuoteService
	guard       *service.Guard
}

func newApp() (*app, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	cfg, err := config.Load(os.Getenv("MOTQOT_CONFIG_PATH"))
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	// Development mode for the CLI: human-readable output on stderr.
	var logger *zap.Logger
	if cfg.Log.Level == "debug" {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewDevelopment(zap.IncreaseLevel(zap.WarnLevel))
	}
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(cfg.Storage.DatabasePath), 0755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}
	db, err := storage.NewDatabase(cfg.Storage.DatabasePath)
	if err != nil {
		return nil, err
	}

	completer, err := llm.NewCompleter(cfg.LLM.Transport, cfg.LLM.Timeout, logger)
	if err != nil {
		db.Close()
		return nil, err
	}

	guard, err := service.NewGuard(cfg.Storage.LockPath)
	if err != nil {
		db.Close()
		return nil, err
	}

	prefs := storage.NewPreferences(storage.NewSQLiteKVStore(db))
	generations := storage.NewGenerationRepository(db)

	return &app{
		cfg:         cfg,
		logger:      logger,
		db:          db,
		prefs:       prefs,
		generations: generations,
		svc:         service.NewQuoteService(prefs, completer, generations, logger),
		guard:       guard,
	}, nil
}

func (a *app) Close() {
	_ = a.logger.Sync()
	a.db.Close()
}

// withApp wraps a command body with app setup, teardown and Ctrl+C handling.
func withApp(fn func(ctx context.Context, cmd *cobra.Command, a *app, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		return fn(ctx, cmd, a, args)
	}
}

// rootCmd creates the root command. Cobra builds a tree of commands:
// motqot quote --force
// motqot config set api-key sk-...
func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "motqot",
		Short:         "Daily motivational quotes for developers",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	root.AddCommand(
		quoteCmd(),
		dueCmd(),
		configCmd(),
		presetCmd(),
		nextCmd(),
		historyCmd(),
	)
	return root
}
