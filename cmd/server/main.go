// Package main implements the entry point for the nutrition API server,
// which ingests glucose and nutrition measurements for a requested date
// range and serves the stored rows.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/phrazzld/nutrition-api/internal/config"
	"github.com/phrazzld/nutrition-api/internal/platform/logger"
)

// cliOptions holds the parsed command-line flags.
type cliOptions struct {
	configPath string
	migrateCmd string
	check      bool
}

func parseFlags(args []string) (cliOptions, error) {
	var opts cliOptions
	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	fs.StringVar(&opts.configPath, "config", "", "path to a config file (defaults to ./config.yaml when present)")
	fs.StringVar(&opts.migrateCmd, "migrate", "", "run a migration command (up, down, status, version) and exit")
	fs.BoolVar(&opts.check, "check", false, "print task and data row counts and exit")
	if err := fs.Parse(args); err != nil {
		return opts, err
	}
	if opts.migrateCmd != "" && !isMigrationCommand(opts.migrateCmd) {
		return opts, fmt.Errorf("unknown migration command %q", opts.migrateCmd)
	}
	return opts, nil
}

func main() {
	opts, err := parseFlags(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, opts, os.Stdout); err != nil {
		slog.Error("Server exited with error", "error", err)
		os.Exit(1)
	}
}

// run loads configuration, opens the database and then either performs the
// one-shot command selected by opts or serves HTTP until ctx is cancelled.
func run(ctx context.Context, opts cliOptions, out io.Writer) error {
	cfg, err := config.LoadFrom(opts.configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	log, err := logger.Setup(cfg.Server)
	if err != nil {
		return fmt.Errorf("failed to set up logger: %w", err)
	}

	log.Info("Server configuration loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Server.LogLevel,
		"rate_limit_backend", cfg.RateLimit.Backend)

	db, err := setupAppDatabase(ctx, cfg.Database, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database connection", "error", err)
		}
	}()

	if opts.migrateCmd != "" {
		return runMigrations(ctx, db, opts.migrateCmd, log)
	}

	if cfg.Database.AutoMigrate {
		if err := runMigrations(ctx, db, "up", log); err != nil {
			return err
		}
	}

	if opts.check {
		return printCounts(ctx, db, out)
	}

	app, err := newApplication(ctx, cfg, log, db)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	return app.Run(ctx)
}
