package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" database/sql driver
	"github.com/phrazzld/nutrition-api/internal/config"
	"github.com/phrazzld/nutrition-api/internal/platform/postgres"
)

const pingTimeout = 5 * time.Second

// setupAppDatabase establishes a connection to the database and configures
// the connection pool. Returns the database connection if successful, or an
// error if the connection fails.
func setupAppDatabase(ctx context.Context, cfg config.DatabaseConfig, logger *slog.Logger) (*sql.DB, error) {
	db, err := sql.Open("pgx", cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info("Database connection established",
		"url", maskDatabaseURL(cfg.URL),
		"max_open_conns", cfg.MaxOpenConns)
	return db, nil
}

// printCounts writes the number of stored tasks and data rows to out.
func printCounts(ctx context.Context, db *sql.DB, out io.Writer) error {
	logger := slog.Default()

	tasks, err := postgres.NewPostgresTaskStore(db, logger).Count(ctx)
	if err != nil {
		return fmt.Errorf("failed to count tasks: %w", err)
	}
	rows, err := postgres.NewPostgresDataRowStore(db, logger).Count(ctx)
	if err != nil {
		return fmt.Errorf("failed to count data rows: %w", err)
	}

	_, err = fmt.Fprintf(out, "tasks: %d\ndata_rows: %d\n", tasks, rows)
	return err
}
