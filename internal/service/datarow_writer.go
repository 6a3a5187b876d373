package service

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/phrazzld/nutrition-api/internal/domain"
	"github.com/phrazzld/nutrition-api/internal/store"
)

// DataRowWriter saves ingested rows atomically. It satisfies task.RowSaver.
type DataRowWriter struct {
	db     store.TxBeginner
	rows   store.DataRowStore
	logger *slog.Logger
}

// NewDataRowWriter creates a writer that runs every batch in its own
// transaction on db.
func NewDataRowWriter(db store.TxBeginner, rows store.DataRowStore, logger *slog.Logger) *DataRowWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &DataRowWriter{
		db:     db,
		rows:   rows,
		logger: logger.With("component", "data_row_writer"),
	}
}

// SaveRows inserts rows in one transaction: either all of them are stored
// or none is.
func (w *DataRowWriter) SaveRows(ctx context.Context, rows []*domain.DataRow) error {
	err := store.RunInTransaction(ctx, w.db, func(ctx context.Context, tx *sql.Tx) error {
		return w.rows.WithTx(tx).CreateMultiple(ctx, rows)
	})
	if err != nil {
		w.logger.ErrorContext(ctx, "failed to save data rows", "error", err, "count", len(rows))
		return NewTaskServiceError("save_rows", "failed to save data rows", err)
	}
	return nil
}
