package store

import (
	"context"
	"database/sql"

	"github.com/phrazzld/nutrition-api/internal/domain"
)

// DataRowFilter narrows a data row query. Zero values mean "no filter".
type DataRowFilter struct {
	TaskID *int64
	Person string
}

// DataRowStore defines the interface for data row persistence.
// Rows are append-only: there is no update or delete.
type DataRowStore interface {
	// CreateMultiple inserts rows as one batch and assigns their IDs.
	// The caller is responsible for wrapping the call in a transaction when
	// the batch must be atomic.
	// Returns ErrInvalidEntity if a row references a missing task.
	CreateMultiple(ctx context.Context, rows []*domain.DataRow) error

	// Find returns rows matching filter ordered by date, then ID.
	Find(ctx context.Context, filter DataRowFilter) ([]*domain.DataRow, error)

	// Count returns the number of stored rows.
	Count(ctx context.Context) (int64, error)

	// WithTx returns a new DataRowStore instance that uses the provided transaction.
	WithTx(tx *sql.Tx) DataRowStore
}
