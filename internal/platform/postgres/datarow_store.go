package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"github.com/phrazzld/nutrition-api/internal/domain"
	"github.com/phrazzld/nutrition-api/internal/platform/logger"
	"github.com/phrazzld/nutrition-api/internal/store"
)

// dataRowInsertBatch keeps a single INSERT under PostgreSQL's 65535
// bind-parameter limit (9 parameters per row).
const dataRowInsertBatch = 1000

const dataRowColumns = `id, task_id, person, date, blood_glucose, carbs, protein, fat, diet_type`

// PostgresDataRowStore implements the store.DataRowStore interface
// using a PostgreSQL database as the storage backend.
type PostgresDataRowStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresDataRowStore creates a new PostgreSQL implementation of the DataRowStore interface.
func NewPostgresDataRowStore(db store.DBTX, logger *slog.Logger) *PostgresDataRowStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresDataRowStore{
		db:     db,
		logger: logger.With(slog.String("component", "data_row_store")),
	}
}

// Ensure PostgresDataRowStore implements store.DataRowStore interface
var _ store.DataRowStore = (*PostgresDataRowStore)(nil)

// CreateMultiple implements store.DataRowStore.CreateMultiple.
// IDs assigned by the database are written back into rows.
func (s *PostgresDataRowStore) CreateMultiple(ctx context.Context, rows []*domain.DataRow) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if len(rows) == 0 {
		return nil
	}

	for i, row := range rows {
		if err := row.Validate(); err != nil {
			log.Warn("data row validation failed", slog.Int("index", i), slog.String("error", err.Error()))
			return fmt.Errorf("%w: row %d: %w", store.ErrInvalidEntity, i, err)
		}
	}

	for start := 0; start < len(rows); start += dataRowInsertBatch {
		end := min(start+dataRowInsertBatch, len(rows))
		if err := s.insertBatch(ctx, rows[start:end]); err != nil {
			log.Error("failed to insert data rows",
				slog.Int("batch_start", start),
				slog.Int("batch_size", end-start),
				slog.String("error", err.Error()))
			return err
		}
	}

	log.Debug("data rows created", slog.Int("count", len(rows)))
	return nil
}

func (s *PostgresDataRowStore) insertBatch(ctx context.Context, rows []*domain.DataRow) error {
	var b strings.Builder
	b.WriteString(`INSERT INTO data_rows (task_id, person, date, blood_glucose, carbs, protein, fat, diet_type) VALUES `)

	args := make([]any, 0, len(rows)*8)
	for i, row := range rows {
		if i > 0 {
			b.WriteString(", ")
		}
		n := len(args)
		fmt.Fprintf(&b, "($%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d)",
			n+1, n+2, n+3, n+4, n+5, n+6, n+7, n+8)
		args = append(args,
			row.TaskID,
			string(row.Person),
			row.Date,
			row.BloodGlucose,
			row.Carbs,
			row.Protein,
			row.Fat,
			string(row.DietType),
		)
	}
	b.WriteString(" RETURNING id")

	result, err := s.db.QueryContext(ctx, b.String(), args...)
	if err != nil {
		return MapError(err)
	}
	defer func() { _ = result.Close() }()

	i := 0
	for result.Next() {
		if i >= len(rows) {
			return fmt.Errorf("insert returned more ids than rows")
		}
		if err := result.Scan(&rows[i].ID); err != nil {
			return MapError(err)
		}
		i++
	}
	if err := result.Err(); err != nil {
		return MapError(err)
	}
	return nil
}

// Find implements store.DataRowStore.Find.
func (s *PostgresDataRowStore) Find(ctx context.Context, filter store.DataRowFilter) ([]*domain.DataRow, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query, args := buildFindQuery(filter)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to query data rows", slog.String("error", err.Error()))
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	out := make([]*domain.DataRow, 0)
	for rows.Next() {
		var r domain.DataRow
		var person, diet string
		err := rows.Scan(
			&r.ID,
			&r.TaskID,
			&person,
			&r.Date,
			&r.BloodGlucose,
			&r.Carbs,
			&r.Protein,
			&r.Fat,
			&diet,
		)
		if err != nil {
			return nil, MapError(err)
		}
		r.Person = domain.Person(person)
		r.DietType = domain.DietType(diet)
		r.Date = domain.Naive(r.Date)
		out = append(out, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}

	return out, nil
}

func buildFindQuery(filter store.DataRowFilter) (string, []any) {
	var (
		where []string
		args  []any
	)
	if filter.TaskID != nil {
		args = append(args, *filter.TaskID)
		where = append(where, fmt.Sprintf("task_id = $%d", len(args)))
	}
	if filter.Person != "" {
		args = append(args, filter.Person)
		where = append(where, fmt.Sprintf("person = $%d", len(args)))
	}

	query := `SELECT ` + dataRowColumns + ` FROM data_rows`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY date ASC, id ASC`
	return query, args
}

// Count implements store.DataRowStore.Count.
func (s *PostgresDataRowStore) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM data_rows`).Scan(&n); err != nil {
		return 0, MapError(err)
	}
	return n, nil
}

// WithTx implements store.DataRowStore.WithTx.
func (s *PostgresDataRowStore) WithTx(tx *sql.Tx) store.DataRowStore {
	return &PostgresDataRowStore{
		db:     tx,
		logger: s.logger,
	}
}
