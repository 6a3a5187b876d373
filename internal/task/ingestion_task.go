package task

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/phrazzld/nutrition-api/internal/domain"
	"github.com/phrazzld/nutrition-api/internal/source"
	"golang.org/x/sync/errgroup"
)

// Common errors
var (
	ErrNilRowSaver   = errors.New("row saver cannot be nil")
	ErrNilLogger     = errors.New("logger cannot be nil")
	ErrNoSources     = errors.New("at least one source is required")
	ErrInvalidTaskID = errors.New("task ID must be positive")
	ErrNegativeWait  = errors.New("delays cannot be negative")
)

// RowSaver persists a batch of rows atomically.
type RowSaver interface {
	SaveRows(ctx context.Context, rows []*domain.DataRow) error
}

// Delays models ingestion and finalization latency.
type Delays struct {
	Ingest   time.Duration
	Finalize time.Duration
}

// IngestionTask copies every source measurement inside [start, end] into
// the store as data rows of one task.
type IngestionTask struct {
	taskID   int64
	start    time.Time
	end      time.Time
	sources  []source.Reader
	rowSaver RowSaver
	delays   Delays
	logger   *slog.Logger
}

var _ Task = (*IngestionTask)(nil)

// NewIngestionTask creates the work for stored task taskID. Sources are
// processed in the given order.
func NewIngestionTask(
	taskID int64,
	start, end time.Time,
	sources []source.Reader,
	rowSaver RowSaver,
	delays Delays,
	logger *slog.Logger,
) (*IngestionTask, error) {
	if taskID <= 0 {
		return nil, ErrInvalidTaskID
	}
	if len(sources) == 0 {
		return nil, ErrNoSources
	}
	if rowSaver == nil {
		return nil, ErrNilRowSaver
	}
	if logger == nil {
		return nil, ErrNilLogger
	}
	if delays.Ingest < 0 || delays.Finalize < 0 {
		return nil, ErrNegativeWait
	}

	return &IngestionTask{
		taskID:   taskID,
		start:    domain.Naive(start),
		end:      domain.Naive(end),
		sources:  sources,
		rowSaver: rowSaver,
		delays:   delays,
		logger:   logger.With("task_type", TaskTypeIngestion, "task_id", taskID),
	}, nil
}

// ID returns the stored task's ID.
func (t *IngestionTask) ID() int64 { return t.taskID }

// Type returns TaskTypeIngestion.
func (t *IngestionTask) Type() string { return TaskTypeIngestion }

// Execute waits out the ingestion delay, reads every source, stores the
// rows that fall inside the range as one batch, then waits out the
// finalization delay.
func (t *IngestionTask) Execute(ctx context.Context) error {
	if err := sleepContext(ctx, t.delays.Ingest); err != nil {
		return &ExecutionError{Kind: domain.ErrorKindInterrupted, Err: err}
	}

	datasets, err := t.load(ctx)
	if err != nil {
		return err
	}

	var rows []*domain.DataRow
	for i, src := range t.sources {
		matched, err := FilterRows(t.taskID, src.Person(), datasets[i], t.start, t.end)
		if err != nil {
			return &ExecutionError{Kind: domain.ErrorKindMalformedRecord, Err: err}
		}
		t.logger.Debug("filtered source",
			"source", src.Name(),
			"person", src.Person(),
			"read", len(datasets[i]),
			"matched", len(matched))
		rows = append(rows, matched...)
	}

	if len(rows) > 0 {
		if err := t.rowSaver.SaveRows(ctx, rows); err != nil {
			if ctx.Err() != nil {
				return &ExecutionError{Kind: domain.ErrorKindInterrupted, Err: err}
			}
			return &ExecutionError{Kind: domain.ErrorKindStoreError, Err: fmt.Errorf("failed to save data rows: %w", err)}
		}
	} else {
		t.logger.Info("no source records fall inside the requested range")
	}
	t.logger.Info("data rows saved", "count", len(rows))

	if err := sleepContext(ctx, t.delays.Finalize); err != nil {
		return &ExecutionError{Kind: domain.ErrorKindInterrupted, Err: err}
	}

	return nil
}

// load reads all sources concurrently. Results keep source order.
func (t *IngestionTask) load(ctx context.Context) ([][]domain.Measurement, error) {
	datasets := make([][]domain.Measurement, len(t.sources))

	g, gctx := errgroup.WithContext(ctx)
	for i, src := range t.sources {
		i, src := i, src
		g.Go(func() error {
			ms, err := src.Read(gctx)
			if err != nil {
				return err
			}
			datasets[i] = ms
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, &ExecutionError{Kind: sourceErrorKind(ctx, err), Err: err}
	}
	return datasets, nil
}

func sourceErrorKind(ctx context.Context, err error) domain.ErrorKind {
	switch {
	case ctx.Err() != nil:
		return domain.ErrorKindInterrupted
	case errors.Is(err, source.ErrMalformedRecord):
		return domain.ErrorKindMalformedRecord
	default:
		return domain.ErrorKindSourceUnavailable
	}
}

// FilterRows converts the measurements inside [start, end] (inclusive,
// naive comparison) into data rows for person.
func FilterRows(
	taskID int64,
	person domain.Person,
	measurements []domain.Measurement,
	start, end time.Time,
) ([]*domain.DataRow, error) {
	var rows []*domain.DataRow
	for _, m := range measurements {
		if !domain.InRange(m.Date, start, end) {
			continue
		}
		row, err := domain.NewDataRow(taskID, person, m)
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// sleepContext blocks for d or until ctx is done.
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
