package task

import (
	"log/slog"
	"time"

	"github.com/phrazzld/nutrition-api/internal/source"
)

// IngestionTaskFactory creates IngestionTask instances sharing one set of
// sources, one row saver and one delay configuration.
type IngestionTaskFactory struct {
	sources  []source.Reader
	rowSaver RowSaver
	delays   Delays
	logger   *slog.Logger
}

// NewIngestionTaskFactory creates a new factory for IngestionTasks.
func NewIngestionTaskFactory(
	sources []source.Reader,
	rowSaver RowSaver,
	delays Delays,
	logger *slog.Logger,
) *IngestionTaskFactory {
	return &IngestionTaskFactory{
		sources:  sources,
		rowSaver: rowSaver,
		delays:   delays,
		logger:   logger,
	}
}

// CreateTask creates the ingestion work for stored task taskID.
func (f *IngestionTaskFactory) CreateTask(taskID int64, start, end time.Time) (Task, error) {
	t, err := NewIngestionTask(taskID, start, end, f.sources, f.rowSaver, f.delays, f.logger)
	if err != nil {
		return nil, err
	}
	return t, nil
}
