package store

import (
	"context"
	"database/sql"

	"github.com/phrazzld/nutrition-api/internal/domain"
)

// TaskStore defines the interface for task persistence.
type TaskStore interface {
	// Create saves a new task and assigns its ID.
	// Returns validation errors from the domain Task if data is invalid.
	Create(ctx context.Context, task *domain.Task) error

	// GetByID retrieves a task by its ID.
	// Returns ErrTaskNotFound if the task does not exist.
	GetByID(ctx context.Context, id int64) (*domain.Task, error)

	// List returns every task ordered by created_at descending, ties broken
	// by ID descending.
	List(ctx context.Context) ([]*domain.Task, error)

	// UpdateStatus moves a task from one status to another. The update only
	// applies while the stored status still equals from; otherwise
	// ErrStatusConflict is returned. errorKind and errorMessage are recorded
	// for failed tasks and cleared for every other status.
	// Returns ErrTaskNotFound if the task does not exist.
	UpdateStatus(
		ctx context.Context,
		id int64,
		from, to domain.TaskStatus,
		errorKind domain.ErrorKind,
		errorMessage string,
	) error

	// FindByStatus returns tasks in the given status, oldest first.
	FindByStatus(ctx context.Context, status domain.TaskStatus) ([]*domain.Task, error)

	// Count returns the number of stored tasks.
	Count(ctx context.Context) (int64, error)

	// WithTx returns a new TaskStore instance that uses the provided transaction.
	WithTx(tx *sql.Tx) TaskStore
}
