package task

import (
	"context"
	"errors"
	"fmt"

	"github.com/phrazzld/nutrition-api/internal/domain"
)

// TaskTypeIngestion identifies ingestion tasks in logs.
const TaskTypeIngestion = "ingestion"

// Task is a unit of background work bound to a stored domain task.
type Task interface {
	// ID returns the identifier of the stored task this work belongs to.
	ID() int64

	// Type returns the task type identifier.
	Type() string

	// Execute runs the work. It is called after the stored task has moved to
	// in progress; returning nil completes it, an error fails it.
	Execute(ctx context.Context) error
}

// StatusStore is the subset of store.TaskStore the runner needs.
type StatusStore interface {
	UpdateStatus(
		ctx context.Context,
		id int64,
		from, to domain.TaskStatus,
		errorKind domain.ErrorKind,
		errorMessage string,
	) error
	FindByStatus(ctx context.Context, status domain.TaskStatus) ([]*domain.Task, error)
}

// ExecutionError attaches a failure kind to an execution error.
type ExecutionError struct {
	Kind domain.ErrorKind
	Err  error
}

// Error implements the error interface.
func (e *ExecutionError) Error() string {
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

// Unwrap returns the underlying error.
func (e *ExecutionError) Unwrap() error {
	return e.Err
}

// KindOf classifies err for the failed task record.
func KindOf(err error) domain.ErrorKind {
	var execErr *ExecutionError
	switch {
	case errors.As(err, &execErr):
		return execErr.Kind
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return domain.ErrorKindInterrupted
	default:
		return domain.ErrorKindInternal
	}
}
