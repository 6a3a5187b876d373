package task

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/phrazzld/nutrition-api/internal/domain"
	"github.com/phrazzld/nutrition-api/internal/redact"
	"github.com/phrazzld/nutrition-api/internal/source"
	"github.com/phrazzld/nutrition-api/internal/store"
)

// ErrRunnerStopped is returned by Submit once Stop has been called.
var ErrRunnerStopped = errors.New("task runner is stopped")

// TaskFactory rebuilds work for a stored task.
type TaskFactory interface {
	CreateTask(taskID int64, start, end time.Time) (Task, error)
}

// TaskRunnerConfig holds configuration for the task runner
type TaskRunnerConfig struct {
	// RecoverOnStart resubmits pending tasks and fails interrupted ones
	// when Start is called.
	RecoverOnStart bool

	// StatusUpdateTimeout bounds the final status write of a task. It
	// applies even after the runner context has been cancelled.
	StatusUpdateTimeout time.Duration
}

// DefaultTaskRunnerConfig returns a TaskRunnerConfig with reasonable defaults
func DefaultTaskRunnerConfig() TaskRunnerConfig {
	return TaskRunnerConfig{
		RecoverOnStart:      true,
		StatusUpdateTimeout: 5 * time.Second,
	}
}

// TaskRunner executes each submitted task in its own goroutine and records
// the outcome as a status transition.
type TaskRunner struct {
	store      StatusStore
	factory    TaskFactory
	ctx        context.Context
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
	mu         sync.Mutex
	stopped    bool
	config     TaskRunnerConfig
	logger     *slog.Logger
	errHandler func(task Task, err error)
}

// NewTaskRunner creates a new TaskRunner
func NewTaskRunner(
	store StatusStore,
	factory TaskFactory,
	config TaskRunnerConfig,
	logger *slog.Logger,
) *TaskRunner {
	if config.StatusUpdateTimeout <= 0 {
		config.StatusUpdateTimeout = 5 * time.Second
	}
	logger = logger.With("component", "task_runner")

	ctx, cancel := context.WithCancel(context.Background())

	return &TaskRunner{
		store:      store,
		factory:    factory,
		ctx:        ctx,
		cancelFunc: cancel,
		config:     config,
		logger:     logger,
		errHandler: func(task Task, err error) {
			logger.Error("task execution failed",
				"task_id", task.ID(),
				"task_type", task.Type(),
				"error_kind", KindOf(err),
				"error", redact.Error(err))
		},
	}
}

// SetErrorHandler allows setting a custom error handler function
func (r *TaskRunner) SetErrorHandler(handler func(task Task, err error)) {
	r.errHandler = handler
}

// Submit starts task in the background and returns immediately. The
// outcome is only observable through the stored task status.
func (r *TaskRunner) Submit(ctx context.Context, task Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.stopped {
		return ErrRunnerStopped
	}

	r.wg.Add(1)
	go r.run(task)

	r.logger.DebugContext(ctx, "task submitted", "task_id", task.ID(), "task_type", task.Type())
	return nil
}

// Start recovers tasks left over by a previous process when configured to.
func (r *TaskRunner) Start(ctx context.Context) error {
	if !r.config.RecoverOnStart {
		return nil
	}
	if err := r.Recover(ctx); err != nil {
		return fmt.Errorf("failed to recover tasks: %w", err)
	}
	return nil
}

// Stop refuses new submissions and waits for in-flight tasks. When ctx
// ends first, the remaining tasks are cancelled and end as interrupted.
func (r *TaskRunner) Stop(ctx context.Context) error {
	r.mu.Lock()
	r.stopped = true
	r.mu.Unlock()

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		r.cancelFunc()
		return nil
	case <-ctx.Done():
		r.logger.Warn("shutdown deadline reached, cancelling in-flight tasks")
		r.cancelFunc()
		<-done
		return ctx.Err()
	}
}

// Recover fails tasks a previous process left in progress and resubmits
// tasks that never started.
func (r *TaskRunner) Recover(ctx context.Context) error {
	interrupted, err := r.store.FindByStatus(ctx, domain.TaskStatusInProgress)
	if err != nil {
		return fmt.Errorf("failed to get in-progress tasks: %w", err)
	}

	pending, err := r.store.FindByStatus(ctx, domain.TaskStatusPending)
	if err != nil {
		return fmt.Errorf("failed to get pending tasks: %w", err)
	}

	r.logger.Info("recovering unfinished tasks",
		"pending_count", len(pending),
		"in_progress_count", len(interrupted))

	for _, t := range interrupted {
		err := r.store.UpdateStatus(ctx, t.ID,
			domain.TaskStatusInProgress, domain.TaskStatusFailed,
			domain.ErrorKindInterrupted, "processing was interrupted by a restart")
		if err != nil {
			r.logger.Error("failed to mark interrupted task as failed",
				"task_id", t.ID,
				"error", err)
		}
	}

	for _, t := range pending {
		work, err := r.factory.CreateTask(t.ID, t.StartDate, t.EndDate)
		if err != nil {
			r.logger.Error("failed to rebuild pending task", "task_id", t.ID, "error", err)
			r.fail(t.ID, domain.TaskStatusPending, &ExecutionError{Kind: domain.ErrorKindInternal, Err: err})
			continue
		}
		if err := r.Submit(ctx, work); err != nil {
			return fmt.Errorf("failed to resubmit task %d: %w", t.ID, err)
		}
	}

	return nil
}

// run drives one task from pending to a terminal status.
func (r *TaskRunner) run(task Task) {
	defer r.wg.Done()

	logger := r.logger.With("task_id", task.ID(), "task_type", task.Type())

	err := r.store.UpdateStatus(r.ctx, task.ID(),
		domain.TaskStatusPending, domain.TaskStatusInProgress, "", "")
	if err != nil {
		switch {
		case errors.Is(err, store.ErrTaskNotFound):
			logger.Warn("task not found, nothing to process")
		case errors.Is(err, store.ErrStatusConflict):
			logger.Warn("task is no longer pending, skipping")
		default:
			logger.Error("failed to mark task in progress", "error", redact.Error(err))
			kind := domain.ErrorKindStoreError
			if r.ctx.Err() != nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				kind = domain.ErrorKindInterrupted
			}
			r.fail(task.ID(), domain.TaskStatusPending, &ExecutionError{Kind: kind, Err: err})
		}
		return
	}

	logger.Info("processing task")
	started := time.Now()

	if err := r.execute(task); err != nil {
		r.fail(task.ID(), domain.TaskStatusInProgress, err)
		r.errHandler(task, err)
		return
	}

	ctx, cancel := r.statusContext()
	defer cancel()

	err = r.store.UpdateStatus(ctx, task.ID(),
		domain.TaskStatusInProgress, domain.TaskStatusCompleted, "", "")
	if err != nil {
		logger.Error("failed to mark task completed", "error", err)
		return
	}

	logger.Info("task completed successfully", "duration_ms", time.Since(started).Milliseconds())
}

func (r *TaskRunner) execute(task Task) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = &ExecutionError{Kind: domain.ErrorKindInternal, Err: fmt.Errorf("task panicked: %v", p)}
		}
	}()
	return task.Execute(r.ctx)
}

// fail moves a task from status from to failed, recording the kind of err.
func (r *TaskRunner) fail(taskID int64, from domain.TaskStatus, err error) {
	ctx, cancel := r.statusContext()
	defer cancel()

	kind := KindOf(err)
	updateErr := r.store.UpdateStatus(ctx, taskID, from, domain.TaskStatusFailed, kind, failureMessage(err))
	if updateErr != nil {
		r.logger.Error("failed to mark task failed",
			"task_id", taskID,
			"error_kind", kind,
			"cause", redact.Error(err),
			"error", redact.Error(updateErr))
	}
}

// failureMessage is the message stored with a failed task and shown to
// clients. It names where the failure happened but never carries the raw
// cause, which is only logged.
func failureMessage(err error) string {
	var recErr *source.RecordError
	if errors.As(err, &recErr) {
		return "malformed record in " + recErr.Location()
	}
	var unavailableErr *source.UnavailableError
	if errors.As(err, &unavailableErr) {
		return "source " + unavailableErr.Source + " could not be read"
	}

	switch KindOf(err) {
	case domain.ErrorKindSourceUnavailable:
		return "a source could not be read"
	case domain.ErrorKindMalformedRecord:
		return "a source record could not be converted"
	case domain.ErrorKindStoreError:
		return "the data store rejected the update"
	case domain.ErrorKindInterrupted:
		return "processing was interrupted"
	default:
		return "an internal error occurred"
	}
}

// statusContext outlives runner cancellation so that interrupted tasks can
// still record their final status.
func (r *TaskRunner) statusContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(r.ctx), r.config.StatusUpdateTimeout)
}
