package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/phrazzld/nutrition-api/internal/domain"
	"github.com/phrazzld/nutrition-api/internal/events"
	"github.com/phrazzld/nutrition-api/internal/store"
)

// TaskRepository is the subset of store.TaskStore the service uses.
type TaskRepository interface {
	Create(ctx context.Context, task *domain.Task) error
	GetByID(ctx context.Context, id int64) (*domain.Task, error)
	List(ctx context.Context) ([]*domain.Task, error)
	UpdateStatus(
		ctx context.Context,
		id int64,
		from, to domain.TaskStatus,
		errorKind domain.ErrorKind,
		errorMessage string,
	) error
}

// DataRowRepository is the subset of store.DataRowStore the service uses.
type DataRowRepository interface {
	Find(ctx context.Context, filter store.DataRowFilter) ([]*domain.DataRow, error)
}

// TaskService provides task and data row operations.
type TaskService interface {
	// CreateTask stores a pending task for [start, end] and schedules its
	// ingestion. It returns as soon as the task is stored.
	CreateTask(ctx context.Context, start, end time.Time) (*domain.Task, error)

	// GetTask returns a task by ID, or ErrTaskNotFound.
	GetTask(ctx context.Context, id int64) (*domain.Task, error)

	// ListTasks returns every task, newest first.
	ListTasks(ctx context.Context) ([]*domain.Task, error)

	// GetData returns the data rows matching filter ordered by date.
	GetData(ctx context.Context, filter store.DataRowFilter) ([]*domain.DataRow, error)
}

type taskServiceImpl struct {
	taskRepo     TaskRepository
	dataRepo     DataRowRepository
	eventEmitter events.EventEmitter
	logger       *slog.Logger
}

// NewTaskService creates a new TaskService.
// It returns an error if any of the required dependencies are nil.
func NewTaskService(
	taskRepo TaskRepository,
	dataRepo DataRowRepository,
	eventEmitter events.EventEmitter,
	logger *slog.Logger,
) (TaskService, error) {
	if taskRepo == nil {
		return nil, &TaskServiceError{Operation: "create_service", Message: "taskRepo cannot be nil"}
	}
	if dataRepo == nil {
		return nil, &TaskServiceError{Operation: "create_service", Message: "dataRepo cannot be nil"}
	}
	if eventEmitter == nil {
		return nil, &TaskServiceError{Operation: "create_service", Message: "eventEmitter cannot be nil"}
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &taskServiceImpl{
		taskRepo:     taskRepo,
		dataRepo:     dataRepo,
		eventEmitter: eventEmitter,
		logger:       logger.With("component", "task_service"),
	}, nil
}

// CreateTask persists a pending task and emits the ingestion request.
func (s *taskServiceImpl) CreateTask(ctx context.Context, start, end time.Time) (*domain.Task, error) {
	task, err := domain.NewTask(start, end)
	if err != nil {
		return nil, NewTaskServiceError("create_task", "invalid task", err)
	}

	if err := s.taskRepo.Create(ctx, task); err != nil {
		s.logger.ErrorContext(ctx, "failed to store task", "error", err)
		return nil, NewTaskServiceError("create_task", "failed to save task", err)
	}

	event := events.NewIngestionRequestedEvent(task)
	if err := s.eventEmitter.EmitEvent(ctx, event); err != nil {
		s.logger.ErrorContext(ctx, "failed to emit ingestion event",
			"error", err,
			"task_id", task.ID,
			"event_id", event.ID)

		// A pending task nobody will process must not linger.
		failErr := s.taskRepo.UpdateStatus(ctx, task.ID,
			domain.TaskStatusPending, domain.TaskStatusFailed,
			domain.ErrorKindInternal, "ingestion could not be scheduled")
		if failErr != nil {
			s.logger.ErrorContext(ctx, "failed to mark unscheduled task as failed",
				"error", failErr,
				"task_id", task.ID)
		}
		return nil, NewTaskServiceError("create_task", "failed to schedule ingestion", err)
	}

	s.logger.InfoContext(ctx, "task created",
		"task_id", task.ID,
		"start_date", task.StartDate,
		"end_date", task.EndDate,
		"event_id", event.ID)

	return task, nil
}

// GetTask retrieves a task by its ID.
func (s *taskServiceImpl) GetTask(ctx context.Context, id int64) (*domain.Task, error) {
	task, err := s.taskRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrTaskNotFound) {
			s.logger.DebugContext(ctx, "task not found", "task_id", id)
			return nil, ErrTaskNotFound
		}
		s.logger.ErrorContext(ctx, "failed to retrieve task", "error", err, "task_id", id)
		return nil, NewTaskServiceError("get_task", "failed to retrieve task", err)
	}
	return task, nil
}

// ListTasks returns every stored task.
func (s *taskServiceImpl) ListTasks(ctx context.Context) ([]*domain.Task, error) {
	tasks, err := s.taskRepo.List(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to list tasks", "error", err)
		return nil, NewTaskServiceError("list_tasks", "failed to list tasks", err)
	}
	return tasks, nil
}

// GetData returns matching data rows. Rows of unfinished tasks are
// included; the caller decides whether to wait for completion.
func (s *taskServiceImpl) GetData(ctx context.Context, filter store.DataRowFilter) ([]*domain.DataRow, error) {
	rows, err := s.dataRepo.Find(ctx, filter)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to query data rows", "error", err)
		return nil, NewTaskServiceError("get_data", "failed to query data rows", err)
	}
	return rows, nil
}
