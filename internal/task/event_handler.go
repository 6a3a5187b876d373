package task

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/phrazzld/nutrition-api/internal/events"
)

// Submitter accepts tasks for background execution.
type Submitter interface {
	Submit(ctx context.Context, task Task) error
}

// TaskFactoryEventHandler turns ingestion requests into submitted tasks.
type TaskFactoryEventHandler struct {
	taskFactory TaskFactory
	taskRunner  Submitter
	logger      *slog.Logger
}

// Ensure TaskFactoryEventHandler implements events.EventHandler
var _ events.EventHandler = (*TaskFactoryEventHandler)(nil)

// NewTaskFactoryEventHandler creates a new event handler that uses the given task factory
// to create tasks, and submits them to the provided task runner.
func NewTaskFactoryEventHandler(
	taskFactory TaskFactory,
	taskRunner Submitter,
	logger *slog.Logger,
) *TaskFactoryEventHandler {
	return &TaskFactoryEventHandler{
		taskFactory: taskFactory,
		taskRunner:  taskRunner,
		logger:      logger.With("component", "task_factory_event_handler"),
	}
}

// HandleEvent builds the ingestion task for the event and submits it.
func (h *TaskFactoryEventHandler) HandleEvent(
	ctx context.Context,
	event *events.IngestionRequestedEvent,
) error {
	h.logger.DebugContext(ctx, "creating ingestion task",
		"task_id", event.TaskID,
		"event_id", event.ID)

	task, err := h.taskFactory.CreateTask(event.TaskID, event.StartDate, event.EndDate)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to create task",
			"error", err,
			"task_id", event.TaskID,
			"event_id", event.ID)
		return fmt.Errorf("failed to create task: %w", err)
	}

	if err := h.taskRunner.Submit(ctx, task); err != nil {
		h.logger.ErrorContext(ctx, "failed to submit task",
			"error", err,
			"task_id", event.TaskID,
			"event_id", event.ID)
		return fmt.Errorf("failed to submit task: %w", err)
	}

	h.logger.InfoContext(ctx, "task created and submitted successfully",
		"task_id", event.TaskID,
		"event_id", event.ID)
	return nil
}
