package events

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/nutrition-api/internal/domain"
)

// IngestionRequestedEvent announces that a stored pending task should be processed.
type IngestionRequestedEvent struct {
	// ID uniquely identifies this event for log correlation.
	ID uuid.UUID

	TaskID    int64
	StartDate time.Time
	EndDate   time.Time

	CreatedAt time.Time
}

// NewIngestionRequestedEvent builds the event for a stored task.
func NewIngestionRequestedEvent(task *domain.Task) *IngestionRequestedEvent {
	return &IngestionRequestedEvent{
		ID:        uuid.New(),
		TaskID:    task.ID,
		StartDate: task.StartDate,
		EndDate:   task.EndDate,
		CreatedAt: time.Now().UTC(),
	}
}

// EventHandler reacts to ingestion requests.
type EventHandler interface {
	// HandleEvent processes the event. It must not block on the ingestion itself.
	HandleEvent(ctx context.Context, event *IngestionRequestedEvent) error
}

// EventEmitter publishes ingestion requests to registered handlers.
type EventEmitter interface {
	// EmitEvent publishes the event to all registered handlers.
	EmitEvent(ctx context.Context, event *IngestionRequestedEvent) error
}
