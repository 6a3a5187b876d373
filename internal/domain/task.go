package domain

import (
	"errors"
	"fmt"
	"time"
)

// TaskStatus represents the lifecycle state of an ingestion task.
type TaskStatus string

// Possible task status values. The string values are part of the public API.
const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusInProgress TaskStatus = "in progress"
	TaskStatusCompleted  TaskStatus = "completed"
	TaskStatusFailed     TaskStatus = "failed"
)

// ErrorKind classifies why a task ended in the failed state.
type ErrorKind string

// Known failure kinds.
const (
	ErrorKindNone              ErrorKind = ""
	ErrorKindSourceUnavailable ErrorKind = "source_unavailable"
	ErrorKindMalformedRecord   ErrorKind = "malformed_record"
	ErrorKindStoreError        ErrorKind = "store_error"
	ErrorKindInterrupted       ErrorKind = "interrupted"
	ErrorKindInternal          ErrorKind = "internal"
)

// Task validation errors
var (
	ErrInvalidTaskStatus  = errors.New("invalid task status")
	ErrInvalidTransition  = errors.New("invalid task status transition")
	ErrEmptyTaskDateRange = errors.New("task date range cannot be empty")
)

// Valid reports whether s is one of the known statuses.
func (s TaskStatus) Valid() bool {
	switch s {
	case TaskStatusPending, TaskStatusInProgress, TaskStatusCompleted, TaskStatusFailed:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether no further transition is possible from s.
func (s TaskStatus) IsTerminal() bool {
	return s == TaskStatusCompleted || s == TaskStatusFailed
}

// CanTransitionTo reports whether moving from s to next keeps the lifecycle
// monotonic: pending -> in progress -> completed|failed. A pending task may
// also fail directly (e.g. it could not be scheduled).
func (s TaskStatus) CanTransitionTo(next TaskStatus) bool {
	switch s {
	case TaskStatusPending:
		return next == TaskStatusInProgress || next == TaskStatusFailed
	case TaskStatusInProgress:
		return next == TaskStatusCompleted || next == TaskStatusFailed
	default:
		return false
	}
}

// CheckTransition returns nil when s may move to next, ErrInvalidTaskStatus
// when next is unknown and a wrapped ErrInvalidTransition otherwise.
func (s TaskStatus) CheckTransition(next TaskStatus) error {
	if !next.Valid() {
		return ErrInvalidTaskStatus
	}
	if !s.CanTransitionTo(next) {
		return fmt.Errorf("%w: %q -> %q", ErrInvalidTransition, s, next)
	}
	return nil
}

// Task is a unit of asynchronous ingestion work. The ID is assigned by the
// store on creation; CreatedAt never changes afterwards.
type Task struct {
	ID           int64      `json:"id"`
	Status       TaskStatus `json:"status"`
	StartDate    time.Time  `json:"start_date"`
	EndDate      time.Time  `json:"end_date"`
	ErrorKind    ErrorKind  `json:"error_kind,omitempty"`
	ErrorMessage string     `json:"error_message,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// NewTask creates a pending task covering [start, end]. Both bounds are
// normalized to naive time. An inverted range is accepted and simply matches
// no records.
func NewTask(start, end time.Time) (*Task, error) {
	now := time.Now().UTC().Truncate(time.Microsecond)
	task := &Task{
		Status:    TaskStatusPending,
		StartDate: Naive(start),
		EndDate:   Naive(end),
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := task.Validate(); err != nil {
		return nil, err
	}

	return task, nil
}

// Validate checks that the task holds a consistent state.
func (t *Task) Validate() error {
	if !t.Status.Valid() {
		return ErrInvalidTaskStatus
	}
	if t.StartDate.IsZero() || t.EndDate.IsZero() {
		return ErrEmptyTaskDateRange
	}
	if t.Status != TaskStatusFailed && (t.ErrorKind != ErrorKindNone || t.ErrorMessage != "") {
		return NewValidationError("error_kind", "is only allowed on failed tasks", nil)
	}
	return nil
}
