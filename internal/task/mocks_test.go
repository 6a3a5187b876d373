package task

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/phrazzld/nutrition-api/internal/domain"
	"github.com/phrazzld/nutrition-api/internal/store"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

// mockStatusStore keeps tasks in memory and applies compare-and-set
// transitions the way the database store does.
type mockStatusStore struct {
	mu       sync.Mutex
	tasks    map[int64]*domain.Task
	history  map[int64][]domain.TaskStatus
	UpdateFn func(ctx context.Context, id int64, from, to domain.TaskStatus) error
	FindFn   func(ctx context.Context, status domain.TaskStatus) ([]*domain.Task, error)
}

func newMockStatusStore(tasks ...*domain.Task) *mockStatusStore {
	m := &mockStatusStore{
		tasks:   make(map[int64]*domain.Task),
		history: make(map[int64][]domain.TaskStatus),
	}
	for _, t := range tasks {
		m.tasks[t.ID] = t
		m.history[t.ID] = []domain.TaskStatus{t.Status}
	}
	return m
}

func (m *mockStatusStore) UpdateStatus(
	ctx context.Context,
	id int64,
	from, to domain.TaskStatus,
	errorKind domain.ErrorKind,
	errorMessage string,
) error {
	if m.UpdateFn != nil {
		if err := m.UpdateFn(ctx, id, from, to); err != nil {
			return err
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.tasks[id]
	if !ok {
		return store.ErrTaskNotFound
	}
	if t.Status != from {
		return store.ErrStatusConflict
	}

	if err := from.CheckTransition(to); err != nil {
		return err
	}
	t.Status = to
	if to == domain.TaskStatusFailed {
		t.ErrorKind, t.ErrorMessage = errorKind, errorMessage
	}
	m.history[id] = append(m.history[id], to)
	return nil
}

func (m *mockStatusStore) FindByStatus(ctx context.Context, status domain.TaskStatus) ([]*domain.Task, error) {
	if m.FindFn != nil {
		return m.FindFn(ctx, status)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	var out []*domain.Task
	for _, t := range m.tasks {
		if t.Status == status {
			cp := *t
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *mockStatusStore) get(id int64) domain.Task {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *m.tasks[id]
}

func (m *mockStatusStore) statusHistory(id int64) []domain.TaskStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.TaskStatus(nil), m.history[id]...)
}

func pendingTask(id int64) *domain.Task {
	return &domain.Task{
		ID:        id,
		Status:    domain.TaskStatusPending,
		StartDate: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC),
		CreatedAt: time.Now().UTC(),
	}
}

// mockTask is a Task whose behavior is set per test.
type mockTask struct {
	id        int64
	ExecuteFn func(ctx context.Context) error

	mu       sync.Mutex
	executed int
}

func newMockTask(id int64) *mockTask {
	return &mockTask{
		id:        id,
		ExecuteFn: func(ctx context.Context) error { return nil },
	}
}

func (t *mockTask) ID() int64    { return t.id }
func (t *mockTask) Type() string { return "mock" }

func (t *mockTask) Execute(ctx context.Context) error {
	t.mu.Lock()
	t.executed++
	t.mu.Unlock()
	return t.ExecuteFn(ctx)
}

func (t *mockTask) executions() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.executed
}

// mockRowSaver records saved batches.
type mockRowSaver struct {
	mu      sync.Mutex
	batches [][]*domain.DataRow
	SaveFn  func(ctx context.Context, rows []*domain.DataRow) error
}

func (s *mockRowSaver) SaveRows(ctx context.Context, rows []*domain.DataRow) error {
	if s.SaveFn != nil {
		if err := s.SaveFn(ctx, rows); err != nil {
			return err
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.batches = append(s.batches, rows)
	return nil
}

func (s *mockRowSaver) saved() [][]*domain.DataRow {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.batches
}

// mockReader serves a fixed dataset.
type mockReader struct {
	name         string
	person       domain.Person
	measurements []domain.Measurement
	ReadFn       func(ctx context.Context) ([]domain.Measurement, error)
}

func (r *mockReader) Name() string          { return r.name }
func (r *mockReader) Person() domain.Person { return r.person }

func (r *mockReader) Read(ctx context.Context) ([]domain.Measurement, error) {
	if r.ReadFn != nil {
		return r.ReadFn(ctx)
	}
	return r.measurements, nil
}

// mockFactory builds tasks with a function field.
type mockFactory struct {
	CreateFn func(taskID int64, start, end time.Time) (Task, error)
}

func (f *mockFactory) CreateTask(taskID int64, start, end time.Time) (Task, error) {
	return f.CreateFn(taskID, start, end)
}

// mockSubmitter records submitted tasks.
type mockSubmitter struct {
	mu        sync.Mutex
	submitted []Task
	SubmitFn  func(ctx context.Context, task Task) error
}

func (s *mockSubmitter) Submit(ctx context.Context, task Task) error {
	if s.SubmitFn != nil {
		if err := s.SubmitFn(ctx, task); err != nil {
			return err
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.submitted = append(s.submitted, task)
	return nil
}
