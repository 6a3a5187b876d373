package main

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/phrazzld/nutrition-api/internal/config"
	"github.com/phrazzld/nutrition-api/internal/domain"
	"github.com/phrazzld/nutrition-api/internal/ratelimit"
	"github.com/phrazzld/nutrition-api/internal/store"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			Port:            8000,
			LogLevel:        "debug",
			ShutdownTimeout: 5 * time.Second,
		},
		Sources: config.SourcesConfig{
			PersonXPath: "../../internal/source/testdata/person_x.json",
			PersonYPath: "../../internal/source/testdata/person_y.csv",
		},
		RateLimit: config.RateLimitConfig{
			RequestsPerMinute: 100,
			Backend:           "memory",
		},
		CORS: config.CORSConfig{
			AllowedOrigins: []string{"http://localhost:3000"},
		},
	}
}

// stubTaskService is a service.TaskService with function fields.
type stubTaskService struct {
	CreateTaskFn func(ctx context.Context, start, end time.Time) (*domain.Task, error)
	GetTaskFn    func(ctx context.Context, id int64) (*domain.Task, error)
	ListTasksFn  func(ctx context.Context) ([]*domain.Task, error)
	GetDataFn    func(ctx context.Context, filter store.DataRowFilter) ([]*domain.DataRow, error)
}

func (s *stubTaskService) CreateTask(ctx context.Context, start, end time.Time) (*domain.Task, error) {
	if s.CreateTaskFn != nil {
		return s.CreateTaskFn(ctx, start, end)
	}
	return &domain.Task{ID: 1, Status: domain.TaskStatusPending, StartDate: start, EndDate: end}, nil
}

func (s *stubTaskService) GetTask(ctx context.Context, id int64) (*domain.Task, error) {
	if s.GetTaskFn != nil {
		return s.GetTaskFn(ctx, id)
	}
	return &domain.Task{ID: id, Status: domain.TaskStatusPending}, nil
}

func (s *stubTaskService) ListTasks(ctx context.Context) ([]*domain.Task, error) {
	if s.ListTasksFn != nil {
		return s.ListTasksFn(ctx)
	}
	return nil, nil
}

func (s *stubTaskService) GetData(ctx context.Context, filter store.DataRowFilter) ([]*domain.DataRow, error) {
	if s.GetDataFn != nil {
		return s.GetDataFn(ctx, filter)
	}
	return nil, nil
}

// newTestApplication builds an application around svc without a database.
func newTestApplication(svc *stubTaskService, perMinute int) *application {
	limiter, err := ratelimit.NewMemoryLimiter(perMinute)
	if err != nil {
		panic(err)
	}
	return &application{
		config:      testConfig(),
		logger:      discardLogger(),
		taskService: svc,
		limiter:     limiter,
	}
}
