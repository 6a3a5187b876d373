package service

import (
	"context"
	"database/sql"

	"github.com/phrazzld/nutrition-api/internal/domain"
	"github.com/phrazzld/nutrition-api/internal/events"
	"github.com/phrazzld/nutrition-api/internal/store"
	"github.com/stretchr/testify/mock"
)

// MockTaskRepository mocks the TaskRepository interface
type MockTaskRepository struct {
	mock.Mock
}

func (m *MockTaskRepository) Create(ctx context.Context, task *domain.Task) error {
	args := m.Called(ctx, task)
	return args.Error(0)
}

func (m *MockTaskRepository) GetByID(ctx context.Context, id int64) (*domain.Task, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Task), args.Error(1)
}

func (m *MockTaskRepository) List(ctx context.Context) ([]*domain.Task, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Task), args.Error(1)
}

func (m *MockTaskRepository) UpdateStatus(
	ctx context.Context,
	id int64,
	from, to domain.TaskStatus,
	errorKind domain.ErrorKind,
	errorMessage string,
) error {
	args := m.Called(ctx, id, from, to, errorKind, errorMessage)
	return args.Error(0)
}

// MockDataRowStore mocks store.DataRowStore
type MockDataRowStore struct {
	mock.Mock
}

func (m *MockDataRowStore) CreateMultiple(ctx context.Context, rows []*domain.DataRow) error {
	args := m.Called(ctx, rows)
	return args.Error(0)
}

func (m *MockDataRowStore) Find(ctx context.Context, filter store.DataRowFilter) ([]*domain.DataRow, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.DataRow), args.Error(1)
}

func (m *MockDataRowStore) Count(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockDataRowStore) WithTx(tx *sql.Tx) store.DataRowStore {
	m.Called(tx)
	return m
}

// MockEventEmitter mocks events.EventEmitter
type MockEventEmitter struct {
	mock.Mock
}

func (m *MockEventEmitter) EmitEvent(ctx context.Context, event *events.IngestionRequestedEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}
