package postgres

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/phrazzld/nutrition-api/internal/domain"
	"github.com/phrazzld/nutrition-api/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		_ = db.Close()
	})
	return db, mock
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

var (
	taskStart = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	taskEnd   = time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC)
)

func taskRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "status", "start_date", "end_date", "error_kind", "error_message", "created_at", "updated_at",
	})
}

func TestPostgresTaskStore_Create(t *testing.T) {
	t.Parallel()

	db, mock := newMockDB(t)
	s := NewPostgresTaskStore(db, discardLogger())

	task, err := domain.NewTask(taskStart, taskEnd)
	require.NoError(t, err)

	mock.ExpectQuery("INSERT INTO tasks").
		WithArgs("pending", taskStart, taskEnd, "", "", task.CreatedAt, task.UpdatedAt).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(7)))

	require.NoError(t, s.Create(context.Background(), task))
	assert.Equal(t, int64(7), task.ID)
}

func TestPostgresTaskStore_Create_InvalidTask(t *testing.T) {
	t.Parallel()

	db, _ := newMockDB(t)
	s := NewPostgresTaskStore(db, discardLogger())

	err := s.Create(context.Background(), &domain.Task{Status: "bogus", StartDate: taskStart, EndDate: taskEnd})
	assert.ErrorIs(t, err, store.ErrInvalidEntity)
	assert.ErrorIs(t, err, domain.ErrInvalidTaskStatus)
}

func TestPostgresTaskStore_GetByID(t *testing.T) {
	t.Parallel()

	t.Run("found", func(t *testing.T) {
		t.Parallel()

		db, mock := newMockDB(t)
		s := NewPostgresTaskStore(db, discardLogger())
		created := time.Date(2024, 2, 1, 10, 0, 0, 0, time.UTC)

		mock.ExpectQuery(regexp.QuoteMeta("FROM tasks WHERE id = $1")).
			WithArgs(int64(3)).
			WillReturnRows(taskRows().AddRow(
				int64(3), "failed", taskStart, taskEnd, "source_unavailable", "missing", created, created))

		got, err := s.GetByID(context.Background(), 3)
		require.NoError(t, err)
		assert.Equal(t, int64(3), got.ID)
		assert.Equal(t, domain.TaskStatusFailed, got.Status)
		assert.Equal(t, domain.ErrorKindSourceUnavailable, got.ErrorKind)
		assert.Equal(t, "missing", got.ErrorMessage)
		assert.Equal(t, taskStart, got.StartDate)
		assert.Equal(t, created, got.CreatedAt)
	})

	t.Run("not found", func(t *testing.T) {
		t.Parallel()

		db, mock := newMockDB(t)
		s := NewPostgresTaskStore(db, discardLogger())

		mock.ExpectQuery(regexp.QuoteMeta("FROM tasks WHERE id = $1")).
			WithArgs(int64(99)).
			WillReturnRows(taskRows())

		_, err := s.GetByID(context.Background(), 99)
		assert.ErrorIs(t, err, store.ErrTaskNotFound)
		assert.ErrorIs(t, err, store.ErrNotFound)
	})
}

func TestPostgresTaskStore_List(t *testing.T) {
	t.Parallel()

	db, mock := newMockDB(t)
	s := NewPostgresTaskStore(db, discardLogger())
	now := time.Now().UTC().Truncate(time.Second)

	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY created_at DESC, id DESC")).
		WillReturnRows(taskRows().
			AddRow(int64(2), "pending", taskStart, taskEnd, "", "", now, now).
			AddRow(int64(1), "completed", taskStart, taskEnd, "", "", now, now))

	tasks, err := s.List(context.Background())
	require.NoError(t, err)
	require.Len(t, tasks, 2)
	assert.Equal(t, int64(2), tasks[0].ID)
	assert.Equal(t, int64(1), tasks[1].ID)
}

func TestPostgresTaskStore_List_Empty(t *testing.T) {
	t.Parallel()

	db, mock := newMockDB(t)
	s := NewPostgresTaskStore(db, discardLogger())

	mock.ExpectQuery("FROM tasks").WillReturnRows(taskRows())

	tasks, err := s.List(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, tasks)
	assert.Empty(t, tasks)
}

func TestPostgresTaskStore_FindByStatus(t *testing.T) {
	t.Parallel()

	db, mock := newMockDB(t)
	s := NewPostgresTaskStore(db, discardLogger())
	now := time.Now().UTC().Truncate(time.Second)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE status = $1 ORDER BY created_at ASC")).
		WithArgs("pending").
		WillReturnRows(taskRows().AddRow(int64(4), "pending", taskStart, taskEnd, "", "", now, now))

	tasks, err := s.FindByStatus(context.Background(), domain.TaskStatusPending)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, int64(4), tasks[0].ID)
}

func TestPostgresTaskStore_UpdateStatus(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		from    domain.TaskStatus
		to      domain.TaskStatus
		kind    domain.ErrorKind
		msg     string
		setup   func(mock sqlmock.Sqlmock)
		wantErr error
	}{
		{
			name: "start processing",
			from: domain.TaskStatusPending,
			to:   domain.TaskStatusInProgress,
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec("UPDATE tasks").
					WithArgs("in progress", "", "", sqlmock.AnyArg(), int64(1), "pending").
					WillReturnResult(sqlmock.NewResult(0, 1))
			},
		},
		{
			name: "error details only kept for failed",
			from: domain.TaskStatusInProgress,
			to:   domain.TaskStatusCompleted,
			kind: domain.ErrorKindStoreError,
			msg:  "ignored",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec("UPDATE tasks").
					WithArgs("completed", "", "", sqlmock.AnyArg(), int64(1), "in progress").
					WillReturnResult(sqlmock.NewResult(0, 1))
			},
		},
		{
			name: "fail with reason",
			from: domain.TaskStatusInProgress,
			to:   domain.TaskStatusFailed,
			kind: domain.ErrorKindMalformedRecord,
			msg:  "record 2",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec("UPDATE tasks").
					WithArgs("failed", "malformed_record", "record 2", sqlmock.AnyArg(), int64(1), "in progress").
					WillReturnResult(sqlmock.NewResult(0, 1))
			},
		},
		{
			name: "status moved on",
			from: domain.TaskStatusPending,
			to:   domain.TaskStatusInProgress,
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec("UPDATE tasks").WillReturnResult(sqlmock.NewResult(0, 0))
				mock.ExpectQuery(regexp.QuoteMeta("SELECT status FROM tasks WHERE id = $1")).
					WithArgs(int64(1)).
					WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow("completed"))
			},
			wantErr: store.ErrStatusConflict,
		},
		{
			name: "task missing",
			from: domain.TaskStatusPending,
			to:   domain.TaskStatusInProgress,
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec("UPDATE tasks").WillReturnResult(sqlmock.NewResult(0, 0))
				mock.ExpectQuery(regexp.QuoteMeta("SELECT status FROM tasks WHERE id = $1")).
					WithArgs(int64(1)).
					WillReturnRows(sqlmock.NewRows([]string{"status"}))
			},
			wantErr: store.ErrTaskNotFound,
		},
		{
			name:    "non-monotonic transition rejected before querying",
			from:    domain.TaskStatusCompleted,
			to:      domain.TaskStatusInProgress,
			setup:   func(mock sqlmock.Sqlmock) {},
			wantErr: domain.ErrInvalidTransition,
		},
		{
			name:    "unknown status",
			from:    domain.TaskStatusPending,
			to:      "archived",
			setup:   func(mock sqlmock.Sqlmock) {},
			wantErr: domain.ErrInvalidTaskStatus,
		},
		{
			name: "driver error",
			from: domain.TaskStatusPending,
			to:   domain.TaskStatusInProgress,
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec("UPDATE tasks").WillReturnError(sql.ErrConnDone)
			},
			wantErr: sql.ErrConnDone,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			db, mock := newMockDB(t)
			s := NewPostgresTaskStore(db, discardLogger())
			tc.setup(mock)

			err := s.UpdateStatus(context.Background(), 1, tc.from, tc.to, tc.kind, tc.msg)
			if tc.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tc.wantErr)
		})
	}
}

func TestPostgresTaskStore_Count(t *testing.T) {
	t.Parallel()

	db, mock := newMockDB(t)
	s := NewPostgresTaskStore(db, discardLogger())

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM tasks")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(12)))

	n, err := s.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(12), n)
}

func TestPostgresTaskStore_WithTx(t *testing.T) {
	t.Parallel()

	db, mock := newMockDB(t)
	s := NewPostgresTaskStore(db, discardLogger())

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM tasks")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(0)))
	mock.ExpectRollback()

	tx, err := db.Begin()
	require.NoError(t, err)

	_, err = s.WithTx(tx).Count(context.Background())
	require.NoError(t, err)
	require.NoError(t, tx.Rollback())
}

func TestNewPostgresTaskStore_NilDB(t *testing.T) {
	t.Parallel()

	assert.Panics(t, func() { NewPostgresTaskStore(nil, nil) })
	assert.NotNil(t, NewPostgresTaskStore(&sql.DB{}, nil).logger, "nil logger falls back to the default")
}
