package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/phrazzld/tasktrail/internal/domain"
	"github.com/phrazzld/tasktrail/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPostgresTaskStore(t *testing.T) {
	t.Run("panics on nil db", func(t *testing.T) {
		assert.Panics(t, func() {
			NewPostgresTaskStore(nil, nil)
		})
	})

	t.Run("accepts nil logger", func(t *testing.T) {
		s := NewPostgresTaskStore(&sql.DB{}, nil)
		require.NotNil(t, s)
		assert.NotNil(t, s.logger)
	})
}

func TestCreateRejectsInvalidTask(t *testing.T) {
	// Validation runs before any database work, so an empty connection
	// handle is never touched.
	s := NewPostgresTaskStore(&sql.DB{}, nil)

	task := &domain.Task{
		Title:  "",
		Status: domain.TaskStatusPending,
	}

	created, err := s.Create(context.Background(), task)
	assert.Nil(t, created)
	assert.True(t, domain.IsValidationError(err))
}

func TestUpdateRejectsInvalidTask(t *testing.T) {
	s := NewPostgresTaskStore(&sql.DB{}, nil)

	task := &domain.Task{
		Title:  "ok title",
		Status: domain.TaskStatus("BOGUS"),
	}

	updated, err := s.Update(context.Background(), 1, task, "Status changed from 'Pending' to 'Bogus'")
	assert.Nil(t, updated)
	assert.Error(t, err)
}

func TestListRejectsInvalidFilter(t *testing.T) {
	// Filter normalization runs before any query is built.
	s := NewPostgresTaskStore(&sql.DB{}, nil)

	cases := []struct {
		name   string
		filter store.TaskFilter
	}{
		{"bad status", store.TaskFilter{Status: "ARCHIVED"}},
		{"bad sort column", store.TaskFilter{SortBy: "id; DROP TABLE tasks"}},
		{"bad sort direction", store.TaskFilter{SortDir: "sideways"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tasks, err := s.List(context.Background(), tc.filter)
			assert.Nil(t, tasks)
			assert.ErrorIs(t, err, store.ErrInvalidFilter)
		})
	}
}

func TestScanTask(t *testing.T) {
	now := time.Now().UTC()

	t.Run("populates deleted_at when valid", func(t *testing.T) {
		var task domain.Task
		err := scanTask(stubScanner{values: []any{
			int64(7), "title", "desc", "PENDING", now, now, now, sql.NullTime{Time: now, Valid: true},
		}}, &task)
		require.NoError(t, err)
		assert.Equal(t, int64(7), task.ID)
		assert.Equal(t, domain.TaskStatusPending, task.Status)
		require.NotNil(t, task.DeletedAt)
		assert.True(t, task.DeletedAt.Equal(now))
	})

	t.Run("leaves deleted_at nil when null", func(t *testing.T) {
		var task domain.Task
		err := scanTask(stubScanner{values: []any{
			int64(7), "title", "desc", "COMPLETED", now, now, now, sql.NullTime{},
		}}, &task)
		require.NoError(t, err)
		assert.Nil(t, task.DeletedAt)
		assert.Equal(t, domain.TaskStatusCompleted, task.Status)
	})
}

// stubScanner feeds canned column values to scanTask.
type stubScanner struct {
	values []any
}

func (s stubScanner) Scan(dest ...any) error {
	for i, d := range dest {
		switch target := d.(type) {
		case *int64:
			*target = s.values[i].(int64)
		case *string:
			*target = s.values[i].(string)
		case *time.Time:
			*target = s.values[i].(time.Time)
		case *sql.NullTime:
			*target = s.values[i].(sql.NullTime)
		}
	}
	return nil
}
