package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/phrazzld/tasktrail/internal/domain"
	"github.com/phrazzld/tasktrail/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeTaskStore is an in-memory store.TaskStore that records the arguments
// of mutation calls so tests can assert on what the service handed down.
type fakeTaskStore struct {
	tasks   map[int64]*domain.Task
	history map[int64][]*domain.HistoryEntry
	nextID  int64

	// recorded arguments
	lastUpdateSummary string
	updateCalls       int
	createCalls       int

	// injected failures
	getErr    error
	createErr error
	updateErr error
}

func newFakeTaskStore() *fakeTaskStore {
	return &fakeTaskStore{
		tasks:   make(map[int64]*domain.Task),
		history: make(map[int64][]*domain.HistoryEntry),
		nextID:  1,
	}
}

func (f *fakeTaskStore) seed(task domain.Task) *domain.Task {
	task.ID = f.nextID
	f.nextID++
	stored := task
	f.tasks[stored.ID] = &stored
	return &stored
}

func (f *fakeTaskStore) Create(ctx context.Context, task *domain.Task) (*domain.Task, error) {
	f.createCalls++
	if f.createErr != nil {
		return nil, f.createErr
	}
	created := f.seed(*task)
	f.history[created.ID] = []*domain.HistoryEntry{{
		ID:            int64(len(f.history[created.ID]) + 1),
		TaskID:        created.ID,
		ChangeSummary: domain.HistoryTaskCreated,
		ChangedAt:     created.CreatedAt,
	}}
	return created, nil
}

func (f *fakeTaskStore) Update(ctx context.Context, id int64, task *domain.Task, changeSummary string) (*domain.Task, error) {
	f.updateCalls++
	f.lastUpdateSummary = changeSummary
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	existing, ok := f.tasks[id]
	if !ok || existing.IsDeleted() {
		return nil, store.ErrTaskNotFound
	}
	updated := *task
	updated.ID = id
	f.tasks[id] = &updated
	if changeSummary != "" {
		f.history[id] = append(f.history[id], &domain.HistoryEntry{
			ID:            int64(len(f.history[id]) + 1),
			TaskID:        id,
			ChangeSummary: changeSummary,
			ChangedAt:     updated.UpdatedAt,
		})
	}
	return &updated, nil
}

func (f *fakeTaskStore) Delete(ctx context.Context, id int64) error {
	existing, ok := f.tasks[id]
	if !ok || existing.IsDeleted() {
		return store.ErrTaskNotFound
	}
	now := time.Now().UTC()
	existing.DeletedAt = &now
	f.history[id] = append(f.history[id], &domain.HistoryEntry{
		TaskID:        id,
		ChangeSummary: domain.HistoryTaskDeleted,
		ChangedAt:     now,
	})
	return nil
}

func (f *fakeTaskStore) GetByID(ctx context.Context, id int64) (*domain.Task, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	existing, ok := f.tasks[id]
	if !ok || existing.IsDeleted() {
		return nil, store.ErrTaskNotFound
	}
	copied := *existing
	return &copied, nil
}

func (f *fakeTaskStore) List(ctx context.Context, filter store.TaskFilter) ([]*domain.Task, error) {
	filter, err := filter.Normalize()
	if err != nil {
		return nil, err
	}
	var tasks []*domain.Task
	for _, task := range f.tasks {
		if !task.IsDeleted() {
			tasks = append(tasks, task)
		}
	}
	return tasks, nil
}

func (f *fakeTaskStore) GetHistory(ctx context.Context, taskID int64) ([]*domain.HistoryEntry, error) {
	return f.history[taskID], nil
}

func seedTask(f *fakeTaskStore) *domain.Task {
	return f.seed(domain.Task{
		Title:       "Prepare deployment checklist",
		Description: "Cover rollback steps",
		Status:      domain.TaskStatusPending,
		DueDate:     time.Now().UTC().Add(72 * time.Hour),
		CreatedAt:   time.Now().UTC().Add(-time.Hour),
		UpdatedAt:   time.Now().UTC().Add(-time.Hour),
	})
}

func TestNewTaskService(t *testing.T) {
	t.Run("panics on nil store", func(t *testing.T) {
		assert.Panics(t, func() {
			NewTaskService(nil, nil)
		})
	})

	t.Run("accepts nil logger", func(t *testing.T) {
		svc := NewTaskService(newFakeTaskStore(), nil)
		assert.NotNil(t, svc)
	})
}

func TestCreateTask(t *testing.T) {
	t.Run("valid input creates task with defaults", func(t *testing.T) {
		fake := newFakeTaskStore()
		svc := NewTaskService(fake, nil)

		created, err := svc.CreateTask(context.Background(), CreateTaskParams{
			Title:   "New task",
			DueDate: time.Now().UTC().Add(time.Hour),
		})
		require.NoError(t, err)
		assert.Equal(t, domain.TaskStatusPending, created.Status, "status defaults to pending")
		assert.NotZero(t, created.ID)
	})

	t.Run("validation failure never reaches the store", func(t *testing.T) {
		fake := newFakeTaskStore()
		svc := NewTaskService(fake, nil)

		created, err := svc.CreateTask(context.Background(), CreateTaskParams{
			Title:   "",
			DueDate: time.Now().UTC().Add(time.Hour),
		})
		assert.Nil(t, created)
		assert.True(t, domain.IsValidationError(err))
		assert.Zero(t, fake.createCalls)
	})

	t.Run("past due date rejected", func(t *testing.T) {
		fake := newFakeTaskStore()
		svc := NewTaskService(fake, nil)

		_, err := svc.CreateTask(context.Background(), CreateTaskParams{
			Title:   "Too late",
			DueDate: time.Now().UTC().Add(-time.Hour),
		})
		assert.ErrorIs(t, err, domain.ErrDueDateNotFuture)
		assert.Zero(t, fake.createCalls)
	})

	t.Run("store error propagates", func(t *testing.T) {
		fake := newFakeTaskStore()
		fake.createErr = errors.New("connection reset")
		svc := NewTaskService(fake, nil)

		_, err := svc.CreateTask(context.Background(), CreateTaskParams{
			Title:   "New task",
			DueDate: time.Now().UTC().Add(time.Hour),
		})
		assert.ErrorContains(t, err, "connection reset")
	})
}

func TestGetTask(t *testing.T) {
	fake := newFakeTaskStore()
	seeded := seedTask(fake)
	svc := NewTaskService(fake, nil)

	got, err := svc.GetTask(context.Background(), seeded.ID)
	require.NoError(t, err)
	assert.Equal(t, seeded.ID, got.ID)

	_, err = svc.GetTask(context.Background(), 42)
	assert.ErrorIs(t, err, store.ErrTaskNotFound)
}

func TestUpdateTask(t *testing.T) {
	t.Run("multi-field change produces ordered summary", func(t *testing.T) {
		fake := newFakeTaskStore()
		seeded := seedTask(fake)
		svc := NewTaskService(fake, nil)

		newStatus := domain.TaskStatusInProgress
		newTitle := "Finalize deployment checklist"
		updated, err := svc.UpdateTask(context.Background(), seeded.ID, domain.TaskPatch{
			Title:  &newTitle,
			Status: &newStatus,
		})
		require.NoError(t, err)
		assert.Equal(t, newTitle, updated.Title)
		assert.Equal(t, newStatus, updated.Status)

		// Clauses follow the fixed field order: title before status.
		expected := "Title changed from 'Prepare deployment checklist' to 'Finalize deployment checklist'\n" +
			"Status changed from 'Pending' to 'In Progress'"
		assert.Equal(t, expected, fake.lastUpdateSummary)
	})

	t.Run("no-op patch passes empty summary to the store", func(t *testing.T) {
		fake := newFakeTaskStore()
		seeded := seedTask(fake)
		svc := NewTaskService(fake, nil)

		sameTitle := seeded.Title
		updated, err := svc.UpdateTask(context.Background(), seeded.ID, domain.TaskPatch{
			Title: &sameTitle,
		})
		require.NoError(t, err)
		assert.Equal(t, seeded.Title, updated.Title)
		assert.Equal(t, 1, fake.updateCalls)
		assert.Empty(t, fake.lastUpdateSummary, "identical values must not produce a change summary")
	})

	t.Run("absent fields keep current values", func(t *testing.T) {
		fake := newFakeTaskStore()
		seeded := seedTask(fake)
		svc := NewTaskService(fake, nil)

		newStatus := domain.TaskStatusCompleted
		updated, err := svc.UpdateTask(context.Background(), seeded.ID, domain.TaskPatch{
			Status: &newStatus,
		})
		require.NoError(t, err)
		assert.Equal(t, seeded.Title, updated.Title)
		assert.Equal(t, seeded.Description, updated.Description)
		assert.Equal(t, newStatus, updated.Status)
	})

	t.Run("validation failure never reaches the store", func(t *testing.T) {
		fake := newFakeTaskStore()
		seeded := seedTask(fake)
		svc := NewTaskService(fake, nil)

		badTitle := "contains <angle> brackets"
		_, err := svc.UpdateTask(context.Background(), seeded.ID, domain.TaskPatch{
			Title: &badTitle,
		})
		assert.True(t, domain.IsValidationError(err))
		assert.Zero(t, fake.updateCalls)
	})

	t.Run("changing due date to the past rejected", func(t *testing.T) {
		fake := newFakeTaskStore()
		seeded := seedTask(fake)
		svc := NewTaskService(fake, nil)

		past := time.Now().UTC().Add(-time.Hour)
		_, err := svc.UpdateTask(context.Background(), seeded.ID, domain.TaskPatch{
			DueDate: &past,
		})
		assert.ErrorIs(t, err, domain.ErrDueDateNotFuture)
		assert.Zero(t, fake.updateCalls)
	})

	t.Run("resubmitting unchanged past due date allowed", func(t *testing.T) {
		fake := newFakeTaskStore()
		past := time.Now().UTC().Add(-24 * time.Hour)
		seeded := fake.seed(domain.Task{
			Title:     "Stale task",
			Status:    domain.TaskStatusPending,
			DueDate:   past,
			CreatedAt: past,
			UpdatedAt: past,
		})
		svc := NewTaskService(fake, nil)

		newTitle := "Stale task renamed"
		samePast := past
		updated, err := svc.UpdateTask(context.Background(), seeded.ID, domain.TaskPatch{
			Title:   &newTitle,
			DueDate: &samePast,
		})
		require.NoError(t, err)
		assert.Equal(t, newTitle, updated.Title)
	})

	t.Run("missing task", func(t *testing.T) {
		fake := newFakeTaskStore()
		svc := NewTaskService(fake, nil)

		title := "anything"
		_, err := svc.UpdateTask(context.Background(), 42, domain.TaskPatch{Title: &title})
		assert.ErrorIs(t, err, store.ErrTaskNotFound)
		assert.Zero(t, fake.updateCalls)
	})
}

func TestDeleteTask(t *testing.T) {
	fake := newFakeTaskStore()
	seeded := seedTask(fake)
	svc := NewTaskService(fake, nil)

	require.NoError(t, svc.DeleteTask(context.Background(), seeded.ID))
	assert.ErrorIs(t, svc.DeleteTask(context.Background(), seeded.ID), store.ErrTaskNotFound)
}

func TestGetTaskHistory(t *testing.T) {
	t.Run("existence check precedes history read", func(t *testing.T) {
		fake := newFakeTaskStore()
		svc := NewTaskService(fake, nil)

		entries, err := svc.GetTaskHistory(context.Background(), 42)
		assert.Nil(t, entries)
		assert.ErrorIs(t, err, store.ErrTaskNotFound)
	})

	t.Run("soft-deleted task reported as not found", func(t *testing.T) {
		fake := newFakeTaskStore()
		seeded := seedTask(fake)
		svc := NewTaskService(fake, nil)

		require.NoError(t, svc.DeleteTask(context.Background(), seeded.ID))

		_, err := svc.GetTaskHistory(context.Background(), seeded.ID)
		assert.ErrorIs(t, err, store.ErrTaskNotFound)
	})

	t.Run("returns stored entries", func(t *testing.T) {
		fake := newFakeTaskStore()
		seeded := seedTask(fake)
		fake.history[seeded.ID] = []*domain.HistoryEntry{
			{ID: 2, TaskID: seeded.ID, ChangeSummary: "Title changed from 'a' to 'b'"},
			{ID: 1, TaskID: seeded.ID, ChangeSummary: domain.HistoryTaskCreated},
		}
		svc := NewTaskService(fake, nil)

		entries, err := svc.GetTaskHistory(context.Background(), seeded.ID)
		require.NoError(t, err)
		require.Len(t, entries, 2)
		assert.Equal(t, int64(2), entries[0].ID)
	})
}

func TestListTasks(t *testing.T) {
	fake := newFakeTaskStore()
	seedTask(fake)
	svc := NewTaskService(fake, nil)

	tasks, err := svc.ListTasks(context.Background(), store.TaskFilter{})
	require.NoError(t, err)
	assert.Len(t, tasks, 1)

	_, err = svc.ListTasks(context.Background(), store.TaskFilter{Status: "NOPE"})
	assert.ErrorIs(t, err, store.ErrInvalidFilter)
}
