package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/phrazzld/tasktrail/internal/audit"
	"github.com/phrazzld/tasktrail/internal/domain"
	"github.com/phrazzld/tasktrail/internal/platform/logger"
	"github.com/phrazzld/tasktrail/internal/store"
)

// CreateTaskParams carries the validated input for creating a task.
type CreateTaskParams struct {
	Title       string
	Description string
	Status      domain.TaskStatus
	DueDate     time.Time
}

// TaskService provides task CRUD operations with audit-trail maintenance.
// Validation runs before any store mutation is attempted, and every
// mutation's history entry is persisted transactionally by the store.
type TaskService interface {
	// CreateTask validates the input and persists a new task together with
	// its "Task created" history entry.
	CreateTask(ctx context.Context, params CreateTaskParams) (*domain.Task, error)

	// GetTask retrieves a non-deleted task by ID.
	GetTask(ctx context.Context, id int64) (*domain.Task, error)

	// ListTasks retrieves non-deleted tasks matching the filter.
	ListTasks(ctx context.Context, filter store.TaskFilter) ([]*domain.Task, error)

	// UpdateTask applies a partial update to an existing task. Fields
	// absent from the patch are untouched. A history entry describing the
	// detected field changes is written only when the diff is non-empty.
	UpdateTask(ctx context.Context, id int64, patch domain.TaskPatch) (*domain.Task, error)

	// DeleteTask soft-deletes an existing task and records the deletion in
	// its history.
	DeleteTask(ctx context.Context, id int64) error

	// GetTaskHistory retrieves the audit trail of an existing task,
	// newest-first.
	GetTaskHistory(ctx context.Context, id int64) ([]*domain.HistoryEntry, error)
}

// taskService is the default TaskService implementation backed by a
// store.TaskStore.
type taskService struct {
	taskStore store.TaskStore
	logger    *slog.Logger
}

// NewTaskService creates a new TaskService backed by the given store.
// If logger is nil, a default logger will be used.
func NewTaskService(taskStore store.TaskStore, logger *slog.Logger) TaskService {
	if taskStore == nil {
		panic("taskStore cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &taskService{
		taskStore: taskStore,
		logger:    logger.With(slog.String("component", "task_service")),
	}
}

// CreateTask implements TaskService.CreateTask
func (s *taskService) CreateTask(ctx context.Context, params CreateTaskParams) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	task, err := domain.NewTask(params.Title, params.Description, params.Status, params.DueDate)
	if err != nil {
		log.Debug("task creation rejected by validation",
			slog.String("error", err.Error()))
		return nil, err
	}

	created, err := s.taskStore.Create(ctx, task)
	if err != nil {
		return nil, err
	}

	return created, nil
}

// GetTask implements TaskService.GetTask
func (s *taskService) GetTask(ctx context.Context, id int64) (*domain.Task, error) {
	return s.taskStore.GetByID(ctx, id)
}

// ListTasks implements TaskService.ListTasks
func (s *taskService) ListTasks(ctx context.Context, filter store.TaskFilter) ([]*domain.Task, error) {
	return s.taskStore.List(ctx, filter)
}

// UpdateTask implements TaskService.UpdateTask
// It loads the existing task, validates the patch against it, diffs the two
// snapshots with the field comparator registry, and hands the merged task
// plus the joined change summary to the store. An empty diff updates the
// row without writing a history entry.
func (s *taskService) UpdateTask(ctx context.Context, id int64, patch domain.TaskPatch) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	existing, err := s.taskStore.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	// Validation must fail before any store mutation is attempted.
	if err := patch.Validate(existing, time.Now().UTC()); err != nil {
		log.Debug("task update rejected by validation",
			slog.String("error", err.Error()),
			slog.Int64("task_id", id))
		return nil, err
	}

	changes := audit.Diff(existing, patch)
	changeSummary := audit.Summarize(changes)

	merged := patch.ApplyTo(existing)

	updated, err := s.taskStore.Update(ctx, id, merged, changeSummary)
	if err != nil {
		return nil, err
	}

	log.Debug("task update applied",
		slog.Int64("task_id", id),
		slog.Int("changed_fields", len(changes)))
	return updated, nil
}

// DeleteTask implements TaskService.DeleteTask
func (s *taskService) DeleteTask(ctx context.Context, id int64) error {
	return s.taskStore.Delete(ctx, id)
}

// GetTaskHistory implements TaskService.GetTaskHistory
// The existence check runs first so history requests for missing or
// soft-deleted tasks are reported as not found rather than returning the
// (still stored) audit rows.
func (s *taskService) GetTaskHistory(ctx context.Context, id int64) ([]*domain.HistoryEntry, error) {
	if _, err := s.taskStore.GetByID(ctx, id); err != nil {
		return nil, err
	}

	return s.taskStore.GetHistory(ctx, id)
}
