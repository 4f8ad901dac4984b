package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/phrazzld/tasktrail/internal/domain"
	"github.com/phrazzld/tasktrail/internal/platform/logger"
	"github.com/phrazzld/tasktrail/internal/store"
)

// taskColumns is the column list shared by every task SELECT and RETURNING
// clause so scanTask stays in sync with the queries.
const taskColumns = "id, title, description, status, due_date, created_at, updated_at, deleted_at"

// PostgresTaskStore implements the store.TaskStore interface
// using a PostgreSQL database as the storage backend. Each mutation runs as
// one short-lived transaction pairing the task write with its conditional
// history insert.
type PostgresTaskStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgresTaskStore creates a new PostgreSQL implementation of the
// TaskStore interface. It accepts a database connection that should be
// initialized and managed by the caller. If logger is nil, a default logger
// will be used.
func NewPostgresTaskStore(db *sql.DB, logger *slog.Logger) *PostgresTaskStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresTaskStore{
		db:     db,
		logger: logger.With(slog.String("component", "task_store")),
	}
}

// Ensure PostgresTaskStore implements store.TaskStore interface
var _ store.TaskStore = (*PostgresTaskStore)(nil)

// Create implements store.TaskStore.Create
// It inserts the task row and its "Task created" history entry in one
// transaction, sharing a single system-assigned timestamp. The whole
// operation rolls back if either insert fails.
func (s *PostgresTaskStore) Create(ctx context.Context, task *domain.Task) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := task.Validate(); err != nil {
		log.Warn("task validation failed during create",
			slog.String("error", err.Error()))
		return nil, err
	}

	now := time.Now().UTC()
	created := *task
	created.CreatedAt = now
	created.UpdatedAt = now

	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		insertTask := `
			INSERT INTO tasks (title, description, status, due_date, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING id
		`
		err := tx.QueryRowContext(
			ctx,
			insertTask,
			created.Title,
			created.Description,
			created.Status,
			created.DueDate,
			created.CreatedAt,
			created.UpdatedAt,
		).Scan(&created.ID)
		if err != nil {
			return MapError(err)
		}

		return insertHistory(ctx, tx, created.ID, domain.HistoryTaskCreated, now)
	})
	if err != nil {
		log.Error("failed to create task",
			slog.String("error", err.Error()))
		return nil, err
	}

	log.Info("task created successfully",
		slog.Int64("task_id", created.ID),
		slog.String("status", string(created.Status)))
	return &created, nil
}

// Update implements store.TaskStore.Update
// It rewrites the mutable fields of a non-deleted task row and, when
// changeSummary is non-empty, appends one history entry in the same
// transaction. A zero-row update means the task is missing or soft-deleted
// and is reported as store.ErrTaskNotFound.
func (s *PostgresTaskStore) Update(
	ctx context.Context,
	id int64,
	task *domain.Task,
	changeSummary string,
) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := task.Validate(); err != nil {
		log.Warn("task validation failed during update",
			slog.String("error", err.Error()),
			slog.Int64("task_id", id))
		return nil, err
	}

	now := time.Now().UTC()
	var updated domain.Task

	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		updateTask := `
			UPDATE tasks
			SET title = $1, description = $2, status = $3, due_date = $4, updated_at = $5
			WHERE id = $6 AND deleted_at IS NULL
			RETURNING ` + taskColumns
		row := tx.QueryRowContext(
			ctx,
			updateTask,
			task.Title,
			task.Description,
			task.Status,
			task.DueDate,
			now,
			id,
		)
		if err := scanTask(row, &updated); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return store.ErrTaskNotFound
			}
			return MapError(err)
		}

		if changeSummary == "" {
			return nil
		}
		return insertHistory(ctx, tx, id, changeSummary, now)
	})
	if err != nil {
		if store.IsNotFoundError(err) {
			log.Debug("task not found for update", slog.Int64("task_id", id))
		} else {
			log.Error("failed to update task",
				slog.String("error", err.Error()),
				slog.Int64("task_id", id))
		}
		return nil, err
	}

	log.Info("task updated successfully",
		slog.Int64("task_id", id),
		slog.Bool("history_written", changeSummary != ""))
	return &updated, nil
}

// Delete implements store.TaskStore.Delete
// It soft-deletes the task by stamping deleted_at and appends a
// "Task deleted" history entry in the same transaction. The row and its
// history are never physically removed. An already soft-deleted task is
// reported as store.ErrTaskNotFound.
func (s *PostgresTaskStore) Delete(ctx context.Context, id int64) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	now := time.Now().UTC()

	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		softDelete := `
			UPDATE tasks
			SET deleted_at = $1, updated_at = $1
			WHERE id = $2 AND deleted_at IS NULL
		`
		result, err := tx.ExecContext(ctx, softDelete, now, id)
		if err != nil {
			return MapError(err)
		}
		if err := CheckRowsAffected(result, "task"); err != nil {
			return err
		}

		return insertHistory(ctx, tx, id, domain.HistoryTaskDeleted, now)
	})
	if err != nil {
		if store.IsNotFoundError(err) {
			log.Debug("task not found for delete", slog.Int64("task_id", id))
		} else {
			log.Error("failed to delete task",
				slog.String("error", err.Error()),
				slog.Int64("task_id", id))
		}
		return err
	}

	log.Info("task soft-deleted successfully", slog.Int64("task_id", id))
	return nil
}

// GetByID implements store.TaskStore.GetByID
// It retrieves a task by its unique ID. Soft-deleted tasks are invisible:
// they are reported as store.ErrTaskNotFound.
func (s *PostgresTaskStore) GetByID(ctx context.Context, id int64) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT ` + taskColumns + `
		FROM tasks
		WHERE id = $1 AND deleted_at IS NULL
	`

	var task domain.Task
	row := s.db.QueryRowContext(ctx, query, id)
	if err := scanTask(row, &task); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("task not found", slog.Int64("task_id", id))
			return nil, store.ErrTaskNotFound
		}
		log.Error("failed to get task by ID",
			slog.String("error", err.Error()),
			slog.Int64("task_id", id))
		return nil, MapError(err)
	}

	return &task, nil
}

// List implements store.TaskStore.List
// It retrieves all non-deleted tasks matching the filter. The filter's
// status and sort values are whitelist-checked before any of them reach the
// query text, so user-controlled parameters cannot inject SQL.
func (s *PostgresTaskStore) List(ctx context.Context, filter store.TaskFilter) ([]*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	filter, err := filter.Normalize()
	if err != nil {
		log.Warn("rejected task list filter", slog.String("error", err.Error()))
		return nil, err
	}

	query := `
		SELECT ` + taskColumns + `
		FROM tasks
		WHERE deleted_at IS NULL
	`
	var args []any

	switch filter.Status {
	case "":
		// no status filtering
	case store.StatusOverdue:
		args = append(args, time.Now().UTC(), domain.TaskStatusCompleted)
		query += fmt.Sprintf(" AND due_date < $%d AND status <> $%d", len(args)-1, len(args))
	default:
		args = append(args, filter.Status)
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}

	// Safe to interpolate: Normalize restricted both values to whitelists.
	query += fmt.Sprintf(" ORDER BY %s %s", filter.SortBy, strings.ToUpper(filter.SortDir))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to query tasks",
			slog.String("error", err.Error()),
			slog.String("status_filter", filter.Status))
		return nil, MapError(err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	var tasks []*domain.Task
	for rows.Next() {
		var task domain.Task
		if err := scanTask(rows, &task); err != nil {
			log.Error("failed to scan task row",
				slog.String("error", err.Error()))
			return nil, MapError(err)
		}
		tasks = append(tasks, &task)
	}

	if err := rows.Err(); err != nil {
		log.Error("error after scanning rows",
			slog.String("error", err.Error()))
		return nil, MapError(err)
	}

	if tasks == nil {
		tasks = []*domain.Task{}
	}

	log.Debug("listed tasks",
		slog.String("status_filter", filter.Status),
		slog.Int("count", len(tasks)))
	return tasks, nil
}

// GetHistory implements store.TaskStore.GetHistory
// It retrieves all history entries for a task ordered newest-first by
// changed_at then id, both descending, giving a total order even when
// timestamps collide at the same resolution. History rows are returned for
// soft-deleted tasks too; existence checks are the caller's concern.
func (s *PostgresTaskStore) GetHistory(ctx context.Context, taskID int64) ([]*domain.HistoryEntry, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, task_id, change_summary, changed_at
		FROM task_history
		WHERE task_id = $1
		ORDER BY changed_at DESC, id DESC
	`

	rows, err := s.db.QueryContext(ctx, query, taskID)
	if err != nil {
		log.Error("failed to query task history",
			slog.String("error", err.Error()),
			slog.Int64("task_id", taskID))
		return nil, MapError(err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	var entries []*domain.HistoryEntry
	for rows.Next() {
		var entry domain.HistoryEntry
		err := rows.Scan(
			&entry.ID,
			&entry.TaskID,
			&entry.ChangeSummary,
			&entry.ChangedAt,
		)
		if err != nil {
			log.Error("failed to scan history row",
				slog.String("error", err.Error()),
				slog.Int64("task_id", taskID))
			return nil, MapError(err)
		}
		entries = append(entries, &entry)
	}

	if err := rows.Err(); err != nil {
		log.Error("error after scanning rows",
			slog.String("error", err.Error()),
			slog.Int64("task_id", taskID))
		return nil, MapError(err)
	}

	if entries == nil {
		entries = []*domain.HistoryEntry{}
	}

	log.Debug("retrieved task history",
		slog.Int64("task_id", taskID),
		slog.Int("count", len(entries)))
	return entries, nil
}

// insertHistory appends one immutable history entry using the caller's
// transaction. History rows are never updated or deleted after this write.
func insertHistory(ctx context.Context, db store.DBTX, taskID int64, summary string, changedAt time.Time) error {
	query := `
		INSERT INTO task_history (task_id, change_summary, changed_at)
		VALUES ($1, $2, $3)
	`
	if _, err := db.ExecContext(ctx, query, taskID, summary, changedAt); err != nil {
		return store.NewStoreError("history entry", "create", "insert failed", MapError(err))
	}
	return nil
}

// rowScanner covers *sql.Row and *sql.Rows for scanTask.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanTask reads one task row in taskColumns order.
func scanTask(row rowScanner, task *domain.Task) error {
	var status string
	var deletedAt sql.NullTime

	err := row.Scan(
		&task.ID,
		&task.Title,
		&task.Description,
		&status,
		&task.DueDate,
		&task.CreatedAt,
		&task.UpdatedAt,
		&deletedAt,
	)
	if err != nil {
		return err
	}

	task.Status = domain.TaskStatus(status)
	if deletedAt.Valid {
		t := deletedAt.Time
		task.DeletedAt = &t
	}
	return nil
}
