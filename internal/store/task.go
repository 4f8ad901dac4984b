package store

import (
	"context"
	"fmt"

	"github.com/phrazzld/tasktrail/internal/domain"
)

// StatusOverdue is the synthetic pseudo-status accepted by TaskFilter in
// addition to the real status values. It selects tasks whose due date is in
// the past and whose status is not COMPLETED.
const StatusOverdue = "OVERDUE"

// Sort columns allowed for task listing. The whitelist exists to prevent
// SQL injection via user-controlled sort parameters.
const (
	SortByDueDate   = "due_date"
	SortByCreatedAt = "created_at"
	SortByUpdatedAt = "updated_at"
	SortByTitle     = "title"
	SortByStatus    = "status"
)

// Sort directions allowed for task listing.
const (
	SortAsc  = "asc"
	SortDesc = "desc"
)

// TaskFilter narrows and orders the result of a task listing. Zero values
// select everything ordered by due date ascending.
type TaskFilter struct {
	// Status filters by one of the task status values or StatusOverdue.
	// Empty means no status filtering.
	Status string

	// SortBy is the column to order by; must be one of the SortBy* values.
	SortBy string

	// SortDir is the order direction; must be SortAsc or SortDesc.
	SortDir string
}

// Normalize applies defaults and checks the filter against the status and
// sort whitelists. Returns the normalized filter, or ErrInvalidFilter when
// a value falls outside its whitelist.
func (f TaskFilter) Normalize() (TaskFilter, error) {
	switch f.Status {
	case "", StatusOverdue,
		string(domain.TaskStatusPending),
		string(domain.TaskStatusInProgress),
		string(domain.TaskStatusCompleted):
	default:
		return f, fmt.Errorf("%w: status %q", ErrInvalidFilter, f.Status)
	}

	if f.SortBy == "" {
		f.SortBy = SortByDueDate
	}
	switch f.SortBy {
	case SortByDueDate, SortByCreatedAt, SortByUpdatedAt, SortByTitle, SortByStatus:
	default:
		return f, fmt.Errorf("%w: sort column %q", ErrInvalidFilter, f.SortBy)
	}

	if f.SortDir == "" {
		f.SortDir = SortAsc
	}
	switch f.SortDir {
	case SortAsc, SortDesc:
	default:
		return f, fmt.Errorf("%w: sort direction %q", ErrInvalidFilter, f.SortDir)
	}

	return f, nil
}

// TaskStore defines the interface for task and audit-history persistence.
// Every mutation pairs its task write with its conditional history insert
// inside a single atomic transaction; a failure of either write rolls back
// the whole operation.
type TaskStore interface {
	// Create inserts the task with system-assigned timestamps and appends
	// exactly one "Task created" history entry with the same timestamp, in
	// one transaction. Returns the persisted task including its assigned id.
	Create(ctx context.Context, task *domain.Task) (*domain.Task, error)

	// Update rewrites the mutable fields of the task at id, refusing
	// soft-deleted rows (reported as ErrTaskNotFound). When changeSummary
	// is non-empty, one history entry with that summary is appended in the
	// same transaction; an empty summary writes no history row. Returns
	// the refreshed task.
	Update(ctx context.Context, id int64, task *domain.Task, changeSummary string) (*domain.Task, error)

	// Delete soft-deletes the task at id by setting its deleted_at
	// timestamp and appends a "Task deleted" history entry in the same
	// transaction. A missing or already soft-deleted task is reported as
	// ErrTaskNotFound.
	Delete(ctx context.Context, id int64) error

	// GetByID retrieves the task only if it has not been soft-deleted.
	// Returns ErrTaskNotFound otherwise.
	GetByID(ctx context.Context, id int64) (*domain.Task, error)

	// List retrieves all non-deleted tasks matching the filter, ordered by
	// its whitelisted sort column and direction.
	List(ctx context.Context, filter TaskFilter) ([]*domain.Task, error)

	// GetHistory retrieves all history entries for a task ordered
	// newest-first, by changed_at then id, both descending. The order is
	// total even when timestamps collide at the same resolution.
	GetHistory(ctx context.Context, taskID int64) ([]*domain.HistoryEntry, error)
}
