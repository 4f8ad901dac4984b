package domain

import (
	"errors"
	"time"
)

// Fixed change summaries for task lifecycle events.
const (
	HistoryTaskCreated = "Task created"
	HistoryTaskDeleted = "Task deleted"
)

// Common validation errors for HistoryEntry.
var (
	ErrEmptyHistoryTaskID  = errors.New("history entry task ID cannot be empty")
	ErrEmptyHistorySummary = errors.New("history entry change summary cannot be empty")
)

// HistoryEntry is one immutable, append-only audit record for a task.
// ChangeSummary holds one or more newline-joined change descriptions, or a
// fixed literal for lifecycle events. Entries are never updated or deleted
// and outlive a soft-deleted task.
type HistoryEntry struct {
	ID            int64     `json:"id"`
	TaskID        int64     `json:"task_id"`
	ChangeSummary string    `json:"change_summary"`
	ChangedAt     time.Time `json:"changed_at"`
}

// NewHistoryEntry creates a new HistoryEntry for the given task with the
// given summary, stamped at the current UTC instant.
// Returns an error if validation fails.
func NewHistoryEntry(taskID int64, changeSummary string) (*HistoryEntry, error) {
	entry := &HistoryEntry{
		TaskID:        taskID,
		ChangeSummary: changeSummary,
		ChangedAt:     time.Now().UTC(),
	}

	if err := entry.Validate(); err != nil {
		return nil, err
	}

	return entry, nil
}

// Validate checks if the HistoryEntry has valid data.
// Returns an error if any field fails validation.
func (h *HistoryEntry) Validate() error {
	if h.TaskID <= 0 {
		return ErrEmptyHistoryTaskID
	}

	if h.ChangeSummary == "" {
		return ErrEmptyHistorySummary
	}

	return nil
}
