package api

import (
	"strings"
	"time"

	"github.com/phrazzld/tasktrail/internal/domain"
)

// Common request/response structures

// CreateTaskRequest defines the payload for the task creation endpoint.
// Charset and business-rule validation happens in the domain layer; the
// struct tags cover shape-level constraints.
type CreateTaskRequest struct {
	Title       string    `json:"title"       validate:"required,max=100"`
	Description string    `json:"description" validate:"max=2000"`
	Status      string    `json:"status"      validate:"omitempty"`
	DueDate     time.Time `json:"due_date"    validate:"required"`
}

// UpdateTaskRequest defines the payload for the task update endpoint.
// All fields are optional; absent fields leave the task untouched and are
// never reported in the audit trail.
type UpdateTaskRequest struct {
	Title       *string    `json:"title,omitempty"       validate:"omitempty,max=100"`
	Description *string    `json:"description,omitempty" validate:"omitempty,max=2000"`
	Status      *string    `json:"status,omitempty"`
	DueDate     *time.Time `json:"due_date,omitempty"`
}

// TaskResponse represents the response data for a task.
type TaskResponse struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Status      string    `json:"status"`
	DueDate     time.Time `json:"due_date"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// HistoryEntryResponse represents one audit-trail entry in display-ready
// shape: the stored newline-joined summary plus the individual clauses.
type HistoryEntryResponse struct {
	ID            int64     `json:"id"`
	ChangeSummary string    `json:"change_summary"`
	Changes       []string  `json:"changes"`
	ChangedAt     time.Time `json:"changed_at"`
}

// taskToResponse converts a domain.Task to a TaskResponse.
func taskToResponse(task *domain.Task) TaskResponse {
	return TaskResponse{
		ID:          task.ID,
		Title:       task.Title,
		Description: task.Description,
		Status:      string(task.Status),
		DueDate:     task.DueDate,
		CreatedAt:   task.CreatedAt,
		UpdatedAt:   task.UpdatedAt,
	}
}

// historyToResponse converts a domain.HistoryEntry to a HistoryEntryResponse.
func historyToResponse(entry *domain.HistoryEntry) HistoryEntryResponse {
	return HistoryEntryResponse{
		ID:            entry.ID,
		ChangeSummary: entry.ChangeSummary,
		Changes:       strings.Split(entry.ChangeSummary, "\n"),
		ChangedAt:     entry.ChangedAt,
	}
}
