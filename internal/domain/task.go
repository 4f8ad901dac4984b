package domain

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// TaskStatus represents the workflow state of a task.
type TaskStatus string

// Possible task status values.
const (
	TaskStatusPending    TaskStatus = "PENDING"
	TaskStatusInProgress TaskStatus = "IN_PROGRESS"
	TaskStatusCompleted  TaskStatus = "COMPLETED"
)

// Field length limits for task content.
const (
	MaxTitleLength       = 100
	MaxDescriptionLength = 2000
)

// Character whitelists for task content. Angle brackets and other
// markup-breaking characters are rejected to prevent injection into
// rendered views. The description pattern additionally permits line breaks.
var (
	titleCharsetPattern       = regexp.MustCompile(`^[a-zA-Z0-9 .,:;!?'"()\[\]&@#%*+=_/-]*$`)
	descriptionCharsetPattern = regexp.MustCompile(`^[a-zA-Z0-9 .,:;!?'"()\[\]&@#%*+=_/\r\n-]*$`)
)

// Task represents a tracked unit of work. Tasks are soft-deleted: a non-nil
// DeletedAt marks the row as logically removed while it and its history
// remain in storage.
type Task struct {
	ID          int64      `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Status      TaskStatus `json:"status"`
	DueDate     time.Time  `json:"due_date"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	DeletedAt   *time.Time `json:"deleted_at,omitempty"`
}

// NewTask creates a new Task with the given content fields.
// The status defaults to pending when empty, timestamps are set to the
// current UTC instant, and the due date must be strictly in the future.
// Returns a ValidationError if any field fails validation.
func NewTask(title, description string, status TaskStatus, dueDate time.Time) (*Task, error) {
	if status == "" {
		status = TaskStatusPending
	}

	now := time.Now().UTC()
	task := &Task{
		Title:       title,
		Description: description,
		Status:      status,
		DueDate:     dueDate.UTC(),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := task.Validate(); err != nil {
		return nil, err
	}

	if !task.DueDate.After(now) {
		return nil, NewValidationError("due_date", "must be in the future", ErrDueDateNotFuture)
	}

	return task, nil
}

// Validate checks if the Task has valid content data.
// Returns a ValidationError naming the offending field if validation fails.
// The future-due-date business rule is not enforced here; it applies only
// on creation and on updates that change the due date (see TaskPatch).
func (t *Task) Validate() error {
	if err := ValidateTitle(t.Title); err != nil {
		return err
	}

	if err := ValidateDescription(t.Description); err != nil {
		return err
	}

	if !isValidTaskStatus(t.Status) {
		return NewValidationError("status", "must be one of PENDING, IN_PROGRESS, COMPLETED", ErrInvalidTaskStatus)
	}

	if t.DueDate.IsZero() {
		return NewValidationError("due_date", "is required", nil)
	}

	return nil
}

// IsDeleted reports whether the task has been soft-deleted.
func (t *Task) IsDeleted() bool {
	return t.DeletedAt != nil
}

// IsOverdue reports whether the task's due date has passed without the task
// being completed.
func (t *Task) IsOverdue(now time.Time) bool {
	return t.DueDate.Before(now) && t.Status != TaskStatusCompleted
}

// ValidateTitle checks the title against the required, length, and charset rules.
func ValidateTitle(title string) error {
	if title == "" {
		return NewValidationError("title", "is required", nil)
	}
	if len(title) > MaxTitleLength {
		return NewValidationError(
			"title",
			fmt.Sprintf("must be at most %d characters", MaxTitleLength),
			nil,
		)
	}
	if !titleCharsetPattern.MatchString(title) {
		return NewValidationError("title", "contains invalid characters", ErrInvalidFormat)
	}
	return nil
}

// ValidateDescription checks the optional description against the length and
// charset rules. The description charset additionally allows line breaks.
func ValidateDescription(description string) error {
	if description == "" {
		return nil
	}
	if len(description) > MaxDescriptionLength {
		return NewValidationError(
			"description",
			fmt.Sprintf("must be at most %d characters", MaxDescriptionLength),
			nil,
		)
	}
	if !descriptionCharsetPattern.MatchString(description) {
		return NewValidationError("description", "contains invalid characters", ErrInvalidFormat)
	}
	return nil
}

// ParseTaskStatus converts a raw status token into a TaskStatus.
// Matching is case-insensitive to tolerate inconsistent casing from
// different callers; the canonical upper-case form is returned.
func ParseTaskStatus(raw string) (TaskStatus, error) {
	status := TaskStatus(strings.ToUpper(strings.TrimSpace(raw)))
	if !isValidTaskStatus(status) {
		return "", NewValidationError("status", "must be one of PENDING, IN_PROGRESS, COMPLETED", ErrInvalidTaskStatus)
	}
	return status, nil
}

// isValidTaskStatus checks if the given status is a valid TaskStatus.
func isValidTaskStatus(status TaskStatus) bool {
	switch status {
	case TaskStatusPending, TaskStatusInProgress, TaskStatusCompleted:
		return true
	default:
		return false
	}
}
