package domain

import "time"

// TaskPatch is a partial task snapshot used for updates. A nil field means
// "untouched": it is neither validated against the existing value, applied
// to the task, nor reported in the audit diff.
type TaskPatch struct {
	Title       *string
	Description *string
	Status      *TaskStatus
	DueDate     *time.Time
}

// IsEmpty reports whether the patch carries no field changes at all.
func (p TaskPatch) IsEmpty() bool {
	return p.Title == nil && p.Description == nil && p.Status == nil && p.DueDate == nil
}

// Validate checks every field present in the patch against the task
// validation rules. The future-due-date rule is applied only when the patch
// actually changes the due date relative to the existing task; an unchanged
// past due date on an existing task is not re-validated.
func (p TaskPatch) Validate(existing *Task, now time.Time) error {
	if p.Title != nil {
		if err := ValidateTitle(*p.Title); err != nil {
			return err
		}
	}

	if p.Description != nil {
		if err := ValidateDescription(*p.Description); err != nil {
			return err
		}
	}

	if p.Status != nil && !isValidTaskStatus(*p.Status) {
		return NewValidationError("status", "must be one of PENDING, IN_PROGRESS, COMPLETED", ErrInvalidTaskStatus)
	}

	if p.DueDate != nil {
		changed := existing == nil || !p.DueDate.UTC().Equal(existing.DueDate.UTC())
		if changed && !p.DueDate.UTC().After(now) {
			return NewValidationError("due_date", "must be in the future", ErrDueDateNotFuture)
		}
	}

	return nil
}

// ApplyTo merges the patch into a copy of the given task and returns the
// merged result. Absent fields keep the task's current values. The
// UpdatedAt timestamp is refreshed to the current UTC instant.
func (p TaskPatch) ApplyTo(task *Task) *Task {
	merged := *task

	if p.Title != nil {
		merged.Title = *p.Title
	}
	if p.Description != nil {
		merged.Description = *p.Description
	}
	if p.Status != nil {
		merged.Status = *p.Status
	}
	if p.DueDate != nil {
		merged.DueDate = p.DueDate.UTC()
	}

	merged.UpdatedAt = time.Now().UTC()
	return &merged
}
