// Package audit implements the field-level change detection engine for
// tasks. It diffs a task's persisted state against an incoming partial
// update using per-field comparison and formatting rules, and renders
// human-readable change descriptions for the audit trail.
package audit

import (
	"strings"
	"time"

	"github.com/phrazzld/tasktrail/internal/domain"
)

// DueDateDisplayFormat is the calendar layout used when rendering due date
// instants in audit text. The stored value stays in absolute-instant form;
// this format is for the human-readable summary only.
const DueDateDisplayFormat = "02 Jan 2006 15:04"

// fieldRule declares, for one tracked field, how to detect a meaningful
// change and how to render both sides for the audit message.
type fieldRule struct {
	// name is the wire-level field identifier (e.g., "due_date").
	name string

	// label is used in the rendered sentence (e.g., "Due date").
	label string

	// values extracts the old value from the task and the new value from
	// the patch, reporting present=false when the patch leaves the field
	// untouched.
	values func(original *domain.Task, patch domain.TaskPatch) (oldValue, newValue string, present bool)

	// equal is the field's equality predicate over raw values.
	equal func(oldValue, newValue string) bool

	// format renders a raw value for the audit text.
	format func(value string) string
}

// registry holds the tracked fields in their fixed declared order. The diff
// iterates this slice, never the incoming payload, so audit text for the
// same transition is always rendered in the same order. Fields not listed
// here (identity, timestamps) are never diffed or logged.
var registry = []fieldRule{
	{
		name:   "title",
		label:  "Title",
		values: titleValues,
		equal:  exactEqual,
		format: identityFormat,
	},
	{
		name:   "description",
		label:  "Description",
		values: descriptionValues,
		equal:  exactEqual,
		format: identityFormat,
	},
	{
		name:   "status",
		label:  "Status",
		values: statusValues,
		equal:  caseInsensitiveEqual,
		format: FormatStatus,
	},
	{
		name:   "due_date",
		label:  "Due date",
		values: dueDateValues,
		equal:  instantEqual,
		format: FormatDueDate,
	},
}

func titleValues(original *domain.Task, patch domain.TaskPatch) (string, string, bool) {
	if patch.Title == nil {
		return "", "", false
	}
	var oldValue string
	if original != nil {
		oldValue = original.Title
	}
	return oldValue, *patch.Title, true
}

func descriptionValues(original *domain.Task, patch domain.TaskPatch) (string, string, bool) {
	if patch.Description == nil {
		return "", "", false
	}
	var oldValue string
	if original != nil {
		oldValue = original.Description
	}
	return oldValue, *patch.Description, true
}

func statusValues(original *domain.Task, patch domain.TaskPatch) (string, string, bool) {
	if patch.Status == nil {
		return "", "", false
	}
	var oldValue string
	if original != nil {
		oldValue = string(original.Status)
	}
	return oldValue, string(*patch.Status), true
}

func dueDateValues(original *domain.Task, patch domain.TaskPatch) (string, string, bool) {
	if patch.DueDate == nil {
		return "", "", false
	}
	var oldValue string
	if original != nil && !original.DueDate.IsZero() {
		oldValue = original.DueDate.UTC().Format(time.RFC3339Nano)
	}
	return oldValue, patch.DueDate.UTC().Format(time.RFC3339Nano), true
}

// exactEqual is the default equality predicate: exact value equality.
func exactEqual(oldValue, newValue string) bool {
	return oldValue == newValue
}

// caseInsensitiveEqual tolerates inconsistent status casing from different
// callers, so "pending" vs "PENDING" is not a change.
func caseInsensitiveEqual(oldValue, newValue string) bool {
	return strings.EqualFold(oldValue, newValue)
}

// instantEqual parses both sides as absolute time and compares epoch
// milliseconds, so two differently-formatted representations of the same
// instant are not a change. A side that fails to parse is treated as the
// zero instant rather than failing the diff.
func instantEqual(oldValue, newValue string) bool {
	return parseInstant(oldValue).UnixMilli() == parseInstant(newValue).UnixMilli()
}

func parseInstant(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}
	}
	return t
}

// identityFormat is the default formatter: the raw value as-is.
func identityFormat(value string) string {
	return value
}

// FormatStatus renders an enum-style status token into title case with
// spaces: "IN_PROGRESS" becomes "In Progress". Unknown tokens are formatted
// the same way rather than rejected.
func FormatStatus(value string) string {
	if value == "" {
		return ""
	}
	words := strings.Split(strings.ToLower(value), "_")
	for i, word := range words {
		if word == "" {
			continue
		}
		words[i] = strings.ToUpper(word[:1]) + word[1:]
	}
	return strings.Join(words, " ")
}

// FormatDueDate renders a due date instant into the fixed calendar
// representation used in audit text. An empty or unparseable value renders
// as an empty string so a malformed historical value cannot block new
// audit writes.
func FormatDueDate(value string) string {
	if value == "" {
		return ""
	}
	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return ""
	}
	return t.UTC().Format(DueDateDisplayFormat)
}
