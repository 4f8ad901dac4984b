package audit

import (
	"fmt"
	"strings"

	"github.com/phrazzld/tasktrail/internal/domain"
)

// Diff compares a task's persisted state against an incoming partial update
// and returns one human-readable change description per tracked field that
// meaningfully changed, in the registry's fixed field order.
//
// Fields absent from the patch are untouched and never reported. An empty
// result means no history entry should be written; callers must not treat
// it as an error. Diff itself never fails: missing or unparseable values
// are normalized to an empty representation.
func Diff(original *domain.Task, patch domain.TaskPatch) []string {
	var changes []string

	for _, rule := range registry {
		oldValue, newValue, present := rule.values(original, patch)
		if !present {
			continue
		}
		if rule.equal(oldValue, newValue) {
			continue
		}
		changes = append(changes, fmt.Sprintf(
			"%s changed from '%s' to '%s'",
			rule.label,
			rule.format(oldValue),
			rule.format(newValue),
		))
	}

	return changes
}

// Summarize joins the given change descriptions into the single
// newline-delimited summary stored on one history row. One update yields at
// most one history row, so multiple simultaneous field changes share a
// summary rather than producing multiple rows. Returns the empty string for
// an empty diff.
func Summarize(changes []string) string {
	return strings.Join(changes, "\n")
}
