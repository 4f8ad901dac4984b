package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/phrazzld/tasktrail/internal/api/shared"
	"github.com/phrazzld/tasktrail/internal/domain"
	"github.com/phrazzld/tasktrail/internal/store"
)

// MapErrorToStatusCode maps internal errors to appropriate HTTP status codes
// based on the error type. This prevents leaking internal error types or
// messages to clients.
func MapErrorToStatusCode(err error) int {
	switch {
	// Not found errors (includes soft-deleted tasks)
	case store.IsNotFoundError(err):
		return http.StatusNotFound

	// Bad request errors
	case domain.IsValidationError(err),
		errors.Is(err, store.ErrInvalidEntity),
		errors.Is(err, store.ErrInvalidFilter):
		return http.StatusBadRequest

	// Default: internal server error (persistence and unknown failures)
	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a sanitized, user-friendly error message
// based on the error type. Validation errors carry their field path and
// message through; everything else is replaced with a generic message so
// storage internals never leak.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	var validationErr *domain.ValidationError
	if errors.As(err, &validationErr) {
		return validationErr.Error()
	}

	switch {
	case errors.Is(err, store.ErrTaskNotFound):
		return "Task not found"

	case store.IsNotFoundError(err):
		return "Resource not found"

	case errors.Is(err, store.ErrInvalidFilter):
		return "Invalid filter or sort parameter"

	case errors.Is(err, store.ErrInvalidEntity):
		return "Invalid entity data"

	default:
		return "An unexpected error occurred"
	}
}

// HandleAPIError writes an error response using the status code and safe
// message derived from the error type. An explicit non-empty message
// overrides the derived one.
func HandleAPIError(w http.ResponseWriter, r *http.Request, err error, message string) {
	status := MapErrorToStatusCode(err)
	if message == "" {
		message = GetSafeErrorMessage(err)
	}
	shared.RespondWithErrorAndLog(w, r, status, message, err)
}

// validationErrorFromTags converts a struct-tag validation failure into a
// domain.ValidationError carrying the offending field path, so tag-level
// and domain-level validation failures reach clients in the same shape.
func validationErrorFromTags(err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return domain.NewValidationError("", "validation failed", nil)
	}

	first := fieldErrs[0]
	field := strings.ToLower(first.Field())
	return domain.NewValidationError(field, getValidationTagMessage(first.Tag()), nil)
}

// getValidationTagMessage maps validation tags to user-friendly error messages
func getValidationTagMessage(tag string) string {
	switch tag {
	case "required":
		return "is required"
	case "min":
		return "is too short"
	case "max":
		return "is too long"
	case "oneof":
		return "has an invalid value"
	default:
		return "failed validation"
	}
}
