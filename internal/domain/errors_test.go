package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidationError(t *testing.T) {
	t.Run("error message includes field path", func(t *testing.T) {
		err := NewValidationError("title", "is required", nil)
		assert.Equal(t, "title: is required", err.Error())
	})

	t.Run("error message without field", func(t *testing.T) {
		err := NewValidationError("", "validation failed", nil)
		assert.Equal(t, "validation failed", err.Error())
	})

	t.Run("wraps ErrValidation by default", func(t *testing.T) {
		err := NewValidationError("title", "is required", nil)
		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("wraps provided sentinel", func(t *testing.T) {
		err := NewValidationError("due_date", "must be in the future", ErrDueDateNotFuture)
		assert.ErrorIs(t, err, ErrDueDateNotFuture)
	})

	t.Run("errors.As recovers the field path through wrapping", func(t *testing.T) {
		wrapped := fmt.Errorf("request rejected: %w",
			NewValidationError("status", "has an invalid value", ErrInvalidTaskStatus))

		var ve *ValidationError
		require.ErrorAs(t, wrapped, &ve)
		assert.Equal(t, "status", ve.Field)
	})
}

func TestIsValidationError(t *testing.T) {
	assert.True(t, IsValidationError(NewValidationError("title", "is required", nil)))
	assert.True(t, IsValidationError(fmt.Errorf("wrapped: %w", ErrValidation)))
	assert.False(t, IsValidationError(errors.New("something else")))
	assert.False(t, IsValidationError(nil))
}
