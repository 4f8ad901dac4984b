package store

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsNotFoundError(t *testing.T) {
	assert.True(t, IsNotFoundError(ErrNotFound))
	assert.True(t, IsNotFoundError(ErrTaskNotFound))
	assert.True(t, IsNotFoundError(fmt.Errorf("lookup failed: %w", ErrTaskNotFound)))
	assert.False(t, IsNotFoundError(ErrInvalidEntity))
	assert.False(t, IsNotFoundError(errors.New("unrelated")))
	assert.False(t, IsNotFoundError(nil))
}

func TestErrTaskNotFoundWrapsErrNotFound(t *testing.T) {
	assert.ErrorIs(t, ErrTaskNotFound, ErrNotFound)
}

func TestStoreError(t *testing.T) {
	t.Run("message with wrapped error", func(t *testing.T) {
		underlying := errors.New("connection reset")
		err := NewStoreError("task", "create", "insert failed", underlying)
		assert.Equal(t, "create operation on task failed: insert failed: connection reset", err.Error())
	})

	t.Run("message without wrapped error", func(t *testing.T) {
		err := NewStoreError("task", "update", "no rows", nil)
		assert.Equal(t, "update operation on task failed: no rows", err.Error())
	})

	t.Run("unwrap supports errors.Is", func(t *testing.T) {
		err := NewStoreError("task", "get", "missing", ErrTaskNotFound)
		assert.ErrorIs(t, err, ErrTaskNotFound)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("errors.As recovers context", func(t *testing.T) {
		wrapped := fmt.Errorf("service call: %w", NewStoreError("task", "delete", "gone", nil))
		var storeErr *StoreError
		require.ErrorAs(t, wrapped, &storeErr)
		assert.Equal(t, "task", storeErr.Entity)
		assert.Equal(t, "delete", storeErr.Operation)
	})
}
