// Package errors tests for error code definitions and error handling.
package errors

import (
	"database/sql"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestErrorCodeValues verifies all error codes have distinct non-empty values.
func TestErrorCodeValues(t *testing.T) {
	codes := []ErrorCode{
		ErrInternal, ErrInvalid, ErrNotFound, ErrPermission,
		ErrInvalidState, ErrConflict, ErrDatabase, ErrMigration,
	}
	seen := make(map[ErrorCode]bool)
	for _, code := range codes {
		assert.NotEmpty(t, string(code))
		assert.False(t, seen[code], "duplicate code %s", code)
		seen[code] = true
	}
}

func TestAppError_Error(t *testing.T) {
	t.Run("without wrapped error", func(t *testing.T) {
		err := New(ErrNotFound, "topic not found")
		assert.Equal(t, "[NOT_FOUND] topic not found", err.Error())
	})

	t.Run("with wrapped error", func(t *testing.T) {
		err := Wrap(ErrDatabase, "failed to load topic", sql.ErrConnDone)
		assert.Equal(t, "[DATABASE_ERROR] failed to load topic: "+sql.ErrConnDone.Error(), err.Error())
		assert.ErrorIs(t, err, sql.ErrConnDone)
	})
}

func TestInvalidState(t *testing.T) {
	err := InvalidState("t-1", "DRAFT", "APPROVED->PUBLISHED", "only approved topics can be published")

	assert.Equal(t, ErrInvalidState, err.Code)
	assert.Equal(t, "only approved topics can be published; current status is DRAFT", err.Message)
	assert.Equal(t, "t-1", err.Details["id"])
	assert.Equal(t, "DRAFT", err.Details["status"])
	assert.Equal(t, "APPROVED->PUBLISHED", err.Details["transition"])
}

func TestNotFound(t *testing.T) {
	err := NotFound("topic group", "g-1")
	assert.Equal(t, "topic group not found: g-1", err.Message)
	assert.Equal(t, "g-1", err.Details["id"])
}

func TestIs(t *testing.T) {
	base := Conflict("t-1", "a newer draft already exists")
	wrapped := fmt.Errorf("create revision: %w", base)

	assert.True(t, Is(base, ErrConflict))
	assert.True(t, Is(wrapped, ErrConflict))
	assert.False(t, Is(wrapped, ErrNotFound))
	assert.False(t, Is(sql.ErrNoRows, ErrNotFound))
	assert.False(t, Is(nil, ErrConflict))
}

func TestCodeOf(t *testing.T) {
	assert.Equal(t, ErrInvalid, CodeOf(Invalid("title is required")))
	assert.Equal(t, ErrInternal, CodeOf(sql.ErrTxDone))

	var appErr *AppError
	require.True(t, As(fmt.Errorf("outer: %w", NotFound("topic", "x")), &appErr))
	assert.Equal(t, ErrNotFound, appErr.Code)
}
