package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDomainError_Message(t *testing.T) {
	err := NewNotFoundError("case")
	assert.Equal(t, "NOT_FOUND: case not found", err.Error())

	wrapped := NewInternalError(errors.New("boom"))
	assert.Equal(t, "INTERNAL_ERROR: An internal error occurred: boom", wrapped.Error())
}

func TestDomainError_CodesSurviveWrapping(t *testing.T) {
	base := NewValidationError("amount must be greater than zero")
	wrapped := fmt.Errorf("record payment: %w", base)

	assert.True(t, IsValidation(wrapped))
	assert.False(t, IsNotFound(wrapped))
	assert.ErrorIs(t, wrapped, ErrValidation)
	assert.Equal(t, ErrCodeValidation, GetErrorCode(wrapped))
}

func TestDomainError_Unwrap(t *testing.T) {
	sentinel := errors.New("version mismatch")
	err := NewConflictError("case was modified concurrently", sentinel)

	assert.True(t, IsConflict(err))
	assert.ErrorIs(t, err, sentinel)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestGetErrorCode_PlainError(t *testing.T) {
	assert.Equal(t, ErrCodeInternal, GetErrorCode(errors.New("plain")))
	assert.True(t, IsForbidden(NewForbiddenError("nope")))
}

func TestValidate(t *testing.T) {
	type request struct {
		CaseID string  `json:"case_id" validate:"required"`
		Amount float64 `json:"amount" validate:"gt=0"`
		Notes  string  `json:"notes,omitempty" validate:"max=5"`
	}

	require.NoError(t, Validate(request{CaseID: "c1", Amount: 10}))

	err := Validate(request{Amount: -1, Notes: "too long"})
	require.Error(t, err)
	assert.True(t, IsValidation(err))

	var de *DomainError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, map[string]string{
		"case_id": "required",
		"amount":  "gt=0",
		"notes":   "max=5",
	}, de.Fields)
}
