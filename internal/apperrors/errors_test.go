package apperrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"validation", Validation("email is required"), KindValidation},
		{"conflict", Conflict("email already registered"), KindConflict},
		{"auth", Unauthorized("invalid credentials"), KindAuth},
		{"forbidden", Forbidden("nope"), KindForbidden},
		{"not found", NotFound("doctor not found"), KindNotFound},
		{"unavailable", Unavailable("assistant disabled"), KindUnavailable},
		{"internal", Internal(errors.New("boom"), "insert user"), KindInternal},
		{"plain error", errors.New("boom"), KindInternal},
		{"wrapped", fmt.Errorf("register: %w", Conflict("dup")), KindConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.err))
		})
	}
}

func TestMessage_HidesInternalDetails(t *testing.T) {
	err := Internal(errors.New("connection refused: 10.0.0.3:27017"), "find doctor")

	assert.Equal(t, "Internal Server Error", Message(err))
	assert.Contains(t, err.Error(), "connection refused")
	assert.Equal(t, "doctor not found", Message(NotFound("doctor not found")))
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("boom")
	err := Internal(cause, "list cities")

	assert.True(t, errors.Is(err, cause))
}
