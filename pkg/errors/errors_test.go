package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCodeOf(t *testing.T) {
	assert.Equal(t, ErrNotFound, CodeOf(NotFound("hospital", nil)))
	assert.Equal(t, ErrConflict, CodeOf(Conflict("duplicate", nil)))
	assert.Equal(t, ErrInternal, CodeOf(errors.New("plain error")))
	assert.Equal(t, ErrInternal, CodeOf(nil))
}

func TestCodeOfWrappedError(t *testing.T) {
	wrapped := fmt.Errorf("saving hospital: %w", Conflict("duplicate registration", nil))
	assert.Equal(t, ErrConflict, CodeOf(wrapped))
}

func TestIsMatchesByCode(t *testing.T) {
	a := NotFound("hospital", nil)
	b := NotFound("user", errors.New("sql: no rows"))

	assert.True(t, errors.Is(a, b))
	assert.False(t, errors.Is(a, Conflict("x", nil)))
	assert.False(t, errors.Is(a, errors.New("hospital not found")))
}

func TestUnwrapExposesCause(t *testing.T) {
	cause := errors.New("dial tcp: connection refused")
	err := Unavailable("broker unreachable", cause)

	assert.True(t, errors.Is(err, cause))
	assert.Contains(t, err.Error(), "broker unreachable")
	assert.Contains(t, err.Error(), "connection refused")
}

func TestRetryable(t *testing.T) {
	assert.True(t, Retryable(Unavailable("down", nil)))
	assert.False(t, Retryable(Validation("bad input")))
	assert.False(t, Retryable(Conflict("duplicate", nil)))
	assert.False(t, Retryable(PartialSuccess("partly done", nil)))
	assert.False(t, Retryable(errors.New("plain")))
}

func TestFieldConstructors(t *testing.T) {
	err := MissingField("licenseNumber")
	assert.Equal(t, ErrValidation, err.Code)
	assert.Equal(t, []string{"licenseNumber"}, err.Fields)
	assert.Contains(t, err.Message, "licenseNumber")

	locked := FieldLocked("registration_number", "name")
	assert.Equal(t, ErrFieldLocked, locked.Code)
	assert.Equal(t, []string{"registration_number", "name"}, locked.Fields)
}

func TestStateTransitionMessageNamesBothStates(t *testing.T) {
	err := StateTransition("rejected", "approved")
	assert.Equal(t, ErrStateTransition, err.Code)
	assert.Contains(t, err.Message, "rejected")
	assert.Contains(t, err.Message, "approved")
}

func TestForbiddenCarriesNoDetail(t *testing.T) {
	assert.Equal(t, "access denied", Forbidden().Error())
	assert.Empty(t, Forbidden().Fields)
}
