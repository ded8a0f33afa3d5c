package apierrors

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWithFormattedMessage(t *testing.T) {
	err := ErrInvalidTaskStatus.WithFormattedMessage("BLOCKED")
	assert.Equal(t, "invalid task status 'BLOCKED'", err.Err)
	assert.Equal(t, "Недопустимый статус задачи 'BLOCKED'", err.RuErr)
	assert.Equal(t, ErrInvalidTaskStatus.Code, err.Code)
	assert.Equal(t, ErrInvalidTaskStatus.StatusCode, err.StatusCode)
}

func TestWithFormattedMessageNoArgs(t *testing.T) {
	err := ErrInvalidSprintStatus.WithFormattedMessage()
	assert.Equal(t, "invalid sprint status ''", err.Err)
	assert.Equal(t, "Недопустимый статус спринта ''", err.RuErr)
}

func TestWithFormattedMessageKeepsOriginal(t *testing.T) {
	_ = ErrUnsupportedRole.WithFormattedMessage("GUEST")
	assert.Equal(t, "unsupported role '%s'", ErrUnsupportedRole.Err)
}
