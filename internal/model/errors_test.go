package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidationError(t *testing.T) {
	verr := NewValidationError()
	assert.False(t, verr.HasViolations())

	verr.Add("PasswordTooShort", "password must be at least 8 characters long")
	verr.Add("PasswordRequiresDigit", "password must contain a digit")

	assert.True(t, verr.HasViolations())
	assert.Equal(t, "validation failed: PasswordRequiresDigit, PasswordTooShort", verr.Error())
}
