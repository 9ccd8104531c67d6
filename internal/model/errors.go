package model

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrNotFound indicates a requested record does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrInvalidCredentials covers unknown identifier, wrong password and
	// inactive account alike. The message stays generic so callers cannot
	// probe which accounts exist.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrInvalidToken covers a refresh or reset token that is absent,
	// expired, revoked or already used. One error for all causes.
	ErrInvalidToken = errors.New("invalid or expired token")

	// ErrUserNotFound is surfaced only where the user id is already known
	// to the caller, e.g. a confirmed reset against a deleted account.
	ErrUserNotFound = errors.New("user not found")
)

// ValidationError carries password-policy violations keyed by rule code.
type ValidationError struct {
	Violations map[string]string
}

func NewValidationError() *ValidationError {
	return &ValidationError{Violations: make(map[string]string)}
}

// Add records a violated rule with its description.
func (e *ValidationError) Add(rule, description string) {
	e.Violations[rule] = description
}

// HasViolations reports whether any rule was violated.
func (e *ValidationError) HasViolations() bool {
	return len(e.Violations) > 0
}

func (e *ValidationError) Error() string {
	rules := make([]string, 0, len(e.Violations))
	for rule := range e.Violations {
		rules = append(rules, rule)
	}
	sort.Strings(rules)
	return fmt.Sprintf("validation failed: %s", strings.Join(rules, ", "))
}
