package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrTestCodeNotFound is returned when a code does not resolve to a test.
	ErrTestCodeNotFound = errors.New("test code not found")
	// ErrTestCodeInactive is returned for submissions against a deactivated test.
	ErrTestCodeInactive = errors.New("test code is no longer active")
	// ErrScoreNotFound indicates no score record exists for (test code, user).
	ErrScoreNotFound = errors.New("score record not found")
	// ErrDuplicateScore signals a unique-constraint violation on a first
	// submission race; callers recover by retrying as an update.
	ErrDuplicateScore = errors.New("score record already exists")
	// ErrDuplicateTestCode signals a collision on the shareable code.
	ErrDuplicateTestCode = errors.New("test code already exists")
	// ErrUserNotFound indicates the user id or identifier is unknown.
	ErrUserNotFound = errors.New("user not found")
	// ErrDuplicateUser signals the email or username is already taken.
	ErrDuplicateUser = errors.New("email or username already in use")
	// ErrInvalidCredentials is returned on failed login attempts.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrGenerationUnavailable means the question generator kept rate-limiting
	// after all retries; the condition is transient, not a hard failure.
	ErrGenerationUnavailable = errors.New("question generation temporarily unavailable")
)

// ValidationError reports a malformed or incomplete request.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + e.Reason
}

// Validationf builds a ValidationError from a format string.
func Validationf(format string, args ...any) error {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
