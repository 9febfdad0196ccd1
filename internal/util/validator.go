package util

import "strings"

// ValidationError marks failures callers should report as bad input rather
// than internal faults.
type ValidationError struct {
	msg string
}

func (e *ValidationError) Error() string {
	return e.msg
}

// Invalid builds a validation error.
func Invalid(msg string) error {
	return &ValidationError{msg: msg}
}

// ValidatePassword checks minimum password requirements.
func ValidatePassword(password string) error {
	if len(password) < 8 {
		return Invalid("password must have at least 8 characters")
	}
	return nil
}

// RequireString ensures a non-empty string.
func RequireString(value, field string) error {
	if strings.TrimSpace(value) == "" {
		return Invalid(field + " is required")
	}
	return nil
}
