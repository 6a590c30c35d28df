package validate

import "fmt"

// ValidationError reports a bad value for a single option.
type ValidationError struct {
	Option string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Option == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Option, e.Reason)
}

// ConflictError reports two options that cannot be used together.
type ConflictError struct {
	A, B string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("you cannot use %s with %s", e.A, e.B)
}

func invalid(option, format string, args ...any) error {
	return &ValidationError{Option: option, Reason: fmt.Sprintf(format, args...)}
}

func conflict(a, b string) error {
	return &ConflictError{A: a, B: b}
}
