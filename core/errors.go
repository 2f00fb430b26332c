package core

import (
	"errors"
	"fmt"
)

// Error taxonomy for the orchestration core. Callers classify failures with
// errors.Is against these sentinels; construction helpers wrap them so the
// original cause stays reachable via errors.Unwrap.
var (
	// ErrNotFound marks a missing session or agent. It fails the specific
	// call only and is never fatal.
	ErrNotFound = errors.New("not found")

	// ErrValidation marks malformed input (empty message, unknown role).
	ErrValidation = errors.New("validation failed")

	// ErrExternalService marks a model or store failure that propagates to
	// the caller.
	ErrExternalService = errors.New("external service error")

	// ErrConfiguration marks an invalid wiring (e.g. missing default agent).
	// Fatal at startup.
	ErrConfiguration = errors.New("configuration error")
)

// NotFoundf builds an ErrNotFound with a formatted detail message.
func NotFoundf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
}

// Validationf builds an ErrValidation with a formatted detail message.
func Validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// ExternalServicef wraps an underlying cause as an ErrExternalService. The
// cause remains reachable through the error chain.
func ExternalServicef(cause error, format string, args ...any) error {
	return fmt.Errorf("%w: %s: %w", ErrExternalService, fmt.Sprintf(format, args...), cause)
}

// Configurationf builds an ErrConfiguration with a formatted detail message.
func Configurationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConfiguration, fmt.Sprintf(format, args...))
}
