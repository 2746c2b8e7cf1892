package service

import (
	"errors"
	"fmt"
)

// Common service errors - sentinel errors used across service implementations.
// Callers check these with errors.Is(); the API layer maps them to HTTP
// status codes.
var (
	// ErrAgentInactive indicates the agent exists but has been deactivated.
	// Inactive agents may not receive work or report results.
	ErrAgentInactive = errors.New("agent is inactive")

	// ErrInvalidAPIKey indicates the presented agent credential resolved to
	// no agent.
	ErrInvalidAPIKey = errors.New("invalid agent API key")

	// ErrTaskTerminal indicates an attempt to transition a task that already
	// reached a terminal state (completed, failed, or cancelled).
	ErrTaskTerminal = errors.New("task is already in a terminal state")

	// ErrNoReferenceTemplate indicates a verification was requested for a
	// finger that has no completed enrollment to verify against.
	ErrNoReferenceTemplate = errors.New("no completed enrollment exists for this finger")

	// ErrInvalidCredentials indicates a failed login attempt. Deliberately
	// indistinguishable between unknown email and wrong password.
	ErrInvalidCredentials = errors.New("invalid email or password")
)

// ValidationError carries per-field detail for rejected input.
type ValidationError struct {
	Field   string
	Message string
}

// Error implements the error interface for ValidationError.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s %s", e.Field, e.Message)
}

// NewValidationError creates a new ValidationError.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// BiometricServiceError is a custom error type for orchestration failures
// that are not covered by a sentinel.
type BiometricServiceError struct {
	Operation string
	Message   string
	Err       error
}

// Error implements the error interface for BiometricServiceError.
func (e *BiometricServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("biometric service %s failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("biometric service %s failed: %s", e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *BiometricServiceError) Unwrap() error {
	return e.Err
}

// NewBiometricServiceError creates a new BiometricServiceError.
func NewBiometricServiceError(operation, message string, err error) *BiometricServiceError {
	return &BiometricServiceError{
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}
