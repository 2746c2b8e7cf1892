package store

import (
	"errors"
	"fmt"
)

// Common store errors used across all store implementations.
var (
	// ErrNotFound is returned when a requested entity does not exist in the
	// store, or is not visible in the caller's tenant. This is a generic
	// version of the entity-specific not found errors.
	ErrNotFound = errors.New("entity not found")

	// ErrDuplicate is returned when an operation would create a duplicate
	// of a unique entity (e.g., an agent with the same name in a tenant).
	ErrDuplicate = errors.New("entity already exists")

	// ErrUpdateFailed is returned when an update operation fails, for example
	// because the entity does not exist or the update violates constraints.
	ErrUpdateFailed = errors.New("update failed")

	// ErrTransactionFailed is returned when a database transaction fails
	// to commit or when an operation within a transaction fails.
	ErrTransactionFailed = errors.New("transaction failed")

	// ErrInvalidEntity is returned when an entity fails validation before
	// being stored. Check the wrapped error for specific validation details.
	ErrInvalidEntity = errors.New("invalid entity")

	// Entity-specific "not found" errors

	// ErrAgentNotFound indicates that the requested agent does not exist.
	ErrAgentNotFound = fmt.Errorf("%w: agent", ErrNotFound)

	// ErrTaskNotFound indicates that the requested biometric task does not exist.
	ErrTaskNotFound = fmt.Errorf("%w: task", ErrNotFound)

	// ErrEmployeeNotFound indicates that the requested employee does not exist.
	ErrEmployeeNotFound = fmt.Errorf("%w: employee", ErrNotFound)

	// ErrUserNotFound indicates that the requested user does not exist.
	ErrUserNotFound = fmt.Errorf("%w: user", ErrNotFound)

	// Entity-specific "duplicate" errors

	// ErrAgentNameExists indicates that an agent with the given name already
	// exists within the tenant.
	ErrAgentNameExists = fmt.Errorf("%w: agent name", ErrDuplicate)

	// ErrEmailExists indicates that a user with the given email already exists.
	ErrEmailExists = fmt.Errorf("%w: email", ErrDuplicate)

	// ErrOpenTaskExists indicates that a pending or in-progress task already
	// exists for the targeted (employee, finger) pair.
	ErrOpenTaskExists = fmt.Errorf("%w: open task for finger", ErrDuplicate)

	// Transition guards

	// ErrTaskStateChanged is returned when a guarded status transition finds
	// the task no longer in the expected state. Callers racing the expiry
	// sweep see this instead of silently overwriting a terminal task.
	ErrTaskStateChanged = errors.New("task state changed concurrently")
)

// IsNotFoundError checks if the error is any kind of "not found" error.
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsDuplicateError checks if the error is any kind of "duplicate" error.
func IsDuplicateError(err error) bool {
	return errors.Is(err, ErrDuplicate)
}
