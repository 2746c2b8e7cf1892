package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/carloseedutra-ti/EPIFlow/internal/domain"
)

// EmployeeStore defines the interface for employee persistence. Only the
// operations the orchestration layer needs are modeled.
type EmployeeStore interface {
	// Create saves a new employee.
	Create(ctx context.Context, employee *domain.Employee) error

	// GetByID retrieves an employee by ID within a tenant.
	// Returns ErrEmployeeNotFound if absent or cross-tenant.
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*domain.Employee, error)

	// WithTx returns an EmployeeStore bound to the provided transaction.
	WithTx(tx *sql.Tx) EmployeeStore
}

// UserStore defines the interface for administrative user persistence.
type UserStore interface {
	// Create saves a new user, hashing the plaintext password.
	// Returns ErrEmailExists when the email is already registered.
	Create(ctx context.Context, user *domain.User) error

	// GetByID retrieves a user by ID.
	// Returns ErrUserNotFound if the user does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)

	// GetByEmail retrieves a user by email.
	// Returns ErrUserNotFound if the user does not exist.
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
}
