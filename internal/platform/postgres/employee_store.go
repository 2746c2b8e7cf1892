package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/carloseedutra-ti/EPIFlow/internal/domain"
	"github.com/carloseedutra-ti/EPIFlow/internal/store"
)

// PostgresEmployeeStore implements the store.EmployeeStore interface
// using a PostgreSQL database as the storage backend.
type PostgresEmployeeStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresEmployeeStore creates a new PostgreSQL implementation of the
// EmployeeStore interface. If logger is nil, the default logger is used.
func NewPostgresEmployeeStore(db store.DBTX, logger *slog.Logger) *PostgresEmployeeStore {
	if db == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresEmployeeStore{
		db:     db,
		logger: logger.With(slog.String("component", "employee_store")),
	}
}

// Ensure PostgresEmployeeStore implements store.EmployeeStore
var _ store.EmployeeStore = (*PostgresEmployeeStore)(nil)

// Create implements store.EmployeeStore.Create
func (s *PostgresEmployeeStore) Create(ctx context.Context, employee *domain.Employee) error {
	query := `
		INSERT INTO employees (id, tenant_id, name, registration_number, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := s.db.ExecContext(ctx, query,
		employee.ID,
		employee.TenantID,
		employee.Name,
		nullString(employee.RegistrationNumber),
		employee.CreatedAt,
		employee.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create employee: %w", MapError(err))
	}

	return nil
}

// GetByID implements store.EmployeeStore.GetByID
func (s *PostgresEmployeeStore) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*domain.Employee, error) {
	query := `
		SELECT id, tenant_id, name, registration_number, created_at, updated_at
		FROM employees
		WHERE id = $1 AND tenant_id = $2
	`

	var (
		employee           domain.Employee
		registrationNumber sql.NullString
	)
	err := s.db.QueryRowContext(ctx, query, id, tenantID).Scan(
		&employee.ID,
		&employee.TenantID,
		&employee.Name,
		&registrationNumber,
		&employee.CreatedAt,
		&employee.UpdatedAt,
	)
	if err != nil {
		if IsNotFound(err) {
			return nil, store.ErrEmployeeNotFound
		}
		return nil, fmt.Errorf("failed to get employee: %w", MapError(err))
	}
	employee.RegistrationNumber = registrationNumber.String

	return &employee, nil
}

// WithTx implements store.EmployeeStore.WithTx
func (s *PostgresEmployeeStore) WithTx(tx *sql.Tx) store.EmployeeStore {
	return &PostgresEmployeeStore{db: tx, logger: s.logger}
}
