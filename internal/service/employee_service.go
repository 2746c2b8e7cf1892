package service

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/carloseedutra-ti/EPIFlow/internal/domain"
	"github.com/carloseedutra-ti/EPIFlow/internal/platform/logger"
	"github.com/carloseedutra-ti/EPIFlow/internal/store"
)

// EmployeeService provides the minimal employee records the biometric
// workflows target.
type EmployeeService interface {
	// Create registers an employee in the tenant.
	Create(ctx context.Context, tenantID uuid.UUID, name, registrationNumber string) (*domain.Employee, error)

	// Get retrieves an employee by ID within the tenant.
	Get(ctx context.Context, tenantID, employeeID uuid.UUID) (*domain.Employee, error)
}

// employeeServiceImpl implements the EmployeeService interface.
type employeeServiceImpl struct {
	employeeStore store.EmployeeStore
	logger        *slog.Logger
}

// NewEmployeeService creates a new EmployeeService.
func NewEmployeeService(employeeStore store.EmployeeStore, logger *slog.Logger) (EmployeeService, error) {
	if employeeStore == nil {
		return nil, NewValidationError("employeeStore", "cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &employeeServiceImpl{
		employeeStore: employeeStore,
		logger:        logger.With(slog.String("component", "employee_service")),
	}, nil
}

// Create implements EmployeeService.Create
func (s *employeeServiceImpl) Create(ctx context.Context, tenantID uuid.UUID, name, registrationNumber string) (*domain.Employee, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	employee, err := domain.NewEmployee(tenantID, name, registrationNumber)
	if err != nil {
		return nil, err
	}

	if err := s.employeeStore.Create(ctx, employee); err != nil {
		return nil, err
	}

	log.Info("employee created", "employee_id", employee.ID)
	return employee, nil
}

// Get implements EmployeeService.Get
func (s *employeeServiceImpl) Get(ctx context.Context, tenantID, employeeID uuid.UUID) (*domain.Employee, error) {
	return s.employeeStore.GetByID(ctx, tenantID, employeeID)
}
