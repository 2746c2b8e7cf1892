package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Employee-specific validation errors
var (
	// ErrEmployeeNameEmpty is returned when an employee's name is empty or whitespace.
	ErrEmployeeNameEmpty = errors.New("employee name cannot be empty")

	// ErrEmployeeTenantIDEmpty is returned when an employee's tenant ID is empty or nil.
	ErrEmployeeTenantIDEmpty = errors.New("employee tenant ID cannot be empty")
)

// Employee is the subject of biometric tasks. Only the identity fields the
// orchestration layer needs are modeled here; the wider HR record lives in
// the surrounding application.
type Employee struct {
	ID                 uuid.UUID
	TenantID           uuid.UUID
	Name               string
	RegistrationNumber string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// NewEmployee creates an employee record for the given tenant.
func NewEmployee(tenantID uuid.UUID, name, registrationNumber string) (*Employee, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmployeeNameEmpty
	}
	if tenantID == uuid.Nil {
		return nil, ErrEmployeeTenantIDEmpty
	}

	now := time.Now().UTC()
	return &Employee{
		ID:                 uuid.New(),
		TenantID:           tenantID,
		Name:               name,
		RegistrationNumber: strings.TrimSpace(registrationNumber),
		CreatedAt:          now,
		UpdatedAt:          now,
	}, nil
}

// SubjectIdentifier returns the identifier embedded in task payloads: the
// registration number when present, otherwise the employee ID.
func (e *Employee) SubjectIdentifier() string {
	if e.RegistrationNumber != "" {
		return e.RegistrationNumber
	}
	return e.ID.String()
}
