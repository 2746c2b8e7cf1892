package api

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/carloseedutra-ti/EPIFlow/internal/domain"
	"github.com/carloseedutra-ti/EPIFlow/internal/service"
	"github.com/carloseedutra-ti/EPIFlow/internal/store"
)

// Function-field stubs for the service interfaces. Each test configures only
// the calls it expects; any other call fails loudly.

var errUnexpectedCall = errors.New("unexpected call on stub")

type stubBiometricService struct {
	requestEnrollment   func(ctx context.Context, tenantID, agentID, employeeID uuid.UUID, finger domain.Finger, requestedBy domain.Actor) (*domain.BiometricTask, error)
	requestVerification func(ctx context.Context, tenantID, agentID, employeeID uuid.UUID, finger domain.Finger, requestedBy domain.Actor) (*domain.BiometricTask, error)
	agentConfiguration  func(ctx context.Context, apiKey uuid.UUID) (*domain.Agent, error)
	dequeue             func(ctx context.Context, apiKey uuid.UUID) (*domain.BiometricTask, error)
	completeTask        func(ctx context.Context, apiKey, taskID uuid.UUID, templateBase64 string) error
	failTask            func(ctx context.Context, apiKey, taskID uuid.UUID, reason string) error
	getTask             func(ctx context.Context, tenantID, taskID uuid.UUID) (*domain.BiometricTask, error)
	clearEnrollments    func(ctx context.Context, tenantID, employeeID uuid.UUID) (int, error)
	sweepExpired        func(ctx context.Context) (int, error)
	employeeOverview    func(ctx context.Context, tenantID, employeeID uuid.UUID) (*service.EmployeeBiometricOverview, error)
}

var _ service.BiometricService = (*stubBiometricService)(nil)

func (s *stubBiometricService) RequestEnrollment(ctx context.Context, tenantID, agentID, employeeID uuid.UUID, finger domain.Finger, requestedBy domain.Actor) (*domain.BiometricTask, error) {
	if s.requestEnrollment == nil {
		return nil, errUnexpectedCall
	}
	return s.requestEnrollment(ctx, tenantID, agentID, employeeID, finger, requestedBy)
}

func (s *stubBiometricService) RequestVerification(ctx context.Context, tenantID, agentID, employeeID uuid.UUID, finger domain.Finger, requestedBy domain.Actor) (*domain.BiometricTask, error) {
	if s.requestVerification == nil {
		return nil, errUnexpectedCall
	}
	return s.requestVerification(ctx, tenantID, agentID, employeeID, finger, requestedBy)
}

func (s *stubBiometricService) AgentConfiguration(ctx context.Context, apiKey uuid.UUID) (*domain.Agent, error) {
	if s.agentConfiguration == nil {
		return nil, errUnexpectedCall
	}
	return s.agentConfiguration(ctx, apiKey)
}

func (s *stubBiometricService) Dequeue(ctx context.Context, apiKey uuid.UUID) (*domain.BiometricTask, error) {
	if s.dequeue == nil {
		return nil, errUnexpectedCall
	}
	return s.dequeue(ctx, apiKey)
}

func (s *stubBiometricService) CompleteTask(ctx context.Context, apiKey, taskID uuid.UUID, templateBase64 string) error {
	if s.completeTask == nil {
		return errUnexpectedCall
	}
	return s.completeTask(ctx, apiKey, taskID, templateBase64)
}

func (s *stubBiometricService) FailTask(ctx context.Context, apiKey, taskID uuid.UUID, reason string) error {
	if s.failTask == nil {
		return errUnexpectedCall
	}
	return s.failTask(ctx, apiKey, taskID, reason)
}

func (s *stubBiometricService) GetTask(ctx context.Context, tenantID, taskID uuid.UUID) (*domain.BiometricTask, error) {
	if s.getTask == nil {
		return nil, errUnexpectedCall
	}
	return s.getTask(ctx, tenantID, taskID)
}

func (s *stubBiometricService) ClearEnrollments(ctx context.Context, tenantID, employeeID uuid.UUID) (int, error) {
	if s.clearEnrollments == nil {
		return 0, errUnexpectedCall
	}
	return s.clearEnrollments(ctx, tenantID, employeeID)
}

func (s *stubBiometricService) SweepExpired(ctx context.Context) (int, error) {
	if s.sweepExpired == nil {
		return 0, errUnexpectedCall
	}
	return s.sweepExpired(ctx)
}

func (s *stubBiometricService) EmployeeOverview(ctx context.Context, tenantID, employeeID uuid.UUID) (*service.EmployeeBiometricOverview, error) {
	if s.employeeOverview == nil {
		return nil, errUnexpectedCall
	}
	return s.employeeOverview(ctx, tenantID, employeeID)
}

type stubAgentService struct {
	register    func(ctx context.Context, tenantID uuid.UUID, name, machineName, description string, pollingIntervalSeconds int) (*domain.Agent, error)
	list        func(ctx context.Context, tenantID uuid.UUID) ([]service.AgentSummary, error)
	setActive   func(ctx context.Context, tenantID, agentID uuid.UUID, active bool) error
	resetAPIKey func(ctx context.Context, tenantID, agentID uuid.UUID) (uuid.UUID, error)
}

var _ service.AgentService = (*stubAgentService)(nil)

func (s *stubAgentService) Register(ctx context.Context, tenantID uuid.UUID, name, machineName, description string, pollingIntervalSeconds int) (*domain.Agent, error) {
	if s.register == nil {
		return nil, errUnexpectedCall
	}
	return s.register(ctx, tenantID, name, machineName, description, pollingIntervalSeconds)
}

func (s *stubAgentService) List(ctx context.Context, tenantID uuid.UUID) ([]service.AgentSummary, error) {
	if s.list == nil {
		return nil, errUnexpectedCall
	}
	return s.list(ctx, tenantID)
}

func (s *stubAgentService) SetActive(ctx context.Context, tenantID, agentID uuid.UUID, active bool) error {
	if s.setActive == nil {
		return errUnexpectedCall
	}
	return s.setActive(ctx, tenantID, agentID, active)
}

func (s *stubAgentService) ResetAPIKey(ctx context.Context, tenantID, agentID uuid.UUID) (uuid.UUID, error) {
	if s.resetAPIKey == nil {
		return uuid.Nil, errUnexpectedCall
	}
	return s.resetAPIKey(ctx, tenantID, agentID)
}

type stubUserService struct {
	login func(ctx context.Context, email, password string) (*domain.User, string, error)
}

var _ service.UserService = (*stubUserService)(nil)

func (s *stubUserService) Login(ctx context.Context, email, password string) (*domain.User, string, error) {
	if s.login == nil {
		return nil, "", errUnexpectedCall
	}
	return s.login(ctx, email, password)
}

type stubEmployeeService struct {
	create func(ctx context.Context, tenantID uuid.UUID, name, registrationNumber string) (*domain.Employee, error)
	get    func(ctx context.Context, tenantID, employeeID uuid.UUID) (*domain.Employee, error)
}

var _ service.EmployeeService = (*stubEmployeeService)(nil)

func (s *stubEmployeeService) Create(ctx context.Context, tenantID uuid.UUID, name, registrationNumber string) (*domain.Employee, error) {
	if s.create == nil {
		return nil, errUnexpectedCall
	}
	return s.create(ctx, tenantID, name, registrationNumber)
}

func (s *stubEmployeeService) Get(ctx context.Context, tenantID, employeeID uuid.UUID) (*domain.Employee, error) {
	if s.get == nil {
		return nil, errUnexpectedCall
	}
	return s.get(ctx, tenantID, employeeID)
}

// stubUserStore serves the requestActor lookup in the biometric handler.
type stubUserStore struct {
	users map[uuid.UUID]*domain.User
}

var _ store.UserStore = (*stubUserStore)(nil)

func (s *stubUserStore) Create(ctx context.Context, user *domain.User) error {
	return errUnexpectedCall
}

func (s *stubUserStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	if user, ok := s.users[id]; ok {
		return user, nil
	}
	return nil, store.ErrUserNotFound
}

func (s *stubUserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return nil, store.ErrUserNotFound
}
