package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/carloseedutra-ti/EPIFlow/internal/domain"
	"github.com/carloseedutra-ti/EPIFlow/internal/platform/logger"
	"github.com/carloseedutra-ti/EPIFlow/internal/store"
)

const (
	// DefaultCaptureTimeout is how long a claimed task may sit in progress
	// before the sweep cancels it, unless configured otherwise.
	DefaultCaptureTimeout = 5 * time.Minute

	// ExpiredTaskReason is the system-authored reason stamped on tasks
	// cancelled by the expiry sweep.
	ExpiredTaskReason = "capture timed out waiting for agent response"

	// DefaultFailureReason is recorded when an agent reports failure without
	// giving a reason.
	DefaultFailureReason = "failure reported by agent"
)

// BiometricService orchestrates the capture task lifecycle: creating work for
// agents, handing it out on poll, and applying completion, failure, and
// expiry transitions.
type BiometricService interface {
	// RequestEnrollment queues an enrollment capture for an employee finger
	// on the given agent. Returns store.ErrOpenTaskExists when the finger
	// already has an open task, ErrAgentInactive for a deactivated agent.
	RequestEnrollment(ctx context.Context, tenantID, agentID, employeeID uuid.UUID, finger domain.Finger, requestedBy domain.Actor) (*domain.BiometricTask, error)

	// RequestVerification queues a verification capture. The most recent
	// completed enrollment template for the finger is embedded in the task
	// payload; ErrNoReferenceTemplate when none exists.
	RequestVerification(ctx context.Context, tenantID, agentID, employeeID uuid.UUID, finger domain.Finger, requestedBy domain.Actor) (*domain.BiometricTask, error)

	// AgentConfiguration resolves an agent by credential and refreshes its
	// heartbeat. ErrInvalidAPIKey for an unknown key, ErrAgentInactive for a
	// deactivated agent.
	AgentConfiguration(ctx context.Context, apiKey uuid.UUID) (*domain.Agent, error)

	// Dequeue is the poll operation: it refreshes the agent heartbeat,
	// cancels the agent's expired in-progress tasks, and atomically claims
	// the oldest pending task. Returns (nil, nil) when there is no work or
	// the agent is inactive; an inactive agent still heartbeats.
	Dequeue(ctx context.Context, apiKey uuid.UUID) (*domain.BiometricTask, error)

	// CompleteTask records a successful capture reported by the agent
	// holding the credential. An enrollment must carry a template
	// (ValidationError otherwise); a verification may report an empty
	// template, which stands for "matched" and reuses the embedded
	// reference template in the stored result. Completing an
	// already-completed task is a no-op; any other terminal state yields
	// ErrTaskTerminal.
	CompleteTask(ctx context.Context, apiKey, taskID uuid.UUID, templateBase64 string) error

	// FailTask records a failed capture. Failing an already-failed task is a
	// no-op; any other terminal state yields ErrTaskTerminal. An empty
	// reason becomes DefaultFailureReason.
	FailTask(ctx context.Context, apiKey, taskID uuid.UUID, reason string) error

	// GetTask retrieves a task within the tenant.
	GetTask(ctx context.Context, tenantID, taskID uuid.UUID) (*domain.BiometricTask, error)

	// ClearEnrollments deletes the employee's task history, returning how
	// many rows were removed.
	ClearEnrollments(ctx context.Context, tenantID, employeeID uuid.UUID) (int, error)

	// SweepExpired cancels expired in-progress tasks across all agents.
	// Used by the background sweeper for agents that never poll again.
	SweepExpired(ctx context.Context) (int, error)

	// EmployeeOverview projects the employee's per-finger biometric status
	// together with the tenant's active agents and their online state.
	EmployeeOverview(ctx context.Context, tenantID, employeeID uuid.UUID) (*EmployeeBiometricOverview, error)
}

// biometricServiceImpl implements the BiometricService interface.
type biometricServiceImpl struct {
	db             *sql.DB
	agentStore     store.AgentStore
	taskStore      store.TaskStore
	employeeStore  store.EmployeeStore
	captureTimeout time.Duration
	logger         *slog.Logger
	now            func() time.Time // Injectable for testing
}

// NewBiometricService creates a new BiometricService. db may be nil in tests
// backed by fake stores; request operations then run without a surrounding
// transaction. A non-positive captureTimeout falls back to
// DefaultCaptureTimeout.
func NewBiometricService(
	db *sql.DB,
	agentStore store.AgentStore,
	taskStore store.TaskStore,
	employeeStore store.EmployeeStore,
	captureTimeout time.Duration,
	logger *slog.Logger,
) (BiometricService, error) {
	if agentStore == nil {
		return nil, NewValidationError("agentStore", "cannot be nil")
	}
	if taskStore == nil {
		return nil, NewValidationError("taskStore", "cannot be nil")
	}
	if employeeStore == nil {
		return nil, NewValidationError("employeeStore", "cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	if captureTimeout <= 0 {
		captureTimeout = DefaultCaptureTimeout
	}

	return &biometricServiceImpl{
		db:             db,
		agentStore:     agentStore,
		taskStore:      taskStore,
		employeeStore:  employeeStore,
		captureTimeout: captureTimeout,
		logger:         logger.With(slog.String("component", "biometric_service")),
		now:            func() time.Time { return time.Now().UTC() },
	}, nil
}

// inTaskTx runs fn against transaction-bound stores when a database handle is
// available, and directly against the configured stores otherwise.
func (s *biometricServiceImpl) inTaskTx(ctx context.Context, fn func(ctx context.Context, tasks store.TaskStore) error) error {
	if s.db == nil {
		return fn(ctx, s.taskStore)
	}
	return store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		return fn(ctx, s.taskStore.WithTx(tx))
	})
}

// resolveRequestTargets loads and checks the employee and agent a new task
// is aimed at.
func (s *biometricServiceImpl) resolveRequestTargets(ctx context.Context, tenantID, agentID, employeeID uuid.UUID) (*domain.Employee, *domain.Agent, error) {
	employee, err := s.employeeStore.GetByID(ctx, tenantID, employeeID)
	if err != nil {
		return nil, nil, err
	}

	agent, err := s.agentStore.GetByID(ctx, tenantID, agentID)
	if err != nil {
		return nil, nil, err
	}
	if !agent.Active {
		return nil, nil, ErrAgentInactive
	}

	return employee, agent, nil
}

// RequestEnrollment implements BiometricService.RequestEnrollment
func (s *biometricServiceImpl) RequestEnrollment(
	ctx context.Context,
	tenantID, agentID, employeeID uuid.UUID,
	finger domain.Finger,
	requestedBy domain.Actor,
) (*domain.BiometricTask, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if !finger.Valid() {
		return nil, NewValidationError("finger", "must be a finger code between 0 and 9")
	}

	employee, _, err := s.resolveRequestTargets(ctx, tenantID, agentID, employeeID)
	if err != nil {
		return nil, err
	}

	payload := domain.NewEnrollPayload(employee.SubjectIdentifier(), employee.Name)
	task, err := domain.NewBiometricTask(tenantID, agentID, employeeID, finger, employee.Name, employee.RegistrationNumber, requestedBy, payload)
	if err != nil {
		return nil, err
	}

	err = s.inTaskTx(ctx, func(ctx context.Context, tasks store.TaskStore) error {
		open, err := tasks.HasOpenTask(ctx, employeeID, finger)
		if err != nil {
			return err
		}
		if open {
			return store.ErrOpenTaskExists
		}
		return tasks.Create(ctx, task)
	})
	if err != nil {
		return nil, err
	}

	log.Info("enrollment task queued",
		"task_id", task.ID,
		"employee_id", employeeID,
		"agent_id", agentID,
		"finger", finger.String())
	return task, nil
}

// RequestVerification implements BiometricService.RequestVerification
func (s *biometricServiceImpl) RequestVerification(
	ctx context.Context,
	tenantID, agentID, employeeID uuid.UUID,
	finger domain.Finger,
	requestedBy domain.Actor,
) (*domain.BiometricTask, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if !finger.Valid() {
		return nil, NewValidationError("finger", "must be a finger code between 0 and 9")
	}

	employee, _, err := s.resolveRequestTargets(ctx, tenantID, agentID, employeeID)
	if err != nil {
		return nil, err
	}

	var task *domain.BiometricTask
	err = s.inTaskTx(ctx, func(ctx context.Context, tasks store.TaskStore) error {
		template, err := tasks.LatestCompletedTemplate(ctx, employeeID, finger)
		if err != nil {
			return err
		}
		if template == "" {
			return ErrNoReferenceTemplate
		}

		open, err := tasks.HasOpenTask(ctx, employeeID, finger)
		if err != nil {
			return err
		}
		if open {
			return store.ErrOpenTaskExists
		}

		payload := domain.NewVerifyPayload(employee.SubjectIdentifier(), employee.Name, template)
		task, err = domain.NewBiometricTask(tenantID, agentID, employeeID, finger, employee.Name, employee.RegistrationNumber, requestedBy, payload)
		if err != nil {
			return err
		}
		return tasks.Create(ctx, task)
	})
	if err != nil {
		return nil, err
	}

	log.Info("verification task queued",
		"task_id", task.ID,
		"employee_id", employeeID,
		"agent_id", agentID,
		"finger", finger.String())
	return task, nil
}

// resolveAgentByKey maps an unknown credential to ErrInvalidAPIKey.
func (s *biometricServiceImpl) resolveAgentByKey(ctx context.Context, apiKey uuid.UUID) (*domain.Agent, error) {
	agent, err := s.agentStore.GetByAPIKey(ctx, apiKey)
	if err != nil {
		if errors.Is(err, store.ErrAgentNotFound) {
			return nil, ErrInvalidAPIKey
		}
		return nil, err
	}
	return agent, nil
}

// AgentConfiguration implements BiometricService.AgentConfiguration
func (s *biometricServiceImpl) AgentConfiguration(ctx context.Context, apiKey uuid.UUID) (*domain.Agent, error) {
	agent, err := s.resolveAgentByKey(ctx, apiKey)
	if err != nil {
		return nil, err
	}
	if !agent.Active {
		return nil, ErrAgentInactive
	}

	now := s.now()
	if err := s.agentStore.TouchLastSeen(ctx, agent.ID, now); err != nil {
		return nil, fmt.Errorf("failed to record agent heartbeat: %w", err)
	}
	agent.LastSeenAt = &now

	return agent, nil
}

// Dequeue implements BiometricService.Dequeue
func (s *biometricServiceImpl) Dequeue(ctx context.Context, apiKey uuid.UUID) (*domain.BiometricTask, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	agent, err := s.resolveAgentByKey(ctx, apiKey)
	if err != nil {
		return nil, err
	}

	now := s.now()
	if err := s.agentStore.TouchLastSeen(ctx, agent.ID, now); err != nil {
		return nil, fmt.Errorf("failed to record agent heartbeat: %w", err)
	}

	// Lazy sweep: every poll cancels this agent's abandoned captures before
	// any new work is handed out.
	cancelled, err := s.taskStore.CancelExpired(ctx, agent.ID, now.Add(-s.captureTimeout), ExpiredTaskReason, now)
	if err != nil {
		return nil, fmt.Errorf("failed to sweep expired tasks: %w", err)
	}
	if cancelled > 0 {
		log.Info("cancelled expired tasks on poll",
			"agent_id", agent.ID,
			"count", cancelled)
	}

	// Inactive agents keep their heartbeat current but never receive work.
	if !agent.Active {
		return nil, nil
	}

	task, err := s.taskStore.ClaimOldestPending(ctx, agent.ID, now)
	if err != nil {
		return nil, fmt.Errorf("failed to claim pending task: %w", err)
	}
	if task != nil {
		log.Info("task claimed",
			"task_id", task.ID,
			"agent_id", agent.ID,
			"operation", task.Payload.Operation,
			"finger", task.Finger.String())
	}

	return task, nil
}

// finishTask applies a terminal transition reported by an agent. target is
// the state being requested; finish validates the report against the open
// task and mutates it into that state.
func (s *biometricServiceImpl) finishTask(
	ctx context.Context,
	apiKey, taskID uuid.UUID,
	target domain.TaskStatus,
	finish func(task *domain.BiometricTask, agent *domain.Agent, now time.Time) error,
) error {
	agent, err := s.resolveAgentByKey(ctx, apiKey)
	if err != nil {
		return err
	}
	if !agent.Active {
		return ErrAgentInactive
	}

	task, err := s.taskStore.GetByIDForAgent(ctx, agent.ID, taskID)
	if err != nil {
		return err
	}

	// Reporting the same outcome twice is tolerated; any other attempt to
	// leave a terminal state is a conflict.
	if task.Status.Terminal() {
		if task.Status == target {
			return nil
		}
		return fmt.Errorf("%w: task is %s", ErrTaskTerminal, task.Status)
	}

	from := task.Status
	now := s.now()
	if err := finish(task, agent, now); err != nil {
		return err
	}
	task.Status = target
	task.CompletedAt = &now
	task.CompletedBy = domain.AgentActor(agent.ID, agent.Name)
	task.UpdatedAt = now

	err = s.taskStore.ApplyTransition(ctx, task, from)
	if errors.Is(err, store.ErrTaskStateChanged) {
		// Lost the race: someone else moved the task first. Re-read and
		// apply the same terminal-state policy.
		current, getErr := s.taskStore.GetByIDForAgent(ctx, agent.ID, taskID)
		if getErr != nil {
			return getErr
		}
		if current.Status == target {
			return nil
		}
		return fmt.Errorf("%w: task is %s", ErrTaskTerminal, current.Status)
	}
	return err
}

// CompleteTask implements BiometricService.CompleteTask
func (s *biometricServiceImpl) CompleteTask(ctx context.Context, apiKey, taskID uuid.UUID, templateBase64 string) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	err := s.finishTask(ctx, apiKey, taskID, domain.TaskStatusCompleted, func(task *domain.BiometricTask, agent *domain.Agent, now time.Time) error {
		template := templateBase64
		switch task.Payload.Operation {
		case domain.OperationEnroll:
			// An enrollment without a captured template has nothing to
			// store; refusing keeps the task open for a retry.
			if template == "" {
				return NewValidationError("template_base64", "enrollment completion requires a captured template")
			}
		case domain.OperationVerify:
			// An empty verify report means "matched"; the stored result
			// keeps the reference template the agent verified against.
			if template == "" {
				template = task.Payload.ReferenceTemplate
			}
		}
		task.Result = &domain.TaskResult{
			TemplateBase64: template,
			Operation:      task.Payload.Operation,
			Verified:       task.Payload.Operation == domain.OperationVerify,
		}
		task.FailureReason = ""
		return nil
	})
	if err != nil {
		return err
	}

	log.Info("task completed", "task_id", taskID)
	return nil
}

// FailTask implements BiometricService.FailTask
func (s *biometricServiceImpl) FailTask(ctx context.Context, apiKey, taskID uuid.UUID, reason string) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if reason == "" {
		reason = DefaultFailureReason
	}

	err := s.finishTask(ctx, apiKey, taskID, domain.TaskStatusFailed, func(task *domain.BiometricTask, agent *domain.Agent, now time.Time) error {
		task.Result = nil
		task.FailureReason = reason
		return nil
	})
	if err != nil {
		return err
	}

	log.Info("task failed", "task_id", taskID, "reason", reason)
	return nil
}

// GetTask implements BiometricService.GetTask
func (s *biometricServiceImpl) GetTask(ctx context.Context, tenantID, taskID uuid.UUID) (*domain.BiometricTask, error) {
	return s.taskStore.GetByID(ctx, tenantID, taskID)
}

// ClearEnrollments implements BiometricService.ClearEnrollments
func (s *biometricServiceImpl) ClearEnrollments(ctx context.Context, tenantID, employeeID uuid.UUID) (int, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if _, err := s.employeeStore.GetByID(ctx, tenantID, employeeID); err != nil {
		return 0, err
	}

	var deleted int
	err := s.inTaskTx(ctx, func(ctx context.Context, tasks store.TaskStore) error {
		var err error
		deleted, err = tasks.DeleteByEmployee(ctx, employeeID)
		return err
	})
	if err != nil {
		return 0, err
	}

	log.Info("cleared biometric history",
		"employee_id", employeeID,
		"deleted", deleted)
	return deleted, nil
}

// SweepExpired implements BiometricService.SweepExpired
func (s *biometricServiceImpl) SweepExpired(ctx context.Context) (int, error) {
	now := s.now()
	return s.taskStore.CancelExpired(ctx, uuid.Nil, now.Add(-s.captureTimeout), ExpiredTaskReason, now)
}
