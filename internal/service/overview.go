package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/carloseedutra-ti/EPIFlow/internal/domain"
)

// FingerStatus is one row of the per-finger overview grid.
type FingerStatus struct {
	Finger      int        `json:"finger"`
	Name        string     `json:"name"`
	DisplayName string     `json:"display_name"`
	Enrolled    bool       `json:"enrolled"`
	Status      string     `json:"status"`
	TaskID      *uuid.UUID `json:"task_id,omitempty"`
	UpdatedAt   *time.Time `json:"updated_at,omitempty"`
}

// AgentStatus describes one active agent with its derived online state.
type AgentStatus struct {
	ID                     uuid.UUID  `json:"id"`
	Name                   string     `json:"name"`
	Online                 bool       `json:"online"`
	LastSeenAt             *time.Time `json:"last_seen_at,omitempty"`
	PollingIntervalSeconds int        `json:"polling_interval_seconds"`
}

// EmployeeBiometricOverview is the projection behind the enrollment screen:
// all ten fingers with their current state, plus the agents available to
// capture.
type EmployeeBiometricOverview struct {
	EmployeeID   uuid.UUID      `json:"employee_id"`
	EmployeeName string         `json:"employee_name"`
	Fingers      []FingerStatus `json:"fingers"`
	Agents       []AgentStatus  `json:"agents"`
}

// fingerStatusNone marks a finger with no task history.
const fingerStatusNone = "none"

// fingerStatusVerified labels a finger whose latest task is a completed
// verification, distinguishing it from a completed enrollment.
const fingerStatusVerified = "verified"

// EmployeeOverview implements BiometricService.EmployeeOverview
func (s *biometricServiceImpl) EmployeeOverview(ctx context.Context, tenantID, employeeID uuid.UUID) (*EmployeeBiometricOverview, error) {
	employee, err := s.employeeStore.GetByID(ctx, tenantID, employeeID)
	if err != nil {
		return nil, err
	}

	tasks, err := s.taskStore.ListByEmployee(ctx, employeeID)
	if err != nil {
		return nil, err
	}

	agents, err := s.agentStore.ListActive(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	now := s.now()

	overview := &EmployeeBiometricOverview{
		EmployeeID:   employee.ID,
		EmployeeName: employee.Name,
		Fingers:      projectFingers(tasks),
		Agents:       make([]AgentStatus, 0, len(agents)),
	}
	for _, agent := range agents {
		overview.Agents = append(overview.Agents, AgentStatus{
			ID:                     agent.ID,
			Name:                   agent.Name,
			Online:                 agent.Online(now),
			LastSeenAt:             agent.LastSeenAt,
			PollingIntervalSeconds: agent.PollingIntervalSeconds,
		})
	}

	return overview, nil
}

// projectFingers folds the task history (newest first) into one row per
// finger. A finger counts as enrolled when any completed enrollment holds a
// template; the displayed status always reflects its most recent task.
func projectFingers(tasks []*domain.BiometricTask) []FingerStatus {
	type fingerState struct {
		latest   *domain.BiometricTask
		enrolled bool
	}
	states := make(map[domain.Finger]*fingerState, len(domain.AllFingers()))

	for _, task := range tasks {
		state, ok := states[task.Finger]
		if !ok {
			state = &fingerState{}
			states[task.Finger] = state
		}
		if state.latest == nil {
			state.latest = task
		}
		if task.Status == domain.TaskStatusCompleted &&
			task.Payload.Operation == domain.OperationEnroll &&
			task.Result != nil && task.Result.TemplateBase64 != "" {
			state.enrolled = true
		}
	}

	fingers := make([]FingerStatus, 0, len(domain.AllFingers()))
	for _, finger := range domain.AllFingers() {
		row := FingerStatus{
			Finger:      finger.Code(),
			Name:        finger.String(),
			DisplayName: finger.DisplayName(),
			Status:      fingerStatusNone,
		}
		if state, ok := states[finger]; ok && state.latest != nil {
			row.Enrolled = state.enrolled
			row.Status = statusLabel(state.latest)
			id := state.latest.ID
			row.TaskID = &id
			updated := latestActivity(state.latest)
			row.UpdatedAt = &updated
		}
		fingers = append(fingers, row)
	}
	return fingers
}

// statusLabel derives the row label from the task's state and operation. A
// completed verification reads "verified" so it is never mistaken for a
// completed enrollment.
func statusLabel(task *domain.BiometricTask) string {
	if task.Status == domain.TaskStatusCompleted && task.Payload.Operation == domain.OperationVerify {
		return fingerStatusVerified
	}
	return string(task.Status)
}

// latestActivity picks the most specific timestamp the task carries.
func latestActivity(task *domain.BiometricTask) time.Time {
	switch {
	case task.CompletedAt != nil:
		return *task.CompletedAt
	case !task.UpdatedAt.IsZero():
		return task.UpdatedAt
	case task.StartedAt != nil:
		return *task.StartedAt
	case task.AssignedAt != nil:
		return *task.AssignedAt
	}
	return task.CreatedAt
}
