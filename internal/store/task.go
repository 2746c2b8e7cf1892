package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/carloseedutra-ti/EPIFlow/internal/domain"
)

// TaskStore defines the interface for biometric task persistence. The
// orchestration service is the only writer; the overview projector and the
// status endpoint only read.
type TaskStore interface {
	// Create saves a new task. Returns ErrOpenTaskExists when a pending or
	// in-progress task already exists for the same (employee, finger) pair
	// (backed by a partial unique index, so racing creators cannot both win).
	Create(ctx context.Context, task *domain.BiometricTask) error

	// GetByID retrieves a task by ID within a tenant.
	// Returns ErrTaskNotFound if absent or cross-tenant.
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*domain.BiometricTask, error)

	// GetByIDForAgent retrieves a task by ID owned by the given agent.
	// Returns ErrTaskNotFound if absent or owned by another agent.
	GetByIDForAgent(ctx context.Context, agentID, id uuid.UUID) (*domain.BiometricTask, error)

	// HasOpenTask reports whether a pending or in-progress task exists for
	// the (employee, finger) pair.
	HasOpenTask(ctx context.Context, employeeID uuid.UUID, finger domain.Finger) (bool, error)

	// LatestCompletedTemplate returns the template stored by the most recent
	// completed task for the (employee, finger) pair, or "" when no completed
	// task carries a non-empty template.
	LatestCompletedTemplate(ctx context.Context, employeeID uuid.UUID, finger domain.Finger) (string, error)

	// ClaimOldestPending atomically selects the oldest pending task owned by
	// the agent and transitions it to in-progress, stamping the assignment
	// timestamps. The select-then-claim is a single conditional update, so
	// two concurrent claims never return the same task.
	// Returns (nil, nil) when the agent has no pending work.
	ClaimOldestPending(ctx context.Context, agentID uuid.UUID, at time.Time) (*domain.BiometricTask, error)

	// CancelExpired transitions the agent's in-progress tasks whose capture
	// started at or before cutoff to cancelled, stamping a system actor and
	// the given reason. A nil agentID sweeps all agents. Returns the number
	// of tasks cancelled.
	CancelExpired(ctx context.Context, agentID uuid.UUID, cutoff time.Time, reason string, at time.Time) (int, error)

	// ApplyTransition persists the task's mutated status, result, failure
	// reason and completion fields, guarded on the task still being in the
	// expected prior status. Returns ErrTaskStateChanged when the guard
	// fails (e.g. the expiry sweep got there first).
	ApplyTransition(ctx context.Context, task *domain.BiometricTask, from domain.TaskStatus) error

	// ListByEmployee returns all of the employee's tasks, newest first.
	ListByEmployee(ctx context.Context, employeeID uuid.UUID) ([]*domain.BiometricTask, error)

	// DeleteByEmployee hard-deletes every task for the employee, regardless
	// of state. Returns the number of tasks removed.
	DeleteByEmployee(ctx context.Context, employeeID uuid.UUID) (int, error)

	// WithTx returns a TaskStore bound to the provided transaction.
	WithTx(tx *sql.Tx) TaskStore
}
