package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/carloseedutra-ti/EPIFlow/internal/domain"
	"github.com/carloseedutra-ti/EPIFlow/internal/store"
)

// openTaskConstraint is the partial unique index that allows at most one
// pending or in-progress task per (employee, finger).
const openTaskConstraint = "tasks_employee_finger_open_idx"

// PostgresTaskStore implements the store.TaskStore interface
// using a PostgreSQL database as the storage backend.
type PostgresTaskStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresTaskStore creates a new PostgreSQL implementation of the
// TaskStore interface. If logger is nil, the default logger is used.
func NewPostgresTaskStore(db store.DBTX, logger *slog.Logger) *PostgresTaskStore {
	if db == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresTaskStore{
		db:     db,
		logger: logger.With(slog.String("component", "task_store")),
	}
}

// Ensure PostgresTaskStore implements store.TaskStore
var _ store.TaskStore = (*PostgresTaskStore)(nil)

const taskColumns = `id, tenant_id, agent_id, employee_id, finger, status,
	employee_name, employee_registration_number,
	requested_by_kind, requested_by_id, requested_by_name,
	payload, result, failure_reason,
	assigned_at, started_at, completed_at,
	completed_by_kind, completed_by_id, completed_by_name,
	created_at, updated_at`

// Create implements store.TaskStore.Create
func (s *PostgresTaskStore) Create(ctx context.Context, task *domain.BiometricTask) error {
	payload, err := json.Marshal(task.Payload)
	if err != nil {
		return fmt.Errorf("failed to marshal task payload: %w", err)
	}

	query := `
		INSERT INTO tasks (id, tenant_id, agent_id, employee_id, finger, status,
			employee_name, employee_registration_number,
			requested_by_kind, requested_by_id, requested_by_name,
			payload, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`

	_, err = s.db.ExecContext(ctx, query,
		task.ID,
		task.TenantID,
		task.AgentID,
		task.EmployeeID,
		task.Finger.Code(),
		task.Status,
		task.EmployeeName,
		nullString(task.EmployeeRegistrationNumber),
		actorKind(task.RequestedBy),
		actorID(task.RequestedBy),
		actorName(task.RequestedBy),
		payload,
		task.CreatedAt,
		task.UpdatedAt,
	)
	if err != nil {
		if IsUniqueViolation(err, openTaskConstraint) {
			return fmt.Errorf("%w: %v", store.ErrOpenTaskExists, err)
		}
		return fmt.Errorf("failed to create task: %w", MapError(err))
	}

	return nil
}

// GetByID implements store.TaskStore.GetByID
func (s *PostgresTaskStore) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*domain.BiometricTask, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1 AND tenant_id = $2`

	task, err := scanTask(s.db.QueryRowContext(ctx, query, id, tenantID))
	if err != nil {
		if IsNotFound(err) {
			return nil, store.ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to get task: %w", MapError(err))
	}

	return task, nil
}

// GetByIDForAgent implements store.TaskStore.GetByIDForAgent
func (s *PostgresTaskStore) GetByIDForAgent(ctx context.Context, agentID, id uuid.UUID) (*domain.BiometricTask, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1 AND agent_id = $2`

	task, err := scanTask(s.db.QueryRowContext(ctx, query, id, agentID))
	if err != nil {
		if IsNotFound(err) {
			return nil, store.ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to get task for agent: %w", MapError(err))
	}

	return task, nil
}

// HasOpenTask implements store.TaskStore.HasOpenTask
func (s *PostgresTaskStore) HasOpenTask(ctx context.Context, employeeID uuid.UUID, finger domain.Finger) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM tasks
			WHERE employee_id = $1 AND finger = $2 AND status IN ('pending', 'in_progress')
		)
	`

	var exists bool
	if err := s.db.QueryRowContext(ctx, query, employeeID, finger.Code()).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check open tasks: %w", MapError(err))
	}

	return exists, nil
}

// LatestCompletedTemplate implements store.TaskStore.LatestCompletedTemplate
func (s *PostgresTaskStore) LatestCompletedTemplate(ctx context.Context, employeeID uuid.UUID, finger domain.Finger) (string, error) {
	query := `
		SELECT COALESCE(result->>'template_base64', '')
		FROM tasks
		WHERE employee_id = $1 AND finger = $2 AND status = 'completed'
			AND COALESCE(result->>'template_base64', '') <> ''
		ORDER BY COALESCE(completed_at, updated_at, created_at) DESC
		LIMIT 1
	`

	var template string
	err := s.db.QueryRowContext(ctx, query, employeeID, finger.Code()).Scan(&template)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get latest template: %w", MapError(err))
	}

	return template, nil
}

// ClaimOldestPending implements store.TaskStore.ClaimOldestPending.
// The inner SELECT and the UPDATE form a single conditional statement, and
// FOR UPDATE SKIP LOCKED keeps two concurrent pollers from selecting the
// same row, so at most one caller claims any given task.
func (s *PostgresTaskStore) ClaimOldestPending(ctx context.Context, agentID uuid.UUID, at time.Time) (*domain.BiometricTask, error) {
	query := `
		UPDATE tasks
		SET status = 'in_progress', assigned_at = $2, started_at = $2, updated_at = $2
		WHERE id = (
			SELECT id FROM tasks
			WHERE agent_id = $1 AND status = 'pending'
			ORDER BY created_at, id
			LIMIT 1
			FOR UPDATE SKIP LOCKED
		) AND status = 'pending'
		RETURNING ` + taskColumns

	task, err := scanTask(s.db.QueryRowContext(ctx, query, agentID, at))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to claim pending task: %w", MapError(err))
	}

	return task, nil
}

// CancelExpired implements store.TaskStore.CancelExpired
func (s *PostgresTaskStore) CancelExpired(ctx context.Context, agentID uuid.UUID, cutoff time.Time, reason string, at time.Time) (int, error) {
	query := `
		UPDATE tasks
		SET status = 'cancelled', failure_reason = $1,
			completed_at = $2, updated_at = $2,
			completed_by_kind = 'system', completed_by_id = NULL, completed_by_name = 'system'
		WHERE status = 'in_progress' AND started_at IS NOT NULL AND started_at <= $3
	`
	args := []any{reason, at, cutoff}

	if agentID != uuid.Nil {
		query += ` AND agent_id = $4`
		args = append(args, agentID)
	}

	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to cancel expired tasks: %w", MapError(err))
	}

	cancelled, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return int(cancelled), nil
}

// ApplyTransition implements store.TaskStore.ApplyTransition
func (s *PostgresTaskStore) ApplyTransition(ctx context.Context, task *domain.BiometricTask, from domain.TaskStatus) error {
	var result any
	if task.Result != nil {
		encoded, err := json.Marshal(task.Result)
		if err != nil {
			return fmt.Errorf("failed to marshal task result: %w", err)
		}
		result = encoded
	}

	query := `
		UPDATE tasks
		SET status = $1, result = $2, failure_reason = $3,
			completed_at = $4, completed_by_kind = $5, completed_by_id = $6, completed_by_name = $7,
			updated_at = $8
		WHERE id = $9 AND status = $10
	`

	res, err := s.db.ExecContext(ctx, query,
		task.Status,
		result,
		nullString(task.FailureReason),
		task.CompletedAt,
		actorKind(task.CompletedBy),
		actorID(task.CompletedBy),
		actorName(task.CompletedBy),
		task.UpdatedAt,
		task.ID,
		from,
	)
	if err != nil {
		return fmt.Errorf("failed to apply task transition: %w", MapError(err))
	}

	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return store.ErrTaskStateChanged
	}

	return nil
}

// ListByEmployee implements store.TaskStore.ListByEmployee
func (s *PostgresTaskStore) ListByEmployee(ctx context.Context, employeeID uuid.UUID) ([]*domain.BiometricTask, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE employee_id = $1 ORDER BY created_at DESC, id DESC`

	rows, err := s.db.QueryContext(ctx, query, employeeID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", MapError(err))
	}
	defer func() { _ = rows.Close() }()

	var tasks []*domain.BiometricTask
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task row: %w", err)
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating task rows: %w", err)
	}

	return tasks, nil
}

// DeleteByEmployee implements store.TaskStore.DeleteByEmployee
func (s *PostgresTaskStore) DeleteByEmployee(ctx context.Context, employeeID uuid.UUID) (int, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM tasks WHERE employee_id = $1`, employeeID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete tasks: %w", MapError(err))
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return int(deleted), nil
}

// WithTx implements store.TaskStore.WithTx
func (s *PostgresTaskStore) WithTx(tx *sql.Tx) store.TaskStore {
	return &PostgresTaskStore{db: tx, logger: s.logger}
}

func scanTask(row rowScanner) (*domain.BiometricTask, error) {
	var (
		task               domain.BiometricTask
		fingerCode         int
		registrationNumber sql.NullString
		requestedByKind    sql.NullString
		requestedByID      uuid.NullUUID
		requestedByName    sql.NullString
		payload            []byte
		result             []byte
		failureReason      sql.NullString
		assignedAt         sql.NullTime
		startedAt          sql.NullTime
		completedAt        sql.NullTime
		completedByKind    sql.NullString
		completedByID      uuid.NullUUID
		completedByName    sql.NullString
	)

	err := row.Scan(
		&task.ID,
		&task.TenantID,
		&task.AgentID,
		&task.EmployeeID,
		&fingerCode,
		&task.Status,
		&task.EmployeeName,
		&registrationNumber,
		&requestedByKind,
		&requestedByID,
		&requestedByName,
		&payload,
		&result,
		&failureReason,
		&assignedAt,
		&startedAt,
		&completedAt,
		&completedByKind,
		&completedByID,
		&completedByName,
		&task.CreatedAt,
		&task.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	finger, err := domain.ParseFinger(fingerCode)
	if err != nil {
		return nil, fmt.Errorf("stored task has invalid finger: %w", err)
	}
	task.Finger = finger

	task.EmployeeRegistrationNumber = registrationNumber.String
	task.FailureReason = failureReason.String
	task.RequestedBy = scanActor(requestedByKind, requestedByID, requestedByName)
	task.CompletedBy = scanActor(completedByKind, completedByID, completedByName)

	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &task.Payload); err != nil {
			return nil, fmt.Errorf("failed to unmarshal task payload: %w", err)
		}
	}
	if len(result) > 0 {
		var taskResult domain.TaskResult
		if err := json.Unmarshal(result, &taskResult); err != nil {
			return nil, fmt.Errorf("failed to unmarshal task result: %w", err)
		}
		task.Result = &taskResult
	}

	if assignedAt.Valid {
		ts := assignedAt.Time
		task.AssignedAt = &ts
	}
	if startedAt.Valid {
		ts := startedAt.Time
		task.StartedAt = &ts
	}
	if completedAt.Valid {
		ts := completedAt.Time
		task.CompletedAt = &ts
	}

	return &task, nil
}

func scanActor(kind sql.NullString, id uuid.NullUUID, name sql.NullString) domain.Actor {
	if !kind.Valid {
		return domain.Actor{}
	}
	return domain.Actor{
		Kind: domain.ActorKind(kind.String),
		ID:   id.UUID,
		Name: name.String,
	}
}

func actorKind(a domain.Actor) sql.NullString {
	return sql.NullString{String: string(a.Kind), Valid: a.Set()}
}

func actorID(a domain.Actor) uuid.NullUUID {
	return uuid.NullUUID{UUID: a.ID, Valid: a.Set() && a.ID != uuid.Nil}
}

func actorName(a domain.Actor) sql.NullString {
	return sql.NullString{String: a.Name, Valid: a.Set() && a.Name != ""}
}
