package testutils

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/carloseedutra-ti/EPIFlow/internal/domain"
	"github.com/carloseedutra-ti/EPIFlow/internal/store"
)

// MustInsertEmployee inserts an employee row directly and returns its ID.
func MustInsertEmployee(ctx context.Context, t *testing.T, db store.DBTX, tenantID uuid.UUID, name string) uuid.UUID {
	t.Helper()

	id := uuid.New()
	now := time.Now().UTC()
	_, err := db.ExecContext(ctx, `
		INSERT INTO employees (id, tenant_id, name, registration_number, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $5)
	`, id, tenantID, name, fmt.Sprintf("REG-%s", id.String()[:8]), now)
	require.NoError(t, err, "Failed to insert test employee")
	return id
}

// MustInsertAgent inserts an agent row directly and returns its ID.
func MustInsertAgent(ctx context.Context, t *testing.T, db store.DBTX, tenantID uuid.UUID, name string) uuid.UUID {
	t.Helper()

	id := uuid.New()
	now := time.Now().UTC()
	_, err := db.ExecContext(ctx, `
		INSERT INTO agents (id, tenant_id, name, machine_name, description, api_key,
			is_active, polling_interval_seconds, created_at, updated_at)
		VALUES ($1, $2, $3, '', '', $4, TRUE, $5, $6, $6)
	`, id, tenantID, name, uuid.New(), domain.DefaultPollingIntervalSeconds, now)
	require.NoError(t, err, "Failed to insert test agent")
	return id
}

// MustInsertUser inserts a user row with a bcrypt-hashed password and
// returns its ID. Use bcrypt.MinCost to keep tests fast.
func MustInsertUser(ctx context.Context, t *testing.T, db store.DBTX, tenantID uuid.UUID, email string, bcryptCost int) uuid.UUID {
	t.Helper()

	hashed, err := bcrypt.GenerateFromPassword([]byte("Password123!Long"), bcryptCost)
	require.NoError(t, err, "Failed to hash test password")

	id := uuid.New()
	now := time.Now().UTC()
	_, err = db.ExecContext(ctx, `
		INSERT INTO users (id, tenant_id, email, display_name, hashed_password, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $6)
	`, id, tenantID, email, "Test User", string(hashed), now)
	require.NoError(t, err, "Failed to insert test user")
	return id
}

// MustInsertTask builds an enrollment task, persists it through the provided
// store, and returns it. The createdAt offset orders tasks for FIFO checks.
func MustInsertTask(
	ctx context.Context,
	t *testing.T,
	taskStore store.TaskStore,
	tenantID, agentID, employeeID uuid.UUID,
	finger domain.Finger,
	createdAt time.Time,
) *domain.BiometricTask {
	t.Helper()

	payload := domain.NewEnrollPayload("subject", "Test Employee")
	task, err := domain.NewBiometricTask(tenantID, agentID, employeeID, finger, "Test Employee", "", domain.SystemActor(), payload)
	require.NoError(t, err, "Failed to build test task")
	task.CreatedAt = createdAt
	task.UpdatedAt = createdAt

	require.NoError(t, taskStore.Create(ctx, task), "Failed to insert test task")
	return task
}

// CountTasks returns the number of task rows matching the where clause.
func CountTasks(ctx context.Context, t *testing.T, db store.DBTX, whereClause string, args ...any) int {
	t.Helper()

	var count int
	query := "SELECT COUNT(*) FROM tasks"
	if whereClause != "" {
		query += " WHERE " + whereClause
	}
	err := db.QueryRowContext(ctx, query, args...).Scan(&count)
	require.NoError(t, err, "Failed to count tasks")
	return count
}
