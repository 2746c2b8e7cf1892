package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/carloseedutra-ti/EPIFlow/internal/domain"
	"github.com/carloseedutra-ti/EPIFlow/internal/store"
)

// agentNameConstraint is the unique index backing per-tenant agent names.
const agentNameConstraint = "agents_tenant_id_name_key"

// PostgresAgentStore implements the store.AgentStore interface
// using a PostgreSQL database as the storage backend.
type PostgresAgentStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresAgentStore creates a new PostgreSQL implementation of the
// AgentStore interface. If logger is nil, the default logger is used.
func NewPostgresAgentStore(db store.DBTX, logger *slog.Logger) *PostgresAgentStore {
	if db == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresAgentStore{
		db:     db,
		logger: logger.With(slog.String("component", "agent_store")),
	}
}

// Ensure PostgresAgentStore implements store.AgentStore
var _ store.AgentStore = (*PostgresAgentStore)(nil)

const agentColumns = `id, tenant_id, name, machine_name, description, api_key,
	is_active, last_seen_at, polling_interval_seconds, created_at, updated_at`

// Create implements store.AgentStore.Create
func (s *PostgresAgentStore) Create(ctx context.Context, agent *domain.Agent) error {
	query := `
		INSERT INTO agents (id, tenant_id, name, machine_name, description, api_key,
			is_active, last_seen_at, polling_interval_seconds, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := s.db.ExecContext(ctx, query,
		agent.ID,
		agent.TenantID,
		agent.Name,
		nullString(agent.MachineName),
		nullString(agent.Description),
		agent.APIKey,
		agent.Active,
		agent.LastSeenAt,
		agent.PollingIntervalSeconds,
		agent.CreatedAt,
		agent.UpdatedAt,
	)
	if err != nil {
		if IsUniqueViolation(err, agentNameConstraint) {
			return fmt.Errorf("%w: %v", store.ErrAgentNameExists, err)
		}
		return fmt.Errorf("failed to create agent: %w", MapError(err))
	}

	return nil
}

// GetByID implements store.AgentStore.GetByID
func (s *PostgresAgentStore) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*domain.Agent, error) {
	query := `SELECT ` + agentColumns + ` FROM agents WHERE id = $1 AND tenant_id = $2`

	agent, err := scanAgent(s.db.QueryRowContext(ctx, query, id, tenantID))
	if err != nil {
		if IsNotFound(err) {
			return nil, store.ErrAgentNotFound
		}
		return nil, fmt.Errorf("failed to get agent: %w", MapError(err))
	}

	return agent, nil
}

// GetByAPIKey implements store.AgentStore.GetByAPIKey
func (s *PostgresAgentStore) GetByAPIKey(ctx context.Context, apiKey uuid.UUID) (*domain.Agent, error) {
	query := `SELECT ` + agentColumns + ` FROM agents WHERE api_key = $1`

	agent, err := scanAgent(s.db.QueryRowContext(ctx, query, apiKey))
	if err != nil {
		if IsNotFound(err) {
			return nil, store.ErrAgentNotFound
		}
		return nil, fmt.Errorf("failed to get agent by api key: %w", MapError(err))
	}

	return agent, nil
}

// TouchLastSeen implements store.AgentStore.TouchLastSeen
func (s *PostgresAgentStore) TouchLastSeen(ctx context.Context, id uuid.UUID, at time.Time) error {
	query := `UPDATE agents SET last_seen_at = $1, updated_at = $1 WHERE id = $2`

	result, err := s.db.ExecContext(ctx, query, at, id)
	if err != nil {
		return fmt.Errorf("failed to refresh agent heartbeat: %w", MapError(err))
	}

	return CheckRowsAffected(result, "agent")
}

// List implements store.AgentStore.List
func (s *PostgresAgentStore) List(ctx context.Context, tenantID uuid.UUID) ([]*domain.Agent, error) {
	return s.list(ctx, tenantID, false)
}

// ListActive implements store.AgentStore.ListActive
func (s *PostgresAgentStore) ListActive(ctx context.Context, tenantID uuid.UUID) ([]*domain.Agent, error) {
	return s.list(ctx, tenantID, true)
}

func (s *PostgresAgentStore) list(ctx context.Context, tenantID uuid.UUID, activeOnly bool) ([]*domain.Agent, error) {
	query := `SELECT ` + agentColumns + ` FROM agents WHERE tenant_id = $1`
	if activeOnly {
		query += ` AND is_active`
	}
	query += ` ORDER BY name`

	rows, err := s.db.QueryContext(ctx, query, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to list agents: %w", MapError(err))
	}
	defer func() { _ = rows.Close() }()

	var agents []*domain.Agent
	for rows.Next() {
		agent, err := scanAgent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan agent row: %w", err)
		}
		agents = append(agents, agent)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating agent rows: %w", err)
	}

	return agents, nil
}

// SetActive implements store.AgentStore.SetActive
func (s *PostgresAgentStore) SetActive(ctx context.Context, tenantID, id uuid.UUID, active bool) error {
	query := `UPDATE agents SET is_active = $1, updated_at = $2 WHERE id = $3 AND tenant_id = $4`

	result, err := s.db.ExecContext(ctx, query, active, time.Now().UTC(), id, tenantID)
	if err != nil {
		return fmt.Errorf("failed to set agent status: %w", MapError(err))
	}
	if err := CheckRowsAffected(result, "agent"); err != nil {
		return store.ErrAgentNotFound
	}

	return nil
}

// ResetAPIKey implements store.AgentStore.ResetAPIKey
func (s *PostgresAgentStore) ResetAPIKey(ctx context.Context, tenantID, id uuid.UUID, newKey uuid.UUID) error {
	query := `UPDATE agents SET api_key = $1, updated_at = $2 WHERE id = $3 AND tenant_id = $4`

	result, err := s.db.ExecContext(ctx, query, newKey, time.Now().UTC(), id, tenantID)
	if err != nil {
		return fmt.Errorf("failed to reset agent key: %w", MapError(err))
	}
	if err := CheckRowsAffected(result, "agent"); err != nil {
		return store.ErrAgentNotFound
	}

	return nil
}

// WithTx implements store.AgentStore.WithTx
func (s *PostgresAgentStore) WithTx(tx *sql.Tx) store.AgentStore {
	return &PostgresAgentStore{db: tx, logger: s.logger}
}

// rowScanner abstracts *sql.Row and *sql.Rows for shared scan helpers.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanAgent(row rowScanner) (*domain.Agent, error) {
	var (
		agent       domain.Agent
		machineName sql.NullString
		description sql.NullString
		lastSeenAt  sql.NullTime
	)

	err := row.Scan(
		&agent.ID,
		&agent.TenantID,
		&agent.Name,
		&machineName,
		&description,
		&agent.APIKey,
		&agent.Active,
		&lastSeenAt,
		&agent.PollingIntervalSeconds,
		&agent.CreatedAt,
		&agent.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	agent.MachineName = machineName.String
	agent.Description = description.String
	if lastSeenAt.Valid {
		ts := lastSeenAt.Time
		agent.LastSeenAt = &ts
	}

	return &agent, nil
}

// nullString maps "" to NULL for optional text columns.
func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// IsNotFound reports whether the error is sql.ErrNoRows or wraps
// store.ErrNotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, sql.ErrNoRows) || store.IsNotFoundError(err)
}
