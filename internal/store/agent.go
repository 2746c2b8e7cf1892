package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/carloseedutra-ti/EPIFlow/internal/domain"
)

// AgentStore defines the interface for biometric agent persistence.
type AgentStore interface {
	// Create saves a new agent. Returns ErrAgentNameExists when another
	// agent with the same name exists in the tenant.
	Create(ctx context.Context, agent *domain.Agent) error

	// GetByID retrieves an agent by ID within a tenant.
	// Returns ErrAgentNotFound if absent or cross-tenant.
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*domain.Agent, error)

	// GetByAPIKey resolves an agent by its credential. The credential is the
	// secret on the agent transport, so the lookup is not tenant-scoped.
	// Returns ErrAgentNotFound for an unknown key.
	GetByAPIKey(ctx context.Context, apiKey uuid.UUID) (*domain.Agent, error)

	// TouchLastSeen refreshes the agent's heartbeat timestamp.
	TouchLastSeen(ctx context.Context, id uuid.UUID, at time.Time) error

	// List returns all agents in the tenant ordered by name.
	List(ctx context.Context, tenantID uuid.UUID) ([]*domain.Agent, error)

	// ListActive returns the tenant's active agents ordered by name.
	ListActive(ctx context.Context, tenantID uuid.UUID) ([]*domain.Agent, error)

	// SetActive flips the agent's active flag.
	// Returns ErrAgentNotFound if absent or cross-tenant.
	SetActive(ctx context.Context, tenantID, id uuid.UUID, active bool) error

	// ResetAPIKey replaces the agent's credential with newKey.
	// Returns ErrAgentNotFound if absent or cross-tenant.
	ResetAPIKey(ctx context.Context, tenantID, id uuid.UUID, newKey uuid.UUID) error

	// WithTx returns an AgentStore bound to the provided transaction.
	WithTx(tx *sql.Tx) AgentStore
}
