package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/carloseedutra-ti/EPIFlow/internal/domain"
	"github.com/carloseedutra-ti/EPIFlow/internal/platform/logger"
	"github.com/carloseedutra-ti/EPIFlow/internal/store"
)

// AgentService provides the administrative operations over capture agents.
type AgentService interface {
	// Register creates an agent and returns it together with its freshly
	// issued API key. Returns store.ErrAgentNameExists on a name collision.
	Register(ctx context.Context, tenantID uuid.UUID, name, machineName, description string, pollingIntervalSeconds int) (*domain.Agent, error)

	// List returns the tenant's agents with their derived online state.
	List(ctx context.Context, tenantID uuid.UUID) ([]AgentSummary, error)

	// SetActive activates or deactivates an agent.
	SetActive(ctx context.Context, tenantID, agentID uuid.UUID, active bool) error

	// ResetAPIKey rotates the agent's credential and returns the new key.
	// The old key stops resolving immediately.
	ResetAPIKey(ctx context.Context, tenantID, agentID uuid.UUID) (uuid.UUID, error)
}

// agentServiceImpl implements the AgentService interface.
type agentServiceImpl struct {
	agentStore store.AgentStore
	logger     *slog.Logger
	now        func() time.Time // Injectable for testing
}

// NewAgentService creates a new AgentService.
func NewAgentService(agentStore store.AgentStore, logger *slog.Logger) (AgentService, error) {
	if agentStore == nil {
		return nil, NewValidationError("agentStore", "cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &agentServiceImpl{
		agentStore: agentStore,
		logger:     logger.With(slog.String("component", "agent_service")),
		now:        func() time.Time { return time.Now().UTC() },
	}, nil
}

// Register implements AgentService.Register
func (s *agentServiceImpl) Register(
	ctx context.Context,
	tenantID uuid.UUID,
	name, machineName, description string,
	pollingIntervalSeconds int,
) (*domain.Agent, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	agent, err := domain.NewAgent(tenantID, name, machineName, description, pollingIntervalSeconds)
	if err != nil {
		return nil, err
	}

	if err := s.agentStore.Create(ctx, agent); err != nil {
		return nil, err
	}

	log.Info("agent registered",
		"agent_id", agent.ID,
		"name", agent.Name,
		"polling_interval_seconds", agent.PollingIntervalSeconds)
	return agent, nil
}

// AgentSummary is the administrative view of an agent: configuration plus
// the derived online state. The API key is deliberately absent; it is shown
// only on registration and rotation.
type AgentSummary struct {
	ID                     uuid.UUID  `json:"id"`
	Name                   string     `json:"name"`
	MachineName            string     `json:"machine_name,omitempty"`
	Description            string     `json:"description,omitempty"`
	Active                 bool       `json:"active"`
	Online                 bool       `json:"online"`
	LastSeenAt             *time.Time `json:"last_seen_at,omitempty"`
	PollingIntervalSeconds int        `json:"polling_interval_seconds"`
}

// List implements AgentService.List
func (s *agentServiceImpl) List(ctx context.Context, tenantID uuid.UUID) ([]AgentSummary, error) {
	agents, err := s.agentStore.List(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	summaries := make([]AgentSummary, 0, len(agents))
	for _, agent := range agents {
		summaries = append(summaries, AgentSummary{
			ID:                     agent.ID,
			Name:                   agent.Name,
			MachineName:            agent.MachineName,
			Description:            agent.Description,
			Active:                 agent.Active,
			Online:                 agent.Active && agent.Online(now),
			LastSeenAt:             agent.LastSeenAt,
			PollingIntervalSeconds: agent.PollingIntervalSeconds,
		})
	}
	return summaries, nil
}

// SetActive implements AgentService.SetActive
func (s *agentServiceImpl) SetActive(ctx context.Context, tenantID, agentID uuid.UUID, active bool) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := s.agentStore.SetActive(ctx, tenantID, agentID, active); err != nil {
		return err
	}

	log.Info("agent active flag changed", "agent_id", agentID, "active", active)
	return nil
}

// ResetAPIKey implements AgentService.ResetAPIKey
func (s *agentServiceImpl) ResetAPIKey(ctx context.Context, tenantID, agentID uuid.UUID) (uuid.UUID, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	newKey := uuid.New()
	if err := s.agentStore.ResetAPIKey(ctx, tenantID, agentID, newKey); err != nil {
		return uuid.Nil, err
	}

	log.Info("agent API key rotated", "agent_id", agentID)
	return newKey, nil
}
