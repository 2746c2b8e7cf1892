package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Agent-specific validation errors
var (
	// ErrAgentNameEmpty is returned when an agent's name is empty or whitespace.
	ErrAgentNameEmpty = errors.New("agent name cannot be empty")

	// ErrAgentTenantIDEmpty is returned when an agent's tenant ID is empty or nil.
	ErrAgentTenantIDEmpty = errors.New("agent tenant ID cannot be empty")
)

const (
	// MinPollingIntervalSeconds is the smallest interval an agent may be
	// configured with. Anything below it is coerced to the default.
	MinPollingIntervalSeconds = 3

	// DefaultPollingIntervalSeconds is the interval applied when a requested
	// value is below the minimum.
	DefaultPollingIntervalSeconds = 5

	// onlineIntervalFloorSeconds is the floor applied to the interval when
	// deriving online status, so noisy sub-5s intervals don't flap agents
	// offline.
	onlineIntervalFloorSeconds = 5
)

// Agent is a remote capture process registered with the server. It is
// identified to the task protocol by a rotatable opaque API key and polls
// for work at its configured interval.
type Agent struct {
	ID                     uuid.UUID
	TenantID               uuid.UUID
	Name                   string
	MachineName            string
	Description            string
	APIKey                 uuid.UUID
	Active                 bool
	LastSeenAt             *time.Time
	PollingIntervalSeconds int
	CreatedAt              time.Time
	UpdatedAt              time.Time
}

// NewAgent registers a new agent with a fresh API key. A polling interval
// below the minimum is coerced to the default.
func NewAgent(tenantID uuid.UUID, name, machineName, description string, pollingIntervalSeconds int) (*Agent, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrAgentNameEmpty
	}
	if tenantID == uuid.Nil {
		return nil, ErrAgentTenantIDEmpty
	}

	now := time.Now().UTC()
	return &Agent{
		ID:                     uuid.New(),
		TenantID:               tenantID,
		Name:                   name,
		MachineName:            strings.TrimSpace(machineName),
		Description:            strings.TrimSpace(description),
		APIKey:                 uuid.New(),
		Active:                 true,
		PollingIntervalSeconds: CoercePollingInterval(pollingIntervalSeconds),
		CreatedAt:              now,
		UpdatedAt:              now,
	}, nil
}

// CoercePollingInterval applies the minimum-interval rule: values below
// MinPollingIntervalSeconds become DefaultPollingIntervalSeconds.
func CoercePollingInterval(seconds int) int {
	if seconds < MinPollingIntervalSeconds {
		return DefaultPollingIntervalSeconds
	}
	return seconds
}

// Online derives whether the agent is currently reachable from its heartbeat.
// An agent is online when its last contact is within twice its polling
// interval of now, with the interval floored at 5 seconds for this
// computation only. The status is never persisted.
func (a *Agent) Online(now time.Time) bool {
	if a.LastSeenAt == nil {
		return false
	}
	interval := a.PollingIntervalSeconds
	if interval < onlineIntervalFloorSeconds {
		interval = onlineIntervalFloorSeconds
	}
	return now.Sub(*a.LastSeenAt) <= 2*time.Duration(interval)*time.Second
}
