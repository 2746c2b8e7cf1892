package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAgent(t *testing.T) {
	t.Parallel()

	tenantID := uuid.New()

	t.Run("valid agent", func(t *testing.T) {
		t.Parallel()

		agent, err := NewAgent(tenantID, "Reception kiosk", "KIOSK-01", "front desk reader", 10)
		require.NoError(t, err)

		assert.NotEqual(t, uuid.Nil, agent.ID)
		assert.NotEqual(t, uuid.Nil, agent.APIKey)
		assert.True(t, agent.Active)
		assert.Equal(t, 10, agent.PollingIntervalSeconds)
		assert.Nil(t, agent.LastSeenAt)
	})

	t.Run("empty name rejected", func(t *testing.T) {
		t.Parallel()

		_, err := NewAgent(tenantID, "   ", "", "", 5)
		assert.ErrorIs(t, err, ErrAgentNameEmpty)
	})

	t.Run("missing tenant rejected", func(t *testing.T) {
		t.Parallel()

		_, err := NewAgent(uuid.Nil, "Kiosk", "", "", 5)
		assert.ErrorIs(t, err, ErrAgentTenantIDEmpty)
	})
}

func TestCoercePollingInterval(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    int
		expected int
	}{
		{"below minimum coerced to default", 2, 5},
		{"zero coerced to default", 0, 5},
		{"negative coerced to default", -1, 5},
		{"minimum kept", 3, 3},
		{"above minimum kept", 30, 30},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.expected, CoercePollingInterval(tc.input))
		})
	}
}

func TestAgentOnline(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

	seenAt := func(d time.Duration) *time.Time {
		ts := now.Add(-d)
		return &ts
	}

	tests := []struct {
		name     string
		lastSeen *time.Time
		interval int
		online   bool
	}{
		{"never seen is offline", nil, 10, false},
		{"seen within one interval", seenAt(10 * time.Second), 10, true},
		{"seen exactly at twice the interval", seenAt(20 * time.Second), 10, true},
		{"seen just past twice the interval", seenAt(21 * time.Second), 10, false},
		{"short interval floored to 5s for derivation", seenAt(9 * time.Second), 2, true},
		{"short interval floored, past the floored window", seenAt(11 * time.Second), 2, false},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			agent := &Agent{
				LastSeenAt:             tc.lastSeen,
				PollingIntervalSeconds: tc.interval,
			}
			assert.Equal(t, tc.online, agent.Online(now))
		})
	}
}
