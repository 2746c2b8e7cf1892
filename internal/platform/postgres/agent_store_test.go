package postgres_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carloseedutra-ti/EPIFlow/internal/domain"
	"github.com/carloseedutra-ti/EPIFlow/internal/platform/postgres"
	"github.com/carloseedutra-ti/EPIFlow/internal/store"
	"github.com/carloseedutra-ti/EPIFlow/internal/testutils"
)

func TestPostgresAgentStore_CreateAndGet(t *testing.T) {
	t.Parallel()

	testutils.WithTx(t, testDB, func(t *testing.T, tx *sql.Tx) {
		ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
		defer cancel()

		agentStore := postgres.NewPostgresAgentStore(tx, nil)

		agent, err := domain.NewAgent(uuid.New(), "reception-kiosk", "KIOSK-01", "front entrance", 10)
		require.NoError(t, err)
		require.NoError(t, agentStore.Create(ctx, agent))

		byID, err := agentStore.GetByID(ctx, agent.TenantID, agent.ID)
		require.NoError(t, err)
		assert.Equal(t, agent.Name, byID.Name)
		assert.Equal(t, 10, byID.PollingIntervalSeconds)
		assert.True(t, byID.Active)
		assert.Nil(t, byID.LastSeenAt)

		byKey, err := agentStore.GetByAPIKey(ctx, agent.APIKey)
		require.NoError(t, err)
		assert.Equal(t, agent.ID, byKey.ID)

		// Cross-tenant lookup by ID must come back empty.
		_, err = agentStore.GetByID(ctx, uuid.New(), agent.ID)
		assert.ErrorIs(t, err, store.ErrAgentNotFound)
	})
}

func TestPostgresAgentStore_DuplicateName(t *testing.T) {
	t.Parallel()

	testutils.WithTx(t, testDB, func(t *testing.T, tx *sql.Tx) {
		ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
		defer cancel()

		agentStore := postgres.NewPostgresAgentStore(tx, nil)
		tenantID := uuid.New()

		first, err := domain.NewAgent(tenantID, "front-desk", "", "", 5)
		require.NoError(t, err)
		require.NoError(t, agentStore.Create(ctx, first))

		second, err := domain.NewAgent(tenantID, "front-desk", "", "", 5)
		require.NoError(t, err)
		err = agentStore.Create(ctx, second)
		assert.ErrorIs(t, err, store.ErrAgentNameExists)

		// The same name is fine under another tenant.
		other, err := domain.NewAgent(uuid.New(), "front-desk", "", "", 5)
		require.NoError(t, err)
		assert.NoError(t, agentStore.Create(ctx, other))
	})
}

func TestPostgresAgentStore_TouchLastSeen(t *testing.T) {
	t.Parallel()

	testutils.WithTx(t, testDB, func(t *testing.T, tx *sql.Tx) {
		ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
		defer cancel()

		agentStore := postgres.NewPostgresAgentStore(tx, nil)

		agent, err := domain.NewAgent(uuid.New(), "warehouse-kiosk", "", "", 5)
		require.NoError(t, err)
		require.NoError(t, agentStore.Create(ctx, agent))

		seen := time.Now().UTC().Truncate(time.Microsecond)
		require.NoError(t, agentStore.TouchLastSeen(ctx, agent.ID, seen))

		got, err := agentStore.GetByID(ctx, agent.TenantID, agent.ID)
		require.NoError(t, err)
		require.NotNil(t, got.LastSeenAt)
		assert.WithinDuration(t, seen, *got.LastSeenAt, time.Millisecond)
	})
}

func TestPostgresAgentStore_SetActiveAndResetAPIKey(t *testing.T) {
	t.Parallel()

	testutils.WithTx(t, testDB, func(t *testing.T, tx *sql.Tx) {
		ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
		defer cancel()

		agentStore := postgres.NewPostgresAgentStore(tx, nil)

		agent, err := domain.NewAgent(uuid.New(), "dock-kiosk", "", "", 5)
		require.NoError(t, err)
		require.NoError(t, agentStore.Create(ctx, agent))

		require.NoError(t, agentStore.SetActive(ctx, agent.TenantID, agent.ID, false))
		got, err := agentStore.GetByID(ctx, agent.TenantID, agent.ID)
		require.NoError(t, err)
		assert.False(t, got.Active)

		newKey := uuid.New()
		require.NoError(t, agentStore.ResetAPIKey(ctx, agent.TenantID, agent.ID, newKey))

		_, err = agentStore.GetByAPIKey(ctx, agent.APIKey)
		assert.ErrorIs(t, err, store.ErrAgentNotFound, "Old key must stop resolving")

		byNewKey, err := agentStore.GetByAPIKey(ctx, newKey)
		require.NoError(t, err)
		assert.Equal(t, agent.ID, byNewKey.ID)
	})
}

func TestPostgresAgentStore_List(t *testing.T) {
	t.Parallel()

	testutils.WithTx(t, testDB, func(t *testing.T, tx *sql.Tx) {
		ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
		defer cancel()

		agentStore := postgres.NewPostgresAgentStore(tx, nil)
		tenantID := uuid.New()

		for _, name := range []string{"alpha", "beta", "gamma"} {
			agent, err := domain.NewAgent(tenantID, name, "", "", 5)
			require.NoError(t, err)
			require.NoError(t, agentStore.Create(ctx, agent))
		}
		require.NoError(t, agentStore.SetActive(ctx, tenantID, mustAgentID(ctx, t, agentStore, tenantID, "beta"), false))

		all, err := agentStore.List(ctx, tenantID)
		require.NoError(t, err)
		assert.Len(t, all, 3)

		active, err := agentStore.ListActive(ctx, tenantID)
		require.NoError(t, err)
		require.Len(t, active, 2)
		for _, a := range active {
			assert.True(t, a.Active)
		}
	})
}

func mustAgentID(ctx context.Context, t *testing.T, agentStore store.AgentStore, tenantID uuid.UUID, name string) uuid.UUID {
	t.Helper()
	agents, err := agentStore.List(ctx, tenantID)
	require.NoError(t, err)
	for _, a := range agents {
		if a.Name == name {
			return a.ID
		}
	}
	t.Fatalf("agent %q not found", name)
	return uuid.Nil
}
