package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carloseedutra-ti/EPIFlow/internal/domain"
	"github.com/carloseedutra-ti/EPIFlow/internal/service"
	"github.com/carloseedutra-ti/EPIFlow/internal/store"
)

func TestRegisterAgent(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	tenantID := uuid.New()

	t.Run("returns the key exactly once", func(t *testing.T) {
		svc := &stubAgentService{
			register: func(ctx context.Context, gotTenant uuid.UUID, name, machineName, description string, pollingIntervalSeconds int) (*domain.Agent, error) {
				require.Equal(t, tenantID, gotTenant)
				return domain.NewAgent(gotTenant, name, machineName, description, pollingIntervalSeconds)
			},
		}
		handler := NewAgentHandler(svc)

		req := authenticatedRequest(t, "POST", "/api/agents", map[string]interface{}{
			"name":                     "reception-kiosk",
			"machine_name":             "KIOSK-01",
			"polling_interval_seconds": 10,
		}, userID, tenantID)
		recorder := httptest.NewRecorder()

		handler.Register(recorder, req)

		require.Equal(t, http.StatusCreated, recorder.Code)

		var resp RegisterAgentResponse
		require.NoError(t, json.NewDecoder(recorder.Body).Decode(&resp))
		assert.Equal(t, "reception-kiosk", resp.Name)
		assert.NotEqual(t, uuid.Nil, resp.APIKey)
		assert.True(t, resp.Active)
		assert.Equal(t, 10, resp.PollingIntervalSeconds)
	})

	t.Run("duplicate name maps to conflict", func(t *testing.T) {
		svc := &stubAgentService{
			register: func(ctx context.Context, gotTenant uuid.UUID, name, machineName, description string, pollingIntervalSeconds int) (*domain.Agent, error) {
				return nil, store.ErrAgentNameExists
			},
		}
		handler := NewAgentHandler(svc)

		req := authenticatedRequest(t, "POST", "/api/agents", map[string]interface{}{
			"name": "reception-kiosk",
		}, userID, tenantID)
		recorder := httptest.NewRecorder()

		handler.Register(recorder, req)

		assert.Equal(t, http.StatusConflict, recorder.Code)
	})

	t.Run("missing name is a bad request", func(t *testing.T) {
		handler := NewAgentHandler(&stubAgentService{})

		req := authenticatedRequest(t, "POST", "/api/agents", map[string]interface{}{
			"machine_name": "KIOSK-01",
		}, userID, tenantID)
		recorder := httptest.NewRecorder()

		handler.Register(recorder, req)

		assert.Equal(t, http.StatusBadRequest, recorder.Code)
	})
}

func TestListAgents(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	tenantID := uuid.New()
	agentID := uuid.New()

	svc := &stubAgentService{
		list: func(ctx context.Context, gotTenant uuid.UUID) ([]service.AgentSummary, error) {
			require.Equal(t, tenantID, gotTenant)
			return []service.AgentSummary{
				{
					ID:                     agentID,
					Name:                   "reception-kiosk",
					Active:                 true,
					Online:                 true,
					PollingIntervalSeconds: 5,
				},
			}, nil
		},
	}
	handler := NewAgentHandler(svc)

	req := authenticatedRequest(t, "GET", "/api/agents", nil, userID, tenantID)
	recorder := httptest.NewRecorder()

	handler.List(recorder, req)

	require.Equal(t, http.StatusOK, recorder.Code)

	var resp []service.AgentSummary
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&resp))
	require.Len(t, resp, 1)
	assert.Equal(t, agentID, resp[0].ID)
	assert.True(t, resp[0].Online)

	// Listing must never leak credentials.
	assert.NotContains(t, recorder.Body.String(), "api_key")
}

func TestSetAgentStatus(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	tenantID := uuid.New()
	agentID := uuid.New()

	t.Run("deactivates the agent", func(t *testing.T) {
		var gotActive *bool
		svc := &stubAgentService{
			setActive: func(ctx context.Context, gotTenant, gotAgent uuid.UUID, active bool) error {
				require.Equal(t, tenantID, gotTenant)
				require.Equal(t, agentID, gotAgent)
				gotActive = &active
				return nil
			},
		}
		handler := NewAgentHandler(svc)

		req := authenticatedRequest(t, "PUT", "/api/agents/"+agentID.String()+"/status", map[string]interface{}{
			"active": false,
		}, userID, tenantID)
		req = withPathParam(req, "id", agentID.String())
		recorder := httptest.NewRecorder()

		handler.SetStatus(recorder, req)

		require.Equal(t, http.StatusOK, recorder.Code)
		require.NotNil(t, gotActive)
		assert.False(t, *gotActive)
	})

	t.Run("missing active field is a bad request", func(t *testing.T) {
		handler := NewAgentHandler(&stubAgentService{})

		req := authenticatedRequest(t, "PUT", "/api/agents/"+agentID.String()+"/status", map[string]interface{}{}, userID, tenantID)
		req = withPathParam(req, "id", agentID.String())
		recorder := httptest.NewRecorder()

		handler.SetStatus(recorder, req)

		assert.Equal(t, http.StatusBadRequest, recorder.Code)
	})

	t.Run("unknown agent is not found", func(t *testing.T) {
		svc := &stubAgentService{
			setActive: func(ctx context.Context, gotTenant, gotAgent uuid.UUID, active bool) error {
				return store.ErrAgentNotFound
			},
		}
		handler := NewAgentHandler(svc)

		req := authenticatedRequest(t, "PUT", "/api/agents/"+agentID.String()+"/status", map[string]interface{}{
			"active": true,
		}, userID, tenantID)
		req = withPathParam(req, "id", agentID.String())
		recorder := httptest.NewRecorder()

		handler.SetStatus(recorder, req)

		assert.Equal(t, http.StatusNotFound, recorder.Code)
	})
}

func TestResetAgentAPIKey(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	tenantID := uuid.New()
	agentID := uuid.New()
	newKey := uuid.New()

	svc := &stubAgentService{
		resetAPIKey: func(ctx context.Context, gotTenant, gotAgent uuid.UUID) (uuid.UUID, error) {
			require.Equal(t, tenantID, gotTenant)
			require.Equal(t, agentID, gotAgent)
			return newKey, nil
		},
	}
	handler := NewAgentHandler(svc)

	req := authenticatedRequest(t, "POST", "/api/agents/"+agentID.String()+"/reset-key", nil, userID, tenantID)
	req = withPathParam(req, "id", agentID.String())
	recorder := httptest.NewRecorder()

	handler.ResetAPIKey(recorder, req)

	require.Equal(t, http.StatusOK, recorder.Code)

	var resp ResetAPIKeyResponse
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&resp))
	assert.Equal(t, newKey, resp.APIKey)
}
