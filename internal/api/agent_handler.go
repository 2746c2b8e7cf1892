package api

import (
	"net/http"

	"github.com/carloseedutra-ti/EPIFlow/internal/api/shared"
	"github.com/carloseedutra-ti/EPIFlow/internal/service"
)

// AgentHandler handles administrative agent management requests.
type AgentHandler struct {
	agentService service.AgentService
}

// NewAgentHandler creates a new AgentHandler with the given dependencies.
func NewAgentHandler(agentService service.AgentService) *AgentHandler {
	return &AgentHandler{
		agentService: agentService,
	}
}

// Register handles POST /api/agents.
func (h *AgentHandler) Register(w http.ResponseWriter, r *http.Request) {
	_, tenantID, ok := identityFromContext(w, r)
	if !ok {
		return
	}

	var req RegisterAgentRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}

	agent, err := h.agentService.Register(
		r.Context(),
		tenantID,
		req.Name,
		req.MachineName,
		req.Description,
		req.PollingIntervalSeconds,
	)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	// The key is returned exactly once; subsequent listings omit it.
	shared.RespondWithJSON(w, r, http.StatusCreated, RegisterAgentResponse{
		ID:                     agent.ID,
		Name:                   agent.Name,
		MachineName:            agent.MachineName,
		Description:            agent.Description,
		APIKey:                 agent.APIKey,
		Active:                 agent.Active,
		PollingIntervalSeconds: agent.PollingIntervalSeconds,
	})
}

// List handles GET /api/agents.
func (h *AgentHandler) List(w http.ResponseWriter, r *http.Request) {
	_, tenantID, ok := identityFromContext(w, r)
	if !ok {
		return
	}

	summaries, err := h.agentService.List(r.Context(), tenantID)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, summaries)
}

// SetStatus handles PUT /api/agents/{id}/status.
func (h *AgentHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	_, tenantID, ok := identityFromContext(w, r)
	if !ok {
		return
	}

	agentID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	var req SetAgentStatusRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}

	if err := h.agentService.SetActive(r.Context(), tenantID, agentID, *req.Active); err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, map[string]bool{"active": *req.Active})
}

// ResetAPIKey handles POST /api/agents/{id}/reset-key.
func (h *AgentHandler) ResetAPIKey(w http.ResponseWriter, r *http.Request) {
	_, tenantID, ok := identityFromContext(w, r)
	if !ok {
		return
	}

	agentID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	newKey, err := h.agentService.ResetAPIKey(r.Context(), tenantID, agentID)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, ResetAPIKeyResponse{APIKey: newKey})
}
