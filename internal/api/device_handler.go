package api

import (
	"net/http"

	"github.com/carloseedutra-ti/EPIFlow/internal/api/shared"
	"github.com/carloseedutra-ti/EPIFlow/internal/domain"
	"github.com/carloseedutra-ti/EPIFlow/internal/service"
)

// DeviceHandler handles the capture agent wire protocol. Agents are
// credentialed by API key carried in the request body; these routes sit
// outside the JWT-protected operator surface.
type DeviceHandler struct {
	biometricService service.BiometricService
}

// NewDeviceHandler creates a new DeviceHandler with the given dependencies.
func NewDeviceHandler(biometricService service.BiometricService) *DeviceHandler {
	return &DeviceHandler{
		biometricService: biometricService,
	}
}

// decodeAgentRequest parses and validates an agent-side payload.
func decodeAgentRequest(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := shared.DecodeJSON(r, v); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return false
	}
	if err := shared.ValidateRequest(v); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return false
	}
	return true
}

// respondWithAgentError maps agent-side failures; credential failures are
// logged at WARN since they usually mean a revoked or misconfigured key.
func respondWithAgentError(w http.ResponseWriter, r *http.Request, err error) {
	status := MapErrorToStatusCode(err)
	opts := []shared.ResponseOption{}
	if status == http.StatusUnauthorized {
		opts = append(opts, shared.WithElevatedLogLevel())
	}
	shared.RespondWithErrorAndLog(w, r, status, GetSafeErrorMessage(err), err, opts...)
}

// Config handles POST /api/agent/config: an agent resolves its identity and
// polling interval from its key on startup.
func (h *DeviceHandler) Config(w http.ResponseWriter, r *http.Request) {
	var req AgentAuthRequest
	if !decodeAgentRequest(w, r, &req) {
		return
	}

	agent, err := h.biometricService.AgentConfiguration(r.Context(), req.APIKey)
	if err != nil {
		respondWithAgentError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, AgentConfigResponse{
		Success:                true,
		AgentName:              agent.Name,
		PollingIntervalSeconds: agent.PollingIntervalSeconds,
	})
}

// Poll handles POST /api/agent/poll: the agent heartbeat plus task claim.
// Responds 200 with a task or 204 when there is no work.
func (h *DeviceHandler) Poll(w http.ResponseWriter, r *http.Request) {
	var req AgentAuthRequest
	if !decodeAgentRequest(w, r, &req) {
		return
	}

	task, err := h.biometricService.Dequeue(r.Context(), req.APIKey)
	if err != nil {
		respondWithAgentError(w, r, err)
		return
	}

	if task == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, newAgentTaskResponse(task))
}

// Complete handles POST /api/agent/complete.
func (h *DeviceHandler) Complete(w http.ResponseWriter, r *http.Request) {
	var req AgentCompleteRequest
	if !decodeAgentRequest(w, r, &req) {
		return
	}

	if err := h.biometricService.CompleteTask(r.Context(), req.APIKey, req.TaskID, req.TemplateBase64); err != nil {
		respondWithAgentError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, AgentAckResponse{Success: true})
}

// Fail handles POST /api/agent/fail.
func (h *DeviceHandler) Fail(w http.ResponseWriter, r *http.Request) {
	var req AgentFailRequest
	if !decodeAgentRequest(w, r, &req) {
		return
	}

	if err := h.biometricService.FailTask(r.Context(), req.APIKey, req.TaskID, req.Reason); err != nil {
		respondWithAgentError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, AgentAckResponse{Success: true})
}

func newAgentTaskResponse(task *domain.BiometricTask) AgentTaskResponse {
	return AgentTaskResponse{
		TaskID:                     task.ID,
		EmployeeID:                 task.EmployeeID,
		EmployeeName:               task.EmployeeName,
		EmployeeRegistrationNumber: task.EmployeeRegistrationNumber,
		Finger:                     task.Finger.Code(),
		FingerName:                 task.Finger.String(),
		Operation:                  string(task.Payload.Operation),
		SubjectIdentifier:          task.Payload.SubjectIdentifier,
		ReferenceTemplate:          task.Payload.ReferenceTemplate,
	}
}
