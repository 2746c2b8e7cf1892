package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/carloseedutra-ti/EPIFlow/internal/api/shared"
	"github.com/carloseedutra-ti/EPIFlow/internal/domain"
	"github.com/carloseedutra-ti/EPIFlow/internal/service"
	"github.com/carloseedutra-ti/EPIFlow/internal/store"
)

// BiometricHandler handles the operator side of the capture task lifecycle:
// queueing enrollments and verifications and inspecting task state.
type BiometricHandler struct {
	biometricService service.BiometricService
	userStore        store.UserStore
}

// NewBiometricHandler creates a new BiometricHandler with the given dependencies.
func NewBiometricHandler(
	biometricService service.BiometricService,
	userStore store.UserStore,
) *BiometricHandler {
	return &BiometricHandler{
		biometricService: biometricService,
		userStore:        userStore,
	}
}

// requestActor resolves the authenticated user into the actor recorded on
// the task. A missing user record still yields a usable actor; the request
// must not fail because the display name could not be loaded.
func (h *BiometricHandler) requestActor(ctx context.Context, userID uuid.UUID) domain.Actor {
	user, err := h.userStore.GetByID(ctx, userID)
	if err != nil {
		return domain.Actor{Kind: domain.ActorKindUser, ID: userID, Name: "operator"}
	}
	return user.Actor()
}

// decodeCaptureRequest parses and validates the shared enroll/verify payload.
func decodeCaptureRequest(w http.ResponseWriter, r *http.Request) (CaptureRequest, bool) {
	var req CaptureRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return req, false
	}
	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return req, false
	}
	return req, true
}

// RequestEnrollment handles POST /api/biometrics/enrollments.
func (h *BiometricHandler) RequestEnrollment(w http.ResponseWriter, r *http.Request) {
	userID, tenantID, ok := identityFromContext(w, r)
	if !ok {
		return
	}

	req, ok := decodeCaptureRequest(w, r)
	if !ok {
		return
	}

	task, err := h.biometricService.RequestEnrollment(
		r.Context(),
		tenantID,
		req.AgentID,
		req.EmployeeID,
		domain.Finger(req.Finger),
		h.requestActor(r.Context(), userID),
	)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusCreated, NewTaskResponse(task))
}

// RequestVerification handles POST /api/biometrics/verifications.
func (h *BiometricHandler) RequestVerification(w http.ResponseWriter, r *http.Request) {
	userID, tenantID, ok := identityFromContext(w, r)
	if !ok {
		return
	}

	req, ok := decodeCaptureRequest(w, r)
	if !ok {
		return
	}

	task, err := h.biometricService.RequestVerification(
		r.Context(),
		tenantID,
		req.AgentID,
		req.EmployeeID,
		domain.Finger(req.Finger),
		h.requestActor(r.Context(), userID),
	)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusCreated, NewTaskResponse(task))
}

// GetTask handles GET /api/biometrics/tasks/{id}. Operators poll this to
// follow a task from pending through its terminal state.
func (h *BiometricHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	_, tenantID, ok := identityFromContext(w, r)
	if !ok {
		return
	}

	taskID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	task, err := h.biometricService.GetTask(r.Context(), tenantID, taskID)
	if err != nil {
		if errors.Is(err, store.ErrTaskNotFound) {
			shared.RespondWithError(w, r, http.StatusNotFound, "Task not found")
			return
		}
		respondWithServiceError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, NewTaskResponse(task))
}
