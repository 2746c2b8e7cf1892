package api

import (
	"net/http"

	"github.com/carloseedutra-ti/EPIFlow/internal/api/shared"
	"github.com/carloseedutra-ti/EPIFlow/internal/service"
)

// AuthHandler handles authentication-related API requests.
type AuthHandler struct {
	userService service.UserService
}

// NewAuthHandler creates a new AuthHandler with the given dependencies.
func NewAuthHandler(userService service.UserService) *AuthHandler {
	return &AuthHandler{
		userService: userService,
	}
}

// Login handles the /api/auth/login endpoint.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest

	// Parse request
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	// Validate request
	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}

	user, token, err := h.userService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		// Repeated credential failures are worth surfacing in the logs.
		status := MapErrorToStatusCode(err)
		shared.RespondWithErrorAndLog(w, r, status, GetSafeErrorMessage(err), err,
			shared.WithElevatedLogLevel())
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, LoginResponse{
		UserID:      user.ID,
		DisplayName: user.DisplayName,
		Token:       token,
	})
}
