package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/carloseedutra-ti/EPIFlow/internal/api/shared"
)

// identityFromContext extracts the authenticated user and tenant IDs placed
// in the request context by the authentication middleware. Writes a 401 and
// returns false when either is missing.
func identityFromContext(w http.ResponseWriter, r *http.Request) (userID, tenantID uuid.UUID, ok bool) {
	userID, ok = shared.GetUserID(r.Context())
	if !ok || userID == uuid.Nil {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "User identity not found in request context")
		return uuid.Nil, uuid.Nil, false
	}

	tenantID, ok = shared.GetTenantID(r.Context())
	if !ok || tenantID == uuid.Nil {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Tenant identity not found in request context")
		return uuid.Nil, uuid.Nil, false
	}

	return userID, tenantID, true
}

// pathUUID extracts and parses a UUID path parameter. Writes a 400 and
// returns false on a missing or malformed value.
func pathUUID(w http.ResponseWriter, r *http.Request, paramName string) (uuid.UUID, bool) {
	pathParam := chi.URLParam(r, paramName)
	if pathParam == "" {
		shared.RespondWithError(w, r, http.StatusBadRequest, paramName+" is required")
		return uuid.Nil, false
	}

	id, err := uuid.Parse(pathParam)
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid "+paramName+" format")
		return uuid.Nil, false
	}

	return id, true
}

// respondWithServiceError maps a service-layer error onto the sanitized
// HTTP response and logs the underlying cause.
func respondWithServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status := MapErrorToStatusCode(err)
	shared.RespondWithErrorAndLog(w, r, status, GetSafeErrorMessage(err), err)
}
