package api

import (
	"net/http"

	"github.com/carloseedutra-ti/EPIFlow/internal/api/shared"
	"github.com/carloseedutra-ti/EPIFlow/internal/domain"
	"github.com/carloseedutra-ti/EPIFlow/internal/service"
)

// EmployeeHandler handles employee registration and the per-employee
// biometric views.
type EmployeeHandler struct {
	employeeService  service.EmployeeService
	biometricService service.BiometricService
}

// NewEmployeeHandler creates a new EmployeeHandler with the given dependencies.
func NewEmployeeHandler(
	employeeService service.EmployeeService,
	biometricService service.BiometricService,
) *EmployeeHandler {
	return &EmployeeHandler{
		employeeService:  employeeService,
		biometricService: biometricService,
	}
}

func newEmployeeResponse(employee *domain.Employee) EmployeeResponse {
	return EmployeeResponse{
		ID:                 employee.ID,
		Name:               employee.Name,
		RegistrationNumber: employee.RegistrationNumber,
		CreatedAt:          employee.CreatedAt,
	}
}

// Create handles POST /api/employees.
func (h *EmployeeHandler) Create(w http.ResponseWriter, r *http.Request) {
	_, tenantID, ok := identityFromContext(w, r)
	if !ok {
		return
	}

	var req CreateEmployeeRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}

	employee, err := h.employeeService.Create(r.Context(), tenantID, req.Name, req.RegistrationNumber)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusCreated, newEmployeeResponse(employee))
}

// Get handles GET /api/employees/{id}.
func (h *EmployeeHandler) Get(w http.ResponseWriter, r *http.Request) {
	_, tenantID, ok := identityFromContext(w, r)
	if !ok {
		return
	}

	employeeID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	employee, err := h.employeeService.Get(r.Context(), tenantID, employeeID)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, newEmployeeResponse(employee))
}

// Biometrics handles GET /api/employees/{id}/biometrics: the ten-finger
// status grid plus the tenant's active agents.
func (h *EmployeeHandler) Biometrics(w http.ResponseWriter, r *http.Request) {
	_, tenantID, ok := identityFromContext(w, r)
	if !ok {
		return
	}

	employeeID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	overview, err := h.biometricService.EmployeeOverview(r.Context(), tenantID, employeeID)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, overview)
}

// ClearBiometrics handles DELETE /api/employees/{id}/biometrics.
func (h *EmployeeHandler) ClearBiometrics(w http.ResponseWriter, r *http.Request) {
	_, tenantID, ok := identityFromContext(w, r)
	if !ok {
		return
	}

	employeeID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	deleted, err := h.biometricService.ClearEnrollments(r.Context(), tenantID, employeeID)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, ClearEnrollmentsResponse{Deleted: deleted})
}
