package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/carloseedutra-ti/EPIFlow/internal/domain"
)

// Common request/response structures

// LoginRequest defines the payload for the operator login endpoint.
type LoginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=1"`
}

// LoginResponse defines the successful response for the login endpoint.
type LoginResponse struct {
	// UserID is the unique identifier for the authenticated user
	UserID uuid.UUID `json:"user_id"`

	// DisplayName is the user's display name, falling back to the email
	DisplayName string `json:"display_name,omitempty"`

	// Token is the JWT used for API authorization
	Token string `json:"token"`
}

// RegisterAgentRequest defines the payload for registering a capture agent.
type RegisterAgentRequest struct {
	Name                   string `json:"name"                     validate:"required,min=1,max=100"`
	MachineName            string `json:"machine_name"             validate:"max=100"`
	Description            string `json:"description"              validate:"max=500"`
	PollingIntervalSeconds int    `json:"polling_interval_seconds"`
}

// RegisterAgentResponse returns the new agent together with its API key.
// This is the only time the key is shown besides an explicit rotation.
type RegisterAgentResponse struct {
	ID                     uuid.UUID `json:"id"`
	Name                   string    `json:"name"`
	MachineName            string    `json:"machine_name,omitempty"`
	Description            string    `json:"description,omitempty"`
	APIKey                 uuid.UUID `json:"api_key"`
	Active                 bool      `json:"active"`
	PollingIntervalSeconds int       `json:"polling_interval_seconds"`
}

// SetAgentStatusRequest defines the payload for activating or deactivating
// an agent.
type SetAgentStatusRequest struct {
	Active *bool `json:"active" validate:"required"`
}

// ResetAPIKeyResponse returns the freshly rotated agent credential.
type ResetAPIKeyResponse struct {
	APIKey uuid.UUID `json:"api_key"`
}

// CreateEmployeeRequest defines the payload for registering an employee.
type CreateEmployeeRequest struct {
	Name               string `json:"name"                validate:"required,min=1,max=200"`
	RegistrationNumber string `json:"registration_number" validate:"required,min=1,max=50"`
}

// EmployeeResponse is the administrative view of an employee.
type EmployeeResponse struct {
	ID                 uuid.UUID `json:"id"`
	Name               string    `json:"name"`
	RegistrationNumber string    `json:"registration_number"`
	CreatedAt          time.Time `json:"created_at"`
}

// CaptureRequest defines the payload for queueing an enrollment or
// verification task.
type CaptureRequest struct {
	AgentID    uuid.UUID `json:"agent_id"    validate:"required"`
	EmployeeID uuid.UUID `json:"employee_id" validate:"required"`
	Finger     int       `json:"finger"      validate:"min=0,max=9"`
}

// TaskResultResponse is the outcome side of a completed task as exposed to
// operators. The raw template is not echoed back.
type TaskResultResponse struct {
	Operation string `json:"operation"`
	Verified  bool   `json:"verified"`
	HasResult bool   `json:"has_template"`
}

// TaskResponse is the operator view of a biometric task.
type TaskResponse struct {
	ID            uuid.UUID           `json:"id"`
	AgentID       uuid.UUID           `json:"agent_id"`
	EmployeeID    uuid.UUID           `json:"employee_id"`
	EmployeeName  string              `json:"employee_name"`
	Finger        int                 `json:"finger"`
	FingerName    string              `json:"finger_name"`
	Operation     string              `json:"operation"`
	Status        string              `json:"status"`
	Result        *TaskResultResponse `json:"result,omitempty"`
	FailureReason string              `json:"failure_reason,omitempty"`
	AssignedAt    *time.Time          `json:"assigned_at,omitempty"`
	CompletedAt   *time.Time          `json:"completed_at,omitempty"`
	CreatedAt     time.Time           `json:"created_at"`
	UpdatedAt     time.Time           `json:"updated_at"`
}

// NewTaskResponse projects a domain task into its operator representation.
func NewTaskResponse(task *domain.BiometricTask) TaskResponse {
	resp := TaskResponse{
		ID:            task.ID,
		AgentID:       task.AgentID,
		EmployeeID:    task.EmployeeID,
		EmployeeName:  task.EmployeeName,
		Finger:        task.Finger.Code(),
		FingerName:    task.Finger.String(),
		Operation:     string(task.Payload.Operation),
		Status:        string(task.Status),
		FailureReason: task.FailureReason,
		AssignedAt:    task.AssignedAt,
		CompletedAt:   task.CompletedAt,
		CreatedAt:     task.CreatedAt,
		UpdatedAt:     task.UpdatedAt,
	}
	if task.Result != nil {
		resp.Result = &TaskResultResponse{
			Operation: string(task.Result.Operation),
			Verified:  task.Result.Verified,
			HasResult: task.Result.TemplateBase64 != "",
		}
	}
	return resp
}

// ClearEnrollmentsResponse reports how many task records were removed.
type ClearEnrollmentsResponse struct {
	Deleted int `json:"deleted"`
}

// Agent wire protocol structures. Agents authenticate with the api_key in
// the request body rather than headers; the deployed capture clients send
// it that way.

// AgentAuthRequest is the common credential envelope for agent calls.
type AgentAuthRequest struct {
	APIKey uuid.UUID `json:"api_key" validate:"required"`
}

// AgentConfigResponse returns the configuration an agent applies on startup.
type AgentConfigResponse struct {
	Success                bool   `json:"success"`
	AgentName              string `json:"agent_name"`
	PollingIntervalSeconds int    `json:"polling_interval_seconds"`
}

// AgentTaskResponse is one unit of work handed to a polling agent. The
// reference template is embedded for verify operations so the agent never
// makes a second round trip.
type AgentTaskResponse struct {
	TaskID                     uuid.UUID `json:"task_id"`
	EmployeeID                 uuid.UUID `json:"employee_id"`
	EmployeeName               string    `json:"employee_name"`
	EmployeeRegistrationNumber string    `json:"employee_registration_number"`
	Finger                     int       `json:"finger"`
	FingerName                 string    `json:"finger_name"`
	Operation                  string    `json:"operation"`
	SubjectIdentifier          string    `json:"subject_identifier"`
	ReferenceTemplate          string    `json:"reference_template,omitempty"`
}

// AgentCompleteRequest reports a successful capture back to the server.
type AgentCompleteRequest struct {
	APIKey         uuid.UUID `json:"api_key"         validate:"required"`
	TaskID         uuid.UUID `json:"task_id"         validate:"required"`
	TemplateBase64 string    `json:"template_base64"`
}

// AgentFailRequest reports a failed capture back to the server.
type AgentFailRequest struct {
	APIKey uuid.UUID `json:"api_key" validate:"required"`
	TaskID uuid.UUID `json:"task_id" validate:"required"`
	Reason string    `json:"reason"`
}

// AgentAckResponse is the minimal acknowledgement for agent-side reports.
type AgentAckResponse struct {
	Success bool `json:"success"`
}
