package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Task-specific validation errors
var (
	// ErrTaskAgentIDEmpty is returned when a task's agent ID is empty or nil.
	ErrTaskAgentIDEmpty = errors.New("task agent ID cannot be empty")

	// ErrTaskEmployeeIDEmpty is returned when a task's employee ID is empty or nil.
	ErrTaskEmployeeIDEmpty = errors.New("task employee ID cannot be empty")

	// ErrTaskTenantIDEmpty is returned when a task's tenant ID is empty or nil.
	ErrTaskTenantIDEmpty = errors.New("task tenant ID cannot be empty")

	// ErrTaskFingerInvalid is returned when a task targets an unknown finger code.
	ErrTaskFingerInvalid = errors.New("task finger is not a valid finger code")

	// ErrPayloadOperationInvalid is returned when a payload carries an unknown operation.
	ErrPayloadOperationInvalid = errors.New("payload operation must be enroll or verify")

	// ErrPayloadTemplateMissing is returned when a verify payload has no reference template.
	ErrPayloadTemplateMissing = errors.New("verify payload requires a reference template")

	// ErrPayloadTemplateForbidden is returned when an enroll payload embeds a reference template.
	ErrPayloadTemplateForbidden = errors.New("enroll payload must not carry a reference template")
)

// TaskStatus represents the lifecycle state of a biometric task.
type TaskStatus string

// Task lifecycle states. Completed, Failed and Cancelled are terminal.
const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusCompleted  TaskStatus = "completed"
	TaskStatusFailed     TaskStatus = "failed"
	TaskStatusCancelled  TaskStatus = "cancelled"
)

// Terminal reports whether the status permits no further transitions.
func (s TaskStatus) Terminal() bool {
	switch s {
	case TaskStatusCompleted, TaskStatusFailed, TaskStatusCancelled:
		return true
	}
	return false
}

// Open reports whether the status counts against the one-in-flight-per-finger
// rule (Pending or InProgress).
func (s TaskStatus) Open() bool {
	return s == TaskStatusPending || s == TaskStatusInProgress
}

// CanTransitionTo reports whether the state machine allows moving from s to
// next. Terminal states are never left; Pending may be assigned or cancelled;
// InProgress may complete, fail or be cancelled by the expiry sweep.
func (s TaskStatus) CanTransitionTo(next TaskStatus) bool {
	if s.Terminal() {
		return false
	}
	switch s {
	case TaskStatusPending:
		return next == TaskStatusInProgress || next == TaskStatusCancelled
	case TaskStatusInProgress:
		return next == TaskStatusCompleted || next == TaskStatusFailed || next == TaskStatusCancelled
	}
	return false
}

// Operation distinguishes the two kinds of capture work an agent performs.
type Operation string

const (
	// OperationEnroll captures and stores a reference template for a finger.
	OperationEnroll Operation = "enroll"

	// OperationVerify captures a fresh sample and compares it against a
	// previously stored reference template.
	OperationVerify Operation = "verify"
)

// Valid reports whether the operation is one of the known kinds.
func (o Operation) Valid() bool {
	return o == OperationEnroll || o == OperationVerify
}

// TaskPayload is the request side of a task: what the agent is asked to do
// and against whom. ReferenceTemplate is set only for verify operations, so
// the agent can verify without a separate fetch.
type TaskPayload struct {
	Operation         Operation `json:"operation"`
	SubjectIdentifier string    `json:"subject_identifier"`
	SubjectName       string    `json:"subject_name"`
	ReferenceTemplate string    `json:"reference_template,omitempty"`
}

// NewEnrollPayload builds the payload for an enrollment task.
func NewEnrollPayload(subjectIdentifier, subjectName string) TaskPayload {
	return TaskPayload{
		Operation:         OperationEnroll,
		SubjectIdentifier: subjectIdentifier,
		SubjectName:       subjectName,
	}
}

// NewVerifyPayload builds the payload for a verification task, embedding the
// stored reference template.
func NewVerifyPayload(subjectIdentifier, subjectName, referenceTemplate string) TaskPayload {
	return TaskPayload{
		Operation:         OperationVerify,
		SubjectIdentifier: subjectIdentifier,
		SubjectName:       subjectName,
		ReferenceTemplate: referenceTemplate,
	}
}

// Validate checks the operation tag and the per-operation template rules.
func (p TaskPayload) Validate() error {
	if !p.Operation.Valid() {
		return ErrPayloadOperationInvalid
	}
	if p.Operation == OperationVerify && p.ReferenceTemplate == "" {
		return ErrPayloadTemplateMissing
	}
	if p.Operation == OperationEnroll && p.ReferenceTemplate != "" {
		return ErrPayloadTemplateForbidden
	}
	return nil
}

// TaskResult is the outcome side of a completed task.
type TaskResult struct {
	TemplateBase64 string    `json:"template_base64"`
	Operation      Operation `json:"operation"`
	Verified       bool      `json:"verified"`
}

// ActorKind identifies who stamped a terminal state on a task.
type ActorKind string

const (
	// ActorKindAgent marks a completion or failure reported by the capture agent.
	ActorKindAgent ActorKind = "agent"

	// ActorKindSystem marks a cancellation applied by the expiry sweep.
	ActorKindSystem ActorKind = "system"

	// ActorKindUser marks a request issued by an administrative user.
	ActorKindUser ActorKind = "user"
)

// Actor records the identity behind a terminal transition. The zero value
// means "no actor yet" and is only valid on non-terminal tasks.
type Actor struct {
	Kind ActorKind `json:"kind"`
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// SystemActor is the sentinel actor for system-initiated cancellations.
func SystemActor() Actor {
	return Actor{Kind: ActorKindSystem, Name: "system"}
}

// AgentActor builds the actor for a transition reported by an agent.
func AgentActor(agentID uuid.UUID, agentName string) Actor {
	return Actor{Kind: ActorKindAgent, ID: agentID, Name: agentName}
}

// Set reports whether the actor carries an identity.
func (a Actor) Set() bool {
	return a.Kind != ""
}

// BiometricTask is one unit of capture or verification work flowing through
// the orchestration state machine. The orchestration service is the only
// writer; tasks transition strictly forward and are never resurrected from a
// terminal state.
type BiometricTask struct {
	ID                         uuid.UUID
	TenantID                   uuid.UUID
	AgentID                    uuid.UUID
	EmployeeID                 uuid.UUID
	Finger                     Finger
	Status                     TaskStatus
	EmployeeName               string
	EmployeeRegistrationNumber string
	RequestedBy                Actor
	Payload                    TaskPayload
	Result                     *TaskResult
	FailureReason              string
	AssignedAt                 *time.Time
	StartedAt                  *time.Time
	CompletedAt                *time.Time
	CompletedBy                Actor
	CreatedAt                  time.Time
	UpdatedAt                  time.Time
}

// NewBiometricTask creates a Pending task for the given target. It generates
// the task ID and timestamps and validates the payload against the finger
// and identity fields.
func NewBiometricTask(
	tenantID, agentID, employeeID uuid.UUID,
	finger Finger,
	employeeName, registrationNumber string,
	requestedBy Actor,
	payload TaskPayload,
) (*BiometricTask, error) {
	now := time.Now().UTC()
	task := &BiometricTask{
		ID:                         uuid.New(),
		TenantID:                   tenantID,
		AgentID:                    agentID,
		EmployeeID:                 employeeID,
		Finger:                     finger,
		Status:                     TaskStatusPending,
		EmployeeName:               employeeName,
		EmployeeRegistrationNumber: registrationNumber,
		RequestedBy:                requestedBy,
		Payload:                    payload,
		CreatedAt:                  now,
		UpdatedAt:                  now,
	}

	if err := task.Validate(); err != nil {
		return nil, err
	}

	return task, nil
}

// Validate checks structural invariants of the task.
func (t *BiometricTask) Validate() error {
	if t.TenantID == uuid.Nil {
		return ErrTaskTenantIDEmpty
	}
	if t.AgentID == uuid.Nil {
		return ErrTaskAgentIDEmpty
	}
	if t.EmployeeID == uuid.Nil {
		return ErrTaskEmployeeIDEmpty
	}
	if !t.Finger.Valid() {
		return ErrTaskFingerInvalid
	}
	return t.Payload.Validate()
}
