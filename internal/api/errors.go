package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/carloseedutra-ti/EPIFlow/internal/service"
	"github.com/carloseedutra-ti/EPIFlow/internal/service/auth"
	"github.com/carloseedutra-ti/EPIFlow/internal/store"
)

// MapErrorToStatusCode maps internal errors to appropriate HTTP status codes
// based on the error type. This prevents leaking internal error types or
// messages to clients.
func MapErrorToStatusCode(err error) int {
	var validationErr *service.ValidationError

	switch {
	// Authentication errors
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken),
		errors.Is(err, auth.ErrMissingToken),
		errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, service.ErrInvalidAPIKey),
		errors.Is(err, service.ErrAgentInactive):
		return http.StatusUnauthorized

	// Not found errors
	case store.IsNotFoundError(err):
		return http.StatusNotFound

	// Conflict errors
	case store.IsDuplicateError(err),
		errors.Is(err, store.ErrTaskStateChanged),
		errors.Is(err, service.ErrTaskTerminal):
		return http.StatusConflict

	// Bad request errors
	case errors.As(err, &validationErr),
		errors.Is(err, store.ErrInvalidEntity),
		errors.Is(err, service.ErrNoReferenceTemplate):
		return http.StatusBadRequest

	// Default: internal server error
	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a sanitized, user-friendly error message
// based on the error type. This prevents leaking sensitive internal details.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	var validationErr *service.ValidationError

	switch {
	// Authentication errors
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken),
		errors.Is(err, auth.ErrMissingToken):
		return "Invalid token"

	case errors.Is(err, service.ErrInvalidCredentials):
		return "Invalid email or password"

	case errors.Is(err, service.ErrInvalidAPIKey):
		return "Invalid API key"

	case errors.Is(err, service.ErrAgentInactive):
		return "Agent is deactivated"

	// Not found errors
	case errors.Is(err, store.ErrAgentNotFound):
		return "Agent not found"

	case errors.Is(err, store.ErrTaskNotFound):
		return "Task not found"

	case errors.Is(err, store.ErrEmployeeNotFound):
		return "Employee not found"

	case errors.Is(err, store.ErrUserNotFound):
		return "User not found"

	// Conflict errors
	case errors.Is(err, store.ErrOpenTaskExists):
		return "An open capture task already exists for this finger"

	case errors.Is(err, store.ErrAgentNameExists):
		return "An agent with this name already exists"

	case errors.Is(err, store.ErrEmailExists):
		return "Email already exists"

	case errors.Is(err, store.ErrTaskStateChanged),
		errors.Is(err, service.ErrTaskTerminal):
		return "Task is no longer in a state that allows this operation"

	// Bad request errors
	case errors.As(err, &validationErr):
		return validationErr.Message

	case errors.Is(err, service.ErrNoReferenceTemplate):
		return "No completed enrollment exists for this finger"

	case errors.Is(err, store.ErrInvalidEntity):
		return "Invalid entity data"

	// Default case for unknown errors
	default:
		return "An unexpected error occurred"
	}
}

// SanitizeValidationError removes sensitive details from validation errors
// and returns a user-friendly message.
func SanitizeValidationError(err error) string {
	errMsg := err.Error()

	// Check if this is likely a validation error message
	if strings.Contains(errMsg, "Field validation") {
		// Extract the field name and validation tag
		// Example format: "Key: 'LoginRequest.Email' Error:Field validation for 'Email' failed on the 'required' tag"
		parts := strings.Split(errMsg, "Error:")
		if len(parts) >= 2 {
			fieldParts := strings.Split(parts[1], "'")
			if len(fieldParts) >= 3 {
				field := fieldParts[1]
				var tag string
				if len(fieldParts) >= 5 {
					tag = fieldParts[3]
				}

				if tag != "" {
					return fmt.Sprintf("Invalid %s: %s", field, getValidationTagMessage(tag))
				}
				return fmt.Sprintf("Invalid %s", field)
			}
		}
	}

	return "Validation error"
}

// getValidationTagMessage maps validation tags to user-friendly error messages
func getValidationTagMessage(tag string) string {
	switch tag {
	case "required":
		return "required field"
	case "email":
		return "invalid email format"
	case "min":
		return "too short"
	case "max":
		return "too long"
	case "uuid":
		return "invalid identifier format"
	case "base64":
		return "must be base64 encoded"
	case "oneof":
		return "invalid value"
	default:
		return "validation failed"
	}
}
