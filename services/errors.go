package services

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes returned in the API error envelope.
const (
	CodeNotFound       = "NOT_FOUND"
	CodeValidation     = "VALIDATION_ERROR"
	CodeConflict       = "CONFLICT"
	CodeAuthentication = "AUTHENTICATION_ERROR"
	CodeAuthorization  = "AUTHORIZATION_ERROR"
	CodeInternal       = "INTERNAL_ERROR"
)

// ServiceError is the error type raised by the service layer. The boundary
// maps Code to an HTTP status and renders {error, message, details}.
type ServiceError struct {
	Code    string                 `json:"error"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// HTTPStatus returns the transport status for the error code.
func (e *ServiceError) HTTPStatus() int {
	switch e.Code {
	case CodeNotFound:
		return http.StatusNotFound
	case CodeValidation:
		return http.StatusBadRequest
	case CodeConflict:
		return http.StatusConflict
	case CodeAuthentication:
		return http.StatusUnauthorized
	case CodeAuthorization:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// AsServiceError unwraps err into a *ServiceError if it is one.
func AsServiceError(err error) (*ServiceError, bool) {
	var se *ServiceError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}

// NotFound reports a missing entity, e.g. NotFound("Trial", id).
func NotFound(resource string, identifier interface{}) *ServiceError {
	return &ServiceError{
		Code:    CodeNotFound,
		Message: fmt.Sprintf("%s not found: %v", resource, identifier),
	}
}

// Validation reports a semantically invalid operation.
func Validation(message string, details map[string]interface{}) *ServiceError {
	return &ServiceError{Code: CodeValidation, Message: message, Details: details}
}

// Conflict reports a uniqueness or state conflict.
func Conflict(message string, details map[string]interface{}) *ServiceError {
	return &ServiceError{Code: CodeConflict, Message: message, Details: details}
}
