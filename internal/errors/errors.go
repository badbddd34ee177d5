package errors

import (
	"errors"
	"net/http"
	"strings"
)

var (
	// ErrUserNotFound is returned when a user record does not exist.
	ErrUserNotFound = errors.New("user not found")
	// ErrInvalidUserID is returned when an identifier is not a valid user id.
	ErrInvalidUserID = errors.New("invalid user id")
	// ErrEmailExists is returned when another record already uses the email.
	ErrEmailExists = errors.New("email already exists")
	// ErrInvalidCredentials is returned when email or password is incorrect.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrConsentRequired is returned when a consent update omits the consent value.
	ErrConsentRequired = errors.New("marketingConsent is required")
)

// ValidationError aggregates every violated field rule of a request.
type ValidationError struct {
	Messages []string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Messages, "; ")
}

// NewValidationError builds a ValidationError from messages.
func NewValidationError(messages ...string) *ValidationError {
	return &ValidationError{Messages: messages}
}

// ErrorResponse represents a standardized error response.
type ErrorResponse struct {
	Success bool     `json:"success"`
	Message string   `json:"message"`
	Code    string   `json:"code,omitempty"`
	Errors  []string `json:"errors,omitempty"`
}

// ForbiddenResponse is rendered when the caller's role is not permitted.
// UserRole is null when the caller asserted no role.
type ForbiddenResponse struct {
	ErrorResponse
	UserRole *string `json:"userRole"`
}

// HTTPError represents an HTTP error with status code.
type HTTPError struct {
	StatusCode int
	Message    string
	Code       string
	Errors     []string
}

func (e *HTTPError) Error() string {
	return e.Message
}

// NewHTTPError creates a new HTTP error.
func NewHTTPError(statusCode int, message, code string) *HTTPError {
	return &HTTPError{
		StatusCode: statusCode,
		Message:    message,
		Code:       code,
	}
}

// ToErrorResponse converts an HTTPError to ErrorResponse.
func (e *HTTPError) ToErrorResponse() ErrorResponse {
	return ErrorResponse{
		Success: false,
		Message: e.Message,
		Code:    e.Code,
		Errors:  e.Errors,
	}
}

// MapErrorToHTTP maps domain errors to HTTP errors.
func MapErrorToHTTP(err error) *HTTPError {
	var validationErr *ValidationError
	if errors.As(err, &validationErr) {
		httpErr := NewHTTPError(http.StatusBadRequest, "validation failed", "VALIDATION_ERROR")
		httpErr.Errors = validationErr.Messages
		return httpErr
	}

	switch {
	case errors.Is(err, ErrUserNotFound):
		return NewHTTPError(http.StatusNotFound, ErrUserNotFound.Error(), "USER_NOT_FOUND")
	case errors.Is(err, ErrInvalidUserID):
		return NewHTTPError(http.StatusBadRequest, ErrInvalidUserID.Error(), "INVALID_ID")
	case errors.Is(err, ErrEmailExists):
		return NewHTTPError(http.StatusBadRequest, ErrEmailExists.Error(), "EMAIL_EXISTS")
	case errors.Is(err, ErrConsentRequired):
		return NewHTTPError(http.StatusBadRequest, ErrConsentRequired.Error(), "CONSENT_REQUIRED")
	case errors.Is(err, ErrInvalidCredentials):
		return NewHTTPError(http.StatusUnauthorized, ErrInvalidCredentials.Error(), "INVALID_CREDENTIALS")
	default:
		return NewHTTPError(http.StatusInternalServerError, "internal server error", "INTERNAL_ERROR")
	}
}
