package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrUnauthorized = errors.New("authentication required")
	ErrForbidden    = errors.New("insufficient role")
	ErrEmptyBody    = errors.New("request body is empty")
)

// Error codes reported to API clients. The set is fixed; handlers map
// sentinel errors and APIError values onto these codes.
const (
	CodeValidation     = "VALIDATION_ERROR"
	CodeAuthentication = "AUTHENTICATION_ERROR"
	CodeAuthorization  = "AUTHORIZATION_ERROR"
	CodeNotFound       = "NOT_FOUND_ERROR"
	CodeDatabase       = "DATABASE_ERROR"
	CodeFile           = "FILE_ERROR"
	CodeServer         = "SERVER_ERROR"
	CodeInvalidInput   = "INVALID_INPUT_ERROR"
)

// APIError is an error that carries a client-facing code, HTTP status and
// optional field-level details. Repository and service code return these
// (or the sentinels above); handlers serialize them.
type APIError struct {
	Code       string
	Message    string
	HTTPStatus int
	Details    map[string]any
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewValidationError builds a VALIDATION_ERROR with per-field messages.
func NewValidationError(message string, fields map[string][]string) *APIError {
	details := map[string]any{}
	if len(fields) > 0 {
		details["fields"] = fields
	}
	return &APIError{
		Code:       CodeValidation,
		Message:    message,
		HTTPStatus: http.StatusBadRequest,
		Details:    details,
	}
}

// NewInvalidInputError reports a malformed or empty request body, or a
// missing route parameter.
func NewInvalidInputError(message string) *APIError {
	return &APIError{
		Code:       CodeInvalidInput,
		Message:    message,
		HTTPStatus: http.StatusBadRequest,
	}
}

// IsValidation reports whether err is (or wraps) a VALIDATION_ERROR.
func IsValidation(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Code == CodeValidation
}
