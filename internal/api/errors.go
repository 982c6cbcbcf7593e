// errors.go - Structured error handling for API responses
package api

import (
	"errors"
	"fmt"
	"net/http"
	"os"

	"github.com/labstack/echo/v4"

	"github.com/structdraw/backend/internal/export"
	"github.com/structdraw/backend/internal/ledger"
	"github.com/structdraw/backend/internal/overlay"
	"github.com/structdraw/backend/internal/session"
	"github.com/structdraw/backend/internal/storage"
	"github.com/structdraw/backend/internal/upload"
	"github.com/structdraw/backend/internal/workspace"
)

// APIError represents a structured API error response
type APIError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Error constructors for consistent error handling

// NewBadRequestError creates a 400 Bad Request error
func NewBadRequestError(message string, cause error) *APIError {
	err := &APIError{
		Status:  http.StatusBadRequest,
		Code:    "BAD_REQUEST",
		Message: message,
	}
	if cause != nil {
		err.Details = cause.Error()
	}
	return err
}

// NewValidationError creates a 400 validation error for a specific field
func NewValidationError(field string) *APIError {
	return &APIError{
		Status:  http.StatusBadRequest,
		Code:    "VALIDATION_ERROR",
		Message: fmt.Sprintf("validation failed for field: %s", field),
	}
}

// NewNotFoundError creates a 404 Not Found error
func NewNotFoundError(resource string, id string) *APIError {
	return &APIError{
		Status:  http.StatusNotFound,
		Code:    "NOT_FOUND",
		Message: fmt.Sprintf("%s not found: %s", resource, id),
	}
}

// NewConflictError creates a 409 Conflict error
func NewConflictError(message string) *APIError {
	return &APIError{
		Status:  http.StatusConflict,
		Code:    "CONFLICT",
		Message: message,
	}
}

// NewInternalError creates a 500 Internal Server Error
func NewInternalError(message string, cause error) *APIError {
	err := &APIError{
		Status:  http.StatusInternalServerError,
		Code:    "INTERNAL_ERROR",
		Message: message,
	}
	if cause != nil {
		err.Details = cause.Error()
	}
	return err
}

// NewServiceUnavailableError creates a 503 Service Unavailable error
func NewServiceUnavailableError(message string) *APIError {
	return &APIError{
		Status:  http.StatusServiceUnavailable,
		Code:    "SERVICE_UNAVAILABLE",
		Message: message,
	}
}

// domainError maps a sentinel from the domain packages to its HTTP form.
// Unrecognised errors become 500s carrying message.
func domainError(err error, message string) *APIError {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}

	status, code := http.StatusInternalServerError, "INTERNAL_ERROR"
	switch {
	case errors.Is(err, upload.ErrInvalidFileType):
		status, code = http.StatusUnsupportedMediaType, "INVALID_FILE_TYPE"
	case errors.Is(err, upload.ErrUnsupportedEncoding):
		status, code = http.StatusUnsupportedMediaType, "UNSUPPORTED_ENCODING"
	case errors.Is(err, storage.ErrTooLarge):
		status, code = http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE"
	case errors.Is(err, ledger.ErrInvalidFieldValue):
		status, code = http.StatusUnprocessableEntity, "INVALID_FIELD_VALUE"
	case errors.Is(err, overlay.ErrUnknownElement):
		status, code = http.StatusNotFound, "UNKNOWN_ELEMENT"
	case errors.Is(err, ledger.ErrUnknownRow):
		status, code = http.StatusNotFound, "UNKNOWN_ROW"
	case errors.Is(err, ledger.ErrNotEditing):
		return conflict(err, "NOT_EDITING")
	case errors.Is(err, workspace.ErrOrphanedReference):
		return conflict(err, "ORPHANED_REFERENCE")
	case errors.Is(err, workspace.ErrNoAsset):
		status, code = http.StatusNotFound, "NO_ASSET"
	case errors.Is(err, workspace.ErrClosed):
		status, code = http.StatusGone, "WORKSPACE_CLOSED"
	case errors.Is(err, export.ErrInvalidExportConfig):
		status, code = http.StatusBadRequest, "INVALID_EXPORT_CONFIG"
	case errors.Is(err, session.ErrNotFound), errors.Is(err, storage.ErrNotFound):
		status, code = http.StatusNotFound, "NOT_FOUND"
	default:
		return NewInternalError(message, err)
	}
	return &APIError{Status: status, Code: code, Message: err.Error()}
}

func conflict(err error, code string) *APIError {
	apiErr := NewConflictError(err.Error())
	apiErr.Code = code
	return apiErr
}

// ErrorHandler middleware for Echo
// Usage: e.HTTPErrorHandler = api.ErrorHandler
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var apiErr *APIError

	switch e := err.(type) {
	case *APIError:
		apiErr = e
	case *echo.HTTPError:
		apiErr = &APIError{
			Status:  e.Code,
			Code:    "HTTP_ERROR",
			Message: fmt.Sprintf("%v", e.Message),
		}
	default:
		apiErr = domainError(err, "An unexpected error occurred")
		if apiErr.Status == http.StatusInternalServerError {
			apiErr.Code = "UNKNOWN_ERROR"
			apiErr.Details = ""
			// In development, include error details
			if isDevelopment() {
				apiErr.Details = err.Error()
			}
		}
	}

	// Send JSON response
	if c.Request().Method == http.MethodHead {
		c.NoContent(apiErr.Status)
		return
	}
	c.JSON(apiErr.Status, apiErr)
}

// isDevelopment reports whether error details may be shown to clients.
func isDevelopment() bool {
	return os.Getenv("STRUCTDRAW_ENV") != "production"
}

