package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	"github.com/copyleftdev/bioristor/internal/optimization"
)

// APIError represents a structured API error response.
type APIError struct {
	StatusCode int         `json:"status_code"`
	ErrorCode  string      `json:"error_code"`
	Message    string      `json:"message"`
	Details    interface{} `json:"details,omitempty"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return e.Message
}

// Render implements render.Renderer.
func (e *APIError) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, e.StatusCode)
	return nil
}

// ValidationError describes one rejected field.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// New creates a new APIError.
func New(statusCode int, errorCode, message string) *APIError {
	return &APIError{
		StatusCode: statusCode,
		ErrorCode:  errorCode,
		Message:    message,
	}
}

// NewWithDetails creates a new APIError with additional details.
func NewWithDetails(statusCode int, errorCode, message string, details interface{}) *APIError {
	return &APIError{
		StatusCode: statusCode,
		ErrorCode:  errorCode,
		Message:    message,
		Details:    details,
	}
}

// Error codes.
const (
	CodeInvalidRequest   = "INVALID_REQUEST"
	CodeValidationFailed = "VALIDATION_FAILED"
	CodeUnsupported      = "UNSUPPORTED"
	CodeNoCandidate      = "NO_CANDIDATE"
	CodeDiverged         = "DIVERGED"
	CodeNotFound         = "NOT_FOUND"
	CodeConflict         = "CONFLICT"
	CodeCapacity         = "CAPACITY"
	CodeRateLimited      = "RATE_LIMITED"
	CodeInternal         = "INTERNAL_ERROR"
)

// InvalidRequest reports a body that could not be decoded.
func InvalidRequest(err error) *APIError {
	return New(http.StatusBadRequest, CodeInvalidRequest, fmt.Sprintf("invalid request: %v", err))
}

// NotFound reports a missing resource.
func NotFound(resource string) *APIError {
	return New(http.StatusNotFound, CodeNotFound, resource+" not found")
}

// Internal reports an unexpected failure without leaking its details.
func Internal() *APIError {
	return New(http.StatusInternalServerError, CodeInternal, http.StatusText(http.StatusInternalServerError))
}

// FromSolver maps a solver error to its API representation.
func FromSolver(err error) *APIError {
	var apiErr *APIError
	if stderrors.As(err, &apiErr) {
		return apiErr
	}

	var verrs validator.ValidationErrors
	switch {
	case stderrors.As(err, &verrs):
		return NewWithDetails(http.StatusBadRequest, CodeValidationFailed,
			"request validation failed", ValidationErrors{Errors: validationDetails(verrs)})
	case stderrors.Is(err, optimization.ErrInvalidParams):
		return New(http.StatusBadRequest, CodeValidationFailed, err.Error())
	case stderrors.Is(err, optimization.ErrUnsupported):
		return New(http.StatusBadRequest, CodeUnsupported, err.Error())
	case stderrors.Is(err, optimization.ErrNoCandidate):
		return New(http.StatusUnprocessableEntity, CodeNoCandidate, err.Error())
	case stderrors.Is(err, optimization.ErrDiverged):
		return New(http.StatusUnprocessableEntity, CodeDiverged, err.Error())
	default:
		return Internal()
	}
}

// ValidationErrors is the detail payload of a failed validation.
type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func validationDetails(verrs validator.ValidationErrors) []ValidationError {
	out := make([]ValidationError, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, ValidationError{
			Field:   fe.Namespace(),
			Message: formatFieldError(fe),
		})
	}
	return out
}

func formatFieldError(fe validator.FieldError) string {
	field, param := fe.Field(), fe.Param()

	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(param, " ", ", "))
	case "gte":
		return fmt.Sprintf("%s must be greater than or equal to %s", field, param)
	case "lte":
		return fmt.Sprintf("%s must be less than or equal to %s", field, param)
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, param)
	case "lt":
		return fmt.Sprintf("%s must be less than %s", field, param)
	default:
		return fmt.Sprintf("%s failed %s validation", field, fe.Tag())
	}
}
