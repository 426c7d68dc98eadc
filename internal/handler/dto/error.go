package dto

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/teachtrack/teachtrack/internal/domain"
)

// ErrorResponse is the standard error response format.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error code and message.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// NewErrorResponse creates a new error response.
func NewErrorResponse(code, message string) ErrorResponse {
	return ErrorResponse{
		Error: ErrorDetail{
			Code:    code,
			Message: message,
		},
	}
}

// MapDomainError maps domain errors to HTTP status codes and error codes.
func MapDomainError(err error) (status int, code string, message string) {
	message = err.Error()

	switch {
	// Not found
	case errors.Is(err, domain.ErrTaskNotFound):
		return http.StatusNotFound, "TASK_NOT_FOUND", message
	case errors.Is(err, domain.ErrUserNotFound):
		return http.StatusNotFound, "USER_NOT_FOUND", message

	// Lost races and state machine rejections
	case errors.Is(err, domain.ErrTaskAlreadyClaimed):
		return http.StatusConflict, "TASK_ALREADY_CLAIMED", message
	case errors.Is(err, domain.ErrConcurrentUpdate):
		return http.StatusConflict, "CONCURRENT_UPDATE", message
	case errors.Is(err, domain.ErrTimerConflict):
		return http.StatusConflict, "TIMER_ALREADY_RUNNING", message
	case errors.Is(err, domain.ErrInvalidTransition):
		return http.StatusConflict, "INVALID_TRANSITION", message

	// Permission errors
	case errors.Is(err, domain.ErrPermissionDenied):
		return http.StatusForbidden, "INSUFFICIENT_ACCESS", message
	case errors.Is(err, domain.ErrInvalidToken):
		return http.StatusUnauthorized, "INVALID_TOKEN", message

	// Timer preconditions
	case errors.Is(err, domain.ErrNoActiveTimer):
		return http.StatusBadRequest, "NO_ACTIVE_TIMER", message
	case errors.Is(err, domain.ErrTaskNotTimeable):
		return http.StatusUnprocessableEntity, "TASK_NOT_TIMEABLE", message

	// Validation errors
	case errors.Is(err, domain.ErrEmptyTitle):
		return http.StatusUnprocessableEntity, "VALIDATION_ERROR", message
	case errors.Is(err, domain.ErrInvalidStatus):
		return http.StatusUnprocessableEntity, "VALIDATION_ERROR", message
	case errors.Is(err, domain.ErrInvalidApproval):
		return http.StatusUnprocessableEntity, "VALIDATION_ERROR", message
	case errors.Is(err, domain.ErrInvalidAssignee):
		return http.StatusUnprocessableEntity, "INVALID_ASSIGNEE", message
	case errors.Is(err, domain.ErrNoFieldsToUpdate):
		return http.StatusBadRequest, "NO_FIELDS_TO_UPDATE", message

	// Default: internal server error. Store-level failures land here and
	// must stay opaque to the caller.
	default:
		slog.Error("unmapped domain error returned to client",
			"error", err,
			"error_type", fmt.Sprintf("%T", err),
		)
		return http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error"
	}
}
