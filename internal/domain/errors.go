package domain

import "errors"

// Domain-specific errors for business logic validation.
var (
	// Task errors
	ErrTaskNotFound       = errors.New("task not found")
	ErrTaskAlreadyClaimed = errors.New("task already claimed")
	ErrInvalidTransition  = errors.New("invalid status transition")
	ErrConcurrentUpdate   = errors.New("task modified by another request")
	ErrInvalidAssignee    = errors.New("tasks can only be assigned to teachers")

	// Permission errors
	ErrPermissionDenied = errors.New("permission denied")
	ErrInvalidToken     = errors.New("invalid authentication token")

	// User errors
	ErrUserNotFound = errors.New("user not found")

	// Timer errors
	ErrTimerConflict   = errors.New("an active timer already exists")
	ErrNoActiveTimer   = errors.New("no active timer found")
	ErrTaskNotTimeable = errors.New("only accepted tasks assigned to you can be timed")

	// Validation errors
	ErrEmptyTitle       = errors.New("task title is required")
	ErrInvalidStatus    = errors.New("invalid task status")
	ErrInvalidApproval  = errors.New("invalid approval decision")
	ErrNoFieldsToUpdate = errors.New("no fields to update")
)
