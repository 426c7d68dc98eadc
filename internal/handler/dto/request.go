package dto

import "encoding/json"

// CreateTaskRequest represents the request body for POST /tasks.
type CreateTaskRequest struct {
	Title       string  `json:"title"`
	Description string  `json:"description,omitempty"`
	AssignedTo  *string `json:"assigned_to,omitempty"`
}

// UpdateTaskStatusRequest represents the request body for PATCH /tasks/:id/status.
type UpdateTaskStatusRequest struct {
	Status string `json:"status"`
}

// UpdateTaskRequest represents the request body for PATCH /tasks/:id.
// AssignedTo is raw JSON so that an explicit null (clear the assignment)
// can be told apart from an absent field.
type UpdateTaskRequest struct {
	Title       *string         `json:"title"`
	Description *string         `json:"description"`
	Status      *string         `json:"status"`
	AssignedTo  json.RawMessage `json:"assigned_to"`
}

// ApproveTaskRequest represents the request body for POST /tasks/:id/approve.
type ApproveTaskRequest struct {
	Decision string `json:"decision"`
}

// StartTimerRequest represents the request body for POST /timelogs/start.
// TaskID is optional; without it the timer is free-floating.
type StartTimerRequest struct {
	TaskID *string `json:"task_id,omitempty"`
}
