package domain

import "time"

// TaskStatus represents the status of a task in the state machine.
type TaskStatus string

const (
	TaskStatusPending   TaskStatus = "pending"
	TaskStatusAccepted  TaskStatus = "accepted"
	TaskStatusCompleted TaskStatus = "completed"
)

// IsValid checks if the status is one of the allowed values.
func (s TaskStatus) IsValid() bool {
	switch s {
	case TaskStatusPending, TaskStatusAccepted, TaskStatusCompleted:
		return true
	default:
		return false
	}
}

// ApprovalDecision is the admin's verdict on a completed task.
type ApprovalDecision string

const (
	ApprovalApproved ApprovalDecision = "approved"
	ApprovalRejected ApprovalDecision = "rejected"
)

// IsValid checks if the decision is one of the allowed values.
func (d ApprovalDecision) IsValid() bool {
	return d == ApprovalApproved || d == ApprovalRejected
}

// Task is a unit of work created by an admin and claimed by a teacher.
// AdminApproval is nil until an admin rules on a completed task; once set
// it is terminal.
type Task struct {
	ID            string
	Title         string
	Description   string
	Status        TaskStatus
	AdminApproval *ApprovalDecision
	AssignedTo    *string
	CreatedBy     string
	CreatedAt     time.Time
}

// IsAssignedTo checks if the task is assigned to the given user.
func (t *Task) IsAssignedTo(userID string) bool {
	return t.AssignedTo != nil && *t.AssignedTo == userID
}

// IsVisibleTo reports whether a teacher may see the task: their own
// assignments plus the unclaimed pool. Admins see everything and never
// reach this check.
func (t *Task) IsVisibleTo(teacherID string) bool {
	return t.AssignedTo == nil || *t.AssignedTo == teacherID
}
