package service

import (
	"fmt"

	"github.com/teachtrack/teachtrack/internal/domain"
)

// Validator handles permission and state validation for task operations.
type Validator struct{}

// NewValidator creates a new Validator.
func NewValidator() *Validator {
	return &Validator{}
}

// CanClaim validates that a teacher can claim a task. Claims are only valid
// on pending tasks that are unassigned or already assigned to the claimer.
// The assignment check runs first: the loser of a claim race sees the task
// already held by the winner and gets ErrTaskAlreadyClaimed, while a teacher
// re-claiming their own accepted task gets ErrInvalidTransition.
func (v *Validator) CanClaim(task *domain.Task, teacher *domain.User) error {
	if !teacher.IsTeacher() {
		return fmt.Errorf("%w: only teachers can claim tasks", domain.ErrPermissionDenied)
	}

	if task.AssignedTo != nil && *task.AssignedTo != teacher.ID {
		return fmt.Errorf("%w: task %s already assigned to %s", domain.ErrTaskAlreadyClaimed, task.ID, *task.AssignedTo)
	}

	if task.Status != domain.TaskStatusPending {
		return fmt.Errorf("%w: task %s is in %s status, expected pending", domain.ErrInvalidTransition, task.ID, task.Status)
	}

	return nil
}

// CanTransitionStatus validates a status change request. Admins may set any
// status; teachers may only complete their own accepted task.
func (v *Validator) CanTransitionStatus(
	task *domain.Task,
	actor *domain.User,
	newStatus domain.TaskStatus,
) error {
	if !newStatus.IsValid() {
		return fmt.Errorf("%w: %q", domain.ErrInvalidStatus, newStatus)
	}

	if actor.IsAdmin() {
		return nil
	}

	if !task.IsAssignedTo(actor.ID) {
		return fmt.Errorf("%w: task %s is not assigned to you", domain.ErrPermissionDenied, task.ID)
	}

	if newStatus != domain.TaskStatusCompleted {
		return fmt.Errorf("%w: teachers can only mark tasks completed", domain.ErrPermissionDenied)
	}

	if task.Status != domain.TaskStatusAccepted {
		return fmt.Errorf("%w: task %s is in %s status, expected accepted", domain.ErrInvalidTransition, task.ID, task.Status)
	}

	return nil
}

// CanApprove validates an admin decision on a task. Approval is only defined
// for completed tasks, and a recorded decision is terminal: re-applying the
// same decision is idempotent, reversing it is rejected.
func (v *Validator) CanApprove(task *domain.Task, decision domain.ApprovalDecision) error {
	if !decision.IsValid() {
		return fmt.Errorf("%w: %q", domain.ErrInvalidApproval, decision)
	}

	if task.Status != domain.TaskStatusCompleted {
		return fmt.Errorf("%w: task %s is in %s status, only completed tasks can be approved or rejected", domain.ErrInvalidTransition, task.ID, task.Status)
	}

	if task.AdminApproval != nil && *task.AdminApproval != decision {
		return fmt.Errorf("%w: task %s is already %s", domain.ErrInvalidTransition, task.ID, *task.AdminApproval)
	}

	return nil
}

// CanTimeTask validates that a teacher may start a timer against a task:
// the task must be accepted and assigned to that teacher.
func (v *Validator) CanTimeTask(task *domain.Task, teacherID string) error {
	if task.Status != domain.TaskStatusAccepted || !task.IsAssignedTo(teacherID) {
		return fmt.Errorf("%w: task %s", domain.ErrTaskNotTimeable, task.ID)
	}
	return nil
}
