package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/teachtrack/teachtrack/internal/domain"
	"github.com/teachtrack/teachtrack/internal/repository"
)

// TaskService coordinates task operations and state transitions. Every
// mutation runs as a locked read plus a conditional write inside one
// transaction, so concurrent callers either commit a consistent transition
// or observe a conflict, never a half-applied one. Timer side effects
// (start on claim, stop on completion) commit atomically with the task row.
type TaskService struct {
	pool      *pgxpool.Pool
	taskRepo  *repository.TaskRepository
	userRepo  *repository.UserRepository
	timers    *TimerService
	validator *Validator
}

// NewTaskService creates a new TaskService.
func NewTaskService(
	pool *pgxpool.Pool,
	taskRepo *repository.TaskRepository,
	userRepo *repository.UserRepository,
	timers *TimerService,
) *TaskService {
	return &TaskService{
		pool:      pool,
		taskRepo:  taskRepo,
		userRepo:  userRepo,
		timers:    timers,
		validator: NewValidator(),
	}
}

// rollback releases the transaction; safe to defer after commit.
func rollback(ctx context.Context, tx pgx.Tx) {
	if err := tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		slog.Error("failed to rollback transaction", "error", err)
	}
}

// requireTeacher resolves an identity and verifies it holds the teacher role.
func (s *TaskService) requireTeacher(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrInvalidAssignee
		}
		return nil, err
	}
	if !user.IsTeacher() {
		return nil, fmt.Errorf("%w: %s has role %s", domain.ErrInvalidAssignee, user.ID, user.Role)
	}
	return user, nil
}

// CreateTaskParams holds the inputs for task creation.
type CreateTaskParams struct {
	Title       string
	Description string
	AssignedTo  *string
}

// CreateTask creates a pending task. Admin only. An optional assignee must
// resolve to a teacher.
func (s *TaskService) CreateTask(ctx context.Context, actor *domain.User, params CreateTaskParams) (*domain.Task, error) {
	if !actor.IsAdmin() {
		return nil, fmt.Errorf("%w: only admins can create tasks", domain.ErrPermissionDenied)
	}

	title := strings.TrimSpace(params.Title)
	if title == "" {
		return nil, domain.ErrEmptyTitle
	}

	if params.AssignedTo != nil {
		if _, err := s.requireTeacher(ctx, *params.AssignedTo); err != nil {
			return nil, err
		}
	}

	task := &domain.Task{
		Title:       title,
		Description: params.Description,
		AssignedTo:  params.AssignedTo,
		CreatedBy:   actor.ID,
	}

	created, err := s.taskRepo.Create(ctx, task)
	if err != nil {
		return nil, err
	}

	slog.Info("task created",
		"task_id", created.ID,
		"created_by", actor.ID,
	)

	return created, nil
}

// ClaimTask implements the claim operation: a teacher takes ownership of a
// pending task that is unassigned or pre-assigned to them, moving it to
// accepted and starting a timer for the pair. If two teachers race for the
// same task, the conditional update lets exactly one through; the other
// observes ErrTaskAlreadyClaimed.
func (s *TaskService) ClaimTask(ctx context.Context, taskID string, teacher *domain.User) (*domain.Task, error) {
	if !teacher.IsTeacher() {
		return nil, fmt.Errorf("%w: only teachers can claim tasks", domain.ErrPermissionDenied)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer rollback(ctx, tx)

	task, err := s.taskRepo.GetByIDForUpdate(ctx, tx, taskID)
	if err != nil {
		return nil, err
	}

	if err := s.validator.CanClaim(task, teacher); err != nil {
		return nil, err
	}

	if err := s.taskRepo.Claim(ctx, tx, taskID, teacher.ID); err != nil {
		return nil, err
	}

	if err := s.timers.StartForClaim(ctx, tx, teacher.ID, taskID, time.Now().UTC()); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}

	task.Status = domain.TaskStatusAccepted
	task.AssignedTo = &teacher.ID

	slog.Info("task claimed",
		"task_id", taskID,
		"teacher_id", teacher.ID,
	)

	return task, nil
}

// UpdateTaskStatus changes the task status. Teachers may only move their own
// accepted task to completed; admins may set any status. Any transition into
// completed stops the task's running timer in the same transaction.
func (s *TaskService) UpdateTaskStatus(
	ctx context.Context,
	taskID string,
	actor *domain.User,
	newStatus domain.TaskStatus,
) (*domain.Task, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer rollback(ctx, tx)

	task, err := s.taskRepo.GetByIDForUpdate(ctx, tx, taskID)
	if err != nil {
		return nil, err
	}

	oldStatus := task.Status

	if err := s.validator.CanTransitionStatus(task, actor, newStatus); err != nil {
		return nil, err
	}

	if err := s.taskRepo.UpdateStatus(ctx, tx, taskID, oldStatus, newStatus); err != nil {
		return nil, err
	}

	if newStatus == domain.TaskStatusCompleted && oldStatus != domain.TaskStatusCompleted {
		if err := s.timers.StopForTaskCompletion(ctx, tx, taskID, time.Now().UTC()); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}

	task.Status = newStatus

	slog.Info("task status changed",
		"task_id", taskID,
		"actor_id", actor.ID,
		"old_status", oldStatus,
		"new_status", newStatus,
	)

	return task, nil
}

// UpdateTaskParams holds the partial-update inputs for UpdateTaskFields.
// Nil pointers leave a field unchanged; ClearAssignee returns the task to
// the unclaimed pool.
type UpdateTaskParams struct {
	Title         *string
	Description   *string
	Status        *domain.TaskStatus
	AssignedTo    *string
	ClearAssignee bool
}

// UpdateTaskFields applies an admin's partial update to any subset of task
// fields, bypassing the claim workflow. This is the administrative escape
// hatch: a direct move into completed still stops the task's timer.
func (s *TaskService) UpdateTaskFields(
	ctx context.Context,
	taskID string,
	actor *domain.User,
	params UpdateTaskParams,
) (*domain.Task, error) {
	if !actor.IsAdmin() {
		return nil, fmt.Errorf("%w: only admins can edit tasks", domain.ErrPermissionDenied)
	}

	patch := repository.TaskPatch{
		Description:   params.Description,
		AssignedTo:    params.AssignedTo,
		ClearAssignee: params.ClearAssignee,
	}

	if params.Title != nil {
		title := strings.TrimSpace(*params.Title)
		if title == "" {
			return nil, domain.ErrEmptyTitle
		}
		patch.Title = &title
	}

	if params.Status != nil {
		if !params.Status.IsValid() {
			return nil, fmt.Errorf("%w: %q", domain.ErrInvalidStatus, *params.Status)
		}
		patch.Status = params.Status
	}

	if patch.IsEmpty() {
		return nil, domain.ErrNoFieldsToUpdate
	}

	if params.AssignedTo != nil {
		if _, err := s.requireTeacher(ctx, *params.AssignedTo); err != nil {
			return nil, err
		}
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer rollback(ctx, tx)

	task, err := s.taskRepo.GetByIDForUpdate(ctx, tx, taskID)
	if err != nil {
		return nil, err
	}

	oldStatus := task.Status

	if err := s.taskRepo.UpdateFields(ctx, tx, taskID, oldStatus, patch); err != nil {
		return nil, err
	}

	if patch.Status != nil && *patch.Status == domain.TaskStatusCompleted && oldStatus != domain.TaskStatusCompleted {
		if err := s.timers.StopForTaskCompletion(ctx, tx, taskID, time.Now().UTC()); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}

	slog.Info("task updated",
		"task_id", taskID,
		"actor_id", actor.ID,
	)

	return s.taskRepo.GetByID(ctx, taskID)
}

// ApproveTask records the admin decision on a completed task. A recorded
// decision is terminal: repeating it succeeds without effect, reversing it
// fails with ErrInvalidTransition.
func (s *TaskService) ApproveTask(
	ctx context.Context,
	taskID string,
	actor *domain.User,
	decision domain.ApprovalDecision,
) (*domain.Task, error) {
	if !actor.IsAdmin() {
		return nil, fmt.Errorf("%w: only admins can approve tasks", domain.ErrPermissionDenied)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer rollback(ctx, tx)

	task, err := s.taskRepo.GetByIDForUpdate(ctx, tx, taskID)
	if err != nil {
		return nil, err
	}

	if err := s.validator.CanApprove(task, decision); err != nil {
		return nil, err
	}

	// Idempotent re-application of the recorded decision.
	if task.AdminApproval != nil {
		return task, nil
	}

	if err := s.taskRepo.SetApproval(ctx, tx, taskID, decision); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}

	task.AdminApproval = &decision

	slog.Info("task decision recorded",
		"task_id", taskID,
		"admin_id", actor.ID,
		"decision", decision,
	)

	return task, nil
}

// DeleteTask removes a task unconditionally. Admin only. Time logs recorded
// against the task survive as history.
func (s *TaskService) DeleteTask(ctx context.Context, taskID string, actor *domain.User) error {
	if !actor.IsAdmin() {
		return fmt.Errorf("%w: only admins can delete tasks", domain.ErrPermissionDenied)
	}

	if err := s.taskRepo.Delete(ctx, taskID); err != nil {
		return err
	}

	slog.Info("task deleted",
		"task_id", taskID,
		"admin_id", actor.ID,
	)

	return nil
}

// GetTask retrieves a single task. Teachers may only see their own
// assignments and the unclaimed pool.
func (s *TaskService) GetTask(ctx context.Context, taskID string, actor *domain.User) (*domain.Task, error) {
	task, err := s.taskRepo.GetByID(ctx, taskID)
	if err != nil {
		return nil, err
	}

	if !actor.IsAdmin() && !task.IsVisibleTo(actor.ID) {
		return nil, fmt.Errorf("%w: task %s is assigned to another teacher", domain.ErrPermissionDenied, taskID)
	}

	return task, nil
}

// ListTasks returns tasks most recent first. Admins see everything; teachers
// see their own assignments plus the unclaimed pool.
func (s *TaskService) ListTasks(ctx context.Context, actor *domain.User) ([]*domain.Task, error) {
	filters := repository.TaskListFilters{}
	if !actor.IsAdmin() {
		filters.VisibleToTeacher = &actor.ID
	}

	return s.taskRepo.List(ctx, filters)
}
