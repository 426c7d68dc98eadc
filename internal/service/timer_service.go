package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/teachtrack/teachtrack/internal/domain"
	"github.com/teachtrack/teachtrack/internal/repository"
)

// TimerService coordinates the time log state machine. At most one open log
// may exist per teacher and per task at any instant; both invariants are
// enforced by partial unique indexes, so a lost start race surfaces as
// ErrTimerConflict rather than a duplicate timer.
type TimerService struct {
	pool        *pgxpool.Pool
	timeLogRepo *repository.TimeLogRepository
	taskRepo    *repository.TaskRepository
	validator   *Validator
}

// NewTimerService creates a new TimerService.
func NewTimerService(
	pool *pgxpool.Pool,
	timeLogRepo *repository.TimeLogRepository,
	taskRepo *repository.TaskRepository,
) *TimerService {
	return &TimerService{
		pool:        pool,
		timeLogRepo: timeLogRepo,
		taskRepo:    taskRepo,
		validator:   NewValidator(),
	}
}

// Start opens a timer for the teacher. When taskID is given the task must be
// accepted and assigned to the caller; without it the timer is free-floating.
// Returns ErrTimerConflict if the teacher already has a timer running,
// including when two start requests race each other.
func (s *TimerService) Start(ctx context.Context, teacher *domain.User, taskID *string) (*domain.TimeLog, error) {
	log := &domain.TimeLog{
		TeacherID: teacher.ID,
		TaskID:    taskID,
		StartTime: time.Now().UTC(),
	}

	if taskID == nil {
		if _, err := s.timeLogRepo.Create(ctx, s.pool, log); err != nil {
			return nil, err
		}
	} else {
		// The task precondition is checked under a row lock in the same
		// transaction as the insert, so the task cannot be completed or
		// reassigned between the check and the write.
		if err := s.startForTask(ctx, teacher, *taskID, log); err != nil {
			return nil, err
		}
	}

	slog.Info("timer started",
		"time_log_id", log.ID,
		"teacher_id", teacher.ID,
	)

	return log, nil
}

func (s *TimerService) startForTask(ctx context.Context, teacher *domain.User, taskID string, log *domain.TimeLog) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer rollback(ctx, tx)

	task, err := s.taskRepo.GetByIDForUpdate(ctx, tx, taskID)
	if err != nil {
		return err
	}
	if err := s.validator.CanTimeTask(task, teacher.ID); err != nil {
		return err
	}

	if _, err := s.timeLogRepo.Create(ctx, tx, log); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

// StartForClaim opens a timer as a side effect of a claim, inside the claim's
// transaction. It never reports ErrTimerConflict to the claim caller:
//   - an open log on the claimed task means a re-claim already started one,
//     so the call is a no-op (at most one timer per task);
//   - an open log the teacher holds on something else is left running and the
//     implicit start is skipped with a warning; stopping it behind the
//     teacher's back would discard a timer they may still want.
func (s *TimerService) StartForClaim(ctx context.Context, tx pgx.Tx, teacherID, taskID string, start time.Time) error {
	_, err := s.timeLogRepo.GetActiveByTask(ctx, tx, taskID)
	if err == nil {
		return nil
	}
	if !errors.Is(err, domain.ErrNoActiveTimer) {
		return fmt.Errorf("check task timer: %w", err)
	}

	existing, err := s.timeLogRepo.GetActiveByTeacher(ctx, tx, teacherID)
	if err == nil {
		slog.Warn("claim did not start a timer, teacher has one running",
			"teacher_id", teacherID,
			"task_id", taskID,
			"time_log_id", existing.ID,
		)
		return nil
	}
	if !errors.Is(err, domain.ErrNoActiveTimer) {
		return fmt.Errorf("check teacher timer: %w", err)
	}

	log := &domain.TimeLog{
		TeacherID: teacherID,
		TaskID:    &taskID,
		StartTime: start,
	}

	// The insert runs under a savepoint: a unique violation would otherwise
	// abort the whole claim transaction, and the claim must still commit
	// when a concurrent explicit start wins the insert race.
	sp, err := tx.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin savepoint: %w", err)
	}

	if _, err := s.timeLogRepo.Create(ctx, sp, log); err != nil {
		if rbErr := sp.Rollback(ctx); rbErr != nil {
			return fmt.Errorf("rollback savepoint: %w", rbErr)
		}
		if errors.Is(err, domain.ErrTimerConflict) {
			slog.Warn("claim did not start a timer, lost the insert race",
				"teacher_id", teacherID,
				"task_id", taskID,
			)
			return nil
		}
		return err
	}

	if err := sp.Commit(ctx); err != nil {
		return fmt.Errorf("release savepoint: %w", err)
	}

	return nil
}

// Stop closes the teacher's running timer, setting end time and floor-minute
// duration in one conditional write. Returns ErrNoActiveTimer if nothing is
// running.
func (s *TimerService) Stop(ctx context.Context, teacher *domain.User) (*domain.TimeLog, error) {
	log, err := s.timeLogRepo.CloseActiveByTeacher(ctx, s.pool, teacher.ID, time.Now().UTC())
	if err != nil {
		return nil, err
	}

	slog.Info("timer stopped",
		"time_log_id", log.ID,
		"teacher_id", teacher.ID,
		"duration_minutes", *log.DurationMinutes,
	)

	return log, nil
}

// StopForTaskCompletion closes the task's running timer, if any, inside the
// completing transaction. Completion without an active timer is a valid path
// (the teacher may have stopped manually), so a missing timer is a no-op.
func (s *TimerService) StopForTaskCompletion(ctx context.Context, tx pgx.Tx, taskID string, end time.Time) error {
	log, err := s.timeLogRepo.CloseActiveByTask(ctx, tx, taskID, end)
	if err != nil {
		if errors.Is(err, domain.ErrNoActiveTimer) {
			return nil
		}
		return fmt.Errorf("stop timer for task %s: %w", taskID, err)
	}

	slog.Info("timer stopped by task completion",
		"time_log_id", log.ID,
		"task_id", taskID,
		"duration_minutes", *log.DurationMinutes,
	)

	return nil
}

// GetActive returns the teacher's running timer, or nil if none exists.
func (s *TimerService) GetActive(ctx context.Context, teacher *domain.User) (*domain.TimeLog, error) {
	log, err := s.timeLogRepo.GetActiveByTeacher(ctx, s.pool, teacher.ID)
	if err != nil {
		if errors.Is(err, domain.ErrNoActiveTimer) {
			return nil, nil
		}
		return nil, err
	}
	return log, nil
}

// ListParams holds the caller-facing filters for listing time logs.
type ListParams struct {
	TeacherID *string
	From      *time.Time
	To        *time.Time
}

// List returns time log history, most recent first. Teachers are always
// scoped to their own logs; admins may filter by teacher or see everything.
func (s *TimerService) List(ctx context.Context, actor *domain.User, params ListParams) ([]*domain.TimeLog, error) {
	filters := repository.TimeLogListFilters{
		TeacherID: params.TeacherID,
		From:      params.From,
		To:        params.To,
	}

	if !actor.IsAdmin() {
		if params.TeacherID != nil && *params.TeacherID != actor.ID {
			return nil, fmt.Errorf("%w: teachers can only list their own time logs", domain.ErrPermissionDenied)
		}
		filters.TeacherID = &actor.ID
	}

	return s.timeLogRepo.List(ctx, filters)
}
