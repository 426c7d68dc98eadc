package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/teachtrack/teachtrack/internal/domain"
)

// timeLogColumns is the shared list of columns for time log queries.
var timeLogColumns = []string{
	"id", "teacher_id", "task_id", "start_time", "end_time",
	"duration_minutes", "created_at",
}

// TimeLogRepository handles database operations for time logs.
type TimeLogRepository struct {
	pool *pgxpool.Pool
}

// NewTimeLogRepository creates a new TimeLogRepository.
func NewTimeLogRepository(pool *pgxpool.Pool) *TimeLogRepository {
	return &TimeLogRepository{pool: pool}
}

// scanTimeLog scans a single row into a TimeLog struct.
func scanTimeLog(row pgx.Row) (*domain.TimeLog, error) {
	var log domain.TimeLog
	err := row.Scan(
		&log.ID,
		&log.TeacherID,
		&log.TaskID,
		&log.StartTime,
		&log.EndTime,
		&log.DurationMinutes,
		&log.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNoActiveTimer
		}
		return nil, fmt.Errorf("scan time log: %w", err)
	}
	return &log, nil
}

// Create opens a new time log. The partial unique indexes on time_logs make
// a second active log for the same teacher or task a unique violation, which
// surfaces as ErrTimerConflict. That is the losing side of a start race.
func (r *TimeLogRepository) Create(ctx context.Context, db Querier, log *domain.TimeLog) (*domain.TimeLog, error) {
	query, args, err := psql.
		Insert("time_logs").
		Columns("teacher_id", "task_id", "start_time").
		Values(log.TeacherID, log.TaskID, log.StartTime).
		Suffix("RETURNING id, created_at").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build Create query for time log: %w", err)
	}

	err = db.QueryRow(ctx, query, args...).Scan(&log.ID, &log.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, domain.ErrTimerConflict
		}
		return nil, fmt.Errorf("create time log: %w", err)
	}

	return log, nil
}

// GetActiveByTeacher retrieves the teacher's open time log.
// Returns ErrNoActiveTimer if none exists.
func (r *TimeLogRepository) GetActiveByTeacher(ctx context.Context, db Querier, teacherID string) (*domain.TimeLog, error) {
	query, args, err := psql.
		Select(timeLogColumns...).
		From("time_logs").
		Where(sq.Eq{"teacher_id": teacherID, "end_time": nil}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build GetActiveByTeacher query: %w", err)
	}

	return scanTimeLog(db.QueryRow(ctx, query, args...))
}

// GetActiveByTask retrieves the task's open time log.
// Returns ErrNoActiveTimer if none exists.
func (r *TimeLogRepository) GetActiveByTask(ctx context.Context, db Querier, taskID string) (*domain.TimeLog, error) {
	query, args, err := psql.
		Select(timeLogColumns...).
		From("time_logs").
		Where(sq.Eq{"task_id": taskID, "end_time": nil}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build GetActiveByTask query: %w", err)
	}

	return scanTimeLog(db.QueryRow(ctx, query, args...))
}

// CloseActiveByTeacher closes the teacher's open time log in a single
// conditional write: end_time and duration_minutes are set together, and the
// update only matches while end_time is still NULL, so concurrent stops
// cannot close the same log twice. Duration is the floor of elapsed whole
// minutes, computed from the stored start_time.
// Returns ErrNoActiveTimer if no open log matched.
func (r *TimeLogRepository) CloseActiveByTeacher(ctx context.Context, db Querier, teacherID string, endTime time.Time) (*domain.TimeLog, error) {
	return r.closeActive(ctx, db, sq.Eq{"teacher_id": teacherID, "end_time": nil}, endTime)
}

// CloseActiveByTask closes the task's open time log, if any, exactly as
// CloseActiveByTeacher does. Returns ErrNoActiveTimer if no open log matched.
func (r *TimeLogRepository) CloseActiveByTask(ctx context.Context, db Querier, taskID string, endTime time.Time) (*domain.TimeLog, error) {
	return r.closeActive(ctx, db, sq.Eq{"task_id": taskID, "end_time": nil}, endTime)
}

func (r *TimeLogRepository) closeActive(ctx context.Context, db Querier, match sq.Eq, endTime time.Time) (*domain.TimeLog, error) {
	query, args, err := psql.
		Update("time_logs").
		Set("end_time", endTime).
		Set("duration_minutes", sq.Expr(
			"GREATEST(FLOOR(EXTRACT(EPOCH FROM (?::timestamptz - start_time)) / 60), 0)::int", endTime,
		)).
		Where(match).
		Suffix("RETURNING " + joinColumns(timeLogColumns)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build closeActive query: %w", err)
	}

	return scanTimeLog(db.QueryRow(ctx, query, args...))
}

// TimeLogListFilters holds the supported filters for time log listing.
type TimeLogListFilters struct {
	TeacherID *string
	From      *time.Time
	To        *time.Time
}

// List retrieves time logs ordered by start time, most recent first.
func (r *TimeLogRepository) List(ctx context.Context, filters TimeLogListFilters) ([]*domain.TimeLog, error) {
	qb := psql.Select(timeLogColumns...).From("time_logs")

	if filters.TeacherID != nil {
		qb = qb.Where(sq.Eq{"teacher_id": *filters.TeacherID})
	}
	if filters.From != nil {
		qb = qb.Where(sq.GtOrEq{"start_time": *filters.From})
	}
	if filters.To != nil {
		qb = qb.Where(sq.LtOrEq{"start_time": *filters.To})
	}

	qb = qb.OrderBy("start_time DESC")

	query, args, err := qb.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build List query: %w", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query time logs: %w", err)
	}
	defer rows.Close()

	var logs []*domain.TimeLog
	for rows.Next() {
		log, err := scanTimeLog(rows)
		if err != nil {
			return nil, err
		}
		logs = append(logs, log)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return logs, nil
}
