package repository

import (
	"context"
	"fmt"
	"time"
)

// StatsFilters holds filters for workload statistics queries.
type StatsFilters struct {
	PeriodStart time.Time
	PeriodEnd   time.Time
	TeacherID   *string // Optional: filter by specific teacher
}

// TeacherStatsResult holds workload statistics for a single teacher.
type TeacherStatsResult struct {
	TeacherID      string
	TeacherName    string
	MinutesLogged  int
	TasksAssigned  int
	TasksCompleted int
	TasksApproved  int
	TimerRunning   bool
}

// GetTeacherStats aggregates logged minutes and task outcomes per teacher.
// Logged minutes are summed over closed logs whose start falls in the period;
// task counts reflect current state, not the period.
func (r *TaskRepository) GetTeacherStats(ctx context.Context, filters StatsFilters) ([]TeacherStatsResult, error) {
	query := `
		SELECT
			u.id,
			u.name,
			COALESCE((
				SELECT SUM(tl.duration_minutes) FROM time_logs tl
				WHERE tl.teacher_id = u.id
				  AND tl.end_time IS NOT NULL
				  AND tl.start_time >= $1 AND tl.start_time <= $2
			), 0) AS minutes_logged,
			(SELECT COUNT(*) FROM tasks t WHERE t.assigned_to = u.id) AS tasks_assigned,
			(SELECT COUNT(*) FROM tasks t WHERE t.assigned_to = u.id AND t.status = 'completed') AS tasks_completed,
			(SELECT COUNT(*) FROM tasks t WHERE t.assigned_to = u.id AND t.admin_approval = 'approved') AS tasks_approved,
			EXISTS(SELECT 1 FROM time_logs tl WHERE tl.teacher_id = u.id AND tl.end_time IS NULL) AS timer_running
		FROM users u
		WHERE u.role = 'teacher'
	`

	args := []any{filters.PeriodStart, filters.PeriodEnd}
	if filters.TeacherID != nil {
		query += " AND u.id = $3"
		args = append(args, *filters.TeacherID)
	}
	query += " ORDER BY u.name"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query teacher stats: %w", err)
	}
	defer rows.Close()

	var results []TeacherStatsResult
	for rows.Next() {
		var res TeacherStatsResult
		err := rows.Scan(
			&res.TeacherID,
			&res.TeacherName,
			&res.MinutesLogged,
			&res.TasksAssigned,
			&res.TasksCompleted,
			&res.TasksApproved,
			&res.TimerRunning,
		)
		if err != nil {
			return nil, fmt.Errorf("scan teacher stats: %w", err)
		}
		results = append(results, res)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return results, nil
}
