package domain

import "time"

// TimeLog is one stretch of recorded working time. An open log
// (EndTime == nil) is an active timer. TaskID is nil for free-floating
// timers not tied to a task. Closed logs are immutable history.
type TimeLog struct {
	ID              string
	TeacherID       string
	TaskID          *string
	StartTime       time.Time
	EndTime         *time.Time
	DurationMinutes *int
	CreatedAt       time.Time
}
