package dto

import (
	"time"

	"github.com/teachtrack/teachtrack/internal/domain"
)

// TaskResponse represents a task in API responses.
type TaskResponse struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	Status        string    `json:"status"`
	AdminApproval *string   `json:"admin_approval"`
	AssignedTo    *string   `json:"assigned_to"`
	CreatedBy     string    `json:"created_by"`
	CreatedAt     time.Time `json:"created_at"`
}

// TasksListResponse represents the response for GET /tasks.
type TasksListResponse struct {
	Tasks []TaskResponse `json:"tasks"`
	Total int            `json:"total"`
}

// TimeLogResponse represents a time log in API responses.
type TimeLogResponse struct {
	ID              string     `json:"id"`
	TeacherID       string     `json:"teacher_id"`
	TaskID          *string    `json:"task_id"`
	StartTime       time.Time  `json:"start_time"`
	EndTime         *time.Time `json:"end_time"`
	DurationMinutes *int       `json:"duration_minutes"`
	CreatedAt       time.Time  `json:"created_at"`
}

// TimeLogsListResponse represents the response for GET /timelogs.
type TimeLogsListResponse struct {
	TimeLogs []TimeLogResponse `json:"time_logs"`
	Total    int               `json:"total"`
}

// ActiveTimerResponse represents the response for GET /timelogs/active.
// ActiveTimer is null when nothing is running.
type ActiveTimerResponse struct {
	ActiveTimer *TimeLogResponse `json:"active_timer"`
}

// TeacherResponse represents a teacher in API responses.
type TeacherResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// TeachersListResponse represents the response for GET /teachers.
type TeachersListResponse struct {
	Teachers []TeacherResponse `json:"teachers"`
	Total    int               `json:"total"`
}

// TeacherStats represents workload statistics for a single teacher.
type TeacherStats struct {
	TeacherID      string `json:"teacher_id"`
	TeacherName    string `json:"teacher_name"`
	MinutesLogged  int    `json:"minutes_logged"`
	TasksAssigned  int    `json:"tasks_assigned"`
	TasksCompleted int    `json:"tasks_completed"`
	TasksApproved  int    `json:"tasks_approved"`
	TimerRunning   bool   `json:"timer_running"`
}

// StatsResponse represents the response for GET /stats.
type StatsResponse struct {
	PeriodStart time.Time      `json:"period_start"`
	PeriodEnd   time.Time      `json:"period_end"`
	Teachers    []TeacherStats `json:"teachers"`
}

// ToTaskResponse converts domain.Task to TaskResponse.
func ToTaskResponse(task *domain.Task) TaskResponse {
	var approval *string
	if task.AdminApproval != nil {
		s := string(*task.AdminApproval)
		approval = &s
	}

	return TaskResponse{
		ID:            task.ID,
		Title:         task.Title,
		Description:   task.Description,
		Status:        string(task.Status),
		AdminApproval: approval,
		AssignedTo:    task.AssignedTo,
		CreatedBy:     task.CreatedBy,
		CreatedAt:     task.CreatedAt,
	}
}

// ToTasksListResponse converts a task slice to TasksListResponse.
func ToTasksListResponse(tasks []*domain.Task) TasksListResponse {
	out := make([]TaskResponse, len(tasks))
	for i, task := range tasks {
		out[i] = ToTaskResponse(task)
	}
	return TasksListResponse{Tasks: out, Total: len(out)}
}

// ToTimeLogResponse converts domain.TimeLog to TimeLogResponse.
func ToTimeLogResponse(log *domain.TimeLog) TimeLogResponse {
	return TimeLogResponse{
		ID:              log.ID,
		TeacherID:       log.TeacherID,
		TaskID:          log.TaskID,
		StartTime:       log.StartTime,
		EndTime:         log.EndTime,
		DurationMinutes: log.DurationMinutes,
		CreatedAt:       log.CreatedAt,
	}
}

// ToTimeLogsListResponse converts a time log slice to TimeLogsListResponse.
func ToTimeLogsListResponse(logs []*domain.TimeLog) TimeLogsListResponse {
	out := make([]TimeLogResponse, len(logs))
	for i, log := range logs {
		out[i] = ToTimeLogResponse(log)
	}
	return TimeLogsListResponse{TimeLogs: out, Total: len(out)}
}

// ToTeacherResponse converts domain.User to TeacherResponse.
func ToTeacherResponse(user *domain.User) TeacherResponse {
	return TeacherResponse{
		ID:        user.ID,
		Name:      user.Name,
		Email:     user.Email,
		CreatedAt: user.CreatedAt,
	}
}
