package handler

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/teachtrack/teachtrack/internal/handler/dto"
	"github.com/teachtrack/teachtrack/internal/middleware"
	"github.com/teachtrack/teachtrack/internal/repository"
)

// handleListTeachers lists all teacher accounts.
// @Summary List teachers
// @Description Returns all teacher accounts ordered by name. Admin only.
// @Tags teachers
// @Produce json
// @Success 200 {object} dto.TeachersListResponse
// @Failure 403 {object} dto.ErrorResponse
// @Security BearerAuth
// @Router /teachers [get]
func (h *Handler) handleListTeachers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, err := middleware.GetUserFromContext(ctx)
	if err != nil {
		respondError(w, http.StatusUnauthorized, "INVALID_TOKEN", "Authentication required")
		return
	}

	if !user.IsAdmin() {
		respondError(w, http.StatusForbidden, "INSUFFICIENT_ACCESS", "Only admins can list teachers")
		return
	}

	teachers, err := h.userRepo.ListTeachers(ctx)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	resp := dto.TeachersListResponse{
		Teachers: make([]dto.TeacherResponse, 0, len(teachers)),
		Total:    len(teachers),
	}
	for _, teacher := range teachers {
		resp.Teachers = append(resp.Teachers, dto.ToTeacherResponse(teacher))
	}

	respondJSON(w, http.StatusOK, resp)
}

// handleGetStats returns per-teacher workload statistics.
// @Summary Get teacher workload statistics
// @Description Returns minutes logged, task counts and running-timer flags per teacher for the given period. Admin only. The period defaults to the last 30 days.
// @Tags stats
// @Produce json
// @Param period_start query string false "Period start (RFC 3339 or YYYY-MM-DD), default 30 days ago"
// @Param period_end query string false "Period end (RFC 3339 or YYYY-MM-DD), default now"
// @Param teacher_id query string false "Limit to a single teacher"
// @Success 200 {object} dto.StatsResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 403 {object} dto.ErrorResponse
// @Security BearerAuth
// @Router /stats [get]
func (h *Handler) handleGetStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, err := middleware.GetUserFromContext(ctx)
	if err != nil {
		respondError(w, http.StatusUnauthorized, "INVALID_TOKEN", "Authentication required")
		return
	}

	if !user.IsAdmin() {
		respondError(w, http.StatusForbidden, "INSUFFICIENT_ACCESS", "Only admins can view statistics")
		return
	}

	now := time.Now().UTC()
	periodStart := now.AddDate(0, 0, -30)
	periodEnd := now

	if t, ok := parseTimeParam(w, r, "period_start"); !ok {
		return
	} else if t != nil {
		periodStart = *t
	}
	if t, ok := parseTimeParam(w, r, "period_end"); !ok {
		return
	} else if t != nil {
		periodEnd = *t
	}

	if !periodEnd.After(periodStart) {
		respondError(w, http.StatusBadRequest, "INVALID_REQUEST", "period_end must be after period_start")
		return
	}

	filters := repository.StatsFilters{
		PeriodStart: periodStart,
		PeriodEnd:   periodEnd,
	}
	if teacherID := r.URL.Query().Get("teacher_id"); teacherID != "" {
		if _, err := uuid.Parse(teacherID); err != nil {
			respondError(w, http.StatusBadRequest, "INVALID_REQUEST", "teacher_id must be a valid UUID")
			return
		}
		filters.TeacherID = &teacherID
	}

	results, err := h.taskRepo.GetTeacherStats(ctx, filters)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	resp := dto.StatsResponse{
		PeriodStart: periodStart,
		PeriodEnd:   periodEnd,
		Teachers:    make([]dto.TeacherStats, 0, len(results)),
	}
	for _, res := range results {
		resp.Teachers = append(resp.Teachers, dto.TeacherStats{
			TeacherID:      res.TeacherID,
			TeacherName:    res.TeacherName,
			MinutesLogged:  res.MinutesLogged,
			TasksAssigned:  res.TasksAssigned,
			TasksCompleted: res.TasksCompleted,
			TasksApproved:  res.TasksApproved,
			TimerRunning:   res.TimerRunning,
		})
	}

	respondJSON(w, http.StatusOK, resp)
}
