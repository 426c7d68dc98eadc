package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/teachtrack/teachtrack/internal/handler/dto"
	"github.com/teachtrack/teachtrack/internal/middleware"
	"github.com/teachtrack/teachtrack/internal/service"
)

// handleStartTimer starts a timer for the calling teacher.
// @Summary Start a timer
// @Description Opens a time log for the calling teacher. With task_id the task must be accepted and assigned to the caller; without it the timer is free-floating. A teacher can only have one timer running.
// @Tags timelogs
// @Accept json
// @Produce json
// @Param request body dto.StartTimerRequest true "Timer start request"
// @Success 201 {object} dto.TimeLogResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse
// @Failure 422 {object} dto.ErrorResponse
// @Security BearerAuth
// @Router /timelogs/start [post]
func (h *Handler) handleStartTimer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, err := middleware.GetUserFromContext(ctx)
	if err != nil {
		respondError(w, http.StatusUnauthorized, "INVALID_TOKEN", "Authentication required")
		return
	}

	var req dto.StartTimerRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
			return
		}
	}

	if req.TaskID != nil {
		if _, err := uuid.Parse(*req.TaskID); err != nil {
			respondError(w, http.StatusBadRequest, "INVALID_REQUEST", "task_id must be a valid UUID")
			return
		}
	}

	log, err := h.timerService.Start(ctx, user, req.TaskID)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, dto.ToTimeLogResponse(log))
}

// handleStopTimer stops the calling teacher's running timer.
// @Summary Stop the running timer
// @Description Closes the caller's open time log and records its duration in whole minutes.
// @Tags timelogs
// @Produce json
// @Success 200 {object} dto.TimeLogResponse
// @Failure 400 {object} dto.ErrorResponse
// @Security BearerAuth
// @Router /timelogs/stop [post]
func (h *Handler) handleStopTimer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, err := middleware.GetUserFromContext(ctx)
	if err != nil {
		respondError(w, http.StatusUnauthorized, "INVALID_TOKEN", "Authentication required")
		return
	}

	log, err := h.timerService.Stop(ctx, user)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, dto.ToTimeLogResponse(log))
}

// handleGetActiveTimer returns the caller's running timer, if any.
// @Summary Get the active timer
// @Description Returns the caller's open time log, or a null active_timer when none is running.
// @Tags timelogs
// @Produce json
// @Success 200 {object} dto.ActiveTimerResponse
// @Failure 401 {object} dto.ErrorResponse
// @Security BearerAuth
// @Router /timelogs/active [get]
func (h *Handler) handleGetActiveTimer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, err := middleware.GetUserFromContext(ctx)
	if err != nil {
		respondError(w, http.StatusUnauthorized, "INVALID_TOKEN", "Authentication required")
		return
	}

	log, err := h.timerService.GetActive(ctx, user)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	resp := dto.ActiveTimerResponse{}
	if log != nil {
		logResp := dto.ToTimeLogResponse(log)
		resp.ActiveTimer = &logResp
	}

	respondJSON(w, http.StatusOK, resp)
}

// handleListTimeLogs lists time log history.
// @Summary List time logs
// @Description Returns time logs, most recent first. Teachers see only their own logs. Admins may filter with teacher_id, from and to (RFC 3339 or YYYY-MM-DD).
// @Tags timelogs
// @Produce json
// @Param teacher_id query string false "Filter by teacher (admin only)"
// @Param from query string false "Include logs starting at or after this time"
// @Param to query string false "Include logs starting before this time"
// @Success 200 {object} dto.TimeLogsListResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 403 {object} dto.ErrorResponse
// @Security BearerAuth
// @Router /timelogs [get]
func (h *Handler) handleListTimeLogs(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, err := middleware.GetUserFromContext(ctx)
	if err != nil {
		respondError(w, http.StatusUnauthorized, "INVALID_TOKEN", "Authentication required")
		return
	}

	params := service.ListParams{}

	if teacherID := r.URL.Query().Get("teacher_id"); teacherID != "" {
		if _, err := uuid.Parse(teacherID); err != nil {
			respondError(w, http.StatusBadRequest, "INVALID_REQUEST", "teacher_id must be a valid UUID")
			return
		}
		params.TeacherID = &teacherID
	}

	from, ok := parseTimeParam(w, r, "from")
	if !ok {
		return
	}
	params.From = from

	to, ok := parseTimeParam(w, r, "to")
	if !ok {
		return
	}
	params.To = to

	logs, err := h.timerService.List(ctx, user, params)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, dto.ToTimeLogsListResponse(logs))
}

// parseTimeParam reads an optional query parameter as RFC 3339 or a plain
// date. Returns (nil, true) when the parameter is absent and (nil, false)
// when it is malformed; the error response is already written.
func parseTimeParam(w http.ResponseWriter, r *http.Request, name string) (*time.Time, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, true
	}

	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return &t, true
	}
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return &t, true
	}

	respondError(w, http.StatusBadRequest, "INVALID_REQUEST", name+" must be an RFC 3339 timestamp or YYYY-MM-DD date")
	return nil, false
}
