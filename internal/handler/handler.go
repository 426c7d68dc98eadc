package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	httpSwagger "github.com/swaggo/http-swagger"
	_ "github.com/teachtrack/teachtrack/docs" // Import generated docs
	"github.com/teachtrack/teachtrack/internal/handler/dto"
	"github.com/teachtrack/teachtrack/internal/middleware"
	"github.com/teachtrack/teachtrack/internal/repository"
	"github.com/teachtrack/teachtrack/internal/service"
)

// Handler holds dependencies for HTTP handlers.
type Handler struct {
	pool           *pgxpool.Pool
	taskService    *service.TaskService
	timerService   *service.TimerService
	taskRepo       *repository.TaskRepository
	userRepo       *repository.UserRepository
	timeLogRepo    *repository.TimeLogRepository
	authMiddleware *middleware.AuthMiddleware
}

// New creates a new Handler instance with all dependencies.
func New(pool *pgxpool.Pool) *Handler {
	// Create repositories
	taskRepo := repository.NewTaskRepository(pool)
	userRepo := repository.NewUserRepository(pool)
	timeLogRepo := repository.NewTimeLogRepository(pool)

	// Create services
	timerService := service.NewTimerService(pool, timeLogRepo, taskRepo)
	taskService := service.NewTaskService(pool, taskRepo, userRepo, timerService)

	// Create middleware
	authMiddleware := middleware.NewAuthMiddleware(userRepo)

	return &Handler{
		pool:           pool,
		taskService:    taskService,
		timerService:   timerService,
		taskRepo:       taskRepo,
		userRepo:       userRepo,
		timeLogRepo:    timeLogRepo,
		authMiddleware: authMiddleware,
	}
}

// RegisterRoutes registers all HTTP routes.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	// Health check
	mux.HandleFunc("GET /healthz", h.handleHealthz)

	// Swagger UI
	mux.HandleFunc("GET /swagger/", httpSwagger.Handler())

	// Task routes
	mux.Handle("GET /api/v1/tasks", h.auth(h.handleListTasks))
	mux.Handle("POST /api/v1/tasks", h.auth(h.handleCreateTask))
	mux.Handle("GET /api/v1/tasks/{id}", h.auth(h.handleGetTask))
	mux.Handle("PATCH /api/v1/tasks/{id}", h.auth(h.handleUpdateTask))
	mux.Handle("PATCH /api/v1/tasks/{id}/status", h.auth(h.handleUpdateTaskStatus))
	mux.Handle("POST /api/v1/tasks/{id}/claim", h.auth(h.handleClaimTask))
	mux.Handle("POST /api/v1/tasks/{id}/approve", h.auth(h.handleApproveTask))
	mux.Handle("DELETE /api/v1/tasks/{id}", h.auth(h.handleDeleteTask))

	// Time log routes
	mux.Handle("POST /api/v1/timelogs/start", h.auth(h.handleStartTimer))
	mux.Handle("POST /api/v1/timelogs/stop", h.auth(h.handleStopTimer))
	mux.Handle("GET /api/v1/timelogs/active", h.auth(h.handleGetActiveTimer))
	mux.Handle("GET /api/v1/timelogs", h.auth(h.handleListTimeLogs))

	// Admin views
	mux.Handle("GET /api/v1/teachers", h.auth(h.handleListTeachers))
	mux.Handle("GET /api/v1/stats", h.auth(h.handleGetStats))
}

// auth wraps a handler func with the authentication middleware.
func (h *Handler) auth(fn http.HandlerFunc) http.Handler {
	return h.authMiddleware.Authenticate(fn)
}

// handleHealthz returns 200 OK if the database is reachable.
func (h *Handler) handleHealthz(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := h.pool.Ping(ctx); err != nil {
		slog.Error("database health check failed", "error", err)
		http.Error(w, "database unavailable", http.StatusServiceUnavailable)
		return
	}

	w.WriteHeader(http.StatusOK)
}

// Ping checks if the database is reachable (used for testing).
func (h *Handler) Ping(ctx context.Context) error {
	return h.pool.Ping(ctx)
}

// respondJSON writes a JSON response with the given status code.
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode JSON response", "error", err)
	}
}

// respondError writes a standard error response.
func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, dto.NewErrorResponse(code, message))
}

// respondDomainError maps a domain error and writes the standard response.
func respondDomainError(w http.ResponseWriter, err error) {
	status, code, message := dto.MapDomainError(err)
	respondError(w, status, code, message)
}

// extractTaskID extracts and validates task ID from path parameter.
// Returns (taskID, true) if valid, ("", false) if invalid (error already sent to client).
func extractTaskID(w http.ResponseWriter, r *http.Request) (string, bool) {
	taskID := r.PathValue("id")
	if taskID == "" {
		respondError(w, http.StatusBadRequest, "INVALID_REQUEST", "task id is required")
		return "", false
	}

	if _, err := uuid.Parse(taskID); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_REQUEST", "task id must be a valid UUID")
		return "", false
	}

	return taskID, true
}
