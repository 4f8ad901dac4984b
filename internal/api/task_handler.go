package api

import (
	"log/slog"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/phrazzld/tasktrail/internal/api/shared"
	"github.com/phrazzld/tasktrail/internal/domain"
	"github.com/phrazzld/tasktrail/internal/platform/logger"
	"github.com/phrazzld/tasktrail/internal/service"
	"github.com/phrazzld/tasktrail/internal/store"
)

// TaskHandler handles task-related HTTP requests.
type TaskHandler struct {
	taskService service.TaskService
	validator   *validator.Validate
	logger      *slog.Logger
}

// NewTaskHandler creates a new TaskHandler.
// If logger is nil, a default logger will be used.
func NewTaskHandler(taskService service.TaskService, logger *slog.Logger) *TaskHandler {
	if logger == nil {
		logger = slog.Default()
	}

	v := validator.New()
	// Report field paths using their JSON names so validation errors match
	// the wire format clients actually sent.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return &TaskHandler{
		taskService: taskService,
		validator:   v,
		logger:      logger.With(slog.String("component", "task_handler")),
	}
}

// CreateTask handles POST /api/tasks requests.
func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	var req CreateTaskRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		HandleAPIError(w, r, validationErrorFromTags(err), "")
		return
	}

	status := domain.TaskStatusPending
	if req.Status != "" {
		parsed, err := domain.ParseTaskStatus(req.Status)
		if err != nil {
			HandleAPIError(w, r, err, "")
			return
		}
		status = parsed
	}

	task, err := h.taskService.CreateTask(r.Context(), service.CreateTaskParams{
		Title:       req.Title,
		Description: req.Description,
		Status:      status,
		DueDate:     req.DueDate,
	})
	if err != nil {
		log.Debug("task creation failed", slog.String("error", err.Error()))
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusCreated, taskToResponse(task))
}

// GetTask handles GET /api/tasks/{id} requests.
func (h *TaskHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	id, ok := h.taskIDFromPath(w, r)
	if !ok {
		return
	}

	task, err := h.taskService.GetTask(r.Context(), id)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, taskToResponse(task))
}

// ListTasks handles GET /api/tasks requests. The status filter and sort
// parameters are whitelist-checked by the store before touching any query.
func (h *TaskHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	filter := store.TaskFilter{
		Status:  r.URL.Query().Get("status"),
		SortBy:  r.URL.Query().Get("sort"),
		SortDir: r.URL.Query().Get("order"),
	}

	tasks, err := h.taskService.ListTasks(r.Context(), filter)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	responses := make([]TaskResponse, 0, len(tasks))
	for _, task := range tasks {
		responses = append(responses, taskToResponse(task))
	}

	shared.RespondWithJSON(w, r, http.StatusOK, responses)
}

// UpdateTask handles PUT /api/tasks/{id} requests with partial-update
// semantics: only fields present in the body are validated, applied, and
// considered for the audit diff.
func (h *TaskHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	id, ok := h.taskIDFromPath(w, r)
	if !ok {
		return
	}

	var req UpdateTaskRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		HandleAPIError(w, r, validationErrorFromTags(err), "")
		return
	}

	patch := domain.TaskPatch{
		Title:       req.Title,
		Description: req.Description,
		DueDate:     req.DueDate,
	}
	if req.Status != nil {
		parsed, err := domain.ParseTaskStatus(*req.Status)
		if err != nil {
			HandleAPIError(w, r, err, "")
			return
		}
		patch.Status = &parsed
	}

	task, err := h.taskService.UpdateTask(r.Context(), id, patch)
	if err != nil {
		log.Debug("task update failed",
			slog.String("error", err.Error()),
			slog.Int64("task_id", id))
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, taskToResponse(task))
}

// DeleteTask handles DELETE /api/tasks/{id} requests. The task is
// soft-deleted; its row and audit history remain in storage.
func (h *TaskHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	id, ok := h.taskIDFromPath(w, r)
	if !ok {
		return
	}

	if err := h.taskService.DeleteTask(r.Context(), id); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// GetTaskHistory handles GET /api/tasks/{id}/history requests, returning
// the audit trail newest-first.
func (h *TaskHandler) GetTaskHistory(w http.ResponseWriter, r *http.Request) {
	id, ok := h.taskIDFromPath(w, r)
	if !ok {
		return
	}

	entries, err := h.taskService.GetTaskHistory(r.Context(), id)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	responses := make([]HistoryEntryResponse, 0, len(entries))
	for _, entry := range entries {
		responses = append(responses, historyToResponse(entry))
	}

	shared.RespondWithJSON(w, r, http.StatusOK, responses)
}

// taskIDFromPath extracts and parses the {id} path parameter. It writes an
// error response and returns false when the parameter is missing or not a
// positive integer.
func (h *TaskHandler) taskIDFromPath(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := chi.URLParam(r, "id")
	if raw == "" {
		HandleAPIError(w, r, domain.NewValidationError("id", "is required", domain.ErrInvalidID), "")
		return 0, false
	}

	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		HandleAPIError(w, r, domain.NewValidationError("id", "must be a positive integer", domain.ErrInvalidID), "")
		return 0, false
	}

	return id, true
}
