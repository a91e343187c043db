package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/taskdeck/taskdeck-go/internal/middleware"
	"github.com/taskdeck/taskdeck-go/internal/repository"
	"github.com/taskdeck/taskdeck-go/internal/service"
	"github.com/taskdeck/taskdeck-go/pkg/model"
)

// TaskHandler handles HTTP requests for task operations.
type TaskHandler struct {
	service *service.TaskService
}

// NewTaskHandler creates a new TaskHandler.
func NewTaskHandler(svc *service.TaskService) *TaskHandler {
	return &TaskHandler{service: svc}
}

// HandleList handles GET /api/tasks requests. Supported query parameters:
// query, is_completed, priority, sort_by, sort_order, limit, offset.
func (h *TaskHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse("unauthorized"))
		return
	}

	params := r.URL.Query()
	q := repository.TaskQuery{
		Query:     params.Get("query"),
		SortBy:    params.Get("sort_by"),
		SortOrder: params.Get("sort_order"),
	}

	if v := params.Get("is_completed"); v != "" {
		completed, err := strconv.ParseBool(v)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse("is_completed must be true or false"))
			return
		}
		q.IsCompleted = &completed
	}
	if v := params.Get("priority"); v != "" {
		p := model.Priority(v)
		q.Priority = &p
	}
	if v := params.Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 1 {
			writeJSON(w, http.StatusBadRequest, errorResponse("limit must be a positive integer"))
			return
		}
		q.Limit = limit
	}
	if v := params.Get("offset"); v != "" {
		offset, err := strconv.Atoi(v)
		if err != nil || offset < 0 {
			writeJSON(w, http.StatusBadRequest, errorResponse("offset must be a non-negative integer"))
			return
		}
		q.Offset = offset
	}

	tasks, count, err := h.service.List(r.Context(), userID, q)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidListParams), errors.Is(err, service.ErrInvalidPriority):
			writeJSON(w, http.StatusBadRequest, errorResponse(err.Error()))
		default:
			writeJSON(w, http.StatusInternalServerError, errorResponse("internal server error"))
		}
		return
	}

	writeJSON(w, http.StatusOK, model.TaskListResponse{Data: tasks, Count: count})
}

// HandleCreate handles POST /api/tasks requests.
func (h *TaskHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse("unauthorized"))
		return
	}

	var req model.CreateTaskRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	task, err := h.service.Create(r.Context(), userID, req)
	if err != nil {
		if isTaskValidationError(err) {
			writeJSON(w, http.StatusBadRequest, errorResponse(err.Error()))
			return
		}
		writeJSON(w, http.StatusInternalServerError, errorResponse("internal server error"))
		return
	}

	writeJSON(w, http.StatusCreated, model.TaskResponse{Data: *task})
}

// HandleGet handles GET /api/tasks/{id} requests.
func (h *TaskHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse("unauthorized"))
		return
	}

	task, err := h.service.Get(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, service.ErrTaskNotFound) {
			writeJSON(w, http.StatusNotFound, errorResponse(err.Error()))
			return
		}
		writeJSON(w, http.StatusInternalServerError, errorResponse("internal server error"))
		return
	}

	writeJSON(w, http.StatusOK, model.TaskResponse{Data: *task})
}

// HandleUpdate handles PATCH /api/tasks/{id} requests.
func (h *TaskHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse("unauthorized"))
		return
	}

	var req model.UpdateTaskRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	task, err := h.service.Update(r.Context(), userID, chi.URLParam(r, "id"), req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrTaskNotFound):
			writeJSON(w, http.StatusNotFound, errorResponse(err.Error()))
		case isTaskValidationError(err):
			writeJSON(w, http.StatusBadRequest, errorResponse(err.Error()))
		default:
			writeJSON(w, http.StatusInternalServerError, errorResponse("internal server error"))
		}
		return
	}

	writeJSON(w, http.StatusOK, model.TaskResponse{Data: *task})
}

// HandleDelete handles DELETE /api/tasks/{id} requests.
func (h *TaskHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse("unauthorized"))
		return
	}

	if err := h.service.Delete(r.Context(), userID, chi.URLParam(r, "id")); err != nil {
		if errors.Is(err, service.ErrTaskNotFound) {
			writeJSON(w, http.StatusNotFound, errorResponse(err.Error()))
			return
		}
		writeJSON(w, http.StatusInternalServerError, errorResponse("internal server error"))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// HandleReorder handles PATCH /api/tasks/reorder requests.
func (h *TaskHandler) HandleReorder(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse("unauthorized"))
		return
	}

	var req model.ReorderRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	tasks, err := h.service.Reorder(r.Context(), userID, req.Tasks)
	if err != nil {
		if errors.Is(err, service.ErrInvalidReorder) {
			writeJSON(w, http.StatusBadRequest, errorResponse(err.Error()))
			return
		}
		writeJSON(w, http.StatusInternalServerError, errorResponse("internal server error"))
		return
	}

	writeJSON(w, http.StatusOK, model.TaskListResponse{Data: tasks, Count: len(tasks)})
}

func isTaskValidationError(err error) bool {
	return errors.Is(err, service.ErrTitleRequired) ||
		errors.Is(err, service.ErrManualOrderRequired) ||
		errors.Is(err, service.ErrInvalidPriority) ||
		errors.Is(err, service.ErrInvalidDueDate) ||
		errors.Is(err, service.ErrInvalidCompleted) ||
		errors.Is(err, service.ErrNoFieldsToUpdate)
}
