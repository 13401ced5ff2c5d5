package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/mydailyops/dailyops-api/internal/middleware"
	"github.com/mydailyops/dailyops-api/internal/model"
	"github.com/mydailyops/dailyops-api/internal/service"
)

type TaskHandler struct {
	svc *service.TaskService
}

func NewTaskHandler(svc *service.TaskService) *TaskHandler {
	return &TaskHandler{svc: svc}
}

// ServeHTTP routes /api/v1/tasks and /api/v1/tasks/{id}
func (h *TaskHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// Extract task ID from path: /api/v1/tasks/{id}/...
	path := strings.TrimPrefix(r.URL.Path, "/api/v1/tasks")
	path = strings.TrimPrefix(path, "/")

	parts := strings.SplitN(path, "/", 2)
	taskID := parts[0]
	subPath := ""
	if len(parts) > 1 {
		subPath = parts[1]
	}

	// /api/v1/tasks/{id}/status
	if taskID != "" && subPath == "status" {
		h.handleUpdateStatus(w, r, taskID)
		return
	}

	// /api/v1/tasks/{id}
	if taskID != "" {
		switch r.Method {
		case http.MethodGet:
			h.handleGetByID(w, r, taskID)
		case http.MethodPut:
			h.handleUpdate(w, r, taskID)
		case http.MethodDelete:
			h.handleDelete(w, r, taskID)
		default:
			WriteError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed")
		}
		return
	}

	// /api/v1/tasks
	switch r.Method {
	case http.MethodGet:
		h.handleList(w, r)
	case http.MethodPost:
		h.handleCreate(w, r)
	default:
		WriteError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed")
	}
}

type createTaskRequest struct {
	Title        string                `json:"title"`
	Description  string                `json:"description"`
	Priority     string                `json:"priority,omitempty"`
	Category     string                `json:"category,omitempty"`
	Pinned       bool                  `json:"pinned,omitempty"`
	Deadline     *string               `json:"deadline,omitempty"`
	StartDate    *string               `json:"start_date,omitempty"`
	DurationDays int                   `json:"duration_days,omitempty"`
	Recurrence   *model.RecurrenceRule `json:"recurrence,omitempty"`
}

func (h *TaskHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	userID := getUserID(r)

	var req createTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "INVALID_JSON", "invalid request body")
		return
	}

	input := service.CreateTaskInput{
		Title:        req.Title,
		Description:  req.Description,
		Priority:     req.Priority,
		Category:     req.Category,
		Pinned:       req.Pinned,
		Deadline:     req.Deadline,
		StartDate:    req.StartDate,
		DurationDays: req.DurationDays,
		Recurrence:   req.Recurrence,
	}

	task, err := h.svc.Create(r.Context(), userID, input)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusCreated, task)
}

func (h *TaskHandler) handleGetByID(w http.ResponseWriter, r *http.Request, taskID string) {
	userID := getUserID(r)

	task, err := h.svc.GetByID(r.Context(), userID, taskID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, task)
}

type updateTaskRequest struct {
	Title           *string               `json:"title,omitempty"`
	Description     *string               `json:"description,omitempty"`
	Priority        *string               `json:"priority,omitempty"`
	Category        *string               `json:"category,omitempty"`
	Pinned          *bool                 `json:"pinned,omitempty"`
	Deadline        *string               `json:"deadline,omitempty"`
	StartDate       *string               `json:"start_date,omitempty"`
	DurationDays    *int                  `json:"duration_days,omitempty"`
	Recurrence      *model.RecurrenceRule `json:"recurrence,omitempty"`
	ClearRecurrence bool                  `json:"clear_recurrence,omitempty"`
}

func (h *TaskHandler) handleUpdate(w http.ResponseWriter, r *http.Request, taskID string) {
	userID := getUserID(r)

	var req updateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "INVALID_JSON", "invalid request body")
		return
	}

	input := service.UpdateTaskInput{
		Title:           req.Title,
		Description:     req.Description,
		Priority:        req.Priority,
		Category:        req.Category,
		Pinned:          req.Pinned,
		Deadline:        req.Deadline,
		StartDate:       req.StartDate,
		DurationDays:    req.DurationDays,
		Recurrence:      req.Recurrence,
		ClearRecurrence: req.ClearRecurrence,
	}

	task, err := h.svc.Update(r.Context(), userID, taskID, input)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, task)
}

func (h *TaskHandler) handleDelete(w http.ResponseWriter, r *http.Request, taskID string) {
	userID := getUserID(r)

	if err := h.svc.Delete(r.Context(), userID, taskID); err != nil {
		handleServiceError(w, err)
		return
	}

	WriteNoContent(w)
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

func (h *TaskHandler) handleUpdateStatus(w http.ResponseWriter, r *http.Request, taskID string) {
	if r.Method != http.MethodPatch {
		WriteError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed")
		return
	}

	userID := getUserID(r)

	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "INVALID_JSON", "invalid request body")
		return
	}

	task, err := h.svc.UpdateStatus(r.Context(), userID, taskID, model.TaskStatus(req.Status))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, task)
}

func (h *TaskHandler) handleList(w http.ResponseWriter, r *http.Request) {
	userID := getUserID(r)

	params := model.TaskListParams{
		UserID:           userID,
		Cursor:           r.URL.Query().Get("cursor"),
		IncludeTemplates: r.URL.Query().Get("include_templates") == "true",
	}

	if statusStr := r.URL.Query().Get("status"); statusStr != "" {
		status := model.TaskStatus(statusStr)
		if !status.IsValid() {
			WriteError(w, http.StatusBadRequest, "INVALID_STATUS", "status must be 'pending', 'in_progress' or 'done'")
			return
		}
		params.Status = &status
	}

	limit := 20
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l <= 100 {
			limit = l
		}
	}
	params.Limit = limit

	result, err := h.svc.List(r.Context(), params)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, result)
}

func getUserID(r *http.Request) string {
	return middleware.GetUserID(r)
}

func handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		WriteError(w, http.StatusNotFound, "NOT_FOUND", "resource not found")
	case errors.Is(err, service.ErrInvalidInput):
		WriteError(w, http.StatusBadRequest, "INVALID_INPUT", err.Error())
	case errors.Is(err, service.ErrForbidden):
		WriteError(w, http.StatusForbidden, "FORBIDDEN", "access denied")
	default:
		WriteError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
	}
}
