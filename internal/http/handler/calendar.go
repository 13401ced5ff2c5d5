package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/mydailyops/dailyops-api/internal/model"
	"github.com/mydailyops/dailyops-api/internal/service"
)

type CalendarHandler struct {
	svc *service.CalendarService
}

func NewCalendarHandler(svc *service.CalendarService) *CalendarHandler {
	return &CalendarHandler{svc: svc}
}

// ServeHTTP routes /api/v1/calendar and its read-only views:
//
//	GET /api/v1/calendar?start=YYYY-MM-DD&end=YYYY-MM-DD
//	GET /api/v1/calendar/today
//	GET /api/v1/calendar/upcoming?days=N
//	GET /api/v1/calendar/grouped?filter=...
func (h *CalendarHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		WriteError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed")
		return
	}

	view := strings.TrimPrefix(r.URL.Path, "/api/v1/calendar")
	view = strings.Trim(view, "/")

	switch view {
	case "":
		h.handleRange(w, r)
	case "today":
		h.handleToday(w, r)
	case "upcoming":
		h.handleUpcoming(w, r)
	case "grouped":
		h.handleGrouped(w, r)
	default:
		WriteError(w, http.StatusNotFound, "NOT_FOUND", "resource not found")
	}
}

func (h *CalendarHandler) handleRange(w http.ResponseWriter, r *http.Request) {
	userID := getUserID(r)

	start, err := model.ParseDate(r.URL.Query().Get("start"))
	if err != nil {
		WriteError(w, http.StatusBadRequest, "INVALID_DATE", "start must be YYYY-MM-DD")
		return
	}
	end, err := model.ParseDate(r.URL.Query().Get("end"))
	if err != nil {
		WriteError(w, http.StatusBadRequest, "INVALID_DATE", "end must be YYYY-MM-DD")
		return
	}
	includeCompleted := r.URL.Query().Get("include_completed") == "true"

	days, err := h.svc.Range(r.Context(), userID, start, end, includeCompleted)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{"days": days})
}

func (h *CalendarHandler) handleToday(w http.ResponseWriter, r *http.Request) {
	userID := getUserID(r)
	includeCompleted := r.URL.Query().Get("include_completed") == "true"

	tasks, err := h.svc.Today(r.Context(), userID, includeCompleted)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{"tasks": tasks})
}

func (h *CalendarHandler) handleUpcoming(w http.ResponseWriter, r *http.Request) {
	userID := getUserID(r)

	days := 0
	if daysStr := r.URL.Query().Get("days"); daysStr != "" {
		d, err := strconv.Atoi(daysStr)
		if err != nil || d < 1 || d > 365 {
			WriteError(w, http.StatusBadRequest, "INVALID_DAYS", "days must be between 1 and 365")
			return
		}
		days = d
	}

	tasks, err := h.svc.Upcoming(r.Context(), userID, days)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{"tasks": tasks})
}

func (h *CalendarHandler) handleGrouped(w http.ResponseWriter, r *http.Request) {
	userID := getUserID(r)

	filter := model.TaskFilter(r.URL.Query().Get("filter"))
	if filter == "" {
		filter = model.TaskFilterAll
	}

	groups, err := h.svc.Grouped(r.Context(), userID, filter)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{"groups": groups})
}
