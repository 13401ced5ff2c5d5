package http

import (
	"net/http"

	"github.com/mydailyops/dailyops-api/internal/http/handler"
	"github.com/mydailyops/dailyops-api/internal/service"
)

func NewRouter(taskSvc *service.TaskService, calendarSvc *service.CalendarService) http.Handler {
	mux := http.NewServeMux()

	// Health check - intentionally outside /api/v1 for LB health check compatibility
	health := handler.NewHealthHandler()
	mux.Handle("/health", health)

	// Task CRUD API
	taskHandler := handler.NewTaskHandler(taskSvc)
	mux.Handle("/api/v1/tasks", taskHandler)
	mux.Handle("/api/v1/tasks/", taskHandler)

	// Calendar and list views
	calendarHandler := handler.NewCalendarHandler(calendarSvc)
	mux.Handle("/api/v1/calendar", calendarHandler)
	mux.Handle("/api/v1/calendar/", calendarHandler)

	return mux
}
