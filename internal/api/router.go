// Package api provides HTTP routing and handlers for the REST API.
package api

import (
	"github.com/gorilla/mux"

	"github.com/sla-calendar/backend/internal/api/handlers"
	"github.com/sla-calendar/backend/internal/api/middleware"
	"github.com/sla-calendar/backend/internal/calendar"
	"github.com/sla-calendar/backend/internal/storage"
	"github.com/sla-calendar/backend/internal/websocket"
)

// Services bundles the collaborators the API surface needs.
type Services struct {
	DB           *storage.DB
	Calendars    *storage.CalendarRepository
	SLAs         *storage.SLARepository
	Pipeline     *calendar.Pipeline
	Sync         *calendar.SyncService
	Scheduler    *calendar.Scheduler
	Bootstrapper *calendar.Bootstrapper
	Hub          *websocket.Hub
}

// NewRouter creates and configures the HTTP router with all API routes.
func NewRouter(s Services) *mux.Router {
	r := mux.NewRouter()

	r.Use(middleware.Logging)
	r.Use(middleware.ErrorRecovery)

	api := r.PathPrefix("/api").Subrouter()

	api.HandleFunc("/health", handlers.HealthCheck(s.DB)).Methods("GET")
	api.HandleFunc("/ws", handlers.WebSocketUpgrade(s.Hub)).Methods("GET")

	api.HandleFunc("/setup", handlers.Setup(s.Bootstrapper)).Methods("POST")

	api.HandleFunc("/calendars", handlers.ListCalendars(s.Calendars)).Methods("GET")
	api.HandleFunc("/calendars", handlers.CreateCalendar(s.Pipeline)).Methods("POST")
	api.HandleFunc("/calendars/sync", handlers.SyncAllCalendars(s.Scheduler)).Methods("POST")
	api.HandleFunc("/calendars/feeds", handlers.ListFeeds()).Methods("GET")
	api.HandleFunc("/calendars/default", handlers.GetDefaultCalendar(s.Calendars)).Methods("GET")
	api.HandleFunc("/calendars/{id}", handlers.GetCalendar(s.Calendars)).Methods("GET")
	api.HandleFunc("/calendars/{id}", handlers.UpdateCalendar(s.Calendars, s.Pipeline)).Methods("PUT")
	api.HandleFunc("/calendars/{id}", handlers.DeleteCalendar(s.Calendars, s.Pipeline)).Methods("DELETE")
	api.HandleFunc("/calendars/{id}/sync", handlers.SyncCalendar(s.Calendars, s.Sync, s.Hub)).Methods("POST")

	api.HandleFunc("/slas", handlers.ListSLAs(s.SLAs)).Methods("GET")
	api.HandleFunc("/slas", handlers.CreateSLA(s.SLAs, s.Calendars)).Methods("POST")
	api.HandleFunc("/slas/{id}", handlers.GetSLA(s.SLAs)).Methods("GET")
	api.HandleFunc("/slas/{id}", handlers.UpdateSLA(s.SLAs, s.Calendars)).Methods("PUT")
	api.HandleFunc("/slas/{id}", handlers.DeleteSLA(s.SLAs)).Methods("DELETE")

	return r
}
