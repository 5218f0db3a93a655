package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/sla-calendar/backend/internal/api/middleware"
	"github.com/sla-calendar/backend/internal/calendar"
	"github.com/sla-calendar/backend/internal/storage"
	"github.com/sla-calendar/backend/internal/storage/models"
	"github.com/sla-calendar/backend/internal/websocket"
)

// CalendarRequest is the create/update payload for a calendar.
type CalendarRequest struct {
	Name           string            `json:"name"`
	Timezone       string            `json:"timezone"`
	BusinessHours  json.RawMessage   `json:"business_hours,omitempty"`
	PublicHolidays models.HolidayMap `json:"public_holidays,omitempty"`
	IcalURL        string            `json:"ical_url,omitempty"`
	Default        bool              `json:"default"`
}

// ListCalendars returns all calendars.
func ListCalendars(calendars *storage.CalendarRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := calendars.List(r.Context())
		if err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to query calendars")
			return
		}

		if list == nil {
			list = []models.Calendar{}
		}

		writeJSON(w, http.StatusOK, list)
	}
}

// CreateCalendar creates a calendar through the mutation pipeline, which
// validates holidays, runs an immediate sync, and enforces the default
// invariant.
func CreateCalendar(pipeline *calendar.Pipeline) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CalendarRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrBadRequest, "Invalid request body")
			return
		}

		if req.Name == "" {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrValidation, "Name is required")
			return
		}

		cal := &models.Calendar{
			Name:           req.Name,
			Timezone:       req.Timezone,
			BusinessHours:  req.BusinessHours,
			PublicHolidays: req.PublicHolidays,
			IcalURL:        req.IcalURL,
			Default:        req.Default,
		}

		if err := pipeline.Create(r.Context(), cal); err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to create calendar")
			return
		}

		writeJSON(w, http.StatusCreated, cal)
	}
}

// GetCalendar returns a single calendar by ID.
func GetCalendar(calendars *storage.CalendarRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cal, err := calendars.GetByID(r.Context(), mux.Vars(r)["id"])
		if err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to query calendar")
			return
		}
		if cal == nil {
			middleware.WriteError(w, http.StatusNotFound, middleware.ErrNotFound, "Calendar not found")
			return
		}

		writeJSON(w, http.StatusOK, cal)
	}
}

// GetDefaultCalendar returns the calendar currently marked default.
func GetDefaultCalendar(calendars *storage.CalendarRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cal, err := calendars.GetDefault(r.Context())
		if err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to query default calendar")
			return
		}
		if cal == nil {
			middleware.WriteError(w, http.StatusNotFound, middleware.ErrNotFound, "No default calendar")
			return
		}

		writeJSON(w, http.StatusOK, cal)
	}
}

// UpdateCalendar updates a calendar through the mutation pipeline.
func UpdateCalendar(calendars *storage.CalendarRepository, pipeline *calendar.Pipeline) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := mux.Vars(r)["id"]

		existing, err := calendars.GetByID(r.Context(), id)
		if err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to query calendar")
			return
		}
		if existing == nil {
			middleware.WriteError(w, http.StatusNotFound, middleware.ErrNotFound, "Calendar not found")
			return
		}

		var req CalendarRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrBadRequest, "Invalid request body")
			return
		}

		existing.Name = req.Name
		existing.Timezone = req.Timezone
		existing.BusinessHours = req.BusinessHours
		existing.PublicHolidays = req.PublicHolidays
		existing.IcalURL = req.IcalURL
		existing.Default = req.Default

		if err := pipeline.Update(r.Context(), existing); err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to update calendar")
			return
		}

		writeJSON(w, http.StatusOK, existing)
	}
}

// DeleteCalendar removes a calendar through the mutation pipeline, promoting
// a new default and repairing SLA references as needed.
func DeleteCalendar(calendars *storage.CalendarRepository, pipeline *calendar.Pipeline) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := mux.Vars(r)["id"]

		existing, err := calendars.GetByID(r.Context(), id)
		if err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to query calendar")
			return
		}
		if existing == nil {
			middleware.WriteError(w, http.StatusNotFound, middleware.ErrNotFound, "Calendar not found")
			return
		}

		if err := pipeline.Delete(r.Context(), id); err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to delete calendar")
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

// SyncCalendar triggers a manual sync for one calendar.
func SyncCalendar(calendars *storage.CalendarRepository, syncService *calendar.SyncService, hub *websocket.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cal, err := calendars.GetByID(r.Context(), mux.Vars(r)["id"])
		if err != nil || cal == nil {
			middleware.WriteError(w, http.StatusNotFound, middleware.ErrNotFound, "Calendar not found")
			return
		}

		writeJSON(w, http.StatusAccepted, map[string]string{"status": "syncing"})

		go func() {
			ctx := context.Background()

			result, err := syncService.Sync(ctx, cal, true)
			if hub == nil {
				return
			}
			broadcaster := websocket.NewEventBroadcaster(hub)
			if err != nil {
				broadcaster.BroadcastSyncError(cal.ID, cal.Name, err)
				return
			}
			if result.Error != nil {
				broadcaster.BroadcastSyncError(cal.ID, cal.Name, result.Error)
				return
			}
			broadcaster.BroadcastSyncCompleted(*result)
		}()
	}
}

// SyncAllCalendars triggers a background sync pass over every calendar.
func SyncAllCalendars(scheduler *calendar.Scheduler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		scheduler.TriggerSyncAll()
		writeJSON(w, http.StatusAccepted, map[string]string{"status": "syncing"})
	}
}

// ListFeeds returns the read-only catalog of known public-holiday feeds.
func ListFeeds() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		feeds, err := calendar.FeedCatalog()
		if err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to load feed catalog")
			return
		}

		writeJSON(w, http.StatusOK, feeds)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
