package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/sla-calendar/backend/internal/api/middleware"
	"github.com/sla-calendar/backend/internal/storage"
	"github.com/sla-calendar/backend/internal/storage/models"
)

// SLARequest is the create/update payload for an SLA policy.
type SLARequest struct {
	Name       string `json:"name"`
	CalendarID string `json:"calendar_id,omitempty"`
}

// ListSLAs returns all SLA policies.
func ListSLAs(slas *storage.SLARepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := slas.List(r.Context())
		if err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to query SLAs")
			return
		}

		if list == nil {
			list = []models.SLA{}
		}

		writeJSON(w, http.StatusOK, list)
	}
}

// CreateSLA creates an SLA policy. A missing calendar reference falls back to
// the default calendar; a dangling one is rejected.
func CreateSLA(slas *storage.SLARepository, calendars *storage.CalendarRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req SLARequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrBadRequest, "Invalid request body")
			return
		}

		if req.Name == "" {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrValidation, "Name is required")
			return
		}

		calendarID, ok := resolveCalendarID(w, r, calendars, req.CalendarID)
		if !ok {
			return
		}

		sla := &models.SLA{
			Name:       req.Name,
			CalendarID: calendarID,
		}
		if err := slas.Create(r.Context(), sla); err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to create SLA")
			return
		}

		writeJSON(w, http.StatusCreated, sla)
	}
}

// GetSLA returns a single SLA by ID.
func GetSLA(slas *storage.SLARepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sla, err := slas.GetByID(r.Context(), mux.Vars(r)["id"])
		if err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to query SLA")
			return
		}
		if sla == nil {
			middleware.WriteError(w, http.StatusNotFound, middleware.ErrNotFound, "SLA not found")
			return
		}

		writeJSON(w, http.StatusOK, sla)
	}
}

// UpdateSLA updates an existing SLA policy.
func UpdateSLA(slas *storage.SLARepository, calendars *storage.CalendarRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sla, err := slas.GetByID(r.Context(), mux.Vars(r)["id"])
		if err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to query SLA")
			return
		}
		if sla == nil {
			middleware.WriteError(w, http.StatusNotFound, middleware.ErrNotFound, "SLA not found")
			return
		}

		var req SLARequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrBadRequest, "Invalid request body")
			return
		}

		calendarID, ok := resolveCalendarID(w, r, calendars, req.CalendarID)
		if !ok {
			return
		}

		sla.Name = req.Name
		sla.CalendarID = calendarID
		if err := slas.Update(r.Context(), sla); err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to update SLA")
			return
		}

		writeJSON(w, http.StatusOK, sla)
	}
}

// DeleteSLA removes an SLA policy.
func DeleteSLA(slas *storage.SLARepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := slas.Delete(r.Context(), mux.Vars(r)["id"]); err != nil {
			middleware.WriteError(w, http.StatusNotFound, middleware.ErrNotFound, "SLA not found")
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

// resolveCalendarID validates a requested calendar reference, substituting
// the default calendar when the request leaves it empty. Writes an error
// response and returns false when the reference cannot be resolved.
func resolveCalendarID(w http.ResponseWriter, r *http.Request, calendars *storage.CalendarRepository, requested string) (string, bool) {
	if requested != "" {
		exists, err := calendars.Exists(r.Context(), requested)
		if err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to verify calendar")
			return "", false
		}
		if !exists {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrValidation, "calendar_id does not reference an existing calendar")
			return "", false
		}
		return requested, true
	}

	def, err := calendars.GetDefault(r.Context())
	if err != nil {
		middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to query default calendar")
		return "", false
	}
	if def == nil {
		// No calendars yet; the enforcer repairs the reference once one exists.
		return "", true
	}
	return def.ID, true
}
