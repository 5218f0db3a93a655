package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/sla-calendar/backend/internal/storage"
)

// HealthResponse is the payload for health checks.
type HealthResponse struct {
	Status    string    `json:"status"`
	Database  string    `json:"database"`
	Timestamp time.Time `json:"timestamp"`
}

// HealthCheck returns a handler reporting service and database health.
func HealthCheck(db *storage.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := HealthResponse{
			Status:    "ok",
			Database:  "ok",
			Timestamp: time.Now().UTC(),
		}

		status := http.StatusOK
		if err := db.PingContext(r.Context()); err != nil {
			resp.Status = "degraded"
			resp.Database = err.Error()
			status = http.StatusServiceUnavailable
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(resp)
	}
}
