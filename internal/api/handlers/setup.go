package handlers

import (
	"net"
	"net/http"
	"strings"

	"github.com/sla-calendar/backend/internal/api/middleware"
	"github.com/sla-calendar/backend/internal/calendar"
)

// Setup runs the first-run bootstrapper for the requesting client. Returns
// the created or refreshed default calendar, or 204 when the call was a
// no-op (rate-limited, or no geo suggestion available).
func Setup(bootstrapper *calendar.Bootstrapper) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cal, err := bootstrapper.Setup(r.Context(), clientIP(r))
		if err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Setup failed")
			return
		}
		if cal == nil {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		writeJSON(w, http.StatusOK, cal)
	}
}

// clientIP extracts the originating client address, preferring the first
// X-Forwarded-For hop when the service sits behind a proxy.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if i := strings.IndexByte(fwd, ','); i >= 0 {
			fwd = fwd[:i]
		}
		return strings.TrimSpace(fwd)
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
