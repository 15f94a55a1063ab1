package api

import (
	"context"
	"database/sql"
	"net/http"
	"time"
)

// Health handles GET /healthz.
func Health(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := db.PingContext(ctx); err != nil {
			jsonResponse(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded", "db": "unreachable"})
			return
		}
		jsonResponse(w, http.StatusOK, map[string]string{"status": "ok", "db": "ok"})
	}
}
