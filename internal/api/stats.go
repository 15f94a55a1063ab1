package api

import (
	"database/sql"
	"net/http"

	"github.com/erazemk/pokevault/internal/store"
)

// StatsHandler serves the collection overview.
type StatsHandler struct {
	DB *sql.DB
}

// Get handles GET /api/stats.
func (h *StatsHandler) Get(w http.ResponseWriter, r *http.Request) {
	stats, err := store.GetStats(r.Context(), h.DB, principal(r).UserID)
	if err != nil {
		serverError(w, r, "failed to load stats", err)
		return
	}
	jsonResponse(w, http.StatusOK, stats)
}
