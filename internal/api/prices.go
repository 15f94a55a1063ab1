package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/erazemk/pokevault/internal/model"
	"github.com/erazemk/pokevault/internal/pricing"
	"github.com/erazemk/pokevault/internal/refresh"
)

const (
	defaultSearchLimit = 12
	maxSearchLimit     = 50
)

// Searcher finds cards in the price API.
type Searcher interface {
	Search(ctx context.Context, name string, limit int) ([]model.RemoteCard, error)
}

// Refresher runs the gated price refresh.
type Refresher interface {
	Refresh(ctx context.Context, owner string, force bool) (*refresh.Result, error)
	LastRefresh(ctx context.Context, owner string) (*time.Time, error)
}

// PricesHandler handles search and price refresh endpoints.
type PricesHandler struct {
	Search    Searcher
	Refresher Refresher
}

// SearchCards handles GET /api/search.
func (h *PricesHandler) SearchCards(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimSpace(r.URL.Query().Get("name"))
	if name == "" {
		jsonError(w, http.StatusBadRequest, "Please provide a card name")
		return
	}

	limit := defaultSearchLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > maxSearchLimit {
			jsonError(w, http.StatusBadRequest, "limit must be between 1 and "+strconv.Itoa(maxSearchLimit))
			return
		}
		limit = n
	}

	cards, err := h.Search.Search(r.Context(), name, limit)
	if err != nil {
		var ue *pricing.UnavailableError
		if errors.As(err, &ue) {
			jsonError(w, http.StatusServiceUnavailable, ue.Message)
			return
		}
		if errors.Is(err, pricing.ErrUnavailable) {
			jsonError(w, http.StatusServiceUnavailable, "API unavailable.")
			return
		}
		serverError(w, r, "failed to search cards", err)
		return
	}
	if cards == nil {
		cards = []model.RemoteCard{}
	}
	jsonResponse(w, http.StatusOK, cards)
}

// RefreshPrices handles POST /api/refresh-prices.
func (h *PricesHandler) RefreshPrices(w http.ResponseWriter, r *http.Request) {
	// The batch keeps going if the client disconnects so the watermark
	// always reflects a finished run.
	ctx := context.WithoutCancel(r.Context())

	// One slow lookup per item can outlast the server's write timeout.
	if err := http.NewResponseController(w).SetWriteDeadline(time.Time{}); err != nil {
		slog.DebugContext(r.Context(), "keeping write deadline for refresh", "error", err)
	}

	result, err := h.Refresher.Refresh(ctx, principal(r).UserID, false)
	if err != nil {
		serverError(w, r, "failed to refresh prices", err)
		return
	}
	jsonResponse(w, http.StatusOK, result)
}

// LastRefresh handles GET /api/last-refresh.
func (h *PricesHandler) LastRefresh(w http.ResponseWriter, r *http.Request) {
	last, err := h.Refresher.LastRefresh(r.Context(), principal(r).UserID)
	if err != nil {
		serverError(w, r, "failed to read last refresh", err)
		return
	}
	jsonResponse(w, http.StatusOK, map[string]*time.Time{"last_refresh": last})
}
