package api

import (
	"database/sql"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/erazemk/pokevault/internal/model"
	"github.com/erazemk/pokevault/internal/store"
)

// WishlistHandler handles the wishlist endpoints.
type WishlistHandler struct {
	DB *sql.DB
}

type createWishlistRequest struct {
	Name         string           `json:"name"`
	Rarity       string           `json:"rarity"`
	CurrentPrice *decimal.Decimal `json:"current_price"`
	Priority     string           `json:"priority"`
	Emoji        string           `json:"emoji"`
	Image        string           `json:"image"`
}

type updatePriorityRequest struct {
	Priority string `json:"priority"`
}

// List handles GET /api/wishlist.
func (h *WishlistHandler) List(w http.ResponseWriter, r *http.Request) {
	items, err := store.ListWishlist(r.Context(), h.DB, principal(r).UserID)
	if err != nil {
		serverError(w, r, "failed to list wishlist", err)
		return
	}
	items = filterByName(items, r.URL.Query().Get("q"), func(i model.WishlistItem) string { return i.Name })
	if items == nil {
		items = []model.WishlistItem{}
	}
	jsonResponse(w, http.StatusOK, items)
}

// Create handles POST /api/wishlist.
func (h *WishlistHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createWishlistRequest
	if err := decodeJSON(w, r, &req); err != nil {
		bodyError(w, err)
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		jsonError(w, http.StatusBadRequest, "name required")
		return
	}
	priority, err := model.ParsePriority(req.Priority)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "priority must be one of low, med, high")
		return
	}
	price, ok := priceOrZero(req.CurrentPrice)
	if !ok {
		jsonError(w, http.StatusBadRequest, "current_price must not be negative")
		return
	}

	id, err := store.CreateWishlistItem(r.Context(), h.DB, principal(r).UserID, store.NewWishlistItem{
		Name:         req.Name,
		Rarity:       req.Rarity,
		CurrentPrice: price,
		Priority:     priority,
		Emoji:        req.Emoji,
		Image:        req.Image,
	})
	if err != nil {
		serverError(w, r, "failed to add to wishlist", err)
		return
	}

	jsonResponse(w, http.StatusCreated, map[string]any{"id": id, "message": "Added to wishlist!"})
}

// Delete handles DELETE /api/wishlist/{id}.
func (h *WishlistHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r)
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid wishlist id")
		return
	}

	if _, err := store.DeleteWishlistItem(r.Context(), h.DB, principal(r).UserID, id); err != nil {
		serverError(w, r, "failed to remove from wishlist", err)
		return
	}

	messageResponse(w, http.StatusOK, "Removed from wishlist!")
}

// UpdatePriority handles PATCH /api/wishlist/{id}/priority.
func (h *WishlistHandler) UpdatePriority(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r)
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid wishlist id")
		return
	}

	var req updatePriorityRequest
	if err := decodeJSON(w, r, &req); err != nil {
		bodyError(w, err)
		return
	}
	if req.Priority == "" {
		jsonError(w, http.StatusBadRequest, "priority required")
		return
	}
	priority, err := model.ParsePriority(req.Priority)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "priority must be one of low, med, high")
		return
	}

	if _, err := store.UpdateWishlistPriority(r.Context(), h.DB, principal(r).UserID, id, priority); err != nil {
		serverError(w, r, "failed to update priority", err)
		return
	}

	messageResponse(w, http.StatusOK, "Priority updated!")
}
