package api

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/erazemk/pokevault/internal/imaging"
	"github.com/erazemk/pokevault/internal/model"
	"github.com/erazemk/pokevault/internal/storage"
	"github.com/erazemk/pokevault/internal/store"
)

// PhotoStore keeps uploaded card photos and returns their public URL.
type PhotoStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
}

// CardsHandler handles the collection endpoints.
type CardsHandler struct {
	DB     *sql.DB
	Photos PhotoStore
}

type createCardRequest struct {
	Name         string           `json:"name"`
	Rarity       string           `json:"rarity"`
	CurrentPrice *decimal.Decimal `json:"current_price"`
	Emoji        string           `json:"emoji"`
	Image        string           `json:"image"`
}

// priceOrZero returns the submitted price, or zero when none was given.
func priceOrZero(p *decimal.Decimal) (decimal.Decimal, bool) {
	if p == nil {
		return decimal.Zero, true
	}
	return *p, !p.IsNegative()
}

func parseID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	return id, err == nil && id > 0
}

// List handles GET /api/cards.
func (h *CardsHandler) List(w http.ResponseWriter, r *http.Request) {
	cards, err := store.ListCards(r.Context(), h.DB, principal(r).UserID)
	if err != nil {
		serverError(w, r, "failed to list cards", err)
		return
	}
	cards = filterByName(cards, r.URL.Query().Get("q"), func(c model.Card) string { return c.Name })
	if cards == nil {
		cards = []model.Card{}
	}
	jsonResponse(w, http.StatusOK, cards)
}

// Create handles POST /api/cards.
func (h *CardsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createCardRequest
	if err := decodeJSON(w, r, &req); err != nil {
		bodyError(w, err)
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		jsonError(w, http.StatusBadRequest, "name required")
		return
	}
	price, ok := priceOrZero(req.CurrentPrice)
	if !ok {
		jsonError(w, http.StatusBadRequest, "current_price must not be negative")
		return
	}

	id, err := store.CreateCard(r.Context(), h.DB, principal(r).UserID, store.NewCard{
		Name:         req.Name,
		Rarity:       req.Rarity,
		CurrentPrice: price,
		Emoji:        req.Emoji,
		Image:        req.Image,
	})
	if err != nil {
		serverError(w, r, "failed to add card", err)
		return
	}

	jsonResponse(w, http.StatusCreated, map[string]any{"id": id, "message": "Card added!"})
}

// Delete handles DELETE /api/cards/{id}.
// Ids that are unknown or owned by someone else are a no-op.
func (h *CardsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r)
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid card id")
		return
	}

	if _, err := store.DeleteCard(r.Context(), h.DB, principal(r).UserID, id); err != nil {
		serverError(w, r, "failed to delete card", err)
		return
	}

	messageResponse(w, http.StatusOK, "Card deleted!")
}

// UploadImage handles PUT /api/cards/{id}/image.
func (h *CardsHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r)
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid card id")
		return
	}
	if h.Photos == nil {
		jsonError(w, http.StatusServiceUnavailable, storage.ErrNotConfigured.Error())
		return
	}

	userID := principal(r).UserID
	card, err := store.GetCard(r.Context(), h.DB, userID, id)
	if err != nil {
		serverError(w, r, "failed to get card", err)
		return
	}
	if card == nil {
		jsonError(w, http.StatusNotFound, "card not found")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, imaging.MaxUploadBytes+1<<20)
	if err := r.ParseMultipartForm(imaging.MaxUploadBytes); err != nil {
		jsonError(w, http.StatusBadRequest, "file too large or invalid multipart form")
		return
	}

	file, _, err := r.FormFile("image")
	if err != nil {
		jsonError(w, http.StatusBadRequest, "image file required")
		return
	}
	defer file.Close()

	photo, err := imaging.ProcessCardPhoto(file)
	if err != nil {
		if errors.Is(err, imaging.ErrUnsupported) || errors.Is(err, imaging.ErrTooSmall) || errors.Is(err, imaging.ErrTooLarge) {
			jsonError(w, http.StatusBadRequest, err.Error())
			return
		}
		serverError(w, r, "failed to process image", err)
		return
	}

	url, err := h.Photos.Put(r.Context(), storage.PhotoKey(userID, id, photo.Data), photo.Data, photo.ContentType)
	if err != nil {
		serverError(w, r, "failed to store image", err)
		return
	}

	if _, err := store.SetCardImage(r.Context(), h.DB, userID, id, url); err != nil {
		serverError(w, r, "failed to save image", err)
		return
	}

	jsonResponse(w, http.StatusOK, map[string]string{"image": url, "message": "Image updated!"})
}
