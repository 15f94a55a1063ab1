package api

import (
	"database/sql"
	"net/http"

	"github.com/erazemk/pokevault/internal/auth"
)

// Options wires the router to its collaborators. Photos may be nil, in
// which case photo uploads answer 503.
type Options struct {
	DB             *sql.DB
	Auth           *auth.Authenticator
	Search         Searcher
	Refresher      Refresher
	Photos         PhotoStore
	AllowedOrigins []string
}

// NewRouter creates the API router with all endpoints registered.
func NewRouter(opts Options) http.Handler {
	mux := http.NewServeMux()

	cardsHandler := &CardsHandler{DB: opts.DB, Photos: opts.Photos}
	wishlistHandler := &WishlistHandler{DB: opts.DB}
	statsHandler := &StatsHandler{DB: opts.DB}
	pricesHandler := &PricesHandler{Search: opts.Search, Refresher: opts.Refresher}

	authMW := AuthMiddleware(opts.Auth)
	read := func(h http.HandlerFunc) http.Handler { return authMW(h) }
	write := func(h http.HandlerFunc) http.Handler { return authMW(RequireWrite(h)) }

	// Public.
	mux.HandleFunc("GET /healthz", Health(opts.DB))

	// Collection.
	mux.Handle("GET /api/cards", read(cardsHandler.List))
	mux.Handle("POST /api/cards", write(cardsHandler.Create))
	mux.Handle("DELETE /api/cards/{id}", write(cardsHandler.Delete))
	mux.Handle("PUT /api/cards/{id}/image", write(cardsHandler.UploadImage))

	// Wishlist.
	mux.Handle("GET /api/wishlist", read(wishlistHandler.List))
	mux.Handle("POST /api/wishlist", write(wishlistHandler.Create))
	mux.Handle("DELETE /api/wishlist/{id}", write(wishlistHandler.Delete))
	mux.Handle("PATCH /api/wishlist/{id}/priority", write(wishlistHandler.UpdatePriority))

	// Overview and prices.
	mux.Handle("GET /api/stats", read(statsHandler.Get))
	mux.Handle("POST /api/refresh-prices", write(pricesHandler.RefreshPrices))
	mux.Handle("GET /api/last-refresh", read(pricesHandler.LastRefresh))
	mux.Handle("GET /api/search", read(pricesHandler.SearchCards))

	return LoggingMiddleware(CORSMiddleware(opts.AllowedOrigins)(mux))
}
