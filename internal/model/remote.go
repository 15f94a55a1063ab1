package model

import "github.com/shopspring/decimal"

// RemoteCard is a price-lookup search result. It is never persisted directly;
// the client promotes it into a Card or WishlistItem on request.
type RemoteCard struct {
	APIID        string          `json:"api_id"`
	Name         string          `json:"name"`
	Rarity       string          `json:"rarity"`
	SetName      string          `json:"set_name"`
	Image        string          `json:"image"`
	CurrentPrice decimal.Decimal `json:"current_price"`
}
