package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// DefaultEmoji is stored when a card or wishlist item is added without one.
const DefaultEmoji = "🃏"

// Card represents one owned collectible.
type Card struct {
	ID           int64           `json:"id"`
	UserID       string          `json:"user_id"`
	Name         string          `json:"name"`
	Rarity       string          `json:"rarity"`
	CurrentPrice decimal.Decimal `json:"current_price"`
	Emoji        string          `json:"emoji"`
	Image        string          `json:"image"`
	CreatedAt    time.Time       `json:"created_at"`
}

// CardSummary is the reduced card shape used by the stats overview.
type CardSummary struct {
	Name         string          `json:"name"`
	CurrentPrice decimal.Decimal `json:"current_price"`
	Image        string          `json:"image"`
	Rarity       string          `json:"rarity"`
	Emoji        string          `json:"emoji"`
	CreatedAt    *time.Time      `json:"created_at,omitempty"`
}
