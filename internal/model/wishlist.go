package model

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Priority ranks how much a wishlist item is wanted.
type Priority string

// Wishlist priorities.
const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "med"
	PriorityHigh   Priority = "high"
)

// ParsePriority validates a priority. The empty string means PriorityLow.
func ParsePriority(s string) (Priority, error) {
	switch p := Priority(s); p {
	case "":
		return PriorityLow, nil
	case PriorityLow, PriorityMedium, PriorityHigh:
		return p, nil
	default:
		return "", fmt.Errorf("invalid priority %q", s)
	}
}

// WishlistItem represents a desired, not-yet-owned collectible.
type WishlistItem struct {
	ID           int64           `json:"id"`
	UserID       string          `json:"user_id"`
	Name         string          `json:"name"`
	Rarity       string          `json:"rarity"`
	CurrentPrice decimal.Decimal `json:"current_price"`
	Priority     Priority        `json:"priority"`
	Emoji        string          `json:"emoji"`
	Image        string          `json:"image"`
	CreatedAt    time.Time       `json:"created_at"`
}
