package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/erazemk/pokevault/internal/model"
)

// NewWishlistItem holds the caller-supplied fields of a wishlist entry.
type NewWishlistItem struct {
	Name         string
	Rarity       string
	CurrentPrice decimal.Decimal
	Priority     model.Priority
	Emoji        string
	Image        string
}

// CreateWishlistItem adds an entry to the user's wishlist and returns its id.
func CreateWishlistItem(ctx context.Context, db *sql.DB, userID string, w NewWishlistItem) (int64, error) {
	if w.Emoji == "" {
		w.Emoji = model.DefaultEmoji
	}
	if w.Priority == "" {
		w.Priority = model.PriorityLow
	}

	var id int64
	err := db.QueryRowContext(ctx,
		`INSERT INTO wishlist (name, rarity, current_price, priority, emoji, image, user_id)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id`,
		w.Name, w.Rarity, w.CurrentPrice, string(w.Priority), w.Emoji, w.Image, userID,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("creating wishlist item: %w", err)
	}
	return id, nil
}

// ListWishlist returns the user's wishlist, newest first.
func ListWishlist(ctx context.Context, db *sql.DB, userID string) ([]model.WishlistItem, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, name, rarity, current_price, priority, emoji, image, created_at
		 FROM wishlist WHERE user_id = $1
		 ORDER BY created_at DESC, id DESC`, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing wishlist: %w", err)
	}
	defer rows.Close()

	var items []model.WishlistItem
	for rows.Next() {
		item := model.WishlistItem{UserID: userID}
		var priority string
		if err := rows.Scan(&item.ID, &item.Name, &item.Rarity, &item.CurrentPrice, &priority, &item.Emoji, &item.Image, &item.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning wishlist item: %w", err)
		}
		item.Priority = model.Priority(priority)
		items = append(items, item)
	}
	return items, rows.Err()
}

// DeleteWishlistItem removes one of the user's wishlist entries.
func DeleteWishlistItem(ctx context.Context, db *sql.DB, userID string, id int64) (int64, error) {
	result, err := db.ExecContext(ctx,
		`DELETE FROM wishlist WHERE id = $1 AND user_id = $2`, id, userID,
	)
	if err != nil {
		return 0, fmt.Errorf("deleting wishlist item: %w", err)
	}
	return result.RowsAffected()
}

// UpdateWishlistPriority changes the priority of one of the user's entries.
func UpdateWishlistPriority(ctx context.Context, db *sql.DB, userID string, id int64, priority model.Priority) (int64, error) {
	result, err := db.ExecContext(ctx,
		`UPDATE wishlist SET priority = $1 WHERE id = $2 AND user_id = $3`,
		string(priority), id, userID,
	)
	if err != nil {
		return 0, fmt.Errorf("updating wishlist priority: %w", err)
	}
	return result.RowsAffected()
}

// UpdateWishlistQuote stores a refreshed market price and image on an entry.
func UpdateWishlistQuote(ctx context.Context, db *sql.DB, userID string, id int64, price decimal.Decimal, image string) error {
	_, err := db.ExecContext(ctx,
		`UPDATE wishlist SET current_price = $1, image = $2 WHERE id = $3 AND user_id = $4`,
		price, image, id, userID,
	)
	if err != nil {
		return fmt.Errorf("updating wishlist price: %w", err)
	}
	return nil
}
