package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/erazemk/pokevault/internal/model"
)

// NewCard holds the caller-supplied fields of a card being added.
type NewCard struct {
	Name         string
	Rarity       string
	CurrentPrice decimal.Decimal
	Emoji        string
	Image        string
}

// CreateCard adds a card to the user's collection and returns its id.
// A missing emoji falls back to model.DefaultEmoji.
func CreateCard(ctx context.Context, db *sql.DB, userID string, c NewCard) (int64, error) {
	if c.Emoji == "" {
		c.Emoji = model.DefaultEmoji
	}

	var id int64
	err := db.QueryRowContext(ctx,
		`INSERT INTO cards (name, rarity, current_price, emoji, image, user_id)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id`,
		c.Name, c.Rarity, c.CurrentPrice, c.Emoji, c.Image, userID,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("creating card: %w", err)
	}
	return id, nil
}

// GetCard returns one of the user's cards, or nil if it does not exist.
func GetCard(ctx context.Context, db *sql.DB, userID string, id int64) (*model.Card, error) {
	card := &model.Card{UserID: userID}
	err := db.QueryRowContext(ctx,
		`SELECT id, name, rarity, current_price, emoji, image, created_at
		 FROM cards WHERE id = $1 AND user_id = $2`, id, userID,
	).Scan(&card.ID, &card.Name, &card.Rarity, &card.CurrentPrice, &card.Emoji, &card.Image, &card.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting card: %w", err)
	}
	return card, nil
}

// ListCards returns the user's cards, newest first.
func ListCards(ctx context.Context, db *sql.DB, userID string) ([]model.Card, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, name, rarity, current_price, emoji, image, created_at
		 FROM cards WHERE user_id = $1
		 ORDER BY created_at DESC, id DESC`, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing cards: %w", err)
	}
	defer rows.Close()

	var cards []model.Card
	for rows.Next() {
		card := model.Card{UserID: userID}
		if err := rows.Scan(&card.ID, &card.Name, &card.Rarity, &card.CurrentPrice, &card.Emoji, &card.Image, &card.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning card: %w", err)
		}
		cards = append(cards, card)
	}
	return cards, rows.Err()
}

// DeleteCard removes one of the user's cards and reports how many rows went.
// Cards owned by someone else are never touched.
func DeleteCard(ctx context.Context, db *sql.DB, userID string, id int64) (int64, error) {
	result, err := db.ExecContext(ctx,
		`DELETE FROM cards WHERE id = $1 AND user_id = $2`, id, userID,
	)
	if err != nil {
		return 0, fmt.Errorf("deleting card: %w", err)
	}
	return result.RowsAffected()
}

// UpdateCardQuote stores a refreshed market price and image on a card. An
// uploaded photo is kept; only the price changes.
func UpdateCardQuote(ctx context.Context, db *sql.DB, userID string, id int64, price decimal.Decimal, image string) error {
	_, err := db.ExecContext(ctx,
		`UPDATE cards
		 SET current_price = $1,
		     image = CASE WHEN photo_uploaded THEN image ELSE $2 END
		 WHERE id = $3 AND user_id = $4`,
		price, image, id, userID,
	)
	if err != nil {
		return fmt.Errorf("updating card price: %w", err)
	}
	return nil
}

// SetCardImage replaces a card's image URL with an uploaded photo, which
// price refreshes leave alone from then on. It reports false if the card
// does not belong to the user.
func SetCardImage(ctx context.Context, db *sql.DB, userID string, id int64, image string) (bool, error) {
	result, err := db.ExecContext(ctx,
		`UPDATE cards SET image = $1, photo_uploaded = TRUE WHERE id = $2 AND user_id = $3`,
		image, id, userID,
	)
	if err != nil {
		return false, fmt.Errorf("setting card image: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("setting card image: %w", err)
	}
	return n > 0, nil
}
