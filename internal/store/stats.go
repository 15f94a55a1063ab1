package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/erazemk/pokevault/internal/model"
)

const statsListSize = 5

// GetStats aggregates the user's collection into the dashboard overview.
func GetStats(ctx context.Context, db *sql.DB, userID string) (*model.Stats, error) {
	stats := &model.Stats{}

	var total, avg decimal.Decimal
	err := db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(current_price), 0), COALESCE(AVG(current_price), 0)
		 FROM cards WHERE user_id = $1`, userID,
	).Scan(&stats.TotalCards, &total, &avg)
	if err != nil {
		return nil, fmt.Errorf("aggregating cards: %w", err)
	}
	stats.TotalValue = total.StringFixed(2)
	stats.AvgPrice = avg.StringFixed(2)

	err = db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM wishlist WHERE user_id = $1`, userID,
	).Scan(&stats.TotalWishlist)
	if err != nil {
		return nil, fmt.Errorf("counting wishlist: %w", err)
	}

	stats.TopCards, err = cardSummaries(ctx, db,
		`SELECT name, current_price, image, rarity, emoji, created_at
		 FROM cards WHERE user_id = $1
		 ORDER BY current_price DESC, id ASC
		 LIMIT $2`, userID, false)
	if err != nil {
		return nil, fmt.Errorf("listing top cards: %w", err)
	}

	stats.RecentCards, err = cardSummaries(ctx, db,
		`SELECT name, current_price, image, rarity, emoji, created_at
		 FROM cards WHERE user_id = $1
		 ORDER BY created_at DESC, id DESC
		 LIMIT $2`, userID, true)
	if err != nil {
		return nil, fmt.Errorf("listing recent cards: %w", err)
	}

	return stats, nil
}

func cardSummaries(ctx context.Context, db *sql.DB, query, userID string, withCreated bool) ([]model.CardSummary, error) {
	rows, err := db.QueryContext(ctx, query, userID, statsListSize)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	summaries := []model.CardSummary{}
	for rows.Next() {
		var s model.CardSummary
		var created sql.NullTime
		if err := rows.Scan(&s.Name, &s.CurrentPrice, &s.Image, &s.Rarity, &s.Emoji, &created); err != nil {
			return nil, err
		}
		if withCreated && created.Valid {
			t := created.Time
			s.CreatedAt = &t
		}
		summaries = append(summaries, s)
	}
	return summaries, rows.Err()
}
