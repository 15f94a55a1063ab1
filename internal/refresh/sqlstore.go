package refresh

import (
	"context"
	"database/sql"
	"time"

	"github.com/erazemk/pokevault/internal/pricing"
	"github.com/erazemk/pokevault/internal/store"
)

// SQLStore adapts the store package to the job's Store interface.
type SQLStore struct {
	DB *sql.DB
}

// Items lists cards first, then wishlist entries.
func (s SQLStore) Items(ctx context.Context, owner string) ([]Item, error) {
	cards, err := store.ListCardRefs(ctx, s.DB, owner)
	if err != nil {
		return nil, err
	}
	wishlist, err := store.ListWishlistRefs(ctx, s.DB, owner)
	if err != nil {
		return nil, err
	}

	items := make([]Item, 0, len(cards)+len(wishlist))
	for _, r := range cards {
		items = append(items, Item{Kind: KindCard, ID: r.ID, Name: r.Name})
	}
	for _, r := range wishlist {
		items = append(items, Item{Kind: KindWishlist, ID: r.ID, Name: r.Name})
	}
	return items, nil
}

func (s SQLStore) UpdateCardQuote(ctx context.Context, owner string, id int64, q pricing.Quote) error {
	return store.UpdateCardQuote(ctx, s.DB, owner, id, q.Price, q.Image)
}

func (s SQLStore) UpdateWishlistQuote(ctx context.Context, owner string, id int64, q pricing.Quote) error {
	return store.UpdateWishlistQuote(ctx, s.DB, owner, id, q.Price, q.Image)
}

func (s SQLStore) LastRefresh(ctx context.Context, scope string) (*time.Time, error) {
	return store.LastPriceRefresh(ctx, s.DB, scope)
}

func (s SQLStore) MarkRefreshed(ctx context.Context, scope string, at time.Time) error {
	return store.MarkPriceRefresh(ctx, s.DB, scope, at)
}
