package store

import (
	"context"
	"database/sql"
	"fmt"
)

// ItemRef identifies a row by id and the name used to look up its price.
type ItemRef struct {
	ID   int64
	Name string
}

// ListCardRefs returns id and name of every card the user owns, in insertion order.
func ListCardRefs(ctx context.Context, db *sql.DB, userID string) ([]ItemRef, error) {
	refs, err := listRefs(ctx, db, `SELECT id, name FROM cards WHERE user_id = $1 ORDER BY id`, userID)
	if err != nil {
		return nil, fmt.Errorf("listing card refs: %w", err)
	}
	return refs, nil
}

// ListWishlistRefs returns id and name of every wishlist entry, in insertion order.
func ListWishlistRefs(ctx context.Context, db *sql.DB, userID string) ([]ItemRef, error) {
	refs, err := listRefs(ctx, db, `SELECT id, name FROM wishlist WHERE user_id = $1 ORDER BY id`, userID)
	if err != nil {
		return nil, fmt.Errorf("listing wishlist refs: %w", err)
	}
	return refs, nil
}

func listRefs(ctx context.Context, db *sql.DB, query, userID string) ([]ItemRef, error) {
	rows, err := db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var refs []ItemRef
	for rows.Next() {
		var ref ItemRef
		if err := rows.Scan(&ref.ID, &ref.Name); err != nil {
			return nil, err
		}
		refs = append(refs, ref)
	}
	return refs, rows.Err()
}
