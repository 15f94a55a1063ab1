package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// LastPriceRefreshKey is the settings key holding the completion time of the
// most recent price refresh.
const LastPriceRefreshKey = "last_price_refresh"

// GlobalScope is the settings owner used for values shared by every user.
const GlobalScope = "*"

// GetSetting returns a stored value, or ok=false if the key has never been set.
func GetSetting(ctx context.Context, db *sql.DB, scope, key string) (value string, ok bool, err error) {
	err = db.QueryRowContext(ctx,
		`SELECT value FROM settings WHERE user_id = $1 AND key = $2`, scope, key,
	).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("querying setting %s: %w", key, err)
	}
	return value, true, nil
}

// PutSetting inserts or overwrites a value.
func PutSetting(ctx context.Context, db *sql.DB, scope, key, value string, now time.Time) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO settings (user_id, key, value, updated_at)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (user_id, key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		scope, key, value, now.UTC(),
	)
	if err != nil {
		return fmt.Errorf("storing setting %s: %w", key, err)
	}
	return nil
}

// LastPriceRefresh returns when prices were last refreshed for scope, or nil
// if they never were.
func LastPriceRefresh(ctx context.Context, db *sql.DB, scope string) (*time.Time, error) {
	var t time.Time
	err := db.QueryRowContext(ctx,
		`SELECT updated_at FROM settings WHERE user_id = $1 AND key = $2`,
		scope, LastPriceRefreshKey,
	).Scan(&t)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying %s: %w", LastPriceRefreshKey, err)
	}
	t = t.UTC()
	return &t, nil
}

// MarkPriceRefresh records at as the latest refresh time for scope.
func MarkPriceRefresh(ctx context.Context, db *sql.DB, scope string, at time.Time) error {
	return PutSetting(ctx, db, scope, LastPriceRefreshKey, "completed", at)
}
