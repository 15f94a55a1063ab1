// Package refresh keeps stored card prices fresh without exceeding the
// price API's usage budget.
//
// A refresh runs at most once per interval per watermark scope. When it runs,
// every card and then every wishlist entry of the owner is looked up one at a
// time; a failed lookup only skips that item.
package refresh

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/erazemk/pokevault/internal/pricing"
)

// DefaultInterval is the minimum time between two refreshes.
const DefaultInterval = 24 * time.Hour

// DefaultLookupTimeout bounds a single price lookup.
const DefaultLookupTimeout = 10 * time.Second

// Kind tells which collection an item belongs to.
type Kind int

const (
	KindCard Kind = iota + 1
	KindWishlist
)

func (k Kind) String() string {
	switch k {
	case KindCard:
		return "card"
	case KindWishlist:
		return "wishlist"
	default:
		return "unknown(" + strconv.Itoa(int(k)) + ")"
	}
}

// apply writes q onto the row of this kind.
func (k Kind) apply(ctx context.Context, w Writer, owner string, id int64, q pricing.Quote) error {
	switch k {
	case KindCard:
		return w.UpdateCardQuote(ctx, owner, id, q)
	case KindWishlist:
		return w.UpdateWishlistQuote(ctx, owner, id, q)
	default:
		return fmt.Errorf("unknown item kind %d", int(k))
	}
}

// Item is one row to be re-priced.
type Item struct {
	Kind Kind
	ID   int64
	Name string
}

// Quoter looks up the current price of a card by name.
type Quoter interface {
	Quote(ctx context.Context, name string) (pricing.Quote, error)
}

// Writer persists refreshed quotes, one method per collection.
type Writer interface {
	UpdateCardQuote(ctx context.Context, owner string, id int64, q pricing.Quote) error
	UpdateWishlistQuote(ctx context.Context, owner string, id int64, q pricing.Quote) error
}

// Store is everything the job needs from persistence.
type Store interface {
	Writer
	Items(ctx context.Context, owner string) ([]Item, error)
	LastRefresh(ctx context.Context, scope string) (*time.Time, error)
	MarkRefreshed(ctx context.Context, scope string, at time.Time) error
}

// Gate reports whether a refresh is due. A nil last means prices were never
// refreshed. When not due, remaining is the time left until the next one.
func Gate(now time.Time, last *time.Time, interval time.Duration) (remaining time.Duration, due bool) {
	if last == nil {
		return 0, true
	}
	elapsed := now.Sub(*last)
	if elapsed >= interval {
		return 0, true
	}
	return interval - elapsed, false
}

// Execute looks up every item in order and persists each match. It returns
// the number of rows updated. A failure on one item never stops the rest.
func Execute(ctx context.Context, owner string, items []Item, quoter Quoter, w Writer, timeout time.Duration, logger *slog.Logger) int {
	if logger == nil {
		logger = slog.Default()
	}

	updated := 0
	for _, item := range items {
		if err := executeOne(ctx, owner, item, quoter, w, timeout); err != nil {
			if errors.Is(err, pricing.ErrNoMatch) {
				logger.Debug("no price match", "kind", item.Kind, "id", item.ID, "name", item.Name)
			} else {
				logger.Warn("could not refresh price", "kind", item.Kind, "id", item.ID, "name", item.Name, "error", err)
			}
			continue
		}
		updated++
	}
	return updated
}

func executeOne(ctx context.Context, owner string, item Item, quoter Quoter, w Writer, timeout time.Duration) error {
	lookupCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		lookupCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	q, err := quoter.Quote(lookupCtx, item.Name)
	if err != nil {
		return err
	}
	return item.Kind.apply(ctx, w, owner, item.ID, q)
}

// Result summarizes one invocation of the job.
type Result struct {
	Message     string        `json:"message"`
	Skipped     bool          `json:"skipped"`
	Updated     int           `json:"-"`
	Total       int           `json:"-"`
	Remaining   time.Duration `json:"-"`
	RefreshedAt *time.Time    `json:"-"`
}

// Job runs gated price refreshes.
type Job struct {
	Store         Store
	Quoter        Quoter
	Interval      time.Duration
	LookupTimeout time.Duration
	Now           func() time.Time
	Logger        *slog.Logger

	// SharedScope, when set, makes every owner share one watermark.
	SharedScope string
}

func (j *Job) now() time.Time {
	if j.Now != nil {
		return j.Now()
	}
	return time.Now()
}

func (j *Job) interval() time.Duration {
	if j.Interval > 0 {
		return j.Interval
	}
	return DefaultInterval
}

func (j *Job) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}

func (j *Job) scope(owner string) string {
	if j.SharedScope != "" {
		return j.SharedScope
	}
	return owner
}

// Refresh re-prices the owner's cards and wishlist unless the last refresh
// is more recent than the interval. force skips the gate.
// Only watermark and listing errors are returned.
func (j *Job) Refresh(ctx context.Context, owner string, force bool) (*Result, error) {
	scope := j.scope(owner)
	start := j.now()

	if !force {
		last, err := j.Store.LastRefresh(ctx, scope)
		if err != nil {
			return nil, fmt.Errorf("reading refresh watermark: %w", err)
		}
		if remaining, due := Gate(start, last, j.interval()); !due {
			return &Result{
				Message:   SkippedMessage(remaining),
				Skipped:   true,
				Remaining: remaining,
			}, nil
		}
	}

	items, err := j.Store.Items(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("listing items to refresh: %w", err)
	}

	updated := Execute(ctx, owner, items, j.Quoter, j.Store, j.LookupTimeout, j.logger())
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("refresh interrupted: %w", err)
	}

	done := j.now()
	if err := j.Store.MarkRefreshed(ctx, scope, done); err != nil {
		return nil, fmt.Errorf("writing refresh watermark: %w", err)
	}

	j.logger().Info("prices refreshed", "owner", owner, "updated", updated, "total", len(items),
		"duration", done.Sub(start).Round(time.Millisecond))

	return &Result{
		Message:     fmt.Sprintf("Updated %d of %d cards", updated, len(items)),
		Updated:     updated,
		Total:       len(items),
		RefreshedAt: &done,
	}, nil
}

// LastRefresh returns when the owner's prices were last refreshed, or nil.
func (j *Job) LastRefresh(ctx context.Context, owner string) (*time.Time, error) {
	return j.Store.LastRefresh(ctx, j.scope(owner))
}

// SkippedMessage tells the caller how long until the next refresh.
func SkippedMessage(remaining time.Duration) string {
	return "Prices are up to date. Next refresh in " +
		strconv.FormatFloat(remaining.Hours(), 'f', 1, 64) + " hours."
}
