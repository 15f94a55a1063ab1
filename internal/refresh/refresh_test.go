package refresh

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erazemk/pokevault/internal/db"
	"github.com/erazemk/pokevault/internal/pricing"
	"github.com/erazemk/pokevault/internal/store"
)

const owner = "5d9d1a52-8a0c-4a5b-9c1e-2f3a4b5c6d7e"

var quietLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// fakeQuoter answers from a fixed table and records every lookup.
type fakeQuoter struct {
	mu     sync.Mutex
	quotes map[string]pricing.Quote
	errs   map[string]error
	calls  []string
	block  bool
}

func (f *fakeQuoter) Quote(ctx context.Context, name string) (pricing.Quote, error) {
	f.mu.Lock()
	f.calls = append(f.calls, name)
	f.mu.Unlock()

	if f.block {
		<-ctx.Done()
		return pricing.Quote{}, ctx.Err()
	}
	if err, ok := f.errs[name]; ok {
		return pricing.Quote{}, err
	}
	if q, ok := f.quotes[name]; ok {
		return q, nil
	}
	return pricing.Quote{}, pricing.ErrNoMatch
}

// memStore is an in-memory Store.
type memStore struct {
	items     []Item
	applied   map[Kind]map[int64]pricing.Quote
	marks     map[string]time.Time
	failWrite map[int64]bool
	readErr   error
	markErr   error
}

func newMemStore(items ...Item) *memStore {
	return &memStore{
		items:   items,
		applied: map[Kind]map[int64]pricing.Quote{KindCard: {}, KindWishlist: {}},
		marks:   map[string]time.Time{},
	}
}

func (m *memStore) Items(context.Context, string) ([]Item, error) { return m.items, nil }

func (m *memStore) UpdateCardQuote(_ context.Context, _ string, id int64, q pricing.Quote) error {
	if m.failWrite[id] {
		return errors.New("disk full")
	}
	m.applied[KindCard][id] = q
	return nil
}

func (m *memStore) UpdateWishlistQuote(_ context.Context, _ string, id int64, q pricing.Quote) error {
	m.applied[KindWishlist][id] = q
	return nil
}

func (m *memStore) LastRefresh(_ context.Context, scope string) (*time.Time, error) {
	if m.readErr != nil {
		return nil, m.readErr
	}
	t, ok := m.marks[scope]
	if !ok {
		return nil, nil
	}
	return &t, nil
}

func (m *memStore) MarkRefreshed(_ context.Context, scope string, at time.Time) error {
	if m.markErr != nil {
		return m.markErr
	}
	m.marks[scope] = at
	return nil
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestGate(t *testing.T) {
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	ago := func(d time.Duration) *time.Time { t := now.Add(-d); return &t }

	tests := []struct {
		name          string
		last          *time.Time
		wantDue       bool
		wantRemaining time.Duration
	}{
		{"never refreshed", nil, true, 0},
		{"just refreshed", ago(0), false, 24 * time.Hour},
		{"ten hours ago", ago(10 * time.Hour), false, 14 * time.Hour},
		{"one second short", ago(24*time.Hour - time.Second), false, time.Second},
		{"exactly one interval", ago(24 * time.Hour), true, 0},
		{"days ago", ago(72 * time.Hour), true, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			remaining, due := Gate(now, tt.last, DefaultInterval)
			assert.Equal(t, tt.wantDue, due)
			assert.Equal(t, tt.wantRemaining, remaining)
		})
	}
}

func TestSkippedMessage(t *testing.T) {
	assert.Equal(t, "Prices are up to date. Next refresh in 14.0 hours.", SkippedMessage(14*time.Hour))
	assert.Equal(t, "Prices are up to date. Next refresh in 0.5 hours.", SkippedMessage(29*time.Minute+50*time.Second))
	assert.Equal(t, "Prices are up to date. Next refresh in 23.8 hours.", SkippedMessage(23*time.Hour+45*time.Minute))
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "card", KindCard.String())
	assert.Equal(t, "wishlist", KindWishlist.String())
	assert.Equal(t, "unknown(9)", Kind(9).String())
}

func TestExecuteIsolatesFailures(t *testing.T) {
	items := []Item{
		{Kind: KindCard, ID: 1, Name: "Pikachu"},
		{Kind: KindCard, ID: 2, Name: "Broken"},
		{Kind: KindCard, ID: 3, Name: "Unknown"},
		{Kind: KindCard, ID: 4, Name: "WriteFails"},
		{Kind: KindWishlist, ID: 1, Name: "Mew"},
		{Kind: Kind(7), ID: 9, Name: "Pikachu"},
	}
	q := &fakeQuoter{
		quotes: map[string]pricing.Quote{
			"Pikachu":    {Price: decimal.RequireFromString("12.5"), Image: "u1"},
			"WriteFails": {Price: decimal.NewFromInt(1)},
			"Mew":        {Price: decimal.NewFromInt(99), Image: "u2"},
		},
		errs: map[string]error{"Broken": &pricing.UnavailableError{Message: "boom"}},
	}
	s := newMemStore()
	s.failWrite = map[int64]bool{4: true}

	updated := Execute(context.Background(), owner, items, q, s, time.Second, quietLogger)

	assert.Equal(t, 2, updated)
	assert.Equal(t, []string{"Pikachu", "Broken", "Unknown", "WriteFails", "Mew", "Pikachu"}, q.calls)
	assert.Equal(t, "u1", s.applied[KindCard][1].Image)
	assert.Equal(t, "u2", s.applied[KindWishlist][1].Image)
	assert.NotContains(t, s.applied[KindCard], int64(2))
	assert.NotContains(t, s.applied[KindCard], int64(3))
	assert.NotContains(t, s.applied[KindWishlist], int64(9))
}

func TestExecuteBoundsEachLookup(t *testing.T) {
	q := &fakeQuoter{block: true}
	items := []Item{{Kind: KindCard, ID: 1, Name: "Slowpoke"}, {Kind: KindCard, ID: 2, Name: "Slowbro"}}

	start := time.Now()
	updated := Execute(context.Background(), owner, items, q, newMemStore(), 20*time.Millisecond, quietLogger)

	assert.Zero(t, updated)
	assert.Len(t, q.calls, 2, "a timed out lookup must not stop the batch")
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestRefreshSkipsWithinInterval(t *testing.T) {
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	last := now.Add(-10 * time.Hour)

	s := newMemStore(Item{Kind: KindCard, ID: 1, Name: "Pikachu"})
	s.marks[owner] = last
	q := &fakeQuoter{}
	job := &Job{Store: s, Quoter: q, Now: fixedClock(now), Logger: quietLogger}

	res, err := job.Refresh(context.Background(), owner, false)
	require.NoError(t, err)

	assert.True(t, res.Skipped)
	assert.Equal(t, "Prices are up to date. Next refresh in 14.0 hours.", res.Message)
	assert.Empty(t, q.calls)
	assert.Equal(t, last, s.marks[owner], "watermark must not move")
}

func TestRefreshRunsWhenStale(t *testing.T) {
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

	for name, marks := range map[string]map[string]time.Time{
		"no watermark":  {},
		"old watermark": {owner: now.Add(-25 * time.Hour)},
	} {
		t.Run(name, func(t *testing.T) {
			s := newMemStore(
				Item{Kind: KindCard, ID: 1, Name: "Pikachu"},
				Item{Kind: KindWishlist, ID: 2, Name: "Raichu"},
			)
			s.marks = marks
			q := &fakeQuoter{errs: map[string]error{
				"Pikachu": errors.New("network down"),
				"Raichu":  errors.New("network down"),
			}}
			job := &Job{Store: s, Quoter: q, Now: fixedClock(now), Logger: quietLogger}

			res, err := job.Refresh(context.Background(), owner, false)
			require.NoError(t, err)

			assert.False(t, res.Skipped)
			assert.Equal(t, 0, res.Updated)
			assert.Equal(t, "Updated 0 of 2 cards", res.Message)
			assert.False(t, s.marks[owner].Before(now), "watermark must be stamped even when every lookup fails")
			assert.Empty(t, s.applied[KindCard])
			assert.Empty(t, s.applied[KindWishlist])
		})
	}
}

func TestRefreshForceIgnoresGate(t *testing.T) {
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	s := newMemStore(Item{Kind: KindCard, ID: 1, Name: "Pikachu"})
	s.marks[owner] = now.Add(-time.Minute)
	q := &fakeQuoter{quotes: map[string]pricing.Quote{"Pikachu": {Price: decimal.NewFromInt(3)}}}
	job := &Job{Store: s, Quoter: q, Now: fixedClock(now), Logger: quietLogger}

	res, err := job.Refresh(context.Background(), owner, true)
	require.NoError(t, err)
	assert.False(t, res.Skipped)
	assert.Equal(t, "Updated 1 of 1 cards", res.Message)
}

func TestRefreshSharedScope(t *testing.T) {
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	s := newMemStore()
	job := &Job{Store: s, Quoter: &fakeQuoter{}, SharedScope: store.GlobalScope, Now: fixedClock(now), Logger: quietLogger}

	_, err := job.Refresh(context.Background(), owner, false)
	require.NoError(t, err)
	assert.Contains(t, s.marks, store.GlobalScope)
	assert.NotContains(t, s.marks, owner)

	res, err := job.Refresh(context.Background(), "another-owner", false)
	require.NoError(t, err)
	assert.True(t, res.Skipped, "shared watermark gates every owner")
}

func TestRefreshWatermarkErrorsAreFatal(t *testing.T) {
	s := newMemStore()
	s.readErr = errors.New("db down")
	job := &Job{Store: s, Quoter: &fakeQuoter{}, Logger: quietLogger}

	_, err := job.Refresh(context.Background(), owner, false)
	assert.ErrorContains(t, err, "reading refresh watermark")

	s = newMemStore()
	s.markErr = errors.New("db down")
	job.Store = s

	_, err = job.Refresh(context.Background(), owner, false)
	assert.ErrorContains(t, err, "writing refresh watermark")
}

func TestRefreshAgainstDatabase(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	cardID, err := store.CreateCard(ctx, database, owner, store.NewCard{Name: "Pikachu", CurrentPrice: decimal.NewFromInt(5)})
	require.NoError(t, err)
	untouchedID, err := store.CreateCard(ctx, database, owner, store.NewCard{Name: "Missingno", Image: "old"})
	require.NoError(t, err)
	wishID, err := store.CreateWishlistItem(ctx, database, owner, store.NewWishlistItem{Name: "Pikachu"})
	require.NoError(t, err)

	q := &fakeQuoter{quotes: map[string]pricing.Quote{
		"Pikachu": {Price: decimal.RequireFromString("12.5"), Image: "u1"},
	}}
	job := &Job{Store: SQLStore{DB: database}, Quoter: q, Now: fixedClock(now), Logger: quietLogger}

	res, err := job.Refresh(ctx, owner, false)
	require.NoError(t, err)
	assert.Equal(t, "Updated 2 of 3 cards", res.Message)
	assert.Equal(t, []string{"Pikachu", "Missingno", "Pikachu"}, q.calls, "cards before wishlist, insertion order")

	card, err := store.GetCard(ctx, database, owner, cardID)
	require.NoError(t, err)
	assert.True(t, card.CurrentPrice.Equal(decimal.RequireFromString("12.5")))
	assert.Equal(t, "u1", card.Image)

	untouched, _ := store.GetCard(ctx, database, owner, untouchedID)
	assert.Equal(t, "old", untouched.Image)
	assert.True(t, untouched.CurrentPrice.IsZero())

	wishlist, _ := store.ListWishlist(ctx, database, owner)
	require.Len(t, wishlist, 1)
	assert.Equal(t, wishID, wishlist[0].ID)
	assert.Equal(t, "u1", wishlist[0].Image)

	last, err := store.LastPriceRefresh(ctx, database, owner)
	require.NoError(t, err)
	require.NotNil(t, last)
	assert.WithinDuration(t, now, *last, time.Millisecond)

	// A second run inside the interval changes nothing.
	q.quotes["Pikachu"] = pricing.Quote{Price: decimal.NewFromInt(1000), Image: "u9"}
	job.Now = fixedClock(now.Add(time.Hour))

	res, err = job.Refresh(ctx, owner, false)
	require.NoError(t, err)
	assert.True(t, res.Skipped)
	assert.Equal(t, "Prices are up to date. Next refresh in 23.0 hours.", res.Message)

	card, _ = store.GetCard(ctx, database, owner, cardID)
	assert.Equal(t, "u1", card.Image)
}
