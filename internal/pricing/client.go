// Package pricing talks to the Pokémon price tracker API.
package pricing

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru"
	"github.com/shopspring/decimal"

	"github.com/erazemk/pokevault/internal/model"
)

// DefaultBaseURL is the public price tracker endpoint.
const DefaultBaseURL = "https://www.pokemonpricetracker.com/api/v2"

const (
	defaultRarity  = "Unknown"
	defaultSetName = "Unknown Set"
	defaultMessage = "API unavailable."
)

var (
	// ErrUnavailable means the upstream could not answer the question at all.
	ErrUnavailable = errors.New("price api unavailable")
	// ErrNoMatch means the upstream answered but found nothing.
	ErrNoMatch = errors.New("no matching card")
)

// UnavailableError carries the message the upstream gave, if any.
type UnavailableError struct {
	Message string
	Err     error
}

func (e *UnavailableError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *UnavailableError) Is(target error) bool { return target == ErrUnavailable }

func (e *UnavailableError) Unwrap() error { return e.Err }

// Options configures a Client.
type Options struct {
	BaseURL   string
	APIKey    string
	Timeout   time.Duration
	CacheSize int
	CacheTTL  time.Duration
}

// Client looks up card prices. Search results are cached; quotes are not.
type Client struct {
	baseURL  string
	apiKey   string
	http     *http.Client
	cache    *lru.Cache
	cacheTTL time.Duration
	now      func() time.Time
}

type cachedSearch struct {
	cards     []model.RemoteCard
	timestamp time.Time
}

// New returns a Client. A zero CacheSize disables the search cache.
func New(opts Options) (*Client, error) {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}

	c := &Client{
		baseURL:  strings.TrimRight(opts.BaseURL, "/"),
		apiKey:   opts.APIKey,
		http:     &http.Client{Timeout: opts.Timeout},
		cacheTTL: opts.CacheTTL,
		now:      time.Now,
	}
	if opts.CacheSize > 0 {
		cache, err := lru.New(opts.CacheSize)
		if err != nil {
			return nil, fmt.Errorf("creating search cache: %w", err)
		}
		c.cache = cache
	}
	return c, nil
}

// Search returns up to limit cards matching name.
func (c *Client) Search(ctx context.Context, name string, limit int) ([]model.RemoteCard, error) {
	key := strings.ToLower(strings.TrimSpace(name)) + "|" + strconv.Itoa(limit)
	if c.cache != nil {
		if v, ok := c.cache.Get(key); ok {
			entry := v.(cachedSearch)
			if c.cacheTTL <= 0 || c.now().Sub(entry.timestamp) < c.cacheTTL {
				return entry.cards, nil
			}
			c.cache.Remove(key)
		}
	}

	cards, err := c.search(ctx, name, limit)
	if err != nil {
		return nil, err
	}

	if c.cache != nil {
		c.cache.Add(key, cachedSearch{cards: cards, timestamp: c.now()})
	}
	return cards, nil
}

// Quote is the price and image of the best match for a name.
type Quote struct {
	Price decimal.Decimal
	Image string
}

// Quote looks up the single best match for name, bypassing the cache.
func (c *Client) Quote(ctx context.Context, name string) (Quote, error) {
	cards, err := c.search(ctx, name, 1)
	if err != nil {
		return Quote{}, err
	}
	if len(cards) == 0 {
		return Quote{}, ErrNoMatch
	}
	return Quote{Price: cards[0].CurrentPrice, Image: cards[0].Image}, nil
}

type apiResponse struct {
	Data    *[]apiCard `json:"data"`
	Message string     `json:"message"`
}

type apiCard struct {
	ID             apiID      `json:"id"`
	Name           string     `json:"name"`
	Rarity         string     `json:"rarity"`
	SetName        string     `json:"setName"`
	ImageCdnURL200 string     `json:"imageCdnUrl200"`
	ImageURL       string     `json:"imageUrl"`
	Prices         *apiPrices `json:"prices"`
}

type apiPrices struct {
	Market decimal.NullDecimal `json:"market"`
}

// apiID accepts ids sent either as strings or as numbers.
type apiID string

func (id *apiID) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = apiID(s)
		return nil
	}
	*id = apiID(b)
	return nil
}

func (a apiCard) toRemote() model.RemoteCard {
	card := model.RemoteCard{
		APIID:   string(a.ID),
		Name:    a.Name,
		Rarity:  a.Rarity,
		SetName: a.SetName,
		Image:   a.ImageCdnURL200,
	}
	if card.Rarity == "" {
		card.Rarity = defaultRarity
	}
	if card.SetName == "" {
		card.SetName = defaultSetName
	}
	if card.Image == "" {
		card.Image = a.ImageURL
	}
	if a.Prices != nil && a.Prices.Market.Valid {
		card.CurrentPrice = a.Prices.Market.Decimal
	}
	return card
}

func (c *Client) search(ctx context.Context, name string, limit int) ([]model.RemoteCard, error) {
	q := url.Values{}
	q.Set("search", name)
	q.Set("limit", strconv.Itoa(limit))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/cards?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("building search request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &UnavailableError{Message: defaultMessage, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, &UnavailableError{Message: defaultMessage, Err: err}
	}

	var payload apiResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, &UnavailableError{Message: defaultMessage, Err: fmt.Errorf("status %d: %w", resp.StatusCode, err)}
	}
	if payload.Data == nil {
		msg := payload.Message
		if msg == "" {
			msg = defaultMessage
		}
		return nil, &UnavailableError{Message: msg}
	}

	cards := make([]model.RemoteCard, 0, len(*payload.Data))
	for _, a := range *payload.Data {
		cards = append(cards, a.toRemote())
	}
	return cards, nil
}
