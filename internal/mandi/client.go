// Package mandi adapts the government agricultural market price API
// (wholesale "modal price" per quintal, filtered by state) into per-kg
// retail reference estimates.
package mandi

import (
	"context"
	"encoding/json"
	"io"
	"math"
	"math/rand/v2"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/rasoi-group/market-intel/internal/config"
)

// ErrNoMatch is returned when the feed answered but contained no record
// for the requested ingredient. Callers substitute a baseline price; this
// is not a failure of the run.
var ErrNoMatch = eris.New("mandi: no matching commodity records")

// ReferencePrice is the wholesale-derived retail estimate for one
// ingredient.
type ReferencePrice struct {
	PricePerKg int
	Location   string
}

// Client calls the market price API with bounded timeouts, a rate
// limiter, and retries with exponential backoff on transient failures.
type Client struct {
	baseURL    string
	apiKey     string
	maxRetries int
	httpClient *http.Client
	limiter    *rate.Limiter
	log        *zap.Logger
}

// NewClient builds a mandi API client from config.
func NewClient(cfg config.MandiConfig) *Client {
	timeout := time.Duration(cfg.TimeoutSecs) * time.Second
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	perSec := cfg.RatePerSec
	if perSec <= 0 {
		perSec = 5
	}
	retries := cfg.MaxRetries
	if retries <= 0 {
		retries = 3
	}

	return &Client{
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		maxRetries: retries,
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 4,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		limiter: rate.NewLimiter(rate.Limit(perSec), int(math.Ceil(perSec))),
		log:     zap.L().With(zap.String("component", "mandi.client")),
	}
}

type feedResponse struct {
	Records []feedRecord `json:"records"`
}

type feedRecord struct {
	Commodity  string `json:"commodity"`
	Market     string `json:"market"`
	District   string `json:"district"`
	ModalPrice string `json:"modal_price"`
}

// FetchReferencePrice queries the feed for a state and averages the
// modal prices of records whose commodity contains the ingredient key,
// converted from ₹/quintal to ₹/kg. A missing credential, transport
// failure, or empty feed is a hard error; a feed with records but none
// matching the ingredient returns ErrNoMatch.
func (c *Client) FetchReferencePrice(ctx context.Context, ingredient, state string) (*ReferencePrice, error) {
	if c.apiKey == "" {
		return nil, eris.New("mandi: api key not configured")
	}

	q := url.Values{}
	q.Set("api-key", c.apiKey)
	q.Set("format", "json")
	q.Set("limit", "200")
	q.Set("filters[state.keyword]", state)

	body, err := c.get(ctx, c.baseURL+"?"+q.Encode())
	if err != nil {
		return nil, err
	}

	var resp feedResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, eris.Wrap(err, "mandi: decode response")
	}
	if len(resp.Records) == 0 {
		return nil, eris.Errorf("mandi: feed returned no records for state %q", state)
	}

	key := strings.ToLower(ingredient)
	var sum, n int
	location := state
	for _, rec := range resp.Records {
		if !strings.Contains(strings.ToLower(rec.Commodity), key) {
			continue
		}
		quintal, err := strconv.ParseFloat(rec.ModalPrice, 64)
		if err != nil || quintal <= 0 {
			continue
		}
		sum += int(math.Round(quintal / 100)) // quintal → kg
		n++
		if rec.District != "" {
			location = rec.District
		}
	}
	if n == 0 {
		return nil, ErrNoMatch
	}

	price := &ReferencePrice{
		PricePerKg: sum / n,
		Location:   location,
	}
	c.log.Debug("reference price fetched",
		zap.String("ingredient", ingredient),
		zap.Int("price_per_kg", price.PricePerKg),
		zap.Int("records", n),
	)
	return price, nil
}

func (c *Client) get(ctx context.Context, rawURL string) ([]byte, error) {
	var lastErr error
	for attempt := range c.maxRetries {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, eris.Wrap(err, "mandi: rate limiter wait")
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return nil, eris.Wrap(err, "mandi: create request")
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			c.log.Warn("mandi request failed, retrying",
				zap.Int("attempt", attempt+1),
				zap.Error(err),
			)
			c.backoff(ctx, attempt)
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			_ = resp.Body.Close()
			lastErr = eris.Errorf("mandi: http %d", resp.StatusCode)
			c.log.Warn("mandi transient status, retrying",
				zap.Int("status", resp.StatusCode),
				zap.Int("attempt", attempt+1),
			)
			c.backoff(ctx, attempt)
			continue
		}

		if resp.StatusCode != http.StatusOK {
			_ = resp.Body.Close()
			return nil, eris.Errorf("mandi: unexpected status %d", resp.StatusCode)
		}

		body, err := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if err != nil {
			return nil, eris.Wrap(err, "mandi: read body")
		}
		return body, nil
	}
	return nil, eris.Wrap(lastErr, "mandi: all retries exhausted")
}

func (c *Client) backoff(ctx context.Context, attempt int) {
	base := 500 * time.Millisecond
	d := time.Duration(float64(base) * math.Pow(2, float64(attempt)))
	if d > 10*time.Second {
		d = 10 * time.Second
	}
	d += time.Duration(rand.Int64N(int64(d) / 2))

	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
