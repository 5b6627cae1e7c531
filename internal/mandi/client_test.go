package mandi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rasoi-group/market-intel/internal/config"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(config.MandiConfig{
		BaseURL:     srv.URL,
		APIKey:      "test-key",
		State:       "Maharashtra",
		TimeoutSecs: 5,
		RatePerSec:  100,
		MaxRetries:  2,
	})
}

func TestFetchReferencePrice_AveragesAndConverts(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.URL.Query().Get("api-key"))
		assert.Equal(t, "Maharashtra", r.URL.Query().Get("filters[state.keyword]"))
		w.Write([]byte(`{"records":[
			{"commodity":"Onion","district":"Pune","modal_price":"2800"},
			{"commodity":"Onion Red","district":"Nashik","modal_price":"3200"},
			{"commodity":"Potato","district":"Pune","modal_price":"1800"}
		]}`))
	})

	got, err := c.FetchReferencePrice(context.Background(), "onion", "Maharashtra")
	require.NoError(t, err)
	// (28 + 32) / 2 after quintal → kg conversion.
	assert.Equal(t, 30, got.PricePerKg)
	assert.Equal(t, "Nashik", got.Location)
}

func TestFetchReferencePrice_NoMatchingCommodity(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"records":[{"commodity":"Brinjal","modal_price":"2100"}]}`))
	})

	_, err := c.FetchReferencePrice(context.Background(), "onion", "Maharashtra")
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrNoMatch))
}

func TestFetchReferencePrice_EmptyFeedIsHardError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"records":[]}`))
	})

	_, err := c.FetchReferencePrice(context.Background(), "onion", "Maharashtra")
	require.Error(t, err)
	assert.False(t, eris.Is(err, ErrNoMatch))
}

func TestFetchReferencePrice_MissingAPIKey(t *testing.T) {
	c := NewClient(config.MandiConfig{BaseURL: "http://localhost:1", TimeoutSecs: 1})
	_, err := c.FetchReferencePrice(context.Background(), "onion", "Maharashtra")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "api key")
}

func TestFetchReferencePrice_RetriesOn500(t *testing.T) {
	calls := 0
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`{"records":[{"commodity":"Onion","modal_price":"3000"}]}`))
	})

	got, err := c.FetchReferencePrice(context.Background(), "onion", "Maharashtra")
	require.NoError(t, err)
	assert.Equal(t, 30, got.PricePerKg)
	assert.Equal(t, 2, calls)
}

func TestFetchReferencePrice_ExhaustedRetries(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	_, err := c.FetchReferencePrice(context.Background(), "onion", "Maharashtra")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "retries exhausted")
}

func TestFetchReferencePrice_SkipsUnparsablePrices(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"records":[
			{"commodity":"Onion","modal_price":"NR"},
			{"commodity":"Onion","modal_price":"2600"}
		]}`))
	})

	got, err := c.FetchReferencePrice(context.Background(), "onion", "Maharashtra")
	require.NoError(t, err)
	assert.Equal(t, 26, got.PricePerKg)
}
