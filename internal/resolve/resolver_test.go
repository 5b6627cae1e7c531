package resolve

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rasoi-group/market-intel/internal/catalog"
	"github.com/rasoi-group/market-intel/internal/model"
)

type stubReader struct {
	records map[string]*model.PriceRecord
	err     error
}

func (r *stubReader) GetPrice(_ context.Context, name string) (*model.PriceRecord, error) {
	if r.err != nil {
		return nil, r.err
	}
	return r.records[name], nil
}

type stubRefresher struct {
	mu    sync.Mutex
	names []string
	err   error
}

func (r *stubRefresher) Trigger(_ context.Context, ingredient string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.names = append(r.names, ingredient)
	if r.err != nil {
		return "", r.err
	}
	return "job-1", nil
}

func (r *stubRefresher) triggered() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.names...)
}

func seededCache(t *testing.T) *catalog.Cache {
	t.Helper()
	cache := catalog.NewCache()
	cache.Replace(model.PlatformBlinkit, []model.CatalogEntry{
		{Name: "Fresh Onion", Price: 24, Quantity: "1 kg"},
		{Name: "Desi Tomato", Price: 38, Quantity: "1 kg"},
	})
	cache.Replace(model.PlatformZepto, []model.CatalogEntry{
		{Name: "Onion Premium", Price: 27, Quantity: "1 kg"},
	})
	return cache
}

func TestResolveAvailable(t *testing.T) {
	reader := &stubReader{records: map[string]*model.PriceRecord{
		"onion": {Name: "Onion (Pyaz)", MarketPrice: 30},
	}}
	refresh := &stubRefresher{}
	r := New(seededCache(t), catalog.NewSubstringMatcher(), reader, refresh)

	res, err := r.Resolve(context.Background(), "onion")
	require.NoError(t, err)

	assert.Equal(t, StatusAvailable, res.Status)
	assert.Equal(t, 30, res.MarketPrice)
	assert.Equal(t, 24, res.BestPrice)
	assert.Equal(t, model.PlatformBlinkit, res.Platform)
	assert.Equal(t, 20, res.Savings)
	assert.Empty(t, refresh.triggered())
}

func TestResolvePendingTriggersRefresh(t *testing.T) {
	refresh := &stubRefresher{}
	r := New(seededCache(t), catalog.NewSubstringMatcher(), &stubReader{}, refresh)

	res, err := r.Resolve(context.Background(), "okra")
	require.NoError(t, err)

	assert.Equal(t, StatusPending, res.Status)
	assert.Equal(t, model.PlatformFetching, res.Platform)
	assert.Equal(t, model.DefaultBaseline, res.MarketPrice)
	assert.Zero(t, res.BestPrice)

	require.Eventually(t, func() bool {
		return len(refresh.triggered()) == 1
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{"okra"}, refresh.triggered())
}

func TestResolvePendingUsesTrackedBaseline(t *testing.T) {
	refresh := &stubRefresher{}
	r := New(catalog.NewCache(), catalog.NewSubstringMatcher(), &stubReader{}, refresh)

	res, err := r.Resolve(context.Background(), "Paneer")
	require.NoError(t, err)

	assert.Equal(t, StatusPending, res.Status)
	assert.Equal(t, 320, res.MarketPrice)
}

func TestResolveRefreshFailureDoesNotSurface(t *testing.T) {
	refresh := &stubRefresher{err: eris.New("crawler unreachable")}
	r := New(catalog.NewCache(), catalog.NewSubstringMatcher(), &stubReader{}, refresh)

	res, err := r.Resolve(context.Background(), "okra")
	require.NoError(t, err)
	assert.Equal(t, StatusPending, res.Status)

	require.Eventually(t, func() bool {
		return len(refresh.triggered()) == 1
	}, time.Second, 5*time.Millisecond)
}

func TestResolveEmptyName(t *testing.T) {
	r := New(catalog.NewCache(), catalog.NewSubstringMatcher(), &stubReader{}, &stubRefresher{})
	_, err := r.Resolve(context.Background(), "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "name is required")
}

func TestResolveStoreErrorFallsBackToBaseline(t *testing.T) {
	reader := &stubReader{err: eris.New("connection refused")}
	r := New(seededCache(t), catalog.NewSubstringMatcher(), reader, &stubRefresher{})

	res, err := r.Resolve(context.Background(), "onion")
	require.NoError(t, err)
	assert.Equal(t, StatusAvailable, res.Status)
	// Tracked baseline for onion, not the unreachable store.
	assert.Equal(t, 35, res.MarketPrice)
}
