// Package resolve answers ad-hoc ingredient price lookups, kicking off a
// background catalog refresh when the ingredient is not yet indexed.
package resolve

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/rasoi-group/market-intel/internal/catalog"
	"github.com/rasoi-group/market-intel/internal/model"
)

const (
	StatusAvailable = "available"
	StatusPending   = "pending"

	// Upper bound on the fire-and-forget refresh trigger.
	triggerTimeout = 10 * time.Second
)

// Result is the answer to a single resolution request.
type Result struct {
	Status      string         `json:"status"`
	Name        string         `json:"name"`
	MarketPrice int            `json:"marketPrice"`
	BestPrice   int            `json:"bestPrice,omitempty"`
	Platform    model.Platform `json:"platform"`
	Savings     int            `json:"savings,omitempty"`
}

// PriceReader is the slice of the store the resolver reads through.
type PriceReader interface {
	GetPrice(ctx context.Context, name string) (*model.PriceRecord, error)
}

// Refresher triggers an external catalog crawl. Satisfied by
// *catalog.RefreshClient.
type Refresher interface {
	Trigger(ctx context.Context, ingredient string) (string, error)
}

// Resolver checks the catalog snapshots for an ingredient and, on a
// miss, schedules a refresh without making the caller wait for it.
type Resolver struct {
	cache   *catalog.Cache
	matcher catalog.Matcher
	store   PriceReader
	refresh Refresher
	log     *zap.Logger
}

func New(cache *catalog.Cache, matcher catalog.Matcher, store PriceReader, refresh Refresher) *Resolver {
	return &Resolver{
		cache:   cache,
		matcher: matcher,
		store:   store,
		refresh: refresh,
		log:     zap.L().With(zap.String("component", "resolver")),
	}
}

// Resolve returns the cheapest known listing for name across platform
// snapshots. When no snapshot carries the ingredient it responds
// immediately with a pending placeholder and fires a refresh in the
// background.
func (r *Resolver) Resolve(ctx context.Context, name string) (Result, error) {
	if name == "" {
		return Result{}, eris.New("resolve: ingredient name is required")
	}

	query := name
	if tracked, ok := model.TrackedByName(name); ok {
		query = tracked.MatchKey
	}

	best := model.CatalogEntry{}
	bestPlatform := model.PlatformMarket
	found := false
	for _, platform := range model.RetailPlatforms {
		entry, ok := r.matcher.FindCheapest(r.cache.Snapshot(platform), query)
		if !ok {
			continue
		}
		if !found || entry.Price < best.Price {
			best = entry
			bestPlatform = platform
			found = true
		}
	}

	if !found {
		go r.triggerRefresh(name)
		return Result{
			Status:      StatusPending,
			Name:        name,
			MarketPrice: r.referencePrice(ctx, name),
			Platform:    model.PlatformFetching,
		}, nil
	}

	market := r.referencePrice(ctx, name)
	return Result{
		Status:      StatusAvailable,
		Name:        name,
		MarketPrice: market,
		BestPrice:   best.Price,
		Platform:    bestPlatform,
		Savings:     model.Savings(market, best.Price),
	}, nil
}

// referencePrice prefers the stored reconciled price, then the tracked
// baseline, then the catalog-wide default guess.
func (r *Resolver) referencePrice(ctx context.Context, name string) int {
	if rec, err := r.store.GetPrice(ctx, name); err == nil && rec != nil {
		return rec.MarketPrice
	}
	if tracked, ok := model.TrackedByName(name); ok {
		return tracked.Baseline
	}
	return model.DefaultBaseline
}

func (r *Resolver) triggerRefresh(name string) {
	ctx, cancel := context.WithTimeout(context.Background(), triggerTimeout)
	defer cancel()

	jobID, err := r.refresh.Trigger(ctx, name)
	if err != nil {
		r.log.Warn("catalog refresh trigger failed",
			zap.String("ingredient", name),
			zap.Error(err),
		)
		return
	}
	r.log.Info("catalog refresh triggered",
		zap.String("ingredient", name),
		zap.String("job_id", jobID),
	)
}
