// Package reconcile combines the mandi reference price with the cheapest
// catalog candidates into one canonical best-price record per tracked
// ingredient.
package reconcile

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/rasoi-group/market-intel/internal/catalog"
	"github.com/rasoi-group/market-intel/internal/mandi"
	"github.com/rasoi-group/market-intel/internal/model"
)

// PriceSource supplies wholesale-derived reference prices. Satisfied by
// *mandi.Client.
type PriceSource interface {
	FetchReferencePrice(ctx context.Context, ingredient, state string) (*mandi.ReferencePrice, error)
}

// Reconciler walks the tracked ingredient list once per run.
type Reconciler struct {
	source  PriceSource
	cache   *catalog.Cache
	matcher catalog.Matcher
	state   string
	now     func() time.Time
	log     *zap.Logger
}

// New creates a Reconciler.
func New(source PriceSource, cache *catalog.Cache, matcher catalog.Matcher, state string) *Reconciler {
	return &Reconciler{
		source:  source,
		cache:   cache,
		matcher: matcher,
		state:   state,
		now:     time.Now,
		log:     zap.L().With(zap.String("component", "reconcile")),
	}
}

// Run reconciles every tracked ingredient and returns the full record
// set. An ingredient missing from the feed degrades to its baseline
// price; a hard adapter failure (credential, network, malformed feed)
// aborts the whole run so the scheduler can substitute synthetic data.
func (r *Reconciler) Run(ctx context.Context) ([]model.PriceRecord, error) {
	start := r.now().UTC()

	// One snapshot pair per run; ingredients are matched against the same
	// catalog state regardless of callback timing.
	snapshots := make(map[model.Platform][]model.CatalogEntry, len(model.RetailPlatforms))
	for _, p := range model.RetailPlatforms {
		snapshots[p] = r.cache.Snapshot(p)
	}

	records := make([]model.PriceRecord, len(model.TrackedIngredients))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)

	for i, tracked := range model.TrackedIngredients {
		g.Go(func() error {
			rec, err := r.reconcileOne(gctx, tracked, snapshots, start)
			if err != nil {
				return err
			}
			mu.Lock()
			records[i] = rec
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, eris.Wrap(err, "reconcile: run")
	}

	r.log.Info("reconciliation run complete",
		zap.Int("ingredients", len(records)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return records, nil
}

func (r *Reconciler) reconcileOne(ctx context.Context, tracked model.TrackedIngredient, snapshots map[model.Platform][]model.CatalogEntry, runTime time.Time) (model.PriceRecord, error) {
	marketPrice := tracked.Baseline
	source := model.SourceBaseline

	ref, err := r.source.FetchReferencePrice(ctx, tracked.MatchKey, r.state)
	switch {
	case err == nil:
		marketPrice = ref.PricePerKg
		source = fmt.Sprintf("%s (%s)", model.SourceLive, ref.Location)
	case eris.Is(err, mandi.ErrNoMatch):
		// Partial miss: this ingredient falls back to its baseline, the
		// run continues.
		r.log.Debug("no mandi record, using baseline",
			zap.String("ingredient", tracked.Name),
			zap.Int("baseline", tracked.Baseline),
		)
	default:
		return model.PriceRecord{}, err
	}

	bestPrice := marketPrice
	platform := model.PlatformMarket
	for _, p := range model.RetailPlatforms {
		candidate, ok := r.matcher.FindCheapest(snapshots[p], tracked.MatchKey)
		if !ok {
			continue
		}
		if candidate.Price < bestPrice {
			bestPrice = candidate.Price
			platform = p
		}
	}

	return model.PriceRecord{
		Name:        tracked.Name,
		Unit:        tracked.Unit,
		MarketPrice: marketPrice,
		BestPrice:   bestPrice,
		Platform:    platform,
		Savings:     model.Savings(marketPrice, bestPrice),
		Source:      source,
		Date:        runTime,
	}, nil
}
