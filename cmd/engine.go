package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/rasoi-group/market-intel/internal/catalog"
	"github.com/rasoi-group/market-intel/internal/dish"
	"github.com/rasoi-group/market-intel/internal/fallback"
	"github.com/rasoi-group/market-intel/internal/mandi"
	"github.com/rasoi-group/market-intel/internal/reconcile"
	"github.com/rasoi-group/market-intel/internal/resolve"
	"github.com/rasoi-group/market-intel/internal/scheduler"
	"github.com/rasoi-group/market-intel/internal/store"
)

// engine bundles the wired components shared by the CLI commands.
type engine struct {
	Store     store.Store
	Cache     *catalog.Cache
	Scheduler *scheduler.Scheduler
	Resolver  *resolve.Resolver
	Analyzer  *dish.Analyzer
}

func (e *engine) Close() {
	_ = e.Store.Close()
}

// initEngine connects the store, runs migrations, and wires the
// reconciliation pipeline end to end.
func initEngine(ctx context.Context) (*engine, error) {
	st, err := store.Open(ctx, cfg.Store)
	if err != nil {
		return nil, eris.Wrap(err, "open store")
	}
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}

	cache := catalog.NewCache()
	matcher := catalog.NewSubstringMatcher()

	mandiClient := mandi.NewClient(cfg.Mandi)
	reconciler := reconcile.New(mandiClient, cache, matcher, cfg.Mandi.State)
	generator := fallback.NewGenerator()
	sched := scheduler.New(reconciler, generator, st,
		time.Duration(cfg.Scheduler.IntervalMins)*time.Minute)

	refresh := catalog.NewRefreshClient(cfg.Catalog)
	resolver := resolve.New(cache, matcher, st, refresh)

	mapping, err := dish.LoadMapping(cfg.Dishes.MappingPath)
	if err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "load dish mapping")
	}
	analyzer := dish.NewAnalyzer(mapping, cache, matcher, st)

	return &engine{
		Store:     st,
		Cache:     cache,
		Scheduler: sched,
		Resolver:  resolver,
		Analyzer:  analyzer,
	}, nil
}
