// Package model defines the core entities shared across the market
// intelligence engine: canonical price records, catalog entries, and the
// tracked-ingredient table.
package model

import (
	"math"
	"time"
)

// Platform identifies a retail source for a quoted price.
type Platform string

const (
	PlatformBlinkit Platform = "Blinkit"
	PlatformZepto   Platform = "Zepto"

	// PlatformMarket is the neutral reference label used when no catalog
	// candidate beats the wholesale-derived market price.
	PlatformMarket Platform = "Mandi"

	// PlatformFetching is the placeholder shown while an on-demand
	// catalog refresh is still in flight.
	PlatformFetching Platform = "Fetching..."
)

// DefaultBaseline is the ₹ guess returned for ingredients outside the
// tracked list when nothing better is known.
const DefaultBaseline = 50

// RetailPlatforms lists the catalog platforms in a fixed order.
var RetailPlatforms = []Platform{PlatformBlinkit, PlatformZepto}

// Source tags record the provenance of a reconciliation run so that
// dashboards can tell live, baseline, and synthetic data apart.
const (
	SourceLive     = "mandi live"
	SourceBaseline = "static baseline"
	SourceFallback = "synthetic fallback"
)

// PriceRecord is the canonical persisted best-price entry for one
// ingredient. One row per name; each reconciliation run replaces the
// prior value, history is not retained.
type PriceRecord struct {
	Name        string    `json:"name"`
	Unit        string    `json:"unit"`
	MarketPrice int       `json:"market_price"`
	BestPrice   int       `json:"best_price"`
	Platform    Platform  `json:"platform"`
	Savings     int       `json:"savings"`
	Source      string    `json:"source"`
	Date        time.Time `json:"date"`
}

// CatalogEntry is an in-memory product row from one retail platform's
// catalog snapshot. It has no identity beyond the currently loaded
// snapshot.
type CatalogEntry struct {
	Name     string `json:"name"`
	Price    int    `json:"price"`
	Quantity string `json:"quantity"`
	Category string `json:"category"`
}

// Savings returns the percentage saved buying at best instead of market,
// rounded to the nearest integer and clamped to non-negative.
func Savings(market, best int) int {
	if market <= 0 || best >= market {
		return 0
	}
	return int(math.Round(float64(market-best) / float64(market) * 100))
}
