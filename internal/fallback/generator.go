// Package fallback produces a synthetic price table when no live source
// is reachable. The output is explicitly display data, tagged so that
// downstream consumers can tell it apart from a live reconciliation.
package fallback

import (
	"math"
	"math/rand/v2"
	"time"

	"github.com/rasoi-group/market-intel/internal/model"
)

// seasonal multipliers by ingredient class and quarter of the year.
// Vegetables spike in the monsoon months, staples barely move.
var seasonalAdjust = map[model.SeasonClass][4]float64{
	model.ClassVegetable: {1.0, 1.1, 1.35, 1.05},
	model.ClassSpice:     {1.0, 1.05, 1.2, 1.1},
	model.ClassDairy:     {1.05, 1.15, 1.0, 1.0},
	model.ClassStaple:    {1.0, 1.0, 1.05, 1.0},
}

// bestPriceCeiling caps the synthetic best price at this fraction of the
// market price. The draw range intentionally crosses 1.0 so the table
// does not look uniformly discounted, but the ceiling keeps the overshoot
// small.
const bestPriceCeiling = 1.05

// Generator builds synthetic price tables. The random source is injected
// so tests can pin the output.
type Generator struct {
	rng *rand.Rand
	now func() time.Time
}

// NewGenerator creates a generator with its own random source.
func NewGenerator() *Generator {
	return &Generator{
		rng: rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
		now: time.Now,
	}
}

// NewSeededGenerator creates a deterministic generator for tests.
func NewSeededGenerator(seed uint64, now func() time.Time) *Generator {
	return &Generator{
		rng: rand.New(rand.NewPCG(seed, seed)),
		now: now,
	}
}

// Generate returns one synthetic record per tracked ingredient: the
// baseline price seasonally adjusted, perturbed ±10%, and a best price
// drawn from 70–105% of that, clamped so it never exceeds the market
// price by more than the fixed ceiling margin.
func (g *Generator) Generate() []model.PriceRecord {
	now := g.now().UTC()
	quarter := (int(now.Month()) - 1) / 3

	records := make([]model.PriceRecord, 0, len(model.TrackedIngredients))
	for _, t := range model.TrackedIngredients {
		adjust := 1.0
		if row, ok := seasonalAdjust[t.Class]; ok {
			adjust = row[quarter]
		}

		market := float64(t.Baseline) * adjust
		market *= 0.9 + g.rng.Float64()*0.2 // ±10%
		marketPrice := int(math.Round(market))
		if marketPrice < 1 {
			marketPrice = 1
		}

		best := market * (0.70 + g.rng.Float64()*0.35) // 70–105%
		if ceiling := market * bestPriceCeiling; best > ceiling {
			best = ceiling
		}
		bestPrice := int(math.Round(best))
		if bestPrice < 1 {
			bestPrice = 1
		}

		platform := model.PlatformMarket
		if bestPrice < marketPrice {
			platform = model.RetailPlatforms[g.rng.IntN(len(model.RetailPlatforms))]
		}

		records = append(records, model.PriceRecord{
			Name:        t.Name,
			Unit:        t.Unit,
			MarketPrice: marketPrice,
			BestPrice:   bestPrice,
			Platform:    platform,
			Savings:     model.Savings(marketPrice, bestPrice),
			Source:      model.SourceFallback,
			Date:        now,
		})
	}
	return records
}
