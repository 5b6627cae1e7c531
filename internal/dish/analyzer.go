package dish

import (
	"context"
	"math"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/rasoi-group/market-intel/internal/catalog"
	"github.com/rasoi-group/market-intel/internal/model"
)

// A platform is recommended only while its basket total stays within
// this multiple of the reference total.
const recommendationBound = 1.5

// IngredientCost is the per-ingredient comparison row.
type IngredientCost struct {
	Name           string                 `json:"name"`
	ReferencePrice int                    `json:"referencePrice"`
	PlatformPrices map[model.Platform]int `json:"platformPrices"`
	CheapestSource model.Platform         `json:"cheapestSource"`
	CheapestPrice  int                    `json:"cheapestPrice"`
	DeltaPercent   int                    `json:"deltaPercent"`
}

// Analysis is the full dish costing result.
type Analysis struct {
	Dish           string                 `json:"dish"`
	Category       string                 `json:"category"`
	Known          bool                   `json:"known"`
	Ingredients    []IngredientCost       `json:"ingredients"`
	PlatformTotals map[model.Platform]int `json:"platformTotals"`
	ReferenceTotal int                    `json:"referenceTotal"`
	Recommended    model.Platform         `json:"recommended"`
}

// PriceReader is the slice of the store the analyzer reads through.
type PriceReader interface {
	GetPrice(ctx context.Context, name string) (*model.PriceRecord, error)
}

// Analyzer prices a dish's ingredient basket across catalog snapshots
// and the canonical table, then picks a procurement platform.
type Analyzer struct {
	mapping *Mapping
	cache   *catalog.Cache
	matcher catalog.Matcher
	store   PriceReader
	log     *zap.Logger
}

func NewAnalyzer(mapping *Mapping, cache *catalog.Cache, matcher catalog.Matcher, store PriceReader) *Analyzer {
	return &Analyzer{
		mapping: mapping,
		cache:   cache,
		matcher: matcher,
		store:   store,
		log:     zap.L().With(zap.String("component", "dish-analyzer")),
	}
}

// Analyze resolves dishName to an ingredient list and builds the
// comparison table. Catalog reads are in-memory only; the store read is
// best effort, with the tracked baseline backing it up.
func (a *Analyzer) Analyze(ctx context.Context, dishName string) (Analysis, error) {
	if dishName == "" {
		return Analysis{}, eris.New("dish: dish name is required")
	}

	recipe, known := a.mapping.Lookup(dishName)
	if !known {
		a.log.Debug("dish not in mapping, using heuristic recipe",
			zap.String("dish", dishName),
			zap.Int("ingredients", len(recipe.Ingredients)),
		)
	}

	analysis := Analysis{
		Dish:           dishName,
		Category:       recipe.Category,
		Known:          known,
		Ingredients:    make([]IngredientCost, 0, len(recipe.Ingredients)),
		PlatformTotals: make(map[model.Platform]int, len(model.RetailPlatforms)),
	}
	quoted := make(map[model.Platform]int, len(model.RetailPlatforms))

	for _, name := range recipe.Ingredients {
		cost := a.priceIngredient(ctx, name)
		analysis.Ingredients = append(analysis.Ingredients, cost)
		analysis.ReferenceTotal += cost.ReferencePrice

		for _, platform := range model.RetailPlatforms {
			price, ok := cost.PlatformPrices[platform]
			if !ok {
				continue
			}
			analysis.PlatformTotals[platform] += price
			quoted[platform]++
		}
	}

	analysis.Recommended = a.recommend(analysis, quoted, len(recipe.Ingredients))
	return analysis, nil
}

func (a *Analyzer) priceIngredient(ctx context.Context, name string) IngredientCost {
	cost := IngredientCost{
		Name:           name,
		PlatformPrices: make(map[model.Platform]int, len(model.RetailPlatforms)),
	}

	// Bilingual display names never appear verbatim in catalog listings,
	// so tracked ingredients are matched by their short key.
	query := name
	cost.ReferencePrice = model.DefaultBaseline
	if tracked, ok := model.TrackedByName(name); ok {
		cost.ReferencePrice = tracked.Baseline
		query = tracked.MatchKey
	}
	if rec, err := a.store.GetPrice(ctx, name); err == nil && rec != nil {
		cost.ReferencePrice = rec.MarketPrice
	}

	cost.CheapestSource = model.PlatformMarket
	cost.CheapestPrice = cost.ReferencePrice
	for _, platform := range model.RetailPlatforms {
		entry, ok := a.matcher.FindCheapest(a.cache.Snapshot(platform), query)
		if !ok {
			continue
		}
		cost.PlatformPrices[platform] = entry.Price
		if entry.Price < cost.CheapestPrice {
			cost.CheapestPrice = entry.Price
			cost.CheapestSource = platform
		}
	}

	if cost.ReferencePrice > 0 {
		delta := float64(cost.CheapestPrice-cost.ReferencePrice) / float64(cost.ReferencePrice) * 100
		cost.DeltaPercent = int(math.Round(delta))
	}
	return cost
}

// recommend picks the cheapest platform that quoted every ingredient,
// as long as its total stays within the sanity bound of the reference.
// A platform winning on one cheap item while missing or overpricing the
// rest must not be recommended.
func (a *Analyzer) recommend(analysis Analysis, quoted map[model.Platform]int, ingredients int) model.Platform {
	best := model.PlatformMarket
	bestTotal := 0
	for _, platform := range model.RetailPlatforms {
		if quoted[platform] != ingredients || ingredients == 0 {
			continue
		}
		total := analysis.PlatformTotals[platform]
		if best == model.PlatformMarket || total < bestTotal {
			best = platform
			bestTotal = total
		}
	}
	if best == model.PlatformMarket {
		return best
	}
	if float64(bestTotal) > float64(analysis.ReferenceTotal)*recommendationBound {
		return model.PlatformMarket
	}
	return best
}
