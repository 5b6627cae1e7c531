package dish

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rasoi-group/market-intel/internal/catalog"
	"github.com/rasoi-group/market-intel/internal/model"
)

type stubReader struct {
	records map[string]*model.PriceRecord
}

func (r *stubReader) GetPrice(_ context.Context, name string) (*model.PriceRecord, error) {
	return r.records[name], nil
}

func chaiCache() *catalog.Cache {
	cache := catalog.NewCache()
	cache.Replace(model.PlatformBlinkit, []model.CatalogEntry{
		{Name: "Amul Milk 1L", Price: 54, Quantity: "1 litre"},
		{Name: "Fresh Ginger", Price: 110, Quantity: "1 kg"},
	})
	cache.Replace(model.PlatformZepto, []model.CatalogEntry{
		{Name: "Milk Toned 1L", Price: 52, Quantity: "1 litre"},
		{Name: "Ginger Organic", Price: 130, Quantity: "1 kg"},
	})
	return cache
}

func newTestAnalyzer(t *testing.T, cache *catalog.Cache, reader PriceReader) *Analyzer {
	t.Helper()
	mapping, err := LoadMapping("")
	require.NoError(t, err)
	return NewAnalyzer(mapping, cache, catalog.NewSubstringMatcher(), reader)
}

func TestAnalyzeKnownDish(t *testing.T) {
	reader := &stubReader{records: map[string]*model.PriceRecord{
		"Milk (Doodh)":   {Name: "Milk (Doodh)", MarketPrice: 56},
		"Ginger (Adrak)": {Name: "Ginger (Adrak)", MarketPrice: 120},
	}}
	a := newTestAnalyzer(t, chaiCache(), reader)

	got, err := a.Analyze(context.Background(), "Masala Chai")
	require.NoError(t, err)

	assert.True(t, got.Known)
	assert.Equal(t, "beverage", got.Category)
	require.Len(t, got.Ingredients, 2)

	milk := got.Ingredients[0]
	assert.Equal(t, "Milk (Doodh)", milk.Name)
	assert.Equal(t, 56, milk.ReferencePrice)
	assert.Equal(t, 52, milk.CheapestPrice)
	assert.Equal(t, model.PlatformZepto, milk.CheapestSource)
	assert.Equal(t, -7, milk.DeltaPercent)

	ginger := got.Ingredients[1]
	assert.Equal(t, 110, ginger.CheapestPrice)
	assert.Equal(t, model.PlatformBlinkit, ginger.CheapestSource)

	assert.Equal(t, 176, got.ReferenceTotal)
	assert.Equal(t, 164, got.PlatformTotals[model.PlatformBlinkit])
	assert.Equal(t, 182, got.PlatformTotals[model.PlatformZepto])
	assert.Equal(t, model.PlatformBlinkit, got.Recommended)
}

func TestAnalyzeRecommendationBound(t *testing.T) {
	cache := catalog.NewCache()
	// Quotes every ingredient but far above the reference basket.
	cache.Replace(model.PlatformBlinkit, []model.CatalogEntry{
		{Name: "Milk Premium Import", Price: 200},
		{Name: "Ginger Gourmet", Price: 400},
	})
	a := newTestAnalyzer(t, cache, &stubReader{})

	got, err := a.Analyze(context.Background(), "masala chai")
	require.NoError(t, err)

	// 600 > 1.5 * (56 + 120): the platform total fails the sanity bound.
	assert.Equal(t, model.PlatformMarket, got.Recommended)
}

func TestAnalyzePartialQuoteNotRecommended(t *testing.T) {
	cache := catalog.NewCache()
	cache.Replace(model.PlatformBlinkit, []model.CatalogEntry{
		{Name: "Fresh Ginger", Price: 5},
	})
	a := newTestAnalyzer(t, cache, &stubReader{})

	got, err := a.Analyze(context.Background(), "masala chai")
	require.NoError(t, err)

	// One cheap item is not a basket: milk was never quoted.
	assert.Equal(t, model.PlatformMarket, got.Recommended)
}

func TestAnalyzeHeuristicTea(t *testing.T) {
	a := newTestAnalyzer(t, catalog.NewCache(), &stubReader{})

	got, err := a.Analyze(context.Background(), "Kulhad Tea Special")
	require.NoError(t, err)

	assert.False(t, got.Known)
	names := make([]string, 0, len(got.Ingredients))
	for _, ing := range got.Ingredients {
		names = append(names, ing.Name)
	}
	assert.Equal(t, []string{"Milk (Doodh)", "Ginger (Adrak)"}, names)
	// Baselines back the reference when nothing else answers.
	assert.Equal(t, 56+120, got.ReferenceTotal)
	assert.Equal(t, model.PlatformMarket, got.Recommended)
}

func TestAnalyzeGenericFallback(t *testing.T) {
	a := newTestAnalyzer(t, catalog.NewCache(), &stubReader{})

	got, err := a.Analyze(context.Background(), "Mystery Curry")
	require.NoError(t, err)

	assert.False(t, got.Known)
	assert.Len(t, got.Ingredients, 5)
	assert.Equal(t, "main course", got.Category)
}

func TestAnalyzeEmptyName(t *testing.T) {
	a := newTestAnalyzer(t, catalog.NewCache(), &stubReader{})
	_, err := a.Analyze(context.Background(), "")
	require.Error(t, err)
}

func TestLoadMappingFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "dishes.yaml")
	content := `dishes:
  poha:
    category: breakfast
    base_price: 40
    ingredients:
      - Onion (Pyaz)
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	mapping, err := LoadMapping(path)
	require.NoError(t, err)

	recipe, ok := mapping.Lookup("Poha")
	assert.True(t, ok)
	assert.Equal(t, []string{"Onion (Pyaz)"}, recipe.Ingredients)

	// The file replaces the embedded table entirely.
	_, ok = mapping.Lookup("masala chai")
	assert.False(t, ok)
}

func TestLoadMappingErrors(t *testing.T) {
	_, err := LoadMapping(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte(":::"), 0o644))
	_, err = LoadMapping(bad)
	require.Error(t, err)
}
