// Package dish resolves dish names to ingredient lists and prices a
// dish's basket across every known source.
package dish

import (
	_ "embed"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/rasoi-group/market-intel/internal/catalog"
)

//go:embed dishes.yaml
var defaultMapping []byte

// Recipe is one dish's reference data from the mapping file.
type Recipe struct {
	Category    string   `yaml:"category"`
	BasePrice   int      `yaml:"base_price"`
	Ingredients []string `yaml:"ingredients"`
}

type mappingFile struct {
	Dishes map[string]Recipe `yaml:"dishes"`
}

// Mapping is the loaded dish to ingredient-list reference table. Keys
// are normalized dish names.
type Mapping struct {
	recipes map[string]Recipe
}

// LoadMapping reads the mapping YAML from path, or falls back to the
// embedded default table when path is empty.
func LoadMapping(path string) (*Mapping, error) {
	raw := defaultMapping
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, eris.Wrapf(err, "dish: read mapping %s", path)
		}
		raw = data
	}

	var file mappingFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, eris.Wrap(err, "dish: parse mapping")
	}
	if len(file.Dishes) == 0 {
		return nil, eris.New("dish: mapping contains no dishes")
	}

	recipes := make(map[string]Recipe, len(file.Dishes))
	for name, recipe := range file.Dishes {
		recipes[catalog.Normalize(name)] = recipe
	}
	return &Mapping{recipes: recipes}, nil
}

// Lookup returns the recipe for a dish. Unknown dishes fall through a
// small set of name heuristics before the generic staple list.
func (m *Mapping) Lookup(dishName string) (Recipe, bool) {
	key := catalog.Normalize(dishName)
	if recipe, ok := m.recipes[key]; ok {
		return recipe, true
	}
	for name, recipe := range m.recipes {
		if strings.Contains(key, name) || strings.Contains(name, key) {
			return recipe, true
		}
	}
	return heuristicRecipe(key)
}

// heuristicRecipe guesses an ingredient list for dishes outside the
// mapping. The generic list covers the base of most Indian cooking.
func heuristicRecipe(key string) (Recipe, bool) {
	switch {
	case strings.Contains(key, "chai") || strings.Contains(key, "tea"):
		return Recipe{
			Category:    "beverage",
			BasePrice:   20,
			Ingredients: []string{"Milk (Doodh)", "Ginger (Adrak)"},
		}, false
	case strings.Contains(key, "paneer"):
		return Recipe{
			Category:    "main course",
			BasePrice:   200,
			Ingredients: []string{"Paneer", "Tomato (Tamatar)", "Onion (Pyaz)"},
		}, false
	case strings.Contains(key, "rice") || strings.Contains(key, "biryani") || strings.Contains(key, "pulao"):
		return Recipe{
			Category:    "main course",
			BasePrice:   120,
			Ingredients: []string{"Rice (Chawal)", "Onion (Pyaz)", "Mustard Oil (Sarson Tel)"},
		}, false
	default:
		return Recipe{
			Category:  "main course",
			BasePrice: 100,
			Ingredients: []string{
				"Onion (Pyaz)", "Tomato (Tamatar)", "Potato (Aloo)",
				"Ginger (Adrak)", "Garlic (Lahsun)",
			},
		}, false
	}
}
