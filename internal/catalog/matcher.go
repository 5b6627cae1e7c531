package catalog

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/rasoi-group/market-intel/internal/model"
)

// Matcher finds the cheapest plausible catalog entry for a free-text
// ingredient name. The sources share no identifier, so the join is by
// name only; implementations decide how loose that join is.
type Matcher interface {
	FindCheapest(entries []model.CatalogEntry, query string) (model.CatalogEntry, bool)
}

// SubstringMatcher matches case-insensitively by substring containment
// against the entry name and category. Among matches it picks the lowest
// price. Cheap and sufficient for the small curated ingredient
// vocabulary; callers must tolerate false positives on short queries.
type SubstringMatcher struct{}

// NewSubstringMatcher returns the default containment matcher.
func NewSubstringMatcher() *SubstringMatcher {
	return &SubstringMatcher{}
}

// FindCheapest returns the lowest-priced entry containing the query in
// its name or category, and false when the catalog is empty or nothing
// matches. Ties are broken by whichever match is seen first.
func (m *SubstringMatcher) FindCheapest(entries []model.CatalogEntry, query string) (model.CatalogEntry, bool) {
	q := Normalize(query)
	if q == "" {
		return model.CatalogEntry{}, false
	}

	var best model.CatalogEntry
	found := false
	for _, e := range entries {
		if !strings.Contains(Normalize(e.Name), q) && !strings.Contains(Normalize(e.Category), q) {
			continue
		}
		if !found || e.Price < best.Price {
			best = e
			found = true
		}
	}
	return best, found
}

// Normalize lowercases, strips accents, and collapses whitespace so that
// bilingual and brand-qualified labels still match.
func Normalize(s string) string {
	s = strings.ToLower(s)

	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	s, _, _ = transform.String(t, s)

	return strings.Join(strings.Fields(s), " ")
}
