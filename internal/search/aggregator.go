// Package search implements the read-side aggregators: dual-mode property
// search, geo-radius nearby lookup and keystroke suggestions. Aggregators are
// stateless between calls; the storage backend is their only collaborator.
package search

import (
	"fmt"

	"reality-portal/internal/models"
)

// Store is the slice of the storage contract the aggregators read from.
type Store interface {
	SearchProperties(query string) ([]models.Property, error)
	ListProperties(filters models.SearchFilters, limit int) ([]models.Property, error)
	NearbyProperties(lat, lng, radiusKm float64) ([]models.PropertyWithDistance, error)
	DistinctCities(substring string, limit int) ([]string, error)
	DistinctPropertyTypes(substring string, limit int) ([]string, error)
}

// TextSearcher is the ranked full-text collaborator. The database procedure
// satisfies it by default; a Meilisearch index can be swapped in by
// configuration without touching the aggregator contract.
type TextSearcher interface {
	SearchProperties(query string) ([]models.Property, error)
}

// searchMode tags the two execution strategies. The mode is selected once per
// operation: the paths differ in staleness and cost characteristics and are
// tested independently.
type searchMode int

const (
	// modeStructured builds the filter predicate at the storage layer,
	// newest first.
	modeStructured searchMode = iota
	// modeTextThenFilter runs the ranked full-text procedure, then narrows
	// the fixed row shape in memory (the procedure accepts no extra
	// predicates).
	modeTextThenFilter
)

const (
	// minSuggestLen gates suggestion lookups; shorter input returns empty
	// without touching the backend.
	minSuggestLen = 2

	perLookupSuggestLimit = 5
	totalSuggestLimit     = 8
)

type Aggregator struct {
	store Store
	text  TextSearcher
}

// NewAggregator wires the aggregator to its backend. A nil text engine means
// free-text queries go through the store's own search procedure.
func NewAggregator(store Store, text TextSearcher) *Aggregator {
	if text == nil {
		text = store
	}
	return &Aggregator{store: store, text: text}
}

// Search runs one of two mutually exclusive strategies, chosen by the
// presence of a free-text query. Any backend failure surfaces as an error
// with no partial results; callers translate that into an empty, flagged
// response rather than raw backend text.
func (a *Aggregator) Search(filters models.SearchFilters) ([]models.Property, error) {
	mode := modeStructured
	if filters.HasQuery() {
		mode = modeTextThenFilter
	}

	switch mode {
	case modeTextThenFilter:
		ranked, err := a.text.SearchProperties(filters.Query)
		if err != nil {
			return nil, fmt.Errorf("full-text search failed: %w", err)
		}
		// Rank order from the text search survives the narrowing pass.
		return Refine(ranked, filters), nil

	default:
		properties, err := a.store.ListProperties(filters, 0)
		if err != nil {
			return nil, fmt.Errorf("structured search failed: %w", err)
		}
		return properties, nil
	}
}

// Nearby invokes the geo-distance procedure. Rows arrive in ascending
// distance order and are not re-sorted; optional structured filters get the
// same in-memory pass as free-text results.
func (a *Aggregator) Nearby(geo models.GeolocationFilters, filters models.SearchFilters) ([]models.PropertyWithDistance, error) {
	if geo.RadiusKm <= 0 {
		geo.RadiusKm = models.DefaultRadiusKm
	}

	results, err := a.store.NearbyProperties(geo.Lat, geo.Lng, geo.RadiusKm)
	if err != nil {
		return nil, fmt.Errorf("nearby search failed: %w", err)
	}

	filtered := make([]models.PropertyWithDistance, 0, len(results))
	for _, pd := range results {
		if matches(pd.Property, filters) {
			filtered = append(filtered, pd)
		}
	}
	return filtered, nil
}

// Suggest returns autocomplete entries for a partial query: distinct city and
// property-type values unioned and deduplicated. Input shorter than two
// characters short-circuits to an empty list with no backend call, which bounds
// per-keystroke load (the UI additionally debounces).
func (a *Aggregator) Suggest(partial string) ([]string, error) {
	if len([]rune(partial)) < minSuggestLen {
		return []string{}, nil
	}

	cities, err := a.store.DistinctCities(partial, perLookupSuggestLimit)
	if err != nil {
		return nil, fmt.Errorf("city suggestions failed: %w", err)
	}

	types, err := a.store.DistinctPropertyTypes(partial, perLookupSuggestLimit)
	if err != nil {
		return nil, fmt.Errorf("type suggestions failed: %w", err)
	}

	seen := make(map[string]bool)
	suggestions := make([]string, 0, totalSuggestLimit)
	for _, v := range append(cities, types...) {
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		suggestions = append(suggestions, v)
		if len(suggestions) >= totalSuggestLimit {
			break
		}
	}
	return suggestions, nil
}
