package search

import (
	"strings"

	"reality-portal/internal/models"
)

// Refine narrows an already-ranked result set with the structured filters the
// full-text procedure cannot express server-side. The filter is stable: rows
// keep the rank order they arrived in, survivors are never re-sorted.
func Refine(properties []models.Property, filters models.SearchFilters) []models.Property {
	refined := make([]models.Property, 0, len(properties))
	for _, p := range properties {
		if matches(p, filters) {
			refined = append(refined, p)
		}
	}
	return refined
}

func matches(p models.Property, f models.SearchFilters) bool {
	if f.MinPrice != nil && p.Price < *f.MinPrice {
		return false
	}
	if f.MaxPrice != nil && p.Price > *f.MaxPrice {
		return false
	}
	if f.MinBedrooms != nil && (p.Bedrooms == nil || *p.Bedrooms < *f.MinBedrooms) {
		return false
	}
	if f.MinBathrooms != nil && (p.Bathrooms == nil || *p.Bathrooms < *f.MinBathrooms) {
		return false
	}
	if f.Type != "" && p.Type != f.Type {
		return false
	}
	if f.City != "" && !strings.Contains(strings.ToLower(p.City), strings.ToLower(f.City)) {
		return false
	}
	return true
}
