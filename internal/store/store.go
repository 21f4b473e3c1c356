// Package store owns the canonical property rows. Two backends implement the
// same interface: PostgreSQL (raw database/sql, with the full-text and
// geo-distance procedures installed as SQL functions) and MySQL via GORM
// (full-text through MATCH..AGAINST, distance through an inline haversine
// expression). The backend is selected once at startup from configuration.
package store

import (
	"crypto/md5"
	"fmt"

	"reality-portal/internal/models"
)

type Store interface {
	InitSchema() error
	Close() error

	// UpsertBySlug inserts a new row or overwrites all mutable fields of the
	// existing row with the same slug. ID and CreatedAt survive re-ingestion.
	UpsertBySlug(p *models.Property) error

	// Admin CRUD.
	CreateProperty(p *models.Property) error
	UpdateProperty(p *models.Property) error
	DeleteProperty(id string) error
	GetPropertyByID(id string) (*models.Property, error)
	GetPropertyBySlug(slug string) (*models.Property, error)

	// ListProperties is the structured query path: storage-level predicates,
	// newest first, capped at limit.
	ListProperties(filters models.SearchFilters, limit int) ([]models.Property, error)

	// AllProperties returns every row regardless of published state (reindex
	// and admin listing).
	AllProperties() ([]models.Property, error)

	// SearchProperties invokes the ranked full-text procedure. The returned
	// order is the procedure's ranking and must be preserved by callers.
	SearchProperties(query string) ([]models.Property, error)

	// NearbyProperties invokes the geo-distance procedure; rows come back in
	// ascending distance order.
	NearbyProperties(lat, lng, radiusKm float64) ([]models.PropertyWithDistance, error)

	// Suggestion lookups: distinct values matching a substring, capped.
	DistinctCities(substring string, limit int) ([]string, error)
	DistinctPropertyTypes(substring string, limit int) ([]string, error)

	// Admin statistics.
	CountByPublished() (published int64, unpublished int64, err error)
	CountByType() (map[string]int64, error)
	CountPriceBetween(minPrice, maxPrice int) (int64, error)
}

// searchResultLimit caps both query paths; the full-text procedure applies
// the same cap server-side.
const searchResultLimit = 50

// prepare fills derived fields before a write: the row id from the slug and
// the main image from the first image.
func prepare(p *models.Property) error {
	if p.Slug == "" {
		return fmt.Errorf("property slug must be set before save")
	}
	if p.ID == "" {
		p.ID = generateMD5(p.Slug)
	}
	if p.MainImage == "" && len(p.Images) > 0 {
		p.MainImage = p.Images[0]
	}
	if p.Images == nil {
		p.Images = models.StringList{}
	}
	if p.Features == nil {
		p.Features = models.StringList{}
	}
	return nil
}

// generateMD5 generates MD5 hash for a string
func generateMD5(text string) string {
	hash := md5.Sum([]byte(text))
	return fmt.Sprintf("%x", hash)
}
