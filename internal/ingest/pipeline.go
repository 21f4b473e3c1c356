// Package ingest orchestrates one batch run: fetch the classifieds feed,
// normalize every record, geocode under the 1-second spacing policy, and
// upsert by slug. Listings are processed strictly in feed order with no
// parallelism — the geocoder's rate policy forbids it and batch volumes are
// tens of records, not thousands.
package ingest

import (
	"context"
	"fmt"
	"log"
	"time"

	"reality-portal/internal/feed"
	"reality-portal/internal/geocoder"
	"reality-portal/internal/models"
	"reality-portal/internal/normalizer"
	"reality-portal/internal/ratelimit"
	"reality-portal/internal/slug"
)

// Fetcher retrieves raw feed records for one category pair.
type Fetcher interface {
	Fetch(category, dealType string, maxListings int) ([]feed.Record, error)
}

// Geocoder resolves an address to coordinates, nil on no match or failure.
type Geocoder interface {
	Geocode(ctx context.Context, address, city string) *geocoder.Coordinates
}

// Upserter persists a property by its slug key.
type Upserter interface {
	UpsertBySlug(p *models.Property) error
}

// Indexer feeds the optional external search index. Indexing failures never
// count against the run: the canonical row is already persisted.
type Indexer interface {
	IndexProperty(p *models.Property) error
}

// Summary is the only per-run output surfaced to callers: counts, never
// per-row detail (that goes to the operator log).
type Summary struct {
	Category   string    `json:"category"`
	DealType   string    `json:"deal_type"`
	Imported   int       `json:"imported"`
	Errors     int       `json:"errors"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

type Pipeline struct {
	fetcher    Fetcher
	geo        Geocoder
	store      Upserter
	indexer    Indexer // nil unless an external search engine is configured
	pacer      *ratelimit.Pacer
	normalizer *normalizer.Normalizer
}

type PipelineConfig struct {
	Fetcher    Fetcher
	Geocoder   Geocoder
	Store      Upserter
	Indexer    Indexer
	Pacer      *ratelimit.Pacer
	Normalizer *normalizer.Normalizer
}

func NewPipeline(cfg PipelineConfig) *Pipeline {
	if cfg.Pacer == nil {
		cfg.Pacer = ratelimit.NewPacer(time.Second)
	}
	return &Pipeline{
		fetcher:    cfg.Fetcher,
		geo:        cfg.Geocoder,
		store:      cfg.Store,
		indexer:    cfg.Indexer,
		pacer:      cfg.Pacer,
		normalizer: cfg.Normalizer,
	}
}

// Run ingests one category pair, capped at maxListings. A feed fetch failure
// is fatal to the whole run; every per-listing failure (geocode, upsert) is
// isolated, counted, and the batch moves on. No step retries: re-running the
// whole ingestion later retries naturally through upsert idempotency.
func (p *Pipeline) Run(ctx context.Context, category, dealType string, maxListings int) (*Summary, error) {
	summary := &Summary{
		Category:  category,
		DealType:  dealType,
		StartedAt: time.Now(),
	}

	records, err := p.fetcher.Fetch(category, dealType, maxListings)
	if err != nil {
		return nil, fmt.Errorf("feed fetch failed: %w", err)
	}

	propType := categoryType(category)
	status := dealStatus(dealType)

	log.Printf("[Ingest] Starting run: category=%s type=%s records=%d", category, dealType, len(records))

	for i, rec := range records {
		listing := p.normalizer.Normalize(rec, propType, status)

		// The pacer gates every geocode call; a cancelled context means
		// the caller's deadline passed, and rows already upserted stay
		// persisted (no batch rollback).
		if err := p.pacer.Wait(ctx); err != nil {
			summary.FinishedAt = time.Now()
			return summary, fmt.Errorf("ingestion cancelled after %d listings: %w", i, err)
		}

		// A listing that fails to geocode is still upserted with absent
		// coordinates.
		if coords := p.geo.Geocode(ctx, listing.Address, listing.City); coords != nil {
			listing.Lat = &coords.Lat
			listing.Lng = &coords.Lng
		}

		property := propertyFromListing(listing)

		if err := p.store.UpsertBySlug(property); err != nil {
			log.Printf("[Ingest] Upsert failed for slug=%s: %v", property.Slug, err)
			summary.Errors++
			continue
		}

		if p.indexer != nil {
			if err := p.indexer.IndexProperty(property); err != nil {
				log.Printf("[Ingest] Warning: failed to index slug=%s: %v", property.Slug, err)
			}
		}

		summary.Imported++
	}

	summary.FinishedAt = time.Now()
	log.Printf("[Ingest] Run completed: category=%s imported=%d errors=%d elapsed=%v",
		category, summary.Imported, summary.Errors, summary.FinishedAt.Sub(summary.StartedAt))

	return summary, nil
}

// propertyFromListing maps a normalized listing onto the canonical persisted
// shape. Re-ingested listings keep all of this mutable; id and created_at are
// preserved by the store's upsert.
func propertyFromListing(l models.Listing) *models.Property {
	return &models.Property{
		Slug:        slug.Make(l.Title, l.ExternalID),
		Title:       l.Title,
		Description: l.Description,
		Price:       l.Price,
		Address:     l.Address,
		City:        l.City,
		Bedrooms:    l.Bedrooms,
		Bathrooms:   l.Bathrooms,
		Area:        l.Area,
		Type:        l.Type,
		Status:      l.Status,
		Lat:         l.Lat,
		Lng:         l.Lng,
		Images:      models.StringList(l.Images),
		Features:    models.StringList{},
		SourceLink:  l.SourceLink,
		PublishedAt: l.PublishedAt,
		Published:   true,
	}
}

// categoryType maps the feed category parameter to the canonical property
// type. Unknown categories default to apartment rather than failing the run.
func categoryType(category string) models.PropertyType {
	switch category {
	case feed.CategoryHouses:
		return models.TypeHouse
	case feed.CategoryLand:
		return models.TypeLand
	case feed.CategoryCommercial:
		return models.TypeCommercial
	default:
		return models.TypeApartment
	}
}

func dealStatus(dealType string) models.DealStatus {
	if dealType == feed.DealRent {
		return models.StatusRent
	}
	return models.StatusSale
}
