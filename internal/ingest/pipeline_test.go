package ingest

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"testing"
	"time"

	"reality-portal/internal/feed"
	"reality-portal/internal/geocoder"
	"reality-portal/internal/models"
	"reality-portal/internal/normalizer"
	"reality-portal/internal/ratelimit"
)

type fakeFetcher struct {
	records []feed.Record
	err     error
}

func (f *fakeFetcher) Fetch(category, dealType string, maxListings int) ([]feed.Record, error) {
	return f.records, f.err
}

type fakeGeocoder struct {
	coords *geocoder.Coordinates
	calls  int
}

func (g *fakeGeocoder) Geocode(ctx context.Context, address, city string) *geocoder.Coordinates {
	g.calls++
	return g.coords
}

type fakeStore struct {
	upserted []*models.Property
	failSlug string
}

func (s *fakeStore) UpsertBySlug(p *models.Property) error {
	if p.Slug == s.failSlug {
		return errors.New("constraint violation")
	}
	s.upserted = append(s.upserted, p)
	return nil
}

type fakeIndexer struct {
	indexed int
	err     error
}

func (x *fakeIndexer) IndexProperty(p *models.Property) error {
	x.indexed++
	return x.err
}

func makeRecords(n int) []feed.Record {
	records := make([]feed.Record, n)
	for i := range records {
		records[i] = feed.Record{
			ID:    strconv.Itoa(i + 1),
			Title: fmt.Sprintf("Byt %d+kk, Brno", i+1),
		}
	}
	return records
}

func newTestPipeline(f Fetcher, g Geocoder, s Upserter, x Indexer) *Pipeline {
	return NewPipeline(PipelineConfig{
		Fetcher:    f,
		Geocoder:   g,
		Store:      s,
		Indexer:    x,
		Pacer:      ratelimit.NewPacer(time.Millisecond),
		Normalizer: normalizer.New(""),
	})
}

func TestRunImportsAllRecords(t *testing.T) {
	st := &fakeStore{}
	geo := &fakeGeocoder{coords: &geocoder.Coordinates{Lat: 49.2, Lng: 16.6}}
	p := newTestPipeline(&fakeFetcher{records: makeRecords(3)}, geo, st, nil)

	summary, err := p.Run(context.Background(), feed.CategoryApartments, feed.DealSale, 10)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Imported != 3 || summary.Errors != 0 {
		t.Errorf("summary = imported %d errors %d, want 3/0", summary.Imported, summary.Errors)
	}
	if geo.calls != 3 {
		t.Errorf("geocoder calls = %d, want one per record", geo.calls)
	}

	first := st.upserted[0]
	if first.Slug != "byt-1-kk-brno-1" {
		t.Errorf("Slug = %q, want %q", first.Slug, "byt-1-kk-brno-1")
	}
	if first.Lat == nil || *first.Lat != 49.2 {
		t.Errorf("Lat = %v, want 49.2", first.Lat)
	}
	if first.Type != models.TypeApartment || first.Status != models.StatusSale {
		t.Errorf("Type/Status = %v/%v", first.Type, first.Status)
	}
	if !first.Published {
		t.Error("Published = false, want true")
	}
}

func TestRunUpsertFailureIsIsolated(t *testing.T) {
	st := &fakeStore{failSlug: "byt-3-kk-brno-3"}
	p := newTestPipeline(&fakeFetcher{records: makeRecords(5)}, &fakeGeocoder{}, st, nil)

	summary, err := p.Run(context.Background(), feed.CategoryApartments, feed.DealSale, 10)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Imported != 4 {
		t.Errorf("Imported = %d, want 4", summary.Imported)
	}
	if summary.Errors != 1 {
		t.Errorf("Errors = %d, want 1", summary.Errors)
	}
	if len(st.upserted) != 4 {
		t.Errorf("upserted = %d rows, want 4", len(st.upserted))
	}
}

func TestRunGeocodeFailureStillUpserts(t *testing.T) {
	st := &fakeStore{}
	p := newTestPipeline(&fakeFetcher{records: makeRecords(2)}, &fakeGeocoder{coords: nil}, st, nil)

	summary, err := p.Run(context.Background(), feed.CategoryApartments, feed.DealSale, 10)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Imported != 2 || summary.Errors != 0 {
		t.Errorf("summary = imported %d errors %d, want 2/0", summary.Imported, summary.Errors)
	}
	for _, p := range st.upserted {
		if p.Lat != nil || p.Lng != nil {
			t.Errorf("slug=%s has coordinates %v/%v, want absent", p.Slug, p.Lat, p.Lng)
		}
	}
}

func TestRunFeedFailureIsFatal(t *testing.T) {
	p := newTestPipeline(&fakeFetcher{err: errors.New("status 502")}, &fakeGeocoder{}, &fakeStore{}, nil)

	summary, err := p.Run(context.Background(), feed.CategoryApartments, feed.DealSale, 10)
	if err == nil {
		t.Fatal("Run returned nil error on fetch failure")
	}
	if summary != nil {
		t.Errorf("summary = %+v, want nil on fetch failure", summary)
	}
}

func TestRunIndexFailureNotCounted(t *testing.T) {
	st := &fakeStore{}
	idx := &fakeIndexer{err: errors.New("index unavailable")}
	p := newTestPipeline(&fakeFetcher{records: makeRecords(2)}, &fakeGeocoder{}, st, idx)

	summary, err := p.Run(context.Background(), feed.CategoryApartments, feed.DealSale, 10)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Imported != 2 || summary.Errors != 0 {
		t.Errorf("summary = imported %d errors %d, want index failures ignored", summary.Imported, summary.Errors)
	}
	if idx.indexed != 2 {
		t.Errorf("index attempts = %d, want 2", idx.indexed)
	}
}

func TestRunCancelledReturnsPartialSummary(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	st := &fakeStore{}
	p := newTestPipeline(&fakeFetcher{records: makeRecords(3)}, &fakeGeocoder{}, st, nil)

	summary, err := p.Run(ctx, feed.CategoryApartments, feed.DealSale, 10)
	if err == nil {
		t.Fatal("Run on cancelled context returned nil error")
	}
	if summary == nil {
		t.Fatal("summary = nil, want partial summary on cancellation")
	}
	if summary.Imported != len(st.upserted) {
		t.Errorf("Imported = %d, upserted = %d, want equal", summary.Imported, len(st.upserted))
	}
}

func TestCategoryAndDealMapping(t *testing.T) {
	tests := []struct {
		category string
		deal     string
		wantType models.PropertyType
		wantStat models.DealStatus
	}{
		{feed.CategoryApartments, feed.DealSale, models.TypeApartment, models.StatusSale},
		{feed.CategoryHouses, feed.DealRent, models.TypeHouse, models.StatusRent},
		{feed.CategoryLand, feed.DealSale, models.TypeLand, models.StatusSale},
		{feed.CategoryCommercial, feed.DealSale, models.TypeCommercial, models.StatusSale},
		{"neznama", "neznamy", models.TypeApartment, models.StatusSale},
	}

	for _, tt := range tests {
		if got := categoryType(tt.category); got != tt.wantType {
			t.Errorf("categoryType(%q) = %v, want %v", tt.category, got, tt.wantType)
		}
		if got := dealStatus(tt.deal); got != tt.wantStat {
			t.Errorf("dealStatus(%q) = %v, want %v", tt.deal, got, tt.wantStat)
		}
	}
}
