package normalizer

import (
	"reflect"
	"testing"

	"reality-portal/internal/feed"
	"reality-portal/internal/models"
)

func TestNormalizeTypicalListing(t *testing.T) {
	n := New("https://media.example.cz")

	rec := feed.Record{
		ID:          "100200",
		Title:       "Byt 2+kk, 55 m², 4 200 000 Kč, Brno",
		Description: `<p>Slunný byt v centru.</p><img src="/images/1.jpg">`,
		Link:        "https://www.bazos.cz/inzerat/100200",
	}

	listing := n.Normalize(rec, models.TypeApartment, models.StatusSale)

	if listing.Price != 4200000 {
		t.Errorf("Price = %d, want 4200000", listing.Price)
	}
	if listing.Area == nil || *listing.Area != 55 {
		t.Errorf("Area = %v, want 55", listing.Area)
	}
	if listing.Bedrooms == nil || *listing.Bedrooms != 2 {
		t.Errorf("Bedrooms = %v, want 2", listing.Bedrooms)
	}
	if listing.Bathrooms == nil || *listing.Bathrooms != 1 {
		t.Errorf("Bathrooms = %v, want 1", listing.Bathrooms)
	}
	if listing.City != "Brno" {
		t.Errorf("City = %q, want %q", listing.City, "Brno")
	}
	if listing.Type != models.TypeApartment || listing.Status != models.StatusSale {
		t.Errorf("Type/Status = %v/%v, want apartment/sale", listing.Type, listing.Status)
	}
	if listing.Description != "Slunný byt v centru." {
		t.Errorf("Description = %q, want HTML stripped", listing.Description)
	}
	want := []string{"https://media.example.cz/images/1.jpg"}
	if !reflect.DeepEqual(listing.Images, want) {
		t.Errorf("Images = %v, want %v", listing.Images, want)
	}
}

func TestNormalizeUnparseableTextDefaults(t *testing.T) {
	n := New("https://media.example.cz")

	listing := n.Normalize(feed.Record{
		ID:    "7",
		Title: "Nemovitost na prodej",
	}, models.TypeHouse, models.StatusSale)

	if listing.Price != 0 {
		t.Errorf("Price = %d, want 0", listing.Price)
	}
	if listing.Area != nil || listing.Bedrooms != nil || listing.Bathrooms != nil {
		t.Errorf("Area/Bedrooms/Bathrooms = %v/%v/%v, want all nil",
			listing.Area, listing.Bedrooms, listing.Bathrooms)
	}
	if listing.City != "unknown" {
		t.Errorf("City = %q, want %q", listing.City, "unknown")
	}
	if listing.Address != "Nemovitost na prodej" {
		t.Errorf("Address = %q, want full title", listing.Address)
	}
}

func TestNormalizePrefersStructuredFields(t *testing.T) {
	n := New("")
	price := 1500000

	listing := n.Normalize(feed.Record{
		ID:    "8",
		Title: "Byt 1+kk, 9 999 999 Kč",
		Price: &price,
		City:  "Lhota",
	}, models.TypeApartment, models.StatusRent)

	if listing.Price != 1500000 {
		t.Errorf("Price = %d, want structured 1500000 over text 9999999", listing.Price)
	}
	if listing.City != "Lhota" {
		t.Errorf("City = %q, want structured %q", listing.City, "Lhota")
	}
}

func TestExtractPrice(t *testing.T) {
	tests := []struct {
		text string
		want int
	}{
		{"Cena 4 200 000 Kč", 4200000},
		{"Cena 4200000 Kč", 4200000},
		{"3 500 000 CZK za dům", 3500000},
		{"Cena 2 990 000 Kč", 2990000},
		{"Cena dohodou", 0},
		{"", 0},
	}

	for _, tt := range tests {
		if got := ExtractPrice(tt.text); got != tt.want {
			t.Errorf("ExtractPrice(%q) = %d, want %d", tt.text, got, tt.want)
		}
	}
}

func TestExtractPriceFirstMatchWins(t *testing.T) {
	got := ExtractPrice("Byt za 1 000 000 Kč", "původně 2 000 000 Kč")
	if got != 1000000 {
		t.Errorf("ExtractPrice = %d, want title match 1000000", got)
	}
}

func TestExtractArea(t *testing.T) {
	tests := []struct {
		text string
		want float64
		ok   bool
	}{
		{"Byt 55 m²", 55, true},
		{"Byt 2+kk, 55 m², 4 200 000 Kč, Brno", 55, true},
		{"Zahrada 800 m² se studnou", 800, true},
		{"Byt 55m2 v centru", 55, true},
		{"Pozemek 1200,5 m2", 1200.5, true},
		{"Byt bez výměry", 0, false},
		{"Rychlost 100 m2s", 0, false},
	}

	for _, tt := range tests {
		got := ExtractArea(tt.text)
		if tt.ok != (got != nil) {
			t.Errorf("ExtractArea(%q) = %v, want present=%v", tt.text, got, tt.ok)
			continue
		}
		if got != nil && *got != tt.want {
			t.Errorf("ExtractArea(%q) = %v, want %v", tt.text, *got, tt.want)
		}
	}
}

func TestExtractBedrooms(t *testing.T) {
	tests := []struct {
		text string
		want int
		ok   bool
	}{
		{"Byt 2+kk", 2, true},
		{"Byt 3+1 s balkonem", 3, true},
		{"Byt 2 + KK", 2, true},
		{"Garsonka", 0, false},
	}

	for _, tt := range tests {
		got := ExtractBedrooms(tt.text)
		if tt.ok != (got != nil) {
			t.Errorf("ExtractBedrooms(%q) = %v, want present=%v", tt.text, got, tt.ok)
			continue
		}
		if got != nil && *got != tt.want {
			t.Errorf("ExtractBedrooms(%q) = %d, want %d", tt.text, *got, tt.want)
		}
	}
}

func TestDeriveBathrooms(t *testing.T) {
	tests := []struct {
		bedrooms int
		want     int
	}{
		{1, 1},
		{2, 1},
		{3, 1},
		{4, 2},
		{6, 3},
	}

	for _, tt := range tests {
		got := DeriveBathrooms(&tt.bedrooms)
		if got == nil || *got != tt.want {
			t.Errorf("DeriveBathrooms(%d) = %v, want %d", tt.bedrooms, got, tt.want)
		}
	}

	if got := DeriveBathrooms(nil); got != nil {
		t.Errorf("DeriveBathrooms(nil) = %v, want nil", got)
	}
}

func TestExtractCity(t *testing.T) {
	tests := []struct {
		title string
		want  string
	}{
		{"Byt 2+kk v centru, Brno", "Brno"},
		{"Prodej bytu praha 5", "Praha"},
		{"Byt v Plzeň centrum", "Plzeň"},
		{"Prodej bytu Ústí nad Labem blízko centra", "Ústí nad Labem"},
		{"Novostavba Děčín", "Děčín"},
		{"Plzeňská 12", "unknown"},
		{"Dům se zahradou, Malá Lhota", "Malá Lhota"},
		{"Pozemek bez lokality", "unknown"},
		{"Chata u lesa,", "unknown"},
	}

	for _, tt := range tests {
		if got := ExtractCity(tt.title); got != tt.want {
			t.Errorf("ExtractCity(%q) = %q, want %q", tt.title, got, tt.want)
		}
	}
}

func TestExtractAddress(t *testing.T) {
	tests := []struct {
		title string
		want  string
	}{
		{"Ulice Kvetná 12, Brno", "Ulice Kvetná 12"},
		{"Byt bez adresy", "Byt bez adresy"},
		{"  Dům, Praha, Žižkov  ", "Dům"},
	}

	for _, tt := range tests {
		if got := ExtractAddress(tt.title); got != tt.want {
			t.Errorf("ExtractAddress(%q) = %q, want %q", tt.title, got, tt.want)
		}
	}
}

func TestCollectImagesDedupeAndQualify(t *testing.T) {
	n := New("https://media.example.cz/")

	rec := feed.Record{
		MediaURLs: []string{
			"https://media.example.cz/images/1.jpg",
			"//cdn.example.cz/2.jpg",
		},
		Description: `<div>
			<img src="/images/1.jpg">
			<img src="images/3.jpg">
			<img src="https://media.example.cz/images/1.jpg">
		</div>`,
	}

	got := n.collectImages(rec)
	want := []string{
		"https://media.example.cz/images/1.jpg",
		"https://cdn.example.cz/2.jpg",
		"https://media.example.cz/images/3.jpg",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("collectImages = %v, want %v", got, want)
	}
}
