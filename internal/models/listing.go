package models

import "time"

// Listing is one external feed record after normalization and before upsert.
// Zero price and absent pointer fields mean "unknown", not "verified zero":
// the normalizer never rejects a record, it substitutes defaults instead.
type Listing struct {
	ExternalID  string
	Title       string
	Description string
	Price       int
	Address     string
	City        string
	Bedrooms    *int
	Bathrooms   *int
	Area        *float64
	Images      []string
	Lat         *float64
	Lng         *float64
	Type        PropertyType
	Status      DealStatus
	SourceLink  string
	PublishedAt *time.Time
}
