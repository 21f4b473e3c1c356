package models

// SearchFilters is request-scoped: built from query parameters, discarded
// after the search.
type SearchFilters struct {
	Query        string
	MinPrice     *int
	MaxPrice     *int
	MinBedrooms  *int
	MinBathrooms *int
	Type         PropertyType
	City         string
}

// HasQuery reports whether free-text mode applies (full-text procedure plus
// in-memory refinement) instead of the structured storage-level query.
func (f SearchFilters) HasQuery() bool {
	return f.Query != ""
}

// GeolocationFilters parameterizes the nearby procedure.
type GeolocationFilters struct {
	Lat      float64
	Lng      float64
	RadiusKm float64
}

// DefaultRadiusKm is used when the caller does not specify a radius.
const DefaultRadiusKm = 50.0
