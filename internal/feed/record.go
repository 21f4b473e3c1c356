package feed

import "time"

// Record is one raw feed entry before normalization. The RSS variant carries
// everything as free text (price and attributes embedded in title or
// description); the JSON variant may additionally fill the structured fields.
type Record struct {
	ID          string
	Title       string
	Description string // may contain embedded HTML
	Link        string
	PublishedAt *time.Time

	// Media references collected from enclosure/attachment fields. Image
	// URLs embedded in the description HTML are extracted separately by the
	// normalizer.
	MediaURLs []string

	// Structured fields, present only in the JSON feed variant.
	Price *int
	City  string
}
