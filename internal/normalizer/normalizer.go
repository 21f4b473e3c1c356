// Package normalizer turns raw feed records into canonical listings. Every
// extractor is a best-effort heuristic over free text: on no match the field
// is left zero or absent, never rejected. Callers must treat zero price and
// nil pointers as "unknown", not as observed values.
package normalizer

import (
	"regexp"
	"strconv"
	"strings"

	"reality-portal/internal/feed"
	"reality-portal/internal/models"

	"github.com/PuerkitoBio/goquery"
)

type Normalizer struct {
	mediaHost string
}

// New creates a normalizer. mediaHost qualifies relative image URLs found in
// description HTML.
func New(mediaHost string) *Normalizer {
	return &Normalizer{mediaHost: strings.TrimSuffix(mediaHost, "/")}
}

// Normalize converts one raw record into a Listing. It never fails: fields
// that cannot be derived are defaulted (price 0, pointers nil, city
// "unknown"). Property type and deal status come from the feed category
// parameters, not from text.
func (n *Normalizer) Normalize(rec feed.Record, propType models.PropertyType, status models.DealStatus) models.Listing {
	listing := models.Listing{
		ExternalID:  rec.ID,
		Title:       strings.TrimSpace(rec.Title),
		Description: strings.TrimSpace(stripHTML(rec.Description)),
		Type:        propType,
		Status:      status,
		SourceLink:  rec.Link,
		PublishedAt: rec.PublishedAt,
	}

	// First match wins: title, then description.
	if rec.Price != nil {
		listing.Price = *rec.Price
	} else {
		listing.Price = ExtractPrice(rec.Title, rec.Description)
	}
	listing.Area = ExtractArea(rec.Title, rec.Description)
	listing.Bedrooms = ExtractBedrooms(rec.Title, rec.Description)
	listing.Bathrooms = DeriveBathrooms(listing.Bedrooms)

	if rec.City != "" {
		listing.City = rec.City
	} else {
		listing.City = ExtractCity(rec.Title)
	}
	listing.Address = ExtractAddress(rec.Title)

	listing.Images = n.collectImages(rec)

	return listing
}

// priceRe matches amounts like "4 200 000 Kč" or "4200000 CZK". Thousands
// groups may be separated by regular or non-breaking spaces.
var priceRe = regexp.MustCompile(`(\d(?:[\d \x{00A0}\x{202F}]*\d)?)\s*(?:Kč|CZK)`)

// ExtractPrice returns the first price found in the given texts, in crowns.
// No match yields 0 — a lossy-but-available default preferred over dropping
// the record.
func ExtractPrice(texts ...string) int {
	for _, text := range texts {
		matches := priceRe.FindStringSubmatch(text)
		if len(matches) < 2 {
			continue
		}
		digits := strings.Map(func(r rune) rune {
			if r >= '0' && r <= '9' {
				return r
			}
			return -1
		}, matches[1])
		if val, err := strconv.Atoi(digits); err == nil && val > 0 {
			return val
		}
	}
	return 0
}

// The word boundary applies only after the ASCII "2" spelling; "²" is not a
// word character, so a boundary after it never matches.
var areaRe = regexp.MustCompile(`(\d+(?:[.,]\d+)?)\s*m(?:²|2\b)`)

// ExtractArea returns the floor area in m², or nil when no figure is found.
func ExtractArea(texts ...string) *float64 {
	for _, text := range texts {
		matches := areaRe.FindStringSubmatch(text)
		if len(matches) < 2 {
			continue
		}
		cleaned := strings.ReplaceAll(matches[1], ",", ".")
		if val, err := strconv.ParseFloat(cleaned, 64); err == nil && val > 0 {
			return &val
		}
	}
	return nil
}

// roomsRe matches the Czech room-count notation "2+kk" or "3+1"; only the
// leading count is captured.
var roomsRe = regexp.MustCompile(`(?i)(\d)\s*\+\s*(?:kk|\d)`)

// ExtractBedrooms returns the room count from a "N+kk"/"N+M" layout code, or
// nil when the texts carry no such code.
func ExtractBedrooms(texts ...string) *int {
	for _, text := range texts {
		matches := roomsRe.FindStringSubmatch(text)
		if len(matches) < 2 {
			continue
		}
		if val, err := strconv.Atoi(matches[1]); err == nil && val > 0 {
			return &val
		}
	}
	return nil
}

// DeriveBathrooms estimates the bathroom count as max(1, bedrooms/2). The
// feed never states bathrooms; this is a placeholder proxy, not an observed
// value, and must not be treated as verified downstream.
func DeriveBathrooms(bedrooms *int) *int {
	if bedrooms == nil {
		return nil
	}
	count := *bedrooms / 2
	if count < 1 {
		count = 1
	}
	return &count
}

// majorCities is the fixed list the city heuristic matches first, before
// falling back to the trailing comma segment of the title.
var majorCities = []string{
	"Praha", "Brno", "Ostrava", "Plzeň", "Liberec", "Olomouc",
	"České Budějovice", "Hradec Králové", "Ústí nad Labem", "Pardubice",
	"Zlín", "Havířov", "Kladno", "Most", "Opava", "Jihlava",
	"Karlovy Vary", "Teplice", "Děčín", "Přerov",
}

var cityRe = buildCityRe()

// buildCityRe guards the city names with explicit non-letter/non-digit
// neighbors instead of \b, which is ASCII-only and never forms a boundary
// next to letters like ň or Ú.
func buildCityRe() *regexp.Regexp {
	quoted := make([]string, len(majorCities))
	for i, city := range majorCities {
		quoted[i] = regexp.QuoteMeta(city)
	}
	return regexp.MustCompile(`(?i)(?:^|[^\p{L}\p{N}])(` + strings.Join(quoted, "|") + `)(?:$|[^\p{L}\p{N}])`)
}

// ExtractCity matches the title against the major-city list, then falls back
// to the trailing comma segment, then to the literal "unknown".
func ExtractCity(title string) string {
	if matches := cityRe.FindStringSubmatch(title); len(matches) > 1 {
		// Return the canonical capitalization, not the matched text.
		for _, city := range majorCities {
			if strings.EqualFold(city, matches[1]) {
				return city
			}
		}
	}

	if idx := strings.LastIndex(title, ","); idx >= 0 {
		if segment := strings.TrimSpace(title[idx+1:]); segment != "" {
			return segment
		}
	}

	return "unknown"
}

// ExtractAddress returns the leading comma segment of the title, or the full
// title when it has no commas.
func ExtractAddress(title string) string {
	title = strings.TrimSpace(title)
	if idx := strings.Index(title, ","); idx > 0 {
		return strings.TrimSpace(title[:idx])
	}
	return title
}

// collectImages unions the record's media fields with <img> sources embedded
// in the description HTML, deduplicated by URL in encounter order. Relative
// URLs are qualified against the media host.
func (n *Normalizer) collectImages(rec feed.Record) []string {
	var images []string
	seen := make(map[string]bool)

	add := func(raw string) {
		u := n.qualifyURL(raw)
		if u == "" || seen[u] {
			return
		}
		seen[u] = true
		images = append(images, u)
	}

	for _, media := range rec.MediaURLs {
		add(media)
	}

	if doc, err := goquery.NewDocumentFromReader(strings.NewReader(rec.Description)); err == nil {
		doc.Find("img").Each(func(i int, s *goquery.Selection) {
			if src, exists := s.Attr("src"); exists {
				add(src)
			}
		})
	}

	return images
}

func (n *Normalizer) qualifyURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if strings.HasPrefix(raw, "http://") || strings.HasPrefix(raw, "https://") {
		return raw
	}
	if strings.HasPrefix(raw, "//") {
		return "https:" + raw
	}
	if !strings.HasPrefix(raw, "/") {
		raw = "/" + raw
	}
	return n.mediaHost + raw
}

// stripHTML flattens description HTML to its text content for storage. The
// markup is still consulted separately for image extraction.
func stripHTML(html string) string {
	if !strings.Contains(html, "<") {
		return html
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return html
	}
	return doc.Text()
}
