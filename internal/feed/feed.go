// Package feed fetches and decodes the external classifieds feed. One fetch
// returns all records for a (category, deal type) pair; detail pages are
// never visited.
package feed

import (
	"compress/gzip"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// Category codes understood by the feed endpoint.
const (
	CategoryApartments = "byty"
	CategoryHouses     = "domy"
	CategoryLand       = "pozemky"
	CategoryCommercial = "komercni"
)

// Deal type codes understood by the feed endpoint.
const (
	DealSale = "prodej"
	DealRent = "pronajem"
)

type Client struct {
	client    *http.Client
	baseURL   string
	format    string // "rss" or "json"
	userAgent string
}

type ClientConfig struct {
	BaseURL   string
	Format    string
	Timeout   time.Duration
	UserAgent string
}

func NewClient(cfg ClientConfig) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.Format == "" {
		cfg.Format = "rss"
	}
	return &Client{
		client:    &http.Client{Timeout: cfg.Timeout},
		baseURL:   cfg.BaseURL,
		format:    cfg.Format,
		userAgent: cfg.UserAgent,
	}
}

// Fetch retrieves the feed for one category pair, capped at maxListings.
// The cap is passed to the endpoint so oversized feeds are truncated before
// transfer, and applied again after decoding for endpoints that ignore it.
// A transport or decode failure here is fatal to the enclosing ingestion run.
func (c *Client) Fetch(category, dealType string, maxListings int) ([]Record, error) {
	feedURL, err := c.buildURL(category, dealType, maxListings)
	if err != nil {
		return nil, fmt.Errorf("failed to build feed URL: %w", err)
	}

	req, err := http.NewRequest("GET", feedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/rss+xml, application/xml, application/json;q=0.9, */*;q=0.8")
	req.Header.Set("Accept-Encoding", "gzip")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("feed request failed: status %d", resp.StatusCode)
	}

	var reader io.Reader = resp.Body
	if resp.Header.Get("Content-Encoding") == "gzip" {
		gzipReader, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to create gzip reader: %w", err)
		}
		defer gzipReader.Close()
		reader = gzipReader
	}

	var records []Record
	switch c.format {
	case "json":
		records, err = decodeJSON(reader)
	default:
		records, err = decodeRSS(reader)
	}
	if err != nil {
		return nil, err
	}

	if maxListings > 0 && len(records) > maxListings {
		records = records[:maxListings]
	}

	log.Printf("[Feed] Fetched %d records (category=%s type=%s)", len(records), category, dealType)
	return records, nil
}

func (c *Client) buildURL(category, dealType string, maxListings int) (string, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return "", err
	}

	q := u.Query()
	q.Set("rub", category)
	q.Set("typ", dealType)
	if maxListings > 0 {
		q.Set("limit", strconv.Itoa(maxListings))
	}
	u.RawQuery = q.Encode()

	return u.String(), nil
}

// rssDocument mirrors the RSS 2.0 envelope the feed serves. Only the fields
// the normalizer consumes are decoded.
type rssDocument struct {
	Channel struct {
		Items []rssItem `xml:"item"`
	} `xml:"channel"`
}

type rssItem struct {
	Title       string `xml:"title"`
	Description string `xml:"description"`
	Link        string `xml:"link"`
	GUID        string `xml:"guid"`
	PubDate     string `xml:"pubDate"`
	Enclosures  []struct {
		URL string `xml:"url,attr"`
	} `xml:"enclosure"`
}

func decodeRSS(r io.Reader) ([]Record, error) {
	var doc rssDocument
	decoder := xml.NewDecoder(r)
	// Feeds in the wild declare windows-1250 or iso-8859-2; treat anything
	// undeclared as UTF-8 and let the decoder pass bytes through.
	decoder.CharsetReader = func(charset string, input io.Reader) (io.Reader, error) {
		return input, nil
	}
	if err := decoder.Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to parse RSS feed: %w", err)
	}

	records := make([]Record, 0, len(doc.Channel.Items))
	for _, item := range doc.Channel.Items {
		rec := Record{
			ID:          itemID(item),
			Title:       item.Title,
			Description: item.Description,
			Link:        item.Link,
			PublishedAt: parsePubDate(item.PubDate),
		}
		for _, enc := range item.Enclosures {
			if enc.URL != "" {
				rec.MediaURLs = append(rec.MediaURLs, enc.URL)
			}
		}
		records = append(records, rec)
	}
	return records, nil
}

// itemID prefers the GUID, falling back to the link. Both carry the
// source-assigned numeric id as their last path segment.
func itemID(item rssItem) string {
	if item.GUID != "" {
		return lastPathSegment(item.GUID)
	}
	return lastPathSegment(item.Link)
}

func lastPathSegment(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	path := u.Path
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '/' {
			return path[i+1:]
		}
	}
	if path != "" {
		return path
	}
	return raw
}

func parsePubDate(s string) *time.Time {
	if s == "" {
		return nil
	}
	for _, layout := range []string{time.RFC1123Z, time.RFC1123, time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}

// jsonDocument mirrors the JSON feed variant.
type jsonDocument struct {
	Listings []jsonListing `json:"listings"`
}

type jsonListing struct {
	ID          json.Number `json:"id"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Link        string      `json:"link"`
	Price       *int        `json:"price"`
	City        string      `json:"city"`
	Images      []string    `json:"images"`
	PublishedAt string      `json:"published_at"`
}

func decodeJSON(r io.Reader) ([]Record, error) {
	var doc jsonDocument
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to parse JSON feed: %w", err)
	}

	records := make([]Record, 0, len(doc.Listings))
	for _, l := range doc.Listings {
		rec := Record{
			ID:          l.ID.String(),
			Title:       l.Title,
			Description: l.Description,
			Link:        l.Link,
			Price:       l.Price,
			City:        l.City,
			MediaURLs:   l.Images,
		}
		if l.PublishedAt != "" {
			if t, err := time.Parse(time.RFC3339, l.PublishedAt); err == nil {
				rec.PublishedAt = &t
			}
		}
		records = append(records, rec)
	}
	return records, nil
}
