// Package geocoder resolves free-text addresses to coordinates via a public
// lookup service. Failures are logged and swallowed: a listing without
// coordinates is still worth persisting, so geocoding must never abort
// ingestion.
//
// The upstream service requires at least one second between requests and
// documents no burst tolerance. The adapter does not pace itself; the caller
// owns the spacing (see ratelimit.Pacer) so batch loops stay visibly
// sequential.
package geocoder

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type Client struct {
	client    *http.Client
	baseURL   string
	userAgent string
}

type ClientConfig struct {
	BaseURL   string
	Timeout   time.Duration
	UserAgent string
}

func NewClient(cfg ClientConfig) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &Client{
		client:    &http.Client{Timeout: cfg.Timeout},
		baseURL:   cfg.BaseURL,
		userAgent: cfg.UserAgent,
	}
}

// lookupResult mirrors the first-match shape of the lookup service response.
type lookupResult struct {
	Lat string `json:"lat"`
	Lon string `json:"lon"`
}

// Geocode resolves "address, city" to coordinates. Returns nil on no match
// and on any transport or decode error; errors are logged, never returned.
func (c *Client) Geocode(ctx context.Context, address, city string) *Coordinates {
	query := address
	if city != "" && city != "unknown" {
		query = fmt.Sprintf("%s, %s", address, city)
	}

	reqURL := fmt.Sprintf("%s?format=json&limit=1&countrycodes=cz&q=%s", c.baseURL, url.QueryEscape(query))

	req, err := http.NewRequestWithContext(ctx, "GET", reqURL, nil)
	if err != nil {
		log.Printf("[Geocoder] Failed to create request for %q: %v", query, err)
		return nil
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		log.Printf("[Geocoder] Lookup failed for %q: %v", query, err)
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Printf("[Geocoder] Lookup failed for %q: status %d", query, resp.StatusCode)
		return nil
	}

	var results []lookupResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		log.Printf("[Geocoder] Failed to decode response for %q: %v", query, err)
		return nil
	}
	if len(results) == 0 {
		log.Printf("[Geocoder] No match for %q", query)
		return nil
	}

	lat, latErr := strconv.ParseFloat(results[0].Lat, 64)
	lng, lngErr := strconv.ParseFloat(results[0].Lon, 64)
	if latErr != nil || lngErr != nil {
		log.Printf("[Geocoder] Malformed coordinates in response for %q", query)
		return nil
	}

	return &Coordinates{Lat: lat, Lng: lng}
}
