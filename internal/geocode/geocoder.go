// Package geocode resolves free-text locations to coordinates via an
// external address-lookup service.
//
// Resolution is best-effort by contract: a broken geocoder must never block
// search results, so every failure path degrades to "no coordinates" and the
// geo filter downstream becomes a no-op.
package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/vetperto/providersearch/config"
	"github.com/vetperto/providersearch/internal/model"
)

// CurrentLocationSentinel is the location-string value mobile clients send
// when the user picked "use my current location". It must never be sent to
// the geocoder.
const CurrentLocationSentinel = "current location"

// Geocoder resolves free text to a best-match coordinate pair.
// Implementations return (nil, nil) when the lookup yields no result.
type Geocoder interface {
	Geocode(ctx context.Context, text string) (*model.Coordinate, error)
}

// HTTPGeocoder talks to a Nominatim-compatible endpoint.
type HTTPGeocoder struct {
	baseURL   string
	userAgent string
	client    *http.Client
}

// NewHTTPGeocoder creates a geocoder for the configured endpoint.
func NewHTTPGeocoder(cfg config.GeocodeConfig) *HTTPGeocoder {
	return &HTTPGeocoder{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		userAgent: cfg.UserAgent,
		client:    &http.Client{Timeout: cfg.Timeout},
	}
}

// nominatimResult is the subset of the response payload we read.
type nominatimResult struct {
	Lat string `json:"lat"`
	Lon string `json:"lon"`
}

// Geocode resolves text to a coordinate pair, or (nil, nil) on zero results.
func (g *HTTPGeocoder) Geocode(ctx context.Context, text string) (*model.Coordinate, error) {
	q := url.Values{}
	q.Set("q", text)
	q.Set("format", "json")
	q.Set("limit", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		g.baseURL+"/search?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("geocode: build request: %w", err)
	}
	req.Header.Set("User-Agent", g.userAgent)

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("geocode: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("geocode: unexpected status %d", resp.StatusCode)
	}

	var results []nominatimResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return nil, fmt.Errorf("geocode: decode response: %w", err)
	}
	if len(results) == 0 {
		return nil, nil
	}

	lat, errLat := strconv.ParseFloat(results[0].Lat, 64)
	lng, errLng := strconv.ParseFloat(results[0].Lon, 64)
	if errLat != nil || errLng != nil {
		return nil, fmt.Errorf("geocode: malformed coordinates %q/%q", results[0].Lat, results[0].Lon)
	}

	return &model.Coordinate{Lat: lat, Lng: lng}, nil
}

// PrimaryToken extracts the leading place token from a free-text location
// ("Pinheiros, São Paulo" → "Pinheiros") and normalizes it for lookup.
func PrimaryToken(location string) string {
	token := location
	if i := strings.IndexAny(location, ",-"); i >= 0 {
		token = location[:i]
	}
	return strings.ToLower(strings.TrimSpace(token))
}
