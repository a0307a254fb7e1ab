// Package geo provides geographic utility functions for provider search.
//
// All distance calculations use the Haversine formula on WGS-84 coordinates.
// Inputs arrive from loosely-validated client payloads, so every entry point
// tolerates NaN, infinities, and out-of-range values.
package geo

import (
	"math"

	"github.com/vetperto/providersearch/internal/model"
)

// ─── Constants ──────────────────────────────────────────────

const (
	// EarthRadiusKm is the mean radius of Earth in kilometers.
	EarthRadiusKm = 6371.0

	// DefaultRadiusKm is the search radius applied when the query carries
	// none (or a non-positive one).
	DefaultRadiusKm = 10.0
)

// ─── Distance ───────────────────────────────────────────────

// DistanceKm returns the great-circle distance between two points in
// kilometers. Symmetric, and zero when the points coincide.
//
// Complexity: O(1)
func DistanceKm(lat1, lng1, lat2, lng2 float64) float64 {
	dLat := degToRad(lat2 - lat1)
	dLng := degToRad(lng2 - lng1)

	sinLat := math.Sin(dLat / 2)
	sinLng := math.Sin(dLng / 2)

	h := sinLat*sinLat +
		math.Cos(degToRad(lat1))*math.Cos(degToRad(lat2))*sinLng*sinLng

	return 2 * EarthRadiusKm * math.Asin(math.Sqrt(h))
}

// Distance returns the great-circle distance between two coordinates in
// kilometers.
func Distance(a, b model.Coordinate) float64 {
	return DistanceKm(a.Lat, a.Lng, b.Lat, b.Lng)
}

// ─── Validation ─────────────────────────────────────────────

// IsValidCoordinate reports whether both values are finite numbers within
// their respective ranges (lat ∈ [-90,90], lng ∈ [-180,180]).
func IsValidCoordinate(lat, lng float64) bool {
	if math.IsNaN(lat) || math.IsInf(lat, 0) {
		return false
	}
	if math.IsNaN(lng) || math.IsInf(lng, 0) {
		return false
	}
	return lat >= -90 && lat <= 90 && lng >= -180 && lng <= 180
}

// ─── Normalization ──────────────────────────────────────────

// SearchParams is the defensively-normalized form of the geo portion of a
// query. Callers must check IsValid before trusting Lat/Lng: invalid input
// coordinates normalize to (0,0), which is itself a real location.
type SearchParams struct {
	Lat      float64
	Lng      float64
	RadiusKm float64
	Mode     model.SearchMode
	IsValid  bool
}

// NormalizeSearchParams coerces loosely-typed search inputs:
//   - invalid coordinates → (0,0) with IsValid=false
//   - missing/non-positive radius → DefaultRadiusKm
//   - unrecognized mode → model.ModeAny
func NormalizeSearchParams(lat, lng, radiusKm float64, mode string) SearchParams {
	p := SearchParams{
		Lat:      lat,
		Lng:      lng,
		RadiusKm: radiusKm,
		Mode:     model.ParseSearchMode(mode),
		IsValid:  IsValidCoordinate(lat, lng),
	}

	if !p.IsValid {
		p.Lat, p.Lng = 0, 0
	}
	if math.IsNaN(p.RadiusKm) || p.RadiusKm <= 0 {
		p.RadiusKm = DefaultRadiusKm
	}

	return p
}

// ─── Helpers ────────────────────────────────────────────────

func degToRad(deg float64) float64 {
	return deg * (math.Pi / 180.0)
}
