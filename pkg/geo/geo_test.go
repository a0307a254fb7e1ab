package geo

import (
	"math"
	"testing"

	"github.com/vetperto/providersearch/internal/model"
)

func TestDistanceKm_SamePoint(t *testing.T) {
	got := DistanceKm(-23.5505, -46.6333, -23.5505, -46.6333)
	if got != 0 {
		t.Errorf("DistanceKm(same point) = %v, want 0", got)
	}
}

func TestDistanceKm_Symmetric(t *testing.T) {
	pairs := [][4]float64{
		{-23.5505, -46.6333, -22.9068, -43.1729}, // São Paulo ↔ Rio
		{0, 0, 10, 10},
		{-89.9, 179.9, 89.9, -179.9},
	}
	for _, p := range pairs {
		ab := DistanceKm(p[0], p[1], p[2], p[3])
		ba := DistanceKm(p[2], p[3], p[0], p[1])
		if math.Abs(ab-ba) > 1e-9 {
			t.Errorf("DistanceKm not symmetric: %v vs %v for %v", ab, ba, p)
		}
	}
}

func TestDistanceKm_KnownDistance(t *testing.T) {
	// São Paulo (Sé) to Rio de Janeiro (centro), ~360 km.
	got := DistanceKm(-23.5505, -46.6333, -22.9068, -43.1729)
	wantMin, wantMax := 340.0, 380.0
	if got < wantMin || got > wantMax {
		t.Errorf("DistanceKm(SP→Rio) = %.2f km, want between %.1f and %.1f", got, wantMin, wantMax)
	}
}

func TestDistance_MatchesDistanceKm(t *testing.T) {
	a := model.Coordinate{Lat: -23.5505, Lng: -46.6333}
	b := model.Coordinate{Lat: -22.9068, Lng: -43.1729}
	if got, want := Distance(a, b), DistanceKm(a.Lat, a.Lng, b.Lat, b.Lng); got != want {
		t.Errorf("Distance = %v, want %v", got, want)
	}
}

func TestDistanceKm_MonotoneInSeparation(t *testing.T) {
	near := DistanceKm(-23.55, -46.63, -23.56, -46.63)
	far := DistanceKm(-23.55, -46.63, -23.75, -46.63)
	if near >= far {
		t.Errorf("expected distance to grow with separation: near=%v far=%v", near, far)
	}
}

func TestIsValidCoordinate(t *testing.T) {
	cases := []struct {
		lat, lng float64
		want     bool
	}{
		{-23.55, -46.63, true},
		{90, 180, true},
		{-90, -180, true},
		{90.0001, 0, false},
		{0, 180.0001, false},
		{math.NaN(), 0, false},
		{0, math.NaN(), false},
		{math.Inf(1), 0, false},
	}
	for _, c := range cases {
		if got := IsValidCoordinate(c.lat, c.lng); got != c.want {
			t.Errorf("IsValidCoordinate(%v, %v) = %v, want %v", c.lat, c.lng, got, c.want)
		}
	}
}

func TestNormalizeSearchParams_InvalidCoords(t *testing.T) {
	p := NormalizeSearchParams(120, 500, 5, "fixed-location")
	if p.IsValid {
		t.Fatal("expected IsValid=false for out-of-range coordinates")
	}
	if p.Lat != 0 || p.Lng != 0 {
		t.Errorf("invalid coordinates must normalize to (0,0), got (%v,%v)", p.Lat, p.Lng)
	}
	if p.RadiusKm != 5 {
		t.Errorf("radius should survive normalization, got %v", p.RadiusKm)
	}
}

func TestNormalizeSearchParams_Defaults(t *testing.T) {
	p := NormalizeSearchParams(-23.55, -46.63, 0, "drive-through")
	if !p.IsValid {
		t.Fatal("expected IsValid=true")
	}
	if p.RadiusKm != DefaultRadiusKm {
		t.Errorf("missing radius should default to %v, got %v", DefaultRadiusKm, p.RadiusKm)
	}
	if p.Mode != model.ModeAny {
		t.Errorf("unrecognized mode should fall back to any, got %v", p.Mode)
	}
}

func TestNormalizeSearchParams_NaNRadius(t *testing.T) {
	p := NormalizeSearchParams(-23.55, -46.63, math.NaN(), "any")
	if p.RadiusKm != DefaultRadiusKm {
		t.Errorf("NaN radius should default to %v, got %v", DefaultRadiusKm, p.RadiusKm)
	}
}
