package geocode

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vetperto/providersearch/internal/model"
)

type stubGeocoder struct {
	coord *model.Coordinate
	err   error
	calls int
}

func (s *stubGeocoder) Geocode(_ context.Context, _ string) (*model.Coordinate, error) {
	s.calls++
	return s.coord, s.err
}

func TestPrimaryToken(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"Pinheiros, São Paulo", "pinheiros"},
		{"  Vila Madalena ", "vila madalena"},
		{"Moema - SP", "moema"},
		{"", ""},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, PrimaryToken(c.in), "PrimaryToken(%q)", c.in)
	}
}

func TestShouldResolve(t *testing.T) {
	coord := &model.Coordinate{Lat: -23.55, Lng: -46.63}

	assert.True(t, ShouldResolve(&model.Query{Location: "Pinheiros"}))
	assert.False(t, ShouldResolve(&model.Query{Location: "Pinheiros", Coordinates: coord}),
		"explicit coordinates win over text")
	assert.False(t, ShouldResolve(&model.Query{}))
	assert.False(t, ShouldResolve(&model.Query{Location: "Current Location"}),
		"the sentinel must never reach the geocoder")
}

func TestResolver_Success(t *testing.T) {
	want := &model.Coordinate{Lat: -23.56, Lng: -46.66}
	geocoder := &stubGeocoder{coord: want}
	r := NewResolver(geocoder, NewMemoryCache(time.Minute), nil)

	got := r.Resolve(context.Background(), "Pinheiros, São Paulo")

	require.NotNil(t, got)
	assert.Equal(t, *want, *got)
}

func TestResolver_FailureDegradesToNil(t *testing.T) {
	cases := []struct {
		name     string
		geocoder *stubGeocoder
	}{
		{"network error", &stubGeocoder{err: errors.New("timeout")}},
		{"zero results", &stubGeocoder{}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := NewResolver(tc.geocoder, nil, nil)
			assert.Nil(t, r.Resolve(context.Background(), "Nowhere"))
		})
	}
}

func TestResolver_SentinelShortCircuits(t *testing.T) {
	geocoder := &stubGeocoder{coord: &model.Coordinate{Lat: 1, Lng: 1}}
	r := NewResolver(geocoder, nil, nil)

	assert.Nil(t, r.Resolve(context.Background(), "current location"))
	assert.Nil(t, r.Resolve(context.Background(), ""))
	assert.Zero(t, geocoder.calls)
}

func TestResolver_CachesByNormalizedToken(t *testing.T) {
	geocoder := &stubGeocoder{coord: &model.Coordinate{Lat: -23.56, Lng: -46.66}}
	r := NewResolver(geocoder, NewMemoryCache(time.Minute), nil)

	first := r.Resolve(context.Background(), "Pinheiros, São Paulo")
	second := r.Resolve(context.Background(), "PINHEIROS")

	require.NotNil(t, first)
	require.NotNil(t, second)
	assert.Equal(t, *first, *second)
	assert.Equal(t, 1, geocoder.calls, "second lookup must hit the cache")
}

func TestResolver_FailuresAreNotCached(t *testing.T) {
	geocoder := &stubGeocoder{err: errors.New("boom")}
	r := NewResolver(geocoder, NewMemoryCache(time.Minute), nil)

	assert.Nil(t, r.Resolve(context.Background(), "Pinheiros"))
	assert.Nil(t, r.Resolve(context.Background(), "Pinheiros"))
	assert.Equal(t, 2, geocoder.calls)
}
