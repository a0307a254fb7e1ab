package geocode

import (
	"context"

	"go.uber.org/zap"

	"github.com/vetperto/providersearch/internal/model"
)

// Resolver wraps a Geocoder with the shared result cache and the
// degrade-to-nothing failure policy.
type Resolver struct {
	geocoder Geocoder
	cache    Cache
	log      *zap.Logger
}

// NewResolver creates a resolver. cache may be nil to disable caching.
func NewResolver(geocoder Geocoder, cache Cache, log *zap.Logger) *Resolver {
	if log == nil {
		log = zap.NewNop()
	}
	return &Resolver{geocoder: geocoder, cache: cache, log: log}
}

// ShouldResolve reports whether a query needs address resolution: it has a
// non-empty location text, no coordinate pair, and the text is not the
// "current location" sentinel.
func ShouldResolve(q *model.Query) bool {
	if q.Coordinates != nil {
		return false
	}
	token := PrimaryToken(q.Location)
	return token != "" && token != CurrentLocationSentinel
}

// Resolve turns the query's location text into a coordinate pair, or nil
// when resolution fails for any reason. It never returns an error: address
// resolution is best-effort and must not block the search.
func (r *Resolver) Resolve(ctx context.Context, location string) *model.Coordinate {
	token := PrimaryToken(location)
	if token == "" || token == CurrentLocationSentinel {
		return nil
	}

	if r.cache != nil {
		if coord, ok := r.cache.Get(ctx, token); ok {
			return coord
		}
	}

	coord, err := r.geocoder.Geocode(ctx, token)
	if err != nil {
		r.log.Warn("geocode failed, search degrades to non-geo",
			zap.String("token", token), zap.Error(err))
		return nil
	}
	if coord == nil {
		r.log.Debug("geocode returned no results", zap.String("token", token))
		return nil
	}

	if r.cache != nil {
		r.cache.Set(ctx, token, *coord)
	}
	return coord
}
