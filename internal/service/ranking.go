package service

import (
	"math"
	"sort"

	"github.com/vetperto/providersearch/internal/model"
)

// DefaultFuzzBandKm is the distance tolerance within which two candidates
// rank by rating instead of raw distance. Trivially-close providers should
// be ordered by quality, not by noise-level coordinate precision.
const DefaultFuzzBandKm = 0.5

// Ranker orders filtered candidates into the final result list.
//
// Two regimes:
//   - with query coordinates: ascending distance, undefined distances last;
//     distances within the fuzz band tie-break by higher rating, then
//     verified-before-unverified.
//   - without query coordinates: descending rating, verified first.
//
// The sort is stable: equal-key candidates retain assembly order.
type Ranker struct {
	fuzzBandKm float64
}

// NewRanker creates a ranker with the given fuzz band (km). A non-positive
// band falls back to DefaultFuzzBandKm.
func NewRanker(fuzzBandKm float64) *Ranker {
	if fuzzBandKm <= 0 {
		fuzzBandKm = DefaultFuzzBandKm
	}
	return &Ranker{fuzzBandKm: fuzzBandKm}
}

// Rank sorts candidates and assigns 1-based rank positions. The input slice
// is not modified.
func (r *Ranker) Rank(candidates []model.Candidate, hasQueryCoords bool) []model.RankedResult {
	ordered := make([]model.Candidate, len(candidates))
	copy(ordered, candidates)

	if hasQueryCoords {
		sort.SliceStable(ordered, func(i, j int) bool {
			return r.lessByDistance(&ordered[i], &ordered[j])
		})
	} else {
		sort.SliceStable(ordered, func(i, j int) bool {
			return lessByRating(&ordered[i], &ordered[j])
		})
	}

	results := make([]model.RankedResult, len(ordered))
	for i, c := range ordered {
		results[i] = model.RankedResult{Candidate: c, Rank: i + 1}
	}
	return results
}

func (r *Ranker) lessByDistance(a, b *model.Candidate) bool {
	switch {
	case a.DistanceKm != nil && b.DistanceKm != nil:
		if math.Abs(*a.DistanceKm-*b.DistanceKm) < r.fuzzBandKm {
			return lessByRating(a, b)
		}
		return *a.DistanceKm < *b.DistanceKm
	case a.DistanceKm != nil:
		// Defined distances sort before undefined ones.
		return true
	default:
		return false
	}
}

func lessByRating(a, b *model.Candidate) bool {
	if a.Rating != b.Rating {
		return a.Rating > b.Rating
	}
	return a.Verified && !b.Verified
}
