package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vetperto/providersearch/internal/model"
)

func km(v float64) *float64 { return &v }

func TestRanker_DistanceFirst(t *testing.T) {
	r := NewRanker(0.5)
	candidates := []model.Candidate{
		{ID: 1, DistanceKm: km(8.0), Rating: 5.0},
		{ID: 2, DistanceKm: km(2.0), Rating: 3.0},
		{ID: 3, DistanceKm: km(5.0), Rating: 4.0},
	}

	out := r.Rank(candidates, true)

	require.Len(t, out, 3)
	assert.Equal(t, int64(2), out[0].ID)
	assert.Equal(t, int64(3), out[1].ID)
	assert.Equal(t, int64(1), out[2].ID)
	assert.Equal(t, 1, out[0].Rank)
	assert.Equal(t, 3, out[2].Rank)
}

// Two candidates 0.3 km apart sit inside the fuzz band: the better-rated one
// wins even though it is nominally farther.
func TestRanker_FuzzBandTieBreak(t *testing.T) {
	r := NewRanker(0.5)
	candidates := []model.Candidate{
		{ID: 1, DistanceKm: km(3.0), Rating: 4.2},
		{ID: 2, DistanceKm: km(3.3), Rating: 4.8},
	}

	out := r.Rank(candidates, true)

	require.Len(t, out, 2)
	assert.Equal(t, int64(2), out[0].ID)
	assert.Equal(t, int64(1), out[1].ID)
}

func TestRanker_FuzzBandVerifiedTieBreak(t *testing.T) {
	r := NewRanker(0.5)
	candidates := []model.Candidate{
		{ID: 1, DistanceKm: km(3.0), Rating: 4.5},
		{ID: 2, DistanceKm: km(3.2), Rating: 4.5, Verified: true},
	}

	out := r.Rank(candidates, true)

	assert.Equal(t, int64(2), out[0].ID, "equal rating inside the band ranks verified first")
}

func TestRanker_UndefinedDistanceSortsLast(t *testing.T) {
	r := NewRanker(0.5)
	candidates := []model.Candidate{
		{ID: 1, Rating: 5.0}, // no distance
		{ID: 2, DistanceKm: km(9.0), Rating: 2.0},
		{ID: 3, Rating: 4.0}, // no distance
	}

	out := r.Rank(candidates, true)

	require.Len(t, out, 3)
	assert.Equal(t, int64(2), out[0].ID)
	// Undefined distances keep their assembly order.
	assert.Equal(t, int64(1), out[1].ID)
	assert.Equal(t, int64(3), out[2].ID)
}

func TestRanker_WithoutCoordinatesRanksByRating(t *testing.T) {
	r := NewRanker(0.5)
	candidates := []model.Candidate{
		{ID: 1, Rating: 4.0},
		{ID: 2, Rating: 4.8},
		{ID: 3, Rating: 4.8, Verified: true},
	}

	out := r.Rank(candidates, false)

	require.Len(t, out, 3)
	assert.Equal(t, int64(3), out[0].ID)
	assert.Equal(t, int64(2), out[1].ID)
	assert.Equal(t, int64(1), out[2].ID)
}

func TestRanker_StableForEqualKeys(t *testing.T) {
	r := NewRanker(0.5)
	candidates := []model.Candidate{
		{ID: 10, Rating: 4.0},
		{ID: 20, Rating: 4.0},
		{ID: 30, Rating: 4.0},
	}

	out := r.Rank(candidates, false)

	assert.Equal(t, int64(10), out[0].ID)
	assert.Equal(t, int64(20), out[1].ID)
	assert.Equal(t, int64(30), out[2].ID)
}

func TestRanker_DoesNotMutateInput(t *testing.T) {
	r := NewRanker(0.5)
	candidates := []model.Candidate{
		{ID: 1, Rating: 1.0},
		{ID: 2, Rating: 5.0},
	}

	_ = r.Rank(candidates, false)

	assert.Equal(t, int64(1), candidates[0].ID)
}
