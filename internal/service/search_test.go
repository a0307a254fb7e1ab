package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vetperto/providersearch/internal/model"
	"github.com/vetperto/providersearch/internal/pipeline"
)

// fakeAssembler returns fixed candidates. When block is set, only the FIRST
// call waits on it (or on ctx), simulating one slow data-store round trip;
// entered is closed when that call is underway.
type fakeAssembler struct {
	candidates []model.Candidate
	err        error
	block      chan struct{}
	entered    chan struct{}

	mu    sync.Mutex
	calls int
}

func (f *fakeAssembler) Assemble(ctx context.Context, _ *model.Query) ([]model.Candidate, error) {
	f.mu.Lock()
	f.calls++
	first := f.calls == 1
	f.mu.Unlock()

	if first && f.block != nil {
		if f.entered != nil {
			close(f.entered)
		}
		select {
		case <-f.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.candidates, nil
}

// fakeResolver resolves every location to a fixed coordinate (or nil).
type fakeResolver struct {
	coord  *model.Coordinate
	called bool
}

func (f *fakeResolver) Resolve(_ context.Context, _ string) *model.Coordinate {
	f.called = true
	return f.coord
}

func newTestService(assembler CandidateAssembler, resolver AddressResolver) *SearchService {
	pipe := pipeline.New(pipeline.Config{DefaultRadiusKm: 10}, nil)
	return NewSearchService(assembler, resolver, pipe, NewRanker(0.5), nil, 0, nil)
}

func TestSearch_PublishesRankedResults(t *testing.T) {
	svc := newTestService(&fakeAssembler{candidates: []model.Candidate{
		{ID: 1, Rating: 4.0},
		{ID: 2, Rating: 4.9},
	}}, nil)

	result, err := svc.Search(context.Background(), "session-1", model.Query{})

	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, 2, result.TotalCount)
	assert.Equal(t, int64(2), result.Results[0].ID, "no-coordinate regime ranks by rating")
	assert.Equal(t, 1, result.Results[0].Rank)

	published, ok := svc.Results("session-1")
	require.True(t, ok)
	assert.Equal(t, result, published)
}

func TestSearch_AssemblyFailureIsFatal(t *testing.T) {
	svc := newTestService(&fakeAssembler{err: errors.New("db down")}, nil)

	// Seed a prior result to check it survives the failed call.
	prior := &model.SearchResult{TotalCount: 7}
	svc.published["session-1"] = publishedEntry{result: prior, expires: svc.now().Add(svc.ttl)}

	result, err := svc.Search(context.Background(), "session-1", model.Query{})

	require.Error(t, err)
	assert.Nil(t, result)

	kept, ok := svc.Results("session-1")
	require.True(t, ok)
	assert.Equal(t, prior, kept, "a failed call must leave prior results untouched")
}

// A geocoder that cannot resolve the location must not block the search:
// the geo stage degrades to a no-op and non-geo filters still apply.
func TestSearch_GeocodingDegradation(t *testing.T) {
	resolver := &fakeResolver{coord: nil}
	svc := newTestService(&fakeAssembler{candidates: []model.Candidate{
		{ID: 1, Rating: 4.5},
		{ID: 2, Rating: 3.0},
	}}, resolver)

	result, err := svc.Search(context.Background(), "session-1", model.Query{
		Location:  "Bairro Inexistente",
		MinRating: 4,
	})

	require.NoError(t, err)
	require.NotNil(t, result)
	assert.True(t, resolver.called)
	require.Equal(t, 1, result.TotalCount)
	assert.Equal(t, int64(1), result.Results[0].ID)
	assert.Nil(t, result.Results[0].DistanceKm, "geography must not have been applied")
}

func TestSearch_ResolverSkippedWithExplicitCoordinates(t *testing.T) {
	resolver := &fakeResolver{coord: &model.Coordinate{Lat: 10, Lng: 10}}
	svc := newTestService(&fakeAssembler{}, resolver)

	_, err := svc.Search(context.Background(), "session-1", model.Query{
		Location:    "Pinheiros",
		Coordinates: &model.Coordinate{Lat: -23.55, Lng: -46.63},
	})

	require.NoError(t, err)
	assert.False(t, resolver.called)
}

// Search B issued before search A resolves must win: only B's results are
// published, even though A finishes later.
func TestSearch_LastQueryWins(t *testing.T) {
	blockA := make(chan struct{})
	enteredA := make(chan struct{})
	assembler := &fakeAssembler{
		candidates: []model.Candidate{{ID: 2, Name: "from B", Rating: 4}},
		block:      blockA,
		entered:    enteredA,
	}
	svc := newTestService(assembler, nil)

	var (
		wg      sync.WaitGroup
		resultA *model.SearchResult
		errA    error
	)
	wg.Add(1)
	go func() {
		defer wg.Done()
		resultA, errA = svc.Search(context.Background(), "session-1", model.Query{})
	}()

	// Wait until A is blocked inside assembly, then supersede it with B.
	<-enteredA

	resultB, errB := svc.Search(context.Background(), "session-1", model.Query{})
	require.NoError(t, errB)
	require.NotNil(t, resultB)
	assert.Equal(t, int64(2), resultB.Results[0].ID)

	// Let A finish; it must terminate silently without publishing.
	close(blockA)
	wg.Wait()

	assert.NoError(t, errA, "a superseded call must not report an error")
	assert.Nil(t, resultA, "a superseded call must not return results")

	published, ok := svc.Results("session-1")
	require.True(t, ok)
	assert.Equal(t, int64(2), published.Results[0].ID, "only B's results are published")
}

func TestSearch_Clear(t *testing.T) {
	svc := newTestService(&fakeAssembler{candidates: []model.Candidate{{ID: 1}}}, nil)

	_, err := svc.Search(context.Background(), "session-1", model.Query{})
	require.NoError(t, err)

	svc.Clear("session-1")

	_, ok := svc.Results("session-1")
	assert.False(t, ok)
}

// Published results must not be retained forever: handlers mint a fresh
// session id for callers that send none, so every entry needs a TTL.
func TestSearch_PublishedResultsExpire(t *testing.T) {
	svc := newTestService(&fakeAssembler{candidates: []model.Candidate{{ID: 1}}}, nil)

	base := time.Date(2026, time.August, 31, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return base }

	_, err := svc.Search(context.Background(), "session-1", model.Query{})
	require.NoError(t, err)

	_, ok := svc.Results("session-1")
	require.True(t, ok, "fresh results are readable")

	svc.now = func() time.Time { return base.Add(svc.ttl + time.Second) }

	_, ok = svc.Results("session-1")
	assert.False(t, ok, "results past the session TTL are gone")
	assert.Empty(t, svc.published, "the expired entry is dropped, not just hidden")
}

// Publishing for one session sweeps other sessions' expired entries, so the
// store stays bounded even when nobody reads back stale sessions.
func TestSearch_PublishSweepsExpiredSessions(t *testing.T) {
	svc := newTestService(&fakeAssembler{candidates: []model.Candidate{{ID: 1}}}, nil)

	base := time.Date(2026, time.August, 31, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return base }

	for _, id := range []string{"one-shot-a", "one-shot-b", "one-shot-c"} {
		_, err := svc.Search(context.Background(), id, model.Query{})
		require.NoError(t, err)
	}
	require.Len(t, svc.published, 3)

	svc.now = func() time.Time { return base.Add(svc.ttl + time.Second) }

	_, err := svc.Search(context.Background(), "fresh", model.Query{})
	require.NoError(t, err)

	assert.Len(t, svc.published, 1, "only the fresh session survives the sweep")
	_, ok := svc.Results("fresh")
	assert.True(t, ok)
}

func TestSearch_SessionsAreIsolated(t *testing.T) {
	svc := newTestService(&fakeAssembler{candidates: []model.Candidate{{ID: 1}}}, nil)

	_, err := svc.Search(context.Background(), "session-a", model.Query{})
	require.NoError(t, err)
	_, err = svc.Search(context.Background(), "session-b", model.Query{})
	require.NoError(t, err)

	_, okA := svc.Results("session-a")
	_, okB := svc.Results("session-b")
	assert.True(t, okA)
	assert.True(t, okB)
}
