package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/vetperto/providersearch/internal/geocode"
	"github.com/vetperto/providersearch/internal/model"
	"github.com/vetperto/providersearch/internal/pipeline"
	"github.com/vetperto/providersearch/pkg/geo"
)

// CandidateAssembler is the assembly capability the orchestrator consumes.
type CandidateAssembler interface {
	Assemble(ctx context.Context, q *model.Query) ([]model.Candidate, error)
}

// AddressResolver turns a free-text location into coordinates, or nil when
// resolution fails. Failures never surface as errors.
type AddressResolver interface {
	Resolve(ctx context.Context, location string) *model.Coordinate
}

// LocationSource asks the caller's device/environment for coordinates.
// Best-effort: may return (nil, nil).
type LocationSource interface {
	Current(ctx context.Context) (*model.Coordinate, error)
}

// DefaultSessionTTL bounds how long a session's published results are
// retained once the caller stops searching.
const DefaultSessionTTL = 30 * time.Minute

// inflight tracks the one cancellable search per caller session.
type inflight struct {
	seq    uint64
	cancel context.CancelFunc
}

// publishedEntry is one session's last result plus its eviction deadline.
type publishedEntry struct {
	result  *model.SearchResult
	expires time.Time
}

// SearchService orchestrates one search invocation: candidate assembly,
// optional address resolution, the filter pipeline, and ranking.
//
// Per session, the last query wins: starting a new search cancels the
// previous in-flight one, and a superseded invocation discards its results
// silently, leaving previously published results untouched. Published
// results live until Clear or the session TTL elapses.
type SearchService struct {
	assembler CandidateAssembler
	resolver  AddressResolver
	pipe      *pipeline.Pipeline
	ranker    *Ranker
	location  LocationSource
	ttl       time.Duration
	log       *zap.Logger

	now func() time.Time

	mu        sync.Mutex
	seq       uint64
	inflight  map[string]*inflight
	published map[string]publishedEntry
}

// NewSearchService wires the orchestrator. resolver and location may be nil
// (resolution/current-location then degrade to no-ops). sessionTTL bounds
// how long published results outlive the last search for their session; a
// non-positive value selects DefaultSessionTTL.
func NewSearchService(
	assembler CandidateAssembler,
	resolver AddressResolver,
	pipe *pipeline.Pipeline,
	ranker *Ranker,
	location LocationSource,
	sessionTTL time.Duration,
	log *zap.Logger,
) *SearchService {
	if sessionTTL <= 0 {
		sessionTTL = DefaultSessionTTL
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &SearchService{
		assembler: assembler,
		resolver:  resolver,
		pipe:      pipe,
		ranker:    ranker,
		location:  location,
		ttl:       sessionTTL,
		log:       log,
		now:       time.Now,
		inflight:  make(map[string]*inflight),
		published: make(map[string]publishedEntry),
	}
}

// Search runs one search invocation for the session and publishes the
// result. A superseded/cancelled invocation returns (nil, nil): no error is
// reported and nothing is published. Only candidate assembly failures are
// fatal; address resolution degrades silently.
func (s *SearchService) Search(ctx context.Context, sessionID string, q model.Query) (*model.SearchResult, error) {
	s.mu.Lock()
	s.seq++
	mySeq := s.seq
	if prev := s.inflight[sessionID]; prev != nil {
		prev.cancel()
	}
	sctx, cancel := context.WithCancel(ctx)
	s.inflight[sessionID] = &inflight{seq: mySeq, cancel: cancel}
	s.mu.Unlock()

	defer s.release(sessionID, mySeq, cancel)

	candidates, err := s.assembler.Assemble(sctx, &q)
	if err != nil {
		if sctx.Err() != nil {
			return nil, nil
		}
		return nil, fmt.Errorf("assemble candidates: %w", err)
	}

	if s.resolver != nil && geocode.ShouldResolve(&q) {
		if coord := s.resolver.Resolve(sctx, q.Location); coord != nil {
			q.Coordinates = coord
		}
	}
	if sctx.Err() != nil {
		return nil, nil
	}

	filtered := s.pipe.Run(candidates, &q)

	hasCoords := q.Coordinates != nil &&
		geo.IsValidCoordinate(q.Coordinates.Lat, q.Coordinates.Lng)
	ranked := s.ranker.Rank(filtered, hasCoords)

	result := &model.SearchResult{Results: ranked, TotalCount: len(ranked)}

	s.mu.Lock()
	defer s.mu.Unlock()
	cur := s.inflight[sessionID]
	if cur == nil || cur.seq != mySeq || sctx.Err() != nil {
		// Superseded between ranking and publication.
		return nil, nil
	}
	s.evictExpired()
	s.published[sessionID] = publishedEntry{result: result, expires: s.now().Add(s.ttl)}

	s.log.Info("search completed",
		zap.String("session", sessionID),
		zap.Int("candidates", len(candidates)),
		zap.Int("results", result.TotalCount),
		zap.Bool("geo", hasCoords),
	)
	return result, nil
}

// Results returns the last published result for the session, if any.
// An entry past its TTL is dropped and reported as absent.
func (s *SearchService) Results(sessionID string) (*model.SearchResult, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.published[sessionID]
	if !ok {
		return nil, false
	}
	if s.now().After(entry.expires) {
		delete(s.published, sessionID)
		return nil, false
	}
	return entry.result, true
}

// Clear cancels any in-flight search for the session and drops its
// published results.
func (s *SearchService) Clear(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cur := s.inflight[sessionID]; cur != nil {
		cur.cancel()
		delete(s.inflight, sessionID)
	}
	delete(s.published, sessionID)
}

// CurrentLocation asks the injected LocationSource for the caller's
// coordinates. Best-effort: returns nil when no source is wired or the
// source fails.
func (s *SearchService) CurrentLocation(ctx context.Context) *model.Coordinate {
	if s.location == nil {
		return nil
	}
	coord, err := s.location.Current(ctx)
	if err != nil {
		s.log.Debug("current location unavailable", zap.Error(err))
		return nil
	}
	return coord
}

// release drops this invocation's inflight entry unless a newer one has
// already replaced it, and always frees the cancellation context.
func (s *SearchService) release(sessionID string, seq uint64, cancel context.CancelFunc) {
	s.mu.Lock()
	if cur := s.inflight[sessionID]; cur != nil && cur.seq == seq {
		delete(s.inflight, sessionID)
	}
	s.mu.Unlock()
	cancel()
}

// evictExpired sweeps published entries past their TTL. Callers hold s.mu.
// Sessions are short-lived (many are minted per anonymous request), so the
// store must not grow with traffic that never calls Clear.
func (s *SearchService) evictExpired() {
	now := s.now()
	for id, entry := range s.published {
		if now.After(entry.expires) {
			delete(s.published, id)
		}
	}
}
