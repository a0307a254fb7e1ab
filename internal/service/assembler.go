// Package service contains the core business logic for provider search.
package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/vetperto/providersearch/internal/geocode"
	"github.com/vetperto/providersearch/internal/model"
)

// DefaultScope is the user-type scope applied when the query omits one.
const DefaultScope = "professional"

// ProviderStore is the data-access capability candidate assembly requires.
// *repository.ProviderRepository satisfies it.
type ProviderStore interface {
	FindProviders(ctx context.Context, scope, locationText string) ([]model.ProviderRecord, error)
	ServicesByProvider(ctx context.Context, ids []int64) (map[int64]model.ServicesFact, error)
	RatingsByProvider(ctx context.Context, ids []int64) (map[int64]model.RatingFact, error)
	SubscriptionsByProvider(ctx context.Context, ids []int64) (map[int64]model.SubscriptionFact, error)
	AvailabilityByProvider(ctx context.Context, ids []int64) (map[int64]model.AvailabilityFact, error)
	PaymentMethodsByProvider(ctx context.Context, ids []int64) (map[int64]model.PaymentFact, error)
}

// Assembler builds the fresh Candidate list for one search invocation.
//
// The superset of providers is fetched first, then the per-entity fact
// lookups run in parallel and are joined by provider id. Any fetch failure
// aborts the whole assembly: partial candidate lists are never returned.
type Assembler struct {
	store ProviderStore
	log   *zap.Logger
	now   func() time.Time
}

// NewAssembler creates an assembler over the given store.
func NewAssembler(store ProviderStore, log *zap.Logger) *Assembler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Assembler{store: store, log: log, now: time.Now}
}

// Assemble fetches providers and facts for the query and merges them into
// Candidates. The result is read-only input to the filter pipeline.
func (a *Assembler) Assemble(ctx context.Context, q *model.Query) ([]model.Candidate, error) {
	scope := q.Scope
	if scope == "" {
		scope = DefaultScope
	}

	// The raw location text narrows the superset by city/address substring.
	// The sentinel value and coordinate-only queries skip the narrowing.
	locationText := ""
	if q.Coordinates == nil && geocode.PrimaryToken(q.Location) != geocode.CurrentLocationSentinel {
		locationText = q.Location
	}

	records, err := a.store.FindProviders(ctx, scope, locationText)
	if err != nil {
		return nil, fmt.Errorf("fetch providers: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	ids := make([]int64, len(records))
	for i, rec := range records {
		ids[i] = rec.ID
	}

	needAvailability := q.AvailableToday || q.AvailableThisWeek

	var (
		services      map[int64]model.ServicesFact
		ratings       map[int64]model.RatingFact
		subscriptions map[int64]model.SubscriptionFact
		availability  map[int64]model.AvailabilityFact
		payments      map[int64]model.PaymentFact
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		services, err = a.store.ServicesByProvider(gctx, ids)
		return err
	})
	g.Go(func() (err error) {
		ratings, err = a.store.RatingsByProvider(gctx, ids)
		return err
	})
	g.Go(func() (err error) {
		subscriptions, err = a.store.SubscriptionsByProvider(gctx, ids)
		return err
	})
	g.Go(func() (err error) {
		payments, err = a.store.PaymentMethodsByProvider(gctx, ids)
		return err
	})
	if needAvailability {
		g.Go(func() (err error) {
			availability, err = a.store.AvailabilityByProvider(gctx, ids)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("fetch candidate facts: %w", err)
	}

	candidates := make([]model.Candidate, 0, len(records))
	for _, rec := range records {
		facts := model.FactSet{
			Services:     services[rec.ID],
			Rating:       ratings[rec.ID],
			Subscription: subscriptions[rec.ID],
			Availability: availability[rec.ID],
			Payment:      payments[rec.ID],
		}

		if needAvailability && !a.available(q, facts.Availability) {
			continue
		}

		candidates = append(candidates, mergeCandidate(rec, facts))
	}

	a.log.Debug("candidates assembled",
		zap.String("scope", scope),
		zap.Int("providers", len(records)),
		zap.Int("candidates", len(candidates)),
	)
	return candidates, nil
}

// available resolves the query's availability-window flags against the
// availability fact. Unknown availability fails both flags.
func (a *Assembler) available(q *model.Query, fact model.AvailabilityFact) bool {
	if !fact.Known {
		return false
	}
	if q.AvailableToday {
		return fact.OpenOn(a.now().Weekday())
	}
	// this-week: any open weekday qualifies.
	return len(fact.Days) > 0
}

// mergeCandidate joins one provider record with its fact set. Each fact's
// absent state has an explicit default: no services means empty sets, no
// approved reviews rates as 0, no subscription row means the basic tier.
func mergeCandidate(rec model.ProviderRecord, facts model.FactSet) model.Candidate {
	c := model.Candidate{
		ID:                  rec.ID,
		Name:                rec.Name,
		Specialty:           rec.Specialty,
		Verified:            rec.Verified,
		Coordinates:         rec.Coordinates,
		HomeServiceRadiusKm: rec.HomeServiceRadiusKm,
		Tier:                model.TierBasic,
	}

	if facts.Services.Known {
		c.ServiceNames = facts.Services.Names
		c.AttendanceTypes = facts.Services.Attendance
		c.MinPrice = facts.Services.MinPrice
		if len(facts.Services.Names) > model.MaxServicePreview {
			c.ServicePreview = facts.Services.Names[:model.MaxServicePreview]
		} else {
			c.ServicePreview = facts.Services.Names
		}
	}
	if facts.Rating.Known {
		c.Rating = facts.Rating.Average
		c.ReviewCount = facts.Rating.Count
	}
	if facts.Subscription.Known {
		c.Tier = facts.Subscription.Tier
	}
	if facts.Payment.Known {
		c.PaymentMethods = facts.Payment.Methods
	}

	return c
}
