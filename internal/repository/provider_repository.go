// Package repository provides database access for the provider search system.
//
// Candidate assembly issues one superset query plus several batched fact
// lookups keyed by the candidate id set. Every batched lookup tolerates an
// empty id set and returns an empty map rather than querying.
package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vetperto/providersearch/internal/model"
)

// ProviderRepository provides read-only access to provider records and
// their associated facts.
type ProviderRepository struct {
	pool *pgxpool.Pool
}

// NewProviderRepository creates a new repository backed by the given PG pool.
func NewProviderRepository(pool *pgxpool.Pool) *ProviderRepository {
	return &ProviderRepository{pool: pool}
}

// FindProviders returns the superset of potentially-matching providers for
// a user-type scope, optionally narrowed by a location substring against
// the provider's city/address text.
func (r *ProviderRepository) FindProviders(
	ctx context.Context,
	scope string,
	locationText string,
) ([]model.ProviderRecord, error) {

	query := `
		SELECT id, name, COALESCE(specialty, ''), verified,
		       lat, lng, COALESCE(home_service_radius_km, 0)
		FROM providers
		WHERE active = TRUE
		  AND user_type = $1
		  AND ($2 = '' OR city ILIKE '%' || $2 || '%' OR address ILIKE '%' || $2 || '%')
		ORDER BY id
	`

	rows, err := r.pool.Query(ctx, query, scope, locationText)
	if err != nil {
		return nil, fmt.Errorf("find providers: %w", err)
	}
	defer rows.Close()

	var records []model.ProviderRecord
	for rows.Next() {
		var rec model.ProviderRecord
		var lat, lng *float64
		if err := rows.Scan(
			&rec.ID, &rec.Name, &rec.Specialty, &rec.Verified,
			&lat, &lng, &rec.HomeServiceRadiusKm,
		); err != nil {
			return nil, fmt.Errorf("scan provider: %w", err)
		}
		// Providers without a geocoded address carry NULL lat/lng. They
		// stay in the candidate set; only geo matching skips them.
		if lat != nil && lng != nil {
			rec.Coordinates = &model.Coordinate{Lat: *lat, Lng: *lng}
		}
		records = append(records, rec)
	}

	return records, rows.Err()
}

// ServicesByProvider returns the active-service facts for the given
// providers: service names, derived attendance types, and minimum price.
func (r *ProviderRepository) ServicesByProvider(
	ctx context.Context,
	ids []int64,
) (map[int64]model.ServicesFact, error) {

	facts := make(map[int64]model.ServicesFact, len(ids))
	if len(ids) == 0 {
		return facts, nil
	}

	query := `
		SELECT provider_id, name, attendance_type, price
		FROM services
		WHERE active = TRUE
		  AND provider_id = ANY($1)
		ORDER BY provider_id, name
	`

	rows, err := r.pool.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("services by provider: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id         int64
			name       string
			attendance model.AttendanceType
			price      *float64
		)
		if err := rows.Scan(&id, &name, &attendance, &price); err != nil {
			return nil, fmt.Errorf("scan service: %w", err)
		}

		f := facts[id]
		f.Known = true
		f.Names = append(f.Names, name)
		f.Attendance = appendAttendance(f.Attendance, attendance)
		if price != nil && (f.MinPrice == nil || *price < *f.MinPrice) {
			p := *price
			f.MinPrice = &p
		}
		facts[id] = f
	}

	return facts, rows.Err()
}

// RatingsByProvider returns the approved-review aggregate per provider.
// Providers with no approved reviews are simply absent from the map.
func (r *ProviderRepository) RatingsByProvider(
	ctx context.Context,
	ids []int64,
) (map[int64]model.RatingFact, error) {

	facts := make(map[int64]model.RatingFact, len(ids))
	if len(ids) == 0 {
		return facts, nil
	}

	query := `
		SELECT provider_id, AVG(rating)::float8, COUNT(*)::int
		FROM reviews
		WHERE approved = TRUE
		  AND provider_id = ANY($1)
		GROUP BY provider_id
	`

	rows, err := r.pool.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("ratings by provider: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id   int64
			fact model.RatingFact
		)
		if err := rows.Scan(&id, &fact.Average, &fact.Count); err != nil {
			return nil, fmt.Errorf("scan rating: %w", err)
		}
		fact.Known = true
		facts[id] = fact
	}

	return facts, rows.Err()
}

// SubscriptionsByProvider returns the active plan per provider.
func (r *ProviderRepository) SubscriptionsByProvider(
	ctx context.Context,
	ids []int64,
) (map[int64]model.SubscriptionFact, error) {

	facts := make(map[int64]model.SubscriptionFact, len(ids))
	if len(ids) == 0 {
		return facts, nil
	}

	query := `
		SELECT provider_id, plan
		FROM subscriptions
		WHERE active = TRUE
		  AND provider_id = ANY($1)
	`

	rows, err := r.pool.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("subscriptions by provider: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id   int64
			plan model.SubscriptionTier
		)
		if err := rows.Scan(&id, &plan); err != nil {
			return nil, fmt.Errorf("scan subscription: %w", err)
		}
		facts[id] = model.SubscriptionFact{Known: true, Tier: plan}
	}

	return facts, rows.Err()
}

// AvailabilityByProvider returns the weekdays each provider has open slots
// on. Only fetched when the query carries an availability flag.
func (r *ProviderRepository) AvailabilityByProvider(
	ctx context.Context,
	ids []int64,
) (map[int64]model.AvailabilityFact, error) {

	facts := make(map[int64]model.AvailabilityFact, len(ids))
	if len(ids) == 0 {
		return facts, nil
	}

	query := `
		SELECT provider_id, weekday
		FROM availability
		WHERE provider_id = ANY($1)
		ORDER BY provider_id, weekday
	`

	rows, err := r.pool.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("availability by provider: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id      int64
			weekday int
		)
		if err := rows.Scan(&id, &weekday); err != nil {
			return nil, fmt.Errorf("scan availability: %w", err)
		}
		f := facts[id]
		f.Known = true
		f.Days = append(f.Days, time.Weekday(weekday))
		facts[id] = f
	}

	return facts, rows.Err()
}

// PaymentMethodsByProvider returns the accepted payment method codes per
// provider. A provider with no rows accepts nothing.
func (r *ProviderRepository) PaymentMethodsByProvider(
	ctx context.Context,
	ids []int64,
) (map[int64]model.PaymentFact, error) {

	facts := make(map[int64]model.PaymentFact, len(ids))
	if len(ids) == 0 {
		return facts, nil
	}

	query := `
		SELECT provider_id, method
		FROM provider_payment_methods
		WHERE provider_id = ANY($1)
		ORDER BY provider_id, method
	`

	rows, err := r.pool.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("payment methods by provider: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id     int64
			method string
		)
		if err := rows.Scan(&id, &method); err != nil {
			return nil, fmt.Errorf("scan payment method: %w", err)
		}
		f := facts[id]
		f.Known = true
		f.Methods = append(f.Methods, method)
		facts[id] = f
	}

	return facts, rows.Err()
}

func appendAttendance(set []model.AttendanceType, t model.AttendanceType) []model.AttendanceType {
	for _, existing := range set {
		if existing == t {
			return set
		}
	}
	return append(set, t)
}
