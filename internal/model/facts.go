package model

import "time"

// Per-provider lookup results used by candidate assembly. Each fact carries
// an explicit Known flag instead of an ad-hoc nil, so the merge step in the
// assembler can treat "no row for this provider" exhaustively.

// ServicesFact summarizes a provider's active service listings.
type ServicesFact struct {
	Known      bool
	Names      []string
	Attendance []AttendanceType
	MinPrice   *float64
}

// PaymentFact lists the payment method codes a provider accepts.
type PaymentFact struct {
	Known   bool
	Methods []string
}

// RatingFact aggregates a provider's approved reviews.
// A provider with no approved reviews has Known=false and rates as 0.
type RatingFact struct {
	Known   bool
	Average float64
	Count   int
}

// SubscriptionFact is the provider's active plan, if any.
type SubscriptionFact struct {
	Known bool
	Tier  SubscriptionTier
}

// AvailabilityFact lists the weekdays a provider has open slots on.
type AvailabilityFact struct {
	Known bool
	Days  []time.Weekday
}

// FactSet groups all facts fetched for one provider in one search call.
type FactSet struct {
	Services     ServicesFact
	Rating       RatingFact
	Subscription SubscriptionFact
	Availability AvailabilityFact
	Payment      PaymentFact
}

// ProviderRecord is the raw provider row before facts are merged in.
type ProviderRecord struct {
	ID                  int64
	Name                string
	Specialty           string
	Verified            bool
	Coordinates         *Coordinate
	HomeServiceRadiusKm float64
}

// OpenOn reports whether the availability fact includes the given weekday.
func (f AvailabilityFact) OpenOn(day time.Weekday) bool {
	for _, d := range f.Days {
		if d == day {
			return true
		}
	}
	return false
}
