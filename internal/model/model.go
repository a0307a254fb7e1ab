// Package model contains domain models for the provider search system.
// These structs map to the PostgreSQL schema defined in migrations/001_create_schema.up.sql.
package model

// ─── Enums ──────────────────────────────────────────────────

// SearchMode selects where the client wants to be served.
type SearchMode string

const (
	ModeFixedLocation SearchMode = "fixed-location"
	ModeHomeVisit     SearchMode = "home-visit"
	ModeAny           SearchMode = "any"
)

// ParseSearchMode maps a loose input string to a SearchMode.
// Unrecognized values fall back to ModeAny.
func ParseSearchMode(s string) SearchMode {
	switch SearchMode(s) {
	case ModeFixedLocation, ModeHomeVisit, ModeAny:
		return SearchMode(s)
	default:
		return ModeAny
	}
}

// AttendanceType is a normalized tag derived from a provider's active
// service listings, describing where they can serve clients.
type AttendanceType string

const (
	AttendanceClinic    AttendanceType = "clinic"
	AttendanceHomeVisit AttendanceType = "home-visit"
	AttendanceBoth      AttendanceType = "both"
)

// SubscriptionTier is the provider's active plan level.
type SubscriptionTier string

const (
	TierBasic        SubscriptionTier = "basic"
	TierIntermediate SubscriptionTier = "intermediate"
	TierComplete     SubscriptionTier = "complete"
	TierEnterprise   SubscriptionTier = "enterprise"
)

// Payment method codes as stored in provider_payment_methods.method.
const (
	PaymentPix        = "pix"
	PaymentCash       = "cash"
	PaymentCreditCard = "credit_card"
	PaymentDebitCard  = "debit_card"
)

// ─── Coordinate ─────────────────────────────────────────────

// Coordinate represents a WGS-84 geographic point (EPSG:4326).
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// ─── Query ──────────────────────────────────────────────────

// Query is the caller-supplied search intent. It is immutable for the
// duration of one search invocation.
type Query struct {
	// Scope narrows the provider superset by user type
	// (e.g. "professional" vs "business" accounts).
	Scope          string      `json:"scope,omitempty"`
	Service        string      `json:"service,omitempty"`
	Location       string      `json:"location,omitempty"`
	Coordinates    *Coordinate `json:"coordinates,omitempty"`
	RadiusKm       float64     `json:"radius_km,omitempty"`
	Mode           SearchMode  `json:"mode,omitempty"`
	MinRating      float64     `json:"min_rating,omitempty"`
	PaymentMethods []string    `json:"payment_methods,omitempty"`
	Facets         []string    `json:"facets,omitempty"`

	// Availability flags narrow eligibility during candidate assembly,
	// not during ranking.
	AvailableToday    bool `json:"available_today,omitempty"`
	AvailableThisWeek bool `json:"available_this_week,omitempty"`
}

// ─── Candidate ──────────────────────────────────────────────

// Candidate is a provider record enriched with derived facts, eligible for
// ranking in one search call. Candidates are assembled fresh per query and
// never cached across queries.
type Candidate struct {
	ID       int64            `json:"id"`
	Name     string           `json:"name"`
	Verified bool             `json:"verified"`
	Tier     SubscriptionTier `json:"tier"`

	// Coordinates is nil for providers without a geocoded address; such
	// providers cannot be geo-matched but are not excluded outright.
	Coordinates *Coordinate `json:"coordinates,omitempty"`

	// HomeServiceRadiusKm is the provider's own travel radius.
	// 0 means no home-visit coverage.
	HomeServiceRadiusKm float64 `json:"home_service_radius_km,omitempty"`

	AttendanceTypes []AttendanceType `json:"attendance_types"`

	Specialty   string  `json:"specialty,omitempty"`
	Rating      float64 `json:"rating"`
	ReviewCount int     `json:"review_count"`

	MinPrice       *float64 `json:"min_price,omitempty"`
	PaymentMethods []string `json:"payment_methods,omitempty"`

	// ServiceNames holds all active service names, used for keyword
	// matching. ServicePreview is the bounded display subset.
	ServiceNames   []string `json:"-"`
	ServicePreview []string `json:"service_preview,omitempty"`

	// DistanceKm is ephemeral: computed during the geo stage, defined only
	// when both the query and the candidate carry valid coordinates.
	DistanceKm *float64 `json:"distance_km,omitempty"`
}

// MaxServicePreview bounds the display list of service names per candidate.
const MaxServicePreview = 3

// ServesVia reports whether the candidate's attendance-type set covers the
// given code. AttendanceBoth covers clinic and home-visit alike.
func (c *Candidate) ServesVia(t AttendanceType) bool {
	for _, at := range c.AttendanceTypes {
		if at == t || at == AttendanceBoth {
			return true
		}
	}
	return false
}

// AcceptsAny reports whether the candidate accepts at least one of the
// given payment method codes. An empty candidate method set never matches.
func (c *Candidate) AcceptsAny(methods []string) bool {
	for _, want := range methods {
		for _, have := range c.PaymentMethods {
			if have == want {
				return true
			}
		}
	}
	return false
}

// ─── Results ────────────────────────────────────────────────

// RankedResult is a Candidate with its final rank position. Ranked results
// are returned to the caller and discarded; they are never persisted.
type RankedResult struct {
	Candidate
	Rank int `json:"rank"`
}

// SearchResult is the payload published per completed search invocation.
type SearchResult struct {
	Results    []RankedResult `json:"results"`
	TotalCount int            `json:"total_count"`
}

// ─── Facet mapping ──────────────────────────────────────────

// facetAttendance maps location-type facet codes to the attendance-type
// codes they expand to. A facet may expand to multiple codes; an unknown
// facet expands to nothing (fail-open, see pipeline.FacetStage).
var facetAttendance = map[string][]AttendanceType{
	"clinic":   {AttendanceClinic, AttendanceBoth},
	"hospital": {AttendanceClinic, AttendanceBoth},
	"pet-shop": {AttendanceClinic, AttendanceBoth},
	"home":     {AttendanceHomeVisit, AttendanceBoth},
}

// ExpandFacets maps the requested facet codes through the facet table and
// returns the deduplicated union of attendance-type codes. Unknown facets
// contribute nothing.
func ExpandFacets(facets []string) []AttendanceType {
	seen := make(map[AttendanceType]bool, 4)
	var out []AttendanceType
	for _, f := range facets {
		for _, at := range facetAttendance[f] {
			if !seen[at] {
				seen[at] = true
				out = append(out, at)
			}
		}
	}
	return out
}
