package pipeline

import (
	"strings"

	"github.com/vetperto/providersearch/internal/model"
	"github.com/vetperto/providersearch/pkg/geo"
)

// ─── Geo stage ──────────────────────────────────────────────

// GeoStage keeps candidates within reach of the query coordinates under the
// dual-radius rule: a candidate matches if it lies within the searcher's
// requested radius OR within the candidate's own declared travel radius.
//
// Candidates without valid coordinates pass through with distance undefined:
// a provider lacking a geocoded address must not be silently dropped, since
// its own home-visit radius may still apply downstream.
type GeoStage struct {
	DefaultRadiusKm float64
}

func (s *GeoStage) Name() string { return "geo" }

func (s *GeoStage) Apply(candidates []model.Candidate, q *model.Query) []model.Candidate {
	if q.Coordinates == nil {
		return candidates
	}

	radius := q.RadiusKm
	if radius <= 0 {
		radius = s.DefaultRadiusKm
	}

	params := geo.NormalizeSearchParams(q.Coordinates.Lat, q.Coordinates.Lng, radius, string(q.Mode))
	if !params.IsValid {
		return candidates
	}

	out := make([]model.Candidate, 0, len(candidates))
	for _, c := range candidates {
		if c.Coordinates == nil || !geo.IsValidCoordinate(c.Coordinates.Lat, c.Coordinates.Lng) {
			out = append(out, c)
			continue
		}

		d := geo.DistanceKm(params.Lat, params.Lng, c.Coordinates.Lat, c.Coordinates.Lng)
		c.DistanceKm = &d

		withinSearch := d <= params.RadiusKm
		withinTravel := c.HomeServiceRadiusKm > 0 && d <= c.HomeServiceRadiusKm
		if withinSearch || withinTravel {
			out = append(out, c)
		}
	}
	return out
}

// ─── Search-mode stage ──────────────────────────────────────

var modeAttendance = map[model.SearchMode]model.AttendanceType{
	model.ModeFixedLocation: model.AttendanceClinic,
	model.ModeHomeVisit:     model.AttendanceHomeVisit,
}

// ModeStage keeps candidates that can serve via the requested search mode.
// ModeAny disables the stage.
type ModeStage struct{}

func (s *ModeStage) Name() string { return "search-mode" }

func (s *ModeStage) Apply(candidates []model.Candidate, q *model.Query) []model.Candidate {
	code, ok := modeAttendance[q.Mode]
	if !ok {
		return candidates
	}

	out := make([]model.Candidate, 0, len(candidates))
	for _, c := range candidates {
		if c.ServesVia(code) {
			out = append(out, c)
		}
	}
	return out
}

// ─── Service keyword stage ──────────────────────────────────

// KeywordStage matches the free-text service keyword case-insensitively
// against the candidate's specialty label or any of its service names.
type KeywordStage struct{}

func (s *KeywordStage) Name() string { return "service-keyword" }

func (s *KeywordStage) Apply(candidates []model.Candidate, q *model.Query) []model.Candidate {
	keyword := strings.ToLower(strings.TrimSpace(q.Service))
	if keyword == "" {
		return candidates
	}

	out := make([]model.Candidate, 0, len(candidates))
	for _, c := range candidates {
		if matchesKeyword(&c, keyword) {
			out = append(out, c)
		}
	}
	return out
}

func matchesKeyword(c *model.Candidate, keyword string) bool {
	if strings.Contains(strings.ToLower(c.Specialty), keyword) {
		return true
	}
	for _, name := range c.ServiceNames {
		if strings.Contains(strings.ToLower(name), keyword) {
			return true
		}
	}
	return false
}

// ─── Location-type facet stage ──────────────────────────────

// FacetStage keeps candidates whose attendance-type set intersects the
// expansion of the requested facets. A facet list that expands to zero
// known codes skips the stage entirely (fail-open, never fail-closed).
type FacetStage struct{}

func (s *FacetStage) Name() string { return "location-facet" }

func (s *FacetStage) Apply(candidates []model.Candidate, q *model.Query) []model.Candidate {
	if len(q.Facets) == 0 {
		return candidates
	}

	codes := model.ExpandFacets(q.Facets)
	if len(codes) == 0 {
		return candidates
	}

	out := make([]model.Candidate, 0, len(candidates))
	for _, c := range candidates {
		if intersectsAttendance(c.AttendanceTypes, codes) {
			out = append(out, c)
		}
	}
	return out
}

func intersectsAttendance(have, want []model.AttendanceType) bool {
	for _, w := range want {
		for _, h := range have {
			if h == w {
				return true
			}
		}
	}
	return false
}

// ─── Rating floor stage ─────────────────────────────────────

// RatingStage keeps candidates whose aggregate rating meets the threshold.
type RatingStage struct{}

func (s *RatingStage) Name() string { return "rating-floor" }

func (s *RatingStage) Apply(candidates []model.Candidate, q *model.Query) []model.Candidate {
	if q.MinRating <= 0 {
		return candidates
	}

	out := make([]model.Candidate, 0, len(candidates))
	for _, c := range candidates {
		if c.Rating >= q.MinRating {
			out = append(out, c)
		}
	}
	return out
}

// ─── Payment-method stage ───────────────────────────────────

// PaymentStage keeps candidates accepting at least one requested method.
// While active, a candidate with no declared methods is always excluded.
type PaymentStage struct{}

func (s *PaymentStage) Name() string { return "payment-method" }

func (s *PaymentStage) Apply(candidates []model.Candidate, q *model.Query) []model.Candidate {
	if len(q.PaymentMethods) == 0 {
		return candidates
	}

	out := make([]model.Candidate, 0, len(candidates))
	for _, c := range candidates {
		if c.AcceptsAny(q.PaymentMethods) {
			out = append(out, c)
		}
	}
	return out
}
