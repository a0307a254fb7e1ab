// Package pipeline implements the composable filter pipeline for provider
// search.
//
// A pipeline is an ordered list of named stages. Each stage is a pure
// function over the candidate list: it returns a new (or unchanged) list and
// never mutates its input. The geo and search-mode stages must run before
// the others; the remaining stages are independent predicates and commute.
package pipeline

import (
	"go.uber.org/zap"

	"github.com/vetperto/providersearch/internal/model"
)

// Stage narrows a candidate list according to one aspect of the query.
//
// Apply must treat candidates as read-only. A stage whose query input makes
// it inapplicable returns the input list unchanged (no-op).
type Stage interface {
	Name() string
	Apply(candidates []model.Candidate, q *model.Query) []model.Candidate
}

// Config carries the pipeline tunables.
type Config struct {
	// DefaultRadiusKm is applied when the query omits a radius.
	DefaultRadiusKm float64
}

// Pipeline applies its stages in order.
type Pipeline struct {
	stages []Stage
	log    *zap.Logger
}

// New builds the standard pipeline in the required stage order.
func New(cfg Config, log *zap.Logger) *Pipeline {
	if log == nil {
		log = zap.NewNop()
	}
	return &Pipeline{
		stages: []Stage{
			&GeoStage{DefaultRadiusKm: cfg.DefaultRadiusKm},
			&ModeStage{},
			&KeywordStage{},
			&FacetStage{},
			&RatingStage{},
			&PaymentStage{},
		},
		log: log,
	}
}

// NewWithStages builds a pipeline from an explicit stage list. Used by tests
// and by callers that reorder the commuting tail stages.
func NewWithStages(log *zap.Logger, stages ...Stage) *Pipeline {
	if log == nil {
		log = zap.NewNop()
	}
	return &Pipeline{stages: stages, log: log}
}

// Run executes all stages in order and returns the surviving candidates.
func (p *Pipeline) Run(candidates []model.Candidate, q *model.Query) []model.Candidate {
	for _, stage := range p.stages {
		before := len(candidates)
		candidates = stage.Apply(candidates, q)
		p.log.Debug("pipeline stage applied",
			zap.String("stage", stage.Name()),
			zap.Int("in", before),
			zap.Int("out", len(candidates)),
		)
	}
	return candidates
}
