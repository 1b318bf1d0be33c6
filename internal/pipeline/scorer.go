package pipeline

import (
	"context"

	"ftaggregate/internal/collaborators"
	"ftaggregate/internal/extregistry"
)

// DefaultScorerName is used when a search request names no SCORER, matching
// original_source/aggregate_request.c's getScorerRP falling back to
// DEFAULT_SCORER_NAME when searchopts.scorerName is unset.
const DefaultScorerName = "TFIDF"

// Scorer implements the implicit scoring stage §4.G/§9 describe:
// IndexIteratorReader hands rows through with score=0, and a distinct
// Scorer stage (not the reader) computes the real relevance score via the
// named extregistry.Scorer, mirroring RPScorer_New wrapping the extension's
// scoring function.
type Scorer struct {
	Upstream Processor
	Fn       extregistry.Scorer
	Query    string
}

func NewScorer(upstream Processor, fn extregistry.Scorer, query string) *Scorer {
	return &Scorer{Upstream: upstream, Fn: fn, Query: query}
}

func (s *Scorer) Next(ctx context.Context) (Row, Outcome, error) {
	row, outcome, err := s.Upstream.Next(ctx)
	if err != nil || outcome != OutcomeRow {
		return row, outcome, err
	}
	doc := collaborators.Document{ID: row.ID, Fields: row.Fields}
	score, err := s.Fn(doc, s.Query)
	if err != nil {
		return Row{}, OutcomeEOF, err
	}
	out := row
	out.Score = score
	return out, OutcomeRow, nil
}
