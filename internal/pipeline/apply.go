package pipeline

import (
	"context"

	"ftaggregate/internal/exprlang"
	"ftaggregate/internal/rlookup"
)

// Projector implements APPLY: it streams rows through unchanged except for
// binding the expression's result under Step.Alias, matching §9's "creates
// a destination key with the step's alias" (resolved, at build time, in
// whichever lookup AggPlan.GetLookup(step, ModeLast) names).
type Projector struct {
	Upstream  Processor
	Step      *rlookup.ApplyStep
	Evaluator *exprlang.Evaluator
	Expr      exprlang.Expr
}

func NewProjector(upstream Processor, step *rlookup.ApplyStep, ev *exprlang.Evaluator, expr exprlang.Expr) *Projector {
	return &Projector{Upstream: upstream, Step: step, Evaluator: ev, Expr: expr}
}

func (p *Projector) Next(ctx context.Context) (Row, Outcome, error) {
	row, outcome, err := p.Upstream.Next(ctx)
	if err != nil || outcome != OutcomeRow {
		return row, outcome, err
	}
	v, err := p.Evaluator.Eval(p.Expr, exprlang.Row(row.Fields))
	if err != nil {
		return Row{}, OutcomeEOF, err
	}
	out := row.Clone()
	out.Fields[p.Step.Alias] = v.Str
	return out, OutcomeRow, nil
}
