package pipeline

import (
	"context"

	"ftaggregate/internal/exprlang"
)

// Filter implements FILTER: it streams rows, dropping any for which the
// expression evaluates falsy (§exprlang.Value.Truthy semantics: missing is
// false, numeric is nonzero, string is non-empty).
type Filter struct {
	Upstream  Processor
	Evaluator *exprlang.Evaluator
	Expr      exprlang.Expr
}

func NewFilter(upstream Processor, ev *exprlang.Evaluator, expr exprlang.Expr) *Filter {
	return &Filter{Upstream: upstream, Evaluator: ev, Expr: expr}
}

func (f *Filter) Next(ctx context.Context) (Row, Outcome, error) {
	for {
		row, outcome, err := f.Upstream.Next(ctx)
		if err != nil || outcome != OutcomeRow {
			return row, outcome, err
		}
		v, err := f.Evaluator.Eval(f.Expr, exprlang.Row(row.Fields))
		if err != nil {
			return Row{}, OutcomeEOF, err
		}
		if v.Truthy() {
			return row, OutcomeRow, nil
		}
	}
}
