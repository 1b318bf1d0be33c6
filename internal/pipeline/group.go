package pipeline

import (
	"context"
	"strings"

	"ftaggregate/internal/rlookup"
)

// groupState is one group's running accumulators, keyed by reducer index.
type groupState struct {
	keyValues []string
	accs      []Accumulator
}

// Grouper implements GROUPBY: it buffers every upstream row on first Next
// (grouping needs the full input before any output row exists), folds rows
// into per-key Accumulators, then yields one output row per distinct key
// combination in first-seen order.
type Grouper struct {
	Upstream Processor
	Step     *rlookup.GroupStep

	built   bool
	order   []string
	groups  map[string]*groupState
	emitPos int
}

func NewGrouper(upstream Processor, step *rlookup.GroupStep) *Grouper {
	return &Grouper{Upstream: upstream, Step: step}
}

func (g *Grouper) build(ctx context.Context) error {
	g.groups = make(map[string]*groupState)
	factories := make([]ReducerFactory, len(g.Step.Reducers))
	for i, r := range g.Step.Reducers {
		f, err := LookupReducer(r.Func)
		if err != nil {
			return err
		}
		factories[i] = f
	}

	for {
		row, outcome, err := g.Upstream.Next(ctx)
		if err != nil {
			return err
		}
		if outcome == OutcomeEOF {
			break
		}
		if outcome == OutcomePaused {
			continue
		}

		keyValues := make([]string, len(g.Step.Keys))
		for i, k := range g.Step.Keys {
			keyValues[i] = row.Fields[strings.TrimPrefix(k, "@")]
		}
		groupKey := strings.Join(keyValues, "\x00")

		gs, ok := g.groups[groupKey]
		if !ok {
			accs := make([]Accumulator, len(factories))
			for i, f := range factories {
				acc, err := f(g.Step.Reducers[i].Args)
				if err != nil {
					return err
				}
				accs[i] = acc
			}
			gs = &groupState{keyValues: keyValues, accs: accs}
			g.groups[groupKey] = gs
			g.order = append(g.order, groupKey)
		}
		for _, acc := range gs.accs {
			acc.Add(row)
		}
	}
	g.built = true
	return nil
}

func (g *Grouper) Next(ctx context.Context) (Row, Outcome, error) {
	if !g.built {
		if err := g.build(ctx); err != nil {
			return Row{}, OutcomeEOF, err
		}
	}
	if g.emitPos >= len(g.order) {
		return Row{}, OutcomeEOF, nil
	}
	gs := g.groups[g.order[g.emitPos]]
	g.emitPos++

	fields := make(map[string]string, len(g.Step.Keys)+len(g.Step.Reducers))
	for i, k := range g.Step.Keys {
		fields[strings.TrimPrefix(k, "@")] = gs.keyValues[i]
	}
	for i, r := range g.Step.Reducers {
		fields[r.Alias] = gs.accs[i].Result()
	}
	return Row{Fields: fields}, OutcomeRow, nil
}
