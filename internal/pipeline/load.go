package pipeline

import (
	"context"
	"strings"

	"ftaggregate/internal/collaborators"
	"ftaggregate/internal/rlookup"
)

// Loader implements LOAD: it reloads named fields (or, with LoadAll, every
// stored field) from the DocStore and merges them into the row. The
// PipelineBuilder only ever constructs one of these for a LoadStep resolved
// against the root lookup — see builder.go's root-only legality check.
type Loader struct {
	Upstream Processor
	Store    collaborators.DocStore
	Step     *rlookup.LoadStep
}

func NewLoader(upstream Processor, store collaborators.DocStore, step *rlookup.LoadStep) *Loader {
	return &Loader{Upstream: upstream, Store: store, Step: step}
}

func (l *Loader) Next(ctx context.Context) (Row, Outcome, error) {
	row, outcome, err := l.Upstream.Next(ctx)
	if err != nil || outcome != OutcomeRow {
		return row, outcome, err
	}
	doc, found, err := l.Store.Load(ctx, row.ID)
	if err != nil {
		return Row{}, OutcomeEOF, err
	}
	if !found {
		return row, OutcomeRow, nil
	}
	out := row.Clone()
	if l.Step.LoadAll {
		for k, v := range doc.Fields {
			out.Fields[k] = v
		}
		return out, OutcomeRow, nil
	}
	for _, f := range l.Step.Fields {
		name := strings.TrimPrefix(f, "@")
		if v, ok := doc.Fields[name]; ok {
			out.Fields[name] = v
		}
	}
	return out, OutcomeRow, nil
}
