package pipeline

import (
	"context"

	"ftaggregate/internal/collaborators"
)

// RootProcessor is the implicit first stage of every pipeline: it reads
// scored ids from the IndexReader and, unless FlagNoFields/RETURN-0
// suppresses it, loads the matching document's fields from the DocStore.
// This grounds §9's "implicit root pipeline construction: IndexIteratorReader,
// conditional Scorer".
//
// Per §4.G, the iterator itself never carries a relevance score — the id's
// Score is discarded here and left at zero; a separate Scorer stage (see
// scorer.go), inserted by Builder.Build ahead of any sorter, computes it.
type RootProcessor struct {
	Reader     collaborators.IndexReader
	Store      collaborators.DocStore
	LoadFields bool // false only when a later RETURN 0 / FlagNoFields wins
}

func (p *RootProcessor) Next(ctx context.Context) (Row, Outcome, error) {
	sid, ok, err := p.Reader.Next(ctx)
	if err != nil {
		return Row{}, OutcomeEOF, err
	}
	if !ok {
		return Row{}, OutcomeEOF, nil
	}
	row := Row{ID: sid.ID, Score: 0, SortKeys: sid.SortKeys, Fields: map[string]string{}}
	if p.LoadFields {
		doc, found, err := p.Store.Load(ctx, sid.ID)
		if err != nil {
			return Row{}, OutcomeEOF, err
		}
		if found {
			for k, v := range doc.Fields {
				row.Fields[k] = v
			}
		}
	}
	return row, OutcomeRow, nil
}
