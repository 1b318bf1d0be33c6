package pipeline

import (
	"context"
	"strings"
)

// Highlighter implements the output pipeline's highlight stage (§6,
// FlagSendHighlight): it wraps occurrences of the query's literal terms in
// the requested fields with <b>...</b> markers. A real implementation
// would highlight against the QueryParser's term list and field offsets;
// this is a direct substring pass sufficient for the reference CLI/tests.
type Highlighter struct {
	Upstream Processor
	Terms    []string
	Fields   []string // empty means highlight every field
}

func NewHighlighter(upstream Processor, terms, fields []string) *Highlighter {
	return &Highlighter{Upstream: upstream, Terms: terms, Fields: fields}
}

func (h *Highlighter) Next(ctx context.Context) (Row, Outcome, error) {
	row, outcome, err := h.Upstream.Next(ctx)
	if err != nil || outcome != OutcomeRow {
		return row, outcome, err
	}
	if len(h.Terms) == 0 {
		return row, OutcomeRow, nil
	}
	out := row.Clone()
	targets := h.Fields
	if len(targets) == 0 {
		targets = make([]string, 0, len(out.Fields))
		for k := range out.Fields {
			targets = append(targets, k)
		}
	}
	for _, f := range targets {
		v, ok := out.Fields[f]
		if !ok {
			continue
		}
		for _, term := range h.Terms {
			if term == "" {
				continue
			}
			v = strings.ReplaceAll(v, term, "<b>"+term+"</b>")
		}
		out.Fields[f] = v
	}
	return out, OutcomeRow, nil
}
