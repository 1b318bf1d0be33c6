// Package pipeline implements components F (PipelineBuilder) and G
// (ResultProcessor): a chain of pull-based row processors assembled from a
// compiled *aggregate.Request, modeled on this codebase's iter.Seq2[T,
// error]-shaped scanning idiom — each stage pulls from the one upstream of
// it rather than being driven push-style.
package pipeline

import "context"

// Outcome classifies what Next produced.
type Outcome int

const (
	// OutcomeRow means Row holds a valid result.
	OutcomeRow Outcome = iota
	// OutcomeEOF means the processor is exhausted; Row is zero.
	OutcomeEOF
	// OutcomePaused means the processor yielded control cooperatively
	// (budget/pause-flag check) without producing a row or reaching EOF;
	// the caller should call Next again.
	OutcomePaused
)

// Row is one record flowing through the pipeline: the source document id,
// its relevance score and sort-key values (when requested), and the named
// field values accumulated by upstream steps.
type Row struct {
	ID       string
	Score    float64
	SortKeys []string
	Fields   map[string]string
}

// Clone returns a deep-enough copy of r so a processor can mutate the
// clone's Fields without affecting an upstream-held Row (group/sort stages
// buffer rows and must not alias the same map across it and its source).
func (r Row) Clone() Row {
	fields := make(map[string]string, len(r.Fields))
	for k, v := range r.Fields {
		fields[k] = v
	}
	sortKeys := append([]string(nil), r.SortKeys...)
	return Row{ID: r.ID, Score: r.Score, SortKeys: sortKeys, Fields: fields}
}

// Processor is one stage of the pipeline. Next pulls the next result from
// upstream, transforms it according to the stage's semantics, and returns
// it. Errors carry an aggerr.Kind (timeout, no-property, ...) via
// errors.Is; a timeout error during iteration is not necessarily fatal to
// the overall response (§5's cooperative-timeout budget), but OutcomeEOF
// with a non-nil error always ends iteration for this processor.
type Processor interface {
	Next(ctx context.Context) (Row, Outcome, error)
}

// ProcessorFunc adapts a plain function to the Processor interface.
type ProcessorFunc func(ctx context.Context) (Row, Outcome, error)

func (f ProcessorFunc) Next(ctx context.Context) (Row, Outcome, error) { return f(ctx) }
