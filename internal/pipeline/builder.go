package pipeline

import (
	"strings"
	"time"

	"ftaggregate/internal/aggerr"
	"ftaggregate/internal/aggregate"
	"ftaggregate/internal/collaborators"
	"ftaggregate/internal/exprlang"
	"ftaggregate/internal/extregistry"
	"ftaggregate/internal/rlookup"
)

// Builder assembles a Processor chain from a compiled *aggregate.Request,
// per §9: an implicit root pipeline (IndexIteratorReader + conditional
// Scorer), then one stage per plan step in order, then a highlight stage
// when requested.
type Builder struct {
	Reader      collaborators.IndexReader
	Store       collaborators.DocStore
	HighlightTerms []string

	// Registry resolves SCORER names for the implicit scoring stage. A nil
	// Registry (the zero Builder) skips that stage entirely, matching a
	// caller that never wired an extension registry at all.
	Registry *extregistry.Registry
}

// Build walks req.Plan and returns the assembled Processor chain. Every
// step's field references are resolved against the Lookup AggPlan.GetLookup
// names for that step (root lookup: open-or-create, since a stored
// document's field set is never fully known ahead of time; any other
// lookup: open-exclusive existence check, failing with a no-property error
// for a name the owning step never produced), per §4.B/§4.F.
func (b Builder) Build(req *aggregate.Request) (Processor, error) {
	ev := exprlang.NewEvaluator()

	loadFields := !req.Flags.Has(aggregate.FlagNoFields)
	var proc Processor = &RootProcessor{Reader: b.Reader, Store: b.Store, LoadFields: loadFields}

	root := req.Plan.GetLookup(req.Plan.First(), rlookup.ModeFirst)

	// Create a scorer if there is no subsequent sorter within this grouping,
	// mirroring buildImplicitPipeline's hasQuerySortby short-circuit;
	// FlagSendScores forces one even when a sorter makes it otherwise moot.
	if b.Registry != nil && (!hasQuerySortby(req.Plan) || req.Flags.Has(aggregate.FlagSendScores)) {
		name := req.Search.Scorer
		if name == "" {
			name = DefaultScorerName
		}
		fn, err := b.Registry.Scorer(name)
		if err != nil {
			return nil, err
		}
		proc = NewScorer(proc, fn, req.Query)
	}

	first := req.Plan.First()
	h, hasNext := req.Plan.Next(first)
	for hasNext {
		step := h.Step()
		switch s := step.(type) {
		case *rlookup.GroupStep:
			prev := req.Plan.GetLookup(h, rlookup.ModePrev)
			own := s.Lookup()
			for _, k := range s.Keys {
				if _, err := resolveExisting(prev, root, k); err != nil {
					return nil, err
				}
				resolveNew(own, k, rlookup.DocSource)
			}
			for _, r := range s.Reducers {
				if len(r.Args) > 0 && strings.HasPrefix(r.Args[0], "@") {
					if _, err := resolveExisting(prev, root, r.Args[0]); err != nil {
						return nil, err
					}
				}
				resolveNew(own, "@"+r.Alias, rlookup.SortValueSource)
			}
			proc = NewGrouper(proc, s)

		case *rlookup.ArrangeStep:
			lk := req.Plan.GetLookup(h, rlookup.ModeLast)
			for _, k := range s.SortKeys {
				if _, err := resolveExisting(lk, root, k); err != nil {
					return nil, err
				}
			}
			proc = NewSorter(proc, s)

		case *rlookup.ApplyStep:
			expr, err := exprlang.Parse(s.Expr)
			if err != nil {
				return nil, aggerr.New(aggerr.KindInvalidArgument, "invalid APPLY expression %q: %v", s.Expr, err).WithKeyword("APPLY")
			}
			lk := req.Plan.GetLookup(h, rlookup.ModeLast)
			for _, name := range fieldRefs(expr) {
				if _, err := resolveExisting(lk, root, "@"+name); err != nil {
					return nil, err
				}
			}
			resolveNew(lk, "@"+s.Alias, rlookup.SortValueSource)
			proc = NewProjector(proc, s, ev, expr)

		case *rlookup.FilterStep:
			expr, err := exprlang.Parse(s.Expr)
			if err != nil {
				return nil, aggerr.New(aggerr.KindInvalidArgument, "invalid FILTER expression %q: %v", s.Expr, err).WithKeyword("FILTER")
			}
			lk := req.Plan.GetLookup(h, rlookup.ModeLast)
			for _, name := range fieldRefs(expr) {
				if _, err := resolveExisting(lk, root, "@"+name); err != nil {
					return nil, err
				}
			}
			proc = NewFilter(proc, ev, expr)

		case *rlookup.LoadStep:
			prev := req.Plan.GetLookup(h, rlookup.ModePrev)
			if prev != root {
				return nil, aggerr.New(aggerr.KindInvalidArgument,
					"LOAD is only legal against the root lookup, not after a step that created its own schema").
					WithKeyword("LOAD")
			}
			if !s.LoadAll {
				for _, f := range s.Fields {
					resolveNew(root, f, rlookup.DocSource)
				}
			}
			proc = NewLoader(proc, b.Store, s)

		case *rlookup.DistributeStep:
			// confirmed no-op: the builder walks past it without pushing a processor.

		default:
			return nil, aggerr.New(aggerr.KindInvalidArgument, "unknown plan step kind %v", step.Kind())
		}

		h, hasNext = req.Plan.Next(h)
	}

	if req.Flags.Has(aggregate.FlagSendHighlight) {
		proc = NewHighlighter(proc, b.HighlightTerms, nil)
	}

	proc = NewBudgeted(proc, req.Timeout, 5*time.Millisecond)

	return proc, nil
}

// hasQuerySortby reports whether the plan has an arrange step with sort
// keys that scopes this grouping: the one before the first GROUPBY, or (if
// there is no GROUPBY) anywhere in the plan. Grounded on
// aggregate_request.c's hasQuerySortby.
func hasQuerySortby(plan *rlookup.AggPlan) bool {
	root := plan.First()
	groupH, hasGroup := plan.FindStep(root, rlookup.StepHandle{}, rlookup.StepGroup)
	if hasGroup {
		arrH, ok := plan.FindStep(root, groupH, rlookup.StepArrange)
		return ok && len(arrH.Step().(*rlookup.ArrangeStep).SortKeys) > 0
	}
	arrH, ok := plan.FindStep(root, rlookup.StepHandle{}, rlookup.StepArrange)
	return ok && len(arrH.Step().(*rlookup.ArrangeStep).SortKeys) > 0
}
