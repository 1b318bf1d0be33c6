package rlookup

// StepKind identifies the kind of a plan step.
type StepKind int

const (
	StepRoot StepKind = iota
	StepGroup
	StepArrange
	StepApply
	StepFilter
	StepLoad
	StepDistribute
)

func (k StepKind) String() string {
	switch k {
	case StepRoot:
		return "root"
	case StepGroup:
		return "group"
	case StepArrange:
		return "arrange"
	case StepApply:
		return "apply"
	case StepFilter:
		return "filter"
	case StepLoad:
		return "load"
	case StepDistribute:
		return "distribute"
	default:
		return "unknown"
	}
}

// Step is satisfied by every plan step type. Lookup returns the Lookup this
// step owns, or nil if the step merely transforms rows flowing through the
// prevailing schema (Arrange/Apply/Filter/Load/Distribute all return nil;
// only Root and Group own a Lookup).
type Step interface {
	Kind() StepKind
	Lookup() *Lookup
}

// RootStep is always the first step of a plan; it owns the root Lookup,
// populated from the document as rows enter the pipeline.
type RootStep struct {
	lk *Lookup
}

func NewRootStep() *RootStep        { return &RootStep{lk: New()} }
func (s *RootStep) Kind() StepKind  { return StepRoot }
func (s *RootStep) Lookup() *Lookup { return s.lk }

// Reducer is a parsed (not yet instantiated) REDUCE clause: a function
// name, its raw argument tokens, and its alias (explicit or generated).
type Reducer struct {
	Func  string
	Args  []string
	Alias string
}

// GroupStep groups rows by a set of property names and produces one row
// per group via its Reducers. It owns a fresh Lookup holding the group
// keys plus one key per reducer alias.
type GroupStep struct {
	Keys     []string
	Reducers []Reducer
	lk       *Lookup
}

func NewGroupStep(keys []string) *GroupStep {
	return &GroupStep{Keys: keys, lk: New()}
}
func (s *GroupStep) Kind() StepKind  { return StepGroup }
func (s *GroupStep) Lookup() *Lookup { return s.lk }

// ArrangeStep sorts and/or pages rows. AscBitmap's bit i (LSB first) is 1
// when SortKeys[i] sorts ascending. Offset/Limit of -1 mean "unset".
type ArrangeStep struct {
	SortKeys  []string
	AscBitmap uint64
	Offset    int
	Limit     int
}

func (s *ArrangeStep) Kind() StepKind  { return StepArrange }
func (s *ArrangeStep) Lookup() *Lookup { return nil }

// ApplyStep computes an expression and binds it to Alias in the prevailing
// lookup (resolved via AggPlan.GetLookup(step, ModeLast) at build time).
type ApplyStep struct {
	Expr  string
	Alias string
}

func (s *ApplyStep) Kind() StepKind  { return StepApply }
func (s *ApplyStep) Lookup() *Lookup { return nil }

// FilterStep drops rows for which Expr evaluates falsy.
type FilterStep struct {
	Expr string
}

func (s *FilterStep) Kind() StepKind  { return StepFilter }
func (s *FilterStep) Lookup() *Lookup { return nil }

// LoadStep reloads named fields from the stored document. Legal only when
// AggPlan.GetLookup(step, ModePrev) is the root lookup.
type LoadStep struct {
	Fields []string
	LoadAll bool
}

func (s *LoadStep) Kind() StepKind  { return StepLoad }
func (s *LoadStep) Lookup() *Lookup { return nil }

// DistributeStep is a confirmed no-op / pass-through, carried only for
// plan-shape fidelity with distributed coordinator plans; a single-node
// pipeline treats it as transparent.
type DistributeStep struct{}

func (s *DistributeStep) Kind() StepKind  { return StepDistribute }
func (s *DistributeStep) Lookup() *Lookup { return nil }

// node is one entry of the plan's doubly-linked step list.
type node struct {
	step       Step
	prev, next *node
}

// Mode selects which lookup GetLookup resolves to.
type Mode int

const (
	// ModeFirst always resolves to the plan's root lookup.
	ModeFirst Mode = iota
	// ModePrev resolves to the nearest lookup-owning step strictly before
	// the given node (the schema in scope when the step begins).
	ModePrev
	// ModeLast resolves to the nearest lookup-owning step at or before the
	// given node (the schema in scope including the step's own lookup, if any).
	ModeLast
)

// AggPlan is an ordered, doubly-linked list of Steps plus the schema
// resolution operation pipeline construction relies on.
type AggPlan struct {
	head, tail *node
	root       *Lookup
	numSteps   int
}

// NewAggPlan creates a plan seeded with its mandatory RootStep.
func NewAggPlan() *AggPlan {
	rs := NewRootStep()
	n := &node{step: rs}
	return &AggPlan{head: n, tail: n, root: rs.lk, numSteps: 1}
}

// NumSteps returns the number of steps in the plan, including the root step.
func (p *AggPlan) NumSteps() int { return p.numSteps }

// StepHandle identifies a step's position for FindStep/GetLookup. It is
// returned by Append and is opaque to callers.
type StepHandle struct{ n *node }

// Step returns the underlying Step for a handle.
func (h StepHandle) Step() Step { return h.n.step }

// Append adds a step to the tail of the plan and returns its handle.
func (p *AggPlan) Append(s Step) StepHandle {
	n := &node{step: s, prev: p.tail}
	p.tail.next = n
	p.tail = n
	p.numSteps++
	return StepHandle{n}
}

// First returns a handle to the plan's root step.
func (p *AggPlan) First() StepHandle { return StepHandle{p.head} }

// Next returns the step following h, and false if h is the last step.
func (p *AggPlan) Next(h StepHandle) (StepHandle, bool) {
	if h.n.next == nil {
		return StepHandle{}, false
	}
	return StepHandle{h.n.next}, true
}

// Prev returns the step preceding h, and false if h is the root step.
func (p *AggPlan) Prev(h StepHandle) (StepHandle, bool) {
	if h.n.prev == nil {
		return StepHandle{}, false
	}
	return StepHandle{h.n.prev}, true
}

// GetLookup resolves the schema visible to step h under the given mode.
func (p *AggPlan) GetLookup(h StepHandle, mode Mode) *Lookup {
	switch mode {
	case ModeFirst:
		return p.root
	case ModePrev:
		for n := h.n.prev; n != nil; n = n.prev {
			if lk := n.step.Lookup(); lk != nil {
				return lk
			}
		}
		return p.root
	case ModeLast:
		for n := h.n; n != nil; n = n.prev {
			if lk := n.step.Lookup(); lk != nil {
				return lk
			}
		}
		return p.root
	default:
		return p.root
	}
}

// FindStep walks forward from from (exclusive) to to (exclusive, or the
// plan's end if to.n is nil) and returns the first step of the given kind.
func (p *AggPlan) FindStep(from, to StepHandle, kind StepKind) (StepHandle, bool) {
	for n := from.n.next; n != nil && n != to.n; n = n.next {
		if n.step.Kind() == kind {
			return StepHandle{n}, true
		}
	}
	return StepHandle{}, false
}

// Walk calls fn for every step from the root to the tail, in order.
// Iteration stops early if fn returns false.
func (p *AggPlan) Walk(fn func(h StepHandle) bool) {
	for n := p.head; n != nil; n = n.next {
		if !fn(StepHandle{n}) {
			return
		}
	}
}
