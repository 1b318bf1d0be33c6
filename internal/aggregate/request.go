// Package aggregate implements components D (Request) and E (Parser): the
// compiled representation of an `FT.AGGREGATE`/`FT.SEARCH`-style command
// and the recursive-descent parser that builds one from command tokens.
package aggregate

import (
	"context"

	"ftaggregate/internal/collaborators"
	"ftaggregate/internal/rlookup"
)

// CursorOptions holds WITHCURSOR's sub-arguments.
type CursorOptions struct {
	Count   int // rows buffered per cursor read, 0 means unset/default
	MaxIdle int // milliseconds a cursor may sit idle before the GC reclaims it
}

// ReturnField is one entry of a RETURN clause: the field name and its
// optional AS rename.
type ReturnField struct {
	Name string
	As   string
}

// SummarizeOptions holds SUMMARIZE's sub-arguments, applying to the fields
// named in its own FIELDS list (or every field, when that list is empty).
type SummarizeOptions struct {
	Set       bool
	Fields    []string
	FragCount int    // -1 means unset/default
	FragLen   int    // -1 means unset/default
	Separator string
}

// HighlightOptions holds HIGHLIGHT's sub-arguments: which fields to wrap,
// and the open/close tags to wrap them with.
type HighlightOptions struct {
	Set        bool
	Fields     []string
	OpenTag    string
	CloseTag   string
}

// OnTimeoutPolicy selects how a processor's timeout yield is handled by
// the result formatter, per §5's "timeout policy is chosen at compile time".
type OnTimeoutPolicy int

const (
	// OnTimeoutReturn returns whatever rows were produced before expiry.
	OnTimeoutReturn OnTimeoutPolicy = iota
	// OnTimeoutFail fails the whole request once the clock expires.
	OnTimeoutFail
)

// SearchOptions holds the simple-mode (FlagSimple) search modifiers that
// are meaningless once a pipeline of plan steps exists.
type SearchOptions struct {
	Verbatim    bool
	NoStopwords bool
	InFields    []string
	InKeys      []string
	Language    string
	Scorer      string
	Expander    string
	Slop        int // -1 means unset
	InOrder     bool
	Payload     []byte
	OnTimeout   OnTimeoutPolicy

	// ReturnFields holds the explicit RETURN field list; a nil slice (as
	// opposed to an empty, non-nil one) means no RETURN clause was given
	// and every field should be preserved, per §3's "Returned-field list"
	// rule: "if any explicit returns exist, unmentioned fields are
	// dropped; otherwise all are preserved".
	ReturnFields []ReturnField
	Summarize    SummarizeOptions
	Highlight    HighlightOptions
}

// Request is the compiled form of one aggregation/search command. It is
// built by Parser.Parse and then carried through the lifecycle the spec
// describes: New → Compile → ApplyContext → BuildPipeline → Execute → Free.
// This package owns New/Compile; ApplyContext/BuildPipeline/Execute live in
// internal/pipeline, which consumes a *Request's Plan.
type Request struct {
	Index string
	Query string

	Flags   Flags
	Search  SearchOptions
	Cursor  CursorOptions
	Timeout int // milliseconds, 0 means no explicit timeout
	Params  map[string]string

	Plan *rlookup.AggPlan

	// AST is the parsed, extension-expanded query tree ApplyContext
	// builds from Query via a collaborators.QueryParser and
	// extregistry.Registry.ExpandTree. Nil until ApplyContext runs.
	AST *collaborators.QueryNode

	// Iterator is the index scan ApplyContext binds AST against. Nil
	// until ApplyContext runs; BuildPipeline's RootProcessor reads from
	// it in preference to any statically-configured reader.
	//
	// The concurrent-search context §5 describes (a cooperative yield
	// point threaded through IndexIteratorReader/Loader) has no separate
	// field here: every Processor.Next already takes a context.Context,
	// which is the idiomatic Go substitute for that handle.
	Iterator collaborators.IndexReader
}

// New creates an empty Request bound to the given index and query string,
// seeded with a fresh plan (its root step already present).
func New(index, query string) *Request {
	return &Request{
		Index:  index,
		Query:  query,
		Plan:   rlookup.NewAggPlan(),
		Params: make(map[string]string),
		Search: SearchOptions{Slop: -1},
	}
}

// validateModeExclusivity enforces the invariant that a request is never
// both FlagSimple and FlagExtended: a pipeline-shaping keyword
// (GROUPBY/APPLY/FILTER/LOAD) promotes a request from simple to extended,
// and a request that also carries a simple-only modifier is an
// invalid-argument error, not a silent override.
func (r *Request) validateModeExclusivity() error {
	if r.Flags.Has(FlagSimple) && r.Flags.Has(FlagExtended) {
		return invalidArgumentf("", "a request cannot mix simple search modifiers with an aggregation pipeline")
	}
	return nil
}

// Compile finalizes a parsed Request: validates the mode-exclusivity
// invariant and any cross-step constraints that depend on the whole plan
// being known (e.g. LOAD only legal against the root lookup — enforced by
// internal/pipeline at build time since it needs AggPlan.GetLookup).
func (r *Request) Compile(_ context.Context) error {
	return r.validateModeExclusivity()
}
