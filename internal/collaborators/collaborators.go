// Package collaborators declares the external-system interfaces this
// aggregation core depends on but does not implement: document storage,
// index iteration, and query-string parsing (§6). Each also ships a
// minimal in-memory reference implementation so the rest of the module
// can be built and tested without a real index behind it.
package collaborators

import "context"

// Document is a stored record keyed by id, with its field values.
type Document struct {
	ID     string
	Fields map[string]string
}

// DocStore loads documents by id. A real implementation backs this with
// whatever storage engine holds field values; the in-memory MapDocStore
// below is sufficient for tests and the reference CLI.
type DocStore interface {
	Load(ctx context.Context, id string) (Document, bool, error)
}

// MapDocStore is an in-memory DocStore.
type MapDocStore map[string]Document

func (m MapDocStore) Load(_ context.Context, id string) (Document, bool, error) {
	d, ok := m[id]
	return d, ok, nil
}

// ScoredID is one result from an index scan: a document id, its relevance
// score, and (when requested) the sort-key values used to rank it.
type ScoredID struct {
	ID       string
	Score    float64
	SortKeys []string
}

// IndexReader iterates the matches for a compiled query, in the index's
// natural (already-ranked) order. Next returns ok=false once exhausted.
type IndexReader interface {
	Next(ctx context.Context) (ScoredID, bool, error)
	Close() error
}

// SliceIndexReader is an in-memory IndexReader over a fixed result set,
// used by tests and the reference CLI in place of a real index scan.
type SliceIndexReader struct {
	items []ScoredID
	pos   int
}

func NewSliceIndexReader(items []ScoredID) *SliceIndexReader {
	return &SliceIndexReader{items: items}
}

func (r *SliceIndexReader) Next(_ context.Context) (ScoredID, bool, error) {
	if r.pos >= len(r.items) {
		return ScoredID{}, false, nil
	}
	it := r.items[r.pos]
	r.pos++
	return it, true, nil
}

func (r *SliceIndexReader) Close() error { return nil }

// QueryNode is the minimal AST surface the expansion protocol operates on:
// a token leaf, a union of alternatives, or a phrase (ordered sequence).
type QueryNode struct {
	Kind     QueryNodeKind
	Token    string
	Payload  []byte
	Children []*QueryNode
}

type QueryNodeKind int

const (
	NodeToken QueryNodeKind = iota
	NodeUnion
	NodePhrase
)

// QueryParser compiles a query string into a QueryNode tree. A real
// implementation tokenizes and resolves field/stopword/stemming rules;
// StubParser below is a minimal single-token parser sufficient for tests.
type QueryParser interface {
	Parse(query string) (*QueryNode, error)
}

// StubParser treats the entire query string as one token, for tests and
// the reference CLI.
type StubParser struct{}

func (StubParser) Parse(query string) (*QueryNode, error) {
	return &QueryNode{Kind: NodeToken, Token: query}, nil
}
