// Package extregistry implements component H: the process-wide registry of
// pluggable scorer and query-expander functions, plus the query-expansion
// protocol (ExpandToken/ExpandTokenWithPhrase/SetPayload) those expanders
// use to rewrite a compiled query tree. Grounded on
// original_source/extension.c's RSExtensionCtx / RSQueryExpanderCtx.
package extregistry

import (
	"plugin"
	"sync"

	"ftaggregate/internal/aggerr"
	"ftaggregate/internal/collaborators"
)

// Scorer computes a relevance score for one matched document against the
// query it matched.
type Scorer func(doc collaborators.Document, query string) (float64, error)

// Expander rewrites a single query token via the ExpansionContext protocol.
type Expander func(ctx *ExpansionContext, token string) error

// Registry is the process-wide name -> function table for scorers and
// expanders. Registration is rejected on a duplicate name, matching
// original_source/extension.c's RS_RegisterScorer/RS_RegisterQueryExpander
// refusing to overwrite an existing entry.
type Registry struct {
	mu        sync.RWMutex
	scorers   map[string]Scorer
	expanders map[string]Expander
}

func New() *Registry {
	return &Registry{
		scorers:   make(map[string]Scorer),
		expanders: make(map[string]Expander),
	}
}

func (r *Registry) RegisterScorer(name string, fn Scorer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.scorers[name]; exists {
		return aggerr.New(aggerr.KindInvalidArgument, "scorer %q is already registered", name).WithKeyword(name)
	}
	r.scorers[name] = fn
	return nil
}

func (r *Registry) RegisterExpander(name string, fn Expander) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.expanders[name]; exists {
		return aggerr.New(aggerr.KindInvalidArgument, "expander %q is already registered", name).WithKeyword(name)
	}
	r.expanders[name] = fn
	return nil
}

func (r *Registry) Scorer(name string) (Scorer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.scorers[name]
	if !ok {
		return nil, aggerr.New(aggerr.KindNoScorer, "unknown scorer %q", name).WithKeyword(name)
	}
	return fn, nil
}

func (r *Registry) Expander(name string) (Expander, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.expanders[name]
	if !ok {
		return nil, aggerr.New(aggerr.KindInvalidArgument, "unknown expander %q", name).WithKeyword(name)
	}
	return fn, nil
}

// ExpandTree applies the named expander to every token leaf of root,
// returning a new tree (the original is never mutated in place).
func (r *Registry) ExpandTree(name string, root *collaborators.QueryNode) (*collaborators.QueryNode, error) {
	fn, err := r.Expander(name)
	if err != nil {
		return nil, err
	}
	return expandNode(fn, root)
}

func expandNode(fn Expander, n *collaborators.QueryNode) (*collaborators.QueryNode, error) {
	if n == nil {
		return nil, nil
	}
	if n.Kind == collaborators.NodeToken {
		ctx := &ExpansionContext{node: n}
		if err := fn(ctx, n.Token); err != nil {
			return nil, err
		}
		return ctx.finalize(), nil
	}
	children := make([]*collaborators.QueryNode, len(n.Children))
	for i, c := range n.Children {
		nc, err := expandNode(fn, c)
		if err != nil {
			return nil, err
		}
		children[i] = nc
	}
	return &collaborators.QueryNode{Kind: n.Kind, Token: n.Token, Payload: n.Payload, Children: children}, nil
}

// extensionInitFunc is the signature a dynamically loaded extension's
// RS_ExtensionInit symbol must have.
type extensionInitFunc func(*Registry) error

// LoadPlugin opens a Go plugin (.so) built with `go build -buildmode=plugin`
// and calls its exported RS_ExtensionInit(*Registry) error, the Go analogue
// of original_source/extension.c's RS_ExtensionInit dlopen/dlsym contract.
func (r *Registry) LoadPlugin(path string) error {
	p, err := plugin.Open(path)
	if err != nil {
		return aggerr.New(aggerr.KindIO, "opening extension %s: %v", path, err)
	}
	sym, err := p.Lookup("RS_ExtensionInit")
	if err != nil {
		return aggerr.New(aggerr.KindIO, "extension %s has no RS_ExtensionInit symbol: %v", path, err)
	}
	initFn, ok := sym.(func(*Registry) error)
	if !ok {
		return aggerr.New(aggerr.KindInvalidArgument, "extension %s: RS_ExtensionInit has the wrong signature", path)
	}
	return initFn(r)
}
