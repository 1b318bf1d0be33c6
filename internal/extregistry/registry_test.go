package extregistry

import (
	"errors"
	"testing"

	"ftaggregate/internal/aggerr"
	"ftaggregate/internal/collaborators"
)

func TestRegisterDuplicateScorerRejected(t *testing.T) {
	r := New()
	fn := func(collaborators.Document, string) (float64, error) { return 1, nil }
	if err := r.RegisterScorer("bm25", fn); err != nil {
		t.Fatalf("first register: %v", err)
	}
	if err := r.RegisterScorer("bm25", fn); err == nil {
		t.Fatal("expected duplicate registration to be rejected")
	}
}

func TestScorerNotFound(t *testing.T) {
	r := New()
	_, err := r.Scorer("nope")
	if !errors.Is(err, aggerr.ErrNoScorer) {
		t.Fatalf("expected ErrNoScorer, got %v", err)
	}
}

func TestExpandTreeSynonym(t *testing.T) {
	r := New()
	synonyms := map[string][]string{"car": {"automobile", "vehicle"}}
	err := r.RegisterExpander("synonyms", func(ctx *ExpansionContext, token string) error {
		for _, syn := range synonyms[token] {
			ctx.ExpandToken(syn)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("RegisterExpander: %v", err)
	}

	root := &collaborators.QueryNode{Kind: collaborators.NodeToken, Token: "car"}
	expanded, err := r.ExpandTree("synonyms", root)
	if err != nil {
		t.Fatalf("ExpandTree: %v", err)
	}
	if expanded.Kind != collaborators.NodeUnion || len(expanded.Children) != 3 {
		t.Fatalf("got %+v, want a 3-way union", expanded)
	}
}

func TestExpandTreeNoExpansionLeavesTokenUnchanged(t *testing.T) {
	r := New()
	r.RegisterExpander("noop", func(ctx *ExpansionContext, token string) error { return nil })
	root := &collaborators.QueryNode{Kind: collaborators.NodeToken, Token: "hello"}
	got, err := r.ExpandTree("noop", root)
	if err != nil {
		t.Fatalf("ExpandTree: %v", err)
	}
	if got != root {
		t.Fatal("expected the original token node back when nothing was expanded")
	}
}

func TestExpandTreeRecursesIntoPhrase(t *testing.T) {
	r := New()
	r.RegisterExpander("upper-dup", func(ctx *ExpansionContext, token string) error {
		ctx.ExpandToken(token + "!")
		return nil
	})
	root := &collaborators.QueryNode{
		Kind: collaborators.NodePhrase,
		Children: []*collaborators.QueryNode{
			{Kind: collaborators.NodeToken, Token: "a"},
			{Kind: collaborators.NodeToken, Token: "b"},
		},
	}
	got, err := r.ExpandTree("upper-dup", root)
	if err != nil {
		t.Fatalf("ExpandTree: %v", err)
	}
	if got.Kind != collaborators.NodePhrase || len(got.Children) != 2 {
		t.Fatalf("expected phrase shape preserved, got %+v", got)
	}
	for _, c := range got.Children {
		if c.Kind != collaborators.NodeUnion {
			t.Fatalf("expected each phrase child expanded into a union, got %+v", c)
		}
	}
}

func TestLoadPluginMissingFile(t *testing.T) {
	r := New()
	if err := r.LoadPlugin("/nonexistent/path.so"); err == nil {
		t.Fatal("expected error opening a nonexistent plugin")
	}
}
