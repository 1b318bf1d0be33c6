package collaborators

import (
	"context"
	"testing"
)

func TestMapDocStore(t *testing.T) {
	store := MapDocStore{"doc1": {ID: "doc1", Fields: map[string]string{"title": "hello"}}}
	d, ok, err := store.Load(context.Background(), "doc1")
	if err != nil || !ok || d.Fields["title"] != "hello" {
		t.Fatalf("got (%+v, %v, %v)", d, ok, err)
	}
	if _, ok, _ := store.Load(context.Background(), "missing"); ok {
		t.Fatal("expected miss")
	}
}

func TestSliceIndexReader(t *testing.T) {
	r := NewSliceIndexReader([]ScoredID{{ID: "a", Score: 1}, {ID: "b", Score: 0.5}})
	ctx := context.Background()
	first, ok, _ := r.Next(ctx)
	if !ok || first.ID != "a" {
		t.Fatalf("got %+v", first)
	}
	second, ok, _ := r.Next(ctx)
	if !ok || second.ID != "b" {
		t.Fatalf("got %+v", second)
	}
	if _, ok, _ := r.Next(ctx); ok {
		t.Fatal("expected exhausted reader")
	}
}

func TestStubParser(t *testing.T) {
	n, err := StubParser{}.Parse("hello world")
	if err != nil || n.Kind != NodeToken || n.Token != "hello world" {
		t.Fatalf("got (%+v, %v)", n, err)
	}
}
