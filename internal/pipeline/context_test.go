package pipeline

import (
	"errors"
	"testing"

	"ftaggregate/internal/aggregate"
	"ftaggregate/internal/collaborators"
	"ftaggregate/internal/extregistry"
)

func TestApplyContextBindsASTAndIterator(t *testing.T) {
	req, err := aggregate.Parser{}.Parse("idx", "hello", nil)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	reader := testReader()
	if err := ApplyContext(req, collaborators.StubParser{}, nil, reader); err != nil {
		t.Fatalf("ApplyContext: %v", err)
	}
	if req.AST == nil {
		t.Fatal("expected AST to be set")
	}
	if req.Iterator != reader {
		t.Fatal("expected Iterator to be bound to the given reader")
	}
}

func TestApplyContextRejectsUnknownLanguage(t *testing.T) {
	req, err := aggregate.Parser{}.Parse("idx", "*", []string{"LANGUAGE", "klingon"})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	err = ApplyContext(req, collaborators.StubParser{}, nil, testReader())
	if !errors.Is(err, aggregate.ErrNoLanguage) {
		t.Fatalf("expected ErrNoLanguage, got %v", err)
	}
}

func TestApplyContextExpandsQueryViaRegistry(t *testing.T) {
	req, err := aggregate.Parser{}.Parse("idx", "cat", []string{"EXPANDER", "plural"})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	reg := extregistry.New()
	if err := reg.RegisterExpander("plural", func(ctx *extregistry.ExpansionContext, token string) error {
		ctx.ExpandToken(token + "s")
		return nil
	}); err != nil {
		t.Fatalf("RegisterExpander: %v", err)
	}
	if err := ApplyContext(req, collaborators.StubParser{}, reg, testReader()); err != nil {
		t.Fatalf("ApplyContext: %v", err)
	}
	if req.AST.Kind != collaborators.NodeUnion {
		t.Fatalf("expected the expander's union-wrap to produce a union node, got %v", req.AST.Kind)
	}
	if len(req.AST.Children) != 2 {
		t.Fatalf("expected the original token plus one expansion, got %d children", len(req.AST.Children))
	}
}

func TestApplyContextExpanderWithoutRegistryErrors(t *testing.T) {
	req, err := aggregate.Parser{}.Parse("idx", "cat", []string{"EXPANDER", "plural"})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	err = ApplyContext(req, collaborators.StubParser{}, nil, testReader())
	if !errors.Is(err, aggregate.ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
}
