package pipeline

import (
	"context"
	"errors"
	"testing"

	"ftaggregate/internal/aggregate"
	"ftaggregate/internal/collaborators"
	"ftaggregate/internal/extregistry"
)

func TestScorerAppliesRegisteredFunction(t *testing.T) {
	reg := extregistry.New()
	if err := reg.RegisterScorer("constant", func(collaborators.Document, string) (float64, error) {
		return 7, nil
	}); err != nil {
		t.Fatalf("RegisterScorer: %v", err)
	}
	fn, err := reg.Scorer("constant")
	if err != nil {
		t.Fatalf("Scorer: %v", err)
	}

	upstream := &RootProcessor{Reader: testReader(), Store: testStore(), LoadFields: true}
	s := NewScorer(upstream, fn, "*")

	row, outcome, err := s.Next(context.Background())
	if err != nil || outcome != OutcomeRow {
		t.Fatalf("Next: row=%v outcome=%v err=%v", row, outcome, err)
	}
	if row.Score != 7 {
		t.Fatalf("got score %v, want 7", row.Score)
	}
}

func TestBuilderInsertsScorerByDefault(t *testing.T) {
	req, err := aggregate.Parser{}.Parse("idx", "*", nil)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	reg := extregistry.New()
	if err := reg.RegisterScorer(DefaultScorerName, func(collaborators.Document, string) (float64, error) {
		return 9, nil
	}); err != nil {
		t.Fatalf("RegisterScorer: %v", err)
	}
	b := Builder{Reader: testReader(), Store: testStore(), Registry: reg}
	proc, err := b.Build(req)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	rows := drain(t, proc)
	if len(rows) != 3 {
		t.Fatalf("got %d rows, want 3", len(rows))
	}
	for _, r := range rows {
		if r.Score != 9 {
			t.Fatalf("expected every row scored via the registered scorer, got %v", r.Score)
		}
	}
}

func TestBuilderSkipsScorerWhenSortbyPresent(t *testing.T) {
	req, err := aggregate.Parser{}.Parse("idx", "*", []string{"SORTBY", "2", "@price", "ASC"})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	reg := extregistry.New()
	calls := 0
	if err := reg.RegisterScorer(DefaultScorerName, func(collaborators.Document, string) (float64, error) {
		calls++
		return 1, nil
	}); err != nil {
		t.Fatalf("RegisterScorer: %v", err)
	}
	b := Builder{Reader: testReader(), Store: testStore(), Registry: reg}
	proc, err := b.Build(req)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	drain(t, proc)
	if calls != 0 {
		t.Fatalf("expected the scorer stage to be skipped when SORTBY scopes the grouping, got %d calls", calls)
	}
}

func TestBuilderUnknownScorerNameErrors(t *testing.T) {
	req, err := aggregate.Parser{}.Parse("idx", "*", []string{"SCORER", "nope"})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	b := Builder{Reader: testReader(), Store: testStore(), Registry: extregistry.New()}
	_, err = b.Build(req)
	if err == nil {
		t.Fatal("expected an error for an unregistered scorer name")
	}
	if !errors.Is(err, aggregate.ErrNoScorer) {
		t.Fatalf("expected ErrNoScorer, got %v", err)
	}
}
