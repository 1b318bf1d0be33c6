package pipeline

import (
	"errors"
	"testing"

	"ftaggregate/internal/aggregate"
)

func TestBuildFilterAfterGroupUnresolvedFieldErrors(t *testing.T) {
	req, err := aggregate.Parser{}.Parse("idx", "*", []string{
		"GROUPBY", "1", "@country",
		"REDUCE", "COUNT", "0", "AS", "n",
		"FILTER", "@price > 1",
	})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	b := Builder{Reader: testReader(), Store: testStore()}
	_, err = b.Build(req)
	if err == nil {
		t.Fatal("expected a no-property error: GROUPBY drops fields it did not carry forward")
	}
	if !errors.Is(err, aggregate.ErrNoProperty) {
		t.Fatalf("expected ErrNoProperty, got %v", err)
	}
}

func TestBuildSortByAfterGroupOnReducerAlias(t *testing.T) {
	req, err := aggregate.Parser{}.Parse("idx", "*", []string{
		"GROUPBY", "1", "@country",
		"REDUCE", "COUNT", "0", "AS", "n",
		"SORTBY", "2", "@n", "DESC",
	})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	b := Builder{Reader: testReader(), Store: testStore()}
	proc, err := b.Build(req)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	rows := drain(t, proc)
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}
}
