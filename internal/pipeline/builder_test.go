package pipeline

import (
	"context"
	"errors"
	"testing"

	"ftaggregate/internal/aggregate"
	"ftaggregate/internal/collaborators"
	"ftaggregate/internal/rlookup"
)

func drain(t *testing.T, p Processor) []Row {
	t.Helper()
	var rows []Row
	ctx := context.Background()
	for {
		row, outcome, err := p.Next(ctx)
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		if outcome == OutcomeEOF {
			return rows
		}
		if outcome == OutcomePaused {
			continue
		}
		rows = append(rows, row)
	}
}

func testStore() collaborators.MapDocStore {
	return collaborators.MapDocStore{
		"1": {ID: "1", Fields: map[string]string{"country": "us", "price": "10"}},
		"2": {ID: "2", Fields: map[string]string{"country": "us", "price": "20"}},
		"3": {ID: "3", Fields: map[string]string{"country": "fr", "price": "5"}},
	}
}

func testReader() *collaborators.SliceIndexReader {
	return collaborators.NewSliceIndexReader([]collaborators.ScoredID{
		{ID: "1", Score: 1}, {ID: "2", Score: 1}, {ID: "3", Score: 1},
	})
}

func TestBuildGroupByCountSum(t *testing.T) {
	req, err := aggregate.Parser{}.Parse("idx", "*", []string{
		"GROUPBY", "1", "@country",
		"REDUCE", "COUNT", "0", "AS", "n",
		"REDUCE", "SUM", "1", "@price", "AS", "total",
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
		t.Fatalf("got %d groups, want 2", len(rows))
	}
	byCountry := map[string]Row{}
	for _, r := range rows {
		byCountry[r.Fields["country"]] = r
	}
	if byCountry["us"].Fields["n"] != "2" || byCountry["us"].Fields["total"] != "30" {
		t.Fatalf("us group: %+v", byCountry["us"])
	}
	if byCountry["fr"].Fields["n"] != "1" || byCountry["fr"].Fields["total"] != "5" {
		t.Fatalf("fr group: %+v", byCountry["fr"])
	}
}

func TestBuildSortByLimit(t *testing.T) {
	req, err := aggregate.Parser{}.Parse("idx", "*", []string{
		"SORTBY", "2", "@price", "DESC",
		"LIMIT", "0", "2",
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
	if rows[0].Fields["price"] != "20" || rows[1].Fields["price"] != "10" {
		t.Fatalf("got %v, %v; want 20, 10 (descending, top 2)", rows[0].Fields["price"], rows[1].Fields["price"])
	}
}

func TestBuildApplyFilter(t *testing.T) {
	req, err := aggregate.Parser{}.Parse("idx", "*", []string{
		"APPLY", "@price * 2", "AS", "doubled",
		"FILTER", "@doubled > 15",
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
		t.Fatalf("got %d rows, want 2 (price 10 and 20 double past 15)", len(rows))
	}
	for _, r := range rows {
		if r.Fields["doubled"] == "" {
			t.Fatalf("expected doubled field set: %+v", r)
		}
	}
}

func TestBuildLoadAfterGroupRejected(t *testing.T) {
	req, err := aggregate.Parser{}.Parse("idx", "*", []string{
		"GROUPBY", "1", "@country", "REDUCE", "COUNT", "0",
		"LOAD", "1", "@price",
	})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	b := Builder{Reader: testReader(), Store: testStore()}
	_, err = b.Build(req)
	if err == nil {
		t.Fatal("expected an error: LOAD after GROUPBY is not legal against the root lookup")
	}
	if !errors.Is(err, aggregate.ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestBuildDistributeIsNoOp(t *testing.T) {
	req, err := aggregate.Parser{}.Parse("idx", "*", nil)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	req.Plan.Append(&rlookup.DistributeStep{})
	b := Builder{Reader: testReader(), Store: testStore()}
	proc, err := b.Build(req)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	rows := drain(t, proc)
	if len(rows) != 3 {
		t.Fatalf("got %d rows, want 3 (Distribute must not filter/transform)", len(rows))
	}
}
