package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"ftaggregate/internal/aggerr"
)

func TestNewBudgetedZeroTimeoutIsNoop(t *testing.T) {
	inner := ProcessorFunc(func(_ context.Context) (Row, Outcome, error) {
		return Row{ID: "1"}, OutcomeRow, nil
	})
	proc := NewBudgeted(inner, 0, time.Millisecond)
	if _, ok := proc.(*Budgeted); ok {
		t.Fatal("expected NewBudgeted to return the inner processor unchanged when timeoutMS is 0")
	}
}

func TestBudgetedExpiresAfterDeadline(t *testing.T) {
	calls := 0
	inner := ProcessorFunc(func(_ context.Context) (Row, Outcome, error) {
		calls++
		return Row{ID: "row"}, OutcomeRow, nil
	})
	proc := NewBudgeted(inner, 1, time.Microsecond)

	time.Sleep(5 * time.Millisecond)

	_, outcome, err := proc.Next(context.Background())
	if outcome != OutcomeEOF {
		t.Fatalf("outcome = %v, want OutcomeEOF", outcome)
	}
	if !errors.Is(err, aggerr.ErrTimeout) {
		t.Fatalf("err = %v, want ErrTimeout", err)
	}
	if calls != 0 {
		t.Fatalf("expected upstream Next not to be called once the deadline passed, got %d calls", calls)
	}
}

func TestBudgetedPassesThroughBeforeDeadline(t *testing.T) {
	inner := ProcessorFunc(func(_ context.Context) (Row, Outcome, error) {
		return Row{ID: "row"}, OutcomeRow, nil
	})
	proc := NewBudgeted(inner, 60_000, time.Millisecond)

	row, outcome, err := proc.Next(context.Background())
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if outcome != OutcomeRow || row.ID != "row" {
		t.Fatalf("got row=%+v outcome=%v, want passthrough", row, outcome)
	}
}
