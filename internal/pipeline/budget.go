package pipeline

import (
	"context"
	"time"

	"golang.org/x/time/rate"

	"ftaggregate/internal/aggerr"
)

// Budgeted wraps a Processor with a cooperative timeout: once the request's
// deadline passes, Next stops pulling from Upstream and returns
// aggerr.ErrTimeout instead. Checking time.Now() on every single row would
// be wasted work for the common case of a query that finishes in
// microseconds, so the check itself is throttled by a token-bucket limiter
// (one permit refilled every tickInterval) rather than performed on every
// call.
type Budgeted struct {
	Upstream Processor
	Deadline time.Time
	limiter  *rate.Limiter
}

// NewBudgeted returns proc unchanged if timeoutMS is 0 (no explicit
// deadline); otherwise wraps it with a deadline tickInterval apart checks.
func NewBudgeted(proc Processor, timeoutMS int, tickInterval time.Duration) Processor {
	if timeoutMS <= 0 {
		return proc
	}
	if tickInterval <= 0 {
		tickInterval = 5 * time.Millisecond
	}
	return &Budgeted{
		Upstream: proc,
		Deadline: time.Now().Add(time.Duration(timeoutMS) * time.Millisecond),
		limiter:  rate.NewLimiter(rate.Every(tickInterval), 1),
	}
}

func (b *Budgeted) Next(ctx context.Context) (Row, Outcome, error) {
	if b.limiter.Allow() && time.Now().After(b.Deadline) {
		return Row{}, OutcomeEOF, aggerr.New(aggerr.KindTimeout, "aggregation request exceeded its timeout")
	}
	return b.Upstream.Next(ctx)
}
