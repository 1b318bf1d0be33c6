package gc

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

type fakeTarget struct {
	id        string
	scanCalls atomic.Int32
	applied   atomic.Bool
	scanErr   error
	applyErr  error
	result    ScanResult
}

func (f *fakeTarget) UniqueID() string { return f.id }

func (f *fakeTarget) Scan(_ context.Context) (ScanResult, error) {
	f.scanCalls.Add(1)
	if f.scanErr != nil {
		return ScanResult{}, f.scanErr
	}
	return f.result, nil
}

func (f *fakeTarget) Apply(_ context.Context, result ScanResult) error {
	if f.applyErr != nil {
		return f.applyErr
	}
	f.applied.Store(true)
	f.result = result
	return nil
}

func TestRunCycleHappyPath(t *testing.T) {
	target := &fakeTarget{
		id: "idx1",
		result: ScanResult{
			Info:     IndexInfo{NBytesCollected: 1024, NDocsCollected: 3},
			Repaired: []RepairedBlock{{OldIndex: 0, NewIndex: 0, Payload: []byte("x")}},
		},
	}
	g := NewForkGC(target)

	if err := g.RunCycle(context.Background()); err != nil {
		t.Fatalf("RunCycle: %v", err)
	}
	if !target.applied.Load() {
		t.Fatal("expected Apply to have been called")
	}
	if g.State() != StateIdle {
		t.Fatalf("expected state idle after cycle, got %v", g.State())
	}
	stats := g.Stats()
	if stats.NumCycles != 1 {
		t.Fatalf("NumCycles = %d, want 1", stats.NumCycles)
	}
	if stats.TotalCollectedBytes != 1024 {
		t.Fatalf("TotalCollectedBytes = %d, want 1024", stats.TotalCollectedBytes)
	}
}

func TestRunCycleScanError(t *testing.T) {
	target := &fakeTarget{id: "idx1", scanErr: errors.New("boom")}
	g := NewForkGC(target)

	err := g.RunCycle(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}
	var cycleErr *CycleError
	if !errors.As(err, &cycleErr) {
		t.Fatalf("expected *CycleError, got %T: %v", err, err)
	}
	if cycleErr.Kind != ErrorChild {
		t.Fatalf("Kind = %v, want ErrorChild", cycleErr.Kind)
	}
	if target.applied.Load() {
		t.Fatal("Apply should not run after a scan failure")
	}
	if g.State() != StateIdle {
		t.Fatalf("expected state idle after failed cycle, got %v", g.State())
	}
}

func TestRunCycleApplyError(t *testing.T) {
	target := &fakeTarget{id: "idx1", applyErr: errors.New("apply failed")}
	g := NewForkGC(target)

	err := g.RunCycle(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}
	var cycleErr *CycleError
	if !errors.As(err, &cycleErr) {
		t.Fatalf("expected *CycleError, got %T: %v", err, err)
	}
	if cycleErr.Kind != ErrorParent {
		t.Fatalf("Kind = %v, want ErrorParent", cycleErr.Kind)
	}
}

func TestWaitAtForkBlocksUntilCleared(t *testing.T) {
	target := &fakeTarget{id: "idx1"}
	g := NewForkGC(target)
	g.PollInterval = time.Millisecond
	g.WaitAtFork(true)

	done := make(chan error, 1)
	go func() { done <- g.RunCycle(context.Background()) }()

	time.Sleep(20 * time.Millisecond)
	if target.scanCalls.Load() != 0 {
		t.Fatal("scan should not have run while paused at fork")
	}
	if g.State() != StateWaitFork {
		t.Fatalf("expected state wait-fork, got %v", g.State())
	}

	g.WaitAtFork(false)
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("RunCycle: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("RunCycle did not unblock after clearing pause")
	}
	if target.scanCalls.Load() != 1 {
		t.Fatalf("scan calls = %d, want 1", target.scanCalls.Load())
	}
}

func TestWaitAtApplyBlocksUntilCleared(t *testing.T) {
	target := &fakeTarget{id: "idx1"}
	g := NewForkGC(target)
	g.PollInterval = time.Millisecond
	g.WaitAtApply(true)

	done := make(chan error, 1)
	go func() { done <- g.RunCycle(context.Background()) }()

	time.Sleep(20 * time.Millisecond)
	if target.applied.Load() {
		t.Fatal("apply should not have run while paused at apply")
	}
	if g.State() != StateWaitApply {
		t.Fatalf("expected state wait-apply, got %v", g.State())
	}

	g.WaitClear()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("RunCycle: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("RunCycle did not unblock after WaitClear")
	}
	if !target.applied.Load() {
		t.Fatal("expected apply to run after clearing pause")
	}
}

func TestRunCycleRespectsContextCancellation(t *testing.T) {
	target := &fakeTarget{id: "idx1"}
	g := NewForkGC(target)
	g.PollInterval = time.Millisecond
	g.WaitAtFork(true)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- g.RunCycle(ctx) }()

	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err == nil {
			t.Fatal("expected context-cancellation error")
		}
	case <-time.After(time.Second):
		t.Fatal("RunCycle did not return after context cancellation")
	}
}
