package gc

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// ForkGC drives one index's collection cycle through the state machine
// fork_gc.h describes: idle, wait-fork, scanning, wait-apply, applying.
// Each cycle scans a snapshot (in a re-exec'd child process, or in-process
// when UseSubprocess is false) and applies the resulting repair plan back
// against the live index.
type ForkGC struct {
	Target Target

	// UseSubprocess selects the re-exec'd child path (spawnChild) over
	// running Target.Scan directly in this process. Tests and simple
	// embeddings typically leave this false; a standalone ftaggregate
	// deployment sets it true so a scan crash cannot take the server down.
	UseSubprocess bool

	// PollInterval is how often RunCycle rechecks pause flags while
	// blocked in StateWaitFork or StateWaitApply.
	PollInterval time.Duration

	mu    sync.Mutex
	state State
	stats Stats
	pause atomic.Uint32
}

// NewForkGC constructs a ForkGC for the given target with sensible
// defaults. UseSubprocess is left false; set it explicitly for a deployment
// that wants child-process isolation.
func NewForkGC(target Target) *ForkGC {
	return &ForkGC{Target: target, PollInterval: 10 * time.Millisecond}
}

func (g *ForkGC) setState(s State) {
	g.mu.Lock()
	g.state = s
	g.mu.Unlock()
}

// State reports the cycle's current position in the state machine.
func (g *ForkGC) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// Stats returns a snapshot of the running totals.
func (g *ForkGC) Stats() Stats {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.stats
}

// WaitAtFork sets or clears PauseChild, holding the cycle in StateWaitFork
// before the child is invoked. Used by tests and diagnostics to observe the
// state machine mid-cycle.
func (g *ForkGC) WaitAtFork(pause bool) { g.setPause(PauseChild, pause) }

// WaitAtApply sets or clears PauseParent, holding the cycle in
// StateWaitApply before the parent applies the child's results.
func (g *ForkGC) WaitAtApply(pause bool) { g.setPause(PauseParent, pause) }

// WaitClear clears every pause flag, releasing a cycle blocked at any
// checkpoint.
func (g *ForkGC) WaitClear() { g.pause.Store(uint32(PauseNone)) }

func (g *ForkGC) setPause(flag PauseFlags, set bool) {
	for {
		cur := PauseFlags(g.pause.Load())
		next := cur
		if set {
			next |= flag
		} else {
			next &^= flag
		}
		if g.pause.CompareAndSwap(uint32(cur), uint32(next)) {
			return
		}
	}
}

func (g *ForkGC) paused(flag PauseFlags) bool {
	return PauseFlags(g.pause.Load())&flag != 0
}

// waitWhilePaused blocks until flag clears on g.pause or ctx is done.
func (g *ForkGC) waitWhilePaused(ctx context.Context, flag PauseFlags) error {
	if !g.paused(flag) {
		return nil
	}
	ticker := time.NewTicker(g.PollInterval)
	defer ticker.Stop()
	for g.paused(flag) {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
	return nil
}

// RunCycle performs one full scan-and-apply cycle, advancing through every
// state in order. It returns the first error encountered; on success the
// cycle ends back in StateIdle with Stats updated.
func (g *ForkGC) RunCycle(ctx context.Context) error {
	start := time.Now()
	defer func() {
		g.mu.Lock()
		g.stats.NumCycles++
		g.stats.LastRunTimeMS = time.Since(start).Milliseconds()
		g.stats.TotalMSRun += g.stats.LastRunTimeMS
		g.state = StateIdle
		g.mu.Unlock()
	}()

	g.setState(StateWaitFork)
	if err := g.waitWhilePaused(ctx, PauseChild); err != nil {
		return fmt.Errorf("gc: wait at fork: %w", err)
	}

	g.setState(StateScanning)
	result, err := g.scan(ctx)
	if err != nil {
		return childError(fmt.Errorf("scan %s: %w", g.Target.UniqueID(), err))
	}

	g.setState(StateWaitApply)
	if err := g.waitWhilePaused(ctx, PauseParent); err != nil {
		return fmt.Errorf("gc: wait at apply: %w", err)
	}

	g.setState(StateApplying)
	if err := g.Target.Apply(ctx, result); err != nil {
		g.mu.Lock()
		g.stats.BlocksDenied += uint64(len(result.Repaired))
		g.mu.Unlock()
		return parentError(fmt.Errorf("apply %s: %w", g.Target.UniqueID(), err))
	}

	g.mu.Lock()
	g.stats.TotalCollectedBytes += result.Info.NBytesCollected
	g.mu.Unlock()
	return nil
}

func (g *ForkGC) scan(ctx context.Context) (ScanResult, error) {
	if !g.UseSubprocess {
		return g.Target.Scan(ctx)
	}
	return spawnChild(ctx, g.Target.UniqueID())
}
