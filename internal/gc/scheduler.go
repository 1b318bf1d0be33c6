package gc

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"
)

// Scheduler periodically runs ForkGC cycles for a set of targets, one cron
// job per target. Grounded on the orchestrator package's Scheduler: a
// gocron.Scheduler wrapped with a name-indexed job table and mutex-guarded
// progress tracking, started eagerly at construction time.
type Scheduler struct {
	mu       sync.Mutex
	sched    gocron.Scheduler
	progress map[string]*CycleProgress
}

// CycleProgress tracks one target's most recent cycle outcome.
type CycleProgress struct {
	mu        sync.Mutex
	Running   bool
	LastError error
	LastRunAt time.Time
}

func (p *CycleProgress) snapshot() CycleProgress {
	p.mu.Lock()
	defer p.mu.Unlock()
	return CycleProgress{Running: p.Running, LastError: p.LastError, LastRunAt: p.LastRunAt}
}

// NewScheduler builds and starts a Scheduler capped at maxConcurrent
// simultaneous cycles, mirroring orchestrator.NewScheduler's use of
// gocron.WithLimitConcurrentJobs.
func NewScheduler(maxConcurrent int) (*Scheduler, error) {
	sched, err := gocron.NewScheduler(
		gocron.WithLimitConcurrentJobs(uint(maxConcurrent), gocron.LimitModeWait),
	)
	if err != nil {
		return nil, fmt.Errorf("gc: new scheduler: %w", err)
	}
	s := &Scheduler{sched: sched, progress: make(map[string]*CycleProgress)}
	s.sched.Start()
	return s, nil
}

// AddPeriodic registers a cron-scheduled recurring GC cycle for g, named
// after g.Target.UniqueID(). cronExpr is a six-field cron expression
// (seconds first), matching gocron.CronJob(expr, true).
func (s *Scheduler) AddPeriodic(cronExpr string, g *ForkGC) error {
	name := g.Target.UniqueID()
	progress := &CycleProgress{}

	s.mu.Lock()
	s.progress[name] = progress
	s.mu.Unlock()

	task := func(ctx context.Context) {
		progress.mu.Lock()
		progress.Running = true
		progress.mu.Unlock()

		err := g.RunCycle(ctx)

		progress.mu.Lock()
		progress.Running = false
		progress.LastError = err
		progress.LastRunAt = time.Now()
		progress.mu.Unlock()
	}

	_, err := s.sched.NewJob(
		gocron.CronJob(cronExpr, true),
		gocron.NewTask(task),
		gocron.WithName(name),
		gocron.WithEventListeners(
			gocron.AfterJobRunsWithError(func(_ uuid.UUID, _ string, jobErr error) {
				progress.mu.Lock()
				progress.LastError = jobErr
				progress.mu.Unlock()
			}),
		),
	)
	if err != nil {
		return fmt.Errorf("gc: schedule %s: %w", name, err)
	}
	return nil
}

// RunOnce schedules a single immediate, non-recurring cycle for g outside
// its periodic cadence, e.g. for a manual FT.GCFORCE-style trigger.
func (s *Scheduler) RunOnce(g *ForkGC) error {
	_, err := s.sched.NewJob(
		gocron.OneTimeJob(gocron.OneTimeJobStartImmediately()),
		gocron.NewTask(func(ctx context.Context) { _ = g.RunCycle(ctx) }),
		gocron.WithName(g.Target.UniqueID()+"-once"),
	)
	if err != nil {
		return fmt.Errorf("gc: run once %s: %w", g.Target.UniqueID(), err)
	}
	return nil
}

// Progress reports the last known cycle outcome for a named target.
func (s *Scheduler) Progress(name string) (CycleProgress, bool) {
	s.mu.Lock()
	p, ok := s.progress[name]
	s.mu.Unlock()
	if !ok {
		return CycleProgress{}, false
	}
	return p.snapshot(), true
}

// Stop shuts the underlying gocron scheduler down, waiting for in-flight
// jobs to finish.
func (s *Scheduler) Stop() error {
	return s.sched.Shutdown()
}
