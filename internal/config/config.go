// Package config persists the runtime tunables that govern ForkGC
// behavior: the retry-interval ceiling, the cursor MAXIDLE ceiling, and
// the GC cycle interval. It is a much smaller surface than a general
// system config store — this module has no receivers, routes, or
// multi-component topology to describe, only the knobs internal/gc and
// internal/aggregate need at runtime.
package config

import "context"

// Store persists and loads GC/cursor tunables.
type Store interface {
	// Load reads the configuration. Returns Default() if none has been saved.
	Load(ctx context.Context) (Config, error)

	// Save persists the configuration.
	Save(ctx context.Context, cfg Config) error
}

// Config describes the tunables governing cursor lifetime and the GC cycle.
type Config struct {
	// RetryIntervalCeilingMS is the ceiling on the wait before a failed
	// fork/apply cycle is retried. ForkGC does not read it and does not
	// retry a failed cycle itself.
	RetryIntervalCeilingMS int

	// MaxIdleCeilingMS bounds the MAXIDLE a WITHCURSOR request may request;
	// requests above the ceiling are clamped down to it, not rejected. The
	// aggregate parser applies the Default() value.
	MaxIdleCeilingMS int

	// CycleIntervalMS is the interval between GC cycles. The gc Scheduler is
	// driven by a cron expression and does not read this field.
	CycleIntervalMS int
}

// Default returns the tunables this module ships with absent any stored
// override.
func Default() Config {
	return Config{
		RetryIntervalCeilingMS: 60_000,
		MaxIdleCeilingMS:       300_000,
		CycleIntervalMS:        30_000,
	}
}
