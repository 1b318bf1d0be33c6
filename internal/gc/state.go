// Package gc implements component I: ForkGC, the background collector that
// reclaims space from stale/deleted inverted-index blocks by scanning a
// snapshot of the index in a child process and applying the repair plan it
// produces back in the parent. Grounded on
// original_source/fork_gc.h's ForkGC struct, FGCState/FGCPauseFlags enums,
// and its pipe wire protocol (Header/RepairedBlock/DeletedBlock/IndexInfo/
// Terminator).
//
// Go has no fork(2); a real OS fork would duplicate the whole process
// including any already-running goroutines, which does not translate. This
// package substitutes a re-exec'd child process (os/exec + os.Pipe, see
// child.go) that runs the same binary with a hidden subcommand, communicating
// with the parent over a pipe using the same message shapes fork_gc.h
// describes, msgpack-encoded instead of raw C structs.
package gc

import "fmt"

// State is the GC cycle's state machine position, per FGCState.
type State int

const (
	StateIdle State = iota
	StateWaitFork
	StateScanning
	StateWaitApply
	StateApplying
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateWaitFork:
		return "wait-fork"
	case StateScanning:
		return "scanning"
	case StateWaitApply:
		return "wait-apply"
	case StateApplying:
		return "applying"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// PauseFlags are the cooperative pause points external callers can set to
// hold the GC at a diagnostic checkpoint, per FGCPauseFlags.
type PauseFlags uint32

const (
	// PauseNone is the normal, unpaused state.
	PauseNone PauseFlags = 0
	// PauseChild prevents invoking the child; the cycle blocks in
	// StateWaitFork until this flag clears.
	PauseChild PauseFlags = 1 << 0
	// PauseParent prevents the parent from reading/applying the child's
	// results; the cycle blocks in StateWaitApply until this flag clears.
	PauseParent PauseFlags = 1 << 1
)

// Stats mirrors ForkGCStats: running totals reported for diagnostics.
type Stats struct {
	TotalCollectedBytes uint64
	NumCycles           uint64
	TotalMSRun          int64
	LastRunTimeMS       int64
	NumericNodesMissed  uint64
	BlocksDenied        uint64
}
