package gc

import (
	"context"
	"fmt"
	"os"

	"golang.org/x/sync/errgroup"
)

// ChildCommandName is the hidden cobra subcommand cmd/ftaggregate registers
// to serve as the re-exec'd child: `ftaggregate gc-child <target-name>`.
// ForkGC never calls fork(2); it shells out to its own binary instead, which
// is the closest Go equivalent available without cgo.
const ChildCommandName = "gc-child"

// RunChild is the body of the gc-child subcommand. It looks targetName up in
// the registry, scans it, and writes the resulting frames to w (the
// subcommand wires this to os.Stdout). Any scan error is reported as an
// error frame rather than a nonzero process exit so the parent gets a clean
// explanation instead of having to interpret an exit code.
func RunChild(ctx context.Context, targetName string, w *os.File) error {
	target, err := LookupTarget(targetName)
	if err != nil {
		fw, ferr := newFrameWriter(w)
		if ferr != nil {
			return ferr
		}
		return fw.writeError(err.Error())
	}

	result, err := target.Scan(ctx)
	if err != nil {
		fw, ferr := newFrameWriter(w)
		if ferr != nil {
			return ferr
		}
		return fw.writeError(fmt.Sprintf("scan %s: %v", targetName, err))
	}
	result.UniqueID = target.UniqueID()
	return writeScanResult(w, result)
}

// spawnChild re-execs the current binary as `<argv0> gc-child <targetName>`,
// capturing its stdout as the read end of the reporting pipe. Grounded on
// the same re-exec idiom the fork_gc.h child uses for the real fork(2) path:
// a fresh process runs the scan in isolation from the parent's live state,
// and communicates the result back over a pipe.
func spawnChild(ctx context.Context, targetName string) (ScanResult, error) {
	exe, err := os.Executable()
	if err != nil {
		return ScanResult{}, fmt.Errorf("gc: resolve own executable: %w", err)
	}

	cmd := newChildCmd(ctx, exe, ChildCommandName, targetName)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return ScanResult{}, fmt.Errorf("gc: open child stdout pipe: %w", err)
	}
	cmd.Stderr = os.Stderr

	if err := cmd.Start(); err != nil {
		return ScanResult{}, fmt.Errorf("gc: start child: %w", err)
	}

	// Read and Wait must run concurrently: the child's stdout pipe has a
	// bounded kernel buffer, so a large scan report can fill it before the
	// child exits. Waiting for the process before draining the pipe risks
	// a deadlock (child blocked writing, parent blocked in Wait).
	var result ScanResult
	var g errgroup.Group
	g.Go(func() error {
		var err error
		result, err = readScanResult(stdout)
		return err
	})
	g.Go(cmd.Wait)
	if err := g.Wait(); err != nil {
		return ScanResult{}, fmt.Errorf("gc: spawn child: %w", err)
	}
	return result, nil
}
