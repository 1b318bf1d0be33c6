package main

import (
	"fmt"
	"log/slog"
	"time"

	"ftaggregate/internal/gc"

	"github.com/spf13/cobra"
)

// demoBlocks seeds a gc.BlockTarget with a small synthetic block list so
// `ftaggregate gc <target>` has some garbage to collect without a real index
// behind it: three interior blocks, two of them carrying garbage, and a last
// block that also has garbage but (with --append-during-scan) grows between
// the scan and the apply, exercising BlockTarget's last-block reconciliation.
func demoBlocks() []gc.Block {
	return []gc.Block{
		{NumDocs: 10, Garbage: 3},
		{NumDocs: 8, Garbage: 1},
		{NumDocs: 6, Garbage: 0},
		{NumDocs: 4, Garbage: 2}, // last block
	}
}

func newGCCommand(logger *slog.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gc <target>",
		Short: "Run one ForkGC cycle against the demo block target",
		Args:  cobra.ExactArgs(1),
	}
	subprocess := cmd.Flags().Bool("subprocess", false, "run the scan in a re-exec'd child process")
	appendDuringScan := cmd.Flags().Bool("append-during-scan", false,
		"append a doc to the last block before the cycle applies, forcing its repair to be ignored")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		target := gc.NewBlockTarget(args[0], demoBlocks())
		gc.RegisterTarget(target.UniqueID(), target)

		g := gc.NewForkGC(target)
		g.UseSubprocess = *subprocess

		if *appendDuringScan {
			g.WaitAtApply(true)
		}
		done := make(chan error, 1)
		go func() { done <- g.RunCycle(cmd.Context()) }()
		if *appendDuringScan {
			for g.State() != gc.StateWaitApply && len(done) == 0 {
				time.Sleep(g.PollInterval)
			}
			target.AppendDoc()
			g.WaitClear()
		}

		if err := <-done; err != nil {
			return fmt.Errorf("gc cycle: %w", err)
		}

		stats := g.Stats()
		logger.Info("gc cycle complete",
			"target", target.UniqueID(),
			"bytesCollected", stats.TotalCollectedBytes,
			"cycles", stats.NumCycles,
			"lastRunMS", stats.LastRunTimeMS,
			"lastBlockIgnored", target.LastBlockIgnoredCount(),
		)
		return nil
	}
	return cmd
}
