package main

import (
	"os"

	"ftaggregate/internal/gc"

	"github.com/spf13/cobra"
)

// newGCChildCommand returns the hidden subcommand ForkGC's parent re-execs
// into: `ftaggregate gc-child <target>`. It is never invoked directly by a
// user; gc.spawnChild constructs this exact argv.
func newGCChildCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:    gc.ChildCommandName + " <target>",
		Hidden: true,
		Args:   cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			gc.RegisterTarget(args[0], gc.NewBlockTarget(args[0], demoBlocks()))
			return gc.RunChild(cmd.Context(), args[0], os.Stdout)
		},
	}
	return cmd
}
