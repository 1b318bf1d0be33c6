// Command ftaggregate runs aggregation queries against an in-memory
// reference index and serves as the re-exec target for ForkGC's child
// process (see the hidden gc-child subcommand).
//
// Logging:
//   - Base logger is created here with output format and level
//   - Logger is passed to all components via dependency injection
//   - No global slog configuration (no slog.SetDefault)
package main

import (
	"log/slog"
	"os"

	"ftaggregate/internal/logging"

	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	baseHandler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})
	filterHandler := logging.NewComponentFilterHandler(baseHandler, slog.LevelInfo)
	logger := slog.New(filterHandler)

	root := &cobra.Command{
		Use:     "ftaggregate",
		Short:   "Run FT.AGGREGATE-style queries against an index",
		Version: version,
	}

	root.AddCommand(
		newRunCommand(logger),
		newGCChildCommand(),
		newGCCommand(logger),
	)

	if err := root.Execute(); err != nil {
		logger.Error("command failed", "error", err)
		os.Exit(1)
	}
}
