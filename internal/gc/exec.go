package gc

import (
	"context"
	"os/exec"
)

func newChildCmd(ctx context.Context, exe string, args ...string) *exec.Cmd {
	return exec.CommandContext(ctx, exe, args...)
}
