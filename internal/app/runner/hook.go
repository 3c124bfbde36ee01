package runner

import (
	"context"
	"os/exec"

	"github.com/cockroachdb/errors"
)

// execHook runs a user command synchronously with a deadline so a wedged
// hook cannot stall event handling forever.
func execHook(ctx context.Context, argv []string) error {
	if len(argv) == 0 {
		return nil
	}
	hctx, cancel := context.WithTimeout(ctx, hookTimeout)
	defer cancel()

	cmd := exec.CommandContext(hctx, argv[0], argv[1:]...)
	if out, err := cmd.CombinedOutput(); err != nil {
		return errors.Wrapf(err, "hook output: %s", string(out))
	}
	return nil
}
