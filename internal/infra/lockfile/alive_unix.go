//go:build unix

package lockfile

import (
	"errors"
	"syscall"
)

// processAlive probes a pid with the null signal. EPERM still means the
// process exists, just owned by someone else.
func processAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	err := syscall.Kill(pid, 0)
	return err == nil || errors.Is(err, syscall.EPERM)
}
