//go:build !unix

package lockfile

import "os"

// Without the null-signal probe the best available check is whether the
// pid can be looked up at all; err on the side of breaking the lock.
func processAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	p, err := os.FindProcess(pid)
	return err == nil && p != nil
}
