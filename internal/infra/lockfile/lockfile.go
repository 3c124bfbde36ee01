// Package lockfile enforces the single-listener-instance rule with an
// advisory pid file in the user's runtime directory.
package lockfile

import (
	"os"
	"strconv"
	"strings"

	"github.com/adrg/xdg"
	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"
)

// Lock is a held advisory lock.
type Lock struct {
	path string
}

// Acquire takes the default single-instance lock for this program.
func Acquire() (*Lock, error) {
	path, err := xdg.RuntimeFile("mpdtally/mpdtally.lock")
	if err != nil {
		return nil, errors.Wrap(err, "failed to locate runtime directory")
	}
	return AcquireAt(path)
}

// AcquireAt takes the lock at an explicit path. A lock left behind by a
// dead process is broken; one held by a live process is an error.
func AcquireAt(path string) (*Lock, error) {
	for attempt := 0; attempt < 2; attempt++ {
		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if err == nil {
			_, werr := f.WriteString(strconv.Itoa(os.Getpid()) + "\n")
			if cerr := f.Close(); werr == nil {
				werr = cerr
			}
			if werr != nil {
				_ = os.Remove(path)
				return nil, errors.Wrap(werr, "failed to write lock file")
			}
			return &Lock{path: path}, nil
		}
		if !os.IsExist(err) {
			return nil, errors.Wrapf(err, "failed to create lock file %s", path)
		}

		pid, readErr := readPid(path)
		if readErr == nil && processAlive(pid) {
			return nil, errors.Newf("another listener instance is running (pid %d, lock %s)", pid, path)
		}
		// Unreadable pid or dead process: stale lock.
		zlog.Warn().Str("lock", path).Msg("breaking stale lock file")
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return nil, errors.Wrapf(err, "failed to remove stale lock file %s", path)
		}
	}
	return nil, errors.Newf("failed to acquire lock %s", path)
}

// Release drops the lock.
func (l *Lock) Release() error {
	if err := os.Remove(l.path); err != nil && !os.IsNotExist(err) {
		return errors.Wrapf(err, "failed to remove lock file %s", l.path)
	}
	return nil
}

func readPid(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(strings.TrimSpace(string(data)))
}
