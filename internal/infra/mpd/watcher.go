package mpd

import (
	"context"

	"github.com/cockroachdb/errors"
	gompd "github.com/fhs/gompd/v2/mpd"
)

// ErrWatcherClosed reports that the idle connection went away; the event
// loop treats it as fatal since all of its state depends on a live feed.
var ErrWatcherClosed = errors.New("mpd idle connection closed")

// StartWatcher opens the dedicated idle connection. No subsystem filter is
// applied; the event loop drops everything but "player" itself, so a future
// consumer of other subsystems does not need a protocol change.
func (c *Client) StartWatcher() error {
	if c.watcher != nil {
		return nil
	}
	w, err := gompd.NewWatcher(c.cfg.Network, c.cfg.Address, c.cfg.Password)
	if err != nil {
		return errors.Wrap(err, "failed to start mpd idle watcher")
	}
	c.watcher = w
	return nil
}

// NextEvent blocks until the daemon reports a changed subsystem and returns
// its name. There is deliberately no timeout: an idle player is the normal
// quiescent state, not an error.
func (c *Client) NextEvent(ctx context.Context) (string, error) {
	if c.watcher == nil {
		return "", errors.New("watcher not started")
	}
	select {
	case subsystem, ok := <-c.watcher.Event:
		if !ok {
			return "", ErrWatcherClosed
		}
		return subsystem, nil
	case err, ok := <-c.watcher.Error:
		if !ok {
			return "", ErrWatcherClosed
		}
		return "", errors.Wrap(err, "mpd idle failed")
	case <-ctx.Done():
		return "", ctx.Err()
	}
}
