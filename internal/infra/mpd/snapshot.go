package mpd

import (
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	gompd "github.com/fhs/gompd/v2/mpd"

	"github.com/mpdtally/mpdtally/internal/app/listener"
)

// Snapshot fetches a fresh status snapshot. Always call this after an idle
// wake-up instead of reusing earlier state; the status that caused the
// event may already have been superseded.
func (c *Client) Snapshot() (listener.Snapshot, error) {
	attrs, err := c.conn.Status()
	if err != nil {
		return listener.Snapshot{}, errors.Wrap(err, "failed to fetch player status")
	}
	return parseSnapshot(attrs), nil
}

// parseSnapshot maps raw status attributes onto the classifier's snapshot.
// Absent or unparseable fields degrade to their absent values; the
// classifier decides what is an invariant violation, not the transport.
func parseSnapshot(attrs gompd.Attrs) listener.Snapshot {
	s := listener.Snapshot{
		Current: parseRef(attrs["songid"]),
		Next:    parseRef(attrs["nextsongid"]),
		Elapsed: parseSeconds(attrs["elapsed"]),
		Repeat:  attrs["repeat"] == "1",
		Consume: attrs["consume"] == "1" || attrs["consume"] == "oneshot",
	}

	switch attrs["state"] {
	case "play":
		s.Transport = listener.TransportPlaying
	case "pause":
		s.Transport = listener.TransportPaused
	default:
		s.Transport = listener.TransportStopped
	}

	// single=oneshot clears itself after the track, but behaves like
	// single for the transition being classified.
	s.Single = attrs["single"] == "1" || attrs["single"] == "oneshot"

	s.Duration = parseSeconds(attrs["duration"])
	if s.Duration == 0 {
		// Pre-0.20 daemons report "time: elapsed:total" instead.
		if _, total, ok := strings.Cut(attrs["time"], ":"); ok {
			s.Duration = parseSeconds(total)
		}
	}

	return s
}

func parseRef(raw string) listener.TrackRef {
	if raw == "" {
		return listener.NoTrack
	}
	id, err := strconv.Atoi(raw)
	if err != nil || id < 0 {
		return listener.NoTrack
	}
	return listener.TrackRef(id)
}

func parseSeconds(raw string) time.Duration {
	if raw == "" {
		return 0
	}
	secs, err := strconv.ParseFloat(raw, 64)
	if err != nil || secs < 0 {
		return 0
	}
	return time.Duration(secs * float64(time.Second))
}
