package mpd

import (
	"testing"
	"time"

	gompd "github.com/fhs/gompd/v2/mpd"
	"github.com/stretchr/testify/assert"

	"github.com/mpdtally/mpdtally/internal/app/listener"
)

func TestParseSnapshot(t *testing.T) {
	tests := []struct {
		name  string
		attrs gompd.Attrs
		want  listener.Snapshot
	}{
		{
			name: "playing",
			attrs: gompd.Attrs{
				"state":      "play",
				"songid":     "12",
				"nextsongid": "13",
				"elapsed":    "63.377",
				"duration":   "181.204",
				"repeat":     "0",
				"single":     "0",
				"consume":    "0",
			},
			want: listener.Snapshot{
				Transport: listener.TransportPlaying,
				Current:   listener.TrackRef(12),
				Next:      listener.TrackRef(13),
				Elapsed:   63377 * time.Millisecond,
				Duration:  181204 * time.Millisecond,
			},
		},
		{
			name:  "stopped with empty queue",
			attrs: gompd.Attrs{"state": "stop"},
			want: listener.Snapshot{
				Transport: listener.TransportStopped,
				Current:   listener.NoTrack,
				Next:      listener.NoTrack,
			},
		},
		{
			name: "paused last track has no next",
			attrs: gompd.Attrs{
				"state":    "pause",
				"songid":   "4",
				"elapsed":  "10",
				"duration": "20",
			},
			want: listener.Snapshot{
				Transport: listener.TransportPaused,
				Current:   listener.TrackRef(4),
				Next:      listener.NoTrack,
				Elapsed:   10 * time.Second,
				Duration:  20 * time.Second,
			},
		},
		{
			name: "oneshot single and consume count as set",
			attrs: gompd.Attrs{
				"state":   "play",
				"songid":  "1",
				"single":  "oneshot",
				"consume": "oneshot",
				"repeat":  "1",
			},
			want: listener.Snapshot{
				Transport: listener.TransportPlaying,
				Current:   listener.TrackRef(1),
				Next:      listener.NoTrack,
				Single:    true,
				Consume:   true,
				Repeat:    true,
			},
		},
		{
			name: "legacy time field supplies duration",
			attrs: gompd.Attrs{
				"state":  "play",
				"songid": "2",
				"time":   "63:181",
			},
			want: listener.Snapshot{
				Transport: listener.TransportPlaying,
				Current:   listener.TrackRef(2),
				Next:      listener.NoTrack,
				Duration:  181 * time.Second,
			},
		},
		{
			name: "garbage ids degrade to absent",
			attrs: gompd.Attrs{
				"state":      "play",
				"songid":     "banana",
				"nextsongid": "-3",
			},
			want: listener.Snapshot{
				Transport: listener.TransportPlaying,
				Current:   listener.NoTrack,
				Next:      listener.NoTrack,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, parseSnapshot(tt.attrs))
		})
	}
}
