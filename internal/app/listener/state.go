// Package listener classifies player status transitions into play/skip
// outcomes for the track that was previously playing.
package listener

import "time"

// Transport represents the player's transport state.
type Transport int

const (
	TransportStopped Transport = iota // No track loaded or explicit stop
	TransportPlaying                  // Track is playing
	TransportPaused                   // Track is paused
)

// String returns the string representation of the transport state.
func (t Transport) String() string {
	switch t {
	case TransportStopped:
		return "stopped"
	case TransportPlaying:
		return "playing"
	case TransportPaused:
		return "paused"
	default:
		return "unknown"
	}
}

// TrackRef identifies a track by its queue slot in the player, not by its
// file path. It stays stable while the track remains queued and becomes
// meaningless once the entry is removed (consume mode). Comparisons are by
// identity; the path is resolved separately and only when needed.
type TrackRef int

// NoTrack is the absent-track sentinel.
const NoTrack TrackRef = -1

// Valid reports whether the reference points at a queued track.
func (r TrackRef) Valid() bool {
	return r >= 0
}

// Snapshot is an immutable view of the player at one instant, as reported
// by the status source.
type Snapshot struct {
	Transport Transport
	Current   TrackRef // NoTrack when nothing is loaded
	Next      TrackRef // NoTrack at the end of the queue
	Elapsed   time.Duration
	Duration  time.Duration // 0 when the player does not know (streams)
	Repeat    bool
	Single    bool
	Consume   bool
}
