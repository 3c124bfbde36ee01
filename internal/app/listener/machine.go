package listener

import (
	"time"

	zlog "github.com/rs/zerolog/log"
)

// completionSlack absorbs the positive skew between the elapsed time the
// player reports and the wall-clock interval this process measures: event
// delivery, the status round-trip and scheduling all land on the same side.
// Without it a track that played to the last sample is counted as skipped.
const completionSlack = time.Second

// phase is the variant tag of the machine's memory.
type phase int

const (
	phaseInvalid phase = iota // no usable prior context
	phasePlaying
	phasePaused
)

func (p phase) String() string {
	switch p {
	case phasePlaying:
		return "playing"
	case phasePaused:
		return "paused"
	default:
		return "invalid"
	}
}

// Machine consumes status snapshots one at a time and decides the fate of
// the track that was current before each snapshot. It is exclusively owned
// by the event loop; nothing here is safe for concurrent use.
type Machine struct {
	now func() time.Time

	phase   phase
	current TrackRef
	next    TrackRef

	// Playing phase only. remaining is the play time that was left when
	// startedAt was taken; the live elapsed time is recomputed from the
	// monotonic clock at comparison time, never stored.
	remaining    time.Duration
	hasRemaining bool
	startedAt    time.Time
}

// NewMachine returns a machine with no prior context; the first snapshot it
// sees seeds the state and always classifies as irrelevant.
func NewMachine() *Machine {
	return &Machine{now: time.Now, phase: phaseInvalid, current: NoTrack, next: NoTrack}
}

// NewMachineAt is NewMachine with an injected clock, for tests.
func NewMachineAt(now func() time.Time) *Machine {
	m := NewMachine()
	m.now = now
	return m
}

// HandleEvent classifies the transition from the remembered state to s and
// replaces the remembered state. Call it exactly once per wake-up, with a
// snapshot fetched after the wake-up (the status that triggered the event
// may already be stale by the time the event arrives).
func (m *Machine) HandleEvent(s Snapshot) Outcome {
	switch m.phase {
	case phasePlaying:
		return m.fromPlaying(s)
	case phasePaused:
		return m.fromPaused(s)
	default:
		m.enter(s)
		return Irrelevant
	}
}

func (m *Machine) fromPlaying(s Snapshot) Outcome {
	switch s.Transport {
	case TransportStopped:
		// Queue ran out or explicit stop: the prior track's fate is
		// ambiguous by construction.
		m.toInvalid()
		return Irrelevant

	case TransportPaused:
		if !s.Current.Valid() {
			return m.violation("pause with no current track", s)
		}
		prior := m.current
		completed := m.hasRemaining && m.sincePlayStart()+completionSlack > m.remaining
		m.toPaused(s)
		if completed {
			// Covers both the single-mode pause after a finished
			// track (advance looks like an ordinary one, only the
			// timing tells) and the last-track-in-queue case where
			// there is no next to compare against.
			return played(prior)
		}
		// User paused mid-track.
		return Irrelevant

	case TransportPlaying:
		if !s.Current.Valid() {
			return m.violation("playing with no current track", s)
		}
		prior, priorNext := m.current, m.next
		elapsed := m.sincePlayStart()
		var out Outcome
		switch {
		case s.Current == prior && s.Repeat && m.hasRemaining && elapsed+completionSlack >= m.remaining:
			// Repeat-one wrapped around: same track, but it did
			// finish once.
			out = played(prior)
		case priorNext.Valid() && s.Current == priorNext:
			switch {
			case !m.hasRemaining:
				// Unknown duration: completion is undecidable,
				// don't guess a skip.
				out = Irrelevant
			case elapsed+completionSlack >= m.remaining:
				out = played(prior)
			default:
				out = skipped(prior)
			}
		default:
			// Same track without repeat (a seek), or a jump to an
			// arbitrary queue position.
			out = Irrelevant
		}
		m.toPlaying(s)
		return out

	default:
		return m.violation("unknown transport", s)
	}
}

func (m *Machine) fromPaused(s Snapshot) Outcome {
	if s.Transport == TransportStopped {
		m.toInvalid()
		return Irrelevant
	}
	if !s.Current.Valid() {
		return m.violation("resume with no current track", s)
	}
	prior, priorNext := m.current, m.next
	m.toPlaying(s)
	if priorNext.Valid() && s.Current == priorNext && !s.Single {
		// Advanced out of pause: the paused track never finished. In
		// single mode the advance is the player parking on the next
		// track, not a user skip.
		return skipped(prior)
	}
	// Resume in place, or a sequence change while paused.
	return Irrelevant
}

// enter seeds the state from a snapshot when there is no prior context.
func (m *Machine) enter(s Snapshot) {
	switch s.Transport {
	case TransportPlaying:
		if !s.Current.Valid() {
			m.toInvalid()
			return
		}
		m.toPlaying(s)
	case TransportPaused:
		if !s.Current.Valid() {
			m.toInvalid()
			return
		}
		m.toPaused(s)
	default:
		m.toInvalid()
	}
}

func (m *Machine) toPlaying(s Snapshot) {
	m.phase = phasePlaying
	m.current = s.Current
	m.next = s.Next
	m.startedAt = m.now()
	if s.Duration > 0 {
		m.remaining = s.Duration - s.Elapsed
		if m.remaining < 0 {
			m.remaining = 0
		}
		m.hasRemaining = true
	} else {
		m.remaining = 0
		m.hasRemaining = false
	}
}

func (m *Machine) toPaused(s Snapshot) {
	m.phase = phasePaused
	m.current = s.Current
	m.next = s.Next
	m.remaining = 0
	m.hasRemaining = false
}

func (m *Machine) toInvalid() {
	m.phase = phaseInvalid
	m.current = NoTrack
	m.next = NoTrack
	m.remaining = 0
	m.hasRemaining = false
}

// sincePlayStart measures monotonic time since the current play phase began.
func (m *Machine) sincePlayStart() time.Duration {
	return m.now().Sub(m.startedAt)
}

// violation handles a snapshot that breaks the status source's contract for
// the branch reached. Continuing with partial information risks silently
// mis-attributing counts, so the state resets instead.
func (m *Machine) violation(msg string, s Snapshot) Outcome {
	zlog.Error().
		Str("state", m.phase.String()).
		Str("transport", s.Transport.String()).
		Int("current", int(s.Current)).
		Int("next", int(s.Next)).
		Msgf("status invariant violated: %s; resetting listener state", msg)
	m.toInvalid()
	return Irrelevant
}

// Current returns the track the machine believes is loaded, for the event
// loop's path cache. NoTrack outside the playing/paused phases.
func (m *Machine) Current() TrackRef {
	if m.phase == phaseInvalid {
		return NoTrack
	}
	return m.current
}
