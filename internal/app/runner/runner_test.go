package runner

import (
	"context"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mpdtally/mpdtally/internal/app/listener"
	"github.com/mpdtally/mpdtally/internal/domain/stats"
)

// step is one scripted idle wake-up.
type step struct {
	subsystem string
	before    func() // runs before the event is delivered
}

// fakeSource scripts the player: snapshots are consumed in order, one per
// initial seed or player event.
type fakeSource struct {
	snaps []listener.Snapshot
	steps []step
	paths map[listener.TrackRef]string
	gone  map[listener.TrackRef]bool
}

var errFeedExhausted = errors.New("feed exhausted")

func (f *fakeSource) NextEvent(ctx context.Context) (string, error) {
	if len(f.steps) == 0 {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", errFeedExhausted
	}
	s := f.steps[0]
	f.steps = f.steps[1:]
	if s.before != nil {
		s.before()
	}
	return s.subsystem, nil
}

func (f *fakeSource) Snapshot() (listener.Snapshot, error) {
	if len(f.snaps) == 0 {
		return listener.Snapshot{}, errors.New("no snapshot scripted")
	}
	s := f.snaps[0]
	f.snaps = f.snaps[1:]
	return s, nil
}

func (f *fakeSource) Resolve(ref listener.TrackRef) (string, bool, error) {
	if f.gone[ref] {
		return "", false, nil
	}
	p, ok := f.paths[ref]
	return p, ok, nil
}

// memStore is an in-memory statistics store.
type memStore struct {
	records  map[string]stats.Statistics
	writeErr error
}

func newMemStore() *memStore {
	return &memStore{records: make(map[string]stats.Statistics)}
}

func (m *memStore) Read(path string) (stats.Statistics, error) {
	return m.records[path], nil
}

func (m *memStore) Write(path string, st stats.Statistics) error {
	if m.writeErr != nil {
		return m.writeErr
	}
	m.records[path] = st
	return nil
}

func playingSnap(current, next listener.TrackRef, elapsed, duration time.Duration) listener.Snapshot {
	return listener.Snapshot{
		Transport: listener.TransportPlaying,
		Current:   current,
		Next:      next,
		Elapsed:   elapsed,
		Duration:  duration,
	}
}

func TestRunner_RecordsSkip(t *testing.T) {
	src := &fakeSource{
		snaps: []listener.Snapshot{
			// Track 1 has ~1000s left; the immediate advance is a skip.
			playingSnap(1, 2, 0, 1000*time.Second),
			playingSnap(2, listener.NoTrack, 0, 100*time.Second),
		},
		steps: []step{{subsystem: "player"}},
		paths: map[listener.TrackRef]string{1: "one.mp3", 2: "two.mp3"},
	}
	st := newMemStore()

	err := New(src, st, nil, Config{}).Run(context.Background())
	require.ErrorIs(t, err, errFeedExhausted)

	assert.Equal(t, stats.Statistics{SkipCnt: 1}, st.records["one.mp3"])
}

func TestRunner_RecordsPlay(t *testing.T) {
	src := &fakeSource{
		snaps: []listener.Snapshot{
			// Observed at the very end of track 1: no play time left,
			// so the advance counts as a completion.
			playingSnap(1, 2, time.Second, time.Second),
			playingSnap(2, listener.NoTrack, 0, 100*time.Second),
		},
		steps: []step{{subsystem: "player"}},
		paths: map[listener.TrackRef]string{1: "one.mp3", 2: "two.mp3"},
	}
	st := newMemStore()

	err := New(src, st, nil, Config{}).Run(context.Background())
	require.ErrorIs(t, err, errFeedExhausted)

	assert.Equal(t, stats.Statistics{PlayCnt: 1}, st.records["one.mp3"])
}

func TestRunner_IgnoresOtherSubsystems(t *testing.T) {
	src := &fakeSource{
		snaps: []listener.Snapshot{
			playingSnap(1, 2, 0, 1000*time.Second),
			// No further snapshots: non-player events must not fetch.
		},
		steps: []step{{subsystem: "mixer"}, {subsystem: "options"}},
		paths: map[listener.TrackRef]string{1: "one.mp3"},
	}
	st := newMemStore()

	err := New(src, st, nil, Config{}).Run(context.Background())
	require.ErrorIs(t, err, errFeedExhausted)
	assert.Empty(t, st.records)
}

func TestRunner_ConsumeModeFallsBackToCachedPath(t *testing.T) {
	src := &fakeSource{
		snaps: []listener.Snapshot{
			playingSnap(1, 2, 0, 1000*time.Second),
			playingSnap(2, listener.NoTrack, 0, 100*time.Second),
		},
		paths: map[listener.TrackRef]string{1: "one.mp3", 2: "two.mp3"},
		gone:  map[listener.TrackRef]bool{},
	}
	// Consume mode removes track 1 from the queue before the outcome is
	// classified.
	src.steps = []step{{subsystem: "player", before: func() { src.gone[1] = true }}}
	st := newMemStore()

	err := New(src, st, nil, Config{}).Run(context.Background())
	require.ErrorIs(t, err, errFeedExhausted)

	assert.Equal(t, stats.Statistics{SkipCnt: 1}, st.records["one.mp3"])
}

func TestRunner_UnresolvableOutcomeIsDropped(t *testing.T) {
	src := &fakeSource{
		snaps: []listener.Snapshot{
			playingSnap(1, 2, 0, 1000*time.Second),
			playingSnap(2, listener.NoTrack, 0, 100*time.Second),
		},
		// Track 1 was never resolvable, so there is no cache to fall
		// back on either.
		paths: map[listener.TrackRef]string{2: "two.mp3"},
		steps: []step{{subsystem: "player"}},
	}
	st := newMemStore()

	err := New(src, st, nil, Config{}).Run(context.Background())
	require.ErrorIs(t, err, errFeedExhausted)
	assert.Empty(t, st.records)
}

func TestRunner_WriteFailureDoesNotAbortLoop(t *testing.T) {
	src := &fakeSource{
		snaps: []listener.Snapshot{
			playingSnap(1, 2, 0, 1000*time.Second),
			playingSnap(2, 3, 0, 1000*time.Second),
			playingSnap(3, listener.NoTrack, 0, 100*time.Second),
		},
		steps: []step{{subsystem: "player"}, {subsystem: "player"}},
		paths: map[listener.TrackRef]string{1: "one.mp3", 2: "two.mp3", 3: "three.mp3"},
	}
	st := newMemStore()
	st.writeErr = errors.New("disk full")

	err := New(src, st, nil, Config{}).Run(context.Background())
	// The loop survived both failed writes and only stopped when the
	// feed ran out.
	require.ErrorIs(t, err, errFeedExhausted)
}

func TestRunner_CancelledContextIsCleanShutdown(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	src := &fakeSource{
		snaps: []listener.Snapshot{playingSnap(1, 2, 0, 1000*time.Second)},
		paths: map[listener.TrackRef]string{1: "one.mp3"},
	}

	err := New(src, newMemStore(), nil, Config{}).Run(ctx)
	assert.NoError(t, err)
}

func TestRunner_HookReceivesPathAndCounts(t *testing.T) {
	src := &fakeSource{
		snaps: []listener.Snapshot{
			playingSnap(1, 2, 0, 1000*time.Second),
			playingSnap(2, listener.NoTrack, 0, 100*time.Second),
		},
		steps: []step{{subsystem: "player"}},
		paths: map[listener.TrackRef]string{1: "one.mp3", 2: "two.mp3"},
	}
	st := newMemStore()

	r := New(src, st, nil, Config{OnSkipped: []string{"/bin/hook", "--skipped"}})
	var got []string
	r.runHook = func(_ context.Context, argv []string) error {
		got = append([]string{}, argv...)
		return nil
	}

	err := r.Run(context.Background())
	require.ErrorIs(t, err, errFeedExhausted)
	assert.Equal(t, []string{"/bin/hook", "--skipped", "one.mp3", "0", "1"}, got)
}
