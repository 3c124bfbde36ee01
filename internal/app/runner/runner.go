// Package runner drives the wait-classify-persist loop.
package runner

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/mpdtally/mpdtally/internal/app/listener"
	"github.com/mpdtally/mpdtally/internal/app/store"
	"github.com/mpdtally/mpdtally/internal/domain/stats"
	"github.com/mpdtally/mpdtally/internal/infra/notify"
)

// playerSubsystem is the only idle subsystem the loop reacts to.
const playerSubsystem = "player"

// hookTimeout caps how long a user hook may hold up the loop.
const hookTimeout = 10 * time.Second

// StatusSource is the player connection slice the loop needs.
type StatusSource interface {
	// NextEvent blocks until the player reports a changed subsystem.
	NextEvent(ctx context.Context) (string, error)
	// Snapshot fetches a fresh status snapshot.
	Snapshot() (listener.Snapshot, error)
	// Resolve maps a queue reference to a file path; found is false once
	// the entry left the queue.
	Resolve(ref listener.TrackRef) (path string, found bool, err error)
}

// Config holds the loop's side-effect settings.
type Config struct {
	NotifyDisabled bool
	NotifyTimeout  time.Duration
	NotifyIcon     string
	OnPlayed       []string // hook argv; path and counters appended
	OnSkipped      []string
}

// Runner owns the single event loop. Counter persistence takes priority
// over every side effect: notifications and hooks only run after a
// successful write and their failures never abort the loop.
type Runner struct {
	src      StatusSource
	store    store.Store
	machine  *listener.Machine
	notifier notify.Notifier
	cfg      Config

	// Path of the track the machine currently tracks, captured when it
	// became current. Consume mode removes finished tracks from the
	// queue before their outcome is classified; this cache is the
	// fallback when resolution misses.
	lastRef  listener.TrackRef
	lastPath string

	runHook func(ctx context.Context, argv []string) error
}

// New creates a runner. notifier may be nil when notifications are off.
func New(src StatusSource, st store.Store, notifier notify.Notifier, cfg Config) *Runner {
	return &Runner{
		src:      src,
		store:    st,
		machine:  listener.NewMachine(),
		notifier: notifier,
		cfg:      cfg,
		lastRef:  listener.NoTrack,
		runHook:  execHook,
	}
}

// Run blocks until ctx is cancelled or the player connection fails. A
// connection failure is fatal by design: every piece of loop state depends
// on a live feed.
func (r *Runner) Run(ctx context.Context) error {
	// Seed the machine from the first observable state so the first real
	// event transitions from context, not from scratch.
	snap, err := r.src.Snapshot()
	if err != nil {
		return errors.Wrap(err, "failed to read initial player status")
	}
	r.machine.HandleEvent(snap)
	r.cacheCurrentPath(snap)
	zlog.Info().Str("transport", snap.Transport.String()).Msg("listening for player events")

	for {
		subsystem, err := r.src.NextEvent(ctx)
		if err != nil {
			if ctx.Err() != nil {
				zlog.Info().Msg("shutting down")
				return nil
			}
			return errors.Wrap(err, "event wait failed")
		}
		if subsystem != playerSubsystem {
			zlog.Trace().Str("subsystem", subsystem).Msg("ignoring event")
			continue
		}

		// Re-fetch: the status that triggered the event may be stale.
		snap, err := r.src.Snapshot()
		if err != nil {
			return errors.Wrap(err, "status fetch failed")
		}

		outcome := r.machine.HandleEvent(snap)
		r.apply(ctx, outcome)
		r.cacheCurrentPath(snap)
	}
}

// apply persists a non-irrelevant outcome and fires the side effects.
func (r *Runner) apply(ctx context.Context, outcome listener.Outcome) {
	if outcome.Kind == listener.OutcomeIrrelevant {
		return
	}

	path, ok := r.trackPath(outcome.Track)
	if !ok {
		zlog.Warn().Int("track", int(outcome.Track)).Str("outcome", outcome.Kind.String()).
			Msg("track no longer resolvable; dropping outcome")
		return
	}

	st, err := r.store.Read(path)
	if err != nil {
		zlog.Error().Str("path", path).Err(err).Msg("failed to read statistics; outcome dropped")
		return
	}

	switch outcome.Kind {
	case listener.OutcomePlayed:
		st.Played()
	case listener.OutcomeSkipped:
		st.Skipped()
	}

	if err := r.store.Write(path, st); err != nil {
		zlog.Error().Str("path", path).Err(err).Msg("failed to write statistics; outcome dropped")
		return
	}

	zlog.Info().
		Str("outcome", outcome.Kind.String()).
		Str("path", path).
		Uint32("play_cnt", st.PlayCnt).
		Uint32("skip_cnt", st.SkipCnt).
		Msg("recorded outcome")

	r.sideEffects(ctx, outcome.Kind, path, st)
}

// trackPath resolves the outcome's track, falling back to the cached path
// when the queue entry is already gone (consume mode).
func (r *Runner) trackPath(ref listener.TrackRef) (string, bool) {
	path, found, err := r.src.Resolve(ref)
	if err != nil {
		zlog.Warn().Int("track", int(ref)).Err(err).Msg("queue lookup failed")
	}
	if found {
		return path, true
	}
	if ref == r.lastRef && r.lastPath != "" {
		zlog.Debug().Int("track", int(ref)).Str("path", r.lastPath).
			Msg("resolved track from cached path")
		return r.lastPath, true
	}
	return "", false
}

// cacheCurrentPath remembers the current track's path while it is still
// resolvable.
func (r *Runner) cacheCurrentPath(snap listener.Snapshot) {
	current := r.machine.Current()
	if !current.Valid() {
		r.lastRef = listener.NoTrack
		r.lastPath = ""
		return
	}
	if current == r.lastRef && r.lastPath != "" {
		return
	}
	path, found, err := r.src.Resolve(current)
	if err != nil || !found {
		r.lastRef = listener.NoTrack
		r.lastPath = ""
		return
	}
	r.lastRef = current
	r.lastPath = path
}

// sideEffects delivers the notification and runs the configured hook.
// Both are best-effort.
func (r *Runner) sideEffects(ctx context.Context, kind listener.OutcomeKind, path string, st stats.Statistics) {
	if r.notifier != nil && !r.cfg.NotifyDisabled {
		title := "Played"
		if kind == listener.OutcomeSkipped {
			title = "Skipped"
		}
		err := r.notifier.Notify(notify.Notification{
			Title:   title + ": " + filepath.Base(path),
			Body:    fmt.Sprintf("%d plays, %d skips", st.PlayCnt, st.SkipCnt),
			Icon:    r.cfg.NotifyIcon,
			Timeout: int32(r.cfg.NotifyTimeout / time.Millisecond),
			Urgency: notify.UrgencyLow,
		})
		if err != nil {
			zlog.Warn().Err(err).Msg("failed to show notification")
		}
	}

	hook := r.cfg.OnPlayed
	if kind == listener.OutcomeSkipped {
		hook = r.cfg.OnSkipped
	}
	if len(hook) == 0 {
		return
	}
	argv := append(append([]string{}, hook...),
		path,
		fmt.Sprintf("%d", st.PlayCnt),
		fmt.Sprintf("%d", st.SkipCnt),
	)
	if err := r.runHook(ctx, argv); err != nil {
		zlog.Warn().Strs("argv", argv).Err(err).Msg("outcome hook failed")
	}
}
