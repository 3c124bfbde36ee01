package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/mpdtally/mpdtally/internal/app/runner"
	"github.com/mpdtally/mpdtally/internal/app/store"
	"github.com/mpdtally/mpdtally/internal/domain/stats"
	"github.com/mpdtally/mpdtally/internal/infra/config"
	"github.com/mpdtally/mpdtally/internal/infra/lockfile"
	"github.com/mpdtally/mpdtally/internal/infra/mpd"
	"github.com/mpdtally/mpdtally/internal/infra/notify"
)

// runListen starts the long-running event loop. Connection loss is fatal;
// the process exits non-zero and leaves restarting to the supervisor.
func runListen(cfg *config.Config, client *mpd.Client, st store.Store) error {
	lock, err := lockfile.Acquire()
	if err != nil {
		return err
	}
	defer func() {
		if err := lock.Release(); err != nil {
			zlog.Warn().Err(err).Msg("failed to release lock file")
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := client.StartWatcher(); err != nil {
		return err
	}

	var notifier notify.Notifier
	if !cfg.Notify.Disabled {
		notifier, err = notify.New()
		if err != nil {
			zlog.Warn().Err(err).Msg("desktop notifications unavailable")
		}
	}

	r := runner.New(client, st, notifier, runner.Config{
		NotifyDisabled: cfg.Notify.Disabled,
		NotifyTimeout:  time.Duration(cfg.Notify.TimeoutMs) * time.Millisecond,
		NotifyIcon:     cfg.Notify.Icon,
		OnPlayed:       cfg.Hooks.OnPlayed,
		OnSkipped:      cfg.Hooks.OnSkipped,
	})
	return r.Run(ctx)
}

// runGet prints statistics for the selected songs. Failures are per-song;
// the batch keeps going and the exit status reflects that something failed.
func runGet(client *mpd.Client, st store.Store) error {
	paths, err := collectGetPaths(client)
	if err != nil {
		return err
	}

	multi := len(paths) > 1
	failures := 0
	for _, path := range paths {
		rec, err := st.Read(path)
		if err != nil {
			zlog.Error().Str("path", path).Err(err).Msg("failed to read statistics")
			failures++
			continue
		}
		printRecord(path, rec, multi)
	}
	if failures > 0 {
		return errors.Newf("failed to read %d of %d songs", failures, len(paths))
	}
	return nil
}

func collectGetPaths(client *mpd.Client) ([]string, error) {
	switch {
	case *getCurrent:
		path, err := client.CurrentPath()
		if err != nil {
			return nil, err
		}
		if path == "" {
			return nil, errors.New("no song is currently loaded")
		}
		return []string{path}, nil

	case *getQueue:
		items, err := client.Queue()
		if err != nil {
			return nil, err
		}
		paths := make([]string, 0, len(items))
		for _, item := range items {
			paths = append(paths, item.Path)
		}
		return paths, nil

	case *getPlaylist != "":
		return client.PlaylistPaths(*getPlaylist)

	case len(*getPaths) > 0:
		return *getPaths, nil

	default:
		return nil, errors.New("no songs given; pass paths or one of --current, --queue, --playlist")
	}
}

func printRecord(path string, rec stats.Statistics, withPath bool) {
	switch {
	case *getJSON:
		out, err := json.Marshal(struct {
			Path    string `json:"path"`
			PlayCnt uint32 `json:"play_cnt"`
			SkipCnt uint32 `json:"skip_cnt"`
		}{path, rec.PlayCnt, rec.SkipCnt})
		if err == nil {
			fmt.Println(string(out))
		}
	case *getStats:
		if withPath {
			fmt.Printf("%s: play count %d, skip count %d\n", path, rec.PlayCnt, rec.SkipCnt)
		} else {
			fmt.Printf("play count: %d\nskip count: %d\n", rec.PlayCnt, rec.SkipCnt)
		}
	default:
		if withPath {
			fmt.Printf("%s: %.2f\n", path, rec.Rating())
		} else {
			fmt.Printf("rating: %.2f\n", rec.Rating())
		}
	}
}

// runSet overwrites counters for one song, either from a full JSON record
// or from individual flags applied over the stored record.
func runSet(client *mpd.Client, st store.Store) error {
	path := *setPath
	if *setCurrent {
		current, err := client.CurrentPath()
		if err != nil {
			return err
		}
		if current == "" {
			return errors.New("no song is currently loaded")
		}
		path = current
	}
	if path == "" {
		return errors.New("no song given; pass a path or --current")
	}

	var rec stats.Statistics
	if *setStats != "" {
		if err := json.Unmarshal([]byte(*setStats), &rec); err != nil {
			return errors.Wrap(err, "invalid --stats JSON")
		}
	} else {
		if *setPlayCnt < 0 && *setSkipCnt < 0 {
			return errors.New("nothing to set; pass --play-count, --skip-count or --stats")
		}
		current, err := st.Read(path)
		if err != nil {
			return err
		}
		rec = current
		if *setPlayCnt >= 0 {
			rec.PlayCnt = uint32(*setPlayCnt)
		}
		if *setSkipCnt >= 0 {
			rec.SkipCnt = uint32(*setSkipCnt)
		}
	}

	if err := st.Write(path, rec); err != nil {
		return err
	}
	zlog.Info().Str("path", path).Uint32("play_cnt", rec.PlayCnt).Uint32("skip_cnt", rec.SkipCnt).
		Msg("statistics set")
	return nil
}
