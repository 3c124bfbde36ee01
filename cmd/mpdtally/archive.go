package main

import (
	"encoding/json"
	"os"
	"path"
	"sort"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"github.com/mpdtally/mpdtally/internal/app/store"
	"github.com/mpdtally/mpdtally/internal/domain/stats"
	"github.com/mpdtally/mpdtally/internal/infra/mpd"
)

// archiveEntry is one row of the export/import format.
type archiveEntry struct {
	Path    string `yaml:"path"`
	PlayCnt uint32 `yaml:"play_cnt"`
	SkipCnt uint32 `yaml:"skip_cnt"`
}

// runExport dumps every recorded statistic to YAML. The sticker backend is
// enumerated directly; the tag backend is found by walking the database
// and reading each file.
func runExport(client *mpd.Client, st store.Store) error {
	var entries []archiveEntry

	if sticker, ok := st.(*store.StickerStore); ok {
		hits, err := client.StickerFind("", sticker.Name())
		if err != nil {
			return err
		}
		for _, hit := range hits {
			var rec stats.Statistics
			if err := json.Unmarshal([]byte(hit.Value), &rec); err != nil {
				zlog.Warn().Str("path", hit.Path).Err(err).Msg("skipping malformed sticker")
				continue
			}
			entries = append(entries, archiveEntry{Path: hit.Path, PlayCnt: rec.PlayCnt, SkipCnt: rec.SkipCnt})
		}
	} else {
		paths, err := client.AllPaths()
		if err != nil {
			return err
		}
		for _, p := range paths {
			rec, err := st.Read(p)
			if err != nil {
				// Unsupported formats and unreadable files simply
				// carry no statistics.
				zlog.Debug().Str("path", p).Err(err).Msg("skipping unreadable song")
				continue
			}
			if rec.IsZero() {
				continue
			}
			entries = append(entries, archiveEntry{Path: p, PlayCnt: rec.PlayCnt, SkipCnt: rec.SkipCnt})
		}
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Path < entries[j].Path })

	out, err := yaml.Marshal(entries)
	if err != nil {
		return errors.Wrap(err, "failed to encode archive")
	}
	if *exportOut == "-" {
		_, err = os.Stdout.Write(out)
		return err
	}
	if err := os.WriteFile(*exportOut, out, 0o644); err != nil {
		return errors.Wrap(err, "failed to write archive")
	}
	zlog.Info().Int("entries", len(entries)).Str("output", *exportOut).Msg("exported statistics")
	return nil
}

// runImport loads an archive back. Entries whose path is gone from the
// database are re-matched by file name when that is unambiguous (files
// moved between directories); everything else fails per-entry.
func runImport(client *mpd.Client, st store.Store) error {
	data, err := os.ReadFile(*importIn)
	if err != nil {
		return errors.Wrap(err, "failed to read archive")
	}
	var entries []archiveEntry
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return errors.Wrap(err, "failed to parse archive")
	}

	known, byBase, err := databaseIndex(client)
	if err != nil {
		return err
	}

	failures := 0
	for _, entry := range entries {
		target := entry.Path
		if !known[target] {
			match, ok := uniqueMatch(byBase[path.Base(target)])
			if !ok {
				zlog.Error().Str("path", target).Msg("song not in database and no unambiguous match; skipping")
				failures++
				continue
			}
			zlog.Warn().Str("from", target).Str("to", match).Msg("re-matched moved song by file name")
			target = match
		}

		rec := stats.Statistics{PlayCnt: entry.PlayCnt, SkipCnt: entry.SkipCnt}
		if *importMerge {
			current, err := st.Read(target)
			if err == nil {
				rec.PlayCnt += current.PlayCnt
				rec.SkipCnt += current.SkipCnt
			}
		}
		if err := st.Write(target, rec); err != nil {
			zlog.Error().Str("path", target).Err(err).Msg("failed to import entry")
			failures++
		}
	}

	if failures > 0 {
		return errors.Newf("failed to import %d of %d entries", failures, len(entries))
	}
	zlog.Info().Int("entries", len(entries)).Msg("imported statistics")
	return nil
}

// databaseIndex returns the database paths as a set and grouped by base
// file name.
func databaseIndex(client *mpd.Client) (map[string]bool, map[string][]string, error) {
	paths, err := client.AllPaths()
	if err != nil {
		return nil, nil, err
	}
	known := make(map[string]bool, len(paths))
	byBase := make(map[string][]string)
	for _, p := range paths {
		known[p] = true
		base := path.Base(p)
		byBase[base] = append(byBase[base], p)
	}
	return known, byBase, nil
}

func uniqueMatch(candidates []string) (string, bool) {
	if len(candidates) == 1 {
		return candidates[0], true
	}
	return "", false
}
