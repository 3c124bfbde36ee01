// Package store persists per-track statistics in one of two backends: the
// player's sticker database or a comment embedded in the track's own tags.
package store

import (
	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/mpdtally/mpdtally/internal/domain/stats"
)

// DefaultMarker identifies this program's entries in both backends: it is
// the sticker name in the sticker database and the comment description /
// field name inside tag containers. Existing installs key their data on it.
const DefaultMarker = "mpdtally"

// Backend names accepted by New.
const (
	BackendSticker = "sticker"
	BackendTag     = "tag"
)

// Store reads and writes the statistics record for a track, keyed by the
// path the player knows the track under (relative to the music directory).
//
// Read never fails on absence: a track with no record yet yields the zero
// record. Implementations re-fetch on every call; the backing state can
// change out-of-band (other writers, file moves) and must not be cached.
type Store interface {
	Read(path string) (stats.Statistics, error)
	Write(path string, st stats.Statistics) error
}

// Options carries the backend dependencies the settings map cannot express.
type Options struct {
	Stickers StickerClient // sticker backend: connected player client
	RootDir  string        // tag backend: music directory for resolving paths
}

// New builds the configured backend. The settings map comes straight from
// the config file and is decoded per backend; selection happens once at
// startup and is invariant for the process lifetime.
func New(backend string, settings map[string]any, opts Options) (Store, error) {
	switch backend {
	case BackendSticker, "":
		s, err := NewStickerStore(opts.Stickers, settings)
		if err != nil {
			return nil, errors.Wrap(err, "failed to create sticker store")
		}
		zlog.Debug().Str("name", s.name).Msg("using sticker statistics backend")
		return s, nil

	case BackendTag:
		s, err := NewTagStore(opts.RootDir, settings)
		if err != nil {
			return nil, errors.Wrap(err, "failed to create tag store")
		}
		zlog.Debug().Str("root", s.root).Str("marker", s.marker).Msg("using tag statistics backend")
		return s, nil

	default:
		return nil, errors.Newf("unsupported statistics backend: %s", backend)
	}
}
