package store

import (
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"

	"github.com/mpdtally/mpdtally/internal/domain/stats"
)

// File extensions the tag backend can write.
const (
	extMP3  = ".mp3"
	extFLAC = ".flac"
)

// ErrUnsupportedFormat is returned for files the tag backend cannot embed
// statistics into. Batch callers skip these tracks and keep going.
var ErrUnsupportedFormat = errors.New("unsupported file format for tag statistics")

// TagStoreConfig holds the tag backend settings.
type TagStoreConfig struct {
	Marker string `yaml:"marker" mapstructure:"marker" default:"mpdtally" validate:"required"`
	Lang   string `yaml:"lang" mapstructure:"lang" default:"eng" validate:"len=3"`
}

// TagStore keeps statistics inside the music files themselves: an ID3v2
// comment frame for MP3, a Vorbis comment field for FLAC. Unlike stickers
// the record follows the file when it moves, at the cost of touching it.
type TagStore struct {
	root   string // music directory; player paths are relative to it
	marker string // comment description / field name
	lang   string // ISO 639-2 language for the COMM frame
}

// NewTagStore creates a tag-backed store from raw settings. root must be
// the same music directory the player serves, or paths will not line up.
func NewTagStore(root string, settings map[string]any) (*TagStore, error) {
	if root == "" {
		return nil, errors.New("tag backend requires the music root directory; pass --root-dir or connect over the socket so it can be queried")
	}

	var cfg TagStoreConfig
	if err := mapstructure.Decode(settings, &cfg); err != nil {
		return nil, errors.Wrap(err, "failed to decode tag settings")
	}
	if err := defaults.Set(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to set tag defaults")
	}
	if err := validator.New().Struct(&cfg); err != nil {
		return nil, errors.Wrap(err, "invalid tag settings")
	}

	return &TagStore{root: root, marker: cfg.Marker, lang: cfg.Lang}, nil
}

// Read fetches the record embedded in the file at the player-relative path.
// A file without the marker comment yields the zero record; a comment that
// fails to parse is treated the same and overwritten on the next Write.
func (s *TagStore) Read(path string) (stats.Statistics, error) {
	abs := s.resolve(path)
	switch strings.ToLower(filepath.Ext(abs)) {
	case extMP3:
		return s.readMP3(abs)
	case extFLAC:
		return s.readFLAC(abs)
	default:
		return stats.Statistics{}, errors.Wrapf(ErrUnsupportedFormat, "%s", path)
	}
}

// Write embeds the record into the file at the player-relative path,
// creating the tag container if the file has none.
func (s *TagStore) Write(path string, st stats.Statistics) error {
	abs := s.resolve(path)
	switch strings.ToLower(filepath.Ext(abs)) {
	case extMP3:
		return s.writeMP3(abs, st)
	case extFLAC:
		return s.writeFLAC(abs, st)
	default:
		return errors.Wrapf(ErrUnsupportedFormat, "%s", path)
	}
}

func (s *TagStore) resolve(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(s.root, path)
}

// vorbisField is the FLAC field name; Vorbis convention is upper case.
func (s *TagStore) vorbisField() string {
	return strings.ToUpper(s.marker)
}
