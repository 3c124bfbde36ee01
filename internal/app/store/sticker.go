package store

import (
	"encoding/json"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	zlog "github.com/rs/zerolog/log"

	"github.com/mpdtally/mpdtally/internal/domain/stats"
)

// StickerClient is the slice of the player connection the sticker backend
// needs. Get reports absence through the found flag, not an error.
type StickerClient interface {
	StickerGet(uri, name string) (value string, found bool, err error)
	StickerSet(uri, name, value string) error
	StickerDelete(uri, name string) error
}

// StickerStoreConfig holds the sticker backend settings.
type StickerStoreConfig struct {
	Name string `yaml:"name" mapstructure:"name" default:"mpdtally" validate:"required"`
}

// StickerStore keeps statistics in the player's sticker database, keyed by
// the path relative to the music directory. Stickers do not survive file
// moves; that is the trade-off against the tag backend.
type StickerStore struct {
	client StickerClient
	name   string
}

// NewStickerStore creates a sticker-backed store from raw settings.
func NewStickerStore(client StickerClient, settings map[string]any) (*StickerStore, error) {
	if client == nil {
		return nil, errors.New("sticker backend requires a player connection")
	}

	var cfg StickerStoreConfig
	if err := mapstructure.Decode(settings, &cfg); err != nil {
		return nil, errors.Wrap(err, "failed to decode sticker settings")
	}
	if err := defaults.Set(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to set sticker defaults")
	}
	if err := validator.New().Struct(&cfg); err != nil {
		return nil, errors.Wrap(err, "invalid sticker settings")
	}

	return &StickerStore{client: client, name: cfg.Name}, nil
}

// Name returns the sticker name entries are stored under, for callers that
// enumerate the sticker database directly (export).
func (s *StickerStore) Name() string {
	return s.name
}

// Read fetches the record for path. A missing sticker yields the zero
// record; a malformed one is purged so corruption never blocks counting.
func (s *StickerStore) Read(path string) (stats.Statistics, error) {
	value, found, err := s.client.StickerGet(path, s.name)
	if err != nil {
		return stats.Statistics{}, errors.Wrapf(err, "failed to read sticker for %s", path)
	}
	if !found {
		return stats.Statistics{}, nil
	}

	var st stats.Statistics
	if err := json.Unmarshal([]byte(value), &st); err != nil {
		zlog.Warn().Str("path", path).Str("value", value).Err(err).
			Msg("malformed statistics sticker; deleting it")
		if delErr := s.client.StickerDelete(path, s.name); delErr != nil {
			zlog.Warn().Str("path", path).Err(delErr).Msg("failed to delete malformed sticker")
		}
		return stats.Statistics{}, nil
	}
	return st, nil
}

// Write stores the record for path.
func (s *StickerStore) Write(path string, st stats.Statistics) error {
	payload, err := json.Marshal(st)
	if err != nil {
		return errors.Wrap(err, "failed to encode statistics")
	}
	if err := s.client.StickerSet(path, s.name, string(payload)); err != nil {
		return errors.Wrapf(err, "failed to write sticker for %s", path)
	}
	return nil
}
