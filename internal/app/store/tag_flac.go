package store

import (
	"encoding/json"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/go-flac/flacvorbis"
	"github.com/go-flac/go-flac"
	zlog "github.com/rs/zerolog/log"

	"github.com/mpdtally/mpdtally/internal/domain/stats"
)

func (s *TagStore) readFLAC(path string) (stats.Statistics, error) {
	f, err := flac.ParseFile(path)
	if err != nil {
		return stats.Statistics{}, errors.Wrapf(err, "failed to parse flac file %s", path)
	}

	cmt, _, err := findVorbisComment(f)
	if err != nil {
		return stats.Statistics{}, errors.Wrapf(err, "failed to parse vorbis comment of %s", path)
	}
	if cmt == nil {
		return stats.Statistics{}, nil
	}

	values, err := cmt.Get(s.vorbisField())
	if err != nil || len(values) == 0 {
		return stats.Statistics{}, nil
	}

	var st stats.Statistics
	if err := json.Unmarshal([]byte(values[0]), &st); err != nil {
		zlog.Warn().Str("path", path).Str("comment", values[0]).Err(err).
			Msg("malformed statistics comment; treating as absent")
		return stats.Statistics{}, nil
	}
	return st, nil
}

func (s *TagStore) writeFLAC(path string, st stats.Statistics) error {
	f, err := flac.ParseFile(path)
	if err != nil {
		return errors.Wrapf(err, "failed to parse flac file %s", path)
	}

	cmt, idx, err := findVorbisComment(f)
	if err != nil {
		return errors.Wrapf(err, "failed to parse vorbis comment of %s", path)
	}
	if cmt == nil {
		cmt = flacvorbis.New()
	}

	payload, err := json.Marshal(st)
	if err != nil {
		return errors.Wrap(err, "failed to encode statistics")
	}

	// Drop any previous value of our field, keep everything else.
	field := s.vorbisField()
	kept := cmt.Comments[:0]
	for _, c := range cmt.Comments {
		key, _, found := strings.Cut(c, "=")
		if found && strings.EqualFold(key, field) {
			continue
		}
		kept = append(kept, c)
	}
	cmt.Comments = kept
	if err := cmt.Add(field, string(payload)); err != nil {
		return errors.Wrap(err, "failed to add statistics comment")
	}

	block := cmt.Marshal()
	if idx >= 0 {
		f.Meta[idx] = &block
	} else {
		f.Meta = append(f.Meta, &block)
	}

	if err := f.Save(path); err != nil {
		return errors.Wrapf(err, "failed to save flac file %s", path)
	}
	return nil
}

// findVorbisComment returns the parsed comment block and its index in the
// file's metadata, or (nil, -1) when the file carries none.
func findVorbisComment(f *flac.File) (*flacvorbis.MetaDataBlockVorbisComment, int, error) {
	for i, meta := range f.Meta {
		if meta.Type != flac.VorbisComment {
			continue
		}
		cmt, err := flacvorbis.ParseFromMetaDataBlock(*meta)
		if err != nil {
			return nil, -1, err
		}
		return cmt, i, nil
	}
	return nil, -1, nil
}
