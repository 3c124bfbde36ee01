package store

import (
	"encoding/json"

	"github.com/bogem/id3v2/v2"
	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/mpdtally/mpdtally/internal/domain/stats"
)

func (s *TagStore) readMP3(path string) (stats.Statistics, error) {
	// A file without any ID3 tag parses to an empty tag, which is the
	// absence case, not an error.
	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		return stats.Statistics{}, errors.Wrapf(err, "failed to open id3 tag of %s", path)
	}
	defer tag.Close()

	frame, ok := s.findComment(tag)
	if !ok {
		return stats.Statistics{}, nil
	}

	var st stats.Statistics
	if err := json.Unmarshal([]byte(frame.Text), &st); err != nil {
		zlog.Warn().Str("path", path).Str("comment", frame.Text).Err(err).
			Msg("malformed statistics comment; treating as absent")
		return stats.Statistics{}, nil
	}
	return st, nil
}

func (s *TagStore) writeMP3(path string, st stats.Statistics) error {
	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		return errors.Wrapf(err, "failed to open id3 tag of %s", path)
	}
	defer tag.Close()

	payload, err := json.Marshal(st)
	if err != nil {
		return errors.Wrap(err, "failed to encode statistics")
	}

	tag.SetVersion(4)

	// Re-add every comment frame except ours, then append the fresh one,
	// so foreign comments survive and ours never duplicates.
	kept := make([]id3v2.CommentFrame, 0)
	for _, framer := range tag.GetFrames(tag.CommonID("Comments")) {
		frame, ok := framer.(id3v2.CommentFrame)
		if ok && frame.Description == s.marker {
			continue
		}
		if ok {
			kept = append(kept, frame)
		}
	}
	tag.DeleteFrames(tag.CommonID("Comments"))
	for _, frame := range kept {
		tag.AddCommentFrame(frame)
	}
	tag.AddCommentFrame(id3v2.CommentFrame{
		Encoding:    id3v2.EncodingUTF8,
		Language:    s.lang,
		Description: s.marker,
		Text:        string(payload),
	})

	if err := tag.Save(); err != nil {
		return errors.Wrapf(err, "failed to save id3 tag of %s", path)
	}
	return nil
}

func (s *TagStore) findComment(tag *id3v2.Tag) (id3v2.CommentFrame, bool) {
	for _, framer := range tag.GetFrames(tag.CommonID("Comments")) {
		frame, ok := framer.(id3v2.CommentFrame)
		if ok && frame.Description == s.marker {
			return frame, true
		}
	}
	return id3v2.CommentFrame{}, false
}
