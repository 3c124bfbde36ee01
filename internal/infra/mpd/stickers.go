package mpd

import (
	"strings"

	"github.com/cockroachdb/errors"
)

// Sticker commands go through the generic command API: absence has to be
// told apart from connection failure by the server's error text, and the
// find variant used for exports is not covered by typed helpers.

// StickerGet reads a song sticker. found is false when the song carries no
// sticker under that name.
func (c *Client) StickerGet(uri, name string) (value string, found bool, err error) {
	attrs, err := c.conn.Command("sticker get song %s %s", uri, name).Attrs()
	if err != nil {
		if isNoSuchSticker(err) {
			return "", false, nil
		}
		return "", false, errors.Wrapf(err, "failed to get sticker %s for %s", name, uri)
	}
	// The response value is "name=value".
	_, value, _ = strings.Cut(attrs["sticker"], "=")
	return value, true, nil
}

// StickerSet writes a song sticker.
func (c *Client) StickerSet(uri, name, value string) error {
	if err := c.conn.Command("sticker set song %s %s %s", uri, name, value).OK(); err != nil {
		return errors.Wrapf(err, "failed to set sticker %s for %s", name, uri)
	}
	return nil
}

// StickerDelete removes a song sticker. Deleting an absent sticker is not
// an error.
func (c *Client) StickerDelete(uri, name string) error {
	if err := c.conn.Command("sticker delete song %s %s", uri, name).OK(); err != nil {
		if isNoSuchSticker(err) {
			return nil
		}
		return errors.Wrapf(err, "failed to delete sticker %s for %s", name, uri)
	}
	return nil
}

// StickerEntry is one hit of a sticker search.
type StickerEntry struct {
	Path  string
	Value string
}

// StickerFind returns every song under dir ("" for the whole database)
// carrying a sticker with the given name.
func (c *Client) StickerFind(dir, name string) ([]StickerEntry, error) {
	hits, err := c.conn.Command("sticker find song %s %s", dir, name).AttrsList("file")
	if err != nil {
		return nil, errors.Wrapf(err, "failed to find stickers named %s", name)
	}
	entries := make([]StickerEntry, 0, len(hits))
	for _, attrs := range hits {
		_, value, _ := strings.Cut(attrs["sticker"], "=")
		entries = append(entries, StickerEntry{Path: attrs["file"], Value: value})
	}
	return entries, nil
}

func isNoSuchSticker(err error) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "no such sticker")
}
