package mpd

import (
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/mpdtally/mpdtally/internal/app/listener"
)

// QueueItem pairs a queue reference with the file path it resolves to.
type QueueItem struct {
	Ref  listener.TrackRef
	Path string
}

// Resolve maps a queue reference to its file path. found is false when the
// entry is no longer queued, which is routine under consume mode.
func (c *Client) Resolve(ref listener.TrackRef) (path string, found bool, err error) {
	if !ref.Valid() {
		return "", false, nil
	}
	attrs, err := c.conn.Command("playlistid %d", int(ref)).Attrs()
	if err != nil {
		if isNoSuchSong(err) {
			return "", false, nil
		}
		return "", false, errors.Wrapf(err, "failed to resolve queue id %d", int(ref))
	}
	file := attrs["file"]
	if file == "" {
		return "", false, nil
	}
	return file, true, nil
}

// Queue returns the current play queue in order.
func (c *Client) Queue() ([]QueueItem, error) {
	entries, err := c.conn.PlaylistInfo(-1, -1)
	if err != nil {
		return nil, errors.Wrap(err, "failed to fetch queue")
	}
	items := make([]QueueItem, 0, len(entries))
	for _, attrs := range entries {
		items = append(items, QueueItem{
			Ref:  parseRef(attrs["Id"]),
			Path: attrs["file"],
		})
	}
	return items, nil
}

// PlaylistPaths returns the file paths of a stored playlist.
func (c *Client) PlaylistPaths(name string) ([]string, error) {
	entries, err := c.conn.PlaylistContents(name)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read playlist %s", name)
	}
	paths := make([]string, 0, len(entries))
	for _, attrs := range entries {
		if attrs["file"] != "" {
			paths = append(paths, attrs["file"])
		}
	}
	return paths, nil
}

// CurrentPath returns the playing (or paused) track's path, or "" when the
// player has nothing loaded.
func (c *Client) CurrentPath() (string, error) {
	attrs, err := c.conn.CurrentSong()
	if err != nil {
		return "", errors.Wrap(err, "failed to fetch current song")
	}
	return attrs["file"], nil
}

// AllPaths lists every file in the daemon's database.
func (c *Client) AllPaths() ([]string, error) {
	files, err := c.conn.GetFiles()
	if err != nil {
		return nil, errors.Wrap(err, "failed to list database files")
	}
	return files, nil
}

func isNoSuchSong(err error) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "no such song")
}
