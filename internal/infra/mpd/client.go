// Package mpd wraps the gompd client with the operations this program
// needs: status snapshots, idle waits, queue lookups and sticker storage.
package mpd

import (
	"os"

	"github.com/cockroachdb/errors"
	gompd "github.com/fhs/gompd/v2/mpd"
	zlog "github.com/rs/zerolog/log"
)

// Config selects how to reach the daemon.
type Config struct {
	Network  string // "unix" or "tcp"
	Address  string // socket path or host:port
	Password string
}

// Client is a connected MPD client. It is not safe for concurrent use; the
// single event loop owns it, matching the rest of the core.
type Client struct {
	cfg     Config
	conn    *gompd.Client
	watcher *gompd.Watcher
}

// Connect prefers the Unix socket when one is reachable (which also allows
// querying the music directory) and falls back to TCP. An explicit address
// choice by the caller skips the fallback dance.
func Connect(socketPath, address, password string) (*Client, error) {
	if socketPath != "" {
		if _, err := os.Stat(socketPath); err == nil {
			c, err := Dial(Config{Network: "unix", Address: socketPath, Password: password})
			if err == nil {
				return c, nil
			}
			zlog.Debug().Str("socket", socketPath).Err(err).Msg("socket connection failed; trying TCP")
		}
	}
	return Dial(Config{Network: "tcp", Address: address, Password: password})
}

// Dial opens a connection to the daemon.
func Dial(cfg Config) (*Client, error) {
	conn, err := gompd.DialAuthenticated(cfg.Network, cfg.Address, cfg.Password)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to connect to mpd at %s", cfg.Address)
	}
	zlog.Debug().Str("network", cfg.Network).Str("address", cfg.Address).Msg("connected to mpd")
	return &Client{cfg: cfg, conn: conn}, nil
}

// MusicDirectory asks the daemon for its music root. MPD only answers the
// config command on local socket connections.
func (c *Client) MusicDirectory() (string, error) {
	attrs, err := c.conn.Command("config").Attrs()
	if err != nil {
		return "", errors.Wrap(err, "failed to query mpd config (music directory is only available over the local socket)")
	}
	dir := attrs["music_directory"]
	if dir == "" {
		return "", errors.New("mpd did not report a music directory")
	}
	return dir, nil
}

// Close tears down the connection and the watcher, if one was started.
func (c *Client) Close() error {
	var firstErr error
	if c.watcher != nil {
		if err := c.watcher.Close(); err != nil {
			firstErr = err
		}
		c.watcher = nil
	}
	if c.conn != nil {
		if err := c.conn.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		c.conn = nil
	}
	return firstErr
}
