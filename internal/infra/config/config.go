// Package config provides configuration loading from YAML files.
package config

import (
	"os"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration. Command-line flags are
// merged on top of it after loading; environment variables sit in between.
type Config struct {
	MPD     MPDConfig     `yaml:"mpd"`
	Library LibraryConfig `yaml:"library"`
	Stats   StatsConfig   `yaml:"stats"`
	Notify  NotifyConfig  `yaml:"notify"`
	Hooks   HooksConfig   `yaml:"hooks"`
	Log     LogConfig     `yaml:"log"`
}

// MPDConfig describes how to reach the daemon. When both socket and
// address are usable the socket wins, because only a local socket lets the
// music directory be queried.
type MPDConfig struct {
	Address  string `yaml:"address" default:"127.0.0.1:6600"`
	Socket   string `yaml:"socket"`
	Password string `yaml:"password"`
}

// LibraryConfig locates the music files for the tag backend.
type LibraryConfig struct {
	RootDir string `yaml:"root_dir"`
}

// StatsConfig selects and parameterizes the statistics backend.
type StatsConfig struct {
	Backend  string         `yaml:"backend" default:"sticker" validate:"oneof=sticker tag"`
	Settings map[string]any `yaml:"settings"`
}

// NotifyConfig controls desktop notifications for recorded outcomes.
type NotifyConfig struct {
	Disabled  bool   `yaml:"disabled"`
	TimeoutMs int    `yaml:"timeout_ms" default:"10000" validate:"gte=0,lte=60000"`
	Icon      string `yaml:"icon"`
}

// HooksConfig holds user commands run after an outcome is recorded. Each
// entry is an argv; the track path and both counters are appended.
type HooksConfig struct {
	OnPlayed  []string `yaml:"on_played"`
	OnSkipped []string `yaml:"on_skipped"`
}

// LogConfig represents logging configuration.
type LogConfig struct {
	Level  string `yaml:"level" default:"warn"`
	Output string `yaml:"output" default:"stderr"`
}

// Load loads configuration from a YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read config file")
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrap(err, "failed to parse config file")
	}

	cfg.overrideFromEnv()

	if err := defaults.Set(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to set defaults")
	}

	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "config validation failed")
	}

	return &cfg, nil
}

// LoadOrDefault behaves like Load but treats a missing file as an empty
// one, so the program runs with defaults plus flags alone.
func LoadOrDefault(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		var cfg Config
		cfg.overrideFromEnv()
		if err := defaults.Set(&cfg); err != nil {
			return nil, errors.Wrap(err, "failed to set defaults")
		}
		if err := cfg.Validate(); err != nil {
			return nil, errors.Wrap(err, "config validation failed")
		}
		return &cfg, nil
	}
	return Load(path)
}

// overrideFromEnv applies the conventional MPD client environment plus our
// own variables.
func (c *Config) overrideFromEnv() {
	if v := os.Getenv("MPD_HOST"); v != "" {
		// MPD_HOST may carry a password prefix and may name a socket.
		host := v
		if pw, rest, found := strings.Cut(v, "@"); found {
			c.MPD.Password = pw
			host = rest
		}
		if strings.HasPrefix(host, "/") {
			c.MPD.Socket = host
		} else {
			port := "6600"
			if p := os.Getenv("MPD_PORT"); p != "" {
				port = p
			}
			c.MPD.Address = host + ":" + port
		}
	}
	if v := os.Getenv("MPDTALLY_ROOT_DIR"); v != "" {
		c.Library.RootDir = v
	}
	if v := os.Getenv("MPDTALLY_BACKEND"); v != "" {
		c.Stats.Backend = v
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return errors.Wrap(err, "struct validation failed")
	}
	return nil
}
