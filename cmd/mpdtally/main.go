// Package main provides the mpdtally CLI entry point.
package main

import (
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	"github.com/alecthomas/kingpin/v2"
	"github.com/joho/godotenv"
	zlog "github.com/rs/zerolog/log"

	"github.com/mpdtally/mpdtally/internal/app/store"
	"github.com/mpdtally/mpdtally/internal/infra/config"
	"github.com/mpdtally/mpdtally/internal/infra/logger"
	"github.com/mpdtally/mpdtally/internal/infra/mpd"
)

var (
	app        = kingpin.New("mpdtally", "Play/skip statistics tracker for MPD")
	configPath = app.Flag("config", "Path to config file").Default(defaultConfigPath()).String()
	verbose    = app.Flag("verbose", "Increase log verbosity (repeat for more)").Short('v').Counter()
	logfile    = app.Flag("logfile", "Path to log file (default: stderr)").String()
	useTags    = app.Flag("use-tags", "Store statistics in the files' own tags instead of the MPD sticker database; tags survive file moves, stickers do not").Short('t').Bool()
	socketPath = app.Flag("socket-path", "Path to the MPD Unix socket (preferred; allows querying the music directory)").String()
	address    = app.Flag("socket-address", "MPD TCP address as host:port").Short('a').String()
	password   = app.Flag("password", "MPD password").Envar("MPD_PASSWORD").String()
	rootDir    = app.Flag("root-dir", "Music directory root, needed by the tag backend when not connected over the socket").Short('r').String()

	listenCmd = app.Command("listen", "Listen for player events and record play/skip statistics")

	getCmd      = app.Command("get", "Print statistics for songs")
	getCurrent  = getCmd.Flag("current", "Use the currently loaded song").Short('c').Bool()
	getQueue    = getCmd.Flag("queue", "All songs in the play queue").Short('Q').Bool()
	getPlaylist = getCmd.Flag("playlist", "All songs of a stored playlist").Short('p').String()
	getStats    = getCmd.Flag("stats", "Print the raw counters instead of the rating").Short('s').Bool()
	getJSON     = getCmd.Flag("json", "Print counters as JSON").Short('j').Bool()
	getPaths    = getCmd.Arg("path", "Paths relative to the music directory").Strings()

	setCmd     = app.Command("set", "Manually set statistics for a song")
	setCurrent = setCmd.Flag("current", "Use the currently loaded song").Short('c').Bool()
	setPlayCnt = setCmd.Flag("play-count", "Set the play count").Default("-1").Int()
	setSkipCnt = setCmd.Flag("skip-count", "Set the skip count").Default("-1").Int()
	setStats   = setCmd.Flag("stats", `Full record as JSON, e.g. {"play_cnt":11,"skip_cnt":0}`).Short('s').String()
	setPath    = setCmd.Arg("path", "Path relative to the music directory").String()

	exportCmd = app.Command("export", "Export all recorded statistics to a YAML archive")
	exportOut = exportCmd.Flag("output", "Destination file, - for stdout").Short('o').Default("-").String()

	importCmd   = app.Command("import", "Import statistics from a YAML archive")
	importIn    = importCmd.Flag("input", "Archive file to read").Short('i').Required().String()
	importMerge = importCmd.Flag("merge", "Add imported counts to existing ones instead of replacing them").Bool()
)

func main() {
	// Load .env file if it exists (errors are ignored)
	_ = godotenv.Load()

	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	cfg, err := config.LoadOrDefault(*configPath)
	if err != nil {
		kingpin.Fatalf("failed to load config: %v", err)
	}
	mergeFlags(cfg)

	logCfg := logger.Config{Output: cfg.Log.Output, Level: cfg.Log.Level}
	if *verbose > 0 {
		logCfg.Level = logger.LevelFromVerbosity(*verbose)
	}
	if *logfile != "" {
		logCfg.Output = *logfile
	}
	if err := logger.Init(logCfg); err != nil {
		kingpin.Fatalf("failed to initialize logger: %v", err)
	}

	if err := run(command, cfg); err != nil {
		zlog.Error().Msgf("%v", err)
		os.Exit(1)
	}
}

// run connects, builds the selected backend and dispatches the command.
// Using a separate function ensures defers fire on every exit path.
func run(command string, cfg *config.Config) error {
	socket := cfg.MPD.Socket
	if socket == "" {
		socket = defaultSocketPath()
	}
	if *address != "" && *socketPath == "" {
		// An explicit TCP address skips the socket preference.
		socket = ""
	}

	client, err := mpd.Connect(socket, cfg.MPD.Address, cfg.MPD.Password)
	if err != nil {
		return err
	}
	defer func() {
		if err := client.Close(); err != nil {
			zlog.Debug().Err(err).Msg("error closing mpd connection")
		}
	}()

	root := cfg.Library.RootDir
	if cfg.Stats.Backend == store.BackendTag && root == "" {
		// Over the socket MPD will tell us where the music lives.
		dir, err := client.MusicDirectory()
		if err != nil {
			zlog.Debug().Err(err).Msg("could not query music directory")
		} else {
			root = dir
		}
	}

	st, err := store.New(cfg.Stats.Backend, cfg.Stats.Settings, store.Options{
		Stickers: client,
		RootDir:  root,
	})
	if err != nil {
		return err
	}

	switch command {
	case listenCmd.FullCommand():
		return runListen(cfg, client, st)
	case getCmd.FullCommand():
		return runGet(client, st)
	case setCmd.FullCommand():
		return runSet(client, st)
	case exportCmd.FullCommand():
		return runExport(client, st)
	case importCmd.FullCommand():
		return runImport(client, st)
	}
	return nil
}

// mergeFlags lays command-line flags over the loaded configuration.
func mergeFlags(cfg *config.Config) {
	if *socketPath != "" {
		cfg.MPD.Socket = *socketPath
	}
	if *address != "" {
		cfg.MPD.Address = *address
	}
	if *password != "" {
		cfg.MPD.Password = *password
	}
	if *rootDir != "" {
		cfg.Library.RootDir = *rootDir
	}
	if *useTags {
		cfg.Stats.Backend = store.BackendTag
	}
}

func defaultConfigPath() string {
	return filepath.Join(xdg.ConfigHome, "mpdtally", "config.yaml")
}

func defaultSocketPath() string {
	if xdg.RuntimeDir != "" {
		return filepath.Join(xdg.RuntimeDir, "mpd", "socket")
	}
	return ""
}
