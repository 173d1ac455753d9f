package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const defaultDebounce = 2 * time.Second

type Config struct {
	WatchedFolders     []string `koanf:"watched_folders"`      // folders scanned and kept in sync
	OnlyCompleteAlbums bool     `koanf:"only_complete_albums"` // hide incomplete albums (default: true)
	Locale             string   `koanf:"locale"`               // BCP 47 tag for sort order, e.g. "sv"
	DataDir            string   `koanf:"data_dir"`             // empty means $XDG_DATA_HOME/shelf
	PlaylistFile       string   `koanf:"playlist_file"`        // empty means <data_dir>/playlist.m3u

	Log   LogConfig   `koanf:"log"`
	Watch WatchConfig `koanf:"watch"`

	path string
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `koanf:"level"`  // "debug", "info", "warn", "error" (default: "info")
	Format string `koanf:"format"` // "auto", "text", "json" (default: "auto")
	File   string `koanf:"file"`   // empty means stderr
}

// WatchConfig holds live filesystem watch configuration.
type WatchConfig struct {
	Enabled    bool `koanf:"enabled"`
	DebounceMS int  `koanf:"debounce_ms"` // quiet period before a rescan (default: 2000)
}

func defaults() *Config {
	return &Config{
		OnlyCompleteAlbums: true,
		Log: LogConfig{
			Level:  "info",
			Format: "auto",
		},
	}
}

// Load reads the default config files. Missing files are skipped.
func Load() (*Config, error) {
	return load(getConfigPaths(), false)
}

// LoadFile reads only the file at path, which must exist.
func LoadFile(path string) (*Config, error) {
	return load([]string{path}, true)
}

func load(paths []string, required bool) (*Config, error) {
	k := koanf.New(".")
	cfg := defaults()
	cfg.path = paths[0]

	// Try config files in order of priority (last wins)
	for _, path := range paths {
		if _, err := os.Stat(path); err != nil {
			if required {
				return nil, err
			}
			continue
		}
		if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
			return nil, fmt.Errorf("load %s: %w", path, err)
		}
		cfg.path = path
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, err
	}

	for i, folder := range cfg.WatchedFolders {
		cfg.WatchedFolders[i] = expandPath(folder)
	}
	cfg.DataDir = expandPath(cfg.DataDir)
	cfg.PlaylistFile = expandPath(cfg.PlaylistFile)
	cfg.Log.File = expandPath(cfg.Log.File)

	return cfg, nil
}

func getConfigPaths() []string {
	paths := []string{}

	// 1. ~/.config/shelf/config.toml
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "shelf", "config.toml"))
	}

	// 2. ./config.toml (pwd, highest priority)
	paths = append(paths, "config.toml")

	return paths
}

func expandPath(path string) string {
	if path != "" && path[0] == '~' {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}

// Path is the file the configuration was read from, or the file new
// settings would be written to when none existed.
func (c *Config) Path() string {
	return c.path
}

// Debounce returns the watch quiet period with the default applied.
func (c *Config) Debounce() time.Duration {
	if c.Watch.DebounceMS <= 0 {
		return defaultDebounce
	}
	return time.Duration(c.Watch.DebounceMS) * time.Millisecond
}

// Watch reloads path whenever it changes and passes the result to fn, on
// the watcher's goroutine. Call stop to end watching.
func Watch(path string, fn func(*Config, error)) (stop func(), err error) {
	f := file.Provider(path)
	err = f.Watch(func(_ any, err error) {
		if err != nil {
			fn(nil, err)
			return
		}
		fn(LoadFile(path))
	})
	if err != nil {
		return nil, fmt.Errorf("watch %s: %w", path, err)
	}
	return func() { _ = f.Unwatch() }, nil
}

// FolderWriter stores the watched folder list back into a config file,
// keeping the other keys.
type FolderWriter struct {
	mu   sync.Mutex
	path string
}

func NewFolderWriter(path string) *FolderWriter {
	return &FolderWriter{path: path}
}

func (w *FolderWriter) SaveWatchedFolders(folders []string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	k := koanf.New(".")
	if _, err := os.Stat(w.path); err == nil {
		if err := k.Load(file.Provider(w.path), toml.Parser()); err != nil {
			return fmt.Errorf("load %s: %w", w.path, err)
		}
	}
	if err := k.Set("watched_folders", folders); err != nil {
		return err
	}

	data, err := k.Marshal(toml.Parser())
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(w.path), 0o755); err != nil {
		return err
	}
	tmp := w.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, w.path)
}
