//nolint:goconst // test cases intentionally repeat strings for readability
package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skipf("Could not get home dir: %v", err)
	}

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "tilde expands to home",
			input:    "~/music",
			expected: filepath.Join(home, "music"),
		},
		{
			name:     "tilde with nested path",
			input:    "~/music/library/albums",
			expected: filepath.Join(home, "music", "library", "albums"),
		},
		{
			name:     "absolute path unchanged",
			input:    "/usr/local/music",
			expected: "/usr/local/music",
		},
		{
			name:     "empty string unchanged",
			input:    "",
			expected: "",
		},
		{
			name:     "tilde only",
			input:    "~",
			expected: home,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := expandPath(tt.input)
			if result != tt.expected {
				t.Errorf("expandPath(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestGetConfigPaths(t *testing.T) {
	paths := getConfigPaths()

	if len(paths) == 0 {
		t.Fatal("getConfigPaths() returned empty slice")
	}

	// Last path should be local config.toml
	lastPath := paths[len(paths)-1]
	if lastPath != "config.toml" {
		t.Errorf("last config path = %q, want %q", lastPath, "config.toml")
	}

	if home, err := os.UserHomeDir(); err == nil {
		expectedFirst := filepath.Join(home, ".config", "shelf", "config.toml")
		if paths[0] != expectedFirst {
			t.Errorf("first config path = %q, want %q", paths[0], expectedFirst)
		}
	}
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadFile_Defaults(t *testing.T) {
	cfg, err := LoadFile(writeConfig(t, ""))
	require.NoError(t, err)

	assert.True(t, cfg.OnlyCompleteAlbums)
	assert.Empty(t, cfg.WatchedFolders)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "auto", cfg.Log.Format)
	assert.False(t, cfg.Watch.Enabled)
	assert.Equal(t, 2*time.Second, cfg.Debounce())
}

func TestLoadFile_BasicConfig(t *testing.T) {
	path := writeConfig(t, `
watched_folders = ["/music", "~/library"]
only_complete_albums = false
locale = "sv"
data_dir = "~/shelf-data"

[log]
level = "debug"
format = "json"

[watch]
enabled = true
debounce_ms = 500
`)

	cfg, err := LoadFile(path)
	require.NoError(t, err)

	home, _ := os.UserHomeDir()
	assert.Equal(t, []string{"/music", filepath.Join(home, "library")}, cfg.WatchedFolders)
	assert.False(t, cfg.OnlyCompleteAlbums)
	assert.Equal(t, "sv", cfg.Locale)
	assert.Equal(t, filepath.Join(home, "shelf-data"), cfg.DataDir)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.True(t, cfg.Watch.Enabled)
	assert.Equal(t, 500*time.Millisecond, cfg.Debounce())
	assert.Equal(t, path, cfg.Path())
}

func TestLoadFile_InvalidToml(t *testing.T) {
	_, err := LoadFile(writeConfig(t, "invalid = [[["))
	if err == nil {
		t.Error("LoadFile() expected error for invalid TOML, got nil")
	}
}

func TestLoadFile_Missing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "nope.toml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoad_LocalConfig(t *testing.T) {
	tmpDir := t.TempDir()
	originalWd, err := os.Getwd()
	if err != nil {
		t.Fatalf("could not get working directory: %v", err)
	}
	if err := os.Chdir(tmpDir); err != nil {
		t.Fatalf("could not change to temp directory: %v", err)
	}
	defer func() {
		_ = os.Chdir(originalWd)
	}()

	if err := os.WriteFile("config.toml", []byte(`locale = "de"`), 0o600); err != nil {
		t.Fatalf("could not write config file: %v", err)
	}

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "de", cfg.Locale)
	assert.Equal(t, "config.toml", cfg.Path())
}

func TestFolderWriter_KeepsOtherKeys(t *testing.T) {
	path := writeConfig(t, `
locale = "fr"
watched_folders = ["/old"]

[watch]
enabled = true
`)

	w := NewFolderWriter(path)
	require.NoError(t, w.SaveWatchedFolders([]string{"/music", "/more"}))

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"/music", "/more"}, cfg.WatchedFolders)
	assert.Equal(t, "fr", cfg.Locale)
	assert.True(t, cfg.Watch.Enabled)
}

func TestFolderWriter_CreatesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")

	require.NoError(t, NewFolderWriter(path).SaveWatchedFolders([]string{"/music"}))

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"/music"}, cfg.WatchedFolders)
	assert.True(t, cfg.OnlyCompleteAlbums)
}

func TestWatch_ReloadsOnChange(t *testing.T) {
	path := writeConfig(t, `watched_folders = ["/a"]`)

	got := make(chan *Config, 16)
	stop, err := Watch(path, func(cfg *Config, err error) {
		if err != nil {
			return
		}
		select {
		case got <- cfg:
		default:
		}
	})
	require.NoError(t, err)
	defer stop()

	require.NoError(t, os.WriteFile(path, []byte(`watched_folders = ["/a", "/b"]`), 0o600))

	// A write may be seen half done first; wait for the final content.
	timeout := time.After(5 * time.Second)
	for {
		select {
		case cfg := <-got:
			if len(cfg.WatchedFolders) == 2 {
				assert.Equal(t, []string{"/a", "/b"}, cfg.WatchedFolders)
				return
			}
		case <-timeout:
			t.Fatal("no reload after config change")
		}
	}
}
