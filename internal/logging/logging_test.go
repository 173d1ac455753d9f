package logging

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{" WARN ", slog.LevelWarn},
		{"error", slog.LevelError},
		{"info", slog.LevelInfo},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, parseLevel(tt.in))
		})
	}
}

func TestNew_FileIsJSONInAutoMode(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "shelf.log")

	logger, closeFn, err := New(Options{Level: "info", Format: "auto", Path: path})
	require.NoError(t, err)
	logger.Debug("hidden")
	logger.Info("catalog loaded", "songs", 3)
	require.NoError(t, closeFn())

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var rec map[string]any
	require.NoError(t, json.Unmarshal(data, &rec))
	assert.Equal(t, "catalog loaded", rec["msg"])
	assert.EqualValues(t, 3, rec["songs"])
}

func TestNew_TextFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shelf.log")

	logger, closeFn, err := New(Options{Format: "text", Path: path})
	require.NoError(t, err)
	logger.Warn("skipping folder", "folder", "/missing")
	require.NoError(t, closeFn())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `msg="skipping folder" folder=/missing`)
}

func TestNew_UnsupportedFormat(t *testing.T) {
	_, _, err := New(Options{Format: "xml"})
	assert.Error(t, err)
}
