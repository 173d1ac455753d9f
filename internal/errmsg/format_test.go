//nolint:goconst // test cases intentionally repeat strings for readability
package errmsg

import (
	"errors"
	"testing"
)

func TestFormat(t *testing.T) {
	tests := []struct {
		name     string
		op       Op
		err      error
		expected string
	}{
		{
			name:     "nil error returns empty string",
			op:       OpSongRemove,
			err:      nil,
			expected: "",
		},
		{
			name:     "formats error with operation",
			op:       OpSongRemove,
			err:      errors.New("file not found"),
			expected: "Failed to remove song: file not found",
		},
		{
			name:     "folder scan operation",
			op:       OpFolderScan,
			err:      errors.New("permission denied"),
			expected: "Failed to scan folder: permission denied",
		},
		{
			name:     "playlist operation",
			op:       OpPlaylistLoad,
			err:      errors.New("unresolved entry"),
			expected: "Failed to load playlist: unresolved entry",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Format(tt.op, tt.err)
			if result != tt.expected {
				t.Errorf("Format(%q, %v) = %q, want %q", tt.op, tt.err, result, tt.expected)
			}
		})
	}
}

func TestFormatWith(t *testing.T) {
	tests := []struct {
		name     string
		op       Op
		context  string
		err      error
		expected string
	}{
		{
			name:     "nil error returns empty string",
			op:       OpSongAdd,
			context:  "song.mp3",
			err:      nil,
			expected: "",
		},
		{
			name:     "formats error with context",
			op:       OpSongAdd,
			context:  "song.mp3",
			err:      errors.New("unsupported format"),
			expected: "Failed to add song 'song.mp3': unsupported format",
		},
		{
			name:     "empty context falls back to Format",
			op:       OpSongAdd,
			context:  "",
			err:      errors.New("unsupported format"),
			expected: "Failed to add song: unsupported format",
		},
		{
			name:     "folder add with path context",
			op:       OpFolderAdd,
			context:  "/home/user/music",
			err:      errors.New("directory not found"),
			expected: "Failed to add watched folder '/home/user/music': directory not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := FormatWith(tt.op, tt.context, tt.err)
			if result != tt.expected {
				t.Errorf("FormatWith(%q, %q, %v) = %q, want %q", tt.op, tt.context, tt.err, result, tt.expected)
			}
		})
	}
}

func TestError(t *testing.T) {
	if Error(OpCatalogLoad, nil) != nil {
		t.Error("Error with nil should be nil")
	}

	base := errors.New("locked")
	err := Error(OpCatalogOpen, base)
	if !errors.Is(err, base) {
		t.Errorf("Error should wrap the original error, got %v", err)
	}
	if err.Error() != "failed to open catalog: locked" {
		t.Errorf("Error() = %q", err.Error())
	}
}

func TestOpConstants(t *testing.T) {
	ops := []Op{
		OpCatalogOpen, OpCatalogLoad, OpCatalogCheck, OpSongAdd, OpSongRemove,
		OpFolderAdd, OpFolderRemove, OpFolderScan, OpFolderWatch,
		OpPlaylistLoad, OpPlaylistSave,
		OpConfigLoad, OpConfigReload,
		OpInitialize,
	}

	testErr := errors.New("test error")

	for _, op := range ops {
		t.Run(string(op), func(t *testing.T) {
			if op == "" {
				t.Error("Op constant should not be empty")
			}

			expected := "Failed to " + string(op) + ": test error"
			if result := Format(op, testErr); result != expected {
				t.Errorf("Format = %q, want %q", result, expected)
			}
		})
	}
}
