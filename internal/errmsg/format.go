// Package errmsg provides consistent error formatting for user-facing messages.
package errmsg

import "fmt"

// Op represents an operation that can fail.
type Op string

// Operation constants - grouped by domain.
const (
	// Catalog operations
	OpCatalogOpen  Op = "open catalog"
	OpCatalogLoad  Op = "load catalog"
	OpCatalogCheck Op = "check catalog for changes"
	OpSongAdd      Op = "add song"
	OpSongRemove   Op = "remove song"

	// Folder operations
	OpFolderAdd    Op = "add watched folder"
	OpFolderRemove Op = "remove watched folder"
	OpFolderScan   Op = "scan folder"
	OpFolderWatch  Op = "watch folders"

	// Playlist operations
	OpPlaylistLoad Op = "load playlist"
	OpPlaylistSave Op = "save playlist"

	// Configuration
	OpConfigLoad   Op = "load configuration"
	OpConfigReload Op = "reload configuration"

	// Initialization
	OpInitialize Op = "initialize application"
)

// Format creates a user-friendly error message.
func Format(op Op, err error) string {
	if err == nil {
		return ""
	}
	return fmt.Sprintf("Failed to %s: %v", op, err)
}

// FormatWith creates an error message with additional context.
func FormatWith(op Op, context string, err error) string {
	if err == nil {
		return ""
	}
	if context == "" {
		return Format(op, err)
	}
	return fmt.Sprintf("Failed to %s '%s': %v", op, context, err)
}

// Error wraps err with the operation, for returning to a CLI runner that
// prints it as is.
func Error(op Op, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("failed to %s: %w", op, err)
}
