package library

import "errors"

// ErrStaleEntity is returned for operations on a song that has already
// been removed from the catalog.
var ErrStaleEntity = errors.New("library: song no longer in catalog")

// ErrUnknownHandle is returned when unregistering a handle that is not an
// extra handle of the song.
var ErrUnknownHandle = errors.New("library: not an extra handle of this song")
