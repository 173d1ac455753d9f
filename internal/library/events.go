package library

import (
	"maps"
	"slices"
	"sync"
)

// EventType identifies a catalog change notification.
type EventType int

const (
	SongAdded EventType = iota
	SongChanged
	SongRemoved
	AlbumAdded
	AlbumChanged
	AlbumRemoved
	WatchedFoldersChanged
)

func (t EventType) String() string {
	switch t {
	case SongAdded:
		return "song-added"
	case SongChanged:
		return "song-changed"
	case SongRemoved:
		return "song-removed"
	case AlbumAdded:
		return "album-added"
	case AlbumChanged:
		return "album-changed"
	case AlbumRemoved:
		return "album-removed"
	case WatchedFoldersChanged:
		return "watched-folders-changed"
	}
	return "unknown"
}

// Event is delivered to listeners on the loop goroutine. Song or Album is
// set according to Type; both are nil for WatchedFoldersChanged.
type Event struct {
	Type  EventType
	Song  *Song
	Album *Album
}

// Listener receives catalog events. It runs on the loop goroutine with no
// catalog lock held and may call back into the catalog.
type Listener func(Event)

type listeners struct {
	mu   sync.Mutex
	next int
	fns  map[int]Listener
}

// Subscribe registers fn and returns a function that removes it.
func (c *Catalog) Subscribe(fn Listener) (unsubscribe func()) {
	c.subs.mu.Lock()
	defer c.subs.mu.Unlock()

	if c.subs.fns == nil {
		c.subs.fns = make(map[int]Listener)
	}
	c.subs.next++
	id := c.subs.next
	c.subs.fns[id] = fn

	return func() {
		c.subs.mu.Lock()
		defer c.subs.mu.Unlock()
		delete(c.subs.fns, id)
	}
}

// dispatch calls every listener in subscription order.
func (c *Catalog) dispatch(e Event) {
	c.subs.mu.Lock()
	ids := slices.Sorted(maps.Keys(c.subs.fns))
	fns := maps.Clone(c.subs.fns)
	c.subs.mu.Unlock()

	for _, id := range ids {
		fns[id](e)
	}
}
