// Package playlist holds an ordered list of catalog songs with a playing
// position, and reads and writes it as a line-oriented playlist file.
package playlist

import (
	"slices"

	"github.com/llehouerou/shelf/internal/library"
)

// HandleRegistry hands out extra handles for repeated entries.
// *library.Catalog implements it.
type HandleRegistry interface {
	RegisterExtraHandle(song *library.Song) (library.Handle, error)
	UnregisterExtraHandle(song *library.Song, h library.Handle) error
}

// Entry is one position in the playlist. The first entry of a song uses
// its primary handle; repeats get extra handles.
type Entry struct {
	Song   *library.Song
	Handle library.Handle
}

// Playlist is an ordered list of entries. It is not safe for concurrent
// use; drive it from the loop goroutine.
type Playlist struct {
	handles HandleRegistry
	entries []Entry
	playing int // -1 if nothing playing
}

// New creates an empty playlist. handles must not be nil.
func New(handles HandleRegistry) *Playlist {
	return &Playlist{
		handles: handles,
		entries: make([]Entry, 0),
		playing: -1,
	}
}

// Add appends song and returns its entry.
func (p *Playlist) Add(song *library.Song) (Entry, error) {
	e := Entry{Song: song, Handle: song.Handle()}
	if p.contains(e.Handle) {
		h, err := p.handles.RegisterExtraHandle(song)
		if err != nil {
			return Entry{}, err
		}
		e.Handle = h
	}
	p.entries = append(p.entries, e)
	return e, nil
}

func (p *Playlist) contains(h library.Handle) bool {
	return slices.ContainsFunc(p.entries, func(e Entry) bool { return e.Handle == h })
}

// Remove removes the entry at index, adjusting the playing position.
// Returns false if index is out of bounds.
func (p *Playlist) Remove(index int) bool {
	if index < 0 || index >= len(p.entries) {
		return false
	}
	p.release(p.entries[index])
	p.entries = slices.Delete(p.entries, index, index+1)

	if p.playing > index {
		p.playing--
	} else if p.playing == index && p.playing >= len(p.entries) {
		p.playing = len(p.entries) - 1
	}
	return true
}

// RemoveSong removes every entry of song, for example after the catalog
// announced its removal.
func (p *Playlist) RemoveSong(song *library.Song) int {
	removed := 0
	for i := len(p.entries) - 1; i >= 0; i-- {
		if p.entries[i].Song == song {
			p.Remove(i)
			removed++
		}
	}
	return removed
}

// release gives back an extra handle.
func (p *Playlist) release(e Entry) {
	if e.Handle == e.Song.Handle() {
		return
	}
	// A removed song has already lost all its handles.
	_ = p.handles.UnregisterExtraHandle(e.Song, e.Handle) //nolint:errcheck // see above
}

// Clear removes all entries and resets the playing position.
func (p *Playlist) Clear() {
	for _, e := range p.entries {
		p.release(e)
	}
	p.entries = p.entries[:0]
	p.playing = -1
}

// Entries returns a copy of all entries.
func (p *Playlist) Entries() []Entry {
	return slices.Clone(p.entries)
}

// Entry returns the entry at index, or nil if out of bounds.
func (p *Playlist) Entry(index int) *Entry {
	if index < 0 || index >= len(p.entries) {
		return nil
	}
	return &p.entries[index]
}

// Len returns the number of entries.
func (p *Playlist) Len() int {
	return len(p.entries)
}

// Move moves the entry at from to to, keeping the playing entry playing.
// Returns false if either index is out of bounds.
func (p *Playlist) Move(from, to int) bool {
	if from < 0 || from >= len(p.entries) || to < 0 || to >= len(p.entries) {
		return false
	}
	if from == to {
		return true
	}

	e := p.entries[from]
	p.entries = slices.Delete(p.entries, from, from+1)
	p.entries = slices.Insert(p.entries, to, e)

	switch {
	case p.playing == from:
		p.playing = to
	case from < p.playing && to >= p.playing:
		p.playing--
	case from > p.playing && to <= p.playing:
		p.playing++
	}
	return true
}

// Playing returns the playing entry, or nil if none.
func (p *Playlist) Playing() *Entry {
	return p.Entry(p.playing)
}

// PlayingIndex returns the index of the playing entry (-1 if none).
func (p *Playlist) PlayingIndex() int {
	return p.playing
}

// SetPlaying jumps to index. Returns false if index is out of bounds.
func (p *Playlist) SetPlaying(index int) bool {
	if index < 0 || index >= len(p.entries) {
		return false
	}
	p.playing = index
	return true
}

// Next advances to the next entry and returns it, or nil at the end.
func (p *Playlist) Next() *Entry {
	if !p.HasNext() {
		return nil
	}
	p.playing++
	return p.Playing()
}

// HasNext returns true if there's an entry after the playing one.
func (p *Playlist) HasNext() bool {
	return p.playing < len(p.entries)-1
}

// Previous steps back and returns the entry, or nil at the start.
func (p *Playlist) Previous() *Entry {
	if p.playing <= 0 {
		return nil
	}
	p.playing--
	return p.Playing()
}
