package library

// Pending records what phase one changed so phase two can announce it on
// the loop goroutine.
type Pending struct {
	song *Song

	songAdded   bool
	songChanged bool
	songRemoved bool

	addedAlbum         *Album
	removedAlbum       *Album
	addChangedAlbum    *Album
	removeChangedAlbum *Album
	albumSongsChanged  bool
}

// Song is the song the change is about.
func (p *Pending) Song() *Song { return p.song }

// emit is phase two. It runs on the loop goroutine with no catalog lock
// held. A song whose removal was already announced is skipped entirely.
func (c *Catalog) emit(p *Pending) {
	if p.song.Dead() {
		return
	}

	switch {
	case p.songAdded:
		c.dispatch(Event{Type: SongAdded, Song: p.song})
	case p.songChanged:
		c.dispatch(Event{Type: SongChanged, Song: p.song})
	case p.songRemoved:
		c.dispatch(Event{Type: SongRemoved, Song: p.song})
		c.deregisterSong(p.song)
	}

	if p.addedAlbum != nil {
		c.dispatch(Event{Type: AlbumAdded, Album: p.addedAlbum})
	}
	if p.removedAlbum != nil {
		c.dispatch(Event{Type: AlbumRemoved, Album: p.removedAlbum})
		c.handles.unregister(p.removedAlbum.Handle())
	}
	if p.addChangedAlbum != nil {
		c.dispatch(Event{Type: AlbumChanged, Album: p.addChangedAlbum})
		if p.albumSongsChanged {
			for _, s := range p.addChangedAlbum.Songs() {
				c.dispatch(Event{Type: SongChanged, Song: s})
			}
		}
	}
	if p.removeChangedAlbum != nil {
		c.dispatch(Event{Type: AlbumChanged, Album: p.removeChangedAlbum})
	}
}

// deregisterSong invalidates every handle of a removed song and drops the
// cover of an album-less song.
func (c *Catalog) deregisterSong(s *Song) {
	s.dead.Store(true)
	c.handles.unregister(s.Handles()...)

	if !s.HasAlbum() && !IsFromRemovableMedia(s.Filename()) {
		c.removeCover(s.Filename())
	}
}
