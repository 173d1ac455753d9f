package library

import (
	"github.com/llehouerou/shelf/internal/covers"
	"github.com/llehouerou/shelf/internal/tags"
)

// coverKey is where a song's cover lives in the covers DB: under its
// album key, or under its filename when it has no album.
func coverKey(s *Song) string {
	if s.HasAlbum() {
		return s.AlbumKey()
	}
	return s.Filename()
}

// syncCover settles the song's cover after its tags were (re)read. The
// album side is handled when the song joins its album. Callers hold c.mu.
func (c *Catalog) syncCover(s *Song, hadAlbum bool) {
	embedded := s.takeEmbedded()
	if c.covers == nil {
		if s.Cover() == nil && embedded != nil {
			s.setCover(embedded)
		}
		return
	}

	switch {
	case !hadAlbum && s.HasAlbum() && s.Cover() != nil:
		// A single song gained an album: move its cover there unless the
		// album already has one.
		img := s.Cover()
		c.removeCover(s.Filename())
		if _, ok := c.covers.Cover(s.AlbumKey()); !ok {
			c.storeCover(s.AlbumKey(), img)
		}
	case !s.HasAlbum():
		img, _ := c.covers.Cover(s.Filename())
		s.setCover(img)
	}

	if s.Cover() != nil || embedded == nil {
		return
	}
	key := coverKey(s)
	if _, ok := c.covers.Cover(key); ok {
		return
	}
	c.storeCover(key, embedded)
	s.setCover(embedded)
}

// initAlbumCover picks the cover of a new album: the stored one, then the
// first song's, then an image file in the album folder.
func (c *Catalog) initAlbumCover(a *Album, initial *Song) {
	key := a.Key()

	var img *covers.Image
	if c.covers != nil {
		img, _ = c.covers.Cover(key)
	}
	if img == nil {
		img = initial.Cover()
		if img != nil {
			c.storeCover(key, img)
		}
	}
	if img == nil {
		data, mime, err := tags.FolderImage(a.Folder())
		switch {
		case err != nil:
			c.log.Debug("no folder image", "folder", a.Folder(), "error", err)
		case data != nil:
			img = &covers.Image{Data: data, MIME: mime}
			c.storeCover(key, img)
		}
	}

	a.mu.Lock()
	a.cover = img
	a.mu.Unlock()
	initial.setCover(img)
}

// attachCovers gives loaded songs and albums their stored covers.
func (c *Catalog) attachCovers() {
	if c.covers == nil {
		return
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	for key, a := range c.albums {
		if img, ok := c.covers.Cover(key); ok {
			a.setCover(img)
		}
	}
	for fn, s := range c.songs {
		if s.HasAlbum() {
			continue
		}
		if img, ok := c.covers.Cover(fn); ok {
			s.setCover(img)
		}
	}
}

func (c *Catalog) storeCover(key string, img *covers.Image) {
	if c.covers == nil {
		return
	}
	if err := c.covers.SetCover(key, img); err != nil {
		c.log.Error("storing cover", "key", key, "error", err)
	}
}

func (c *Catalog) removeCover(key string) {
	if c.covers == nil {
		return
	}
	if err := c.covers.RemoveCover(key); err != nil {
		c.log.Error("removing cover", "key", key, "error", err)
	}
}

// SetAlbumCover replaces the album's cover, or clears it when img is nil,
// and announces the change for every member and the album.
func (c *Catalog) SetAlbumCover(a *Album, img *covers.Image) error {
	c.mu.Lock()
	if c.albums[a.Key()] != a {
		c.mu.Unlock()
		return ErrStaleEntity
	}
	var err error
	if c.covers != nil {
		err = c.covers.SetCover(a.Key(), img)
	}
	a.setCover(img)
	songs := a.Songs()
	c.mu.Unlock()

	c.loop.Post(func() {
		for _, s := range songs {
			if !s.Dead() {
				c.dispatch(Event{Type: SongChanged, Song: s})
			}
		}
		c.dispatch(Event{Type: AlbumChanged, Album: a})
	})
	return err
}

// SetSongCover sets the cover of the song's album, or of the song itself
// when it has none.
func (c *Catalog) SetSongCover(s *Song, img *covers.Image) error {
	if a := c.AlbumOf(s); a != nil {
		return c.SetAlbumCover(a, img)
	}

	c.mu.Lock()
	if s.removed || c.songs[s.filename] != s {
		c.mu.Unlock()
		return ErrStaleEntity
	}
	var err error
	if c.covers != nil {
		err = c.covers.SetCover(s.Filename(), img)
	}
	s.setCover(img)
	c.mu.Unlock()

	c.post(&Pending{song: s, songChanged: true})
	return err
}
