package library

import (
	"errors"
	"fmt"
)

// Load fills the catalog from the store without announcing anything.
// Records that fail to decode are dropped from the store.
func (c *Catalog) Load() error {
	var corrupt []string

	c.mu.Lock()
	err := c.store.Load(func(key string, data []byte) error {
		s, err := unpackSong(key, data)
		if err != nil {
			c.log.Warn("dropping corrupt song record", "filename", key, "error", err)
			corrupt = append(corrupt, key)
			return nil
		}
		if _, dup := c.songs[key]; dup {
			return nil
		}
		c.insert(s)
		c.addToAlbum(nil, s, true)
		return nil
	})
	c.mu.Unlock()
	if err != nil {
		return fmt.Errorf("load songs: %w", err)
	}

	var errs []error
	for _, key := range corrupt {
		if err := c.store.Delete(key); err != nil {
			errs = append(errs, fmt.Errorf("delete %s: %w", key, err))
		}
	}

	c.attachCovers()

	c.log.Info("catalog loaded", "songs", c.Len(), "albums", c.AlbumCount())
	return errors.Join(errs...)
}
