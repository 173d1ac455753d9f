// Package covers keeps cover images keyed by album key, or by filename for
// songs that belong to no album.
package covers

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/llehouerou/shelf/internal/store"
)

// Version is the record layout version of the cover store.
const Version = 2

var errEmptyImage = errors.New("covers: empty image")

// Image is an encoded cover image.
type Image struct {
	Data []byte
	MIME string
}

// DB is the in-memory cover index backed by a record store.
// It is safe for concurrent use.
type DB struct {
	mu     sync.RWMutex
	store  store.Store
	covers map[string]*Image
	log    *slog.Logger
}

// New returns an empty DB over s. Call Load to read existing covers.
func New(s store.Store, logger *slog.Logger) *DB {
	if logger == nil {
		logger = slog.Default()
	}
	return &DB{
		store:  s,
		covers: make(map[string]*Image),
		log:    logger,
	}
}

// Load reads every stored cover. Records that fail to decode are dropped
// from the store.
func (db *DB) Load() error {
	var corrupt []string

	err := db.store.Load(func(key string, data []byte) error {
		img, err := unpackImage(data)
		if err != nil {
			db.log.Warn("dropping unreadable cover", "key", key, "error", err)
			corrupt = append(corrupt, key)
			return nil
		}
		db.mu.Lock()
		db.covers[key] = img
		db.mu.Unlock()
		return nil
	})
	if err != nil {
		return fmt.Errorf("load covers: %w", err)
	}

	for _, key := range corrupt {
		if err := db.store.Delete(key); err != nil {
			return fmt.Errorf("delete cover %q: %w", key, err)
		}
	}
	return nil
}

// Cover returns the image stored under key.
func (db *DB) Cover(key string) (*Image, bool) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	img, ok := db.covers[key]
	return img, ok
}

// SetCover stores img under key, replacing any previous image.
func (db *DB) SetCover(key string, img *Image) error {
	if img == nil || len(img.Data) == 0 {
		return db.RemoveCover(key)
	}

	db.mu.Lock()
	defer db.mu.Unlock()

	if err := db.store.Store(key, packImage(img), true); err != nil {
		return fmt.Errorf("store cover %q: %w", key, err)
	}
	db.covers[key] = img
	return nil
}

// RemoveCover deletes the image under key. Missing keys are ignored.
func (db *DB) RemoveCover(key string) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if _, ok := db.covers[key]; !ok {
		return nil
	}
	if err := db.store.Delete(key); err != nil {
		return fmt.Errorf("delete cover %q: %w", key, err)
	}
	delete(db.covers, key)
	return nil
}

// Len returns the number of stored covers.
func (db *DB) Len() int {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return len(db.covers)
}

func packImage(img *Image) []byte {
	p := store.NewPacker()
	p.PutString(img.MIME)
	p.PutBlob(img.Data)
	return p.Bytes()
}

func unpackImage(data []byte) (*Image, error) {
	u := store.NewUnpacker(data)
	img := &Image{
		MIME: u.ReadString(),
		Data: u.ReadBlob(),
	}
	if err := u.Err(); err != nil {
		return nil, err
	}
	if len(img.Data) == 0 {
		return nil, errEmptyImage
	}
	return img, nil
}
