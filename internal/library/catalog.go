// Package library is the music catalog: an in-memory index of songs and the
// albums derived from them, kept consistent with the record store and the
// watched folders on disk.
//
// Every mutation happens in two phases. Phase one runs under the catalog
// lock, on the caller's goroutine or a background task, and updates the
// indexes and the store. Phase two announces the change to listeners on
// the loop goroutine, in the order the changes were made.
package library

import (
	"fmt"
	"log/slog"
	"maps"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/llehouerou/shelf/internal/covers"
	"github.com/llehouerou/shelf/internal/loop"
	"github.com/llehouerou/shelf/internal/store"
	"github.com/llehouerou/shelf/internal/tags"
)

// MetadataReader reads tags from a file. tags.FileReader implements it.
type MetadataReader interface {
	Read(path string) (*tags.Metadata, error)
}

// FolderSaver persists the watched folder list.
type FolderSaver interface {
	SaveWatchedFolders(folders []string) error
}

// Options configures a Catalog. Store, Reader and Loop are required.
type Options struct {
	Store  store.Store
	Reader MetadataReader
	Loop   *loop.Loop

	// Covers is optional; without it songs and albums carry no covers.
	Covers *covers.DB
	// FolderSaver is optional; without it watched folder changes are not
	// persisted.
	FolderSaver FolderSaver
	Logger      *slog.Logger

	WatchedFolders     []string
	OnlyCompleteAlbums bool
}

// Catalog owns the song and album indexes.
type Catalog struct {
	store  store.Store
	reader MetadataReader
	loop   *loop.Loop
	covers *covers.DB
	saver  FolderSaver
	log    *slog.Logger

	mu      sync.RWMutex
	songs   map[string]*Song
	albums  map[string]*Album
	folders []string

	onlyComplete atomic.Bool
	handles      *registry
	subs         listeners
}

// New returns an empty catalog. Call Load to read the store.
func New(opts Options) *Catalog {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	c := &Catalog{
		store:   opts.Store,
		reader:  opts.Reader,
		loop:    opts.Loop,
		covers:  opts.Covers,
		saver:   opts.FolderSaver,
		log:     logger,
		songs:   make(map[string]*Song),
		albums:  make(map[string]*Album),
		folders: minimalFolders(opts.WatchedFolders),
		handles: newRegistry(),
	}
	c.onlyComplete.Store(opts.OnlyCompleteAlbums)
	return c
}

// MakeAlbumKey builds the key albums are grouped by: songs in the same
// folder with the same album name, ignoring case.
func MakeAlbumKey(folder, name string) string {
	return folder + ":" + strings.ToLower(name)
}

// SetOnlyCompleteAlbums changes whether incomplete albums are Public.
func (c *Catalog) SetOnlyCompleteAlbums(only bool) {
	c.onlyComplete.Store(only)
}

// OnlyCompleteAlbums reports the current setting.
func (c *Catalog) OnlyCompleteAlbums() bool {
	return c.onlyComplete.Load()
}

// post schedules phase two on the loop.
func (c *Catalog) post(p *Pending) {
	if p == nil {
		return
	}
	c.loop.Post(func() { c.emit(p) })
}

// insert indexes s and gives it its primary handle. Callers hold c.mu.
func (c *Catalog) insert(s *Song) {
	c.songs[s.filename] = s
	s.addHandle(c.handles.register(s))
}

// AddSong indexes song, persists it and announces it. Adding a filename
// that is already indexed does nothing.
func (c *Catalog) AddSong(song *Song) error {
	p, err := c.startAddSong(song)
	if err != nil {
		return err
	}
	c.post(p)
	return nil
}

// AddFile reads path and adds it. It returns the indexed song, which is
// the existing one when path was already in the catalog.
func (c *Catalog) AddFile(path string) (*Song, error) {
	if s := c.Song(path); s != nil {
		return s, nil
	}

	md, err := c.reader.Read(path)
	if err != nil {
		return nil, err
	}

	song := NewSong(path, md)
	if err := c.AddSong(song); err != nil {
		return nil, err
	}
	if s := c.Song(path); s != nil {
		return s, nil
	}
	return song, nil
}

func (c *Catalog) startAddSong(song *Song) (*Pending, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if song.removed {
		return nil, ErrStaleEntity
	}
	if _, ok := c.songs[song.filename]; ok {
		return nil, nil
	}

	c.insert(song)
	c.syncCover(song, false)

	p := &Pending{song: song, songAdded: true}
	c.addToAlbum(p, song, false)

	if err := c.store.Store(song.filename, song.pack(), false); err != nil {
		c.rollbackAdd(song)
		return nil, fmt.Errorf("store %s: %w", song.filename, err)
	}
	return p, nil
}

// rollbackAdd undoes the index side of a failed add. Callers hold c.mu.
func (c *Catalog) rollbackAdd(song *Song) {
	var discard Pending
	c.removeFromAlbum(&discard, song)
	if discard.removedAlbum != nil {
		c.handles.unregister(discard.removedAlbum.Handle())
	}
	delete(c.songs, song.filename)
	c.handles.unregister(song.Handles()...)
	song.mu.Lock()
	song.handles = nil
	song.mu.Unlock()
}

// SyncSong re-reads the song's file and re-indexes it.
func (c *Catalog) SyncSong(song *Song) error {
	md, err := c.reader.Read(song.filename)
	if err != nil {
		return err
	}
	p, err := c.startSyncSong(song, md)
	c.post(p)
	return err
}

// startSyncSong may return both a change and a store error; the change
// has been applied to the index either way.
func (c *Catalog) startSyncSong(song *Song, md *tags.Metadata) (*Pending, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if song.removed || c.songs[song.filename] != song {
		return nil, ErrStaleEntity
	}

	p := &Pending{song: song, songChanged: true}
	c.removeFromAlbum(p, song)

	hadAlbum := song.HasAlbum()
	song.sync(md)
	c.syncCover(song, hadAlbum)

	c.addToAlbum(p, song, false)

	if err := c.store.Store(song.filename, song.pack(), true); err != nil {
		return p, fmt.Errorf("store %s: %w", song.filename, err)
	}
	return p, nil
}

// RemoveSong deletes the song from the store and the index.
func (c *Catalog) RemoveSong(song *Song) error {
	p, err := c.startRemoveSong(song)
	if err != nil {
		return err
	}
	c.post(p)
	return nil
}

func (c *Catalog) startRemoveSong(song *Song) (*Pending, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if song.removed || c.songs[song.filename] != song {
		return nil, ErrStaleEntity
	}

	if err := c.store.Delete(song.filename); err != nil {
		return nil, fmt.Errorf("delete %s: %w", song.filename, err)
	}

	delete(c.songs, song.filename)
	song.removed = true

	p := &Pending{song: song, songRemoved: true}
	c.removeFromAlbum(p, song)
	return p, nil
}

// SetSongDuration corrects the duration read from the tags, for example
// once a player has measured the stream.
func (c *Catalog) SetSongDuration(song *Song, d time.Duration) error {
	c.mu.Lock()
	if song.removed {
		c.mu.Unlock()
		return ErrStaleEntity
	}
	song.setDuration(d)
	err := c.store.Store(song.filename, song.pack(), true)
	c.mu.Unlock()

	c.post(&Pending{song: song, songChanged: true})
	if err != nil {
		return fmt.Errorf("store %s: %w", song.filename, err)
	}
	return nil
}

// addToAlbum joins song to its album, creating it when needed. fromStore
// skips cover handling and leaves p untouched. Callers hold c.mu.
func (c *Catalog) addToAlbum(p *Pending, song *Song, fromStore bool) {
	if !song.HasAlbum() {
		return
	}

	key := song.AlbumKey()
	album, ok := c.albums[key]
	if !ok {
		album = newAlbum(song, &c.onlyComplete)
		album.handle = c.handles.register(album)
		c.albums[key] = album
		if !fromStore {
			c.initAlbumCover(album, song)
			p.addedAlbum = album
		}
		return
	}

	changed, songsChanged := album.add(song, !fromStore)
	if fromStore {
		return
	}
	if changed {
		p.addChangedAlbum = album
	}
	p.albumSongsChanged = songsChanged
}

// removeFromAlbum takes song out of its album, tearing the album down when
// it becomes empty. Callers hold c.mu.
func (c *Catalog) removeFromAlbum(p *Pending, song *Song) {
	if !song.HasAlbum() {
		return
	}

	key := song.AlbumKey()
	album, ok := c.albums[key]
	if !ok {
		return
	}

	changed, empty := album.remove(song)
	if empty {
		delete(c.albums, key)
		if !IsFromRemovableMedia(album.folder) {
			c.removeCover(key)
		}
		p.removedAlbum = album
		return
	}
	if changed {
		p.removeChangedAlbum = album
	}
}

// Song returns the song indexed under filename, or nil.
func (c *Catalog) Song(filename string) *Song {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.songs[filename]
}

// SongByBasename returns a song whose file name, without directories, is
// name. When several match, the lowest full path wins.
func (c *Catalog) SongByBasename(name string) *Song {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var found *Song
	for fn, s := range c.songs {
		if filepath.Base(fn) != name {
			continue
		}
		if found == nil || fn < found.filename {
			found = s
		}
	}
	return found
}

// SongByHandle resolves any live handle of a song, primary or extra.
func (c *Catalog) SongByHandle(h Handle) *Song {
	s, _ := c.handles.lookup(h).(*Song)
	return s
}

// AlbumByHandle resolves an album handle.
func (c *Catalog) AlbumByHandle(h Handle) *Album {
	a, _ := c.handles.lookup(h).(*Album)
	return a
}

// Album returns the album indexed under key, or nil.
func (c *Catalog) Album(key string) *Album {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.albums[key]
}

// AlbumOf returns the album song belongs to, or nil.
func (c *Catalog) AlbumOf(song *Song) *Album {
	if !song.HasAlbum() {
		return nil
	}
	return c.Album(song.AlbumKey())
}

// Songs returns a snapshot of every song, ordered by filename.
func (c *Catalog) Songs() []*Song {
	c.mu.RLock()
	keys := slices.Sorted(maps.Keys(c.songs))
	out := make([]*Song, len(keys))
	for i, k := range keys {
		out[i] = c.songs[k]
	}
	c.mu.RUnlock()
	return out
}

// Albums returns a snapshot of every album, ordered by key.
func (c *Catalog) Albums() []*Album {
	c.mu.RLock()
	keys := slices.Sorted(maps.Keys(c.albums))
	out := make([]*Album, len(keys))
	for i, k := range keys {
		out[i] = c.albums[k]
	}
	c.mu.RUnlock()
	return out
}

// SearchSongs returns the public songs matching every token, sorted.
func (c *Catalog) SearchSongs(tokens []string) []*Song {
	return search(c.Songs(), tokens)
}

// SearchAlbums returns the public albums matching every token, sorted.
func (c *Catalog) SearchAlbums(tokens []string) []*Album {
	return search(c.Albums(), tokens)
}

func search[T Item](items []T, tokens []string) []T {
	var out []T
	for _, it := range items {
		if FitsCriteria(it, tokens) {
			out = append(out, it)
		}
	}
	slices.SortStableFunc(out, func(a, b T) int {
		return CompareItems(a, b)
	})
	return out
}

// Len returns the number of indexed songs.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.songs)
}

// AlbumCount returns the number of albums.
func (c *Catalog) AlbumCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.albums)
}

// RegisterExtraHandle gives song another handle, for example for a second
// playlist entry of the same file.
func (c *Catalog) RegisterExtraHandle(song *Song) (Handle, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if song.removed || c.songs[song.filename] != song {
		return 0, ErrStaleEntity
	}
	h := c.handles.register(song)
	song.addHandle(h)
	return h, nil
}

// UnregisterExtraHandle releases a handle from RegisterExtraHandle. The
// song itself stays valid.
func (c *Catalog) UnregisterExtraHandle(song *Song, h Handle) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if song.removed || c.songs[song.filename] != song {
		return ErrStaleEntity
	}
	if !song.removeHandle(h) {
		return ErrUnknownHandle
	}
	c.handles.unregister(h)
	return nil
}

// IsExtraHandle reports whether h is a live handle of song other than its
// primary one.
func (c *Catalog) IsExtraHandle(song *Song, h Handle) bool {
	return c.SongByHandle(h) == song && song.Handle() != h
}
