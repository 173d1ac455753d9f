package library

import (
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/llehouerou/shelf/internal/covers"
	"github.com/llehouerou/shelf/internal/store"
	"github.com/llehouerou/shelf/internal/tags"
)

// SongVersion is the record layout version of the song store.
const SongVersion = 7

// Song is one audio file in the catalog, keyed by its filename.
type Song struct {
	filename string

	mu          sync.RWMutex
	title       string
	artists     []string
	performers  []string
	album       string
	trackNumber int
	totalTracks int
	discNumber  int
	year        string
	duration    time.Duration
	gain        float64
	peak        float64
	mtime       int64
	cover       *covers.Image

	// embedded is art read from the file's tags, held until the catalog
	// decides where to store it.
	embedded *covers.Image

	// handles[0] is the primary handle. Empty until the catalog indexes
	// the song.
	handles []Handle

	keysDirty bool
	sortKey   []byte
	searchKey string

	// removed is set under the catalog lock when the song leaves the
	// index; dead once its removal has been announced.
	removed bool
	dead    atomic.Bool
}

// NewSong builds a song from freshly read metadata.
func NewSong(filename string, md *tags.Metadata) *Song {
	s := &Song{filename: filename, keysDirty: true}
	s.sync(md)
	return s
}

// sync replaces every tag-derived attribute.
func (s *Song) sync(md *tags.Metadata) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.title = md.Title
	if s.title == "" {
		base := filepath.Base(s.filename)
		s.title = strings.TrimSuffix(base, filepath.Ext(base))
	}
	s.artists = slices.Clone(md.Artists)
	s.performers = slices.Clone(md.Performers)
	s.album = md.Album
	s.trackNumber = md.TrackNumber
	s.totalTracks = md.TotalTracks
	s.discNumber = md.DiscNumber
	s.year = md.Year
	s.duration = md.Duration.Truncate(time.Second)
	s.mtime = md.MTime
	s.gain = md.Gain
	s.peak = md.Peak
	s.keysDirty = true

	s.embedded = nil
	if len(md.Cover) > 0 {
		s.embedded = &covers.Image{Data: md.Cover, MIME: md.CoverMIME}
	}
}

// takeEmbedded returns and forgets the art read by the last sync.
func (s *Song) takeEmbedded() *covers.Image {
	s.mu.Lock()
	defer s.mu.Unlock()
	img := s.embedded
	s.embedded = nil
	return img
}

func (s *Song) Filename() string { return s.filename }

// Folder is the directory holding the file.
func (s *Song) Folder() string { return filepath.Dir(s.filename) }

func (s *Song) Title() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.title
}

func (s *Song) Artists() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.artists)
}

func (s *Song) Performers() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.performers)
}

func (s *Song) Album() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.album
}

// HasAlbum reports whether the song carries an album name.
func (s *Song) HasAlbum() bool {
	return s.Album() != ""
}

// AlbumKey is the key of the album this song belongs to.
func (s *Song) AlbumKey() string {
	return MakeAlbumKey(s.Folder(), s.Album())
}

func (s *Song) TrackNumber() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.trackNumber
}

// TotalTracks is the album track count the file claims, or 0.
func (s *Song) TotalTracks() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.totalTracks
}

func (s *Song) DiscNumber() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.discNumber
}

func (s *Song) Year() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.year
}

func (s *Song) Duration() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.duration
}

func (s *Song) Gain() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.gain
}

func (s *Song) Peak() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.peak
}

// MTime is the file modification time, in unix seconds, when the tags
// were last read.
func (s *Song) MTime() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.mtime
}

func (s *Song) Cover() *covers.Image {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cover
}

func (s *Song) setCover(img *covers.Image) {
	s.mu.Lock()
	s.cover = img
	s.mu.Unlock()
}

func (s *Song) setDuration(d time.Duration) {
	s.mu.Lock()
	s.duration = d
	s.mu.Unlock()
}

// Handle returns the primary handle, or 0 when the song is not indexed.
func (s *Song) Handle() Handle {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.handles) == 0 {
		return 0
	}
	return s.handles[0]
}

// Handles returns the primary handle followed by any extra handles.
func (s *Song) Handles() []Handle {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.handles)
}

func (s *Song) addHandle(h Handle) {
	s.mu.Lock()
	s.handles = append(s.handles, h)
	s.mu.Unlock()
}

// removeHandle drops an extra handle. The primary handle is never removed.
func (s *Song) removeHandle(h Handle) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := 1; i < len(s.handles); i++ {
		if s.handles[i] == h {
			s.handles = slices.Delete(s.handles, i, i+1)
			return true
		}
	}
	return false
}

// Dead reports whether the song's removal has been announced. Dead songs
// have no live handles.
func (s *Song) Dead() bool {
	return s.dead.Load()
}

// Public is always true for songs.
func (s *Song) Public() bool { return true }

func (s *Song) SortKey() []byte {
	s.refreshKeys()
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sortKey
}

func (s *Song) SearchKey() string {
	s.refreshKeys()
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.searchKey
}

func (s *Song) refreshKeys() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.keysDirty {
		return
	}

	artists := strings.Join(s.artists, " ")
	performers := strings.Join(s.performers, " ")
	s.sortKey = sortKey(joinKey(s.title, artists, performers))
	s.searchKey = SearchKey(joinKey(s.title, artists, performers, s.album))
	s.keysDirty = false
}

// pack encodes the song record. The field order is the on-disk layout of
// song store version 7.
func (s *Song) pack() []byte {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p := store.NewPacker()
	p.PutString(s.title)
	p.PutStringArray(s.artists)
	p.PutStringArray(s.performers)
	p.PutString(s.album)
	p.PutInt32(int32(s.trackNumber))
	p.PutInt32(int32(s.totalTracks))
	p.PutInt32(int32(s.discNumber))
	p.PutString(s.year)
	p.PutInt32(int32(s.duration / time.Second))
	p.PutInt64(s.mtime)
	p.PutFloat64(s.gain)
	p.PutFloat64(s.peak)
	return p.Bytes()
}

// unpackSong decodes a stored record. The cover is attached after load.
func unpackSong(filename string, data []byte) (*Song, error) {
	u := store.NewUnpacker(data)
	s := &Song{
		filename:    filename,
		title:       u.ReadString(),
		artists:     u.ReadStringArray(),
		performers:  u.ReadStringArray(),
		album:       u.ReadString(),
		trackNumber: int(u.ReadInt32()),
		totalTracks: int(u.ReadInt32()),
		discNumber:  int(u.ReadInt32()),
		year:        u.ReadString(),
		duration:    time.Duration(u.ReadInt32()) * time.Second,
		mtime:       u.ReadInt64(),
		gain:        u.ReadFloat64(),
		peak:        u.ReadFloat64(),
		keysDirty:   true,
	}
	if err := u.Err(); err != nil {
		return nil, err
	}
	return s, nil
}

// setAlbumInfo normalises the album-level attributes to the album's.
func (s *Song) setAlbumInfo(name, year string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.album != name {
		s.album = name
		s.keysDirty = true
	}
	s.year = year
}
