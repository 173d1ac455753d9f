package library

import (
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/llehouerou/shelf/internal/covers"
)

// singleTrackAlbumLength is how long a lone track one must be to count as
// a complete album on its own.
const singleTrackAlbumLength = 600 * time.Second

// Album groups the songs sharing an album key.
type Album struct {
	handle Handle
	folder string

	mu          sync.RWMutex
	name        string
	year        string
	songs       []*Song // ordered by disc, then track
	artists     []string
	performers  []string
	totalTracks int
	complete    bool
	cover       *covers.Image

	keysDirty bool
	sortKey   []byte
	searchKey string

	onlyComplete *atomic.Bool
}

// newAlbum creates an album around its first song. onlyComplete is the
// catalog's live setting for Public.
func newAlbum(initial *Song, onlyComplete *atomic.Bool) *Album {
	a := &Album{
		folder:       initial.Folder(),
		name:         initial.Album(),
		year:         initial.Year(),
		songs:        []*Song{initial},
		totalTracks:  initial.TotalTracks(),
		keysDirty:    true,
		onlyComplete: onlyComplete,
	}
	a.mergeArtists(initial)
	a.checkCompleteness()
	return a
}

func (a *Album) Handle() Handle { return a.handle }

// Folder is the directory the album's songs live in.
func (a *Album) Folder() string { return a.folder }

// Key is the album's index key.
func (a *Album) Key() string {
	return MakeAlbumKey(a.folder, a.Name())
}

func (a *Album) Name() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.name
}

func (a *Album) Year() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.year
}

// Songs returns the members ordered by disc and track.
func (a *Album) Songs() []*Song {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return slices.Clone(a.songs)
}

// Len is the number of member songs.
func (a *Album) Len() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.songs)
}

func (a *Album) Artists() []string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return slices.Clone(a.artists)
}

func (a *Album) Performers() []string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return slices.Clone(a.performers)
}

// TotalTracks is the track count hint from the members' tags, or 0.
func (a *Album) TotalTracks() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.totalTracks
}

// Complete reports whether enough of the album is present.
func (a *Album) Complete() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.complete
}

func (a *Album) Cover() *covers.Image {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.cover
}

// Duration is the sum of the members' durations.
func (a *Album) Duration() time.Duration {
	var d time.Duration
	for _, s := range a.Songs() {
		d += s.Duration()
	}
	return d
}

// Public hides incomplete albums while the catalog only shows complete ones.
func (a *Album) Public() bool {
	if a.onlyComplete != nil && a.onlyComplete.Load() {
		return a.Complete()
	}
	return true
}

// setCover assigns img to the album and every member.
func (a *Album) setCover(img *covers.Image) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.cover = img
	for _, s := range a.songs {
		s.setCover(img)
	}
}

// add joins song to the album. changed reports an album-visible change;
// songsChanged reports that every member's cover changed.
func (a *Album) add(song *Song, checkCover bool) (changed, songsChanged bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if checkCover {
		if a.cover == nil && song.Cover() != nil {
			a.cover = song.Cover()
			for _, s := range a.songs {
				s.setCover(a.cover)
			}
			changed = true
			songsChanged = true
		} else {
			song.setCover(a.cover)
		}
	}

	year := a.year
	if year == "" && song.Year() != "" {
		year = song.Year()
		changed = true
	}
	a.year = year

	// Keys match case-insensitively; the newest spelling wins.
	if name := song.Album(); name != a.name {
		a.name = name
		a.keysDirty = true
		changed = true
	}
	song.setAlbumInfo(a.name, a.year)

	if a.mergeArtists(song) {
		changed = true
	}

	a.songs = append(a.songs, song)
	sortSongs(a.songs)

	if n := song.TotalTracks(); n > 0 && n != a.totalTracks {
		a.totalTracks = n
		changed = true
	}

	if a.checkCompleteness() {
		changed = true
	}
	return changed, songsChanged
}

// remove drops song from the album. empty reports that no member is left.
func (a *Album) remove(song *Song) (changed, empty bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	i := slices.Index(a.songs, song)
	if i < 0 {
		return false, len(a.songs) == 0
	}
	a.songs = slices.Delete(a.songs, i, i+1)

	if len(a.songs) == 0 {
		return true, true
	}

	if a.rebuildArtists() {
		changed = true
	}
	if a.checkCompleteness() {
		changed = true
	}
	return changed, false
}

// mergeArtists adds the song's artists and performers to the sorted sets.
func (a *Album) mergeArtists(song *Song) bool {
	artists, aChanged := mergeSorted(a.artists, song.Artists())
	performers, pChanged := mergeSorted(a.performers, song.Performers())
	a.artists, a.performers = artists, performers
	if aChanged || pChanged {
		a.keysDirty = true
		return true
	}
	return false
}

// rebuildArtists recomputes both sets as the union over current members.
func (a *Album) rebuildArtists() bool {
	var artists, performers []string
	for _, s := range a.songs {
		artists, _ = mergeSorted(artists, s.Artists())
		performers, _ = mergeSorted(performers, s.Performers())
	}
	if slices.Equal(artists, a.artists) && slices.Equal(performers, a.performers) {
		return false
	}
	a.artists, a.performers = artists, performers
	a.keysDirty = true
	return true
}

func mergeSorted(set, add []string) ([]string, bool) {
	changed := false
	for _, v := range add {
		i, found := slices.BinarySearch(set, v)
		if found {
			continue
		}
		set = slices.Insert(set, i, v)
		changed = true
	}
	return set, changed
}

func sortSongs(songs []*Song) {
	slices.SortStableFunc(songs, func(x, y *Song) int {
		if d := x.DiscNumber() - y.DiscNumber(); d != 0 {
			return d
		}
		return x.TrackNumber() - y.TrackNumber()
	})
}

// checkCompleteness recomputes complete and reports whether it changed.
func (a *Album) checkCompleteness() bool {
	present := len(a.songs)
	complete := false

	switch {
	case present == 0:
	case a.totalTracks > 0:
		complete = present >= a.totalTracks || present >= a.totalTracks/2
	default:
		last := a.songs[len(a.songs)-1]
		lastTrack := last.TrackNumber()
		switch {
		case lastTrack == 1:
			complete = present == 1 && last.Duration() >= singleTrackAlbumLength
		case lastTrack > 1:
			if present >= lastTrack {
				complete = true
			} else if lastTrack >= 8 {
				complete = present >= lastTrack/2
			}
		}
	}

	changed := complete != a.complete
	a.complete = complete
	return changed
}

func (a *Album) SortKey() []byte {
	a.refreshKeys()
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.sortKey
}

func (a *Album) SearchKey() string {
	a.refreshKeys()
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.searchKey
}

func (a *Album) refreshKeys() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.keysDirty {
		return
	}

	sortArtists := make([]string, len(a.artists))
	for i, v := range a.artists {
		sortArtists[i] = sortName(v)
	}
	sortPerformers := make([]string, len(a.performers))
	for i, v := range a.performers {
		sortPerformers[i] = sortName(v)
	}
	artists := strings.Join(sortArtists, " ")
	performers := strings.Join(sortPerformers, " ")

	if len(a.artists) > 3 {
		a.sortKey = sortKey(joinKey(a.name, a.year, artists, performers))
	} else {
		a.sortKey = sortKey(joinKey(artists, performers, a.year, a.name))
	}
	a.searchKey = SearchKey(joinKey(a.name, strings.Join(a.artists, " "), strings.Join(a.performers, " ")))
	a.keysDirty = false
}
