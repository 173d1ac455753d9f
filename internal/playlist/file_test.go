package playlist

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/llehouerou/shelf/internal/library"
)

func TestRead_Resolution(t *testing.T) {
	cat := newCatalog(t, map[string]string{
		"/music/a.mp3":     "A",
		"/music/b.mp3":     "B",
		"/elsewhere/c.mp3": "C",
	})
	addSongs(t, cat, "/music/a.mp3", "/music/b.mp3")

	input := strings.Join([]string{
		"#EXTM3U",
		"/music/a.mp3",
		"",
		"# PLAYING",
		`D:\old\place\b.mp3`,
		"/elsewhere/c.mp3",
	}, "\n")

	type got struct {
		path    string
		playing bool
	}
	var entries []got
	err := Read(strings.NewReader(input), cat, func(s *library.Song, playing bool) error {
		entries = append(entries, got{s.Filename(), playing})
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, []got{
		{"/music/a.mp3", false},
		{"/music/b.mp3", true},
		{"/elsewhere/c.mp3", false},
	}, entries)
	assert.NotNil(t, cat.Song("/elsewhere/c.mp3"), "unknown file is added to the catalog")
}

func TestRead_UnresolvedStops(t *testing.T) {
	cat := newCatalog(t, map[string]string{"/a.mp3": "A"})

	var delivered []string
	err := Read(strings.NewReader("/a.mp3\n/missing.mp3\n/a.mp3\n"), cat, func(s *library.Song, _ bool) error {
		delivered = append(delivered, s.Filename())
		return nil
	})

	require.ErrorIs(t, err, ErrUnresolved)
	assert.Contains(t, err.Error(), "line 2")
	assert.Equal(t, []string{"/a.mp3"}, delivered)
}

func TestWrite(t *testing.T) {
	tests := []struct {
		name          string
		playing       int
		excludePlayed bool
		want          string
	}{
		{"nothing playing", -1, false, "/a.mp3\n/b.mp3\n/c.mp3\n"},
		{"marks playing", 1, false, "/a.mp3\n# PLAYING\n/b.mp3\n/c.mp3\n"},
		{"exclude played", 1, true, "# PLAYING\n/b.mp3\n/c.mp3\n"},
		{"exclude played, nothing playing", -1, true, "/a.mp3\n/b.mp3\n/c.mp3\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			files := map[string]string{"/a.mp3": "A", "/b.mp3": "B", "/c.mp3": "C"}
			cat := newCatalog(t, files)
			p := New(cat)
			for _, s := range addSongs(t, cat, "/a.mp3", "/b.mp3", "/c.mp3") {
				_, err := p.Add(s)
				require.NoError(t, err)
			}
			if tt.playing >= 0 {
				require.True(t, p.SetPlaying(tt.playing))
			}

			var sb strings.Builder
			require.NoError(t, p.Write(&sb, tt.excludePlayed))
			assert.Equal(t, tt.want, sb.String())
		})
	}
}

func TestSaveFile_LoadFile(t *testing.T) {
	files := map[string]string{"/a.mp3": "A", "/b.mp3": "B"}
	cat := newCatalog(t, files)
	songs := addSongs(t, cat, "/a.mp3", "/b.mp3")

	p := New(cat)
	for _, s := range []*library.Song{songs[0], songs[1], songs[0]} {
		_, err := p.Add(s)
		require.NoError(t, err)
	}
	require.True(t, p.SetPlaying(2))

	path := filepath.Join(t.TempDir(), "sub", "playlist.m3u")
	require.NoError(t, p.SaveFile(path, false))

	loaded := New(cat)
	require.NoError(t, loaded.LoadFile(path, cat))
	assert.Equal(t, []string{"/a.mp3", "/b.mp3", "/a.mp3"}, paths(loaded))
	assert.Equal(t, 2, loaded.PlayingIndex())
	assert.True(t, cat.IsExtraHandle(songs[0], loaded.Entries()[2].Handle))
}

func TestLoadFile_Missing(t *testing.T) {
	p := New(newCatalog(t, nil))
	require.NoError(t, p.LoadFile(filepath.Join(t.TempDir(), "none.m3u"), nil))
	assert.Zero(t, p.Len())
}
