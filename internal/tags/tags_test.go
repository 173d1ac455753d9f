package tags

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsMusicFile(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"song.mp3", true},
		{"song.MP3", true},
		{"song.flac", true},
		{"song.FLAC", true},
		{"song.opus", true},
		{"song.ogg", true},
		{"song.oga", true},
		{"song.m4a", true},
		{"song.mp4", true},
		{"song.wav", false},
		{"cover.jpg", false},
		{"song", false},
		{"/path/to/music.flac", true},
		{"/path.mp3/readme", false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, IsMusicFile(tt.path))
		})
	}
}

func TestParseNumberPair(t *testing.T) {
	tests := []struct {
		input     string
		wantNum   int
		wantTotal int
	}{
		{"", 0, 0},
		{"5", 5, 0},
		{"5/10", 5, 10},
		{" 3 / 12 ", 3, 12},
		{"invalid", 0, 0},
		{"5/invalid", 5, 0},
		{"invalid/10", 0, 10},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			num, total := parseNumberPair(tt.input)
			assert.Equal(t, tt.wantNum, num)
			assert.Equal(t, tt.wantTotal, total)
		})
	}
}

func TestParseGain(t *testing.T) {
	tests := []struct {
		input  string
		want   float64
		wantOK bool
	}{
		{"-6.54 dB", -6.54, true},
		{"+1.20 dB", 1.2, true},
		{"0.988831", 0.988831, true},
		{"-3db", -3, true},
		{"", 0, false},
		{"loud", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := parseGain(tt.input)
			assert.Equal(t, tt.wantOK, ok)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestFirstGain_SkipsUnparseable(t *testing.T) {
	assert.InDelta(t, -2.5, firstGain("", "n/a", "-2.5 dB", "1"), 1e-9)
	assert.Zero(t, firstGain())
}

func TestYearOf(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"", ""},
		{"0", ""},
		{"1999", "1999"},
		{"2004-05-17", "2004"},
		{"2004-05", "2004"},
		{"circa 1970", "circa 1970"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, yearOf(tt.input))
		})
	}
}

func TestSplitArtists(t *testing.T) {
	assert.Nil(t, splitArtists(""))
	assert.Equal(t, []string{"Björk"}, splitArtists("Björk"))
	assert.Equal(t, []string{"Simon", "Garfunkel"}, splitArtists("Simon; Garfunkel"))
	assert.Equal(t, []string{"A", "B"}, splitArtists("A\x00B\x00"))
	// "/" appears in real names and is not a separator
	assert.Equal(t, []string{"AC/DC"}, splitArtists("AC/DC"))
}

func TestTaglibTags(t *testing.T) {
	tags := taglibTags{
		"TITLE":       {"Song"},
		"ARTIST":      {"One", " ", "Two"},
		"TRACKNUMBER": {"4/9"},
	}

	assert.Equal(t, "Song", tags.get("MISSING", "TITLE"))
	assert.Empty(t, tags.get("MISSING"))
	assert.Equal(t, []string{"One", "Two"}, tags.all("ARTIST"))
	assert.Equal(t, 4, tags.getInt("TRACKNUMBER"))
	assert.Zero(t, tags.getInt("MISSING"))
}
