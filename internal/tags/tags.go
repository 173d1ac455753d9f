// Package tags reads the metadata the catalog keeps for a music file: tags,
// duration, replay gain and embedded cover art. It covers MP3, FLAC, Opus,
// Ogg Vorbis and M4A.
package tags

import (
	"errors"
	"strconv"
	"strings"
	"time"
)

// File extensions supported by the tags package.
const (
	ExtMP3  = ".mp3"
	ExtFLAC = ".flac"
	ExtOPUS = ".opus"
	ExtOGG  = ".ogg"
	ExtOGA  = ".oga"
	ExtM4A  = ".m4a"
	ExtMP4  = ".mp4"
)

// ErrUnsupported is returned for files that are not audio files this
// package can read.
var ErrUnsupported = errors.New("tags: unsupported file")

// Metadata is everything read from one audio file.
type Metadata struct {
	Path        string
	Title       string
	Artists     []string
	Performers  []string
	Album       string
	TrackNumber int
	TotalTracks int
	DiscNumber  int
	Year        string

	Duration time.Duration
	Gain     float64 // replay gain in dB
	Peak     float64
	MTime    int64 // unix seconds

	// Embedded front cover, if any.
	Cover     []byte
	CoverMIME string
}

// IsMusicFile returns true if the path has a supported music file extension.
func IsMusicFile(path string) bool {
	ext := strings.ToLower(path)
	if idx := strings.LastIndex(ext, "."); idx >= 0 {
		ext = ext[idx:]
	} else {
		return false
	}
	switch ext {
	case ExtMP3, ExtFLAC, ExtOPUS, ExtOGG, ExtOGA, ExtM4A, ExtMP4:
		return true
	}
	return false
}

// taglibTags wraps a taglib result map with lookup helpers.
type taglibTags map[string][]string

// get returns the first value for any of the given keys, or empty string if not found.
func (t taglibTags) get(keys ...string) string {
	for _, key := range keys {
		if values, ok := t[key]; ok && len(values) > 0 {
			return values[0]
		}
	}
	return ""
}

// all returns every value stored under key.
func (t taglibTags) all(key string) []string {
	return nonEmpty(t[key])
}

// getInt returns the first value as an integer, or 0 if not found or invalid.
func (t taglibTags) getInt(key string) int {
	n, _ := parseNumberPair(t.get(key))
	return n
}

// parseNumberPair parses a track/disc number that may be "N" or "N/M".
func parseNumberPair(s string) (num, total int) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, 0
	}
	if idx := strings.Index(s, "/"); idx >= 0 {
		num, _ = strconv.Atoi(strings.TrimSpace(s[:idx]))
		total, _ = strconv.Atoi(strings.TrimSpace(s[idx+1:]))
		return num, total
	}
	num, _ = strconv.Atoi(s)
	return num, 0
}

// parseGain parses replay gain values such as "-6.54 dB" or "0.988".
func parseGain(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	s = strings.TrimSpace(strings.TrimSuffix(strings.TrimSuffix(s, "dB"), "db"))
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// firstGain returns the first parseable value among the candidates.
func firstGain(values ...string) float64 {
	for _, s := range values {
		if v, ok := parseGain(s); ok {
			return v
		}
	}
	return 0
}

// yearOf keeps the leading year of a date such as "2004-05-17".
func yearOf(date string) string {
	date = strings.TrimSpace(date)
	if len(date) > 4 {
		if _, err := strconv.Atoi(date[:4]); err == nil {
			return date[:4]
		}
	}
	if date == "0" {
		return ""
	}
	return date
}

// splitArtists splits a single artist frame on the separators tag editors
// commonly write for multiple values.
func splitArtists(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.FieldsFunc(s, func(r rune) bool {
		return r == ';' || r == '\x00'
	})
	return nonEmpty(parts)
}

func nonEmpty(values []string) []string {
	var out []string
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
