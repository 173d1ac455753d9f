package playlist

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/llehouerou/shelf/internal/library"
)

// ErrUnresolved is returned when a playlist line names no known or
// readable file.
var ErrUnresolved = errors.New("playlist: unresolved entry")

const playingDirective = "# PLAYING"

// Resolver finds the song for a playlist line. *library.Catalog
// implements it.
type Resolver interface {
	Song(filename string) *library.Song
	SongByBasename(name string) *library.Song
	AddFile(path string) (*library.Song, error)
}

// Resolve maps a path to a song: exact filename, then a song with the same
// base name, then the file itself added to the catalog.
func Resolve(res Resolver, path string) (*library.Song, error) {
	if s := res.Song(path); s != nil {
		return s, nil
	}
	if s := res.SongByBasename(filepath.Base(path)); s != nil {
		return s, nil
	}
	s, err := res.AddFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrUnresolved, path, err)
	}
	return s, nil
}

// Read parses a playlist and calls add for each resolved line, in order.
// playing is true for the line following a "# PLAYING" directive. An
// unresolved line stops the read; lines before it were already delivered.
func Read(r io.Reader, res Resolver, add func(song *library.Song, playing bool) error) error {
	scanner := bufio.NewScanner(r)
	markNext := false
	line := 0

	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		switch {
		case text == "":
			continue
		case strings.HasPrefix(text, "#"):
			if text == playingDirective {
				markNext = true
			}
			continue
		}

		path := strings.ReplaceAll(text, `\`, "/")
		song, err := Resolve(res, path)
		if err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}
		if err := add(song, markNext); err != nil {
			return err
		}
		markNext = false
	}
	return scanner.Err()
}

// Load appends the playlist read from r. The entry after "# PLAYING"
// becomes the playing one.
func (p *Playlist) Load(r io.Reader, res Resolver) error {
	return Read(r, res, func(song *library.Song, playing bool) error {
		if _, err := p.Add(song); err != nil {
			return err
		}
		if playing {
			p.playing = len(p.entries) - 1
		}
		return nil
	})
}

// Write saves the playlist, marking the playing entry. With excludePlayed
// the entries before the playing one are left out.
func (p *Playlist) Write(w io.Writer, excludePlayed bool) error {
	bw := bufio.NewWriter(w)
	for i, e := range p.entries {
		if excludePlayed && p.playing >= 0 && i < p.playing {
			continue
		}
		if i == p.playing {
			if _, err := fmt.Fprintln(bw, playingDirective); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintln(bw, e.Song.Filename()); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// LoadFile appends the playlist stored at path. A missing file loads
// nothing.
func (p *Playlist) LoadFile(path string, res Resolver) error {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	defer f.Close()
	return p.Load(f, res)
}

// SaveFile writes the playlist to path through a temporary file.
func (p *Playlist) SaveFile(path string, excludePlayed bool) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".playlist-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck // gone after a successful rename

	if err := p.Write(tmp, excludePlayed); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
