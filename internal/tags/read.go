package tags

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/dhowden/tag"
	"go.senan.xyz/taglib"
)

// FileReader reads metadata from files on disk.
type FileReader struct{}

// Read implements the catalog's metadata reader.
func (FileReader) Read(path string) (*Metadata, error) {
	return Read(path)
}

// Read reads tags, duration and replay gain from an audio file.
// Non-audio paths return ErrUnsupported.
func Read(path string) (*Metadata, error) {
	if !IsMusicFile(path) {
		return nil, fmt.Errorf("%s: %w", path, ErrUnsupported)
	}

	fi, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if fi.IsDir() {
		return nil, fmt.Errorf("%s: %w", path, ErrUnsupported)
	}

	md, err := readTags(path)
	if err != nil {
		return nil, fmt.Errorf("read tags %s: %w", path, err)
	}
	md.MTime = fi.ModTime().Unix()
	if md.Duration == 0 {
		md.Duration = readDuration(path)
	}
	return md, nil
}

func readTags(path string) (*Metadata, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	ext := strings.ToLower(filepath.Ext(path))

	m, err := tag.ReadFrom(f)
	if err != nil {
		switch ext {
		case ExtMP3:
			// dhowden/tag has issues with some UTF-16 encoded ID3 tags
			return readMP3WithID3v2(path)
		case ExtFLAC, ExtOPUS, ExtOGG, ExtOGA, ExtM4A, ExtMP4:
			return readWithTaglib(path)
		}
		return nil, err
	}

	track, totalTracks := m.Track()
	disc, _ := m.Disc()

	md := &Metadata{
		Path:        path,
		Title:       strings.TrimSpace(m.Title()),
		Artists:     splitArtists(m.Artist()),
		Album:       strings.TrimSpace(m.Album()),
		TrackNumber: track,
		TotalTracks: totalTracks,
		DiscNumber:  disc,
	}
	if y := m.Year(); y > 0 {
		md.Year = strconv.Itoa(y)
	}
	if pic := m.Picture(); pic != nil && len(pic.Data) > 0 {
		md.Cover = pic.Data
		md.CoverMIME = pic.MIMEType
	}

	switch ext {
	case ExtMP3:
		readMP3ExtendedTags(path, md)
	case ExtFLAC:
		readFLACExtendedTags(path, md)
	case ExtOPUS, ExtOGG, ExtOGA, ExtM4A, ExtMP4:
		readTaglibExtendedTags(path, md)
	}

	return md, nil
}

// readDuration returns the stream length, or zero when it cannot be
// determined. Duration is advisory: players correct it later.
func readDuration(path string) time.Duration {
	props, err := taglib.ReadProperties(path)
	if err == nil && props.Length > 0 {
		return props.Length
	}
	if strings.EqualFold(filepath.Ext(path), ExtFLAC) {
		return readFLACStreamDuration(path)
	}
	return 0
}
