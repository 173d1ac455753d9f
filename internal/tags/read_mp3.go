package tags

import (
	"path/filepath"
	"strings"

	"github.com/bogem/id3v2/v2"
)

// readMP3ExtendedTags fills what dhowden/tag does not expose: performers,
// the recording date and replay gain.
func readMP3ExtendedTags(path string, md *Metadata) {
	id3tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		return
	}
	defer id3tag.Close()

	applyID3Frames(id3tag, md)
}

func applyID3Frames(id3tag *id3v2.Tag, md *Metadata) {
	if artists := getID3TextFrames(id3tag, "TPE1"); len(artists) > 0 {
		md.Artists = artists
	}
	md.Performers = getID3TextFrames(id3tag, "TPE3")

	// ID3v2.4 recording date, then ID3v2.3 year
	if date := yearOf(getID3TextFrame(id3tag, "TDRC")); date != "" {
		md.Year = date
	} else if year := yearOf(getID3TextFrame(id3tag, "TYER")); year != "" {
		md.Year = year
	}

	md.Gain = firstGain(
		getID3TXXXFrame(id3tag, "replaygain_track_gain"),
		getID3TXXXFrame(id3tag, "replaygain_album_gain"),
	)
	md.Peak = firstGain(
		getID3TXXXFrame(id3tag, "replaygain_track_peak"),
		getID3TXXXFrame(id3tag, "replaygain_album_peak"),
	)

	if md.Cover == nil {
		md.Cover, md.CoverMIME = getID3Picture(id3tag)
	}
}

// readMP3WithID3v2 reads MP3 metadata using only the id3v2 library.
// This is used as a fallback when dhowden/tag fails (e.g., on some UTF-16 encoded tags).
func readMP3WithID3v2(path string) (*Metadata, error) {
	id3tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		return nil, err
	}
	defer id3tag.Close()

	track, totalTracks := parseNumberPair(getID3TextFrame(id3tag, "TRCK"))
	disc, _ := parseNumberPair(getID3TextFrame(id3tag, "TPOS"))

	md := &Metadata{
		Path:        path,
		Title:       strings.TrimSpace(id3tag.Title()),
		Album:       strings.TrimSpace(id3tag.Album()),
		TrackNumber: track,
		TotalTracks: totalTracks,
		DiscNumber:  disc,
		Year:        yearOf(id3tag.Year()),
	}
	applyID3Frames(id3tag, md)

	if md.Title == "" {
		md.Title = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return md, nil
}

// getID3TextFrame reads a text frame value from an ID3v2 tag.
func getID3TextFrame(id3tag *id3v2.Tag, frameID string) string {
	frames := id3tag.GetFrames(frameID)
	if len(frames) == 0 {
		return ""
	}
	if tf, ok := frames[0].(id3v2.TextFrame); ok {
		return strings.TrimSpace(tf.Text)
	}
	return ""
}

// getID3TextFrames returns every value of a text frame. ID3v2.4 separates
// multiple values with NUL, older taggers use ";" or "/".
func getID3TextFrames(id3tag *id3v2.Tag, frameID string) []string {
	var values []string
	for _, frame := range id3tag.GetFrames(frameID) {
		tf, ok := frame.(id3v2.TextFrame)
		if !ok {
			continue
		}
		values = append(values, splitArtists(tf.Text)...)
	}
	return values
}

// getID3TXXXFrame reads a user-defined text frame (TXXX) value.
// Descriptions compare case-insensitively.
func getID3TXXXFrame(id3tag *id3v2.Tag, description string) string {
	frames := id3tag.GetFrames("TXXX")
	for _, frame := range frames {
		if txxx, ok := frame.(id3v2.UserDefinedTextFrame); ok {
			if strings.EqualFold(txxx.Description, description) {
				return txxx.Value
			}
		}
	}
	return ""
}

// getID3Picture prefers the front cover and takes any picture otherwise.
func getID3Picture(id3tag *id3v2.Tag) ([]byte, string) {
	var fallback *id3v2.PictureFrame
	for _, frame := range id3tag.GetFrames("APIC") {
		pic, ok := frame.(id3v2.PictureFrame)
		if !ok || len(pic.Picture) == 0 {
			continue
		}
		if pic.PictureType == id3v2.PTFrontCover {
			return pic.Picture, pic.MimeType
		}
		if fallback == nil {
			fallback = &pic
		}
	}
	if fallback != nil {
		return fallback.Picture, fallback.MimeType
	}
	return nil, ""
}
