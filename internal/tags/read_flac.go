package tags

import (
	"strings"
	"time"

	goflac "github.com/go-flac/go-flac"
)

// readFLACExtendedTags reads the Vorbis comment block directly so that
// multi-valued fields and replay gain survive.
func readFLACExtendedTags(path string, md *Metadata) {
	f, err := goflac.ParseFile(path)
	if err != nil {
		return
	}

	for _, meta := range f.Meta {
		if meta.Type == goflac.VorbisComment {
			applyVorbisComments(parseVorbisComments(meta.Data), md)
			return
		}
	}
}

// applyVorbisComments copies the fields dhowden/tag flattens or drops.
func applyVorbisComments(c vorbisComments, md *Metadata) {
	if artists := c.all("ARTIST"); len(artists) > 0 {
		md.Artists = artists
	}
	md.Performers = c.all("PERFORMER")

	if date := yearOf(c.first("DATE", "YEAR")); date != "" {
		md.Year = date
	}
	if md.TotalTracks == 0 {
		md.TotalTracks, _ = parseNumberPair(c.first("TOTALTRACKS", "TRACKTOTAL"))
	}

	md.Gain = firstGain(c.first("REPLAYGAIN_TRACK_GAIN"), c.first("REPLAYGAIN_ALBUM_GAIN"),
		c.first("RG_AUDIOPHILE"), c.first("RG_RADIO"))
	md.Peak = firstGain(c.first("REPLAYGAIN_TRACK_PEAK"), c.first("REPLAYGAIN_ALBUM_PEAK"),
		c.first("RG_PEAK"))
}

// vorbisComments maps upper-cased field names to their values in file order.
type vorbisComments map[string][]string

func (c vorbisComments) first(keys ...string) string {
	for _, k := range keys {
		if v := c[k]; len(v) > 0 {
			return v[0]
		}
	}
	return ""
}

func (c vorbisComments) all(key string) []string {
	return nonEmpty(c[key])
}

// parseVorbisComments parses a raw Vorbis comment block.
func parseVorbisComments(data []byte) vorbisComments {
	comments := make(vorbisComments)

	if len(data) < 4 {
		return comments
	}

	// Skip vendor string
	vendorLen := int(data[0]) | int(data[1])<<8 | int(data[2])<<16 | int(data[3])<<24
	pos := 4 + vendorLen
	if vendorLen < 0 || pos+4 > len(data) {
		return comments
	}

	commentCount := int(data[pos]) | int(data[pos+1])<<8 | int(data[pos+2])<<16 | int(data[pos+3])<<24
	pos += 4

	for i := 0; i < commentCount && pos+4 <= len(data); i++ {
		commentLen := int(data[pos]) | int(data[pos+1])<<8 | int(data[pos+2])<<16 | int(data[pos+3])<<24
		pos += 4

		if commentLen < 0 || pos+commentLen > len(data) {
			break
		}

		comment := string(data[pos : pos+commentLen])
		pos += commentLen

		// Split on first '='
		if idx := strings.Index(comment, "="); idx > 0 {
			key := strings.ToUpper(comment[:idx])
			comments[key] = append(comments[key], comment[idx+1:])
		}
	}

	return comments
}

// readFLACStreamDuration computes the duration from the STREAMINFO block.
func readFLACStreamDuration(path string) time.Duration {
	f, err := goflac.ParseFile(path)
	if err != nil {
		return 0
	}

	for _, meta := range f.Meta {
		if meta.Type != goflac.StreamInfo || len(meta.Data) < 18 {
			continue
		}
		data := meta.Data

		// Sample rate: 20 bits starting at byte 10
		sampleRate := int(data[10])<<12 | int(data[11])<<4 | int(data[12])>>4
		// Total samples: 36 bits starting in the low nibble of byte 13
		totalSamples := int64(data[13]&0x0F)<<32 | int64(data[14])<<24 | int64(data[15])<<16 | int64(data[16])<<8 | int64(data[17])

		if sampleRate == 0 {
			return 0
		}
		return time.Duration(float64(totalSamples) / float64(sampleRate) * float64(time.Second))
	}
	return 0
}
