package tags

import (
	"path/filepath"
	"strings"

	"go.senan.xyz/taglib"
)

// readWithTaglib reads metadata using TagLib as fallback when dhowden/tag fails.
func readWithTaglib(path string) (*Metadata, error) {
	rawTags, err := taglib.ReadTags(path)
	if err != nil {
		return nil, err
	}
	tags := taglibTags(rawTags)

	track, totalTracks := parseNumberPair(tags.get(taglib.TrackNumber))
	if totalTracks == 0 {
		totalTracks = tags.getInt("TRACKTOTAL")
	}
	if totalTracks == 0 {
		totalTracks = tags.getInt("TOTALTRACKS")
	}

	md := &Metadata{
		Path:        path,
		Title:       strings.TrimSpace(tags.get(taglib.Title)),
		Album:       strings.TrimSpace(tags.get(taglib.Album)),
		TrackNumber: track,
		TotalTracks: totalTracks,
		DiscNumber:  tags.getInt(taglib.DiscNumber),
	}
	applyTaglibTags(tags, md)

	if md.Title == "" {
		md.Title = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return md, nil
}

// readTaglibExtendedTags reads multi-valued fields and replay gain from
// Ogg and MP4 containers.
func readTaglibExtendedTags(path string, md *Metadata) {
	rawTags, err := taglib.ReadTags(path)
	if err != nil {
		return
	}
	applyTaglibTags(taglibTags(rawTags), md)
}

func applyTaglibTags(tags taglibTags, md *Metadata) {
	if artists := tags.all(taglib.Artist); len(artists) > 0 {
		md.Artists = artists
	}
	md.Performers = tags.all("PERFORMER")

	if date := yearOf(tags.get(taglib.Date)); date != "" {
		md.Year = date
	}

	md.Gain = firstGain(tags.get("REPLAYGAIN_TRACK_GAIN"), tags.get("REPLAYGAIN_ALBUM_GAIN"))
	md.Peak = firstGain(tags.get("REPLAYGAIN_TRACK_PEAK"), tags.get("REPLAYGAIN_ALBUM_PEAK"))
}
