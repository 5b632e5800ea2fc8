// Package library models the MPD music library: tracks parsed from the MPD
// database dump, rating overlays read from sticker or stats databases, and the
// on-disk cache of the combined snapshot.
package library

import (
	"maps"

	"github.com/mpdspl/mpdspl/internal/keyword"
)

// Track is one song of the library, keyed by lower-cased attribute names.
// Every non-overlay keyword attribute is present, defaulting to the empty
// string; rating attributes exist only when a ratings source supplied them.
type Track struct {
	attrs map[string]string
}

func newTrack() Track {
	t := Track{attrs: make(map[string]string, len(keyword.Attributes()))}
	for _, attr := range keyword.Attributes() {
		if !keyword.IsOverlay(attr) {
			t.attrs[attr] = ""
		}
	}
	return t
}

// NewTrack builds a track from attribute values, filling in defaults for any
// keyword attribute that is missing.
func NewTrack(attrs map[string]string) Track {
	t := newTrack()
	for k, v := range attrs {
		t.attrs[k] = v
	}
	return t
}

// Attr returns the value of an attribute, or "" when it is unset.
func (t Track) Attr(name string) string {
	return t.attrs[name]
}

// Lookup returns the value of an attribute and whether it is set at all.
func (t Track) Lookup(name string) (string, bool) {
	v, ok := t.attrs[name]
	return v, ok
}

// File returns the track's identity, its path relative to the music directory.
func (t Track) File() string {
	return t.attrs[keyword.AttrFile]
}

// Attributes returns a copy of every attribute of the track.
func (t Track) Attributes() map[string]string {
	return maps.Clone(t.attrs)
}

// SortKey is the concatenation used to order playlists.
func (t Track) SortKey() string {
	return t.attrs[keyword.AttrArtist] + t.attrs[keyword.AttrAlbum] + t.attrs[keyword.AttrTitle]
}

func (t Track) set(name, value string) {
	t.attrs[name] = value
}
