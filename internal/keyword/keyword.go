// Package keyword holds the fixed table of track attributes that rules can
// refer to, addressed either by a short code or by the attribute's canonical
// name.
package keyword

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrUnknownAttribute is returned when a name matches neither a short code nor
// a canonical attribute name.
var ErrUnknownAttribute = errors.New("unknown track attribute")

// Keyword describes one addressable track attribute.
type Keyword struct {
	Code        string
	Canonical   string
	Description string
}

// Attribute returns the key under which tracks store this attribute.
func (k Keyword) Attribute() string {
	return strings.ToLower(k.Canonical)
}

var table = []Keyword{
	{Code: "ar", Canonical: "Artist", Description: "Artist"},
	{Code: "al", Canonical: "Album", Description: "Album"},
	{Code: "ti", Canonical: "Title", Description: "Title"},
	{Code: "tn", Canonical: "Track", Description: "Track number"},
	{Code: "ge", Canonical: "Genre", Description: "Genre"},
	{Code: "ye", Canonical: "Date", Description: "Track year"},
	{Code: "le", Canonical: "Time", Description: "Track duration (in seconds)"},
	{Code: "fp", Canonical: "file", Description: "File full path"},
	{Code: "fn", Canonical: "key", Description: "File name"},
	{Code: "mt", Canonical: "mtime", Description: "File modification time"},
	{Code: "ra", Canonical: "Rating", Description: "Track rating"},
	{Code: "raar", Canonical: "ArtistRating", Description: "Artist rating"},
	{Code: "raal", Canonical: "AlbumRating", Description: "Album rating"},
	{Code: "rag", Canonical: "GenreRating", Description: "Genre rating"},
	{Code: "pc", Canonical: "PlayCount", Description: "Play count"},
}

// index maps lower-cased codes and canonical names to table positions.
var index = buildIndex()

func buildIndex() map[string]int {
	idx := make(map[string]int, len(table)*2)
	for i, kw := range table {
		for _, name := range []string{kw.Code, kw.Canonical} {
			key := strings.ToLower(name)
			if prev, dup := idx[key]; dup && prev != i {
				panic(fmt.Sprintf("keyword: %q is ambiguous", name))
			}
			idx[key] = i
		}
	}
	return idx
}

// Resolve looks up a keyword by short code or canonical name, ignoring case.
func Resolve(name string) (Keyword, error) {
	i, ok := index[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Keyword{}, fmt.Errorf("%w: a track has no attribute %q", ErrUnknownAttribute, name)
	}
	return table[i], nil
}

// All returns every keyword sorted by short code.
func All() []Keyword {
	out := make([]Keyword, len(table))
	copy(out, table)
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

// Attributes returns the track attribute keys of every keyword, in table order.
func Attributes() []string {
	out := make([]string, 0, len(table))
	for _, kw := range table {
		out = append(out, kw.Attribute())
	}
	return out
}

// Well-known attribute keys used outside rule matching.
const (
	AttrFile   = "file"
	AttrKey    = "key"
	AttrArtist = "artist"
	AttrAlbum  = "album"
	AttrTitle  = "title"
)

// Overlay attribute keys filled in from a ratings source.
const (
	AttrRating       = "rating"
	AttrArtistRating = "artistrating"
	AttrAlbumRating  = "albumrating"
	AttrGenreRating  = "genrerating"
	AttrPlayCount    = "playcount"
)

// IsOverlay reports whether attr is only populated by a ratings source.
func IsOverlay(attr string) bool {
	switch attr {
	case AttrRating, AttrArtistRating, AttrAlbumRating, AttrGenreRating, AttrPlayCount:
		return true
	}
	return false
}
