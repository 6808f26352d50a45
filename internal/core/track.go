package core

import (
	"fmt"
	"strings"
)

// Track is a single entry in the catalog manifest.
type Track struct {
	ID      string `json:"id"`
	Artist  string `json:"artist,omitempty"`
	Album   string `json:"album,omitempty"`
	Title   string `json:"title,omitempty"`
	Year    string `json:"year,omitempty"`
	Path    string `json:"path"`
	Artwork string `json:"artwork,omitempty"`
}

const unknown = "???"

// DisplayArtist returns the artist or a placeholder.
func (t Track) DisplayArtist() string {
	return orUnknown(t.Artist)
}

// DisplayTitle returns the title or a placeholder.
func (t Track) DisplayTitle() string {
	return orUnknown(t.Title)
}

// DisplayAlbum returns the album or a placeholder.
func (t Track) DisplayAlbum() string {
	return orUnknown(t.Album)
}

// DisplayYear returns the year or a placeholder.
func (t Track) DisplayYear() string {
	return orUnknown(t.Year)
}

// String formats the track as "Artist - Title".
func (t Track) String() string {
	return fmt.Sprintf("%s - %s", t.DisplayArtist(), t.DisplayTitle())
}

// SearchText is the lowercased text matched by catalog search.
func (t Track) SearchText() string {
	return strings.ToLower(strings.Join([]string{t.Artist, t.Album, t.Title, t.Year}, " "))
}

// DownloadName is the file name used when saving the track.
func (t Track) DownloadName() string {
	artist, title := t.Artist, t.Title
	if artist == "" {
		artist = "Unknown"
	}
	if title == "" {
		title = "Unknown"
	}
	return sanitizeFilename(fmt.Sprintf("%s - %s.mp3", artist, title))
}

func orUnknown(s string) string {
	if s == "" {
		return unknown
	}
	return s
}

func sanitizeFilename(name string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', 0:
			return '_'
		}
		return r
	}, name)
}

// Manifest is the catalog document served by the CDN.
type Manifest struct {
	Tracks []Track `json:"tracks"`
}

// Catalog is an immutable, indexed view of a manifest's tracks.
type Catalog struct {
	tracks []Track
	byID   map[string]int
}

// NewCatalog indexes tracks. Tracks with an empty or duplicate id are
// dropped, keeping the first occurrence.
func NewCatalog(tracks []Track) *Catalog {
	c := &Catalog{
		tracks: make([]Track, 0, len(tracks)),
		byID:   make(map[string]int, len(tracks)),
	}
	for _, t := range tracks {
		if t.ID == "" {
			continue
		}
		if _, dup := c.byID[t.ID]; dup {
			continue
		}
		c.byID[t.ID] = len(c.tracks)
		c.tracks = append(c.tracks, t)
	}
	return c
}

// Tracks returns a copy of the catalog's tracks in manifest order.
func (c *Catalog) Tracks() []Track {
	if c == nil {
		return nil
	}
	out := make([]Track, len(c.tracks))
	copy(out, c.tracks)
	return out
}

// Len returns the number of tracks.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.tracks)
}

// IsEmpty returns true if the catalog has no tracks.
func (c *Catalog) IsEmpty() bool {
	return c.Len() == 0
}

// At returns the i-th track.
func (c *Catalog) At(i int) Track {
	return c.tracks[i]
}

// ByID looks a track up by id.
func (c *Catalog) ByID(id string) (Track, bool) {
	if c == nil {
		return Track{}, false
	}
	i, ok := c.byID[id]
	if !ok {
		return Track{}, false
	}
	return c.tracks[i], true
}

// ByPath looks a track up by media path.
func (c *Catalog) ByPath(path string) (Track, bool) {
	if c == nil {
		return Track{}, false
	}
	for _, t := range c.tracks {
		if t.Path == path {
			return t, true
		}
	}
	return Track{}, false
}

// Contains reports whether id is in the catalog.
func (c *Catalog) Contains(id string) bool {
	_, ok := c.ByID(id)
	return ok
}
