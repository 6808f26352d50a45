// Package catalog filters the track list for the tier-gated browser.
package catalog

import (
	"strings"

	"github.com/tessro/needle/internal/access"
	"github.com/tessro/needle/internal/core"
)

// Row is one rendered line of the track list.
type Row struct {
	Track   core.Track
	Playing bool
}

// Browser holds a search query over a catalog.
type Browser struct {
	catalog      *core.Catalog
	query        string
	filtered     []core.Track
	browseTier   access.Tier
	downloadTier access.Tier
}

// NewBrowser creates a browser requiring browseTier to be shown and
// downloadTier to offer downloads.
func NewBrowser(browseTier, downloadTier access.Tier) *Browser {
	return &Browser{browseTier: browseTier, downloadTier: downloadTier}
}

// SetCatalog replaces the catalog and reapplies the current query.
func (b *Browser) SetCatalog(c *core.Catalog) {
	b.catalog = c
	b.filter()
}

// SetQuery filters the catalog by a case-insensitive substring over
// artist, album, title and year. An empty query shows everything.
func (b *Browser) SetQuery(text string) {
	b.query = strings.ToLower(strings.TrimSpace(text))
	b.filter()
}

// Query returns the normalized query.
func (b *Browser) Query() string {
	return b.query
}

func (b *Browser) filter() {
	b.filtered = Filter(b.catalog.Tracks(), b.query)
}

// Filter returns the tracks matching query, in order.
func Filter(tracks []core.Track, query string) []core.Track {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return tracks
	}
	var out []core.Track
	for _, t := range tracks {
		if strings.Contains(t.SearchText(), query) {
			out = append(out, t)
		}
	}
	return out
}

// Results returns the filtered tracks.
func (b *Browser) Results() []core.Track {
	return b.filtered
}

// Len returns the number of filtered tracks.
func (b *Browser) Len() int {
	return len(b.filtered)
}

// Rows renders the filtered tracks, marking currentID as playing.
func (b *Browser) Rows(currentID string) []Row {
	return Rows(b.filtered, currentID)
}

// Rows renders tracks, marking currentID as playing.
func Rows(tracks []core.Track, currentID string) []Row {
	rows := make([]Row, len(tracks))
	for i, t := range tracks {
		rows[i] = Row{Track: t, Playing: currentID != "" && t.ID == currentID}
	}
	return rows
}

// Visible reports whether the browser is shown at tier.
func (b *Browser) Visible(tier access.Tier) bool {
	return tier >= b.browseTier
}

// CanDownload reports whether downloads are offered at tier.
func (b *Browser) CanDownload(tier access.Tier) bool {
	return tier >= b.downloadTier
}
