package catalog

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/tessro/needle/internal/access"
	"github.com/tessro/needle/internal/core"
)

func testCatalog() *core.Catalog {
	return core.NewCatalog([]core.Track{
		{ID: "1", Artist: "Aphex Twin", Album: "Drukqs", Title: "Avril 14th", Year: "2001", Path: "a/1.mp3"},
		{ID: "2", Artist: "Burial", Album: "Untrue", Title: "Archangel", Year: "2007", Path: "a/2.mp3"},
		{ID: "3", Artist: "Boards of Canada", Album: "Geogaddi", Title: "Dawn Chorus", Year: "2002", Path: "a/3.mp3"},
		{ID: "4", Path: "a/4.mp3"},
	})
}

func ids(tracks []core.Track) []string {
	out := make([]string, 0, len(tracks))
	for _, t := range tracks {
		out = append(out, t.ID)
	}
	return out
}

func TestSetQuery(t *testing.T) {
	tests := []struct {
		query string
		want  []string
	}{
		{"", []string{"1", "2", "3", "4"}},
		{"   ", []string{"1", "2", "3", "4"}},
		{"BURIAL", []string{"2"}},
		{"200", []string{"1", "2", "3"}},
		{"2002", []string{"3"}},
		{"drukqs", []string{"1"}},
		{"twin drukqs", []string{"1"}},
		{"chorus", []string{"3"}},
		{"zzz", []string{}},
	}

	b := NewBrowser(access.Secret, access.Secret)
	b.SetCatalog(testCatalog())

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			b.SetQuery(tt.query)
			if diff := cmp.Diff(tt.want, ids(b.Results())); diff != "" {
				t.Errorf("SetQuery(%q) mismatch (-want +got):\n%s", tt.query, diff)
			}
		})
	}
}

func TestSetCatalogKeepsQuery(t *testing.T) {
	b := NewBrowser(access.Secret, access.Secret)
	b.SetQuery("burial")
	if b.Len() != 0 {
		t.Fatalf("Len() = %d before a catalog is set", b.Len())
	}
	b.SetCatalog(testCatalog())
	if diff := cmp.Diff([]string{"2"}, ids(b.Results())); diff != "" {
		t.Errorf("Results() mismatch (-want +got):\n%s", diff)
	}
}

func TestRowsHighlightCurrent(t *testing.T) {
	b := NewBrowser(access.Secret, access.Secret)
	b.SetCatalog(testCatalog())
	b.SetQuery("200")

	rows := b.Rows("2")
	want := []bool{false, true, false}
	got := make([]bool, len(rows))
	for i, r := range rows {
		got[i] = r.Playing
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Rows() playing mismatch (-want +got):\n%s", diff)
	}

	// Same inputs give the same output.
	if diff := cmp.Diff(rows, b.Rows("2")); diff != "" {
		t.Errorf("Rows() is not deterministic:\n%s", diff)
	}

	for _, r := range b.Rows("") {
		if r.Playing {
			t.Errorf("Rows(\"\") marked %s as playing", r.Track.ID)
		}
	}
}

func TestVisibility(t *testing.T) {
	b := NewBrowser(access.Authenticated, access.Secret)

	tests := []struct {
		tier        access.Tier
		visible     bool
		canDownload bool
	}{
		{access.Guest, false, false},
		{access.Authenticated, true, false},
		{access.Secret, true, true},
	}
	for _, tt := range tests {
		t.Run(tt.tier.String(), func(t *testing.T) {
			if got := b.Visible(tt.tier); got != tt.visible {
				t.Errorf("Visible(%s) = %v, want %v", tt.tier, got, tt.visible)
			}
			if got := b.CanDownload(tt.tier); got != tt.canDownload {
				t.Errorf("CanDownload(%s) = %v, want %v", tt.tier, got, tt.canDownload)
			}
		})
	}
}
