package components

import (
	"strings"
	"testing"
	"time"

	"github.com/tessro/needle/internal/catalog"
	"github.com/tessro/needle/internal/core"
)

func TestTrackListCursor(t *testing.T) {
	l := NewTrackList()
	if got := l.Selected(); got != "" {
		t.Errorf("Selected() on empty list = %q, want empty", got)
	}

	l.SetRows([]catalog.Row{
		{Track: core.Track{ID: "1", Title: "One"}},
		{Track: core.Track{ID: "2", Title: "Two"}, Playing: true},
		{Track: core.Track{ID: "3", Title: "Three"}},
	})
	l.SelectPrev()
	if got := l.Selected(); got != "1" {
		t.Errorf("Selected() = %q, want 1", got)
	}
	l.SelectNext()
	l.SelectNext()
	l.SelectNext()
	if got := l.Selected(); got != "3" {
		t.Errorf("Selected() = %q, want 3", got)
	}

	l.SetRows([]catalog.Row{{Track: core.Track{ID: "1"}}})
	if got := l.Selected(); got != "1" {
		t.Errorf("Selected() after shrink = %q, want 1", got)
	}
}

func TestTrackListRender(t *testing.T) {
	l := NewTrackList()
	l.SetRows([]catalog.Row{
		{Track: core.Track{ID: "1", Artist: "Burial", Title: "Archangel", Year: "2007"}, Playing: true},
	})

	out := l.Render(60, 10, true, false)
	for _, want := range []string{"Catalog (1)", "Archangel", "Burial", "2007"} {
		if !strings.Contains(out, want) {
			t.Errorf("Render() missing %q:\n%s", want, out)
		}
	}
}

func TestFit(t *testing.T) {
	title, artist := fit("Short", "Band", 40, 10)
	if title != "Short" || artist != "Band" {
		t.Errorf("fit() = %q, %q; want unchanged", title, artist)
	}

	title, artist = fit(strings.Repeat("t", 50), strings.Repeat("a", 50), 30, 10)
	if len(title)+len(artist) > 30 {
		t.Errorf("fit() = %d + %d columns, want at most 30", len(title), len(artist))
	}
	if !strings.HasSuffix(title, "...") {
		t.Errorf("fit() title = %q, want ellipsis", title)
	}
}

func TestHistory(t *testing.T) {
	h := NewHistory()
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	for i := 0; i < MaxHistory+5; i++ {
		h.Add(core.Track{ID: "x"}, now)
	}
	if got := len(h.Entries()); got != MaxHistory {
		t.Errorf("len(Entries()) = %d, want %d", got, MaxHistory)
	}

	h.Add(core.Track{ID: "new", Title: "Newest"}, now)
	h.MarkSkipped()
	if e := h.Entries()[0]; e.Track.ID != "new" || !e.Skipped {
		t.Errorf("Entries()[0] = %+v, want skipped newest entry", e)
	}
}

func TestFormatTimeAgo(t *testing.T) {
	at := time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		d    time.Duration
		want string
	}{
		{10 * time.Second, "now"},
		{5 * time.Minute, "5m"},
		{3 * time.Hour, "3h"},
		{48 * time.Hour, "Mar 9"},
	}
	for _, tt := range tests {
		if got := formatTimeAgo(tt.d, at); got != tt.want {
			t.Errorf("formatTimeAgo(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}

func TestFormatDuration(t *testing.T) {
	if got := formatDuration(0); got != "-:--" {
		t.Errorf("formatDuration(0) = %q", got)
	}
	if got := formatDuration(185 * time.Second); got != "3:05" {
		t.Errorf("formatDuration(185s) = %q, want 3:05", got)
	}
}

func TestNowPlayingShowsLinkAndArtwork(t *testing.T) {
	n := NewNowPlaying()
	n.MediaURL = func(path string) (string, error) { return "https://cdn.example.com/" + path, nil }

	track := core.Track{ID: "1", Artist: "Burial", Title: "Archangel", Path: "burial/archangel.mp3", Artwork: "art/untrue.jpg"}
	state := &core.PlaybackState{Track: &track, IsPlaying: true, Volume: 50}

	out := n.Render(state, 0, 120, 20, true)
	for _, want := range []string{"#" + core.EncodeTrackLink(track.Path), "https://cdn.example.com/art/untrue.jpg"} {
		if !strings.Contains(out, want) {
			t.Errorf("Render() missing %q:\n%s", want, out)
		}
	}

	track.Artwork = ""
	out = n.Render(state, 0, 120, 20, true)
	if strings.Contains(out, "🖼") {
		t.Errorf("Render() shows artwork for a track without any:\n%s", out)
	}
}
