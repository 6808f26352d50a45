package components

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/tessro/needle/internal/catalog"
	"github.com/tessro/needle/internal/tui/styles"
)

// TrackList displays the filtered catalog
type TrackList struct {
	rows     []catalog.Row
	offset   int
	selected int
}

// NewTrackList creates a new TrackList component
func NewTrackList() *TrackList {
	return &TrackList{}
}

// SetRows replaces the listed tracks and keeps the cursor in range.
func (l *TrackList) SetRows(rows []catalog.Row) {
	l.rows = rows
	if l.selected >= len(rows) {
		l.selected = len(rows) - 1
	}
	if l.selected < 0 {
		l.selected = 0
	}
}

// Len returns the number of listed tracks.
func (l *TrackList) Len() int {
	return len(l.rows)
}

// SelectNext moves the cursor down
func (l *TrackList) SelectNext() {
	if l.selected < len(l.rows)-1 {
		l.selected++
	}
}

// SelectPrev moves the cursor up
func (l *TrackList) SelectPrev() {
	if l.selected > 0 {
		l.selected--
	}
}

// Selected returns the selected row's track id, or "" when empty.
func (l *TrackList) Selected() string {
	if l.selected < 0 || l.selected >= len(l.rows) {
		return ""
	}
	return l.rows[l.selected].Track.ID
}

// Render renders the track list panel
func (l *TrackList) Render(width, height int, focused, canDownload bool) string {
	title := fmt.Sprintf("Catalog (%d)", len(l.rows))
	if canDownload {
		title += " ⬇"
	}

	var content string
	if len(l.rows) == 0 {
		content = styles.Muted.Render("No matching tracks")
	} else {
		content = l.renderRows(width-4, height-4)
	}

	panel := styles.Panel(focused).
		Width(width).
		Height(height)

	return panel.Render(lipgloss.JoinVertical(lipgloss.Left,
		styles.PanelTitle(title, focused),
		"",
		content,
	))
}

func (l *TrackList) renderRows(width, maxLines int) string {
	visible := maxLines - 1 // room for the "more" indicator
	if visible < 1 {
		visible = 1
	}

	// Keep the cursor on screen
	if l.selected < l.offset {
		l.offset = l.selected
	}
	if l.selected >= l.offset+visible {
		l.offset = l.selected - visible + 1
	}
	if l.offset >= len(l.rows) {
		l.offset = 0
	}

	end := l.offset + visible
	if end > len(l.rows) {
		end = len(l.rows)
	}

	lines := make([]string, 0, end-l.offset+1)

	// Fixed overhead: "▶ " (2) + " — " (3) + " (yyyy)" (7)
	const overhead = 12

	for i := l.offset; i < end; i++ {
		row := l.rows[i]
		t := row.Track

		title, artist := fit(t.DisplayTitle(), t.DisplayArtist(), width-overhead, 10)
		year := styles.Dim.Render(" (" + t.DisplayYear() + ")")

		var line string
		switch {
		case row.Playing:
			line = styles.Playing.Render(fmt.Sprintf("▶ %s — %s", title, artist)) + year
		default:
			line = fmt.Sprintf("  %s — %s%s", title, styles.Muted.Render(artist), year)
		}
		if i == l.selected {
			line = styles.Selected.Render(line)
		}
		lines = append(lines, line)
	}

	if end < len(l.rows) {
		lines = append(lines, styles.Dim.Render(fmt.Sprintf("  ... and %d more", len(l.rows)-end)))
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

// fit truncates title and artist to share available columns, giving the
// artist at least a third of the space (never less than minArtist).
func fit(title, artist string, available, minArtist int) (string, string) {
	titleLen := runewidth.StringWidth(title)
	artistLen := runewidth.StringWidth(artist)
	if titleLen+artistLen <= available {
		return title, artist
	}

	artistSpace := available / 3
	if artistSpace < minArtist {
		artistSpace = minArtist
	}
	if artistSpace > available-minArtist {
		artistSpace = available - minArtist
	}
	if artistLen < artistSpace {
		artistSpace = artistLen
	}

	return truncate(title, available-artistSpace), truncate(artist, artistSpace)
}

func truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	return runewidth.Truncate(s, max, "...")
}
