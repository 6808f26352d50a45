package components

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/tessro/needle/internal/core"
	"github.com/tessro/needle/internal/tui/styles"
)

// MaxHistory caps the entries kept for the history panel.
const MaxHistory = 50

// HistoryEntry represents a track in play history
type HistoryEntry struct {
	Track    core.Track
	PlayedAt time.Time
	Skipped  bool
}

// History displays recently played tracks
type History struct {
	entries []HistoryEntry
}

// NewHistory creates a new History component
func NewHistory() *History {
	return &History{}
}

// Add records a newly started track, newest first.
func (h *History) Add(track core.Track, at time.Time) {
	h.entries = append([]HistoryEntry{{Track: track, PlayedAt: at}}, h.entries...)
	if len(h.entries) > MaxHistory {
		h.entries = h.entries[:MaxHistory]
	}
}

// MarkSkipped flags the newest entry as skipped.
func (h *History) MarkSkipped() {
	if len(h.entries) > 0 {
		h.entries[0].Skipped = true
	}
}

// Entries returns the entries, newest first.
func (h *History) Entries() []HistoryEntry {
	return h.entries
}

// Render renders the history panel
func (h *History) Render(width, height int, focused bool, now time.Time) string {
	title := styles.PanelTitle("History", focused)

	var content string
	if len(h.entries) == 0 {
		content = styles.Muted.Render("No history yet")
	} else {
		content = h.renderHistory(width-4, height-4, now)
	}

	panel := styles.Panel(focused).
		Width(width).
		Height(height)

	return panel.Render(lipgloss.JoinVertical(lipgloss.Left,
		title,
		"",
		content,
	))
}

func (h *History) renderHistory(width, maxLines int, now time.Time) string {
	lines := make([]string, 0, maxLines)

	// Fixed overhead: icon (2) + " — " (3) + padding for time
	const overhead = 6

	for i, entry := range h.entries {
		if i >= maxLines {
			break
		}

		timeAgo := formatTimeAgo(now.Sub(entry.PlayedAt), entry.PlayedAt)
		timeWidth := len(timeAgo)

		icon := "✓"
		if entry.Skipped {
			icon = "⏭"
		}

		title, artist := fit(entry.Track.DisplayTitle(), entry.Track.DisplayArtist(), width-overhead-timeWidth, 8)
		trackInfo := fmt.Sprintf("%s — %s", title, artist)

		padding := width - 2 - runewidth.StringWidth(trackInfo) - timeWidth
		if padding < 1 {
			padding = 1
		}

		line := fmt.Sprintf("%s %s%s%s",
			styles.Dim.Render(icon),
			trackInfo,
			lipgloss.NewStyle().Width(padding).Render(""),
			styles.Dim.Render(timeAgo))

		lines = append(lines, line)
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func formatTimeAgo(d time.Duration, t time.Time) string {
	if d < time.Minute {
		return "now"
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm", int(d.Minutes()))
	}
	if d < 24*time.Hour {
		return fmt.Sprintf("%dh", int(d.Hours()))
	}
	return t.Format("Jan 2")
}
