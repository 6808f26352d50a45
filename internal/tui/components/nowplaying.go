package components

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/tessro/needle/internal/core"
	"github.com/tessro/needle/internal/tui/styles"
)

// NowPlaying displays the current track
type NowPlaying struct {
	// MediaURL resolves artwork paths; without it no artwork line is shown.
	MediaURL func(path string) (string, error)
}

// NewNowPlaying creates a new NowPlaying component
func NewNowPlaying() *NowPlaying {
	return &NowPlaying{}
}

// Render renders the now playing panel. heard is the share of the catalog
// already played, in percent.
func (n *NowPlaying) Render(state *core.PlaybackState, heard, width, height int, focused bool) string {
	title := styles.PanelTitle("Now Playing", focused)

	var content string
	if !state.HasTrack() {
		content = styles.Muted.Render("Nothing playing")
	} else {
		content = n.renderTrack(state, heard, width-4)
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

func (n *NowPlaying) renderTrack(state *core.PlaybackState, heard, width int) string {
	track := state.Track

	icon := styles.StatusIcon(state.IsPlaying)
	title := styles.Title.Width(width - 4).Render(track.DisplayTitle())

	artist := styles.Subtitle.Render(track.DisplayArtist())
	album := styles.Dim.Render(fmt.Sprintf("%s (%s)", track.DisplayAlbum(), track.DisplayYear()))

	progressWidth := width - 14
	if progressWidth < 10 {
		progressWidth = 10
	}
	bar := styles.ProgressBar(state.ProgressPercent(), progressWidth)
	progress := fmt.Sprintf("%s %s %s", formatDuration(state.Position), bar, formatDuration(state.Duration))

	info := styles.Muted.Render(fmt.Sprintf("🔊 %d%%   %d%% of the catalog heard", state.Volume, heard))

	lines := []string{
		icon + " " + title,
		"  " + artist,
		"  " + album,
		"",
		progress,
		"",
		info,
		styles.Dim.Render("🔗 " + truncate("#"+core.EncodeTrackLink(track.Path), width-4)),
	}
	if art := n.artworkURL(track); art != "" {
		lines = append(lines, styles.Dim.Render("🖼 "+truncate(art, width-4)))
	}
	lines = append(lines, n.renderControls(state))
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func (n *NowPlaying) artworkURL(track *core.Track) string {
	if track.Artwork == "" || n.MediaURL == nil {
		return ""
	}
	u, err := n.MediaURL(track.Artwork)
	if err != nil {
		return ""
	}
	return u
}

func (n *NowPlaying) renderControls(state *core.PlaybackState) string {
	controls := styles.Dim.Render("⏮ ")

	if state.IsPlaying {
		controls += styles.Playing.Render("⏸")
	} else {
		controls += styles.Paused.Render("▶")
	}

	controls += styles.Dim.Render(" ⏭")

	return lipgloss.NewStyle().
		Align(lipgloss.Center).
		Render(controls)
}

func formatDuration(d time.Duration) string {
	if d <= 0 {
		return "-:--"
	}
	d = d.Round(time.Second)
	m := d / time.Minute
	s := (d % time.Minute) / time.Second
	return fmt.Sprintf("%d:%02d", m, s)
}
