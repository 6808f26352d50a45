package wizard

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/tessro/needle/internal/catalog"
	"github.com/tessro/needle/internal/core"
)

const maxVisible = 12

// PickerModel is the bubbletea model for the track picker.
type PickerModel struct {
	input    textinput.Model
	tracks   []core.Track
	results  []core.Track
	cursor   int
	selected *core.Track
	width    int
	height   int
}

// Styles
var (
	pickerTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("205"))

	pickerItemStyle = lipgloss.NewStyle().
			PaddingLeft(2)

	pickerSelectedStyle = lipgloss.NewStyle().
				PaddingLeft(2).
				Background(lipgloss.Color("237"))

	pickerSubtitleStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("243"))
)

// NewPickerModel creates a picker over tracks, pre-filtered by query.
func NewPickerModel(tracks []core.Track, query string) PickerModel {
	ti := textinput.New()
	ti.Placeholder = "Filter by artist, album, title, year..."
	ti.SetValue(query)
	ti.CursorEnd()
	ti.Focus()
	ti.CharLimit = 100
	ti.Width = 50

	return PickerModel{
		input:   ti,
		tracks:  tracks,
		results: catalog.Filter(tracks, query),
		width:   80,
		height:  20,
	}
}

// Init initializes the model.
func (m PickerModel) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles messages.
func (m PickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			return m, tea.Quit

		case "enter":
			if m.cursor < len(m.results) {
				t := m.results[m.cursor]
				m.selected = &t
			}
			return m, tea.Quit

		case "up", "ctrl+p":
			if m.cursor > 0 {
				m.cursor--
			}
			return m, nil

		case "down", "ctrl+n":
			if m.cursor < len(m.results)-1 {
				m.cursor++
			}
			return m, nil
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	}

	before := m.input.Value()
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if m.input.Value() != before {
		m.results = catalog.Filter(m.tracks, m.input.Value())
		m.cursor = 0
	}
	return m, cmd
}

// View renders the model.
func (m PickerModel) View() string {
	var b strings.Builder

	b.WriteString(pickerTitleStyle.Render("🎵 Pick a track"))
	b.WriteString("\n\n")
	b.WriteString(m.input.View())
	b.WriteString("\n\n")

	if len(m.results) == 0 {
		b.WriteString(pickerSubtitleStyle.Render("No matching tracks"))
		b.WriteString("\n")
	}

	start := 0
	if m.cursor >= maxVisible {
		start = m.cursor - maxVisible + 1
	}
	for i := start; i < len(m.results) && i < start+maxVisible; i++ {
		t := m.results[i]
		line := t.DisplayTitle() + " " + pickerSubtitleStyle.Render(t.DisplayArtist()+" · "+t.DisplayAlbum())
		if i == m.cursor {
			b.WriteString(pickerSelectedStyle.Render("▸ " + line))
		} else {
			b.WriteString(pickerItemStyle.Render("  " + line))
		}
		b.WriteString("\n")
	}
	if rest := len(m.results) - start - maxVisible; rest > 0 {
		b.WriteString(pickerSubtitleStyle.Render(fmt.Sprintf("  ...and %d more", rest)))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(pickerSubtitleStyle.Render("↑/↓ navigate • enter select • esc cancel"))
	return b.String()
}

// Selected returns the selected track, or nil if none.
func (m PickerModel) Selected() *core.Track {
	return m.selected
}

// RunPicker runs the picker and returns the selected track.
func RunPicker(tracks []core.Track, query string) (*core.Track, error) {
	p := tea.NewProgram(NewPickerModel(tracks, query))
	finalModel, err := p.Run()
	if err != nil {
		return nil, err
	}
	return finalModel.(PickerModel).Selected(), nil
}
