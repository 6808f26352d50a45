package wizard

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/tessro/needle/internal/core"
)

func pickerTracks() []core.Track {
	return []core.Track{
		{ID: "1", Artist: "Burial", Title: "Archangel"},
		{ID: "2", Artist: "Burial", Title: "Near Dark"},
		{ID: "3", Artist: "Boards of Canada", Title: "Roygbiv"},
	}
}

func update(m PickerModel, msgs ...tea.Msg) PickerModel {
	for _, msg := range msgs {
		next, _ := m.Update(msg)
		m = next.(PickerModel)
	}
	return m
}

func TestPickerFilters(t *testing.T) {
	m := NewPickerModel(pickerTracks(), "burial")
	if len(m.results) != 2 {
		t.Fatalf("results = %d, want 2", len(m.results))
	}

	m = update(NewPickerModel(pickerTracks(), ""), tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("near")})
	if len(m.results) != 1 || m.results[0].ID != "2" {
		t.Errorf("results = %+v, want only track 2", m.results)
	}
}

func TestPickerSelect(t *testing.T) {
	m := NewPickerModel(pickerTracks(), "")
	m = update(m,
		tea.KeyMsg{Type: tea.KeyDown},
		tea.KeyMsg{Type: tea.KeyDown},
		tea.KeyMsg{Type: tea.KeyDown},
		tea.KeyMsg{Type: tea.KeyUp},
		tea.KeyMsg{Type: tea.KeyEnter},
	)
	if m.Selected() == nil || m.Selected().ID != "2" {
		t.Errorf("Selected() = %+v, want track 2", m.Selected())
	}
}

func TestPickerCancel(t *testing.T) {
	m := update(NewPickerModel(pickerTracks(), ""), tea.KeyMsg{Type: tea.KeyEsc})
	if m.Selected() != nil {
		t.Errorf("Selected() = %+v, want nil", m.Selected())
	}
}

func TestNeedsTrack(t *testing.T) {
	if !NeedsTrack(nil) {
		t.Error("NeedsTrack(nil) = false")
	}
	if NeedsTrack([]string{"x"}) {
		t.Error("NeedsTrack([x]) = true")
	}
}
