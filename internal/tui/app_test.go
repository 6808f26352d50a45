package tui

import (
	"context"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/tessro/needle/internal/access"
	"github.com/tessro/needle/internal/core"
	"github.com/tessro/needle/internal/gesture"
	"github.com/tessro/needle/internal/session"
	"github.com/tessro/needle/internal/store"
)

type stubPlayer struct {
	events chan core.PlayerEvent
	played []string
}

func (p *stubPlayer) Play(_ context.Context, t core.Track, _ string, _ time.Duration) error {
	p.played = append(p.played, t.ID)
	return nil
}
func (p *stubPlayer) Pause(context.Context) error { return nil }
func (p *stubPlayer) Resume(context.Context) error { return nil }
func (p *stubPlayer) Seek(context.Context, time.Duration) error { return nil }
func (p *stubPlayer) Volume(context.Context, int) error { return nil }
func (p *stubPlayer) Stop(context.Context) error { return nil }
func (p *stubPlayer) Events() <-chan core.PlayerEvent { return p.events }
func (p *stubPlayer) State(context.Context) (*core.PlaybackState, error) {
	return &core.PlaybackState{}, nil
}

type stubJar struct{ valid bool }

func (j *stubJar) Valid() bool    { return j.valid }
func (j *stubJar) Install() error { j.valid = true; return nil }

func newTestModel(t *testing.T) (Model, *session.Controller, *stubPlayer) {
	t.Helper()
	kv := store.NewMemory()
	c := session.New(session.Options{
		Gate:     access.NewGate(kv),
		Verifier: access.PasswordVerifier{Plain: "hunter2"},
		Jar:      &stubJar{},
		Store:    kv,
		Intn:     func(int) int { return 0 },
	})
	player := &stubPlayer{events: make(chan core.PlayerEvent)}
	app := &App{
		Controller: c,
		Executor: &session.Executor{
			Player:   player,
			MediaURL: func(p string) (string, error) { return "https://cdn.example.com/" + p, nil },
		},
		Player:  player,
		OpenURL: func(string) error { return nil },
	}
	m := NewModel(app)
	next, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	return next.(Model), c, player
}

func press(m Model, keys ...tea.KeyMsg) Model {
	for _, k := range keys {
		next, _ := m.Update(k)
		m = next.(Model)
	}
	return m
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestEnterScreenSequence(t *testing.T) {
	m, c, _ := newTestModel(t)

	m = press(m,
		tea.KeyMsg{Type: tea.KeyUp}, tea.KeyMsg{Type: tea.KeyUp},
		tea.KeyMsg{Type: tea.KeyDown}, tea.KeyMsg{Type: tea.KeyDown},
		tea.KeyMsg{Type: tea.KeyLeft}, tea.KeyMsg{Type: tea.KeyRight},
		tea.KeyMsg{Type: tea.KeyLeft}, tea.KeyMsg{Type: tea.KeyRight},
	)
	if c.Tier() != access.Authenticated {
		t.Fatalf("Tier() = %v, want authenticated", c.Tier())
	}
	if m.hint != session.ChordHint {
		t.Errorf("hint = %q, want %q", m.hint, session.ChordHint)
	}
	if !strings.Contains(m.View(), session.ChordHint) {
		t.Error("View() should show the chord hint")
	}

	m = press(m, runes("b"), runes("a"))
	if c.Tier() != access.Secret {
		t.Fatalf("Tier() = %v, want secret", c.Tier())
	}
	if m.unlockMsg == "" {
		t.Error("unlockMsg should be set after the chord")
	}
}

func TestEnterShowsPasswordPrompt(t *testing.T) {
	m, c, _ := newTestModel(t)

	m = press(m, tea.KeyMsg{Type: tea.KeyEnter})
	if !m.showPassword {
		t.Fatal("enter without access should show the password prompt")
	}

	for _, r := range "nope" {
		m = press(m, runes(string(r)))
	}
	m = press(m, tea.KeyMsg{Type: tea.KeyEnter})
	if m.passwordMsg != "wrong" {
		t.Errorf("passwordMsg = %q, want wrong", m.passwordMsg)
	}
	if m.password.Value() != "" {
		t.Errorf("password field = %q, want cleared", m.password.Value())
	}
	if c.Tier() != access.Guest {
		t.Errorf("Tier() = %v, want guest", c.Tier())
	}

	for _, r := range "hunter2" {
		m = press(m, runes(string(r)))
	}
	m = press(m, tea.KeyMsg{Type: tea.KeyEnter})
	if m.showPassword {
		t.Error("password prompt should close after a correct password")
	}
	if !m.loading {
		t.Error("model should be loading the catalog")
	}
	if c.State() != session.Loading {
		t.Errorf("State() = %v, want loading", c.State())
	}
}

func TestManifestStartsPlayback(t *testing.T) {
	m, c, player := newTestModel(t)
	m = press(m, tea.KeyMsg{Type: tea.KeyEnter})
	for _, r := range "hunter2" {
		m = press(m, runes(string(r)))
	}
	m = press(m, tea.KeyMsg{Type: tea.KeyEnter})

	next, _ := m.Update(manifestMsg{manifest: &core.Manifest{Tracks: []core.Track{
		{ID: "1", Artist: "Burial", Title: "Archangel", Path: "a.mp3"},
	}}})
	m = next.(Model)

	if c.Screen() != session.ScreenPlayer {
		t.Fatalf("Screen() = %v, want player", c.Screen())
	}
	if len(player.played) != 1 || player.played[0] != "1" {
		t.Errorf("played = %v, want [1]", player.played)
	}
	if got := len(m.historyView.Entries()); got != 1 {
		t.Errorf("history entries = %d, want 1", got)
	}
	if !strings.Contains(m.View(), "Archangel") {
		t.Error("View() should show the current track")
	}
}

func TestSwipeDirection(t *testing.T) {
	start := dragStart{x: 10, y: 10, active: true}
	tests := []struct {
		x, y int
		want gesture.Token
	}{
		{10, 10, gesture.None},
		{20, 10, gesture.Right},
		{0, 10, gesture.Left},
		{10, 5, gesture.Up},
		{10, 15, gesture.Down},
		{12, 11, gesture.None},
	}
	for _, tt := range tests {
		if got := swipeDirection(start, tt.x, tt.y); got != tt.want {
			t.Errorf("swipeDirection(%d, %d) = %v, want %v", tt.x, tt.y, got, tt.want)
		}
	}
}

func TestNormalizeKey(t *testing.T) {
	if got := normalizeKey(" "); got != "space" {
		t.Errorf("normalizeKey(space) = %q", got)
	}
	if got := normalizeKey("n"); got != "n" {
		t.Errorf("normalizeKey(n) = %q", got)
	}
}
