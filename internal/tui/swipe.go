package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/tessro/needle/internal/gesture"
	"github.com/tessro/needle/internal/session"
)

// Approximate cell size in pixels, so drags are measured against the same
// threshold as touch swipes.
const (
	cellWidth  = 8
	cellHeight = 16
)

type dragStart struct {
	x, y   int
	active bool
}

// trackSwipe records the press and classifies the drag on release.
func (m Model) trackSwipe(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	switch msg.Action {
	case tea.MouseActionPress:
		if msg.Button == tea.MouseButtonLeft {
			m.drag = dragStart{x: msg.X, y: msg.Y, active: true}
		}
		return m, nil

	case tea.MouseActionRelease:
		if !m.drag.active {
			return m, nil
		}
		start := m.drag
		m.drag = dragStart{}

		dir := swipeDirection(start, msg.X, msg.Y)
		if dir == gesture.None {
			return m, nil
		}
		return m.handle(session.SwipeEvent{Direction: dir})
	}
	return m, nil
}

func swipeDirection(start dragStart, x, y int) gesture.Token {
	dx := float64((x - start.x) * cellWidth)
	dy := float64((y - start.y) * cellHeight)
	return gesture.Classify(dx, dy)
}
