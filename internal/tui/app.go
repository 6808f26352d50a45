// Package tui is the interactive player.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"

	"github.com/tessro/needle/internal/access"
	"github.com/tessro/needle/internal/browser"
	"github.com/tessro/needle/internal/cdn"
	"github.com/tessro/needle/internal/core"
	needleerrors "github.com/tessro/needle/internal/errors"
	"github.com/tessro/needle/internal/session"
	"github.com/tessro/needle/internal/tui/components"
	"github.com/tessro/needle/internal/tui/styles"
)

// Panel represents which panel is focused
type Panel int

const (
	PanelNowPlaying Panel = iota
	PanelTracks
	PanelHistory
)

const numPanels = 3

// Player is the media player surface the UI needs.
type Player interface {
	core.MediaPlayer
	Events() <-chan core.PlayerEvent
}

// Downloader saves tracks locally.
type Downloader interface {
	Download(ctx context.Context, track core.Track, dir string, progress cdn.ProgressFunc) (cdn.DownloadResult, error)
}

// App holds the TUI application state
type App struct {
	Controller  *session.Controller
	Executor    *session.Executor
	Player      Player
	Fetcher     session.ManifestFetcher
	Downloader  Downloader
	DownloadDir string
	RefreshRate time.Duration
	Logger      *log.Logger

	// OpenURL opens a browser; it defaults to browser.Open.
	OpenURL func(url string) error
}

// Model is the main TUI model
type Model struct {
	app          *App
	width        int
	height       int
	focusedPanel Panel

	// Enter screen
	password     textinput.Model
	showPassword bool
	passwordMsg  string
	gesture      session.GestureFeedback
	hint         string
	unlockMsg    string
	drag         dragStart

	// Loading
	loading bool
	spinner spinner.Model

	// Player screen
	state       *core.PlaybackState
	nowPlaying  *components.NowPlaying
	trackList   *components.TrackList
	historyView *components.History
	lastTrackID string

	// Search
	showSearch  bool
	searchInput textinput.Model

	// Error screen
	errorMsg string

	showHelp bool

	// Status line
	status       string
	lastError    error
	statusExpiry time.Time

	quitting bool
}

// NewModel creates a new TUI model
func NewModel(app *App) Model {
	if app.OpenURL == nil {
		app.OpenURL = browser.Open
	}
	if app.RefreshRate <= 0 {
		app.RefreshRate = time.Second
	}

	pw := textinput.New()
	pw.Placeholder = "password"
	pw.EchoMode = textinput.EchoPassword
	pw.EchoCharacter = '•'
	pw.CharLimit = 128
	pw.Width = 30

	search := textinput.New()
	search.Placeholder = "Search artist, album, title, year..."
	search.CharLimit = 100
	search.Width = 50

	sp := spinner.New()
	sp.Spinner = spinner.MiniDot
	sp.Style = lipgloss.NewStyle().Foreground(styles.Primary)

	total := 0
	if app.Controller != nil {
		_, total = app.Controller.GestureProgress()
	}

	nowPlaying := components.NewNowPlaying()
	if app.Executor != nil {
		nowPlaying.MediaURL = app.Executor.MediaURL
	}

	return Model{
		app:          app,
		focusedPanel: PanelNowPlaying,
		password:     pw,
		searchInput:  search,
		spinner:      sp,
		gesture:      session.GestureFeedback{Total: total},
		nowPlaying:   nowPlaying,
		trackList:    components.NewTrackList(),
		historyView:  components.NewHistory(),
	}
}

// Messages
type tickMsg time.Time
type stateMsg *core.PlaybackState
type playerEventMsg core.PlayerEvent
type manifestMsg struct {
	manifest *core.Manifest
	err      error
}
type startMsg struct{}
type downloadMsg struct {
	result cdn.DownloadResult
	err    error
}
type errMsg error

// Commands
func (m Model) tick() tea.Cmd {
	return tea.Tick(m.app.RefreshRate, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m Model) fetchState() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		state, err := m.app.Player.State(ctx)
		if err != nil {
			return errMsg(err)
		}
		return stateMsg(state)
	}
}

func (m Model) waitForPlayer() tea.Cmd {
	events := m.app.Player.Events()
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return nil
		}
		return playerEventMsg(ev)
	}
}

func (m Model) fetchManifest() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		manifest, err := m.app.Fetcher.FetchManifest(ctx)
		return manifestMsg{manifest: manifest, err: err}
	}
}

func (m Model) download(track core.Track) tea.Cmd {
	return func() tea.Msg {
		result, err := m.app.Downloader.Download(context.Background(), track, m.app.DownloadDir, nil)
		return downloadMsg{result: result, err: err}
	}
}

func (m Model) openURL(url string) tea.Cmd {
	return func() tea.Msg {
		if err := m.app.OpenURL(url); err != nil {
			return errMsg(fmt.Errorf("open %s: %w", url, err))
		}
		return nil
	}
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.tick(), m.waitForPlayer()}
	if m.app.Controller.Tier() >= access.Authenticated {
		// A returning listener starts straight away.
		cmds = append(cmds, func() tea.Msg { return startMsg{} })
	}
	return tea.Batch(cmds...)
}

// handle feeds an event through the controller and turns the resulting
// effects into view changes and commands.
func (m Model) handle(ev session.Event) (Model, tea.Cmd) {
	effects := session.Drive(context.Background(), m.app.Controller, m.app.Executor, ev)

	if cur := m.app.Controller.Current(); cur != nil && cur.ID != m.lastTrackID {
		m.lastTrackID = cur.ID
		m.historyView.Add(*cur, time.Now())
	}

	var cmds []tea.Cmd
	for _, eff := range effects {
		if cmd := m.apply(eff); cmd != nil {
			cmds = append(cmds, cmd)
		}
	}
	m.refreshRows()
	return m, tea.Batch(cmds...)
}

func (m *Model) apply(eff session.Effect) tea.Cmd {
	switch e := eff.(type) {
	case session.ShowScreen:
		m.loading = false
		if e.Screen != session.ScreenPlayer {
			m.showSearch = false
		}
	case session.PasswordPrompt:
		m.showPassword = true
		m.passwordMsg = e.Message
		if e.Clear {
			m.password.SetValue("")
		}
		return m.password.Focus()
	case session.PasswordAccepted:
		m.showPassword = false
		m.passwordMsg = ""
		m.password.SetValue("")
		m.password.Blur()
	case session.GestureFeedback:
		m.gesture = e
	case session.Unlocked:
		m.hint = e.Hint
		if e.Tier == access.Secret {
			m.hint = ""
			m.unlockMsg = "✨ secret unlocked ✨"
		}
		if e.StartAfter > 0 {
			return tea.Tick(e.StartAfter, func(time.Time) tea.Msg { return startMsg{} })
		}
	case session.FetchManifest:
		m.loading = true
		return tea.Batch(m.spinner.Tick, m.fetchManifest())
	case session.Redirect:
		m.loading = false
		m.setStatus("", needleerrors.ErrReauthRequired)
		if e.URL == "" {
			return nil
		}
		return m.openURL(e.URL)
	case session.ShowError:
		m.errorMsg = e.Message
	case session.Download:
		if m.app.Downloader == nil {
			return nil
		}
		m.setStatus("Downloading "+e.Track.String()+"...", nil)
		return m.download(e.Track)
	case session.FocusSearch:
		m.showSearch = true
		m.focusedPanel = PanelTracks
		if e.Query != "" {
			m.searchInput.SetValue(e.Query)
			m.searchInput.CursorEnd()
		}
		return m.searchInput.Focus()
	case session.CatalogChanged:
		if !e.Visible && m.focusedPanel == PanelTracks {
			m.focusedPanel = PanelNowPlaying
		}
	}
	return nil
}

func (m *Model) refreshRows() {
	c := m.app.Controller
	if !c.BrowserVisible() {
		m.trackList.SetRows(nil)
		return
	}
	id := ""
	if cur := c.Current(); cur != nil {
		id = cur.ID
	}
	m.trackList.SetRows(c.Browser().Rows(id))
}

func (m *Model) setStatus(status string, err error) {
	m.status = status
	m.lastError = err
	m.statusExpiry = time.Now().Add(5 * time.Second)
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case tea.MouseMsg:
		return m.handleMouse(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tickMsg:
		if time.Now().After(m.statusExpiry) {
			m.status = ""
			m.lastError = nil
		}
		return m, tea.Batch(m.tick(), m.fetchState())

	case stateMsg:
		m.state = msg
		if m.state.HasTrack() {
			return m.handle(session.ProgressUpdated{Position: m.state.Position, Duration: m.state.Duration})
		}
		return m, nil

	case playerEventMsg:
		next, cmd := m.handle(session.PlayerEvent(core.PlayerEvent(msg)))
		return next, tea.Batch(cmd, next.waitForPlayer())

	case manifestMsg:
		return m.handle(session.ManifestLoaded{Manifest: msg.manifest, Err: msg.err})

	case startMsg:
		m.unlockMsg = ""
		return m.handle(session.StartRequested{})

	case downloadMsg:
		if msg.err != nil {
			m.setStatus("", msg.err)
			return m, nil
		}
		m.setStatus(fmt.Sprintf("Saved %s (%s)", msg.result.Path, humanize.Bytes(uint64(msg.result.Bytes))), nil)
		return m, nil

	case errMsg:
		m.setStatus("", msg)
		return m, nil

	case spinner.TickMsg:
		if !m.loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	// Forward other messages (cursor blink) to the focused input
	var cmd tea.Cmd
	switch {
	case m.showSearch:
		m.searchInput, cmd = m.searchInput.Update(msg)
	case m.showPassword:
		m.password, cmd = m.password.Update(msg)
	}
	return m, cmd
}

// handleMouse turns a press-drag-release into a swipe on the enter screen.
func (m Model) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	if m.app.Controller.Screen() != session.ScreenEnter {
		return m, nil
	}
	return m.trackSwipe(msg)
}

func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	// Global keys (always work)
	if key == "ctrl+c" {
		m.quitting = true
		return m, tea.Quit
	}

	// Help overlay
	if m.showHelp {
		switch key {
		case "?", "esc":
			m.showHelp = false
		}
		return m, nil
	}

	switch m.app.Controller.Screen() {
	case session.ScreenEnter:
		return m.handleEnterKey(msg)
	case session.ScreenError:
		if key == "q" {
			m.quitting = true
			return m, tea.Quit
		}
		return m.handle(session.KeyEvent{Key: key})
	}

	if m.showSearch {
		return m.handleSearchKeyPress(msg)
	}

	switch key {
	case "q":
		m.quitting = true
		return m, tea.Quit

	case "?":
		m.showHelp = true
		return m, nil

	case "tab":
		m.focusedPanel = m.nextPanel(1)
		return m, nil

	case "shift+tab":
		m.focusedPanel = m.nextPanel(numPanels - 1)
		return m, nil
	}

	if m.focusedPanel == PanelTracks {
		switch key {
		case "j", "down":
			m.trackList.SelectNext()
			return m, nil
		case "k", "up":
			m.trackList.SelectPrev()
			return m, nil
		case "enter":
			if id := m.trackList.Selected(); id != "" {
				return m.handle(session.TrackChosen{ID: id})
			}
			return m, nil
		}
	}

	if key == "n" {
		if pos, dur := m.app.Controller.Position(); dur > 0 && pos < dur-core.NearEndWindow {
			m.historyView.MarkSkipped()
		}
	}
	return m.handle(session.KeyEvent{Key: normalizeKey(key)})
}

func (m Model) nextPanel(step int) Panel {
	p := m.focusedPanel
	for i := 0; i < numPanels; i++ {
		p = (p + Panel(step)) % numPanels
		if p != PanelTracks || m.app.Controller.BrowserVisible() {
			return p
		}
	}
	return PanelNowPlaying
}

func (m Model) handleEnterKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	if m.showPassword && m.password.Focused() {
		switch key {
		case "enter":
			return m.handle(session.PasswordSubmitted{Password: m.password.Value()})
		case "esc":
			m.password.Blur()
			return m, nil
		case "up", "down":
			// The sequence still works while typing.
			return m.handle(session.KeyEvent{Key: key})
		}
		var cmd tea.Cmd
		m.password, cmd = m.password.Update(msg)
		return m, cmd
	}

	switch key {
	case "q", "esc":
		m.quitting = true
		return m, tea.Quit
	case "?":
		m.showHelp = true
		return m, nil
	case "tab":
		if m.showPassword {
			return m, m.password.Focus()
		}
	}
	return m.handle(session.KeyEvent{Key: normalizeKey(key)})
}

func (m Model) handleSearchKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.showSearch = false
		m.searchInput.Blur()
		return m, nil

	case "enter":
		m.showSearch = false
		m.searchInput.Blur()
		if id := m.trackList.Selected(); id != "" {
			return m.handle(session.TrackChosen{ID: id})
		}
		return m, nil

	case "up", "ctrl+p":
		m.trackList.SelectPrev()
		return m, nil

	case "down", "ctrl+n":
		m.trackList.SelectNext()
		return m, nil
	}

	before := m.searchInput.Value()
	var inputCmd tea.Cmd
	m.searchInput, inputCmd = m.searchInput.Update(msg)
	if m.searchInput.Value() == before {
		return m, inputCmd
	}

	next, cmd := m.handle(session.SearchChanged{Query: m.searchInput.Value()})
	return next, tea.Batch(inputCmd, cmd)
}

func normalizeKey(key string) string {
	if key == " " {
		return "space"
	}
	return key
}

// View renders the UI
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	if m.width == 0 {
		return "Loading..."
	}

	if m.showHelp {
		return m.renderHelp()
	}

	switch m.app.Controller.Screen() {
	case session.ScreenPlayer:
		return m.renderPlayer()
	case session.ScreenError:
		return m.renderError()
	default:
		return m.renderEnter()
	}
}

func (m Model) renderEnter() string {
	var b strings.Builder

	b.WriteString(styles.Highlight.Render("needle"))
	b.WriteString("\n\n")

	switch {
	case m.loading:
		b.WriteString(m.spinner.View() + " " + styles.Muted.Render("Loading catalog..."))
	case m.unlockMsg != "":
		b.WriteString(styles.Highlight.Render(m.unlockMsg))
	default:
		b.WriteString(styles.Dim.Render("press enter to listen"))
	}
	b.WriteString("\n\n")

	b.WriteString(styles.GestureDots(m.gesture.Progress, m.gesture.Total, m.gesture.Failed, m.gesture.Armed))
	if m.hint != "" {
		b.WriteString("\n\n")
		b.WriteString(styles.Hint.Render(m.hint))
	}

	if m.showPassword {
		b.WriteString("\n\n")
		b.WriteString(m.password.View())
		if m.passwordMsg != "" {
			b.WriteString("  ")
			b.WriteString(styles.ErrorText.Render(m.passwordMsg))
		}
	}

	if status := m.renderStatus(); status != "" {
		b.WriteString("\n\n")
		b.WriteString(status)
	}

	content := lipgloss.NewStyle().
		Padding(1, 4).
		Align(lipgloss.Center).
		Render(b.String())

	return lipgloss.NewStyle().
		Width(m.width).
		Height(m.height).
		Align(lipgloss.Center, lipgloss.Center).
		Render(styles.BorderStyle.Render(content))
}

func (m Model) renderPlayer() string {
	c := m.app.Controller
	visible := c.BrowserVisible()

	leftWidth := m.width
	if visible {
		leftWidth = m.width * 45 / 100
	}
	rightWidth := m.width - leftWidth - 2
	topHeight := m.height * 45 / 100
	bottomHeight := m.height - topHeight - 4

	heard := c.Heard().Percent(c.Catalog())
	nowPlaying := m.nowPlaying.Render(m.playbackState(), heard, leftWidth-2, topHeight-2, m.focusedPanel == PanelNowPlaying)
	historyView := m.historyView.Render(leftWidth-2, bottomHeight-2, m.focusedPanel == PanelHistory, time.Now())
	leftCol := lipgloss.JoinVertical(lipgloss.Left, nowPlaying, historyView)

	main := leftCol
	if visible {
		var right []string
		if m.showSearch {
			right = append(right, styles.FocusedBorder.Width(rightWidth-2).Render(m.searchInput.View()))
		}
		listHeight := m.height - 4
		if m.showSearch {
			listHeight -= 3
		}
		right = append(right, m.trackList.Render(rightWidth-2, listHeight, m.focusedPanel == PanelTracks, c.CanDownload()))
		main = lipgloss.JoinHorizontal(lipgloss.Top, leftCol, lipgloss.JoinVertical(lipgloss.Left, right...))
	}

	return lipgloss.JoinVertical(lipgloss.Left, main, m.renderStatusBar())
}

// playbackState prefers the player's snapshot and falls back to the
// controller's selection before the first poll.
func (m Model) playbackState() *core.PlaybackState {
	c := m.app.Controller
	if m.state.HasTrack() {
		s := *m.state
		s.IsPlaying = c.Playing()
		return &s
	}
	pos, dur := c.Position()
	return &core.PlaybackState{
		Track:     c.Current(),
		IsPlaying: c.Playing(),
		Position:  pos,
		Duration:  dur,
		Volume:    c.Volume(),
	}
}

func (m Model) renderError() string {
	var b strings.Builder
	b.WriteString(styles.ErrorText.Bold(true).Render("Something went wrong"))
	b.WriteString("\n\n")
	b.WriteString(m.errorMsg)
	b.WriteString("\n\n")
	b.WriteString(styles.Dim.Render("r:retry  q:quit"))

	content := lipgloss.NewStyle().Padding(1, 4).Render(b.String())
	return lipgloss.NewStyle().
		Width(m.width).
		Height(m.height).
		Align(lipgloss.Center, lipgloss.Center).
		Render(styles.ErrorBorder.Render(content))
}

func (m Model) renderStatus() string {
	if m.lastError != nil {
		msg := "Error: " + m.lastError.Error()
		if s := needleerrors.GetSuggestion(m.lastError); s != "" {
			msg += " (" + s + ")"
		}
		return styles.ErrorText.Render(msg)
	}
	if m.status != "" {
		return styles.Muted.Render(m.status)
	}
	return ""
}

func (m Model) renderStatusBar() string {
	c := m.app.Controller
	keys := "q:quit  ?:help  space:play/pause  ←/→:seek  n:next  p:prev  +/-:volume"
	if c.BrowserVisible() {
		keys += "  /:search  tab:panel"
	}
	if c.CanDownload() {
		keys += "  d:download"
	}

	status := m.renderStatus()
	if status == "" {
		status = styles.Dim.Render(keys)
	}

	badge := styles.TierBadge(c.Tier().Label(), c.Tier() == access.Secret)
	return lipgloss.NewStyle().
		Width(m.width).
		Padding(0, 1).
		Render(badge + " " + status)
}

func (m Model) renderHelp() string {
	title := "needle - Keyboard Shortcuts"
	divider := strings.Repeat("═", len(title))

	help := `
  ` + title + `
  ` + divider + `

  Global
  ──────
  q, Ctrl+C    Quit
  ?            Toggle help

  Playback
  ────────
  Space        Play/Pause
  ←/→          Seek 10 seconds
  n            Next track
  p            Previous track
  +/=          Volume up
  -            Volume down
  d            Download

  Catalog
  ───────
  /            Search
  a            Search current artist
  l            Search current album
  Tab          Switch panel
  j/↓  k/↑     Move
  Enter        Play selected

  Press ? or Esc to close
`

	return lipgloss.NewStyle().
		Width(m.width).
		Height(m.height).
		Align(lipgloss.Center, lipgloss.Center).
		Render(styles.BorderStyle.Render(help))
}

// Run starts the TUI application
func Run(app *App, link string) error {
	if link != "" {
		path, err := core.DecodeTrackLink(link)
		if err != nil {
			return err
		}
		app.Controller.Handle(session.DeepLinked{Path: path})
	}

	model := NewModel(app)
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithMouseCellMotion())

	_, err := p.Run()
	return err
}
