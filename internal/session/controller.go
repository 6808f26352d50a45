// Package session runs the player: the unlock flow, catalog loading,
// track selection and transport controls. It performs no I/O of its own
// beyond the injected store; the front end executes the returned effects.
package session

import (
	"context"
	"errors"
	"io"
	"math/rand/v2"
	"time"

	"github.com/charmbracelet/log"

	"github.com/tessro/needle/internal/access"
	"github.com/tessro/needle/internal/analytics"
	"github.com/tessro/needle/internal/catalog"
	"github.com/tessro/needle/internal/core"
	needleerrors "github.com/tessro/needle/internal/errors"
	"github.com/tessro/needle/internal/gesture"
	"github.com/tessro/needle/internal/store"
)

// CookieJar holds the signed-cookie triple.
type CookieJar interface {
	// Valid reports whether an unexpired triple is installed.
	Valid() bool
	// Install installs the configured triple.
	Install() error
}

// ManifestFetcher loads the catalog.
type ManifestFetcher interface {
	FetchManifest(ctx context.Context) (*core.Manifest, error)
}

// Analytics method names.
const (
	MethodPassword = "password"
	MethodSequence = "sequence"
)

const volumeStep = 5

// Options wires a Controller.
type Options struct {
	Gate     *access.Gate
	Verifier access.PasswordVerifier
	Jar      CookieJar
	Store    store.KV
	Browser  *catalog.Browser
	Fetcher  ManifestFetcher
	Tracker  analytics.Tracker
	Logger   *log.Logger

	AuthURL     string
	SeekStep    time.Duration
	Volume      int
	// MaxFailures caps consecutive playback failures; zero means one pass
	// over the catalog.
	MaxFailures int

	// Intn returns a uniform random int in [0, n). Defaults to math/rand.
	Intn func(n int) int
}

// Controller is the player state machine. It is not safe for concurrent
// use; a single event loop drives it.
type Controller struct {
	opts       Options
	recognizer *gesture.Recognizer

	state   State
	screen  Screen
	message string

	catalog *core.Catalog
	heard   *core.HeardSet
	history *core.PlayHistory
	// tried holds tracks sent to the player during the current shuffle
	// pass. Only tracks the player actually started join heard.
	tried map[string]bool

	current  *core.Track
	playing  bool
	position time.Duration
	duration time.Duration
	volume   int

	pendingPath string
	failures    int
}

// New creates a controller on the entry screen.
func New(opts Options) *Controller {
	if opts.Intn == nil {
		opts.Intn = rand.IntN
	}
	if opts.SeekStep == 0 {
		opts.SeekStep = 10 * time.Second
	}
	if opts.Browser == nil {
		opts.Browser = catalog.NewBrowser(access.Secret, access.Secret)
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}
	if opts.Tracker == nil {
		opts.Tracker = (*analytics.Recorder)(nil)
	}

	c := &Controller{
		opts:       opts,
		recognizer: gesture.New(),
		heard:      core.NewHeardSet(),
		history:    core.NewPlayHistory(),
		tried:      make(map[string]bool),
		volume:     opts.Volume,
	}
	if opts.Gate.Has(access.Secret) {
		c.recognizer.Complete()
	}
	return c
}

// State returns the lifecycle state.
func (c *Controller) State() State { return c.state }

// Screen returns the current view.
func (c *Controller) Screen() Screen { return c.screen }

// Message returns the last error message.
func (c *Controller) Message() string { return c.message }

// Tier returns the persisted access tier.
func (c *Controller) Tier() access.Tier { return c.opts.Gate.Tier() }

// Current returns the selected track.
func (c *Controller) Current() *core.Track { return c.current }

// Playing reports whether the selected track is playing.
func (c *Controller) Playing() bool { return c.playing }

// Position returns the last reported position and duration.
func (c *Controller) Position() (time.Duration, time.Duration) { return c.position, c.duration }

// Volume returns the output volume.
func (c *Controller) Volume() int { return c.volume }

// Catalog returns the loaded catalog, or nil.
func (c *Controller) Catalog() *core.Catalog { return c.catalog }

// Heard returns the heard set.
func (c *Controller) Heard() *core.HeardSet { return c.heard }

// History returns the play history.
func (c *Controller) History() *core.PlayHistory { return c.history }

// Browser returns the catalog browser.
func (c *Controller) Browser() *catalog.Browser { return c.opts.Browser }

// BrowserVisible reports whether the current tier may browse.
func (c *Controller) BrowserVisible() bool { return c.opts.Browser.Visible(c.Tier()) }

// CanDownload reports whether the current tier may download.
func (c *Controller) CanDownload() bool { return c.opts.Browser.CanDownload(c.Tier()) }

// GestureProgress returns the sequence progress and length.
func (c *Controller) GestureProgress() (int, int) {
	return c.recognizer.Progress(), c.recognizer.Len()
}

// AwaitingChord reports whether the chord would be accepted now.
func (c *Controller) AwaitingChord() bool { return c.recognizer.AwaitingChord() }

// Begin checks access and moves to Loading. It returns an AuthError and a
// password prompt when the tier or the cookies are insufficient.
func (c *Controller) Begin() ([]Effect, error) {
	if c.state == Loading {
		return nil, nil
	}

	var err error
	switch {
	case !c.opts.Gate.Has(access.Authenticated):
		err = &needleerrors.AuthError{Op: "start", Err: needleerrors.ErrInsufficientTier}
	case c.opts.Jar == nil || !c.opts.Jar.Valid():
		err = &needleerrors.AuthError{Op: "start", Err: needleerrors.ErrCookiesMissing}
	}
	if err != nil {
		c.toEnter()
		return []Effect{ShowScreen{Screen: ScreenEnter}, PasswordPrompt{}}, err
	}

	c.state = Loading
	c.message = ""
	return []Effect{FetchManifest{}}, nil
}

// Start checks access, fetches the manifest and selects the first track.
func (c *Controller) Start(ctx context.Context) ([]Effect, error) {
	effects, err := c.Begin()
	if err != nil || c.state != Loading {
		return effects, err
	}
	if c.opts.Fetcher == nil {
		return effects, nil
	}

	m, err := c.opts.Fetcher.FetchManifest(ctx)
	return c.manifestLoaded(m, err), err
}

func (c *Controller) manifestLoaded(m *core.Manifest, err error) []Effect {
	if c.state != Loading {
		return nil
	}

	if err == nil && (m == nil || len(m.Tracks) == 0) {
		err = &needleerrors.ManifestError{Err: needleerrors.ErrNoTracks}
	}
	if errors.Is(err, needleerrors.ErrReauthRequired) {
		c.opts.Logger.Warn("manifest rejected, re-authenticating", "url", c.opts.AuthURL)
		c.toEnter()
		return []Effect{ShowScreen{Screen: ScreenEnter}, Redirect{URL: c.opts.AuthURL}}
	}
	if err != nil {
		return c.fail(err)
	}

	cat := core.NewCatalog(m.Tracks)
	if cat.IsEmpty() {
		return c.fail(&needleerrors.ManifestError{Err: needleerrors.ErrNoTracks})
	}

	c.catalog = cat
	c.heard = core.LoadHeardSet(c.opts.Store)
	c.tried = make(map[string]bool)
	if c.heard.Prune(cat) {
		c.saveHeard()
	}
	c.opts.Browser.SetCatalog(cat)

	c.state = Ready
	c.screen = ScreenPlayer
	c.recognizer.SetActive(false)
	c.failures = 0

	effects := []Effect{
		ShowScreen{Screen: ScreenPlayer},
		CatalogChanged{Visible: c.BrowserVisible(), CanDownload: c.CanDownload()},
	}

	if c.pendingPath != "" {
		path := c.pendingPath
		c.pendingPath = ""
		if t, ok := cat.ByPath(path); ok {
			return append(effects, c.play(t, false)...)
		}
		c.opts.Logger.Debug("deep-linked track not in catalog", "path", path)
	}
	return append(effects, c.SelectNext()...)
}

func (c *Controller) fail(err error) []Effect {
	c.state = Failed
	c.screen = ScreenError
	c.message = errorMessage(err)
	c.opts.Logger.Error("failed to start player", "err", err)
	return []Effect{ShowScreen{Screen: ScreenError}, ShowError{Message: c.message}}
}

func errorMessage(err error) string {
	if errors.Is(err, needleerrors.ErrNoTracks) {
		return NoTracksMessage
	}
	return err.Error()
}

func (c *Controller) toEnter() {
	c.state = Locked
	c.screen = ScreenEnter
	c.recognizer.SetActive(true)
}

// SelectNext plays the next track: forward history first, otherwise a
// uniformly random unheard track. When everything has been heard the heard
// set starts over.
func (c *Controller) SelectNext() []Effect {
	if c.catalog.IsEmpty() {
		return nil
	}

	if id, ok := c.history.Forward(); ok {
		if t, ok := c.catalog.ByID(id); ok {
			return c.play(t, true)
		}
	}

	candidates := c.untried()
	if len(candidates) == 0 {
		c.heard.Clear()
		c.saveHeard()
		c.tried = make(map[string]bool)
		candidates = c.catalog.Tracks()
	}
	return c.play(candidates[c.opts.Intn(len(candidates))], false)
}

func (c *Controller) untried() []core.Track {
	var out []core.Track
	for _, t := range c.heard.Unheard(c.catalog) {
		if !c.tried[t.ID] {
			out = append(out, t)
		}
	}
	return out
}

// SelectPrevious steps back in the play history; at the start it does
// nothing.
func (c *Controller) SelectPrevious() []Effect {
	if c.catalog.IsEmpty() {
		return nil
	}
	id, ok := c.history.Back()
	if !ok {
		return nil
	}
	t, ok := c.catalog.ByID(id)
	if !ok {
		return nil
	}
	return c.play(t, true)
}

// OnTrackEnded records the completion and plays the next track.
func (c *Controller) OnTrackEnded() []Effect {
	if c.current != nil {
		c.opts.Tracker.Track(analytics.SongComplete, analytics.Params{
			"artist":           c.current.Artist,
			"title":            c.current.Title,
			"duration_seconds": int(c.duration.Seconds()),
		})
	}
	c.failures = 0
	return c.SelectNext()
}

// OnPlaybackFailure skips the broken track. After MaxFailures failures in
// a row the controller gives up and shows the error view.
func (c *Controller) OnPlaybackFailure(err error) []Effect {
	id := ""
	if c.current != nil {
		id = c.current.ID
	}
	c.opts.Logger.Warn("playback failed, skipping", "track", id, "err", err)

	c.failures++
	limit := c.opts.MaxFailures
	if limit <= 0 {
		limit = c.catalog.Len()
	}
	if c.failures >= limit {
		c.playing = false
		effects := []Effect{Stop{}}
		return append(effects, c.fail(&needleerrors.PlaybackError{
			TrackID: id,
			Err:     errors.New("too many tracks failed to play"),
		})...)
	}
	return c.SelectNext()
}

func (c *Controller) play(t core.Track, fromHistory bool) []Effect {
	c.current = &t
	c.playing = true
	c.position = 0
	c.duration = 0

	if !fromHistory {
		c.history.Push(t.ID)
	}
	c.tried[t.ID] = true
	c.opts.Tracker.Track(analytics.SongPlay, analytics.TrackParams(t))
	return []Effect{Play{Track: t}}
}

func (c *Controller) saveHeard() {
	if c.opts.Store == nil {
		return
	}
	if err := c.heard.Save(c.opts.Store); err != nil {
		c.opts.Logger.Warn("failed to save heard tracks", "err", err)
	}
}

// Handle dispatches one input event.
func (c *Controller) Handle(ev Event) []Effect {
	switch e := ev.(type) {
	case KeyEvent:
		return c.handleKey(e.Key)
	case SwipeEvent:
		if c.screen != ScreenEnter {
			return nil
		}
		return c.handleGesture(c.recognizer.FeedSwipe(e.Direction))
	case PasswordSubmitted:
		return c.submitPassword(e.Password)
	case StartRequested:
		if c.screen != ScreenEnter {
			return nil
		}
		effects, _ := c.Begin()
		return effects
	case ManifestLoaded:
		return c.manifestLoaded(e.Manifest, e.Err)
	case TrackStarted:
		if c.isCurrent(e.TrackID) && c.heard.Add(e.TrackID) {
			c.saveHeard()
		}
		return nil
	case TrackEnded:
		if !c.isCurrent(e.TrackID) {
			return nil
		}
		return c.OnTrackEnded()
	case PlaybackFailed:
		if !c.isCurrent(e.TrackID) {
			return nil
		}
		return c.OnPlaybackFailure(e.Err)
	case ProgressUpdated:
		c.position = e.Position
		if e.Duration > 0 {
			c.duration = e.Duration
			c.failures = 0
		}
		return nil
	case SearchChanged:
		return c.search(e.Query)
	case TrackChosen:
		if c.state != Ready || !c.BrowserVisible() {
			return nil
		}
		t, ok := c.catalog.ByID(e.ID)
		if !ok {
			return nil
		}
		return c.play(t, false)
	case DeepLinked:
		c.pendingPath = e.Path
		return nil
	case Retry:
		return c.retry()
	default:
		return nil
	}
}

func (c *Controller) isCurrent(id string) bool {
	return c.state == Ready && c.current != nil && id == c.current.ID
}

func (c *Controller) handleKey(key string) []Effect {
	switch c.screen {
	case ScreenEnter:
		return c.enterKey(key)
	case ScreenPlayer:
		return c.playerKey(key)
	case ScreenError:
		if key == "enter" || key == "r" {
			return c.retry()
		}
	}
	return nil
}

func (c *Controller) enterKey(key string) []Effect {
	if key == "enter" {
		effects, _ := c.Begin()
		return effects
	}
	if c.recognizer.AwaitingChord() {
		return c.handleGesture(c.recognizer.FeedChord(gesture.ParseKey(key)))
	}
	if tok := gesture.ParseToken(key); tok != gesture.None {
		return c.handleGesture(c.recognizer.FeedDirectional(tok))
	}
	return nil
}

func (c *Controller) handleGesture(sig gesture.Signal) []Effect {
	total := c.recognizer.Len()
	switch sig.Kind {
	case gesture.Advanced:
		return []Effect{GestureFeedback{Progress: sig.Progress, Total: total}}
	case gesture.Mismatch:
		return []Effect{GestureFeedback{Progress: 0, Total: total, Failed: true}}
	case gesture.Armed:
		return []Effect{GestureFeedback{Progress: total, Total: total, Armed: true}}
	case gesture.PrimaryUnlock:
		c.installCookies()
		if _, err := c.opts.Gate.Upgrade(access.Authenticated); err != nil {
			c.opts.Logger.Warn("failed to save tier", "err", err)
		}
		c.opts.Tracker.Track(analytics.Login, analytics.Params{"method": MethodSequence})
		return []Effect{
			GestureFeedback{Progress: total, Total: total},
			Unlocked{Tier: access.Authenticated, Method: MethodSequence, Hint: ChordHint},
		}
	case gesture.SecondaryUnlock:
		c.installCookies()
		if _, err := c.opts.Gate.Upgrade(access.Secret); err != nil {
			c.opts.Logger.Warn("failed to save tier", "err", err)
		}
		c.recognizer.Complete()
		c.opts.Tracker.Track(analytics.SecretUnlock, analytics.Params{"method": sig.Method})
		return []Effect{
			PasswordAccepted{},
			Unlocked{Tier: access.Secret, Method: sig.Method, StartAfter: UnlockDelay},
		}
	}
	return nil
}

func (c *Controller) installCookies() {
	if c.opts.Jar == nil {
		return
	}
	if err := c.opts.Jar.Install(); err != nil {
		c.opts.Logger.Warn("failed to install signed cookies", "err", err)
	}
}

func (c *Controller) submitPassword(password string) []Effect {
	if c.screen != ScreenEnter || c.state == Loading {
		return nil
	}

	if err := c.opts.Verifier.Verify(password); err != nil {
		c.opts.Tracker.Track(analytics.LoginFailed, nil)
		return []Effect{PasswordPrompt{Message: "wrong", Clear: true}}
	}

	if c.opts.Jar == nil {
		return []Effect{PasswordPrompt{Message: "cookie error"}}
	}
	if err := c.opts.Jar.Install(); err != nil {
		c.opts.Logger.Warn("failed to install signed cookies", "err", err)
		return []Effect{PasswordPrompt{Message: "cookie error"}}
	}
	if _, err := c.opts.Gate.Upgrade(access.Authenticated); err != nil {
		c.opts.Logger.Warn("failed to save tier", "err", err)
	}
	c.opts.Tracker.Track(analytics.Login, analytics.Params{"method": MethodPassword})

	effects := []Effect{PasswordAccepted{}}
	more, _ := c.Begin()
	return append(effects, more...)
}

func (c *Controller) playerKey(key string) []Effect {
	if c.state != Ready || c.current == nil {
		return nil
	}

	switch key {
	case "space", " ":
		return c.togglePause()
	case "right":
		return c.seek(c.opts.SeekStep)
	case "left":
		return c.seek(-c.opts.SeekStep)
	case "n":
		if c.duration > 0 && c.position < c.duration-core.NearEndWindow {
			c.opts.Tracker.Track(analytics.Skip, analytics.Params{
				"artist":           c.current.Artist,
				"title":            c.current.Title,
				"position_seconds": int(c.position.Seconds()),
				"duration_seconds": int(c.duration.Seconds()),
			})
		}
		return c.SelectNext()
	case "p":
		return c.SelectPrevious()
	case "d":
		if !c.CanDownload() {
			return nil
		}
		c.opts.Tracker.Track(analytics.Download, analytics.TrackParams(*c.current))
		return []Effect{Download{Track: *c.current}}
	case "/":
		if !c.BrowserVisible() {
			return nil
		}
		return []Effect{FocusSearch{}}
	case "a":
		return c.searchFor(c.current.Artist)
	case "l":
		return c.searchFor(c.current.Album)
	case "+", "=":
		return c.setVolume(c.volume + volumeStep)
	case "-":
		return c.setVolume(c.volume - volumeStep)
	}
	return nil
}

func (c *Controller) togglePause() []Effect {
	if c.playing {
		c.playing = false
		c.opts.Tracker.Track(analytics.Pause, analytics.Params{
			"artist":           c.current.Artist,
			"title":            c.current.Title,
			"position_seconds": int(c.position.Seconds()),
		})
		return []Effect{Pause{}}
	}
	c.playing = true
	c.opts.Tracker.Track(analytics.Resume, nil)
	return []Effect{Resume{}}
}

func (c *Controller) seek(delta time.Duration) []Effect {
	pos := c.position + delta
	if pos < 0 {
		pos = 0
	}
	if c.duration > 0 && pos > c.duration {
		pos = c.duration
	}
	c.position = pos
	return []Effect{Seek{Position: pos}}
}

func (c *Controller) setVolume(v int) []Effect {
	if v < 0 {
		v = 0
	}
	if v > 100 {
		v = 100
	}
	if v == c.volume {
		return nil
	}
	c.volume = v
	return []Effect{Volume{Percent: v}}
}

func (c *Controller) searchFor(query string) []Effect {
	if query == "" || !c.BrowserVisible() {
		return nil
	}
	effects := c.search(query)
	return append([]Effect{FocusSearch{Query: query}}, effects...)
}

func (c *Controller) search(query string) []Effect {
	if !c.BrowserVisible() {
		return nil
	}
	c.opts.Browser.SetQuery(query)
	c.opts.Tracker.Search(c.opts.Browser.Query(), c.opts.Browser.Len())
	return []Effect{CatalogChanged{Visible: true, CanDownload: c.CanDownload()}}
}

func (c *Controller) retry() []Effect {
	if c.screen != ScreenError {
		return nil
	}
	c.toEnter()
	c.message = ""
	effects := []Effect{ShowScreen{Screen: ScreenEnter}}
	if c.opts.Jar == nil || !c.opts.Jar.Valid() {
		effects = append(effects, PasswordPrompt{})
	}
	return effects
}
