package session

import (
	"time"

	"github.com/tessro/needle/internal/access"
	"github.com/tessro/needle/internal/core"
	"github.com/tessro/needle/internal/gesture"
)

// State is the controller's lifecycle state.
type State int

const (
	// Locked means no catalog is loaded.
	Locked State = iota
	// Loading means a manifest fetch is in flight.
	Loading
	// Ready means the catalog is loaded and a track is selected.
	Ready
	// Failed means the manifest could not be loaded or playback gave up.
	Failed
)

func (s State) String() string {
	switch s {
	case Loading:
		return "loading"
	case Ready:
		return "ready"
	case Failed:
		return "error"
	default:
		return "locked"
	}
}

// Screen is the view the front end should show.
type Screen int

const (
	ScreenEnter Screen = iota
	ScreenPlayer
	ScreenError
)

func (s Screen) String() string {
	switch s {
	case ScreenPlayer:
		return "player"
	case ScreenError:
		return "error"
	default:
		return "enter"
	}
}

// UnlockDelay is how long the front end celebrates a secret unlock before
// starting playback.
const UnlockDelay = 2500 * time.Millisecond

// ChordHint is shown after the primary sequence: "b + a" upside down.
const ChordHint = "q + ɐ"

// NoTracksMessage is shown when the manifest is empty.
const NoTracksMessage = "No tracks available."

// Event is an input to Controller.Handle.
type Event interface{ isEvent() }

// KeyEvent is a key press. Keys are lowercase names: "up", "down", "left",
// "right", "enter", "space", or single characters.
type KeyEvent struct{ Key string }

// SwipeEvent is a touch swipe.
type SwipeEvent struct{ Direction gesture.Token }

// PasswordSubmitted carries the contents of the password field.
type PasswordSubmitted struct{ Password string }

// StartRequested asks the controller to start, as after an unlock delay.
type StartRequested struct{}

// ManifestLoaded completes a FetchManifest effect.
type ManifestLoaded struct {
	Manifest *core.Manifest
	Err      error
}

// TrackStarted reports that the player began a track.
type TrackStarted struct{ TrackID string }

// TrackEnded reports that a track played to its end.
type TrackEnded struct{ TrackID string }

// PlaybackFailed reports that the player could not play a track.
type PlaybackFailed struct {
	TrackID string
	Err     error
}

// ProgressUpdated reports the player position.
type ProgressUpdated struct {
	Position time.Duration
	Duration time.Duration
}

// SearchChanged carries the search field's text.
type SearchChanged struct{ Query string }

// TrackChosen selects a track from the browser.
type TrackChosen struct{ ID string }

// DeepLinked preselects a track by media path for the next start.
type DeepLinked struct{ Path string }

// Retry leaves the error screen.
type Retry struct{}

func (KeyEvent) isEvent()          {}
func (SwipeEvent) isEvent()        {}
func (PasswordSubmitted) isEvent() {}
func (StartRequested) isEvent()    {}
func (ManifestLoaded) isEvent()    {}
func (TrackStarted) isEvent()      {}
func (TrackEnded) isEvent()        {}
func (PlaybackFailed) isEvent()    {}
func (ProgressUpdated) isEvent()   {}
func (SearchChanged) isEvent()     {}
func (TrackChosen) isEvent()       {}
func (DeepLinked) isEvent()        {}
func (Retry) isEvent()             {}

// Effect is an instruction for the front end.
type Effect interface{ isEffect() }

// Play starts a track.
type Play struct{ Track core.Track }

// Pause pauses playback.
type Pause struct{}

// Resume resumes playback.
type Resume struct{}

// Seek moves to an absolute position.
type Seek struct{ Position time.Duration }

// Volume sets the output volume in percent.
type Volume struct{ Percent int }

// Stop stops playback.
type Stop struct{}

// ShowScreen switches views.
type ShowScreen struct{ Screen Screen }

// PasswordPrompt shows the password field with an optional inline message.
// Clear empties the field.
type PasswordPrompt struct {
	Message string
	Clear   bool
}

// PasswordAccepted hides the password field.
type PasswordAccepted struct{}

// GestureFeedback updates the sequence indicator.
type GestureFeedback struct {
	Progress int
	Total    int
	Failed   bool
	Armed    bool
}

// Unlocked reports a tier upgrade. When StartAfter is non-zero the front
// end sends StartRequested once it elapses.
type Unlocked struct {
	Tier       access.Tier
	Method     string
	Hint       string
	StartAfter time.Duration
}

// FetchManifest asks the front end to load the manifest and report back
// with ManifestLoaded.
type FetchManifest struct{}

// Redirect sends the listener to re-authenticate.
type Redirect struct{ URL string }

// ShowError shows the error view.
type ShowError struct{ Message string }

// Download saves a track.
type Download struct{ Track core.Track }

// FocusSearch focuses the search field, optionally replacing its text.
type FocusSearch struct{ Query string }

// CatalogChanged asks the browser view to re-render.
type CatalogChanged struct {
	Visible     bool
	CanDownload bool
}

func (Play) isEffect()             {}
func (Pause) isEffect()            {}
func (Resume) isEffect()           {}
func (Seek) isEffect()             {}
func (Volume) isEffect()           {}
func (Stop) isEffect()             {}
func (ShowScreen) isEffect()       {}
func (PasswordPrompt) isEffect()   {}
func (PasswordAccepted) isEffect() {}
func (GestureFeedback) isEffect()  {}
func (Unlocked) isEffect()         {}
func (FetchManifest) isEffect()    {}
func (Redirect) isEffect()         {}
func (ShowError) isEffect()        {}
func (Download) isEffect()         {}
func (FocusSearch) isEffect()      {}
func (CatalogChanged) isEffect()   {}
