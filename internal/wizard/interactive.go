// Package wizard holds interactive prompts used when a command is run
// without the arguments it needs.
package wizard

import (
	"os"

	"golang.org/x/term"

	"github.com/tessro/needle/internal/core"
)

// Interactive provides interactive fallback functionality.
type Interactive struct {
	enabled bool
	tracks  []core.Track
}

// NewInteractive creates a new interactive handler.
func NewInteractive() *Interactive {
	return &Interactive{
		enabled: true,
	}
}

// SetEnabled enables or disables interactive mode.
func (i *Interactive) SetEnabled(enabled bool) {
	i.enabled = enabled
}

// SetTracks sets the tracks offered by the picker.
func (i *Interactive) SetTracks(tracks []core.Track) {
	i.tracks = tracks
}

// IsTerminal returns true if stdin and stdout are terminals.
func IsTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}

// CanInteract returns true if interactive mode is available.
func (i *Interactive) CanInteract() bool {
	return i.enabled && IsTerminal()
}

// PromptTrack launches the track picker if interactive mode is available.
// Returns the selected track, or nil if cancelled or not interactive.
func (i *Interactive) PromptTrack(query string) (*core.Track, error) {
	if !i.CanInteract() || len(i.tracks) == 0 {
		return nil, nil
	}
	return RunPicker(i.tracks, query)
}

// NeedsTrack returns true if a track argument is required but missing.
func NeedsTrack(args []string) bool {
	return len(args) == 0
}
