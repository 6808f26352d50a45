package core

import (
	"context"
	"time"
)

// MediaPlayer plays one track at a time.
type MediaPlayer interface {
	// Play starts url from the given offset, replacing the current track.
	Play(ctx context.Context, track Track, url string, start time.Duration) error
	Pause(ctx context.Context) error
	Resume(ctx context.Context) error
	// Seek moves to an absolute position.
	Seek(ctx context.Context, position time.Duration) error
	// Volume sets the output volume in percent.
	Volume(ctx context.Context, percent int) error
	Stop(ctx context.Context) error

	State(ctx context.Context) (*PlaybackState, error)
}

// PlayerEventType distinguishes player events.
type PlayerEventType string

const (
	PlayerStarted PlayerEventType = "started"
	PlayerEnded   PlayerEventType = "ended"
	PlayerFailed  PlayerEventType = "failed"
)

// PlayerEvent reports a change in the media player.
type PlayerEvent struct {
	Type    PlayerEventType
	TrackID string
	Err     error
	At      time.Time
}
