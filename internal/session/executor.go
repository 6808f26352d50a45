package session

import (
	"context"
	"errors"

	"github.com/tessro/needle/internal/core"
)

// Executor applies transport effects to a media player.
type Executor struct {
	Player core.MediaPlayer
	// MediaURL resolves a track path to a playable URL.
	MediaURL func(path string) (string, error)
}

// Apply runs the transport effects in order and returns the effects left
// for the front end. A successful Play becomes a TrackStarted event and a
// failed one a PlaybackFailed event; other transport failures are joined
// into the returned error.
func (x *Executor) Apply(ctx context.Context, effects []Effect) ([]Effect, []Event, error) {
	var (
		rest   []Effect
		events []Event
		errs   []error
	)

	for _, eff := range effects {
		var err error
		trackID := ""

		switch e := eff.(type) {
		case Play:
			trackID = e.Track.ID
			var url string
			url, err = x.MediaURL(e.Track.Path)
			if err == nil {
				err = x.Player.Play(ctx, e.Track, url, 0)
			}
		case Pause:
			err = x.Player.Pause(ctx)
		case Resume:
			err = x.Player.Resume(ctx)
		case Seek:
			err = x.Player.Seek(ctx, e.Position)
		case Volume:
			err = x.Player.Volume(ctx, e.Percent)
		case Stop:
			err = x.Player.Stop(ctx)
		default:
			rest = append(rest, eff)
			continue
		}

		switch {
		case err == nil:
			if trackID != "" {
				events = append(events, TrackStarted{TrackID: trackID})
			}
		case trackID != "":
			events = append(events, PlaybackFailed{TrackID: trackID, Err: err})
		default:
			errs = append(errs, err)
		}
	}
	return rest, events, errors.Join(errs...)
}

// Drive feeds events to the controller and applies the resulting effects
// until no failure events remain. It returns the front-end effects.
func Drive(ctx context.Context, c *Controller, x *Executor, ev Event) []Effect {
	var out []Effect
	queue := []Event{ev}
	for len(queue) > 0 {
		next := queue[0]
		queue = queue[1:]

		rest, events, err := x.Apply(ctx, c.Handle(next))
		if err != nil {
			c.opts.Logger.Warn("player command failed", "err", err)
		}
		out = append(out, rest...)
		queue = append(queue, events...)
	}
	return out
}

// PlayerEvent converts a media player event into a controller event.
func PlayerEvent(e core.PlayerEvent) Event {
	switch e.Type {
	case core.PlayerStarted:
		return TrackStarted{TrackID: e.TrackID}
	case core.PlayerEnded:
		return TrackEnded{TrackID: e.TrackID}
	case core.PlayerFailed:
		return PlaybackFailed{TrackID: e.TrackID, Err: e.Err}
	}
	return nil
}
