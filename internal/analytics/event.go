// Package analytics records listening events to a local log.
package analytics

import (
	"time"

	"github.com/tessro/needle/internal/core"
)

// Type names an analytics event.
type Type string

const (
	Login        Type = "login"
	LoginFailed  Type = "login_failed"
	SecretUnlock Type = "secret_unlock"
	SongPlay     Type = "song_play"
	SongComplete Type = "song_complete"
	Skip         Type = "skip"
	Pause        Type = "pause"
	Resume       Type = "resume"
	Download     Type = "download"
	Search       Type = "search"
)

// Params carries event attributes.
type Params map[string]any

// Event is one recorded event.
type Event struct {
	Type      Type      `json:"event"`
	Timestamp time.Time `json:"ts"`
	Session   string    `json:"session"`
	Params    Params    `json:"params,omitempty"`
}

// String returns a param as a string, or "" when absent.
func (e Event) String(key string) string {
	v, ok := e.Params[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

// Int returns a numeric param, or 0 when absent.
func (e Event) Int(key string) int {
	switch v := e.Params[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return 0
	}
}

// TrackParams describes a track for play, complete and download events.
func TrackParams(t core.Track) Params {
	return Params{
		"artist":   t.Artist,
		"album":    t.Album,
		"title":    t.Title,
		"year":     t.Year,
		"track_id": t.ID,
	}
}

// With returns a copy of p with extra keys set.
func (p Params) With(kv ...any) Params {
	out := make(Params, len(p)+len(kv)/2)
	for k, v := range p {
		out[k] = v
	}
	for i := 0; i+1 < len(kv); i += 2 {
		if k, ok := kv[i].(string); ok {
			out[k] = kv[i+1]
		}
	}
	return out
}
