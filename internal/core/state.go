package core

import "time"

// NearEndWindow is how close to the end a track must be for "next" not to
// count as a skip.
const NearEndWindow = 5 * time.Second

// PlaybackState is a snapshot of the media player.
type PlaybackState struct {
	Track     *Track        `json:"track"`
	IsPlaying bool          `json:"is_playing"`
	Position  time.Duration `json:"position"`
	Duration  time.Duration `json:"duration"`
	Volume    int           `json:"volume"`
}

// HasTrack returns true if there is an active track.
func (s *PlaybackState) HasTrack() bool {
	return s != nil && s.Track != nil
}

// ProgressPercent returns playback progress as a percentage (0-100).
func (s *PlaybackState) ProgressPercent() float64 {
	if s == nil || s.Duration <= 0 {
		return 0
	}
	p := float64(s.Position) / float64(s.Duration) * 100
	if p > 100 {
		return 100
	}
	return p
}

// NearEnd reports whether playback is within NearEndWindow of the end.
// An unknown duration counts as not near the end.
func (s *PlaybackState) NearEnd() bool {
	if s == nil || s.Duration <= 0 {
		return false
	}
	return s.Position >= s.Duration-NearEndWindow
}
