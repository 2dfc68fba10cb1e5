// Package playback reconciles one local media player against the shared
// channel state without feedback oscillation: server corrections are applied
// under a suppression window so the player's own event cascade is not echoed
// back as local intent.
package playback

import (
	"fmt"
	"math"
)

// Event is a notification from the player resource.
type Event int

const (
	EventPlaying Event = iota
	EventPause
	EventSeeked
)

func (e Event) String() string {
	switch e {
	case EventPlaying:
		return "playing"
	case EventPause:
		return "pause"
	case EventSeeked:
		return "seeked"
	default:
		return "unknown"
	}
}

// Player is the controllable playback resource. The controller is its only
// writer while a server correction is being applied; local controls write to
// it the rest of the time. Duration returns NaN until known.
type Player interface {
	Load(src string, startAt float64, paused bool)
	CurrentTime() float64
	Duration() float64
	Paused() bool
	Play()
	Pause()
	Seek(seconds float64)
	SetListener(fn func(Event))
}

// FormatTime renders seconds as mm:ss or hh:mm:ss. An unknown (NaN) value
// renders as the zero placeholder instead of failing.
func FormatTime(seconds float64) string {
	if math.IsNaN(seconds) || seconds < 0 {
		return "00:00"
	}

	total := int(seconds)
	hours := total / 3600
	minutes := total / 60 % 60
	secs := total % 60

	if hours == 0 {
		return fmt.Sprintf("%02d:%02d", minutes, secs)
	}
	return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, secs)
}
