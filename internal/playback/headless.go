package playback

import (
	"math"
	"sync"
	"time"
)

// HeadlessPlayer is a clock-driven Player with no rendering surface: while
// playing, its position advances with wall time. The daemon runs on it by
// default, and it mimics a real element's event cascade (Load fires seeked
// plus playing/pause) so the suppression discipline is exercised the same
// way as with a browser player.
type HeadlessPlayer struct {
	mu       sync.Mutex
	src      string
	position float64
	anchor   time.Time
	paused   bool
	duration float64
	listener func(Event)
}

// NewHeadlessPlayer returns an idle player with unknown duration.
func NewHeadlessPlayer() *HeadlessPlayer {
	return &HeadlessPlayer{paused: true, duration: math.NaN()}
}

// SetListener registers the event callback. Only one listener is supported.
func (p *HeadlessPlayer) SetListener(fn func(Event)) {
	p.mu.Lock()
	p.listener = fn
	p.mu.Unlock()
}

// SetDuration records the media duration once metadata is known.
func (p *HeadlessPlayer) SetDuration(seconds float64) {
	p.mu.Lock()
	p.duration = seconds
	p.mu.Unlock()
}

// Source returns the currently loaded source url, empty when idle.
func (p *HeadlessPlayer) Source() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.src
}

func (p *HeadlessPlayer) notify(events ...Event) {
	p.mu.Lock()
	fn := p.listener
	p.mu.Unlock()
	if fn == nil {
		return
	}
	for _, ev := range events {
		fn(ev)
	}
}

// positionLocked returns the live position. Callers hold p.mu.
func (p *HeadlessPlayer) positionLocked() float64 {
	pos := p.position
	if !p.paused {
		pos += time.Since(p.anchor).Seconds()
	}
	if !math.IsNaN(p.duration) && pos > p.duration {
		pos = p.duration
	}
	return pos
}

// Load replaces the source and settles at the given position and paused
// state, firing the same event cascade a media element produces.
func (p *HeadlessPlayer) Load(src string, startAt float64, paused bool) {
	p.mu.Lock()
	p.src = src
	p.position = startAt
	p.paused = paused
	p.anchor = time.Now()
	p.duration = math.NaN()
	p.mu.Unlock()

	if paused {
		p.notify(EventSeeked, EventPause)
	} else {
		p.notify(EventSeeked, EventPlaying)
	}
}

func (p *HeadlessPlayer) CurrentTime() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.positionLocked()
}

func (p *HeadlessPlayer) Duration() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.duration
}

func (p *HeadlessPlayer) Paused() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.paused
}

func (p *HeadlessPlayer) Play() {
	p.mu.Lock()
	if !p.paused {
		p.mu.Unlock()
		return
	}
	p.paused = false
	p.anchor = time.Now()
	p.mu.Unlock()

	p.notify(EventPlaying)
}

func (p *HeadlessPlayer) Pause() {
	p.mu.Lock()
	if p.paused {
		p.mu.Unlock()
		return
	}
	p.position = p.positionLocked()
	p.paused = true
	p.mu.Unlock()

	p.notify(EventPause)
}

// Seek moves the position without changing the paused state: seeking while
// paused must not resume playback.
func (p *HeadlessPlayer) Seek(seconds float64) {
	p.mu.Lock()
	if seconds < 0 {
		seconds = 0
	}
	if !math.IsNaN(p.duration) && seconds > p.duration {
		seconds = p.duration
	}
	p.position = seconds
	p.anchor = time.Now()
	p.mu.Unlock()

	p.notify(EventSeeked)
}
