package playback

import (
	"math"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"minna-client/internal/protocol"
)

const (
	// defaultSuppressWindow must be long enough to absorb the player's own
	// event cascade from a single applied correction; the server never acks
	// individual corrections.
	defaultSuppressWindow = time.Second
	defaultSeekDebounce   = 500 * time.Millisecond

	// driftTolerance is the band within which normal monotonic drift is left
	// alone instead of fighting the server over sub-second offsets.
	defaultDriftTolerance = 1.0

	// endGuard ignores pause events this close to the end of the media, so a
	// false "paused" report cannot race the natural end-of-playback event and
	// block queue auto-advance.
	defaultEndGuard = 0.1
)

// EmitFunc delivers an outbound player_state report.
type EmitFunc func(protocol.PlayerState)

// Controller owns the suppression window and decides, for each local player
// event and inbound server correction, whether to emit, apply, or drop.
type Controller struct {
	player Player
	emit   EmitFunc

	window       time.Duration
	seekDebounce time.Duration
	drift        float64
	endGuard     float64

	mu            sync.Mutex
	suppressed    bool
	suppressTimer *time.Timer
	seekTimer     *time.Timer
	closed        bool
}

// ControllerOption configures a Controller.
type ControllerOption func(*Controller)

// WithSuppressWindow overrides the suppression quiet period.
func WithSuppressWindow(d time.Duration) ControllerOption {
	return func(c *Controller) { c.window = d }
}

// WithSeekDebounce overrides the settle delay for seeked reports.
func WithSeekDebounce(d time.Duration) ControllerOption {
	return func(c *Controller) { c.seekDebounce = d }
}

// WithDriftTolerance overrides the drift band in seconds.
func WithDriftTolerance(seconds float64) ControllerOption {
	return func(c *Controller) { c.drift = seconds }
}

// NewController wires itself as the player's event listener.
func NewController(player Player, emit EmitFunc, opts ...ControllerOption) *Controller {
	c := &Controller{
		player:       player,
		emit:         emit,
		window:       defaultSuppressWindow,
		seekDebounce: defaultSeekDebounce,
		drift:        defaultDriftTolerance,
		endGuard:     defaultEndGuard,
	}
	for _, opt := range opts {
		opt(c)
	}
	player.SetListener(c.handlePlayerEvent)
	return c
}

// Suppressed reports whether local player events are currently being dropped.
func (c *Controller) Suppressed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.suppressed
}

// armSuppressionLocked starts (or re-arms) the suppression window. A fresh
// correction re-arms the window; it never stacks.
func (c *Controller) armSuppressionLocked() {
	c.suppressed = true
	if c.suppressTimer != nil {
		c.suppressTimer.Stop()
	}
	c.suppressTimer = time.AfterFunc(c.window, func() {
		c.mu.Lock()
		c.suppressed = false
		c.suppressTimer = nil
		c.mu.Unlock()
	})
}

// ApplyMedia loads a new source at the authoritative position. The load
// cascade (seek, play/pause) happens under suppression.
func (c *Controller) ApplyMedia(src string, startAt float64, paused bool) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.armSuppressionLocked()
	c.mu.Unlock()

	log.Debug().Msgf("[playback] loading media at %s (paused=%t)", FormatTime(startAt), paused)
	c.player.Load(src, startAt, paused)
}

// ApplyTimeUpdate applies a state_sync/state_updated correction. The time
// correction is skipped inside the drift tolerance band; the paused
// correction is skipped when it matches local state.
func (c *Controller) ApplyTimeUpdate(tu protocol.TimeUpdate) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.armSuppressionLocked()
	c.mu.Unlock()

	if local := c.player.CurrentTime(); math.Abs(local-tu.CurrentTime) > c.drift {
		c.player.Seek(tu.CurrentTime)
	}

	if c.player.Paused() != tu.Paused {
		if tu.Paused {
			c.player.Pause()
		} else {
			c.player.Play()
		}
	}
}

func (c *Controller) handlePlayerEvent(ev Event) {
	switch ev {
	case EventPlaying:
		c.reportPaused(false)
	case EventPause:
		c.reportPaused(true)
	case EventSeeked:
		c.scheduleSeekReport()
	}
}

func (c *Controller) reportPaused(paused bool) {
	c.mu.Lock()
	if c.suppressed || c.closed {
		c.mu.Unlock()
		return
	}
	c.mu.Unlock()

	// Near end-of-media the pause/play flurry belongs to natural playback
	// completion, not user intent.
	duration := c.player.Duration()
	if !math.IsNaN(duration) && duration-c.player.CurrentTime() < c.endGuard {
		return
	}

	c.emit(protocol.PlayerState{Paused: &paused})
}

// scheduleSeekReport debounces seeked events: a drag-seek produces many
// intermediate positions, only the settled value should reach the server.
func (c *Controller) scheduleSeekReport() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.suppressed || c.closed {
		return
	}
	if c.seekTimer != nil {
		c.seekTimer.Stop()
	}
	c.seekTimer = time.AfterFunc(c.seekDebounce, func() {
		c.mu.Lock()
		c.seekTimer = nil
		if c.suppressed || c.closed {
			c.mu.Unlock()
			return
		}
		c.mu.Unlock()

		t := c.player.CurrentTime()
		c.emit(protocol.PlayerState{CurrentTime: &t})
	})
}

// Close stops the controller's timers. No reports are emitted afterwards.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	c.suppressed = false
	if c.suppressTimer != nil {
		c.suppressTimer.Stop()
		c.suppressTimer = nil
	}
	if c.seekTimer != nil {
		c.seekTimer.Stop()
		c.seekTimer = nil
	}
}
