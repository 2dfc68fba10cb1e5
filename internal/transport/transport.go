// Package transport implements a reconnecting, message-framed websocket
// client. Callers register callbacks for named events and emit named events
// back; the underlying connection lifecycle (dial, reconnect with backoff,
// teardown) is invisible to them. Inspired by socket.io's event handling.
package transport

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"minna-client/internal/protocol"
)

// State is the connection lifecycle state.
type State int32

const (
	StateClosed State = iota
	StateConnecting
	StateOpen
	StateReconnecting
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateReconnecting:
		return "reconnecting"
	default:
		return "unknown"
	}
}

const (
	defaultMaxReconnects = 5
	defaultBackoffUnit   = time.Second
)

// Handler receives the data portion of an inbound frame.
type Handler func(data json.RawMessage)

type handlerEntry struct {
	fn   Handler
	ctx  context.Context
	once bool
}

type queuedEmit struct {
	event string
	data  any
}

// Transport is a reconnecting websocket connection. One Transport owns at
// most one underlying socket at any time.
type Transport struct {
	url           string
	id            string
	dialer        *websocket.Dialer
	maxReconnects int
	backoffUnit   time.Duration

	mu             sync.Mutex
	state          State
	conn           *websocket.Conn
	gen            int
	handlers       map[string]map[int64]*handlerEntry
	nextHandlerID  int64
	queue          []queuedEmit
	attempt        int
	reconnectTimer *time.Timer
	closed         bool

	wmu sync.Mutex
}

// Option configures a Transport.
type Option func(*Transport)

// WithMaxReconnects caps automatic reconnection attempts. Exceeding the cap
// leaves the transport Closed until Connect is called again.
func WithMaxReconnects(n int) Option {
	return func(t *Transport) { t.maxReconnects = n }
}

// WithBackoffUnit sets the linear backoff unit (delay = attempt * unit).
func WithBackoffUnit(d time.Duration) Option {
	return func(t *Transport) { t.backoffUnit = d }
}

// WithDialer injects a custom websocket dialer.
func WithDialer(d *websocket.Dialer) Option {
	return func(t *Transport) { t.dialer = d }
}

// New creates a Transport for the given ws/wss url. No connection is opened
// until Connect is called.
func New(url string, opts ...Option) *Transport {
	t := &Transport{
		url:           url,
		id:            uuid.NewString()[:8],
		dialer:        websocket.DefaultDialer,
		maxReconnects: defaultMaxReconnects,
		backoffUnit:   defaultBackoffUnit,
		handlers:      make(map[string]map[int64]*handlerEntry),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// State reports the current lifecycle state.
func (t *Transport) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Connect opens the underlying socket. It is idempotent: calling it while a
// connection is open or mid-open does nothing. Failures are not returned;
// they surface through the reconnect path.
func (t *Transport) Connect() {
	t.mu.Lock()
	if t.state == StateOpen || t.state == StateConnecting {
		t.mu.Unlock()
		return
	}
	if t.reconnectTimer != nil {
		t.reconnectTimer.Stop()
		t.reconnectTimer = nil
	}
	if t.state == StateClosed {
		t.attempt = 0
	}
	t.closed = false
	t.state = StateConnecting
	t.gen++
	gen := t.gen
	t.mu.Unlock()

	go t.dial(gen)
}

func (t *Transport) dial(gen int) {
	conn, _, err := t.dialer.Dial(t.url, nil)

	t.mu.Lock()
	if t.gen != gen || t.closed {
		t.mu.Unlock()
		if conn != nil {
			conn.Close()
		}
		return
	}
	if err != nil {
		log.Warn().Err(err).Str("conn", t.id).Msgf("[transport] dial %s failed", t.url)
		t.state = StateReconnecting
		t.scheduleReconnectLocked()
		t.mu.Unlock()
		return
	}

	t.conn = conn
	t.state = StateOpen
	t.attempt = 0
	pending := t.queue
	t.queue = nil
	t.mu.Unlock()

	log.Debug().Str("conn", t.id).Msg("[transport] connected")

	t.writeFrame(protocol.EventConnection, protocol.ConnectionHello{})
	for _, q := range pending {
		t.writeFrame(q.event, q.data)
	}

	go t.readLoop(conn, gen)
}

func (t *Transport) readLoop(conn *websocket.Conn, gen int) {
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			break
		}

		frame, err := protocol.DecodeFrame(raw)
		if err != nil {
			// One bad frame must not corrupt subsequent dispatch.
			log.Error().Err(err).Str("conn", t.id).Msg("[transport] dropping malformed frame")
			continue
		}
		t.dispatch(frame.Event, frame.Data)
	}
	t.handleClose(gen)
}

func (t *Transport) handleClose(gen int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.gen != gen {
		return
	}
	t.conn = nil
	if t.closed {
		t.state = StateClosed
		return
	}

	log.Debug().Str("conn", t.id).Msg("[transport] connection closed")
	t.state = StateReconnecting
	t.scheduleReconnectLocked()
}

// scheduleReconnectLocked arms the single reconnect timer. Callers hold t.mu.
func (t *Transport) scheduleReconnectLocked() {
	if t.reconnectTimer != nil {
		return
	}
	if t.attempt >= t.maxReconnects {
		log.Warn().Str("conn", t.id).Msgf("[transport] giving up after %d attempts", t.attempt)
		t.state = StateClosed
		return
	}
	t.attempt++
	delay := time.Duration(t.attempt) * t.backoffUnit
	log.Debug().Str("conn", t.id).Msgf("[transport] reconnect attempt %d in %s", t.attempt, delay)
	t.reconnectTimer = time.AfterFunc(delay, func() {
		t.mu.Lock()
		t.reconnectTimer = nil
		t.mu.Unlock()
		t.Connect()
	})
}

// Disconnect closes the underlying socket and cancels any pending reconnect.
// The transport stays Closed until Connect is called again.
func (t *Transport) Disconnect() {
	t.mu.Lock()
	t.closed = true
	t.gen++
	if t.reconnectTimer != nil {
		t.reconnectTimer.Stop()
		t.reconnectTimer = nil
	}
	conn := t.conn
	t.conn = nil
	t.state = StateClosed
	t.mu.Unlock()

	if conn != nil {
		conn.Close()
	}
	log.Debug().Str("conn", t.id).Msg("[transport] disconnected")
}

func (t *Transport) currentConn() *websocket.Conn {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.conn
}

func (t *Transport) writeFrame(event string, data any) {
	raw, err := protocol.EncodeFrame(event, data)
	if err != nil {
		log.Error().Err(err).Str("conn", t.id).Msgf("[transport] encode %s failed", event)
		return
	}

	t.wmu.Lock()
	defer t.wmu.Unlock()
	conn := t.currentConn()
	if conn == nil {
		return
	}
	if err := conn.WriteMessage(websocket.TextMessage, raw); err != nil {
		log.Warn().Err(err).Str("conn", t.id).Msgf("[transport] write %s failed", event)
	}
}
