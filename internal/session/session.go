// Package session owns the per-channel aggregate state (now playing, queue,
// message feed) and the join handshake, and forwards playback events to the
// reconciliation controller. The rendering layer only ever sees snapshots
// and submits intents; server pushes are the single source of truth.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"minna-client/internal/playback"
	"minna-client/internal/protocol"
	"minna-client/internal/transport"
)

var (
	ErrAlreadyQueued  = errors.New("media already queued")
	ErrInvalidCommand = errors.New("invalid command type")
	ErrEmptyMessage   = errors.New("message is empty")
	ErrNoIdentity     = errors.New("guest username is empty")
)

// Status is the session lifecycle state.
type Status int

const (
	StatusConnecting Status = iota
	StatusAwaitingIdentity
	StatusJoining
	StatusJoined
	StatusJoinFailed
)

func (s Status) String() string {
	switch s {
	case StatusConnecting:
		return "connecting"
	case StatusAwaitingIdentity:
		return "awaiting_identity"
	case StatusJoining:
		return "joining"
	case StatusJoined:
		return "joined"
	case StatusJoinFailed:
		return "join_failed"
	default:
		return "unknown"
	}
}

// Socket is the slice of the transport the session depends on.
type Socket interface {
	On(event string, fn transport.Handler, opts ...transport.ListenOption) (cancel func())
	Emit(event string, data any, opts ...transport.EmitOption)
}

const defaultJoinTimeout = 10 * time.Second

// Session is one joined channel.
type Session struct {
	channelID   string
	proxyBase   string
	sock        Socket
	ctrl        *playback.Controller
	joinTimeout time.Duration

	mu            sync.Mutex
	status        Status
	guestUsername string
	nowPlaying    *protocol.NowPlaying
	queue         []protocol.QueuedMedia
	queued        map[string]struct{}
	messages      []protocol.ChannelMessage
	joinTimer     *time.Timer
	cancel        context.CancelFunc
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithProxyBase prefixes media urls with the stream proxy base url.
func WithProxyBase(base string) SessionOption {
	return func(s *Session) { s.proxyBase = strings.TrimRight(base, "/") }
}

// WithJoinTimeout bounds how long the session waits for room_data after
// join_channel. The protocol has no explicit rejection event, so a missing
// full resync is the only join-failure signal available.
func WithJoinTimeout(d time.Duration) SessionOption {
	return func(s *Session) { s.joinTimeout = d }
}

// New creates a session for channelID on top of an already constructed
// socket and reconciliation controller.
func New(sock Socket, ctrl *playback.Controller, channelID string, opts ...SessionOption) *Session {
	s := &Session{
		channelID:   channelID,
		sock:        sock,
		ctrl:        ctrl,
		joinTimeout: defaultJoinTimeout,
		status:      StatusConnecting,
		queued:      make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start registers the session's event handlers, scoped to ctx: Close (or a
// cancelled parent) unregisters all of them.
func (s *Session) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	s.mu.Lock()
	s.cancel = cancel
	s.mu.Unlock()

	scoped := transport.WithContext(ctx)
	s.sock.On(protocol.EventConnected, s.onConnected, scoped)
	s.sock.On(protocol.EventRoomData, s.onRoomData, scoped)
	s.sock.On(protocol.EventMediaChanged, s.onMediaChanged, scoped)
	s.sock.On(protocol.EventMediaRemoved, s.onMediaRemoved, scoped)
	s.sock.On(protocol.EventQueueUpdated, s.onQueueUpdated, scoped)
	s.sock.On(protocol.EventStateSync, s.onTimeUpdate, scoped)
	s.sock.On(protocol.EventStateUpdated, s.onTimeUpdate, scoped)
	s.sock.On(protocol.EventChannelMessage, s.onChannelMessage, scoped)
	s.sock.On(protocol.EventCommand, s.onCommand, scoped)
	s.sock.On(protocol.EventUserJoined, s.onUserJoined, scoped)
	s.sock.On(protocol.EventUserLeft, s.onUserLeft, scoped)
}

// Close unregisters all handlers and stops pending timers.
func (s *Session) Close() {
	s.mu.Lock()
	cancel := s.cancel
	s.cancel = nil
	if s.joinTimer != nil {
		s.joinTimer.Stop()
		s.joinTimer = nil
	}
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
}

// SetIdentity supplies the local display name. If the connection handshake
// already completed, the join is emitted immediately; otherwise it happens
// on the next connected event.
func (s *Session) SetIdentity(username string) error {
	username = strings.TrimSpace(username)
	if username == "" {
		return ErrNoIdentity
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.guestUsername = username
	if s.status == StatusAwaitingIdentity || s.status == StatusJoinFailed {
		s.joinLocked()
	}
	return nil
}

// joinLocked emits the identity handshake. Queued so that a join racing a
// reconnect is replayed instead of silently dropped. Callers hold s.mu.
func (s *Session) joinLocked() {
	s.status = StatusJoining
	log.Info().Msgf("[session] joining channel %s as %s", s.channelID, s.guestUsername)

	s.sock.Emit(protocol.EventJoinChannel, protocol.JoinChannel{
		ChannelID:     s.channelID,
		GuestUsername: s.guestUsername,
	}, transport.WithQueue())

	if s.joinTimer != nil {
		s.joinTimer.Stop()
	}
	s.joinTimer = time.AfterFunc(s.joinTimeout, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.status != StatusJoining {
			return
		}
		log.Warn().Msgf("[session] no room data within %s, join failed", s.joinTimeout)
		s.status = StatusJoinFailed
	})
}

func (s *Session) onConnected(json.RawMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.guestUsername != "" {
		// Rejoin with the known identity after a reconnect.
		s.joinLocked()
		return
	}
	s.status = StatusAwaitingIdentity
}

func (s *Session) onRoomData(data json.RawMessage) {
	var room protocol.RoomData
	if err := json.Unmarshal(data, &room); err != nil {
		log.Error().Err(err).Msg("[session] bad room_data payload")
		return
	}

	s.mu.Lock()
	if s.joinTimer != nil {
		s.joinTimer.Stop()
		s.joinTimer = nil
	}
	s.status = StatusJoined
	s.nowPlaying = room.NowPlaying
	s.messages = append([]protocol.ChannelMessage(nil), room.Messages...)
	s.queue = append([]protocol.QueuedMedia(nil), room.Queue...)
	s.queued = make(map[string]struct{}, len(room.Queue))
	for _, media := range room.Queue {
		s.queued[media.ID] = struct{}{}
	}
	np := s.nowPlaying
	s.mu.Unlock()

	log.Info().Msgf("[session] joined %s (%d queued, %d messages)", s.channelID, len(room.Queue), len(room.Messages))

	if np != nil {
		s.ctrl.ApplyMedia(s.mediaSrc(np.URL), np.CurrentTime, np.Paused)
	}
}

func (s *Session) onMediaChanged(data json.RawMessage) {
	var media protocol.QueuedMedia
	if err := json.Unmarshal(data, &media); err != nil {
		log.Error().Err(err).Msg("[session] bad media_changed payload")
		return
	}

	s.mu.Lock()
	s.nowPlaying = &protocol.NowPlaying{QueuedMedia: media}
	s.removeFromQueueLocked(media.ID)
	s.mu.Unlock()

	s.ctrl.ApplyMedia(s.mediaSrc(media.URL), 0, false)
}

func (s *Session) onMediaRemoved(data json.RawMessage) {
	var id protocol.QueueMediaID
	if err := json.Unmarshal(data, &id); err != nil {
		log.Error().Err(err).Msg("[session] bad media_removed payload")
		return
	}

	s.mu.Lock()
	s.removeFromQueueLocked(id.ID)
	s.mu.Unlock()
}

// removeFromQueueLocked filters the queue by id. Callers hold s.mu.
func (s *Session) removeFromQueueLocked(id string) {
	delete(s.queued, id)
	filtered := s.queue[:0]
	for _, media := range s.queue {
		if media.ID != id {
			filtered = append(filtered, media)
		}
	}
	s.queue = filtered
}

func (s *Session) onQueueUpdated(data json.RawMessage) {
	var media protocol.QueuedMedia
	if err := json.Unmarshal(data, &media); err != nil {
		log.Error().Err(err).Msg("[session] bad queue_updated payload")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	// The queued set also holds our own pending submissions, so dedupe echoes
	// against the confirmed queue itself.
	for _, entry := range s.queue {
		if entry.ID == media.ID {
			return
		}
	}
	s.queued[media.ID] = struct{}{}
	s.queue = append(s.queue, media)
}

func (s *Session) onTimeUpdate(data json.RawMessage) {
	var tu protocol.TimeUpdate
	if err := json.Unmarshal(data, &tu); err != nil {
		log.Error().Err(err).Msg("[session] bad state update payload")
		return
	}

	s.mu.Lock()
	if s.nowPlaying != nil {
		s.nowPlaying.CurrentTime = tu.CurrentTime
		s.nowPlaying.Paused = tu.Paused
	}
	s.mu.Unlock()

	s.ctrl.ApplyTimeUpdate(tu)
}

func (s *Session) onChannelMessage(data json.RawMessage) {
	var msg protocol.ChannelMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		log.Error().Err(err).Msg("[session] bad channel_message payload")
		return
	}

	s.mu.Lock()
	s.messages = append(s.messages, msg)
	s.mu.Unlock()
}

func (s *Session) onCommand(data json.RawMessage) {
	var cmd protocol.ChannelCommand
	if err := json.Unmarshal(data, &cmd); err != nil {
		log.Error().Err(err).Msg("[session] bad command payload")
		return
	}
	if !cmd.Type.IsValid() {
		log.Warn().Msgf("[session] ignoring unknown command %d", cmd.Type)
		return
	}

	switch cmd.Type {
	case protocol.CommandPurgeMessages:
		s.mu.Lock()
		s.messages = nil
		s.mu.Unlock()
		log.Info().Msg("[session] messages purged")
	default:
		// TakeRemote and QueueSkip are resolved server-side; the outcome
		// arrives as state or media events.
	}
}

func (s *Session) onUserJoined(data json.RawMessage) {
	s.appendPresence(data, protocol.MessageUserJoin)
}

func (s *Session) onUserLeft(data json.RawMessage) {
	s.appendPresence(data, protocol.MessageUserLeave)
}

func (s *Session) appendPresence(data json.RawMessage, kind protocol.MessageType) {
	var user protocol.UserPresence
	if err := json.Unmarshal(data, &user); err != nil {
		log.Error().Err(err).Msg("[session] bad presence payload")
		return
	}

	s.mu.Lock()
	s.messages = append(s.messages, protocol.ChannelMessage{
		Type:     kind,
		UTCEpoch: time.Now().UnixMilli(),
		Username: user.Username,
	})
	s.mu.Unlock()
}

// mediaSrc routes playback through the stream proxy when configured.
func (s *Session) mediaSrc(url string) string {
	if s.proxyBase == "" {
		return url
	}
	return fmt.Sprintf("%s/m3u8/%s", s.proxyBase, url)
}
