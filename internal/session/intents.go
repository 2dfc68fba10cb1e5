package session

import (
	"strings"

	"minna-client/internal/playback"
	"minna-client/internal/protocol"
	"minna-client/internal/transport"
)

// QueueMedia submits a media entry to the shared queue. Duplicate ids are
// rejected here, before reaching the transport: the server does not dedupe
// and a queue_updated echo would otherwise double the entry.
func (s *Session) QueueMedia(media protocol.QueuedMedia) error {
	s.mu.Lock()
	if _, dup := s.queued[media.ID]; dup {
		s.mu.Unlock()
		return ErrAlreadyQueued
	}
	s.queued[media.ID] = struct{}{}
	s.mu.Unlock()

	s.sock.Emit(protocol.EventQueueMedia, media)
	return nil
}

// RemoveMedia asks the server to drop a queue entry. The local queue is only
// updated when the media_removed echo arrives.
func (s *Session) RemoveMedia(id string) {
	s.sock.Emit(protocol.EventQueueRemove, protocol.QueueMediaID{ID: id})
}

// SendMessage posts a chat message to the channel.
func (s *Session) SendMessage(text string) error {
	if strings.TrimSpace(text) == "" {
		return ErrEmptyMessage
	}
	s.sock.Emit(protocol.EventSendMessage, protocol.GenericMessage{Message: text})
	return nil
}

// RunCommand submits a channel command (take remote, purge, skip).
func (s *Session) RunCommand(cmd protocol.CommandType) error {
	if !cmd.IsValid() {
		return ErrInvalidCommand
	}
	s.sock.Emit(protocol.EventRunCommand, protocol.ChannelCommand{Type: cmd})
	return nil
}

// Snapshot is the view-model handed to the rendering layer.
type Snapshot struct {
	ChannelID     string                 `json:"channel_id"`
	Status        string                 `json:"status"`
	GuestUsername string                 `json:"guest_username,omitempty"`
	NowPlaying    *protocol.NowPlaying   `json:"now_playing"`
	Label         string                 `json:"label"`
	Position      string                 `json:"position"`
	Queue         []protocol.QueuedMedia `json:"queue"`
	MessageCount  int                    `json:"message_count"`
}

// Snapshot returns a copy of the aggregate state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		ChannelID:     s.channelID,
		Status:        s.status.String(),
		GuestUsername: s.guestUsername,
		Label:         "Nothing Playing",
		Position:      playback.FormatTime(0),
		Queue:         append([]protocol.QueuedMedia(nil), s.queue...),
		MessageCount:  len(s.messages),
	}
	if s.nowPlaying != nil {
		np := *s.nowPlaying
		snap.NowPlaying = &np
		snap.Label = mediaLabel(np.QueuedMedia)
		snap.Position = playback.FormatTime(np.CurrentTime)
	}
	return snap
}

// Messages returns a copy of the chronological message feed.
func (s *Session) Messages() []protocol.ChannelMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]protocol.ChannelMessage(nil), s.messages...)
}

// Status returns the current lifecycle state.
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

func mediaLabel(media protocol.QueuedMedia) string {
	series := media.Series
	if series == "" {
		series = "Unknown Series"
	}
	title := media.Title
	if title == "" {
		title = "No title"
	}
	return series + " - " + title
}

// compile-time check that the real transport satisfies Socket.
var _ Socket = (*transport.Transport)(nil)
