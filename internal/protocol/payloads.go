package protocol

import "fmt"

// ConnectionHello is the empty payload sent with EventConnection on every
// (re)connect.
type ConnectionHello struct{}

// JoinChannel is the identity handshake. It is the only point credentials
// are sent; there is no retry beyond the transport's reconnect path.
type JoinChannel struct {
	ChannelID     string `json:"channel_id"`
	GuestUsername string `json:"guest_username"`
}

// PlayerState reports a locally driven playback change. Paused and
// CurrentTime are optional and may co-occur, but at least one must be set.
type PlayerState struct {
	Paused      *bool    `json:"paused,omitempty"`
	CurrentTime *float64 `json:"current_time,omitempty"`
}

// Validate enforces the at-least-one-field rule at the boundary.
func (p PlayerState) Validate() error {
	if p.Paused == nil && p.CurrentTime == nil {
		return fmt.Errorf("player_state: at least one of paused/current_time is required")
	}
	return nil
}

// QueuedMedia is a queue entry, also used as the media_changed and
// queue_updated payloads.
type QueuedMedia struct {
	ID             string `json:"id"`
	Title          string `json:"title,omitempty"`
	Series         string `json:"series,omitempty"`
	URL            string `json:"url"`
	PosterImageURL string `json:"poster_image_url,omitempty"`
}

// QueueMediaID identifies a queue entry for queue_remove / media_removed.
type QueueMediaID struct {
	ID string `json:"id"`
}

// NowPlaying is the currently playing media plus its authoritative playback
// position. It is mutated only by inbound server events; the local player
// follows it.
type NowPlaying struct {
	QueuedMedia
	Paused      bool    `json:"paused"`
	CurrentTime float64 `json:"current_time"`
}

// RoomData is the full-resync payload sent after a successful join. A null
// now_playing means no media is loaded.
type RoomData struct {
	NowPlaying *NowPlaying      `json:"now_playing"`
	Queue      []QueuedMedia    `json:"queue"`
	Messages   []ChannelMessage `json:"messages"`
}

// TimeUpdate is the state_sync / state_updated correction payload.
type TimeUpdate struct {
	CurrentTime float64 `json:"current_time"`
	Paused      bool    `json:"paused"`
}

// GenericMessage carries an outbound chat message.
type GenericMessage struct {
	Message string `json:"message"`
}

// ChannelMessage is one entry of the chat/notification feed.
type ChannelMessage struct {
	Type     MessageType `json:"type"`
	UTCEpoch int64       `json:"utc_epoch"`
	Username string      `json:"username"`
	Content  string      `json:"content"`
}

// ChannelCommand is the run_command intent and the inbound command payload.
type ChannelCommand struct {
	Type CommandType `json:"type"`
}

// UserPresence is the user_joined / user_left payload.
type UserPresence struct {
	Username string `json:"username"`
}
