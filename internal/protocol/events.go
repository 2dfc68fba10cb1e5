// Package protocol defines the event catalog exchanged with a MinnaSync
// server: every frame on the wire is a JSON object of the form
// {"event": string, "data": object}. Outbound events are client intents,
// inbound events are server notifications. Consumers must ignore event
// names they do not recognize rather than fail.
package protocol

import (
	"encoding/json"
	"fmt"
)

// Outbound events (client -> server).
const (
	EventConnection  = "connection"
	EventJoinChannel = "join_channel"
	EventPlayerState = "player_state"
	EventQueueMedia  = "queue_media"
	EventQueueRemove = "queue_remove"
	EventSendMessage = "send_message"
	EventRunCommand  = "run_command"
)

// Inbound events (server -> client).
const (
	EventConnected      = "connected"
	EventRoomData       = "room_data"
	EventMediaChanged   = "media_changed"
	EventMediaRemoved   = "media_removed"
	EventQueueUpdated   = "queue_updated"
	EventStateSync      = "state_sync"
	EventStateUpdated   = "state_updated"
	EventChannelMessage = "channel_message"
	EventCommand        = "command"
	EventUserJoined     = "user_joined"
	EventUserLeft       = "user_left"
)

// Frame is the wire envelope around every event.
type Frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// EncodeFrame wraps an event payload into a wire frame.
func EncodeFrame(event string, data any) ([]byte, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("encode %s payload: %w", event, err)
	}
	return json.Marshal(Frame{Event: event, Data: raw})
}

// DecodeFrame parses a raw wire message into a frame.
func DecodeFrame(raw []byte) (*Frame, error) {
	var f Frame
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("decode frame: %w", err)
	}
	if f.Event == "" {
		return nil, fmt.Errorf("decode frame: missing event name")
	}
	return &f, nil
}
