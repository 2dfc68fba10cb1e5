package protocol

// CommandType identifies a channel command, outbound via run_command and
// inbound via command.
type CommandType int

const (
	CommandTakeRemote    CommandType = 0
	CommandPurgeMessages CommandType = 1
	CommandQueueSkip     CommandType = 2
)

// IsValid checks that the CommandType is a known enum value.
func (c CommandType) IsValid() bool {
	switch c {
	case CommandTakeRemote, CommandPurgeMessages, CommandQueueSkip:
		return true
	default:
		return false
	}
}

func (c CommandType) String() string {
	switch c {
	case CommandTakeRemote:
		return "take_remote"
	case CommandPurgeMessages:
		return "purge_messages"
	case CommandQueueSkip:
		return "queue_skip"
	default:
		return "unknown"
	}
}

// MessageType classifies entries of the chat/notification feed.
type MessageType int

const (
	MessageNotification MessageType = iota
	MessageUserJoin
	MessageUserLeave
	MessageUserMessage
	MessageMediaChanged
	MessageMediaQueued
	MessageMediaRemoved
)

// IsValid checks that the MessageType is a known enum value.
func (m MessageType) IsValid() bool {
	return m >= MessageNotification && m <= MessageMediaRemoved
}

func (m MessageType) String() string {
	switch m {
	case MessageNotification:
		return "notification"
	case MessageUserJoin:
		return "user_join"
	case MessageUserLeave:
		return "user_leave"
	case MessageUserMessage:
		return "user_message"
	case MessageMediaChanged:
		return "media_changed"
	case MessageMediaQueued:
		return "media_queued"
	case MessageMediaRemoved:
		return "media_removed"
	default:
		return "unknown"
	}
}
