package protocol

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeFrameWrapsPayload(t *testing.T) {
	raw, err := EncodeFrame(EventJoinChannel, JoinChannel{ChannelID: "c1", GuestUsername: "alice"})
	require.NoError(t, err)

	var frame struct {
		Event string `json:"event"`
		Data  struct {
			ChannelID     string `json:"channel_id"`
			GuestUsername string `json:"guest_username"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(raw, &frame))
	assert.Equal(t, EventJoinChannel, frame.Event)
	assert.Equal(t, "c1", frame.Data.ChannelID)
	assert.Equal(t, "alice", frame.Data.GuestUsername)
}

func TestDecodeFrameRejectsBadInput(t *testing.T) {
	_, err := DecodeFrame([]byte("not json"))
	assert.Error(t, err)

	_, err = DecodeFrame([]byte(`{"data":{}}`))
	assert.Error(t, err, "frame without event name must be rejected")

	frame, err := DecodeFrame([]byte(`{"event":"state_sync","data":{"current_time":12.5,"paused":true}}`))
	require.NoError(t, err)
	assert.Equal(t, EventStateSync, frame.Event)

	var tu TimeUpdate
	require.NoError(t, json.Unmarshal(frame.Data, &tu))
	assert.Equal(t, 12.5, tu.CurrentTime)
	assert.True(t, tu.Paused)
}

func TestPlayerStateValidateRequiresAField(t *testing.T) {
	assert.Error(t, PlayerState{}.Validate())

	paused := true
	assert.NoError(t, PlayerState{Paused: &paused}.Validate())

	at := 3.5
	assert.NoError(t, PlayerState{CurrentTime: &at}.Validate())
	assert.NoError(t, PlayerState{Paused: &paused, CurrentTime: &at}.Validate())
}

func TestPlayerStateOmitsUnsetFields(t *testing.T) {
	paused := false
	raw, err := json.Marshal(PlayerState{Paused: &paused})
	require.NoError(t, err)
	assert.JSONEq(t, `{"paused":false}`, string(raw))
}

func TestCommandTypeValidation(t *testing.T) {
	for _, c := range []CommandType{CommandTakeRemote, CommandPurgeMessages, CommandQueueSkip} {
		assert.True(t, c.IsValid(), c.String())
	}
	assert.False(t, CommandType(-1).IsValid())
	assert.False(t, CommandType(3).IsValid())
	assert.Equal(t, "purge_messages", CommandPurgeMessages.String())
}

func TestMessageTypeValidation(t *testing.T) {
	assert.True(t, MessageNotification.IsValid())
	assert.True(t, MessageMediaRemoved.IsValid())
	assert.False(t, MessageType(-1).IsValid())
	assert.False(t, MessageType(7).IsValid())
	assert.Equal(t, "user_join", MessageUserJoin.String())
}

func TestNowPlayingEmbedsMediaFields(t *testing.T) {
	raw := []byte(`{"id":"ep1","title":"Episode 1","url":"u1","paused":true,"current_time":7}`)
	var np NowPlaying
	require.NoError(t, json.Unmarshal(raw, &np))
	assert.Equal(t, "ep1", np.ID)
	assert.Equal(t, "Episode 1", np.Title)
	assert.True(t, np.Paused)
	assert.Equal(t, 7.0, np.CurrentTime)
}
