package view

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"minna-client/internal/api"
	"minna-client/internal/playback"
	"minna-client/internal/protocol"
	"minna-client/internal/session"
	"minna-client/internal/transport"
)

// nullSocket satisfies session.Socket; view tests never need a live server.
type nullSocket struct {
	mu    sync.Mutex
	emits []string
}

func (n *nullSocket) On(event string, fn transport.Handler, opts ...transport.ListenOption) func() {
	return func() {}
}

func (n *nullSocket) Emit(event string, data any, opts ...transport.EmitOption) {
	n.mu.Lock()
	n.emits = append(n.emits, event)
	n.mu.Unlock()
}

type fixture struct {
	router  *Router
	player  *playback.HeadlessPlayer
	sock    *nullSocket
	catalog *httptest.Server
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	catalog := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasPrefix(r.URL.Path, "/anime/search/"):
			json.NewEncoder(w).Encode(api.SearchPage{Results: []api.SearchResult{{ID: "s1", Title: "Some Show"}}})
		case r.URL.Path == "/anime/info":
			json.NewEncoder(w).Encode(api.MediaInfo{ID: r.URL.Query().Get("id"), Title: "Some Show"})
		case strings.HasPrefix(r.URL.Path, "/anime/streams/"):
			json.NewEncoder(w).Encode(api.Streams{Streams: []api.Stream{{URL: "u", Resolution: "1080p"}}})
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(catalog.Close)

	sock := &nullSocket{}
	player := playback.NewHeadlessPlayer()
	ctrl := playback.NewController(player, func(protocol.PlayerState) {},
		playback.WithSuppressWindow(10*time.Millisecond),
	)
	t.Cleanup(ctrl.Close)

	sess := session.New(sock, ctrl, "channel-1")
	client, err := api.NewClient(catalog.URL)
	require.NoError(t, err)

	handler := NewHandler(sess, player, client, "animepahe", 10*time.Millisecond)
	t.Cleanup(handler.Searcher().Close)

	return &fixture{
		router:  NewRouter(handler),
		player:  player,
		sock:    sock,
		catalog: catalog,
	}
}

func (f *fixture) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	f.router.Handler().ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestGetStateReturnsSnapshot(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodGet, "/api/v1/state", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var snap session.Snapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
	assert.Equal(t, "channel-1", snap.ChannelID)
	assert.Equal(t, "Nothing Playing", snap.Label)
	assert.Equal(t, "00:00", snap.Position)
}

func TestJoinValidatesUsername(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/api/v1/join", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, http.MethodPost, "/api/v1/join", `{"username":"alice"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var snap session.Snapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
	assert.Equal(t, "alice", snap.GuestUsername)
}

func TestQueueMediaConflictOnDuplicate(t *testing.T) {
	f := newFixture(t)
	body := `{"id":"ep1","title":"Episode 1","url":"media/ep1.m3u8"}`

	rec := f.do(t, http.MethodPost, "/api/v1/queue", body)
	assert.Equal(t, http.StatusAccepted, rec.Code)

	rec = f.do(t, http.MethodPost, "/api/v1/queue", body)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = f.do(t, http.MethodPost, "/api/v1/queue", `{"title":"no ids"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSendMessageValidation(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/api/v1/message", `{"message":""}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, http.MethodPost, "/api/v1/message", `{"message":"hello"}`)
	assert.Equal(t, http.StatusAccepted, rec.Code)
}

func TestRunCommandValidation(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/api/v1/command", `{"type":42}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, http.MethodPost, "/api/v1/command", `{"type":2}`)
	assert.Equal(t, http.StatusAccepted, rec.Code)
}

func TestPlayerControls(t *testing.T) {
	f := newFixture(t)
	f.player.Load("src", 0, true)

	rec := f.do(t, http.MethodPost, "/api/v1/player/seek", `{"seconds":-1}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, http.MethodPost, "/api/v1/player/seek", `{"seconds":30}`)
	require.Equal(t, http.StatusAccepted, rec.Code)
	assert.InDelta(t, 30, f.player.CurrentTime(), 0.5)
	assert.True(t, f.player.Paused(), "seek must not resume playback")

	rec = f.do(t, http.MethodPost, "/api/v1/player/play", "")
	require.Equal(t, http.StatusAccepted, rec.Code)
	assert.False(t, f.player.Paused())

	rec = f.do(t, http.MethodPost, "/api/v1/player/pause", "")
	require.Equal(t, http.StatusAccepted, rec.Code)
	assert.True(t, f.player.Paused())
}

func TestSearchFlow(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/api/v1/search", `{"query":"some show"}`)
	require.Equal(t, http.StatusAccepted, rec.Code)

	// Poll until the debounced search lands in the cache.
	deadline := time.Now().Add(2 * time.Second)
	for {
		rec = f.do(t, http.MethodGet, "/api/v1/search", "")
		require.Equal(t, http.StatusOK, rec.Code)
		if strings.Contains(rec.Body.String(), "Some Show") {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("search result never delivered, last body: %s", rec.Body.String())
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestInfoRequiresID(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/api/v1/info", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, http.MethodGet, "/api/v1/info?id=s1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Some Show")
}

func TestStreamsEndpoint(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodGet, "/api/v1/streams/ep1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "1080p")
}
