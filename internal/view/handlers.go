package view

import (
	"errors"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"minna-client/internal/api"
	"minna-client/internal/playback"
	"minna-client/internal/protocol"
	"minna-client/internal/session"
)

// Handler translates HTTP requests into session/player intents.
type Handler struct {
	sess     *session.Session
	player   playback.Player
	catalog  *api.Client
	searcher *api.Searcher
	provider string

	mu         sync.Mutex
	lastQuery  string
	lastResult *api.SearchPage
	lastErr    string
}

// NewHandler wires the facade to the session, the local player and the
// catalog client. The searcher delivers type-ahead results into a cache
// polled by GET /search.
func NewHandler(sess *session.Session, player playback.Player, catalog *api.Client, provider string, searchDebounce time.Duration) *Handler {
	h := &Handler{
		sess:     sess,
		player:   player,
		catalog:  catalog,
		provider: provider,
	}
	h.searcher = api.NewSearcher(catalog, provider, searchDebounce, h.storeResult)
	return h
}

// Searcher exposes the type-ahead searcher so the owner can close it.
func (h *Handler) Searcher() *api.Searcher {
	return h.searcher
}

func (h *Handler) storeResult(query string, page *api.SearchPage, err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.lastQuery = query
	h.lastResult = page
	h.lastErr = ""
	if err != nil {
		h.lastErr = err.Error()
	}
}

// RegisterRoutes maps HTTP methods to handler functions.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/state", h.GetState)
	r.GET("/messages", h.GetMessages)
	r.POST("/join", h.Join)
	r.POST("/message", h.SendMessage)
	r.POST("/queue", h.QueueMedia)
	r.DELETE("/queue/:id", h.RemoveMedia)
	r.POST("/command", h.RunCommand)

	player := r.Group("/player")
	{
		player.POST("/play", h.Play)
		player.POST("/pause", h.Pause)
		player.POST("/seek", h.Seek)
	}

	r.POST("/search", h.Search)
	r.GET("/search", h.SearchResults)
	r.GET("/info", h.Info)
	r.GET("/streams/:id", h.Streams)
}

// GetState returns the session view-model snapshot.
func (h *Handler) GetState(c *gin.Context) {
	c.JSON(http.StatusOK, h.sess.Snapshot())
}

// GetMessages returns the chronological message feed.
func (h *Handler) GetMessages(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"messages": h.sess.Messages()})
}

// Join supplies the guest display name for the identity handshake.
func (h *Handler) Join(c *gin.Context) {
	var body struct {
		Username string `json:"username" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username is required"})
		return
	}
	if err := h.sess.SetIdentity(body.Username); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, h.sess.Snapshot())
}

// SendMessage posts a chat message.
func (h *Handler) SendMessage(c *gin.Context) {
	var body struct {
		Message string `json:"message" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "message is required"})
		return
	}
	if err := h.sess.SendMessage(body.Message); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusAccepted)
}

// QueueMedia submits a media entry to the shared queue.
func (h *Handler) QueueMedia(c *gin.Context) {
	var media protocol.QueuedMedia
	if err := c.ShouldBindJSON(&media); err != nil || media.ID == "" || media.URL == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id and url are required"})
		return
	}
	if err := h.sess.QueueMedia(media); err != nil {
		if errors.Is(err, session.ErrAlreadyQueued) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusAccepted)
}

// RemoveMedia asks the server to drop a queue entry.
func (h *Handler) RemoveMedia(c *gin.Context) {
	h.sess.RemoveMedia(c.Param("id"))
	c.Status(http.StatusAccepted)
}

// RunCommand submits a channel command.
func (h *Handler) RunCommand(c *gin.Context) {
	var body struct {
		Type int `json:"type"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "type is required"})
		return
	}
	if err := h.sess.RunCommand(protocol.CommandType(body.Type)); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusAccepted)
}

// Play resumes local playback as user intent.
func (h *Handler) Play(c *gin.Context) {
	h.player.Play()
	c.Status(http.StatusAccepted)
}

// Pause pauses local playback as user intent.
func (h *Handler) Pause(c *gin.Context) {
	h.player.Pause()
	c.Status(http.StatusAccepted)
}

// Seek moves local playback as user intent.
func (h *Handler) Seek(c *gin.Context) {
	var body struct {
		Seconds *float64 `json:"seconds"`
	}
	if err := c.ShouldBindJSON(&body); err != nil || body.Seconds == nil || *body.Seconds < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "seconds must be a non-negative number"})
		return
	}
	h.player.Seek(*body.Seconds)
	c.Status(http.StatusAccepted)
}

// Search schedules a debounced type-ahead query; superseded queries are
// dropped before they reach the catalog.
func (h *Handler) Search(c *gin.Context) {
	var body struct {
		Query string `json:"query" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "query is required"})
		return
	}
	h.searcher.Query(body.Query)
	c.Status(http.StatusAccepted)
}

// SearchResults returns the latest delivered type-ahead result.
func (h *Handler) SearchResults(c *gin.Context) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.lastErr != "" {
		c.JSON(http.StatusBadGateway, gin.H{"query": h.lastQuery, "error": h.lastErr})
		return
	}
	c.JSON(http.StatusOK, gin.H{"query": h.lastQuery, "result": h.lastResult})
}

// Info proxies the series detail lookup.
func (h *Handler) Info(c *gin.Context) {
	id := c.Query("id")
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id parameter is required"})
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "0"))

	info, err := h.catalog.Info(c.Request.Context(), id, h.provider, page)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, info)
}

// Streams proxies stream resolution for an episode.
func (h *Handler) Streams(c *gin.Context) {
	streams, err := h.catalog.Streams(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, streams)
}
