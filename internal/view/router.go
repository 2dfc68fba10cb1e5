// Package view exposes the session state and user intents over a local HTTP
// facade. It is the bridge for whatever rendering layer sits on top; nothing
// here renders anything.
package view

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// Router wraps the gin engine and the local HTTP server.
type Router struct {
	engine  *gin.Engine
	handler *Handler
	srv     *http.Server
}

// NewRouter builds the facade around an intent handler.
func NewRouter(handler *Handler) *Router {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(requestLogger())

	r := &Router{engine: engine, handler: handler}
	r.setupRoutes()
	return r
}

func (r *Router) setupRoutes() {
	r.engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.handler.RegisterRoutes(r.engine.Group("/api/v1"))
}

// Handler returns the underlying http.Handler, used directly by tests.
func (r *Router) Handler() http.Handler {
	return r.engine
}

// Serve runs the facade on addr until Shutdown.
func (r *Router) Serve(addr string) error {
	r.srv = &http.Server{
		Addr:              addr,
		Handler:           r.engine,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	log.Info().Msgf("[view] listening on http://%s", addr)
	if err := r.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown stops the HTTP server gracefully.
func (r *Router) Shutdown(ctx context.Context) error {
	if r.srv == nil {
		return nil
	}
	return r.srv.Shutdown(ctx)
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Debug().
			Int("status", c.Writer.Status()).
			Dur("latency", time.Since(start)).
			Msgf("[view] %s %s", c.Request.Method, c.Request.URL.Path)
	}
}
