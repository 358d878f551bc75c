package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/camrelay/camrelay/internal/config"
	"github.com/camrelay/camrelay/internal/device"
	"github.com/camrelay/camrelay/internal/discovery"
	"github.com/camrelay/camrelay/internal/logging"
	"github.com/camrelay/camrelay/internal/registry"
	"github.com/camrelay/camrelay/internal/relay"
	"github.com/camrelay/camrelay/internal/session"
)

// shutdownTimeout bounds graceful shutdown once the run context ends
const shutdownTimeout = 5 * time.Second

// Discoverer runs discovery passes. Satisfied by *discovery.Orchestrator;
// injected so handlers are testable without a network.
type Discoverer interface {
	Discover(ctx context.Context, req discovery.Request) ([]device.Record, error)
}

// Server is the HTTP API surface: discovery, registry reads, and the
// snapshot/stream relays.
type Server struct {
	cfg        *config.Config
	engine     *gin.Engine
	discoverer Discoverer
	opener     session.Opener
	registry   *registry.Registry
	fetcher    *relay.Fetcher
	hub        *hub
}

// New assembles the server around its collaborators. The registry's
// publish events feed the WebSocket hub.
func New(cfg *config.Config, discoverer Discoverer, opener session.Opener, reg *registry.Registry) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	s := &Server{
		cfg:        cfg,
		engine:     engine,
		discoverer: discoverer,
		opener:     opener,
		registry:   reg,
		fetcher:    relay.NewFetcher(cfg.Relay.ExtractorURL),
		hub:        newHub(),
	}

	reg.Subscribe(s.hub.broadcast)
	s.setupRoutes()
	return s
}

// setupRoutes configures the API routes
func (s *Server) setupRoutes() {
	s.engine.Use(corsMiddleware())
	s.engine.Use(requestLogger())

	s.engine.GET("/healthz", s.handleHealthz)

	// Both bare and /api-prefixed routes are served; deployment targets
	// behind different path mappings hit the same handlers
	for _, group := range []*gin.RouterGroup{
		s.engine.Group("/"),
		s.engine.Group("/api"),
	} {
		group.POST("/discover", s.handleDiscover)
		group.GET("/devices", s.handleDevices)
		group.GET("/snapshot", s.handleSnapshot)
		group.GET("/stream", s.handleStream)
	}

	s.engine.GET("/ws", s.hub.handle)
}

// Handler exposes the route tree for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves the API until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.cfg.ListenAddr,
		Handler: s.engine,
	}

	logging.Info("Starting camrelay HTTP API",
		zap.String("addr", s.cfg.ListenAddr),
	)

	group, ctx := errgroup.WithContext(ctx)

	group.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	group.Go(func() error {
		<-ctx.Done()
		logging.Info("Shutting down HTTP API")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return group.Wait()
}

// requestLogger logs completed requests through the structured logger.
// The continuous stream endpoint is skipped; logging a request that lives
// for minutes on completion is noise.
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		if c.Request.URL.Path == "/stream" || c.Request.URL.Path == "/api/stream" {
			return
		}
		logging.LogHTTPRequest(c.ClientIP(), c.Request.Method, c.Request.URL.Path, c.Writer.Status())
	}
}
