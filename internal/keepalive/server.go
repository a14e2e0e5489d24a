// Package keepalive serves the liveness endpoints hosting platforms poll to
// keep the process awake. The bot never depends on it.
package keepalive

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/m3rciful/viewsbot/core/logger"
)

// DefaultAddr matches the port most hosting platforms expect when PORT is unset.
const DefaultAddr = "0.0.0.0:5000"

// Server is the keep-alive HTTP surface.
type Server struct {
	addr   string
	mode   string
	now    func() time.Time
	engine *gin.Engine
	srv    *http.Server
}

// New builds the server. mode is reported by "/" ("polling" or "webhook").
func New(addr, mode string) *Server {
	if addr == "" {
		addr = DefaultAddr
	}
	gin.SetMode(gin.ReleaseMode)

	s := &Server{addr: addr, mode: mode, now: time.Now}
	r := gin.New()
	r.Use(gin.Recovery(), requestLog())
	r.GET("/", s.home)
	r.GET("/health", s.health)
	s.engine = r
	s.srv = &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Handler exposes the routes, mainly for tests.
func (s *Server) Handler() http.Handler { return s.engine }

// Start binds the listener and serves in the background. Bind errors are returned.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	logger.HTTP.Info("keep-alive listening",
		slog.String("event", "http.start"),
		slog.String("addr", ln.Addr().String()),
	)
	go func() {
		if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.HTTP.Error("keep-alive stopped",
				slog.String("event", "http.serve"),
				slog.String("err", err.Error()),
			)
		}
	}()
	return nil
}

// Shutdown drains in-flight requests until ctx expires.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

func (s *Server) home(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "Bot is running",
		"mode":      s.mode,
		"timestamp": s.now().Format(time.RFC3339),
	})
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

func requestLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		if logger.ShouldSampleDebug() {
			logger.HTTP.Debug("request",
				slog.String("event", "http.request"),
				slog.String("method", c.Request.Method),
				slog.String("path", c.FullPath()),
				slog.Int("status", c.Writer.Status()),
				slog.Duration("duration", logger.Took(start)),
			)
		}
	}
}
