// Package monitor serves live queue statistics over HTTP while a driver runs.
package monitor

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/huynhanx03/go-timedqueue/pkg/common/http/handler"
	"github.com/huynhanx03/go-timedqueue/pkg/common/http/response"
	"github.com/huynhanx03/go-timedqueue/pkg/settings"
)

const shutdownTimeout = 5 * time.Second

// Gauge is the read-only view of a queue the monitor reports on.
type Gauge interface {
	Count() int
	Cap() int
}

// Snapshot is the body of GET /stats.
type Snapshot struct {
	Capacity int `json:"capacity"`
	Count    int `json:"count"`
	Driver   any `json:"driver,omitempty"`
}

// Server exposes /healthz and /stats for one queue.
type Server struct {
	cfg    settings.Monitor
	gauge  Gauge
	driver func() any
	log    *zap.Logger
	engine *gin.Engine
}

// New builds a Server. driver, if not nil, is called on every /stats request
// and its result is embedded in the snapshot.
func New(cfg settings.Monitor, gauge Gauge, driver func() any, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.Mode != "" {
		gin.SetMode(cfg.Mode)
	}

	s := &Server{
		cfg:    cfg,
		gauge:  gauge,
		driver: driver,
		log:    log.Named("monitor"),
		engine: gin.New(),
	}
	s.engine.Use(gin.Recovery(), s.accessLog())
	s.engine.GET("/healthz", handler.Wrap(s.health))
	s.engine.GET("/stats", handler.Wrap(s.stats))
	s.engine.NoRoute(func(c *gin.Context) {
		response.ErrorResponse(c, response.CodeNotFound, nil)
	})
	return s
}

// Handler returns the HTTP handler, for embedding or tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Addr returns the configured listen address.
func (s *Server) Addr() string {
	return net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port))
}

// Listen binds the configured address. Binding before a run starts lets
// callers fail fast on a taken port.
func (s *Server) Listen() (net.Listener, error) {
	ln, err := net.Listen("tcp", s.Addr())
	if err != nil {
		return nil, errors.Wrap(err, "monitor listen")
	}
	return ln, nil
}

// Run listens and serves until ctx is done.
func (s *Server) Run(ctx context.Context) error {
	ln, err := s.Listen()
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is done, then shuts down gracefully.
// ln is closed when Serve returns.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.engine,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("monitor listening", zap.String("addr", ln.Addr().String()))
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		return errors.Wrap(err, "monitor")
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "monitor shutdown")
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "monitor")
	}
	return nil
}

func (s *Server) health(context.Context) (string, error) {
	return "ok", nil
}

func (s *Server) stats(context.Context) (Snapshot, error) {
	snap := Snapshot{
		Capacity: s.gauge.Cap(),
		Count:    s.gauge.Count(),
	}
	if s.driver != nil {
		snap.Driver = s.driver()
	}
	return snap, nil
}

func (s *Server) accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.Debug("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("took", time.Since(start)))
	}
}
