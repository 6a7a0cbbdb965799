package controlsvc

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/xlttj/sniffctl/pkg/logging"
)

// DefaultAddress matches the client's default backend URL.
const DefaultAddress = "127.0.0.1:8787"

type Server struct {
	router *gin.Engine
	server *http.Server
}

func NewServer(addr string, registry *Registry) *Server {
	if addr == "" {
		addr = DefaultAddress
	}

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger())

	metrics := NewMetrics()
	reg := prometheus.NewRegistry()
	metrics.Register(reg)
	// the registry may hold sniffers started before a restart
	if running, err := registry.CountRunning(context.Background()); err == nil {
		metrics.SniffersRunning.Set(float64(running))
	} else {
		logging.LogError("failed to count running sniffers: %v", err)
	}

	Register(r, registry, metrics, reg)

	return &Server{
		router: r,
		server: &http.Server{
			Addr:              addr,
			Handler:           r,
			ReadHeaderTimeout: 2 * time.Second,
		},
	}
}

// Handler exposes the router, for httptest.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) Run(ctx context.Context) error {
	logging.LogInfo("control service listening on %s", s.server.Addr)
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}

func (s *Server) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	return s.server.Shutdown(ctx)
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logging.Raw().Debug().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("duration", time.Since(start)).
			Msg("request")
	}
}
