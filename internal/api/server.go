package api

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/concave-dev/ceph-sentinel/internal/api/handlers"
	"github.com/concave-dev/ceph-sentinel/internal/logging"
	"github.com/concave-dev/ceph-sentinel/internal/metrics"
	"github.com/concave-dev/ceph-sentinel/internal/netutil"
	"github.com/gin-gonic/gin"
)

// Server is the sentinel status server.
type Server struct {
	status     handlers.StatusProvider
	host       handlers.HostProvider
	metrics    *metrics.Metrics
	version    string
	staleAfter time.Duration
	startTime  time.Time
	httpServer *http.Server
	bindAddr   string
	bindPort   int
}

// NewServer creates a server from a validated config.
func NewServer(config *Config) (*Server, error) {
	if config == nil {
		return nil, fmt.Errorf("api config cannot be nil")
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	// Set Gin to release mode for production
	gin.SetMode(gin.ReleaseMode)

	return &Server{
		status:     config.Status,
		host:       config.Host,
		metrics:    config.Metrics,
		version:    config.Version,
		staleAfter: config.StaleAfter,
		startTime:  time.Now(),
		bindAddr:   config.BindAddr,
		bindPort:   config.BindPort,
	}, nil
}

// Addr returns the host:port the server binds to.
func (s *Server) Addr() string {
	return net.JoinHostPort(s.bindAddr, strconv.Itoa(s.bindPort))
}

// Router builds the gin engine with middleware and routes.
func (s *Server) Router() *gin.Engine {
	router := gin.New()

	// Configure Gin logging only if not already configured by CLI tools
	if !logging.IsConfiguredByCLI() {
		gin.DefaultWriter = logging.NewLevelWriter("DEBUG", "gin")
		gin.DefaultErrorWriter = logging.NewLevelWriter("ERROR", "gin")
	}

	router.Use(s.loggingMiddleware())
	router.Use(s.corsMiddleware())
	router.Use(gin.Recovery())

	s.setupRoutes(router)
	return router
}

// Start binds the listener and serves in the background.
func (s *Server) Start() error {
	logging.Info("Starting status API server on %s", s.Addr())

	s.httpServer = &http.Server{
		Addr:         s.Addr(),
		Handler:      s.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Bind synchronously so address errors surface to the caller
	listener, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		if netutil.IsAddressInUseError(err) {
			return fmt.Errorf("cannot bind status API to %s: port %d is already in use", s.bindAddr, s.bindPort)
		}
		return fmt.Errorf("failed to bind to %s: %w", s.httpServer.Addr, err)
	}

	go func() {
		if err := s.httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
			logging.Error("Status API server failed: %v", err)
		}
	}()

	logging.Success("Status API server listening on %s", listener.Addr())
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	logging.Info("Shutting down status API server...")

	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}

func (s *Server) handleHealth(c *gin.Context) {
	handlers.HandleHealth(handlers.HealthOptions{
		Version:    s.version,
		StartTime:  s.startTime,
		StaleAfter: s.staleAfter,
		Status:     s.status,
	})(c)
}

func (s *Server) handleStatus(c *gin.Context) {
	handlers.HandleStatus(s.status, s.host)(c)
}

func (s *Server) handleMetrics(c *gin.Context) {
	s.metrics.Handler().ServeHTTP(c.Writer, c.Request)
}
