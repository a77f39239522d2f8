package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	apperrors "github.com/manacube/manacube-go/internal/errors"
	"github.com/manacube/manacube-go/internal/observability"
	"github.com/manacube/manacube-go/internal/server/handlers"
	servermw "github.com/manacube/manacube-go/internal/server/middleware"
)

// Server represents the HTTP server
type Server struct {
	router   *chi.Mux
	server   *http.Server
	host     string
	port     int
	upstream Upstream

	readTimeout  time.Duration
	writeTimeout time.Duration
	idleTimeout  time.Duration
}

// New creates the gateway server. A nil upstream serves only the health,
// version and metrics routes.
func New(host string, port int, upstream Upstream) *Server {
	r := chi.NewRouter()

	// Standard chi middleware
	r.Use(middleware.RealIP)

	// RequestID → Metrics → Recovery
	r.Use(servermw.RequestID)      // 1. Request ID (early for correlation)
	r.Use(servermw.RequestMetrics) // 2. Metrics (measure everything)
	r.Use(servermw.Recovery)       // 3. Panic recovery

	// Standardized error responses using centralized HandleError
	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		// Use gofulmen error envelope for 404 - correlation ID extracted from request context
		err := apperrors.NewNotFoundError("The requested resource was not found")
		HandleError(w, req, err)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		// Use gofulmen error envelope for 405 - correlation ID extracted from request context
		err := apperrors.NewMethodNotAllowedError("The requested method is not allowed for this resource")
		HandleError(w, req, err)
	})

	s := &Server{
		router:       r,
		host:         host,
		port:         port,
		upstream:     upstream,
		readTimeout:  30 * time.Second,
		writeTimeout: 30 * time.Second,
		idleTimeout:  120 * time.Second,
	}

	// Ensure handlers use the centralized error responder
	handlers.SetHTTPErrorResponder(HandleError)

	// Register routes
	s.registerRoutes()

	return s
}

// Start starts the HTTP server
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.host, s.port)

	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.readTimeout,
		WriteTimeout: s.writeTimeout,
		IdleTimeout:  s.idleTimeout,
	}

	observability.ServerLogger.Info("Starting HTTP server",
		zap.String("host", s.host),
		zap.Int("port", s.port),
		zap.String("addr", addr))

	return s.server.ListenAndServe()
}

// SetTimeouts overrides the HTTP server timeouts. Zero values keep the defaults.
// Queued upstream calls can wait out a full backoff window, so the write
// timeout should exceed queue.default_backoff when queueing is on.
func (s *Server) SetTimeouts(read, write, idle time.Duration) {
	if read > 0 {
		s.readTimeout = read
	}
	if write > 0 {
		s.writeTimeout = write
	}
	if idle > 0 {
		s.idleTimeout = idle
	}
}

// Shutdown gracefully shuts down the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	observability.ServerLogger.Info("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

// Handler exposes the underlying router for testing and instrumentation
func (s *Server) Handler() http.Handler {
	return s.router
}

// Port returns the server port for testing
func (s *Server) Port() int {
	return s.port
}
