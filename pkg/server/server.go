package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/soundprediction/footballkg/pkg/config"
	"github.com/soundprediction/footballkg/pkg/server/handlers"
	"github.com/soundprediction/footballkg/pkg/telemetry"
	"github.com/soundprediction/footballkg/pkg/types"
)

// RequestIDHeader carries the request ID in and out of the server.
const RequestIDHeader = "X-Request-ID"

// Client is what the server needs from footballkg.Client.
type Client interface {
	handlers.QA
	handlers.Pinger
}

// Server represents the HTTP server
type Server struct {
	config  *config.Config
	router  *gin.Engine
	client  Client
	metrics *telemetry.Metrics
	logger  *slog.Logger
	server  *http.Server
}

// Option configures a Server.
type Option func(*Server)

// WithMetrics serves m on GET /metrics.
func WithMetrics(m *telemetry.Metrics) Option {
	return func(s *Server) { s.metrics = m }
}

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New creates a new server instance
func New(cfg *config.Config, client Client, opts ...Option) *Server {
	s := &Server{
		config: cfg,
		client: client,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Setup sets up the server routes and middleware
func (s *Server) Setup() {
	if s.config.Server.Mode != "" {
		gin.SetMode(s.config.Server.Mode)
	}

	s.router = gin.New()
	s.router.Use(gin.Recovery())
	s.router.Use(corsMiddleware())
	s.router.Use(contextMiddleware())
	s.router.Use(loggingMiddleware(s.logger))

	s.setupRoutes()

	s.server = &http.Server{
		Addr:              s.config.Server.Addr(),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// Handler returns the configured router. Setup must be called first.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) setupRoutes() {
	var (
		health *handlers.HealthHandler
		qa     *handlers.AnswerHandler
	)
	if s.client != nil {
		health = handlers.NewHealthHandler(s.client)
		qa = handlers.NewAnswerHandler(s.client, s.logger)
	} else {
		health = handlers.NewHealthHandler(nil)
		qa = handlers.NewAnswerHandler(nil, s.logger)
	}

	s.router.GET("/health", health.HealthCheck)
	s.router.GET("/ready", health.ReadinessCheck)
	if s.metrics != nil {
		s.router.GET("/metrics", gin.WrapH(s.metrics.Handler()))
	}

	v1 := s.router.Group("/api/v1")
	{
		v1.POST("/answer", qa.Answer)
		v1.GET("/schema", qa.GetSchema)
		v1.POST("/schema/refresh", qa.RefreshSchema)
		v1.POST("/similar", qa.Similar)
	}
}

// Start starts the server and blocks until it stops. A graceful Stop is
// not reported as an error.
func (s *Server) Start() error {
	s.logger.Info("Starting server", "addr", s.server.Addr)
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop stops the server gracefully
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Stopping server")
	return s.server.Shutdown(ctx)
}

// corsMiddleware adds CORS headers
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With, X-Request-ID")
		c.Header("Access-Control-Allow-Methods", "POST, OPTIONS, GET")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// contextMiddleware puts the request ID on the request context and echoes
// it in the response.
func contextMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		ctx := context.WithValue(c.Request.Context(), types.ContextKeyRequestID, requestID)
		c.Request = c.Request.WithContext(ctx)
		c.Header(RequestIDHeader, requestID)
		c.Next()
	}
}

func loggingMiddleware(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		level := slog.LevelInfo
		if c.Writer.Status() >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		logger.Log(c.Request.Context(), level, "HTTP request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration", time.Since(start),
			"request_id", c.Writer.Header().Get(RequestIDHeader))
	}
}
