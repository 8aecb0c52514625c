package api

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/prasenjit/go-intentions/internal/events"
	"github.com/prasenjit/go-intentions/internal/metrics"
	"github.com/prasenjit/go-intentions/internal/storage"
)

// Options tunes the router
type Options struct {
	// ExposeMetrics mounts the Prometheus handler at /metrics
	ExposeMetrics bool
}

// Router handles HTTP routing
type Router struct {
	engine  *gin.Engine
	events  *events.Service
	metrics *metrics.Metrics
	logger  *slog.Logger
	handler *Handler
	opts    Options
}

// NewRouter creates a new router
func NewRouter(store storage.Storage, eventService *events.Service, m *metrics.Metrics, logger *slog.Logger, opts Options) *Router {
	gin.SetMode(gin.ReleaseMode)

	r := &Router{
		engine:  gin.New(),
		events:  eventService,
		metrics: m,
		logger:  logger,
		opts:    opts,
	}

	r.handler = NewHandler(store, eventService, m, logger)

	r.engine.Use(gin.Recovery())
	r.engine.Use(corsMiddleware())
	r.engine.Use(r.requestLogger())

	r.setupRoutes()

	return r
}

// setupRoutes configures all routes
func (r *Router) setupRoutes() {
	api := r.engine.Group("/_api")
	{
		// Intentions
		api.GET("/intentions", r.handler.ListIntentions)
		api.POST("/intentions", r.handler.CreateIntention)
		api.POST("/intentions/import", r.handler.ImportIntentions)
		api.GET("/intentions/:id", r.handler.GetIntention)
		api.PUT("/intentions/:id", r.handler.UpdateIntention)
		api.DELETE("/intentions/:id", r.handler.DeleteIntention)

		// Header conditions
		api.GET("/headers/types", r.handler.GetHeaderTypes)
		api.POST("/headers/inspect", r.handler.InspectHeader)
		api.POST("/headers/match", r.handler.MatchHeader)

		// Change feed
		api.GET("/events", r.handler.ListEvents)

		// Health
		api.GET("/health", r.handler.HealthCheck)
	}

	// WebSocket for live changes
	wsHandler := events.NewWebSocketHandler(r.events, r.logger)
	r.engine.GET("/_api/events/stream", gin.WrapH(wsHandler))

	if r.opts.ExposeMetrics {
		r.engine.GET("/metrics", gin.WrapH(r.metrics.Handler()))
	}
}

// Handler returns the http.Handler
func (r *Router) Handler() http.Handler {
	return r.engine
}

// requestLogger logs each request and records request metrics
func (r *Router) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		duration := time.Since(start)
		status := c.Writer.Status()

		r.metrics.APIRequestsTotal.WithLabelValues(c.Request.Method, route, strconv.Itoa(status)).Inc()
		r.metrics.APIRequestDurationSeconds.WithLabelValues(c.Request.Method, route).Observe(duration.Seconds())

		r.logger.Debug("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", status,
			"duration", duration,
			"client", c.ClientIP(),
		)
	}
}

// corsMiddleware adds CORS headers
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		c.Header("Access-Control-Max-Age", "86400")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
