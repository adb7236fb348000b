// Package http exposes the parser, the assistant and reminder management
// over a JSON API.
package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"kai/internal/assistant"
	"kai/internal/logging"
	"kai/internal/observability"
	"kai/internal/reminder"
)

// RouterDeps wires the router. Metrics, HTTPMetrics, Tracer and
// MetricsHandler may be nil.
type RouterDeps struct {
	Assistant     *assistant.Assistant
	Notifications assistant.Notifications
	Tools         *assistant.ToolRegistry

	AllowedOrigins []string
	RateLimit      RateLimitConfig
	Location       *time.Location

	Metrics        *observability.MetricsCollector
	HTTPMetrics    *observability.HTTPMetrics
	Tracer         *observability.TracerProvider
	MetricsHandler http.Handler
	Logger         logging.Logger
}

// NewRouter builds the gin engine serving /api/v1.
func NewRouter(deps RouterDeps) *gin.Engine {
	logger := logging.OrNop(deps.Logger)
	handler := &Handler{
		assistant:     deps.Assistant,
		notifications: deps.Notifications,
		tools:         deps.Tools,
		parser:        reminder.NewParser(assistant.NewMetricsObserver(deps.Metrics)),
		location:      deps.Location,
		logger:        logger,
		Now:           time.Now,
	}
	return newRouter(deps, handler)
}

func newRouter(deps RouterDeps, handler *Handler) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(CORSMiddleware(deps.AllowedOrigins))
	router.Use(RequestIDMiddleware())
	router.Use(ObservabilityMiddleware(deps.HTTPMetrics, deps.Tracer, handler.logger))

	router.GET("/health", handler.HandleHealth)
	if deps.MetricsHandler != nil {
		router.GET("/metrics", gin.WrapH(deps.MetricsHandler))
	}

	api := router.Group("/api/v1")
	api.Use(RateLimitMiddleware(deps.RateLimit, deps.HTTPMetrics))
	api.POST("/parse", handler.HandleParse)
	api.GET("/tools", handler.HandleListTools)

	user := api.Group("")
	user.Use(RequireUser())
	user.POST("/assistant/messages", handler.HandleMessage)
	user.POST("/assistant/confirm", handler.HandleConfirm)
	user.DELETE("/assistant/pending", handler.HandleDiscard)
	user.GET("/reminders", handler.HandleListReminders)
	user.PATCH("/reminders/:id", handler.HandleUpdateReminder)
	user.DELETE("/reminders/:id", handler.HandleCancelReminder)
	user.POST("/tools/:name", handler.HandleExecuteTool)

	return router
}
