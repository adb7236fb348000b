package http

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"kai/internal/id"
	"kai/internal/logging"
	"kai/internal/observability"
)

const (
	// HeaderUserID identifies the acting user. Authentication happens upstream.
	HeaderUserID    = "X-User-ID"
	HeaderRequestID = "X-Request-ID"
)

// CORSMiddleware allows the configured origins. "*" allows any origin.
func CORSMiddleware(allowedOrigins []string) gin.HandlerFunc {
	cfg := cors.DefaultConfig()
	cfg.AllowMethods = []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"}
	cfg.AllowHeaders = []string{"Origin", "Content-Type", "Accept", HeaderUserID, HeaderRequestID}
	cfg.ExposeHeaders = []string{HeaderRequestID}
	if len(allowedOrigins) == 0 || containsWildcard(allowedOrigins) {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = allowedOrigins
	}
	return cors.New(cfg)
}

func containsWildcard(origins []string) bool {
	for _, origin := range origins {
		if strings.TrimSpace(origin) == "*" {
			return true
		}
	}
	return false
}

// RequestIDMiddleware propagates X-Request-ID, minting one when absent.
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := strings.TrimSpace(c.GetHeader(HeaderRequestID))
		if requestID == "" {
			requestID = id.NewRequestID()
		}
		c.Header(HeaderRequestID, requestID)
		ctx := observability.ContextWithRequestID(c.Request.Context(), requestID)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// RequireUser rejects requests without X-User-ID and stores the user in the
// request context.
func RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := strings.TrimSpace(c.GetHeader(HeaderUserID))
		if userID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, APIResponse{Success: false, Error: HeaderUserID + " header is required"})
			return
		}
		ctx := observability.ContextWithUserID(c.Request.Context(), userID)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// ObservabilityMiddleware traces each request, records route metrics and logs latency.
func ObservabilityMiddleware(metrics *observability.HTTPMetrics, tracer *observability.TracerProvider, logger logging.Logger) gin.HandlerFunc {
	logger = logging.OrNop(logger)
	return func(c *gin.Context) {
		start := time.Now()
		ctx, span := tracer.StartSpan(c.Request.Context(), observability.SpanHTTPServer,
			attribute.String("http.method", c.Request.Method),
		)
		defer span.End()
		c.Request = c.Request.WithContext(ctx)

		c.Next()

		route := c.FullPath()
		status := c.Writer.Status()
		latency := time.Since(start)
		span.SetAttributes(
			attribute.String("http.route", route),
			attribute.Int("http.status_code", status),
		)
		if status >= http.StatusInternalServerError {
			span.SetStatus(codes.Error, http.StatusText(status))
		}
		metrics.ObserveRequest(route, c.Request.Method, status, latency)
		logging.FromContext(c.Request.Context(), logger).Debug(
			"route=%s method=%s status=%d latency_ms=%.2f",
			route, c.Request.Method, status, float64(latency.Microseconds())/1000.0,
		)
	}
}
