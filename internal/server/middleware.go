package server

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	obsmetrics "github.com/smallbiznis/scoutbase/internal/observability/metrics"
	"github.com/smallbiznis/scoutbase/pkg/log/ctxlogger"
	"github.com/smallbiznis/scoutbase/pkg/telemetry/correlation"
	"go.uber.org/zap"
)

const userIDKey = "user_id"

// UserAuthMiddleware reads the caller identity from X-User-ID. The
// authenticating layer in front of this service owns session handling;
// by the time a request arrives here the header is trusted.
func UserAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := strings.TrimSpace(c.GetHeader("X-User-ID"))
		if userID == "" {
			AbortWithError(c, ErrUnauthorized)
			return
		}
		c.Set(userIDKey, userID)
		c.Next()
	}
}

func currentUserID(c *gin.Context) string {
	return c.GetString(userIDKey)
}

// RequestLogMiddleware attaches a correlation ID and logs each request.
func RequestLogMiddleware(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		ctx := c.Request.Context()
		if incoming := strings.TrimSpace(c.GetHeader("X-Correlation-Id")); incoming != "" {
			ctx = correlation.ContextWithCorrelationID(ctx, incoming)
		}
		ctx, cid := correlation.EnsureCorrelationID(ctx)
		c.Header("X-Correlation-Id", cid)
		c.Request = c.Request.WithContext(ctx)

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unknown"
		}
		status := c.Writer.Status()
		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.String("route", route),
			zap.Int("status", status),
			zap.Int64("duration_ms", time.Since(start).Milliseconds()),
		}
		if lastErr := c.Errors.Last(); lastErr != nil {
			fields = append(fields, zap.Error(lastErr.Err))
		}

		reqLog := ctxlogger.WithContext(c.Request.Context(), log)
		switch {
		case route == "/metrics" || route == "/health":
			reqLog.Debug("http_request", fields...)
		case status >= http.StatusInternalServerError:
			reqLog.Error("http_request", fields...)
		default:
			reqLog.Info("http_request", fields...)
		}
	}
}

// MetricsMiddleware records request counts and latency.
func MetricsMiddleware(m *obsmetrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unknown"
		}
		m.ObserveHTTPRequest(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}

// rateLimitScout throttles report requests per user when a limiter is
// configured. Limiter errors admit the request: the ledger's
// idempotency keys make over-admission safe, an outage must not take
// the API down with it.
func (s *Server) rateLimitScout() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !s.scoutLimiter.Enabled() {
			c.Next()
			return
		}

		allowed, retryAfter, err := s.scoutLimiter.AllowUser(c.Request.Context(), currentUserID(c))
		if err != nil {
			s.log.Warn("rate limiter unavailable", zap.Error(err))
			c.Next()
			return
		}
		if !allowed {
			if retryAfter > 0 {
				c.Header("Retry-After", strconv.Itoa(int(retryAfter.Seconds()+1)))
			}
			AbortWithError(c, ErrTooManyRequests)
			return
		}
		c.Next()
	}
}
