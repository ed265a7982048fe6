package middleware

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/cragnet/cragcache/internal/infrastructure/observability/logging"
	"github.com/cragnet/cragcache/internal/infrastructure/security"
)

const requestIDHeader = "X-Request-ID"

// RequestLogger tags each request with an id and logs it on the http
// channel once it completes.
func RequestLogger(logger *logging.ChanneledLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		requestID := c.GetHeader(requestIDHeader)
		if requestID == "" || len(requestID) > 64 {
			requestID = security.GenerateULID()
		}
		c.Header(requestIDHeader, requestID)

		ctx := context.WithValue(c.Request.Context(), logging.RequestIDKey, requestID)
		if backendID := c.Param("backend"); backendID != "" {
			ctx = context.WithValue(ctx, logging.BackendIDKey, backendID)
		}
		c.Request = c.Request.WithContext(ctx)

		c.Next()

		status := c.Writer.Status()
		log := logger.WithContext(logging.ChannelHTTP, c.Request.Context()).With(
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", status,
			"duration", time.Since(start),
			"bytes", c.Writer.Size(),
		)
		switch {
		case status >= 500:
			log.Error("Request failed", "errors", c.Errors.String())
		case status >= 400:
			log.Warn("Request rejected")
		default:
			log.Debug("Request completed")
		}
	}
}
