// Package handlers provides HTTP handlers for the presentation layer.
package handlers

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/cragnet/cragcache/internal/application/services"
	"github.com/cragnet/cragcache/internal/domain/repositories"
	"github.com/cragnet/cragcache/internal/infrastructure/caching"
	"github.com/cragnet/cragcache/internal/infrastructure/federation"
)

// statusFor maps an application error to an HTTP status.
func statusFor(err error) int {
	var (
		statusErr *federation.StatusError
		netErr    net.Error
	)
	switch {
	case errors.Is(err, federation.ErrUnknownBackend),
		errors.Is(err, repositories.ErrRemoteNotFound),
		errors.Is(err, caching.ErrNeverCached):
		return http.StatusNotFound
	case errors.Is(err, federation.ErrBackendDisabled):
		return http.StatusConflict
	case errors.Is(err, services.ErrInvalidLog):
		return http.StatusBadRequest
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.As(err, &statusErr), errors.As(err, &netErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func abortWithError(c *gin.Context, err error) {
	_ = c.Error(err)
	c.AbortWithStatusJSON(statusFor(err), gin.H{"error": err.Error()})
}

// idParam parses a positive numeric path parameter.
func idParam(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return 0, false
	}
	return id, true
}
