package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/cragnet/cragcache/internal/application/services"
	"github.com/cragnet/cragcache/internal/infrastructure/federation"
	"github.com/cragnet/cragcache/internal/infrastructure/observability/logging"
	"github.com/cragnet/cragcache/internal/infrastructure/security"
)

const adminTokenTTL = 12 * time.Hour

// AdminAuth holds the admin credentials.
type AdminAuth struct {
	PasswordHash string
	JWTSecret    string
}

// BackendRequest is the body of PUT /admin/backends/:id. An omitted token
// keeps the stored one.
type BackendRequest struct {
	Name      string `json:"name"`
	BaseURL   string `json:"baseUrl" binding:"required"`
	AuthToken string `json:"authToken"`
	Enabled   *bool  `json:"enabled"`
}

// AdminHandlers serves backend management and cache maintenance.
type AdminHandlers struct {
	auth       AdminAuth
	federation *services.FederationService
	cacheAdmin *services.CacheAdminService
	warming    *services.WarmingService
	logger     *logging.ChanneledLogger
}

func NewAdminHandlers(auth AdminAuth, federation *services.FederationService, cacheAdmin *services.CacheAdminService, warming *services.WarmingService, logger *logging.ChanneledLogger) *AdminHandlers {
	return &AdminHandlers{auth: auth, federation: federation, cacheAdmin: cacheAdmin, warming: warming, logger: logger}
}

// Login exchanges the admin password for a token.
func (h *AdminHandlers) Login(c *gin.Context) {
	var request struct {
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	if h.auth.PasswordHash == "" || h.auth.JWTSecret == "" {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "admin API is not configured"})
		return
	}
	if !security.CheckPassword(h.auth.PasswordHash, request.Password) {
		h.logger.HTTP().Warn("Failed admin login", "clientIp", c.ClientIP())
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid password"})
		return
	}

	token, expires, err := security.GenerateAdminToken(h.auth.JWTSecret, adminTokenTTL)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token, "expiresAt": expires})
}

func (h *AdminHandlers) CacheStatus(c *gin.Context) {
	status, err := h.cacheAdmin.Status(c.Request.Context())
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, status)
}

func (h *AdminHandlers) ClearCache(c *gin.Context) {
	if err := h.cacheAdmin.ClearAll(c.Request.Context()); err != nil {
		abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *AdminHandlers) ClearBackendCache(c *gin.Context) {
	if err := h.cacheAdmin.ClearBackend(c.Request.Context(), c.Param("backend")); err != nil {
		abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *AdminHandlers) UpdateSettings(c *gin.Context) {
	var request struct {
		CacheEnabled *bool `json:"cacheEnabled" binding:"required"`
	}
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.cacheAdmin.SetCacheEnabled(*request.CacheEnabled); err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"cacheEnabled": *request.CacheEnabled})
}

func (h *AdminHandlers) ListBackends(c *gin.Context) {
	backends := h.federation.List()
	c.JSON(http.StatusOK, gin.H{"backends": backends, "count": len(backends)})
}

func (h *AdminHandlers) GetBackend(c *gin.Context) {
	backend, err := h.federation.Get(c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, backend)
}

func (h *AdminHandlers) PutBackend(c *gin.Context) {
	var req BackendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	backend := federation.Backend{
		ID:        c.Param("id"),
		Name:      req.Name,
		BaseURL:   req.BaseURL,
		AuthToken: req.AuthToken,
		Enabled:   req.Enabled == nil || *req.Enabled,
	}
	if err := backend.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	created, err := h.federation.Upsert(backend)
	if err != nil {
		abortWithError(c, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, backend)
}

func (h *AdminHandlers) DeleteBackend(c *gin.Context) {
	if err := h.federation.Remove(c.Request.Context(), c.Param("id")); err != nil {
		abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Warm preloads every enabled backend. Partial failures are reported in
// the body with status 207.
func (h *AdminHandlers) Warm(c *gin.Context) {
	reports, err := h.warming.WarmAllBackends(c.Request.Context())
	status := http.StatusOK
	if err != nil {
		status = http.StatusMultiStatus
	}
	c.JSON(status, gin.H{"backends": reports})
}

// SetLogLevel changes the level of one log channel at runtime.
func (h *AdminHandlers) SetLogLevel(c *gin.Context) {
	var request struct {
		Channel string `json:"channel" binding:"required"`
		Level   string `json:"level" binding:"required"`
	}
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	level := logging.ParseLevel(request.Level)
	if err := h.logger.SetChannelLevel(logging.Channel(request.Channel), level); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"channel": request.Channel, "level": level.String()})
}
