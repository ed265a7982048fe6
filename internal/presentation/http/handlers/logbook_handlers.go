package handlers

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/cragnet/cragcache/internal/application/services"
	"github.com/cragnet/cragcache/internal/domain/entities/climbing"
	"github.com/cragnet/cragcache/internal/infrastructure/observability/logging"
)

// CreateLogRequest is the body of a new log.
type CreateLogRequest struct {
	ClimbedAt time.Time `json:"climbedAt" binding:"required"`
	Style     string    `json:"style"`
	Attempts  int       `json:"attempts" binding:"gte=0"`
	Rating    int       `json:"rating" binding:"gte=0,lte=5"`
	Comment   string    `json:"comment" binding:"max=2000"`
}

// LogbookHandlers serves the user's own logs.
type LogbookHandlers struct {
	logbook *services.LogbookService
	logger  *logging.ChanneledLogger
}

func NewLogbookHandlers(logbook *services.LogbookService, logger *logging.ChanneledLogger) *LogbookHandlers {
	return &LogbookHandlers{logbook: logbook, logger: logger}
}

// PostLog records a log for later sync.
func (h *LogbookHandlers) PostLog(c *gin.Context) {
	routeID, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req CreateLogRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	pending, err := h.logbook.AddLog(c.Request.Context(), c.Param("backend"), routeID, climbing.Log{
		RouteID:   routeID,
		ClimbedAt: req.ClimbedAt,
		Style:     req.Style,
		Attempts:  req.Attempts,
		Rating:    req.Rating,
		Comment:   req.Comment,
	})
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, pending)
}

func (h *LogbookHandlers) Pending(c *gin.Context) {
	pending, err := h.logbook.Pending(c.Request.Context(), c.Param("backend"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"pending": pending, "count": len(pending)})
}

// Sync pushes pending logs to the backend.
func (h *LogbookHandlers) Sync(c *gin.Context) {
	backendID := c.Param("backend")
	report, err := h.logbook.Sync(c.Request.Context(), backendID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	h.logger.Federation().Info("Sync request completed", "backendId", backendID, "synced", report.Synced, "failed", report.Failed)
	c.JSON(http.StatusOK, report)
}

// ExportCSV downloads the logbook. ?routes=1,2,3 adds cached logs of
// those routes.
func (h *LogbookHandlers) ExportCSV(c *gin.Context) {
	var routeIDs []int64
	if raw := c.Query("routes"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			id, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
			if err != nil || id <= 0 {
				c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid route id %q", part)})
				return
			}
			routeIDs = append(routeIDs, id)
		}
	}

	backendID := c.Param("backend")
	var buf bytes.Buffer
	if err := h.logbook.ExportCSV(c.Request.Context(), backendID, routeIDs, &buf); err != nil {
		abortWithError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="logbook-%s.csv"`, backendID))
	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}
