package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/cragnet/cragcache/internal/application/services"
	"github.com/cragnet/cragcache/internal/domain/entities/climbing"
	"github.com/cragnet/cragcache/internal/infrastructure/observability/logging"
)

const (
	sourceHeader = "X-Cragcache-Source"
	staleHeader  = "X-Cragcache-Stale"
)

// BrowseHandlers serves the read-through directory endpoints.
type BrowseHandlers struct {
	browse *services.BrowseService
	logger *logging.ChanneledLogger
}

func NewBrowseHandlers(browse *services.BrowseService, logger *logging.ChanneledLogger) *BrowseHandlers {
	return &BrowseHandlers{browse: browse, logger: logger}
}

func writeResult[T any](c *gin.Context, res services.Result[T], err error) {
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.Header(sourceHeader, string(res.Source))
	c.Header(staleHeader, strconv.FormatBool(res.Stale))
	c.JSON(http.StatusOK, res)
}

// byBackend handles endpoints that only need the backend.
func byBackend[T any](read func(ctx context.Context, backendID string) (services.Result[T], error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		res, err := read(c.Request.Context(), c.Param("backend"))
		writeResult(c, res, err)
	}
}

// byID handles endpoints keyed by the backend and one numeric id.
func byID[T any](read func(ctx context.Context, backendID string, id int64) (services.Result[T], error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c, "id")
		if !ok {
			return
		}
		res, err := read(c.Request.Context(), c.Param("backend"), id)
		writeResult(c, res, err)
	}
}

func (h *BrowseHandlers) Sites() gin.HandlerFunc          { return byBackend(h.browse.Sites) }
func (h *BrowseHandlers) Site() gin.HandlerFunc           { return byID(h.browse.Site) }
func (h *BrowseHandlers) AreasBySite() gin.HandlerFunc    { return byID(h.browse.AreasBySite) }
func (h *BrowseHandlers) RoutesBySite() gin.HandlerFunc   { return byID(h.browse.RoutesBySite) }
func (h *BrowseHandlers) ContestsBySite() gin.HandlerFunc { return byID(h.browse.ContestsBySite) }
func (h *BrowseHandlers) Areas() gin.HandlerFunc          { return byBackend(h.browse.Areas) }
func (h *BrowseHandlers) Area() gin.HandlerFunc           { return byID(h.browse.Area) }
func (h *BrowseHandlers) SectorsByArea() gin.HandlerFunc  { return byID(h.browse.SectorsByArea) }
func (h *BrowseHandlers) Sector() gin.HandlerFunc         { return byID(h.browse.Sector) }
func (h *BrowseHandlers) LinesBySector() gin.HandlerFunc  { return byID(h.browse.LinesBySector) }
func (h *BrowseHandlers) RoutesBySector() gin.HandlerFunc { return byID(h.browse.RoutesBySector) }
func (h *BrowseHandlers) Line() gin.HandlerFunc           { return byID(h.browse.Line) }
func (h *BrowseHandlers) RoutesByLine() gin.HandlerFunc   { return byID(h.browse.RoutesByLine) }
func (h *BrowseHandlers) Route() gin.HandlerFunc          { return byID(h.browse.Route) }
func (h *BrowseHandlers) LogsByRoute() gin.HandlerFunc    { return byID(h.browse.LogsByRoute) }
func (h *BrowseHandlers) Contest() gin.HandlerFunc        { return byID(h.browse.Contest) }
func (h *BrowseHandlers) Rankings() gin.HandlerFunc       { return byID(h.browse.ContestRankings) }

// SchemasBySector returns a sector's schemas; ?previews=true adds a
// rendered preview of each background.
func (h *BrowseHandlers) SchemasBySector(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	previews, _ := strconv.ParseBool(c.Query("previews"))
	res, err := h.browse.SchemasBySector(c.Request.Context(), c.Param("backend"), id, previews)
	writeResult(c, res, err)
}

func (h *BrowseHandlers) SVGMap(c *gin.Context) {
	h.asset(c, h.browse.SVGMap)
}

func (h *BrowseHandlers) SchemaBackground(c *gin.Context) {
	h.asset(c, h.browse.SchemaBackground)
}

// asset streams a URL-keyed asset as its own content type.
func (h *BrowseHandlers) asset(c *gin.Context, read func(ctx context.Context, backendID, url string) (services.Result[climbing.Asset], error)) {
	url := c.Query("url")
	if url == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "url query parameter is required"})
		return
	}
	res, err := read(c.Request.Context(), c.Param("backend"), url)
	if err != nil {
		abortWithError(c, err)
		return
	}
	contentType := res.Data.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.Header(sourceHeader, string(res.Source))
	c.Header(staleHeader, strconv.FormatBool(res.Stale))
	h.logger.Assets().Debug("Serving asset", "url", url, "source", res.Source, "bytes", len(res.Data.Content))
	c.Data(http.StatusOK, contentType, res.Data.Content)
}
