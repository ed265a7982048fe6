// Package routes provides HTTP route configuration for the presentation layer.
package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/cragnet/cragcache/internal/application/container"
	"github.com/cragnet/cragcache/internal/presentation/http/handlers"
	"github.com/cragnet/cragcache/internal/presentation/http/middleware"
)

// SetupRoutes configures all HTTP routes and middleware with dependency injection.
func SetupRoutes(c *container.Container) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(c.Logger))
	r.Use(middleware.CORSMiddleware())

	browseHandlers := handlers.NewBrowseHandlers(c.BrowseService, c.Logger)
	logbookHandlers := handlers.NewLogbookHandlers(c.LogbookService, c.Logger)
	adminHandlers := handlers.NewAdminHandlers(handlers.AdminAuth{
		PasswordHash: c.Config.AdminPasswordHash,
		JWTSecret:    c.Config.JWTSecret,
	}, c.FederationService, c.CacheAdminService, c.WarmingService, c.Logger)
	eventHandlers := handlers.NewEventHandlers(c.Events, c.Logger)

	r.GET("/healthz", handlers.Health)
	if reg := c.Metrics.Registry(); reg != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))
	}

	api := r.Group("/api/v1")

	backend := api.Group("/backends/:backend")
	{
		backend.GET("/sites", browseHandlers.Sites())
		backend.GET("/sites/:id", browseHandlers.Site())
		backend.GET("/sites/:id/areas", browseHandlers.AreasBySite())
		backend.GET("/sites/:id/routes", browseHandlers.RoutesBySite())
		backend.GET("/sites/:id/contests", browseHandlers.ContestsBySite())

		backend.GET("/areas", browseHandlers.Areas())
		backend.GET("/areas/:id", browseHandlers.Area())
		backend.GET("/areas/:id/sectors", browseHandlers.SectorsByArea())

		backend.GET("/sectors/:id", browseHandlers.Sector())
		backend.GET("/sectors/:id/lines", browseHandlers.LinesBySector())
		backend.GET("/sectors/:id/schemas", browseHandlers.SchemasBySector)
		backend.GET("/sectors/:id/routes", browseHandlers.RoutesBySector())

		backend.GET("/lines/:id", browseHandlers.Line())
		backend.GET("/lines/:id/routes", browseHandlers.RoutesByLine())

		backend.GET("/routes/:id", browseHandlers.Route())
		backend.GET("/routes/:id/logs", browseHandlers.LogsByRoute())
		backend.POST("/routes/:id/logs", logbookHandlers.PostLog)

		backend.GET("/contests/:id", browseHandlers.Contest())
		backend.GET("/contests/:id/rankings", browseHandlers.Rankings())

		backend.GET("/assets/svg", browseHandlers.SVGMap)
		backend.GET("/assets/background", browseHandlers.SchemaBackground)

		backend.GET("/logs/pending", logbookHandlers.Pending)
		backend.POST("/logs/sync", logbookHandlers.Sync)
		backend.GET("/logs/export.csv", logbookHandlers.ExportCSV)
	}

	api.POST("/admin/login", adminHandlers.Login)

	admin := api.Group("/admin")
	admin.Use(middleware.AdminAuth(c.Config.JWTSecret, c.Logger))
	{
		admin.GET("/cache", adminHandlers.CacheStatus)
		admin.DELETE("/cache", adminHandlers.ClearCache)
		admin.DELETE("/cache/:backend", adminHandlers.ClearBackendCache)
		admin.PUT("/settings", adminHandlers.UpdateSettings)
		admin.POST("/warm", adminHandlers.Warm)
		admin.POST("/logs/levels", adminHandlers.SetLogLevel)

		admin.GET("/backends", adminHandlers.ListBackends)
		admin.GET("/backends/:id", adminHandlers.GetBackend)
		admin.PUT("/backends/:id", adminHandlers.PutBackend)
		admin.DELETE("/backends/:id", adminHandlers.DeleteBackend)

		admin.GET("/events", eventHandlers.Stream)
	}

	return r
}
