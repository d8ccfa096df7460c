package routes

import (
	"github.com/labstack/echo/v4"

	"github.com/pluginforge/pluginvcs/cmd/versioner/container"
	"github.com/pluginforge/pluginvcs/cmd/versioner/handlers"
)

// RegisterVersionRoutes registers commit and history routes
func RegisterVersionRoutes(e *echo.Echo, c *container.Container) {
	h := handlers.NewVersionHandler(c.Components, c.CommitManager, c.Reconstructor, c.Versions)

	g := e.Group("/api/v1/plugins/:plugin_id/versions")
	{
		g.POST("", h.Commit)                        // POST /api/v1/plugins/:plugin_id/versions
		g.GET("", h.ListVersions)                   // GET  /api/v1/plugins/:plugin_id/versions
		g.GET("/:version_id", h.GetVersion)         // GET  /api/v1/plugins/:plugin_id/versions/:version_id
		g.POST("/:version_id/restore", h.Restore)   // POST /api/v1/plugins/:plugin_id/versions/:version_id/restore
	}
}
