package routes

import (
	"github.com/labstack/echo/v4"

	"github.com/pluginforge/pluginvcs/cmd/versioner/container"
	"github.com/pluginforge/pluginvcs/cmd/versioner/handlers"
)

// RegisterPluginRoutes registers plugin registry routes
func RegisterPluginRoutes(e *echo.Echo, c *container.Container) {
	h := handlers.NewPluginHandler(c.Components, c.PluginService)

	g := e.Group("/api/v1/plugins")
	{
		g.POST("", h.CreatePlugin)          // POST /api/v1/plugins
		g.GET("/:plugin_id", h.GetPlugin)   // GET  /api/v1/plugins/:plugin_id
	}
}
