package routes

import (
	"github.com/labstack/echo/v4"

	"github.com/pluginforge/pluginvcs/cmd/versioner/container"
	"github.com/pluginforge/pluginvcs/cmd/versioner/handlers"
)

// RegisterTagRoutes registers tag routes
func RegisterTagRoutes(e *echo.Echo, c *container.Container) {
	h := handlers.NewTagHandler(c.Components, c.TagService)

	g := e.Group("/api/v1/plugins/:plugin_id/tags")
	{
		g.POST("", h.CreateTag)         // POST   /api/v1/plugins/:plugin_id/tags
		g.GET("", h.ListTags)           // GET    /api/v1/plugins/:plugin_id/tags
		g.GET("/:name", h.GetTag)       // GET    /api/v1/plugins/:plugin_id/tags/:name
		g.DELETE("/:name", h.DeleteTag) // DELETE /api/v1/plugins/:plugin_id/tags/:name
	}
}
