package routes

import (
	"github.com/labstack/echo/v4"

	"github.com/pluginforge/pluginvcs/cmd/versioner/container"
	"github.com/pluginforge/pluginvcs/cmd/versioner/handlers"
)

// RegisterCompareRoutes registers version comparison routes
func RegisterCompareRoutes(e *echo.Echo, c *container.Container) {
	h := handlers.NewCompareHandler(c.Components, c.ComparisonEngine)

	g := e.Group("/api/v1/plugins/:plugin_id/compare")
	{
		g.GET("", h.Compare)              // GET  /api/v1/plugins/:plugin_id/compare?from=&to=
		g.POST("", h.CompareWorkingState) // POST /api/v1/plugins/:plugin_id/compare
	}
}
