package handlers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/pluginforge/pluginvcs/cmd/versioner/service"
	"github.com/pluginforge/pluginvcs/common/bootstrap"
)

// PluginHandler handles plugin registration and lookup
type PluginHandler struct {
	components *bootstrap.Components
	plugins    *service.PluginService
}

// NewPluginHandler creates a new plugin handler
func NewPluginHandler(components *bootstrap.Components, plugins *service.PluginService) *PluginHandler {
	return &PluginHandler{
		components: components,
		plugins:    plugins,
	}
}

type createPluginRequest struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// CreatePlugin registers a new plugin with an empty version history
// POST /api/v1/plugins
func (h *PluginHandler) CreatePlugin(c echo.Context) error {
	var req createPluginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	plugin, err := h.plugins.CreatePlugin(c.Request().Context(), req.Name, req.Slug)
	if err != nil {
		h.components.Logger.Error("failed to create plugin", "name", req.Name, "error", err)
		return httpError(err)
	}

	return c.JSON(http.StatusCreated, plugin)
}

// GetPlugin retrieves a plugin by ID
// GET /api/v1/plugins/:plugin_id
func (h *PluginHandler) GetPlugin(c echo.Context) error {
	pluginID, err := uuid.Parse(c.Param("plugin_id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid plugin_id format")
	}

	plugin, err := h.plugins.GetPlugin(c.Request().Context(), pluginID)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, plugin)
}
