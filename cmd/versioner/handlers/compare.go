package handlers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/pluginforge/pluginvcs/cmd/versioner/service"
	"github.com/pluginforge/pluginvcs/common/bootstrap"
	"github.com/pluginforge/pluginvcs/vcs/state"
)

// CompareHandler handles version comparison requests
type CompareHandler struct {
	components *bootstrap.Components
	engine     *service.ComparisonEngine
}

// NewCompareHandler creates a new compare handler
func NewCompareHandler(components *bootstrap.Components, engine *service.ComparisonEngine) *CompareHandler {
	return &CompareHandler{
		components: components,
		engine:     engine,
	}
}

// Compare compares two stored versions
// GET /api/v1/plugins/:plugin_id/compare?from=<id>&to=<id>
func (h *CompareHandler) Compare(c echo.Context) error {
	pluginID, err := uuid.Parse(c.Param("plugin_id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid plugin_id format")
	}
	fromID, err := uuid.Parse(c.QueryParam("from"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid from version id")
	}
	toID, err := uuid.Parse(c.QueryParam("to"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid to version id")
	}

	comparison, err := h.engine.Compare(c.Request().Context(), pluginID, fromID, toID)
	if err != nil {
		h.components.Logger.Error("comparison failed",
			"plugin_id", pluginID, "from", fromID, "to", toID, "error", err)
		return httpError(err)
	}

	return c.JSON(http.StatusOK, comparison)
}

type compareWorkingRequest struct {
	From  string             `json:"from"`
	State *state.PluginState `json:"state"`
}

// CompareWorkingState compares a stored version against an uncommitted
// working state. Results are never cached.
// POST /api/v1/plugins/:plugin_id/compare
func (h *CompareHandler) CompareWorkingState(c echo.Context) error {
	pluginID, err := uuid.Parse(c.Param("plugin_id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid plugin_id format")
	}

	var req compareWorkingRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	fromID, err := uuid.Parse(req.From)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid from version id")
	}
	if req.State == nil {
		return echo.NewHTTPError(http.StatusBadRequest, "working state is required")
	}

	comparison, err := h.engine.CompareWorkingState(c.Request().Context(), pluginID, fromID, req.State)
	if err != nil {
		h.components.Logger.Error("working state comparison failed",
			"plugin_id", pluginID, "from", fromID, "error", err)
		return httpError(err)
	}

	return c.JSON(http.StatusOK, comparison)
}
