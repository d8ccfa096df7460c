package handlers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/pluginforge/pluginvcs/cmd/versioner/models"
	"github.com/pluginforge/pluginvcs/cmd/versioner/service"
	"github.com/pluginforge/pluginvcs/common/bootstrap"
)

// TagHandler handles tag requests
type TagHandler struct {
	components *bootstrap.Components
	tags       *service.TagService
}

// NewTagHandler creates a new tag handler
func NewTagHandler(components *bootstrap.Components, tags *service.TagService) *TagHandler {
	return &TagHandler{
		components: components,
		tags:       tags,
	}
}

type createTagRequest struct {
	VersionID   string `json:"version_id"`
	Name        string `json:"name"`
	Type        string `json:"type"`
	Description string `json:"description"`
	Author      string `json:"author"`
}

// CreateTag attaches a named tag to a version. Names are unique per
// plugin; re-tagging requires an explicit delete first.
// POST /api/v1/plugins/:plugin_id/tags
func (h *TagHandler) CreateTag(c echo.Context) error {
	pluginID, err := uuid.Parse(c.Param("plugin_id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid plugin_id format")
	}

	var req createTagRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	versionID, err := uuid.Parse(req.VersionID)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid version_id format")
	}

	tag, err := h.tags.CreateTag(
		c.Request().Context(),
		pluginID,
		versionID,
		req.Name,
		models.TagType(req.Type),
		req.Description,
		req.Author,
	)
	if err != nil {
		h.components.Logger.Error("failed to create tag",
			"plugin_id", pluginID, "name", req.Name, "error", err)
		return httpError(err)
	}

	return c.JSON(http.StatusCreated, tag)
}

// GetTag retrieves a tag by name
// GET /api/v1/plugins/:plugin_id/tags/:name
func (h *TagHandler) GetTag(c echo.Context) error {
	pluginID, err := uuid.Parse(c.Param("plugin_id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid plugin_id format")
	}

	tag, err := h.tags.GetTag(c.Request().Context(), pluginID, c.Param("name"))
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, tag)
}

// DeleteTag removes a tag; the version it pointed at is untouched
// DELETE /api/v1/plugins/:plugin_id/tags/:name
func (h *TagHandler) DeleteTag(c echo.Context) error {
	pluginID, err := uuid.Parse(c.Param("plugin_id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid plugin_id format")
	}

	if err := h.tags.DeleteTag(c.Request().Context(), pluginID, c.Param("name")); err != nil {
		return httpError(err)
	}

	return c.NoContent(http.StatusNoContent)
}

// ListTags lists a plugin's tags
// GET /api/v1/plugins/:plugin_id/tags
func (h *TagHandler) ListTags(c echo.Context) error {
	pluginID, err := uuid.Parse(c.Param("plugin_id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid plugin_id format")
	}

	tags, err := h.tags.ListTags(c.Request().Context(), pluginID)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"tags":  tags,
		"count": len(tags),
	})
}
