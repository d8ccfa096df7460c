package handlers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/pluginforge/pluginvcs/cmd/versioner/models"
	"github.com/pluginforge/pluginvcs/cmd/versioner/service"
	"github.com/pluginforge/pluginvcs/common/bootstrap"
	"github.com/pluginforge/pluginvcs/vcs/state"
)

// VersionHandler handles commit, history and reconstruction requests
type VersionHandler struct {
	components *bootstrap.Components
	commits    *service.CommitManager
	recon      *service.Reconstructor
	versions   service.VersionStore
}

// NewVersionHandler creates a new version handler
func NewVersionHandler(components *bootstrap.Components, commits *service.CommitManager, recon *service.Reconstructor, versions service.VersionStore) *VersionHandler {
	return &VersionHandler{
		components: components,
		commits:    commits,
		recon:      recon,
		versions:   versions,
	}
}

type commitRequest struct {
	State         *state.PluginState `json:"state"`
	Message       string             `json:"message"`
	Author        string             `json:"author"`
	VersionNumber string             `json:"version_number"`
	Publish       bool               `json:"publish"`
}

type restoreRequest struct {
	Author string `json:"author"`
}

type versionDetail struct {
	Version *models.Version          `json:"version"`
	State   *state.PluginState       `json:"state"`
	Patches []*models.ComponentPatch `json:"patches,omitempty"`
}

// Commit records a new version from the submitted desired state
// POST /api/v1/plugins/:plugin_id/versions
func (h *VersionHandler) Commit(c echo.Context) error {
	pluginID, err := uuid.Parse(c.Param("plugin_id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid plugin_id format")
	}

	var req commitRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	version, err := h.commits.Commit(c.Request().Context(), &service.CommitRequest{
		PluginID:      pluginID,
		State:         req.State,
		Message:       req.Message,
		Author:        req.Author,
		VersionNumber: req.VersionNumber,
		Publish:       req.Publish,
	})
	if err != nil {
		h.components.Logger.Error("commit failed", "plugin_id", pluginID, "error", err)
		return httpError(err)
	}

	return c.JSON(http.StatusCreated, version)
}

// ListVersions lists a plugin's history, newest first
// GET /api/v1/plugins/:plugin_id/versions
func (h *VersionHandler) ListVersions(c echo.Context) error {
	pluginID, err := uuid.Parse(c.Param("plugin_id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid plugin_id format")
	}

	versions, err := h.versions.ListVersions(c.Request().Context(), pluginID)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"versions": versions,
		"count":    len(versions),
	})
}

// GetVersion retrieves a version with its fully reconstructed state.
// Patch versions also carry their component deltas.
// GET /api/v1/plugins/:plugin_id/versions/:version_id
func (h *VersionHandler) GetVersion(c echo.Context) error {
	pluginID, err := uuid.Parse(c.Param("plugin_id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid plugin_id format")
	}
	versionID, err := uuid.Parse(c.Param("version_id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid version_id format")
	}

	ctx := c.Request().Context()

	version, err := h.versions.GetVersion(ctx, pluginID, versionID)
	if err != nil {
		return httpError(err)
	}

	st, err := h.recon.Reconstruct(ctx, pluginID, versionID)
	if err != nil {
		h.components.Logger.Error("reconstruction failed",
			"plugin_id", pluginID, "version_id", versionID, "error", err)
		return httpError(err)
	}

	detail := &versionDetail{Version: version, State: st}
	if version.IsPatch() {
		patches, err := h.versions.GetComponentPatches(ctx, versionID)
		if err != nil {
			return httpError(err)
		}
		detail.Patches = patches
	}

	return c.JSON(http.StatusOK, detail)
}

// Restore commits a past version's state as a new version on top of
// the chain. History is never rewritten.
// POST /api/v1/plugins/:plugin_id/versions/:version_id/restore
func (h *VersionHandler) Restore(c echo.Context) error {
	pluginID, err := uuid.Parse(c.Param("plugin_id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid plugin_id format")
	}
	versionID, err := uuid.Parse(c.Param("version_id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid version_id format")
	}

	var req restoreRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	version, err := h.commits.Restore(c.Request().Context(), pluginID, versionID, req.Author)
	if err != nil {
		h.components.Logger.Error("restore failed",
			"plugin_id", pluginID, "version_id", versionID, "error", err)
		return httpError(err)
	}

	return c.JSON(http.StatusCreated, version)
}
