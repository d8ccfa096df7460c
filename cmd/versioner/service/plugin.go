package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/pluginforge/pluginvcs/cmd/versioner/models"
	"github.com/pluginforge/pluginvcs/common/logger"
)

// PluginService handles plugin registry entries
type PluginService struct {
	plugins PluginStore
	log     *logger.Logger
}

// NewPluginService creates a plugin service
func NewPluginService(plugins PluginStore, log *logger.Logger) *PluginService {
	return &PluginService{
		plugins: plugins,
		log:     log,
	}
}

// CreatePlugin registers a plugin. Its history starts with the first
// commit, which is always stored as a snapshot.
func (s *PluginService) CreatePlugin(ctx context.Context, name, slug string) (*models.Plugin, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: plugin name is required", ErrInvalidInput)
	}
	if slug == "" {
		return nil, fmt.Errorf("%w: plugin slug is required", ErrInvalidInput)
	}

	now := time.Now().UTC()
	plugin := &models.Plugin{
		ID:        uuid.New(),
		Name:      name,
		Slug:      slug,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.plugins.CreatePlugin(ctx, plugin); err != nil {
		return nil, err
	}

	s.log.Info("created plugin", "plugin_id", plugin.ID, "slug", slug)
	return plugin, nil
}

// GetPlugin retrieves a plugin by id
func (s *PluginService) GetPlugin(ctx context.Context, id uuid.UUID) (*models.Plugin, error) {
	return s.plugins.GetPlugin(ctx, id)
}
