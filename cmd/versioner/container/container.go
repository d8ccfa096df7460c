package container

import (
	"context"
	"fmt"

	"github.com/pluginforge/pluginvcs/cmd/versioner/repository"
	"github.com/pluginforge/pluginvcs/cmd/versioner/service"
	"github.com/pluginforge/pluginvcs/common/bootstrap"
)

// Container holds all initialized services and repositories
type Container struct {
	Components *bootstrap.Components

	// Stores
	Plugins  service.PluginStore
	Versions service.VersionStore
	Tags     service.TagStore

	// Services
	PluginService    *service.PluginService
	Reconstructor    *service.Reconstructor
	CommitManager    *service.CommitManager
	ComparisonEngine *service.ComparisonEngine
	TagService       *service.TagService
	Compressor       *service.SnapshotCompressor
}

// NewContainer initializes all stores and services once
func NewContainer(ctx context.Context, components *bootstrap.Components) (*Container, error) {
	cfg := components.Config

	var (
		plugins  service.PluginStore
		versions service.VersionStore
		tags     service.TagStore
	)
	switch cfg.Engine.StoreType {
	case "postgres":
		plugins = repository.NewPluginRepository(components.DB)
		versions = repository.NewVersionRepository(components.DB)
		tags = repository.NewTagRepository(components.DB)
	case "memory":
		store := repository.NewMemoryStore()
		plugins, versions, tags = store, store, store
	default:
		return nil, fmt.Errorf("unknown store type %q", cfg.Engine.StoreType)
	}

	// Services, bottom-up
	recon := service.NewReconstructor(versions, components.Metrics, components.Logger, cfg.Engine.SnapshotThreshold)
	constraints := service.NewConstraintEvaluator()

	commitManager := service.NewCommitManager(
		plugins,
		versions,
		recon,
		constraints,
		components.Queue,
		components.Metrics,
		components.Logger,
		cfg.Engine.SnapshotThreshold,
		cfg.Engine.SnapshotCompression,
	)

	comparisonEngine := service.NewComparisonEngine(
		versions,
		recon,
		components.Cache,
		components.Metrics,
		components.Logger,
		cfg.Engine.CompareCacheTTL,
	)

	tagService := service.NewTagService(tags, versions, components.Logger)
	pluginService := service.NewPluginService(plugins, components.Logger)

	compressor := service.NewSnapshotCompressor(
		versions,
		components.Queue,
		components.Metrics,
		components.Logger,
		cfg.Engine.SnapshotCompression,
	)
	if err := compressor.Start(ctx); err != nil {
		return nil, fmt.Errorf("failed to start snapshot compressor: %w", err)
	}

	return &Container{
		Components:       components,
		Plugins:          plugins,
		Versions:         versions,
		Tags:             tags,
		PluginService:    pluginService,
		Reconstructor:    recon,
		CommitManager:    commitManager,
		ComparisonEngine: comparisonEngine,
		TagService:       tagService,
		Compressor:       compressor,
	}, nil
}
