package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/pluginforge/pluginvcs/cmd/versioner/models"
	"github.com/pluginforge/pluginvcs/cmd/versioner/service"
	"github.com/pluginforge/pluginvcs/common/db"
)

// PluginRepository handles database operations for plugins
type PluginRepository struct {
	db *db.DB
}

// NewPluginRepository creates a new plugin repository
func NewPluginRepository(database *db.DB) *PluginRepository {
	return &PluginRepository{db: database}
}

// CreatePlugin inserts a new plugin
func (r *PluginRepository) CreatePlugin(ctx context.Context, plugin *models.Plugin) error {
	query := `
		INSERT INTO plugins (id, name, slug, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := r.db.Exec(
		ctx,
		query,
		plugin.ID,
		plugin.Name,
		plugin.Slug,
		plugin.CreatedAt,
		plugin.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create plugin: %w", err)
	}

	return nil
}

// GetPlugin retrieves a plugin by ID
func (r *PluginRepository) GetPlugin(ctx context.Context, id uuid.UUID) (*models.Plugin, error) {
	query := `
		SELECT id, name, slug, current_version_id, created_at, updated_at
		FROM plugins
		WHERE id = $1
	`

	plugin := &models.Plugin{}
	err := r.db.QueryRow(ctx, query, id).Scan(
		&plugin.ID,
		&plugin.Name,
		&plugin.Slug,
		&plugin.CurrentVersionID,
		&plugin.CreatedAt,
		&plugin.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, service.ErrPluginNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get plugin: %w", err)
	}

	return plugin, nil
}
