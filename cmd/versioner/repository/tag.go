package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/pluginforge/pluginvcs/cmd/versioner/models"
	"github.com/pluginforge/pluginvcs/cmd/versioner/service"
	"github.com/pluginforge/pluginvcs/common/db"
)

const uniqueViolation = "23505"

// TagRepository handles database operations for tags
type TagRepository struct {
	db *db.DB
}

// NewTagRepository creates a new tag repository
func NewTagRepository(database *db.DB) *TagRepository {
	return &TagRepository{db: database}
}

// CreateTag inserts a new tag. Tag names are unique per plugin; a
// name collision surfaces as ErrDuplicateTag rather than moving the
// existing tag.
func (r *TagRepository) CreateTag(ctx context.Context, tag *models.Tag) error {
	query := `
		INSERT INTO plugin_tags (id, plugin_id, version_id, tag_name, tag_type, description, author, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.db.Exec(ctx, query,
		tag.ID,
		tag.PluginID,
		tag.VersionID,
		tag.TagName,
		tag.TagType,
		tag.Description,
		tag.Author,
		tag.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return service.ErrDuplicateTag
		}
		return fmt.Errorf("failed to create tag: %w", err)
	}

	return nil
}

// GetTag retrieves a tag by name
func (r *TagRepository) GetTag(ctx context.Context, pluginID uuid.UUID, name string) (*models.Tag, error) {
	query := `
		SELECT id, plugin_id, version_id, tag_name, tag_type, description, author, created_at
		FROM plugin_tags
		WHERE plugin_id = $1 AND tag_name = $2
	`

	tag := &models.Tag{}
	err := r.db.QueryRow(ctx, query, pluginID, name).Scan(
		&tag.ID,
		&tag.PluginID,
		&tag.VersionID,
		&tag.TagName,
		&tag.TagType,
		&tag.Description,
		&tag.Author,
		&tag.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, service.ErrTagNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get tag: %w", err)
	}

	return tag, nil
}

// DeleteTag removes a tag by name
func (r *TagRepository) DeleteTag(ctx context.Context, pluginID uuid.UUID, name string) error {
	query := `DELETE FROM plugin_tags WHERE plugin_id = $1 AND tag_name = $2`

	result, err := r.db.Exec(ctx, query, pluginID, name)
	if err != nil {
		return fmt.Errorf("failed to delete tag: %w", err)
	}
	if result.RowsAffected() == 0 {
		return service.ErrTagNotFound
	}

	return nil
}

// ListTags retrieves all tags for a plugin
func (r *TagRepository) ListTags(ctx context.Context, pluginID uuid.UUID) ([]*models.Tag, error) {
	query := `
		SELECT id, plugin_id, version_id, tag_name, tag_type, description, author, created_at
		FROM plugin_tags
		WHERE plugin_id = $1
		ORDER BY tag_name ASC
	`

	rows, err := r.db.Query(ctx, query, pluginID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tags: %w", err)
	}
	defer rows.Close()

	var tags []*models.Tag
	for rows.Next() {
		tag := &models.Tag{}
		err := rows.Scan(
			&tag.ID,
			&tag.PluginID,
			&tag.VersionID,
			&tag.TagName,
			&tag.TagType,
			&tag.Description,
			&tag.Author,
			&tag.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan tag: %w", err)
		}
		tags = append(tags, tag)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tags: %w", err)
	}

	return tags, nil
}
