package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/pluginforge/pluginvcs/cmd/versioner/models"
	"github.com/pluginforge/pluginvcs/common/logger"
)

// TagService attaches named labels to versions. Names are unique per
// plugin; there is no implicit overwrite — moving a tag means untag
// then tag, so a pointer to a previous release is never lost silently.
type TagService struct {
	tags     TagStore
	versions VersionStore
	log      *logger.Logger
}

// NewTagService creates a tag service
func NewTagService(tags TagStore, versions VersionStore, log *logger.Logger) *TagService {
	return &TagService{
		tags:     tags,
		versions: versions,
		log:      log,
	}
}

// CreateTag labels a version. Fails with ErrDuplicateTag when the
// name is already taken for the plugin (case-sensitive).
func (s *TagService) CreateTag(ctx context.Context, pluginID, versionID uuid.UUID, name string, tagType models.TagType, description, author string) (*models.Tag, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: tag name is required", ErrInvalidInput)
	}
	if tagType == "" {
		tagType = models.TagCustom
	}

	// Target version must exist
	if _, err := s.versions.GetVersion(ctx, pluginID, versionID); err != nil {
		return nil, err
	}

	tag := &models.Tag{
		ID:          uuid.New(),
		PluginID:    pluginID,
		VersionID:   versionID,
		TagName:     name,
		TagType:     tagType,
		Description: description,
		Author:      author,
		CreatedAt:   time.Now().UTC(),
	}

	if err := s.tags.CreateTag(ctx, tag); err != nil {
		return nil, err
	}

	s.log.Info("created tag",
		"plugin_id", pluginID,
		"version_id", versionID,
		"tag", name,
		"type", tagType,
	)

	return tag, nil
}

// GetTag retrieves a tag by name
func (s *TagService) GetTag(ctx context.Context, pluginID uuid.UUID, name string) (*models.Tag, error) {
	return s.tags.GetTag(ctx, pluginID, name)
}

// DeleteTag removes a tag by name
func (s *TagService) DeleteTag(ctx context.Context, pluginID uuid.UUID, name string) error {
	if err := s.tags.DeleteTag(ctx, pluginID, name); err != nil {
		return err
	}

	s.log.Info("deleted tag", "plugin_id", pluginID, "tag", name)
	return nil
}

// ListTags lists all tags for a plugin
func (s *TagService) ListTags(ctx context.Context, pluginID uuid.UUID) ([]*models.Tag, error) {
	return s.tags.ListTags(ctx, pluginID)
}
