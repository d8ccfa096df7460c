package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/pluginforge/pluginvcs/cmd/versioner/models"
)

// CommitRecord is everything one commit persists. Stores write it
// atomically: the version row, its delta rows or snapshot, the demote
// of the old current version and the promote of the new one all land
// in a single transaction or not at all.
type CommitRecord struct {
	Version *models.Version

	// Exactly one of the two is set, matching Version.Kind
	Patches  []*models.ComponentPatch
	Snapshot *models.Snapshot

	// The current version id the committer based its diff on; nil for
	// a plugin's first commit. A store rejects the record with
	// ErrConcurrentCommit when the plugin's current pointer no longer
	// matches.
	ExpectedParent *uuid.UUID
}

// PluginStore persists plugin registry entries
type PluginStore interface {
	CreatePlugin(ctx context.Context, plugin *models.Plugin) error
	GetPlugin(ctx context.Context, id uuid.UUID) (*models.Plugin, error)
}

// VersionStore persists the version chain and its payloads
type VersionStore interface {
	InsertCommit(ctx context.Context, record *CommitRecord) error

	GetVersion(ctx context.Context, pluginID, versionID uuid.UUID) (*models.Version, error)
	GetCurrentVersion(ctx context.Context, pluginID uuid.UUID) (*models.Version, error)
	ListVersions(ctx context.Context, pluginID uuid.UUID) ([]*models.Version, error)
	CountVersions(ctx context.Context, pluginID uuid.UUID) (int, error)

	GetComponentPatches(ctx context.Context, versionID uuid.UUID) ([]*models.ComponentPatch, error)
	GetSnapshot(ctx context.Context, versionID uuid.UUID) (*models.Snapshot, error)
	MarkSnapshotCompressed(ctx context.Context, versionID uuid.UUID, algorithm string, compressed []byte) error
}

// TagStore persists named version pointers
type TagStore interface {
	CreateTag(ctx context.Context, tag *models.Tag) error
	GetTag(ctx context.Context, pluginID uuid.UUID, name string) (*models.Tag, error)
	DeleteTag(ctx context.Context, pluginID uuid.UUID, name string) error
	ListTags(ctx context.Context, pluginID uuid.UUID) ([]*models.Tag, error)
}
