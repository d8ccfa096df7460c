package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pluginforge/pluginvcs/cmd/versioner/models"
	"github.com/pluginforge/pluginvcs/cmd/versioner/service"
)

func seedPlugin(t *testing.T, store *MemoryStore) *models.Plugin {
	t.Helper()
	plugin := &models.Plugin{
		ID:        uuid.New(),
		Name:      "Demo",
		Slug:      "demo",
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	require.NoError(t, store.CreatePlugin(context.Background(), plugin))
	return plugin
}

func snapshotRecord(plugin *models.Plugin, expectedParent *uuid.UUID, number string) *service.CommitRecord {
	versionID := uuid.New()
	version := &models.Version{
		ID:            versionID,
		PluginID:      plugin.ID,
		VersionNumber: number,
		Kind:          models.KindSnapshot,
		CreatedAt:     time.Now().UTC(),
	}
	if expectedParent != nil {
		parent := *expectedParent
		version.ParentVersionID = &parent
	}
	return &service.CommitRecord{
		Version:        version,
		ExpectedParent: expectedParent,
		Snapshot: &models.Snapshot{
			VersionID: versionID,
			PluginID:  plugin.ID,
			Content:   []byte(`{}`),
			SizeBytes: 2,
			CreatedAt: time.Now().UTC(),
		},
	}
}

func TestInsertCommitAdvancesCurrent(t *testing.T) {
	store := NewMemoryStore()
	plugin := seedPlugin(t, store)
	ctx := context.Background()

	first := snapshotRecord(plugin, nil, "v1")
	require.NoError(t, store.InsertCommit(ctx, first))

	parent := first.Version.ID
	second := snapshotRecord(plugin, &parent, "v2")
	require.NoError(t, store.InsertCommit(ctx, second))

	current, err := store.GetCurrentVersion(ctx, plugin.ID)
	require.NoError(t, err)
	assert.Equal(t, second.Version.ID, current.ID)

	// The demoted version keeps its row but loses the flag
	prev, err := store.GetVersion(ctx, plugin.ID, first.Version.ID)
	require.NoError(t, err)
	assert.False(t, prev.IsCurrent)
}

func TestInsertCommitStaleParentRejected(t *testing.T) {
	store := NewMemoryStore()
	plugin := seedPlugin(t, store)
	ctx := context.Background()

	first := snapshotRecord(plugin, nil, "v1")
	require.NoError(t, store.InsertCommit(ctx, first))

	// A second initial commit lost the race
	stale := snapshotRecord(plugin, nil, "v2")
	assert.ErrorIs(t, store.InsertCommit(ctx, stale), service.ErrConcurrentCommit)

	// A commit expecting a parent that is no longer current also loses
	ghost := uuid.New()
	behind := snapshotRecord(plugin, &ghost, "v3")
	assert.ErrorIs(t, store.InsertCommit(ctx, behind), service.ErrConcurrentCommit)

	count, err := store.CountVersions(ctx, plugin.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestInsertCommitDuplicateVersionNumber(t *testing.T) {
	store := NewMemoryStore()
	plugin := seedPlugin(t, store)
	ctx := context.Background()

	first := snapshotRecord(plugin, nil, "v1")
	require.NoError(t, store.InsertCommit(ctx, first))

	parent := first.Version.ID
	dup := snapshotRecord(plugin, &parent, "v1")
	assert.Error(t, store.InsertCommit(ctx, dup))
}

func TestStoreCopiesAreIsolated(t *testing.T) {
	store := NewMemoryStore()
	plugin := seedPlugin(t, store)
	ctx := context.Background()

	record := snapshotRecord(plugin, nil, "v1")
	require.NoError(t, store.InsertCommit(ctx, record))

	snap, err := store.GetSnapshot(ctx, record.Version.ID)
	require.NoError(t, err)
	snap.Content[0] = 'X'

	again, err := store.GetSnapshot(ctx, record.Version.ID)
	require.NoError(t, err)
	assert.Equal(t, []byte(`{}`), again.Content, "callers must not be able to mutate stored content")
}
