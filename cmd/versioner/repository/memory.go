package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pluginforge/pluginvcs/cmd/versioner/models"
	"github.com/pluginforge/pluginvcs/cmd/versioner/service"
)

// MemoryStore is an in-process implementation of the store
// interfaces, used for tests and STORE_TYPE=memory. One mutex guards
// everything; the commit path needs its read-check-write to be atomic
// and per-plugin contention is irrelevant at this scale.
type MemoryStore struct {
	mu sync.RWMutex

	plugins   map[uuid.UUID]*models.Plugin
	versions  map[uuid.UUID]map[uuid.UUID]*models.Version
	patches   map[uuid.UUID][]*models.ComponentPatch
	snapshots map[uuid.UUID]*models.Snapshot
	tags      map[uuid.UUID]map[string]*models.Tag
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		plugins:   make(map[uuid.UUID]*models.Plugin),
		versions:  make(map[uuid.UUID]map[uuid.UUID]*models.Version),
		patches:   make(map[uuid.UUID][]*models.ComponentPatch),
		snapshots: make(map[uuid.UUID]*models.Snapshot),
		tags:      make(map[uuid.UUID]map[string]*models.Tag),
	}
}

// CreatePlugin registers a plugin
func (s *MemoryStore) CreatePlugin(ctx context.Context, plugin *models.Plugin) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.plugins[plugin.ID]; exists {
		return fmt.Errorf("plugin %s already exists", plugin.ID)
	}

	p := *plugin
	s.plugins[plugin.ID] = &p
	s.versions[plugin.ID] = make(map[uuid.UUID]*models.Version)
	s.tags[plugin.ID] = make(map[string]*models.Tag)
	return nil
}

// GetPlugin retrieves a plugin by id
func (s *MemoryStore) GetPlugin(ctx context.Context, id uuid.UUID) (*models.Plugin, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	plugin, exists := s.plugins[id]
	if !exists {
		return nil, service.ErrPluginNotFound
	}
	p := *plugin
	return &p, nil
}

// InsertCommit atomically persists a commit record and flips the
// plugin's current pointer, rejecting the write when the pointer no
// longer matches the committer's expectation.
func (s *MemoryStore) InsertCommit(ctx context.Context, record *service.CommitRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	version := record.Version
	plugin, exists := s.plugins[version.PluginID]
	if !exists {
		return service.ErrPluginNotFound
	}

	// Optimistic check against the current pointer
	switch {
	case record.ExpectedParent == nil && plugin.CurrentVersionID != nil:
		return service.ErrConcurrentCommit
	case record.ExpectedParent != nil &&
		(plugin.CurrentVersionID == nil || *plugin.CurrentVersionID != *record.ExpectedParent):
		return service.ErrConcurrentCommit
	}

	byID := s.versions[version.PluginID]
	for _, v := range byID {
		if v.VersionNumber == version.VersionNumber {
			return fmt.Errorf("version number %q already exists for plugin %s", version.VersionNumber, version.PluginID)
		}
	}

	// Demote the old current, promote the new one
	if plugin.CurrentVersionID != nil {
		if prev, ok := byID[*plugin.CurrentVersionID]; ok {
			prev.IsCurrent = false
		}
	}

	v := *version
	v.IsCurrent = true
	byID[v.ID] = &v

	if record.Snapshot != nil {
		snap := *record.Snapshot
		snap.Content = append([]byte(nil), record.Snapshot.Content...)
		s.snapshots[v.ID] = &snap
	}
	if len(record.Patches) > 0 {
		rows := make([]*models.ComponentPatch, 0, len(record.Patches))
		for _, p := range record.Patches {
			row := *p
			rows = append(rows, &row)
		}
		s.patches[v.ID] = rows
	}

	newID := v.ID
	plugin.CurrentVersionID = &newID
	plugin.UpdatedAt = time.Now().UTC()
	return nil
}

// GetVersion retrieves a version by id
func (s *MemoryStore) GetVersion(ctx context.Context, pluginID, versionID uuid.UUID) (*models.Version, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	byID, exists := s.versions[pluginID]
	if !exists {
		return nil, service.ErrPluginNotFound
	}
	version, exists := byID[versionID]
	if !exists {
		return nil, service.ErrVersionNotFound
	}
	v := *version
	return &v, nil
}

// GetCurrentVersion retrieves the plugin's current version
func (s *MemoryStore) GetCurrentVersion(ctx context.Context, pluginID uuid.UUID) (*models.Version, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	plugin, exists := s.plugins[pluginID]
	if !exists {
		return nil, service.ErrPluginNotFound
	}
	if plugin.CurrentVersionID == nil {
		return nil, service.ErrVersionNotFound
	}
	version, exists := s.versions[pluginID][*plugin.CurrentVersionID]
	if !exists {
		return nil, service.ErrVersionNotFound
	}
	v := *version
	return &v, nil
}

// ListVersions lists a plugin's versions, newest first
func (s *MemoryStore) ListVersions(ctx context.Context, pluginID uuid.UUID) ([]*models.Version, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	byID, exists := s.versions[pluginID]
	if !exists {
		return nil, service.ErrPluginNotFound
	}

	out := make([]*models.Version, 0, len(byID))
	for _, version := range byID {
		v := *version
		out = append(out, &v)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID.String() > out[j].ID.String()
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// CountVersions counts a plugin's versions
func (s *MemoryStore) CountVersions(ctx context.Context, pluginID uuid.UUID) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	byID, exists := s.versions[pluginID]
	if !exists {
		return 0, service.ErrPluginNotFound
	}
	return len(byID), nil
}

// GetComponentPatches retrieves the delta rows of a patch version
func (s *MemoryStore) GetComponentPatches(ctx context.Context, versionID uuid.UUID) ([]*models.ComponentPatch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows := s.patches[versionID]
	out := make([]*models.ComponentPatch, 0, len(rows))
	for _, row := range rows {
		r := *row
		out = append(out, &r)
	}
	return out, nil
}

// GetSnapshot retrieves the snapshot row of a snapshot version
func (s *MemoryStore) GetSnapshot(ctx context.Context, versionID uuid.UUID) (*models.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap, exists := s.snapshots[versionID]
	if !exists {
		return nil, service.ErrSnapshotMissing
	}
	out := *snap
	out.Content = append([]byte(nil), snap.Content...)
	return &out, nil
}

// MarkSnapshotCompressed records the compressed blob for a snapshot
func (s *MemoryStore) MarkSnapshotCompressed(ctx context.Context, versionID uuid.UUID, algorithm string, compressed []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, exists := s.snapshots[versionID]
	if !exists {
		return service.ErrSnapshotMissing
	}
	snap.Content = append([]byte(nil), compressed...)
	snap.IsCompressed = true
	snap.CompressionAlgorithm = algorithm
	snap.CompressedSizeBytes = int64(len(compressed))
	return nil
}

// CreateTag stores a tag, rejecting duplicate names per plugin
func (s *MemoryStore) CreateTag(ctx context.Context, tag *models.Tag) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	byName, exists := s.tags[tag.PluginID]
	if !exists {
		return service.ErrPluginNotFound
	}
	if _, taken := byName[tag.TagName]; taken {
		return service.ErrDuplicateTag
	}

	t := *tag
	byName[tag.TagName] = &t
	return nil
}

// GetTag retrieves a tag by name
func (s *MemoryStore) GetTag(ctx context.Context, pluginID uuid.UUID, name string) (*models.Tag, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	byName, exists := s.tags[pluginID]
	if !exists {
		return nil, service.ErrPluginNotFound
	}
	tag, exists := byName[name]
	if !exists {
		return nil, service.ErrTagNotFound
	}
	t := *tag
	return &t, nil
}

// DeleteTag removes a tag by name
func (s *MemoryStore) DeleteTag(ctx context.Context, pluginID uuid.UUID, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	byName, exists := s.tags[pluginID]
	if !exists {
		return service.ErrPluginNotFound
	}
	if _, found := byName[name]; !found {
		return service.ErrTagNotFound
	}
	delete(byName, name)
	return nil
}

// ListTags lists a plugin's tags sorted by name
func (s *MemoryStore) ListTags(ctx context.Context, pluginID uuid.UUID) ([]*models.Tag, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	byName, exists := s.tags[pluginID]
	if !exists {
		return nil, service.ErrPluginNotFound
	}

	out := make([]*models.Tag, 0, len(byName))
	for _, tag := range byName {
		t := *tag
		out = append(out, &t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TagName < out[j].TagName })
	return out, nil
}
