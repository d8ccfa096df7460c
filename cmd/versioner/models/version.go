package models

import (
	"time"

	"github.com/google/uuid"
)

// VersionKind discriminates how a version is stored
type VersionKind string

const (
	// KindSnapshot versions are self-contained full states
	KindSnapshot VersionKind = "snapshot"
	// KindPatch versions store only the delta from their parent
	KindPatch VersionKind = "patch"
)

// Version is one node in a plugin's linear history
// Maps to: plugin_versions table
type Version struct {
	ID       uuid.UUID `db:"id" json:"id"`
	PluginID uuid.UUID `db:"plugin_id" json:"plugin_id"`

	// Free-form label, unique per plugin (e.g. "v12", "2.1.0-rc1")
	VersionNumber string `db:"version_number" json:"version_number"`

	Kind VersionKind `db:"kind" json:"kind"`

	// Nil only for a plugin's first version
	ParentVersionID *uuid.UUID `db:"parent_version_id" json:"parent_version_id,omitempty"`

	CommitMessage string `db:"commit_message" json:"commit_message"`
	Author        string `db:"author" json:"author"`

	// Exactly one version per plugin is current. Flipped only inside
	// the commit transaction, never mutated anywhere else.
	IsCurrent   bool `db:"is_current" json:"is_current"`
	IsPublished bool `db:"is_published" json:"is_published"`

	// Number of patch hops to the nearest ancestor snapshot.
	// 0 for snapshots, parent.SnapshotDistance+1 for patches.
	SnapshotDistance int `db:"snapshot_distance" json:"snapshot_distance"`

	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	PublishedAt *time.Time `db:"published_at" json:"published_at,omitempty"`
}

// IsSnapshot checks if the version is stored as a full snapshot
func (v *Version) IsSnapshot() bool {
	return v.Kind == KindSnapshot
}

// IsPatch checks if the version is stored as a delta
func (v *Version) IsPatch() bool {
	return v.Kind == KindPatch
}
