package models

import (
	"github.com/google/uuid"

	"github.com/pluginforge/pluginvcs/vcs/diff"
	"github.com/pluginforge/pluginvcs/vcs/patch"
	"github.com/pluginforge/pluginvcs/vcs/state"
)

// ComponentPatch is one component type's delta within a patch version.
// One row per changed component type; ComponentID is set only when the
// row covers a single component rather than the group.
// Maps to: component_patches table
type ComponentPatch struct {
	ID        uuid.UUID `db:"id" json:"id"`
	VersionID uuid.UUID `db:"version_id" json:"version_id"`

	// Denormalized for plugin-scoped queries
	PluginID uuid.UUID `db:"plugin_id" json:"plugin_id"`

	ComponentType state.ComponentType `db:"component_type" json:"component_type"`
	ComponentID   *string             `db:"component_id" json:"component_id,omitempty"`
	ComponentName string              `db:"component_name" json:"component_name"`

	// Forward operations, applied in list order
	Ops []patch.Operation `db:"operations" json:"ops"`

	// Matching inverses; undo applies them in reverse list order
	ReverseOps []patch.Operation `db:"reverse_operations" json:"reverse_ops"`

	ChangeType      diff.ChangeType `db:"change_type" json:"change_type"`
	OperationsCount int             `db:"operations_count" json:"operations_count"`
}

// NewComponentPatch builds a component patch row from a computed diff
func NewComponentPatch(versionID, pluginID uuid.UUID, d *diff.TypeDiff) *ComponentPatch {
	return &ComponentPatch{
		ID:              uuid.New(),
		VersionID:       versionID,
		PluginID:        pluginID,
		ComponentType:   d.Type,
		ComponentName:   d.Type.CollectionKey(),
		Ops:             d.Ops,
		ReverseOps:      d.ReverseOps,
		ChangeType:      d.ChangeType,
		OperationsCount: d.OpsCount,
	}
}
