package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/pluginforge/pluginvcs/vcs/diff"
	"github.com/pluginforge/pluginvcs/vcs/state"
)

// ComponentSummary is the per-component-type slice of a comparison
type ComponentSummary struct {
	ComponentType state.ComponentType `json:"component_type"`
	ChangeType    diff.ChangeType     `json:"change_type"`

	Added    []string `json:"added,omitempty"`
	Modified []string `json:"modified,omitempty"`
	Deleted  []string `json:"deleted,omitempty"`

	OperationsCount int `json:"operations_count"`
	LinesAdded      int `json:"lines_added"`
	LinesDeleted    int `json:"lines_deleted"`
}

// Comparison is a directional diff summary between two versions.
// Pure cache material: re-derivable at any time, advisory only.
type Comparison struct {
	PluginID      uuid.UUID `json:"plugin_id"`
	FromVersionID uuid.UUID `json:"from_version_id"`
	ToVersionID   uuid.UUID `json:"to_version_id"`

	// Aggregate component counts across all types
	ComponentsChanged  int `json:"components_changed"`
	ComponentsAdded    int `json:"components_added"`
	ComponentsModified int `json:"components_modified"`
	ComponentsDeleted  int `json:"components_deleted"`

	LinesAdded   int `json:"lines_added"`
	LinesDeleted int `json:"lines_deleted"`

	Summaries []ComponentSummary `json:"summaries"`

	ComputedAt time.Time `json:"computed_at"`
	TTLSeconds int       `json:"ttl_seconds"`
}

// NewComparison aggregates per-type diffs into a comparison summary
func NewComparison(pluginID, from, to uuid.UUID, diffs []*diff.TypeDiff, ttl time.Duration) *Comparison {
	c := &Comparison{
		PluginID:      pluginID,
		FromVersionID: from,
		ToVersionID:   to,
		Summaries:     make([]ComponentSummary, 0, len(diffs)),
		ComputedAt:    time.Now().UTC(),
		TTLSeconds:    int(ttl.Seconds()),
	}

	for _, d := range diffs {
		c.Summaries = append(c.Summaries, ComponentSummary{
			ComponentType:   d.Type,
			ChangeType:      d.ChangeType,
			Added:           d.Added,
			Modified:        d.Modified,
			Deleted:         d.Deleted,
			OperationsCount: d.OpsCount,
			LinesAdded:      d.LinesAdded,
			LinesDeleted:    d.LinesDeleted,
		})

		c.ComponentsAdded += len(d.Added)
		c.ComponentsModified += len(d.Modified)
		c.ComponentsDeleted += len(d.Deleted)
		c.LinesAdded += d.LinesAdded
		c.LinesDeleted += d.LinesDeleted
	}

	c.ComponentsChanged = c.ComponentsAdded + c.ComponentsModified + c.ComponentsDeleted
	return c
}
