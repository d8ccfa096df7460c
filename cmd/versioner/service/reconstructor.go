package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/pluginforge/pluginvcs/common/logger"
	"github.com/pluginforge/pluginvcs/common/metrics"
	"github.com/pluginforge/pluginvcs/vcs/patch"
	"github.com/pluginforge/pluginvcs/vcs/state"
)

// Reconstructor materializes the full plugin state at any version:
// walk parent pointers back to the nearest snapshot, then replay the
// patch chain forward. Read-only and pure — the same version id always
// yields a byte-identical state.
type Reconstructor struct {
	versions VersionStore
	metrics  *metrics.Metrics
	log      *logger.Logger

	// Replay bound; the snapshot cadence invariant keeps every chain at
	// or under this length, so exceeding it means corrupted bookkeeping
	maxReplay int
}

// NewReconstructor creates a reconstructor
func NewReconstructor(versions VersionStore, m *metrics.Metrics, log *logger.Logger, snapshotThreshold int) *Reconstructor {
	return &Reconstructor{
		versions:  versions,
		metrics:   m,
		log:       log,
		maxReplay: snapshotThreshold,
	}
}

// Reconstruct returns the full plugin state at versionID
func (r *Reconstructor) Reconstruct(ctx context.Context, pluginID, versionID uuid.UUID) (*state.PluginState, error) {
	start := time.Now()

	target, err := r.versions.GetVersion(ctx, pluginID, versionID)
	if err != nil {
		return nil, err
	}

	// Walk back to the nearest snapshot, collecting patch versions in
	// reverse chain order
	chain := make([]uuid.UUID, 0, target.SnapshotDistance)
	v := target
	for v.IsPatch() {
		if len(chain) > r.maxReplay {
			// Cadence invariant violated; refuse to loop unbounded
			r.log.Error("patch chain exceeds snapshot threshold",
				"plugin_id", pluginID,
				"version_id", versionID,
				"threshold", r.maxReplay,
			)
			return nil, fmt.Errorf("%w: version %s is more than %d patches from a snapshot", ErrBrokenChain, versionID, r.maxReplay)
		}

		if v.ParentVersionID == nil {
			return nil, fmt.Errorf("%w: patch version %s has no parent", ErrBrokenChain, v.ID)
		}
		chain = append(chain, v.ID)

		parent, err := r.versions.GetVersion(ctx, pluginID, *v.ParentVersionID)
		if err != nil {
			return nil, fmt.Errorf("%w: parent %s of version %s: %v", ErrBrokenChain, *v.ParentVersionID, v.ID, err)
		}
		v = parent
	}

	// Load the snapshot base
	snap, err := r.versions.GetSnapshot(ctx, v.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: snapshot version %s: %v", ErrSnapshotMissing, v.ID, err)
	}
	st, err := SnapshotState(snap)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSnapshotMissing, err)
	}

	// Replay patches forward, snapshot toward target
	for i := len(chain) - 1; i >= 0; i-- {
		patchVersionID := chain[i]

		rows, err := r.versions.GetComponentPatches(ctx, patchVersionID)
		if err != nil {
			return nil, fmt.Errorf("%w: patches of version %s: %v", ErrBrokenChain, patchVersionID, err)
		}

		for _, row := range rows {
			st, err = patch.Apply(st, row.Ops)
			if err != nil {
				r.log.Error("patch replay failed",
					"plugin_id", pluginID,
					"version_id", patchVersionID,
					"component_type", row.ComponentType,
					"error", err,
				)
				return nil, fmt.Errorf("%w: version %s component %s: %v", ErrPatchApplyFailure, patchVersionID, row.ComponentType, err)
			}
		}
	}

	if r.metrics != nil {
		r.metrics.ObserveReconstruction(len(chain), start)
	}

	return st, nil
}
