package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/pluginforge/pluginvcs/cmd/versioner/models"
	"github.com/pluginforge/pluginvcs/common/logger"
	"github.com/pluginforge/pluginvcs/common/metrics"
	"github.com/pluginforge/pluginvcs/common/queue"
	"github.com/pluginforge/pluginvcs/vcs/diff"
	"github.com/pluginforge/pluginvcs/vcs/state"
)

// CommitManager records new desired states as versions. It owns the
// single code path that moves a plugin's current pointer: diff against
// current, decide snapshot-vs-patch, persist, flip — all in one store
// transaction with an optimistic concurrency check.
type CommitManager struct {
	plugins     PluginStore
	versions    VersionStore
	recon       *Reconstructor
	constraints *ConstraintEvaluator
	queue       queue.Queue
	metrics     *metrics.Metrics
	log         *logger.Logger

	threshold   int
	compression string
}

// NewCommitManager creates a commit manager
func NewCommitManager(
	plugins PluginStore,
	versions VersionStore,
	recon *Reconstructor,
	constraints *ConstraintEvaluator,
	q queue.Queue,
	m *metrics.Metrics,
	log *logger.Logger,
	snapshotThreshold int,
	compression string,
) *CommitManager {
	return &CommitManager{
		plugins:     plugins,
		versions:    versions,
		recon:       recon,
		constraints: constraints,
		queue:       q,
		metrics:     m,
		log:         log,
		threshold:   snapshotThreshold,
		compression: compression,
	}
}

// CommitRequest is a new desired plugin state to record
type CommitRequest struct {
	PluginID      uuid.UUID
	State         *state.PluginState
	Message       string
	Author        string
	VersionNumber string
	Publish       bool
}

// Commit records the desired state as a new version and returns it.
// Committing a state identical to current is a no-op returning the
// existing current version. A concurrent-current conflict is retried
// once before being surfaced.
func (m *CommitManager) Commit(ctx context.Context, req *CommitRequest) (*models.Version, error) {
	start := time.Now()

	if req.State == nil {
		return nil, fmt.Errorf("%w: desired state is nil", ErrDiffComputation)
	}
	if _, err := req.State.CanonicalJSON(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDiffComputation, err)
	}
	if err := m.constraints.Check(req.State); err != nil {
		return nil, err
	}

	if _, err := m.plugins.GetPlugin(ctx, req.PluginID); err != nil {
		return nil, err
	}

	const maxAttempts = 2
	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		version, noop, err := m.tryCommit(ctx, req)
		if err == nil {
			kind := string(version.Kind)
			if noop {
				kind = "noop"
			}
			if m.metrics != nil {
				m.metrics.ObserveCommit(kind, start)
			}
			if !noop && version.IsSnapshot() {
				m.enqueueCompression(ctx, version.ID)
			}
			return version, nil
		}

		lastErr = err
		if !errors.Is(err, ErrConcurrentCommit) {
			return nil, err
		}

		if m.metrics != nil {
			m.metrics.CommitConflictsTotal.Inc()
		}
		m.log.Warn("commit conflict, retrying",
			"plugin_id", req.PluginID,
			"attempt", attempt+1,
		)
	}

	return nil, lastErr
}

// tryCommit performs one commit attempt against the current pointer
// it observes. The store's InsertCommit rejects the write when that
// pointer moved underneath us.
func (m *CommitManager) tryCommit(ctx context.Context, req *CommitRequest) (*models.Version, bool, error) {
	current, err := m.versions.GetCurrentVersion(ctx, req.PluginID)
	if err != nil && !errors.Is(err, ErrVersionNotFound) {
		return nil, false, err
	}
	firstCommit := current == nil || errors.Is(err, ErrVersionNotFound)

	var diffs []*diff.TypeDiff
	if !firstCommit {
		currentState, err := m.recon.Reconstruct(ctx, req.PluginID, current.ID)
		if err != nil {
			return nil, false, err
		}

		diffs, err = diff.States(currentState, req.State)
		if err != nil {
			return nil, false, fmt.Errorf("%w: %v", ErrDiffComputation, err)
		}

		if len(diffs) == 0 {
			// Idempotent commit: nothing changed, nothing written
			return current, true, nil
		}
	}

	versionNumber := req.VersionNumber
	if versionNumber == "" {
		count, err := m.versions.CountVersions(ctx, req.PluginID)
		if err != nil {
			return nil, false, err
		}
		versionNumber = "v" + strconv.Itoa(count+1)
	}

	now := time.Now().UTC()
	version := &models.Version{
		ID:            uuid.New(),
		PluginID:      req.PluginID,
		VersionNumber: versionNumber,
		CommitMessage: req.Message,
		Author:        req.Author,
		IsCurrent:     true,
		CreatedAt:     now,
	}

	record := &CommitRecord{Version: version}

	if !firstCommit {
		parentID := current.ID
		version.ParentVersionID = &parentID
		record.ExpectedParent = &parentID
	}

	// Storage form: full snapshot when forced (first version, publish,
	// cadence threshold), delta otherwise
	storeSnapshot := firstCommit || req.Publish ||
		(!firstCommit && current.SnapshotDistance+1 >= m.threshold)

	if storeSnapshot {
		version.Kind = models.KindSnapshot
		version.SnapshotDistance = 0

		snap, err := NewSnapshot(version.ID, req.PluginID, req.State)
		if err != nil {
			return nil, false, fmt.Errorf("%w: %v", ErrDiffComputation, err)
		}
		record.Snapshot = snap
	} else {
		version.Kind = models.KindPatch
		version.SnapshotDistance = current.SnapshotDistance + 1

		record.Patches = make([]*models.ComponentPatch, 0, len(diffs))
		for _, d := range diffs {
			record.Patches = append(record.Patches, models.NewComponentPatch(version.ID, req.PluginID, d))
		}
	}

	if req.Publish {
		version.IsPublished = true
		publishedAt := now
		version.PublishedAt = &publishedAt
	}

	if err := m.versions.InsertCommit(ctx, record); err != nil {
		return nil, false, err
	}

	m.log.Info("version committed",
		"plugin_id", req.PluginID,
		"version_id", version.ID,
		"version_number", version.VersionNumber,
		"kind", version.Kind,
		"snapshot_distance", version.SnapshotDistance,
		"published", version.IsPublished,
	)

	return version, false, nil
}

// Restore commits a historical reconstruction as the new current
// state. History moves forward only: the restored state becomes a new
// version, nothing is truncated.
func (m *CommitManager) Restore(ctx context.Context, pluginID, versionID uuid.UUID, author string) (*models.Version, error) {
	target, err := m.versions.GetVersion(ctx, pluginID, versionID)
	if err != nil {
		return nil, err
	}

	st, err := m.recon.Reconstruct(ctx, pluginID, versionID)
	if err != nil {
		return nil, err
	}

	return m.Commit(ctx, &CommitRequest{
		PluginID: pluginID,
		State:    st,
		Message:  fmt.Sprintf("restore to %s", target.VersionNumber),
		Author:   author,
	})
}

func (m *CommitManager) enqueueCompression(ctx context.Context, versionID uuid.UUID) {
	if m.queue == nil || m.compression == models.CompressionNone {
		return
	}
	if err := m.queue.Publish(ctx, TopicSnapshotCompress, versionID.String(), nil); err != nil {
		// Compression is best-effort; the snapshot stays uncompressed
		m.log.Warn("failed to enqueue snapshot compression", "version_id", versionID, "error", err)
	}
}
