package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/pluginforge/pluginvcs/cmd/versioner/models"
	"github.com/pluginforge/pluginvcs/common/cache"
	"github.com/pluginforge/pluginvcs/common/logger"
	"github.com/pluginforge/pluginvcs/common/metrics"
	"github.com/pluginforge/pluginvcs/vcs/diff"
	"github.com/pluginforge/pluginvcs/vcs/state"
)

// ComparisonEngine computes diff summaries between any two versions.
// Results are cached per directional (from, to) pair; entries are
// advisory and recomputed on expiry or when an endpoint version is
// gone.
type ComparisonEngine struct {
	versions VersionStore
	recon    *Reconstructor
	cache    cache.Cache
	metrics  *metrics.Metrics
	log      *logger.Logger
	ttl      time.Duration
}

// NewComparisonEngine creates a comparison engine
func NewComparisonEngine(versions VersionStore, recon *Reconstructor, c cache.Cache, m *metrics.Metrics, log *logger.Logger, ttl time.Duration) *ComparisonEngine {
	return &ComparisonEngine{
		versions: versions,
		recon:    recon,
		cache:    c,
		metrics:  m,
		log:      log,
		ttl:      ttl,
	}
}

// Compare returns the diff summary between two versions of a plugin
func (e *ComparisonEngine) Compare(ctx context.Context, pluginID, fromID, toID uuid.UUID) (*models.Comparison, error) {
	// Both endpoints must exist before a cached entry may be served;
	// this is what invalidates entries whose version was deleted
	if _, err := e.versions.GetVersion(ctx, pluginID, fromID); err != nil {
		return nil, err
	}
	if _, err := e.versions.GetVersion(ctx, pluginID, toID); err != nil {
		return nil, err
	}

	key := comparisonKey(pluginID, fromID, toID)

	if e.cache != nil {
		if data, hit, err := e.cache.Get(ctx, key); err == nil && hit {
			var cached models.Comparison
			if err := json.Unmarshal(data, &cached); err == nil {
				if e.metrics != nil {
					e.metrics.CompareCacheHitsTotal.Inc()
				}
				return &cached, nil
			}
			// Undecodable entry: drop and recompute
			_ = e.cache.Delete(ctx, key)
		}
	}
	if e.metrics != nil {
		e.metrics.CompareCacheMissesTotal.Inc()
	}

	fromState, err := e.recon.Reconstruct(ctx, pluginID, fromID)
	if err != nil {
		return nil, err
	}
	toState, err := e.recon.Reconstruct(ctx, pluginID, toID)
	if err != nil {
		return nil, err
	}

	comparison, err := e.summarize(pluginID, fromID, toID, fromState, toState)
	if err != nil {
		return nil, err
	}

	if e.cache != nil {
		if data, err := json.Marshal(comparison); err == nil {
			if err := e.cache.Set(ctx, key, data, e.ttl); err != nil {
				e.log.Warn("failed to cache comparison", "key", key, "error", err)
			}
		}
	}

	return comparison, nil
}

// CompareWorkingState diffs a committed version against an uncommitted
// working state (interactive diff UIs). Working state is not stable,
// so this path never touches the cache.
func (e *ComparisonEngine) CompareWorkingState(ctx context.Context, pluginID, fromID uuid.UUID, working *state.PluginState) (*models.Comparison, error) {
	if working == nil {
		return nil, fmt.Errorf("%w: working state is nil", ErrDiffComputation)
	}

	if _, err := e.versions.GetVersion(ctx, pluginID, fromID); err != nil {
		return nil, err
	}

	fromState, err := e.recon.Reconstruct(ctx, pluginID, fromID)
	if err != nil {
		return nil, err
	}

	return e.summarize(pluginID, fromID, uuid.Nil, fromState, working)
}

func (e *ComparisonEngine) summarize(pluginID, fromID, toID uuid.UUID, fromState, toState *state.PluginState) (*models.Comparison, error) {
	diffs, err := diff.States(fromState, toState)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDiffComputation, err)
	}
	return models.NewComparison(pluginID, fromID, toID, diffs, e.ttl), nil
}

func comparisonKey(pluginID, fromID, toID uuid.UUID) string {
	return fmt.Sprintf("compare:%s:%s:%s", pluginID, fromID, toID)
}
