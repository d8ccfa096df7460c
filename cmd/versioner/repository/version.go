package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/pluginforge/pluginvcs/cmd/versioner/models"
	"github.com/pluginforge/pluginvcs/cmd/versioner/service"
	"github.com/pluginforge/pluginvcs/common/db"
	"github.com/pluginforge/pluginvcs/vcs/patch"
)

// VersionRepository handles database operations for versions, their
// component patches and snapshots
type VersionRepository struct {
	db *db.DB
}

// NewVersionRepository creates a new version repository
func NewVersionRepository(database *db.DB) *VersionRepository {
	return &VersionRepository{db: database}
}

// InsertCommit persists a commit record in a single transaction. The
// plugin's current pointer is advanced with a compare-and-set against
// the committer's expected parent; a mismatch means another commit
// landed first and the whole transaction rolls back.
func (r *VersionRepository) InsertCommit(ctx context.Context, record *service.CommitRecord) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin commit transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	version := record.Version

	// CAS first: this also takes the row lock that serializes
	// concurrent committers on the same plugin.
	tag, err := tx.Exec(ctx, `
		UPDATE plugins
		SET current_version_id = $1, updated_at = now()
		WHERE id = $2 AND current_version_id IS NOT DISTINCT FROM $3
	`, version.ID, version.PluginID, record.ExpectedParent)
	if err != nil {
		return fmt.Errorf("failed to advance current version: %w", err)
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM plugins WHERE id = $1)`, version.PluginID).Scan(&exists); err != nil {
			return fmt.Errorf("failed to check plugin existence: %w", err)
		}
		if !exists {
			return service.ErrPluginNotFound
		}
		return service.ErrConcurrentCommit
	}

	_, err = tx.Exec(ctx, `
		UPDATE plugin_versions
		SET is_current = false
		WHERE plugin_id = $1 AND is_current
	`, version.PluginID)
	if err != nil {
		return fmt.Errorf("failed to demote previous version: %w", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO plugin_versions (
			id, plugin_id, version_number, kind, parent_version_id,
			commit_message, author, is_current, is_published,
			snapshot_distance, created_at, published_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, true, $8, $9, $10, $11)
	`,
		version.ID,
		version.PluginID,
		version.VersionNumber,
		version.Kind,
		version.ParentVersionID,
		version.CommitMessage,
		version.Author,
		version.IsPublished,
		version.SnapshotDistance,
		version.CreatedAt,
		version.PublishedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert version: %w", err)
	}

	if record.Snapshot != nil {
		snap := record.Snapshot
		_, err = tx.Exec(ctx, `
			INSERT INTO plugin_snapshots (
				version_id, plugin_id, content, is_compressed,
				compression_algorithm, size_bytes, compressed_size_bytes, created_at
			)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`,
			snap.VersionID,
			snap.PluginID,
			snap.Content,
			snap.IsCompressed,
			snap.CompressionAlgorithm,
			snap.SizeBytes,
			snap.CompressedSizeBytes,
			snap.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert snapshot: %w", err)
		}
	}

	for _, row := range record.Patches {
		ops, err := json.Marshal(row.Ops)
		if err != nil {
			return fmt.Errorf("failed to marshal patch ops: %w", err)
		}
		reverseOps, err := json.Marshal(row.ReverseOps)
		if err != nil {
			return fmt.Errorf("failed to marshal reverse ops: %w", err)
		}

		_, err = tx.Exec(ctx, `
			INSERT INTO component_patches (
				id, version_id, plugin_id, component_type, component_id,
				component_name, operations, reverse_operations,
				change_type, operations_count
			)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		`,
			row.ID,
			row.VersionID,
			row.PluginID,
			row.ComponentType,
			row.ComponentID,
			row.ComponentName,
			ops,
			reverseOps,
			row.ChangeType,
			row.OperationsCount,
		)
		if err != nil {
			return fmt.Errorf("failed to insert component patch: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

const versionColumns = `
	id, plugin_id, version_number, kind, parent_version_id,
	commit_message, author, is_current, is_published,
	snapshot_distance, created_at, published_at
`

func scanVersion(row pgx.Row) (*models.Version, error) {
	version := &models.Version{}
	err := row.Scan(
		&version.ID,
		&version.PluginID,
		&version.VersionNumber,
		&version.Kind,
		&version.ParentVersionID,
		&version.CommitMessage,
		&version.Author,
		&version.IsCurrent,
		&version.IsPublished,
		&version.SnapshotDistance,
		&version.CreatedAt,
		&version.PublishedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, service.ErrVersionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan version: %w", err)
	}
	return version, nil
}

// GetVersion retrieves a version by ID, scoped to a plugin
func (r *VersionRepository) GetVersion(ctx context.Context, pluginID, versionID uuid.UUID) (*models.Version, error) {
	query := `SELECT ` + versionColumns + ` FROM plugin_versions WHERE plugin_id = $1 AND id = $2`
	return scanVersion(r.db.QueryRow(ctx, query, pluginID, versionID))
}

// GetCurrentVersion retrieves the plugin's current version
func (r *VersionRepository) GetCurrentVersion(ctx context.Context, pluginID uuid.UUID) (*models.Version, error) {
	query := `SELECT ` + versionColumns + ` FROM plugin_versions WHERE plugin_id = $1 AND is_current`
	return scanVersion(r.db.QueryRow(ctx, query, pluginID))
}

// ListVersions retrieves all versions for a plugin, newest first
func (r *VersionRepository) ListVersions(ctx context.Context, pluginID uuid.UUID) ([]*models.Version, error) {
	query := `SELECT ` + versionColumns + ` FROM plugin_versions WHERE plugin_id = $1 ORDER BY created_at DESC, id DESC`

	rows, err := r.db.Query(ctx, query, pluginID)
	if err != nil {
		return nil, fmt.Errorf("failed to list versions: %w", err)
	}
	defer rows.Close()

	var versions []*models.Version
	for rows.Next() {
		version, err := scanVersion(rows)
		if err != nil {
			return nil, err
		}
		versions = append(versions, version)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating versions: %w", err)
	}

	return versions, nil
}

// CountVersions returns the number of versions for a plugin
func (r *VersionRepository) CountVersions(ctx context.Context, pluginID uuid.UUID) (int, error) {
	query := `SELECT COUNT(*) FROM plugin_versions WHERE plugin_id = $1`

	var count int
	if err := r.db.QueryRow(ctx, query, pluginID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count versions: %w", err)
	}

	return count, nil
}

// GetComponentPatches retrieves the delta rows of a patch version
func (r *VersionRepository) GetComponentPatches(ctx context.Context, versionID uuid.UUID) ([]*models.ComponentPatch, error) {
	query := `
		SELECT id, version_id, plugin_id, component_type, component_id,
		       component_name, operations, reverse_operations,
		       change_type, operations_count
		FROM component_patches
		WHERE version_id = $1
		ORDER BY component_type ASC
	`

	rows, err := r.db.Query(ctx, query, versionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get component patches: %w", err)
	}
	defer rows.Close()

	var patches []*models.ComponentPatch
	for rows.Next() {
		row := &models.ComponentPatch{}
		var ops, reverseOps []byte
		err := rows.Scan(
			&row.ID,
			&row.VersionID,
			&row.PluginID,
			&row.ComponentType,
			&row.ComponentID,
			&row.ComponentName,
			&ops,
			&reverseOps,
			&row.ChangeType,
			&row.OperationsCount,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan component patch: %w", err)
		}
		if err := json.Unmarshal(ops, &row.Ops); err != nil {
			return nil, fmt.Errorf("failed to decode patch ops: %w", err)
		}
		if len(reverseOps) > 0 {
			if err := json.Unmarshal(reverseOps, &row.ReverseOps); err != nil {
				return nil, fmt.Errorf("failed to decode reverse ops: %w", err)
			}
		} else {
			row.ReverseOps = []patch.Operation{}
		}
		patches = append(patches, row)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating component patches: %w", err)
	}

	return patches, nil
}

// GetSnapshot retrieves the snapshot row of a snapshot version
func (r *VersionRepository) GetSnapshot(ctx context.Context, versionID uuid.UUID) (*models.Snapshot, error) {
	query := `
		SELECT version_id, plugin_id, content, is_compressed,
		       compression_algorithm, size_bytes, compressed_size_bytes, created_at
		FROM plugin_snapshots
		WHERE version_id = $1
	`

	snap := &models.Snapshot{}
	err := r.db.QueryRow(ctx, query, versionID).Scan(
		&snap.VersionID,
		&snap.PluginID,
		&snap.Content,
		&snap.IsCompressed,
		&snap.CompressionAlgorithm,
		&snap.SizeBytes,
		&snap.CompressedSizeBytes,
		&snap.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, service.ErrSnapshotMissing
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get snapshot: %w", err)
	}

	return snap, nil
}

// MarkSnapshotCompressed swaps a snapshot's content for its compressed form
func (r *VersionRepository) MarkSnapshotCompressed(ctx context.Context, versionID uuid.UUID, algorithm string, compressed []byte) error {
	query := `
		UPDATE plugin_snapshots
		SET content = $1, is_compressed = true,
		    compression_algorithm = $2, compressed_size_bytes = $3
		WHERE version_id = $4 AND NOT is_compressed
	`

	// The guard makes this idempotent when two workers race on the
	// same snapshot.
	_, err := r.db.Exec(ctx, query, compressed, algorithm, int64(len(compressed)), versionID)
	if err != nil {
		return fmt.Errorf("failed to mark snapshot compressed: %w", err)
	}

	return nil
}
