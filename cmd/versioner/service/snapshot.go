package service

import (
	"bytes"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/pluginforge/pluginvcs/cmd/versioner/models"
	"github.com/pluginforge/pluginvcs/common/logger"
	"github.com/pluginforge/pluginvcs/common/metrics"
	"github.com/pluginforge/pluginvcs/common/queue"
	"github.com/pluginforge/pluginvcs/vcs/state"
)

// TopicSnapshotCompress carries version ids of snapshots awaiting
// background compression
const TopicSnapshotCompress = "snapshot.compress"

// NewSnapshot builds an uncompressed snapshot row from a state.
// Compression happens later, off the commit path.
func NewSnapshot(versionID, pluginID uuid.UUID, st *state.PluginState) (*models.Snapshot, error) {
	content, err := st.CanonicalJSON()
	if err != nil {
		return nil, fmt.Errorf("encode snapshot state: %w", err)
	}

	return &models.Snapshot{
		VersionID:            versionID,
		PluginID:             pluginID,
		Content:              content,
		IsCompressed:         false,
		CompressionAlgorithm: models.CompressionNone,
		SizeBytes:            int64(len(content)),
		CreatedAt:            time.Now().UTC(),
	}, nil
}

// SnapshotState decodes a snapshot row back into a typed state,
// decompressing first when needed.
func SnapshotState(snap *models.Snapshot) (*state.PluginState, error) {
	content := snap.Content

	if snap.IsCompressed {
		switch snap.CompressionAlgorithm {
		case models.CompressionGzip:
			var err error
			content, err = gunzip(content)
			if err != nil {
				return nil, fmt.Errorf("decompress snapshot %s: %w", snap.VersionID, err)
			}
		default:
			return nil, fmt.Errorf("unknown compression algorithm %q on snapshot %s", snap.CompressionAlgorithm, snap.VersionID)
		}
	}

	st, err := state.FromCanonicalJSON(content)
	if err != nil {
		return nil, fmt.Errorf("decode snapshot %s: %w", snap.VersionID, err)
	}
	return st, nil
}

// SnapshotCompressor compresses snapshot blobs in the background.
// Best-effort: a lost or failed message leaves the snapshot
// uncompressed, which is always safe to serve.
type SnapshotCompressor struct {
	versions  VersionStore
	queue     queue.Queue
	metrics   *metrics.Metrics
	log       *logger.Logger
	algorithm string
}

// NewSnapshotCompressor creates a snapshot compressor
func NewSnapshotCompressor(versions VersionStore, q queue.Queue, m *metrics.Metrics, log *logger.Logger, algorithm string) *SnapshotCompressor {
	return &SnapshotCompressor{
		versions:  versions,
		queue:     q,
		metrics:   m,
		log:       log,
		algorithm: algorithm,
	}
}

// Start subscribes to the compression topic until ctx is done
func (c *SnapshotCompressor) Start(ctx context.Context) error {
	if c.algorithm == models.CompressionNone {
		c.log.Info("snapshot compression disabled")
		return nil
	}
	return c.queue.Subscribe(ctx, TopicSnapshotCompress, c.handle)
}

func (c *SnapshotCompressor) handle(ctx context.Context, key string, _ []byte) error {
	versionID, err := uuid.Parse(key)
	if err != nil {
		return fmt.Errorf("bad version id %q: %w", key, err)
	}

	snap, err := c.versions.GetSnapshot(ctx, versionID)
	if err != nil {
		return fmt.Errorf("load snapshot %s: %w", versionID, err)
	}
	if snap.IsCompressed {
		return nil
	}

	compressed, err := gzipBytes(snap.Content)
	if err != nil {
		return fmt.Errorf("compress snapshot %s: %w", versionID, err)
	}

	// Not worth storing if gzip didn't help
	if len(compressed) >= len(snap.Content) {
		c.log.Debug("snapshot incompressible, leaving as-is", "version_id", versionID)
		return nil
	}

	if err := c.versions.MarkSnapshotCompressed(ctx, versionID, models.CompressionGzip, compressed); err != nil {
		return fmt.Errorf("store compressed snapshot %s: %w", versionID, err)
	}

	if c.metrics != nil {
		c.metrics.SnapshotsCompressedTotal.Inc()
	}
	c.log.Info("snapshot compressed",
		"version_id", versionID,
		"size_bytes", len(snap.Content),
		"compressed_size_bytes", len(compressed),
	)
	return nil
}

func gzipBytes(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	if _, err := w.Write(data); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func gunzip(data []byte) ([]byte, error) {
	r, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}
