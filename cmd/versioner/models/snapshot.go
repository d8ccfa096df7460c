package models

import (
	"time"

	"github.com/google/uuid"
)

// Compression algorithms recorded on snapshot rows
const (
	CompressionNone = "none"
	CompressionGzip = "gzip"
)

// Snapshot is the full reconstructed state captured at one version.
// Self-sufficient: reconstruction never looks past it.
// Maps to: plugin_snapshots table (1:1 with its version row)
type Snapshot struct {
	VersionID uuid.UUID `db:"version_id" json:"version_id"`
	PluginID  uuid.UUID `db:"plugin_id" json:"plugin_id"`

	// Canonical state document; gzip bytes once compressed
	Content []byte `db:"content" json:"-"`

	IsCompressed         bool   `db:"is_compressed" json:"is_compressed"`
	CompressionAlgorithm string `db:"compression_algorithm" json:"compression_algorithm"`
	SizeBytes            int64  `db:"size_bytes" json:"size_bytes"`
	CompressedSizeBytes  int64  `db:"compressed_size_bytes" json:"compressed_size_bytes"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
