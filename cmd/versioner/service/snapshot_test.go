package service_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pluginforge/pluginvcs/cmd/versioner/models"
	"github.com/pluginforge/pluginvcs/cmd/versioner/service"
	"github.com/pluginforge/pluginvcs/common/logger"
	"github.com/pluginforge/pluginvcs/common/queue"
)

func TestSnapshotRoundTrip(t *testing.T) {
	st := stateV0()

	snap, err := service.NewSnapshot(uuid.New(), uuid.New(), st)
	require.NoError(t, err)
	assert.False(t, snap.IsCompressed)
	assert.Equal(t, models.CompressionNone, snap.CompressionAlgorithm)

	decoded, err := service.SnapshotState(snap)
	require.NoError(t, err)

	equal, err := decoded.Equal(st)
	require.NoError(t, err)
	assert.True(t, equal)
}

func TestBackgroundCompression(t *testing.T) {
	log := logger.New("error", "text")
	env := newTestEnv(t, 10)

	// A body repetitive enough that gzip always wins
	st := stateV0()
	st.Scripts[0].Source = strings.Repeat("local x = 1\n", 200)
	v1 := env.commit(t, st, "initial")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	q := queue.NewMemoryQueue(log)
	defer q.Close()

	compressor := service.NewSnapshotCompressor(env.store, q, nil, log, models.CompressionGzip)
	require.NoError(t, compressor.Start(ctx))

	require.NoError(t, q.Publish(ctx, service.TopicSnapshotCompress, v1.ID.String(), nil))

	require.Eventually(t, func() bool {
		snap, err := env.store.GetSnapshot(ctx, v1.ID)
		return err == nil && snap.IsCompressed
	}, 2*time.Second, 10*time.Millisecond, "snapshot should be compressed in the background")

	snap, err := env.store.GetSnapshot(ctx, v1.ID)
	require.NoError(t, err)
	assert.Equal(t, models.CompressionGzip, snap.CompressionAlgorithm)
	assert.Less(t, snap.CompressedSizeBytes, snap.SizeBytes)

	// Reconstruction transparently decompresses
	got := env.reconstruct(t, v1.ID)
	equal, err := got.Equal(st)
	require.NoError(t, err)
	assert.True(t, equal)
}

func TestCompressionDisabled(t *testing.T) {
	log := logger.New("error", "text")
	env := newTestEnv(t, 10)

	q := queue.NewMemoryQueue(log)
	defer q.Close()

	compressor := service.NewSnapshotCompressor(env.store, q, nil, log, models.CompressionNone)
	assert.NoError(t, compressor.Start(context.Background()))
}
