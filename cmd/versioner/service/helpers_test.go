package service_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/pluginforge/pluginvcs/cmd/versioner/models"
	"github.com/pluginforge/pluginvcs/cmd/versioner/repository"
	"github.com/pluginforge/pluginvcs/cmd/versioner/service"
	"github.com/pluginforge/pluginvcs/common/logger"
	"github.com/pluginforge/pluginvcs/vcs/state"
)

// testEnv wires the engine against the in-memory store
type testEnv struct {
	store   *repository.MemoryStore
	recon   *service.Reconstructor
	commits *service.CommitManager
	tags    *service.TagService
	plugin  *models.Plugin
}

func newTestEnv(t *testing.T, snapshotThreshold int) *testEnv {
	t.Helper()

	log := logger.New("error", "text")
	store := repository.NewMemoryStore()

	recon := service.NewReconstructor(store, nil, log, snapshotThreshold)
	commits := service.NewCommitManager(
		store, store, recon, service.NewConstraintEvaluator(),
		nil, nil, log, snapshotThreshold, models.CompressionNone,
	)
	tags := service.NewTagService(store, store, log)

	plugins := service.NewPluginService(store, log)
	plugin, err := plugins.CreatePlugin(context.Background(), "Demo Plugin", "demo-plugin")
	require.NoError(t, err)

	return &testEnv{
		store:   store,
		recon:   recon,
		commits: commits,
		tags:    tags,
		plugin:  plugin,
	}
}

func (e *testEnv) commit(t *testing.T, st *state.PluginState, message string) *models.Version {
	t.Helper()
	version, err := e.commits.Commit(context.Background(), &service.CommitRequest{
		PluginID: e.plugin.ID,
		State:    st,
		Message:  message,
		Author:   "tester",
	})
	require.NoError(t, err)
	return version
}

func (e *testEnv) reconstruct(t *testing.T, versionID uuid.UUID) *state.PluginState {
	t.Helper()
	st, err := e.recon.Reconstruct(context.Background(), e.plugin.ID, versionID)
	require.NoError(t, err)
	return st
}

// stateV0 is the baseline plugin used across the engine tests
func stateV0() *state.PluginState {
	return &state.PluginState{
		Hooks: []state.Hook{
			{ID: "h1", Name: "before_render", Target: "page.render", Callback: "onBeforeRender", Priority: 5, Enabled: true},
		},
		Scripts: []state.Script{
			{ID: "s1", Name: "importer", Language: "lua", Source: "local a = 1\nreturn a", Entrypoint: "run"},
		},
		Manifest: state.Manifest{Name: "demo", Slug: "demo", Version: "1.0.0", Author: "dev"},
		Metadata: state.RegistryMeta{Category: "utility"},
	}
}

// withCallback returns a copy of st with h1's callback changed
func withCallback(t *testing.T, st *state.PluginState, callback string) *state.PluginState {
	t.Helper()
	clone, err := st.Clone()
	require.NoError(t, err)
	clone.Hooks[0].Callback = callback
	return clone
}
