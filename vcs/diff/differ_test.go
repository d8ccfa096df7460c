package diff

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pluginforge/pluginvcs/vcs/patch"
	"github.com/pluginforge/pluginvcs/vcs/state"
)

func v0State() *state.PluginState {
	return &state.PluginState{
		Hooks: []state.Hook{
			{ID: "h1", Name: "before_render", Target: "page.render", Callback: "onBeforeRender", Priority: 5, Enabled: true},
			{ID: "h2", Name: "after_save", Target: "post.save", Callback: "onAfterSave", Priority: 10, Enabled: true},
		},
		Scripts: []state.Script{
			{ID: "s1", Name: "importer", Language: "lua", Source: "local a = 1\nlocal b = 2\nreturn a + b", Entrypoint: "run"},
		},
		Manifest: state.Manifest{Name: "demo", Slug: "demo", Version: "1.0.0", Author: "dev"},
	}
}

func TestStatesNoChange(t *testing.T) {
	before := v0State()
	after := v0State()

	diffs, err := States(before, after)
	require.NoError(t, err)
	assert.Empty(t, diffs)
}

func TestStatesClassification(t *testing.T) {
	before := v0State()
	after := v0State()

	// h1 deleted, h2 modified, h3 added
	after.Hooks = []state.Hook{
		{ID: "h2", Name: "after_save", Target: "post.save", Callback: "onAfterSaveV2", Priority: 10, Enabled: true},
		{ID: "h3", Name: "on_delete", Target: "post.delete", Callback: "onDelete", Priority: 1, Enabled: false},
	}

	diffs, err := States(before, after)
	require.NoError(t, err)
	require.Len(t, diffs, 1)

	d := diffs[0]
	assert.Equal(t, state.TypeHook, d.Type)
	assert.Equal(t, ChangeModified, d.ChangeType)
	assert.Equal(t, []string{"h3"}, d.Added)
	assert.Equal(t, []string{"h2"}, d.Modified)
	assert.Equal(t, []string{"h1"}, d.Deleted)

	// One remove, one field replace, one add
	assert.Equal(t, 3, d.OpsCount)
	assert.Len(t, d.ReverseOps, 3)
}

func TestStatesDeterministic(t *testing.T) {
	before := v0State()
	after := v0State()
	after.Hooks[0].Priority = 7
	after.Hooks = append(after.Hooks, state.Hook{ID: "h3", Name: "x", Target: "t", Callback: "cb"})

	first, err := States(before, after)
	require.NoError(t, err)
	second, err := States(before, after)
	require.NoError(t, err)

	assert.Equal(t, first, second, "identical inputs must produce identical diffs")
}

func TestDiffOpsRoundTrip(t *testing.T) {
	before := v0State()
	after := v0State()
	after.Hooks = after.Hooks[:1]
	after.Hooks[0].Callback = "renamed"
	after.Scripts[0].Source = "local a = 1\nreturn a"
	after.Entities = []state.Entity{
		{ID: "e1", Name: "orders", TableName: "plugin_orders", Schema: map[string]string{"id": "uuid"}},
	}
	after.Manifest.Version = "1.1.0"

	diffs, err := States(before, after)
	require.NoError(t, err)
	require.NotEmpty(t, diffs)

	// Forward: applying every type's ops transforms before into after
	st := before
	for _, d := range diffs {
		st, err = patch.Apply(st, d.Ops)
		require.NoError(t, err, "forward ops for %s", d.Type)
	}
	equal, err := st.Equal(after)
	require.NoError(t, err)
	assert.True(t, equal)

	// Backward: reverting each type's reverse ops restores before
	for i := len(diffs) - 1; i >= 0; i-- {
		st, err = patch.Revert(st, diffs[i].ReverseOps)
		require.NoError(t, err, "reverse ops for %s", diffs[i].Type)
	}
	equal, err = st.Equal(before)
	require.NoError(t, err)
	assert.True(t, equal)
}

func TestSingletonDiff(t *testing.T) {
	before := v0State()
	after := v0State()
	after.Manifest.Version = "2.0.0"

	diffs, err := States(before, after)
	require.NoError(t, err)
	require.Len(t, diffs, 1)

	d := diffs[0]
	assert.Equal(t, state.TypeManifest, d.Type)
	require.Len(t, d.Ops, 1)
	assert.Equal(t, patch.OpReplace, d.Ops[0].Op)
	assert.Equal(t, "/manifest/version", d.Ops[0].Path)
	assert.Equal(t, []string{""}, d.Modified)
}

func TestLineStats(t *testing.T) {
	before := v0State()
	after := v0State()
	// Drop one line, change another
	after.Scripts[0].Source = "local a = 1\nreturn a + 2"

	diffs, err := States(before, after)
	require.NoError(t, err)
	require.Len(t, diffs, 1)

	d := diffs[0]
	assert.Equal(t, state.TypeScript, d.Type)
	assert.Equal(t, 1, d.LinesAdded)
	assert.Equal(t, 2, d.LinesDeleted)
}

func TestLineStatsOnAddedScript(t *testing.T) {
	before := v0State()
	after := v0State()
	after.Scripts = append(after.Scripts, state.Script{
		ID: "s2", Name: "cleanup", Language: "lua", Source: "x\ny\nz", Entrypoint: "main",
	})

	diffs, err := States(before, after)
	require.NoError(t, err)
	require.Len(t, diffs, 1)
	assert.Equal(t, 3, diffs[0].LinesAdded)
	assert.Zero(t, diffs[0].LinesDeleted)
}
