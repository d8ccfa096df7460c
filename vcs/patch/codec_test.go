package patch

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pluginforge/pluginvcs/vcs/state"
)

func baseState(t *testing.T) *state.PluginState {
	t.Helper()
	return &state.PluginState{
		Hooks: []state.Hook{
			{ID: "h1", Name: "before_render", Target: "page.render", Callback: "onBeforeRender", Priority: 5, Enabled: true},
			{ID: "h2", Name: "after_save", Target: "post.save", Callback: "onAfterSave", Priority: 10, Enabled: true},
		},
		Scripts: []state.Script{
			{ID: "s1", Name: "importer", Language: "lua", Source: "a\nb\nc", Entrypoint: "run"},
		},
		Manifest: state.Manifest{Name: "demo", Slug: "demo", Version: "1.0.0"},
	}
}

func mustRaw(t *testing.T, v interface{}) json.RawMessage {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return data
}

func TestApplyAddComponent(t *testing.T) {
	st := baseState(t)
	newHook := state.Hook{ID: "h3", Name: "on_delete", Target: "post.delete", Callback: "onDelete", Priority: 1, Enabled: true}

	out, err := Apply(st, []Operation{
		{Op: OpAdd, Path: "/hooks/h3", Value: mustRaw(t, newHook)},
	})
	require.NoError(t, err)

	require.Len(t, out.Hooks, 3)
	assert.Equal(t, "h3", out.Hooks[2].ID)
	assert.Equal(t, "onDelete", out.Hooks[2].Callback)

	// Input state untouched
	assert.Len(t, st.Hooks, 2)
}

func TestApplyFieldReplace(t *testing.T) {
	st := baseState(t)

	out, err := Apply(st, []Operation{
		{Op: OpReplace, Path: "/hooks/h1/callback", Value: mustRaw(t, "onBeforeRenderV2")},
		{Op: OpReplace, Path: "/manifest/version", Value: mustRaw(t, "1.1.0")},
	})
	require.NoError(t, err)

	assert.Equal(t, "onBeforeRenderV2", out.Hooks[0].Callback)
	assert.Equal(t, "1.1.0", out.Manifest.Version)
}

func TestApplyRemoveComponent(t *testing.T) {
	st := baseState(t)

	out, err := Apply(st, []Operation{
		{Op: OpRemove, Path: "/hooks/h1"},
	})
	require.NoError(t, err)

	require.Len(t, out.Hooks, 1)
	assert.Equal(t, "h2", out.Hooks[0].ID)
}

func TestApplyIsOrderStrict(t *testing.T) {
	st := baseState(t)
	newHook := state.Hook{ID: "h3", Name: "temp", Target: "x", Callback: "cb"}

	addThenEdit := []Operation{
		{Op: OpAdd, Path: "/hooks/h3", Value: mustRaw(t, newHook)},
		{Op: OpReplace, Path: "/hooks/h3/name", Value: mustRaw(t, "renamed")},
	}
	out, err := Apply(st, addThenEdit)
	require.NoError(t, err)
	assert.Equal(t, "renamed", out.Hooks[2].Name)

	// The edit cannot precede the add
	editThenAdd := []Operation{addThenEdit[1], addThenEdit[0]}
	_, err = Apply(st, editThenAdd)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPatchConflict)
}

func TestApplyConflicts(t *testing.T) {
	st := baseState(t)

	_, err := Apply(st, []Operation{
		{Op: OpAdd, Path: "/hooks/h1", Value: mustRaw(t, state.Hook{ID: "h1", Name: "clash"})},
	})
	assert.ErrorIs(t, err, ErrPatchConflict, "add over an existing id must conflict")

	_, err = Apply(st, []Operation{
		{Op: OpReplace, Path: "/hooks/h9/callback", Value: mustRaw(t, "x")},
	})
	assert.ErrorIs(t, err, ErrPatchConflict, "replace of a missing element must conflict")

	_, err = Apply(st, []Operation{
		{Op: OpRemove, Path: "/hooks/h9"},
	})
	assert.ErrorIs(t, err, ErrPatchConflict, "remove of a missing element must conflict")
}

func TestValidateOps(t *testing.T) {
	assert.ErrorIs(t, ValidateOps([]Operation{
		{Op: OpAdd, Path: "/hooks/h5"},
	}), ErrInvalidOperation, "add without value")

	assert.ErrorIs(t, ValidateOps([]Operation{
		{Op: "move", Path: "/hooks/h1"},
	}), ErrInvalidOperation, "unsupported op type")

	assert.ErrorIs(t, ValidateOps([]Operation{
		{Op: OpRemove, Path: "/gadgets/g1"},
	}), ErrInvalidOperation, "unknown collection")

	assert.ErrorIs(t, ValidateOps([]Operation{
		{Op: OpRemove, Path: "hooks/h1"},
	}), ErrInvalidOperation, "path without leading slash")

	assert.ErrorIs(t, ValidateOps([]Operation{
		{Op: OpReplace, Path: "/manifest", Value: mustRaw(t, map[string]string{})},
	}), ErrInvalidOperation, "manifest op must address a field")

	assert.NoError(t, ValidateOps([]Operation{
		{Op: OpReplace, Path: "/manifest/version", Value: mustRaw(t, "2.0.0")},
		{Op: OpRemove, Path: "/hooks/h1"},
	}))
}

func TestInvertRoundTrip(t *testing.T) {
	before := baseState(t)
	ops := []Operation{
		{Op: OpAdd, Path: "/hooks/h3", Value: mustRaw(t, state.Hook{ID: "h3", Name: "new", Target: "t", Callback: "cb"})},
		{Op: OpReplace, Path: "/hooks/h1/priority", Value: mustRaw(t, 99)},
		{Op: OpRemove, Path: "/hooks/h2"},
		{Op: OpReplace, Path: "/scripts/s1/source", Value: mustRaw(t, "a\nB\nc\nd")},
		{Op: OpReplace, Path: "/manifest/version", Value: mustRaw(t, "2.0.0")},
	}

	reverse, err := Invert(ops, before)
	require.NoError(t, err)
	require.Len(t, reverse, len(ops))

	after, err := Apply(before, ops)
	require.NoError(t, err)

	restored, err := Revert(after, reverse)
	require.NoError(t, err)

	equal, err := restored.Equal(before)
	require.NoError(t, err)
	assert.True(t, equal, "apply then revert must restore the exact prior state")
}

func TestInvertSequentialOps(t *testing.T) {
	// Later inverses must be computed against the intermediate
	// document, not the original
	before := baseState(t)
	ops := []Operation{
		{Op: OpReplace, Path: "/hooks/h1/callback", Value: mustRaw(t, "step1")},
		{Op: OpReplace, Path: "/hooks/h1/callback", Value: mustRaw(t, "step2")},
	}

	reverse, err := Invert(ops, before)
	require.NoError(t, err)

	var first, second string
	require.NoError(t, json.Unmarshal(reverse[0].Value, &first))
	require.NoError(t, json.Unmarshal(reverse[1].Value, &second))
	assert.Equal(t, "onBeforeRender", first)
	assert.Equal(t, "step1", second)

	after, err := Apply(before, ops)
	require.NoError(t, err)
	restored, err := Revert(after, reverse)
	require.NoError(t, err)

	equal, err := restored.Equal(before)
	require.NoError(t, err)
	assert.True(t, equal)
}

func TestPointerEscaping(t *testing.T) {
	assert.Equal(t, "/hooks/a~1b", JoinPath("hooks", "a/b"))
	assert.Equal(t, "/hooks/a~0b", JoinPath("hooks", "a~b"))

	st := &state.PluginState{
		Hooks:    []state.Hook{{ID: "a/b", Name: "slashy", Target: "t", Callback: "cb"}},
		Manifest: state.Manifest{Name: "demo", Slug: "demo", Version: "1"},
	}

	out, err := Apply(st, []Operation{
		{Op: OpReplace, Path: JoinPath("hooks", "a/b", "callback"), Value: mustRaw(t, "escaped")},
	})
	require.NoError(t, err)
	assert.Equal(t, "escaped", out.Hooks[0].Callback)
}
