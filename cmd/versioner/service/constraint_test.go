package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pluginforge/pluginvcs/cmd/versioner/service"
	"github.com/pluginforge/pluginvcs/vcs/state"
)

func TestConstraintCheck(t *testing.T) {
	eval := service.NewConstraintEvaluator()

	st := stateV0()
	st.Manifest.Constraints = []state.Constraint{
		{Name: "hook-budget", Expression: "size(state.hooks) <= 2"},
		{Name: "has-version", Expression: "state.manifest.version != ''"},
	}
	assert.NoError(t, eval.Check(st))

	st.Hooks = append(st.Hooks,
		state.Hook{ID: "h2", Name: "a", Target: "t", Callback: "cb"},
		state.Hook{ID: "h3", Name: "b", Target: "t", Callback: "cb"},
	)
	err := eval.Check(st)
	require.Error(t, err)
	assert.ErrorIs(t, err, service.ErrConstraintViolation)
	assert.Contains(t, err.Error(), "hook-budget")
}

func TestConstraintCompileError(t *testing.T) {
	eval := service.NewConstraintEvaluator()

	st := stateV0()
	st.Manifest.Constraints = []state.Constraint{
		{Name: "broken", Expression: "size(state.hooks) <="},
	}
	assert.ErrorIs(t, eval.Check(st), service.ErrConstraintViolation)
}

func TestConstraintNonBooleanResult(t *testing.T) {
	eval := service.NewConstraintEvaluator()

	st := stateV0()
	st.Manifest.Constraints = []state.Constraint{
		{Name: "not-a-predicate", Expression: "size(state.hooks)"},
	}
	assert.ErrorIs(t, eval.Check(st), service.ErrConstraintViolation)
}

func TestCommitEnforcesConstraints(t *testing.T) {
	env := newTestEnv(t, 10)

	st := stateV0()
	st.Manifest.Constraints = []state.Constraint{
		{Name: "no-hooks-allowed", Expression: "size(state.hooks) == 0"},
	}

	_, err := env.commits.Commit(context.Background(), &service.CommitRequest{
		PluginID: env.plugin.ID,
		State:    st,
		Message:  "should fail",
		Author:   "tester",
	})
	assert.ErrorIs(t, err, service.ErrConstraintViolation)

	// Nothing was written
	count, err := env.store.CountVersions(context.Background(), env.plugin.ID)
	require.NoError(t, err)
	assert.Zero(t, count)
}
