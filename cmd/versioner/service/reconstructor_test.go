package service_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pluginforge/pluginvcs/cmd/versioner/service"
	"github.com/pluginforge/pluginvcs/common/logger"
)

func TestReconstructEveryVersion(t *testing.T) {
	env := newTestEnv(t, 4)

	// A chain long enough to cross a snapshot boundary
	states := []string{"onBeforeRender"}
	versions := []uuid.UUID{}

	v := env.commit(t, stateV0(), "initial")
	versions = append(versions, v.ID)

	for i := 0; i < 6; i++ {
		callback := fmt.Sprintf("iteration-%d", i)
		v = env.commit(t, withCallback(t, stateV0(), callback), fmt.Sprintf("change %d", i))
		states = append(states, callback)
		versions = append(versions, v.ID)
	}

	for i, id := range versions {
		st := env.reconstruct(t, id)
		assert.Equal(t, states[i], st.Hooks[0].Callback, "version %d", i+1)
	}
}

func TestReconstructIsPure(t *testing.T) {
	env := newTestEnv(t, 10)

	env.commit(t, stateV0(), "initial")
	v2 := env.commit(t, withCallback(t, stateV0(), "changed"), "second")

	first := env.reconstruct(t, v2.ID)
	second := env.reconstruct(t, v2.ID)

	a, err := first.CanonicalJSON()
	require.NoError(t, err)
	b, err := second.CanonicalJSON()
	require.NoError(t, err)
	assert.Equal(t, a, b, "reconstruction must be byte-identical across calls")
}

func TestReconstructUnknownVersion(t *testing.T) {
	env := newTestEnv(t, 10)
	env.commit(t, stateV0(), "initial")

	_, err := env.recon.Reconstruct(context.Background(), env.plugin.ID, uuid.New())
	assert.ErrorIs(t, err, service.ErrVersionNotFound)
}

func TestReconstructRefusesOverlongChain(t *testing.T) {
	// Committed with a lenient cadence, read back with a strict bound:
	// chains longer than the reader's threshold are treated as corrupt
	env := newTestEnv(t, 10)

	env.commit(t, stateV0(), "initial")
	var last uuid.UUID
	for i := 0; i < 5; i++ {
		v := env.commit(t, withCallback(t, stateV0(), fmt.Sprintf("cb-%d", i)), "change")
		last = v.ID
	}

	strict := service.NewReconstructor(env.store, nil, logger.New("error", "text"), 2)
	_, err := strict.Reconstruct(context.Background(), env.plugin.ID, last)
	assert.ErrorIs(t, err, service.ErrBrokenChain)
}
