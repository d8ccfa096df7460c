package service_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pluginforge/pluginvcs/cmd/versioner/models"
	"github.com/pluginforge/pluginvcs/cmd/versioner/service"
)

func TestCreateAndGetTag(t *testing.T) {
	env := newTestEnv(t, 10)
	v1 := env.commit(t, stateV0(), "initial")

	ctx := context.Background()
	created, err := env.tags.CreateTag(ctx, env.plugin.ID, v1.ID, "v1.0.0", models.TagRelease, "first release", "tester")
	require.NoError(t, err)
	assert.Equal(t, models.TagRelease, created.TagType)

	got, err := env.tags.GetTag(ctx, env.plugin.ID, "v1.0.0")
	require.NoError(t, err)
	assert.Equal(t, v1.ID, got.VersionID)
	assert.Equal(t, "first release", got.Description)
}

func TestTagDefaultsToCustomType(t *testing.T) {
	env := newTestEnv(t, 10)
	v1 := env.commit(t, stateV0(), "initial")

	tag, err := env.tags.CreateTag(context.Background(), env.plugin.ID, v1.ID, "wip", "", "", "tester")
	require.NoError(t, err)
	assert.Equal(t, models.TagCustom, tag.TagType)
}

func TestDuplicateTagRejected(t *testing.T) {
	env := newTestEnv(t, 10)
	v1 := env.commit(t, stateV0(), "initial")
	v2 := env.commit(t, withCallback(t, stateV0(), "changed"), "second")

	ctx := context.Background()
	_, err := env.tags.CreateTag(ctx, env.plugin.ID, v1.ID, "stable", models.TagRelease, "", "tester")
	require.NoError(t, err)

	// Same name may not silently move to another version
	_, err = env.tags.CreateTag(ctx, env.plugin.ID, v2.ID, "stable", models.TagRelease, "", "tester")
	assert.ErrorIs(t, err, service.ErrDuplicateTag)

	got, err := env.tags.GetTag(ctx, env.plugin.ID, "stable")
	require.NoError(t, err)
	assert.Equal(t, v1.ID, got.VersionID, "original tag target must be preserved")
}

func TestDeleteThenRetag(t *testing.T) {
	env := newTestEnv(t, 10)
	v1 := env.commit(t, stateV0(), "initial")
	v2 := env.commit(t, withCallback(t, stateV0(), "changed"), "second")

	ctx := context.Background()
	_, err := env.tags.CreateTag(ctx, env.plugin.ID, v1.ID, "stable", models.TagRelease, "", "tester")
	require.NoError(t, err)

	require.NoError(t, env.tags.DeleteTag(ctx, env.plugin.ID, "stable"))

	// Deleting the tag leaves the version alone
	_, err = env.store.GetVersion(ctx, env.plugin.ID, v1.ID)
	require.NoError(t, err)

	retagged, err := env.tags.CreateTag(ctx, env.plugin.ID, v2.ID, "stable", models.TagRelease, "", "tester")
	require.NoError(t, err)
	assert.Equal(t, v2.ID, retagged.VersionID)
}

func TestTagValidation(t *testing.T) {
	env := newTestEnv(t, 10)
	v1 := env.commit(t, stateV0(), "initial")

	ctx := context.Background()
	_, err := env.tags.CreateTag(ctx, env.plugin.ID, v1.ID, "", models.TagRelease, "", "tester")
	assert.ErrorIs(t, err, service.ErrInvalidInput)

	_, err = env.tags.CreateTag(ctx, env.plugin.ID, uuid.New(), "dangling", models.TagRelease, "", "tester")
	assert.ErrorIs(t, err, service.ErrVersionNotFound)

	assert.ErrorIs(t, env.tags.DeleteTag(ctx, env.plugin.ID, "ghost"), service.ErrTagNotFound)
}

func TestListTagsSorted(t *testing.T) {
	env := newTestEnv(t, 10)
	v1 := env.commit(t, stateV0(), "initial")

	ctx := context.Background()
	for _, name := range []string{"zeta", "alpha", "milestone-1"} {
		_, err := env.tags.CreateTag(ctx, env.plugin.ID, v1.ID, name, models.TagMilestone, "", "tester")
		require.NoError(t, err)
	}

	tags, err := env.tags.ListTags(ctx, env.plugin.ID)
	require.NoError(t, err)
	require.Len(t, tags, 3)
	assert.Equal(t, "alpha", tags[0].TagName)
	assert.Equal(t, "milestone-1", tags[1].TagName)
	assert.Equal(t, "zeta", tags[2].TagName)
}
