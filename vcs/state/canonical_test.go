package state

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func samplePluginState() *PluginState {
	return &PluginState{
		Hooks: []Hook{
			{ID: "h2", Name: "after_save", Target: "post.save", Callback: "onAfterSave", Priority: 10, Enabled: true},
			{ID: "h1", Name: "before_render", Target: "page.render", Callback: "onBeforeRender", Priority: 5, Enabled: true},
		},
		Scripts: []Script{
			{ID: "s1", Name: "importer", Language: "lua", Source: "line1\nline2\nline3", Entrypoint: "run"},
		},
		Manifest: Manifest{
			Name:    "sample",
			Slug:    "sample",
			Version: "1.0.0",
			Author:  "dev",
		},
		Metadata: RegistryMeta{
			Category: "utility",
			Keywords: []string{"sample"},
		},
	}
}

func TestCanonicalJSONDeterministic(t *testing.T) {
	a := samplePluginState()

	// Same components, reversed declaration order
	b := samplePluginState()
	b.Hooks[0], b.Hooks[1] = b.Hooks[1], b.Hooks[0]

	docA, err := a.CanonicalJSON()
	require.NoError(t, err)
	docB, err := b.CanonicalJSON()
	require.NoError(t, err)

	assert.Equal(t, docA, docB, "element order must not affect the canonical encoding")

	// Encoding twice yields identical bytes
	docA2, err := a.CanonicalJSON()
	require.NoError(t, err)
	assert.Equal(t, docA, docA2)
}

func TestCanonicalRoundTrip(t *testing.T) {
	s := samplePluginState()

	doc, err := s.CanonicalJSON()
	require.NoError(t, err)

	decoded, err := FromCanonicalJSON(doc)
	require.NoError(t, err)

	equal, err := s.Equal(decoded)
	require.NoError(t, err)
	assert.True(t, equal)

	// Collections come back sorted by id
	require.Len(t, decoded.Hooks, 2)
	assert.Equal(t, "h1", decoded.Hooks[0].ID)
	assert.Equal(t, "h2", decoded.Hooks[1].ID)
}

func TestCanonicalJSONRejectsBadIDs(t *testing.T) {
	s := samplePluginState()
	s.Hooks = append(s.Hooks, Hook{ID: "h1", Name: "dup"})
	_, err := s.CanonicalJSON()
	assert.Error(t, err, "duplicate component id must be rejected")

	s = samplePluginState()
	s.Events = []Event{{Name: "nameless"}}
	_, err = s.CanonicalJSON()
	assert.Error(t, err, "empty component id must be rejected")
}

func TestFromCanonicalJSONRejectsUnknownFields(t *testing.T) {
	doc := []byte(`{"hooks":{},"events":{},"scripts":{},"widgets":{},"controllers":{},"entities":{},"migrations":{},"admin_pages":{},"manifest":{"name":"x","slug":"x","version":"1","description":"","author":"","license":"","min_app_version":"","constraints":null},"metadata":{"homepage":"","repository":"","category":"","keywords":null,"settings":null},"sidecars":{}}`)
	_, err := FromCanonicalJSON(doc)
	assert.Error(t, err)
}

func TestFromCanonicalJSONRejectsIDMismatch(t *testing.T) {
	s := samplePluginState()
	doc, err := s.CanonicalJSON()
	require.NoError(t, err)

	// Key says h1, element says h9
	tampered := strings.Replace(string(doc), `"id":"h1"`, `"id":"h9"`, 1)
	_, err = FromCanonicalJSON([]byte(tampered))
	assert.Error(t, err)
}

func TestElements(t *testing.T) {
	s := samplePluginState()

	hooks, err := s.Elements(TypeHook)
	require.NoError(t, err)
	require.Len(t, hooks, 2)
	assert.Equal(t, "h1", hooks[0].ID)
	assert.Equal(t, "h2", hooks[1].ID)
	assert.Contains(t, hooks[0].Fields, "callback")

	manifest, err := s.Elements(TypeManifest)
	require.NoError(t, err)
	require.Len(t, manifest, 1)
	assert.Empty(t, manifest[0].ID)
	assert.Contains(t, manifest[0].Fields, "version")
}

func TestCollectionKeys(t *testing.T) {
	for _, ct := range CollectionTypes {
		key := ct.CollectionKey()
		assert.NotEmpty(t, key)
		assert.Equal(t, ct, TypeForCollectionKey(key))
	}
	assert.Equal(t, ComponentType(""), TypeForCollectionKey("nope"))
}
