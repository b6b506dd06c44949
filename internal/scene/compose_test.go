package scene

import (
	"context"
	"testing"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentic-research/dson/internal/address"
	"github.com/agentic-research/dson/internal/asset"
	"github.com/agentic-research/dson/internal/content"
	"github.com/agentic-research/dson/internal/document"
	"github.com/agentic-research/dson/internal/library"
)

const figureLib = `{
	"node_library": [
		{"id": "Genesis8Female", "name": "Genesis8Female", "type": "figure"},
		{"id": "hip", "name": "hip", "type": "bone", "parent": "#Genesis8Female",
			"rotation": [{"id": "x", "value": 0}, {"id": "y", "value": 0}, {"id": "z", "value": 0}]},
		{"id": "chest", "name": "chest", "type": "bone", "parent": "#hip"},
		{"id": "stick", "name": "stick", "type": "bone", "inherits_scale": true, "parent": "#hip"},
		{"id": "prop", "name": "prop", "type": "node"}
	],
	"uv_set_library": [
		{"id": "base-uv", "name": "Base UV", "vertex_count": 3,
			"uvs": {"count": 3, "values": [[0,0], [1,0], [0,1]]}}
	],
	"modifier_library": [
		{"id": "smile", "name": "Smile",
			"morph": {"vertex_count": -1, "deltas": {"count": 1, "values": [[0, 0, 1, 0]]}}}
	]
}`

// newComposeEnv builds a document cache over an in-memory content root
// plus the resolver composition normally receives from the loader.
func newComposeEnv(t *testing.T, files map[string]string) (*document.Cache, ResolveFunc) {
	t.Helper()
	fs := memfs.New()
	for path, body := range files {
		require.NoError(t, util.WriteFile(fs, path, []byte(body), 0o644))
	}
	reg := content.NewRegistry()
	reg.AddFS("test", fs)
	cache := document.NewCache(reg)

	resolve := func(ctx context.Context, u address.AssetURL, inst map[string]any) (asset.Definition, error) {
		doc, err := cache.Load(ctx, u.FilePath)
		if err != nil {
			return nil, err
		}
		entry, err := library.Find(doc, u.AssetID)
		if err != nil {
			return nil, err
		}
		return asset.Build(entry, inst, u)
	}
	return cache, resolve
}

func loadScene(t *testing.T, cache *document.Cache, path string) *document.Document {
	t.Helper()
	doc, err := cache.Load(context.Background(), path)
	require.NoError(t, err)
	return doc
}

func TestComposeForwardReferences(t *testing.T) {
	// Children are declared before their parents; composition order must
	// not depend on file order.
	cache, resolve := newComposeEnv(t, map[string]string{
		"data/Figure.dsf": figureLib,
		"scenes/Test.duf": `{"scene": {"nodes": [
			{"id": "chest-1", "url": "/data/Figure.dsf#chest", "parent": "#hip-1"},
			{"id": "hip-1", "url": "/data/Figure.dsf#hip", "parent": "#fig-1"},
			{"id": "fig-1", "url": "/data/Figure.dsf#Genesis8Female"}
		]}}`,
	})

	g, err := Compose(context.Background(), loadScene(t, cache, "/scenes/Test.duf"), resolve)
	require.NoError(t, err)
	require.Empty(t, g.Errors())

	assert.Equal(t, []string{"fig-1"}, g.Roots())
	assert.Equal(t, []string{"hip-1"}, g.Children("fig-1"))
	assert.Equal(t, []string{"chest-1"}, g.Children("hip-1"))
	assert.Len(t, g.Instances(), 3)

	chest, ok := g.Instance("chest-1")
	require.True(t, ok)
	assert.Equal(t, "hip-1", chest.Parent)
	assert.Equal(t, asset.KindNode, chest.Definition.Kind())
}

func TestComposeChannelOverrides(t *testing.T) {
	cache, resolve := newComposeEnv(t, map[string]string{
		"data/Figure.dsf": figureLib,
		"scenes/Test.duf": `{"scene": {"nodes": [
			{"id": "hip-1", "url": "/data/Figure.dsf#hip", "channels": [
				{"id": "rotation_x", "current_value": 45},
				{"id": "custom_scale", "value": 2}
			]}
		]}}`,
	})

	g, err := Compose(context.Background(), loadScene(t, cache, "/scenes/Test.duf"), resolve)
	require.NoError(t, err)
	require.Empty(t, g.Errors())

	v, ok := g.ChannelValue("hip-1", "rotation_x")
	require.True(t, ok)
	assert.EqualValues(t, 45, v)

	v, ok = g.ChannelValue("hip-1", "custom_scale")
	require.True(t, ok, "channels absent from the definition are retained")
	assert.EqualValues(t, 2, v)

	v, ok = g.ChannelValue("hip-1", "rotation_y")
	require.True(t, ok)
	assert.EqualValues(t, 0, v, "untouched channels keep definition defaults")
}

func TestComposeCycle(t *testing.T) {
	cache, resolve := newComposeEnv(t, map[string]string{
		"data/Figure.dsf": figureLib,
		"scenes/Test.duf": `{"scene": {"nodes": [
			{"id": "x-1", "url": "/data/Figure.dsf#prop", "parent": "#y-1"},
			{"id": "y-1", "url": "/data/Figure.dsf#prop", "parent": "#x-1"}
		]}}`,
	})

	g, err := Compose(context.Background(), loadScene(t, cache, "/scenes/Test.duf"), resolve)
	require.NoError(t, err, "cycles are per-instance failures, not fatal")
	require.NotEmpty(t, g.Errors())

	var cycleErr *CycleError
	for _, instErr := range g.Errors() {
		assert.ErrorIs(t, instErr, ErrCyclicReference)
		require.ErrorAs(t, instErr, &cycleErr)
	}
	assert.Contains(t, cycleErr.Cycle, "x-1")
	assert.Contains(t, cycleErr.Cycle, "y-1")
	assert.Equal(t, cycleErr.Cycle[0], cycleErr.Cycle[len(cycleErr.Cycle)-1], "cycle closes on the repeated id")

	assert.Empty(t, g.Instances(), "no participant of the cycle enters the graph")
}

func TestComposeDanglingParent(t *testing.T) {
	cache, resolve := newComposeEnv(t, map[string]string{
		"data/Figure.dsf": figureLib,
		"scenes/Test.duf": `{"scene": {"nodes": [
			{"id": "fig-1", "url": "/data/Figure.dsf#Genesis8Female"},
			{"id": "orphan", "url": "/data/Figure.dsf#prop", "parent": "#ghost"}
		]}}`,
	})

	g, err := Compose(context.Background(), loadScene(t, cache, "/scenes/Test.duf"), resolve)
	require.NoError(t, err)

	require.Len(t, g.Errors(), 1)
	assert.ErrorIs(t, g.Errors()[0], ErrDanglingParent)
	assert.Equal(t, "orphan", g.Errors()[0].InstanceID)

	assert.Equal(t, []string{"fig-1"}, g.Instances(), "siblings keep resolving")
}

func TestComposeMissingDocumentPartialFailure(t *testing.T) {
	cache, resolve := newComposeEnv(t, map[string]string{
		"data/Figure.dsf": figureLib,
		"scenes/Test.duf": `{"scene": {"nodes": [
			{"id": "fig-1", "url": "/data/Figure.dsf#Genesis8Female"},
			{"id": "lost", "url": "/data/Gone.dsf#anything"}
		]}}`,
	})

	g, err := Compose(context.Background(), loadScene(t, cache, "/scenes/Test.duf"), resolve)
	require.NoError(t, err)

	require.Len(t, g.Errors(), 1)
	assert.ErrorIs(t, g.Errors()[0], content.ErrNotFound)
	assert.Equal(t, []string{"fig-1"}, g.Instances())
}

func TestComposeFailedParentSinksSubtree(t *testing.T) {
	cache, resolve := newComposeEnv(t, map[string]string{
		"data/Figure.dsf": figureLib,
		"scenes/Test.duf": `{"scene": {"nodes": [
			{"id": "broken", "url": "/data/Figure.dsf#no-such-fragment"},
			{"id": "child", "url": "/data/Figure.dsf#prop", "parent": "#broken"}
		]}}`,
	})

	g, err := Compose(context.Background(), loadScene(t, cache, "/scenes/Test.duf"), resolve)
	require.NoError(t, err)

	assert.Empty(t, g.Instances())
	require.Len(t, g.Errors(), 2)
	for _, instErr := range g.Errors() {
		assert.ErrorIs(t, instErr, library.ErrFragmentNotFound)
	}
}

func TestComposeMissingSceneFatal(t *testing.T) {
	cache, resolve := newComposeEnv(t, map[string]string{
		"scenes/Empty.duf": `{"asset_info": {}}`,
	})

	_, err := Compose(context.Background(), loadScene(t, cache, "/scenes/Empty.duf"), resolve)
	assert.ErrorIs(t, err, ErrSceneMissing)
}

func TestComposeFragmentOnlyURL(t *testing.T) {
	// Fragment-only instance URLs target the scene document's own
	// libraries.
	cache, resolve := newComposeEnv(t, map[string]string{
		"scenes/SelfContained.duf": `{
			"node_library": [{"id": "localProp", "name": "localProp"}],
			"scene": {"nodes": [{"id": "prop-1", "url": "#localProp"}]}
		}`,
	})

	g, err := Compose(context.Background(), loadScene(t, cache, "/scenes/SelfContained.duf"), resolve)
	require.NoError(t, err)
	require.Empty(t, g.Errors())

	inst, ok := g.Instance("prop-1")
	require.True(t, ok)
	assert.Equal(t, "/scenes/SelfContained.duf", inst.URL.FilePath)
}

func TestComposeDuplicateInstanceID(t *testing.T) {
	cache, resolve := newComposeEnv(t, map[string]string{
		"data/Figure.dsf": figureLib,
		"scenes/Test.duf": `{"scene": {"nodes": [
			{"id": "twin", "url": "/data/Figure.dsf#prop"},
			{"id": "twin", "url": "/data/Figure.dsf#prop"}
		]}}`,
	})

	g, err := Compose(context.Background(), loadScene(t, cache, "/scenes/Test.duf"), resolve)
	require.NoError(t, err)

	require.Len(t, g.Errors(), 1)
	assert.ErrorIs(t, g.Errors()[0], asset.ErrBadValue)
	assert.Len(t, g.Instances(), 1, "first declaration wins")
}

func TestComposeAuxSections(t *testing.T) {
	cache, resolve := newComposeEnv(t, map[string]string{
		"data/Figure.dsf": figureLib,
		"scenes/Test.duf": `{"scene": {
			"nodes": [{"id": "fig-1", "url": "/data/Figure.dsf#Genesis8Female"}],
			"uvs": [{"id": "uv-1", "url": "/data/Figure.dsf#base-uv"}],
			"modifiers": [{"id": "smile-1", "url": "/data/Figure.dsf#smile"}]
		}}`,
	})

	g, err := Compose(context.Background(), loadScene(t, cache, "/scenes/Test.duf"), resolve)
	require.NoError(t, err)
	require.Empty(t, g.Errors())

	uv, ok := g.UVSet("uv-1")
	require.True(t, ok)
	assert.Equal(t, asset.KindUVSet, uv.Kind())

	mod, ok := g.Modifier("smile-1")
	require.True(t, ok)
	assert.Equal(t, asset.KindModifier, mod.Kind())
}

func TestComposeBoneScaleInheritance(t *testing.T) {
	cache, resolve := newComposeEnv(t, map[string]string{
		"data/Figure.dsf": figureLib,
		"scenes/Test.duf": `{"scene": {"nodes": [
			{"id": "fig-1", "url": "/data/Figure.dsf#Genesis8Female"},
			{"id": "hip-1", "url": "/data/Figure.dsf#hip", "parent": "#fig-1"},
			{"id": "chest-1", "url": "/data/Figure.dsf#chest", "parent": "#hip-1"},
			{"id": "stick-1", "url": "/data/Figure.dsf#stick", "parent": "#hip-1"}
		]}}`,
	})

	g, err := Compose(context.Background(), loadScene(t, cache, "/scenes/Test.duf"), resolve)
	require.NoError(t, err)
	require.Empty(t, g.Errors())

	hip, _ := g.Instance("hip-1")
	assert.True(t, hip.InheritsScale, "bone under figure inherits scale")

	chest, _ := g.Instance("chest-1")
	assert.False(t, chest.InheritsScale, "bone under bone does not, absent an explicit flag")

	stick, _ := g.Instance("stick-1")
	assert.True(t, stick.InheritsScale, "an explicit flag overrides the bone-under-bone default")
}

func TestFigureBones(t *testing.T) {
	cache, resolve := newComposeEnv(t, map[string]string{
		"data/Figure.dsf": figureLib,
		"scenes/Test.duf": `{"scene": {"nodes": [
			{"id": "fig-1", "url": "/data/Figure.dsf#Genesis8Female"},
			{"id": "hip-1", "url": "/data/Figure.dsf#hip", "parent": "#fig-1"},
			{"id": "chest-1", "url": "/data/Figure.dsf#chest", "parent": "#hip-1"},
			{"id": "prop-1", "url": "/data/Figure.dsf#prop", "parent": "#fig-1"},
			{"id": "stowaway", "url": "/data/Figure.dsf#stick", "parent": "#prop-1"}
		]}}`,
	})

	g, err := Compose(context.Background(), loadScene(t, cache, "/scenes/Test.duf"), resolve)
	require.NoError(t, err)
	require.Empty(t, g.Errors())

	bones := g.FigureBones("fig-1")
	assert.Equal(t, []string{"hip-1", "chest-1"}, bones, "non-bone children end their branch")

	assert.Nil(t, g.FigureBones("prop-1"), "non-figure roots have no armature")
	assert.Nil(t, g.FigureBones("no-such"))
}

func TestWalk(t *testing.T) {
	cache, resolve := newComposeEnv(t, map[string]string{
		"data/Figure.dsf": figureLib,
		"scenes/Test.duf": `{"scene": {"nodes": [
			{"id": "fig-1", "url": "/data/Figure.dsf#Genesis8Female"},
			{"id": "hip-1", "url": "/data/Figure.dsf#hip", "parent": "#fig-1"},
			{"id": "chest-1", "url": "/data/Figure.dsf#chest", "parent": "#hip-1"}
		]}}`,
	})

	g, err := Compose(context.Background(), loadScene(t, cache, "/scenes/Test.duf"), resolve)
	require.NoError(t, err)

	var visited []string
	g.Walk("fig-1", func(inst *Instance) { visited = append(visited, inst.ID) })
	assert.Equal(t, []string{"fig-1", "hip-1", "chest-1"}, visited)
}
