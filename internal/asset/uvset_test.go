package asset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const uvEntry = `{
	"id": "cube-uv",
	"name": "Cube UV",
	"vertex_count": 4,
	"uvs": {"count": 6, "values": [[0,0], [1,0], [1,1], [0,1], [0.5,0], [0.5,1]]},
	"polygon_vertex_indices": [
		[1, 0, 4],
		[1, 3, 5]
	]
}`

func TestBuildUVSet(t *testing.T) {
	u, err := BuildUVSet(obj(t, uvEntry), nil, srcURL(t, "/data/Vendor/CubeUV.dsf#cube-uv"))
	require.NoError(t, err)

	assert.Equal(t, KindUVSet, u.Kind())
	assert.Equal(t, 4, u.ExpectedVertices)
	assert.Len(t, u.UVs, 6)
	assert.Equal(t, [2]float64{0.5, 0}, u.UVs[4])
	assert.Len(t, u.Hotswap[1], 2)
}

func TestBuildUVSetRequiresVertexCount(t *testing.T) {
	entry := obj(t, `{"id": "bad", "uvs": {"count": 0, "values": []}}`)

	_, err := BuildUVSet(entry, nil, srcURL(t, "/data/Bad.dsf#bad"))
	assert.ErrorIs(t, err, ErrMissingField)
}

func TestBuildUVSetHotswapOutOfBounds(t *testing.T) {
	entry := obj(t, `{
		"id": "bad",
		"vertex_count": 4,
		"uvs": {"count": 2, "values": [[0,0], [1,1]]},
		"polygon_vertex_indices": [[0, 1, 9]]
	}`)

	_, err := BuildUVSet(entry, nil, srcURL(t, "/data/Bad.dsf#bad"))
	assert.ErrorIs(t, err, ErrIndexOutOfBounds)
}

func TestHotswapPolygon(t *testing.T) {
	u, err := BuildUVSet(obj(t, uvEntry), nil, srcURL(t, "/data/Vendor/CubeUV.dsf#cube-uv"))
	require.NoError(t, err)

	// Polygon 1 remaps vertex 0 to uv 4 and vertex 3 to uv 5.
	swapped := u.HotswapPolygon(1, []int{0, 1, 2, 3})
	assert.Equal(t, []int{4, 1, 2, 5}, swapped)

	// Polygons without entries pass through untouched.
	swapped = u.HotswapPolygon(0, []int{0, 1, 2, 3})
	assert.Equal(t, []int{0, 1, 2, 3}, swapped)
}

func TestHotswapPolygonCullsDuplicates(t *testing.T) {
	entry := obj(t, `{
		"id": "dup",
		"vertex_count": 3,
		"uvs": {"count": 4, "values": [[0,0], [1,0], [1,1], [0.5,0.5]]},
		"polygon_vertex_indices": [
			[0, 2, 3],
			[0, 2, 3]
		]
	}`)

	u, err := BuildUVSet(entry, nil, srcURL(t, "/data/Dup.dsf#dup"))
	require.NoError(t, err)

	// Vendors ship duplicated hotswap rows; each must apply exactly once.
	swapped := u.HotswapPolygon(0, []int{0, 1, 2})
	assert.Equal(t, []int{0, 1, 3}, swapped)
}
