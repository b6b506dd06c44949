package asset

import (
	"fmt"

	"github.com/agentic-research/dson/internal/address"
)

// UVSet is a validated UV layout for a geometry with a declared vertex
// count.
type UVSet struct {
	Header

	// ExpectedVertices is the vertex count of the geometry this layout
	// fits. A structural cross-check only; the geometry itself is not
	// resolved here.
	ExpectedVertices int

	// UVs holds one (u, v) coordinate per index.
	UVs [][2]float64

	// Hotswap maps a polygon index to its index-replacement entries
	// [polygon, vertex index, replacement]. Seam vertices carry several
	// UV coordinates, one per adjacent face; the hotswap table picks the
	// right one per polygon.
	Hotswap map[int][][3]int
}

func (*UVSet) Kind() Kind { return KindUVSet }

// BuildUVSet validates a raw uv_set_library entry into an immutable
// UVSet.
func BuildUVSet(lib map[string]any, inst map[string]any, src address.AssetURL) (*UVSet, error) {
	h, err := header(KindUVSet, lib, inst)
	if err != nil {
		return nil, err
	}

	u := &UVSet{Header: h}
	u.URL = src

	if u.ExpectedVertices, err = requireInt(KindUVSet, lib, inst, "vertex_count"); err != nil {
		return nil, err
	}

	uvs, err := valueArray(KindUVSet, lib, inst, "uvs", true)
	if err != nil {
		return nil, err
	}
	u.UVs = make([][2]float64, len(uvs))
	for i, raw := range uvs {
		pair, ok := raw.([]any)
		if !ok || len(pair) != 2 {
			return nil, fmt.Errorf("%w: uv %d is not a coordinate pair", ErrBadValue, i)
		}
		uc, okU := toFloat(pair[0])
		vc, okV := toFloat(pair[1])
		if !okU || !okV {
			return nil, fmt.Errorf("%w: uv %d has non-numeric coordinates", ErrBadValue, i)
		}
		u.UVs[i] = [2]float64{uc, vc}
	}

	// The hotswap list arrives flat with the polygon index first; key it
	// by polygon for lookup during application.
	u.Hotswap = make(map[int][][3]int)
	if list, ok := optList(lib, inst, "polygon_vertex_indices"); ok {
		for i, raw := range list {
			entry, ok := raw.([]any)
			if !ok || len(entry) != 3 {
				return nil, fmt.Errorf("%w: polygon_vertex_indices[%d]", ErrBadValue, i)
			}
			polygon, okP := toInt(entry[0])
			vertex, okV := toInt(entry[1])
			replacement, okR := toInt(entry[2])
			if !okP || !okV || !okR {
				return nil, fmt.Errorf("%w: polygon_vertex_indices[%d]", ErrBadValue, i)
			}
			if replacement < 0 || replacement >= len(u.UVs) {
				return nil, fmt.Errorf("%w: hotswap entry %d replaces with uv %d of %d",
					ErrIndexOutOfBounds, i, replacement, len(u.UVs))
			}
			u.Hotswap[polygon] = append(u.Hotswap[polygon], [3]int{polygon, vertex, replacement})
		}
	}

	return u, nil
}

// HotswapPolygon rewrites a face's vertex indices into indices into the
// UV array. Faces without hotswap entries index UVs directly by vertex,
// so the input is returned unchanged. Duplicate hotswap entries for one
// polygon are culled before applying.
func (u *UVSet) HotswapPolygon(polygon int, vertexIndices []int) []int {
	swapped := make([]int, len(vertexIndices))
	copy(swapped, vertexIndices)

	entries, ok := u.Hotswap[polygon]
	if !ok {
		return swapped
	}

	seen := make(map[[3]int]bool, len(entries))
	for _, entry := range entries {
		if seen[entry] {
			continue
		}
		seen[entry] = true

		for i, index := range swapped {
			if index == entry[1] {
				swapped[i] = entry[2]
				break
			}
		}
	}
	return swapped
}
