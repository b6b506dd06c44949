package asset

import (
	"fmt"

	"github.com/agentic-research/dson/internal/address"
)

// Region is one entry of a geometry's region hierarchy, used to group
// faces into selectable body areas.
type Region struct {
	ID          string
	Label       string
	FaceIndices []int
	Parent      int   // index into Geometry.Regions, -1 for the root
	Children    []int // indices into Geometry.Regions
}

// Graft describes how this geometry attaches onto a target mesh.
type Graft struct {
	ExpectedVertices int
	ExpectedPolygons int
	VertexPairs      [][2]int
	HiddenPolygons   []int
}

// Geometry is a validated polygon mesh definition.
type Geometry struct {
	Header

	Type              GeometryType
	EdgeInterpolation EdgeInterpolation

	Vertices []Vector
	Polygons []Polygon

	// MaterialNames and FaceGroupNames are the tables Polygon group
	// indices point into.
	MaterialNames  []string
	FaceGroupNames []string

	// DefaultUVURL references the uv_set entry to texture with. Not
	// followed here; resolution is the composition engine's job.
	DefaultUVURL string

	Regions []Region
	Graft   *Graft
}

func (*Geometry) Kind() Kind { return KindGeometry }

// BuildGeometry validates a raw geometry_library entry and converts it
// into an immutable Geometry. The instance data, when present, overlays
// the library entry field by field.
func BuildGeometry(lib map[string]any, inst map[string]any, src address.AssetURL) (*Geometry, error) {
	h, err := header(KindGeometry, lib, inst)
	if err != nil {
		return nil, err
	}

	g := &Geometry{
		Header:            h,
		Type:              GeometryPolygonMesh,
		EdgeInterpolation: EdgeInterpolationNone,
	}
	g.URL = src

	if s, ok := pick(lib, inst, "type"); ok {
		t, ok := s.(string)
		if !ok || (GeometryType(t) != GeometryPolygonMesh && GeometryType(t) != GeometrySubdivisionSurface) {
			return nil, fmt.Errorf("%w: geometry type %v", ErrBadValue, s)
		}
		g.Type = GeometryType(t)
	}
	if s, ok := pick(lib, inst, "edge_interpolation_mode"); ok {
		m, ok := s.(string)
		if !ok {
			return nil, fmt.Errorf("%w: edge_interpolation_mode %v", ErrBadValue, s)
		}
		switch EdgeInterpolation(m) {
		case EdgeInterpolationNone, EdgeInterpolationEdgesAndCorners, EdgeInterpolationEdgesOnly:
			g.EdgeInterpolation = EdgeInterpolation(m)
		default:
			return nil, fmt.Errorf("%w: edge_interpolation_mode %q", ErrBadValue, m)
		}
	}

	if err := buildMesh(g, lib, inst); err != nil {
		return nil, err
	}

	g.DefaultUVURL = optString(lib, inst, "default_uv_set", "")

	if err := buildRegions(g, lib, inst); err != nil {
		return nil, err
	}
	if err := buildGraft(g, lib, inst); err != nil {
		return nil, err
	}

	return g, nil
}

func buildMesh(g *Geometry, lib, inst map[string]any) error {
	rawVertices, err := valueArray(KindGeometry, lib, inst, "vertices", true)
	if err != nil {
		return err
	}
	g.Vertices = make([]Vector, len(rawVertices))
	for i, raw := range rawVertices {
		triple, ok := raw.([]any)
		if !ok || len(triple) != 3 {
			return fmt.Errorf("%w: vertex %d is not a coordinate triple", ErrMalformedGeometry, i)
		}
		x, okX := toFloat(triple[0])
		y, okY := toFloat(triple[1])
		z, okZ := toFloat(triple[2])
		if !okX || !okY || !okZ {
			return fmt.Errorf("%w: vertex %d has non-numeric coordinates", ErrMalformedGeometry, i)
		}
		g.Vertices[i] = Vector{X: x, Y: y, Z: z}
	}

	materialNames, err := valueArray(KindGeometry, lib, inst, "polygon_material_groups", true)
	if err != nil {
		return err
	}
	g.MaterialNames = make([]string, len(materialNames))
	for i, raw := range materialNames {
		name, ok := raw.(string)
		if !ok {
			return fmt.Errorf("%w: polygon_material_groups[%d] is not a string", ErrMalformedGeometry, i)
		}
		g.MaterialNames[i] = name
	}

	faceGroupNames, err := valueArray(KindGeometry, lib, inst, "polygon_groups", true)
	if err != nil {
		return err
	}
	g.FaceGroupNames = make([]string, len(faceGroupNames))
	for i, raw := range faceGroupNames {
		name, ok := raw.(string)
		if !ok {
			return fmt.Errorf("%w: polygon_groups[%d] is not a string", ErrMalformedGeometry, i)
		}
		g.FaceGroupNames[i] = name
	}

	rawPolygons, err := valueArray(KindGeometry, lib, inst, "polylist", true)
	if err != nil {
		return err
	}
	g.Polygons = make([]Polygon, len(rawPolygons))
	for i, raw := range rawPolygons {
		entry, ok := raw.([]any)
		if !ok || len(entry) < 5 || len(entry) > 6 {
			return fmt.Errorf("%w: polygon %d must hold group, material and 3-4 vertex indices", ErrMalformedGeometry, i)
		}

		faceGroup, okF := toInt(entry[0])
		materialGroup, okM := toInt(entry[1])
		if !okF || !okM {
			return fmt.Errorf("%w: polygon %d has non-integer group indices", ErrMalformedGeometry, i)
		}
		if faceGroup < 0 || faceGroup >= len(g.FaceGroupNames) {
			return fmt.Errorf("%w: polygon %d face group %d outside %d groups",
				ErrMalformedGeometry, i, faceGroup, len(g.FaceGroupNames))
		}
		if materialGroup < 0 || materialGroup >= len(g.MaterialNames) {
			return fmt.Errorf("%w: polygon %d material group %d outside %d groups",
				ErrMalformedGeometry, i, materialGroup, len(g.MaterialNames))
		}

		vertices := make([]int, len(entry)-2)
		for j, rawIndex := range entry[2:] {
			index, ok := toInt(rawIndex)
			if !ok {
				return fmt.Errorf("%w: polygon %d has a non-integer vertex index", ErrMalformedGeometry, i)
			}
			if index < 0 || index >= len(g.Vertices) {
				return fmt.Errorf("%w: polygon %d references vertex %d of %d",
					ErrIndexOutOfBounds, i, index, len(g.Vertices))
			}
			vertices[j] = index
		}

		g.Polygons[i] = Polygon{FaceGroup: faceGroup, MaterialGroup: materialGroup, Vertices: vertices}
	}

	return nil
}

func buildRegions(g *Geometry, lib, inst map[string]any) error {
	root, ok := optMap(lib, inst, "root_region")
	if !ok {
		return nil
	}

	var walk func(data map[string]any, parent int) error
	walk = func(data map[string]any, parent int) error {
		id, ok := data["id"].(string)
		if !ok {
			return fmt.Errorf("%w: %s %q", ErrMissingField, KindGeometry, "root_region.id")
		}

		region := Region{ID: id, Parent: parent}
		region.Label, _ = data["label"].(string)

		if indices, err := valueArray(KindGeometry, data, nil, "map", false); err != nil {
			return err
		} else if indices != nil {
			region.FaceIndices = make([]int, len(indices))
			for i, raw := range indices {
				index, ok := toInt(raw)
				if !ok || index < 0 || index >= len(g.Polygons) {
					return fmt.Errorf("%w: region %q maps polygon %v of %d",
						ErrMalformedGeometry, id, raw, len(g.Polygons))
				}
				region.FaceIndices[i] = index
			}
		}

		self := len(g.Regions)
		g.Regions = append(g.Regions, region)
		if parent >= 0 {
			g.Regions[parent].Children = append(g.Regions[parent].Children, self)
		}

		if children, ok := data["children"].([]any); ok {
			for _, rawChild := range children {
				child, ok := rawChild.(map[string]any)
				if !ok {
					continue
				}
				if err := walk(child, self); err != nil {
					return err
				}
			}
		}
		return nil
	}

	return walk(root, -1)
}

func buildGraft(g *Geometry, lib, inst map[string]any) error {
	data, ok := optMap(lib, inst, "graft")
	if !ok {
		return nil
	}

	graft := &Graft{}
	var err error
	if graft.ExpectedVertices, err = requireInt(KindGeometry, data, nil, "vertex_count"); err != nil {
		return err
	}
	if graft.ExpectedPolygons, err = requireInt(KindGeometry, data, nil, "poly_count"); err != nil {
		return err
	}

	pairs, err := valueArray(KindGeometry, data, nil, "vertex_pairs", true)
	if err != nil {
		return err
	}
	graft.VertexPairs = make([][2]int, len(pairs))
	for i, raw := range pairs {
		pair, ok := raw.([]any)
		if !ok || len(pair) != 2 {
			return fmt.Errorf("%w: graft vertex pair %d", ErrMalformedGeometry, i)
		}
		a, okA := toInt(pair[0])
		b, okB := toInt(pair[1])
		if !okA || !okB {
			return fmt.Errorf("%w: graft vertex pair %d", ErrMalformedGeometry, i)
		}
		graft.VertexPairs[i] = [2]int{a, b}
	}

	hidden, err := valueArray(KindGeometry, data, nil, "hidden_polys", true)
	if err != nil {
		return err
	}
	graft.HiddenPolygons = make([]int, len(hidden))
	for i, raw := range hidden {
		index, ok := toInt(raw)
		if !ok {
			return fmt.Errorf("%w: graft hidden polygon %d", ErrMalformedGeometry, i)
		}
		graft.HiddenPolygons[i] = index
	}

	g.Graft = graft
	return nil
}
