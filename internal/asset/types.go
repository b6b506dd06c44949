// Package asset defines the typed, immutable representations of DSON
// library entries and the builders that validate raw parsed trees into
// them.
//
// A Definition is never mutated after construction and is safe to share
// across goroutines without locking.
package asset

import (
	"errors"

	"github.com/agentic-research/dson/internal/address"
)

var (
	// ErrMissingField is returned when a library entry lacks a field the
	// format requires.
	ErrMissingField = errors.New("missing required field")
	// ErrMalformedGeometry is returned for structural violations in
	// geometry data (count mismatches, bad group indices, non-tri/quad
	// polygons).
	ErrMalformedGeometry = errors.New("malformed geometry")
	// ErrIndexOutOfBounds is returned when a polygon references a vertex
	// index outside the vertex array.
	ErrIndexOutOfBounds = errors.New("vertex index out of bounds")
	// ErrBadValue is returned when a field is present but its value is
	// outside the set the format allows.
	ErrBadValue = errors.New("field value not allowed")
)

// Kind discriminates the six asset kinds a library entry can hold.
type Kind string

const (
	KindGeometry Kind = "geometry"
	KindImage    Kind = "image"
	KindMaterial Kind = "material"
	KindModifier Kind = "modifier"
	KindNode     Kind = "node"
	KindUVSet    Kind = "uv_set"
)

// KindForSection maps a library section name to its asset kind.
func KindForSection(section string) (Kind, bool) {
	switch section {
	case "geometry_library":
		return KindGeometry, true
	case "image_library":
		return KindImage, true
	case "material_library":
		return KindMaterial, true
	case "modifier_library":
		return KindModifier, true
	case "node_library":
		return KindNode, true
	case "uv_set_library":
		return KindUVSet, true
	}
	return "", false
}

// Definition is the closed union over the six asset kinds. Concrete
// types are *Geometry, *Image, *Material, *Modifier, *Node and *UVSet.
type Definition interface {
	Kind() Kind
	// Source is the asset's identity: the URL (file plus fragment) it was
	// built from.
	Source() address.AssetURL
	// LibraryID is the entry's id within its document.
	LibraryID() string
}

// Header carries the fields common to every asset kind.
type Header struct {
	URL        address.AssetURL
	ID         string
	InstanceID string // id of the scene instance this was built for, if any
	Name       string
	Label      string
	// SourceRef names the asset this entry was derived from ("source"
	// attribute), empty for original assets.
	SourceRef string
}

func (h Header) Source() address.AssetURL { return h.URL }
func (h Header) LibraryID() string        { return h.ID }

// Vector is a 3D coordinate.
type Vector struct {
	X, Y, Z float64
}

// Polygon is one mesh face: three or four vertex indices plus the face
// group and material group it is assigned to.
type Polygon struct {
	FaceGroup     int
	MaterialGroup int
	Vertices      []int // len 3 or 4
}

// Channel is one overridable scalar property. Current starts equal to
// the library default and reflects any instance override.
type Channel struct {
	ID      string
	Default float64
	Current float64
	Min     float64
	Max     float64
	Clamped bool
	// Formula optionally references a formula that drives this channel.
	Formula string
}

// ChannelVector groups the X, Y and Z channels of one 3D property.
type ChannelVector struct {
	X, Y, Z Channel
}

// Values returns the current per-axis values.
func (v ChannelVector) Values() Vector {
	return Vector{X: v.X.Current, Y: v.Y.Current, Z: v.Z.Current}
}

// NodeType classifies what kind of scene object a node definition
// produces.
type NodeType string

const (
	NodeTypeNode   NodeType = "node"
	NodeTypeBone   NodeType = "bone"
	NodeTypeFigure NodeType = "figure"
	NodeTypeCamera NodeType = "camera"
	NodeTypeLight  NodeType = "light"
)

// RotationOrder is the order Euler rotations apply in.
type RotationOrder string

const (
	RotationXYZ RotationOrder = "XYZ"
	RotationXZY RotationOrder = "XZY"
	RotationYXZ RotationOrder = "YXZ"
	RotationYZX RotationOrder = "YZX"
	RotationZXY RotationOrder = "ZXY"
	RotationZYX RotationOrder = "ZYX"
)

// GeometryType selects between a plain mesh and a subdivision surface.
type GeometryType string

const (
	GeometryPolygonMesh        GeometryType = "polygon_mesh"
	GeometrySubdivisionSurface GeometryType = "subdivision_surface"
)

// EdgeInterpolation is how subdivision treats hard edges.
type EdgeInterpolation string

const (
	EdgeInterpolationNone            EdgeInterpolation = "no_interpolation"
	EdgeInterpolationEdgesAndCorners EdgeInterpolation = "edges_and_corners"
	EdgeInterpolationEdgesOnly       EdgeInterpolation = "edges_only"
)

// FormulaStage is how a formula's result combines with other formulas
// targeting the same channel.
type FormulaStage string

const (
	FormulaStageSum      FormulaStage = "sum"
	FormulaStageMultiply FormulaStage = "multiply"
)

// FormulaOp is one stack operation inside a formula.
type FormulaOp string

const (
	OpPush           FormulaOp = "push"
	OpAdd            FormulaOp = "add"
	OpSub            FormulaOp = "sub"
	OpMult           FormulaOp = "mult"
	OpDiv            FormulaOp = "div"
	OpInv            FormulaOp = "inv"
	OpNeg            FormulaOp = "neg"
	OpSplineLinear   FormulaOp = "spline_linear"
	OpSplineConstant FormulaOp = "spline_constant"
	OpSplineTCB      FormulaOp = "spline_tcb"
)

var formulaOps = map[FormulaOp]bool{
	OpPush: true, OpAdd: true, OpSub: true, OpMult: true, OpDiv: true,
	OpInv: true, OpNeg: true, OpSplineLinear: true, OpSplineConstant: true,
	OpSplineTCB: true,
}

// Operation is one step of a formula's stack program. Exactly one of
// Value and Ref is meaningful: push operations carry either a literal or
// a channel reference, arithmetic operations carry neither.
type Operation struct {
	Op    FormulaOp
	Value any    // literal operand
	Ref   string // channel reference URL
}

// Formula drives an output channel from other channels.
type Formula struct {
	Output     string
	Stage      FormulaStage
	Operations []Operation
}
