package asset

import (
	"fmt"

	"github.com/agentic-research/dson/internal/address"
)

// Node is a validated node definition: the transform and hierarchy
// template scene instances are resolved against.
type Node struct {
	Header

	Type        NodeType
	ContentType string

	// Parent is the raw parent reference URL from the library entry
	// ("#hip" or "/data/figure.dsf#hip"), empty for roots. Stored
	// unresolved; following it is the composition engine's job.
	Parent string

	// InheritsScale reports whether the node scales with its parent.
	// Bones parented to bones default to false, which the composition
	// engine applies when InheritsScaleExplicit is unset.
	InheritsScale         bool
	InheritsScaleExplicit bool

	RotationOrder RotationOrder

	CenterPoint  Vector
	EndPoint     Vector
	Translation  ChannelVector
	Orientation  ChannelVector
	Rotation     ChannelVector
	Scale        ChannelVector
	GeneralScale Channel
}

func (*Node) Kind() Kind { return KindNode }

var nodeTypes = map[NodeType]bool{
	NodeTypeNode: true, NodeTypeBone: true, NodeTypeFigure: true,
	NodeTypeCamera: true, NodeTypeLight: true,
}

var rotationOrders = map[RotationOrder]bool{
	RotationXYZ: true, RotationXZY: true, RotationYXZ: true,
	RotationYZX: true, RotationZXY: true, RotationZYX: true,
}

// BuildNode validates a raw node_library entry into an immutable Node.
func BuildNode(lib map[string]any, inst map[string]any, src address.AssetURL) (*Node, error) {
	h, err := header(KindNode, lib, inst)
	if err != nil {
		return nil, err
	}
	if h.Name == "" {
		return nil, fmt.Errorf("%w: %s %q", ErrMissingField, KindNode, "name")
	}

	n := &Node{
		Header:        h,
		Type:          NodeTypeNode,
		RotationOrder: RotationXYZ,
		InheritsScale: true,
	}
	n.URL = src

	if v, ok := pick(lib, inst, "type"); ok {
		t, ok := v.(string)
		if !ok || !nodeTypes[NodeType(t)] {
			return nil, fmt.Errorf("%w: node type %v", ErrBadValue, v)
		}
		n.Type = NodeType(t)
	}

	if presentation, ok := optMap(lib, inst, "presentation"); ok {
		n.ContentType, _ = presentation["type"].(string)
	}

	n.Parent = optString(lib, inst, "parent", "")

	if v, explicit := optBool(lib, inst, "inherits_scale", true); explicit {
		n.InheritsScale = v
		n.InheritsScaleExplicit = true
	}

	if v, ok := pick(lib, inst, "rotation_order"); ok {
		order, ok := v.(string)
		if !ok || !rotationOrders[RotationOrder(order)] {
			return nil, fmt.Errorf("%w: rotation_order %v", ErrBadValue, v)
		}
		n.RotationOrder = RotationOrder(order)
	}

	n.CenterPoint = channelVector(lib, inst, "center_point", Vector{}).Values()
	n.EndPoint = channelVector(lib, inst, "end_point", Vector{}).Values()
	n.Translation = channelVector(lib, inst, "translation", Vector{})
	n.Orientation = channelVector(lib, inst, "orientation", Vector{})
	n.Rotation = channelVector(lib, inst, "rotation", Vector{})
	n.Scale = channelVector(lib, inst, "scale", Vector{X: 1, Y: 1, Z: 1})

	n.GeneralScale = Channel{ID: "general_scale", Default: 1, Current: 1}
	if data, ok := optMap(lib, inst, "general_scale"); ok {
		merged := Channel{ID: "general_scale", Default: 1, Current: 1}
		mergeAxis(&merged, data)
		n.GeneralScale = merged
	} else if f := optFloat(lib, inst, "general_scale", 1); f != 1 {
		n.GeneralScale = Channel{ID: "general_scale", Default: f, Current: f}
	}

	return n, nil
}

// ChannelDefaults flattens the node's transform channels into the flat
// channel-id form scene instances override ("rotation_x",
// "general_scale", ...). The returned map is freshly allocated; callers
// own it.
func (n *Node) ChannelDefaults() map[string]float64 {
	defaults := make(map[string]float64, 13)
	put := func(prefix string, v ChannelVector) {
		defaults[prefix+"_x"] = v.X.Current
		defaults[prefix+"_y"] = v.Y.Current
		defaults[prefix+"_z"] = v.Z.Current
	}
	put("translation", n.Translation)
	put("orientation", n.Orientation)
	put("rotation", n.Rotation)
	put("scale", n.Scale)
	defaults["general_scale"] = n.GeneralScale.Current
	return defaults
}
