package scene

import (
	"github.com/agentic-research/dson/internal/address"
	"github.com/agentic-research/dson/internal/asset"
)

// Instance is one resolved scene node: a reference to its definition
// plus the post-override channel values and its position in the
// hierarchy. Parent is a back-reference by id; children are owned.
type Instance struct {
	ID         string
	URL        address.AssetURL
	Definition asset.Definition

	Parent   string   // instance id, empty for roots
	Children []string // instance ids, declaration order

	// Channels holds the resolved value per channel id: definition
	// defaults overlaid with instance overrides, plus instance-only
	// extension channels.
	Channels map[string]any

	// InheritsScale is the resolved scale-inheritance flag, including
	// the bone-under-bone default.
	InheritsScale bool
}

// Graph is the composed result of one scene: the resolved instances,
// their shared definitions, and the errors of instances that could not
// be resolved. Composition is one-shot; the graph has no mutation API.
type Graph struct {
	instances map[string]*Instance
	order     []string // resolved ids, stable across queries

	uvSets    map[string]asset.Definition
	modifiers map[string]asset.Definition

	errs []*InstanceError
}

func newGraph() *Graph {
	return &Graph{
		instances: make(map[string]*Instance),
		uvSets:    make(map[string]asset.Definition),
		modifiers: make(map[string]asset.Definition),
	}
}

func (g *Graph) addInstance(inst *Instance) {
	g.instances[inst.ID] = inst
	g.order = append(g.order, inst.ID)
}

// Instance looks up a resolved instance by id.
func (g *Graph) Instance(id string) (*Instance, bool) {
	inst, ok := g.instances[id]
	return inst, ok
}

// Instances returns the ids of all resolved instances in resolution
// order.
func (g *Graph) Instances() []string {
	out := make([]string, len(g.order))
	copy(out, g.order)
	return out
}

// Roots returns the ids of all parentless instances.
func (g *Graph) Roots() []string {
	var roots []string
	for _, id := range g.order {
		if g.instances[id].Parent == "" {
			roots = append(roots, id)
		}
	}
	return roots
}

// Children returns the child ids of an instance, nil for unknown ids.
func (g *Graph) Children(id string) []string {
	inst, ok := g.instances[id]
	if !ok {
		return nil
	}
	out := make([]string, len(inst.Children))
	copy(out, inst.Children)
	return out
}

// ChannelValue fetches the resolved channel value for an
// instance/channel pair.
func (g *Graph) ChannelValue(id, channel string) (any, bool) {
	inst, ok := g.instances[id]
	if !ok {
		return nil, false
	}
	v, ok := inst.Channels[channel]
	return v, ok
}

// Walk visits the subtree rooted at id depth-first in declaration
// order, including id itself. Unknown ids visit nothing.
func (g *Graph) Walk(id string, visit func(*Instance)) {
	inst, ok := g.instances[id]
	if !ok {
		return
	}
	visit(inst)
	for _, child := range inst.Children {
		g.Walk(child, visit)
	}
}

// UVSet looks up a resolved uv-set instance by id.
func (g *Graph) UVSet(id string) (asset.Definition, bool) {
	def, ok := g.uvSets[id]
	return def, ok
}

// Modifier looks up a resolved modifier instance by id.
func (g *Graph) Modifier(id string) (asset.Definition, bool) {
	def, ok := g.modifiers[id]
	return def, ok
}

// FigureBones returns the ids of every bone instance in the armature of
// the given figure, breadth-first. Non-bone children end their branch:
// a prop parented to a figure does not contribute bones.
func (g *Graph) FigureBones(figureID string) []string {
	root, ok := g.instances[figureID]
	if !ok {
		return nil
	}
	if def, ok := root.Definition.(*asset.Node); !ok || def.Type != asset.NodeTypeFigure {
		return nil
	}

	var bones []string
	queue := append([]string(nil), root.Children...)
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		inst, ok := g.instances[id]
		if !ok {
			continue
		}
		if def, ok := inst.Definition.(*asset.Node); ok && def.Type == asset.NodeTypeBone {
			bones = append(bones, id)
			queue = append(queue, inst.Children...)
		}
	}
	return bones
}

// Errors returns the per-instance failures recorded during composition.
// An empty list means the whole scene resolved.
func (g *Graph) Errors() []*InstanceError {
	out := make([]*InstanceError, len(g.errs))
	copy(out, g.errs)
	return out
}
