// Package scene composes scene documents into resolved asset graphs.
//
// A scene file lists instances that reference library definitions by URL
// and override their channels. Composition resolves every reference
// through the document cache, merges overrides onto definition defaults,
// and builds the parent/child hierarchy. One composition pass is a
// single logical operation: the engine's in-flight state is never shared
// between concurrent compositions.
package scene

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/agentic-research/dson/internal/address"
	"github.com/agentic-research/dson/internal/asset"
	"github.com/agentic-research/dson/internal/document"
)

var (
	// ErrSceneMissing is returned when a document has no scene object.
	ErrSceneMissing = errors.New("document has no scene")
	// ErrCyclicReference is matched by cycle failures; the concrete error
	// is a *CycleError naming the full cycle.
	ErrCyclicReference = errors.New("cyclic parent reference")
	// ErrDanglingParent is returned for instances whose declared parent
	// exists nowhere in the scene.
	ErrDanglingParent = errors.New("parent instance not found")
)

// CycleError reports a parent chain that loops back on itself.
type CycleError struct {
	Cycle []string // instance ids along the cycle, first == last culprit's target
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("cyclic parent reference: %s", strings.Join(e.Cycle, " -> "))
}

func (e *CycleError) Is(target error) bool { return target == ErrCyclicReference }

// InstanceError records the failure of one scene instance during
// composition. Sibling subtrees keep resolving; the failed subtree is
// omitted from the graph.
type InstanceError struct {
	InstanceID string
	Err        error
}

func (e *InstanceError) Error() string {
	return fmt.Sprintf("instance %q: %v", e.InstanceID, e.Err)
}

func (e *InstanceError) Unwrap() error { return e.Err }

// ResolveFunc resolves an asset URL into a typed definition, overlaying
// the given instance data. Provided by the loader so composition shares
// its definition cache.
type ResolveFunc func(ctx context.Context, url address.AssetURL, inst map[string]any) (asset.Definition, error)

const (
	stateUnvisited = iota
	stateResolving
	stateDone
	stateFailed
)

type composer struct {
	doc     *document.Document
	resolve ResolveFunc

	raw   map[string]map[string]any
	order []string

	state    map[string]int
	failures map[string]error
	stack    []string

	graph *Graph
}

// Compose resolves the scene in doc into an asset graph. A missing scene
// object is fatal; everything below that is partial-failure: instances
// that cannot be resolved are recorded on the graph's error list and
// their subtrees omitted, while siblings continue.
func Compose(ctx context.Context, doc *document.Document, resolve ResolveFunc) (*Graph, error) {
	root, _ := doc.Root.(map[string]any)
	sceneData, ok := root["scene"].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSceneMissing, doc.Path)
	}

	c := &composer{
		doc:      doc,
		resolve:  resolve,
		raw:      make(map[string]map[string]any),
		state:    make(map[string]int),
		failures: make(map[string]error),
		graph:    newGraph(),
	}

	// Index instances by id first: parents may be declared after their
	// children, and resolution order must not depend on file order.
	for _, rawNode := range listOf(sceneData, "nodes") {
		id, _ := rawNode["id"].(string)
		if id == "" {
			c.graph.errs = append(c.graph.errs, &InstanceError{
				InstanceID: "?",
				Err:        fmt.Errorf("%w: node instance %q", asset.ErrMissingField, "id"),
			})
			continue
		}
		if _, exists := c.raw[id]; exists {
			c.graph.errs = append(c.graph.errs, &InstanceError{
				InstanceID: id,
				Err:        fmt.Errorf("%w: duplicate instance id", asset.ErrBadValue),
			})
			continue
		}
		c.raw[id] = rawNode
		c.order = append(c.order, id)
	}

	for _, id := range c.order {
		// Errors are already recorded per instance; keep going so one bad
		// branch does not sink the whole scene.
		_ = c.resolveInstance(ctx, id)
	}

	c.composeAux(ctx, sceneData, "uvs", c.graph.uvSets)
	c.composeAux(ctx, sceneData, "modifiers", c.graph.modifiers)

	return c.graph, nil
}

func (c *composer) resolveInstance(ctx context.Context, id string) error {
	switch c.state[id] {
	case stateDone:
		return nil
	case stateFailed:
		return c.failures[id]
	case stateResolving:
		// The active resolution path has looped back onto itself.
		cycle := c.cycleFrom(id)
		return &CycleError{Cycle: cycle}
	}

	c.state[id] = stateResolving
	c.stack = append(c.stack, id)
	defer func() { c.stack = c.stack[:len(c.stack)-1] }()

	if err := ctx.Err(); err != nil {
		return c.fail(id, err)
	}

	rawData := c.raw[id]

	rawURL, ok := rawData["url"].(string)
	if !ok || rawURL == "" {
		return c.fail(id, fmt.Errorf("%w: node instance %q", asset.ErrMissingField, "url"))
	}
	u, err := address.Parse(rawURL)
	if err != nil {
		return c.fail(id, err)
	}
	if !u.HasFilePath() {
		// Fragment-only references target the scene document itself.
		u = u.WithFilePath(c.doc.Path)
	}

	def, err := c.resolve(ctx, u, rawData)
	if err != nil {
		return c.fail(id, err)
	}

	inst := &Instance{
		ID:         id,
		URL:        u,
		Definition: def,
		Channels:   make(map[string]any),
	}

	nodeDef, _ := def.(*asset.Node)
	if nodeDef != nil {
		for channel, value := range nodeDef.ChannelDefaults() {
			inst.Channels[channel] = value
		}
		inst.InheritsScale = nodeDef.InheritsScale
	}

	// Instance overrides apply last-write-wins per channel id. Ids absent
	// from the definition are retained as instance-local extensions.
	for _, rawChannel := range listOf(rawData, "channels") {
		channelID, _ := rawChannel["id"].(string)
		if channelID == "" {
			continue
		}
		if v, ok := rawChannel["current_value"]; ok {
			inst.Channels[channelID] = v
		} else if v, ok := rawChannel["value"]; ok {
			inst.Channels[channelID] = v
		}
	}

	// Attach to the declared parent, resolving it on demand. Forward
	// references are legal: a child may be listed before its parent.
	if rawParent, ok := rawData["parent"].(string); ok && rawParent != "" {
		parentURL, err := address.Parse(rawParent)
		if err != nil {
			return c.fail(id, err)
		}
		parentID := parentURL.AssetID

		if _, ok := c.raw[parentID]; !ok {
			return c.fail(id, fmt.Errorf("%w: %q declared by %q", ErrDanglingParent, parentID, id))
		}
		if err := c.resolveInstance(ctx, parentID); err != nil {
			return c.fail(id, fmt.Errorf("resolving parent %q: %w", parentID, err))
		}

		parent := c.graph.instances[parentID]
		inst.Parent = parentID
		parent.Children = append(parent.Children, id)

		// Bones under bones do not inherit scale unless the definition
		// says so explicitly.
		if nodeDef != nil && nodeDef.Type == asset.NodeTypeBone && !nodeDef.InheritsScaleExplicit {
			if parentDef, ok := parent.Definition.(*asset.Node); ok && parentDef.Type == asset.NodeTypeBone {
				inst.InheritsScale = false
			}
		}
	}

	c.graph.addInstance(inst)
	c.state[id] = stateDone
	return nil
}

// fail marks the instance failed, records the error on the graph, and
// returns the recorded error so dependents fail with the cause attached.
func (c *composer) fail(id string, err error) error {
	c.state[id] = stateFailed
	c.failures[id] = err
	c.graph.errs = append(c.graph.errs, &InstanceError{InstanceID: id, Err: err})
	return err
}

// cycleFrom slices the active resolution path starting at the repeated
// id so the reported cycle names every participant exactly once, closed
// with the repeat.
func (c *composer) cycleFrom(id string) []string {
	start := 0
	for i, frame := range c.stack {
		if frame == id {
			start = i
			break
		}
	}
	cycle := make([]string, 0, len(c.stack)-start+1)
	cycle = append(cycle, c.stack[start:]...)
	return append(cycle, id)
}

// composeAux resolves a flat auxiliary instance list (uv sets,
// modifiers) into the given collection. These carry no hierarchy, so
// each one resolves independently with the same partial-failure rules.
func (c *composer) composeAux(ctx context.Context, sceneData map[string]any, section string, into map[string]asset.Definition) {
	for _, rawInst := range listOf(sceneData, section) {
		id, _ := rawInst["id"].(string)
		rawURL, _ := rawInst["url"].(string)
		if id == "" || rawURL == "" {
			c.graph.errs = append(c.graph.errs, &InstanceError{
				InstanceID: id,
				Err:        fmt.Errorf("%w: %s instance needs id and url", asset.ErrMissingField, section),
			})
			continue
		}

		u, err := address.Parse(rawURL)
		if err == nil {
			if !u.HasFilePath() {
				u = u.WithFilePath(c.doc.Path)
			}
			var def asset.Definition
			if def, err = c.resolve(ctx, u, rawInst); err == nil {
				into[id] = def
				continue
			}
		}
		c.graph.errs = append(c.graph.errs, &InstanceError{InstanceID: id, Err: err})
	}
}

// listOf reads a list of objects from a field, tolerating absence.
func listOf(data map[string]any, field string) []map[string]any {
	raw, _ := data[field].([]any)
	out := make([]map[string]any, 0, len(raw))
	for _, item := range raw {
		if m, ok := item.(map[string]any); ok {
			out = append(out, m)
		}
	}
	return out
}
