package asset

import (
	"fmt"

	"github.com/agentic-research/dson/internal/address"
)

// SkinBinding attaches a mesh to a skeleton: per-joint vertex weights
// against a declared vertex count.
type SkinBinding struct {
	TargetNode       string
	TargetGeometry   string
	ExpectedVertices int
	// JointWeights maps a bone reference URL to its (vertex index,
	// weight) pairs.
	JointWeights map[string][]VertexWeight
}

type VertexWeight struct {
	Vertex int
	Weight float64
}

// Morph is a set of per-vertex position deltas, keyed by vertex index
// for O(1) lookup during application.
type Morph struct {
	ExpectedVertices int
	Deltas           map[int]Vector
}

// Modifier is a validated modifier definition: a morph, a skin binding,
// a driven channel, or any combination.
type Modifier struct {
	Header

	ContentType string

	// Parent references the asset this modifier targets, unresolved.
	Parent string

	// Channel is the user-facing channel that drives this modifier, if
	// it declares one.
	Channel *Channel

	SkinBinding *SkinBinding
	Morph       *Morph
	Formulas    []Formula
}

func (*Modifier) Kind() Kind { return KindModifier }

// BuildModifier validates a raw modifier_library entry into an
// immutable Modifier.
func BuildModifier(lib map[string]any, inst map[string]any, src address.AssetURL) (*Modifier, error) {
	h, err := header(KindModifier, lib, inst)
	if err != nil {
		return nil, err
	}

	m := &Modifier{Header: h}
	m.URL = src

	if presentation, ok := optMap(lib, inst, "presentation"); ok {
		m.ContentType, _ = presentation["type"].(string)
	}
	m.Parent = optString(lib, inst, "parent", "")

	if data, ok := optMap(lib, inst, "channel"); ok {
		ch := channelFrom(data)
		m.Channel = &ch
	}

	if err := buildSkin(m, lib, inst); err != nil {
		return nil, err
	}
	if err := buildMorph(m, lib, inst); err != nil {
		return nil, err
	}
	if err := buildFormulas(m, lib, inst); err != nil {
		return nil, err
	}

	return m, nil
}

func buildSkin(m *Modifier, lib, inst map[string]any) error {
	data, ok := optMap(lib, inst, "skin")
	if !ok {
		return nil
	}

	skin := &SkinBinding{JointWeights: make(map[string][]VertexWeight)}
	var err error
	if skin.TargetNode, err = requireString(KindModifier, data, nil, "node"); err != nil {
		return err
	}
	if skin.TargetGeometry, err = requireString(KindModifier, data, nil, "geometry"); err != nil {
		return err
	}
	if skin.ExpectedVertices, err = requireInt(KindModifier, data, nil, "vertex_count"); err != nil {
		return err
	}

	joints, _ := data["joints"].([]any)
	for _, rawJoint := range joints {
		joint, ok := rawJoint.(map[string]any)
		if !ok {
			continue
		}
		bone, err := requireString(KindModifier, joint, nil, "node")
		if err != nil {
			return err
		}

		weights, err := valueArray(KindModifier, joint, nil, "node_weights", false)
		if err != nil {
			return err
		}
		pairs := make([]VertexWeight, 0, len(weights))
		for i, raw := range weights {
			pair, ok := raw.([]any)
			if !ok || len(pair) != 2 {
				return fmt.Errorf("%w: joint %q weight %d is not a pair", ErrBadValue, bone, i)
			}
			vertex, okV := toInt(pair[0])
			weight, okW := toFloat(pair[1])
			if !okV || !okW {
				return fmt.Errorf("%w: joint %q weight %d", ErrBadValue, bone, i)
			}
			if vertex < 0 || vertex >= skin.ExpectedVertices {
				return fmt.Errorf("%w: joint %q weights vertex %d of %d",
					ErrIndexOutOfBounds, bone, vertex, skin.ExpectedVertices)
			}
			pairs = append(pairs, VertexWeight{Vertex: vertex, Weight: weight})
		}
		skin.JointWeights[bone] = pairs
	}

	m.SkinBinding = skin
	return nil
}

func buildMorph(m *Modifier, lib, inst map[string]any) error {
	data, ok := optMap(lib, inst, "morph")
	if !ok {
		return nil
	}

	morph := &Morph{Deltas: make(map[int]Vector)}
	var err error
	if morph.ExpectedVertices, err = requireInt(KindModifier, data, nil, "vertex_count"); err != nil {
		return err
	}

	deltas, err := valueArray(KindModifier, data, nil, "deltas", true)
	if err != nil {
		return err
	}
	for i, raw := range deltas {
		entry, ok := raw.([]any)
		if !ok || len(entry) != 4 {
			return fmt.Errorf("%w: morph delta %d must be [index, x, y, z]", ErrBadValue, i)
		}
		vertex, okI := toInt(entry[0])
		x, okX := toFloat(entry[1])
		y, okY := toFloat(entry[2])
		z, okZ := toFloat(entry[3])
		if !okI || !okX || !okY || !okZ {
			return fmt.Errorf("%w: morph delta %d", ErrBadValue, i)
		}
		// A negative vertex count means the morph applies to any mesh, so
		// bounds are only enforceable when the count is declared positive.
		if morph.ExpectedVertices > 0 && (vertex < 0 || vertex >= morph.ExpectedVertices) {
			return fmt.Errorf("%w: morph delta %d targets vertex %d of %d",
				ErrIndexOutOfBounds, i, vertex, morph.ExpectedVertices)
		}
		morph.Deltas[vertex] = Vector{X: x, Y: y, Z: z}
	}

	m.Morph = morph
	return nil
}

func buildFormulas(m *Modifier, lib, inst map[string]any) error {
	list, ok := optList(lib, inst, "formulas")
	if !ok {
		return nil
	}

	for i, raw := range list {
		data, ok := raw.(map[string]any)
		if !ok {
			return fmt.Errorf("%w: formula %d is not an object", ErrBadValue, i)
		}

		formula := Formula{Stage: FormulaStageSum}
		var err error
		if formula.Output, err = requireString(KindModifier, data, nil, "output"); err != nil {
			return err
		}
		if stage, ok := data["stage"].(string); ok {
			switch FormulaStage(stage) {
			case FormulaStageSum, FormulaStageMultiply:
				formula.Stage = FormulaStage(stage)
			default:
				return fmt.Errorf("%w: formula %d stage %q", ErrBadValue, i, stage)
			}
		}

		operations, ok := data["operations"].([]any)
		if !ok {
			return fmt.Errorf("%w: %s %q", ErrMissingField, KindModifier, "formulas.operations")
		}
		for j, rawOp := range operations {
			opData, ok := rawOp.(map[string]any)
			if !ok {
				return fmt.Errorf("%w: formula %d operation %d", ErrBadValue, i, j)
			}
			name, _ := opData["op"].(string)
			if !formulaOps[FormulaOp(name)] {
				return fmt.Errorf("%w: formula %d operator %q", ErrBadValue, i, name)
			}
			op := Operation{Op: FormulaOp(name)}
			op.Value = opData["val"]
			op.Ref, _ = opData["url"].(string)
			formula.Operations = append(formula.Operations, op)
		}

		m.Formulas = append(m.Formulas, formula)
	}
	return nil
}
