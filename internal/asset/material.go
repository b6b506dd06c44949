package asset

import (
	"fmt"

	"github.com/agentic-research/dson/internal/address"
)

// MaterialChannel is one shading channel of a material: the channel
// parameters plus an optional image reference.
type MaterialChannel struct {
	Channel Channel
	// ImageURL references an image_library entry, unresolved.
	ImageURL string
}

// Material is a validated material definition. Shading channels beyond
// the well-known ones are retained in Channels by their group name, so
// vendor-specific shaders survive the conversion.
type Material struct {
	Header

	// ShaderType is the material's declared type ("studio/material/...").
	ShaderType string

	// UVSetURL references the uv_set this material expects, unresolved.
	UVSetURL string

	// Geometry restricts the material to named polygon groups of its
	// target geometry, when present.
	Groups []string

	Channels map[string]MaterialChannel
}

func (*Material) Kind() Kind { return KindMaterial }

// BuildMaterial validates a raw material entry into an immutable
// Material. Materials appear both in dedicated documents and embedded in
// scene files.
func BuildMaterial(lib map[string]any, inst map[string]any, src address.AssetURL) (*Material, error) {
	h, err := header(KindMaterial, lib, inst)
	if err != nil {
		return nil, err
	}

	m := &Material{Header: h, Channels: make(map[string]MaterialChannel)}
	m.URL = src
	m.ShaderType = optString(lib, inst, "type", "")
	m.UVSetURL = optString(lib, inst, "uv_set", "")

	if groups, ok := optList(lib, inst, "groups"); ok {
		m.Groups = make([]string, 0, len(groups))
		for i, raw := range groups {
			name, ok := raw.(string)
			if !ok {
				return nil, fmt.Errorf("%w: material group %d is not a string", ErrBadValue, i)
			}
			m.Groups = append(m.Groups, name)
		}
	}

	// Any object field carrying a "channel" member is a shading channel
	// ("diffuse", "diffuse_strength", vendor extensions alike).
	for _, source := range []map[string]any{lib, inst} {
		for name, raw := range source {
			group, ok := raw.(map[string]any)
			if !ok {
				continue
			}
			data, ok := group["channel"].(map[string]any)
			if !ok {
				continue
			}
			mc := MaterialChannel{Channel: channelFrom(data)}
			if imageURL, ok := data["image_file"].(string); ok {
				mc.ImageURL = imageURL
			}
			m.Channels[name] = mc
		}
	}

	return m, nil
}
