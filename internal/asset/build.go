package asset

import (
	"fmt"

	"github.com/agentic-research/dson/internal/address"
	"github.com/agentic-research/dson/internal/library"
)

// Build converts a raw library entry into the typed definition for its
// section, overlaying instance data when given. The returned Definition
// is immutable.
func Build(entry library.Entry, inst map[string]any, src address.AssetURL) (Definition, error) {
	kind, ok := KindForSection(entry.Section)
	if !ok {
		return nil, fmt.Errorf("%w: library section %q", ErrBadValue, entry.Section)
	}

	switch kind {
	case KindGeometry:
		return BuildGeometry(entry.Data, inst, src)
	case KindImage:
		return BuildImage(entry.Data, inst, src)
	case KindMaterial:
		return BuildMaterial(entry.Data, inst, src)
	case KindModifier:
		return BuildModifier(entry.Data, inst, src)
	case KindNode:
		return BuildNode(entry.Data, inst, src)
	case KindUVSet:
		return BuildUVSet(entry.Data, inst, src)
	}
	return nil, fmt.Errorf("%w: asset kind %q", ErrBadValue, kind)
}
