package dson

import (
	"github.com/agentic-research/dson/internal/address"
	"github.com/agentic-research/dson/internal/asset"
	"github.com/agentic-research/dson/internal/scene"
)

// Aliases exposing the internal types a host works with.

type (
	// AssetURL is a parsed DSON URL.
	AssetURL = address.AssetURL

	// Definition is the closed union over the six asset kinds.
	Definition = asset.Definition
	Kind       = asset.Kind

	Geometry = asset.Geometry
	Image    = asset.Image
	Material = asset.Material
	Modifier = asset.Modifier
	Node     = asset.Node
	UVSet    = asset.UVSet

	Channel       = asset.Channel
	ChannelVector = asset.ChannelVector
	Vector        = asset.Vector
	Polygon       = asset.Polygon
	Region        = asset.Region
	Graft         = asset.Graft
	SkinBinding   = asset.SkinBinding
	Morph         = asset.Morph
	Formula       = asset.Formula

	NodeType      = asset.NodeType
	GeometryType  = asset.GeometryType
	RotationOrder = asset.RotationOrder

	// Graph is a composed scene: resolved instances plus the errors of
	// instances that could not be resolved.
	Graph         = scene.Graph
	Instance      = scene.Instance
	InstanceError = scene.InstanceError
	CycleError    = scene.CycleError
)

const (
	KindGeometry = asset.KindGeometry
	KindImage    = asset.KindImage
	KindMaterial = asset.KindMaterial
	KindModifier = asset.KindModifier
	KindNode     = asset.KindNode
	KindUVSet    = asset.KindUVSet
)

// ParseAssetURL parses a DSON-formatted URL string. Pure; no I/O.
func ParseAssetURL(raw string) (AssetURL, error) {
	return address.Parse(raw)
}
