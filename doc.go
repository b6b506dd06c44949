// Package dson loads DSON scene-description files into validated, typed
// in-memory assets.
//
// DSON is a JSON dialect used to distribute 3D content: reusable library
// definitions (geometry, images, materials, modifiers, nodes, UV sets)
// spread across many files under registered content roots, referenced by
// URL plus fragment, and composed by scene files that layer property
// overrides on top of the definitions they reference.
//
// The entry point is a Loader:
//
//	loader, _ := dson.New()
//	loader.AddContentDirectory("/home/user/daz/content")
//
//	def, err := loader.CreateAssetStruct(ctx, "/data/Vendor/Figure.dsf#hip")
//	graph, err := loader.CreateSceneGraph(ctx, "/scenes/MyScene.duf")
//
// Documents are parsed at most once per Loader and definitions are
// immutable once built, so both are shared freely across goroutines.
// Scene composition is partial-failure: unresolvable instances are
// reported on the graph's error list while their siblings resolve.
package dson
