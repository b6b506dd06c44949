package dson

import (
	"github.com/agentic-research/dson/internal/address"
	"github.com/agentic-research/dson/internal/asset"
	"github.com/agentic-research/dson/internal/content"
	"github.com/agentic-research/dson/internal/document"
	"github.com/agentic-research/dson/internal/library"
	"github.com/agentic-research/dson/internal/scene"
)

// The full error taxonomy, re-exported for errors.Is matching. Every
// error returned by a Loader wraps exactly one of these.
var (
	// ErrMalformedURL: the URL string could not be parsed.
	ErrMalformedURL = address.ErrMalformed
	// ErrNotFound: no registered content root contains the path.
	ErrNotFound = content.ErrNotFound
	// ErrIO: the file could not be opened, read, or decompressed.
	ErrIO = document.ErrIO
	// ErrSyntax: the file is not valid JSON.
	ErrSyntax = document.ErrSyntax
	// ErrFragmentNotFound: no library entry carries the fragment id.
	ErrFragmentNotFound = library.ErrFragmentNotFound
	// ErrDuplicateFragment: the fragment id appears in more than one
	// library entry of one document.
	ErrDuplicateFragment = library.ErrDuplicateFragment
	// ErrSectionNotFound: the document lacks the requested library
	// section.
	ErrSectionNotFound = library.ErrSectionNotFound
	// ErrPropertyNotFound: a property path matched nothing.
	ErrPropertyNotFound = library.ErrPropertyNotFound
	// ErrMissingField: a library entry lacks a required field.
	ErrMissingField = asset.ErrMissingField
	// ErrMalformedGeometry: structurally invalid geometry data.
	ErrMalformedGeometry = asset.ErrMalformedGeometry
	// ErrIndexOutOfBounds: an index references past the end of its
	// target array.
	ErrIndexOutOfBounds = asset.ErrIndexOutOfBounds
	// ErrBadValue: a field value is outside the allowed set.
	ErrBadValue = asset.ErrBadValue
	// ErrSceneMissing: the document given to CreateSceneGraph has no
	// scene object.
	ErrSceneMissing = scene.ErrSceneMissing
	// ErrCyclicReference: an instance's parent chain loops. The concrete
	// error is a *CycleError naming the cycle.
	ErrCyclicReference = scene.ErrCyclicReference
	// ErrDanglingParent: an instance's declared parent exists nowhere in
	// the scene.
	ErrDanglingParent = scene.ErrDanglingParent
)
