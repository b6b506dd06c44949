// Package library locates entries inside parsed DSON documents.
//
// A DSON document groups its reusable assets into library sections
// (geometry_library, node_library, ...). Fragments address entries by id,
// and ids are expected to be unique across all sections of one file.
package library

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/ohler55/ojg/jp"

	"github.com/agentic-research/dson/internal/document"
)

var (
	// ErrFragmentNotFound is returned when no library entry has the
	// requested id.
	ErrFragmentNotFound = errors.New("fragment not found in any library section")
	// ErrDuplicateFragment is returned when the same id appears in more
	// than one library entry of a single document.
	ErrDuplicateFragment = errors.New("fragment id is not unique within document")
	// ErrSectionNotFound is returned when a document lacks a requested
	// library section.
	ErrSectionNotFound = errors.New("library section not found in document")
	// ErrPropertyNotFound is returned when a property path matches
	// nothing in the document.
	ErrPropertyNotFound = errors.New("property path not found in document")
)

// Sections lists the library arrays scanned when resolving a fragment,
// in scan order. Material libraries appear in scene files as well as
// dedicated material documents.
var Sections = []string{
	"geometry_library",
	"image_library",
	"material_library",
	"modifier_library",
	"node_library",
	"uv_set_library",
}

// Entry is one raw library entry: the section it came from plus the
// generic object tree. The data is shared with the document cache and
// must not be mutated.
type Entry struct {
	Section string
	ID      string
	Data    map[string]any
}

// Find scans every library section of doc for an entry with the given
// id. Exactly one entry must match: none is ErrFragmentNotFound, more
// than one is ErrDuplicateFragment naming both sections.
func Find(doc *document.Document, fragmentID string) (Entry, error) {
	root, ok := doc.Root.(map[string]any)
	if !ok {
		return Entry{}, fmt.Errorf("%w: %q in %s (document root is not an object)", ErrFragmentNotFound, fragmentID, doc.Path)
	}

	var found Entry
	var matched bool

	for _, section := range Sections {
		list, ok := root[section].([]any)
		if !ok {
			continue
		}
		for _, raw := range list {
			entry, ok := raw.(map[string]any)
			if !ok {
				continue
			}
			id, _ := entry["id"].(string)
			if id != fragmentID {
				continue
			}
			if matched {
				return Entry{}, fmt.Errorf("%w: %q appears in %s and %s of %s",
					ErrDuplicateFragment, fragmentID, found.Section, section, doc.Path)
			}
			found = Entry{Section: section, ID: id, Data: entry}
			matched = true
		}
	}

	if !matched {
		return Entry{}, fmt.Errorf("%w: %q in %s", ErrFragmentNotFound, fragmentID, doc.Path)
	}
	return found, nil
}

// IDs returns the id of every entry in one library section, in file
// order.
func IDs(doc *document.Document, section string) ([]string, error) {
	root, _ := doc.Root.(map[string]any)
	list, ok := root[section].([]any)
	if !ok {
		return nil, fmt.Errorf("%w: %q in %s", ErrSectionNotFound, section, doc.Path)
	}

	ids := make([]string, 0, len(list))
	for _, raw := range list {
		if entry, ok := raw.(map[string]any); ok {
			if id, ok := entry["id"].(string); ok {
				ids = append(ids, id)
			}
		}
	}
	return ids, nil
}

// ExtractProperty fetches a single value from the document by a
// pre-split property path ("scene/nodes/0/id"). Numeric tokens index
// into arrays, everything else selects object members.
func ExtractProperty(doc *document.Document, tokens []string) (any, error) {
	return ExtractFrom(doc.Root, tokens, doc.Path)
}

// ExtractFrom is ExtractProperty against an arbitrary subtree, used for
// property paths anchored at a library entry. The origin only labels
// errors.
func ExtractFrom(root any, tokens []string, origin string) (any, error) {
	if len(tokens) == 0 {
		return nil, fmt.Errorf("%w: empty property path", ErrPropertyNotFound)
	}

	x := jp.R()
	for _, token := range tokens {
		if n, err := strconv.Atoi(token); err == nil {
			x = x.N(n)
		} else {
			x = x.C(token)
		}
	}

	results := x.Get(root)
	if len(results) == 0 {
		return nil, fmt.Errorf("%w: %v in %s", ErrPropertyNotFound, tokens, origin)
	}
	return results[0], nil
}
