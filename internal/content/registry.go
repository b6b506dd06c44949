// Package content manages the ordered set of content roots that DSON
// root-relative paths are searched under.
package content

import (
	"errors"
	"fmt"
	"path"
	"strings"
	"sync"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
)

// ErrNotFound is returned when no registered root contains a path.
var ErrNotFound = errors.New("path not found in any content root")

// Location is a resolved file position: which root matched and the
// relative path inside it. Key is stable across lookups and keys the
// document cache.
type Location struct {
	FS   billy.Filesystem
	Root string // registry name of the matching root
	Path string // root-relative path, no leading slash
}

// Key returns the cache key identifying this file on disk.
func (l Location) Key() string {
	return l.Root + "::" + l.Path
}

// Registry is an ordered list of content roots. Registration order is
// significant: the first registered root containing a relative path wins,
// so lookups are deterministic even when several roots carry the same
// file. Reads are safe for concurrent use; hosts that mutate roots while
// resolutions are in flight get memory safety but no stronger ordering
// guarantee.
type Registry struct {
	mu    sync.RWMutex
	roots []contentRoot
}

type contentRoot struct {
	name string
	fs   billy.Filesystem
}

func NewRegistry() *Registry {
	return &Registry{}
}

// AddDirectory registers an on-disk directory as a content root.
// Registering the same directory twice is a no-op.
func (r *Registry) AddDirectory(dir string) {
	r.AddFS(dir, osfs.New(dir))
}

// AddFS registers an arbitrary filesystem as a content root under the
// given name. Tests use billy memfs roots through this.
func (r *Registry) AddFS(name string, fs billy.Filesystem) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, root := range r.roots {
		if root.name == name {
			return
		}
	}
	r.roots = append(r.roots, contentRoot{name: name, fs: fs})
}

// Clear removes every registered root.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.roots = nil
}

// Directories returns the names of all registered roots in registration
// order.
func (r *Registry) Directories() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, len(r.roots))
	for i, root := range r.roots {
		names[i] = root.name
	}
	return names
}

// Resolve maps a root-relative DSON path to the first registered root
// that contains it. Returns ErrNotFound when no root matches.
func (r *Registry) Resolve(relPath string) (Location, error) {
	rel := normalize(relPath)
	if rel == "" {
		return Location{}, fmt.Errorf("%w: empty path", ErrNotFound)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, root := range r.roots {
		if _, err := root.fs.Stat(rel); err == nil {
			return Location{FS: root.fs, Root: root.name, Path: rel}, nil
		}
	}
	return Location{}, fmt.Errorf("%w: %q (searched %d roots)", ErrNotFound, relPath, len(r.roots))
}

// Documents lists the root-relative paths of all DSF files directly
// inside the given relative directory, resolved against the first root
// that contains it.
func (r *Registry) Documents(relDir string) ([]string, error) {
	loc, err := r.Resolve(relDir)
	if err != nil {
		return nil, err
	}

	entries, err := loc.FS.ReadDir(loc.Path)
	if err != nil {
		return nil, fmt.Errorf("read content directory %q: %w", relDir, err)
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if !strings.EqualFold(path.Ext(entry.Name()), ".dsf") {
			continue
		}
		paths = append(paths, "/"+path.Join(loc.Path, entry.Name()))
	}
	return paths, nil
}

// normalize strips the leading slash and collapses dot segments so the
// path can be handed directly to a billy filesystem.
func normalize(p string) string {
	cleaned := path.Clean("/" + strings.ReplaceAll(p, `\`, "/"))
	return strings.TrimPrefix(cleaned, "/")
}
