package dson

import (
	"context"
	"fmt"

	"github.com/go-git/go-billy/v5"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/agentic-research/dson/internal/address"
	"github.com/agentic-research/dson/internal/asset"
	"github.com/agentic-research/dson/internal/content"
	"github.com/agentic-research/dson/internal/document"
	"github.com/agentic-research/dson/internal/library"
	"github.com/agentic-research/dson/internal/scene"
)

// Loader is the host-facing entry point: a content-root registry, a
// document cache, and a bounded cache of built definitions. A Loader is
// safe for concurrent use by multiple goroutines issuing independent
// loads; hosts that mutate content roots mid-resolution must serialize
// that themselves.
type Loader struct {
	registry *content.Registry
	cache    *document.Cache
	defs     *lru.Cache[string, asset.Definition]

	onStructCreated func(def Definition, url AssetURL)
}

// New creates a Loader. The zero configuration resolves nothing until a
// content directory is registered.
func New(opts ...Option) (*Loader, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	registry := content.NewRegistry()
	cache := document.NewCache(registry)
	cache.SetFailureCaching(cfg.cacheFailures)
	cache.SetObservers(cfg.onFileOpened, func(doc *document.Document) {
		if cfg.onFileLoaded != nil {
			cfg.onFileLoaded(doc.Path, doc.Root)
		}
	})

	defs, err := lru.New[string, asset.Definition](cfg.definitionCacheSize)
	if err != nil {
		return nil, fmt.Errorf("definition cache: %w", err)
	}

	return &Loader{
		registry:        registry,
		cache:           cache,
		defs:            defs,
		onStructCreated: cfg.onStructCreated,
	}, nil
}

// AddContentDirectory registers an on-disk directory as a content root.
// Roots are searched in registration order and the first root containing
// a relative path wins; registration order is therefore significant.
func (l *Loader) AddContentDirectory(path string) {
	l.registry.AddDirectory(path)
}

// AddContentFS registers an arbitrary billy filesystem as a content
// root under the given name.
func (l *Loader) AddContentFS(name string, fs billy.Filesystem) {
	l.registry.AddFS(name, fs)
}

// ClearContentDirectories removes every registered content root.
func (l *Loader) ClearContentDirectories() {
	l.registry.Clear()
}

// ContentDirectories returns the registered roots in search order.
func (l *Loader) ContentDirectories() []string {
	return l.registry.Directories()
}

// Documents lists the root-relative paths of the DSF files directly
// inside a relative content directory.
func (l *Loader) Documents(relDir string) ([]string, error) {
	return l.registry.Documents(relDir)
}

// ClearCache discards all cached documents and built definitions.
// Subsequent loads re-read from disk.
func (l *Loader) ClearCache() {
	l.cache.Clear()
	l.defs.Purge()
}

// CreateAssetStruct resolves a URL of the form
// "/data/path/to/File.dsf#fragment" into a typed, immutable asset
// definition. Errors are fatal for this call only and never leave a
// partially built definition behind.
func (l *Loader) CreateAssetStruct(ctx context.Context, url string) (Definition, error) {
	u, err := address.Parse(url)
	if err != nil {
		return nil, err
	}
	if !u.HasFilePath() {
		return nil, fmt.Errorf("%w: %q has no file path to resolve against", address.ErrMalformed, url)
	}
	if !u.HasFragment() {
		return nil, fmt.Errorf("%w: %q does not name a library entry", address.ErrMalformed, url)
	}
	return l.resolveDefinition(ctx, u, nil)
}

// CreateSceneGraph loads the scene document at the given URL and
// composes it into an asset graph. Failures of individual instances are
// partial: they are recorded on the graph's error list, their subtrees
// omitted, and sibling subtrees still resolve. The returned error is
// non-nil only for failures of the scene document itself.
func (l *Loader) CreateSceneGraph(ctx context.Context, url string) (*Graph, error) {
	u, err := address.Parse(url)
	if err != nil {
		return nil, err
	}
	if !u.HasFilePath() {
		return nil, fmt.Errorf("%w: %q has no file path", address.ErrMalformed, url)
	}

	doc, err := l.cache.Load(ctx, u.FilePath)
	if err != nil {
		return nil, err
	}
	return scene.Compose(ctx, doc, l.resolveDefinition)
}

// ExtractProperty fetches a single raw value by URL. With a fragment
// ("File.dsf#id?channel/current_value") the property path is relative to
// the library entry; without one it is relative to the document root.
func (l *Loader) ExtractProperty(ctx context.Context, url string) (any, error) {
	u, err := address.Parse(url)
	if err != nil {
		return nil, err
	}
	if !u.HasFilePath() {
		return nil, fmt.Errorf("%w: %q has no file path", address.ErrMalformed, url)
	}

	doc, err := l.cache.Load(ctx, u.FilePath)
	if err != nil {
		return nil, err
	}

	if u.HasFragment() {
		entry, err := library.Find(doc, u.AssetID)
		if err != nil {
			return nil, err
		}
		if len(u.PropertyPath) == 0 {
			return entry.Data, nil
		}
		return library.ExtractFrom(entry.Data, u.PropertyPath, doc.Path)
	}
	if len(u.PropertyPath) == 0 {
		return doc.Root, nil
	}
	return library.ExtractProperty(doc, u.PropertyPath)
}

// AssetIDs returns the id of every entry in one library section of the
// document at the given URL.
func (l *Loader) AssetIDs(ctx context.Context, url string, section string) ([]string, error) {
	u, err := address.Parse(url)
	if err != nil {
		return nil, err
	}
	if !u.HasFilePath() {
		return nil, fmt.Errorf("%w: %q has no file path", address.ErrMalformed, url)
	}
	doc, err := l.cache.Load(ctx, u.FilePath)
	if err != nil {
		return nil, err
	}
	return library.IDs(doc, section)
}

// resolveDefinition is the shared resolution path: registry → document
// cache → library extractor → struct builder. Plain definition builds
// (no instance overlay) are memoized in the lru cache; instance-flavored
// builds are cheap relative to parsing and built fresh.
func (l *Loader) resolveDefinition(ctx context.Context, u address.AssetURL, inst map[string]any) (asset.Definition, error) {
	cacheable := inst == nil
	key := u.FilePath + "#" + u.AssetID
	if cacheable {
		if def, ok := l.defs.Get(key); ok {
			return def, nil
		}
	}

	doc, err := l.cache.Load(ctx, u.FilePath)
	if err != nil {
		return nil, err
	}
	entry, err := library.Find(doc, u.AssetID)
	if err != nil {
		return nil, err
	}
	def, err := asset.Build(entry, inst, u)
	if err != nil {
		return nil, err
	}
	if l.onStructCreated != nil {
		l.onStructCreated(def, u)
	}

	if cacheable {
		l.defs.Add(key, def)
	}
	return def, nil
}
