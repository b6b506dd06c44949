// Package document loads and caches parsed DSON documents.
//
// A document is parsed at most once per cache lifetime, keyed by its
// resolved location. Concurrent first requests for the same file are
// coalesced so exactly one read and parse executes and every caller
// shares the same immutable result.
package document

import (
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"github.com/ohler55/ojg/oj"
	"golang.org/x/sync/singleflight"

	"github.com/agentic-research/dson/internal/content"
)

var (
	// ErrIO is returned when a document cannot be opened or read.
	ErrIO = errors.New("document read failed")
	// ErrSyntax is returned when a document is not valid JSON.
	ErrSyntax = errors.New("document is not valid JSON")
)

// Document is one parsed DSON file. The value tree under Root is shared
// by every consumer and must be treated as read-only.
type Document struct {
	// Path is the root-relative DSON path the document was requested by.
	Path string
	// Key identifies the resolved file (content root + relative path).
	Key string
	// Root is the generic parsed value tree: map[string]any, []any,
	// string, float64/int64, bool, nil.
	Root any
}

// OpenedFunc observes the raw (decompressed) bytes of a file just after
// it is read, before parsing.
type OpenedFunc func(path string, raw []byte)

// LoadedFunc observes a document just after it is parsed.
type LoadedFunc func(doc *Document)

// Cache resolves root-relative paths through a content registry and
// memoizes the parsed documents. It never evicts on its own; Clear
// discards everything for hosts that need to reload changed content.
type Cache struct {
	registry      *content.Registry
	cacheFailures bool
	onOpened      OpenedFunc
	onLoaded      LoadedFunc

	mu       sync.RWMutex
	docs     map[string]*Document
	failures map[string]error

	group  singleflight.Group
	parses atomic.Int64
}

func NewCache(registry *content.Registry) *Cache {
	return &Cache{
		registry: registry,
		docs:     make(map[string]*Document),
		failures: make(map[string]error),
	}
}

// SetFailureCaching controls whether read/parse failures are memoized.
// Off by default so transient I/O errors are retried on the next call.
func (c *Cache) SetFailureCaching(enabled bool) { c.cacheFailures = enabled }

// SetObservers installs optional load callbacks. Must be called before
// the first Load.
func (c *Cache) SetObservers(opened OpenedFunc, loaded LoadedFunc) {
	c.onOpened = opened
	c.onLoaded = loaded
}

// Load returns the parsed document at the given root-relative path,
// reading and parsing it on first use. Safe for concurrent use.
func (c *Cache) Load(ctx context.Context, relPath string) (*Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	loc, err := c.registry.Resolve(relPath)
	if err != nil {
		return nil, err
	}
	key := loc.Key()

	c.mu.RLock()
	doc, ok := c.docs[key]
	ferr := c.failures[key]
	c.mu.RUnlock()
	if ok {
		return doc, nil
	}
	if ferr != nil {
		return nil, ferr
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		// A racing caller may have completed while we queued.
		c.mu.RLock()
		doc, ok := c.docs[key]
		c.mu.RUnlock()
		if ok {
			return doc, nil
		}

		doc, parseErr := c.parse(loc, relPath)
		c.mu.Lock()
		defer c.mu.Unlock()
		if parseErr != nil {
			if c.cacheFailures {
				c.failures[key] = parseErr
			}
			return nil, parseErr
		}
		c.docs[key] = doc
		return doc, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Document), nil
}

// Clear discards all cached documents and memoized failures.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.docs = make(map[string]*Document)
	c.failures = make(map[string]error)
}

// Parses reports how many underlying read+parse operations have run.
func (c *Cache) Parses() int64 { return c.parses.Load() }

func (c *Cache) parse(loc content.Location, relPath string) (*Document, error) {
	c.parses.Add(1)

	f, err := loc.FS.Open(loc.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: open %q: %v", ErrIO, relPath, err)
	}
	defer func() { _ = f.Close() }()

	raw, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("%w: read %q: %v", ErrIO, relPath, err)
	}

	text, err := inflate(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: decompress %q: %v", ErrIO, relPath, err)
	}

	if c.onOpened != nil {
		c.onOpened(relPath, text)
	}

	root, err := oj.Parse(text)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrSyntax, relPath, err)
	}

	doc := &Document{Path: relPath, Key: loc.Key(), Root: root}
	if c.onLoaded != nil {
		c.onLoaded(doc)
	}
	return doc, nil
}

// inflate transparently decompresses gzip-packed DSF files. Vendors ship
// both plain-text and gzipped documents under the same extension.
func inflate(raw []byte) ([]byte, error) {
	if len(raw) < 2 || raw[0] != 0x1f || raw[1] != 0x8b {
		return raw, nil
	}
	zr, err := gzip.NewReader(bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}
	defer func() { _ = zr.Close() }()
	return io.ReadAll(zr)
}
