package dson

type config struct {
	definitionCacheSize int
	cacheFailures       bool
	onFileOpened        func(path string, raw []byte)
	onFileLoaded        func(path string, root any)
	onStructCreated     func(def Definition, url AssetURL)
}

func defaultConfig() config {
	return config{
		definitionCacheSize: 512,
	}
}

// Option configures a Loader.
type Option func(*config)

// WithDefinitionCacheSize bounds the cache of built asset definitions.
// Definitions are immutable, so a hit shares the struct; on a miss the
// definition is rebuilt from the (still cached) document.
func WithDefinitionCacheSize(n int) Option {
	return func(c *config) { c.definitionCacheSize = n }
}

// WithFailureCaching memoizes read and parse failures instead of
// retrying them on the next request. Off by default so callers recover
// from transient I/O errors; turn it on when content is guaranteed
// immutable for the process lifetime.
func WithFailureCaching(enabled bool) Option {
	return func(c *config) { c.cacheFailures = enabled }
}

// WithFileOpenedObserver installs a callback fired with the raw
// (decompressed) bytes of every file just after it is read.
func WithFileOpenedObserver(fn func(path string, raw []byte)) Option {
	return func(c *config) { c.onFileOpened = fn }
}

// WithFileLoadedObserver installs a callback fired with the parsed value
// tree of every document just after it is parsed. The tree is shared;
// observers must not mutate it.
func WithFileLoadedObserver(fn func(path string, root any)) Option {
	return func(c *config) { c.onFileLoaded = fn }
}

// WithStructCreatedObserver installs a callback fired for every freshly
// built asset definition. Cache hits do not fire it.
func WithStructCreatedObserver(fn func(def Definition, url AssetURL)) Option {
	return func(c *config) { c.onStructCreated = fn }
}
