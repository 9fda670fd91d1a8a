package cache

// Option configures the in-memory cache.
type Option func(*inMemoryCache)

// WithMaxEntries bounds the number of stored images. Zero or less disables
// caching.
func WithMaxEntries(n int) Option {
	return func(c *inMemoryCache) {
		c.maxEntries = n
	}
}
