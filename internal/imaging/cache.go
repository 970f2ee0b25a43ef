package imaging

import (
	"image"
	"sync"
)

// IconCache provides thread-safe caching of decoded icon images to avoid
// redundant disk reads when the template store reloads.
//
// The cache stores decoded image.Image objects keyed by file path. Once an
// icon is loaded, subsequent Load() calls for the same path return the
// cached copy without disk I/O.
//
// Cached images remain in memory until explicitly removed via Evict() or
// Clear(). The template store clears the cache on Reset().
type IconCache struct {
	mu     sync.RWMutex
	images map[string]image.Image
}

// NewIconCache creates an empty cache ready for concurrent use.
func NewIconCache() *IconCache {
	return &IconCache{images: make(map[string]image.Image)}
}

// Load retrieves an icon from the cache or decodes it from disk if absent.
//
// The image is cached using the exact path string provided; relative and
// absolute paths to the same file produce separate entries.
func (c *IconCache) Load(path string) (image.Image, error) {
	c.mu.RLock()
	if img, ok := c.images[path]; ok {
		c.mu.RUnlock()
		return img, nil
	}
	c.mu.RUnlock()

	img, err := DecodeFile(path)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.images[path] = img
	c.mu.Unlock()

	return img, nil
}

// Clear removes all icons from the cache, freeing the associated memory.
func (c *IconCache) Clear() {
	c.mu.Lock()
	c.images = make(map[string]image.Image)
	c.mu.Unlock()
}

// Evict removes a specific icon by its path. Unknown paths are ignored.
func (c *IconCache) Evict(path string) {
	c.mu.Lock()
	delete(c.images, path)
	c.mu.Unlock()
}
