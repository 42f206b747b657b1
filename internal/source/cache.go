// Package source provides read-through access to the files of one
// immutable source tree snapshot.
package source

import (
	"os"
	"path/filepath"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultCacheSize is the number of files kept in memory per tree.
// Header-heavy symbol universes resolve many symbols to the same file,
// so even a modest cache removes most repeated reads.
const DefaultCacheSize = 2048

// Cache is a per-run, read-through cache of file contents for a single
// source tree. It is never invalidated: the tree is treated as an
// immutable snapshot for the lifetime of the run. Construct one per
// tree and pass it explicitly; there is no process-wide instance.
type Cache struct {
	root  string
	files *lru.Cache[string, []string]
}

// NewCache creates a cache rooted at the given source tree.
func NewCache(root string, size int) (*Cache, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	files, err := lru.New[string, []string](size)
	if err != nil {
		return nil, err
	}
	return &Cache{root: root, files: files}, nil
}

// Root returns the tree root the cache reads from.
func (c *Cache) Root() string {
	return c.root
}

// Lines returns the lines of the file at the given tree-relative path.
// A missing or unreadable file yields (nil, false); that is the normal
// soft-failure path, not an error.
func (c *Cache) Lines(relPath string) ([]string, bool) {
	if lines, ok := c.files.Get(relPath); ok {
		return lines, lines != nil
	}

	data, err := os.ReadFile(filepath.Join(c.root, relPath))
	if err != nil {
		// Negative entry so repeated lookups of a vanished file stay cheap.
		c.files.Add(relPath, nil)
		return nil, false
	}

	lines := strings.Split(string(data), "\n")
	c.files.Add(relPath, lines)
	return lines, true
}
