package hexgrid

import (
	"encoding/binary"
	"fmt"
	"hash/fnv"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sells-group/hexzone/internal/geo"
)

// GridCache is a concurrent-safe LRU cache of boundary-filtered grids with
// optional TTL expiration.
type GridCache struct {
	mu         sync.RWMutex
	entries    map[string]*gridCacheEntry
	order      []string // LRU order: front=oldest, back=newest
	maxEntries int
	ttl        time.Duration // zero disables expiration
	hits       atomic.Int64
	misses     atomic.Int64
}

type gridCacheEntry struct {
	tiles     []Tile
	createdAt time.Time
}

// CacheStats contains cache performance statistics.
type CacheStats struct {
	Entries    int     `json:"entries"`
	MaxEntries int     `json:"max_entries"`
	Hits       int64   `json:"hits"`
	Misses     int64   `json:"misses"`
	HitRate    float64 `json:"hit_rate"`
}

// GridKey identifies one unfiltered grid. Scope names the projection (for
// example the camera string) and Boundary fingerprints the clipping polygon;
// grids that differ in either never mix.
type GridKey struct {
	Scope    string
	Boundary string
	Viewport Viewport
	HexSize  float64
}

func (k GridKey) String() string {
	return fmt.Sprintf("%s|%s|%gx%g|%g", k.Scope, k.Boundary, k.Viewport.Width, k.Viewport.Height, k.HexSize)
}

// BoundaryFingerprint hashes the exact vertex coordinates of p. Equal rings
// share a fingerprint.
func BoundaryFingerprint(p geo.Polygon) string {
	h := fnv.New64a()
	var buf [16]byte
	for _, v := range p {
		binary.LittleEndian.PutUint64(buf[:8], math.Float64bits(v.Lat))
		binary.LittleEndian.PutUint64(buf[8:], math.Float64bits(v.Lon))
		_, _ = h.Write(buf[:])
	}
	return fmt.Sprintf("%d:%016x", len(p), h.Sum64())
}

// NewGridCache creates a cache holding at most maxEntries grids.
func NewGridCache(maxEntries int, ttl time.Duration) *GridCache {
	if maxEntries < 1 {
		maxEntries = 1
	}
	return &GridCache{
		entries:    make(map[string]*gridCacheEntry),
		maxEntries: maxEntries,
		ttl:        ttl,
	}
}

// Get retrieves a cached grid. ok is false on miss or expiration.
func (c *GridCache) Get(key GridKey) (tiles []Tile, ok bool) {
	k := key.String()

	c.mu.Lock()
	defer c.mu.Unlock()

	entry, found := c.entries[k]
	if !found {
		c.misses.Add(1)
		return nil, false
	}

	if c.ttl > 0 && time.Since(entry.createdAt) > c.ttl {
		delete(c.entries, k)
		c.removeFromOrder(k)
		c.misses.Add(1)
		return nil, false
	}

	c.removeFromOrder(k)
	c.order = append(c.order, k)
	c.hits.Add(1)
	return entry.tiles, true
}

// Put stores a grid, evicting the least recently used entry at capacity.
func (c *GridCache) Put(key GridKey, tiles []Tile) {
	k := key.String()

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.entries[k]; ok {
		c.entries[k] = &gridCacheEntry{tiles: tiles, createdAt: time.Now()}
		c.removeFromOrder(k)
		c.order = append(c.order, k)
		return
	}

	for len(c.entries) >= c.maxEntries && len(c.order) > 0 {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.entries, oldest)
	}

	c.entries[k] = &gridCacheEntry{tiles: tiles, createdAt: time.Now()}
	c.order = append(c.order, k)
}

// Stats returns cache performance statistics.
func (c *GridCache) Stats() CacheStats {
	c.mu.RLock()
	entries := len(c.entries)
	maxEntries := c.maxEntries
	c.mu.RUnlock()

	hits := c.hits.Load()
	misses := c.misses.Load()

	var hitRate float64
	if total := hits + misses; total > 0 {
		hitRate = float64(hits) / float64(total)
	}

	return CacheStats{
		Entries:    entries,
		MaxEntries: maxEntries,
		Hits:       hits,
		Misses:     misses,
		HitRate:    hitRate,
	}
}

func (c *GridCache) removeFromOrder(key string) {
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			return
		}
	}
}
