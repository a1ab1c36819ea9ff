package cache

import (
	"time"

	"github.com/mselser95/drops-miner/pkg/types"
)

// Cache is a TTL key/value cache.
type Cache interface {
	// Get returns the value for key and whether it was present.
	Get(key string) (interface{}, bool)

	// Set stores value for ttl. It may drop the write under memory pressure.
	Set(key string, value interface{}, ttl time.Duration) bool

	Delete(key string)
	Clear()
	Close()
}

// Directory caches game directory listings by game slug. A nil Directory, or
// one with a non-positive TTL, never holds anything.
type Directory struct {
	cache Cache
	ttl   time.Duration
}

// NewDirectory returns a directory cache backed by c.
func NewDirectory(c Cache, ttl time.Duration) *Directory {
	return &Directory{cache: c, ttl: ttl}
}

func (d *Directory) enabled() bool {
	return d != nil && d.cache != nil && d.ttl > 0
}

func directoryKey(slug string) string {
	return "directory:" + slug
}

// Get returns the cached listing for slug.
func (d *Directory) Get(slug string) (*types.GameDirectoryData, bool) {
	if !d.enabled() {
		return nil, false
	}

	value, found := d.cache.Get(directoryKey(slug))
	if !found {
		return nil, false
	}

	data, ok := value.(*types.GameDirectoryData)
	return data, ok
}

// Put stores the listing for slug.
func (d *Directory) Put(slug string, data *types.GameDirectoryData) {
	if !d.enabled() || data == nil {
		return
	}

	d.cache.Set(directoryKey(slug), data, d.ttl)
}

// Invalidate forgets the listing for slug.
func (d *Directory) Invalidate(slug string) {
	if !d.enabled() {
		return
	}

	d.cache.Delete(directoryKey(slug))
}

// TTL returns how long listings are kept.
func (d *Directory) TTL() time.Duration {
	if d == nil {
		return 0
	}
	return d.ttl
}
