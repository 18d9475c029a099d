package cache

import (
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/ppiankov/clauseflag/internal/model"
)

// MemoryStore keeps matrices in process memory. Returned matrices are
// shared and must be treated as read-only.
type MemoryStore struct {
	cache *gocache.Cache
}

// NewMemoryStore creates a memory store with the given expiry.
func NewMemoryStore(ttl time.Duration, cleanupInterval time.Duration) *MemoryStore {
	return &MemoryStore{
		cache: gocache.New(ttl, cleanupInterval),
	}
}

func (c *MemoryStore) Load(key string) (*model.Matrix, bool) {
	if val, found := c.cache.Get(key); found {
		return val.(*model.Matrix), true
	}
	return nil, false
}

func (c *MemoryStore) Save(key string, m *model.Matrix) error {
	c.cache.Set(key, m, gocache.DefaultExpiration)
	return nil
}

func (c *MemoryStore) Delete(key string) error {
	c.cache.Delete(key)
	return nil
}

func (c *MemoryStore) Clear() error {
	c.cache.Flush()
	return nil
}

// Len returns the number of unexpired entries.
func (c *MemoryStore) Len() int {
	return c.cache.ItemCount()
}
