package cache

import (
	"time"

	"github.com/ppiankov/clauseflag/internal/model"
)

// Layered checks memory first, then disk, promoting disk hits.
type Layered struct {
	memory Store
	disk   Store
}

// NewLayered creates a memory-over-disk store.
func NewLayered(memoryTTL time.Duration, diskDir string, diskTTL time.Duration) *Layered {
	return &Layered{
		memory: NewMemoryStore(memoryTTL, 10*time.Minute),
		disk:   NewDiskStore(diskDir, diskTTL),
	}
}

func (c *Layered) Load(key string) (*model.Matrix, bool) {
	if m, found := c.memory.Load(key); found {
		return m, true
	}

	if m, found := c.disk.Load(key); found {
		_ = c.memory.Save(key, m)
		return m, true
	}

	return nil, false
}

func (c *Layered) Save(key string, m *model.Matrix) error {
	if err := c.memory.Save(key, m); err != nil {
		return err
	}
	return c.disk.Save(key, m)
}

func (c *Layered) Delete(key string) error {
	_ = c.memory.Delete(key)
	return c.disk.Delete(key)
}

func (c *Layered) Clear() error {
	_ = c.memory.Clear()
	return c.disk.Clear()
}
