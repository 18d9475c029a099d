// Package cache keeps parsed clause matrices so a workbook is read once per
// change instead of once per scanned document.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ppiankov/clauseflag/internal/model"
)

// Store holds parsed matrices by key.
type Store interface {
	Load(key string) (*model.Matrix, bool)
	Save(key string, m *model.Matrix) error
	Delete(key string) error
	Clear() error
}

// keyPrefix is bumped whenever the extraction rules change shape.
const keyPrefix = "clauseflag:v1:"

// Key fingerprints a workbook together with the extraction settings. Any
// change to the file (size or mtime) or to the settings yields a new key.
func Key(path string, excludedSheets, labels []string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", path, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", err
	}

	h := sha256.New()
	fmt.Fprintf(h, "%s\x00%d\x00%d\x00", abs, info.Size(), info.ModTime().UnixNano())
	fmt.Fprintf(h, "%s\x00", strings.Join(excludedSheets, "\x1f"))
	fmt.Fprintf(h, "%s", strings.Join(labels, "\x1f"))
	return keyPrefix + hex.EncodeToString(h.Sum(nil)), nil
}

// Nop never stores anything. Used when caching is disabled.
type Nop struct{}

func (Nop) Load(string) (*model.Matrix, bool) { return nil, false }
func (Nop) Save(string, *model.Matrix) error  { return nil }
func (Nop) Delete(string) error               { return nil }
func (Nop) Clear() error                      { return nil }

// New builds the store described by cfg.
func New(cfg model.CacheConfig) Store {
	if !cfg.Enabled {
		return Nop{}
	}
	return NewLayered(cfg.MemoryTTL, cfg.Dir, cfg.DiskTTL)
}
