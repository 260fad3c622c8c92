// SPDX-License-Identifier: MPL-2.0

package cakemod

import (
	"fmt"
	"io/fs"
	"slices"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/cakedeps/cakedeps/pkg/types"
)

// DefaultCacheSize bounds the number of files a DeclCache remembers.
const DefaultCacheSize = 4096

type (
	// DeclCache remembers the parsed declaration of files across resolutions so
	// that repeated builds (watch mode) only re-read files that changed. An
	// entry is reused only when the file's size and modification time are
	// unchanged and it was parsed with the same scheme and strictness.
	// DeclCache is safe for concurrent use.
	DeclCache struct {
		entries *lru.Cache[string, cachedDecl]
	}

	cachedDecl struct {
		size    int64
		modTime time.Time
		scheme  string
		strict  bool
		refs    []ModuleRef
	}
)

// NewDeclCache creates a cache holding at most size entries.
func NewDeclCache(size int) (*DeclCache, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	entries, err := lru.New[string, cachedDecl](size)
	if err != nil {
		return nil, fmt.Errorf("create declaration cache: %w", err)
	}
	return &DeclCache{entries: entries}, nil
}

// Len returns the number of cached files.
func (c *DeclCache) Len() int {
	return c.entries.Len()
}

// Forget drops the entry for path, so its next read parses the file again
// whatever its size and modification time. Watch mode calls it for every
// reported change, since coarse timestamps can hide a same-length edit.
func (c *DeclCache) Forget(path types.FilesystemPath) {
	c.entries.Remove(identity(path))
}

func (c *DeclCache) lookup(key string, info fs.FileInfo, scheme string, strict bool) ([]ModuleRef, bool) {
	entry, ok := c.entries.Get(key)
	if !ok {
		return nil, false
	}
	if entry.size != info.Size() || !entry.modTime.Equal(info.ModTime()) || entry.scheme != scheme || entry.strict != strict {
		c.entries.Remove(key)
		return nil, false
	}
	return slices.Clone(entry.refs), true
}

func (c *DeclCache) store(key string, info fs.FileInfo, scheme string, strict bool, refs []ModuleRef) {
	c.entries.Add(key, cachedDecl{
		size:    info.Size(),
		modTime: info.ModTime(),
		scheme:  scheme,
		strict:  strict,
		refs:    slices.Clone(refs),
	})
}
