// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package capability caches platform capability probes.
//
// Each capability is probed at most once per Cache; both positive and
// negative results are kept, so a missing extension is not re-queried on
// every call.
package capability

import (
	"strings"
	"sync"
)

// Cache maps capability names to probe results.
//
// Cache is safe for concurrent use. It must not be copied after creation.
type Cache struct {
	mu      sync.Mutex
	entries map[string]bool
	probes  uint64
}

// New returns an empty Cache.
func New() *Cache {
	return &Cache{entries: make(map[string]bool)}
}

// Supported returns the cached result for name, calling probe on first use.
// probe runs under the cache lock so concurrent callers never probe twice.
func (c *Cache) Supported(name string, probe func() bool) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if ok, found := c.entries[name]; found {
		return ok
	}
	c.probes++
	ok := probe()
	c.entries[name] = ok
	return ok
}

// Lookup returns the cached result for name without probing.
func (c *Cache) Lookup(name string) (supported, found bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	supported, found = c.entries[name]
	return supported, found
}

// Probes returns how many probes have been run.
func (c *Cache) Probes() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.probes
}

// HasExtension reports whether the space-separated extension string exts
// advertises name. Substring matches of longer names do not count.
func HasExtension(exts, name string) bool {
	for _, e := range strings.Fields(exts) {
		if e == name {
			return true
		}
	}
	return false
}
