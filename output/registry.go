// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package output

import (
	"cmp"
	"errors"
	"slices"
	"sync"
)

// PlatformFactory opens a presentation platform.
type PlatformFactory func() (Platform, error)

// RegistryEntry is a registered platform variant.
type RegistryEntry struct {
	// Name is the unique identifier of the variant.
	Name string

	// Priority determines selection order (higher = preferred).
	//   - 100: display-server platforms
	//   - 10: headless simulation
	Priority int

	// Factory opens the platform.
	Factory PlatformFactory

	// Available reports whether the variant can run on this system.
	Available func() bool
}

var globalRegistry = NewRegistry()

// Registry holds platform variants by name.
//
// Variants register themselves from init:
//
//	func init() {
//	    output.Register("x11", 100, openX11, x11Available)
//	}
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*RegistryEntry
}

// NewRegistry creates an empty registry.
// Most code should use the global registry via Register and NewPlatform.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]*RegistryEntry)}
}

// Register adds a variant to the global registry. A nil available means
// always available. Registering an existing name replaces it.
func Register(name string, priority int, factory PlatformFactory, available func() bool) {
	globalRegistry.Register(name, priority, factory, available)
}

// Unregister removes a variant from the global registry.
func Unregister(name string) {
	globalRegistry.Unregister(name)
}

// Available returns the names of available variants, preferred first.
func Available() []string {
	return globalRegistry.Available()
}

// NewPlatform opens the most preferred available platform.
func NewPlatform() (Platform, error) {
	return globalRegistry.NewPlatform()
}

// NewPlatformByName opens the named platform.
func NewPlatformByName(name string) (Platform, error) {
	return globalRegistry.NewPlatformByName(name)
}

// Register adds a variant to r.
func (r *Registry) Register(name string, priority int, factory PlatformFactory, available func() bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if available == nil {
		available = func() bool { return true }
	}
	r.entries[name] = &RegistryEntry{
		Name:      name,
		Priority:  priority,
		Factory:   factory,
		Available: available,
	}
}

// Unregister removes a variant from r.
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.entries, name)
}

// List returns all registered names, preferred first.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.sortedNames(false)
}

// Available returns the names of available variants, preferred first.
func (r *Registry) Available() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.sortedNames(true)
}

// NewPlatform opens the most preferred available platform, falling back to
// the next one if opening fails.
func (r *Registry) NewPlatform() (Platform, error) {
	r.mu.RLock()
	names := r.sortedNames(true)
	r.mu.RUnlock()

	if len(names) == 0 {
		return nil, ErrNoPlatformAvailable
	}

	var errs []error
	for _, name := range names {
		p, err := r.NewPlatformByName(name)
		if err == nil {
			return p, nil
		}
		errs = append(errs, err)
	}
	return nil, errors.Join(errs...)
}

// NewPlatformByName opens the named platform.
func (r *Registry) NewPlatformByName(name string) (Platform, error) {
	r.mu.RLock()
	entry, ok := r.entries[name]
	r.mu.RUnlock()

	if !ok {
		return nil, &PlatformNotFoundError{Name: name}
	}
	if !entry.Available() {
		return nil, &PlatformUnavailableError{Name: name}
	}
	return entry.Factory()
}

// sortedNames must be called with r.mu held.
func (r *Registry) sortedNames(onlyAvailable bool) []string {
	entries := make([]*RegistryEntry, 0, len(r.entries))
	for _, e := range r.entries {
		if onlyAvailable && !e.Available() {
			continue
		}
		entries = append(entries, e)
	}
	slices.SortFunc(entries, func(a, b *RegistryEntry) int {
		if c := cmp.Compare(b.Priority, a.Priority); c != 0 {
			return c
		}
		return cmp.Compare(a.Name, b.Name)
	})

	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.Name
	}
	return names
}

// ErrNoPlatformAvailable is returned when no platform variant is registered
// or available.
var ErrNoPlatformAvailable = errors.New("output: no platform available")

// PlatformNotFoundError indicates a named platform is not registered.
type PlatformNotFoundError struct {
	Name string
}

func (e *PlatformNotFoundError) Error() string {
	return "output: platform not found: " + e.Name
}

// PlatformUnavailableError indicates a platform is registered but cannot run.
type PlatformUnavailableError struct {
	Name string
}

func (e *PlatformUnavailableError) Error() string {
	return "output: platform unavailable: " + e.Name
}
