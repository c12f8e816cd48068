// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package nested runs a compositor inside a host display server.
//
// The Compositor presents one logical display through several host
// surfaces. Outputs whose extents overlap share a surface; each surface is
// wrapped in a SyncGroup the compositing loop draws and posts. When the
// configuration changes, surfaces of outputs that still exist are resized in
// place and only new outputs get new surfaces.
//
//	c, err := nested.New(host, nested.WithConfigurationPolicy(nested.UseAllConnected))
//	if err != nil {
//	    return err
//	}
//	defer c.Close()
//
//	c.ForEachSyncGroup(func(g *nested.SyncGroup) {
//	    // draw, then g.Post()
//	})
package nested

import (
	"cmp"
	"errors"
	"fmt"
	"image"
	"maps"
	"slices"
	"sync"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"

	"github.com/gogpu/present"
	"github.com/gogpu/present/display"
	"github.com/gogpu/present/internal/capability"
	"github.com/gogpu/present/output"
	"github.com/gogpu/present/timing"
)

// Compositor is a nested display made of host surfaces.
//
// Configure, Close and the host change callback are serialized by one lock;
// the set of sync groups is guarded by another and is only replaced as a
// whole, so ForEachSyncGroup always sees a complete configuration.
type Compositor struct {
	host     Host
	platform output.Platform
	provider gpucontext.DeviceProvider
	policy   ConfigurationPolicy
	caps     *capability.Cache

	configMu  sync.Mutex
	config    *display.Configuration
	ctx       output.Context
	ctxFormat gputypes.TextureFormat
	closed    bool

	outputsMu sync.Mutex
	groups    map[display.OutputID]*SyncGroup
}

// New reads the host configuration, applies the configuration policy,
// hands the result back to the host if the policy changed it, and creates
// a surface for every group of overlapping outputs.
//
// Host-initiated configuration changes are absorbed by re-applying the
// policy and reconfiguring, until RegisterConfigurationChangeHandler
// installs a different handler.
func New(host Host, opts ...Option) (*Compositor, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	conf, err := host.DisplayConfig()
	if err != nil {
		return nil, fmt.Errorf("nested: read host configuration: %w", err)
	}

	c := &Compositor{
		host:     host,
		platform: host.Platform(),
		provider: o.provider,
		policy:   o.policy,
		caps:     capability.New(),
		config:   conf.Clone(),
		groups:   make(map[display.OutputID]*SyncGroup),
	}

	initial := conf.Clone()
	c.policy.Apply(initial)
	if err := c.Configure(initial); err != nil {
		_ = c.Close()
		return nil, err
	}

	c.RegisterConfigurationChangeHandler(c.reconfigureFromHost)
	return c, nil
}

func (c *Compositor) reconfigureFromHost() {
	conf := c.Configuration()
	c.policy.Apply(conf)
	if err := c.Configure(conf); err != nil {
		present.Logger().Warn("nested: host configuration rejected", "err", err)
	}
}

// Configure makes conf the active configuration.
//
// Outputs without a pixel format get the device provider's surface format.
// An invalid configuration returns an error wrapping
// present.ErrInvalidConfiguration and changes nothing. Otherwise every group
// of overlapping outputs gets a surface: the surface already keyed by the
// group's smallest output id is resized, any other group gets a new one.
// The configuration is passed to the host only if it differs from the last
// one applied.
//
// If any step fails, surfaces created by this call are destroyed, resized
// surfaces get their old area back, and the previous groups stay active.
func (c *Compositor) Configure(conf *display.Configuration) error {
	conf = c.resolveFormats(conf)
	if err := conf.Validate(); err != nil {
		return err
	}

	c.configMu.Lock()
	defer c.configMu.Unlock()

	if c.closed {
		return present.ErrClosed
	}

	c.outputsMu.Lock()
	current := c.groups
	c.outputsMu.Unlock()

	next, undo, err := c.buildGroups(conf, current)
	if err != nil {
		undo()
		return err
	}

	if !c.config.Equal(conf) {
		if err := c.host.ApplyDisplayConfig(conf); err != nil {
			undo()
			return fmt.Errorf("nested: apply configuration to host: %w", err)
		}
		c.config = conf.Clone()
	}

	c.outputsMu.Lock()
	c.groups = next
	c.outputsMu.Unlock()

	for id, g := range current {
		if n, ok := next[id]; !ok || n.surface != g.surface {
			g.surface.Destroy()
			present.Logger().Info("nested: output surface destroyed", "output", id)
		}
	}
	return nil
}

// buildGroups creates or resizes a surface for every group of conf. The
// returned undo reverts every change it made.
func (c *Compositor) buildGroups(conf *display.Configuration, current map[display.OutputID]*SyncGroup) (map[display.OutputID]*SyncGroup, func(), error) {
	type resized struct {
		surface     *output.Surface
		area        image.Rectangle
		orientation display.Orientation
	}
	var (
		created  []*output.Surface
		restored []resized
	)
	undo := func() {
		for _, s := range created {
			s.Destroy()
		}
		for _, r := range restored {
			if err := r.surface.Resize(r.area); err != nil {
				present.Logger().Warn("nested: surface restore failed", "err", err)
			}
			r.surface.SetOrientation(r.orientation)
		}
	}

	next := make(map[display.OutputID]*SyncGroup)
	for _, group := range display.GroupOverlapping(conf) {
		id := group.ID()
		first := group.Outputs[0]
		area := physicalArea(group.Bounds(), first.Orientation)
		ids := make([]display.OutputID, len(group.Outputs))
		for i, o := range group.Outputs {
			ids[i] = o.ID
		}

		if old, ok := current[id]; ok {
			prev := resized{old.surface, old.surface.Area(), old.surface.Orientation()}
			if err := old.surface.Resize(area); err != nil {
				return nil, undo, fmt.Errorf("nested: resize output %d: %w", id, err)
			}
			restored = append(restored, prev)
			old.surface.SetOrientation(first.Orientation)
			next[id] = &SyncGroup{id: id, outputs: ids, surface: old.surface}
			continue
		}

		if err := c.initContext(first.Format); err != nil {
			return nil, undo, err
		}
		ctx, err := c.platform.CreateContext(first.Format, c.ctx)
		if err != nil {
			return nil, undo, fmt.Errorf("%w: create context for output %d: %w", present.ErrContext, id, err)
		}
		native, err := c.host.CreateSurface(output.SurfaceSpec{
			Output: id,
			Size:   area.Size(),
			Format: first.Format,
			Label:  fmt.Sprintf("nested display for output #%d", id),
		})
		if err != nil {
			c.platform.DestroyContext(ctx)
			return nil, undo, fmt.Errorf("nested: create surface for output %d: %w", id, err)
		}
		s := output.New(c.platform, native, ctx, area,
			output.WithOrientation(first.Orientation),
			output.WithCapabilities(c.caps),
			output.WithOwnedContext())
		created = append(created, s)
		next[id] = &SyncGroup{id: id, outputs: ids, surface: s}
		present.Logger().Info("nested: output surface created", "output", id, "area", area)
	}
	return next, undo, nil
}

// physicalArea returns the unrotated area behind a view area.
func physicalArea(view image.Rectangle, o display.Orientation) image.Rectangle {
	if !o.Rotated() {
		return view
	}
	size := view.Size()
	return image.Rectangle{Min: view.Min, Max: view.Min.Add(image.Pt(size.Y, size.X))}
}

// initContext creates the main rendering context on first use. Every
// surface draws with its own context sharing resources with it, so each
// sync group can be current on its own thread.
// It must be called with c.configMu held.
func (c *Compositor) initContext(format gputypes.TextureFormat) error {
	if c.ctx != nil {
		return nil
	}
	ctx, err := c.platform.CreateContext(format, nil)
	if err != nil {
		return fmt.Errorf("%w: create shared context: %w", present.ErrContext, err)
	}
	c.ctx = ctx
	c.ctxFormat = format
	present.Logger().Info("nested: rendering context initialized", "format", format)
	return nil
}

func (c *Compositor) resolveFormats(conf *display.Configuration) *display.Configuration {
	if c.provider == nil {
		return conf
	}
	format := c.provider.SurfaceFormat()
	if format == gputypes.TextureFormatUndefined {
		return conf
	}
	var resolved *display.Configuration
	for i, o := range conf.Outputs {
		if o.Format != gputypes.TextureFormatUndefined {
			continue
		}
		if resolved == nil {
			resolved = conf.Clone()
		}
		resolved.Outputs[i].Format = format
	}
	if resolved == nil {
		return conf
	}
	return resolved
}

// ForEachSyncGroup calls f for every sync group in output id order. The
// groups cannot change while f runs, so f must not call Configure.
func (c *Compositor) ForEachSyncGroup(f func(g *SyncGroup)) {
	c.outputsMu.Lock()
	defer c.outputsMu.Unlock()

	for _, id := range slices.Sorted(maps.Keys(c.groups)) {
		f(c.groups[id])
	}
}

// SyncGroups returns the current sync groups in output id order.
func (c *Compositor) SyncGroups() []*SyncGroup {
	c.outputsMu.Lock()
	defer c.outputsMu.Unlock()

	groups := slices.Collect(maps.Values(c.groups))
	slices.SortFunc(groups, func(a, b *SyncGroup) int { return cmp.Compare(a.id, b.id) })
	return groups
}

// Configuration returns a copy of the configuration last applied or
// reported by the host.
func (c *Compositor) Configuration() *display.Configuration {
	c.configMu.Lock()
	defer c.configMu.Unlock()
	return c.config.Clone()
}

// RegisterConfigurationChangeHandler sets the function called after the
// host changes its configuration. Before h runs, the host configuration has
// been read back and is what Configuration returns.
func (c *Compositor) RegisterConfigurationChangeHandler(h func()) {
	c.host.SetDisplayConfigChangeCallback(func() {
		conf, err := c.host.DisplayConfig()
		if err != nil {
			present.Logger().Warn("nested: read host configuration", "err", err)
			return
		}
		c.configMu.Lock()
		closed := c.closed
		if !closed {
			c.config = conf.Clone()
		}
		c.configMu.Unlock()

		if !closed && h != nil {
			h()
		}
	})
}

// FrameClock returns the frame clock of the surface showing output id.
func (c *Compositor) FrameClock(id display.OutputID) (*timing.FrameClock, bool) {
	c.outputsMu.Lock()
	defer c.outputsMu.Unlock()

	for _, g := range c.groups {
		if slices.Contains(g.outputs, id) {
			return g.surface.FrameClock(), true
		}
	}
	return nil, false
}

// CreateGLContext creates a rendering context sharing resources with the
// compositor's context, for use on another thread. The caller releases it
// with Platform().DestroyContext.
func (c *Compositor) CreateGLContext() (output.Context, error) {
	c.configMu.Lock()
	defer c.configMu.Unlock()

	if c.closed {
		return nil, present.ErrClosed
	}
	if c.ctx == nil {
		return nil, fmt.Errorf("%w: compositor has no context", present.ErrContext)
	}
	ctx, err := c.platform.CreateContext(c.ctxFormat, c.ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: create shared context: %w", present.ErrContext, err)
	}
	return ctx, nil
}

// Platform returns the platform of the host surfaces.
func (c *Compositor) Platform() output.Platform {
	return c.platform
}

// Close destroys every surface and the main context, releasing a context
// current on the calling thread first. Close is idempotent.
func (c *Compositor) Close() error {
	c.configMu.Lock()
	defer c.configMu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true
	c.host.SetDisplayConfigChangeCallback(nil)

	c.outputsMu.Lock()
	groups := c.groups
	c.groups = nil
	c.outputsMu.Unlock()

	var errs []error
	if c.ctx != nil && c.platform.CurrentContext() == c.ctx {
		if err := c.platform.ReleaseCurrent(); err != nil {
			errs = append(errs, fmt.Errorf("%w: release current: %w", present.ErrContext, err))
		}
	}
	for _, g := range groups {
		g.surface.Destroy()
	}
	if c.ctx != nil {
		c.platform.DestroyContext(c.ctx)
		c.ctx = nil
	}
	return errors.Join(errs...)
}
