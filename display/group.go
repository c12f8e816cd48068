// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package display

import (
	"cmp"
	"image"
	"slices"
)

// Group is a set of active outputs whose extents overlap, directly or
// through other members. Outputs are sorted by id.
type Group struct {
	Outputs []Output
}

// ID returns the smallest output id in the group.
func (g Group) ID() OutputID {
	return g.Outputs[0].ID
}

// Bounds returns the union of the members' extents.
func (g Group) Bounds() image.Rectangle {
	var r image.Rectangle
	for i, o := range g.Outputs {
		if i == 0 {
			r = o.Extents()
			continue
		}
		r = r.Union(o.Extents())
	}
	return r
}

// GroupOverlapping clusters the active outputs of c by transitive overlap of
// their extents. Groups are sorted by their smallest output id, so the
// result does not depend on the order outputs are listed in.
func GroupOverlapping(c *Configuration) []Group {
	var active []Output
	for _, o := range c.Outputs {
		if o.Active() {
			active = append(active, o)
		}
	}
	slices.SortFunc(active, func(a, b Output) int { return cmp.Compare(a.ID, b.ID) })

	parent := make([]int, len(active))
	for i := range parent {
		parent[i] = i
	}
	var find func(int) int
	find = func(i int) int {
		if parent[i] != i {
			parent[i] = find(parent[i])
		}
		return parent[i]
	}
	for i := range active {
		for j := i + 1; j < len(active); j++ {
			if active[i].Extents().Overlaps(active[j].Extents()) {
				ri, rj := find(i), find(j)
				// Keep the smaller index as root so roots follow id order.
				if rj < ri {
					ri, rj = rj, ri
				}
				parent[rj] = ri
			}
		}
	}

	var groups []Group
	index := make(map[int]int)
	for i, o := range active {
		root := find(i)
		gi, ok := index[root]
		if !ok {
			gi = len(groups)
			index[root] = gi
			groups = append(groups, Group{})
		}
		groups[gi].Outputs = append(groups[gi].Outputs, o)
	}
	return groups
}
