package propnet

import (
	"slices"
)

// Factors splits c into its weakly connected parts, each materialized as
// its own circuit. INIT does not connect parts; it is copied into every
// part that reads it. c itself is not modified.
func Factors(c *Circuit) []*Circuit {
	parent := make([]ID, c.Len())
	for i := range parent {
		parent[i] = ID(i)
	}
	var find func(ID) ID
	find = func(id ID) ID {
		for parent[id] != id {
			parent[id] = parent[parent[id]]
			id = parent[id]
		}
		return id
	}

	init := NoID
	for _, id := range c.IDs() {
		if c.Kind(id) == Proposition && classify(c.Name(id)) == TagInit {
			init = id
		}
	}
	for _, id := range c.IDs() {
		if id == init {
			continue
		}
		for _, in := range c.Inputs(id) {
			if in == init {
				continue
			}
			a, b := find(id), find(in)
			if a != b {
				parent[a] = b
			}
		}
	}

	groups := make(map[ID][]ID)
	var roots []ID
	for _, id := range c.IDs() {
		if id == init {
			continue
		}
		r := find(id)
		if _, ok := groups[r]; !ok {
			roots = append(roots, r)
		}
		groups[r] = append(groups[r], id)
	}

	factors := make([]*Circuit, 0, len(roots))
	for _, r := range roots {
		ids := groups[r]
		if init != NoID && readsAny(c, ids, init) {
			ids = append(ids, init)
			slices.Sort(ids)
		}
		factors = append(factors, c.Snapshot(ids))
	}
	return factors
}

func readsAny(c *Circuit, ids []ID, target ID) bool {
	for _, id := range ids {
		if slices.Contains(c.Inputs(id), target) {
			return true
		}
	}
	return false
}
