// Copyright (c) 2024 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package dset provides a lock-free disjoint-set forest over a dense range of
// 32-bit identifiers.
//
// Unite and Find may be called concurrently from any number of goroutines
// without additional synchronization.  The parent links observed while
// unions are still in progress are meaningless to callers though.  Callers
// must invoke ResolveAll after the last Unite has returned and only trust
// Find, SameSet and Parents results after ResolveAll itself has returned.
package dset

import (
	"fmt"
	"sync/atomic"

	"github.com/mmstanone/blocksci-compilable/parallel"
)

// AssertError identifies an error that indicates an internal code consistency
// issue and should be treated as a critical and unrecoverable error.
type AssertError string

// Error returns the assertion error as a human-readable string and satisfies
// the error interface.
func (e AssertError) Error() string {
	return "assertion failed: " + string(e)
}

const parentMask = 0xffffffff

// DisjointSets is a union-find forest.  Each entry packs the rank of the
// node in the upper 32 bits and its parent in the lower 32 bits.
type DisjointSets struct {
	entries []atomic.Uint64
}

// New returns a forest of size singleton sets.
func New(size uint32) *DisjointSets {
	d := &DisjointSets{entries: make([]atomic.Uint64, size)}
	for i := range d.entries {
		d.entries[i].Store(uint64(i))
	}
	return d
}

// Size returns the number of elements in the forest.
func (d *DisjointSets) Size() uint32 {
	return uint32(len(d.entries))
}

func (d *DisjointSets) assertInRange(id uint32) {
	if id >= uint32(len(d.entries)) {
		panic(AssertError(fmt.Sprintf("identifier %d out of range for "+
			"forest of size %d", id, len(d.entries))))
	}
}

func (d *DisjointSets) parent(id uint32) uint32 {
	return uint32(d.entries[id].Load() & parentMask)
}

func (d *DisjointSets) rank(id uint32) uint32 {
	return uint32(d.entries[id].Load() >> 32)
}

// Find returns the current representative of the set containing id,
// halving the path it walks along the way.
func (d *DisjointSets) Find(id uint32) uint32 {
	d.assertInRange(id)
	for {
		value := d.entries[id].Load()
		parent := uint32(value & parentMask)
		if parent == id {
			return id
		}
		grandparent := d.parent(parent)
		if grandparent != parent {
			newValue := value&^parentMask | uint64(grandparent)
			d.entries[id].CompareAndSwap(value, newValue)
		}
		id = grandparent
	}
}

// SameSet returns whether the two identifiers currently share a
// representative.
func (d *DisjointSets) SameSet(id1, id2 uint32) bool {
	for {
		id1 = d.Find(id1)
		id2 = d.Find(id2)
		if id1 == id2 {
			return true
		}
		if d.parent(id1) == id1 {
			return false
		}
	}
}

// Unite merges the sets containing the two identifiers.
func (d *DisjointSets) Unite(id1, id2 uint32) {
	d.assertInRange(id1)
	d.assertInRange(id2)
	for {
		id1 = d.Find(id1)
		id2 = d.Find(id2)
		if id1 == id2 {
			return
		}

		// Link the root with the lower rank under the other one, breaking
		// ties by identifier so concurrent callers agree on the direction.
		r1, r2 := d.rank(id1), d.rank(id2)
		if r1 > r2 || (r1 == r2 && id1 < id2) {
			r1, r2 = r2, r1
			id1, id2 = id2, id1
		}

		oldEntry := uint64(r1)<<32 | uint64(id1)
		newEntry := uint64(r1)<<32 | uint64(id2)
		if !d.entries[id1].CompareAndSwap(oldEntry, newEntry) {
			continue
		}
		if r1 == r2 {
			oldEntry = uint64(r2)<<32 | uint64(id2)
			newEntry = uint64(r2+1)<<32 | uint64(id2)
			d.entries[id2].CompareAndSwap(oldEntry, newEntry)
		}
		return
	}
}

// resolve points the entry for id directly at its root.  It must not run
// concurrently with Unite.
func (d *DisjointSets) resolve(id uint32) {
	root := d.Find(id)
	for {
		value := d.entries[id].Load()
		if uint32(value&parentMask) == root {
			return
		}
		newValue := value&^parentMask | uint64(root)
		if d.entries[id].CompareAndSwap(value, newValue) {
			return
		}
	}
}

// ResolveAll fully compresses every path in the forest using k segments.
// No Unite calls may be in flight while it runs.  Once it returns, the
// parent of every entry is its root.
func (d *DisjointSets) ResolveAll(k int) {
	parallel.ForEach(0, d.Size(), k, func(r parallel.Range) {
		for id := r.Start; id < r.End; id++ {
			d.resolve(id)
		}
	})
}

// Parents returns the parent link of every entry.  After ResolveAll this is
// the root of every identifier.
func (d *DisjointSets) Parents() []uint32 {
	parents := make([]uint32, len(d.entries))
	for i := range d.entries {
		parents[i] = d.parent(uint32(i))
	}
	return parents
}
