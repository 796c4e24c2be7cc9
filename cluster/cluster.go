// Copyright (c) 2024 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package cluster

import (
	"fmt"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/mmstanone/blocksci-compilable/chain"
)

// Cluster is a group of addresses believed to be controlled by the same
// entity.
type Cluster struct {
	ID uint32
	m  *Manager
}

// bounds returns the positions of the members of the cluster in the address
// list.
func (c Cluster) bounds() (uint32, uint32) {
	return c.m.offsets.uint32At(c.ID), c.m.offsets.uint32At(c.ID + 1)
}

// Size returns the number of addresses in the cluster.
func (c Cluster) Size() uint32 {
	start, end := c.bounds()
	return end - start
}

// Addresses returns the members of the cluster in ascending global identifier
// order.
func (c Cluster) Addresses() []chain.DedupAddress {
	start, end := c.bounds()
	addrs := make([]chain.DedupAddress, 0, end-start)
	for pos := start; pos < end; pos++ {
		addrs = append(addrs, c.m.member(pos))
	}
	return addrs
}

// MemberSet returns the global identifiers of the members of the cluster.
// Unlike the cluster ID, the set identifies the cluster across clusterings of
// the same chain.
func (c Cluster) MemberSet() *roaring.Bitmap {
	start, end := c.bounds()
	set := roaring.New()
	for pos := start; pos < end; pos++ {
		set.Add(c.m.space.globalID(c.m.member(pos)))
	}
	return set
}

// Contains returns whether the address is a member of the cluster.
func (c Cluster) Contains(addr chain.Address) bool {
	other, ok := c.m.ClusterOf(addr)
	return ok && other.ID == c.ID
}

// String returns a short human-readable form of the cluster.
func (c Cluster) String() string {
	return fmt.Sprintf("cluster %d (%d addresses)", c.ID, c.Size())
}
