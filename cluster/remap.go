// Copyright (c) 2024 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package cluster

import "math"

// unassigned marks a root that has not been given a cluster ID yet.
const unassigned = math.MaxUint32

// remapClusterIDs replaces the root of every identifier in the resolved
// forest with a compact cluster ID.  Roots are numbered consecutively from 0
// in the order they are first encountered while scanning the identifiers in
// ascending order.  The number of clusters is returned.
func remapClusterIDs(parents []uint32) uint32 {
	ids := make([]uint32, len(parents))
	for i := range ids {
		ids[i] = unassigned
	}

	var count uint32
	for i, root := range parents {
		if ids[root] == unassigned {
			ids[root] = count
			count++
		}
		parents[i] = ids[root]
	}
	return count
}
