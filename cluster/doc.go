// Copyright (c) 2024 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

/*
Package cluster groups the addresses of a blockchain into entities and
persists the result as a read-only index.

# Clustering

Every address is assigned a dense global identifier: each dedup type owns a
contiguous block of identifiers, in the fixed order of chain.DedupType, and an
address with 1-based script number n of dedup type d is identified by
start(d) + n - 1.  A lock-free disjoint-set forest over those identifiers is
then filled by a linking pass:

  - Every script hash address is united with the address it wraps when the
    wrapped address has been revealed.
  - The address of the first input of every non-coinbase transaction is
    united with every other input address.  Coinjoins are optionally skipped.
  - Every output a change heuristic flags as change is united with the first
    input address.

CreateCoinjoinClustering provides an alternative linking pass that only
propagates identity one hop outward from the coinjoins recognized by a named
classifier.

The transaction range is split into contiguous segments which are linked
concurrently.  Once every segment finishes, the forest is resolved, the roots
are renumbered to consecutive cluster IDs in ascending identifier order, and
the index is written.  The partition is deterministic for a given chain and
set of heuristics, however the numeric cluster ID assigned to a partition
is not guaranteed to be stable across runs.  Use Manager.Fingerprint or
Cluster.MemberSet to compare clusterings instead.

# Index Layout

A clustering is stored in its own directory as fixed-width native-endian
arrays that can be mapped directly:

  offsets.bin      clusterCount+1 uint32 prefix sums delimiting the members
                   of every cluster in addresses.bin
  addresses.bin    one 8-byte record per address (uint32 script number,
                   uint8 dedup type, 3 zero bytes) grouped by cluster and
                   ordered by global identifier within each cluster
  <dedup type>.bin one uint32 cluster ID per script number of that type

# Errors

Failures to prepare the output directory or write and read the index are
returned as Error values wrapping an ErrorKind so callers can test them with
errors.Is.  Internal consistency violations such as an address outside the
address space are reported by panicking with an AssertError.
*/
package cluster
