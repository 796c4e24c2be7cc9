// Copyright (c) 2024 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package cluster

import (
	"time"

	"github.com/mmstanone/blocksci-compilable/chain"
	"github.com/mmstanone/blocksci-compilable/heuristics"
	"github.com/mmstanone/blocksci-compilable/heuristics/change"
	"github.com/mmstanone/blocksci-compilable/parallel"
)

// Options configures the creation of a clustering.  The zero value is usable.
type Options struct {
	// Overwrite permits replacing the files of an existing index in the
	// output directory.
	Overwrite bool

	// IgnoreCoinjoin skips the co-spend and change heuristics for
	// transactions that look like coinjoins, since their inputs belong to
	// unrelated participants.
	IgnoreCoinjoin bool

	// Segments is the number of segments the work is split into.  Values
	// of zero or less select one segment per CPU.
	Segments int
}

// segments returns the effective segment count.
func (o *Options) segments() int {
	if o == nil || o.Segments <= 0 {
		return parallel.DefaultSegments()
	}
	return o.Segments
}

// finish resolves the forest of the linker, compacts its roots into cluster
// IDs, and writes and opens the resulting index.
func finish(dir string, l *linker) (*Manager, error) {
	start := time.Now()
	l.forest.ResolveAll(l.segments)
	clusterIDs := l.forest.Parents()
	clusterCount := remapClusterIDs(clusterIDs)
	log.Infof("Resolved %d addresses into %d clusters in %v", len(clusterIDs),
		clusterCount, time.Since(start).Round(time.Millisecond))

	start = time.Now()
	if err := writeIndex(dir, l.space, clusterIDs, clusterCount); err != nil {
		return nil, err
	}
	log.Infof("Wrote cluster index to %s in %v", dir,
		time.Since(start).Round(time.Millisecond))
	return Open(dir)
}

// CreateClustering clusters the addresses of the store using the transactions
// in the range and writes the index to the directory.
//
// Script hash addresses are united with the addresses they wrap, the inputs
// of every transaction are united with each other, and every output the
// change heuristic flags is united with the first input.  The directory is
// prepared before the store is touched, so precondition failures leave no
// trace of the run.
func CreateClustering(s chain.Store, r chain.TxRange, h change.Heuristic, dir string, opts *Options) (*Manager, error) {
	if err := prepareOutputDir(dir, opts != nil && opts.Overwrite); err != nil {
		return nil, err
	}
	if h == nil {
		h = change.None
	}
	space, err := storeAddressSpace(s)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	l := newLinker(s, space, opts.segments())
	l.linkWrapped()
	l.linkTransactions(r, h, opts != nil && opts.IgnoreCoinjoin)
	log.Infof("Linked %d transactions over %d addresses in %v", r.Len(),
		space.total, time.Since(start).Round(time.Millisecond))

	return finish(dir, l)
}

// CreateCoinjoinClustering clusters the addresses of the store by propagating
// identity one hop outward from every coinjoin in the range recognized by the
// named classifier, and writes the index to the directory.  The co-spend and
// change heuristics are not applied and IgnoreCoinjoin has no effect.  An
// unknown classifier leaves the directory untouched.
func CreateCoinjoinClustering(s chain.Store, r chain.TxRange, coinjoinType heuristics.CoinjoinType, dir string, opts *Options) (*Manager, error) {
	isCoinjoin, err := heuristics.CoinjoinClassifier(coinjoinType)
	if err != nil {
		return nil, err
	}
	if err := prepareOutputDir(dir, opts != nil && opts.Overwrite); err != nil {
		return nil, err
	}
	space, err := storeAddressSpace(s)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	segments := opts.segments()
	coinjoins := findCoinjoins(s, r, segments, isCoinjoin)
	log.Infof("Found %d %s transactions in %v", coinjoins.count, coinjoinType,
		time.Since(start).Round(time.Millisecond))

	start = time.Now()
	l := newLinker(s, space, segments)
	l.linkRemixes(r, coinjoins)
	log.Infof("Propagated coinjoin identities over %d addresses in %v",
		space.total, time.Since(start).Round(time.Millisecond))

	return finish(dir, l)
}

// MapReduce splits the transaction range into segments, applies mapFn to
// every segment concurrently, and folds the results in segment order with
// reduceFn starting from init.  A segment count of zero or less selects one
// segment per CPU.
func MapReduce[T any](r chain.TxRange, segments int, mapFn func(r chain.TxRange) T,
	reduceFn func(acc, v T) T, init T) T {

	if segments <= 0 {
		segments = parallel.DefaultSegments()
	}
	return parallel.MapReduce(uint32(r.Start), uint32(r.End), segments,
		func(seg parallel.Range) T {
			return mapFn(chain.TxRange{
				Start: chain.TxNum(seg.Start),
				End:   chain.TxNum(seg.End),
			})
		}, reduceFn, init)
}
