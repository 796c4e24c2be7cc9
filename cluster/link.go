// Copyright (c) 2024 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package cluster

import (
	"github.com/mmstanone/blocksci-compilable/chain"
	"github.com/mmstanone/blocksci-compilable/heuristics"
	"github.com/mmstanone/blocksci-compilable/heuristics/change"
	"github.com/mmstanone/blocksci-compilable/internal/dset"
	"github.com/mmstanone/blocksci-compilable/internal/progresslog"
	"github.com/mmstanone/blocksci-compilable/parallel"
)

// progressBatch is the number of transactions a linking goroutine processes
// between progress reports.
const progressBatch = 4096

// edge is a pair of addresses declared to belong to the same entity.
type edge [2]chain.Address

// linker unites addresses in a shared forest.  It is safe for concurrent use.
type linker struct {
	s        chain.Store
	space    *addressSpace
	forest   *dset.DisjointSets
	segments int
}

func newLinker(s chain.Store, space *addressSpace, segments int) *linker {
	return &linker{
		s:        s,
		space:    space,
		forest:   dset.New(space.total),
		segments: segments,
	}
}

// link unites the entities of the two addresses.
func (l *linker) link(a, b chain.Address) {
	l.forest.Unite(l.space.globalID(a.Dedup()), l.space.globalID(b.Dedup()))
}

// linkWrapped unites every script hash address with the address it wraps.
func (l *linker) linkWrapped() {
	count := l.s.ScriptCount(chain.DedupScriptHash)
	parallel.ForEach(1, count+1, l.segments, func(r parallel.Range) {
		for n := r.Start; n < r.End; n++ {
			wrapper := chain.Address{ScriptNum: n, Type: chain.ScriptHash}
			if inner, ok := l.s.WrappedAddress(wrapper); ok {
				l.link(wrapper, inner)
			}
		}
	})
}

// txEdges returns the co-spend and change edges of the transaction.  No edges
// are produced for coinbase transactions or, when ignoreCoinjoin is set, for
// transactions that look like coinjoins.
func txEdges(tx *chain.Tx, h change.Heuristic, ignoreCoinjoin bool) []edge {
	if tx.Coinbase || len(tx.Inputs) == 0 {
		return nil
	}
	if ignoreCoinjoin && heuristics.IsCoinjoin(tx) {
		return nil
	}

	first := tx.Inputs[0].Address
	var edges []edge
	for i := 1; i < len(tx.Inputs); i++ {
		edges = append(edges, edge{first, tx.Inputs[i].Address})
	}
	for _, out := range h.Change(tx) {
		edges = append(edges, edge{out.Address, first})
	}
	return edges
}

// linkTransactions applies the co-spend and change heuristics to every
// transaction in the range.
func (l *linker) linkTransactions(r chain.TxRange, h change.Heuristic, ignoreCoinjoin bool) {
	progress := progresslog.New("Linked", log)
	parallel.ForEach(uint32(r.Start), uint32(r.End), l.segments, func(seg parallel.Range) {
		var pending uint64
		for n := seg.Start; n < seg.End; n++ {
			for _, e := range txEdges(l.s.Tx(chain.TxNum(n)), h, ignoreCoinjoin) {
				l.link(e[0], e[1])
			}
			pending++
			if pending == progressBatch {
				progress.LogTxProgress(pending, false)
				pending = 0
			}
		}
		progress.LogTxProgress(pending, false)
	})
	progress.LogTxProgress(0, true)
}

// remixEdges returns the edges that propagate identity one hop outward from
// the coinjoin.  Every single-output transaction funding the coinjoin has its
// output united with its own inputs, unless it is itself a coinjoin, and
// every single-output transaction spending from the coinjoin has its output
// united with its inputs.  The inputs and outputs of the coinjoin itself are
// never united with each other.
func remixEdges(s chain.Store, cj *chain.Tx, isCoinjoin func(chain.TxNum) bool) []edge {
	var edges []edge
	for i := range cj.Inputs {
		prev := s.Tx(cj.Inputs[i].SpentTx)
		if isCoinjoin(prev.Num) || len(prev.Outputs) != 1 {
			continue
		}
		addr := prev.Outputs[0].Address
		for j := range prev.Inputs {
			edges = append(edges, edge{addr, prev.Inputs[j].Address})
		}
	}
	for i := range cj.Outputs {
		out := &cj.Outputs[i]
		if !out.IsSpent() {
			continue
		}
		next := s.Tx(out.SpendingTx)
		if len(next.Outputs) != 1 {
			continue
		}
		addr := next.Outputs[0].Address
		for j := range next.Inputs {
			edges = append(edges, edge{addr, next.Inputs[j].Address})
		}
	}
	return edges
}

// linkRemixes applies the coinjoin remix propagation to every coinjoin in the
// range.
func (l *linker) linkRemixes(r chain.TxRange, coinjoins *coinjoinSet) {
	progress := progresslog.New("Propagated", log)
	parallel.ForEach(uint32(r.Start), uint32(r.End), l.segments, func(seg parallel.Range) {
		var pending uint64
		for n := seg.Start; n < seg.End; n++ {
			if coinjoins.contains(chain.TxNum(n)) {
				tx := l.s.Tx(chain.TxNum(n))
				for _, e := range remixEdges(l.s, tx, coinjoins.contains) {
					l.link(e[0], e[1])
				}
			}
			pending++
			if pending == progressBatch {
				progress.LogTxProgress(pending, false)
				pending = 0
			}
		}
		progress.LogTxProgress(pending, false)
	})
	progress.LogTxProgress(0, true)
}
