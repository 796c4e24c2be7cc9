// Copyright (c) 2024 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package cluster

import (
	"github.com/jrick/bitset"
	"github.com/mmstanone/blocksci-compilable/chain"
	"github.com/mmstanone/blocksci-compilable/heuristics"
	"github.com/mmstanone/blocksci-compilable/parallel"
)

// coinjoinSet is the set of transactions recognized as coinjoins.  It is
// immutable once built and safe for concurrent reads.
type coinjoinSet struct {
	bits  bitset.Bytes
	count int
}

// contains returns whether the transaction is a coinjoin.  Transactions beyond
// the range the set was built from never are.
func (c *coinjoinSet) contains(n chain.TxNum) bool {
	if int(n) >= len(c.bits)*8 {
		return false
	}
	return c.bits.Get(int(n))
}

// findCoinjoins classifies every transaction in the range concurrently and
// collects the coinjoins into a set addressable by transaction number.
func findCoinjoins(s chain.Store, r chain.TxRange, segments int, isCoinjoin heuristics.TxClassifier) *coinjoinSet {
	found := parallel.MapReduce(uint32(r.Start), uint32(r.End), segments,
		func(seg parallel.Range) []chain.TxNum {
			var nums []chain.TxNum
			for n := seg.Start; n < seg.End; n++ {
				tx := s.Tx(chain.TxNum(n))
				if !tx.Coinbase && isCoinjoin(s, tx) {
					nums = append(nums, tx.Num)
				}
			}
			return nums
		},
		func(acc, nums []chain.TxNum) []chain.TxNum {
			return append(acc, nums...)
		}, nil)

	set := &coinjoinSet{bits: bitset.NewBytes(int(r.End)), count: len(found)}
	for _, n := range found {
		set.bits.Set(int(n))
	}
	return set
}
