// Copyright (c) 2024 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package analysis

import (
	"github.com/RoaringBitmap/roaring/v2"
	"github.com/mmstanone/blocksci-compilable/chain"
	"github.com/mmstanone/blocksci-compilable/cluster"
	"github.com/mmstanone/blocksci-compilable/heuristics"
)

// CoinjoinSet returns the numbers of the transactions in the range that the
// classifier recognizes.
func CoinjoinSet(s chain.Store, r chain.TxRange, segments int, c heuristics.TxClassifier) *roaring.Bitmap {
	return cluster.MapReduce(r, segments, func(seg chain.TxRange) *roaring.Bitmap {
		set := roaring.New()
		for n := seg.Start; n < seg.End; n++ {
			if c(s, s.Tx(n)) {
				set.Add(uint32(n))
			}
		}
		return set
	}, func(acc, set *roaring.Bitmap) *roaring.Bitmap {
		acc.Or(set)
		return acc
	}, roaring.New())
}

// FilterTxs returns the numbers of the transactions in the range that the
// classifier recognizes in ascending order.
func FilterTxs(s chain.Store, r chain.TxRange, segments int, c heuristics.TxClassifier) []chain.TxNum {
	return cluster.MapReduce(r, segments, func(seg chain.TxRange) []chain.TxNum {
		var nums []chain.TxNum
		for n := seg.Start; n < seg.End; n++ {
			if c(s, s.Tx(n)) {
				nums = append(nums, n)
			}
		}
		return nums
	}, func(acc, nums []chain.TxNum) []chain.TxNum {
		return append(acc, nums...)
	}, nil)
}

// contains returns whether the transaction is in the set.
func contains(set *roaring.Bitmap, n chain.TxNum) bool {
	return set.Contains(uint32(n))
}

// spender returns the transaction spending the output and whether it is
// spent at all.
func spender(s chain.Store, out *chain.Output) (*chain.Tx, bool) {
	if !out.IsSpent() {
		return nil, false
	}
	return s.Tx(out.SpendingTx), true
}
