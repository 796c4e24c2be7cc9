// Copyright (c) 2024 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package analysis

import (
	"github.com/mmstanone/blocksci-compilable/chain"
	"github.com/mmstanone/blocksci-compilable/cluster"
	"github.com/mmstanone/blocksci-compilable/heuristics"
)

// remixCacheSize is the number of coinjoin verdicts remembered while
// searching for remixes.
const remixCacheSize = 1 << 16

// Remix is a transaction whose long dormant funds were remixed.
type Remix struct {
	Tx   chain.TxNum
	Kind heuristics.RemixResult
}

// HardwareWalletRemixes returns the transactions in the range whose long
// dormant funds were remixed through Wasabi 2 coinjoins in the manner of a
// hardware or a software wallet.  Transactions for which the search was
// inconclusive are not reported.  The result is ordered by transaction.
func HardwareWalletRemixes(s chain.Store, r chain.TxRange, segments int) []Remix {
	isWasabi2 := heuristics.Memoize(func(_ chain.Store, tx *chain.Tx) bool {
		return heuristics.IsWasabi2Coinjoin(tx)
	}, remixCacheSize)

	return cluster.MapReduce(r, segments, func(seg chain.TxRange) []Remix {
		var remixes []Remix
		for n := seg.Start; n < seg.End; n++ {
			kind := heuristics.IsLongDormantInRemixesWith(s, s.Tx(n), isWasabi2)
			switch kind {
			case heuristics.RemixHardwareWallet, heuristics.RemixSoftwareWallet:
				remixes = append(remixes, Remix{Tx: n, Kind: kind})
			}
		}
		return remixes
	}, func(acc, v []Remix) []Remix {
		return append(acc, v...)
	}, nil)
}
