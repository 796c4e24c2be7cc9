// Copyright (c) 2024 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package analysis

import (
	"github.com/RoaringBitmap/roaring/v2"
	"github.com/mmstanone/blocksci-compilable/chain"
	"github.com/mmstanone/blocksci-compilable/cluster"
)

// consolidationHops is how far past a coinjoin output Consolidations looks
// for the transaction consolidating it.
const consolidationHops = 3

// FriendsDontPay returns the transactions that spend outputs of the coinjoins
// in the range without being coinjoins themselves, fund themselves entirely
// from coinjoins, and have at least one output remixed by a coinjoin.  Such
// transactions move mixed coins between wallets of the same user without
// paying anyone.  The result is in ascending order without duplicates.
func FriendsDontPay(s chain.Store, r chain.TxRange, segments int, coinjoins *roaring.Bitmap) []chain.TxNum {
	found := cluster.MapReduce(r, segments, func(seg chain.TxRange) *roaring.Bitmap {
		found := roaring.New()
		for n := seg.Start; n < seg.End; n++ {
			if !contains(coinjoins, n) {
				continue
			}
			cj := s.Tx(n)
			for i := range cj.Outputs {
				next, ok := spender(s, &cj.Outputs[i])
				if !ok || contains(coinjoins, next.Num) {
					continue
				}
				if fundedByCoinjoins(next, coinjoins) && remixed(s, next, coinjoins) {
					found.Add(uint32(next.Num))
				}
			}
		}
		return found
	}, func(acc, found *roaring.Bitmap) *roaring.Bitmap {
		acc.Or(found)
		return acc
	}, roaring.New())

	nums := make([]chain.TxNum, 0, found.GetCardinality())
	it := found.Iterator()
	for it.HasNext() {
		nums = append(nums, chain.TxNum(it.Next()))
	}
	return nums
}

// fundedByCoinjoins returns whether every input of the transaction spends a
// coinjoin output.
func fundedByCoinjoins(tx *chain.Tx, coinjoins *roaring.Bitmap) bool {
	for i := range tx.Inputs {
		if !contains(coinjoins, tx.Inputs[i].SpentTx) {
			return false
		}
	}
	return len(tx.Inputs) > 0
}

// remixed returns whether any output of the transaction is spent by a
// coinjoin.
func remixed(s chain.Store, tx *chain.Tx, coinjoins *roaring.Bitmap) bool {
	for i := range tx.Outputs {
		if next, ok := spender(s, &tx.Outputs[i]); ok && contains(coinjoins, next.Num) {
			return true
		}
	}
	return false
}

// Consolidation describes the transactions consolidating the outputs of a
// coinjoin.
type Consolidation struct {
	Coinjoin chain.TxNum

	// Targets maps every transaction with fewer than two outputs that was
	// reached from at least two outputs of the coinjoin to the number of
	// outputs that reached it.
	Targets map[chain.TxNum]int
}

// findConsolidation searches depth first, in output order, for a transaction
// with fewer than two outputs spending from the transaction within the
// provided number of hops.
func findConsolidation(s chain.Store, tx *chain.Tx, hops int) (chain.TxNum, bool) {
	for i := range tx.Outputs {
		next, ok := spender(s, &tx.Outputs[i])
		if !ok {
			continue
		}
		if len(next.Outputs) < 2 {
			return next.Num, true
		}
		if hops > 1 {
			if n, ok := findConsolidation(s, next, hops-1); ok {
				return n, true
			}
		}
	}
	return 0, false
}

// Consolidations follows every output of every coinjoin in the range for up
// to three hops to the first transaction with fewer than two outputs and
// reports the coinjoins with two or more outputs ending up in the same such
// transaction.  The result is ordered by coinjoin.
func Consolidations(s chain.Store, r chain.TxRange, segments int, coinjoins *roaring.Bitmap) []Consolidation {
	return cluster.MapReduce(r, segments, func(seg chain.TxRange) []Consolidation {
		var result []Consolidation
		for n := seg.Start; n < seg.End; n++ {
			if !contains(coinjoins, n) {
				continue
			}
			cj := s.Tx(n)
			counts := make(map[chain.TxNum]int)
			for i := range cj.Outputs {
				next, ok := spender(s, &cj.Outputs[i])
				if !ok {
					continue
				}
				if len(next.Outputs) < 2 {
					counts[next.Num]++
					continue
				}
				if target, ok := findConsolidation(s, next, consolidationHops-1); ok {
					counts[target]++
				}
			}
			for target, count := range counts {
				if count < 2 {
					delete(counts, target)
				}
			}
			if len(counts) > 0 {
				result = append(result, Consolidation{Coinjoin: n, Targets: counts})
			}
		}
		return result
	}, func(acc, v []Consolidation) []Consolidation {
		return append(acc, v...)
	}, nil)
}

// Hop is an intermediate transaction through which liquidity moved from one
// coinjoin to another.
type Hop struct {
	Via chain.TxNum
	To  chain.TxNum
}

// Flow describes a transaction moving liquidity out of coinjoins of one kind
// into coinjoins of another.
type Flow struct {
	Tx chain.TxNum

	// From is the value the transaction spends from every source coinjoin.
	From map[chain.TxNum]int64

	// To is the value that reaches every destination coinjoin.
	To map[chain.TxNum]int64

	// Liquidity is the smaller of the total value leaving the source
	// coinjoins and the total value reaching the destination coinjoins.
	Liquidity int64

	// Hops lists the intermediate transactions when the liquidity moved
	// through one more transaction before reaching the destinations.
	Hops []Hop
}

// coinjoinFlow returns the flow through the transaction from the from
// coinjoins into the to coinjoins.  When strict is set, every input must come
// from a source coinjoin and every spent output must end up in a destination
// coinjoin.
func coinjoinFlow(s chain.Store, tx *chain.Tx, from, to *roaring.Bitmap, strict bool) (*Flow, bool) {
	if contains(from, tx.Num) || contains(to, tx.Num) {
		return nil, false
	}

	flow := &Flow{
		Tx:   tx.Num,
		From: make(map[chain.TxNum]int64),
		To:   make(map[chain.TxNum]int64),
	}
	var outLiquidity int64
	for i := range tx.Inputs {
		in := &tx.Inputs[i]
		if !contains(from, in.SpentTx) {
			if strict {
				return nil, false
			}
			continue
		}
		outLiquidity += in.Value
		flow.From[in.SpentTx] += in.Value
	}
	if outLiquidity == 0 {
		return nil, false
	}

	// Liquidity either enters a destination coinjoin directly or after one
	// more transaction, such as a send to a different wallet.
	direct := false
	for i := range tx.Outputs {
		if next, ok := spender(s, &tx.Outputs[i]); ok && contains(to, next.Num) {
			direct = true
			break
		}
	}

	var inLiquidity int64
	for i := range tx.Outputs {
		out := &tx.Outputs[i]
		next, ok := spender(s, out)
		if !ok {
			continue
		}
		if direct {
			if !contains(to, next.Num) {
				if strict {
					return nil, false
				}
				continue
			}
			inLiquidity += out.Value
			flow.To[next.Num] += out.Value
			continue
		}

		if contains(from, next.Num) {
			continue
		}
		for j := range next.Outputs {
			out2 := &next.Outputs[j]
			final, ok := spender(s, out2)
			if !ok {
				continue
			}
			if !contains(to, final.Num) {
				if strict {
					return nil, false
				}
				continue
			}
			inLiquidity += out2.Value
			flow.To[final.Num] += out2.Value
			flow.Hops = append(flow.Hops, Hop{Via: next.Num, To: final.Num})
		}
	}
	if inLiquidity == 0 {
		return nil, false
	}
	flow.Liquidity = min(outLiquidity, inLiquidity)
	return flow, true
}

// CoinjoinFlows returns the transactions in the range that spend outputs of
// the from coinjoins and send them to the to coinjoins, either directly or
// through one intermediate transaction.  When strict is set, transactions
// that also spend other outputs or send value elsewhere are excluded.  The
// result is ordered by transaction.
func CoinjoinFlows(s chain.Store, r chain.TxRange, segments int, from, to *roaring.Bitmap, strict bool) []Flow {
	return cluster.MapReduce(r, segments, func(seg chain.TxRange) []Flow {
		var flows []Flow
		for n := seg.Start; n < seg.End; n++ {
			if flow, ok := coinjoinFlow(s, s.Tx(n), from, to, strict); ok {
				flows = append(flows, *flow)
			}
		}
		return flows
	}, func(acc, v []Flow) []Flow {
		return append(acc, v...)
	}, nil)
}
