// Copyright (c) 2024 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package change

import (
	"github.com/mmstanone/blocksci-compilable/chain"
	"github.com/mmstanone/blocksci-compilable/heuristics"
)

// DefaultPowerOfTenDigits is the number of trailing zero digits used by the
// power of ten heuristic when resolved by name.
const DefaultPowerOfTenDigits = 6

// spendsSomething returns whether the transaction has inputs to return change
// to.
func spendsSomething(tx *chain.Tx) bool {
	return !tx.Coinbase && len(tx.Inputs) > 0
}

// PeelingChain returns a heuristic that treats a peeling chain hop as paying
// change to whichever outputs are spent by the next hop of the chain.
func PeelingChain(s chain.Store) Heuristic {
	return Func(func(tx *chain.Tx) []chain.Output {
		if !spendsSomething(tx) || !heuristics.IsPeelingChain(s, tx) {
			return nil
		}
		return selectOutputs(tx, func(_ int, out *chain.Output) bool {
			if !out.IsSpent() {
				return false
			}
			next := s.Tx(out.SpendingTx)
			return len(next.Inputs) == 1 && len(next.Outputs) == 2
		})
	})
}

// AddressType is the heuristic that treats outputs of the same address type as
// every input as change, provided not every output is of that type.
var AddressType Heuristic = Func(func(tx *chain.Tx) []chain.Output {
	if !spendsSomething(tx) {
		return nil
	}
	inputType := tx.Inputs[0].Address.Type
	for i := 1; i < len(tx.Inputs); i++ {
		if tx.Inputs[i].Address.Type != inputType {
			return nil
		}
	}
	outs := selectOutputs(tx, func(_ int, out *chain.Output) bool {
		return out.Address.Type == inputType
	})
	if len(outs) == len(tx.Outputs) {
		return nil
	}
	return outs
})

// OptimalChange is the heuristic that treats an output as change when it is
// the only output smaller than every input.  A wallet would not have spent an
// input it did not need, so such an output must be the leftover.
var OptimalChange Heuristic = Func(func(tx *chain.Tx) []chain.Output {
	if !spendsSomething(tx) {
		return nil
	}
	minInput := tx.Inputs[0].Value
	for i := 1; i < len(tx.Inputs); i++ {
		minInput = min(minInput, tx.Inputs[i].Value)
	}
	outs := selectOutputs(tx, func(_ int, out *chain.Output) bool {
		return out.Value < minInput
	})
	if len(outs) != 1 {
		return nil
	}
	return outs
})

// PowerOfTen returns a heuristic that treats payments as round amounts.  When
// at least one output value is a multiple of 10^digits, every output that is
// not is considered change.
func PowerOfTen(digits int) Heuristic {
	divisor := int64(1)
	for i := 0; i < digits; i++ {
		divisor *= 10
	}
	return Func(func(tx *chain.Tx) []chain.Output {
		if !spendsSomething(tx) {
			return nil
		}
		var haveRound bool
		for i := range tx.Outputs {
			if tx.Outputs[i].Value%divisor == 0 {
				haveRound = true
				break
			}
		}
		if !haveRound {
			return nil
		}
		return selectOutputs(tx, func(_ int, out *chain.Output) bool {
			return out.Value%divisor != 0
		})
	})
}
