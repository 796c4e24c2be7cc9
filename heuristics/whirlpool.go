// Copyright (c) 2024 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package heuristics

import "github.com/mmstanone/blocksci-compilable/chain"

const (
	// FirstWhirlpoolHeight is the height of the first Whirlpool coinjoin.
	FirstWhirlpoolHeight = 570000

	minWhirlpoolInputs = 5
	maxWhirlpoolInputs = 8
)

// whirlpoolPools are the fixed output values of the Whirlpool pools.
var whirlpoolPools = map[int64]struct{}{
	100000:   {},
	1000000:  {},
	5000000:  {},
	25000000: {},
	50000000: {},
}

// IsWhirlpoolCoinjoin returns whether the transaction looks like a Whirlpool
// mix.
//
// A Whirlpool mix has between five and eight inputs and exactly as many
// pay-to-witness-pubkey-hash outputs, all of which pay the value of one of
// the pools.  Every input carries at least the pool value since new entrants
// also cover the mining fee.
func IsWhirlpoolCoinjoin(tx *chain.Tx) bool {
	if tx.Height < FirstWhirlpoolHeight {
		return false
	}
	n := len(tx.Inputs)
	if n < minWhirlpoolInputs || n > maxWhirlpoolInputs || len(tx.Outputs) != n {
		return false
	}

	pool := tx.Outputs[0].Value
	if _, ok := whirlpoolPools[pool]; !ok {
		return false
	}
	for i := range tx.Outputs {
		out := &tx.Outputs[i]
		if out.Value != pool || out.Address.Type != chain.WitnessPubKeyHash {
			return false
		}
	}
	for i := range tx.Inputs {
		if tx.Inputs[i].Value < pool {
			return false
		}
	}
	return true
}
