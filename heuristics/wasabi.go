// Copyright (c) 2024 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package heuristics

import (
	"bytes"
	"sort"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/mmstanone/blocksci-compilable/chain"
)

const (
	// FirstWasabi1Height is the height of the first Wasabi 1 coinjoin.
	FirstWasabi1Height = 530500

	// FirstWasabi1NoCoordHeight is the height after which Wasabi 1
	// coinjoins stopped paying a fixed coordinator address.
	FirstWasabi1NoCoordHeight = 610000

	// FirstWasabi2Height is the height of the first Wasabi 2 coinjoin.
	FirstWasabi2Height = 741213

	// DefaultWasabi2MinInputs is the minimum number of inputs of a Wasabi 2
	// coinjoin.
	DefaultWasabi2MinInputs = 50

	minWasabi2Denomination = 5000
	maxWasabi2Denomination = 134375000000

	// Wasabi 1 mixed outputs are roughly 0.1 BTC with a tolerance that
	// covers the coordinator adjusting the denomination over time.
	wasabi1Denomination   = 10000000
	wasabi1Tolerance      = 2000000
	wasabi1MinMixedOutput = 10
)

// wasabiCoordinators are the addresses the Wasabi 1 coordinator collected
// its fees with.
var wasabiCoordinators = []string{
	"bc1qs604c7jv6amk4cxqlnvuxv26hv3e48cds4m0ew",
	"bc1qa24tsgchvuxsaccp8vrnkfd85hrcpafg20kmjw",
}

var (
	// wasabi2Denominations is the set of standard Wasabi 2 output values.
	wasabi2Denominations map[int64]struct{}

	// coordinatorPrograms holds the witness programs of
	// wasabiCoordinators.
	coordinatorPrograms [][]byte
)

func init() {
	wasabi2Denominations = computeWasabi2Denominations()

	for _, encoded := range wasabiCoordinators {
		addr, err := btcutil.DecodeAddress(encoded, &chaincfg.MainNetParams)
		if err != nil {
			panic(err)
		}
		coordinatorPrograms = append(coordinatorPrograms, addr.ScriptAddress())
	}
}

// computeWasabi2Denominations builds the standard denominations between the
// minimum and maximum values.  The series are powers of two, powers of three,
// twice the powers of three and the 1-2-5 series of the powers of ten.  The
// bounds are checked against the underlying power, so a multiple of the
// largest power may exceed the maximum.
func computeWasabi2Denominations() map[int64]struct{} {
	denoms := make(map[int64]struct{})
	add := func(v int64) { denoms[v] = struct{}{} }
	add(minWasabi2Denomination)
	add(maxWasabi2Denomination)

	series := func(start, base int64, multiples ...int64) {
		for denom := start * base; denom <= maxWasabi2Denomination; denom *= base {
			if denom < minWasabi2Denomination {
				continue
			}
			for _, m := range multiples {
				add(denom * m)
			}
		}
	}
	series(1, 2, 1)
	series(3, 3, 1, 2)
	series(10, 10, 1, 2, 5)
	return denoms
}

// Wasabi2Denominations returns the standard Wasabi 2 output values in
// ascending order.
func Wasabi2Denominations() []int64 {
	denoms := make([]int64, 0, len(wasabi2Denominations))
	for v := range wasabi2Denominations {
		denoms = append(denoms, v)
	}
	sort.Slice(denoms, func(i, j int) bool { return denoms[i] < denoms[j] })
	return denoms
}

// IsWasabi2Denomination returns whether the value is a standard Wasabi 2
// output value.
func IsWasabi2Denomination(value int64) bool {
	_, ok := wasabi2Denominations[value]
	return ok
}

func isSegwitV0OrUnknown(t chain.AddressType) bool {
	return t == chain.WitnessPubKeyHash || t == chain.WitnessUnknown
}

// IsWasabi2Coinjoin returns whether the transaction looks like a Wasabi 2
// coinjoin with at least DefaultWasabi2MinInputs inputs.
func IsWasabi2Coinjoin(tx *chain.Tx) bool {
	return IsWasabi2CoinjoinMinInputs(tx, DefaultWasabi2MinInputs)
}

// IsWasabi2CoinjoinMinInputs returns whether the transaction looks like a
// Wasabi 2 coinjoin with at least minInputs inputs.
//
// Wasabi 2 coinjoins only spend and create native segwit outputs, order
// both inputs and outputs by descending value, and pay most outputs a
// standard denomination.
func IsWasabi2CoinjoinMinInputs(tx *chain.Tx, minInputs int) bool {
	if tx.Height < FirstWasabi2Height {
		return false
	}
	for i := range tx.Inputs {
		if !isSegwitV0OrUnknown(tx.Inputs[i].Address.Type) {
			return false
		}
	}
	for i := range tx.Outputs {
		if !isSegwitV0OrUnknown(tx.Outputs[i].Address.Type) {
			return false
		}
	}
	if len(tx.Inputs) < minInputs {
		return false
	}

	for i := 1; i < len(tx.Inputs); i++ {
		if tx.Inputs[i].Value > tx.Inputs[i-1].Value {
			return false
		}
	}
	for i := 1; i < len(tx.Outputs); i++ {
		if tx.Outputs[i].Value > tx.Outputs[i-1].Value {
			return false
		}
	}

	var count int
	for i := range tx.Outputs {
		if IsWasabi2Denomination(tx.Outputs[i].Value) {
			count++
		}
	}
	return count*5 >= len(tx.Outputs)*4
}

// paysCoordinator returns whether any output pays one of the Wasabi 1
// coordinator addresses.
func paysCoordinator(s chain.Store, tx *chain.Tx) bool {
	for i := range tx.Outputs {
		out := &tx.Outputs[i]
		if out.Address.Type != chain.WitnessPubKeyHash {
			continue
		}
		hash, ok := s.AddressHash(out.Address)
		if !ok {
			continue
		}
		for _, program := range coordinatorPrograms {
			if bytes.Equal(hash, program) {
				return true
			}
		}
	}
	return false
}

// IsWasabi1Coinjoin returns whether the transaction looks like a Wasabi 1
// coinjoin.
//
// Wasabi 1 coinjoins only spend and create pay-to-witness-pubkey-hash
// outputs and mix into a denomination of roughly 0.1 BTC that is shared by at
// least ten outputs.  Until the coordinator switched to fresh fee addresses,
// every round paid one of the known coordinator addresses.
func IsWasabi1Coinjoin(s chain.Store, tx *chain.Tx) bool {
	if tx.Height < FirstWasabi1Height {
		return false
	}
	for i := range tx.Inputs {
		if tx.Inputs[i].Address.Type != chain.WitnessPubKeyHash {
			return false
		}
	}
	for i := range tx.Outputs {
		if tx.Outputs[i].Address.Type != chain.WitnessPubKeyHash {
			return false
		}
	}

	counts := make(map[int64]int, len(tx.Outputs))
	for i := range tx.Outputs {
		counts[tx.Outputs[i].Value]++
	}
	value, count, unique := mostFrequent(counts)
	if !unique || count < wasabi1MinMixedOutput || count > len(tx.Inputs) {
		return false
	}
	if value < wasabi1Denomination-wasabi1Tolerance ||
		value > wasabi1Denomination+wasabi1Tolerance {
		return false
	}

	if tx.Height < FirstWasabi1NoCoordHeight {
		return paysCoordinator(s, tx)
	}
	return true
}
