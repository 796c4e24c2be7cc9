// Copyright (c) 2024 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package heuristics

import "github.com/mmstanone/blocksci-compilable/chain"

// txOut describes a value paid to or spent from an address for building test
// transactions.
type txOut struct {
	value int64
	addr  chain.Address
}

// pkh returns a pay-to-pubkey-hash address with the provided script number.
func pkh(n uint32) chain.Address {
	return chain.Address{ScriptNum: n, Type: chain.PubKeyHash}
}

// wpkh returns a pay-to-witness-pubkey-hash address with the provided script
// number.
func wpkh(n uint32) chain.Address {
	return chain.Address{ScriptNum: n, Type: chain.WitnessPubKeyHash}
}

// makeTx returns a non-coinbase transaction at the provided height with the
// described inputs and outputs.  None of its outputs are spent.
func makeTx(height int32, ins, outs []txOut) *chain.Tx {
	tx := &chain.Tx{Height: height, Coinbase: len(ins) == 0}
	for _, in := range ins {
		tx.Inputs = append(tx.Inputs, chain.Input{Value: in.value,
			Address: in.addr})
	}
	for _, out := range outs {
		tx.Outputs = append(tx.Outputs, chain.Output{Value: out.value,
			Address: out.addr, SpendingTx: chain.NoTx})
	}
	return tx
}

// repeat returns n copies of the provided value and address.
func repeat(n int, value int64, addr func(i int) chain.Address) []txOut {
	outs := make([]txOut, n)
	for i := range outs {
		outs[i] = txOut{value, addr(i)}
	}
	return outs
}
