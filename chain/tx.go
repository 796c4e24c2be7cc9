// Copyright (c) 2024 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package chain

import "math"

// TxNum is the dense storage-order number of a transaction.
type TxNum uint32

// NoTx is the transaction number used for outputs that are not spent.
const NoTx = TxNum(math.MaxUint32)

// Input is a transaction input resolved against the output it consumes.
type Input struct {
	Value      int64
	Address    Address
	SpentTx    TxNum
	SpentIndex uint32
}

// Output is a transaction output along with the transaction that spends it,
// if any.
type Output struct {
	Value      int64
	Address    Address
	SpendingTx TxNum
}

// IsSpent returns whether the output has been consumed by a later
// transaction.
func (o *Output) IsSpent() bool {
	return o.SpendingTx != NoTx
}

// Tx is a transaction with all of its inputs resolved.  Coinbase
// transactions have no inputs.
type Tx struct {
	Num       TxNum
	Height    int32
	Timestamp uint32
	Coinbase  bool
	Inputs    []Input
	Outputs   []Output
}

// InputValue returns the sum of the input values.
func (tx *Tx) InputValue() int64 {
	var total int64
	for i := range tx.Inputs {
		total += tx.Inputs[i].Value
	}
	return total
}

// OutputValue returns the sum of the output values.
func (tx *Tx) OutputValue() int64 {
	var total int64
	for i := range tx.Outputs {
		total += tx.Outputs[i].Value
	}
	return total
}

// Fee returns the difference between the input and output values.  It is
// zero for coinbase transactions.
func (tx *Tx) Fee() int64 {
	if tx.Coinbase {
		return 0
	}
	return tx.InputValue() - tx.OutputValue()
}

// Block describes a block by height along with the contiguous range of
// transaction numbers it contains.
type Block struct {
	Height    int32
	Timestamp uint32
	FirstTx   TxNum
	TxCount   uint32
}

// EndTx returns the transaction number one past the last transaction in the
// block.
func (b *Block) EndTx() TxNum {
	return b.FirstTx + TxNum(b.TxCount)
}

// MultisigPolicy describes an M-of-N multisig script.
type MultisigPolicy struct {
	Required int
	Total    int
	Keys     []Address
}

// TxRange is the half-open range [Start, End) of transaction numbers.
type TxRange struct {
	Start TxNum
	End   TxNum
}

// Len returns the number of transactions in the range.
func (r TxRange) Len() uint32 {
	if r.End <= r.Start {
		return 0
	}
	return uint32(r.End - r.Start)
}

// Contains returns whether the transaction number is in the range.
func (r TxRange) Contains(n TxNum) bool {
	return n >= r.Start && n < r.End
}
