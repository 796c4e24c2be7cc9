// Copyright (c) 2024 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package chain

// Store is a read-only, random-access view of a parsed blockchain.
//
// All methods must be safe for concurrent use and the returned values must
// be treated as immutable by callers.
type Store interface {
	// BlockCount returns the number of blocks in the chain.
	BlockCount() int32

	// Block returns the block at the provided height.
	Block(height int32) *Block

	// TxCount returns the number of transactions in the chain.
	TxCount() uint32

	// Tx returns the transaction with the provided number.
	Tx(num TxNum) *Tx

	// ScriptCount returns the number of scripts of the dedup type.
	ScriptCount(t DedupType) uint32

	// TotalScriptCount returns the number of scripts across all dedup
	// types.
	TotalScriptCount() uint64

	// WrappedAddress returns the address directly wrapped by a
	// pay-to-script-hash style address when it has been revealed.
	WrappedAddress(a Address) (Address, bool)

	// Multisig returns the policy of a multisig address.
	Multisig(a Address) (*MultisigPolicy, bool)

	// AddressHash returns the hash or witness program that the address
	// commits to, when the store knows it.
	AddressHash(a Address) ([]byte, bool)
}

// FullRange returns the range covering every transaction in the store.
func FullRange(s Store) TxRange {
	return TxRange{Start: 0, End: TxNum(s.TxCount())}
}

// HeightRange returns the range of transactions contained in the blocks with
// heights in [startHeight, endHeight).  The heights are clamped to the chain.
func HeightRange(s Store, startHeight, endHeight int32) TxRange {
	count := s.BlockCount()
	if startHeight < 0 {
		startHeight = 0
	}
	if endHeight > count {
		endHeight = count
	}
	if startHeight >= endHeight {
		return TxRange{}
	}
	first := s.Block(startHeight)
	last := s.Block(endHeight - 1)
	return TxRange{Start: first.FirstTx, End: last.EndTx()}
}

// TotalScripts sums the per dedup type script counts of the store.
func TotalScripts(s Store) uint64 {
	var total uint64
	for d := DedupType(0); d < NumDedupTypes; d++ {
		total += uint64(s.ScriptCount(d))
	}
	return total
}
