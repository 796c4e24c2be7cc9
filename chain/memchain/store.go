// Copyright (c) 2024 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package memchain

import (
	"fmt"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
	"github.com/mmstanone/blocksci-compilable/chain"
)

// Store is an immutable in-memory chain.  It implements chain.Store.
type Store struct {
	params  *chaincfg.Params
	blocks  []chain.Block
	txs     []chain.Tx
	hashes  []chainhash.Hash
	scripts [chain.NumDedupTypes]uint32

	wrapped   map[chain.DedupAddress]chain.Address
	multisigs map[uint32]*chain.MultisigPolicy
	addrHash  map[chain.Address][]byte

	// dedupKeys maps the dedup key of every script decoded from a
	// serialized block to its ordinal.
	dedupKeys [chain.NumDedupTypes]map[string]uint32
}

// Ensure Store implements the chain.Store interface.
var _ chain.Store = (*Store)(nil)

// BlockCount returns the number of blocks in the chain.
//
// This is part of the chain.Store interface.
func (s *Store) BlockCount() int32 {
	return int32(len(s.blocks))
}

// Block returns the block at the provided height.
//
// This is part of the chain.Store interface.
func (s *Store) Block(height int32) *chain.Block {
	return &s.blocks[height]
}

// TxCount returns the number of transactions in the chain.
//
// This is part of the chain.Store interface.
func (s *Store) TxCount() uint32 {
	return uint32(len(s.txs))
}

// Tx returns the transaction with the provided number.
//
// This is part of the chain.Store interface.
func (s *Store) Tx(num chain.TxNum) *chain.Tx {
	return &s.txs[num]
}

// ScriptCount returns the number of scripts of the dedup type.
//
// This is part of the chain.Store interface.
func (s *Store) ScriptCount(t chain.DedupType) uint32 {
	return s.scripts[t]
}

// TotalScriptCount returns the number of scripts across all dedup types.
//
// This is part of the chain.Store interface.
func (s *Store) TotalScriptCount() uint64 {
	return chain.TotalScripts(s)
}

// WrappedAddress returns the address wrapped by a pay-to-script-hash style
// address when it has been revealed.
//
// This is part of the chain.Store interface.
func (s *Store) WrappedAddress(a chain.Address) (chain.Address, bool) {
	if !a.Type.IsWrapper() {
		return chain.Address{}, false
	}
	inner, ok := s.wrapped[a.Dedup()]
	return inner, ok
}

// Multisig returns the policy of a multisig address.
//
// This is part of the chain.Store interface.
func (s *Store) Multisig(a chain.Address) (*chain.MultisigPolicy, bool) {
	if a.Type != chain.Multisig {
		return nil, false
	}
	ms, ok := s.multisigs[a.ScriptNum]
	return ms, ok
}

// AddressHash returns the hash or witness program committed to by the
// address.
//
// This is part of the chain.Store interface.
func (s *Store) AddressHash(a chain.Address) ([]byte, bool) {
	hash, ok := s.addrHash[a]
	return hash, ok
}

// TxHash returns the hash of the transaction with the provided number.  It is
// the zero hash for transactions that were not decoded from a serialized
// block.
func (s *Store) TxHash(num chain.TxNum) chainhash.Hash {
	if int(num) >= len(s.hashes) {
		return chainhash.Hash{}
	}
	return s.hashes[num]
}

// LookupAddress returns the address of the script paid to by the encoded
// address.  It fails with ErrUnknownAddress when the chain never paid to it.
func (s *Store) LookupAddress(encoded string) (chain.Address, error) {
	addr, err := btcutil.DecodeAddress(encoded, s.params)
	if err != nil {
		str := fmt.Sprintf("unable to decode address %q: %v", encoded, err)
		return chain.Address{}, makeError(ErrInvalidAddress, str)
	}
	pkScript, err := txscript.PayToAddrScript(addr)
	if err != nil {
		str := fmt.Sprintf("unsupported address %q: %v", encoded, err)
		return chain.Address{}, makeError(ErrInvalidAddress, str)
	}

	info := classifyScript(pkScript, s.params)
	num, ok := s.dedupKeys[info.addrType.Dedup()][info.key]
	if info.key == "" || !ok {
		str := fmt.Sprintf("address %q does not appear in the chain", encoded)
		return chain.Address{}, makeError(ErrUnknownAddress, str)
	}
	return chain.Address{ScriptNum: num, Type: info.addrType}, nil
}
