// Copyright (c) 2024 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package memchain

import (
	"fmt"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/mmstanone/blocksci-compilable/chain"
	"github.com/mmstanone/blocksci-compilable/internal/progresslog"
)

// OutputSpec describes an output of a transaction added with AddBlock.
type OutputSpec struct {
	Value   int64
	Address chain.Address
}

// InputSpec identifies the output spent by an input of a transaction added
// with AddBlock.
type InputSpec struct {
	Tx    chain.TxNum
	Index uint32
}

// TxSpec describes a transaction added with AddBlock.  Transactions without
// inputs are coinbase transactions.
type TxSpec struct {
	Inputs  []InputSpec
	Outputs []OutputSpec
}

// Builder assembles an in-memory chain block by block.  It is not safe for
// concurrent use.
type Builder struct {
	store    *Store
	params   *chaincfg.Params
	outpoint map[wire.OutPoint]InputSpec
	progress *progresslog.Logger
}

// NewBuilder returns a builder for an empty chain.  The network parameters
// are used to interpret scripts of blocks added with AddMsgBlock.  Nil
// selects the main network.
func NewBuilder(params *chaincfg.Params) *Builder {
	if params == nil {
		params = &chaincfg.MainNetParams
	}
	s := &Store{
		params:    params,
		wrapped:   make(map[chain.DedupAddress]chain.Address),
		multisigs: make(map[uint32]*chain.MultisigPolicy),
		addrHash:  make(map[chain.Address][]byte),
	}
	for i := range s.dedupKeys {
		s.dedupKeys[i] = make(map[string]uint32)
	}
	return &Builder{
		store:    s,
		params:   params,
		outpoint: make(map[wire.OutPoint]InputSpec),
		progress: progresslog.New("Ingested", log),
	}
}

// NewAddress allocates a fresh script of the dedup type of t and returns it
// as an address of type t.
func (b *Builder) NewAddress(t chain.AddressType) chain.Address {
	d := t.Dedup()
	b.store.scripts[d]++
	return chain.Address{ScriptNum: b.store.scripts[d], Type: t}
}

// As returns the address with the same script as a but of type t.  Both
// types must share a dedup type.
func (b *Builder) As(a chain.Address, t chain.AddressType) chain.Address {
	if a.Type.Dedup() != t.Dedup() {
		panic(fmt.Sprintf("%v and %v do not share a dedup type", a.Type, t))
	}
	return chain.Address{ScriptNum: a.ScriptNum, Type: t}
}

func (b *Builder) checkAddress(a chain.Address) error {
	if !a.IsValid() || a.ScriptNum > b.store.scripts[a.Type.Dedup()] {
		str := fmt.Sprintf("address %v was not allocated", a)
		return makeError(ErrUnknownAddress, str)
	}
	return nil
}

// SetWrapped records that the wrapper address reveals the inner address.
func (b *Builder) SetWrapped(wrapper, inner chain.Address) error {
	if !wrapper.Type.IsWrapper() {
		str := fmt.Sprintf("address %v is not a wrapper", wrapper)
		return makeError(ErrInvalidAddress, str)
	}
	if err := b.checkAddress(wrapper); err != nil {
		return err
	}
	if err := b.checkAddress(inner); err != nil {
		return err
	}
	b.store.wrapped[wrapper.Dedup()] = inner
	return nil
}

// SetMultisig records the policy of a multisig address.
func (b *Builder) SetMultisig(addr chain.Address, required int, keys ...chain.Address) error {
	if addr.Type != chain.Multisig {
		str := fmt.Sprintf("address %v is not a multisig", addr)
		return makeError(ErrInvalidAddress, str)
	}
	if err := b.checkAddress(addr); err != nil {
		return err
	}
	for _, key := range keys {
		if err := b.checkAddress(key); err != nil {
			return err
		}
	}
	b.store.multisigs[addr.ScriptNum] = &chain.MultisigPolicy{
		Required: required,
		Total:    len(keys),
		Keys:     keys,
	}
	return nil
}

// SetAddressHash records the hash or witness program committed to by the
// address.
func (b *Builder) SetAddressHash(addr chain.Address, hash []byte) error {
	if err := b.checkAddress(addr); err != nil {
		return err
	}
	b.store.addrHash[addr] = hash
	return nil
}

// AddBlock appends a block containing the described transactions and returns
// the numbers assigned to them.  Every input must spend an existing unspent
// output.  The chain is left untouched when an error is returned.
func (b *Builder) AddBlock(timestamp uint32, txs ...TxSpec) ([]chain.TxNum, error) {
	s := b.store
	height := int32(len(s.blocks))
	first := chain.TxNum(len(s.txs))

	// Validate all spends up front, including spends of outputs created
	// earlier in the same block.
	spent := make(map[InputSpec]struct{})
	for i, spec := range txs {
		num := first + chain.TxNum(i)
		for _, in := range spec.Inputs {
			var numOutputs int
			switch {
			case in.Tx < first:
				prev := &s.txs[in.Tx]
				numOutputs = len(prev.Outputs)
				if int(in.Index) < numOutputs && prev.Outputs[in.Index].IsSpent() {
					str := fmt.Sprintf("output %d:%d is already spent",
						in.Tx, in.Index)
					return nil, makeError(ErrDoubleSpend, str)
				}
			case in.Tx < num:
				numOutputs = len(txs[in.Tx-first].Outputs)
			default:
				numOutputs = -1
			}
			if int(in.Index) >= numOutputs {
				str := fmt.Sprintf("transaction %d spends unknown output "+
					"%d:%d", num, in.Tx, in.Index)
				return nil, makeError(ErrUnknownOutput, str)
			}
			if _, ok := spent[in]; ok {
				str := fmt.Sprintf("output %d:%d is spent twice", in.Tx,
					in.Index)
				return nil, makeError(ErrDoubleSpend, str)
			}
			spent[in] = struct{}{}
		}
		for _, out := range spec.Outputs {
			if err := b.checkAddress(out.Address); err != nil {
				return nil, err
			}
		}
	}

	nums := make([]chain.TxNum, len(txs))
	for i, spec := range txs {
		num := first + chain.TxNum(i)
		tx := chain.Tx{
			Num:       num,
			Height:    height,
			Timestamp: timestamp,
			Coinbase:  len(spec.Inputs) == 0,
			Inputs:    make([]chain.Input, len(spec.Inputs)),
			Outputs:   make([]chain.Output, len(spec.Outputs)),
		}
		for j, out := range spec.Outputs {
			tx.Outputs[j] = chain.Output{
				Value:      out.Value,
				Address:    out.Address,
				SpendingTx: chain.NoTx,
			}
		}
		for j, in := range spec.Inputs {
			prevOut := &s.txs[in.Tx].Outputs[in.Index]
			prevOut.SpendingTx = num
			tx.Inputs[j] = chain.Input{
				Value:      prevOut.Value,
				Address:    prevOut.Address,
				SpentTx:    in.Tx,
				SpentIndex: in.Index,
			}
		}
		s.txs = append(s.txs, tx)
		nums[i] = num
	}

	s.blocks = append(s.blocks, chain.Block{
		Height:    height,
		Timestamp: timestamp,
		FirstTx:   first,
		TxCount:   uint32(len(txs)),
	})
	return nums, nil
}

// Build returns the assembled store.  The builder must not be used
// afterwards.
func (b *Builder) Build() *Store {
	s := b.store
	if len(s.hashes) != 0 && len(s.hashes) < len(s.txs) {
		hashes := make([]chainhash.Hash, len(s.txs))
		copy(hashes, s.hashes)
		s.hashes = hashes
	}
	b.store = nil
	b.outpoint = nil
	return s
}
