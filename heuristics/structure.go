// Copyright (c) 2024 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package heuristics

import "github.com/mmstanone/blocksci-compilable/chain"

// maxUnwrapDepth bounds how many wrapper layers are followed when resolving
// the innermost address of a wrapper address.
const maxUnwrapDepth = 16

// looksLikePeelingChain returns whether the transaction has the one input and
// two outputs shape of a peeling chain hop.
func looksLikePeelingChain(tx *chain.Tx) bool {
	return len(tx.Inputs) == 1 && len(tx.Outputs) == 2
}

// IsPeelingChain returns whether the transaction is a hop of a peeling chain.
// That is the case when it has one input and two outputs and either the
// transaction it spends from or one of the transactions spending its outputs
// has the same shape.
func IsPeelingChain(s chain.Store, tx *chain.Tx) bool {
	if !looksLikePeelingChain(tx) {
		return false
	}
	if looksLikePeelingChain(s.Tx(tx.Inputs[0].SpentTx)) {
		return true
	}
	for i := range tx.Outputs {
		out := &tx.Outputs[i]
		if out.IsSpent() && looksLikePeelingChain(s.Tx(out.SpendingTx)) {
			return true
		}
	}
	return false
}

// IsDeanonTx returns whether the transaction spends from a single address
// type and has exactly one output of that type, which reveals the change
// output of the spender.
func IsDeanonTx(tx *chain.Tx) bool {
	if tx.Coinbase || len(tx.Inputs) == 0 || len(tx.Outputs) == 1 {
		return false
	}

	inputType := tx.Inputs[0].Address.Type
	for i := 1; i < len(tx.Inputs); i++ {
		if tx.Inputs[i].Address.Type != inputType {
			return false
		}
	}

	var seen bool
	for i := range tx.Outputs {
		if tx.Outputs[i].Address.Type == inputType {
			if seen {
				return false
			}
			seen = true
		}
	}
	return seen
}

// innermostAddress follows the wrapper chain of the address down to the
// first address that is not a wrapper.  It returns false when a wrapper along
// the way has not been revealed.
func innermostAddress(s chain.Store, addr chain.Address) (chain.Address, bool) {
	for depth := 0; addr.Type.IsWrapper(); depth++ {
		if depth >= maxUnwrapDepth {
			return chain.Address{}, false
		}
		wrapped, ok := s.WrappedAddress(addr)
		if !ok {
			return chain.Address{}, false
		}
		addr = wrapped
	}
	return addr, true
}

// DetailedType describes an address by its own type, the type of the
// innermost address it wraps and, for multisig, its M-of-N policy.
type DetailedType struct {
	Main       chain.AddressType
	HasSubtype bool
	Sub        chain.AddressType
	Required   int
	Total      int
}

// NewDetailedType resolves the detailed type of the address.  Addresses that
// are not wrappers are their own subtype.
func NewDetailedType(s chain.Store, addr chain.Address) DetailedType {
	dt := DetailedType{Main: addr.Type, Sub: chain.NonStandard}
	inner, ok := innermostAddress(s, addr)
	if !ok {
		return dt
	}
	dt.HasSubtype = true
	dt.Sub = inner.Type
	if inner.Type == chain.Multisig {
		if ms, ok := s.Multisig(inner); ok {
			dt.Required = ms.Required
			dt.Total = ms.Total
		}
	}
	return dt
}

// Equal returns whether the two detailed types are known to be the same.
// Wrappers whose inner address is unknown are never equal to anything,
// themselves included.
func (dt DetailedType) Equal(other DetailedType) bool {
	if dt.Main != other.Main || dt.Sub != other.Sub {
		return false
	}
	if dt.Main.IsWrapper() && (!dt.HasSubtype || !other.HasSubtype) {
		return false
	}
	if dt.Sub == chain.Multisig &&
		(dt.Required != other.Required || dt.Total != other.Total) {
		return false
	}
	return true
}

// distinctTypes collects the detailed types of the addresses, keeping only
// one of every group of equal types.  It stops early once more than limit
// types have been found.
func distinctTypes(s chain.Store, addrs func(yield func(chain.Address) bool), limit int) []DetailedType {
	var types []DetailedType
	addrs(func(addr chain.Address) bool {
		dt := NewDetailedType(s, addr)
		for _, known := range types {
			if known.Equal(dt) {
				return true
			}
		}
		types = append(types, dt)
		return len(types) <= limit
	})
	return types
}

func inputAddrs(tx *chain.Tx) func(yield func(chain.Address) bool) {
	return func(yield func(chain.Address) bool) {
		for i := range tx.Inputs {
			if !yield(tx.Inputs[i].Address) {
				return
			}
		}
	}
}

func outputAddrs(tx *chain.Tx) func(yield func(chain.Address) bool) {
	return func(yield func(chain.Address) bool) {
		for i := range tx.Outputs {
			if !yield(tx.Outputs[i].Address) {
				return
			}
		}
	}
}

// IsChangeOverTx returns whether every input shares one detailed type, every
// output shares another one, and the two differ.  Such transactions move all
// funds of a wallet to a new kind of script.
func IsChangeOverTx(s chain.Store, tx *chain.Tx) bool {
	if tx.Coinbase {
		return false
	}
	outTypes := distinctTypes(s, outputAddrs(tx), 1)
	if len(outTypes) != 1 {
		return false
	}
	inTypes := distinctTypes(s, inputAddrs(tx), 1)
	if len(inTypes) != 1 {
		return false
	}
	return !outTypes[0].Equal(inTypes[0])
}

// ContainsKeysetChange returns whether the transaction moves funds from a
// multisig script to a different multisig script that shares at least one
// member key with it.
func ContainsKeysetChange(s chain.Store, tx *chain.Tx) bool {
	if tx.Coinbase {
		return false
	}

	outMultisigs := make(map[chain.Address]struct{})
	for i := range tx.Outputs {
		inner, ok := innermostAddress(s, tx.Outputs[i].Address)
		if ok && inner.Type == chain.Multisig {
			outMultisigs[inner] = struct{}{}
		}
	}
	if len(outMultisigs) == 0 {
		return false
	}

	inMultisigs := make(map[chain.Address]struct{})
	for i := range tx.Inputs {
		inner, ok := innermostAddress(s, tx.Inputs[i].Address)
		if !ok || inner.Type != chain.Multisig {
			continue
		}
		if _, ok := outMultisigs[inner]; !ok {
			inMultisigs[inner] = struct{}{}
		}
	}
	if len(inMultisigs) == 0 {
		return false
	}

	outKeys := make(map[chain.Address]struct{})
	for addr := range outMultisigs {
		if ms, ok := s.Multisig(addr); ok {
			for _, key := range ms.Keys {
				outKeys[key] = struct{}{}
			}
		}
	}
	for addr := range inMultisigs {
		ms, ok := s.Multisig(addr)
		if !ok {
			continue
		}
		for _, key := range ms.Keys {
			if _, ok := outKeys[key]; ok {
				return true
			}
		}
	}
	return false
}
