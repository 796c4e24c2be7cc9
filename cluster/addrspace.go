// Copyright (c) 2024 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package cluster

import (
	"fmt"
	"math"
	"sort"

	"github.com/mmstanone/blocksci-compilable/chain"
)

// addressSpace maps addresses to dense global identifiers.  Every dedup type
// owns the contiguous block [starts[d], starts[d]+counts[d]) and the blocks
// are laid out in dedup type order without gaps.
type addressSpace struct {
	starts [chain.NumDedupTypes]uint32
	counts [chain.NumDedupTypes]uint32
	total  uint32
}

// newAddressSpace assigns the identifier blocks for the provided per dedup
// type script counts.  An AssertError is returned when the counts do not fit
// in the 32-bit identifier space.
func newAddressSpace(counts [chain.NumDedupTypes]uint32) (*addressSpace, error) {
	a := &addressSpace{counts: counts}
	var next uint64
	for d := range counts {
		a.starts[d] = uint32(next)
		next += uint64(counts[d])
		if next > math.MaxUint32 {
			str := fmt.Sprintf("%d scripts exceed the global identifier "+
				"space", next)
			return nil, AssertError(str)
		}
	}
	a.total = uint32(next)
	return a, nil
}

// storeAddressSpace returns the address space of the store.  The per type
// counts must add up to the total script count the store reports.
func storeAddressSpace(s chain.Store) (*addressSpace, error) {
	var counts [chain.NumDedupTypes]uint32
	for d := chain.DedupType(0); d < chain.NumDedupTypes; d++ {
		counts[d] = s.ScriptCount(d)
	}
	a, err := newAddressSpace(counts)
	if err != nil {
		return nil, err
	}
	if uint64(a.total) != s.TotalScriptCount() {
		str := fmt.Sprintf("per type script counts sum to %d but the store "+
			"reports %d scripts", a.total, s.TotalScriptCount())
		return nil, AssertError(str)
	}
	return a, nil
}

// globalID returns the global identifier of the dedup address.  It panics
// when the address is not part of the space.
func (a *addressSpace) globalID(addr chain.DedupAddress) uint32 {
	if !addr.Type.Valid() || addr.ScriptNum == 0 ||
		addr.ScriptNum > a.counts[addr.Type] {

		panic(AssertError(fmt.Sprintf("address %v is outside the address "+
			"space", addr)))
	}
	return a.starts[addr.Type] + addr.ScriptNum - 1
}

// contains returns whether the dedup address is part of the space.
func (a *addressSpace) contains(addr chain.DedupAddress) bool {
	return addr.Type.Valid() && addr.ScriptNum != 0 &&
		addr.ScriptNum <= a.counts[addr.Type]
}

// address returns the dedup address with the provided global identifier.  It
// panics when the identifier is not part of the space.
func (a *addressSpace) address(id uint32) chain.DedupAddress {
	if id >= a.total {
		panic(AssertError(fmt.Sprintf("identifier %d is outside the address "+
			"space of %d scripts", id, a.total)))
	}

	// The block ends are non-decreasing, so the owning type is the first one
	// whose block ends past the identifier.  Empty types are skipped since
	// their block ends where the previous one does.
	d := sort.Search(int(chain.NumDedupTypes), func(i int) bool {
		return a.starts[i]+a.counts[i] > id
	})
	return chain.DedupAddress{
		ScriptNum: id - a.starts[d] + 1,
		Type:      chain.DedupType(d),
	}
}
