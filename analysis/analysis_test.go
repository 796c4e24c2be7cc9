// Copyright (c) 2024 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package analysis

import (
	"testing"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/mmstanone/blocksci-compilable/chain"
	"github.com/mmstanone/blocksci-compilable/chain/memchain"
	"github.com/stretchr/testify/require"
)

// flowChain is a chain in which the outputs of one coinjoin reach a second
// coinjoin in several ways.
type flowChain struct {
	s *memchain.Store

	cj1    chain.TxNum // source coinjoin
	friend chain.TxNum // spends only cj1 outputs straight into cj2
	send   chain.TxNum // spends a cj1 output into an intermediate tx
	via    chain.TxNum // intermediate tx paying into cj2
	mixed  chain.TxNum // spends a cj1 output and a fresh coin into cj2
	cj2    chain.TxNum // destination coinjoin
}

func newFlowChain(t *testing.T) *flowChain {
	t.Helper()
	b := memchain.NewBuilder(nil)
	addr := func() chain.Address {
		return b.NewAddress(chain.WitnessPubKeyHash)
	}
	out := func(v int64) memchain.OutputSpec {
		return memchain.OutputSpec{Value: v, Address: addr()}
	}
	in := func(tx chain.TxNum, idx uint32) memchain.InputSpec {
		return memchain.InputSpec{Tx: tx, Index: idx}
	}
	add := func(specs ...memchain.TxSpec) []chain.TxNum {
		t.Helper()
		nums, err := b.AddBlock(1600000000, specs...)
		if err != nil {
			t.Fatalf("unexpected error adding block: %v", err)
		}
		return nums
	}

	c := &flowChain{}
	cb := add(memchain.TxSpec{Outputs: []memchain.OutputSpec{
		out(1500), out(1500), out(2000), out(3000), out(5000),
	}})[0]
	c.cj1 = add(memchain.TxSpec{
		Inputs:  []memchain.InputSpec{in(cb, 0), in(cb, 1)},
		Outputs: []memchain.OutputSpec{out(1000), out(1000), out(900), out(100)},
	})[0]
	b2 := add(memchain.TxSpec{
		Inputs:  []memchain.InputSpec{in(c.cj1, 0), in(c.cj1, 1)},
		Outputs: []memchain.OutputSpec{out(1990)},
	}, memchain.TxSpec{
		Inputs:  []memchain.InputSpec{in(c.cj1, 2)},
		Outputs: []memchain.OutputSpec{out(890)},
	})
	c.friend, c.send = b2[0], b2[1]
	b3 := add(memchain.TxSpec{
		Inputs:  []memchain.InputSpec{in(c.send, 0), in(cb, 3)},
		Outputs: []memchain.OutputSpec{out(3880)},
	}, memchain.TxSpec{
		Inputs:  []memchain.InputSpec{in(c.cj1, 3), in(cb, 4)},
		Outputs: []memchain.OutputSpec{out(5050)},
	})
	c.via, c.mixed = b3[0], b3[1]
	c.cj2 = add(memchain.TxSpec{
		Inputs: []memchain.InputSpec{in(c.friend, 0), in(c.via, 0),
			in(c.mixed, 0), in(cb, 2)},
		Outputs: []memchain.OutputSpec{out(3000), out(3000), out(6900)},
	})[0]
	c.s = b.Build()
	return c
}

func bitmapOf(nums ...chain.TxNum) *roaring.Bitmap {
	set := roaring.New()
	for _, n := range nums {
		set.Add(uint32(n))
	}
	return set
}

// TestFilters ensures classified transactions are collected in order
// regardless of the number of segments.
func TestFilters(t *testing.T) {
	c := newFlowChain(t)
	isCoinjoin := func(_ chain.Store, tx *chain.Tx) bool {
		return tx.Num == c.cj1 || tx.Num == c.cj2
	}
	for segments := 1; segments <= 4; segments++ {
		got := FilterTxs(c.s, chain.FullRange(c.s), segments, isCoinjoin)
		require.Equal(t, []chain.TxNum{c.cj1, c.cj2}, got)

		set := CoinjoinSet(c.s, chain.FullRange(c.s), segments, isCoinjoin)
		require.True(t, set.Equals(bitmapOf(c.cj1, c.cj2)))
	}

	got := FilterTxs(c.s, chain.HeightRange(c.s, 2, 4), 2, isCoinjoin)
	require.Empty(t, got)
}

// TestFriendsDontPay ensures only transactions funded entirely by coinjoins
// that feed another coinjoin are reported.
func TestFriendsDontPay(t *testing.T) {
	c := newFlowChain(t)
	coinjoins := bitmapOf(c.cj1, c.cj2)
	for segments := 1; segments <= 3; segments++ {
		got := FriendsDontPay(c.s, chain.FullRange(c.s), segments, coinjoins)
		require.Equal(t, []chain.TxNum{c.friend}, got)
	}
}

// TestConsolidations ensures coinjoin outputs ending up in the same
// transaction are reported.
func TestConsolidations(t *testing.T) {
	c := newFlowChain(t)
	got := Consolidations(c.s, chain.FullRange(c.s), 2, bitmapOf(c.cj1, c.cj2))
	require.Equal(t, []Consolidation{{
		Coinjoin: c.cj1,
		Targets:  map[chain.TxNum]int{c.friend: 2},
	}}, got)

	// Outputs reaching the same transaction through an intermediate hop are
	// consolidated as well.  The coinbase funds the first coinjoin with two
	// outputs which both end up in the friend transaction.
	const coinbase = chain.TxNum(0)
	got = Consolidations(c.s, chain.FullRange(c.s), 1, bitmapOf(coinbase))
	require.Equal(t, []Consolidation{{
		Coinjoin: coinbase,
		Targets:  map[chain.TxNum]int{c.friend: 2},
	}}, got)
}

// TestCoinjoinFlows ensures direct and two hop flows between coinjoins are
// found and that strict mode rejects mixed funding.
func TestCoinjoinFlows(t *testing.T) {
	c := newFlowChain(t)
	from, to := bitmapOf(c.cj1), bitmapOf(c.cj2)

	friend := Flow{
		Tx:        c.friend,
		From:      map[chain.TxNum]int64{c.cj1: 2000},
		To:        map[chain.TxNum]int64{c.cj2: 1990},
		Liquidity: 1990,
	}
	send := Flow{
		Tx:        c.send,
		From:      map[chain.TxNum]int64{c.cj1: 900},
		To:        map[chain.TxNum]int64{c.cj2: 3880},
		Liquidity: 900,
		Hops:      []Hop{{Via: c.via, To: c.cj2}},
	}
	mixed := Flow{
		Tx:        c.mixed,
		From:      map[chain.TxNum]int64{c.cj1: 100},
		To:        map[chain.TxNum]int64{c.cj2: 5050},
		Liquidity: 100,
	}

	got := CoinjoinFlows(c.s, chain.FullRange(c.s), 3, from, to, false)
	require.Equal(t, []Flow{friend, send, mixed}, got)

	got = CoinjoinFlows(c.s, chain.FullRange(c.s), 3, from, to, true)
	require.Equal(t, []Flow{friend, send}, got)

	got = CoinjoinFlows(c.s, chain.FullRange(c.s), 3, to, from, false)
	require.Empty(t, got)
}

// TestHardwareWalletRemixes ensures chains without Wasabi 2 coinjoins have no
// remixes.
func TestHardwareWalletRemixes(t *testing.T) {
	c := newFlowChain(t)
	require.Empty(t, HardwareWalletRemixes(c.s, chain.FullRange(c.s), 2))
}
