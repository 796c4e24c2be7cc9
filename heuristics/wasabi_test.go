// Copyright (c) 2024 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package heuristics

import (
	"testing"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/mmstanone/blocksci-compilable/chain"
	"github.com/mmstanone/blocksci-compilable/chain/memchain"
)

// TestWasabi2Denominations ensures the precomputed denominations contain the
// expected members of every series and nothing outside of them.
func TestWasabi2Denominations(t *testing.T) {
	tests := []struct {
		value int64
		want  bool
	}{
		{5000, true},
		{134375000000, true},
		{4096, false},
		{8192, true},
		{6561, true},
		{13122, true},
		{19683, true},
		{100000, true},
		{200000, true},
		{500000, true},
		{1000000000, true},
		{7000, false},
		{300000, false},
		{4999, false},
	}
	for _, test := range tests {
		if got := IsWasabi2Denomination(test.value); got != test.want {
			t.Errorf("%d: unexpected membership -- got %v, want %v",
				test.value, got, test.want)
		}
	}

	denoms := Wasabi2Denominations()
	for i := 1; i < len(denoms); i++ {
		if denoms[i] <= denoms[i-1] {
			t.Fatalf("denominations not strictly ascending at %d", i)
		}
	}
}

// wasabi2Tx returns a transaction with the shape of a Wasabi 2 coinjoin.
func wasabi2Tx(height int32, numInputs int) *chain.Tx {
	ins := make([]txOut, numInputs)
	for i := range ins {
		ins[i] = txOut{int64(10000000 - i*1000), wpkh(uint32(i + 1))}
	}
	outs := []txOut{{200000, wpkh(1000)}}
	outs = append(outs, repeat(8, 100000, func(i int) chain.Address {
		return wpkh(uint32(1001 + i))
	})...)
	outs = append(outs, txOut{12345, wpkh(2000)})
	return makeTx(height, ins, outs)
}

// TestIsWasabi2Coinjoin ensures the Wasabi 2 fingerprint is enforced.
func TestIsWasabi2Coinjoin(t *testing.T) {
	tx := wasabi2Tx(FirstWasabi2Height, 50)
	if !IsWasabi2Coinjoin(tx) {
		t.Fatal("expected Wasabi 2 coinjoin")
	}

	early := wasabi2Tx(FirstWasabi2Height-1, 50)
	if IsWasabi2Coinjoin(early) {
		t.Fatal("coinjoin before activation height classified")
	}

	small := wasabi2Tx(FirstWasabi2Height, 5)
	if IsWasabi2Coinjoin(small) {
		t.Fatal("coinjoin with too few inputs classified")
	}
	if !IsWasabi2CoinjoinMinInputs(small, 5) {
		t.Fatal("coinjoin with lowered input minimum not classified")
	}

	unordered := wasabi2Tx(FirstWasabi2Height, 50)
	unordered.Inputs[3].Value = unordered.Inputs[2].Value + 1
	if IsWasabi2Coinjoin(unordered) {
		t.Fatal("coinjoin with unordered inputs classified")
	}

	unorderedOuts := wasabi2Tx(FirstWasabi2Height, 50)
	unorderedOuts.Outputs[9].Value = 300000
	if IsWasabi2Coinjoin(unorderedOuts) {
		t.Fatal("coinjoin with unordered outputs classified")
	}

	legacy := wasabi2Tx(FirstWasabi2Height, 50)
	legacy.Outputs[4].Address = pkh(77)
	if IsWasabi2Coinjoin(legacy) {
		t.Fatal("coinjoin with legacy output classified")
	}

	// Only 8 of 10 outputs are denominations which is exactly 80%.
	boundary := wasabi2Tx(FirstWasabi2Height, 50)
	boundary.Outputs[8].Value = 12346
	if !IsWasabi2Coinjoin(boundary) {
		t.Fatal("coinjoin with 80% denominations not classified")
	}
	boundary.Outputs[7].Value = 12347
	if IsWasabi2Coinjoin(boundary) {
		t.Fatal("coinjoin with 70% denominations classified")
	}
}

// wasabi1Tx returns a transaction with the shape of a Wasabi 1 coinjoin with
// the provided coordinator fee output appended.
func wasabi1Tx(height int32, coordinator chain.Address) *chain.Tx {
	ins := repeat(12, 11000000, func(i int) chain.Address {
		return wpkh(uint32(i + 1))
	})
	outs := repeat(10, 9950000, func(i int) chain.Address {
		return wpkh(uint32(100 + i))
	})
	outs = append(outs, txOut{1000000, wpkh(200)}, txOut{30000, coordinator})
	return makeTx(height, ins, outs)
}

// TestIsWasabi1Coinjoin ensures the Wasabi 1 fingerprint, including the
// coordinator requirement of early rounds, is enforced.
func TestIsWasabi1Coinjoin(t *testing.T) {
	b := memchain.NewBuilder(nil)
	for i := 0; i < 300; i++ {
		b.NewAddress(chain.WitnessPubKeyHash)
	}
	coordinator := wpkh(300)
	decoded, err := btcutil.DecodeAddress(wasabiCoordinators[0],
		&chaincfg.MainNetParams)
	if err != nil {
		t.Fatalf("unexpected decode error: %v", err)
	}
	if err := b.SetAddressHash(coordinator, decoded.ScriptAddress()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	s := b.Build()

	tests := []struct {
		name string
		tx   *chain.Tx
		want bool
	}{{
		name: "early round paying coordinator",
		tx:   wasabi1Tx(FirstWasabi1Height, coordinator),
		want: true,
	}, {
		name: "early round without coordinator",
		tx:   wasabi1Tx(FirstWasabi1Height, wpkh(299)),
		want: false,
	}, {
		name: "late round without coordinator",
		tx:   wasabi1Tx(FirstWasabi1NoCoordHeight, wpkh(299)),
		want: true,
	}, {
		name: "before activation",
		tx:   wasabi1Tx(FirstWasabi1Height-1, coordinator),
		want: false,
	}}

	for _, test := range tests {
		if got := IsWasabi1Coinjoin(s, test.tx); got != test.want {
			t.Errorf("%q: unexpected result -- got %v, want %v", test.name,
				got, test.want)
		}
	}

	offDenom := wasabi1Tx(FirstWasabi1NoCoordHeight, wpkh(299))
	for i := 0; i < 10; i++ {
		offDenom.Outputs[i].Value = 5000000
	}
	if IsWasabi1Coinjoin(s, offDenom) {
		t.Fatal("coinjoin with wrong denomination classified")
	}
	fewInputs := wasabi1Tx(FirstWasabi1NoCoordHeight, wpkh(299))
	fewInputs.Inputs = fewInputs.Inputs[:9]
	if IsWasabi1Coinjoin(s, fewInputs) {
		t.Fatal("coinjoin with fewer inputs than mixed outputs classified")
	}
}

// TestIsWhirlpoolCoinjoin ensures the Whirlpool fingerprint is enforced.
func TestIsWhirlpoolCoinjoin(t *testing.T) {
	pool := func(n int, inValue, outValue int64) *chain.Tx {
		ins := repeat(n, inValue, func(i int) chain.Address {
			return wpkh(uint32(i + 1))
		})
		outs := repeat(n, outValue, func(i int) chain.Address {
			return wpkh(uint32(i + 100))
		})
		return makeTx(FirstWhirlpoolHeight, ins, outs)
	}

	tests := []struct {
		name string
		tx   *chain.Tx
		want bool
	}{
		{"five way 0.01 pool", pool(5, 1000000, 1000000), true},
		{"eight way 0.05 pool with fee payers", pool(8, 5001000, 5000000), true},
		{"not a pool value", pool(5, 1200000, 1200000), false},
		{"too many participants", pool(9, 1000000, 1000000), false},
		{"input below pool value", pool(5, 999999, 1000000), false},
	}
	for _, test := range tests {
		if got := IsWhirlpoolCoinjoin(test.tx); got != test.want {
			t.Errorf("%q: unexpected result -- got %v, want %v", test.name,
				got, test.want)
		}
	}

	early := pool(5, 1000000, 1000000)
	early.Height = FirstWhirlpoolHeight - 1
	if IsWhirlpoolCoinjoin(early) {
		t.Fatal("mix before activation height classified")
	}
	mismatched := pool(5, 1000000, 1000000)
	mismatched.Outputs = mismatched.Outputs[:4]
	if IsWhirlpoolCoinjoin(mismatched) {
		t.Fatal("mix with fewer outputs than inputs classified")
	}
}
