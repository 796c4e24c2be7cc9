// Copyright (c) 2024 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package heuristics

import "testing"

// TestIsCoinjoin ensures the generic coinjoin classifier behaves as expected
// on its boundaries.
func TestIsCoinjoin(t *testing.T) {
	tests := []struct {
		name string
		ins  []txOut
		outs []txOut
		want bool
	}{{
		name: "two inputs two outputs",
		ins:  []txOut{{200, pkh(1)}, {200, pkh(2)}},
		outs: []txOut{{100, pkh(3)}, {100, pkh(4)}},
		want: false,
	}, {
		name: "two participants",
		ins:  []txOut{{200, pkh(1)}, {200, pkh(2)}},
		outs: []txOut{{100, pkh(3)}, {100, pkh(4)}, {300, pkh(5)}},
		want: true,
	}, {
		name: "dust denomination",
		ins:  []txOut{{2000, pkh(1)}, {2000, pkh(2)}},
		outs: []txOut{{546, pkh(3)}, {546, pkh(4)}, {300, pkh(5)}},
		want: false,
	}, {
		name: "legacy dust denomination",
		ins:  []txOut{{5000, pkh(1)}, {5000, pkh(2)}},
		outs: []txOut{{2730, pkh(3)}, {2730, pkh(4)}, {300, pkh(5)}},
		want: false,
	}, {
		name: "single input address",
		ins:  []txOut{{200, pkh(1)}, {200, pkh(1)}},
		outs: []txOut{{100, pkh(3)}, {100, pkh(4)}, {300, pkh(5)}},
		want: false,
	}, {
		name: "too few inputs for participants",
		ins:  []txOut{{500, pkh(1)}, {500, pkh(2)}},
		outs: []txOut{{100, pkh(3)}, {100, pkh(4)}, {100, pkh(5)},
			{50, pkh(6)}, {50, pkh(7)}},
		want: false,
	}, {
		name: "denomination not once per participant",
		ins:  []txOut{{500, pkh(1)}, {500, pkh(2)}, {500, pkh(8)}},
		outs: []txOut{{100, pkh(3)}, {100, pkh(4)}, {100, pkh(5)},
			{100, pkh(6)}, {50, pkh(7)}},
		want: false,
	}, {
		name: "tied most frequent value",
		ins:  []txOut{{500, pkh(1)}, {500, pkh(2)}},
		outs: []txOut{{100, pkh(3)}, {100, pkh(4)}, {50, pkh(5)},
			{50, pkh(6)}},
		want: false,
	}, {
		name: "three participants",
		ins:  []txOut{{500, pkh(1)}, {500, pkh(2)}, {500, pkh(8)}},
		outs: []txOut{{100, pkh(3)}, {100, pkh(4)}, {100, pkh(5)},
			{400, pkh(6)}, {390, pkh(7)}},
		want: true,
	}, {
		name: "no inputs",
		outs: []txOut{{100, pkh(3)}, {100, pkh(4)}, {300, pkh(5)}},
		want: false,
	}}

	for _, test := range tests {
		tx := makeTx(700000, test.ins, test.outs)
		if got := IsCoinjoin(tx); got != test.want {
			t.Errorf("%q: unexpected result -- got %v, want %v", test.name,
				got, test.want)
		}
	}
}

// TestIsCoinjoinExtra ensures the fee tolerant coinjoin classifier checks
// that the inputs can fund every participant.
func TestIsCoinjoinExtra(t *testing.T) {
	funded := []txOut{{260, pkh(1)}, {160, pkh(2)}}
	outs := []txOut{{100, pkh(3)}, {100, pkh(4)}, {150, pkh(5)}, {50, pkh(6)}}

	tests := []struct {
		name     string
		ins      []txOut
		outs     []txOut
		minFee   int64
		feeRate  float64
		maxDepth int
		want     SearchResult
	}{{
		name:    "funded participants",
		ins:     funded,
		outs:    outs,
		minFee:  5,
		feeRate: 0.05,
		want:    SearchTrue,
	}, {
		name:     "funded participants with small bound",
		ins:      funded,
		outs:     outs,
		minFee:   5,
		feeRate:  0.05,
		maxDepth: 1,
		want:     SearchTimeout,
	}, {
		name:    "fees larger than tolerated",
		ins:     []txOut{{250, pkh(1)}, {140, pkh(2)}},
		outs:    outs,
		minFee:  5,
		feeRate: 0.01,
		want:    SearchFalse,
	}, {
		name:    "input address funds two participants",
		ins:     []txOut{{100, pkh(1)}, {100, pkh(1)}},
		outs:    outs,
		minFee:  5,
		feeRate: 0.05,
		want:    SearchFalse,
	}, {
		name: "mixed outputs to the same address",
		ins:  funded,
		outs: []txOut{{100, pkh(3)}, {100, pkh(3)}, {150, pkh(5)},
			{50, pkh(6)}},
		minFee:  5,
		feeRate: 0.05,
		want:    SearchFalse,
	}, {
		name:    "too few outputs",
		ins:     funded,
		outs:    outs[:2],
		minFee:  5,
		feeRate: 0.05,
		want:    SearchFalse,
	}}

	for _, test := range tests {
		tx := makeTx(700000, test.ins, test.outs)
		got := IsCoinjoinExtra(tx, test.minFee, test.feeRate, test.maxDepth)
		if got != test.want {
			t.Errorf("%q: unexpected result -- got %v, want %v", test.name,
				got, test.want)
		}
	}
}

// TestIsPossibleCoinjoin ensures the relaxed coinjoin classifier only
// considers outputs to addresses that are not also inputs.
func TestIsPossibleCoinjoin(t *testing.T) {
	tests := []struct {
		name string
		ins  []txOut
		outs []txOut
		want SearchResult
	}{{
		name: "two funded unknown outputs",
		ins:  []txOut{{150, pkh(1)}, {150, pkh(2)}},
		outs: []txOut{{100, pkh(3)}, {100, pkh(4)}, {90, pkh(1)}},
		want: SearchTrue,
	}, {
		name: "single input address",
		ins:  []txOut{{150, pkh(1)}, {150, pkh(1)}},
		outs: []txOut{{100, pkh(3)}, {100, pkh(4)}, {90, pkh(1)}},
		want: SearchFalse,
	}, {
		name: "equal outputs only to input addresses",
		ins:  []txOut{{150, pkh(1)}, {150, pkh(2)}},
		outs: []txOut{{100, pkh(1)}, {100, pkh(2)}, {90, pkh(3)}},
		want: SearchFalse,
	}, {
		name: "unknown outputs not equal",
		ins:  []txOut{{150, pkh(1)}, {150, pkh(2)}},
		outs: []txOut{{100, pkh(3)}, {100, pkh(1)}, {90, pkh(4)}},
		want: SearchFalse,
	}, {
		name: "one input funds both",
		ins:  []txOut{{250, pkh(1)}, {10, pkh(2)}},
		outs: []txOut{{100, pkh(3)}, {100, pkh(4)}, {50, pkh(1)}},
		want: SearchFalse,
	}, {
		name: "single output",
		ins:  []txOut{{150, pkh(1)}, {150, pkh(2)}},
		outs: []txOut{{290, pkh(3)}},
		want: SearchFalse,
	}}

	for _, test := range tests {
		tx := makeTx(700000, test.ins, test.outs)
		if got := IsPossibleCoinjoin(tx, 0, 0, 0); got != test.want {
			t.Errorf("%q: unexpected result -- got %v, want %v", test.name,
				got, test.want)
		}
	}
}
