// Copyright (c) 2024 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package heuristics

import (
	"reflect"
	"testing"
)

// TestBucketMatch ensures the bucket search reports the expected results,
// including the zero means unbounded depth policy.
func TestBucketMatch(t *testing.T) {
	tests := []struct {
		name     string
		values   []int64
		goals    []int64
		maxDepth int
		want     SearchResult
	}{{
		name:   "exact fill",
		values: []int64{260, 160},
		goals:  []int64{245, 145},
		want:   SearchTrue,
	}, {
		name:   "insufficient total value",
		values: []int64{100, 100},
		goals:  []int64{150, 60},
		want:   SearchFalse,
	}, {
		name:   "enough total but no valid split",
		values: []int64{300, 10},
		goals:  []int64{155, 155},
		want:   SearchFalse,
	}, {
		name:   "no goals",
		values: []int64{1},
		goals:  nil,
		want:   SearchTrue,
	}, {
		name:   "zero goals are already full",
		values: nil,
		goals:  []int64{0, 0},
		want:   SearchTrue,
	}, {
		name:   "no values",
		values: nil,
		goals:  []int64{1},
		want:   SearchFalse,
	}, {
		name:     "many small values unbounded",
		values:   []int64{1, 1, 1, 1, 1, 1},
		goals:    []int64{3, 3},
		maxDepth: 0,
		want:     SearchTrue,
	}, {
		name:     "many small values bounded",
		values:   []int64{1, 1, 1, 1, 1, 1},
		goals:    []int64{3, 3},
		maxDepth: 3,
		want:     SearchTimeout,
	}, {
		name:     "bound large enough",
		values:   []int64{1, 1, 1, 1, 1, 1},
		goals:    []int64{3, 3},
		maxDepth: 6,
		want:     SearchTrue,
	}}

	for _, test := range tests {
		values := append([]int64(nil), test.values...)
		got := BucketMatch(values, test.goals, test.maxDepth)
		if got != test.want {
			t.Errorf("%q: unexpected result -- got %v, want %v", test.name,
				got, test.want)
		}
		if !reflect.DeepEqual(values, append([]int64(nil), test.values...)) {
			t.Errorf("%q: values modified to %v", test.name, values)
		}
	}
}

// TestSubsetSum ensures the bounded subset sum search finds matches within
// the requested range and respects its bounds.
func TestSubsetSum(t *testing.T) {
	tests := []struct {
		name      string
		values    []int64
		low, high int64
		maxTerms  int
		maxSteps  int
		want      SearchResult
		wantPath  []int
	}{{
		name:   "single value in range",
		values: []int64{5, 997, 40},
		low:    990, high: 1000,
		want:     SearchTrue,
		wantPath: []int{1},
	}, {
		name:   "several values",
		values: []int64{300, 50, 200, 450},
		low:    549, high: 550,
		maxTerms: 4,
		want:     SearchTrue,
		wantPath: []int{0, 1, 2},
	}, {
		name:   "too many terms required",
		values: []int64{1, 1, 1, 1, 1},
		low:    5, high: 5,
		maxTerms: 4,
		want:     SearchFalse,
	}, {
		name:   "no combination in range",
		values: []int64{10, 20, 40},
		low:    45, high: 49,
		want: SearchFalse,
	}, {
		name:   "empty subset never matches",
		values: []int64{10},
		low:    0, high: 5,
		want: SearchFalse,
	}, {
		name:   "step budget exhausted",
		values: []int64{1, 1, 1, 1, 1, 1, 1, 1},
		low:    100, high: 100,
		maxSteps: 5,
		want:     SearchTimeout,
	}}

	for _, test := range tests {
		path, got := SubsetSum(test.values, test.low, test.high,
			test.maxTerms, test.maxSteps)
		if got != test.want {
			t.Errorf("%q: unexpected result -- got %v, want %v", test.name,
				got, test.want)
			continue
		}
		if got == SearchTrue && !reflect.DeepEqual(path, test.wantPath) {
			t.Errorf("%q: unexpected path -- got %v, want %v", test.name,
				path, test.wantPath)
		}
	}
}
