// Copyright (c) 2024 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package heuristics

import (
	"fmt"
	"sort"
)

// SearchResult is the outcome of a bounded search.
type SearchResult uint8

const (
	// SearchFalse indicates the search space was exhausted without a match.
	SearchFalse SearchResult = iota

	// SearchTrue indicates a match was found.
	SearchTrue

	// SearchTimeout indicates the search ran out of budget before it could
	// either find a match or rule one out.
	SearchTimeout
)

// String returns the search result as a human-readable name.
func (r SearchResult) String() string {
	switch r {
	case SearchFalse:
		return "false"
	case SearchTrue:
		return "true"
	case SearchTimeout:
		return "timeout"
	}
	return fmt.Sprintf("Unknown SearchResult (%d)", uint8(r))
}

// bucket tracks how much value has been assigned towards a goal.
type bucket struct {
	current int64
	goal    int64
}

func (b *bucket) full() bool {
	return b.current >= b.goal
}

func (b *bucket) remaining() int64 {
	if b.goal > b.current {
		return b.goal - b.current
	}
	return 0
}

// bucketSearch is the state shared by every frame of a bucket search.
type bucketSearch struct {
	values   []int64
	maxDepth int
	depth    int
}

func (s *bucketSearch) search(buckets []bucket, totalRemaining, valueLeft int64) SearchResult {
	if totalRemaining > valueLeft {
		return SearchFalse
	}

	open := make([]bucket, 0, len(buckets))
	for _, b := range buckets {
		if !b.full() {
			open = append(open, b)
		}
	}
	if len(open) == 0 {
		return SearchTrue
	}
	if len(s.values) == 0 {
		return SearchFalse
	}

	s.depth++
	if s.maxDepth != 0 && s.depth > s.maxDepth {
		return SearchTimeout
	}

	// Offer the largest unused value to the most depleted bucket first.
	sort.SliceStable(open, func(i, j int) bool {
		return open[i].remaining() > open[j].remaining()
	})
	last := s.values[len(s.values)-1]
	s.values = s.values[:len(s.values)-1]
	valueLeft -= last
	for i := range open {
		remaining := totalRemaining - open[i].remaining()
		open[i].current += last
		remaining += open[i].remaining()
		if res := s.search(open, remaining, valueLeft); res != SearchFalse {
			return res
		}
		open[i].current -= last
	}
	s.values = append(s.values, last)
	return SearchFalse
}

// BucketMatch returns whether the values can be distributed among buckets
// with the provided goals so that every bucket reaches its goal.  Each value
// is used at most once.
//
// The search is a depth-first backtracking search that counts every
// assignment step.  Once more than maxDepth steps have been taken the search
// gives up and SearchTimeout is returned.  A maxDepth of zero means the
// search is unbounded.
//
// Neither slice is modified.
func BucketMatch(values, goals []int64, maxDepth int) SearchResult {
	sorted := make([]int64, len(values))
	copy(sorted, values)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	buckets := make([]bucket, len(goals))
	var totalRemaining int64
	for i, goal := range goals {
		buckets[i].goal = goal
		totalRemaining += goal
	}
	sort.SliceStable(buckets, func(i, j int) bool {
		return buckets[i].goal > buckets[j].goal
	})

	var valueLeft int64
	for _, v := range sorted {
		valueLeft += v
	}

	s := bucketSearch{values: sorted, maxDepth: maxDepth}
	return s.search(buckets, totalRemaining, valueLeft)
}

// subsetSearch is the state shared by every frame of a subset sum search.
type subsetSearch struct {
	values   []int64
	order    []int
	low      int64
	high     int64
	maxTerms int
	maxSteps int
	steps    int
	path     []int
}

func (s *subsetSearch) search(pos int, sum int64) SearchResult {
	if len(s.path) > 0 && sum >= s.low && sum <= s.high {
		return SearchTrue
	}
	if sum > s.high || pos == len(s.order) ||
		(s.maxTerms > 0 && len(s.path) >= s.maxTerms) {
		return SearchFalse
	}

	s.steps++
	if s.maxSteps != 0 && s.steps > s.maxSteps {
		return SearchTimeout
	}

	idx := s.order[pos]
	s.path = append(s.path, idx)
	if res := s.search(pos+1, sum+s.values[idx]); res != SearchFalse {
		return res
	}
	s.path = s.path[:len(s.path)-1]
	return s.search(pos+1, sum)
}

// SubsetSum searches for a non-empty subset of at most maxTerms of the
// provided non-negative values whose sum lies in [low, high].  The indices of
// the matching values are returned along with SearchTrue when one is found.
//
// Every include decision counts as a step.  Once more than maxSteps steps
// have been taken, SearchTimeout is returned.  A maxTerms or maxSteps of zero
// means the respective dimension is unbounded.
func SubsetSum(values []int64, low, high int64, maxTerms, maxSteps int) ([]int, SearchResult) {
	order := make([]int, len(values))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		return values[order[i]] > values[order[j]]
	})

	s := subsetSearch{
		values:   values,
		order:    order,
		low:      low,
		high:     high,
		maxTerms: maxTerms,
		maxSteps: maxSteps,
	}
	res := s.search(0, 0)
	if res != SearchTrue {
		return nil, res
	}
	sort.Ints(s.path)
	return s.path, res
}
