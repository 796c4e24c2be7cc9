// Copyright (c) 2024 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package parallel splits contiguous index ranges into segments and runs
// work over them on short-lived goroutines.
package parallel

import (
	"runtime"
	"sync"
)

// Range is the half-open index range [Start, End).
type Range struct {
	Start uint32
	End   uint32
}

// Len returns the number of indices in the range.
func (r Range) Len() uint32 {
	if r.End <= r.Start {
		return 0
	}
	return r.End - r.Start
}

// DefaultSegments returns the segment count used when a caller does not
// specify one.
func DefaultSegments() int {
	return runtime.NumCPU()
}

// Segments splits [start, end) into k contiguous, non-overlapping ranges
// that together cover the whole range.  Earlier segments absorb the
// remainder one index each.  When the range holds fewer than k indices the
// whole range is returned as the only segment.  A k of zero or less is
// treated as one.
func Segments(start, end uint32, k int) []Range {
	if k <= 0 {
		k = 1
	}
	if end < start {
		end = start
	}
	n := end - start
	if uint64(n) < uint64(k) {
		return []Range{{Start: start, End: end}}
	}

	chunk := n / uint32(k)
	rem := n % uint32(k)
	segments := make([]Range, k)
	cur := start
	for i := 0; i < k; i++ {
		size := chunk
		if uint32(i) < rem {
			size++
		}
		segments[i] = Range{Start: cur, End: cur + size}
		cur += size
	}
	return segments
}

// ForEach invokes fn once for every segment of [start, end).  All but the
// last segment run on their own goroutines while the calling goroutine
// processes the last one.  It returns once every invocation has finished.
func ForEach(start, end uint32, k int, fn func(r Range)) {
	segments := Segments(start, end, k)
	last := len(segments) - 1

	var wg sync.WaitGroup
	wg.Add(last)
	for i := 0; i < last; i++ {
		go func(r Range) {
			defer wg.Done()
			fn(r)
		}(segments[i])
	}
	fn(segments[last])
	wg.Wait()
}

// MapReduce applies mapFn to every segment of [start, end) concurrently in
// the same manner as ForEach and then folds the per-segment results in
// segment order with reduceFn, starting from init.  reduceFn must be
// associative.
func MapReduce[T any](start, end uint32, k int, mapFn func(r Range) T,
	reduceFn func(acc, v T) T, init T) T {

	segments := Segments(start, end, k)
	results := make([]T, len(segments))
	last := len(segments) - 1

	var wg sync.WaitGroup
	wg.Add(last)
	for i := 0; i < last; i++ {
		go func(i int) {
			defer wg.Done()
			results[i] = mapFn(segments[i])
		}(i)
	}
	results[last] = mapFn(segments[last])
	wg.Wait()

	acc := init
	for _, v := range results {
		acc = reduceFn(acc, v)
	}
	return acc
}
