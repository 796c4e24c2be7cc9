// Copyright (c) 2024 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package heuristics

import "github.com/mmstanone/blocksci-compilable/chain"

// Output values that are common for reasons unrelated to mixing and are
// therefore never treated as a coinjoin denomination.
const (
	dustValue       = 546
	legacyDustValue = 2730
)

const (
	minCoinjoinIns  = 2
	minCoinjoinOuts = 3
	possibleBuckets = 2
)

func isDust(value int64) bool {
	return value == dustValue || value == legacyDustValue
}

// mostFrequent returns the key with the highest count along with that count.
// The final result reports whether the key is the only one with that count.
func mostFrequent(counts map[int64]int) (int64, int, bool) {
	var best int64
	var bestCount int
	unique := false
	for value, count := range counts {
		switch {
		case count > bestCount:
			best, bestCount, unique = value, count, true
		case count == bestCount:
			unique = false
		}
	}
	return best, bestCount, unique
}

// participantCount returns the number of participants a coinjoin with the
// provided number of outputs would have assuming each participant receives a
// mixed output and a change output.
func participantCount(numOutputs int) int {
	return (numOutputs + 1) / 2
}

// IsCoinjoin returns whether the transaction looks like a generic equal-output
// coinjoin.
//
// Each participant is assumed to contribute at least one input and receive a
// mixed output along with a change output.  The most frequent output value
// must therefore occur exactly once per participant and there must be at
// least as many inputs and distinct input addresses as participants.
func IsCoinjoin(tx *chain.Tx) bool {
	if len(tx.Inputs) < minCoinjoinIns || len(tx.Outputs) < minCoinjoinOuts {
		return false
	}

	participants := participantCount(len(tx.Outputs))
	if participants > len(tx.Inputs) {
		return false
	}

	inputAddrs := make(map[chain.Address]struct{}, len(tx.Inputs))
	for i := range tx.Inputs {
		inputAddrs[tx.Inputs[i].Address] = struct{}{}
	}
	if participants > len(inputAddrs) {
		return false
	}

	counts := make(map[int64]int, len(tx.Outputs))
	for i := range tx.Outputs {
		counts[tx.Outputs[i].Value]++
	}
	value, count, unique := mostFrequent(counts)
	if !unique || count != participants {
		return false
	}
	return !isDust(value)
}

// aggregateInputs returns the total value spent from every distinct input
// address.
func aggregateInputs(tx *chain.Tx) map[chain.Address]int64 {
	totals := make(map[chain.Address]int64, len(tx.Inputs))
	for i := range tx.Inputs {
		in := &tx.Inputs[i]
		totals[in.Address] += in.Value
	}
	return totals
}

func mapValues(totals map[chain.Address]int64) []int64 {
	values := make([]int64, 0, len(totals))
	for _, v := range totals {
		values = append(values, v)
	}
	return values
}

// maxFee returns the largest fee a participant could have paid on a mixed
// output of the provided value.
func maxFee(value, minBaseFee int64, percentageFee float64) int64 {
	fee := int64(float64(value) * percentageFee)
	if minBaseFee > fee {
		return minBaseFee
	}
	return fee
}

// IsCoinjoinExtra is a fee tolerant version of IsCoinjoin.  It additionally
// verifies that the per-address input totals can fund one mixed output plus
// one change output for every participant, allowing each participant to have
// paid up to max(minBaseFee, mixedValue*percentageFee) in fees.
//
// The funding check is performed by BucketMatch with the provided maxDepth,
// so SearchTimeout is returned when it could not be decided in time.
func IsCoinjoinExtra(tx *chain.Tx, minBaseFee int64, percentageFee float64, maxDepth int) SearchResult {
	if len(tx.Inputs) < minCoinjoinIns || len(tx.Outputs) < minCoinjoinOuts {
		return SearchFalse
	}

	participants := participantCount(len(tx.Outputs))
	if participants > len(tx.Inputs) {
		return SearchFalse
	}

	inputTotals := aggregateInputs(tx)
	if participants > len(inputTotals) {
		return SearchFalse
	}

	// Count the distinct receiving addresses of every output value.
	receivers := make(map[int64]map[chain.Address]struct{}, len(tx.Outputs))
	for i := range tx.Outputs {
		out := &tx.Outputs[i]
		addrs, ok := receivers[out.Value]
		if !ok {
			addrs = make(map[chain.Address]struct{})
			receivers[out.Value] = addrs
		}
		addrs[out.Address] = struct{}{}
	}
	counts := make(map[int64]int, len(receivers))
	for value, addrs := range receivers {
		counts[value] = len(addrs)
	}
	goalValue, count, unique := mostFrequent(counts)
	if !unique || count != participants || isDust(goalValue) {
		return SearchFalse
	}

	goals := make([]int64, participants)
	for i := range goals {
		goals[i] = goalValue
	}
	var j int
	for i := range tx.Outputs {
		value := tx.Outputs[i].Value
		if value == goalValue {
			continue
		}
		if j < len(goals) {
			goals[j] += value
		}
		j++
	}
	fee := maxFee(goalValue, minBaseFee, percentageFee)
	for i := range goals {
		goals[i] -= fee
		if goals[i] < 0 {
			goals[i] = 0
		}
	}

	return BucketMatch(mapValues(inputTotals), goals, maxDepth)
}

// IsPossibleCoinjoin is a relaxed variant of IsCoinjoinExtra.  It only
// considers outputs paying to addresses that do not also appear among the
// inputs and checks whether at least two distinct input addresses could each
// have funded one of the most frequent of those outputs.
func IsPossibleCoinjoin(tx *chain.Tx, minBaseFee int64, percentageFee float64, maxDepth int) SearchResult {
	if len(tx.Outputs) <= 1 || len(tx.Inputs) <= 1 {
		return SearchFalse
	}

	counts := make(map[int64]int, len(tx.Outputs))
	for i := range tx.Outputs {
		counts[tx.Outputs[i].Value]++
	}
	if _, count, unique := mostFrequent(counts); !unique || count <= 1 {
		return SearchFalse
	}

	inputTotals := aggregateInputs(tx)
	if len(inputTotals) <= 1 {
		return SearchFalse
	}

	unknown := make(map[int64]int, len(tx.Outputs))
	var numUnknown int
	for i := range tx.Outputs {
		out := &tx.Outputs[i]
		if _, ok := inputTotals[out.Address]; ok {
			continue
		}
		unknown[out.Value]++
		numUnknown++
	}
	if numUnknown <= 1 {
		return SearchFalse
	}
	value, count, unique := mostFrequent(unknown)
	if !unique || count <= 1 {
		return SearchFalse
	}

	var goal int64
	if value > 0 {
		goal = value - maxFee(value, minBaseFee, percentageFee)
		if goal < 0 {
			goal = 0
		}
	}
	goals := make([]int64, possibleBuckets)
	for i := range goals {
		goals[i] = goal
	}
	return BucketMatch(mapValues(inputTotals), goals, maxDepth)
}
