// Copyright (c) 2024 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package heuristics

import (
	"fmt"

	"github.com/mmstanone/blocksci-compilable/chain"
)

const (
	sixMonths  = 15814800
	threeDays  = 259200
	oneBitcoin = 100000000

	// hardwareRemixStart is the time hardware wallet suites started
	// offering coinjoins (2023-06-01 UTC).
	hardwareRemixStart = 1685570400

	remixFeeRate  = 0.003
	remixMaxTerms = 4

	// RemixSearchSteps is the step budget of the subset sum search used to
	// match a remixed amount against coinjoin outputs.
	RemixSearchSteps = 100000
)

// RemixResult is the outcome of IsLongDormantInRemixes.
type RemixResult uint8

const (
	// RemixNone indicates the transaction does not match the pattern.
	RemixNone RemixResult = iota

	// RemixHardwareWallet indicates long dormant funds were remixed in the
	// manner of a hardware wallet suite.
	RemixHardwareWallet

	// RemixSoftwareWallet indicates long dormant funds were remixed in the
	// manner of a software wallet that moves them first.
	RemixSoftwareWallet

	// RemixIndeterminate indicates the pattern could not be ruled out
	// because a subset sum search ran out of budget.
	RemixIndeterminate
)

// String returns the remix result as a human-readable name.
func (r RemixResult) String() string {
	switch r {
	case RemixNone:
		return "none"
	case RemixHardwareWallet:
		return "hardware"
	case RemixSoftwareWallet:
		return "software"
	case RemixIndeterminate:
		return "indeterminate"
	}
	return fmt.Sprintf("Unknown RemixResult (%d)", uint8(r))
}

// restsLong returns whether the first output of the coinjoin was left
// untouched for at least six months.
func restsLong(s chain.Store, cj *chain.Tx) bool {
	if len(cj.Outputs) == 0 {
		return false
	}
	first := &cj.Outputs[0]
	if !first.IsSpent() {
		return true
	}
	spender := s.Tx(first.SpendingTx)
	return int64(spender.Timestamp)-int64(cj.Timestamp) >= sixMonths
}

// IsLongDormantInRemixes detects funds that were dormant for a long time and
// then remixed through a Wasabi 2 coinjoin.  See
// IsLongDormantInRemixesWith for details.
func IsLongDormantInRemixes(s chain.Store, tx *chain.Tx) RemixResult {
	return IsLongDormantInRemixesWith(s, tx, func(_ chain.Store, cj *chain.Tx) bool {
		return IsWasabi2Coinjoin(cj)
	})
}

// IsLongDormantInRemixesWith detects funds that were dormant for a long time
// and then remixed through a coinjoin recognized by isCoinjoin.
//
// The transaction must consolidate inputs that are all at least six months
// old into a single output of more than 1 BTC, which is spent within three
// days.  One of the outputs of that spending transaction must enter a
// coinjoin in which at most four outputs add up to its value less a fee
// tolerance of 0.3%.
//
// The pattern is attributed to a hardware wallet suite when the coinjoin
// took place after such suites launched and its first output then rests for
// at least six months.  It is attributed to a software wallet when the funds
// reached the coinjoin within three days of the spending transaction and the
// first coinjoin output rests just as long.
func IsLongDormantInRemixesWith(s chain.Store, tx *chain.Tx, isCoinjoin TxClassifier) RemixResult {
	if tx.Coinbase || len(tx.Inputs) == 0 || len(tx.Outputs) != 1 {
		return RemixNone
	}

	for i := range tx.Inputs {
		prev := s.Tx(tx.Inputs[i].SpentTx)
		if int64(tx.Timestamp)-int64(prev.Timestamp) < sixMonths {
			return RemixNone
		}
	}

	out := &tx.Outputs[0]
	if out.Value <= oneBitcoin || !out.IsSpent() {
		return RemixNone
	}
	spendingTx := s.Tx(out.SpendingTx)
	if int64(spendingTx.Timestamp)-int64(tx.Timestamp) > threeDays {
		return RemixNone
	}

	result := RemixNone
	for i := range spendingTx.Outputs {
		toCoinjoin := &spendingTx.Outputs[i]
		if !toCoinjoin.IsSpent() {
			continue
		}
		cj := s.Tx(toCoinjoin.SpendingTx)
		if !isCoinjoin(s, cj) {
			continue
		}

		values := make([]int64, len(cj.Outputs))
		for j := range cj.Outputs {
			values[j] = cj.Outputs[j].Value
		}
		value := toCoinjoin.Value
		low := value - int64(float64(value)*remixFeeRate)
		_, res := SubsetSum(values, low, value, remixMaxTerms, RemixSearchSteps)
		switch res {
		case SearchTimeout:
			result = RemixIndeterminate
			continue
		case SearchFalse:
			continue
		}

		if !restsLong(s, cj) {
			continue
		}
		if cj.Timestamp > hardwareRemixStart {
			return RemixHardwareWallet
		}
		if int64(cj.Timestamp)-int64(spendingTx.Timestamp) < threeDays {
			return RemixSoftwareWallet
		}
	}
	return result
}
