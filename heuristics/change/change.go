// Copyright (c) 2024 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package change

import "github.com/mmstanone/blocksci-compilable/chain"

// Heuristic identifies the change outputs of a transaction.
//
// Implementations must not modify the transaction and must be safe for
// concurrent use.  The returned outputs are copies of outputs of the
// transaction in the order they appear in it.
type Heuristic interface {
	Change(tx *chain.Tx) []chain.Output
}

// Func is an adapter to allow the use of ordinary functions as change
// heuristics.
type Func func(tx *chain.Tx) []chain.Output

// Change calls f(tx).
func (f Func) Change(tx *chain.Tx) []chain.Output {
	return f(tx)
}

// None is the heuristic that never identifies any change.
var None Heuristic = Func(func(*chain.Tx) []chain.Output { return nil })

// selectOutputs returns copies of the outputs of the transaction for which
// keep returns true.
func selectOutputs(tx *chain.Tx, keep func(i int, out *chain.Output) bool) []chain.Output {
	var outs []chain.Output
	for i := range tx.Outputs {
		if keep(i, &tx.Outputs[i]) {
			outs = append(outs, tx.Outputs[i])
		}
	}
	return outs
}

// Unique returns a heuristic that only reports the change of h when h
// identifies exactly one output.
func Unique(h Heuristic) Heuristic {
	return Func(func(tx *chain.Tx) []chain.Output {
		outs := h.Change(tx)
		if len(outs) != 1 {
			return nil
		}
		return outs
	})
}

// flagged returns which outputs of the transaction the copies in outs refer
// to.  Each copy claims the first unclaimed output equal to it, so a
// transaction paying identical outputs only has as many of them flagged as
// there are copies.
func flagged(tx *chain.Tx, outs []chain.Output) []bool {
	flags := make([]bool, len(tx.Outputs))
	if len(outs) == 0 {
		return flags
	}
	pending := make(map[chain.Output]int, len(outs))
	for _, out := range outs {
		pending[out]++
	}
	for i := range tx.Outputs {
		if pending[tx.Outputs[i]] > 0 {
			pending[tx.Outputs[i]]--
			flags[i] = true
		}
	}
	return flags
}

// Intersect returns a heuristic that reports the outputs identified by every
// one of the provided heuristics.  Intersecting no heuristics identifies no
// change.
func Intersect(hs ...Heuristic) Heuristic {
	return Func(func(tx *chain.Tx) []chain.Output {
		if len(hs) == 0 {
			return nil
		}
		counts := make([]int, len(tx.Outputs))
		for _, h := range hs {
			for i, ok := range flagged(tx, h.Change(tx)) {
				if ok {
					counts[i]++
				}
			}
		}
		return selectOutputs(tx, func(i int, _ *chain.Output) bool {
			return counts[i] == len(hs)
		})
	})
}

// Union returns a heuristic that reports the outputs identified by any of the
// provided heuristics.
func Union(hs ...Heuristic) Heuristic {
	return Func(func(tx *chain.Tx) []chain.Output {
		found := make([]bool, len(tx.Outputs))
		for _, h := range hs {
			for i, ok := range flagged(tx, h.Change(tx)) {
				found[i] = found[i] || ok
			}
		}
		return selectOutputs(tx, func(i int, _ *chain.Output) bool {
			return found[i]
		})
	})
}
