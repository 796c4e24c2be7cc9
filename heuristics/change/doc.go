// Copyright (c) 2024 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

/*
Package change provides heuristics that identify the change outputs of a
transaction.

A change heuristic inspects a single transaction and returns the outputs it
believes return leftover value to the spender.  The clustering linking pass
unites the address of every such output with the address of the first input
of the transaction, so heuristics that are too eager merge unrelated entities.

Heuristics must be free of side effects and safe for concurrent use since the
linking pass invokes them from many goroutines at once.

The package provides a handful of reference heuristics along with the Unique,
Intersect, and Union combinators which allow them to be composed.  ByName
resolves the heuristics exposed on the command line.
*/
package change
