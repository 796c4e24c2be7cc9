// Copyright (c) 2024 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

/*
Package heuristics classifies individual transactions into behavioral
categories such as coinjoins, peeling chains and wallet remix patterns.

Every classifier is a pure function of a transaction and its resolved
neighborhood in a chain.Store.  None of them keep state, so they are safe to
call concurrently from any number of goroutines.

Classifiers never fail.  Transactions with unusual but representable shapes,
such as no inputs or no outputs, are simply not matched.  When a heuristic is
ambiguous, for example when no single output value is the most frequent one,
the transaction is not matched either.

The classifiers that rely on bounded searches (BucketMatch and SubsetSum)
report a SearchResult so callers can tell an exhausted search apart from one
that ran out of budget.
*/
package heuristics
