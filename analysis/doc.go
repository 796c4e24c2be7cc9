// Copyright (c) 2024 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

/*
Package analysis provides chain-wide passes built on the transaction
classifiers, such as collecting every coinjoin of a given kind or following
the flow of liquidity between coinjoins.

Every pass splits a transaction range into segments which are processed
concurrently with cluster.MapReduce.  Sets of transactions are represented as
roaring bitmaps of transaction numbers, which may be shared by concurrent
passes as long as nobody modifies them.
*/
package analysis
