// Copyright (c) 2024 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

/*
Package memchain implements chain.Store entirely in memory.

Chains are assembled with a Builder.  Blocks may either be described directly
in terms of allocated addresses and the outputs they spend, which is handy for
tests, or decoded from serialized Bitcoin blocks with AddMsgBlock, in which
case output scripts are classified and deduplicated into addresses the same
way a full chain parser would.  ReadBootstrap feeds blocks from a bootstrap
file into a builder.

A Store returned by Build is immutable and safe for concurrent use.
*/
package memchain
