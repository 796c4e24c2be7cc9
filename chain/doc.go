// Copyright (c) 2024 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

/*
Package chain defines the read-only view of a parsed blockchain that the
clustering and heuristics packages consume.

The chain itself is produced and stored elsewhere.  This package only fixes
the vocabulary: address types and the deduplicated address types they
collapse into, transactions with their resolved inputs and outputs, blocks,
and the Store interface that exposes them by dense number.

# Address Model

Every script is identified by its address type and a 1-based ordinal (the
script number) that is unique within its deduplicated type.  Address types
that can describe the same underlying script share an ordinal space.  For
example, pay-to-pubkey, pay-to-pubkey-hash, multisig member keys and
pay-to-witness-pubkey-hash addresses built from the same key all collapse to
the same pubkey dedup address.

Wrapper address types (pay-to-script-hash and pay-to-witness-script-hash) may
have a revealed inner address once they are spent.  The Store exposes that
relationship through WrappedAddress.
*/
package chain
