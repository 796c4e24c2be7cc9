// Copyright (c) 2024 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package heuristics

import (
	"fmt"
	"sort"

	"github.com/decred/dcrd/container/lru"
	"github.com/mmstanone/blocksci-compilable/chain"
)

// TxClassifier is a boolean transaction classifier.  Implementations must be
// safe for concurrent use.
type TxClassifier func(s chain.Store, tx *chain.Tx) bool

// CoinjoinType names a registered coinjoin classifier.
type CoinjoinType string

// These constants define the registered coinjoin classifiers.
const (
	CoinjoinGeneric   CoinjoinType = "coinjoin"
	CoinjoinWasabi1   CoinjoinType = "wasabi1"
	CoinjoinWasabi2   CoinjoinType = "wasabi2"
	CoinjoinWhirlpool CoinjoinType = "whirlpool"
)

var coinjoinClassifiers = map[CoinjoinType]TxClassifier{
	CoinjoinGeneric: func(_ chain.Store, tx *chain.Tx) bool {
		return IsCoinjoin(tx)
	},
	CoinjoinWasabi1: IsWasabi1Coinjoin,
	CoinjoinWasabi2: func(_ chain.Store, tx *chain.Tx) bool {
		return IsWasabi2Coinjoin(tx)
	},
	CoinjoinWhirlpool: func(_ chain.Store, tx *chain.Tx) bool {
		return IsWhirlpoolCoinjoin(tx)
	},
}

// CoinjoinTypes returns the names of every registered coinjoin classifier in
// ascending order.
func CoinjoinTypes() []CoinjoinType {
	types := make([]CoinjoinType, 0, len(coinjoinClassifiers))
	for t := range coinjoinClassifiers {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}

// CoinjoinClassifier returns the coinjoin classifier registered under the
// provided name.
func CoinjoinClassifier(t CoinjoinType) (TxClassifier, error) {
	c, ok := coinjoinClassifiers[t]
	if !ok {
		str := fmt.Sprintf("unknown coinjoin type %q (valid types: %v)", t,
			CoinjoinTypes())
		return nil, makeError(ErrUnknownCoinjoinType, str)
	}
	return c, nil
}

// Memoize returns a classifier that caches up to limit verdicts of c by
// transaction number.  It is useful for analyses that repeatedly classify the
// same transactions from different starting points.  The returned classifier
// must only be used with a single store.
func Memoize(c TxClassifier, limit uint32) TxClassifier {
	cache := lru.NewMap[chain.TxNum, bool](limit)
	return func(s chain.Store, tx *chain.Tx) bool {
		if v, ok := cache.Get(tx.Num); ok {
			return v
		}
		v := c(s, tx)
		cache.Put(tx.Num, v)
		return v
	}
}
