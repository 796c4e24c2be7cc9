// Copyright (c) 2024 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package change

import (
	"fmt"
	"sort"

	"github.com/mmstanone/blocksci-compilable/chain"
)

// registry maps the names accepted by ByName to constructors of the
// associated heuristics.
var registry = map[string]func(s chain.Store) Heuristic{
	"none":        func(chain.Store) Heuristic { return None },
	"peeling":     PeelingChain,
	"addresstype": func(chain.Store) Heuristic { return AddressType },
	"optimal":     func(chain.Store) Heuristic { return OptimalChange },
	"poweroften": func(chain.Store) Heuristic {
		return PowerOfTen(DefaultPowerOfTenDigits)
	},
	"legacy": func(chain.Store) Heuristic {
		return Unique(Intersect(AddressType, OptimalChange))
	},
}

// Names returns the names accepted by ByName in ascending order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ByName returns the change heuristic registered under the provided name for
// use with the provided store.
func ByName(name string, s chain.Store) (Heuristic, error) {
	ctor, ok := registry[name]
	if !ok {
		str := fmt.Sprintf("unknown change heuristic %q (valid heuristics: "+
			"%v)", name, Names())
		return nil, makeError(ErrUnknownHeuristic, str)
	}
	return ctor(s), nil
}
