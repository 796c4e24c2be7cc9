// Copyright (c) 2020-2024 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

/*
Package progresslog provides periodic logging for long running passes over
the chain.

Tests are included to ensure proper functionality.

## Feature Overview

- Maintains cumulative totals between each logging interval
  - Total number of blocks
  - Total number of transactions
- Logs all cumulative data every 10 seconds
- Immediately logs any outstanding data when forced, such as at the end of a
  pass
- Safe for concurrent use by the workers of a segmented pass
*/
package progresslog
