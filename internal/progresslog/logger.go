// Copyright (c) 2015-2024 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package progresslog

import (
	"sync"
	"time"

	"github.com/decred/slog"
	"github.com/mmstanone/blocksci-compilable/chain"
)

// logInterval is the minimum time between two progress messages that are
// not forced.
const logInterval = time.Second * 10

// pickNoun returns the singular or plural form of a noun depending on the
// provided count.
func pickNoun(n uint64, singular, plural string) string {
	if n == 1 {
		return singular
	}
	return plural
}

// Logger provides periodic logging of progress towards some action such as
// ingesting blocks or linking transactions.
type Logger struct {
	sync.Mutex
	subsystemLogger slog.Logger
	progressAction  string

	// lastLogTime tracks the last time a log statement was shown.
	lastLogTime time.Time

	// These fields accumulate information between log statements.
	receivedBlocks uint64
	receivedTxns   uint64

	// totalTxns accumulates every transaction ever reported.
	totalTxns uint64
}

// New returns a new progress logger.
func New(progressAction string, logger slog.Logger) *Logger {
	return &Logger{
		lastLogTime:     time.Now(),
		progressAction:  progressAction,
		subsystemLogger: logger,
	}
}

// LogBlockProgress accumulates details for the provided block and
// periodically (every 10 seconds) logs an information message to show
// progress to the user along with duration and totals included.
//
// The force flag may be used to force a log message to be shown regardless of
// the time the last one was shown.
//
// The progress message is templated as follows:
//  {progressAction} {numProcessed} {blocks|block} in the last {timePeriod}
//  ({numTxs} {transactions|transaction}, height {lastBlockHeight},
//  {lastBlockTimeStamp})
func (l *Logger) LogBlockProgress(block *chain.Block, forceLog bool) {
	l.Lock()
	defer l.Unlock()

	l.receivedBlocks++
	l.receivedTxns += uint64(block.TxCount)
	l.totalTxns += uint64(block.TxCount)
	now := time.Now()
	duration := now.Sub(l.lastLogTime)
	if !forceLog && duration < logInterval {
		return
	}

	// Log information about chain progress.
	l.subsystemLogger.Infof("%s %d %s in the last %0.2fs (%d %s, height %d, %s)",
		l.progressAction, l.receivedBlocks,
		pickNoun(l.receivedBlocks, "block", "blocks"), duration.Seconds(),
		l.receivedTxns, pickNoun(l.receivedTxns, "transaction", "transactions"),
		block.Height, time.Unix(int64(block.Timestamp), 0).UTC())

	l.receivedBlocks = 0
	l.receivedTxns = 0
	l.lastLogTime = now
}

// LogTxProgress accumulates the provided number of processed transactions
// and periodically (every 10 seconds) logs an information message to show
// progress to the user.
//
// The force flag may be used to force a log message to be shown regardless of
// the time the last one was shown.
//
// The progress message is templated as follows:
//  {progressAction} {numProcessed} {transactions|transaction} in the last
//  {timePeriod} ({totalProcessed} total)
func (l *Logger) LogTxProgress(numTxns uint64, forceLog bool) {
	l.Lock()
	defer l.Unlock()

	l.receivedTxns += numTxns
	l.totalTxns += numTxns
	now := time.Now()
	duration := now.Sub(l.lastLogTime)
	if !forceLog && duration < logInterval {
		return
	}

	l.subsystemLogger.Infof("%s %d %s in the last %0.2fs (%d total)",
		l.progressAction, l.receivedTxns,
		pickNoun(l.receivedTxns, "transaction", "transactions"),
		duration.Seconds(), l.totalTxns)

	l.receivedTxns = 0
	l.lastLogTime = now
}

// SetLastLogTime updates the last time data was logged to the provided time.
func (l *Logger) SetLastLogTime(time time.Time) {
	l.Lock()
	l.lastLogTime = time
	l.Unlock()
}
