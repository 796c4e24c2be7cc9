// Copyright (c) 2024 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"os"
	"os/signal"
)

// interruptSignals defines the signals that abort a run.  This may be
// modified during init depending on the platform.
var interruptSignals = []os.Signal{os.Interrupt}

// interruptListener closes the log rotator and exits the process when an
// interrupt signal is received.  An index that was being written is left
// incomplete and must be replaced with --overwrite.
func interruptListener() {
	interruptChannel := make(chan os.Signal, 1)
	signal.Notify(interruptChannel, interruptSignals...)
	go func() {
		sig := <-interruptChannel
		log.Infof("Received signal (%s).  Shutting down...", sig)
		if logRotator != nil {
			logRotator.Close()
		}
		os.Exit(1)
	}()
}
