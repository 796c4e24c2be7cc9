// Copyright (c) 2024 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	flags "github.com/jessevdk/go-flags"
	"github.com/mmstanone/blocksci-compilable/chain/memchain"
	"github.com/mmstanone/blocksci-compilable/internal/version"
)

// bootstrapBufferSize is the size of the read buffer for the blocks file.
const bootstrapBufferSize = 1 << 20

// loadChain reads every block of the configured blocks file into a new
// in-memory store.
func loadChain() (*memchain.Store, error) {
	if !fileExists(cfg.BlocksFile) {
		str := "the specified blocks file [%v] does not exist"
		return nil, fmt.Errorf(str, cfg.BlocksFile)
	}
	f, err := os.Open(cfg.BlocksFile)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	log.Infof("Loading blocks from '%s'", cfg.BlocksFile)
	start := time.Now()
	b := memchain.NewBuilder(activeNetParams)
	r := bufio.NewReaderSize(f, bootstrapBufferSize)
	n, err := memchain.ReadBootstrap(r, activeNetParams.Net, b)
	if err != nil {
		return nil, fmt.Errorf("failed to load block %d: %w", n, err)
	}
	s := b.Build()
	log.Infof("Loaded %d blocks with %d transactions in %v", n, s.TxCount(),
		time.Since(start).Round(time.Millisecond))
	return s, nil
}

// newParser returns the command line parser with the global options and every
// command registered.
func newParser(appName string) *flags.Parser {
	parserFlags := flags.Options(flags.HelpFlag | flags.PassDoubleDash)
	parser := flags.NewNamedParser(appName, parserFlags)
	parser.AddGroup("Global Options", "", cfg)
	parser.AddCommand("cluster",
		"Cluster the addresses of the chain",
		"Cluster the addresses of the chain by uniting the inputs of "+
			"every transaction and the outputs flagged by a change "+
			"heuristic with them.", &clusterCfg)
	parser.AddCommand("coinjoincluster",
		"Cluster the addresses around coinjoin transactions",
		"Cluster the addresses of the chain by propagating identity one "+
			"hop outward from every coinjoin transaction.",
		&coinjoinClusterCfg)
	parser.AddCommand("classify",
		"List the transactions recognized by a classifier", "",
		&classifyCfg)
	parser.AddCommand("lookup",
		"Show the clusters of addresses", "", &lookupCfg)
	parser.AddCommand("verify",
		"Check the integrity of a cluster index", "", &verifyCfg)
	return parser
}

// realMain is the real main function for the utility.  It is necessary to work
// around the fact that deferred functions do not run when os.Exit() is called.
func realMain() error {
	defer os.Stdout.Sync()
	defer func() {
		if logRotator != nil {
			logRotator.Close()
		}
	}()

	appName := filepath.Base(os.Args[0])
	appName = strings.TrimSuffix(appName, filepath.Ext(appName))

	// Pre-parse the command line options to see if an alternative config
	// file or the version flag was specified.
	preCfg, err := preParseConfig(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return err
	}
	if preCfg.ShowVersion {
		fmt.Printf("%s version %s (Go version %s %s/%s)\n", appName,
			version.String(), runtime.Version(), runtime.GOOS,
			runtime.GOARCH)
		return nil
	}

	interruptListener()

	// Load additional config from file and parse command line and invoke
	// the Execute function for the specified command.
	parser := newParser(appName)
	if err := loadConfigFile(parser, preCfg); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return err
	}
	if _, err := parser.Parse(); err != nil {
		var e *flags.Error
		if errors.As(err, &e) && e.Type == flags.ErrHelp {
			parser.WriteHelp(os.Stderr)
			return nil
		}
		fmt.Fprintln(os.Stderr, err)
		var suppress errSuppressUsage
		if !errors.As(err, &suppress) {
			fmt.Fprintf(os.Stderr, "Use %s -h to show usage\n", appName)
		}
		return err
	}
	return nil
}

func main() {
	// Work around defer not working after os.Exit()
	if err := realMain(); err != nil {
		os.Exit(1)
	}
}
