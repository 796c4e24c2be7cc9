// Copyright (c) 2024 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"errors"
	"fmt"
	"sort"

	"github.com/mmstanone/blocksci-compilable/analysis"
	"github.com/mmstanone/blocksci-compilable/chain"
	"github.com/mmstanone/blocksci-compilable/chain/memchain"
	"github.com/mmstanone/blocksci-compilable/cluster"
	"github.com/mmstanone/blocksci-compilable/heuristics"
	"github.com/mmstanone/blocksci-compilable/heuristics/change"
)

// Reports produced by the classify command.
const (
	reportTxs            = "txs"
	reportFriendsDontPay = "friendsdontpay"
	reportConsolidations = "consolidations"
	reportRemixes        = "remixes"
)

// clusterCmd defines the configuration options for the cluster command.
type clusterCmd struct {
	heightRange
	OutDir         string `short:"o" long:"out" required:"true" description:"Directory to write the cluster index to"`
	Overwrite      bool   `long:"overwrite" description:"Replace an existing index in the output directory"`
	IgnoreCoinjoin bool   `long:"ignorecoinjoin" description:"Do not link the addresses of transactions that look like coinjoins"`
	Change         string `long:"change" description:"Change heuristic used to link outputs to inputs"`
}

// coinjoinClusterCmd defines the configuration options for the
// coinjoincluster command.
type coinjoinClusterCmd struct {
	heightRange
	OutDir    string `short:"o" long:"out" required:"true" description:"Directory to write the cluster index to"`
	Overwrite bool   `long:"overwrite" description:"Replace an existing index in the output directory"`
	Type      string `short:"t" long:"type" description:"Coinjoin classifier identifying the coinjoins"`
}

// classifyCmd defines the configuration options for the classify command.
type classifyCmd struct {
	heightRange
	Classifier string `short:"c" long:"classifier" description:"Coinjoin classifier to apply"`
	Report     string `short:"r" long:"report" choice:"txs" choice:"friendsdontpay" choice:"consolidations" choice:"remixes" description:"Report to produce from the recognized transactions"`
}

// lookupCmd defines the configuration options for the lookup command.
type lookupCmd struct {
	IndexDir string `short:"i" long:"index" required:"true" description:"Directory of the cluster index"`
}

// verifyCmd defines the configuration options for the verify command.
type verifyCmd struct {
	IndexDir string `short:"i" long:"index" required:"true" description:"Directory of the cluster index"`
}

var (
	clusterCfg = clusterCmd{
		Change: "legacy",
	}
	coinjoinClusterCfg = coinjoinClusterCmd{
		Type: string(heuristics.CoinjoinWasabi2),
	}
	classifyCfg = classifyCmd{
		Classifier: string(heuristics.CoinjoinGeneric),
		Report:     reportTxs,
	}
	lookupCfg = lookupCmd{}
	verifyCfg = verifyCmd{}
)

// Execute is the main entry point for the command.  It's invoked by the parser.
func (cmd *clusterCmd) Execute(args []string) error {
	if err := setupGlobalConfig(); err != nil {
		return err
	}
	s, err := loadChain()
	if err != nil {
		return err
	}
	h, err := change.ByName(cmd.Change, s)
	if err != nil {
		return err
	}

	opts := &cluster.Options{
		Overwrite:      cmd.Overwrite,
		IgnoreCoinjoin: cmd.IgnoreCoinjoin,
		Segments:       cfg.Segments,
	}
	outDir := cleanAndExpandPath(cmd.OutDir)
	m, err := cluster.CreateClustering(s, cmd.txRange(s), h, outDir, opts)
	if err != nil {
		return err
	}
	defer m.Close()
	log.Infof("Created %d clusters over %d addresses in %s (fingerprint %x)",
		m.ClusterCount(), m.AddressCount(), m.Dir(), m.Fingerprint())
	return nil
}

// Execute is the main entry point for the command.  It's invoked by the parser.
func (cmd *coinjoinClusterCmd) Execute(args []string) error {
	if err := setupGlobalConfig(); err != nil {
		return err
	}
	s, err := loadChain()
	if err != nil {
		return err
	}

	opts := &cluster.Options{
		Overwrite: cmd.Overwrite,
		Segments:  cfg.Segments,
	}
	outDir := cleanAndExpandPath(cmd.OutDir)
	m, err := cluster.CreateCoinjoinClustering(s, cmd.txRange(s),
		heuristics.CoinjoinType(cmd.Type), outDir, opts)
	if err != nil {
		return err
	}
	defer m.Close()
	log.Infof("Created %d clusters over %d addresses in %s (fingerprint %x)",
		m.ClusterCount(), m.AddressCount(), m.Dir(), m.Fingerprint())
	return nil
}

// Execute is the main entry point for the command.  It's invoked by the parser.
func (cmd *classifyCmd) Execute(args []string) error {
	if err := setupGlobalConfig(); err != nil {
		return err
	}
	c, err := heuristics.CoinjoinClassifier(heuristics.CoinjoinType(cmd.Classifier))
	if err != nil {
		return err
	}
	s, err := loadChain()
	if err != nil {
		return err
	}

	r := cmd.txRange(s)
	switch cmd.Report {
	case reportTxs:
		for _, n := range analysis.FilterTxs(s, r, cfg.Segments, c) {
			fmt.Println(s.TxHash(n))
		}

	case reportFriendsDontPay:
		coinjoins := analysis.CoinjoinSet(s, r, cfg.Segments, c)
		for _, n := range analysis.FriendsDontPay(s, r, cfg.Segments, coinjoins) {
			fmt.Println(s.TxHash(n))
		}

	case reportConsolidations:
		coinjoins := analysis.CoinjoinSet(s, r, cfg.Segments, c)
		for _, cons := range analysis.Consolidations(s, r, cfg.Segments, coinjoins) {
			targets := make([]chain.TxNum, 0, len(cons.Targets))
			for n := range cons.Targets {
				targets = append(targets, n)
			}
			sort.Slice(targets, func(i, j int) bool {
				return targets[i] < targets[j]
			})
			for _, n := range targets {
				fmt.Printf("%v %v %d\n", s.TxHash(cons.Coinjoin),
					s.TxHash(n), cons.Targets[n])
			}
		}

	case reportRemixes:
		for _, remix := range analysis.HardwareWalletRemixes(s, r, cfg.Segments) {
			fmt.Printf("%v %v\n", s.TxHash(remix.Tx), remix.Kind)
		}
	}
	return nil
}

// Execute is the main entry point for the command.  It's invoked by the parser.
func (cmd *lookupCmd) Execute(args []string) error {
	if err := setupGlobalConfig(); err != nil {
		return err
	}
	if len(args) < 1 {
		return errors.New("required address parameter not specified")
	}
	s, err := loadChain()
	if err != nil {
		return err
	}
	m, err := cluster.Open(cleanAndExpandPath(cmd.IndexDir))
	if err != nil {
		return err
	}
	defer m.Close()

	for _, encoded := range args {
		addr, err := s.LookupAddress(encoded)
		if errors.Is(err, memchain.ErrUnknownAddress) {
			fmt.Printf("%s: not in chain\n", encoded)
			continue
		}
		if err != nil {
			return err
		}
		c, ok := m.ClusterOf(addr)
		if !ok {
			fmt.Printf("%s: not in index\n", encoded)
			continue
		}
		fmt.Printf("%s: cluster %d with %d addresses\n", encoded, c.ID,
			c.Size())
	}
	return nil
}

// Usage overrides the usage display for the command.
func (cmd *lookupCmd) Usage() string {
	return "<address> [<address>...]"
}

// Execute is the main entry point for the command.  It's invoked by the parser.
func (cmd *verifyCmd) Execute(args []string) error {
	if err := setupGlobalConfig(); err != nil {
		return err
	}
	m, err := cluster.Open(cleanAndExpandPath(cmd.IndexDir))
	if err != nil {
		return err
	}
	defer m.Close()

	if err := m.Verify(); err != nil {
		return err
	}
	fmt.Printf("%d clusters over %d addresses, fingerprint %x\n",
		m.ClusterCount(), m.AddressCount(), m.Fingerprint())
	return nil
}
