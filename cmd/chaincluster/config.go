// Copyright (c) 2024 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime/debug"
	"strings"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	flags "github.com/jessevdk/go-flags"
	"github.com/mmstanone/blocksci-compilable/chain"
)

const (
	defaultConfigFilename = "chaincluster.conf"
	defaultLogDirname     = "logs"
	defaultLogFilename    = "chaincluster.log"
	defaultBlocksFilename = "bootstrap.dat"
	defaultLogLevel       = "info"
)

var (
	defaultHomeDir    = btcutil.AppDataDir("chaincluster", false)
	defaultConfigFile = filepath.Join(defaultHomeDir, defaultConfigFilename)
	defaultLogDir     = filepath.Join(defaultHomeDir, defaultLogDirname)
	defaultBlocksFile = filepath.Join(defaultHomeDir, defaultBlocksFilename)

	activeNetParams = &chaincfg.MainNetParams

	// cfg houses the global configuration options shared by all commands.
	cfg = &config{
		ConfigFile: defaultConfigFile,
		BlocksFile: defaultBlocksFile,
		LogDir:     defaultLogDir,
		DebugLevel: defaultLogLevel,
	}
)

// config defines the global configuration options.
type config struct {
	ShowVersion   bool   `short:"V" long:"version" description:"Display version information and exit"`
	ConfigFile    string `short:"C" long:"configfile" description:"Path to configuration file"`
	BlocksFile    string `short:"b" long:"blocks" description:"Bootstrap file containing the blocks to analyze"`
	TestNet       bool   `long:"testnet" description:"Use the test network"`
	RegNet        bool   `long:"regtest" description:"Use the regression test network"`
	SigNet        bool   `long:"signet" description:"Use the signet test network"`
	LogDir        string `long:"logdir" description:"Directory to log output"`
	NoFileLogging bool   `long:"nofilelogging" description:"Disable file logging"`
	DebugLevel    string `short:"d" long:"debuglevel" description:"Logging level for all subsystems {trace, debug, info, warn, error, critical} -- You may also specify <subsystem>=<level>,<subsystem2>=<level>,... to set the log level for individual subsystems -- Use show to list available subsystems"`
	Segments      int    `long:"segments" description:"Number of segments the work is split into -- Use 0 for one segment per CPU"`
	MemLimit      int64  `long:"memlimit" description:"Soft memory limit in MiB -- Use 0 to keep the runtime default"`
}

// heightRange defines the block height options of commands that process a
// part of the chain.
type heightRange struct {
	StartHeight int32 `long:"startheight" description:"Height of the first block to process"`
	EndHeight   int32 `long:"endheight" description:"Height one past the last block to process -- Use 0 for the chain tip"`
}

// txRange returns the transaction range covered by the heights.
func (h *heightRange) txRange(s chain.Store) chain.TxRange {
	end := h.EndHeight
	if end <= 0 {
		end = s.BlockCount()
	}
	return chain.HeightRange(s, h.StartHeight, end)
}

// cleanAndExpandPath expands environment variables and leading ~ in the
// passed path, cleans the result, and returns it.
func cleanAndExpandPath(path string) string {
	// Expand initial ~ to OS specific home directory.
	if strings.HasPrefix(path, "~") {
		homeDir := filepath.Dir(defaultHomeDir)
		path = strings.Replace(path, "~", homeDir, 1)
	}

	// NOTE: The os.ExpandEnv doesn't work with Windows-style %VARIABLE%,
	// but the variables can still be expanded via POSIX-style $VARIABLE.
	return filepath.Clean(os.ExpandEnv(path))
}

// fileExists reports whether the named file or directory exists.
func fileExists(name string) bool {
	if _, err := os.Stat(name); err != nil {
		if os.IsNotExist(err) {
			return false
		}
	}
	return true
}

// validLogLevel returns whether or not logLevel is a valid debug log level.
func validLogLevel(logLevel string) bool {
	switch logLevel {
	case "trace", "debug", "info", "warn", "error", "critical", "off":
		return true
	}
	return false
}

// parseAndSetDebugLevels attempts to parse the specified debug level and set
// the levels accordingly.  An appropriate error is returned if anything is
// invalid.
func parseAndSetDebugLevels(debugLevel string) error {
	// When the specified string doesn't have any delimiters, treat it as
	// the log level for all subsystems.
	if !strings.Contains(debugLevel, ",") && !strings.Contains(debugLevel, "=") {
		if !validLogLevel(debugLevel) {
			str := "the specified debug level [%v] is invalid"
			return fmt.Errorf(str, debugLevel)
		}
		setLogLevels(debugLevel)
		return nil
	}

	// Split the specified string into subsystem/level pairs while detecting
	// issues and update the log levels accordingly.
	for _, logLevelPair := range strings.Split(debugLevel, ",") {
		if !strings.Contains(logLevelPair, "=") {
			str := "the specified debug level contains an invalid " +
				"subsystem/level pair [%v]"
			return fmt.Errorf(str, logLevelPair)
		}

		fields := strings.Split(logLevelPair, "=")
		subsysID, logLevel := fields[0], fields[1]
		if _, exists := subsystemLoggers[subsysID]; !exists {
			str := "the specified subsystem [%v] is invalid -- " +
				"supported subsystems %v"
			return fmt.Errorf(str, subsysID, supportedSubsystems())
		}
		if !validLogLevel(logLevel) {
			str := "the specified debug level [%v] is invalid"
			return fmt.Errorf(str, logLevel)
		}
		setLogLevel(subsysID, logLevel)
	}
	return nil
}

// errSuppressUsage signifies that an error that happened during the initial
// configuration phase should suppress the usage output since it was not
// caused by the user.
type errSuppressUsage string

// Error implements the error interface.
func (e errSuppressUsage) Error() string {
	return string(e)
}

// preParseConfig parses the command line for the options that control how the
// remaining configuration is loaded.  Command tokens and their options are
// ignored.
func preParseConfig(args []string) (*config, error) {
	preCfg := *cfg
	preParser := flags.NewParser(&preCfg, flags.HelpFlag|flags.IgnoreUnknown)
	if _, err := preParser.ParseArgs(args); err != nil {
		var e *flags.Error
		if !errors.As(err, &e) || e.Type != flags.ErrHelp {
			return nil, err
		}
	}
	return &preCfg, nil
}

// loadConfigFile loads the configuration file selected on the command line
// into the parser.  A missing file is only an error when it was explicitly
// requested.
func loadConfigFile(parser *flags.Parser, preCfg *config) error {
	configFile := cleanAndExpandPath(preCfg.ConfigFile)
	err := flags.NewIniParser(parser).ParseFile(configFile)
	if err == nil {
		return nil
	}
	var pathErr *os.PathError
	if errors.As(err, &pathErr) && preCfg.ConfigFile == defaultConfigFile {
		return nil
	}
	return fmt.Errorf("error parsing config file: %w", err)
}

// setupGlobalConfig examines the global configuration options for any
// conditions which are invalid and performs any additional setup necessary
// after the command line was parsed.
func setupGlobalConfig() error {
	// Multiple networks can't be selected simultaneously.  Count number of
	// network flags passed and assign active network params while we're at
	// it.
	numNets := 0
	if cfg.TestNet {
		numNets++
		activeNetParams = &chaincfg.TestNet3Params
	}
	if cfg.RegNet {
		numNets++
		activeNetParams = &chaincfg.RegressionNetParams
	}
	if cfg.SigNet {
		numNets++
		activeNetParams = &chaincfg.SigNetParams
	}
	if numNets > 1 {
		return errors.New("the testnet, regtest, and signet params can't " +
			"be used together -- choose one of the three")
	}

	cfg.BlocksFile = cleanAndExpandPath(cfg.BlocksFile)
	cfg.LogDir = cleanAndExpandPath(cfg.LogDir)

	// Initialize log rotation.  After log rotation has been initialized,
	// the logger variables may be used.
	if !cfg.NoFileLogging {
		logDir := filepath.Join(cfg.LogDir, activeNetParams.Name)
		logFile := filepath.Join(logDir, defaultLogFilename)
		if err := initLogRotator(logFile); err != nil {
			return errSuppressUsage(err.Error())
		}
	}

	// Special show command to list supported subsystems and exit.
	if cfg.DebugLevel == "show" {
		fmt.Println("Supported subsystems", supportedSubsystems())
		os.Exit(0)
	}
	if err := parseAndSetDebugLevels(cfg.DebugLevel); err != nil {
		return err
	}

	if cfg.Segments < 0 {
		return fmt.Errorf("the number of segments may not be negative: %d",
			cfg.Segments)
	}
	if cfg.MemLimit < 0 {
		return fmt.Errorf("the memory limit may not be negative: %d",
			cfg.MemLimit)
	}
	if cfg.MemLimit > 0 {
		debug.SetMemoryLimit(cfg.MemLimit * 1024 * 1024)
		log.Infof("Soft memory limit: %d MiB", cfg.MemLimit)
	}
	return nil
}
