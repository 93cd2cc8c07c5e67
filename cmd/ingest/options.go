package main

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/pflag"

	"github.com/CTAG07/chatterbox/pkg/markov"
)

const (
	DefaultDatabasePath = "./data/chatterbox.db?_journal_mode=WAL&_busy_timeout=5000"
	// stdinFile selects standard input as the corpus.
	stdinFile = "-"
)

// Options contains the command-line configuration for a bulk ingest run.
type Options struct {
	DatabasePath  string // Data source of the dictionary database.
	File          string // Corpus to train on, one sentence per line.
	ChainLength   int    // Must match the server's brain_config.chain_length.
	ProgressEvery int    // Lines between progress reports.
	LogLevel      string // One of debug, info, warn or error.
}

// NewOptions returns a new Options struct initialized with default values.
func NewOptions() *Options {
	return &Options{
		DatabasePath:  DefaultDatabasePath,
		File:          stdinFile,
		ChainLength:   markov.DefaultChainLength,
		ProgressEvery: markov.DefaultProgressEvery,
		LogLevel:      "info",
	}
}

// AddFlags binds the Options fields to command-line flags on the given FlagSet.
func (opts *Options) AddFlags(fs *pflag.FlagSet) {
	if fs == nil {
		fs = pflag.CommandLine
	}
	fs.StringVar(&opts.DatabasePath, "db", opts.DatabasePath,
		"Data source of the dictionary database.")
	fs.StringVarP(&opts.File, "file", "f", opts.File,
		"Corpus file with one sentence per line, or - for standard input.")
	fs.IntVarP(&opts.ChainLength, "chain-length", "n", opts.ChainLength,
		"Number of words per dictionary key. Must match the server configuration.")
	fs.IntVar(&opts.ProgressEvery, "progress-every", opts.ProgressEvery,
		"Number of lines between progress reports.")
	fs.StringVar(&opts.LogLevel, "log-level", opts.LogLevel,
		"Log level: debug, info, warn or error.")
}

// Validate checks the Options for invalid values.
func (opts *Options) Validate() error {
	if opts.DatabasePath == "" {
		return fmt.Errorf("invalid value for flag %q: must not be empty", "db")
	}
	if opts.File == "" {
		return fmt.Errorf("invalid value for flag %q: must not be empty", "file")
	}
	for _, c := range []struct {
		name  string
		value int
	}{
		{"chain-length", opts.ChainLength},
		{"progress-every", opts.ProgressEvery},
	} {
		if c.value < 1 {
			return fmt.Errorf("invalid value %d for flag %q: must be >= 1", c.value, c.name)
		}
	}
	if _, err := opts.level(); err != nil {
		return err
	}
	return nil
}

func (opts *Options) level() (slog.Level, error) {
	switch strings.ToLower(opts.LogLevel) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, fmt.Errorf("invalid value %q for flag %q: must be debug, info, warn or error", opts.LogLevel, "log-level")
}
