// Command ingest bulk-trains a chatterbox dictionary from a text corpus.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/CTAG07/chatterbox/internal/sqlitedb"
	"github.com/CTAG07/chatterbox/pkg/markov"
)

func main() {
	opts := NewOptions()
	opts.AddFlags(pflag.CommandLine)
	pflag.Parse()

	if err := opts.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	level, _ := opts.level()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if _, err := run(ctx, opts, os.Stdin, logger); err != nil {
		logger.Error("Ingest failed", "error", err)
		os.Exit(1)
	}
}

// run trains the dictionary at opts.DatabasePath on the configured corpus.
// stdin is read when opts.File is "-".
func run(ctx context.Context, opts *Options, stdin io.Reader, logger *slog.Logger) (markov.IngestProgress, error) {
	var corpus io.Reader = stdin
	if opts.File != stdinFile {
		f, err := os.Open(opts.File)
		if err != nil {
			return markov.IngestProgress{}, fmt.Errorf("failed to open corpus: %w", err)
		}
		defer f.Close()
		corpus = f
	}

	if dir := databaseDir(opts.DatabasePath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return markov.IngestProgress{}, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sqlitedb.Open(opts.DatabasePath)
	if err != nil {
		return markov.IngestProgress{}, fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err = markov.SetupSchema(db); err != nil {
		return markov.IngestProgress{}, fmt.Errorf("failed to setup markov schema: %w", err)
	}
	store, err := markov.NewSQLStore(db)
	if err != nil {
		return markov.IngestProgress{}, fmt.Errorf("failed to create dictionary store: %w", err)
	}
	defer store.Close()
	store.SetLogger(logger)

	brain, err := markov.NewBrain(store,
		markov.WithChainLength(opts.ChainLength),
		markov.WithProgressEvery(opts.ProgressEvery),
	)
	if err != nil {
		return markov.IngestProgress{}, err
	}
	brain.SetLogger(logger)

	logger.Info("Starting ingest", "file", opts.File, "chain_length", opts.ChainLength)
	return brain.TrainReader(ctx, corpus, func(p markov.IngestProgress) {
		logger.Info("Ingest progress", "lines", p.Lines, "trained", p.Trained, "skipped", p.Skipped)
	})
}

// databaseDir returns the directory of the database file named by dataSource,
// ignoring any connection parameters.
func databaseDir(dataSource string) string {
	path, _, _ := strings.Cut(dataSource, "?")
	path = strings.TrimPrefix(path, "file:")
	if path == "" || path == ":memory:" {
		return "."
	}
	return filepath.Dir(path)
}
