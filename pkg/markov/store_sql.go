package markov

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
)

// SetupSchema initializes the dictionary table in the provided database. It
// should be called once on a new database before NewSQLStore. It is
// idempotent and safe to call on an already-initialized database.
func SetupSchema(db *sql.DB) error {

	const schemaDictionary = `
CREATE TABLE IF NOT EXISTS markov_dictionary (
    dict_key  TEXT    NOT NULL,
    word      TEXT    NOT NULL,
    frequency INTEGER NOT NULL DEFAULT 1,
    PRIMARY KEY (dict_key, word)
);
`

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("could not begin transaction: %w", err)
	}

	// If the transaction succeeds, tx.Commit() will be called first, and the rollback will do nothing. If it fails, this will clean up.
	defer func(tx *sql.Tx) {
		_ = tx.Rollback()
	}(tx)

	if _, err = tx.Exec(schemaDictionary); err != nil {
		return fmt.Errorf("could not create dictionary schema: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("could not commit transaction: %w", err)
	}

	return nil
}

// SQLStore is a Store backed by a SQL database (SQLite in practice). Repeated
// observations of the same pair are folded into a frequency column and
// expanded again on Get, which keeps the table small without changing the
// multiset semantics. Every Put is a single upsert statement, so there is no
// read-modify-write window between concurrent writers.
type SQLStore struct {
	db                *sql.DB
	stmtPut           *sql.Stmt
	stmtGet           *sql.Stmt
	stmtKeyCount      *sql.Stmt
	stmtEntryCount    *sql.Stmt
	stmtObservations  *sql.Stmt
	stmtTerminalCount *sql.Stmt
	stmtPrune         *sql.Stmt
	logger            *slog.Logger
}

// NewSQLStore creates a SQLStore on top of db. It pre-compiles all necessary
// SQL statements, returning an error if any preparation fails.
func NewSQLStore(db *sql.DB) (*SQLStore, error) {
	stmtPut, err := db.Prepare(`INSERT INTO markov_dictionary (dict_key, word) VALUES (?, ?) ON CONFLICT(dict_key, word) DO UPDATE SET frequency = MIN(frequency + 1, 2147483647);`)
	if err != nil {
		return nil, err
	}

	stmtGet, err := db.Prepare(`SELECT word, frequency FROM markov_dictionary WHERE dict_key = ?;`)
	if err != nil {
		return nil, err
	}

	stmtKeyCount, err := db.Prepare(`SELECT COUNT(DISTINCT dict_key) FROM markov_dictionary;`)
	if err != nil {
		return nil, err
	}

	stmtEntryCount, err := db.Prepare(`SELECT COUNT(*) FROM markov_dictionary;`)
	if err != nil {
		return nil, err
	}

	stmtObservations, err := db.Prepare(`SELECT coalesce(SUM(frequency), 0) FROM markov_dictionary;`)
	if err != nil {
		return nil, err
	}

	stmtTerminalCount, err := db.Prepare(`SELECT COUNT(*) FROM markov_dictionary WHERE word = ?;`)
	if err != nil {
		return nil, err
	}

	stmtPrune, err := db.Prepare(`DELETE FROM markov_dictionary WHERE frequency <= ?;`)
	if err != nil {
		return nil, err
	}

	return &SQLStore{
		db:                db,
		stmtPut:           stmtPut,
		stmtGet:           stmtGet,
		stmtKeyCount:      stmtKeyCount,
		stmtEntryCount:    stmtEntryCount,
		stmtObservations:  stmtObservations,
		stmtTerminalCount: stmtTerminalCount,
		stmtPrune:         stmtPrune,
		logger:            slog.New(slog.NewTextHandler(io.Discard, nil)),
	}, nil
}

// Close releases all prepared SQL statements held by the store. The
// underlying *sql.DB is left open.
func (s *SQLStore) Close() {
	_ = s.stmtPut.Close()
	_ = s.stmtGet.Close()
	_ = s.stmtKeyCount.Close()
	_ = s.stmtEntryCount.Close()
	_ = s.stmtObservations.Close()
	_ = s.stmtTerminalCount.Close()
	_ = s.stmtPrune.Close()
}

// SetLogger sets the logger for the store. By default, all logs are discarded.
func (s *SQLStore) SetLogger(logger *slog.Logger) {
	if logger != nil {
		s.logger = logger
	}
}

// Put records one observation of word following key.
func (s *SQLStore) Put(ctx context.Context, key, word string) error {
	if _, err := s.stmtPut.ExecContext(ctx, key, word); err != nil {
		return fmt.Errorf("could not insert %q after %q: %w", word, key, err)
	}
	return nil
}

// PutBatch records every entry inside a single transaction.
func (s *SQLStore) PutBatch(ctx context.Context, entries []Entry) error {
	if len(entries) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("could not begin batch transaction: %w", err)
	}
	// All transaction-specific statements will also be closed with this or the .Commit()
	defer func(tx *sql.Tx) {
		_ = tx.Rollback()
	}(tx)

	stmtPut := tx.StmtContext(ctx, s.stmtPut)
	for _, e := range entries {
		if _, err = stmtPut.ExecContext(ctx, e.Key, e.Word); err != nil {
			return fmt.Errorf("failed during batch insert of %q after %q: %w", e.Word, e.Key, err)
		}
	}

	return tx.Commit()
}

// Get returns every observation recorded for key. A word stored with
// frequency n appears n times in the result, so walks use Successors.
func (s *SQLStore) Get(ctx context.Context, key string) ([]string, error) {
	rows, err := s.stmtGet.QueryContext(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("could not query words for %q: %w", key, err)
	}
	defer func(rows *sql.Rows) {
		_ = rows.Close()
	}(rows)

	var words []string
	for rows.Next() {
		var word string
		var freq int
		if err = rows.Scan(&word, &freq); err != nil {
			return nil, err
		}
		for i := 0; i < freq; i++ {
			words = append(words, word)
		}
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return words, nil
}

// Successors returns the distinct words recorded for key with their counts.
func (s *SQLStore) Successors(ctx context.Context, key string) ([]Successor, error) {
	rows, err := s.stmtGet.QueryContext(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("could not query words for %q: %w", key, err)
	}
	defer func(rows *sql.Rows) {
		_ = rows.Close()
	}(rows)

	var successors []Successor
	for rows.Next() {
		var succ Successor
		if err = rows.Scan(&succ.Word, &succ.Frequency); err != nil {
			return nil, err
		}
		successors = append(successors, succ)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return successors, nil
}
