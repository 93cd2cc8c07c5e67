package markov

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
)

// ExportedDictionary is the serializable representation of a dictionary,
// used for JSON-based import and export.
type ExportedDictionary struct {
	ChainLength int             `json:"chain_length"`
	Entries     []ExportedEntry `json:"entries"`
}

// ExportedEntry is a single key->word pair and how often it was observed.
type ExportedEntry struct {
	Key       string `json:"key"`
	Word      string `json:"word"`
	Frequency int    `json:"frequency"`
}

// Export serializes the whole dictionary as JSON and writes it to w. The
// chain length is recorded so that Import can refuse incompatible data.
func (s *SQLStore) Export(ctx context.Context, w io.Writer, chainLength int) error {
	rows, err := s.db.QueryContext(ctx, "SELECT dict_key, word, frequency FROM markov_dictionary ORDER BY dict_key, word")
	if err != nil {
		return fmt.Errorf("could not query dictionary for export: %w", err)
	}
	defer func(rows *sql.Rows) {
		_ = rows.Close()
	}(rows)

	exported := ExportedDictionary{ChainLength: chainLength, Entries: []ExportedEntry{}}
	for rows.Next() {
		var e ExportedEntry
		if err = rows.Scan(&e.Key, &e.Word, &e.Frequency); err != nil {
			return err
		}
		exported.Entries = append(exported.Entries, e)
	}
	if err = rows.Err(); err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "Dictionary exported",
		slog.Int("chain_length", chainLength),
		slog.Int("entries_exported", len(exported.Entries)),
	)

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(exported)
}

// Import reads a JSON dictionary from r and merges it into the store:
// frequencies of pairs that already exist are added together, up to
// MaxFrequency. Entries with a larger frequency are rejected. The whole
// operation is transactional. It returns the number of pairs merged.
func (s *SQLStore) Import(ctx context.Context, r io.Reader, chainLength int) (int, error) {
	var imported ExportedDictionary
	if err := json.NewDecoder(r).Decode(&imported); err != nil {
		return 0, fmt.Errorf("failed to decode json dictionary: %w", err)
	}
	if imported.ChainLength != chainLength {
		return 0, fmt.Errorf("dictionary chain length %d does not match configured chain length %d", imported.ChainLength, chainLength)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("could not begin transaction for import: %w", err)
	}
	defer func(tx *sql.Tx) {
		_ = tx.Rollback()
	}(tx)

	// Prepare a special query so that merging doesn't overwrite existing frequencies
	stmtMerge, err := tx.PrepareContext(ctx, `
		INSERT INTO markov_dictionary (dict_key, word, frequency) VALUES (?, ?, ?)
		ON CONFLICT(dict_key, word) DO UPDATE SET frequency = MIN(frequency + excluded.frequency, ?);
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare merge statement: %w", err)
	}
	defer func(stmt *sql.Stmt) {
		_ = stmt.Close()
	}(stmtMerge)

	for _, e := range imported.Entries {
		if e.Frequency <= 0 || e.Frequency > MaxFrequency {
			return 0, fmt.Errorf("import consistency error: entry %q -> %q has frequency %d, want 1 to %d", e.Key, e.Word, e.Frequency, MaxFrequency)
		}
		if len(DecodeKey(e.Key)) != chainLength {
			return 0, fmt.Errorf("import consistency error: key %q does not have %d tokens", e.Key, chainLength)
		}
		if _, err = stmtMerge.ExecContext(ctx, e.Key, e.Word, e.Frequency, MaxFrequency); err != nil {
			return 0, fmt.Errorf("failed to merge entry %q -> %q: %w", e.Key, e.Word, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return 0, err
	}

	s.logger.InfoContext(ctx, "Dictionary imported successfully",
		slog.Int("chain_length", chainLength),
		slog.Int("entries_merged", len(imported.Entries)),
	)
	return len(imported.Entries), nil
}
