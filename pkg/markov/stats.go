package markov

import "context"

// DictionaryStats holds aggregated statistics for a SQLStore.
type DictionaryStats struct {
	Keys         int `json:"keys"`         // The number of distinct dictionary keys
	Entries      int `json:"entries"`      // The number of distinct key->word pairs
	Observations int `json:"observations"` // The sum of all frequencies; the total number of trained transitions
	Terminals    int `json:"terminals"`    // The number of keys that can end a sentence
}

// Stats returns a snapshot of statistics for the whole dictionary.
func (s *SQLStore) Stats(ctx context.Context) (*DictionaryStats, error) {
	var stats DictionaryStats

	if err := s.stmtKeyCount.QueryRowContext(ctx).Scan(&stats.Keys); err != nil {
		return nil, err
	}
	if err := s.stmtEntryCount.QueryRowContext(ctx).Scan(&stats.Entries); err != nil {
		return nil, err
	}
	if err := s.stmtObservations.QueryRowContext(ctx).Scan(&stats.Observations); err != nil {
		return nil, err
	}
	if err := s.stmtTerminalCount.QueryRowContext(ctx, StopToken).Scan(&stats.Terminals); err != nil {
		return nil, err
	}

	return &stats, nil
}
