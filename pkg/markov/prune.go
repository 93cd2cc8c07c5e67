package markov

import (
	"context"
	"fmt"
	"log/slog"
)

// Prune removes every key->word pair whose frequency is less than or equal
// to minFreq and returns the number of pairs removed. This is useful for
// shrinking a dictionary by dropping rare, and often noisy, transitions. It
// is an operator tool: nothing in the training or generation path deletes.
func (s *SQLStore) Prune(ctx context.Context, minFreq int) (int64, error) {
	res, err := s.stmtPrune.ExecContext(ctx, minFreq)
	if err != nil {
		return 0, fmt.Errorf("could not prune dictionary: %w", err)
	}
	rowsAffected, _ := res.RowsAffected()

	s.logger.InfoContext(ctx, "Dictionary pruned",
		slog.Int("min_frequency", minFreq),
		slog.Int64("entries_removed", rowsAffected),
	)
	return rowsAffected, nil
}
