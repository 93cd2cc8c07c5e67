package markov

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
)

// IngestProgress reports how far TrainReader has come.
type IngestProgress struct {
	Lines   int64 `json:"lines"`   // Lines read so far
	Trained int64 `json:"trained"` // Lines that produced at least one observation
	Skipped int64 `json:"skipped"` // Lines too short to learn from
}

// ProgressFunc receives periodic progress reports from TrainReader.
type ProgressFunc func(IngestProgress)

// Train learns from a single sentence. Sentences with fewer than MinWords
// words, or too few tokens left after sanitizing, are ignored without error.
// Training is not idempotent: every call adds observations, so repeating a
// sentence makes its transitions more likely.
func (b *Brain) Train(ctx context.Context, sentence string) error {
	entries := b.entries(sentence)
	if len(entries) == 0 {
		b.logger.DebugContext(ctx, "Sentence too short to train on",
			slog.Int("chain_length", b.chainLength),
		)
		return nil
	}

	for _, e := range entries {
		if err := b.store.Put(ctx, e.Key, e.Word); err != nil {
			return fmt.Errorf("could not store observation: %w", err)
		}
	}
	return nil
}

// TrainReader trains on every line of r. Lines are buffered and written in
// batches when the store supports it. progress, if not nil, is called every
// progressEvery lines and once more at the end.
func (b *Brain) TrainReader(ctx context.Context, r io.Reader, progress ProgressFunc) (IngestProgress, error) {
	// maxLineLength prevents massive lines from taking up a large amount of memory
	const maxLineLength = 1024 * 1024
	// entryBatchSize determines how many observations are buffered in memory before being written in a single batch.
	const entryBatchSize = 1000

	var stats IngestProgress
	batch := make([]Entry, 0, entryBatchSize)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if bs, ok := b.store.(BatchStore); ok {
			if err := bs.PutBatch(ctx, batch); err != nil {
				return fmt.Errorf("could not store observation batch: %w", err)
			}
		} else {
			for _, e := range batch {
				if err := b.store.Put(ctx, e.Key, e.Word); err != nil {
					return fmt.Errorf("could not store observation: %w", err)
				}
			}
		}
		batch = batch[:0]
		return nil
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineLength)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		stats.Lines++
		if entries := b.entries(scanner.Text()); len(entries) > 0 {
			batch = append(batch, entries...)
			stats.Trained++
		} else {
			stats.Skipped++
		}

		if len(batch) >= entryBatchSize {
			if err := flush(); err != nil {
				return stats, err
			}
		}
		if progress != nil && stats.Lines%int64(b.progressEvery) == 0 {
			progress(stats)
		}
	}
	if err := scanner.Err(); err != nil {
		return stats, fmt.Errorf("could not read training data: %w", err)
	}
	if err := flush(); err != nil {
		return stats, err
	}
	if progress != nil {
		progress(stats)
	}

	b.logger.InfoContext(ctx, "Training completed",
		slog.Int64("lines_read", stats.Lines),
		slog.Int64("lines_trained", stats.Trained),
		slog.Int64("lines_skipped", stats.Skipped),
	)
	return stats, nil
}

// entries turns a sentence into the observations Train would store, or nil
// if the sentence is too short.
func (b *Brain) entries(sentence string) []Entry {
	if tooShort(sentence) {
		return nil
	}

	tokens := append(Tokenize(sentence), StopToken)
	if len(tokens) <= b.chainLength {
		return nil
	}

	slides := Slides(tokens, b.chainLength)
	entries := make([]Entry, 0, len(slides))
	for _, slide := range slides {
		entries = append(entries, Entry{
			Key:  EncodeKey(slide[:b.chainLength]),
			Word: slide[b.chainLength],
		})
	}
	return entries
}
