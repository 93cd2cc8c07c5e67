package markov

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"strings"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"
)

// BestOf runs the Brain's configured number of independent walks from seed
// and returns the longest resulting sentence, measured in characters. Ties
// go to the earliest attempt. Attempts that fail softly count as the empty
// string, so BestOf returns "" and no error if every attempt failed. Any
// other error aborts the remaining attempts and is returned.
func (b *Brain) BestOf(ctx context.Context, seed string) (string, error) {
	rngs := make([]*rand.Rand, b.attempts)
	for i := range rngs {
		rngs[i] = b.deriveRand()
	}

	results := make([]string, b.attempts)
	g, gctx := errgroup.WithContext(ctx)
	for i := range results {
		g.Go(func() error {
			sentence, err := b.generate(gctx, seed, rngs[i])
			if err != nil {
				if IsSoftFailure(err) {
					return nil
				}
				return err
			}
			results[i] = sentence
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return "", err
	}

	var best string
	for _, candidate := range results {
		if longer(candidate, best) {
			best = candidate
		}
	}
	return best, nil
}

// Reply produces a response to input. Every window of the sanitized input is
// used as a seed for BestOf and the longest result overall wins. Input with
// fewer than MinWords words fails with ErrInputTooShort; if no seed produced
// a sentence of at least MinWords words, Reply fails with ErrNoReply.
func (b *Brain) Reply(ctx context.Context, input string) (string, error) {
	if tooShort(input) {
		return "", ErrInputTooShort
	}

	tokens := append(Tokenize(input), StopToken)
	slides := Slides(tokens, b.chainLength)

	var best string
	for _, slide := range slides {
		candidate, err := b.BestOf(ctx, EncodeKey(slide[:b.chainLength]))
		if err != nil {
			return "", err
		}
		if longer(candidate, best) {
			best = candidate
		}
	}

	if len(strings.Fields(best)) < MinWords {
		b.logger.DebugContext(ctx, "No reply available",
			slog.Int("seeds_tried", len(slides)),
		)
		return "", ErrNoReply
	}

	b.logger.DebugContext(ctx, "Reply generated",
		slog.Int("seeds_tried", len(slides)),
		slog.Int("reply_length", utf8.RuneCountInString(best)),
	)
	return best, nil
}

// longer reports whether a has strictly more characters than b.
func longer(a, b string) bool {
	return utf8.RuneCountInString(a) > utf8.RuneCountInString(b)
}
