package markov

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"
)

// Walk performs a single bounded random walk starting at seed, an encoded
// dictionary key. At every step the first token of the current key is
// emitted and a successor is drawn uniformly from the key's observations,
// so frequent successors are proportionally more likely. The key then
// slides forward by one token. When a key has no successor, or the stop
// token is drawn, the remaining key tokens are emitted and the walk ends.
//
// A walk that has not ended after the Brain's max words steps fails with
// ErrWalkExhausted, as does one that would return more than max words
// tokens. Walk does not apply the MinWords threshold; see Generate.
func (b *Brain) Walk(ctx context.Context, seed string) ([]string, error) {
	return b.walk(ctx, seed, b.deriveRand())
}

// Generate runs a single walk and joins the result with spaces. Walks shorter
// than MinWords tokens fail with ErrTooShort.
func (b *Brain) Generate(ctx context.Context, seed string) (string, error) {
	return b.generate(ctx, seed, b.deriveRand())
}

func (b *Brain) generate(ctx context.Context, seed string, rng *rand.Rand) (string, error) {
	tokens, err := b.walk(ctx, seed, rng)
	if err != nil {
		return "", err
	}
	if len(tokens) < MinWords {
		return "", ErrTooShort
	}
	return strings.Join(tokens, " "), nil
}

func (b *Brain) walk(ctx context.Context, seed string, rng *rand.Rand) ([]string, error) {
	current := DecodeKey(seed)
	accumulated := make([]string, 0, b.maxWords)

	for remaining := b.maxWords; remaining > 0; remaining-- {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		key := EncodeKey(current)
		accumulated = append(accumulated, current[0])

		next, err := b.next(ctx, key, rng)
		if err != nil {
			return nil, fmt.Errorf("could not look up successors of %q: %w", key, err)
		}

		if next == StopToken {
			accumulated = append(accumulated, current[1:]...)
			if len(accumulated) > b.maxWords {
				return nil, ErrWalkExhausted
			}
			return accumulated, nil
		}

		advanced := make([]string, 0, len(current))
		advanced = append(advanced, current[1:]...)
		current = append(advanced, next)
	}

	b.logger.DebugContext(ctx, "Walk terminated by reaching max words",
		slog.String("seed", seed),
		slog.Int("max_words", b.maxWords),
	)
	return nil, ErrWalkExhausted
}

// next draws a successor of key, or StopToken if it has none. Stores that
// keep counts are sampled by weight so the counts are never expanded.
func (b *Brain) next(ctx context.Context, key string, rng *rand.Rand) (string, error) {
	if ws, ok := b.store.(WeightedStore); ok {
		successors, err := ws.Successors(ctx, key)
		if err != nil {
			return "", err
		}
		return pickWeighted(successors, rng), nil
	}

	choices, err := b.store.Get(ctx, key)
	if err != nil {
		return "", err
	}
	switch len(choices) {
	case 0:
		return StopToken, nil
	case 1:
		return choices[0], nil
	default:
		return choices[rng.IntN(len(choices))], nil
	}
}

// pickWeighted draws a word with probability proportional to its frequency.
func pickWeighted(successors []Successor, rng *rand.Rand) string {
	var total int64
	for _, s := range successors {
		total += int64(s.Frequency)
	}
	if total <= 0 {
		return StopToken
	}
	if len(successors) == 1 {
		return successors[0].Word
	}

	r := rng.Int64N(total)
	for _, s := range successors {
		r -= int64(s.Frequency)
		if r < 0 {
			return s.Word
		}
	}
	return StopToken
}
