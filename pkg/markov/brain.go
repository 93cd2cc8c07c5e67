package markov

import (
	"errors"
	"io"
	"log/slog"
	"math/rand/v2"
	"sync"
)

const (
	// DefaultChainLength is the number of tokens that form a dictionary key.
	DefaultChainLength = 4
	// DefaultMaxWords bounds the number of tokens a single walk may produce.
	DefaultMaxWords = 100
	// DefaultAttempts is the number of walks BestOf runs per seed.
	DefaultAttempts = 10
	// DefaultProgressEvery is how many lines TrainReader handles between
	// progress reports.
	DefaultProgressEvery = 1000
)

// Brain is the main entry point of the package. It trains sentences into a
// Store and generates new sentences from it. A Brain is safe for concurrent
// use as long as its Store is.
type Brain struct {
	store         Store
	chainLength   int
	maxWords      int
	attempts      int
	progressEvery int
	mu            sync.Mutex // guards rng
	rng           *rand.Rand
	logger        *slog.Logger
}

// Option configures a Brain. It's used as a variadic argument to NewBrain.
type Option func(*Brain)

// WithChainLength sets how many tokens form a dictionary key.
// Default: DefaultChainLength
func WithChainLength(n int) Option {
	return func(b *Brain) { b.chainLength = n }
}

// WithMaxWords sets the step budget of a single walk, which is also the
// longest sentence a walk may return.
// Default: DefaultMaxWords
func WithMaxWords(n int) Option {
	return func(b *Brain) { b.maxWords = n }
}

// WithAttempts sets how many independent walks BestOf runs per seed.
// Default: DefaultAttempts
func WithAttempts(n int) Option {
	return func(b *Brain) { b.attempts = n }
}

// WithProgressEvery sets how many lines TrainReader handles between calls
// to its progress callback.
// Default: DefaultProgressEvery
func WithProgressEvery(n int) Option {
	return func(b *Brain) { b.progressEvery = n }
}

// WithRand sets the random source used to pick successors. Pinning it makes
// generation reproducible.
func WithRand(r *rand.Rand) Option {
	return func(b *Brain) { b.rng = r }
}

// NewBrain creates a Brain on top of store, applying any options given.
func NewBrain(store Store, opts ...Option) (*Brain, error) {
	if store == nil {
		return nil, errors.New("markov: store must not be nil")
	}

	b := &Brain{
		store:         store,
		chainLength:   DefaultChainLength,
		maxWords:      DefaultMaxWords,
		attempts:      DefaultAttempts,
		progressEvery: DefaultProgressEvery,
		logger:        slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(b)
	}

	switch {
	case b.chainLength < 1:
		return nil, errors.New("markov: chain length must be at least 1")
	case b.maxWords < 1:
		return nil, errors.New("markov: max words must be at least 1")
	case b.attempts < 1:
		return nil, errors.New("markov: attempts must be at least 1")
	case b.progressEvery < 1:
		return nil, errors.New("markov: progress interval must be at least 1")
	}

	if b.rng == nil {
		b.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return b, nil
}

// ChainLength returns the number of tokens in a dictionary key.
func (b *Brain) ChainLength() int {
	return b.chainLength
}

// SetLogger sets the logger for the Brain. By default, all logs are discarded.
// Providing a `log/slog.Logger` will enable logging for training and generation.
func (b *Brain) SetLogger(logger *slog.Logger) {
	if logger != nil {
		b.logger = logger
	}
}

// deriveRand returns an independent random source seeded from the Brain's
// own. Each walk gets its own source so that concurrent walks never share
// one, and a pinned Brain source still yields reproducible results.
func (b *Brain) deriveRand() *rand.Rand {
	b.mu.Lock()
	defer b.mu.Unlock()
	return rand.New(rand.NewPCG(b.rng.Uint64(), b.rng.Uint64()))
}
