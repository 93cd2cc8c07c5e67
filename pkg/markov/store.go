package markov

import (
	"context"
	"math"
)

// Entry is a single observation: Word was seen directly after Key.
type Entry struct {
	Key  string
	Word string
}

// Store is the persisted mapping from a dictionary key to every word ever
// observed after it. It behaves as an append-only multiset: storing the same
// pair twice records two observations.
type Store interface {
	// Put records one observation of word following key.
	Put(ctx context.Context, key, word string) error
	// Get returns every word recorded for key, duplicates included, in no
	// particular order. An unknown key yields an empty slice and no error.
	Get(ctx context.Context, key string) ([]string, error)
}

// BatchStore is implemented by stores that can record many observations more
// efficiently than one Put at a time. TrainReader uses it when available.
type BatchStore interface {
	Store
	PutBatch(ctx context.Context, entries []Entry) error
}

// MaxFrequency is the largest count a SQLStore keeps for one key->word pair.
const MaxFrequency = math.MaxInt32

// Successor is a word observed after a key, with the number of observations.
type Successor struct {
	Word      string
	Frequency int
}

// WeightedStore is implemented by stores that keep observation counts.
// Walks draw from Successors by weight instead of expanding the counts
// through Get.
type WeightedStore interface {
	Store
	Successors(ctx context.Context, key string) ([]Successor, error)
}
