package markov

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestSQLStorePutGet(t *testing.T) {
	_, s := setupTestDB(t)
	ctx := context.Background()

	key := EncodeKey([]string{"one", "fish"})
	for _, w := range []string{"two", "red", "two"} {
		if err := s.Put(ctx, key, w); err != nil {
			t.Fatalf("Put(%q) failed: %v", w, err)
		}
	}

	words, err := s.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	sort.Strings(words)
	if diff := cmp.Diff([]string{"red", "two", "two"}, words); diff != "" {
		t.Errorf("Get() mismatch (-want +got):\n%s", diff)
	}

	// Test unseen key
	words, err = s.Get(ctx, EncodeKey([]string{"no", "such"}))
	if err != nil {
		t.Fatalf("Get() for unseen key failed: %v", err)
	}
	if len(words) != 0 {
		t.Errorf("expected no words for an unseen key, got %v", words)
	}
}

func TestSQLStorePutBatch(t *testing.T) {
	db, s := setupTestDB(t)
	ctx := context.Background()

	entries := []Entry{
		{Key: `a"b`, Word: "c"},
		{Key: `a"b`, Word: "c"},
		{Key: `b"c`, Word: StopToken},
	}
	if err := s.PutBatch(ctx, entries); err != nil {
		t.Fatalf("PutBatch() failed: %v", err)
	}
	if err := s.PutBatch(ctx, nil); err != nil {
		t.Fatalf("PutBatch() with no entries failed: %v", err)
	}

	var freq int
	if err := db.QueryRowContext(ctx, "SELECT frequency FROM markov_dictionary WHERE dict_key = ? AND word = ?", `a"b`, "c").Scan(&freq); err != nil {
		t.Fatal(err)
	}
	if freq != 2 {
		t.Errorf("expected frequency 2, got %d", freq)
	}
}

func TestSQLStoreStats(t *testing.T) {
	_, s := setupTestDB(t)
	ctx := context.Background()
	b := newTestBrain(t, s, WithChainLength(2))

	stats, err := s.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats() on empty store failed: %v", err)
	}
	if *stats != (DictionaryStats{}) {
		t.Errorf("expected empty stats, got %+v", stats)
	}

	_ = b.Train(ctx, "a b c d e")
	_ = b.Train(ctx, "a b c d e")
	_ = b.Train(ctx, "a b x y z")

	stats, err = s.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats() failed: %v", err)
	}
	// a"b -> c, x; b"c; c"d; d"e; b"x; x"y; y"z
	want := DictionaryStats{Keys: 7, Entries: 8, Observations: 12, Terminals: 2}
	if *stats != want {
		t.Errorf("Stats() = %+v, want %+v", *stats, want)
	}
}

func TestSQLStorePrune(t *testing.T) {
	db, s := setupTestDB(t)
	ctx := context.Background()
	b := newTestBrain(t, s, WithChainLength(2))

	_ = b.Train(ctx, "a b c d e")
	_ = b.Train(ctx, "a b c d e")
	_ = b.Train(ctx, "a b x y z")
	// The first sentence's four entries have frequency 2, the second sentence's four have frequency 1.

	removed, err := s.Prune(ctx, 1)
	if err != nil {
		t.Fatalf("Prune() failed: %v", err)
	}
	if removed != 4 {
		t.Errorf("expected 4 entries removed, got %d", removed)
	}

	var count int
	if err = db.QueryRowContext(ctx, "SELECT COUNT(*) FROM markov_dictionary WHERE frequency <= 1").Scan(&count); err != nil {
		t.Fatal(err)
	}
	if count != 0 {
		t.Errorf("expected 0 entries with frequency 1 after pruning, got %d", count)
	}
}

func TestExportImportRoundTrip(t *testing.T) {
	_, s := setupTestDB(t)
	ctx := context.Background()
	b := newTestBrain(t, s, WithChainLength(2))

	sentence := "one fish two fish red fish blue fish"
	if err := b.Train(ctx, sentence); err != nil {
		t.Fatalf("Train() failed: %v", err)
	}

	// 1. Export the trained dictionary to an in-memory buffer
	var buf bytes.Buffer
	if err := s.Export(ctx, &buf, 2); err != nil {
		t.Fatalf("Export() failed: %v", err)
	}
	exported := buf.String()

	// 2. Set up a completely new, empty database and import into it twice
	_, s2 := setupTestDB(t)
	for i := 0; i < 2; i++ {
		n, err := s2.Import(ctx, strings.NewReader(exported), 2)
		if err != nil {
			t.Fatalf("Import() failed: %v", err)
		}
		if n != 7 {
			t.Errorf("expected 7 entries merged, got %d", n)
		}
	}

	// 3. Frequencies were merged, and the imported data generates the same sentence.
	words, _ := s2.Get(ctx, EncodeKey([]string{"blue", "fish"}))
	if len(words) != 2 || words[0] != StopToken {
		t.Errorf("expected merged frequency of 2 for 'blue fish' -> stop, got %v", words)
	}

	b2 := newTestBrain(t, s2, WithChainLength(2))
	got, err := b2.Reply(ctx, sentence)
	if err != nil {
		t.Fatalf("Reply() from imported dictionary failed: %v", err)
	}
	if got != sentence {
		t.Errorf("Reply() from imported dictionary = %q, want %q", got, sentence)
	}
}

func TestImportRejectsMismatchedData(t *testing.T) {
	_, s := setupTestDB(t)
	ctx := context.Background()

	testCases := []struct {
		name string
		data string
	}{
		{name: "Chain length mismatch", data: `{"chain_length": 3, "entries": []}`},
		{name: "Key length mismatch", data: `{"chain_length": 2, "entries": [{"key": "a\"b\"c", "word": "d", "frequency": 1}]}`},
		{name: "Non-positive frequency", data: `{"chain_length": 2, "entries": [{"key": "a\"b", "word": "c", "frequency": 0}]}`},
		{name: "Frequency above maximum", data: `{"chain_length": 2, "entries": [{"key": "a\"b", "word": "c", "frequency": 1}, {"key": "x\"y", "word": "z", "frequency": 4611686018427387904}]}`},
		{name: "Invalid json", data: `{"chain_length": `},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := s.Import(ctx, strings.NewReader(tc.data), 2); err == nil {
				t.Error("expected an error but got none")
			}
		})
	}

	stats, err := s.Stats(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if stats.Entries != 0 {
		t.Errorf("expected failed imports to leave the store empty, got %d entries", stats.Entries)
	}
}

func TestImportClampsMergedFrequency(t *testing.T) {
	db, s := setupTestDB(t)
	ctx := context.Background()
	data := fmt.Sprintf(`{"chain_length": 2, "entries": [{"key": "a\"b", "word": "c", "frequency": %d}]}`, MaxFrequency-1)

	for i := 0; i < 2; i++ {
		if _, err := s.Import(ctx, strings.NewReader(data), 2); err != nil {
			t.Fatalf("Import() failed: %v", err)
		}
	}
	if err := s.Put(ctx, `a"b`, "c"); err != nil {
		t.Fatalf("Put() failed: %v", err)
	}

	var freq int64
	if err := db.QueryRowContext(ctx, "SELECT frequency FROM markov_dictionary WHERE dict_key = ? AND word = ?", `a"b`, "c").Scan(&freq); err != nil {
		t.Fatalf("failed to query frequency: %v", err)
	}
	if freq != MaxFrequency {
		t.Errorf("expected frequency clamped to %d, got %d", MaxFrequency, freq)
	}
}

func TestSQLStoreSuccessors(t *testing.T) {
	_, s := setupTestDB(t)
	ctx := context.Background()
	put(t, s, []string{"a", "b"}, "c", "d", "c")

	got, err := s.Successors(ctx, `a"b`)
	if err != nil {
		t.Fatalf("Successors() failed: %v", err)
	}
	sort.Slice(got, func(i, j int) bool { return got[i].Word < got[j].Word })
	want := []Successor{{Word: "c", Frequency: 2}, {Word: "d", Frequency: 1}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Successors() mismatch (-want +got):\n%s", diff)
	}

	none, err := s.Successors(ctx, `x"y`)
	if err != nil || len(none) != 0 {
		t.Errorf("Successors() of unknown key = %v, %v; want empty", none, err)
	}
}
