package markov

import (
	"context"
	"database/sql"
	"errors"
	"go/build"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	_ "github.com/mattn/go-sqlite3"
)

// setupTestDB creates a new SQLite database in a temp dir and a SQLStore on it.
// It uses t.Cleanup to ensure resources are released.
func setupTestDB(t *testing.T) (*sql.DB, *SQLStore) {
	dbFile := filepath.Join(t.TempDir(), "test.db")
	db, err := sql.Open("sqlite3", dbFile+"?_journal_mode=WAL&_synchronous=NORMAL&_cache_size=-4000")
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := SetupSchema(db); err != nil {
		t.Fatalf("failed to set up schema: %v", err)
	}

	s, err := NewSQLStore(db)
	if err != nil {
		t.Fatalf("NewSQLStore() error = %v", err)
	}
	t.Cleanup(s.Close)

	return db, s
}

// newTestBrain creates a Brain with a pinned random source.
func newTestBrain(t *testing.T, store Store, opts ...Option) *Brain {
	t.Helper()
	opts = append([]Option{WithRand(rand.New(rand.NewPCG(1, 2)))}, opts...)
	b, err := NewBrain(store, opts...)
	if err != nil {
		t.Fatalf("NewBrain() error = %v", err)
	}
	return b
}

// countingStore wraps a Store and counts lookups.
type countingStore struct {
	Store
	gets atomic.Int64
}

func (c *countingStore) Get(ctx context.Context, key string) ([]string, error) {
	c.gets.Add(1)
	return c.Store.Get(ctx, key)
}

var errStoreDown = errors.New("store unavailable")

// failingStore fails every operation.
type failingStore struct{}

func (failingStore) Put(context.Context, string, string) error { return errStoreDown }
func (failingStore) Get(context.Context, string) ([]string, error) {
	return nil, errStoreDown
}

// put records observations in a MemoryStore, failing the test on error.
func put(t *testing.T, s Store, key []string, words ...string) {
	t.Helper()
	for _, w := range words {
		if err := s.Put(context.Background(), EncodeKey(key), w); err != nil {
			t.Fatalf("Put(%v, %q) failed: %v", key, w, err)
		}
	}
}

var (
	benchmarkCorpus string
	corpusOnce      sync.Once
)

// createBenchmarkCorpus reads Go source files to create a corpus for benchmarking.
func createBenchmarkCorpus() string {
	corpusOnce.Do(func() {
		var sb strings.Builder
		goRoot := build.Default.GOROOT
		filesToRead := []string{
			filepath.Join(goRoot, "src/net/http/server.go"),
			filepath.Join(goRoot, "src/go/parser/parser.go"),
			filepath.Join(goRoot, "src/encoding/json/encode.go"),
		}

		for _, file := range filesToRead {
			content, err := os.ReadFile(file)
			if err != nil {
				benchmarkCorpus = "this is a fallback corpus for benchmarking. it is not very long but will prevent a crash.\n"
				return
			}
			sb.Write(content)
			sb.WriteString("\n")
		}
		benchmarkCorpus = sb.String()
	})
	return benchmarkCorpus
}
