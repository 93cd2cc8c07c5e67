package main

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/CTAG07/chatterbox/internal/sqlitedb"
	"github.com/CTAG07/chatterbox/pkg/markov"
)

const trainedSentence = "the quick brown fox jumps over the lazy dog"

// newTestServer builds a Server on a fresh database and config file in a
// temporary directory. mutate, if not nil, adjusts the config before the
// server is created.
func newTestServer(t *testing.T, mutate func(*Config)) (*Server, chan string) {
	t.Helper()
	dir := t.TempDir()

	cfg := DefaultConfig()
	cfg.Server.DataDir = dir
	cfg.Server.DatabasePath = filepath.Join(dir, "test.db")
	cfg.Brain.ChainLength = 2
	cfg.Brain.Attempts = 3
	if mutate != nil {
		mutate(cfg)
	}
	configPath := filepath.Join(dir, "config.json")
	data, err := json.Marshal(cfg)
	require.NoError(t, err)
	require.NoError(t, writeFile(configPath, data))

	cm, err := NewConfigManager(configPath)
	require.NoError(t, err)

	db, err := sqlitedb.Open(cfg.Server.DatabasePath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, markov.SetupSchema(db))
	require.NoError(t, setupAuthSchema(db))

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	actionChan := make(chan string, 1)
	server, err := NewServer(cm, logger, db, actionChan)
	require.NoError(t, err)
	t.Cleanup(server.Close)
	return server, actionChan
}

// do sends a request through the server's mux. body is JSON encoded unless
// it is a string, which is sent as is.
func do(t *testing.T, s *Server, method, path string, body any, apiKey string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if apiKey != "" {
		req.Header.Set(authHeader, apiKey)
	}
	rr := httptest.NewRecorder()
	s.apiMux.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v), "body: %s", rr.Body.String())
	return v
}

func train(t *testing.T, s *Server, corpus string) {
	t.Helper()
	rr := do(t, s, http.MethodPost, "/api/brain/train", corpus, "")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
}
