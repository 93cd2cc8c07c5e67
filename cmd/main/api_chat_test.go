package main

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CTAG07/chatterbox/pkg/markov"
)

func stats(t *testing.T, s *Server) markov.DictionaryStats {
	t.Helper()
	return decode[markov.DictionaryStats](t, do(t, s, http.MethodGet, "/api/brain/stats", nil, ""))
}

func TestChatLearnsWithoutReplying(t *testing.T) {
	s, _ := newTestServer(t, nil)
	s.chatAPI.chance = func() float64 { return 0.99 }

	rr := do(t, s, http.MethodPost, "/api/chat/messages", ChatMessage{Channel: "general", Author: "ana", Text: trainedSentence}, "")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, ChatResponse{}, decode[ChatResponse](t, rr))
	assert.Equal(t, 8, stats(t, s).Observations)
}

func TestChatRepliesByChance(t *testing.T) {
	s, _ := newTestServer(t, nil)
	s.chatAPI.chance = func() float64 { return 0 }

	rr := do(t, s, http.MethodPost, "/api/chat/messages", ChatMessage{Text: trainedSentence}, "")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, ChatResponse{Replied: true, Reply: trainedSentence}, decode[ChatResponse](t, rr))

	// A short message is still answered silently.
	rr = do(t, s, http.MethodPost, "/api/chat/messages", ChatMessage{Text: "hi"}, "")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, ChatResponse{}, decode[ChatResponse](t, rr))
}

func TestChatCommand(t *testing.T) {
	s, _ := newTestServer(t, func(c *Config) { c.Chat.FallbackReply = "hmm" })
	s.chatAPI.chance = func() float64 { return 0.99 }
	train(t, s, trainedSentence)
	before := stats(t, s)

	rr := do(t, s, http.MethodPost, "/api/chat/messages", ChatMessage{Text: "!talk fox jumps over the lazy"}, "")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, ChatResponse{Replied: true, Reply: "fox jumps over the lazy dog"}, decode[ChatResponse](t, rr))
	// The text after the prefix is learned after answering: five words and
	// the stop token give four observations.
	assert.Equal(t, before.Observations+4, stats(t, s).Observations)

	rr = do(t, s, http.MethodPost, "/api/chat/messages", ChatMessage{Text: "!talk"}, "")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, ChatResponse{Replied: true, Reply: "hmm"}, decode[ChatResponse](t, rr))
	assert.Equal(t, before.Observations+4, stats(t, s).Observations, "an empty command has nothing to learn")

	rr = do(t, s, http.MethodPost, "/api/chat/messages", ChatMessage{Text: "!talk nobody said these words before"}, "")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, ChatResponse{Replied: true, Reply: "hmm"}, decode[ChatResponse](t, rr))
}

func TestChatBadRequest(t *testing.T) {
	s, _ := newTestServer(t, nil)
	rr := do(t, s, http.MethodPost, "/api/chat/messages", "not json", "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestParseCommand(t *testing.T) {
	tests := []struct {
		text   string
		want   string
		wantOK bool
	}{
		{"!talk", "", true},
		{"!talk  about the weather ", "about the weather", true},
		{"!talking about it", "", false},
		{"say !talk", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := parseCommand(tt.text, "!talk")
		assert.Equal(t, tt.wantOK, ok, tt.text)
		assert.Equal(t, tt.want, got, tt.text)
	}
}
