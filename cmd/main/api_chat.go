package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"strings"
	"time"

	"github.com/CTAG07/chatterbox/pkg/markov"
)

// ChatAPI is the gateway for chat integrations. Every message is learned
// from. Ordinary messages are occasionally answered; messages starting with
// the command prefix are always answered, and the text after the prefix is
// learned once the answer is ready.
type ChatAPI struct {
	brain  *markov.Brain
	cm     *ConfigManager
	logger *slog.Logger
	chance func() float64
}

// NewChatAPI creates a new instance of the ChatAPI.
func NewChatAPI(brain *markov.Brain, cm *ConfigManager, logger *slog.Logger) *ChatAPI {
	return &ChatAPI{
		brain:  brain,
		cm:     cm,
		logger: logger,
		chance: rand.Float64,
	}
}

// RegisterRoutes sets up the routing for all /api/chat endpoints.
func (c *ChatAPI) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/chat/messages", requireScope(scopeChatWrite, c.handleMessage))
}

type ChatMessage struct {
	Channel string `json:"channel"`
	Author  string `json:"author"`
	Text    string `json:"text"`
}

type ChatResponse struct {
	Replied bool   `json:"replied"`
	Reply   string `json:"reply,omitempty"`
}

func (c *ChatAPI) handleMessage(w http.ResponseWriter, r *http.Request) {
	var msg ChatMessage
	if err := json.NewDecoder(r.Body).Decode(&msg); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid JSON request body")
		return
	}
	cfg := c.cm.Get().Chat
	text := strings.TrimSpace(msg.Text)

	if input, ok := parseCommand(text, cfg.CommandPrefix); ok {
		chatMessages.WithLabelValues("true").Inc()
		reply, err := c.reply(r.Context(), input)
		if err != nil && !isQuiet(err) {
			c.logger.Error("Failed to answer chat command", "channel", msg.Channel, "error", err)
			respondWithError(w, http.StatusInternalServerError, fmt.Sprintf("Reply failed: %v", err))
			return
		}
		if err != nil {
			reply = cfg.FallbackReply
		}
		if err = c.learn(r.Context(), msg, input); err != nil {
			respondWithError(w, http.StatusInternalServerError, fmt.Sprintf("Training failed: %v", err))
			return
		}
		respondWithJSON(w, http.StatusOK, ChatResponse{Replied: true, Reply: reply})
		return
	}

	chatMessages.WithLabelValues("false").Inc()
	if err := c.learn(r.Context(), msg, text); err != nil {
		respondWithError(w, http.StatusInternalServerError, fmt.Sprintf("Training failed: %v", err))
		return
	}

	if c.chance() >= cfg.ReplyChance {
		respondWithJSON(w, http.StatusOK, ChatResponse{})
		return
	}

	reply, err := c.reply(r.Context(), text)
	if err != nil {
		if !isQuiet(err) {
			c.logger.Error("Failed to answer chat message", "channel", msg.Channel, "error", err)
			respondWithError(w, http.StatusInternalServerError, fmt.Sprintf("Reply failed: %v", err))
			return
		}
		respondWithJSON(w, http.StatusOK, ChatResponse{})
		return
	}
	c.logger.Debug("Replying to chat message", "channel", msg.Channel, "author", msg.Author)
	respondWithJSON(w, http.StatusOK, ChatResponse{Replied: true, Reply: reply})
}

func (c *ChatAPI) learn(ctx context.Context, msg ChatMessage, text string) error {
	if err := c.brain.Train(ctx, text); err != nil {
		c.logger.Error("Failed to learn from chat message", "channel", msg.Channel, "author", msg.Author, "error", err)
		return err
	}
	sentencesTrained.Inc()
	return nil
}

func (c *ChatAPI) reply(ctx context.Context, text string) (string, error) {
	start := time.Now()
	reply, err := c.brain.Reply(ctx, text)
	recordReply(start, err)
	return reply, err
}

// parseCommand reports whether text invokes the command prefix and returns
// the text following it.
func parseCommand(text, prefix string) (string, bool) {
	rest, ok := strings.CutPrefix(text, prefix)
	if !ok || (rest != "" && !strings.HasPrefix(rest, " ")) {
		return "", false
	}
	return strings.TrimSpace(rest), true
}

// isQuiet reports whether err only means there was nothing to say.
func isQuiet(err error) bool {
	return errors.Is(err, markov.ErrInputTooShort) || errors.Is(err, markov.ErrNoReply)
}
