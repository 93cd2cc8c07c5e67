package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/CTAG07/chatterbox/pkg/markov"
)

// BrainAPI holds the dependencies for the training and generation API handlers.
type BrainAPI struct {
	brain  *markov.Brain
	store  *markov.SQLStore
	cm     *ConfigManager
	logger *slog.Logger
}

// NewBrainAPI creates a new instance of the BrainAPI.
func NewBrainAPI(brain *markov.Brain, store *markov.SQLStore, cm *ConfigManager, logger *slog.Logger) *BrainAPI {
	return &BrainAPI{
		brain:  brain,
		store:  store,
		cm:     cm,
		logger: logger,
	}
}

// RegisterRoutes sets up the routing for all /api/brain endpoints.
func (b *BrainAPI) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/brain/train", requireScope(scopeBrainWrite, b.handleTrain))
	mux.HandleFunc("POST /api/brain/reply", requireScope(scopeBrainRead, b.handleReply))
	mux.HandleFunc("POST /api/brain/walk", requireScope(scopeBrainRead, b.handleWalk))
	mux.HandleFunc("GET /api/brain/stats", requireScope(scopeBrainRead, b.handleStats))
	mux.HandleFunc("POST /api/brain/prune", requireScope(scopeBrainWrite, b.handlePrune))
	mux.HandleFunc("GET /api/brain/export", requireScope(scopeBrainRead, b.handleExport))
	mux.HandleFunc("POST /api/brain/import", requireScope(scopeBrainWrite, b.handleImport))
}

type ReplyRequest struct {
	Text string `json:"text"`
}

type ReplyResponse struct {
	Reply string `json:"reply"`
}

type WalkRequest struct {
	Seed []string `json:"seed"`
}

type WalkResponse struct {
	Sentence string `json:"sentence"`
}

type PruneRequest struct {
	MinFreq int `json:"minFreq"`
}

// handleTrain trains on the request body, one sentence per line.
func (b *BrainAPI) handleTrain(w http.ResponseWriter, r *http.Request) {
	progress, err := b.brain.TrainReader(r.Context(), r.Body, nil)
	sentencesTrained.Add(float64(progress.Trained))
	if err != nil {
		b.logger.Error("Failed to train brain", "lines_read", progress.Lines, "error", err)
		respondWithError(w, http.StatusInternalServerError, fmt.Sprintf("Training failed: %v", err))
		return
	}
	respondWithJSON(w, http.StatusOK, progress)
}

// handleReply generates a reply to the given text.
func (b *BrainAPI) handleReply(w http.ResponseWriter, r *http.Request) {
	var req ReplyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid JSON request body")
		return
	}

	start := time.Now()
	reply, err := b.brain.Reply(r.Context(), req.Text)
	recordReply(start, err)
	switch {
	case err == nil:
		respondWithJSON(w, http.StatusOK, ReplyResponse{Reply: reply})
	case errors.Is(err, markov.ErrInputTooShort):
		respondWithError(w, http.StatusBadRequest, fmt.Sprintf("Input needs at least %d words", markov.MinWords))
	case errors.Is(err, markov.ErrNoReply):
		respondWithJSON(w, http.StatusNotFound, map[string]string{
			"error":    "No reply available",
			"fallback": b.cm.Get().Chat.FallbackReply,
		})
	default:
		b.logger.Error("Failed to generate reply", "error", err)
		respondWithError(w, http.StatusInternalServerError, fmt.Sprintf("Reply failed: %v", err))
	}
}

// handleWalk runs the best-of selection from an explicit seed key.
func (b *BrainAPI) handleWalk(w http.ResponseWriter, r *http.Request) {
	var req WalkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid JSON request body")
		return
	}

	var seed []string
	for _, word := range req.Seed {
		seed = append(seed, markov.Tokenize(word)...)
	}
	if len(seed) != b.brain.ChainLength() {
		respondWithError(w, http.StatusBadRequest, fmt.Sprintf("Seed must contain exactly %d words", b.brain.ChainLength()))
		return
	}

	sentence, err := b.brain.BestOf(r.Context(), markov.EncodeKey(seed))
	if err != nil {
		b.logger.Error("Failed to walk from seed", "seed", seed, "error", err)
		respondWithError(w, http.StatusInternalServerError, fmt.Sprintf("Walk failed: %v", err))
		return
	}
	respondWithJSON(w, http.StatusOK, WalkResponse{Sentence: sentence})
}

func (b *BrainAPI) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := b.store.Stats(r.Context())
	if err != nil {
		b.logger.Error("Failed to get dictionary stats", "error", err)
		respondWithError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to retrieve stats: %v", err))
		return
	}
	respondWithJSON(w, http.StatusOK, stats)
}

func (b *BrainAPI) handlePrune(w http.ResponseWriter, r *http.Request) {
	var req PruneRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid JSON request body")
		return
	}
	removed, err := b.store.Prune(r.Context(), req.MinFreq)
	if err != nil {
		b.logger.Error("Failed to prune dictionary", "error", err)
		respondWithError(w, http.StatusInternalServerError, fmt.Sprintf("Pruning failed: %v", err))
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]int64{"removed": removed})
}

func (b *BrainAPI) handleExport(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="dictionary.json"`)
	if err := b.store.Export(r.Context(), w, b.brain.ChainLength()); err != nil {
		b.logger.Error("Failed to export dictionary", "error", err)
	}
}

func (b *BrainAPI) handleImport(w http.ResponseWriter, r *http.Request) {
	merged, err := b.store.Import(r.Context(), r.Body, b.brain.ChainLength())
	if err != nil {
		b.logger.Error("Failed to import dictionary", "error", err)
		respondWithError(w, http.StatusBadRequest, fmt.Sprintf("Import failed: %v", err))
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]int{"merged": merged})
}
