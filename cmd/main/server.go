package main

import (
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/CTAG07/chatterbox/pkg/markov"
)

type Server struct {
	cm        *ConfigManager
	db        *sql.DB
	logger    *slog.Logger
	store     *markov.SQLStore
	brain     *markov.Brain
	authAPI   *AuthAPI
	brainAPI  *BrainAPI
	chatAPI   *ChatAPI
	serverAPI *ServerAPI
	apiMux    *http.ServeMux
}

func NewServer(cm *ConfigManager, logger *slog.Logger, db *sql.DB, actionChan chan string) (*Server, error) {
	config := cm.Get()

	// markov initialization
	store, err := markov.NewSQLStore(db)
	if err != nil {
		return nil, fmt.Errorf("error creating dictionary store: %w", err)
	}
	store.SetLogger(logger.With("component", "store"))

	brain, err := markov.NewBrain(store,
		markov.WithChainLength(config.Brain.ChainLength),
		markov.WithMaxWords(config.Brain.MaxWords),
		markov.WithAttempts(config.Brain.Attempts),
	)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("error creating brain: %w", err)
	}
	brain.SetLogger(logger.With("component", "brain"))

	Register()

	// create object, register routes to the mux, and return it
	server := &Server{
		cm:        cm,
		db:        db,
		logger:    logger,
		store:     store,
		brain:     brain,
		authAPI:   NewAuthAPI(db, logger),
		brainAPI:  NewBrainAPI(brain, store, cm, logger),
		chatAPI:   NewChatAPI(brain, cm, logger),
		serverAPI: NewServerAPI(cm, actionChan, logger),
		apiMux:    http.NewServeMux(),
	}

	apiMux := http.NewServeMux()

	server.authAPI.RegisterRoutes(apiMux)
	server.brainAPI.RegisterRoutes(apiMux)
	server.chatAPI.RegisterRoutes(apiMux)
	server.serverAPI.RegisterRoutes(apiMux)

	// Make sure api functions must pass through authentication first
	authedAPI := server.authAPI.Authenticate(apiMux)
	// ... except for the health check and metrics, which are scraped by infrastructure
	server.apiMux.HandleFunc("GET /api/health", server.serverAPI.handleHealthCheck)
	if config.Server.MetricsPath != "" {
		server.apiMux.Handle(config.Server.MetricsPath, MetricsHandler())
	}

	server.apiMux.Handle("/api/", authedAPI)

	return server, nil
}

// Close releases the prepared statements held by the server.
func (s *Server) Close() {
	s.store.Close()
}
