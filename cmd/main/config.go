package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/CTAG07/chatterbox/pkg/markov"
	"github.com/natefinch/atomic"
)

// ServerConfig holds the configuration for the HTTP server.
type ServerConfig struct {
	ApiAddr      string `json:"api_addr"`
	LogLevel     string `json:"log_level"`
	DataDir      string `json:"data_dir"`
	DatabasePath string `json:"database_path"`
	MetricsPath  string `json:"metrics_path"`
}

// BrainConfig holds the learning and generation settings.
type BrainConfig struct {
	ChainLength int `json:"chain_length"`
	MaxWords    int `json:"max_words"`
	Attempts    int `json:"attempts"`
}

// ChatConfig holds settings for the chat gateway.
type ChatConfig struct {
	ReplyChance   float64 `json:"reply_chance"`
	CommandPrefix string  `json:"command_prefix"`
	FallbackReply string  `json:"fallback_reply"`
}

// Config is the top-level configuration struct that aggregates all other configs.
type Config struct {
	Server *ServerConfig `json:"server_config"`
	Brain  *BrainConfig  `json:"brain_config"`
	Chat   *ChatConfig   `json:"chat_config"`
}

// DefaultConfig creates a configuration with default values.
func DefaultConfig() *Config {
	return &Config{
		Server: &ServerConfig{
			ApiAddr:      ":7280",
			LogLevel:     "info",
			DataDir:      "./data",
			DatabasePath: "./data/chatterbox.db?_journal_mode=WAL&_busy_timeout=5000",
			MetricsPath:  "/metrics",
		},
		Brain: &BrainConfig{
			ChainLength: markov.DefaultChainLength,
			MaxWords:    markov.DefaultMaxWords,
			Attempts:    markov.DefaultAttempts,
		},
		Chat: &ChatConfig{
			ReplyChance:   0.05,
			CommandPrefix: "!talk",
			FallbackReply: "I have nothing to say.",
		},
	}
}

// Validate checks the Config for values the server cannot run with.
func (c *Config) Validate() error {
	if c.Server == nil || c.Brain == nil || c.Chat == nil {
		return errors.New("server_config, brain_config and chat_config are all required")
	}
	if c.Server.ApiAddr == "" || c.Server.DatabasePath == "" {
		return errors.New("api_addr and database_path must not be empty")
	}
	if err := validateMetricsPath(c.Server.MetricsPath); err != nil {
		return err
	}
	if c.Brain.ChainLength < 1 || c.Brain.MaxWords < 1 || c.Brain.Attempts < 1 {
		return fmt.Errorf("brain_config values must be positive, got %+v", *c.Brain)
	}
	if c.Chat.ReplyChance < 0 || c.Chat.ReplyChance > 1 {
		return fmt.Errorf("reply_chance must be between 0 and 1, got %v", c.Chat.ReplyChance)
	}
	if c.Chat.CommandPrefix == "" {
		return errors.New("command_prefix must not be empty")
	}
	return nil
}

// validateMetricsPath checks that path can be mounted next to the API. An
// empty path disables metrics.
func validateMetricsPath(path string) error {
	switch {
	case path == "":
		return nil
	case !strings.HasPrefix(path, "/") || path == "/":
		return fmt.Errorf("metrics_path must start with / and name a path, got %q", path)
	case path == "/api" || strings.HasPrefix(path, "/api/"):
		return fmt.Errorf("metrics_path must not be under /api/, got %q", path)
	case strings.ContainsAny(path, "{} \t\n"):
		return fmt.Errorf("metrics_path must not contain braces or whitespace, got %q", path)
	}
	return nil
}

// LoadConfig reads the configuration from a JSON file at the given path.
// If the file doesn't exist, it creates one with default values.
func LoadConfig(path string) (*Config, error) {
	// Initialize with default configurations
	config := DefaultConfig()

	file, err := os.ReadFile(path)
	if err != nil {
		// If the file doesn't exist, create it with the default config.
		if os.IsNotExist(err) {
			var data []byte
			data, err = json.MarshalIndent(config, "", "  ")
			if err != nil {
				return nil, fmt.Errorf("failed to marshal default config: %w", err)
			}
			if err = atomic.WriteFile(path, bytes.NewReader(data)); err != nil {
				// Log a warning instead of failing, as the server can still run with defaults.
				fmt.Printf("warning: failed to write default config file: %v\n", err)
			}
			return config, nil
		}
		// For other errors (e.g., permission denied), return the error.
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Unmarshal the JSON from the file into the config struct.
	if err = json.Unmarshal(file, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if err = config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file: %w", err)
	}

	return config, nil
}

// ConfigManager handles thread-safe access to the configuration and its
// persistence on disk.
type ConfigManager struct {
	config     *Config
	mu         sync.RWMutex
	configPath string
}

// NewConfigManager loads the config and initializes the manager.
func NewConfigManager(path string) (*ConfigManager, error) {
	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}
	return &ConfigManager{config: cfg, configPath: path}, nil
}

// Get returns a thread-safe copy of the current configuration.
func (cm *ConfigManager) Get() Config {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	// Copy the sections too so callers cannot modify the internal state
	server, brain, chat := *cm.config.Server, *cm.config.Brain, *cm.config.Chat
	return Config{Server: &server, Brain: &brain, Chat: &chat}
}

// Update validates the configuration, saves it to disk and makes it current.
// Chat settings apply immediately; server and brain settings apply on restart.
func (cm *ConfigManager) Update(newConfig Config) error {
	if err := newConfig.Validate(); err != nil {
		return err
	}

	cm.mu.Lock()
	defer cm.mu.Unlock()

	data, err := json.MarshalIndent(&newConfig, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err = atomic.WriteFile(cm.configPath, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	*cm.config = newConfig
	return nil
}
