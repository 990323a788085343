// ABOUTME: Centralized configuration for the copilot engine
// ABOUTME: Loads from environment variables with validation and defaults
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all configuration for the copilot engine.
type Config struct {
	// OpenAI settings
	OpenAIKey      string
	ChatModel      string
	EmbeddingModel string
	Temperature    float64
	MaxTokens      int
	Timeout        time.Duration
	MaxRetries     int
	RetryDelay     time.Duration

	// Indexing settings
	MaxChunkSize   int
	EmbedCacheTTL  time.Duration
	EmbedCacheSize int

	// Retrieval and chat settings
	SearchLimit int
	MaxHistory  int

	// Guided session settings
	IntentCacheTTL time.Duration
	SessionWindow  time.Duration
	SweepInterval  time.Duration

	// Server settings
	HTTPAddr string
	DBPath   string
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		OpenAIKey:      os.Getenv("OPENAI_API_KEY"),
		ChatModel:      getEnv("COPILOT_CHAT_MODEL", "gpt-4o-mini"),
		EmbeddingModel: getEnv("COPILOT_EMBEDDING_MODEL", "text-embedding-3-small"),
		Temperature:    getEnvFloat("COPILOT_TEMPERATURE", 0.7),
		MaxTokens:      getEnvInt("COPILOT_MAX_TOKENS", 1000),
		Timeout:        getEnvDuration("OPENAI_TIMEOUT", 30*time.Second),
		MaxRetries:     getEnvInt("OPENAI_MAX_RETRIES", 0),
		RetryDelay:     getEnvDuration("OPENAI_RETRY_DELAY", 2*time.Second),

		MaxChunkSize:   getEnvInt("COPILOT_MAX_CHUNK_SIZE", 4000),
		EmbedCacheTTL:  getEnvDuration("COPILOT_EMBED_CACHE_TTL", time.Hour),
		EmbedCacheSize: getEnvInt("COPILOT_EMBED_CACHE_SIZE", 1000),

		SearchLimit: getEnvInt("COPILOT_SEARCH_LIMIT", 5),
		MaxHistory:  getEnvInt("COPILOT_MAX_HISTORY", 7),

		IntentCacheTTL: getEnvDuration("COPILOT_INTENT_CACHE_TTL", 5*time.Minute),
		SessionWindow:  getEnvDuration("COPILOT_SESSION_WINDOW", 30*time.Minute),
		SweepInterval:  getEnvDuration("COPILOT_SWEEP_INTERVAL", 10*time.Minute),

		HTTPAddr: getEnv("COPILOT_HTTP_ADDR", ":8080"),
		DBPath:   os.Getenv("COPILOT_DB_PATH"),
	}

	return cfg, cfg.Validate()
}

func (c *Config) Validate() error {
	if c.Temperature < 0 || c.Temperature > 2 {
		return fmt.Errorf("COPILOT_TEMPERATURE must be 0-2, got %f", c.Temperature)
	}
	if c.MaxRetries < 0 || c.MaxRetries > 10 {
		return fmt.Errorf("OPENAI_MAX_RETRIES must be 0-10, got %d", c.MaxRetries)
	}
	if c.MaxChunkSize < 100 {
		return fmt.Errorf("COPILOT_MAX_CHUNK_SIZE must be at least 100, got %d", c.MaxChunkSize)
	}
	if c.MaxHistory < 1 {
		return fmt.Errorf("COPILOT_MAX_HISTORY must be positive, got %d", c.MaxHistory)
	}
	if c.SearchLimit < 1 {
		return fmt.Errorf("COPILOT_SEARCH_LIMIT must be positive, got %d", c.SearchLimit)
	}
	return nil
}

// Helper functions
func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultVal
}
