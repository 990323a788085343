// ABOUTME: Tests for configuration loading and validation
package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.ChatModel != "gpt-4o-mini" {
		t.Errorf("ChatModel = %q", cfg.ChatModel)
	}
	if cfg.EmbeddingModel != "text-embedding-3-small" {
		t.Errorf("EmbeddingModel = %q", cfg.EmbeddingModel)
	}
	if cfg.MaxChunkSize != 4000 {
		t.Errorf("MaxChunkSize = %d", cfg.MaxChunkSize)
	}
	if cfg.MaxHistory != 7 {
		t.Errorf("MaxHistory = %d", cfg.MaxHistory)
	}
	if cfg.EmbedCacheTTL != time.Hour {
		t.Errorf("EmbedCacheTTL = %v", cfg.EmbedCacheTTL)
	}
	if cfg.SessionWindow != 30*time.Minute {
		t.Errorf("SessionWindow = %v", cfg.SessionWindow)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("COPILOT_CHAT_MODEL", "gpt-4o")
	t.Setenv("COPILOT_MAX_HISTORY", "12")
	t.Setenv("COPILOT_SWEEP_INTERVAL", "1m")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.ChatModel != "gpt-4o" {
		t.Errorf("ChatModel = %q", cfg.ChatModel)
	}
	if cfg.MaxHistory != 12 {
		t.Errorf("MaxHistory = %d", cfg.MaxHistory)
	}
	if cfg.SweepInterval != time.Minute {
		t.Errorf("SweepInterval = %v", cfg.SweepInterval)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid defaults", func(*Config) {}, false},
		{"temperature out of range", func(c *Config) { c.Temperature = 3 }, true},
		{"negative retries", func(c *Config) { c.MaxRetries = -1 }, true},
		{"tiny chunk size", func(c *Config) { c.MaxChunkSize = 10 }, true},
		{"zero history", func(c *Config) { c.MaxHistory = 0 }, true},
		{"zero search limit", func(c *Config) { c.SearchLimit = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load()
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}
			tt.mutate(cfg)
			if err := cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
