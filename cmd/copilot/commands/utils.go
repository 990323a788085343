// ABOUTME: Shared wiring and helpers for CLI commands
package commands

import (
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/flowbrave/copilot/internal/cache"
	"github.com/flowbrave/copilot/internal/chat"
	"github.com/flowbrave/copilot/internal/config"
	"github.com/flowbrave/copilot/internal/embedding"
	"github.com/flowbrave/copilot/internal/guided"
	"github.com/flowbrave/copilot/internal/indexer"
	"github.com/flowbrave/copilot/internal/llm"
	"github.com/flowbrave/copilot/internal/search"
	"github.com/flowbrave/copilot/internal/store/sqlite"
)

// engines bundles the wired components behind every command.
type engines struct {
	cfg      *config.Config
	db       *sqlite.DB
	store    *sqlite.Store
	indexer  *indexer.Indexer
	search   *search.Engine
	answerer *chat.Answerer
	guided   *guided.Engine
	logger   *log.Logger
}

// buildEngines wires the full stack from configuration.
func buildEngines(logger *log.Logger) (*engines, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}
	if cfg.OpenAIKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY is required")
	}

	dbPath := cfg.DBPath
	if dbPath == "" {
		dbPath = sqlite.DefaultDBPath()
	}
	db, err := sqlite.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	docStore := sqlite.NewStore(db)

	client, err := llm.NewClient(llm.ClientConfig{
		APIKey:         cfg.OpenAIKey,
		ChatModel:      cfg.ChatModel,
		EmbeddingModel: cfg.EmbeddingModel,
		Temperature:    float32(cfg.Temperature),
		MaxTokens:      cfg.MaxTokens,
		Timeout:        cfg.Timeout,
		Retry: llm.RetryPolicy{
			MaxRetries: cfg.MaxRetries,
			BaseDelay:  cfg.RetryDelay,
		},
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initializing OpenAI client: %w", err)
	}

	embedder := embedding.NewWithCache(client,
		cache.New[[]float32](cfg.EmbedCacheTTL, cfg.EmbedCacheSize))

	searchEngine := search.New(docStore, embedder, logger)
	answerer := chat.New(searchEngine, client, logger)
	answerer.SetMaxHistory(cfg.MaxHistory)

	guidedEngine := guided.NewEngine(
		guided.NewRegistry(),
		guided.NewDetector(docStore, client, logger),
		guided.NewDecomposer(client, logger),
		answerer,
		client,
		logger,
	)

	return &engines{
		cfg:      cfg,
		db:       db,
		store:    docStore,
		indexer:  indexer.New(docStore, embedder, logger),
		search:   searchEngine,
		answerer: answerer,
		guided:   guidedEngine,
		logger:   logger,
	}, nil
}

func (e *engines) Close() error {
	return e.db.Close()
}

// truncate shortens a string to maxLen, adding "..." if truncated.
func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}

// validatePositiveInt returns an error if n is not positive.
func validatePositiveInt(n int, name string) error {
	if n <= 0 {
		return fmt.Errorf("%s must be positive, got %d", name, n)
	}
	return nil
}
