// ABOUTME: Cached embedding generation over a provider
// ABOUTME: Strips markup before embedding and caches by normalized text
package embedding

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/flowbrave/copilot/internal/cache"
	"github.com/flowbrave/copilot/internal/llm"
	"github.com/flowbrave/copilot/internal/textutil"
)

const (
	// DefaultCacheTTL is how long a cached embedding stays fresh.
	DefaultCacheTTL = time.Hour
	// DefaultCacheSize bounds the number of cached embeddings.
	DefaultCacheSize = 1000
)

// Embedder generates embeddings through a provider, caching results so
// repeated queries skip the provider round trip.
type Embedder struct {
	provider llm.EmbeddingProvider
	cache    *cache.Cache[[]float32]
}

// New creates an embedder with the default cache bounds.
func New(provider llm.EmbeddingProvider) *Embedder {
	return NewWithCache(provider, cache.New[[]float32](DefaultCacheTTL, DefaultCacheSize))
}

// NewWithCache creates an embedder with a caller-supplied cache.
func NewWithCache(provider llm.EmbeddingProvider, c *cache.Cache[[]float32]) *Embedder {
	return &Embedder{provider: provider, cache: c}
}

// Embed returns the embedding for text, serving from cache when possible.
// Markup is stripped before the text reaches the provider.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	key := cacheKey(text)
	if vector, ok := e.cache.Get(key); ok {
		return vector, nil
	}

	clean := textutil.StripHTML(text)
	vector, err := e.provider.Embed(ctx, clean)
	if err != nil {
		return nil, fmt.Errorf("embedding text: %w", err)
	}

	e.cache.Set(key, vector)
	return vector, nil
}

// CacheLen reports how many embeddings are cached.
func (e *Embedder) CacheLen() int {
	return e.cache.Len()
}

func cacheKey(text string) string {
	return strings.ToLower(strings.TrimSpace(text))
}
