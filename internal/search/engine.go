// ABOUTME: Hybrid three-tier retrieval: exact title, tag match, vector similarity
// ABOUTME: Tier failures are logged and skipped so one bad tier never empties results
package search

import (
	"context"
	"sort"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/flowbrave/copilot/internal/models"
	"github.com/flowbrave/copilot/internal/store"
)

const (
	// DefaultLimit is the result count when the caller passes none.
	DefaultLimit = 5

	exactTitleScore = 1.0
	tagMatchScore   = 0.8
	vectorWeight    = 0.6

	// relevanceThreshold lets high-similarity vector hits through the keyword
	// filter even without a title match.
	relevanceThreshold = 0.5
)

// RoleAdmin sees every tenant document; other roles only see documents they
// are assigned to.
const RoleAdmin = "admin"

// Embedder produces embedding vectors for query text.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Engine runs hybrid retrieval over the document store.
type Engine struct {
	store    store.DocumentStore
	embedder Embedder
	logger   *log.Logger
}

// New creates a search engine.
func New(docs store.DocumentStore, embedder Embedder, logger *log.Logger) *Engine {
	if logger == nil {
		logger = log.Default()
	}
	return &Engine{store: docs, embedder: embedder, logger: logger}
}

// Search runs the three retrieval tiers in priority order. Each tier only
// runs while fewer than limit results have accumulated, and a failing tier is
// skipped rather than failing the search.
func (e *Engine) Search(ctx context.Context, query, tenantID, userID, role string, limit int) ([]models.SearchResult, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}

	base := e.accessFilter(tenantID, userID, role)
	words := QueryWords(query)
	fullQuery := strings.ToLower(strings.TrimSpace(query))

	var results []models.SearchResult

	// The whole query counts as a title term alongside the individual words,
	// so a query of only short words still reaches this tier.
	if fullQuery != "" {
		titleFilter := base
		titleFilter.ExcludeChunks = true
		titleFilter.TitleAny = append([]string{fullQuery}, words...)
		docs, err := e.store.Find(ctx, titleFilter, limit)
		if err != nil {
			e.logger.Warn("exact title tier failed", "error", err)
		} else {
			for _, doc := range docs {
				results = append(results, toResult(doc, exactTitleScore, models.TierExactTitle))
			}
		}
	}

	if len(results) < limit && len(words) > 0 {
		tagFilter := base
		tagFilter.ExcludeChunks = true
		tagFilter.TagsAny = words
		docs, err := e.store.Find(ctx, tagFilter, limit)
		if err != nil {
			e.logger.Warn("tag tier failed", "error", err)
		} else {
			for _, doc := range docs {
				results = append(results, toResult(doc, tagMatchScore, models.TierTagMatch))
			}
		}
	}

	if len(results) < limit {
		vectorResults, err := e.vectorTier(ctx, query, base, limit)
		if err != nil {
			e.logger.Warn("vector tier failed", "error", err)
		} else {
			results = append(results, vectorResults...)
		}
	}

	results = dedupeByTitle(results)
	results = filterRelevant(results, words)
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].RelevanceScore > results[j].RelevanceScore
	})
	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// Fallback runs a broad literal match used when hybrid retrieval comes back
// empty: the first query word against title and content, all query words
// against tags.
func (e *Engine) Fallback(ctx context.Context, query, tenantID, userID, role string) ([]models.SearchResult, error) {
	words := QueryWords(query)
	keywords := words
	if len(keywords) == 0 {
		keywords = []string{strings.TrimSpace(query)}
	}

	f := e.accessFilter(tenantID, userID, role)
	f.ExcludeChunks = true
	f.Keywords = keywords

	docs, err := e.store.Find(ctx, f, 3)
	if err != nil {
		return nil, err
	}

	var results []models.SearchResult
	for _, doc := range docs {
		results = append(results, toResult(doc, relevanceThreshold, models.TierTagMatch))
	}
	return results, nil
}

func (e *Engine) vectorTier(ctx context.Context, query string, base store.Filter, limit int) ([]models.SearchResult, error) {
	vector, err := e.embedder.Embed(ctx, query)
	if err != nil {
		return nil, err
	}

	f := base
	f.ExcludeChunks = true
	f.HasEmbedding = true
	scored, err := e.store.VectorSearch(ctx, vector, f, limit*10, limit)
	if err != nil {
		return nil, err
	}

	var results []models.SearchResult
	for _, s := range scored {
		results = append(results, toResult(s.Document, s.Score*vectorWeight, models.TierVector))
	}
	return results, nil
}

func (e *Engine) accessFilter(tenantID, userID, role string) store.Filter {
	f := store.Filter{TenantID: tenantID}
	if role != RoleAdmin && userID != "" {
		f.AssignedEmail = userID
	}
	return f
}

// QueryWords lowercases the query and keeps words longer than two characters.
func QueryWords(query string) []string {
	var words []string
	for _, w := range strings.Fields(strings.ToLower(query)) {
		if len(w) > 2 {
			words = append(words, w)
		}
	}
	return words
}

func toResult(doc models.Document, score float64, tier string) models.SearchResult {
	return models.SearchResult{
		ID:             doc.ID,
		Title:          doc.Title,
		Content:        doc.Content,
		Tags:           doc.Tags,
		RelevanceScore: score,
		SearchTier:     tier,
		CreatedAt:      models.FormatCreatedAt(doc.CreatedAt),
	}
}

// dedupeByTitle drops later results whose normalized title was already seen.
// Tiers run in priority order, so the higher-priority hit survives.
func dedupeByTitle(results []models.SearchResult) []models.SearchResult {
	seen := make(map[string]bool, len(results))
	out := results[:0]
	for _, r := range results {
		key := strings.ToLower(strings.TrimSpace(r.Title))
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, r)
	}
	return out
}

// filterRelevant keeps results sharing a keyword with the query in their
// title or content, requiring a title match unless the score clears the
// relevance threshold. Tags deliberately do not count: a tag-only overlap is
// how the tag tier admits candidates, not evidence the document is relevant.
func filterRelevant(results []models.SearchResult, words []string) []models.SearchResult {
	if len(words) == 0 {
		return results
	}

	out := results[:0]
	for _, r := range results {
		title := strings.ToLower(r.Title)
		content := strings.ToLower(r.Content)

		hasTitleMatch := false
		hasKeywordMatch := false
		for _, w := range words {
			if strings.Contains(title, w) {
				hasTitleMatch = true
				hasKeywordMatch = true
				break
			}
			if strings.Contains(content, w) {
				hasKeywordMatch = true
			}
		}

		if hasKeywordMatch && (hasTitleMatch || r.RelevanceScore > relevanceThreshold) {
			out = append(out, r)
		}
	}
	return out
}

func tagContains(tags []string, word string) bool {
	for _, tag := range tags {
		if strings.Contains(strings.ToLower(tag), word) {
			return true
		}
	}
	return false
}
