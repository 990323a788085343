// ABOUTME: Advanced vector-first search with metadata filters and score boosting
package search

import (
	"context"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/flowbrave/copilot/internal/models"
)

const (
	// DefaultAdvancedLimit is the result count for advanced search.
	DefaultAdvancedLimit = 10
	// DefaultMinScore filters weak matches out of advanced results.
	DefaultMinScore = 0.7

	titleWordBoost = 0.15
	tagBoost       = 0.10
	recencyBoost   = 0.10
	recencyWindow  = 30 * 24 * time.Hour
)

var partSuffix = regexp.MustCompile(` \(Part \d+/\d+\)$`)

// DateRange bounds document creation time. Zero values are open-ended.
type DateRange struct {
	From time.Time `json:"from,omitempty"`
	To   time.Time `json:"to,omitempty"`
}

// AdvancedOptions tune an advanced search. Zero values take defaults.
type AdvancedOptions struct {
	Limit         int       `json:"limit,omitempty"`
	Tags          []string  `json:"tags,omitempty"`
	DateRange     DateRange `json:"dateRange,omitempty"`
	ContentType   string    `json:"contentType,omitempty"`
	MinScore      float64   `json:"minScore,omitempty"`
	IncludeChunks bool      `json:"includeChunks,omitempty"`
}

// AdvancedSearch runs vector similarity with metadata filters and boosts the
// raw score for title-word matches, tag matches, and recent documents.
func (e *Engine) AdvancedSearch(ctx context.Context, query, tenantID, userID, role string, opts AdvancedOptions) ([]models.SearchResult, error) {
	if opts.Limit <= 0 {
		opts.Limit = DefaultAdvancedLimit
	}
	if opts.MinScore <= 0 {
		opts.MinScore = DefaultMinScore
	}

	vector, err := e.embedder.Embed(ctx, query)
	if err != nil {
		return nil, err
	}

	f := e.accessFilter(tenantID, userID, role)
	f.HasEmbedding = true
	f.TagsAny = opts.Tags
	f.ContentType = opts.ContentType
	f.CreatedAfter = opts.DateRange.From
	f.CreatedBefore = opts.DateRange.To
	f.ExcludeChunks = !opts.IncludeChunks

	scored, err := e.store.VectorSearch(ctx, vector, f, opts.Limit*10, opts.Limit*3)
	if err != nil {
		return nil, err
	}

	words := QueryWords(query)
	now := time.Now()

	var results []models.SearchResult
	for _, s := range scored {
		// minScore cuts on the raw similarity; boosts reorder survivors but
		// cannot rescue a weak match.
		if s.Score < opts.MinScore {
			continue
		}
		r := toResult(s.Document, boostScore(s.Score, s.Document, words, now), models.TierVector)
		r.Title = partSuffix.ReplaceAllString(r.Title, "")
		results = append(results, r)
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].RelevanceScore > results[j].RelevanceScore
	})
	if len(results) > opts.Limit {
		results = results[:opts.Limit]
	}
	return results, nil
}

// boostScore multiplies the raw similarity by a factor per matched title
// word, per matched tag, and for recent documents. Boosted scores may exceed
// 1.0; they only rank results that already cleared minScore.
func boostScore(base float64, doc models.Document, words []string, now time.Time) float64 {
	score := base

	title := strings.ToLower(doc.Title)
	for _, w := range words {
		if strings.Contains(title, w) {
			score *= 1 + titleWordBoost
		}
	}
	for _, w := range words {
		if tagContains(doc.Tags, w) {
			score *= 1 + tagBoost
		}
	}
	if !doc.CreatedAt.IsZero() && now.Sub(doc.CreatedAt) < recencyWindow {
		score *= 1 + recencyBoost
	}
	return score
}
