// ABOUTME: Process-intent detection: keyword screen, cached LLM classification,
// ABOUTME: and fuzzy matching of the named process against stored documents
package guided

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/flowbrave/copilot/internal/cache"
	"github.com/flowbrave/copilot/internal/llm"
	"github.com/flowbrave/copilot/internal/models"
	"github.com/flowbrave/copilot/internal/store"
)

const (
	// DefaultIntentCacheTTL is how long a classification result stays fresh.
	DefaultIntentCacheTTL = 5 * time.Minute

	// matchConfidence is the floor for trusting the classified title.
	matchConfidence = 0.7
	// fallbackConfidence is the floor for falling back to the first document
	// when the classified title matches nothing.
	fallbackConfidence = 0.8
)

// processKeywords screens messages before any model call. English and French.
var processKeywords = []string{
	"how to", "guide me", "help me", "steps for", "process for",
	"comment faire", "guide-moi", "aide-moi", "étapes pour", "processus pour",
	"walk me through", "show me how", "explain how",
	"guide", "help", "assist", "support", "tutorial", "procedure",
	"process", "workflow", "steps", "instructions", "manual",
	"aide", "assistance", "tutoriel", "procédure",
	"processus", "étapes", "manuel",
	"can you", "could you", "would you", "peux-tu", "pourrais-tu",
	"i need", "i want", "j'ai besoin", "je veux", "je souhaite",
}

// Detection is the outcome of intent analysis. When IsProcessRequest is true,
// Document is the process document to guide the user through.
type Detection struct {
	IsProcessRequest bool
	Document         models.Document
	Confidence       float64
}

type classification struct {
	IsProcessRequest bool    `json:"isProcessRequest"`
	SopTitle         string  `json:"sopTitle"`
	Confidence       float64 `json:"confidence"`
}

// Detector decides whether a message asks for guided process execution.
type Detector struct {
	store      store.DocumentStore
	completion llm.CompletionProvider
	cache      *cache.Cache[Detection]
	logger     *log.Logger
}

// NewDetector creates a detector with the default cache TTL.
func NewDetector(docs store.DocumentStore, completion llm.CompletionProvider, logger *log.Logger) *Detector {
	if logger == nil {
		logger = log.Default()
	}
	return &Detector{
		store:      docs,
		completion: completion,
		cache:      cache.New[Detection](DefaultIntentCacheTTL, 0),
		logger:     logger,
	}
}

// Detect classifies the message. Detection failures are absorbed: any error
// along the way yields a negative result so chat can proceed normally.
func (d *Detector) Detect(ctx context.Context, message, tenantID string) Detection {
	cacheKey := strings.ToLower(strings.TrimSpace(message)) + "_" + tenantID
	if cached, ok := d.cache.Get(cacheKey); ok {
		return cached
	}

	docs, err := d.store.Find(ctx, store.Filter{
		TenantID:       tenantID,
		ExcludeChunks:  true,
		NotContentType: "flow",
	}, 0)
	if err != nil {
		d.logger.Warn("intent detection: listing documents failed", "error", err)
		return Detection{}
	}
	if len(docs) == 0 {
		return d.remember(cacheKey, Detection{})
	}

	if !hasProcessKeywords(message) {
		return d.remember(cacheKey, Detection{})
	}

	result, err := d.classify(ctx, message, docs)
	if err != nil {
		d.logger.Warn("intent classification failed", "error", err)
		return Detection{}
	}
	return d.remember(cacheKey, result)
}

func (d *Detector) classify(ctx context.Context, message string, docs []models.Document) (Detection, error) {
	var titles []string
	for _, doc := range docs {
		titles = append(titles, "- "+doc.Title)
	}
	prompt := fmt.Sprintf(detectionPromptTemplate, message, strings.Join(titles, "\n"))

	raw, err := d.completion.Complete(ctx, prompt, []llm.Message{{Role: llm.RoleUser, Content: message}})
	if err != nil {
		return Detection{}, err
	}

	var parsed classification
	if err := json.Unmarshal([]byte(extractJSON(raw)), &parsed); err != nil {
		return Detection{}, fmt.Errorf("parsing classification: %w", err)
	}

	if !parsed.IsProcessRequest || parsed.Confidence <= matchConfidence {
		return Detection{}, nil
	}

	named := strings.ToLower(parsed.SopTitle)
	for _, doc := range docs {
		title := strings.ToLower(doc.Title)
		if strings.Contains(title, named) || strings.Contains(named, title) {
			return Detection{IsProcessRequest: true, Document: doc, Confidence: parsed.Confidence}, nil
		}
	}

	// The model named a process that matches nothing; with very high
	// confidence, guide through the first document anyway.
	if parsed.Confidence > fallbackConfidence {
		return Detection{IsProcessRequest: true, Document: docs[0], Confidence: parsed.Confidence}, nil
	}
	return Detection{}, nil
}

func (d *Detector) remember(key string, result Detection) Detection {
	d.cache.Set(key, result)
	return result
}

// ClearCache drops cached classifications. Intended for tests.
func (d *Detector) ClearCache() {
	d.cache.Clear()
}

func hasProcessKeywords(message string) bool {
	lower := strings.ToLower(message)
	for _, keyword := range processKeywords {
		if strings.Contains(lower, keyword) {
			return true
		}
	}
	return false
}

// extractJSON strips code fences and returns the outermost brace-delimited
// object, tolerating prose around the model's JSON.
func extractJSON(raw string) string {
	content := strings.TrimSpace(raw)
	content = strings.ReplaceAll(content, "```json", "")
	content = strings.ReplaceAll(content, "```", "")
	content = strings.ReplaceAll(content, "`", "")

	first := strings.Index(content, "{")
	last := strings.LastIndex(content, "}")
	if first != -1 && last > first {
		content = content[first : last+1]
	}
	return content
}
