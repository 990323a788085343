// ABOUTME: Grounded answer generation over retrieved documents, sync and streaming
// ABOUTME: Empty retrieval triggers a broad literal fallback before giving up
package chat

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/flowbrave/copilot/internal/llm"
	"github.com/flowbrave/copilot/internal/models"
)

const (
	// DefaultMaxHistory is how many prior turns reach the model.
	DefaultMaxHistory = 7

	// sourcePreviewLength truncates source content in responses.
	sourcePreviewLength = 150
)

// OutOfScopeMessage is the fixed reply for questions the context cannot answer.
const OutOfScopeMessage = `I'm sorry, this question falls outside the scope of the current process documents. Please consider rephrasing your request.`

const systemPromptTemplate = `# Role
You are a copilot, an expert assistant specialized in business process documentation. You help users navigate and execute business processes with clarity and confidence.

# Context Understanding
- Always consider the conversation history when responding
- If the user asks follow-up questions like "I don't understand" or "Can you explain more", refer to the previous context
- Maintain conversation continuity and build upon previous exchanges
- If the user seems confused, clarify based on what was discussed before

# Your task:
- Understand user intent and provide relevant process information
- Use ONLY information from the provided context documents
- If context is empty or no relevant information found, respond: "` + OutOfScopeMessage + `"
- Structure responses clearly with paragraphs or bullet points
- Do not use formatting, emojis, or markdown
- If context is empty, explain that no relevant documents were found and suggest creating one

IMPORTANT: If the context documents section is empty or contains no relevant information, you must respond with the fallback message.

# Available Process Documentation
%s`

// Retriever is the search collaborator the answerer depends on.
type Retriever interface {
	Search(ctx context.Context, query, tenantID, userID, role string, limit int) ([]models.SearchResult, error)
	Fallback(ctx context.Context, query, tenantID, userID, role string) ([]models.SearchResult, error)
}

// StreamingAnswer exposes the token stream and the sources resolved before
// streaming began. The caller relays tokens and persists the final text.
type StreamingAnswer struct {
	Stream  llm.CompletionStream
	Sources []models.Source
}

// Answerer generates grounded responses from retrieved context.
type Answerer struct {
	retriever  Retriever
	completion llm.CompletionProvider
	maxHistory int
	logger     *log.Logger
}

// New creates an answerer with the default history window.
func New(retriever Retriever, completion llm.CompletionProvider, logger *log.Logger) *Answerer {
	if logger == nil {
		logger = log.Default()
	}
	return &Answerer{
		retriever:  retriever,
		completion: completion,
		maxHistory: DefaultMaxHistory,
		logger:     logger,
	}
}

// SetMaxHistory overrides the history window. Values <= 0 are ignored.
func (a *Answerer) SetMaxHistory(n int) {
	if n > 0 {
		a.maxHistory = n
	}
}

// Answer retrieves context for the query and generates a grounded response.
func (a *Answerer) Answer(ctx context.Context, req models.ChatRequest) (models.ChatResponse, error) {
	results, sources := a.retrieve(ctx, req)

	text, err := a.completion.Complete(ctx, a.systemPrompt(results), a.messages(req))
	if err != nil {
		return models.ChatResponse{}, fmt.Errorf("generating answer: %w", err)
	}

	return models.ChatResponse{Response: text, Sources: sources}, nil
}

// AnswerStream is the streaming variant of Answer. The caller owns the
// returned stream and must close it.
func (a *Answerer) AnswerStream(ctx context.Context, req models.ChatRequest) (*StreamingAnswer, error) {
	results, sources := a.retrieve(ctx, req)

	stream, err := a.completion.CompleteStream(ctx, a.systemPrompt(results), a.messages(req))
	if err != nil {
		return nil, fmt.Errorf("starting answer stream: %w", err)
	}

	return &StreamingAnswer{Stream: stream, Sources: sources}, nil
}

// retrieve runs hybrid search, widening to the literal fallback when empty.
// Fallback documents feed the prompt context but are not reported as sources.
func (a *Answerer) retrieve(ctx context.Context, req models.ChatRequest) ([]models.SearchResult, []models.Source) {
	results, err := a.retriever.Search(ctx, req.Query, req.TenantID, req.UserID, req.Role, 0)
	if err != nil {
		a.logger.Warn("retrieval failed", "error", err)
		results = nil
	}

	if len(results) > 0 {
		return results, buildSources(results)
	}

	fallback, err := a.retriever.Fallback(ctx, req.Query, req.TenantID, req.UserID, req.Role)
	if err != nil {
		a.logger.Warn("fallback retrieval failed", "error", err)
		return nil, nil
	}
	return fallback, nil
}

func (a *Answerer) systemPrompt(results []models.SearchResult) string {
	var blocks []string
	for _, r := range results {
		blocks = append(blocks, fmt.Sprintf("Title: %s\nContent: %s", r.Title, r.Content))
	}
	return fmt.Sprintf(systemPromptTemplate, strings.Join(blocks, "\n\n"))
}

func (a *Answerer) messages(req models.ChatRequest) []llm.Message {
	history := req.History
	if len(history) > a.maxHistory {
		history = history[len(history)-a.maxHistory:]
	}

	messages := make([]llm.Message, 0, len(history)+1)
	for _, entry := range history {
		role := llm.RoleAssistant
		if entry.IsUser {
			role = llm.RoleUser
		}
		messages = append(messages, llm.Message{Role: role, Content: entry.Message})
	}
	return append(messages, llm.Message{Role: llm.RoleUser, Content: req.Query})
}

func buildSources(results []models.SearchResult) []models.Source {
	sources := make([]models.Source, 0, len(results))
	for _, r := range results {
		content := r.Content
		if len(content) > sourcePreviewLength {
			content = content[:sourcePreviewLength]
		}
		tags := r.Tags
		if tags == nil {
			tags = []string{}
		}
		sources = append(sources, models.Source{
			ID:             r.ID,
			Title:          r.Title,
			Content:        content,
			Tags:           tags,
			RelevanceScore: r.RelevanceScore,
		})
	}
	return sources
}
