// ABOUTME: Provider interfaces for embeddings and chat completions
// ABOUTME: Implementations wrap external services; tests substitute deterministic fakes
package llm

import "context"

// Message roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one conversational turn sent to the completion provider.
type Message struct {
	Role    string
	Content string
}

// EmbeddingProvider converts text to a fixed-length vector.
type EmbeddingProvider interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// CompletionProvider generates text from a system prompt plus messages.
type CompletionProvider interface {
	Complete(ctx context.Context, systemPrompt string, messages []Message) (string, error)
	CompleteStream(ctx context.Context, systemPrompt string, messages []Message) (CompletionStream, error)
}

// CompletionStream yields incremental text tokens. Recv returns done=true
// after the final token; Close releases the underlying request.
type CompletionStream interface {
	Recv() (delta string, done bool, err error)
	Close() error
}
