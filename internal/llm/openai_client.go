// ABOUTME: OpenAI-backed embedding and completion providers
// ABOUTME: Uses text-embedding-3-small for embeddings and a configurable chat model
package llm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

const (
	// DefaultChatModel is the default model for chat completions.
	DefaultChatModel = "gpt-4o-mini"
	// DefaultEmbeddingModel is the default model for embeddings.
	DefaultEmbeddingModel = string(openai.SmallEmbedding3)
	// DefaultTimeout bounds a single provider call.
	DefaultTimeout = 30 * time.Second
)

// ClientConfig holds configuration for the OpenAI client.
type ClientConfig struct {
	APIKey         string
	ChatModel      string
	EmbeddingModel string
	Temperature    float32
	MaxTokens      int
	Timeout        time.Duration
	Retry          RetryPolicy
}

// DefaultConfig returns the default client configuration.
func DefaultConfig(apiKey string) ClientConfig {
	return ClientConfig{
		APIKey:         apiKey,
		ChatModel:      DefaultChatModel,
		EmbeddingModel: DefaultEmbeddingModel,
		Temperature:    0.7,
		MaxTokens:      1000,
		Timeout:        DefaultTimeout,
	}
}

// Client implements EmbeddingProvider and CompletionProvider against OpenAI.
type Client struct {
	client         *openai.Client
	chatModel      string
	embeddingModel string
	temperature    float32
	maxTokens      int
	timeout        time.Duration
	retry          RetryPolicy
}

// NewClient creates an OpenAI client from config.
func NewClient(config ClientConfig) (*Client, error) {
	if config.APIKey == "" {
		return nil, errors.New("OpenAI API key is required")
	}
	if config.ChatModel == "" {
		config.ChatModel = DefaultChatModel
	}
	if config.EmbeddingModel == "" {
		config.EmbeddingModel = DefaultEmbeddingModel
	}
	if config.Timeout <= 0 {
		config.Timeout = DefaultTimeout
	}

	return &Client{
		client:         openai.NewClient(config.APIKey),
		chatModel:      config.ChatModel,
		embeddingModel: config.EmbeddingModel,
		temperature:    config.Temperature,
		maxTokens:      config.MaxTokens,
		timeout:        config.Timeout,
		retry:          config.Retry,
	}, nil
}

// Embed generates an embedding vector for text.
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	var vector []float32

	err := c.retry.Do(ctx, func() error {
		callCtx, cancel := context.WithTimeout(ctx, c.timeout)
		defer cancel()

		resp, err := c.client.CreateEmbeddings(callCtx, openai.EmbeddingRequestStrings{
			Input: []string{text},
			Model: openai.EmbeddingModel(c.embeddingModel),
		})
		if err != nil {
			return err
		}
		if len(resp.Data) == 0 {
			return errors.New("no embeddings returned")
		}
		vector = resp.Data[0].Embedding
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("generating embedding: %w", err)
	}
	return vector, nil
}

// Complete runs a single chat completion and returns the generated text.
func (c *Client) Complete(ctx context.Context, systemPrompt string, messages []Message) (string, error) {
	var text string

	err := c.retry.Do(ctx, func() error {
		callCtx, cancel := context.WithTimeout(ctx, c.timeout)
		defer cancel()

		resp, err := c.client.CreateChatCompletion(callCtx, c.chatRequest(systemPrompt, messages, false))
		if err != nil {
			return err
		}
		if len(resp.Choices) == 0 {
			return errors.New("no completion choices returned")
		}
		text = resp.Choices[0].Message.Content
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	return text, nil
}

// CompleteStream starts a streaming chat completion. The caller owns the
// stream lifetime; cancelling ctx aborts it.
func (c *Client) CompleteStream(ctx context.Context, systemPrompt string, messages []Message) (CompletionStream, error) {
	stream, err := c.client.CreateChatCompletionStream(ctx, c.chatRequest(systemPrompt, messages, true))
	if err != nil {
		return nil, fmt.Errorf("starting completion stream: %w", err)
	}
	return &openaiStream{stream: stream}, nil
}

func (c *Client) chatRequest(systemPrompt string, messages []Message, stream bool) openai.ChatCompletionRequest {
	chatMessages := make([]openai.ChatCompletionMessage, 0, len(messages)+1)
	chatMessages = append(chatMessages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleSystem,
		Content: systemPrompt,
	})
	for _, m := range messages {
		role := openai.ChatMessageRoleUser
		if m.Role == RoleAssistant {
			role = openai.ChatMessageRoleAssistant
		}
		chatMessages = append(chatMessages, openai.ChatCompletionMessage{Role: role, Content: m.Content})
	}

	return openai.ChatCompletionRequest{
		Model:       c.chatModel,
		Messages:    chatMessages,
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
		Stream:      stream,
	}
}

type openaiStream struct {
	stream *openai.ChatCompletionStream
}

func (s *openaiStream) Recv() (string, bool, error) {
	resp, err := s.stream.Recv()
	if errors.Is(err, io.EOF) {
		return "", true, nil
	}
	if err != nil {
		return "", false, err
	}
	if len(resp.Choices) == 0 {
		return "", false, nil
	}
	return resp.Choices[0].Delta.Content, false, nil
}

func (s *openaiStream) Close() error {
	return s.stream.Close()
}
