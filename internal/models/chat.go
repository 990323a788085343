// ABOUTME: Chat request/response shapes produced and consumed by the engine
// ABOUTME: Matches the wire contract of the chat and streaming endpoints
package models

import "time"

// HistoryEntry is one prior turn of the conversation, as sent by the caller.
type HistoryEntry struct {
	IsUser  bool   `json:"isUser"`
	Message string `json:"message"`
}

// ChatRequest is the engine's inbound chat shape.
type ChatRequest struct {
	Query         string         `json:"query"`
	TenantID      string         `json:"tenantId"`
	UserID        string         `json:"userId"`
	Role          string         `json:"role"`
	History       []HistoryEntry `json:"history,omitempty"`
	UseGuidedMode bool           `json:"useGuidedMode,omitempty"`
	UseStreaming  bool           `json:"useStreaming,omitempty"`
}

// Source identifies a document used as answer context.
type Source struct {
	ID             string   `json:"id"`
	Title          string   `json:"title"`
	Content        string   `json:"content"`
	Tags           []string `json:"tags"`
	RelevanceScore float64  `json:"relevanceScore"`
}

// Progress summarizes guided-session position.
type Progress struct {
	CurrentStep        int `json:"currentStep"`
	TotalSteps         int `json:"totalSteps"`
	CompletedSteps     int `json:"completedSteps"`
	ProgressPercentage int `json:"progressPercentage"`
}

// ChatResponse is the engine's outbound chat shape.
type ChatResponse struct {
	Response      string       `json:"response"`
	Sources       []Source     `json:"sources"`
	GuidedMode    bool         `json:"guidedMode"`
	Progress      *Progress    `json:"progress,omitempty"`
	CurrentStep   *ProcessStep `json:"currentStep,omitempty"`
	ProcessTitle  string       `json:"processTitle,omitempty"`
	StepCompleted bool         `json:"stepCompleted,omitempty"`
	Completed     bool         `json:"completed,omitempty"`
}

// ChatTurn is a persisted chat-log entry.
type ChatTurn struct {
	ID        string    `json:"id"`
	TenantID  string    `json:"tenantId"`
	UserID    string    `json:"userId"`
	Type      string    `json:"type"` // "user" or "ai"
	Message   string    `json:"message"`
	Sources   []Source  `json:"sources,omitempty"`
	Streaming bool      `json:"streaming,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}
