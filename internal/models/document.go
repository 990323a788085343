// ABOUTME: Document and search result structures for the process-document store
// ABOUTME: A document is either a standalone embeddable unit or a parent with child chunks
package models

import "time"

// Search tiers, in priority order.
const (
	TierExactTitle = "exact_title"
	TierTagMatch   = "tag_match"
	TierVector     = "vector"
)

// Assignee is a user granted access to a document.
type Assignee struct {
	Email string `json:"email"`
	Role  string `json:"role"`
}

// Document is a stored process document or one of its chunks.
// A parent with chunks carries ChunkCount and no embedding; a chunk carries
// its own embedding over a fragment of the parent's plain-text content.
type Document struct {
	ID         string     `json:"id"`
	Title      string     `json:"title"`
	Content    string     `json:"content"`
	Tags       []string   `json:"tags,omitempty"`
	TenantID   string     `json:"tenantId"`
	AssignedTo []Assignee `json:"assignedTo,omitempty"`
	Version    int        `json:"version,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`

	Embedding []float32 `json:"embedding,omitempty"`

	IsChunk    bool   `json:"isChunk,omitempty"`
	ParentID   string `json:"parentId,omitempty"`
	ChunkIndex int    `json:"chunkIndex,omitempty"`
	ChunkCount int    `json:"chunkCount,omitempty"`

	ContentType string `json:"contentType,omitempty"`
}

// SearchResult is a transient, scored view of a document. Never persisted.
type SearchResult struct {
	ID             string   `json:"id"`
	Title          string   `json:"title"`
	Content        string   `json:"content"`
	Tags           []string `json:"tags"`
	RelevanceScore float64  `json:"relevanceScore"`
	SearchTier     string   `json:"searchTier"`
	CreatedAt      string   `json:"createdAt"`
}

// FormatCreatedAt renders a document timestamp the way search results expose it.
func FormatCreatedAt(t time.Time) string {
	return t.Format("2 January 2006")
}
