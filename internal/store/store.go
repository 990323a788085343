// ABOUTME: Document store collaborator interface, filters, and shared matching
// ABOUTME: Backed by SQLite in production and an in-memory store in tests
package store

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/flowbrave/copilot/internal/models"
)

// ErrNotFound is returned when no document matches a FindOne filter.
var ErrNotFound = errors.New("document not found")

// Filter narrows document queries. Zero-valued fields are ignored. All set
// fields must match; Keywords is the one OR-group, matching title, content,
// or tags. Search must never cross tenant boundaries, so callers always set
// TenantID.
type Filter struct {
	TenantID      string
	ID            string
	ParentID      string
	ExcludeChunks bool
	HasEmbedding  bool

	// AssignedEmail restricts results to documents listing this email in
	// assignedTo. Used for non-privileged roles.
	AssignedEmail string

	// TitleAny matches when the title contains any term, case-insensitively.
	TitleAny []string
	// TagsAny matches when any tag equals any term.
	TagsAny []string
	// Keywords matches when title, content, or any tag contains any term.
	Keywords []string

	ContentType    string
	NotContentType string
	CreatedAfter   time.Time
	CreatedBefore  time.Time
}

// Matches reports whether doc satisfies the filter. Implementations share
// this so SQL pre-filtering and in-memory filtering agree.
func (f Filter) Matches(doc models.Document) bool {
	if f.TenantID != "" && doc.TenantID != f.TenantID {
		return false
	}
	if f.ID != "" && doc.ID != f.ID {
		return false
	}
	if f.ParentID != "" && doc.ParentID != f.ParentID {
		return false
	}
	if f.ExcludeChunks && doc.IsChunk {
		return false
	}
	if f.HasEmbedding && len(doc.Embedding) == 0 {
		return false
	}
	if f.AssignedEmail != "" && !assignedTo(doc, f.AssignedEmail) {
		return false
	}
	if f.ContentType != "" && doc.ContentType != f.ContentType {
		return false
	}
	if f.NotContentType != "" && doc.ContentType == f.NotContentType {
		return false
	}
	if !f.CreatedAfter.IsZero() && doc.CreatedAt.Before(f.CreatedAfter) {
		return false
	}
	if !f.CreatedBefore.IsZero() && doc.CreatedAt.After(f.CreatedBefore) {
		return false
	}

	if len(f.TitleAny) > 0 && !containsAny(doc.Title, f.TitleAny) {
		return false
	}
	if len(f.TagsAny) > 0 && !tagsIntersect(doc.Tags, f.TagsAny) {
		return false
	}
	if len(f.Keywords) > 0 {
		if !containsAny(doc.Title, f.Keywords) &&
			!containsAny(doc.Content, f.Keywords) &&
			!tagsContainAny(doc.Tags, f.Keywords) {
			return false
		}
	}
	return true
}

// ScoredDocument is a document with a similarity score in [0, 1].
type ScoredDocument struct {
	models.Document
	Score float64
}

// DocumentStore is the persistence collaborator consumed by the core.
type DocumentStore interface {
	Find(ctx context.Context, f Filter, limit int) ([]models.Document, error)
	FindOne(ctx context.Context, f Filter) (models.Document, error)
	Insert(ctx context.Context, doc models.Document) (models.Document, error)
	Update(ctx context.Context, id string, doc models.Document, upsert bool) error
	Delete(ctx context.Context, f Filter) (int, error)

	// VectorSearch runs approximate nearest-neighbor similarity over document
	// embeddings, restricted by f, considering up to candidateCount documents
	// and returning the top limit.
	VectorSearch(ctx context.Context, queryVector []float32, f Filter, candidateCount, limit int) ([]ScoredDocument, error)
}

// ChatLog persists conversation turns.
type ChatLog interface {
	AppendTurn(ctx context.Context, turn models.ChatTurn) error
	Turns(ctx context.Context, tenantID, userID string, limit int) ([]models.ChatTurn, error)
}

func assignedTo(doc models.Document, email string) bool {
	for _, a := range doc.AssignedTo {
		if strings.EqualFold(a.Email, email) {
			return true
		}
	}
	return false
}

func containsAny(s string, terms []string) bool {
	lower := strings.ToLower(s)
	for _, term := range terms {
		if term != "" && strings.Contains(lower, strings.ToLower(term)) {
			return true
		}
	}
	return false
}

func tagsIntersect(tags, terms []string) bool {
	for _, tag := range tags {
		for _, term := range terms {
			if strings.EqualFold(tag, term) {
				return true
			}
		}
	}
	return false
}

func tagsContainAny(tags, terms []string) bool {
	for _, tag := range tags {
		if containsAny(tag, terms) {
			return true
		}
	}
	return false
}
