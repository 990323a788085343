// ABOUTME: In-memory DocumentStore and ChatLog used in tests and local runs
// ABOUTME: Mirrors the SQLite store's semantics including cosine vector search
package store

import (
	"context"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/flowbrave/copilot/internal/models"
)

// MemStore keeps documents and chat turns in memory. Safe for concurrent use.
type MemStore struct {
	mu    sync.RWMutex
	docs  map[string]models.Document
	order []string
	turns []models.ChatTurn
}

// NewMemStore creates an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{docs: make(map[string]models.Document)}
}

// Find returns up to limit documents matching f, in insertion order.
// limit <= 0 means no limit.
func (s *MemStore) Find(_ context.Context, f Filter, limit int) ([]models.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.Document
	for _, id := range s.order {
		doc, ok := s.docs[id]
		if !ok || !f.Matches(doc) {
			continue
		}
		out = append(out, doc)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

// FindOne returns the first document matching f.
func (s *MemStore) FindOne(ctx context.Context, f Filter) (models.Document, error) {
	docs, err := s.Find(ctx, f, 1)
	if err != nil {
		return models.Document{}, err
	}
	if len(docs) == 0 {
		return models.Document{}, ErrNotFound
	}
	return docs[0], nil
}

// Insert stores a new document, assigning an id when absent.
func (s *MemStore) Insert(_ context.Context, doc models.Document) (models.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if doc.ID == "" {
		doc.ID = uuid.New().String()
	}
	if _, exists := s.docs[doc.ID]; !exists {
		s.order = append(s.order, doc.ID)
	}
	s.docs[doc.ID] = doc
	return doc, nil
}

// Update replaces the document with the given id. With upsert, a missing
// document is inserted instead.
func (s *MemStore) Update(_ context.Context, id string, doc models.Document, upsert bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.docs[id]; !exists {
		if !upsert {
			return ErrNotFound
		}
		s.order = append(s.order, id)
	}
	doc.ID = id
	s.docs[id] = doc
	return nil
}

// Delete removes all documents matching f and returns the count.
func (s *MemStore) Delete(_ context.Context, f Filter) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	deleted := 0
	kept := s.order[:0]
	for _, id := range s.order {
		doc := s.docs[id]
		if f.Matches(doc) {
			delete(s.docs, id)
			deleted++
			continue
		}
		kept = append(kept, id)
	}
	s.order = kept
	return deleted, nil
}

// VectorSearch ranks embedded documents matching f by cosine similarity to
// queryVector, normalized to [0, 1].
func (s *MemStore) VectorSearch(_ context.Context, queryVector []float32, f Filter, candidateCount, limit int) ([]ScoredDocument, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var scored []ScoredDocument
	for _, id := range s.order {
		doc, ok := s.docs[id]
		if !ok || len(doc.Embedding) == 0 || !f.Matches(doc) {
			continue
		}
		scored = append(scored, ScoredDocument{
			Document: doc,
			Score:    CosineScore(queryVector, doc.Embedding),
		})
		if candidateCount > 0 && len(scored) >= candidateCount {
			break
		}
	}

	sort.Slice(scored, func(i, j int) bool { return scored[i].Score > scored[j].Score })
	if limit > 0 && len(scored) > limit {
		scored = scored[:limit]
	}
	return scored, nil
}

// AppendTurn records a chat turn.
func (s *MemStore) AppendTurn(_ context.Context, turn models.ChatTurn) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if turn.ID == "" {
		turn.ID = uuid.New().String()
	}
	if turn.CreatedAt.IsZero() {
		turn.CreatedAt = time.Now()
	}
	s.turns = append(s.turns, turn)
	return nil
}

// Turns returns the most recent chat turns for a tenant/user pair.
func (s *MemStore) Turns(_ context.Context, tenantID, userID string, limit int) ([]models.ChatTurn, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.ChatTurn
	for _, turn := range s.turns {
		if turn.TenantID == tenantID && turn.UserID == userID {
			out = append(out, turn)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

// CosineScore computes cosine similarity between two vectors, mapped from
// [-1, 1] into [0, 1] so scores compose with the tier weighting.
func CosineScore(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		av, bv := float64(a[i]), float64(b[i])
		dot += av * bv
		normA += av * av
		normB += bv * bv
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	cos := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	return (cos + 1) / 2
}
