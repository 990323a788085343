// ABOUTME: Document indexing pipeline: strip, chunk, embed, persist
// ABOUTME: Short documents embed whole; long ones become a parent plus embedded chunks
package indexer

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/flowbrave/copilot/internal/chunker"
	"github.com/flowbrave/copilot/internal/models"
	"github.com/flowbrave/copilot/internal/store"
	"github.com/flowbrave/copilot/internal/textutil"
)

// DefaultMaxChunkSize is the chunk size used when indexing documents.
const DefaultMaxChunkSize = 4000

// Embedder produces embedding vectors for text.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Indexer writes documents and their chunk embeddings to the store.
type Indexer struct {
	store    store.DocumentStore
	embedder Embedder
	chunker  *chunker.Chunker
	logger   *log.Logger
}

// New creates an indexer over the given store and embedder.
func New(docs store.DocumentStore, embedder Embedder, logger *log.Logger) *Indexer {
	if logger == nil {
		logger = log.Default()
	}
	return &Indexer{
		store:    docs,
		embedder: embedder,
		chunker:  chunker.New(DefaultMaxChunkSize),
		logger:   logger,
	}
}

// Index persists doc with embeddings. When the plain-text content fits a
// single chunk, the document itself is embedded and upserted. Otherwise the
// document becomes an embedding-less parent, any chunks from a previous
// version are removed, and each new chunk is stored with its own embedding.
func (ix *Indexer) Index(ctx context.Context, doc models.Document) (models.Document, error) {
	if doc.Title == "" {
		return models.Document{}, fmt.Errorf("indexing document: title is required")
	}
	if doc.TenantID == "" {
		return models.Document{}, fmt.Errorf("indexing document: tenant id is required")
	}

	// Chunking decisions and chunk contents work on plain text; markup inflates
	// length and leaves broken fragments mid-tag.
	chunks := ix.chunker.Chunk(textutil.StripHTML(doc.Content))

	if len(chunks) <= 1 {
		vector, err := ix.embedder.Embed(ctx, doc.Content)
		if err != nil {
			return models.Document{}, fmt.Errorf("embedding %q: %w", doc.Title, err)
		}
		doc.Embedding = vector
		doc.IsChunk = false
		doc.ChunkCount = 0
		return ix.upsert(ctx, doc)
	}

	ix.logger.Info("chunking document", "title", doc.Title, "chunks", len(chunks))

	// Remove chunks from any previous version before writing the new set.
	if doc.ID != "" {
		if _, err := ix.store.Delete(ctx, store.Filter{TenantID: doc.TenantID, ParentID: doc.ID}); err != nil {
			return models.Document{}, fmt.Errorf("removing stale chunks of %q: %w", doc.Title, err)
		}
	}

	doc.Embedding = nil
	doc.IsChunk = false
	doc.ChunkCount = len(chunks)
	parent, err := ix.upsert(ctx, doc)
	if err != nil {
		return models.Document{}, err
	}

	for i, text := range chunks {
		vector, err := ix.embedder.Embed(ctx, text)
		if err != nil {
			return models.Document{}, fmt.Errorf("embedding chunk %d of %q: %w", i+1, doc.Title, err)
		}
		chunk := models.Document{
			Title:      fmt.Sprintf("%s (Part %d/%d)", parent.Title, i+1, len(chunks)),
			Content:    text,
			Tags:       parent.Tags,
			TenantID:   parent.TenantID,
			AssignedTo: parent.AssignedTo,
			Embedding:  vector,
			IsChunk:    true,
			ParentID:   parent.ID,
			ChunkIndex: i,
		}
		if _, err := ix.store.Insert(ctx, chunk); err != nil {
			return models.Document{}, fmt.Errorf("storing chunk %d of %q: %w", i+1, doc.Title, err)
		}
	}
	return parent, nil
}

// Remove deletes a document and its chunks.
func (ix *Indexer) Remove(ctx context.Context, tenantID, id string) error {
	if _, err := ix.store.Delete(ctx, store.Filter{TenantID: tenantID, ParentID: id}); err != nil {
		return fmt.Errorf("removing chunks: %w", err)
	}
	n, err := ix.store.Delete(ctx, store.Filter{TenantID: tenantID, ID: id})
	if err != nil {
		return fmt.Errorf("removing document: %w", err)
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (ix *Indexer) upsert(ctx context.Context, doc models.Document) (models.Document, error) {
	if doc.ID == "" {
		inserted, err := ix.store.Insert(ctx, doc)
		if err != nil {
			return models.Document{}, fmt.Errorf("storing %q: %w", doc.Title, err)
		}
		return inserted, nil
	}
	if err := ix.store.Update(ctx, doc.ID, doc, true); err != nil {
		return models.Document{}, fmt.Errorf("storing %q: %w", doc.Title, err)
	}
	return doc, nil
}
