// ABOUTME: SQLite-backed DocumentStore and ChatLog
// ABOUTME: SQL narrows by tenant and parent; the shared filter matcher does the rest
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/flowbrave/copilot/internal/models"
	"github.com/flowbrave/copilot/internal/store"
)

// Store implements store.DocumentStore and store.ChatLog over SQLite.
type Store struct {
	db *DB
}

// NewStore wraps an open database.
func NewStore(db *DB) *Store {
	return &Store{db: db}
}

const documentColumns = `id, title, content, tags, tenant_id, assigned_to, version,
	created_at, updated_at, embedding, is_chunk, parent_id, chunk_index, chunk_count, content_type`

// Find returns up to limit documents matching f, in insertion order.
func (s *Store) Find(ctx context.Context, f store.Filter, limit int) ([]models.Document, error) {
	rows, err := s.queryCandidates(ctx, f)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		if !f.Matches(doc) {
			continue
		}
		out = append(out, doc)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, rows.Err()
}

// FindOne returns the first document matching f.
func (s *Store) FindOne(ctx context.Context, f store.Filter) (models.Document, error) {
	docs, err := s.Find(ctx, f, 1)
	if err != nil {
		return models.Document{}, err
	}
	if len(docs) == 0 {
		return models.Document{}, store.ErrNotFound
	}
	return docs[0], nil
}

// Insert stores a new document, assigning an id when absent.
func (s *Store) Insert(ctx context.Context, doc models.Document) (models.Document, error) {
	if doc.ID == "" {
		doc.ID = uuid.New().String()
	}
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now()
	}
	if doc.UpdatedAt.IsZero() {
		doc.UpdatedAt = doc.CreatedAt
	}

	tags, assigned, embedding, err := encodeDocumentFields(doc)
	if err != nil {
		return models.Document{}, err
	}

	_, err = s.db.conn.ExecContext(ctx, `
		INSERT INTO documents (`+documentColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		doc.ID, doc.Title, doc.Content, tags, doc.TenantID, assigned, doc.Version,
		doc.CreatedAt, doc.UpdatedAt, embedding, doc.IsChunk, doc.ParentID,
		doc.ChunkIndex, doc.ChunkCount, doc.ContentType)
	if err != nil {
		return models.Document{}, fmt.Errorf("inserting document: %w", err)
	}
	return doc, nil
}

// Update replaces the document with the given id. With upsert, a missing
// document is inserted instead.
func (s *Store) Update(ctx context.Context, id string, doc models.Document, upsert bool) error {
	doc.ID = id
	if doc.UpdatedAt.IsZero() {
		doc.UpdatedAt = time.Now()
	}

	tags, assigned, embedding, err := encodeDocumentFields(doc)
	if err != nil {
		return err
	}

	res, err := s.db.conn.ExecContext(ctx, `
		UPDATE documents SET title = ?, content = ?, tags = ?, tenant_id = ?,
			assigned_to = ?, version = ?, updated_at = ?, embedding = ?,
			is_chunk = ?, parent_id = ?, chunk_index = ?, chunk_count = ?, content_type = ?
		WHERE id = ?`,
		doc.Title, doc.Content, tags, doc.TenantID, assigned, doc.Version,
		doc.UpdatedAt, embedding, doc.IsChunk, doc.ParentID, doc.ChunkIndex,
		doc.ChunkCount, doc.ContentType, id)
	if err != nil {
		return fmt.Errorf("updating document: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		if !upsert {
			return store.ErrNotFound
		}
		_, err = s.Insert(ctx, doc)
		return err
	}
	return nil
}

// Delete removes all documents matching f and returns the count.
func (s *Store) Delete(ctx context.Context, f store.Filter) (int, error) {
	rows, err := s.queryCandidates(ctx, f)
	if err != nil {
		return 0, err
	}

	var ids []string
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			rows.Close()
			return 0, err
		}
		if f.Matches(doc) {
			ids = append(ids, doc.ID)
		}
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return 0, err
	}
	rows.Close()

	for _, id := range ids {
		if _, err := s.db.conn.ExecContext(ctx, `DELETE FROM documents WHERE id = ?`, id); err != nil {
			return 0, fmt.Errorf("deleting document %s: %w", id, err)
		}
	}
	return len(ids), nil
}

// VectorSearch ranks embedded documents matching f by cosine similarity to
// queryVector, normalized to [0, 1].
func (s *Store) VectorSearch(ctx context.Context, queryVector []float32, f store.Filter, candidateCount, limit int) ([]store.ScoredDocument, error) {
	rows, err := s.queryCandidates(ctx, f)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var scored []store.ScoredDocument
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		if len(doc.Embedding) == 0 || !f.Matches(doc) {
			continue
		}
		scored = append(scored, store.ScoredDocument{
			Document: doc,
			Score:    store.CosineScore(queryVector, doc.Embedding),
		})
		if candidateCount > 0 && len(scored) >= candidateCount {
			break
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sort.Slice(scored, func(i, j int) bool { return scored[i].Score > scored[j].Score })
	if limit > 0 && len(scored) > limit {
		scored = scored[:limit]
	}
	return scored, nil
}

// AppendTurn records a chat turn.
func (s *Store) AppendTurn(ctx context.Context, turn models.ChatTurn) error {
	if turn.ID == "" {
		turn.ID = uuid.New().String()
	}
	if turn.CreatedAt.IsZero() {
		turn.CreatedAt = time.Now()
	}

	sources, err := json.Marshal(turn.Sources)
	if err != nil {
		return fmt.Errorf("encoding sources: %w", err)
	}

	_, err = s.db.conn.ExecContext(ctx, `
		INSERT INTO chat_turns (id, tenant_id, user_id, type, message, sources, streaming, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		turn.ID, turn.TenantID, turn.UserID, turn.Type, turn.Message,
		string(sources), turn.Streaming, turn.CreatedAt)
	if err != nil {
		return fmt.Errorf("appending chat turn: %w", err)
	}
	return nil
}

// Turns returns the most recent chat turns for a tenant/user pair, oldest first.
func (s *Store) Turns(ctx context.Context, tenantID, userID string, limit int) ([]models.ChatTurn, error) {
	query := `
		SELECT id, tenant_id, user_id, type, message, sources, streaming, created_at
		FROM chat_turns WHERE tenant_id = ? AND user_id = ?
		ORDER BY created_at DESC`
	args := []any{tenantID, userID}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying chat turns: %w", err)
	}
	defer rows.Close()

	var out []models.ChatTurn
	for rows.Next() {
		var turn models.ChatTurn
		var sources string
		if err := rows.Scan(&turn.ID, &turn.TenantID, &turn.UserID, &turn.Type,
			&turn.Message, &sources, &turn.Streaming, &turn.CreatedAt); err != nil {
			return nil, err
		}
		if sources != "" && sources != "[]" {
			if err := json.Unmarshal([]byte(sources), &turn.Sources); err != nil {
				return nil, fmt.Errorf("decoding sources: %w", err)
			}
		}
		out = append(out, turn)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// reverse into chronological order
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

// queryCandidates pushes the cheap, indexed parts of the filter into SQL;
// the caller still applies Filter.Matches to every row.
func (s *Store) queryCandidates(ctx context.Context, f store.Filter) (*sql.Rows, error) {
	query := `SELECT ` + documentColumns + ` FROM documents WHERE 1=1`
	var args []any

	if f.TenantID != "" {
		query += ` AND tenant_id = ?`
		args = append(args, f.TenantID)
	}
	if f.ID != "" {
		query += ` AND id = ?`
		args = append(args, f.ID)
	}
	if f.ParentID != "" {
		query += ` AND parent_id = ?`
		args = append(args, f.ParentID)
	}
	if f.ExcludeChunks {
		query += ` AND is_chunk = 0`
	}
	if f.HasEmbedding {
		query += ` AND embedding IS NOT NULL`
	}
	query += ` ORDER BY rowid`

	rows, err := s.db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying documents: %w", err)
	}
	return rows, nil
}

func encodeDocumentFields(doc models.Document) (tags, assigned string, embedding []byte, err error) {
	tagsJSON, err := json.Marshal(doc.Tags)
	if err != nil {
		return "", "", nil, fmt.Errorf("encoding tags: %w", err)
	}
	assignedJSON, err := json.Marshal(doc.AssignedTo)
	if err != nil {
		return "", "", nil, fmt.Errorf("encoding assignees: %w", err)
	}
	if len(doc.Embedding) > 0 {
		embedding, err = json.Marshal(doc.Embedding)
		if err != nil {
			return "", "", nil, fmt.Errorf("encoding embedding: %w", err)
		}
	}
	return string(tagsJSON), string(assignedJSON), embedding, nil
}

func scanDocument(rows *sql.Rows) (models.Document, error) {
	var doc models.Document
	var tags, assigned string
	var embedding []byte

	err := rows.Scan(&doc.ID, &doc.Title, &doc.Content, &tags, &doc.TenantID,
		&assigned, &doc.Version, &doc.CreatedAt, &doc.UpdatedAt, &embedding,
		&doc.IsChunk, &doc.ParentID, &doc.ChunkIndex, &doc.ChunkCount, &doc.ContentType)
	if err != nil {
		return models.Document{}, fmt.Errorf("scanning document: %w", err)
	}

	if tags != "" && tags != "null" {
		if err := json.Unmarshal([]byte(tags), &doc.Tags); err != nil {
			return models.Document{}, fmt.Errorf("decoding tags: %w", err)
		}
	}
	if assigned != "" && assigned != "null" {
		if err := json.Unmarshal([]byte(assigned), &doc.AssignedTo); err != nil {
			return models.Document{}, fmt.Errorf("decoding assignees: %w", err)
		}
	}
	if len(embedding) > 0 {
		if err := json.Unmarshal(embedding, &doc.Embedding); err != nil {
			return models.Document{}, fmt.Errorf("decoding embedding: %w", err)
		}
	}
	return doc, nil
}
