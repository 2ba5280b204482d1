// Package index provides the persistent evidence store backing persona
// analysis. Documents are kept in SQLite with optional embeddings; search is
// keyword-scored with an embedding re-rank when an embedder is configured.
package index

import (
	"context"
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"multimind/internal/llm"
	"multimind/internal/logging"
	"multimind/internal/types"
)

// =============================================================================
// EVIDENCE STORE
// =============================================================================

// Store implements types.SearchIndex over a local SQLite database.
type Store struct {
	db       *sql.DB
	mu       sync.RWMutex
	dbPath   string
	embedder types.Embedder
}

// Document is one indexed evidence item.
type Document struct {
	ID       string
	Content  string
	Domain   string
	Metadata map[string]string
}

// Open initializes the SQLite database at the given path. A nil embedder
// disables embedding storage and re-ranking; keyword search still works.
func Open(path string, embedder types.Embedder) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := sql.Open(driverName, path)
	if err != nil {
		return nil, types.NewDependencyError("sqlite", fmt.Errorf("open database: %w", err))
	}

	s := &Store{db: db, dbPath: path, embedder: embedder}
	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}

	logging.Index("evidence store opened at %s", path)
	return s, nil
}

func (s *Store) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS documents (
		id TEXT PRIMARY KEY,
		content TEXT NOT NULL,
		domain TEXT NOT NULL DEFAULT '',
		metadata TEXT,
		embedding BLOB,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_documents_domain ON documents(domain);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return types.NewDependencyError("sqlite", fmt.Errorf("create schema: %w", err))
	}
	return nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Add upserts a document. When an embedder is configured the content is
// embedded at write time so search never blocks on the embedding service.
func (s *Store) Add(ctx context.Context, doc Document) error {
	timer := logging.StartTimer(logging.CategoryIndex, "Add")
	defer timer.Stop()

	if doc.ID == "" {
		return types.NewInputError("id", "document id must not be empty")
	}
	if strings.TrimSpace(doc.Content) == "" {
		return types.NewInputError("content", "document content must not be empty")
	}

	var embBlob []byte
	if s.embedder != nil {
		emb, err := s.embedder.Embed(ctx, doc.Content)
		if err != nil {
			logging.Get(logging.CategoryIndex).Warn("embed failed for %s, storing without embedding: %v", doc.ID, err)
		} else {
			embBlob = encodeVector(emb)
		}
	}

	metaJSON, _ := json.Marshal(doc.Metadata)

	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.ExecContext(ctx,
		"INSERT OR REPLACE INTO documents (id, content, domain, metadata, embedding) VALUES (?, ?, ?, ?, ?)",
		doc.ID, doc.Content, doc.Domain, string(metaJSON), embBlob,
	)
	if err != nil {
		return types.NewDependencyError("sqlite", fmt.Errorf("insert document: %w", err))
	}
	logging.IndexDebug("indexed document %s (domain=%s, %d bytes)", doc.ID, doc.Domain, len(doc.Content))
	return nil
}

// Count reports the number of indexed documents.
func (s *Store) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM documents").Scan(&n); err != nil {
		return 0, types.NewDependencyError("sqlite", err)
	}
	return n, nil
}

// Search finds documents matching the query, scored by keyword overlap and
// re-ranked by embedding similarity when available. The "domain" filter maps
// to the domain column; remaining filters are exact matches on metadata.
func (s *Store) Search(ctx context.Context, query string, filters map[string]string, limit int) ([]types.SearchHit, error) {
	timer := logging.StartTimer(logging.CategoryIndex, "Search")
	defer timer.Stop()

	if limit <= 0 {
		limit = 10
	}
	keywords := strings.Fields(strings.ToLower(query))
	if len(keywords) == 0 {
		return nil, nil
	}

	var conditions []string
	var args []interface{}
	kwConds := make([]string, len(keywords))
	for i, kw := range keywords {
		kwConds[i] = "LOWER(content) LIKE ?"
		args = append(args, "%"+kw+"%")
	}
	conditions = append(conditions, "("+strings.Join(kwConds, " OR ")+")")

	if domain, ok := filters["domain"]; ok && domain != "" {
		conditions = append(conditions, "domain = ?")
		args = append(args, domain)
	}

	// Over-fetch so keyword scoring and metadata filtering have room to drop
	// rows before the limit applies.
	sqlQuery := fmt.Sprintf(
		"SELECT id, content, metadata, embedding FROM documents WHERE %s ORDER BY created_at DESC LIMIT ?",
		strings.Join(conditions, " AND "),
	)
	args = append(args, limit*4)

	s.mu.RLock()
	rows, err := s.db.QueryContext(ctx, sqlQuery, args...)
	s.mu.RUnlock()
	if err != nil {
		return nil, types.NewDependencyError("sqlite", fmt.Errorf("search query: %w", err))
	}
	defer rows.Close()

	var queryEmb []float32
	if s.embedder != nil {
		if emb, eerr := s.embedder.Embed(ctx, query); eerr == nil {
			queryEmb = emb
		} else {
			logging.Get(logging.CategoryIndex).Warn("query embed failed, keyword scoring only: %v", eerr)
		}
	}

	var hits []types.SearchHit
	for rows.Next() {
		var id, content string
		var metaJSON sql.NullString
		var embBlob []byte
		if err := rows.Scan(&id, &content, &metaJSON, &embBlob); err != nil {
			continue
		}

		var meta map[string]string
		if metaJSON.Valid && metaJSON.String != "" {
			json.Unmarshal([]byte(metaJSON.String), &meta)
		}
		if !matchesMetadata(meta, filters) {
			continue
		}

		score := keywordScore(content, keywords)
		if queryEmb != nil && len(embBlob) > 0 {
			if sim, serr := llm.CosineSimilarity(queryEmb, decodeVector(embBlob)); serr == nil {
				// Blend: embeddings dominate when present.
				score = 0.3*score + 0.7*types.Clamp01((sim+1)/2)
			}
		}

		hits = append(hits, types.SearchHit{ID: id, Content: content, Metadata: meta, Score: score})
	}
	if err := rows.Err(); err != nil {
		return nil, types.NewDependencyError("sqlite", err)
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].ID < hits[j].ID
	})
	if len(hits) > limit {
		hits = hits[:limit]
	}

	logging.IndexDebug("search %q returned %d hits", query, len(hits))
	return hits, nil
}

// keywordScore is the fraction of query keywords present in the content.
func keywordScore(content string, keywords []string) float64 {
	lc := strings.ToLower(content)
	matched := 0
	for _, kw := range keywords {
		if strings.Contains(lc, kw) {
			matched++
		}
	}
	return float64(matched) / float64(len(keywords))
}

func matchesMetadata(meta, filters map[string]string) bool {
	for k, v := range filters {
		if k == "domain" {
			continue
		}
		if meta[k] != v {
			return false
		}
	}
	return true
}

// encodeVector serializes a float32 slice as a little-endian blob, the layout
// sqlite-vec expects.
func encodeVector(v []float32) []byte {
	out := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(out[i*4:], math.Float32bits(f))
	}
	return out
}

func decodeVector(b []byte) []float32 {
	if len(b)%4 != 0 {
		return nil
	}
	out := make([]float32, len(b)/4)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return out
}
