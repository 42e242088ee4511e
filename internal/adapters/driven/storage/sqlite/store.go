// Package sqlite provides the durable vector index backed by SQLite.
//
// Embeddings live as little-endian float32 blobs alongside the chunk
// text and metadata. Similarity search is brute force: all candidate
// rows are scanned and scored by cosine similarity in Go, which stays
// comfortably fast at the scale of a personal news index.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/binary"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/finsight-labs/finsight-cli/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/finsight-labs/finsight-cli/internal/core/domain"
	"github.com/finsight-labs/finsight-cli/internal/core/ports/driven"
)

var _ driven.VectorIndex = (*Store)(nil)

// Store is the SQLite-backed vector index.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore opens (or creates) the index at the specified data directory.
// If dataDir is empty, defaults to ~/.finsight/data.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".finsight", "data")
	}

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "index.db")

	// WAL mode for better concurrency between ingest and queries.
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("%w: opening database: %w", domain.ErrIndexUnavailable, err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: running migrations: %w", domain.ErrIndexUnavailable, err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// Extract version number (e.g., "001_initial.up.sql" -> 1).
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
		if _, err := s.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}

// Upsert stores chunks and removes stale rows belonging to the same
// articles in one transaction. Chunk IDs are content-derived, so an
// unchanged article re-ingests to the exact same rows while an edited
// one fully replaces its old chunks.
func (s *Store) Upsert(ctx context.Context, chunks []domain.DocumentChunk) error {
	if len(chunks) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	seen := make(map[string]bool)
	for _, chunk := range chunks {
		if seen[chunk.ArticleURL] {
			continue
		}
		seen[chunk.ArticleURL] = true

		if _, err := tx.ExecContext(ctx,
			"DELETE FROM chunks WHERE article_url = ?", chunk.ArticleURL); err != nil {
			return fmt.Errorf("removing stale chunks: %w", err)
		}
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO chunks (id, article_url, content, position, embedding,
			title, source, url, publish_date, section, chunk_index)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			article_url = excluded.article_url,
			content = excluded.content,
			position = excluded.position,
			embedding = excluded.embedding,
			title = excluded.title,
			source = excluded.source,
			url = excluded.url,
			publish_date = excluded.publish_date,
			section = excluded.section,
			chunk_index = excluded.chunk_index
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for _, chunk := range chunks {
		if _, err := stmt.ExecContext(ctx,
			chunk.ID, chunk.ArticleURL, chunk.Content, chunk.Position,
			float32SliceToBytes(chunk.Embedding),
			metaValue(chunk.Metadata, domain.MetaTitle),
			metaValue(chunk.Metadata, domain.MetaSource),
			metaValue(chunk.Metadata, domain.MetaURL),
			metaValue(chunk.Metadata, domain.MetaPublishDate),
			metaValue(chunk.Metadata, domain.MetaSection),
			metaValue(chunk.Metadata, domain.MetaChunkIndex),
		); err != nil {
			return fmt.Errorf("saving chunk: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// Search returns the k nearest chunks to the query vector, restricted
// to sources allowed by the filter.
func (s *Store) Search(ctx context.Context, query []float32, k int, filter domain.QueryFilter) ([]driven.VectorHit, error) {
	if k <= 0 || len(query) == 0 {
		return nil, nil
	}

	sqlQuery := `
		SELECT id, article_url, content, position, embedding,
			title, source, url, publish_date, section, chunk_index
		FROM chunks
	`
	var args []any
	if !filter.Empty() {
		placeholders := strings.Repeat("?,", len(filter.Sources))
		sqlQuery += " WHERE source IN (" + placeholders[:len(placeholders)-1] + ")"
		for _, src := range filter.Sources {
			args = append(args, src)
		}
	}

	rows, err := s.db.QueryContext(ctx, sqlQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}
	defer rows.Close()

	var hits []driven.VectorHit //nolint:prealloc // size unknown from query
	for rows.Next() {
		chunk, err := scanChunk(rows)
		if err != nil {
			return nil, err
		}
		hits = append(hits, driven.VectorHit{
			Chunk:      *chunk,
			Similarity: cosineSimilarity(query, chunk.Embedding),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chunks: %w", err)
	}

	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Similarity > hits[j].Similarity
	})
	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

// Stats reports the stored chunk count and the sorted distinct sources.
func (s *Store) Stats(ctx context.Context) (domain.IndexStats, error) {
	var stats domain.IndexStats

	row := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM chunks")
	if err := row.Scan(&stats.TotalDocuments); err != nil {
		return domain.IndexStats{}, fmt.Errorf("counting chunks: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT DISTINCT source FROM chunks ORDER BY source")
	if err != nil {
		return domain.IndexStats{}, fmt.Errorf("querying sources: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var source string
		if err := rows.Scan(&source); err != nil {
			return domain.IndexStats{}, fmt.Errorf("scanning source: %w", err)
		}
		stats.Sources = append(stats.Sources, source)
	}
	if err := rows.Err(); err != nil {
		return domain.IndexStats{}, fmt.Errorf("iterating sources: %w", err)
	}

	return stats, nil
}

// scanChunk scans a chunk from *sql.Rows.
func scanChunk(rows *sql.Rows) (*domain.DocumentChunk, error) {
	var chunk domain.DocumentChunk
	var embeddingBlob []byte
	var title, source, url, publishDate, section, chunkIndex string

	if err := rows.Scan(&chunk.ID, &chunk.ArticleURL, &chunk.Content,
		&chunk.Position, &embeddingBlob,
		&title, &source, &url, &publishDate, &section, &chunkIndex); err != nil {
		return nil, fmt.Errorf("scanning chunk: %w", err)
	}

	chunk.Embedding = bytesToFloat32Slice(embeddingBlob)
	chunk.Metadata = map[string]string{
		domain.MetaTitle:       title,
		domain.MetaSource:      source,
		domain.MetaURL:         url,
		domain.MetaPublishDate: publishDate,
		domain.MetaSection:     section,
		domain.MetaChunkIndex:  chunkIndex,
	}
	return &chunk, nil
}

// metaValue returns the metadata value, or the missing placeholder.
func metaValue(metadata map[string]string, key string) string {
	if v, ok := metadata[key]; ok && v != "" {
		return v
	}
	return domain.MetaMissing
}

// float32SliceToBytes converts a []float32 to a byte slice for storage.
func float32SliceToBytes(floats []float32) []byte {
	if len(floats) == 0 {
		return nil
	}
	buf := make([]byte, len(floats)*4)
	for i, f := range floats {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// bytesToFloat32Slice converts a byte slice back to []float32.
func bytesToFloat32Slice(data []byte) []float32 {
	if len(data) == 0 {
		return nil
	}
	floats := make([]float32, len(data)/4)
	for i := range floats {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return floats
}

// cosineSimilarity computes the cosine similarity of two vectors.
// Mismatched or zero-length vectors score 0.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
