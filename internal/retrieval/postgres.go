package retrieval

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	pgvector "github.com/pgvector/pgvector-go"
)

// Embedder turns text into an embedding vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// PostgresSearcher implements Searcher with pgvector cosine similarity over
// the portfolio_chunks table.
type PostgresSearcher struct {
	pool     *pgxpool.Pool
	embedder Embedder
}

// NewPostgresSearcher creates a new pgvector-backed searcher.
func NewPostgresSearcher(pool *pgxpool.Pool, embedder Embedder) *PostgresSearcher {
	return &PostgresSearcher{pool: pool, embedder: embedder}
}

func (s *PostgresSearcher) Search(ctx context.Context, query string, topK int) ([]Document, error) {
	embedding, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	vec := pgvector.NewVector(embedding)
	rows, err := s.pool.Query(ctx,
		`SELECT id, content, 1 - (embedding <=> $1) AS similarity
		 FROM portfolio_chunks
		 WHERE embedding IS NOT NULL
		 ORDER BY embedding <=> $1
		 LIMIT $2`,
		vec, topK,
	)
	if err != nil {
		return nil, fmt.Errorf("searching portfolio chunks: %w", err)
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		var d Document
		if err := rows.Scan(&d.ID, &d.Content, &d.Score); err != nil {
			return nil, fmt.Errorf("scanning search result: %w", err)
		}
		d.Score = clamp(d.Score)
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

// Upsert stores or replaces a chunk. Used by ingestion tooling and tests.
func (s *PostgresSearcher) Upsert(ctx context.Context, id, content string, embedding []float32) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO portfolio_chunks (id, content, embedding)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (id) DO UPDATE SET content = EXCLUDED.content, embedding = EXCLUDED.embedding`,
		id, content, pgvector.NewVector(embedding),
	)
	if err != nil {
		return fmt.Errorf("upserting chunk %s: %w", id, err)
	}
	return nil
}

// Count returns the number of embedded chunks available for search.
func (s *PostgresSearcher) Count(ctx context.Context) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM portfolio_chunks WHERE embedding IS NOT NULL`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting portfolio chunks: %w", err)
	}
	return n, nil
}

// clamp keeps cosine similarity inside the [0,1] relevance range.
func clamp(score float64) float64 {
	switch {
	case score < 0:
		return 0
	case score > 1:
		return 1
	}
	return score
}
