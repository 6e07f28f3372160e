package analytics

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/AdilSaeed0347/InsightFolio/internal/events"
)

// Repository handles chat_events and stage_failures PostgreSQL operations.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new analytics Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// InsertChat persists a chat event. Redelivered events are ignored.
func (r *Repository) InsertChat(ctx context.Context, e events.ChatEvent) error {
	failed := e.FailedStages
	if failed == nil {
		failed = []string{}
	}
	_, err := r.pool.Exec(ctx,
		`INSERT INTO chat_events (id, session_id, query_type, language, confidence, sub_queries, failed_stages, processing_time_ms, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 ON CONFLICT (id) DO NOTHING`,
		e.ID, e.SessionID, e.QueryType, e.Language, e.Confidence, e.SubQueries, failed, e.ProcessingTimeMs, e.Timestamp)
	if err != nil {
		return fmt.Errorf("inserting chat event: %w", err)
	}
	return nil
}

// InsertFailure persists a stage failure event. Redelivered events are ignored.
func (r *Repository) InsertFailure(ctx context.Context, e events.StageFailureEvent) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO stage_failures (request_id, session_id, stage, error, created_at)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (request_id, stage, error) DO NOTHING`,
		e.RequestID, e.SessionID, e.Stage, e.Error, e.Timestamp)
	if err != nil {
		return fmt.Errorf("inserting stage failure: %w", err)
	}
	return nil
}

// Summary aggregates everything recorded at or after since.
func (r *Repository) Summary(ctx context.Context, since time.Time) (*Summary, error) {
	s := &Summary{
		Since:           since,
		ByQueryType:     map[string]int{},
		FailuresByStage: map[string]int{},
	}

	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*), COALESCE(AVG(confidence), 0), COALESCE(AVG(processing_time_ms), 0)
		 FROM chat_events WHERE created_at >= $1`, since,
	).Scan(&s.Requests, &s.AvgConfidence, &s.AvgProcessingMs)
	if err != nil {
		return nil, fmt.Errorf("summarizing chat events: %w", err)
	}

	if err := r.countInto(ctx, s.ByQueryType,
		`SELECT query_type, COUNT(*) FROM chat_events WHERE created_at >= $1 GROUP BY query_type`, since); err != nil {
		return nil, fmt.Errorf("counting query types: %w", err)
	}
	if err := r.countInto(ctx, s.FailuresByStage,
		`SELECT stage, COUNT(*) FROM stage_failures WHERE created_at >= $1 GROUP BY stage`, since); err != nil {
		return nil, fmt.Errorf("counting stage failures: %w", err)
	}
	return s, nil
}

func (r *Repository) countInto(ctx context.Context, dst map[string]int, query string, since time.Time) error {
	rows, err := r.pool.Query(ctx, query, since)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var key string
		var n int
		if err := rows.Scan(&key, &n); err != nil {
			return err
		}
		dst[key] = n
	}
	return rows.Err()
}
