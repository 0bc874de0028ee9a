package outbox

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// PostgresStore implements Store using PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres creates a new PostgreSQL outbox store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Append adds a new entry to the outbox table.
func (s *PostgresStore) Append(ctx context.Context, entry *Entry) error {
	query := `
		INSERT INTO outbox (id, aggregate_type, aggregate_id, event_type, payload, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := s.db.ExecContext(ctx, query,
		entry.ID,
		entry.AggregateType,
		entry.AggregateID,
		entry.EventType,
		json.RawMessage(entry.Payload),
		entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert outbox entry: %w", err)
	}
	return nil
}

// FetchUnprocessed returns up to limit entries that haven't been processed.
// Uses FOR UPDATE SKIP LOCKED to support concurrent workers without blocking.
func (s *PostgresStore) FetchUnprocessed(ctx context.Context, limit int) ([]*Entry, error) {
	if limit <= 0 {
		return nil, nil
	}
	const maxBatch = 1000
	if limit > maxBatch {
		limit = maxBatch
	}
	query := `
		SELECT id, aggregate_type, aggregate_id, event_type, payload, created_at, processed_at
		FROM outbox
		WHERE processed_at IS NULL
		ORDER BY created_at ASC
		LIMIT $1
		FOR UPDATE SKIP LOCKED
	`
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("fetch unprocessed entries: %w", err)
	}
	defer rows.Close()

	entries := make([]*Entry, 0, limit)
	for rows.Next() {
		var (
			entry       Entry
			payload     json.RawMessage
			processedAt sql.NullTime
		)
		if err := rows.Scan(
			&entry.ID,
			&entry.AggregateType,
			&entry.AggregateID,
			&entry.EventType,
			&payload,
			&entry.CreatedAt,
			&processedAt,
		); err != nil {
			return nil, fmt.Errorf("scan outbox entry: %w", err)
		}
		entry.Payload = []byte(payload)
		if processedAt.Valid {
			entry.ProcessedAt = &processedAt.Time
		}
		entries = append(entries, &entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate outbox entries: %w", err)
	}
	return entries, nil
}

// MarkProcessed marks an entry as successfully published.
func (s *PostgresStore) MarkProcessed(ctx context.Context, id uuid.UUID, processedAt time.Time) error {
	query := `
		UPDATE outbox
		SET processed_at = $2
		WHERE id = $1 AND processed_at IS NULL
	`
	result, err := s.db.ExecContext(ctx, query, id, processedAt)
	if err != nil {
		return fmt.Errorf("mark outbox entry processed: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("outbox entry not found or already processed: %s", id)
	}
	return nil
}

// CountPending returns the number of unprocessed entries.
func (s *PostgresStore) CountPending(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM outbox WHERE processed_at IS NULL`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count pending entries: %w", err)
	}
	return count, nil
}

// DeleteProcessedBefore removes old processed entries.
func (s *PostgresStore) DeleteProcessedBefore(ctx context.Context, before time.Time) (int64, error) {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM outbox WHERE processed_at IS NOT NULL AND processed_at < $1`, before)
	if err != nil {
		return 0, fmt.Errorf("delete processed entries: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("get rows affected: %w", err)
	}
	return rowsAffected, nil
}
