package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	id "sigil/pkg/domain"
)

// PostgresStore persists audit events in PostgreSQL. Events are append-only;
// the JSON payload column keeps the schema stable as event fields evolve.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed audit store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Append(ctx context.Context, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal audit event: %w", err)
	}
	query := `
		INSERT INTO audit_events (id, occurred_at, actor, action, holder, new_holder, payload)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err = s.db.ExecContext(ctx, query,
		uuid.New(),
		event.Timestamp,
		event.Actor.String(),
		string(event.Action),
		event.Holder.String(),
		event.NewHolder.String(),
		payload,
	)
	if err != nil {
		return fmt.Errorf("append audit event: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListByHolder(ctx context.Context, holder id.Address) ([]Event, error) {
	query := `
		SELECT payload
		FROM audit_events
		WHERE actor = $1 OR holder = $1 OR new_holder = $1
		ORDER BY occurred_at ASC
	`
	rows, err := s.db.QueryContext(ctx, query, holder.String())
	if err != nil {
		return nil, fmt.Errorf("list audit events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		var event Event
		if err := json.Unmarshal(payload, &event); err != nil {
			return nil, fmt.Errorf("unmarshal audit event: %w", err)
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit events: %w", err)
	}
	return events, nil
}
