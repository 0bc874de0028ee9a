package treasury

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	id "sigil/pkg/domain"
)

// PostgresSink records receipts in PostgreSQL for reconciliation with the
// downstream settlement system.
type PostgresSink struct {
	db *sql.DB
}

// NewPostgresSink constructs a PostgreSQL-backed sink.
func NewPostgresSink(db *sql.DB) *PostgresSink {
	return &PostgresSink{db: db}
}

func (s *PostgresSink) Forward(ctx context.Context, from, treasury id.Address, value uint64) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO treasury_receipts (id, sender, treasury, value, received_at)
		VALUES ($1, $2, $3, $4, $5)
	`, uuid.New(), from.String(), treasury.String(), value, time.Now())
	if err != nil {
		return fmt.Errorf("record treasury receipt: %w", err)
	}
	return nil
}
