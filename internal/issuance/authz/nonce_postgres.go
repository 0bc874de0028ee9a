package authz

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	id "sigil/pkg/domain"
	"sigil/pkg/platform/sentinel"
)

// PostgresNonceStore persists per-holder nonces in PostgreSQL. Consume is a
// single compare-and-swap statement, so two concurrent consumers of the same
// nonce cannot both succeed.
type PostgresNonceStore struct {
	db *sql.DB
}

// NewPostgresNonceStore constructs a PostgreSQL-backed nonce store.
func NewPostgresNonceStore(db *sql.DB) *PostgresNonceStore {
	return &PostgresNonceStore{db: db}
}

func (s *PostgresNonceStore) Current(ctx context.Context, holder id.Address) (uint64, error) {
	var nonce uint64
	err := s.db.QueryRowContext(ctx,
		`SELECT nonce FROM holder_nonces WHERE holder = $1`, holder.String(),
	).Scan(&nonce)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("query nonce: %w", err)
	}
	return nonce, nil
}

func (s *PostgresNonceStore) Consume(ctx context.Context, holder id.Address, expected uint64) error {
	// A holder's first consumption inserts the row; later consumptions CAS
	// the counter. Either way exactly one statement decides the outcome.
	var result sql.Result
	var err error
	if expected == 0 {
		result, err = s.db.ExecContext(ctx, `
			INSERT INTO holder_nonces (holder, nonce)
			VALUES ($1, 1)
			ON CONFLICT (holder) DO UPDATE SET nonce = 1
			WHERE holder_nonces.nonce = 0
		`, holder.String())
	} else {
		result, err = s.db.ExecContext(ctx, `
			UPDATE holder_nonces
			SET nonce = $2 + 1
			WHERE holder = $1 AND nonce = $2
		`, holder.String(), expected)
	}
	if err != nil {
		return fmt.Errorf("consume nonce: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		return sentinel.ErrStaleNonce
	}
	return nil
}
