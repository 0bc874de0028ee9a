// Package postgres persists administrative state in PostgreSQL. The scalar
// state lives in a single-row table; minter membership in its own table.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"sigil/internal/accesscontrol/models"
	id "sigil/pkg/domain"
	"sigil/pkg/platform/sentinel"
)

// Store implements the access-control store on PostgreSQL.
type Store struct {
	db *sql.DB
}

// New constructs a PostgreSQL-backed access-control store.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// EnsureGenesis writes the genesis state if no state row exists yet.
// Restarting a configured deployment never overwrites live state.
func (s *Store) EnsureGenesis(ctx context.Context, genesis models.State) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO access_state (singleton, owner, paused, signer, treasury, base_uri)
		VALUES (TRUE, $1, $2, $3, $4, $5)
		ON CONFLICT (singleton) DO NOTHING
	`, genesis.Owner.String(), genesis.Paused, genesis.Signer, genesis.Treasury.String(), genesis.BaseURI)
	if err != nil {
		return fmt.Errorf("ensure genesis state: %w", err)
	}
	return nil
}

func (s *Store) State(ctx context.Context) (*models.State, error) {
	var (
		state    models.State
		owner    string
		treasury string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT owner, paused, signer, treasury, base_uri FROM access_state WHERE singleton`,
	).Scan(&owner, &state.Paused, &state.Signer, &treasury, &state.BaseURI)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query access state: %w", err)
	}
	state.Owner = id.Address(owner)
	state.Treasury = id.Address(treasury)
	return &state, nil
}

func (s *Store) SetOwner(ctx context.Context, owner id.Address) error {
	return s.setScalar(ctx, "owner", owner.String())
}

func (s *Store) SetPaused(ctx context.Context, paused bool) error {
	return s.setScalar(ctx, "paused", paused)
}

func (s *Store) SetSigner(ctx context.Context, signer string) error {
	return s.setScalar(ctx, "signer", signer)
}

func (s *Store) SetTreasury(ctx context.Context, treasury id.Address) error {
	return s.setScalar(ctx, "treasury", treasury.String())
}

func (s *Store) SetBaseURI(ctx context.Context, baseURI string) error {
	return s.setScalar(ctx, "base_uri", baseURI)
}

// setScalar updates one column of the singleton row. The column name comes
// from a fixed call-site set, never from input.
func (s *Store) setScalar(ctx context.Context, column string, value any) error {
	query := fmt.Sprintf(`UPDATE access_state SET %s = $1 WHERE singleton`, column)
	result, err := s.db.ExecContext(ctx, query, value)
	if err != nil {
		return fmt.Errorf("update access state %s: %w", column, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *Store) IsMinter(ctx context.Context, addr id.Address) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM minters WHERE address = $1)`,
		addr.String(),
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("query minter membership: %w", err)
	}
	return exists, nil
}

func (s *Store) AddMinter(ctx context.Context, addr id.Address) error {
	result, err := s.db.ExecContext(ctx,
		`INSERT INTO minters (address) VALUES ($1) ON CONFLICT (address) DO NOTHING`,
		addr.String())
	if err != nil {
		return fmt.Errorf("add minter: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		return sentinel.ErrConflict
	}
	return nil
}

func (s *Store) RemoveMinter(ctx context.Context, addr id.Address) error {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM minters WHERE address = $1`, addr.String())
	if err != nil {
		return fmt.Errorf("remove minter: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *Store) ListMinters(ctx context.Context) ([]id.Address, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT address FROM minters ORDER BY address`)
	if err != nil {
		return nil, fmt.Errorf("list minters: %w", err)
	}
	defer rows.Close()

	var out []id.Address
	for rows.Next() {
		var addr string
		if err := rows.Scan(&addr); err != nil {
			return nil, fmt.Errorf("scan minter: %w", err)
		}
		out = append(out, id.Address(addr))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate minters: %w", err)
	}
	return out, nil
}
