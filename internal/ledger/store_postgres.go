package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	contracts "sigil/contracts/ledger"
	id "sigil/pkg/domain"
	"sigil/pkg/platform/sentinel"
)

// PostgresStore persists balances, supply, and burn approvals in PostgreSQL.
// Movements run in a single transaction; debit rows are locked with
// SELECT ... FOR UPDATE so concurrent movements against one holder serialize.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed balance store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Balance(ctx context.Context, holder id.Address, typeID id.CredentialTypeID) (uint64, error) {
	var quantity uint64
	err := s.db.QueryRowContext(ctx,
		`SELECT quantity FROM balances WHERE holder = $1 AND type_id = $2`,
		holder.String(), uint64(typeID),
	).Scan(&quantity)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("query balance: %w", err)
	}
	return quantity, nil
}

func (s *PostgresStore) TotalSupply(ctx context.Context, typeID id.CredentialTypeID) (uint64, error) {
	var supply uint64
	err := s.db.QueryRowContext(ctx,
		`SELECT supply FROM credential_supply WHERE type_id = $1`,
		uint64(typeID),
	).Scan(&supply)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("query total supply: %w", err)
	}
	return supply, nil
}

func (s *PostgresStore) Apply(ctx context.Context, movement contracts.Movement) error {
	from := id.Address(movement.From)
	to := id.Address(movement.To)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin movement tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if !from.IsZero() {
		debits := make(map[uint64]uint64, len(movement.Entries))
		for _, e := range movement.Entries {
			debits[e.TypeID] += e.Quantity
		}
		for typeID, qty := range debits {
			var current uint64
			err := tx.QueryRowContext(ctx,
				`SELECT quantity FROM balances WHERE holder = $1 AND type_id = $2 FOR UPDATE`,
				from.String(), typeID,
			).Scan(&current)
			if errors.Is(err, sql.ErrNoRows) {
				current = 0
			} else if err != nil {
				return fmt.Errorf("lock balance row: %w", err)
			}
			if current < qty {
				return fmt.Errorf("type %d: %w", typeID, sentinel.ErrInsufficient)
			}
		}
	}

	for _, e := range movement.Entries {
		if from.IsZero() {
			if err := adjustSupply(ctx, tx, e.TypeID, int64(e.Quantity)); err != nil {
				return err
			}
		} else {
			if err := adjustBalance(ctx, tx, from, e.TypeID, -int64(e.Quantity)); err != nil {
				return err
			}
		}
		if to.IsZero() {
			if err := adjustSupply(ctx, tx, e.TypeID, -int64(e.Quantity)); err != nil {
				return err
			}
		} else {
			if err := adjustBalance(ctx, tx, to, e.TypeID, int64(e.Quantity)); err != nil {
				return err
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit movement tx: %w", err)
	}
	return nil
}

func adjustBalance(ctx context.Context, tx *sql.Tx, holder id.Address, typeID uint64, delta int64) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO balances (holder, type_id, quantity)
		VALUES ($1, $2, GREATEST($3, 0))
		ON CONFLICT (holder, type_id)
		DO UPDATE SET quantity = balances.quantity + $3
	`, holder.String(), typeID, delta)
	if err != nil {
		return fmt.Errorf("adjust balance: %w", err)
	}
	return nil
}

func adjustSupply(ctx context.Context, tx *sql.Tx, typeID uint64, delta int64) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO credential_supply (type_id, supply)
		VALUES ($1, GREATEST($2, 0))
		ON CONFLICT (type_id)
		DO UPDATE SET supply = credential_supply.supply + $2
	`, typeID, delta)
	if err != nil {
		return fmt.Errorf("adjust supply: %w", err)
	}
	return nil
}

func (s *PostgresStore) SetApproval(ctx context.Context, holder, operator id.Address, approved bool) error {
	if approved {
		_, err := s.db.ExecContext(ctx, `
			INSERT INTO burn_approvals (holder, operator)
			VALUES ($1, $2)
			ON CONFLICT (holder, operator) DO NOTHING
		`, holder.String(), operator.String())
		if err != nil {
			return fmt.Errorf("grant burn approval: %w", err)
		}
		return nil
	}
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM burn_approvals WHERE holder = $1 AND operator = $2`,
		holder.String(), operator.String())
	if err != nil {
		return fmt.Errorf("revoke burn approval: %w", err)
	}
	return nil
}

func (s *PostgresStore) IsApproved(ctx context.Context, holder, operator id.Address) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM burn_approvals WHERE holder = $1 AND operator = $2)`,
		holder.String(), operator.String(),
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("query burn approval: %w", err)
	}
	return exists, nil
}
