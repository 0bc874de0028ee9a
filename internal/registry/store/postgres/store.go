// Package postgres persists credential type registrations in PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"sigil/internal/registry/models"
	id "sigil/pkg/domain"
	"sigil/pkg/platform/sentinel"
)

// Store implements the registry store on PostgreSQL. IDs must stay dense and
// sequential, so Create serializes through an advisory transaction lock
// rather than a sequence (sequences leave gaps on rollback).
type Store struct {
	db *sql.DB
}

// New constructs a PostgreSQL-backed registry store.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Create(ctx context.Context, ct *models.CredentialType) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`SELECT pg_advisory_xact_lock(hashtext('credential_types_next_id'))`,
	); err != nil {
		return fmt.Errorf("acquire id lock: %w", err)
	}

	var assigned uint64
	err = tx.QueryRowContext(ctx, `
		INSERT INTO credential_types (id, name, description, creator, registered_at, start_time, end_time, price)
		SELECT COALESCE(MAX(id) + 1, 0), $1, $2, $3, $4, $5, $6, $7 FROM credential_types
		RETURNING id
	`, ct.Name, ct.Description, ct.Creator.String(), ct.RegisteredAt, ct.StartTime, ct.EndTime, ct.Price).Scan(&assigned)
	if err != nil {
		return fmt.Errorf("insert credential type: %w", err)
	}
	ct.ID = id.CredentialTypeID(assigned)

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit create tx: %w", err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, typeID id.CredentialTypeID) (*models.CredentialType, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, description, creator, registered_at, start_time, end_time, price
		FROM credential_types
		WHERE id = $1
	`, uint64(typeID))
	ct, err := scanCredentialType(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query credential type: %w", err)
	}
	return ct, nil
}

func (s *Store) List(ctx context.Context) ([]*models.CredentialType, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, description, creator, registered_at, start_time, end_time, price
		FROM credential_types
		ORDER BY id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list credential types: %w", err)
	}
	defer rows.Close()

	out := make([]*models.CredentialType, 0)
	for rows.Next() {
		ct, err := scanCredentialType(rows)
		if err != nil {
			return nil, fmt.Errorf("scan credential type: %w", err)
		}
		out = append(out, ct)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate credential types: %w", err)
	}
	return out, nil
}

func (s *Store) NextID(ctx context.Context) (uint64, error) {
	var count uint64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM credential_types`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count credential types: %w", err)
	}
	return count, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCredentialType(row rowScanner) (*models.CredentialType, error) {
	var (
		ct      models.CredentialType
		typeID  uint64
		creator string
	)
	if err := row.Scan(&typeID, &ct.Name, &ct.Description, &creator, &ct.RegisteredAt, &ct.StartTime, &ct.EndTime, &ct.Price); err != nil {
		return nil, err
	}
	ct.ID = id.CredentialTypeID(typeID)
	ct.Creator = id.Address(creator)
	return &ct, nil
}
