// Package cache fronts the registry store with a Redis read-through cache.
// Credential types are immutable once registered, so cached entries never go
// stale; the TTL only bounds memory use.
package cache

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"sigil/internal/registry/models"
	"sigil/internal/registry/store"
	id "sigil/pkg/domain"
)

const keyPrefix = "sigil:ctype:"

// Store wraps an inner registry store with per-ID Redis caching. List and
// NextID always hit the inner store; only Get is cached.
type Store struct {
	inner  store.Store
	client redis.Cmdable
	ttl    time.Duration
	logger *slog.Logger
}

// New wraps inner with a Redis read-through cache.
func New(inner store.Store, client redis.Cmdable, ttl time.Duration, logger *slog.Logger) *Store {
	return &Store{inner: inner, client: client, ttl: ttl, logger: logger}
}

func (s *Store) Create(ctx context.Context, ct *models.CredentialType) error {
	if err := s.inner.Create(ctx, ct); err != nil {
		return err
	}
	s.set(ctx, ct)
	return nil
}

func (s *Store) Get(ctx context.Context, typeID id.CredentialTypeID) (*models.CredentialType, error) {
	raw, err := s.client.Get(ctx, keyPrefix+typeID.String()).Bytes()
	if err == nil {
		var ct models.CredentialType
		if err := json.Unmarshal(raw, &ct); err == nil {
			return &ct, nil
		}
		// Corrupt cache entry: fall through to the inner store and rewrite.
	} else if err != redis.Nil && s.logger != nil {
		s.logger.WarnContext(ctx, "registry cache read failed", "error", err, "type_id", typeID)
	}

	ct, err := s.inner.Get(ctx, typeID)
	if err != nil {
		return nil, err
	}
	s.set(ctx, ct)
	return ct, nil
}

func (s *Store) List(ctx context.Context) ([]*models.CredentialType, error) {
	return s.inner.List(ctx)
}

func (s *Store) NextID(ctx context.Context) (uint64, error) {
	return s.inner.NextID(ctx)
}

func (s *Store) set(ctx context.Context, ct *models.CredentialType) {
	raw, err := json.Marshal(ct)
	if err != nil {
		return
	}
	if err := s.client.Set(ctx, keyPrefix+ct.ID.String(), raw, s.ttl).Err(); err != nil && s.logger != nil {
		s.logger.WarnContext(ctx, "registry cache write failed", "error", err, "type_id", ct.ID)
	}
}
