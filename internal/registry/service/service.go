// Package service implements the credential type registry: owner-gated
// registration with dense sequential IDs, public reads, and metadata URIs.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"sigil/internal/audit"
	"sigil/internal/platform/middleware"
	regmetrics "sigil/internal/registry/metrics"
	"sigil/internal/registry/models"
	"sigil/internal/registry/store"
	id "sigil/pkg/domain"
	dErrors "sigil/pkg/domain-errors"
	"sigil/pkg/platform/sentinel"
)

// AccessControl is the slice of the administrative layer the registry needs.
type AccessControl interface {
	RequireOwner(ctx context.Context, caller id.Address) error
	RequireUnpaused(ctx context.Context) error
	BaseURI(ctx context.Context) (string, error)
}

// AuditPublisher records registrations.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service orchestrates credential type registration and reads.
type Service struct {
	store   store.Store
	access  AccessControl
	logger  *slog.Logger
	auditor AuditPublisher
	metrics *regmetrics.Metrics
	now     func() time.Time
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) {
		s.auditor = publisher
	}
}

func WithMetrics(m *regmetrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithClock overrides the time source. Test hook.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

func New(st store.Store, access AccessControl, opts ...Option) *Service {
	s := &Service{store: st, access: access, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create registers a new credential type. Owner-only, unpaused. The store
// assigns the next dense sequential ID.
func (s *Service) Create(ctx context.Context, caller id.Address, name, description string, startTime, endTime int64, price uint64) (*models.CredentialType, error) {
	if err := s.access.RequireOwner(ctx, caller); err != nil {
		return nil, err
	}
	if err := s.access.RequireUnpaused(ctx); err != nil {
		return nil, err
	}

	ct, err := models.NewCredentialType(name, description, caller, startTime, endTime, price, s.now())
	if err != nil {
		return nil, err
	}
	if err := s.store.Create(ctx, ct); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to register credential type")
	}

	if s.auditor != nil {
		typeID := ct.ID
		_ = s.auditor.Emit(ctx, audit.Event{
			Actor:     caller,
			Action:    audit.ActionTypeCreated,
			TypeID:    &typeID,
			Detail:    ct.Name,
			RequestID: middleware.GetRequestID(ctx),
		})
	}
	if s.logger != nil {
		s.logger.InfoContext(ctx, "credential type registered",
			"type_id", ct.ID,
			"name", ct.Name,
			"event", string(audit.ActionTypeCreated),
			"log_type", "audit",
		)
	}
	if s.metrics != nil {
		s.metrics.IncrementTypesCreated()
	}
	return ct, nil
}

// Get returns one credential type.
func (s *Service) Get(ctx context.Context, typeID id.CredentialTypeID) (*models.CredentialType, error) {
	start := time.Now()
	ct, err := s.store.Get(ctx, typeID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "credential type not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load credential type")
	}
	if s.metrics != nil {
		s.metrics.ObserveLookup(start)
	}
	return ct, nil
}

// List returns all registered credential types in ID order.
func (s *Service) List(ctx context.Context) ([]*models.CredentialType, error) {
	types, err := s.store.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list credential types")
	}
	return types, nil
}

// IsCreated reports whether typeID has been registered. O(1): IDs are dense,
// so any ID below the next counter exists.
func (s *Service) IsCreated(ctx context.Context, typeID id.CredentialTypeID) (bool, error) {
	next, err := s.store.NextID(ctx)
	if err != nil {
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to query registry counter")
	}
	return uint64(typeID) < next, nil
}

// NextID returns the ID the next registration will receive.
func (s *Service) NextID(ctx context.Context) (uint64, error) {
	next, err := s.store.NextID(ctx)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to query registry counter")
	}
	return next, nil
}

// MetadataURI returns the metadata URI for a registered type: the base URI
// with the decimal ID appended, or empty when no base URI is configured.
func (s *Service) MetadataURI(ctx context.Context, typeID id.CredentialTypeID) (string, error) {
	created, err := s.IsCreated(ctx, typeID)
	if err != nil {
		return "", err
	}
	if !created {
		return "", dErrors.New(dErrors.CodeNotFound, "credential type not found")
	}
	baseURI, err := s.access.BaseURI(ctx)
	if err != nil {
		return "", err
	}
	if baseURI == "" {
		return "", nil
	}
	return baseURI + typeID.String(), nil
}
