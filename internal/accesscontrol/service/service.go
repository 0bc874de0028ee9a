// Package service implements the administrative operations of the credential
// engine: ownership, the global pause switch, the minter set, the trusted
// signer key, the treasury, and the metadata base URI.
package service

import (
	"context"
	"errors"
	"log/slog"

	acmetrics "sigil/internal/accesscontrol/metrics"
	"sigil/internal/accesscontrol/models"
	"sigil/internal/accesscontrol/store"
	"sigil/internal/audit"
	"sigil/internal/platform/middleware"
	id "sigil/pkg/domain"
	dErrors "sigil/pkg/domain-errors"
	"sigil/pkg/platform/sentinel"
)

// AuditPublisher records administrative state transitions.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service orchestrates administrative state changes. Every mutating method
// takes the caller identity explicitly; nothing is inferred from ambient
// state.
type Service struct {
	store   store.Store
	logger  *slog.Logger
	auditor AuditPublisher
	metrics *acmetrics.Metrics
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

func WithMetrics(m *acmetrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func New(st store.Store, opts ...Option) *Service {
	s := &Service{store: st}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// State returns the current administrative state snapshot.
func (s *Service) State(ctx context.Context) (*models.State, error) {
	state, err := s.store.State(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load administrative state")
	}
	return state, nil
}

// IsPaused reports whether the global pause switch is engaged.
func (s *Service) IsPaused(ctx context.Context) (bool, error) {
	state, err := s.State(ctx)
	if err != nil {
		return false, err
	}
	return state.Paused, nil
}

// BaseURI returns the metadata URI template.
func (s *Service) BaseURI(ctx context.Context) (string, error) {
	state, err := s.State(ctx)
	if err != nil {
		return "", err
	}
	return state.BaseURI, nil
}

// Treasury returns the current treasury address.
func (s *Service) Treasury(ctx context.Context) (id.Address, error) {
	state, err := s.State(ctx)
	if err != nil {
		return "", err
	}
	return state.Treasury, nil
}

// SignerKey returns the trusted signer public key, hex-encoded. Empty means
// the signature mint path is unavailable.
func (s *Service) SignerKey(ctx context.Context) (string, error) {
	state, err := s.State(ctx)
	if err != nil {
		return "", err
	}
	return state.Signer, nil
}

// IsMinter reports whether addr holds the minter role.
func (s *Service) IsMinter(ctx context.Context, addr id.Address) (bool, error) {
	ok, err := s.store.IsMinter(ctx, addr)
	if err != nil {
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to query minter set")
	}
	return ok, nil
}

// ListMinters returns the current minter set.
func (s *Service) ListMinters(ctx context.Context) ([]id.Address, error) {
	minters, err := s.store.ListMinters(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list minters")
	}
	return minters, nil
}

// RequireOwner fails with unauthorized unless caller is the current owner.
func (s *Service) RequireOwner(ctx context.Context, caller id.Address) error {
	state, err := s.State(ctx)
	if err != nil {
		return err
	}
	if caller != state.Owner {
		return dErrors.New(dErrors.CodeUnauthorized, "caller is not the owner")
	}
	return nil
}

// RequireUnpaused fails with state_paused while the pause switch is engaged.
func (s *Service) RequireUnpaused(ctx context.Context) error {
	paused, err := s.IsPaused(ctx)
	if err != nil {
		return err
	}
	if paused {
		return dErrors.New(dErrors.CodeStatePaused, "engine is paused")
	}
	return nil
}

// Pause engages the global pause switch. Owner-only; pausing an already
// paused engine fails.
func (s *Service) Pause(ctx context.Context, caller id.Address) error {
	state, err := s.State(ctx)
	if err != nil {
		return err
	}
	if caller != state.Owner {
		return dErrors.New(dErrors.CodeUnauthorized, "caller is not the owner")
	}
	if state.Paused {
		return dErrors.New(dErrors.CodeStatePaused, "engine is already paused")
	}
	if err := s.store.SetPaused(ctx, true); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to pause")
	}
	s.emit(ctx, caller, audit.ActionPaused, "")
	if s.metrics != nil {
		s.metrics.IncrementPauseToggles()
	}
	return nil
}

// Unpause releases the global pause switch. Owner-only; releasing an
// unpaused engine fails.
func (s *Service) Unpause(ctx context.Context, caller id.Address) error {
	state, err := s.State(ctx)
	if err != nil {
		return err
	}
	if caller != state.Owner {
		return dErrors.New(dErrors.CodeUnauthorized, "caller is not the owner")
	}
	if !state.Paused {
		return dErrors.New(dErrors.CodeInvariantViolation, "engine is not paused")
	}
	if err := s.store.SetPaused(ctx, false); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to unpause")
	}
	s.emit(ctx, caller, audit.ActionUnpaused, "")
	if s.metrics != nil {
		s.metrics.IncrementPauseToggles()
	}
	return nil
}

// AddMinter grants the minter role. Owner-only, unpaused; granting an
// existing member fails rather than silently succeeding so role drift is
// always visible.
func (s *Service) AddMinter(ctx context.Context, caller, addr id.Address) error {
	if err := s.RequireOwner(ctx, caller); err != nil {
		return err
	}
	if err := s.RequireUnpaused(ctx); err != nil {
		return err
	}
	if addr.IsZero() {
		return dErrors.New(dErrors.CodeInvalidInput, "minter must be a non-zero address")
	}
	if err := s.store.AddMinter(ctx, addr); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return dErrors.New(dErrors.CodeInvariantViolation, "address already holds the minter role")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to add minter")
	}
	s.emit(ctx, caller, audit.ActionMinterAdded, addr.String())
	if s.metrics != nil {
		s.metrics.IncrementMinterEdits()
	}
	return nil
}

// RemoveMinter revokes the minter role. Owner-only, unpaused; revoking a
// non-member fails.
func (s *Service) RemoveMinter(ctx context.Context, caller, addr id.Address) error {
	if err := s.RequireOwner(ctx, caller); err != nil {
		return err
	}
	if err := s.RequireUnpaused(ctx); err != nil {
		return err
	}
	if err := s.store.RemoveMinter(ctx, addr); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeInvariantViolation, "address does not hold the minter role")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to remove minter")
	}
	s.emit(ctx, caller, audit.ActionMinterRemoved, addr.String())
	if s.metrics != nil {
		s.metrics.IncrementMinterEdits()
	}
	return nil
}

// RotateSigner replaces the trusted signer key. Owner-only and deliberately
// NOT pause-gated: a compromised signer must be replaceable while the engine
// is frozen. Rotation invalidates every unconsumed signed authorization.
func (s *Service) RotateSigner(ctx context.Context, caller id.Address, signerKey string) error {
	if err := s.RequireOwner(ctx, caller); err != nil {
		return err
	}
	key, err := models.ParseSignerKey(signerKey)
	if err != nil {
		return err
	}
	if err := s.store.SetSigner(ctx, key); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to rotate signer")
	}
	s.emit(ctx, caller, audit.ActionSignerRotated, "")
	if s.metrics != nil {
		s.metrics.IncrementSignerRotations()
	}
	return nil
}

// RotateTreasury replaces the treasury address. Owner-only, unpaused.
func (s *Service) RotateTreasury(ctx context.Context, caller, treasury id.Address) error {
	if err := s.RequireOwner(ctx, caller); err != nil {
		return err
	}
	if err := s.RequireUnpaused(ctx); err != nil {
		return err
	}
	if treasury.IsZero() {
		return dErrors.New(dErrors.CodeInvalidInput, "treasury must be a non-zero address")
	}
	if err := s.store.SetTreasury(ctx, treasury); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to rotate treasury")
	}
	s.emit(ctx, caller, audit.ActionTreasuryRotated, treasury.String())
	return nil
}

// SetBaseURI replaces the metadata URI template. Owner-only, unpaused.
// An empty base URI is valid and disables metadata URIs.
func (s *Service) SetBaseURI(ctx context.Context, caller id.Address, baseURI string) error {
	if err := s.RequireOwner(ctx, caller); err != nil {
		return err
	}
	if err := s.RequireUnpaused(ctx); err != nil {
		return err
	}
	if err := s.store.SetBaseURI(ctx, baseURI); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to set base URI")
	}
	s.emit(ctx, caller, audit.ActionBaseURIChanged, baseURI)
	return nil
}

// TransferOwnership hands the engine to a new owner in one step. Owner-only
// and NOT pause-gated: the owner must be able to hand over a frozen engine.
func (s *Service) TransferOwnership(ctx context.Context, caller, newOwner id.Address) error {
	if err := s.RequireOwner(ctx, caller); err != nil {
		return err
	}
	if newOwner.IsZero() {
		return dErrors.New(dErrors.CodeInvalidInput, "new owner must be a non-zero address")
	}
	if err := s.store.SetOwner(ctx, newOwner); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to transfer ownership")
	}
	event := audit.Event{
		Actor:     caller,
		Action:    audit.ActionOwnershipTransferred,
		NewHolder: newOwner,
		RequestID: middleware.GetRequestID(ctx),
	}
	if s.auditor != nil {
		_ = s.auditor.Emit(ctx, event)
	}
	s.log(ctx, audit.ActionOwnershipTransferred, "new_owner", newOwner)
	if s.metrics != nil {
		s.metrics.IncrementOwnershipHandover()
	}
	return nil
}

func (s *Service) emit(ctx context.Context, actor id.Address, action audit.Action, detail string) {
	if s.auditor != nil {
		_ = s.auditor.Emit(ctx, audit.Event{
			Actor:     actor,
			Action:    action,
			Detail:    detail,
			RequestID: middleware.GetRequestID(ctx),
		})
	}
	s.log(ctx, action, "detail", detail)
}

func (s *Service) log(ctx context.Context, action audit.Action, attributes ...any) {
	if s.logger == nil {
		return
	}
	args := append(attributes, "event", string(action), "log_type", "audit")
	s.logger.InfoContext(ctx, string(action), args...)
}
