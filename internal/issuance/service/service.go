// Package service implements the issuance engine: mint with ordered
// fail-fast preconditions, burn, operator approvals, and the administrative
// recovery operation. All state mutations complete before any external value
// transfer begins.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	contracts "sigil/contracts/ledger"
	"sigil/internal/audit"
	"sigil/internal/issuance/authz"
	issmetrics "sigil/internal/issuance/metrics"
	"sigil/internal/issuance/models"
	"sigil/internal/issuance/tracer"
	"sigil/internal/platform/config"
	"sigil/internal/platform/middleware"
	regmodels "sigil/internal/registry/models"
	id "sigil/pkg/domain"
	dErrors "sigil/pkg/domain-errors"
	"sigil/pkg/platform/sentinel"
	psync "sigil/pkg/platform/sync"
)

// Registry is the slice of the credential type registry the engine needs.
type Registry interface {
	Get(ctx context.Context, typeID id.CredentialTypeID) (*regmodels.CredentialType, error)
	NextID(ctx context.Context) (uint64, error)
}

// Ledger is the guarded balance ledger boundary.
type Ledger interface {
	BalanceOf(ctx context.Context, holder id.Address, typeID id.CredentialTypeID) (uint64, error)
	Mint(ctx context.Context, to id.Address, typeID id.CredentialTypeID, qty uint64) error
	Burn(ctx context.Context, from id.Address, typeID id.CredentialTypeID, qty uint64) error
	BurnBatch(ctx context.Context, from id.Address, entries []contracts.Entry) error
	Recover(ctx context.Context, from, to id.Address, entries []contracts.Entry) error
	SetApprovalForAll(ctx context.Context, holder, operator id.Address, approved bool) error
	IsApprovedForAll(ctx context.Context, holder, operator id.Address) (bool, error)
}

// AccessControl is the slice of the administrative layer the engine needs.
type AccessControl interface {
	RequireOwner(ctx context.Context, caller id.Address) error
	RequireUnpaused(ctx context.Context) error
	IsMinter(ctx context.Context, addr id.Address) (bool, error)
	SignerKey(ctx context.Context) (string, error)
	Treasury(ctx context.Context) (id.Address, error)
}

// ValueSink accepts value forwarded to the treasury.
type ValueSink interface {
	Forward(ctx context.Context, from, treasury id.Address, value uint64) error
}

// AuditPublisher records issuance events.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service is the issuance engine.
type Service struct {
	registry Registry
	ledger   Ledger
	access   AccessControl
	nonces   authz.NonceStore
	sink     ValueSink

	mode     config.MintAuthMode
	domainID [32]byte

	// mintLocks serializes signed mints per recipient so the nonce read and
	// its consumption cannot interleave between two requests. The store-level
	// CAS makes the race harmless; the lock makes the loser's failure
	// deterministic.
	mintLocks *psync.ShardedMutex

	logger  *slog.Logger
	auditor AuditPublisher
	metrics *issmetrics.Metrics
	tracer  tracer.Tracer
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

func WithMetrics(m *issmetrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithTracer(t tracer.Tracer) Option {
	return func(s *Service) {
		s.tracer = t
	}
}

// WithClock overrides the time source. Test hook.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

func New(registry Registry, ledger Ledger, access AccessControl, nonces authz.NonceStore, sink ValueSink, mode config.MintAuthMode, domain string, opts ...Option) *Service {
	s := &Service{
		registry:  registry,
		ledger:    ledger,
		access:    access,
		nonces:    nonces,
		sink:      sink,
		mode:      mode,
		domainID:  authz.DomainID(domain),
		mintLocks: psync.NewShardedMutex(),
		tracer:    tracer.NewNoop(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Mint credits one unit of a credential type. Preconditions are checked in a
// fixed order, each with a distinct error code, and the whole operation is
// all-or-nothing: a rejected precondition leaves every counter untouched.
func (s *Service) Mint(ctx context.Context, caller id.Address, req models.MintRequest) (receipt *models.MintReceipt, err error) {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, tracer.SpanMint,
		tracer.String(tracer.AttrHolder, req.To.String()),
		tracer.Int64(tracer.AttrTypeID, int64(req.TypeID)), // #nosec G115 -- dense IDs stay far below int64 range
	)
	defer func() {
		span.End(err)
		if err != nil {
			s.rejectMint(err)
			return
		}
		if s.metrics != nil {
			s.metrics.ObserveMint(start)
		}
	}()

	if req.To.IsZero() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "recipient must be a non-zero address")
	}
	if err := s.access.RequireUnpaused(ctx); err != nil {
		return nil, err
	}
	ct, err := s.registry.Get(ctx, req.TypeID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	if !ct.WindowStarted(now.Unix()) {
		return nil, dErrors.New(dErrors.CodeWindowNotStarted, "mint window has not started")
	}
	if ct.WindowEnded(now.Unix()) {
		return nil, dErrors.New(dErrors.CodeWindowEnded, "mint window has ended")
	}

	switch s.mode {
	case config.MintAuthSignature:
		if err := s.mintSigned(ctx, ct, req, now, span); err != nil {
			return nil, err
		}
	default:
		ok, err := s.access.IsMinter(ctx, caller)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "caller does not hold the minter role")
		}
		if err := s.ledger.Mint(ctx, req.To, req.TypeID, 1); err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to credit credential")
		}
	}

	s.emitMint(ctx, caller, req)
	s.forwardValue(ctx, caller, req.Value, span)
	if s.metrics != nil {
		s.metrics.IncrementMints(string(s.mode))
	}
	return &models.MintReceipt{To: req.To, TypeID: req.TypeID, Value: req.Value, Path: string(s.mode)}, nil
}

// mintSigned runs the signature-path checks and effects under the
// per-recipient lock: verify deadline and signature, require the attached
// value cover the price, require a zero starting balance, credit the unit,
// then consume the nonce. A failure at any step leaves the nonce unchanged.
func (s *Service) mintSigned(ctx context.Context, ct *regmodels.CredentialType, req models.MintRequest, now time.Time, span tracer.Span) error {
	if req.Authorization == nil {
		return dErrors.New(dErrors.CodeUnauthorized, "a signed authorization is required")
	}

	s.mintLocks.Lock(req.To.String())
	defer s.mintLocks.Unlock(req.To.String())

	signerKey, err := s.access.SignerKey(ctx)
	if err != nil {
		return err
	}
	msg := authz.Message{
		Recipient: req.To,
		TypeID:    req.TypeID,
		Price:     ct.Price,
		Deadline:  req.Authorization.Deadline,
		DomainID:  s.domainID,
		Nonce:     req.Authorization.Nonce,
	}
	if err := authz.Verify(signerKey, msg, req.Authorization.Signature, now); err != nil {
		return err
	}

	current, err := s.nonces.Current(ctx, req.To)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to read nonce")
	}
	if req.Authorization.Nonce != current {
		return dErrors.New(dErrors.CodeUnauthorized, "authorization nonce already consumed")
	}
	if req.Value < ct.Price {
		return dErrors.New(dErrors.CodeValueTooLow, "attached value is below the required price")
	}
	balance, err := s.ledger.BalanceOf(ctx, req.To, req.TypeID)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to read balance")
	}
	if balance != 0 {
		return dErrors.New(dErrors.CodeInvariantViolation, "recipient already holds this credential type")
	}

	if err := s.ledger.Mint(ctx, req.To, req.TypeID, 1); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to credit credential")
	}
	if err := s.nonces.Consume(ctx, req.To, current); err != nil {
		// Unreachable while the recipient lock is held; surface loudly if it
		// ever happens.
		if errors.Is(err, sentinel.ErrStaleNonce) {
			return dErrors.New(dErrors.CodeUnauthorized, "authorization nonce already consumed")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to consume nonce")
	}
	span.AddEvent(tracer.EventNonceConsumed)
	return nil
}

// Burn destroys qty units held by holder. The caller must be the holder or
// an approved operator. Deliberately NOT pause-gated: holders can always
// shed credentials.
func (s *Service) Burn(ctx context.Context, caller, holder id.Address, typeID id.CredentialTypeID, qty uint64) (err error) {
	ctx, span := s.tracer.Start(ctx, tracer.SpanBurn,
		tracer.String(tracer.AttrHolder, holder.String()),
		tracer.Int64(tracer.AttrTypeID, int64(typeID)), // #nosec G115
	)
	defer func() { span.End(err) }()

	if err := s.requireBurnAuthority(ctx, caller, holder); err != nil {
		return err
	}
	if err := s.ledger.Burn(ctx, holder, typeID, qty); err != nil {
		if errors.Is(err, sentinel.ErrInsufficient) {
			return dErrors.New(dErrors.CodeInvariantViolation, "insufficient balance to burn")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to burn credential")
	}

	if s.auditor != nil {
		tid := typeID
		_ = s.auditor.Emit(ctx, audit.Event{
			Actor:     caller,
			Action:    audit.ActionBurned,
			TypeID:    &tid,
			Holder:    holder,
			Quantity:  qty,
			RequestID: middleware.GetRequestID(ctx),
		})
	}
	if s.metrics != nil {
		s.metrics.IncrementBurns()
	}
	return nil
}

// BurnBatch destroys several entries atomically.
func (s *Service) BurnBatch(ctx context.Context, caller, holder id.Address, entries []models.BurnEntry) (err error) {
	ctx, span := s.tracer.Start(ctx, tracer.SpanBurn,
		tracer.String(tracer.AttrHolder, holder.String()),
	)
	defer func() { span.End(err) }()

	if err := s.requireBurnAuthority(ctx, caller, holder); err != nil {
		return err
	}
	batch := make([]contracts.Entry, 0, len(entries))
	for _, e := range entries {
		batch = append(batch, contracts.Entry{TypeID: uint64(e.TypeID), Quantity: e.Quantity})
	}
	if err := s.ledger.BurnBatch(ctx, holder, batch); err != nil {
		if errors.Is(err, sentinel.ErrInsufficient) {
			return dErrors.New(dErrors.CodeInvariantViolation, "insufficient balance to burn")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to burn credentials")
	}

	if s.auditor != nil {
		_ = s.auditor.Emit(ctx, audit.Event{
			Actor:     caller,
			Action:    audit.ActionBurned,
			Holder:    holder,
			Quantity:  uint64(len(entries)),
			RequestID: middleware.GetRequestID(ctx),
		})
	}
	if s.metrics != nil {
		s.metrics.IncrementBurns()
	}
	return nil
}

func (s *Service) requireBurnAuthority(ctx context.Context, caller, holder id.Address) error {
	if caller == holder {
		return nil
	}
	approved, err := s.ledger.IsApprovedForAll(ctx, holder, caller)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to check operator approval")
	}
	if !approved {
		return dErrors.New(dErrors.CodeUnauthorized, "caller is neither the holder nor an approved operator")
	}
	return nil
}

// SetApprovalForAll lets the caller authorize or revoke an operator to burn
// on its behalf.
func (s *Service) SetApprovalForAll(ctx context.Context, caller, operator id.Address, approved bool) error {
	if err := s.ledger.SetApprovalForAll(ctx, caller, operator, approved); err != nil {
		return err
	}
	if s.auditor != nil {
		_ = s.auditor.Emit(ctx, audit.Event{
			Actor:     caller,
			Action:    audit.ActionApprovalChanged,
			Holder:    caller,
			NewHolder: operator,
			Detail:    approvalDetail(approved),
			RequestID: middleware.GetRequestID(ctx),
		})
	}
	return nil
}

func approvalDetail(approved bool) string {
	if approved {
		return "granted"
	}
	return "revoked"
}

// Recover moves every non-zero balance of oldHolder to newHolder in one
// atomic batch. Owner-only and pause-gated; an all-zero holder fails with
// empty_recovery and changes nothing.
func (s *Service) Recover(ctx context.Context, caller, oldHolder, newHolder id.Address) (moved []id.CredentialTypeID, err error) {
	ctx, span := s.tracer.Start(ctx, tracer.SpanRecover,
		tracer.String(tracer.AttrHolder, oldHolder.String()),
	)
	defer func() { span.End(err) }()

	if err := s.access.RequireOwner(ctx, caller); err != nil {
		return nil, err
	}
	if err := s.access.RequireUnpaused(ctx); err != nil {
		return nil, err
	}
	if oldHolder.IsZero() || newHolder.IsZero() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "recovery endpoints must be non-zero addresses")
	}
	if oldHolder == newHolder {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "recovery endpoints must differ")
	}

	next, err := s.registry.NextID(ctx)
	if err != nil {
		return nil, err
	}
	var entries []contracts.Entry
	for typeID := uint64(0); typeID < next; typeID++ {
		qty, err := s.ledger.BalanceOf(ctx, oldHolder, id.CredentialTypeID(typeID))
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read balance during recovery")
		}
		if qty > 0 {
			entries = append(entries, contracts.Entry{TypeID: typeID, Quantity: qty})
			moved = append(moved, id.CredentialTypeID(typeID))
		}
	}
	if len(entries) == 0 {
		return nil, dErrors.New(dErrors.CodeEmptyRecovery, "holder has nothing to recover")
	}

	if err := s.ledger.Recover(ctx, oldHolder, newHolder, entries); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to move balances")
	}
	span.SetAttributes(tracer.Int64(tracer.AttrMoved, int64(len(moved))))

	if s.auditor != nil {
		_ = s.auditor.Emit(ctx, audit.Event{
			Actor:        caller,
			Action:       audit.ActionRecovered,
			Holder:       oldHolder,
			NewHolder:    newHolder,
			MovedTypeIDs: append([]id.CredentialTypeID{}, moved...),
			RequestID:    middleware.GetRequestID(ctx),
		})
	}
	if s.logger != nil {
		s.logger.InfoContext(ctx, "credentials recovered",
			"old_holder", oldHolder,
			"new_holder", newHolder,
			"moved_types", len(moved),
			"event", string(audit.ActionRecovered),
			"log_type", "audit",
		)
	}
	if s.metrics != nil {
		s.metrics.IncrementRecoveries()
	}
	return moved, nil
}

// BalanceOf returns one holder's quantity of one credential type.
func (s *Service) BalanceOf(ctx context.Context, holder id.Address, typeID id.CredentialTypeID) (uint64, error) {
	qty, err := s.ledger.BalanceOf(ctx, holder, typeID)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read balance")
	}
	return qty, nil
}

// Balances returns a holder's non-zero balances across every created type.
func (s *Service) Balances(ctx context.Context, holder id.Address) ([]models.Balance, error) {
	next, err := s.registry.NextID(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]models.Balance, 0)
	for typeID := uint64(0); typeID < next; typeID++ {
		qty, err := s.ledger.BalanceOf(ctx, holder, id.CredentialTypeID(typeID))
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read balance")
		}
		if qty > 0 {
			out = append(out, models.Balance{TypeID: id.CredentialTypeID(typeID), Quantity: qty})
		}
	}
	return out, nil
}

// Nonce returns a holder's current authorization counter.
func (s *Service) Nonce(ctx context.Context, holder id.Address) (uint64, error) {
	nonce, err := s.nonces.Current(ctx, holder)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read nonce")
	}
	return nonce, nil
}

func (s *Service) emitMint(ctx context.Context, caller id.Address, req models.MintRequest) {
	if s.auditor != nil {
		tid := req.TypeID
		_ = s.auditor.Emit(ctx, audit.Event{
			Actor:     caller,
			Action:    audit.ActionMinted,
			TypeID:    &tid,
			Holder:    req.To,
			Quantity:  1,
			Value:     req.Value,
			RequestID: middleware.GetRequestID(ctx),
		})
	}
	if s.logger != nil {
		s.logger.InfoContext(ctx, "credential minted",
			"to", req.To,
			"type_id", req.TypeID,
			"value", req.Value,
			"event", string(audit.ActionMinted),
			"log_type", "audit",
		)
	}
}

// forwardValue sends attached value to the treasury. It runs strictly after
// every state mutation; a sink failure is recorded but does not unwind the
// committed mint.
func (s *Service) forwardValue(ctx context.Context, from id.Address, value uint64, span tracer.Span) {
	if value == 0 {
		return
	}
	treasuryAddr, err := s.access.Treasury(ctx)
	if err != nil || treasuryAddr.IsZero() {
		if s.logger != nil {
			s.logger.ErrorContext(ctx, "no treasury configured for value forwarding", "error", err)
		}
		return
	}
	if err := s.sink.Forward(ctx, from, treasuryAddr, value); err != nil {
		if s.logger != nil {
			s.logger.ErrorContext(ctx, "value forwarding failed", "error", err, "value", value)
		}
		return
	}
	span.AddEvent(tracer.EventValueForwarded, tracer.Int64(tracer.AttrValue, int64(value))) // #nosec G115
	if s.auditor != nil {
		_ = s.auditor.Emit(ctx, audit.Event{
			Actor:     from,
			Action:    audit.ActionValueForwarded,
			NewHolder: treasuryAddr,
			Value:     value,
			RequestID: middleware.GetRequestID(ctx),
		})
	}
	if s.metrics != nil {
		s.metrics.AddValueForwarded(value)
	}
}

func (s *Service) rejectMint(err error) {
	if s.metrics == nil {
		return
	}
	var domainErr *dErrors.Error
	if errors.As(err, &domainErr) {
		s.metrics.IncrementMintRejections(string(domainErr.Code))
		return
	}
	s.metrics.IncrementMintRejections(string(dErrors.CodeInternal))
}
