package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"sigil/internal/issuance/models"
	"sigil/internal/platform/middleware"
	id "sigil/pkg/domain"
	dErrors "sigil/pkg/domain-errors"
	"sigil/pkg/platform/httputil"
	"sigil/pkg/validation"
)

// Service defines the issuance operations the handler exposes.
type Service interface {
	Mint(ctx context.Context, caller id.Address, req models.MintRequest) (*models.MintReceipt, error)
	Burn(ctx context.Context, caller, holder id.Address, typeID id.CredentialTypeID, qty uint64) error
	BurnBatch(ctx context.Context, caller, holder id.Address, entries []models.BurnEntry) error
	SetApprovalForAll(ctx context.Context, caller, operator id.Address, approved bool) error
	Recover(ctx context.Context, caller, oldHolder, newHolder id.Address) ([]id.CredentialTypeID, error)
	BalanceOf(ctx context.Context, holder id.Address, typeID id.CredentialTypeID) (uint64, error)
	Balances(ctx context.Context, holder id.Address) ([]models.Balance, error)
	Nonce(ctx context.Context, holder id.Address) (uint64, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// RegisterAuthenticated mounts the routes that need a resolved caller.
func (h *Handler) RegisterAuthenticated(r chi.Router) {
	r.Post("/mint", h.HandleMint)
	r.Post("/burn", h.HandleBurn)
	r.Post("/burn/batch", h.HandleBurnBatch)
	r.Post("/approvals", h.HandleSetApproval)
	r.Post("/admin/recover", h.HandleRecover)
}

// RegisterPublic mounts the unauthenticated read routes.
func (h *Handler) RegisterPublic(r chi.Router) {
	r.Get("/balances/{holder}", h.HandleBalances)
	r.Get("/balances/{holder}/{id}", h.HandleBalanceOf)
	r.Get("/nonces/{holder}", h.HandleNonce)
}

// HandleMint credits one unit of a credential type.
func (h *Handler) HandleMint(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)
	caller := middleware.GetCaller(ctx)

	req, ok := httputil.DecodeJSON[MintRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	if err := validation.Validate(req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	to, err := id.ParseAddress(req.To)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	typeID, err := id.ParseCredentialTypeID(req.TypeID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	mintReq := models.MintRequest{To: to, TypeID: typeID, Value: req.Value}
	if req.Authorization != nil {
		mintReq.Authorization = &models.Authorization{
			Deadline:  req.Authorization.Deadline,
			Nonce:     req.Authorization.Nonce,
			Signature: req.Authorization.Signature,
		}
	}

	receipt, err := h.service.Mint(ctx, caller, mintReq)
	if err != nil {
		h.logger.ErrorContext(ctx, "mint failed", "error", err, "request_id", requestID, "to", to, "type_id", typeID)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toMintResponse(receipt))
}

// HandleBurn destroys units held by a holder.
func (h *Handler) HandleBurn(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)
	caller := middleware.GetCaller(ctx)

	req, ok := httputil.DecodeJSON[BurnRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	if err := validation.Validate(req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	holder, err := id.ParseAddress(req.Holder)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	typeID, err := id.ParseCredentialTypeID(req.TypeID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if err := h.service.Burn(ctx, caller, holder, typeID, req.Quantity); err != nil {
		h.logger.ErrorContext(ctx, "burn failed", "error", err, "request_id", requestID, "holder", holder, "type_id", typeID)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, &StatusResponse{Status: "burned"})
}

// HandleBurnBatch destroys several entries atomically.
func (h *Handler) HandleBurnBatch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)
	caller := middleware.GetCaller(ctx)

	req, ok := httputil.DecodeJSON[BurnBatchRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	if err := validation.Validate(req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	holder, err := id.ParseAddress(req.Holder)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	entries := make([]models.BurnEntry, 0, len(req.Entries))
	for _, e := range req.Entries {
		typeID, err := id.ParseCredentialTypeID(e.TypeID)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		entries = append(entries, models.BurnEntry{TypeID: typeID, Quantity: e.Quantity})
	}

	if err := h.service.BurnBatch(ctx, caller, holder, entries); err != nil {
		h.logger.ErrorContext(ctx, "burn batch failed", "error", err, "request_id", requestID, "holder", holder)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, &StatusResponse{Status: "burned"})
}

// HandleSetApproval grants or revokes an operator's burn rights over the
// caller's credentials.
func (h *Handler) HandleSetApproval(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)
	caller := middleware.GetCaller(ctx)

	req, ok := httputil.DecodeJSON[ApprovalRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	if err := validation.Validate(req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	operator, err := id.ParseAddress(req.Operator)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if err := h.service.SetApprovalForAll(ctx, caller, operator, req.Approved); err != nil {
		h.logger.ErrorContext(ctx, "set approval failed", "error", err, "request_id", requestID, "operator", operator)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, &StatusResponse{Status: "approval_changed"})
}

// HandleRecover moves all of a holder's credentials to a new holder.
func (h *Handler) HandleRecover(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)
	caller := middleware.GetCaller(ctx)

	req, ok := httputil.DecodeJSON[RecoverRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	if err := validation.Validate(req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	oldHolder, err := id.ParseAddress(req.OldHolder)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	newHolder, err := id.ParseAddress(req.NewHolder)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	moved, err := h.service.Recover(ctx, caller, oldHolder, newHolder)
	if err != nil {
		h.logger.ErrorContext(ctx, "recover failed", "error", err, "request_id", requestID, "old_holder", oldHolder, "new_holder", newHolder)
		httputil.WriteError(w, err)
		return
	}

	movedTypes := make([]string, 0, len(moved))
	for _, typeID := range moved {
		movedTypes = append(movedTypes, typeID.String())
	}
	httputil.WriteJSON(w, http.StatusOK, &RecoverResponse{
		OldHolder:  oldHolder.String(),
		NewHolder:  newHolder.String(),
		MovedTypes: movedTypes,
	})
}

// HandleBalances lists a holder's non-zero balances across all types.
func (h *Handler) HandleBalances(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	holder, err := id.ParseAddress(chi.URLParam(r, "holder"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid holder address"))
		return
	}

	balances, err := h.service.Balances(ctx, holder)
	if err != nil {
		h.logger.ErrorContext(ctx, "list balances failed", "error", err, "request_id", requestID, "holder", holder)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, &BalancesResponse{Holder: holder.String(), Balances: balances})
}

// HandleBalanceOf returns one holder's quantity of one credential type.
func (h *Handler) HandleBalanceOf(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	holder, err := id.ParseAddress(chi.URLParam(r, "holder"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid holder address"))
		return
	}
	typeID, err := id.ParseCredentialTypeID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid credential type id"))
		return
	}

	qty, err := h.service.BalanceOf(ctx, holder, typeID)
	if err != nil {
		h.logger.ErrorContext(ctx, "balance lookup failed", "error", err, "request_id", requestID, "holder", holder)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, &BalanceResponse{
		Holder:   holder.String(),
		TypeID:   typeID.String(),
		Quantity: qty,
	})
}

// HandleNonce returns a holder's current authorization counter.
func (h *Handler) HandleNonce(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	holder, err := id.ParseAddress(chi.URLParam(r, "holder"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid holder address"))
		return
	}

	nonce, err := h.service.Nonce(ctx, holder)
	if err != nil {
		h.logger.ErrorContext(ctx, "nonce lookup failed", "error", err, "request_id", requestID, "holder", holder)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, &NonceResponse{Holder: holder.String(), Nonce: nonce})
}
