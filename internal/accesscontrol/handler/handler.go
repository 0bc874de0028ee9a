// Package handler exposes the administrative surface over HTTP. All routes
// require an authenticated caller; the service enforces ownership.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"sigil/internal/accesscontrol/models"
	"sigil/internal/platform/middleware"
	id "sigil/pkg/domain"
	dErrors "sigil/pkg/domain-errors"
	"sigil/pkg/platform/httputil"
	"sigil/pkg/validation"
)

// Service defines the administrative operations the handler exposes.
type Service interface {
	State(ctx context.Context) (*models.State, error)
	ListMinters(ctx context.Context) ([]id.Address, error)
	Pause(ctx context.Context, caller id.Address) error
	Unpause(ctx context.Context, caller id.Address) error
	AddMinter(ctx context.Context, caller, addr id.Address) error
	RemoveMinter(ctx context.Context, caller, addr id.Address) error
	RotateSigner(ctx context.Context, caller id.Address, signerKey string) error
	RotateTreasury(ctx context.Context, caller, treasury id.Address) error
	SetBaseURI(ctx context.Context, caller id.Address, baseURI string) error
	TransferOwnership(ctx context.Context, caller, newOwner id.Address) error
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/admin/state", h.HandleGetState)
	r.Post("/admin/pause", h.HandlePause)
	r.Post("/admin/unpause", h.HandleUnpause)
	r.Post("/admin/minters", h.HandleAddMinter)
	r.Delete("/admin/minters/{addr}", h.HandleRemoveMinter)
	r.Put("/admin/signer", h.HandleRotateSigner)
	r.Put("/admin/treasury", h.HandleRotateTreasury)
	r.Put("/admin/base-uri", h.HandleSetBaseURI)
	r.Post("/admin/transfer-ownership", h.HandleTransferOwnership)
}

// HandleGetState returns the administrative state snapshot.
func (h *Handler) HandleGetState(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	state, err := h.service.State(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "get state failed", "error", err, "request_id", requestID)
		httputil.WriteError(w, err)
		return
	}
	minters, err := h.service.ListMinters(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "list minters failed", "error", err, "request_id", requestID)
		httputil.WriteError(w, err)
		return
	}

	resp := &StateResponse{
		Owner:    state.Owner.String(),
		Paused:   state.Paused,
		Signer:   state.Signer,
		Treasury: state.Treasury.String(),
		BaseURI:  state.BaseURI,
		Minters:  make([]string, 0, len(minters)),
	}
	for _, m := range minters {
		resp.Minters = append(resp.Minters, m.String())
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

// HandlePause engages the global pause switch.
func (h *Handler) HandlePause(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "pause", h.service.Pause, "paused")
}

// HandleUnpause releases the global pause switch.
func (h *Handler) HandleUnpause(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "unpause", h.service.Unpause, "unpaused")
}

func (h *Handler) transition(w http.ResponseWriter, r *http.Request, name string, op func(context.Context, id.Address) error, status string) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)
	caller := middleware.GetCaller(ctx)

	if err := op(ctx, caller); err != nil {
		h.logger.ErrorContext(ctx, name+" failed", "error", err, "request_id", requestID, "caller", caller)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, &StatusResponse{Status: status})
}

// HandleAddMinter grants the minter role.
func (h *Handler) HandleAddMinter(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)
	caller := middleware.GetCaller(ctx)

	req, ok := httputil.DecodeJSON[AddMinterRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	if err := validation.Validate(req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	addr, err := id.ParseAddress(req.Address)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if err := h.service.AddMinter(ctx, caller, addr); err != nil {
		h.logger.ErrorContext(ctx, "add minter failed", "error", err, "request_id", requestID, "minter", addr)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, &StatusResponse{Status: "minter_added"})
}

// HandleRemoveMinter revokes the minter role.
func (h *Handler) HandleRemoveMinter(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)
	caller := middleware.GetCaller(ctx)

	addr, err := id.ParseAddress(chi.URLParam(r, "addr"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid minter address"))
		return
	}

	if err := h.service.RemoveMinter(ctx, caller, addr); err != nil {
		h.logger.ErrorContext(ctx, "remove minter failed", "error", err, "request_id", requestID, "minter", addr)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, &StatusResponse{Status: "minter_removed"})
}

// HandleRotateSigner replaces the trusted signer public key.
func (h *Handler) HandleRotateSigner(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)
	caller := middleware.GetCaller(ctx)

	req, ok := httputil.DecodeJSON[RotateSignerRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	if err := validation.Validate(req); err != nil {
		httputil.WriteError(w, err)
		return
	}

	if err := h.service.RotateSigner(ctx, caller, req.PublicKey); err != nil {
		h.logger.ErrorContext(ctx, "rotate signer failed", "error", err, "request_id", requestID)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, &StatusResponse{Status: "signer_rotated"})
}

// HandleRotateTreasury replaces the treasury address.
func (h *Handler) HandleRotateTreasury(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)
	caller := middleware.GetCaller(ctx)

	req, ok := httputil.DecodeJSON[RotateTreasuryRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	if err := validation.Validate(req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	treasury, err := id.ParseAddress(req.Address)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if err := h.service.RotateTreasury(ctx, caller, treasury); err != nil {
		h.logger.ErrorContext(ctx, "rotate treasury failed", "error", err, "request_id", requestID)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, &StatusResponse{Status: "treasury_rotated"})
}

// HandleSetBaseURI replaces the metadata URI template.
func (h *Handler) HandleSetBaseURI(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)
	caller := middleware.GetCaller(ctx)

	req, ok := httputil.DecodeJSON[SetBaseURIRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	if err := h.service.SetBaseURI(ctx, caller, req.BaseURI); err != nil {
		h.logger.ErrorContext(ctx, "set base uri failed", "error", err, "request_id", requestID)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, &StatusResponse{Status: "base_uri_changed"})
}

// HandleTransferOwnership hands the engine to a new owner in one step.
func (h *Handler) HandleTransferOwnership(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)
	caller := middleware.GetCaller(ctx)

	req, ok := httputil.DecodeJSON[TransferOwnershipRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	if err := validation.Validate(req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	newOwner, err := id.ParseAddress(req.NewOwner)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if err := h.service.TransferOwnership(ctx, caller, newOwner); err != nil {
		h.logger.ErrorContext(ctx, "transfer ownership failed", "error", err, "request_id", requestID)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, &StatusResponse{Status: "ownership_transferred"})
}
