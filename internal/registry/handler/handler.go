package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"sigil/internal/platform/middleware"
	"sigil/internal/registry/models"
	id "sigil/pkg/domain"
	dErrors "sigil/pkg/domain-errors"
	"sigil/pkg/platform/httputil"
	"sigil/pkg/validation"
)

// Service defines the registry operations the handler exposes.
type Service interface {
	Create(ctx context.Context, caller id.Address, name, description string, startTime, endTime int64, price uint64) (*models.CredentialType, error)
	Get(ctx context.Context, typeID id.CredentialTypeID) (*models.CredentialType, error)
	List(ctx context.Context) ([]*models.CredentialType, error)
	MetadataURI(ctx context.Context, typeID id.CredentialTypeID) (string, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// RegisterAdmin mounts the owner-gated registration route.
func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Post("/admin/credential-types", h.HandleCreate)
}

// RegisterPublic mounts the unauthenticated read routes.
func (h *Handler) RegisterPublic(r chi.Router) {
	r.Get("/credential-types", h.HandleList)
	r.Get("/credential-types/{id}", h.HandleGet)
	r.Get("/credential-types/{id}/uri", h.HandleMetadataURI)
}

// HandleCreate registers a new credential type.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)
	caller := middleware.GetCaller(ctx)

	req, ok := httputil.DecodeJSON[CreateCredentialTypeRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	if err := validation.Validate(req); err != nil {
		httputil.WriteError(w, err)
		return
	}

	ct, err := h.service.Create(ctx, caller, req.Name, req.Description, req.StartTime, req.EndTime, req.Price)
	if err != nil {
		h.logger.ErrorContext(ctx, "create credential type failed", "error", err, "request_id", requestID)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toCredentialTypeResponse(ct))
}

// HandleList returns every registered credential type.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	types, err := h.service.List(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "list credential types failed", "error", err, "request_id", requestID)
		httputil.WriteError(w, err)
		return
	}
	out := make([]*CredentialTypeResponse, 0, len(types))
	for _, ct := range types {
		out = append(out, toCredentialTypeResponse(ct))
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}

// HandleGet returns one credential type.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	typeID, err := id.ParseCredentialTypeID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid credential type id"))
		return
	}

	ct, err := h.service.Get(ctx, typeID)
	if err != nil {
		h.logger.ErrorContext(ctx, "get credential type failed", "error", err, "request_id", requestID, "type_id", typeID)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toCredentialTypeResponse(ct))
}

// HandleMetadataURI resolves the metadata URI for one credential type.
func (h *Handler) HandleMetadataURI(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	typeID, err := id.ParseCredentialTypeID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid credential type id"))
		return
	}

	uri, err := h.service.MetadataURI(ctx, typeID)
	if err != nil {
		h.logger.ErrorContext(ctx, "resolve metadata uri failed", "error", err, "request_id", requestID, "type_id", typeID)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, &MetadataURIResponse{ID: typeID.String(), URI: uri})
}
